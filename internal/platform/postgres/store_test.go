package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/genewise-api/internal/diagnostics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockResult implements sql.Result for testing
type mockResult struct{}

func (mockResult) LastInsertId() (int64, error) { return 0, nil }
func (mockResult) RowsAffected() (int64, error) { return 1, nil }

type execCall struct {
	query string
	args  []any
}

type fakeExecer struct {
	calls []execCall
	err   error
}

func (f *fakeExecer) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	f.calls = append(f.calls, execCall{query: query, args: args})
	if f.err != nil {
		return nil, f.err
	}
	return mockResult{}, nil
}

func TestDiagnosticsStoreInsertsPayload(t *testing.T) {
	db := &fakeExecer{}
	store := NewDiagnosticsStore(db)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	err := store.Store(context.Background(), "report_simplification", "run-1", map[string]string{"status": "Success"})

	require.NoError(t, err)
	require.Len(t, db.calls, 1)
	args := db.calls[0].args
	require.Len(t, args, 4)
	assert.Equal(t, "report_simplification", args[0])
	assert.Equal(t, "run-1", args[1])
	assert.JSONEq(t, `{"status":"Success"}`, string(args[2].([]byte)))
	assert.Equal(t, fixed, args[3])
}

func TestDiagnosticsStoreErrors(t *testing.T) {
	t.Run("invalid key", func(t *testing.T) {
		db := &fakeExecer{}
		err := NewDiagnosticsStore(db).Store(context.Background(), "", "p", 1)

		assert.ErrorIs(t, err, diagnostics.ErrInvalidRecord)
		assert.Empty(t, db.calls)
	})

	t.Run("unencodable value", func(t *testing.T) {
		db := &fakeExecer{}
		err := NewDiagnosticsStore(db).Store(context.Background(), "c", "p", func() {})

		assert.ErrorIs(t, err, diagnostics.ErrInvalidRecord)
		assert.Empty(t, db.calls)
	})

	t.Run("duplicate", func(t *testing.T) {
		db := &fakeExecer{err: &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "diagnostics_pkey"}}
		err := NewDiagnosticsStore(db).Store(context.Background(), "c", "p", 1)

		assert.ErrorIs(t, err, diagnostics.ErrDuplicate)
		assert.True(t, IsUniqueViolation(err))
	})

	t.Run("missing table", func(t *testing.T) {
		db := &fakeExecer{err: &pgconn.PgError{Code: undefinedTableCode}}
		err := NewDiagnosticsStore(db).Store(context.Background(), "c", "p", 1)

		assert.ErrorIs(t, err, ErrSchemaMissing)
	})
}

func TestMapError(t *testing.T) {
	plain := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"unique", &pgconn.PgError{Code: uniqueViolationCode}, diagnostics.ErrDuplicate},
		{"check", &pgconn.PgError{Code: checkViolationCode, ConstraintName: "diagnostics_path_check"}, diagnostics.ErrInvalidRecord},
		{"not null", &pgconn.PgError{Code: notNullViolationCode, ColumnName: "payload"}, diagnostics.ErrInvalidRecord},
		{"invalid json", &pgconn.PgError{Code: invalidTextRepresentation}, diagnostics.ErrInvalidRecord},
		{"undefined table", &pgconn.PgError{Code: undefinedTableCode}, ErrSchemaMissing},
		{"unmapped", plain, plain},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := MapError(tc.err)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
			assert.ErrorIs(t, got, tc.err, "original error stays in the chain")
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	migrations, err := Migrations()

	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, int64(1), migrations[0].Version)
}

func TestMigrateUnknownCommand(t *testing.T) {
	err := Migrate(context.Background(), nil, "reset", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration command")
}

// TestDiagnosticsStoreIntegration runs against a real database when
// GENEWISE_TEST_DATABASE_URL is set.
func TestDiagnosticsStoreIntegration(t *testing.T) {
	dbURL := os.Getenv("GENEWISE_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("GENEWISE_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Open(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(ctx, db, "up", nil))

	store := NewDiagnosticsStore(db)
	path := uuid.NewString()
	require.NoError(t, store.Store(ctx, "integration", path, map[string]any{"status": "Success"}))

	var payload []byte
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT payload FROM diagnostics WHERE collection = $1 AND path = $2", "integration", path).Scan(&payload))
	var got map[string]any
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, "Success", got["status"])

	err = store.Store(ctx, "integration", path, map[string]any{})
	assert.ErrorIs(t, err, diagnostics.ErrDuplicate)
}
