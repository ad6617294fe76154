package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phrazzld/genewise-api/internal/diagnostics"
	"github.com/phrazzld/genewise-api/internal/platform/logger"
)

// Execer is the subset of *sql.DB and *sql.Tx the store needs.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DiagnosticsStore implements diagnostics.Store on the diagnostics table.
type DiagnosticsStore struct {
	db  Execer
	now func() time.Time
}

// NewDiagnosticsStore creates a DiagnosticsStore.
func NewDiagnosticsStore(db Execer) *DiagnosticsStore {
	return &DiagnosticsStore{db: db, now: time.Now}
}

const insertDiagnostic = `
	INSERT INTO diagnostics (collection, path, payload, created_at)
	VALUES ($1, $2, $3, $4)
`

// Store inserts value as a JSONB payload. A second write to the same
// collection/path fails with diagnostics.ErrDuplicate.
func (s *DiagnosticsStore) Store(ctx context.Context, collection, path string, value any) error {
	log := logger.FromContext(ctx)

	if err := diagnostics.ValidateKey(collection, path); err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode payload: %w", diagnostics.ErrInvalidRecord, err)
	}

	if _, err := s.db.ExecContext(ctx, insertDiagnostic, collection, path, payload, s.now().UTC()); err != nil {
		log.Error("failed to insert diagnostic",
			"collection", collection,
			"path", path,
			"error", err)
		return fmt.Errorf("failed to store diagnostic: %w", MapError(err))
	}
	return nil
}

// Open connects to PostgreSQL with the pgx driver and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
