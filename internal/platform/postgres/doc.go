// Package postgres stores diagnostic records in PostgreSQL through the pgx
// database/sql driver and owns the schema migrations for that table.
package postgres
