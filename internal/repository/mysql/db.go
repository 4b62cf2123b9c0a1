// Package mysql stores users and notes in MySQL. Note content is kept in a
// JSON column so the tree round-trips unchanged.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		name          VARCHAR(255) NOT NULL,
		email         VARCHAR(320) NOT NULL,
		password_hash VARCHAR(255) NOT NULL DEFAULT '',
		google_id     VARCHAR(255) NULL,
		avatar        VARCHAR(2048) NOT NULL DEFAULT '',
		created_at    DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at    DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		UNIQUE KEY uq_users_email (email),
		UNIQUE KEY uq_users_google_id (google_id)
	)`,
	`CREATE TABLE IF NOT EXISTS notes (
		id         CHAR(36)     NOT NULL PRIMARY KEY,
		user_id    CHAR(36)     NOT NULL,
		title      VARCHAR(512) NOT NULL,
		content    JSON         NOT NULL,
		created_at DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		KEY idx_notes_user_updated (user_id, updated_at),
		CONSTRAINT fk_notes_user FOREIGN KEY (user_id) REFERENCES users (id)
	)`,
}

// NewDB creates a new MySQL database connection pool with the given DSN.
// Rewrites that leave a row unchanged still count as a match for ownership checks.
func NewDB(dsn string) (*sql.DB, error) {
	cfg, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true

	connector, err := gomysql.NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging mysql: %w", err)
	}

	return db, nil
}

// EnsureSchema creates the tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	slog.Info("mysql schema ready")
	return nil
}
