package db

import (
	"context"
	"database/sql"
	"fmt"

	"onduty-admin/internal/config"

	_ "github.com/go-sql-driver/mysql"
)

func NewConnection(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxConnections)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.Database.ConnectionLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Schema creates the imports audit table.
const Schema = `CREATE TABLE IF NOT EXISTS imports (
	id                    CHAR(36)     NOT NULL PRIMARY KEY,
	kind                  VARCHAR(16)  NOT NULL,
	status                VARCHAR(16)  NOT NULL,
	file_name             VARCHAR(255) NOT NULL,
	storage_key           VARCHAR(512) NULL,
	total_rows            INT          NOT NULL DEFAULT 0,
	accepted_count        INT          NOT NULL DEFAULT 0,
	rejected_count        INT          NOT NULL DEFAULT 0,
	server_rejected_count INT          NOT NULL DEFAULT 0,
	result                JSON         NULL,
	error_message         TEXT         NULL,
	created_at            DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at            DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	KEY idx_imports_kind_created (kind, created_at)
)`

func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create imports table: %w", err)
	}
	return nil
}
