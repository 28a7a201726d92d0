package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema.sql
var schemaSQL string

// Statements splits the embedded schema into individual statements so they
// can run without enabling multiStatements on the connection.
func Statements() []string {
	var out []string
	for _, part := range strings.Split(schemaSQL, ";") {
		stmt := strings.TrimSpace(stripComments(part))
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// Migrate applies the schema. Every statement is CREATE TABLE IF NOT EXISTS,
// so running it against an existing database is a no-op.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range Statements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

func stripComments(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "--") {
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "\n")
}
