package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/pfrederiksen/nba-mvp/internal/table"
)

// Postgres writes tables to a PostgreSQL database
type Postgres struct {
	db    *sql.DB
	table string
}

// NewPostgres connects to dsn and verifies the connection
func NewPostgres(ctx context.Context, dsn, tableName string) (*Postgres, error) {
	if strings.TrimSpace(tableName) == "" {
		return nil, fmt.Errorf("export table name is empty")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Postgres{db: db, table: tableName}, nil
}

// Close closes the database connection
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Export replaces the destination table with t. The drop, create and load share one
// transaction, so readers see either the old table or the complete new one.
func (p *Postgres) Export(ctx context.Context, t *table.Table) error {
	cols := Columns(t)

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{dropStatement(p.table), createStatement(p.table, cols)} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("preparing table %s: %w", p.table, err)
		}
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	copyStmt, err := tx.PrepareContext(ctx, pq.CopyIn(p.table, names...))
	if err != nil {
		return fmt.Errorf("starting copy: %w", err)
	}

	for i := range t.Rows {
		if _, err := copyStmt.ExecContext(ctx, rowArgs(t, i)...); err != nil {
			copyStmt.Close()
			return fmt.Errorf("copying row %d: %w", i, err)
		}
	}
	// Flush buffered rows
	if _, err := copyStmt.ExecContext(ctx); err != nil {
		copyStmt.Close()
		return fmt.Errorf("finishing copy: %w", err)
	}
	if err := copyStmt.Close(); err != nil {
		return fmt.Errorf("closing copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing export: %w", err)
	}
	return nil
}

func dropStatement(name string) string {
	return "DROP TABLE IF EXISTS " + pq.QuoteIdentifier(name)
}

func createStatement(name string, cols []Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = pq.QuoteIdentifier(c.Name) + " " + c.Type
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", pq.QuoteIdentifier(name), strings.Join(defs, ", "))
}

// rowArgs maps null cells to SQL NULL
func rowArgs(t *table.Table, row int) []interface{} {
	args := make([]interface{}, len(t.Columns))
	for j := range t.Columns {
		v := t.Value(row, j)
		if table.IsNull(v) {
			continue
		}
		args[j] = strings.TrimSpace(v)
	}
	return args
}
