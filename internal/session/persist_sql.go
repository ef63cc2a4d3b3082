package session

import (
	"database/sql"
	"fmt"
	"sort"
)

// SQLPersister stores session keys in a two-column table. The statements only
// use $N placeholders and TEXT columns, so the same code runs on Postgres
// (lib/pq) and SQLite (modernc.org/sqlite).
type SQLPersister struct {
	db *sql.DB
}

func NewSQLPersister(db *sql.DB) (*SQLPersister, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	p := &SQLPersister{db: db}
	if err := p.ensureSchema(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *SQLPersister) ensureSchema() error {
	const q = `
CREATE TABLE IF NOT EXISTS client_session (
	name TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`
	if _, err := p.db.Exec(q); err != nil {
		return fmt.Errorf("ensure client_session schema: %w", err)
	}
	return nil
}

func (p *SQLPersister) Load() (map[string]string, error) {
	rows, err := p.db.Query(`SELECT name, value FROM client_session`)
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		out[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}
	return out, nil
}

func (p *SQLPersister) Save(values map[string]string) error {
	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM client_session`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	const q = `INSERT INTO client_session (name, value) VALUES ($1, $2)`
	for _, name := range names {
		if _, err := tx.Exec(q, name, values[name]); err != nil {
			return fmt.Errorf("insert session value: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session tx: %w", err)
	}
	return nil
}
