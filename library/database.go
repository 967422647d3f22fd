package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Database is a SQLite copy of the text tables, for querying them with SQL
// tools. The text files stay the source of truth; Export overwrites the
// SQLite rows of every table it copies.
type Database struct {
	db *sql.DB
}

// OpenDatabase opens (or creates) the SQLite database at dbPath and applies
// schema migrations.
func OpenDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Database{db: db}, nil
}

// Close closes the DB.
func (d *Database) Close() error { return d.db.Close() }

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func sqlType(t FieldType) string {
	switch t {
	case IntField, BoolField:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// createTableSQL derives a table from a schema. The extra line column keeps
// the position of the row in its text file.
func createTableSQL(s *Schema) string {
	cols := []string{"line INTEGER PRIMARY KEY"}
	for _, f := range s.Fields {
		cols = append(cols, fmt.Sprintf("%s %s NOT NULL", f.Name, sqlType(f.Type)))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (%s);", string(s.Kind), strings.Join(cols, ", "))
}

func insertSQL(s *Schema) string {
	names := append([]string{"line"}, s.FieldNames()...)
	marks := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	return fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s);", string(s.Kind), strings.Join(names, ","), marks)
}

func applyMigrations(db *sql.DB) error {
	// WAL keeps readers working during an export.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, s := range catalog {
		if _, err := tx.Exec(createTableSQL(s)); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

func sqlArgs(line int, r Record) []any {
	vals := r.Values()
	args := make([]any, 0, len(vals)+1)
	args = append(args, line)
	for _, v := range vals {
		switch v.Type {
		case IntField:
			args = append(args, v.Int)
		case BoolField:
			if v.Bool {
				args = append(args, 1)
			} else {
				args = append(args, 0)
			}
		case DateField:
			args = append(args, v.Date.String())
		default:
			args = append(args, v.Str)
		}
	}
	return args
}

// Export copies every existing catalog table from m into SQLite in one
// transaction and returns the number of rows copied per kind. Tables with
// no text file are left as they are.
func (d *Database) Export(ctx context.Context, m *Manager) (map[Kind]int, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	counts := make(map[Kind]int)
	for _, s := range catalog {
		if !m.TableExists(string(s.Kind)) {
			continue
		}
		records, err := m.Scan(string(s.Kind))
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", s.Kind, err)
		}
		if err := exportTable(ctx, tx, s, records); err != nil {
			return nil, fmt.Errorf("export %s: %w", s.Kind, err)
		}
		counts[s.Kind] = len(records)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return counts, nil
}

func exportTable(ctx context.Context, tx *sql.Tx, s *Schema, records []Record) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %q;", string(s.Kind))); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL(s))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, sqlArgs(i+1, r)...); err != nil {
			return err
		}
	}
	return nil
}

// RowCount returns the number of rows held for a kind.
func (d *Database) RowCount(ctx context.Context, kind Kind) (int, error) {
	if _, ok := Lookup(string(kind)); !ok {
		return 0, &UnknownKindError{Name: string(kind)}
	}
	var n int
	err := d.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %q;", string(kind))).Scan(&n)
	return n, err
}

// Column returns one column of a kind in file order, as stored in SQLite.
func (d *Database) Column(ctx context.Context, kind Kind, field string) ([]string, error) {
	s, ok := Lookup(string(kind))
	if !ok {
		return nil, &UnknownKindError{Name: string(kind)}
	}
	if _, ok := s.FieldIndex(field); !ok {
		return nil, fmt.Errorf("%s has no field %q: %w", kind, field, ErrConditionInvalid)
	}
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %q ORDER BY line;", field, string(kind)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
