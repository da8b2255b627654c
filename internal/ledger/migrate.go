package ledger

import (
	"database/sql"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

type DBDriver string

const (
	DBSQLite   DBDriver = "sqlite"
	DBPostgres DBDriver = "postgres"
)

// dialect holds what differs between the SQL backends when applying migrations.
type dialect struct {
	dir         string
	table       string
	appliedType string
	insert      string
	stamp       func(time.Time) any
}

var dialects = map[DBDriver]dialect{
	DBSQLite: {
		dir:         "migrations/sqlite",
		table:       "schema_migrations",
		appliedType: "TEXT",
		insert:      "INSERT INTO schema_migrations(version, applied_at) VALUES(?, ?) ON CONFLICT(version) DO NOTHING",
		stamp:       func(t time.Time) any { return t.Format(time.RFC3339) },
	},
	DBPostgres: {
		dir:         "migrations/postgres",
		table:       "tradedesk_schema_migrations",
		appliedType: "TIMESTAMPTZ",
		insert:      "INSERT INTO tradedesk_schema_migrations(version, applied_at) VALUES($1, $2) ON CONFLICT(version) DO NOTHING",
		stamp:       func(t time.Time) any { return t },
	},
}

func dialectFor(driver DBDriver) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported db driver: %s", driver)
	}
	return d, nil
}

// Migrate applies the embedded schema for driver. Versions are the file names
// without .sql; each runs once, in lexical order, in its own transaction
// together with its bookkeeping row.
func Migrate(db *sql.DB, driver DBDriver) error {
	if db == nil {
		return fmt.Errorf("missing db")
	}
	d, err := dialectFor(driver)
	if err != nil {
		return err
	}
	if _, err := db.Exec(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  version TEXT PRIMARY KEY,\n  applied_at %s NOT NULL\n)", d.table, d.appliedType)); err != nil {
		return fmt.Errorf("create %s: %w", d.table, err)
	}

	files, err := migrationFiles(d.dir)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, file := range files {
		if err := applyMigration(db, d, file, now); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(db *sql.DB, d dialect, file string, now time.Time) error {
	version := strings.TrimSuffix(path.Base(file), ".sql")
	contents, err := migrationsFS.ReadFile(file)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	res, err := tx.Exec(d.insert, version, d.stamp(now))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(string(contents)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply migration %s: %w", version, err)
	}
	return tx.Commit()
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := migrationsFS.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		out = append(out, path.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
