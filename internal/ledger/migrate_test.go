package ledger

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateSQLiteCreatesLedgerTables(t *testing.T) {
	db := openSQLite(t)

	if err := Migrate(db, DBSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := Migrate(db, DBSQLite); err != nil {
		t.Fatalf("migrate second: %v", err)
	}

	for _, table := range []string{"policy_versions", "reports", "dismissals"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("expected %s table: %v", table, err)
		}
	}

	var versions []string
	rows, err := db.Query(`SELECT version FROM schema_migrations ORDER BY version`)
	if err != nil {
		t.Fatalf("query migrations: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			t.Fatalf("scan: %v", err)
		}
		versions = append(versions, v)
	}
	if len(versions) != 2 || versions[0] != "0001_init" || versions[1] != "0002_dismissals" {
		t.Fatalf("expected both migrations recorded once, got %v", versions)
	}
}

func TestMigrateRejectsUnknownDriver(t *testing.T) {
	if err := Migrate(openSQLite(t), DBDriver("mysql")); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
	if err := Migrate(nil, DBSQLite); err == nil {
		t.Fatalf("expected error for missing db")
	}
}

func TestMigrationFilesPerDialect(t *testing.T) {
	for driver, d := range dialects {
		files, err := migrationFiles(d.dir)
		if err != nil {
			t.Fatalf("%s: list migrations: %v", driver, err)
		}
		if len(files) != 2 {
			t.Fatalf("%s: expected 2 migrations, got %v", driver, files)
		}
		if filepath.Base(files[0]) != "0001_init.sql" {
			t.Fatalf("%s: expected init first, got %s", driver, files[0])
		}
	}
}

func TestMigratePostgresSkipsAppliedVersions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS tradedesk_schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	for _, version := range []string{"0001_init", "0002_dismissals"} {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO tradedesk_schema_migrations").
			WithArgs(version, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()
	}

	if err := Migrate(db, DBPostgres); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
