package session

import (
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestNewSQLPersisterEnsuresSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS client_session").WillReturnResult(sqlmock.NewResult(0, 0))

	if _, err := NewSQLPersister(db); err != nil {
		t.Fatalf("NewSQLPersister() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestSQLPersisterLoadAndSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS client_session").WillReturnResult(sqlmock.NewResult(0, 0))
	p, err := NewSQLPersister(db)
	if err != nil {
		t.Fatalf("NewSQLPersister() error: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM client_session").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO client_session").WithArgs(RoleKey, "admin").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO client_session").WithArgs(TokenKey, "tok1").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := p.Save(map[string]string{TokenKey: "tok1", RoleKey: "admin"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	rows := sqlmock.NewRows([]string{"name", "value"}).
		AddRow(TokenKey, "tok1").
		AddRow(RoleKey, "admin")
	mock.ExpectQuery("SELECT name, value FROM client_session").WillReturnRows(rows)

	loaded, err := p.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded[TokenKey] != "tok1" || loaded[RoleKey] != "admin" {
		t.Fatalf("unexpected loaded values: %+v", loaded)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestSQLPersisterClearDeletesOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS client_session").WillReturnResult(sqlmock.NewResult(0, 0))
	p, _ := NewSQLPersister(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM client_session").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := p.Save(map[string]string{}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestSQLitePersisterRoundTrip(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	defer db.Close()

	p, err := NewSQLPersister(db)
	if err != nil {
		t.Fatalf("NewSQLPersister() error: %v", err)
	}
	store, err := Open(p)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := store.Set("abc123", "admin"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	restored, err := Open(p)
	if err != nil {
		t.Fatalf("Open() second error: %v", err)
	}
	if snap := restored.Snapshot(); snap != (Snapshot{Token: "abc123", Role: "admin"}) {
		t.Fatalf("unexpected restored snapshot: %+v", snap)
	}

	if err := restored.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	loaded, err := p.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected no rows after clear, got %+v", loaded)
	}
}
