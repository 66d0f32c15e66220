package cleanup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/crumley/taskdeck/internal/repo"
)

func writeAgedFile(t *testing.T, dir, name string, age time.Duration) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	old := time.Now().Add(-age)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
}

func TestSweep(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	dir := t.TempDir()
	writeAgedFile(t, dir, "kept.png", 2*time.Hour)     // referenced
	writeAgedFile(t, dir, "orphan.png", 2*time.Hour)   // unreferenced, old enough
	writeAgedFile(t, dir, "fresh.png", 5*time.Minute)  // unreferenced but too fresh

	mock.ExpectQuery(`SELECT image FROM tasks WHERE image IS NOT NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"image"}).AddRow("/uploads/kept.png"))

	sweep(repo.NewTaskRepo(db), dir)

	if _, err := os.Stat(filepath.Join(dir, "kept.png")); err != nil {
		t.Errorf("referenced file removed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "orphan.png")); !os.IsNotExist(err) {
		t.Errorf("orphaned file should be removed, stat err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "fresh.png")); err != nil {
		t.Errorf("fresh file removed too early: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSweep_DBErrorLeavesFiles(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	dir := t.TempDir()
	writeAgedFile(t, dir, "orphan.png", 2*time.Hour)

	mock.ExpectQuery(`SELECT image FROM tasks WHERE image IS NOT NULL`).
		WillReturnError(os.ErrDeadlineExceeded)

	sweep(repo.NewTaskRepo(db), dir)

	// When the referenced set is unknown, nothing may be deleted.
	if _, err := os.Stat(filepath.Join(dir, "orphan.png")); err != nil {
		t.Errorf("file removed despite DB error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
