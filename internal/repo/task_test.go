package repo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func fixedTime() time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func taskRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "title", "is_completed", "image", "created_at"})
}

func TestTaskRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO tasks \(user_id, title, image\)`).
		WithArgs(5, "buy milk", nil).
		WillReturnRows(taskRows().AddRow(1, 5, "buy milk", false, nil, fixedTime()))

	repo := NewTaskRepo(db)
	task, err := repo.Create(context.Background(), 5, "buy milk", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.ID != 1 || task.UserID != 5 || task.Title != "buy milk" {
		t.Errorf("unexpected task: %+v", task)
	}
	if task.IsCompleted {
		t.Error("new task should not be completed")
	}
	if task.Image != nil {
		t.Errorf("new task should have no image, got %v", *task.Image)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskRepo_Create_WithImage(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	image := "/uploads/abc.png"
	mock.ExpectQuery(`INSERT INTO tasks \(user_id, title, image\)`).
		WithArgs(5, "scan receipt", image).
		WillReturnRows(taskRows().AddRow(2, 5, "scan receipt", false, image, fixedTime()))

	repo := NewTaskRepo(db)
	task, err := repo.Create(context.Background(), 5, "scan receipt", &image)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.Image == nil || *task.Image != image {
		t.Errorf("unexpected image: %v", task.Image)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskRepo_ListByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, user_id, title, is_completed, image, created_at`).
		WithArgs(5).
		WillReturnRows(taskRows().
			AddRow(1, 5, "buy milk", false, nil, fixedTime()).
			AddRow(2, 5, "walk dog", true, nil, fixedTime()))

	repo := NewTaskRepo(db)
	tasks, err := repo.ListByOwner(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Title != "buy milk" || !tasks[1].IsCompleted {
		t.Errorf("unexpected tasks: %+v", tasks)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskRepo_ToggleCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`UPDATE tasks`).
		WithArgs(1, 5).
		WillReturnRows(taskRows().AddRow(1, 5, "buy milk", true, nil, fixedTime()))

	repo := NewTaskRepo(db)
	task, err := repo.ToggleCompleted(context.Background(), 5, 1)
	if err != nil {
		t.Fatalf("ToggleCompleted: %v", err)
	}
	if !task.IsCompleted {
		t.Error("expected task to be completed after toggle")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// Toggling twice restores the original state.
func TestTaskRepo_ToggleCompleted_Twice(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`UPDATE tasks`).
		WithArgs(1, 5).
		WillReturnRows(taskRows().AddRow(1, 5, "buy milk", true, nil, fixedTime()))
	mock.ExpectQuery(`UPDATE tasks`).
		WithArgs(1, 5).
		WillReturnRows(taskRows().AddRow(1, 5, "buy milk", false, nil, fixedTime()))

	repo := NewTaskRepo(db)
	first, err := repo.ToggleCompleted(context.Background(), 5, 1)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	second, err := repo.ToggleCompleted(context.Background(), 5, 1)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if !first.IsCompleted || second.IsCompleted {
		t.Errorf("double toggle should restore state: first=%v second=%v", first.IsCompleted, second.IsCompleted)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// A task owned by another user is indistinguishable from a missing one.
func TestTaskRepo_ToggleCompleted_NotOwned(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`UPDATE tasks`).
		WithArgs(1, 99).
		WillReturnError(sql.ErrNoRows)

	repo := NewTaskRepo(db)
	_, err = repo.ToggleCompleted(context.Background(), 99, 1)
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskRepo_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM tasks WHERE id = \$1 AND user_id = \$2`).
		WithArgs(1, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewTaskRepo(db)
	if err := repo.Delete(context.Background(), 5, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskRepo_Delete_NotOwned(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM tasks WHERE id = \$1 AND user_id = \$2`).
		WithArgs(1, 99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewTaskRepo(db)
	err = repo.Delete(context.Background(), 99, 1)
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskRepo_ListImagePaths(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT image FROM tasks WHERE image IS NOT NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"image"}).
			AddRow("/uploads/a.png").
			AddRow("/uploads/b.jpg"))

	repo := NewTaskRepo(db)
	paths, err := repo.ListImagePaths(context.Background())
	if err != nil {
		t.Fatalf("ListImagePaths: %v", err)
	}
	if len(paths) != 2 || paths[0] != "/uploads/a.png" {
		t.Errorf("unexpected paths: %v", paths)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
