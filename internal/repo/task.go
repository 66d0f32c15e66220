package repo

import (
	"context"
	"database/sql"

	"github.com/crumley/taskdeck/internal/models"
)

// ==========================
// TaskRepo
// ==========================
//
// Every query here is scoped by user_id. A task owned by someone else is
// indistinguishable from a nonexistent one: both surface as sql.ErrNoRows.
type TaskRepo struct {
	DB *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{DB: db}
}

func (r *TaskRepo) Create(ctx context.Context, userID int, title string, image *string) (models.Task, error) {
	var task models.Task
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO tasks (user_id, title, image)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, title, is_completed, image, created_at`,
		userID, title, image,
	).Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.IsCompleted,
		&task.Image,
		&task.CreatedAt,
	)
	return task, err
}

func (r *TaskRepo) ListByOwner(ctx context.Context, userID int) ([]models.Task, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, title, is_completed, image, created_at
		 FROM tasks
		 WHERE user_id = $1
		 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.IsCompleted, &t.Image, &t.CreatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ToggleCompleted flips is_completed and returns the updated task.
// Returns sql.ErrNoRows when the task is missing or owned by another user.
func (r *TaskRepo) ToggleCompleted(ctx context.Context, userID, taskID int) (models.Task, error) {
	var task models.Task
	err := r.DB.QueryRowContext(ctx,
		`UPDATE tasks
		 SET is_completed = NOT is_completed
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, title, is_completed, image, created_at`,
		taskID, userID,
	).Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.IsCompleted,
		&task.Image,
		&task.CreatedAt,
	)
	return task, err
}

// Delete removes the task. Returns sql.ErrNoRows when the task is missing
// or owned by another user.
func (r *TaskRepo) Delete(ctx context.Context, userID, taskID int) error {
	result, err := r.DB.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		taskID, userID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// ListImagePaths returns the public paths of every stored attachment across
// all users. Used by the upload cleanup job to find orphaned files.
func (r *TaskRepo) ListImagePaths(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT image FROM tasks WHERE image IS NOT NULL`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
