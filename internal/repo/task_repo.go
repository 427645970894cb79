package repo

import (
	"context"
	"time"

	dom "tasklist/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskPatch describes a partial update. A nil Description/Completed is left
// untouched. SetDueDate distinguishes "set due_date to DueDate (possibly
// null)" from "leave due_date as is".
type TaskPatch struct {
	Description *string
	DueDate     *time.Time
	SetDueDate  bool
	Completed   *bool
}

// Empty reports whether the patch touches no fields.
func (p TaskPatch) Empty() bool {
	return p.Description == nil && !p.SetDueDate && p.Completed == nil
}

// TaskRepo provides task persistence. Every operation is scoped by the owning
// user; mutation and deletion match on (id, user_id), never id alone.
type TaskRepo interface {
	Create(ctx context.Context, t dom.Task) (dom.Task, error)
	GetByID(ctx context.Context, userID, id int64) (dom.Task, error)
	List(ctx context.Context, userID int64, sortByDue bool) ([]dom.Task, error)
	Update(ctx context.Context, userID, id int64, patch TaskPatch) (dom.Task, error)
	Delete(ctx context.Context, userID, id int64) error
	MarkDone(ctx context.Context, userID, id int64, done bool) (dom.Task, error)
	Search(ctx context.Context, userID int64, q string) ([]dom.Task, error)
	Overdue(ctx context.Context, userID int64) ([]dom.Task, error)
}

type PGTaskRepo struct {
	db *pgxpool.Pool
}

func NewPGTaskRepo(db *pgxpool.Pool) *PGTaskRepo {
	return &PGTaskRepo{db: db}
}

const taskColumns = `id, user_id, description, due_date, completed, created_at, updated_at`

func scanTask(row pgx.Row) (dom.Task, error) {
	var t dom.Task
	err := row.Scan(&t.ID, &t.UserID, &t.Description, &t.DueDate, &t.Completed,
		&t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func collectTasks(rows pgx.Rows) ([]dom.Task, error) {
	defer rows.Close()
	var list []dom.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PGTaskRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	query := `
		INSERT INTO tasks (user_id, description, due_date)
		VALUES ($1, $2, $3)
		RETURNING ` + taskColumns
	return scanTask(r.db.QueryRow(ctx, query, t.UserID, t.Description, t.DueDate))
}

func (r *PGTaskRepo) GetByID(ctx context.Context, userID, id int64) (dom.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	return scanTask(r.db.QueryRow(ctx, query, id, userID))
}

func (r *PGTaskRepo) List(ctx context.Context, userID int64, sortByDue bool) ([]dom.Task, error) {
	order := `created_at DESC`
	if sortByDue {
		order = `due_date ASC NULLS LAST, created_at DESC`
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 ORDER BY ` + order
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

// Update applies the patch in a single conditional statement; untouched
// fields keep their stored value. No matching (id, user_id) row yields
// pgx.ErrNoRows, whether the task is absent or owned by someone else.
func (r *PGTaskRepo) Update(ctx context.Context, userID, id int64, patch TaskPatch) (dom.Task, error) {
	query := `
		UPDATE tasks SET
			description = CASE WHEN $3 THEN $4 ELSE description END,
			due_date    = CASE WHEN $5 THEN $6 ELSE due_date END,
			completed   = CASE WHEN $7 THEN $8 ELSE completed END,
			updated_at  = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + taskColumns
	return scanTask(r.db.QueryRow(ctx, query, id, userID,
		patch.Description != nil, patch.Description,
		patch.SetDueDate, patch.DueDate,
		patch.Completed != nil, patch.Completed,
	))
}

func (r *PGTaskRepo) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PGTaskRepo) MarkDone(ctx context.Context, userID, id int64, done bool) (dom.Task, error) {
	query := `
		UPDATE tasks SET completed = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + taskColumns
	return scanTask(r.db.QueryRow(ctx, query, id, userID, done))
}

func (r *PGTaskRepo) Search(ctx context.Context, userID int64, q string) ([]dom.Task, error) {
	pattern := "%" + q + "%"
	query := `
		SELECT ` + taskColumns + `
		FROM tasks WHERE user_id = $1 AND description ILIKE $2
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID, pattern)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func (r *PGTaskRepo) Overdue(ctx context.Context, userID int64) ([]dom.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks WHERE user_id = $1 AND completed = FALSE AND due_date IS NOT NULL AND due_date < CURRENT_DATE
		ORDER BY due_date ASC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}
