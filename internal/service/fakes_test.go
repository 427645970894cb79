package service

import (
	"context"
	"sort"
	"strings"
	"time"

	dom "tasklist/internal/domain"
	"tasklist/internal/repo"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeUserRepo is an in-memory UserRepo that mimics Postgres behavior:
// pgx.ErrNoRows for absent rows and SQLSTATE 23505 for duplicate emails.
type fakeUserRepo struct {
	nextID int64
	users  map[string]dom.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]dom.User{}}
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (dom.User, error) {
	u, ok := r.users[email]
	if !ok {
		return dom.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (r *fakeUserRepo) Create(_ context.Context, email, passwordHash string) (dom.User, error) {
	if _, ok := r.users[email]; ok {
		return dom.User{}, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	}
	r.nextID++
	u := dom.User{ID: r.nextID, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now()}
	r.users[email] = u
	return u, nil
}

// fakeTaskRepo is an in-memory TaskRepo with the same ownership scoping as
// the SQL implementation: any (id, user_id) miss is pgx.ErrNoRows.
type fakeTaskRepo struct {
	nextID int64
	tasks  map[int64]dom.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[int64]dom.Task{}}
}

func (r *fakeTaskRepo) Create(_ context.Context, t dom.Task) (dom.Task, error) {
	r.nextID++
	now := time.Now()
	t.ID = r.nextID
	t.Completed = false
	t.CreatedAt = now
	t.UpdatedAt = now
	r.tasks[t.ID] = t
	return t, nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, userID, id int64) (dom.Task, error) {
	t, ok := r.tasks[id]
	if !ok || t.UserID != userID {
		return dom.Task{}, pgx.ErrNoRows
	}
	return t, nil
}

func (r *fakeTaskRepo) List(_ context.Context, userID int64, sortByDue bool) ([]dom.Task, error) {
	var list []dom.Task
	for _, t := range r.tasks {
		if t.UserID == userID {
			list = append(list, t)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		if sortByDue {
			di, dj := list[i].DueDate, list[j].DueDate
			switch {
			case di == nil && dj == nil:
				// fall through to created_at
			case di == nil:
				return false // nulls last
			case dj == nil:
				return true
			case !di.Equal(*dj):
				return di.Before(*dj)
			}
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, userID, id int64, patch repo.TaskPatch) (dom.Task, error) {
	t, ok := r.tasks[id]
	if !ok || t.UserID != userID {
		return dom.Task{}, pgx.ErrNoRows
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.SetDueDate {
		t.DueDate = patch.DueDate
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	t.UpdatedAt = time.Now()
	r.tasks[id] = t
	return t, nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, userID, id int64) error {
	t, ok := r.tasks[id]
	if !ok || t.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) MarkDone(_ context.Context, userID, id int64, done bool) (dom.Task, error) {
	t, ok := r.tasks[id]
	if !ok || t.UserID != userID {
		return dom.Task{}, pgx.ErrNoRows
	}
	t.Completed = done
	t.UpdatedAt = time.Now()
	r.tasks[id] = t
	return t, nil
}

func (r *fakeTaskRepo) Search(_ context.Context, userID int64, q string) ([]dom.Task, error) {
	var list []dom.Task
	for _, t := range r.tasks {
		if t.UserID == userID && strings.Contains(strings.ToLower(t.Description), strings.ToLower(q)) {
			list = append(list, t)
		}
	}
	return list, nil
}

func (r *fakeTaskRepo) Overdue(_ context.Context, userID int64) ([]dom.Task, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	var list []dom.Task
	for _, t := range r.tasks {
		if t.UserID == userID && !t.Completed && t.DueDate != nil && t.DueDate.Before(today) {
			list = append(list, t)
		}
	}
	return list, nil
}
