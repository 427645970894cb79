package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tasklist/internal/auth"
	dom "tasklist/internal/domain"
	"tasklist/internal/repo"
	"tasklist/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// In-memory repos mimicking the Postgres implementations: pgx.ErrNoRows for
// ownership misses and SQLSTATE 23505 for duplicate emails.

type memUserRepo struct {
	nextID int64
	users  map[string]dom.User
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (dom.User, error) {
	u, ok := r.users[email]
	if !ok {
		return dom.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (r *memUserRepo) Create(_ context.Context, email, hash string) (dom.User, error) {
	if _, ok := r.users[email]; ok {
		return dom.User{}, &pgconn.PgError{Code: "23505"}
	}
	r.nextID++
	u := dom.User{ID: r.nextID, Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	r.users[email] = u
	return u, nil
}

type memTaskRepo struct {
	nextID int64
	tasks  map[int64]dom.Task
}

func (r *memTaskRepo) Create(_ context.Context, t dom.Task) (dom.Task, error) {
	r.nextID++
	now := time.Now()
	t.ID = r.nextID
	t.CreatedAt = now
	t.UpdatedAt = now
	r.tasks[t.ID] = t
	return t, nil
}

func (r *memTaskRepo) GetByID(_ context.Context, userID, id int64) (dom.Task, error) {
	t, ok := r.tasks[id]
	if !ok || t.UserID != userID {
		return dom.Task{}, pgx.ErrNoRows
	}
	return t, nil
}

func (r *memTaskRepo) List(_ context.Context, userID int64, _ bool) ([]dom.Task, error) {
	var list []dom.Task
	for _, t := range r.tasks {
		if t.UserID == userID {
			list = append(list, t)
		}
	}
	return list, nil
}

func (r *memTaskRepo) Update(_ context.Context, userID, id int64, patch repo.TaskPatch) (dom.Task, error) {
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

func (r *memTaskRepo) Delete(_ context.Context, userID, id int64) error {
	t, ok := r.tasks[id]
	if !ok || t.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(r.tasks, id)
	return nil
}

func (r *memTaskRepo) MarkDone(_ context.Context, userID, id int64, done bool) (dom.Task, error) {
	t, ok := r.tasks[id]
	if !ok || t.UserID != userID {
		return dom.Task{}, pgx.ErrNoRows
	}
	t.Completed = done
	r.tasks[id] = t
	return t, nil
}

func (r *memTaskRepo) Search(_ context.Context, userID int64, _ string) ([]dom.Task, error) {
	return r.List(context.Background(), userID, false)
}

func (r *memTaskRepo) Overdue(_ context.Context, userID int64) ([]dom.Task, error) {
	return nil, nil
}

type testEnv struct {
	router   *gin.Engine
	taskRepo *memTaskRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	issuer := auth.NewIssuer("test-secret-key-at-least-32-chars-long", time.Hour)
	userRepo := &memUserRepo{users: map[string]dom.User{}}
	taskRepo := &memTaskRepo{tasks: map[int64]dom.Task{}}

	authHandler := NewAuthHandler(issuer, service.NewUserService(userRepo), false)
	taskHandler := NewTaskHandler(service.NewTaskService(taskRepo, nil), false)

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("", auth.RequireAuth(issuer))
	protected.POST("/tasks", taskHandler.Create)
	protected.GET("/tasks", taskHandler.List)
	protected.GET("/tasks/:id", taskHandler.GetByID)
	protected.PUT("/tasks/:id", taskHandler.Update)
	protected.DELETE("/tasks/:id", taskHandler.Delete)
	protected.POST("/tasks/:id/complete", taskHandler.Complete)

	return &testEnv{router: r, taskRepo: taskRepo}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) register(t *testing.T, email, password string) (token string, userID int64) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": email, "password": password})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", w.Code, w.Body)
	}
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("register returned empty token")
	}
	return resp.Token, resp.User.ID
}
