package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"tasklist/internal/cache"
	dom "tasklist/internal/domain"
	"tasklist/internal/repo"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNotFound         = errors.New("task not found")
	ErrEmptyDescription = errors.New("task description is required")
	ErrNoFields         = errors.New("no fields to update")
)

type TaskService struct {
	repo  repo.TaskRepo
	cache *cache.TaskCache
	sf    singleflight.Group
}

// NewTaskService creates a TaskService. If c is nil, caching is disabled.
func NewTaskService(r repo.TaskRepo, c *cache.TaskCache) *TaskService {
	return &TaskService{repo: r, cache: c}
}

func (s *TaskService) Create(ctx context.Context, userID int64, description string, dueDate *time.Time) (dom.Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return dom.Task{}, ErrEmptyDescription
	}

	t, err := s.repo.Create(ctx, dom.Task{
		UserID:      userID,
		Description: description,
		DueDate:     dueDate,
	})
	if err != nil {
		return dom.Task{}, err
	}
	s.invalidateCache(ctx, userID)
	return t, nil
}

func (s *TaskService) List(ctx context.Context, userID int64, sortByDue bool) ([]dom.Task, error) {
	if s.cache != nil {
		key := "list:" + strconv.FormatInt(userID, 10) + ":" + strconv.FormatBool(sortByDue)
		v, err, _ := s.sf.Do(key, func() (interface{}, error) {
			if list, err := s.cache.GetList(ctx, userID, sortByDue); err == nil && list != nil {
				return list, nil
			}
			list, err := s.repo.List(ctx, userID, sortByDue)
			if err != nil {
				return nil, err
			}
			_ = s.cache.SetList(ctx, userID, sortByDue, list)
			return list, nil
		})
		if err != nil {
			return nil, err
		}
		return v.([]dom.Task), nil
	}
	return s.repo.List(ctx, userID, sortByDue)
}

func (s *TaskService) GetByID(ctx context.Context, userID, id int64) (dom.Task, error) {
	t, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, err
	}
	return t, nil
}

// Update applies a partial update scoped to (id, userID). A patch touching no
// fields is rejected; an absent task and a task owned by another user both
// come back as ErrNotFound.
func (s *TaskService) Update(ctx context.Context, userID, id int64, patch repo.TaskPatch) (dom.Task, error) {
	if patch.Empty() {
		return dom.Task{}, ErrNoFields
	}
	if patch.Description != nil {
		trimmed := strings.TrimSpace(*patch.Description)
		if trimmed == "" {
			return dom.Task{}, ErrEmptyDescription
		}
		patch.Description = &trimmed
	}
	t, err := s.repo.Update(ctx, userID, id, patch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, err
	}
	s.invalidateCache(ctx, userID)
	return t, nil
}

func (s *TaskService) Complete(ctx context.Context, userID, id int64) (dom.Task, error) {
	t, err := s.repo.MarkDone(ctx, userID, id, true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, err
	}
	s.invalidateCache(ctx, userID)
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, id int64) error {
	err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	s.invalidateCache(ctx, userID)
	return nil
}

func (s *TaskService) Search(ctx context.Context, userID int64, q string) ([]dom.Task, error) {
	q = strings.TrimSpace(q)
	if s.cache != nil {
		key := "search:" + strconv.FormatInt(userID, 10) + ":" + strings.ToLower(q)
		v, err, _ := s.sf.Do(key, func() (interface{}, error) {
			if list, err := s.cache.GetSearch(ctx, userID, q); err == nil && list != nil {
				return list, nil
			}
			list, err := s.repo.Search(ctx, userID, q)
			if err != nil {
				return nil, err
			}
			_ = s.cache.SetSearch(ctx, userID, q, list)
			return list, nil
		})
		if err != nil {
			return nil, err
		}
		return v.([]dom.Task), nil
	}
	return s.repo.Search(ctx, userID, q)
}

func (s *TaskService) Overdue(ctx context.Context, userID int64) ([]dom.Task, error) {
	if s.cache != nil {
		key := "overdue:" + strconv.FormatInt(userID, 10)
		v, err, _ := s.sf.Do(key, func() (interface{}, error) {
			if list, err := s.cache.GetOverdue(ctx, userID); err == nil && list != nil {
				return list, nil
			}
			list, err := s.repo.Overdue(ctx, userID)
			if err != nil {
				return nil, err
			}
			_ = s.cache.SetOverdue(ctx, userID, list)
			return list, nil
		})
		if err != nil {
			return nil, err
		}
		return v.([]dom.Task), nil
	}
	return s.repo.Overdue(ctx, userID)
}

func (s *TaskService) invalidateCache(ctx context.Context, userID int64) {
	if s.cache != nil {
		_ = s.cache.InvalidateUser(ctx, userID)
	}
}
