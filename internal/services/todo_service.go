// Package services – TodoService
//
// This file implements the TodoService, the business rules behind the to-do
// endpoints. It delegates persistence to a TodoRepo and turns "the store did
// nothing" outcomes (no result, zero matched, zero deleted) into taxonomy
// errors. Unexpected store failures are returned unchanged; the HTTP layer
// coerces them into InternalServerError.
package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tbourn/go-todo-backend/internal/domain"
	"github.com/tbourn/go-todo-backend/internal/repo"
)

// TodoRepo defines the repository contract required by TodoService.
// repo.TodoDAO is the production implementation.
type TodoRepo interface {
	AddTodo(ctx context.Context, todo domain.Todo) (*mongo.InsertOneResult, error)
	ListTodos(ctx context.Context) ([]domain.Todo, error)
	GetTodo(ctx context.Context, id string) (*domain.Todo, error)
	UpdateTodo(ctx context.Context, id string, patch domain.TodoPatch) (*mongo.UpdateResult, error)
	UpdateAllTodos(ctx context.Context, patch domain.TodoPatch) (*mongo.UpdateResult, error)
	DeleteTodo(ctx context.Context, id string) (*mongo.DeleteResult, error)
	DeleteAllTodos(ctx context.Context) (*mongo.DeleteResult, error)
}

// TodoService provides to-do operations. It holds no state besides the
// repository and is safe for concurrent use.
type TodoService struct {
	Repo TodoRepo
}

// NewTodoService constructs a TodoService over r.
func NewTodoService(r TodoRepo) *TodoService {
	return &TodoService{Repo: r}
}

// Add stores a new to-do. A missing result or a duplicate id yields
// ErrTodoNotAdded.
func (s *TodoService) Add(ctx context.Context, todo domain.Todo) (*mongo.InsertOneResult, error) {
	res, err := s.Repo.AddTodo(ctx, todo)
	if err != nil {
		if repo.IsDuplicate(err) {
			return nil, ErrTodoNotAdded
		}
		return nil, err
	}
	if res == nil {
		return nil, ErrTodoNotAdded
	}
	return res, nil
}

// Update merges patch into the to-do with the given id. When no document
// matched, ErrTodoNotUpdated is returned.
func (s *TodoService) Update(ctx context.Context, id string, patch domain.TodoPatch) (*mongo.UpdateResult, error) {
	res, err := s.Repo.UpdateTodo(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if res == nil || res.MatchedCount == 0 {
		return nil, ErrTodoNotUpdated
	}
	return res, nil
}

// UpdateAll merges patch into every to-do. An empty collection is not an
// error; only a missing result is.
func (s *TodoService) UpdateAll(ctx context.Context, patch domain.TodoPatch) (*mongo.UpdateResult, error) {
	res, err := s.Repo.UpdateAllTodos(ctx, patch)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, ErrTodoNotUpdated
	}
	return res, nil
}

// List returns all to-dos.
func (s *TodoService) List(ctx context.Context) ([]domain.Todo, error) {
	return s.Repo.ListTodos(ctx)
}

// Get returns the to-do with the given id or ErrTodoNotFound.
func (s *TodoService) Get(ctx context.Context, id string) (*domain.Todo, error) {
	t, err := s.Repo.GetTodo(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, err
	}
	return t, nil
}

// Delete removes the to-do with the given id. Deleting an id that does not
// exist yields ErrTodoNotFound.
func (s *TodoService) Delete(ctx context.Context, id string) (*mongo.DeleteResult, error) {
	res, err := s.Repo.DeleteTodo(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil || res.DeletedCount == 0 {
		return nil, ErrTodoNotFound
	}
	return res, nil
}

// DeleteAll removes every to-do and reports how many were deleted.
func (s *TodoService) DeleteAll(ctx context.Context) (*mongo.DeleteResult, error) {
	res, err := s.Repo.DeleteAllTodos(ctx)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return &mongo.DeleteResult{}, nil
	}
	return res, nil
}
