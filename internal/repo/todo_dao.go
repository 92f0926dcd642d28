// Package repo – to-do persistence
//
// TodoDAO binds the generic DocumentStore to the "todos" collection. It is a
// thin repository: it builds id-keyed queries and decodes documents, leaving
// business rules (what counts as "not added", "not updated") to
// services.TodoService.
//
// Error semantics:
//   - GetTodo returns ErrNotFound when no document has the given id.
//   - Duplicate ids surface as the raw driver error; callers can detect them
//     with IsDuplicate.
//   - Other driver errors are propagated unchanged.
package repo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tbourn/go-todo-backend/internal/domain"
)

// TodoDAO performs CRUD on to-do documents.
type TodoDAO struct {
	store      DocumentStore
	collection string
}

// NewTodoDAO returns a DAO bound to domain.TodoCollection on store.
func NewTodoDAO(store DocumentStore) *TodoDAO {
	return &TodoDAO{store: store, collection: domain.TodoCollection}
}

// byID builds the primary-key query for a to-do id.
func byID(id string) bson.M { return bson.M{"_id": id} }

// AddTodo inserts a new to-do document.
func (d *TodoDAO) AddTodo(ctx context.Context, todo domain.Todo) (*mongo.InsertOneResult, error) {
	return d.store.InsertOne(ctx, d.collection, todo)
}

// ListTodos returns every stored to-do.
func (d *TodoDAO) ListTodos(ctx context.Context) ([]domain.Todo, error) {
	docs, err := d.store.FindMany(ctx, d.collection, bson.M{})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Todo, 0, len(docs))
	for _, doc := range docs {
		t, err := decodeTodo(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// GetTodo fetches a to-do by id, or ErrNotFound.
func (d *TodoDAO) GetTodo(ctx context.Context, id string) (*domain.Todo, error) {
	doc, err := d.store.FindOne(ctx, d.collection, byID(id))
	if err != nil {
		return nil, err
	}
	t, err := decodeTodo(doc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTodo merges patch into the to-do with the given id.
func (d *TodoDAO) UpdateTodo(ctx context.Context, id string, patch domain.TodoPatch) (*mongo.UpdateResult, error) {
	return d.store.UpdateOne(ctx, d.collection, byID(id), patch)
}

// UpdateAllTodos merges patch into every to-do.
func (d *TodoDAO) UpdateAllTodos(ctx context.Context, patch domain.TodoPatch) (*mongo.UpdateResult, error) {
	return d.store.UpdateMany(ctx, d.collection, bson.M{}, patch)
}

// DeleteTodo removes the to-do with the given id.
func (d *TodoDAO) DeleteTodo(ctx context.Context, id string) (*mongo.DeleteResult, error) {
	return d.store.DeleteOne(ctx, d.collection, byID(id))
}

// DeleteAllTodos removes every to-do.
func (d *TodoDAO) DeleteAllTodos(ctx context.Context) (*mongo.DeleteResult, error) {
	return d.store.DeleteMany(ctx, d.collection, bson.M{})
}

// IsDuplicate reports whether err is a unique-key violation (e.g. an _id
// that already exists).
func IsDuplicate(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// decodeTodo converts a raw document into a domain.Todo.
func decodeTodo(doc bson.M) (domain.Todo, error) {
	var t domain.Todo
	raw, err := bson.Marshal(doc)
	if err != nil {
		return t, fmt.Errorf("encode todo document: %w", err)
	}
	if err := bson.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("decode todo document: %w", err)
	}
	return t, nil
}
