// To-do HTTP handlers.
//
// This file exposes REST endpoints for to-do resources:
//   - POST   /todo        (create)
//   - GET    /todo        (list)
//   - PUT    /todo        (update all)
//   - DELETE /todo        (delete all)
//   - GET    /todo/{id}   (fetch)
//   - PUT    /todo/{id}   (update)
//   - DELETE /todo/{id}   (delete)
//
// Each endpoint is a validator/processor pair run by Controller. Processors
// are transport-thin: they read the Request maps, call the TodoService and
// return a Result; Controller writes the envelope.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tbourn/go-todo-backend/internal/domain"
)

// TodoService defines the to-do operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type TodoService interface {
	Add(ctx context.Context, todo domain.Todo) (*mongo.InsertOneResult, error)
	Update(ctx context.Context, id string, patch domain.TodoPatch) (*mongo.UpdateResult, error)
	UpdateAll(ctx context.Context, patch domain.TodoPatch) (*mongo.UpdateResult, error)
	List(ctx context.Context) ([]domain.Todo, error)
	Get(ctx context.Context, id string) (*domain.Todo, error)
	Delete(ctx context.Context, id string) (*mongo.DeleteResult, error)
	DeleteAll(ctx context.Context) (*mongo.DeleteResult, error)
}

// Handlers groups the to-do endpoints.
type Handlers struct {
	todoSvc TodoService
}

// New constructs and returns a Handlers instance bound to svc.
func New(svc TodoService) *Handlers {
	return &Handlers{todoSvc: svc}
}

// Register mounts the to-do routes on g.
func (h *Handlers) Register(g gin.IRoutes) {
	g.POST("/todo", Controller(validateAddTodo, h.processAddTodo))
	g.GET("/todo", Controller(nil, h.processListTodos))
	g.PUT("/todo", Controller(validateUpdateAllTodos, h.processUpdateAllTodos))
	g.DELETE("/todo", Controller(nil, h.processDeleteAllTodos))
	g.GET("/todo/:id", Controller(validateTodoID, h.processGetTodo))
	g.PUT("/todo/:id", Controller(validateUpdateTodo, h.processUpdateTodo))
	g.DELETE("/todo/:id", Controller(validateTodoID, h.processDeleteTodo))
}

//
// DTOs
//

// AddTodoRequest is the JSON payload for creating a to-do.
type AddTodoRequest struct {
	ID          string `json:"id" example:"42"`
	Title       string `json:"title" example:"Buy milk"`
	Description string `json:"description" example:"2 liters, semi-skimmed"`
}

// UpdateTodoRequest is the JSON payload for updating to-dos.
type UpdateTodoRequest struct {
	Title       string `json:"title" example:"Buy oat milk"`
	Description string `json:"description" example:"1 liter"`
}

// InsertResult reports the id of a created document.
type InsertResult struct {
	InsertedID any `json:"insertedId" swaggertype:"string" example:"42"`
}

// UpdateResult reports how many documents an update touched.
type UpdateResult struct {
	MatchedCount  int64 `json:"matchedCount" example:"1"`
	ModifiedCount int64 `json:"modifiedCount" example:"1"`
	UpsertedCount int64 `json:"upsertedCount" example:"0"`
	UpsertedID    any   `json:"upsertedId,omitempty" swaggertype:"string"`
}

// DeleteResult reports how many documents were removed.
type DeleteResult struct {
	DeletedCount int64 `json:"deletedCount" example:"1"`
}

func toUpdateResult(r *mongo.UpdateResult) UpdateResult {
	return UpdateResult{
		MatchedCount:  r.MatchedCount,
		ModifiedCount: r.ModifiedCount,
		UpsertedCount: r.UpsertedCount,
		UpsertedID:    r.UpsertedID,
	}
}

//
// Validators
//

func validateAddTodo(r *Request) error {
	return validateTodoBody(r.Body, "id", "title", "description")
}

func validateUpdateTodo(r *Request) error {
	if err := ValidateParams(r.Params, "id"); err != nil {
		return err
	}
	return validateTodoBody(r.Body, "title", "description")
}

func validateUpdateAllTodos(r *Request) error {
	return validateTodoBody(r.Body, "title", "description")
}

// validateTodoBody checks presence, then rejects objects and arrays so that
// query operators such as {"$gt":""} are never stored as field values.
func validateTodoBody(body map[string]any, fields ...string) error {
	if err := ValidateBody(body, fields...); err != nil {
		return err
	}
	var bad []string
	for _, f := range fields {
		switch body[f].(type) {
		case string, float64, bool:
		default:
			bad = append(bad, f+" body must be a string, number or boolean")
		}
	}
	if len(bad) > 0 {
		return domain.NewBadRequestError(strings.Join(bad, ", "))
	}
	return nil
}

func validateTodoID(r *Request) error {
	return ValidateParams(r.Params, "id")
}

// str renders a validated scalar field as a string. Numbers use their plain
// decimal form (42 stays "42", 1e21 becomes "1000000000000000000000").
func str(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func patchFrom(body map[string]any) domain.TodoPatch {
	return domain.TodoPatch{Title: str(body, "title"), Description: str(body, "description")}
}

//
// Processors
//

// processAddTodo godoc
// @ID          addTodo
// @Summary     Create a to-do
// @Description Stores a new to-do under the caller-supplied id.
// @Tags        Todos
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.AddTodoRequest  true  "To-do"
// @Success     201   {object}  handlers.SuccessResponse{data=handlers.InsertResult}
// @Failure     400   {object}  handlers.ErrorResponse  "Missing field or Todo not added"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /todo [post]
func (h *Handlers) processAddTodo(r *Request) (*Result, error) {
	todo := domain.Todo{
		ID:          str(r.Body, "id"),
		Title:       str(r.Body, "title"),
		Description: str(r.Body, "description"),
	}
	res, err := h.todoSvc.Add(r.Context, todo)
	if err != nil {
		return nil, err
	}
	return &Result{Data: InsertResult{InsertedID: res.InsertedID}, StatusCode: http.StatusCreated}, nil
}

// processUpdateTodo godoc
// @ID          updateTodo
// @Summary     Update a to-do
// @Description Sets title and description of the to-do with the given id.
// @Tags        Todos
// @Accept      json
// @Produce     json
// @Param       id    path      string                      true  "To-do id"
// @Param       body  body      handlers.UpdateTodoRequest  true  "New values"
// @Success     200   {object}  handlers.SuccessResponse{data=handlers.UpdateResult}
// @Failure     400   {object}  handlers.ErrorResponse  "Missing field or Todo not updated"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /todo/{id} [put]
func (h *Handlers) processUpdateTodo(r *Request) (*Result, error) {
	res, err := h.todoSvc.Update(r.Context, str(r.Params, "id"), patchFrom(r.Body))
	if err != nil {
		return nil, err
	}
	return &Result{Data: toUpdateResult(res), StatusCode: http.StatusOK}, nil
}

// processUpdateAllTodos godoc
// @ID          updateAllTodos
// @Summary     Update every to-do
// @Description Sets title and description on all stored to-dos.
// @Tags        Todos
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.UpdateTodoRequest  true  "New values"
// @Success     200   {object}  handlers.SuccessResponse{data=handlers.UpdateResult}
// @Failure     400   {object}  handlers.ErrorResponse  "Missing field"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /todo [put]
func (h *Handlers) processUpdateAllTodos(r *Request) (*Result, error) {
	res, err := h.todoSvc.UpdateAll(r.Context, patchFrom(r.Body))
	if err != nil {
		return nil, err
	}
	return &Result{Data: toUpdateResult(res)}, nil
}

// processListTodos godoc
// @ID          listTodos
// @Summary     List to-dos
// @Tags        Todos
// @Produce     json
// @Success     200  {object}  handlers.SuccessResponse{data=[]domain.Todo}
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /todo [get]
func (h *Handlers) processListTodos(r *Request) (*Result, error) {
	items, err := h.todoSvc.List(r.Context)
	if err != nil {
		return nil, err
	}
	return &Result{Data: items}, nil
}

// processGetTodo godoc
// @ID          getTodo
// @Summary     Fetch a to-do
// @Tags        Todos
// @Produce     json
// @Param       id   path      string  true  "To-do id"
// @Success     200  {object}  handlers.SuccessResponse{data=domain.Todo}
// @Failure     404  {object}  handlers.ErrorResponse  "Todo not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /todo/{id} [get]
func (h *Handlers) processGetTodo(r *Request) (*Result, error) {
	t, err := h.todoSvc.Get(r.Context, str(r.Params, "id"))
	if err != nil {
		return nil, err
	}
	return &Result{Data: t}, nil
}

// processDeleteTodo godoc
// @ID          deleteTodo
// @Summary     Delete a to-do
// @Tags        Todos
// @Produce     json
// @Param       id   path      string  true  "To-do id"
// @Success     200  {object}  handlers.SuccessResponse{data=handlers.DeleteResult}
// @Failure     404  {object}  handlers.ErrorResponse  "Todo not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /todo/{id} [delete]
func (h *Handlers) processDeleteTodo(r *Request) (*Result, error) {
	res, err := h.todoSvc.Delete(r.Context, str(r.Params, "id"))
	if err != nil {
		return nil, err
	}
	return &Result{Data: DeleteResult{DeletedCount: res.DeletedCount}}, nil
}

// processDeleteAllTodos godoc
// @ID          deleteAllTodos
// @Summary     Delete every to-do
// @Tags        Todos
// @Produce     json
// @Success     200  {object}  handlers.SuccessResponse{data=handlers.DeleteResult}
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /todo [delete]
func (h *Handlers) processDeleteAllTodos(r *Request) (*Result, error) {
	res, err := h.todoSvc.DeleteAll(r.Context)
	if err != nil {
		return nil, err
	}
	return &Result{Data: DeleteResult{DeletedCount: res.DeletedCount}}, nil
}
