package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/tbourn/go-todo-backend/internal/domain"
	"github.com/tbourn/go-todo-backend/internal/repo"
	"github.com/tbourn/go-todo-backend/internal/repo/repotest"
	"github.com/tbourn/go-todo-backend/internal/services"
)

// ---------- test wiring ----------

func newTodoRouter(t *testing.T) (*gin.Engine, *repotest.MemStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repotest.NewMemStore()
	svc := services.NewTodoService(repo.NewTodoDAO(store))

	r := gin.New()
	New(svc).Register(r)
	return r, store
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seed(t *testing.T, r *gin.Engine, id, title, desc string) {
	t.Helper()
	w := do(r, http.MethodPost, "/todo", `{"id":"`+id+`","title":"`+title+`","description":"`+desc+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

// ---------- POST /todo ----------

func TestAddTodo_Created(t *testing.T) {
	r, store := newTodoRouter(t)

	w := do(r, http.MethodPost, "/todo", `{"id":"1","title":"Buy milk","description":"2 liters"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"insertedId":"1"}}`, w.Body.String())

	docs := store.Docs(domain.TodoCollection)
	require.Len(t, docs, 1)
	assert.Equal(t, bson.M{"_id": "1", "title": "Buy milk", "description": "2 liters"}, docs[0])
}

func TestAddTodo_MissingFields(t *testing.T) {
	r, store := newTodoRouter(t)

	cases := []struct {
		body string
		msg  string
	}{
		{`{"id":"1","title":"t"}`, "Bad Request: description body is required"},
		{`{"id":"1","title":"","description":"d"}`, "Bad Request: title body is required"},
		{`{}`, "Bad Request: id body is required, title body is required, description body is required"},
		{``, "Bad Request: id body is required, title body is required, description body is required"},
		{`{"id":0,"title":false,"description":null}`, "Bad Request: id body is required, title body is required, description body is required"},
	}
	for _, tc := range cases {
		w := do(r, http.MethodPost, "/todo", tc.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.body)
		assert.JSONEq(t, `{"success":false,"errorCode":1001,"errorMessage":"`+tc.msg+`"}`, w.Body.String(), tc.body)
	}
	assert.Empty(t, store.Calls, "store must not be touched when validation fails")
}

func TestAddTodo_DuplicateID(t *testing.T) {
	r, _ := newTodoRouter(t)
	seed(t, r, "1", "a", "b")

	w := do(r, http.MethodPost, "/todo", `{"id":"1","title":"c","description":"d"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"errorCode":1001,"errorMessage":"Bad Request: Todo not added"}`, w.Body.String())
}

func TestAddTodo_NumericIDKeepsTextForm(t *testing.T) {
	r, store := newTodoRouter(t)

	w := do(r, http.MethodPost, "/todo", `{"id":42,"title":"t","description":"d"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"insertedId":"42"}}`, w.Body.String())
	assert.Equal(t, "42", store.Docs(domain.TodoCollection)[0]["_id"])
}

func TestAddTodo_RejectsObjectAndArrayValues(t *testing.T) {
	r, store := newTodoRouter(t)

	cases := []struct{ body, msg string }{
		{`{"id":"1","title":{"$gt":""},"description":"d"}`, "Bad Request: title body must be a string, number or boolean"},
		{`{"id":["1"],"title":"t","description":[1]}`, "Bad Request: id body must be a string, number or boolean, description body must be a string, number or boolean"},
	}
	for _, tc := range cases {
		w := do(r, http.MethodPost, "/todo", tc.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.body)
		assert.JSONEq(t, `{"success":false,"errorCode":1001,"errorMessage":"`+tc.msg+`"}`, w.Body.String(), tc.body)
	}
	assert.Empty(t, store.Docs(domain.TodoCollection))

	seed(t, r, "1", "a", "b")
	w := do(r, http.MethodPut, "/todo/1", `{"title":{"$set":"x"},"description":"d"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "title body must be a string, number or boolean")
}

func TestAddTodo_NumbersUsePlainDecimalText(t *testing.T) {
	r, store := newTodoRouter(t)

	w := do(r, http.MethodPost, "/todo", `{"id":"n","title":1e21,"description":true}`)
	require.Equal(t, http.StatusCreated, w.Code)
	doc := store.Docs(domain.TodoCollection)[0]
	assert.Equal(t, "1000000000000000000000", doc["title"])
	assert.Equal(t, "true", doc["description"])
}

func TestAddTodo_StoreFailureIsInternal(t *testing.T) {
	r, store := newTodoRouter(t)
	store.Err = errors.New("connection refused")

	w := do(r, http.MethodPost, "/todo", `{"id":"1","title":"t","description":"d"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"errorCode":1003,"errorMessage":"Internal Server Error: connection refused"}`, w.Body.String())
}

// ---------- PUT /todo/:id ----------

func TestUpdateTodo_OK(t *testing.T) {
	r, store := newTodoRouter(t)
	seed(t, r, "1", "old", "old desc")

	w := do(r, http.MethodPut, "/todo/1", `{"title":"new","description":"new desc"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"matchedCount":1,"modifiedCount":1,"upsertedCount":0}}`, w.Body.String())

	docs := store.Docs(domain.TodoCollection)
	assert.Equal(t, "new", docs[0]["title"])
	assert.Equal(t, "new desc", docs[0]["description"])
}

func TestUpdateTodo_UnknownID(t *testing.T) {
	r, _ := newTodoRouter(t)

	w := do(r, http.MethodPut, "/todo/nope", `{"title":"x","description":"y"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"errorCode":1001,"errorMessage":"Bad Request: Todo not updated"}`, w.Body.String())
}

func TestUpdateTodo_MissingBody(t *testing.T) {
	r, store := newTodoRouter(t)

	w := do(r, http.MethodPut, "/todo/1", `{"title":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"errorCode":1001,"errorMessage":"Bad Request: description body is required"}`, w.Body.String())
	assert.Empty(t, store.Calls)
}

func TestUpdateTodo_InvalidJSON(t *testing.T) {
	r, _ := newTodoRouter(t)

	w := do(r, http.MethodPut, "/todo/1", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid JSON body")
}

func TestValidateUpdateTodo_RequiresIDParam(t *testing.T) {
	err := validateUpdateTodo(&Request{Params: map[string]any{}, Body: map[string]any{"title": "t", "description": "d"}})
	require.Error(t, err)
	assert.Equal(t, "Bad Request: id params is required", err.Error())
}

// ---------- list / get / delete ----------

func TestListTodos(t *testing.T) {
	r, _ := newTodoRouter(t)

	w := do(r, http.MethodGet, "/todo", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, w.Body.String())

	seed(t, r, "1", "a", "b")
	seed(t, r, "2", "c", "d")

	w = do(r, http.MethodGet, "/todo", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":[
		{"id":"1","title":"a","description":"b"},
		{"id":"2","title":"c","description":"d"}
	]}`, w.Body.String())
}

func TestGetTodo(t *testing.T) {
	r, _ := newTodoRouter(t)
	seed(t, r, "1", "a", "b")

	w := do(r, http.MethodGet, "/todo/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":"1","title":"a","description":"b"}}`, w.Body.String())

	w = do(r, http.MethodGet, "/todo/2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"errorCode":1002,"errorMessage":"Resource Not Found: Todo not found"}`, w.Body.String())
}

func TestDeleteTodo(t *testing.T) {
	r, store := newTodoRouter(t)
	seed(t, r, "1", "a", "b")

	w := do(r, http.MethodDelete, "/todo/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"deletedCount":1}}`, w.Body.String())
	assert.Empty(t, store.Docs(domain.TodoCollection))

	w = do(r, http.MethodDelete, "/todo/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateAllAndDeleteAll(t *testing.T) {
	r, store := newTodoRouter(t)
	seed(t, r, "1", "a", "b")
	seed(t, r, "2", "c", "d")

	w := do(r, http.MethodPut, "/todo", `{"title":"same","description":"same"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"matchedCount":2,"modifiedCount":2,"upsertedCount":0}}`, w.Body.String())
	for _, d := range store.Docs(domain.TodoCollection) {
		assert.Equal(t, "same", d["title"])
	}

	w = do(r, http.MethodDelete, "/todo", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"deletedCount":2}}`, w.Body.String())

	w = do(r, http.MethodDelete, "/todo", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"deletedCount":0}}`, w.Body.String())
}
