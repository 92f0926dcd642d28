package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-todo-backend/internal/domain"
)

func TestRespondError_500_LogsAndBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// capture logs from LoggerFrom(c)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r.Use(func(c *gin.Context) {
		c.Set("logger", &logger)
		c.Next()
	})

	r.GET("/boom", func(c *gin.Context) {
		RespondError(c, errors.New("kaboom"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Success || resp.ErrorCode != 1003 || resp.ErrorMessage != "Internal Server Error: kaboom" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected error log, got: %s", buf.String())
	}
}

func TestRespondError_4xxNotLogged_AndAborts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r.Use(func(c *gin.Context) {
		c.Set("logger", &logger)
		c.Next()
	})

	reached := false
	r.GET("/missing",
		func(c *gin.Context) { RespondError(c, domain.NewNotFoundError("Todo not found")) },
		func(c *gin.Context) { reached = true },
	)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	want := `{"success":false,"errorCode":1002,"errorMessage":"Resource Not Found: Todo not found"}`
	if got := strings.TrimSpace(w.Body.String()); got != want {
		t.Fatalf("body=%s; want %s", got, want)
	}
	if reached {
		t.Fatalf("handler chain was not aborted")
	}
	if buf.Len() != 0 {
		t.Fatalf("4xx should not be logged, got: %s", buf.String())
	}
}

func TestRespondError_NilIsInternal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondError(c, nil)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"errorMessage":"Internal Server Error"`) {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestRespondSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/default", func(c *gin.Context) { RespondSuccess(c, gin.H{"k": "v"}, 0) })
	r.POST("/created", func(c *gin.Context) { RespondSuccess(c, []int{1, 2}, http.StatusCreated) })
	r.GET("/nil", func(c *gin.Context) { RespondSuccess(c, nil, 0) })

	cases := []struct {
		method, path string
		status       int
		body         string
	}{
		{http.MethodGet, "/default", http.StatusOK, `{"success":true,"data":{"k":"v"}}`},
		{http.MethodPost, "/created", http.StatusCreated, `{"success":true,"data":[1,2]}`},
		{http.MethodGet, "/nil", http.StatusOK, `{"success":true,"data":null}`},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		if w.Code != tc.status {
			t.Fatalf("%s: status=%d; want %d", tc.path, w.Code, tc.status)
		}
		if got := strings.TrimSpace(w.Body.String()); got != tc.body {
			t.Fatalf("%s: body=%s; want %s", tc.path, got, tc.body)
		}
	}
}
