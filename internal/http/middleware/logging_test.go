package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf) // plain JSON lines
	return &buf
}

// lastLine decodes the last JSON log line in buf.
func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		t.Fatalf("decode log line: %v\n%s", err, buf.String())
	}
	return m
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/rid", func(c *gin.Context) {
		if c.GetString(requestIDKey) == "" {
			t.Fatalf("requestID not set in context")
		}
		c.String(http.StatusOK, "ok")
	})

	// No header -> generated
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rid", nil))
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated %s header", requestIDHeader)
	}

	// Lowercase header -> propagated
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/rid", nil)
	req2.Header.Set(strings.ToLower(requestIDHeader), "abc-123")
	r.ServeHTTP(w2, req2)
	if got := w2.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected propagated request id, got %q", got)
	}
}

func TestLogger_InfoWarnErrorAndPathFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(Logger(LogOptions{}))

	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "hello") })
	// a gin error with 400 should still log at error level
	r.GET("/err", func(c *gin.Context) {
		_ = c.Error(errSentinel{})
		c.Status(http.StatusBadRequest)
	})

	for _, tc := range []struct {
		path   string
		status int
	}{
		{"/ok", http.StatusOK},
		{"/missing", http.StatusNotFound},
		{"/err", http.StatusBadRequest},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if w.Code != tc.status {
			t.Fatalf("GET %s -> %d; want %d", tc.path, w.Code, tc.status)
		}
	}

	logs := buf.String()
	if !strings.Contains(logs, `"level":"info"`) || !strings.Contains(logs, `"path":"/ok"`) {
		t.Fatalf("expected info log with route path, got:\n%s", logs)
	}
	if !strings.Contains(logs, `"level":"warn"`) || !strings.Contains(logs, `"path":"/missing"`) {
		t.Fatalf("expected warn log with raw path fallback, got:\n%s", logs)
	}
	if !strings.Contains(logs, `"level":"error"`) || !strings.Contains(logs, `"errors":`) {
		t.Fatalf("expected error log, got:\n%s", logs)
	}
}

type errSentinel struct{}

func (e errSentinel) Error() string { return "boom" }

func TestLogger_TransactionIDParamsAndRedaction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(Logger(LogOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.PUT("/todo/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPut, "/todo/7?email=john.doe@example.com&ref=123e4567-e89b-12d3-a456-426614174000", nil)
	req.Header.Set("X-Transaction-ID", "tx-42")
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-Api-Key", "k-1")
	req.Header.Set("X-Contact", "call +1 212-555-1212")
	r.ServeHTTP(httptest.NewRecorder(), req)

	line := lastLine(t, buf)
	if line["transaction_id"] != "tx-42" {
		t.Fatalf("transaction_id = %v", line["transaction_id"])
	}
	if line["path"] != "/todo/:id" {
		t.Fatalf("path = %v", line["path"])
	}
	if params, _ := line["params"].(map[string]any); params["id"] != "7" {
		t.Fatalf("params = %v", line["params"])
	}

	q, _ := line["query"].(string)
	if strings.Contains(q, "john.doe") || !strings.Contains(q, "[REDACTED:email]") || !strings.Contains(q, "[REDACTED:id]") {
		t.Fatalf("query not scrubbed: %q", q)
	}

	hdr, _ := line["headers"].(map[string]any)
	if hdr["Authorization"] != "[REDACTED]" || hdr["X-Api-Key"] != "[REDACTED]" {
		t.Fatalf("sensitive headers not masked: %v", hdr)
	}
	if v, _ := hdr["X-Contact"].(string); !strings.Contains(v, "[REDACTED:phone]") {
		t.Fatalf("phone not scrubbed: %q", v)
	}
}

func TestLogger_TransactionIDFallsBackToRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(Logger(LogOptions{}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(requestIDHeader, "rid-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	line := lastLine(t, buf)
	if line["request_id"] != "rid-1" || line["transaction_id"] != "rid-1" {
		t.Fatalf("ids = %v / %v", line["request_id"], line["transaction_id"])
	}
}

func TestRecovery_PanicsToEnvelopeAndLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(Logger(LogOptions{}))
	r.Use(Recovery())
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from Recovery, got %d", w.Code)
	}
	want := `{"errorCode":1003,"errorMessage":"Internal Server Error","success":false}`
	if got := strings.TrimSpace(w.Body.String()); got != want {
		t.Fatalf("body = %s; want %s", got, want)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("expected panic log, got:\n%s", buf.String())
	}
}

func TestRecovery_PanicAfterWrite_NoJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(Logger(LogOptions{}))
	r.Use(Recovery())

	// Write first, then panic: Recovery must not append an envelope.
	r.GET("/panic-after-write", func(c *gin.Context) {
		c.String(http.StatusOK, "partial-body")
		panic("late kaboom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic-after-write", nil))

	if strings.Contains(w.Body.String(), "errorCode") {
		t.Fatalf("expected no JSON error body when panic after write; got %q", w.Body.String())
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("expected panic log, got:\n%s", buf.String())
	}
}

func TestLoggerFrom_FallbackAndRequestScoped(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// 1) Fallback, no Logger() installed
	buf1 := captureLogger(t)
	r1 := gin.New()
	r1.Use(RequestID())
	r1.GET("/use", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("custom")
		c.Status(http.StatusOK)
	})
	r1.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/use", nil))
	if !strings.Contains(buf1.String(), `"message":"custom"`) {
		t.Fatalf("expected custom log in fallback")
	}
	if strings.Contains(buf1.String(), `"request_id"`) {
		t.Fatalf("fallback logger unexpectedly had request_id")
	}

	// 2) With Logger() installed, the request-scoped logger carries request_id
	buf2 := captureLogger(t)
	r2 := gin.New()
	r2.Use(RequestID())
	r2.Use(Logger(LogOptions{}))
	r2.GET("/use", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("custom2")
		c.Status(http.StatusOK)
	})
	r2.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/use", nil))
	out := buf2.String()
	if !strings.Contains(out, `"message":"custom2"`) || !strings.Contains(out, `"request_id"`) {
		t.Fatalf("expected request-scoped log with request_id, got:\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	if truncate("hello", 10) != "hello" {
		t.Fatalf("truncate no-op failed")
	}
	if got := truncate("abcdefgh", 5); got != "abcde…" {
		t.Fatalf("truncate result = %q; want %q", got, "abcde…")
	}
	if truncate("abc", 0) != "abc" {
		t.Fatalf("truncate disable failed")
	}
}

func TestRedactor_ScrubOrder(t *testing.T) {
	red := newRedactor([]string{" X-Secret ", ""})
	got := red.scrub("id=123e4567-e89b-12d3-a456-426614174000")
	if got != "id=[REDACTED:id]" {
		t.Fatalf("uuid must win over phone pattern, got %q", got)
	}
	if red.scrub("") != "" {
		t.Fatalf("empty input must stay empty")
	}
	h := red.headers(http.Header{"X-Secret": {"a"}, "Accept": {"a", "b"}})
	if h["X-Secret"] != "[REDACTED]" || h["Accept"] != "a, b" {
		t.Fatalf("headers = %v", h)
	}
}

func TestRequestID_EchoesTransactionID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/todo", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/todo", nil))
	if got := w.Header().Get(transactionIDHeader); got != "" {
		t.Fatalf("unexpected %s %q", transactionIDHeader, got)
	}

	req := httptest.NewRequest(http.MethodGet, "/todo", nil)
	req.Header.Set(transactionIDHeader, "tx-9")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(transactionIDHeader); got != "tx-9" {
		t.Fatalf("%s = %q; want tx-9", transactionIDHeader, got)
	}
}

func TestLevelFor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for status, want := range map[int]zerolog.Level{
		http.StatusOK:                  zerolog.InfoLevel,
		http.StatusCreated:             zerolog.InfoLevel,
		http.StatusNotFound:            zerolog.WarnLevel,
		http.StatusTooManyRequests:     zerolog.WarnLevel,
		http.StatusInternalServerError: zerolog.ErrorLevel,
		http.StatusServiceUnavailable:  zerolog.ErrorLevel,
	} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Status(status)
		if got := levelFor(c); got != want {
			t.Fatalf("levelFor(%d) = %v; want %v", status, got, want)
		}
	}
}
