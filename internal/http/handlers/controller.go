package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/tbourn/go-todo-backend/internal/domain"
)

// Request is the transport-neutral view of an incoming HTTP request handed
// to validators and processors. Header names are lower-cased; for repeated
// headers and query keys only the first value is kept.
type Request struct {
	Context context.Context
	Body    map[string]any
	Query   map[string]any
	Params  map[string]any
	Headers map[string]any
}

// Result is what a processor produces on success. A zero StatusCode means 200.
type Result struct {
	Data       any
	StatusCode int
}

// Validator inspects a request and returns a taxonomy error to reject it.
type Validator func(*Request) error

// Processor performs the operation behind an endpoint.
type Processor func(*Request) (*Result, error)

// Controller adapts a validator/processor pair to a gin handler. Every
// outcome is written through RespondSuccess or RespondError:
//
//   - a malformed JSON body is rejected before validation;
//   - a validator error stops the request before the processor runs;
//   - a processor error is coerced into the taxonomy;
//   - a nil Result from a processor that reported no error is an internal error.
//
// validate may be nil.
func Controller(validate Validator, process Processor) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := newRequest(c)
		if err != nil {
			RespondError(c, err)
			return
		}

		if validate != nil {
			if err := validate(req); err != nil {
				RespondError(c, err)
				return
			}
		}

		res, err := process(req)
		if err != nil {
			RespondError(c, err)
			return
		}
		if res == nil {
			RespondError(c, domain.NewInternalServerError("empty processor result"))
			return
		}
		RespondSuccess(c, res.Data, res.StatusCode)
	}
}

// newRequest extracts body, query, path params and headers from c.
func newRequest(c *gin.Context) (*Request, error) {
	body, err := decodeBody(c.Request)
	if err != nil {
		return nil, err
	}

	query := make(map[string]any, len(c.Request.URL.Query()))
	for k, vv := range c.Request.URL.Query() {
		if len(vv) > 0 {
			query[k] = vv[0]
		}
	}

	params := make(map[string]any, len(c.Params))
	for _, p := range c.Params {
		params[p.Key] = p.Value
	}

	headers := make(map[string]any, len(c.Request.Header))
	for k, vv := range c.Request.Header {
		if len(vv) > 0 {
			headers[strings.ToLower(k)] = vv[0]
		}
	}

	return &Request{
		Context: c.Request.Context(),
		Body:    body,
		Query:   query,
		Params:  params,
		Headers: headers,
	}, nil
}

// decodeBody parses a JSON object body. An absent or blank body yields an
// empty map.
func decodeBody(r *http.Request) (map[string]any, error) {
	body := map[string]any{}
	if r.Body == nil {
		return body, nil
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.NewBadRequestError("request body too large")
		}
		return nil, domain.NewBadRequestError("unreadable request body")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return body, nil
	}
	if err := binding.JSON.BindBody(raw, &body); err != nil || body == nil {
		return nil, domain.NewBadRequestError("invalid JSON body")
	}
	return body, nil
}
