package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind identifies one entry of the closed application error taxonomy.
type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindNotFound
	KindInternalServerError
	KindUnauthorized
)

// errorDef is the fixed status/code/message triple of a Kind.
type errorDef struct {
	statusCode int
	code       int
	message    string
}

var taxonomy = map[Kind]errorDef{
	KindBadRequest:          {http.StatusBadRequest, 1001, "Bad Request"},
	KindNotFound:            {http.StatusNotFound, 1002, "Resource Not Found"},
	KindInternalServerError: {http.StatusInternalServerError, 1003, "Internal Server Error"},
	KindUnauthorized:        {http.StatusUnauthorized, 1004, "Unauthorized"},
}

// String returns the symbolic name of k.
func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "BadRequest"
	case KindNotFound:
		return "NotFound"
	case KindInternalServerError:
		return "InternalServerError"
	case KindUnauthorized:
		return "Unauthorized"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ApplicationError is the only error representation that reaches the HTTP
// response layer. It is immutable once constructed and exposes the HTTP
// status, the stable numeric code and the final message.
type ApplicationError struct {
	kind       Kind
	statusCode int
	code       int
	message    string
}

// NewApplicationError builds an error of the given kind. A non-empty detail
// is appended to the base message as "<base>: <detail>". Unknown kinds are
// treated as KindInternalServerError.
func NewApplicationError(kind Kind, detail string) *ApplicationError {
	def, ok := taxonomy[kind]
	if !ok {
		kind = KindInternalServerError
		def = taxonomy[kind]
	}
	msg := def.message
	if detail != "" {
		msg += ": " + detail
	}
	return &ApplicationError{
		kind:       kind,
		statusCode: def.statusCode,
		code:       def.code,
		message:    msg,
	}
}

// NewBadRequestError reports invalid input or a failed business rule.
func NewBadRequestError(detail ...string) *ApplicationError {
	return NewApplicationError(KindBadRequest, joinDetail(detail))
}

// NewNotFoundError reports a missing resource.
func NewNotFoundError(detail ...string) *ApplicationError {
	return NewApplicationError(KindNotFound, joinDetail(detail))
}

// NewInternalServerError reports an unexpected failure.
func NewInternalServerError(detail ...string) *ApplicationError {
	return NewApplicationError(KindInternalServerError, joinDetail(detail))
}

// NewUnauthorizedError reports a missing or invalid credential.
func NewUnauthorizedError(detail ...string) *ApplicationError {
	return NewApplicationError(KindUnauthorized, joinDetail(detail))
}

// Error implements the error interface.
func (e *ApplicationError) Error() string { return e.message }

// Kind returns the taxonomy entry of the error.
func (e *ApplicationError) Kind() Kind { return e.kind }

// StatusCode returns the HTTP status associated with the error kind.
func (e *ApplicationError) StatusCode() int { return e.statusCode }

// Code returns the stable numeric error identifier.
func (e *ApplicationError) Code() int { return e.code }

// Message returns the base message, augmented with the detail if any.
func (e *ApplicationError) Message() string { return e.message }

// AsApplicationError coerces err into the taxonomy. Taxonomy errors (also when
// wrapped) are returned unchanged; any other error becomes an
// InternalServerError carrying the original message as detail. A nil err
// yields nil; a typed-nil *ApplicationError becomes a bare InternalServerError.
func AsApplicationError(err error) *ApplicationError {
	if err == nil {
		return nil
	}
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		if appErr == nil {
			return NewInternalServerError()
		}
		return appErr
	}
	return NewInternalServerError(err.Error())
}

func joinDetail(detail []string) string {
	parts := make([]string, 0, len(detail))
	for _, d := range detail {
		if d != "" {
			parts = append(parts, d)
		}
	}
	return strings.Join(parts, ": ")
}
