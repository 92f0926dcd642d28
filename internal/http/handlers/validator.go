package handlers

import (
	"fmt"
	"math"
	"strings"

	"github.com/tbourn/go-todo-backend/internal/domain"
)

// Location labels used in "<field> <location> is required" messages.
const (
	LocationBody    = "body"
	LocationQuery   = "query"
	LocationParams  = "params"
	LocationHeaders = "headers"
)

// Validate reports every name in required that is absent from data or holds
// a falsy value (nil, false, "", numeric zero, NaN). All missing names are
// collected into a single BadRequest, in the order given by required:
//
//	Bad Request: title body is required, description body is required
func Validate(data map[string]any, required []string, location string) error {
	var missing []string
	for _, name := range required {
		if v, ok := data[name]; !ok || isFalsy(v) {
			missing = append(missing, fmt.Sprintf("%s %s is required", name, location))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return domain.NewBadRequestError(strings.Join(missing, ", "))
}

// ValidateBody checks required fields of a decoded JSON body.
func ValidateBody(body map[string]any, required ...string) error {
	return Validate(body, required, LocationBody)
}

// ValidateQuery checks required query string parameters.
func ValidateQuery(query map[string]any, required ...string) error {
	return Validate(query, required, LocationQuery)
}

// ValidateParams checks required path parameters.
func ValidateParams(params map[string]any, required ...string) error {
	return Validate(params, required, LocationParams)
}

// ValidateHeaders checks required headers. Names must be lower-case.
func ValidateHeaders(headers map[string]any, required ...string) error {
	return Validate(headers, required, LocationHeaders)
}

// isFalsy mirrors JavaScript truthiness for the value kinds a decoded JSON
// document can hold. Objects and arrays, even empty ones, are present.
func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case string:
		return x == ""
	case float64:
		return x == 0 || math.IsNaN(x)
	case float32:
		return x == 0 || math.IsNaN(float64(x))
	case int:
		return x == 0
	case int32:
		return x == 0
	case int64:
		return x == 0
	}
	return false
}
