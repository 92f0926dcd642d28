// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response envelope shared by every endpoint. A success
// carries the payload under "data"; a failure carries the numeric taxonomy
// code and message of a domain.ApplicationError.
//
// Example error response:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "success": false,
//	  "errorCode": 1001,
//	  "errorMessage": "Bad Request: title body is required"
//	}
//
// Example success response:
//
//	HTTP/1.1 201 Created
//	{ "success": true, "data": { "insertedId": "42" } }
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-todo-backend/internal/domain"
	"github.com/tbourn/go-todo-backend/internal/http/middleware"
)

// SuccessResponse is the envelope of every successful response.
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
	Data    any  `json:"data"`
}

// ErrorResponse is the envelope of every failed response.
//
// Fields:
//   - ErrorCode: stable numeric code from the error taxonomy (1001..1004).
//   - ErrorMessage: base message of the category, optionally followed by ": detail".
type ErrorResponse struct {
	Success      bool   `json:"success" example:"false"`
	ErrorCode    int    `json:"errorCode" example:"1001"`
	ErrorMessage string `json:"errorMessage" example:"Bad Request: title body is required"`
}

// RespondSuccess writes data wrapped in a SuccessResponse. A zero status
// means 200 OK.
func RespondSuccess(c *gin.Context, data any, status int) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, SuccessResponse{Success: true, Data: data})
}

// RespondError coerces err into the taxonomy, writes the ErrorResponse with
// the matching status and aborts the handler chain.
//
// Server errors (>=500) are logged using the request-scoped logger from middleware.
func RespondError(c *gin.Context, err error) {
	appErr := domain.AsApplicationError(err)
	if appErr == nil {
		appErr = domain.NewInternalServerError()
	}
	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Int("code", appErr.Code()).
			Str("message", appErr.Message()).
			Msg("api error")
	}

	c.Set(middleware.ErrorCodeKey, appErr.Code())
	c.AbortWithStatusJSON(status, ErrorResponse{
		Success:      false,
		ErrorCode:    appErr.Code(),
		ErrorMessage: appErr.Message(),
	})
}
