package utils

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Fixed client-facing messages.  Auth failures never say which check failed.
const (
	MsgNoToken            = "No token provided"
	MsgInvalidToken       = "Invalid token"
	MsgInvalidCredentials = "Invalid email or password"
	MsgUserExists         = "User already exists with this email"
	MsgForbidden          = "Access denied"
	MsgValidation         = "Validation failed"
	MsgInvalidBody        = "Invalid request body"
	MsgTooManyRequests    = "Too many requests"
	MsgInternal           = "Internal server error"
)

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// OK writes a success envelope with the given status.
func OK(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, Response{Success: true, Message: message, Data: data})
}

// Fail writes a failure envelope.  errs may be nil.
func Fail(c echo.Context, code int, message string, errs any) error {
	return c.JSON(code, Response{Success: false, Message: message, Errors: errs})
}

func Unauthorized(c echo.Context, message string) error {
	return Fail(c, http.StatusUnauthorized, message, nil)
}

func Forbidden(c echo.Context) error {
	return Fail(c, http.StatusForbidden, MsgForbidden, nil)
}

func BadRequest(c echo.Context, message string, errs any) error {
	return Fail(c, http.StatusBadRequest, message, errs)
}
