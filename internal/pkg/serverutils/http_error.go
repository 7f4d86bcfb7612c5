package serverutils

import "github.com/gofiber/fiber/v2"

// HttpError is a service-level error carrying the HTTP status it should
// surface as. Services return these; the error-handler middleware maps
// everything else to a generic 500.
type HttpError struct {
	Status  int
	Message string
}

func (e *HttpError) Error() string {
	return e.Message
}

func NewHttpError(status int, message string) *HttpError {
	return &HttpError{Status: status, Message: message}
}

func BadRequest(message string) *HttpError {
	return NewHttpError(fiber.StatusBadRequest, message)
}

func Unauthorized(message string) *HttpError {
	return NewHttpError(fiber.StatusUnauthorized, message)
}

func Forbidden(message string) *HttpError {
	return NewHttpError(fiber.StatusForbidden, message)
}

func NotFound(message string) *HttpError {
	return NewHttpError(fiber.StatusNotFound, message)
}
