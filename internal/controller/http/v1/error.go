package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"voice_conversion/entity"
)

type response struct {
	Error string `json:"error" example:"message"`
}

func errorResponse(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, response{msg})
}

// formError is a malformed or missing form field.
type formError struct {
	msg string
}

func (e *formError) Error() string {
	return e.msg
}

func badForm(msg string) error {
	return &formError{msg: msg}
}

// statusFor maps an operation error onto an HTTP status.
func statusFor(err error) int {
	var (
		loadErr    *entity.ModelLoadError
		convErr    *entity.ConversionError
		formErr    *formError
		maxSizeErr *http.MaxBytesError
	)

	switch {
	case errors.Is(err, entity.ErrArchiveNotFound), errors.Is(err, entity.ErrArchiveDisabled):
		return http.StatusNotFound
	case errors.As(err, &maxSizeErr):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &formErr):
		return http.StatusBadRequest
	case errors.As(err, &loadErr), errors.As(err, &convErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
