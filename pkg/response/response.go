package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mroshb/friendgraph/pkg/errors"
	"github.com/mroshb/friendgraph/pkg/logger"
)

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var statusByCode = map[string]int{
	errors.ErrCodeValidation:            http.StatusBadRequest,
	errors.ErrCodeInvalidTarget:         http.StatusBadRequest,
	errors.ErrCodeInvalidAction:         http.StatusBadRequest,
	errors.ErrCodeUnauthorized:          http.StatusUnauthorized,
	errors.ErrCodeForbidden:             http.StatusForbidden,
	errors.ErrCodeNotFound:              http.StatusNotFound,
	errors.ErrCodeDuplicateRelationship: http.StatusConflict,
	errors.ErrCodeAlreadyExists:         http.StatusConflict,
	errors.ErrCodeInvalidState:          http.StatusConflict,
	errors.ErrCodeRateLimitExceeded:     http.StatusTooManyRequests,
	errors.ErrCodeStoreUnavailable:      http.StatusServiceUnavailable,
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error writes err as an ErrorBody and aborts the chain. Internal failures
// are logged and their details withheld from the client.
func Error(c *gin.Context, err error) {
	code := errors.CodeOf(err)
	status := StatusFor(code)

	message := errors.MessageOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "path", c.FullPath(), "code", code, "error", err)
		if code == errors.ErrCodeInternalError {
			message = "internal server error"
		}
	}

	c.AbortWithStatusJSON(status, ErrorBody{Error: message, Code: code})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, errors.New(errors.ErrCodeValidation, message))
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, errors.New(errors.ErrCodeUnauthorized, message))
}
