package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the response shape every endpoint returns. The storefront
// frontend branches on Success and shows Message in its toasts.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"` // error code for frontend mapping
}

// RespondOK sends a success envelope
func RespondOK(c *gin.Context, statusCode int, data interface{}, message string) {
	c.JSON(statusCode, Envelope{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// RespondWithError sends an error envelope
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, Envelope{
		Success: false,
		Error:   errorCode,
		Message: message,
	})
}

// Frequently used error response shortcuts

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Please sign in to continue"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "You do not have access to this resource"
	}
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Something went wrong. Please try again in a moment"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// ValidationError carries field-level validation failures
type ValidationError struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func RespondWithValidationError(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, ValidationError{
		Success: false,
		Error:   ValidationInvalidInput,
		Message: "Some fields are missing or invalid",
		Fields:  fields,
	})
}
