package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/leeovery/termtodo/internal/storage"
)

// CodeValidation tags requests rejected before they reach the store.
const CodeValidation = "VALIDATION_ERROR"

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFor maps a storage error code to an HTTP status.
func statusFor(code storage.Code) int {
	switch code {
	case storage.CodeTaskNotFound:
		return http.StatusNotFound
	case storage.CodeImportInvalidFormat:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes a store error with the status its code maps to.
func (s *Server) fail(c *gin.Context, err error) {
	code := storage.CodeOf(err)
	status := statusFor(code)
	if code == "" {
		code = "INTERNAL_ERROR"
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": errorBody{Code: string(code), Message: err.Error()}})
}

// invalid writes a 400 for a request that failed validation.
func invalid(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errorBody{Code: CodeValidation, Message: err.Error()}})
}

func notFound(c *gin.Context, id string) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": errorBody{
		Code:    string(storage.CodeTaskNotFound),
		Message: "task " + id + " not found",
	}})
}
