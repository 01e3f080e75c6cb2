package handlers

import (
	"net/http"

	"github.com/abhiroy829429/AI-Proctoring-System/internal/services"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response. Every response carries the
// success flag; store-failure detail is only exposed in development.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and error mapping for all handlers
type BaseHandler struct {
	logger      utils.Logger
	development bool
}

// NewBaseHandler creates a new base handler with logging capability
func NewBaseHandler(logger utils.Logger, development bool) BaseHandler {
	return BaseHandler{
		logger:      logger,
		development: development,
	}
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"remote_addr", c.ClientIP(),
		"user_agent", c.Request.UserAgent(),
		"request_id", c.GetHeader("X-Request-ID"),
	}
	fields = append(fields, additionalFields...)

	h.logger.Info(message, fields...)
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, err error, details ...interface{}) {
	errorResp := ErrorResponse{
		Success: false,
		Message: message,
	}
	if len(details) > 0 {
		errorResp.Details = details[0]
	}

	if err != nil {
		h.logger.LogError(err, message,
			"status_code", statusCode,
			"method", c.Request.Method,
			"path", c.Request.URL.Path)
	} else {
		h.logger.Warn(message,
			"status_code", statusCode,
			"method", c.Request.Method,
			"path", c.Request.URL.Path)
	}

	c.JSON(statusCode, errorResp)
}

// handleServiceError maps service-layer errors onto the HTTP error taxonomy:
// validation failures are 400, absent sessions 404, everything else a 500
// whose detail is suppressed outside development.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, err.Error())
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, "Session not found", err)
	default:
		if h.development {
			h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err, err.Error())
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
