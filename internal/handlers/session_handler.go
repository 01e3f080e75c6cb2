package handlers

import (
	"fmt"
	"net/http"

	"github.com/abhiroy829429/AI-Proctoring-System/internal/services"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/utils"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
	reportService  services.ReportService
}

func NewSessionHandler(
	sessionService services.SessionService,
	reportService services.ReportService,
	logger utils.Logger,
	development bool,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger, development),
		sessionService: sessionService,
		reportService:  reportService,
	}
}

type startSessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type endSessionResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// StartSession creates a new proctoring session for a candidate
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req services.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Starting proctoring session", "candidate", req.CandidateName)

	session, err := h.sessionService.Start(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, startSessionResponse{
		Success:   true,
		SessionID: session.SessionID,
		Message:   "Session started",
	})
}

// EndSession closes an active proctoring session
func (h *SessionHandler) EndSession(c *gin.Context) {
	var req services.EndSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Ending proctoring session", "session_id", req.SessionID)

	session, err := h.sessionService.End(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, endSessionResponse{
		Success:   true,
		Message:   "Session ended",
		SessionID: session.SessionID,
	})
}

// GetSession returns a session record plus its events, most recent first
func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "sessionId")
	if sessionID == "" {
		return
	}

	detail, err := h.sessionService.Get(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// ExportReport streams the session review workbook
func (h *SessionHandler) ExportReport(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "sessionId")
	if sessionID == "" {
		return
	}

	h.LogRequest(c, "Exporting session report", "session_id", sessionID)

	report, err := h.reportService.SessionReport(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=session-%s.xlsx", sessionID))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if _, err := report.WriteTo(c.Writer); err != nil {
		h.logger.LogError(err, "Failed to stream session report", "session_id", sessionID)
	}
}
