package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/abhiroy829429/AI-Proctoring-System/internal/models"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/repositories"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/services"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/utils"
	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	BaseHandler
	eventService services.EventService
}

func NewEventHandler(eventService services.EventService, logger utils.Logger, development bool) *EventHandler {
	return &EventHandler{
		BaseHandler:  NewBaseHandler(logger, development),
		eventService: eventService,
	}
}

type logEventResponse struct {
	Success   bool      `json:"success"`
	EventID   uint      `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
}

type logBatchResponse struct {
	Success  bool   `json:"success"`
	Count    int    `json:"count"`
	EventIDs []uint `json:"eventIds"`
}

type queryEventsResponse struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Total   int64           `json:"total"`
	HasMore bool            `json:"hasMore"`
	Events  []*models.Event `json:"events"`
}

// LogEvent appends a single proctoring event
func (h *EventHandler) LogEvent(c *gin.Context) {
	var req services.LogEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	event, err := h.eventService.LogOne(c.Request.Context(), &req, requestOrigin(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, logEventResponse{
		Success:   true,
		EventID:   event.ID,
		Timestamp: event.Timestamp,
	})
}

// LogEventBatch appends a batch of events in one bulk insert
func (h *EventHandler) LogEventBatch(c *gin.Context) {
	var req services.LogBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Logging event batch", "session_id", req.SessionID, "count", len(req.Events))

	batch, err := h.eventService.LogBatch(c.Request.Context(), &req, requestOrigin(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	ids := make([]uint, len(batch))
	for i, event := range batch {
		ids[i] = event.ID
	}

	c.JSON(http.StatusCreated, logBatchResponse{
		Success:  true,
		Count:    len(batch),
		EventIDs: ids,
	})
}

// QueryEvents returns a filtered, paginated view of a session's events
func (h *EventHandler) QueryEvents(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "sessionId")
	if sessionID == "" {
		return
	}

	filters, err := parseEventFilters(c)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", err, err.Error())
		return
	}

	page, err := h.eventService.QueryBySession(c.Request.Context(), sessionID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, queryEventsResponse{
		Success: true,
		Count:   len(page.Events),
		Total:   page.Total,
		HasMore: page.HasMore,
		Events:  page.Events,
	})
}

// ===== QUERY PARSING =====

func parseEventFilters(c *gin.Context) (repositories.EventFilters, error) {
	filters := repositories.EventFilters{
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return filters, err
		}
		filters.Limit = limit
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return filters, err
		}
		filters.Offset = offset
	}

	for _, value := range queryList(c, "type") {
		filters.Types = append(filters.Types, models.EventType(value))
	}
	for _, value := range queryList(c, "severity") {
		filters.Severities = append(filters.Severities, models.EventSeverity(value))
	}

	if fromStr := c.Query("startDate"); fromStr != "" {
		from, err := parseTimestamp(fromStr)
		if err != nil {
			return filters, err
		}
		filters.DateFrom = &from
	}
	if toStr := c.Query("endDate"); toStr != "" {
		to, err := parseTimestamp(toStr)
		if err != nil {
			return filters, err
		}
		filters.DateTo = &to
	}

	return filters, nil
}

// queryList accepts both repeated parameters and comma-separated values
func queryList(c *gin.Context, key string) []string {
	var values []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	}
	return values
}

func parseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

func requestOrigin(c *gin.Context) services.RequestOrigin {
	return services.RequestOrigin{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
