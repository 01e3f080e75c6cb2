package handlers

import (
	"net/http"

	"github.com/abhiroy829429/AI-Proctoring-System/internal/services"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	sessionHandler *SessionHandler
	eventHandler   *EventHandler
}

func NewHandlerManager(
	sessionService services.SessionService,
	eventService services.EventService,
	reportService services.ReportService,
	logger utils.Logger,
	development bool,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler: NewSessionHandler(sessionService, reportService, logger, development),
		eventHandler:   NewEventHandler(eventService, logger, development),
	}
}

// SetupRoutes sets up all API routes. reviewAuth guards the report export and
// is a pass-through when no identity provider is configured.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, reviewAuth gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "proctoring-service",
		})
	})

	api := router.Group("/api")
	{
		// POST /api/session is the legacy alias for session start
		api.POST("/session", hm.sessionHandler.StartSession)

		session := api.Group("/session")
		{
			session.POST("/start", hm.sessionHandler.StartSession)
			session.POST("/end", hm.sessionHandler.EndSession)
			session.GET("/:sessionId", hm.sessionHandler.GetSession)
			session.GET("/:sessionId/report", reviewAuth, hm.sessionHandler.ExportReport)
		}

		eventRoutes := api.Group("/events")
		{
			eventRoutes.POST("", hm.eventHandler.LogEvent)
			eventRoutes.POST("/batch", hm.eventHandler.LogEventBatch)
			eventRoutes.GET("/session/:sessionId", hm.eventHandler.QueryEvents)
		}
	}
}
