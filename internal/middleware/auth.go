package middleware

import (
	"net/http"
	"strings"

	"github.com/abhiroy829429/AI-Proctoring-System/internal/config"
	"github.com/abhiroy829429/AI-Proctoring-System/internal/utils"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
)

// ReviewAuth validates Casdoor bearer tokens on reviewer endpoints. When no
// identity provider is configured the middleware is a pass-through, matching
// single-machine deployments.
func ReviewAuth(cfg config.CasdoorConfig, logger utils.Logger) gin.HandlerFunc {
	if cfg.Endpoint == "" {
		logger.Warn("Casdoor not configured, reviewer endpoints are unauthenticated")
		return func(c *gin.Context) {
			c.Next()
		}
	}

	casdoorsdk.InitConfig(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.Organization,
		cfg.Application,
	)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Missing bearer token",
			})
			return
		}

		claims, err := casdoorsdk.ParseJwtToken(token)
		if err != nil {
			logger.Warn("Rejected reviewer token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid token",
			})
			return
		}

		c.Set("user_id", claims.Name)
		c.Next()
	}
}
