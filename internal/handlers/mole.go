package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/molehq/mole/internal/auth"
	"github.com/molehq/mole/internal/models"
	"github.com/molehq/mole/internal/mole"
)

// RegisterMoleRoutes registers the ingestion-path endpoint.
//
// POST /mole
// - Requires X-API-Key (app context)
// - Fail-open: once the payload decodes, the engine swallows its own
//   failures, so the response is 202 whether or not the event survived
func RegisterMoleRoutes(r gin.IRoutes, m *mole.Mole) {
	r.POST("/mole", func(c *gin.Context) {
		appName := auth.AppName(c)
		if appName == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var p models.Payload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		// The authenticated key decides the app when the payload omits it.
		if p.AppName == "" {
			p.AppName = appName
		}

		m.Mole(c.Request.Context(), p)

		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	})
}
