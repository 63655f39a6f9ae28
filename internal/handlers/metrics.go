package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/molehq/mole/internal/auth"
	"github.com/molehq/mole/internal/store"
)

// RegisterMetricRoutes registers the read-side endpoint.
//
// GET /metrics?type=Feature|Performance|Exception
// - Requires X-API-Key (app context)
// - Returns the feature count and log count for the authenticated app,
//   the latter optionally filtered by stored type
//
// Log records carry no app_name (it is stripped at normalization), so the
// log count is scoped through the app's feature ids.
func RegisterMetricRoutes(r gin.IRoutes, st store.Store) {
	r.GET("/metrics", func(c *gin.Context) {
		appName := auth.AppName(c)
		if appName == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		featureIDs, err := st.IDs(c.Request.Context(), store.Features, store.Document{
			"app_name": appName,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store query failed"})
			return
		}

		typeFilter := c.Query("type")

		var logs int64
		for _, fid := range featureIDs {
			conds := store.Document{"feature_id": fid}
			if typeFilter != "" {
				conds["type"] = typeFilter
			}
			n, err := st.Count(c.Request.Context(), store.Logs, conds)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "store query failed"})
				return
			}
			logs += n
		}

		c.JSON(http.StatusOK, gin.H{
			"app_name": appName,
			"features": int64(len(featureIDs)),
			"logs":     logs,
		})
	})
}
