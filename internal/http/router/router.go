package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tubescribe.app/bot/internal/store"
)

// SetupRoutes registers the ops endpoints. They are unauthenticated and meant
// for probes and dashboards, not end users.
func SetupRoutes(engine *gin.Engine, st store.Store) {
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.GET("/stats", func(c *gin.Context) {
		users := st.AllMembers(c.Request.Context(), store.UserSetKey)
		c.JSON(http.StatusOK, gin.H{"users": len(users)})
	})
}
