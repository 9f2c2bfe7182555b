// Package api exposes a read-only HTTP view of the running server
package api

import (
	"net/http"
	"time"

	"jitsus/internal/game"
	"jitsus/internal/server"
	"jitsus/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Source is what the router reports on.
type Source interface {
	Status() server.Status
	Players() []server.PlayerInfo
	RecentMatches() []game.Summary
}

// SetupRouter builds the admin routes.
func SetupRouter(src Source) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/status", func(c *gin.Context) {
		st := src.Status()
		c.JSON(http.StatusOK, gin.H{
			"running":        st.Running,
			"address":        st.Address,
			"connections":    st.Connections,
			"max_clients":    st.MaxClients,
			"players_online": st.Players,
			"active_matches": st.ActiveMatches,
			"uptime":         time.Since(st.StartedAt).Truncate(time.Second).String(),
		})
	})

	r.GET("/players", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"players": src.Players()})
	})

	r.GET("/matches", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"matches": src.RecentMatches()})
	})

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.API.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
