// Package rest serves the request/response endpoints next to the websocket.
package rest

import (
	"groupchat/auth"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CorsConfig allows every origin for "*", otherwise only the listed ones.
func CorsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		switch {
		case origin == "*":
			cfg.AllowAllOrigins = true
			cfg.AllowOrigins = nil
			return cfg
		case origin != "":
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
	}
	return cfg
}

func SetupRouter(r *gin.Engine, h *Handler, issuer *auth.TokenIssuer, serveWS gin.HandlerFunc) {
	r.GET("/ws", serveWS)
	r.GET("/api/health", h.Health)
	r.GET("/api/servers", h.Servers)
	r.POST("/api/check_nickname", h.CheckNickname)
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)

	session := r.Group("/", auth.Session(issuer))
	session.GET("/api/history", h.History)
	session.POST("/clear_history", h.ClearHistory)
}
