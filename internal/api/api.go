package api

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups every API handler mounted under /api/v1.
type Handlers struct {
	Auth    *AuthHandler
	Profile *ProfileHandler
	AI      *AIHandler
	Health  *HealthHandler
}

// RegisterRoutes registers all API routes. aiLimit may be nil.
func RegisterRoutes(router *gin.Engine, h Handlers, requireAuth, aiLimit gin.HandlerFunc) {
	router.GET("/health", h.Health.Check)

	v1 := router.Group("/api/v1")
	h.Auth.RegisterRoutes(v1, requireAuth)
	h.Profile.RegisterRoutes(v1, requireAuth)

	aiMiddleware := []gin.HandlerFunc{requireAuth}
	if aiLimit != nil {
		aiMiddleware = append(aiMiddleware, aiLimit)
	}
	h.AI.RegisterRoutes(v1, aiMiddleware...)
}
