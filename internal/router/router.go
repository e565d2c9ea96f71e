package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yakgung/drugfood-guard/backend/internal/api"
	"github.com/yakgung/drugfood-guard/backend/internal/middleware"
	"github.com/yakgung/drugfood-guard/backend/internal/service"
)

// SetupRouter wires every route. The chat rate limiter lives inside the
// chat handler; passing a nil limiter there leaves chat unthrottled.
func SetupRouter(
	db *gorm.DB,
	authService *service.AuthService,
	authHandler *api.AuthHandler,
	drugHandler *api.DrugHandler,
	interactionHandler *api.InteractionHandler,
	chatHandler *api.ChatHandler,
) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:8501"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", api.HealthCheck(db))
	router.GET("/api/health", api.HealthCheck(db))

	v1 := router.Group("/api/v1")

	authHandler.RegisterRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authService))
	{
		authHandler.RegisterProtectedRoutes(protected)
		drugHandler.RegisterRoutes(protected)
		interactionHandler.RegisterRoutes(protected)
		chatHandler.RegisterRoutes(protected)
	}

	return router
}
