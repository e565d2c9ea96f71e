package server

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yakgung/drugfood-guard/backend/config"
	"github.com/yakgung/drugfood-guard/backend/internal/api"
	"github.com/yakgung/drugfood-guard/backend/internal/middleware"
	"github.com/yakgung/drugfood-guard/backend/internal/router"
	"github.com/yakgung/drugfood-guard/backend/internal/service"
)

// Server owns the HTTP server and the service graph behind it.
type Server struct {
	engine *gin.Engine
	http   *http.Server
}

// New builds the full service graph from configuration. Redis being down
// disables chat rate limiting but nothing else; chat history is likewise
// best-effort.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	embedder := service.NewEmbeddingService()
	interactionService := service.NewInteractionService(db, embedder)
	authService := service.NewAuthService(db, cfg.JWTSecret)

	llmService, err := service.NewLLMService(
		cfg.LLMAPIKey, cfg.LLMAPIURL, cfg.LLMModel,
		redisClient, db, interactionService,
	)
	if err != nil {
		return nil, err
	}

	drugService := service.NewDrugService(db, interactionService, llmService)

	var chatLimiter *middleware.RateLimiter
	if redisClient != nil {
		chatLimiter = middleware.NewChatRateLimiter(redisClient)
	} else {
		log.Println("redis unavailable, chat rate limiting disabled")
	}

	engine := router.SetupRouter(
		db,
		authService,
		api.NewAuthHandler(authService),
		api.NewDrugHandler(drugService, interactionService),
		api.NewInteractionHandler(interactionService, drugService),
		api.NewChatHandler(llmService, chatLimiter),
	)

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:    cfg.ServerHost + ":" + cfg.ServerPort,
			Handler: engine,
		},
	}, nil
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	log.Printf("listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
