package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"tasky/internal/cache"
	"tasky/internal/config"
	"tasky/internal/handler"
	"tasky/internal/logger"
	"tasky/internal/middleware"
	"tasky/internal/store"
	"tasky/internal/store/remote"
	"tasky/internal/ws"
)

type Server struct {
	Engine *gin.Engine
	Store  store.Store
	Cache  *cache.Cache
	Config *config.Config
}

func Init(cfg *config.Config) (*Server, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)
	st, err := remote.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	logger.Info("✅ Connected to database")

	localCache, err := cache.Open(cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("❌ failed to open local cache: %w", err)
	}

	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	hub := ws.NewHub()

	listHandler := handler.NewListHandler(st, localCache)
	taskHandler := handler.NewTaskHandler(st, localCache)
	invitationHandler := handler.NewInvitationHandler(st, hub)
	wsServer := ws.NewServer(st, localCache, hub, cfg.JWTSecret)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Токен у websocket в query-параметре, поэтому маршрут вне группы
	r.GET("/ws", wsServer.Handle)

	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		// List routes
		authorized.POST("/lists", listHandler.Create)
		authorized.GET("/lists", listHandler.GetAll)
		authorized.GET("/lists/:id", listHandler.GetByID)
		authorized.PUT("/lists/:id", listHandler.Update)
		authorized.DELETE("/lists/:id", listHandler.Delete)
		authorized.POST("/lists/:id/share", listHandler.Share)
		authorized.POST("/lists/:id/tasks/reorder", taskHandler.Reorder)

		// Task routes
		authorized.POST("/tasks", taskHandler.Create)
		authorized.GET("/tasks", taskHandler.GetAll)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PATCH("/tasks/:id", taskHandler.Patch)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)
		authorized.POST("/tasks/:id/toggle", taskHandler.Toggle)

		// Invitation routes
		authorized.POST("/invitations", invitationHandler.Create)
		authorized.GET("/invitations", invitationHandler.GetPending)
		authorized.POST("/invitations/:id/accept", invitationHandler.Accept)
		authorized.POST("/invitations/:id/reject", invitationHandler.Reject)
	}

	return &Server{
		Engine: r,
		Store:  st,
		Cache:  localCache,
		Config: cfg,
	}, nil
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		logger.Info("🚀 Server running on port " + s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("❌ Failed to listen", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("❌ Server forced to shutdown", err)
	}

	if err := s.Store.Close(); err != nil {
		logger.Error("закрытие хранилища", err)
	}
	if err := s.Cache.Close(); err != nil {
		logger.Error("закрытие локального зеркала", err)
	}

	logger.Info("✅ Server exited properly")
}
