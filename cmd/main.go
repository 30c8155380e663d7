package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carvest-backend/internal/config"
	"carvest-backend/internal/handler"
	"carvest-backend/internal/model"
	"carvest-backend/internal/service"
	"carvest-backend/internal/storage"
	"carvest-backend/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	if cfg.Upstream.APIKey == "" {
		logger.Warnf("no upstream API key configured; set upstream.api_key or OPENAI_API_KEY")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions, err := storage.New(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to init session storage: %v", err)
	}
	defer sessions.Close()

	llm := model.NewChatCompleter(cfg.Upstream)
	rng := service.NewRandomizer(cfg.Analysis.Seed)

	chatService := service.NewChatService(sessions, llm, cfg.Upstream.Model, cfg.Session)
	wealthService := service.NewWealthService(storage.NewMemoryPortfolioStorage(), llm, rng)
	carService := service.NewCarService(llm)

	go chatService.RunCleanup(ctx)

	production := cfg.App.IsProduction()
	router := setupRouter(cfg,
		handler.NewChatHandler(chatService, production),
		handler.NewWealthHandler(wealthService, production),
		handler.NewCarHandler(carService, production),
	)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Infof("Server listening on port %d (%s, storage=%s)", cfg.Server.Port, cfg.App.Env, cfg.Storage.Type)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}

func setupRouter(cfg *config.Config, chat *handler.ChatHandler, wealth *handler.WealthHandler, cars *handler.CarHandler) *gin.Engine {
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(logger.GinLogger())
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}))

	handler.RegisterRoutes(router, chat, wealth, cars)
	return router
}
