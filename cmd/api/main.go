package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/code-mentor/backend/internal/config"
	"github.com/zhouzirui/code-mentor/backend/internal/handler"
	"github.com/zhouzirui/code-mentor/backend/internal/model/persona"
	"github.com/zhouzirui/code-mentor/backend/internal/service/ai"
	"github.com/zhouzirui/code-mentor/backend/internal/service/chat"
	"github.com/zhouzirui/code-mentor/backend/internal/service/review"
	"github.com/zhouzirui/code-mentor/backend/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	// 缺少凭证时直接退出, 不创建任何会话
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if err := run(ctx, cfg); err != nil {
		stop()
		log.Fatalf("%v", err)
	}
}

// run 返回错误而不是直接退出, 保证日志与遥测的清理逻辑执行
func run(ctx context.Context, cfg *config.Config) error {
	logger, logCloser, err := telemetry.InitLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logCloser.Close()

	providers, err := telemetry.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logger.Warn("failed to initialize telemetry, continuing without it", "error", err)
		providers = telemetry.Noop()
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	generator, err := ai.NewGenerator(ctx, cfg.AI, ai.WithInstrumentation(providers.Tracer, providers.Meter))
	if err != nil {
		return fmt.Errorf("failed to initialize AI generator: %w", err)
	}
	logger.Info("AI generator initialized", "provider", cfg.AI.Provider, "model", cfg.AI.Model)

	// Initialize persona store and chat service
	personaStore := persona.NewMemoryStore(persona.Seed())
	chatService := chat.NewService(generator, personaStore,
		chat.WithTimeout(cfg.AI.RequestTimeout),
		chat.WithLogger(logger),
	)

	reviewService, closeCache := newReviewService(generator, personaStore, cfg.Review, logger)
	defer closeCache()

	router := handler.NewRouter(personaStore, chatService, reviewService, cfg.Server.AllowedOrigins)

	return startServer(ctx, cfg.Server, router)
}

func newReviewService(generator ai.Generator, personas persona.Store, cfg config.ReviewConfig, logger *slog.Logger) (*review.Service, func()) {
	var cache review.Cache = review.NewMemoryCache(cfg.CacheTTL)
	if cfg.CachePath != "" {
		boltCache, err := review.OpenBoltCache(cfg.CachePath, cfg.CacheTTL)
		if err != nil {
			logger.Warn("failed to open review cache file, using memory cache", "path", cfg.CachePath, "error", err)
		} else {
			cache = boltCache
			logger.Info("review cache opened", "path", cfg.CachePath)
		}
	}

	reviewer, _ := personas.FindByID(persona.ReviewerID)
	system := ai.NewPersonaPromptManager().BuildSystemPrompt(reviewer)

	return review.NewService(generator, system, cache, logger), func() {
		if err := cache.Close(); err != nil {
			logger.Warn("failed to close review cache", "error", err)
		}
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("code mentor backend listening", "addr", addr)
	if err := runServer(ctx, srv); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
