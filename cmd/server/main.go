package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jpsjoberg/deckport.ai-sub002/internal/auth"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/config"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/game"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/match"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/queue"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/repository"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/ws"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

// defaultQueueModes are always served; modes with persisted entries are
// picked up on top at startup.
var defaultQueueModes = []string{"1v1"}

func main() {
	flag.Parse()

	// Local development overrides; ignored when no .env file exists.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting deckport match server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	db, err := repository.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	stats := db.Stats()
	logger.Info("database connection pool initialized",
		zap.Int32("total_conns", stats.TotalConns()),
		zap.Int32("idle_conns", stats.IdleConns()),
	)

	matchRepo := repository.NewMatchRepository(db)
	queueRepo := repository.NewQueueRepository(db)
	playerRepo := repository.NewPlayerRepository(db)
	catalogRepo := repository.NewCatalogRepository(db, logger)

	cat, err := catalogRepo.Load(ctx)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}
	logger.Info("catalog ready",
		zap.Int("cards", len(cat.Cards())),
		zap.Strings("arenas", cat.ArenaNames()),
	)

	rules := game.DefaultRules()
	if cfg.Game.MaxTurns > 0 {
		rules.MaxTurns = cfg.Game.MaxTurns
	}

	verifier := auth.NewVerifier(cfg.Auth)
	hub := ws.NewHub(verifier, cfg.Server.WebSocket, logger)

	matchMgr := match.NewManager(matchRepo, hub, cat, rules, cfg.Game.TickInterval, logger)
	logger.Info("match manager initialized", zap.Duration("tick_interval", cfg.Game.TickInterval))

	queueModes := slices.Clone(defaultQueueModes)
	if persisted, modesErr := queueRepo.Modes(ctx); modesErr != nil {
		logger.Warn("failed to list persisted queue modes", zap.Error(modesErr))
	} else {
		for _, mode := range persisted {
			if !slices.Contains(queueModes, mode) {
				queueModes = append(queueModes, mode)
			}
		}
	}

	queueMgr := queue.NewManager(queueRepo, playerRepo, matchMgr, cfg.Queue, queueModes, logger)
	if err := queueMgr.Start(ctx); err != nil {
		logger.Fatal("failed to start matchmaking queues", zap.Error(err))
	}

	hub.AttachServices(queueMgr, matchMgr)

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Server.WebSocket.Path, hub.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpServer := &http.Server{
		Addr:    cfg.Server.WebSocket.Address,
		Handler: mux,
	}

	go func() {
		logger.Info("starting websocket server",
			zap.String("address", cfg.Server.WebSocket.Address),
			zap.String("path", cfg.Server.WebSocket.Path),
		)
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Error("websocket server error", zap.Error(serveErr))
		}
	}()

	logger.Info("deckport match server initialized",
		zap.String("version", version),
		zap.Strings("queue_modes", queueModes),
	)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown failed", zap.Error(err))
	}

	queueMgr.Shutdown()
	matchMgr.Shutdown()
	hub.CloseAll()

	logger.Info("deckport match server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
