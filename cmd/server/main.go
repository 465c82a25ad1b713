package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/oimasterkafuu/checkmate/internal/config"
	"github.com/oimasterkafuu/checkmate/internal/game"
	"github.com/oimasterkafuu/checkmate/internal/game/mapgen"
	"github.com/oimasterkafuu/checkmate/internal/logging"
	"github.com/oimasterkafuu/checkmate/internal/monitoring"
	"github.com/oimasterkafuu/checkmate/internal/replay"
	"github.com/oimasterkafuu/checkmate/internal/server"
)

// serviceName is the health check name of the game service
const serviceName = "checkmate.GameServer"

func main() {
	configPath := flag.String("config", "", "Path to config file")
	env := flag.String("env", "", "Environment overlay merged from config.<env>.yaml")
	httpAddr := flag.String("http-addr", "", "HTTP listen address (empty to use config default)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	maxGames := flag.Int("max-games", -1, "Maximum concurrent games (-1 to use config default)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	if err := config.LoadEnvironmentConfig(*env); err != nil {
		log.Fatal().Err(err).Str("env", *env).Msg("Failed to load environment config")
	}
	cfg := config.Get()

	if *httpAddr == "" {
		*httpAddr = cfg.Server.HTTPAddr
	}
	if *logLevel == "" {
		*logLevel = cfg.Log.Level
	}
	if *maxGames == -1 {
		*maxGames = cfg.Server.MaxGames
	}

	logger := logging.Setup(*logLevel, cfg.Log.Format)
	logger.Info().Str("config_file", config.ConfigFilePath()).Str("env", *env).Msg("Configuration loaded")
	gin.SetMode(gin.ReleaseMode)

	presets, err := mapgen.LoadPresets(cfg.MapGen.PresetsPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.MapGen.PresetsPath).Msg("Map presets unavailable")
		presets = mapgen.Presets{}
	}

	// interface values stay nil when replays are disabled
	var (
		saver   game.ReplaySaver
		replays server.ReplayStore
	)
	if cfg.Replay.Enabled {
		store, closeIndex, err := openReplayStore(cfg.Replay, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to open replay store")
		}
		defer closeIndex()
		saver, replays = store, store
	}

	monitor := monitoring.NewGoroutineMonitor(monitoring.Options{}, logger)
	monitor.Start()
	defer monitor.Stop()

	hub := server.NewHub(server.HubOptions{AllowedOrigins: cfg.Server.AllowedOrigins}, logger)
	games := server.NewGameManager(server.ManagerOptions{
		MaxGames:     *maxGames,
		Settings:     game.DefaultSettings,
		Presets:      presets,
		DefaultSpeed: cfg.Game.DefaultSpeed,
	}, hub, saver, monitor, logger)
	games.Start()

	router := server.NewRouter(server.RouterDeps{
		Games:   games,
		Hub:     hub,
		Replays: replays,
		Monitor: monitor,
		Logger:  logger,
	})
	httpServer := &http.Server{
		Addr:              *httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer, healthServer, lis, err := startHealthServer(cfg.Server, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to listen")
	}

	config.WatchConfig(func(err error) {
		if err != nil {
			logger.Warn().Err(err).Msg("Ignoring invalid config change")
			return
		}
		level := logging.ParseLevel(config.Get().Log.Level)
		zerolog.SetGlobalLevel(level)
		logger.Info().Str("level", level.String()).Msg("Configuration reloaded")
	})

	go func() {
		logger.Info().Str("address", lis.Addr().String()).Msg("gRPC health server listening")
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error().Err(err).Msg("gRPC server stopped")
		}
	}()
	go func() {
		logger.Info().Str("address", *httpAddr).Int("max_games", *maxGames).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to serve")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("HTTP shutdown incomplete")
	}
	if err := games.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("Games still running at shutdown")
	}
	hub.Close()
	grpcServer.GracefulStop()
	logger.Info().Msg("Server shutdown complete")
}

// openReplayStore opens the sqlite index and the replay directory. The
// returned func closes the index.
func openReplayStore(rc config.ReplayConfig, logger zerolog.Logger) (*replay.Store, func(), error) {
	if err := os.MkdirAll(rc.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create replay dir: %w", err)
	}
	index, err := replay.OpenIndex(rc.IndexPath)
	if err != nil {
		return nil, nil, err
	}
	builder := game.NewReplayBuilder(game.DefaultSettings(), logger)
	store := replay.NewStore(rc.Dir, index, builder.Build, logger).
		WithLevel(zstd.EncoderLevelFromZstd(rc.ZstdLevel))
	if err := store.EnsureReady(); err != nil {
		_ = index.Close()
		return nil, nil, err
	}
	closeIndex := func() {
		if err := index.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close replay index")
		}
	}
	return store, closeIndex, nil
}

func startHealthServer(sc config.ServerConfig, logger zerolog.Logger) (*grpc.Server, *health.Server, net.Listener, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", sc.GRPCHost, sc.GRPCPort))
	if err != nil {
		return nil, nil, nil, err
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_SERVING)

	if sc.EnableReflection {
		reflection.Register(grpcServer)
		logger.Info().Msg("gRPC reflection enabled")
	}
	return grpcServer, healthServer, lis, nil
}
