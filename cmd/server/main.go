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

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nenshoukei/zombals-sub000/internal/config"
	"github.com/nenshoukei/zombals-sub000/internal/game/catalog"
	"github.com/nenshoukei/zombals-sub000/internal/lobby"
	"github.com/nenshoukei/zombals-sub000/internal/repository"
	"github.com/nenshoukei/zombals-sub000/internal/scheduler"
	"github.com/nenshoukei/zombals-sub000/internal/server"
)

// lobbyService is the health service name that follows maintenance mode.
const lobbyService = "zombals.Lobby"

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	issueToken = flag.String("issue-token", "", "print a socket token for this user id and exit")
	tokenTTL   = flag.Duration("token-ttl", 24*time.Hour, "lifetime of tokens printed by -issue-token")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	loader, err := config.NewLoader(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := loader.Current()

	if *issueToken != "" {
		if err := printToken(cfg.Auth, *issueToken, *tokenTTL); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger, level, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting zombals server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, loader, logger, level); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
	logger.Info("zombals server stopped")
}

func run(ctx context.Context, loader *config.Loader, logger *zap.Logger, level zap.AtomicLevel) error {
	cfg := loader.Current()

	auth, err := server.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		return err
	}

	decks, err := repository.LoadDeckFile(cfg.Decks.File)
	if err != nil {
		return err
	}

	records, err := repository.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer records.Close()
	logger.Info("record store opened", zap.String("driver", cfg.Database.Driver))

	wheel := scheduler.NewWheel(
		scheduler.WithTick(cfg.Match.TimerTick),
		scheduler.WithWheelSize(cfg.Match.TimerWheelSize),
	)
	wheel.Start()
	defer wheel.Stop()

	lob, err := lobby.New(lobby.Config{
		ClientVersion:   cfg.Server.ClientVersion,
		WaitingTimeout:  cfg.Lobby.WaitingTimeout,
		AcceptTimeout:   cfg.Lobby.AcceptTimeout,
		MulliganTimeout: cfg.Match.MulliganTimeout,
		TurnTimeout:     cfg.Match.TurnTimeout,
		SaveWorkers:     cfg.Lobby.SaveWorkers,
		SaveTimeout:     cfg.Lobby.SaveTimeout,
	}, catalog.MustNew(), decks,
		lobby.WithLogger(logger.Named("lobby")),
		lobby.WithScheduler(wheel),
		lobby.WithRecordStore(records),
	)
	if err != nil {
		return err
	}
	lob.SetMaintenance(cfg.Server.Maintenance)

	ws := cfg.Server.WebSocket
	srv := server.New(server.Config{
		ReadLimit:      ws.ReadLimit,
		PongWait:       ws.PongWait,
		PingInterval:   ws.PingInterval,
		WriteTimeout:   ws.WriteTimeout,
		SendBuffer:     ws.SendBuffer,
		RateLimit:      ws.RateLimit,
		RateBurst:      ws.RateBurst,
		AllowedOrigins: ws.AllowedOrigins,
	}, lob, records, auth, logger.Named("server"))

	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	healthServer := health.NewServer()
	grpcServer := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 10 * time.Second,
		}),
	)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	setServing(healthServer, cfg.Server.Maintenance)

	loader.Watch(func(next *config.Config) {
		if lvl, err := zapcore.ParseLevel(next.Logging.Level); err == nil {
			level.SetLevel(lvl)
		}
		lob.SetMaintenance(next.Server.Maintenance)
		setServing(healthServer, next.Server.Maintenance)
		if err := decks.Reload(); err != nil {
			logger.Warn("failed to reload decks", zap.Error(err))
		}
		logger.Info("configuration reloaded",
			zap.String("log_level", next.Logging.Level),
			zap.Bool("maintenance", next.Server.Maintenance),
		)
	}, func(err error) {
		logger.Warn("ignoring invalid configuration change", zap.Error(err))
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting HTTP server", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.Server.AdminAddress)
		if err != nil {
			return fmt.Errorf("admin listen: %w", err)
		}
		logger.Info("starting admin gRPC server", zap.String("address", cfg.Server.AdminAddress))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("admin server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down gracefully...")

		healthServer.Shutdown()
		srv.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown incomplete", zap.Error(err))
		}
		grpcServer.GracefulStop()

		if err := lob.Close(); err != nil {
			logger.Warn("pending record saves were dropped", zap.Error(err))
		}
		return nil
	})

	logger.Info("zombals server initialized",
		zap.String("version", version),
		zap.String("address", cfg.Server.Address),
		zap.String("admin_address", cfg.Server.AdminAddress),
		zap.String("client_version", cfg.Server.ClientVersion),
	)
	return g.Wait()
}

func setServing(h *health.Server, maintenance bool) {
	h.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	status := healthpb.HealthCheckResponse_SERVING
	if maintenance {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.SetServingStatus(lobbyService, status)
}

func printToken(cfg config.AuthConfig, userID string, ttl time.Duration) error {
	auth, err := server.NewAuthenticator(cfg.JWTSecret, cfg.Issuer)
	if err != nil {
		return err
	}
	token, err := auth.Issue(userID, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

// initLogger initializes the zap logger based on configuration. The returned
// level can be changed at runtime.
func initLogger(cfg config.LoggingConfig) (*zap.Logger, zap.AtomicLevel, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if lvl, err := zapcore.ParseLevel(cfg.Level); err == nil {
		level.SetLevel(lvl)
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, level, err
	}
	if cfg.File == "" {
		return logger, level, nil
	}

	file := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	})
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), file, level)
	return logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	})), level, nil
}
