package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sqliteadapter "github.com/AlphaSNetwork/AlphaSNetwork/internal/adapters/db/sqlite"
	httpadapter "github.com/AlphaSNetwork/AlphaSNetwork/internal/adapters/http"
	rpcadapter "github.com/AlphaSNetwork/AlphaSNetwork/internal/adapters/rpcjson"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/application"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/config"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/domain"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/metrics"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/mirror"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Run the HTTP API and the JSON-RPC socket",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML config file (defaults to $SOCIAL_CONFIG)"},
			&cli.StringFlag{Name: "addr", Usage: "HTTP listen address"},
			&cli.StringFlag{Name: "rpc-socket", Usage: "JSON-RPC unix socket path"},
			&cli.StringFlag{Name: "db-path", Usage: "SQLite database path"},
			&cli.StringFlag{Name: "ledger", Usage: "ledger backend: local, rpc or none"},
			&cli.StringFlag{Name: "ledger-url", Usage: "ledger node JSON-RPC endpoint"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			overrides := map[string]*string{
				"addr":       &cfg.Server.HTTPAddr,
				"rpc-socket": &cfg.Server.RPCSocket,
				"db-path":    &cfg.Storage.DBPath,
				"ledger":     &cfg.Mirror.Ledger,
				"ledger-url": &cfg.Mirror.RPCURL,
				"log-level":  &cfg.Logging.Level,
			}
			for name, dst := range overrides {
				if c.IsSet(name) {
					*dst = c.String(name)
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServer(ctx, cfg)
		},
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func newLedger(cfg config.MirrorConfig, clock domain.Clock) (domain.Ledger, error) {
	switch cfg.Ledger {
	case "local":
		return mirror.NewLocalLedger(clock), nil
	case "rpc":
		return mirror.NewRPCLedger(cfg.RPCURL, cfg.AttemptTimeout)
	}
	// "none" leaves mirroring off.
	return nil, nil
}

func runServer(ctx context.Context, cfg config.Config) error {
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqliteadapter.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}
	if err := sqliteadapter.RunMigrations(ctx, db); err != nil {
		return err
	}

	clock := domain.RealClock{}
	reg := metrics.New()
	repo := sqliteadapter.NewSocialRepository(db)

	var mirrorPort application.Mirror
	ledger, err := newLedger(cfg.Mirror, clock)
	if err != nil {
		return err
	}
	if ledger != nil {
		m := mirror.New(ledger, repo, clock, logger, reg, mirror.Options{
			MaxAttempts:    cfg.Mirror.MaxAttempts,
			RetryDelay:     cfg.Mirror.RetryDelay,
			AttemptTimeout: cfg.Mirror.AttemptTimeout,
			RatePerSecond:  cfg.Mirror.RatePerSecond,
			Burst:          cfg.Mirror.Burst,
		})
		defer m.Close()
		mirrorPort = m
	} else {
		logger.Warn("ledger mirroring disabled")
	}

	service := application.NewSocialService(repo, mirrorPort, clock, logger, application.Options{
		AckWait: cfg.Mirror.AckWait,
		Metrics: reg,
	})

	rpcSrv, err := rpcadapter.Start(cfg.Server.RPCSocket, service, logger)
	if err != nil {
		return err
	}
	defer func() { _ = rpcSrv.Close() }()
	logger.Info("json-rpc listening", zap.String("socket", "unix://"+cfg.Server.RPCSocket))

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           httpadapter.NewRouter(service, logger, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", srv.Addr), zap.String("ledger", cfg.Mirror.Ledger))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
