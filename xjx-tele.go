package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-faster/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/sudo-xjx-code/xjx-tele-gateway/config"
	"github.com/sudo-xjx-code/xjx-tele-gateway/mtproto"
	"github.com/sudo-xjx-code/xjx-tele-gateway/server"
	"github.com/sudo-xjx-code/xjx-tele-gateway/storage"
	"github.com/sudo-xjx-code/xjx-tele-gateway/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) (rErr error) {
	sessionStorage, closeStorage, err := storage.Open(ctx, cfg.Session.Storage())
	if err != nil {
		return errors.Wrap(err, "open session storage")
	}
	defer func() {
		multierr.AppendInto(&rErr, errors.Wrap(closeStorage(), "close session storage"))
	}()

	engine := mtproto.NewEngine(mtproto.EngineOptions{
		AppID:               cfg.AppID,
		AppHash:             cfg.AppHash,
		Storage:             sessionStorage,
		DC:                  cfg.DC,
		TestDC:              cfg.TestDC,
		ReconnectMaxElapsed: cfg.ReconnectMaxElapsed,
		Logger:              log,
	})

	return engine.Run(ctx, func(ctx context.Context) error {
		gw := mtproto.NewGateway(engine, mtproto.Options{
			Timeout:  cfg.RequestTimeout,
			Timeouts: cfg.Timeouts,
			Logger:   log.Named("gateway"),
		})
		client := telegram.NewClient(gw, telegram.Options{
			AppID:   cfg.AppID,
			AppHash: cfg.AppHash,
			Logger:  log.Named("client"),
		})

		return server.New(client, log.Named("http")).Run(ctx, cfg.HTTPAddr, cfg.ShutdownTimeout)
	})
}
