package mtproto

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/dcs"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// EngineOptions configure the gotd client used as Engine.
type EngineOptions struct {
	AppID   int
	AppHash string
	Storage session.Storage
	// DC to connect to, engine default if zero.
	DC int
	// TestDC switches to Telegram test servers.
	TestDC bool
	// ReconnectMaxElapsed bounds engine reconnection attempts, unbounded if zero.
	ReconnectMaxElapsed time.Duration
	Logger              *zap.Logger
}

// NewEngine creates a gotd client. The caller must run it with Run before
// invoking anything through it.
func NewEngine(opt EngineOptions) *telegram.Client {
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	maxElapsed := opt.ReconnectMaxElapsed

	options := telegram.Options{
		Logger:         opt.Logger.Named("engine"),
		SessionStorage: opt.Storage,
		DC:             opt.DC,
		ReconnectionBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = maxElapsed
			return b
		},
		TracerProvider: otel.GetTracerProvider(),
	}
	if opt.TestDC {
		options.DCList = dcs.Test()
	}

	return telegram.NewClient(opt.AppID, opt.AppHash, options)
}
