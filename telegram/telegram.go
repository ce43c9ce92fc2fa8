// Package telegram exposes a handful of Telegram API methods on top of an
// MTProto invoker.
package telegram

import (
	"sync"

	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

// Options of Client.
type Options struct {
	AppID   int
	AppHash string
	Logger  *zap.Logger
}

// Credentials are issued by AuthSendCode and consumed by AuthSignIn.
type Credentials struct {
	Phone         string
	PhoneCodeHash string
}

// Client shapes requests for a single Telegram account.
type Client struct {
	api     *tg.Client
	appID   int
	appHash string
	log     *zap.Logger

	mux   sync.Mutex
	creds Credentials
}

// NewClient creates a Client that sends every request through invoker,
// usually an *mtproto.Gateway.
func NewClient(invoker tg.Invoker, opt Options) *Client {
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	return &Client{
		api:     tg.NewClient(invoker),
		appID:   opt.AppID,
		appHash: opt.AppHash,
		log:     opt.Logger,
	}
}

// Credentials returns the pending sign-in credentials, if any.
func (c *Client) Credentials() (Credentials, bool) {
	c.mux.Lock()
	defer c.mux.Unlock()

	return c.creds, c.creds.PhoneCodeHash != ""
}

func (c *Client) setCredentials(creds Credentials) {
	c.mux.Lock()
	defer c.mux.Unlock()

	c.creds = creds
}
