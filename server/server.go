// Package server exposes the Telegram client over HTTP.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"github.com/sudo-xjx-code/xjx-tele-gateway/telegram"
)

// Telegram is the client API served over HTTP.
type Telegram interface {
	AuthSendCode(ctx context.Context, phone string) (tg.AuthSentCodeClass, error)
	AuthSignIn(ctx context.Context, code string) (tg.AuthAuthorizationClass, error)
	MessagesGetDialogs(ctx context.Context, q telegram.DialogsQuery) (tg.MessagesDialogsClass, error)
	MessagesAddChatUser(ctx context.Context, a telegram.AddChatUser) (*tg.MessagesInvitedUsers, error)
	ChannelsInviteToChannel(ctx context.Context, i telegram.InviteToChannel) (*tg.MessagesInvitedUsers, error)
	ChannelsGetParticipants(ctx context.Context, q telegram.ParticipantsQuery) (tg.ChannelsChannelParticipantsClass, error)
	ContactsGetContacts(ctx context.Context, knownIDs []int64) (tg.ContactsContactsClass, error)
	ContactsImportContacts(ctx context.Context, i telegram.ImportContacts) (*tg.ContactsImportedContacts, error)
}

var _ Telegram = (*telegram.Client)(nil)

// Server is the HTTP API.
type Server struct {
	client Telegram
	log    *zap.Logger
	router *mux.Router
}

// New creates Server and registers routes.
func New(client Telegram, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		client: client,
		log:    log,
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(requestID, s.accessLog)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/auth/code", s.handleSendCode).Methods(http.MethodPost)
	r.HandleFunc("/auth/sign-in", s.handleSignIn).Methods(http.MethodPost)

	r.HandleFunc("/dialogs", s.handleDialogs).Methods(http.MethodGet)
	r.HandleFunc("/chats/{chat_id:[0-9]+}/users", s.handleAddChatUser).Methods(http.MethodPost)

	r.HandleFunc("/channels/{channel_id:[0-9]+}/invite", s.handleInviteToChannel).Methods(http.MethodPost)
	r.HandleFunc("/channels/{channel_id:[0-9]+}/participants", s.handleParticipants).Methods(http.MethodGet)

	r.HandleFunc("/contacts", s.handleContacts).Methods(http.MethodGet)
	r.HandleFunc("/contacts/import", s.handleImportContacts).Methods(http.MethodPost)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is done, then shuts down gracefully within
// shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve is like Run on an existing listener. In-flight requests outlive ctx
// and are drained by the shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	baseCtx := context.WithoutCancel(ctx)
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", zap.Stringer("addr", ln.Addr()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(baseCtx, shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve")
	}
	return nil
}
