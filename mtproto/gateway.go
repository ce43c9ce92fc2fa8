// Package mtproto races calls to the MTProto engine against a deadline.
package mtproto

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gotd/td/bin"
	"github.com/gotd/td/clock"
	"go.uber.org/zap"
)

// DefaultTimeout is the deadline of a call without a per-method override.
const DefaultTimeout = 10 * time.Second

// Engine is the external protocol engine. *telegram.Client from gotd
// satisfies it.
type Engine interface {
	Invoke(ctx context.Context, input bin.Encoder, output bin.Decoder) error
}

// Options of Gateway.
type Options struct {
	// Timeout is the default deadline, DefaultTimeout if zero.
	Timeout time.Duration
	// Timeouts overrides Timeout per TL method name, e.g. "auth.sendCode".
	Timeouts map[string]time.Duration
	Logger   *zap.Logger
	Clock    clock.Clock
}

func (opt *Options) setDefaults() {
	if opt.Timeout <= 0 {
		opt.Timeout = DefaultTimeout
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	if opt.Clock == nil {
		opt.Clock = clock.System
	}
}

// Gateway wraps an Engine so that every call settles within a deadline.
//
// Gateway implements tg.Invoker, so tg.NewClient(gateway) yields the typed
// Telegram API with every method going through the race.
type Gateway struct {
	engine   Engine
	timeout  time.Duration
	timeouts map[string]time.Duration
	log      *zap.Logger
	clock    clock.Clock
}

// NewGateway creates a Gateway in front of engine.
func NewGateway(engine Engine, opt Options) *Gateway {
	opt.setDefaults()

	timeouts := make(map[string]time.Duration, len(opt.Timeouts))
	for method, d := range opt.Timeouts {
		if d > 0 {
			timeouts[method] = d
		}
	}

	return &Gateway{
		engine:   engine,
		timeout:  opt.Timeout,
		timeouts: timeouts,
		log:      opt.Logger,
		clock:    opt.Clock,
	}
}

// Timeout returns the deadline applied to method.
func (g *Gateway) Timeout(method string) time.Duration {
	if d, ok := g.timeouts[method]; ok {
		return d
	}
	return g.timeout
}

// pendingRequest is a single in-flight engine call.
type pendingRequest struct {
	id      uuid.UUID
	method  string
	start   time.Time
	timeout time.Duration
}

// settlement is what the engine goroutine reports. The channel carrying it
// has one slot, so a settlement nobody waits for is dropped with the channel.
type settlement struct {
	raw capture
	err error
}

// capture buffers the raw engine result. A late result lands here instead
// of the caller's decoder.
type capture struct {
	buf bin.Buffer
}

func (c *capture) Decode(b *bin.Buffer) error {
	c.buf.Buf = append(c.buf.Buf[:0], b.Buf...)
	b.Buf = b.Buf[len(b.Buf):]
	return nil
}

// Invoke sends input to the engine and decodes the result into output.
//
// The first of engine result, engine failure or deadline settles the call.
// Engine failures are returned unchanged. The engine call itself is never
// cancelled; its late outcome is discarded.
//
// Cancelling ctx also settles the call with ctx.Err(), but only for the
// caller: the engine keeps running on a context without cancellation.
func (g *Gateway) Invoke(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
	req := g.newRequest(input)

	// Timer is armed before the engine sees the request.
	timer := g.clock.Timer(req.timeout)
	defer timer.Stop()

	done := make(chan settlement, 1)
	go g.call(ctx, input, done)

	select {
	case s := <-done:
		if s.err != nil {
			return s.err
		}
		if err := output.Decode(&s.raw.buf); err != nil {
			return errors.Wrapf(err, "decode %s result", req.method)
		}

		elapsed := g.clock.Now().Sub(req.start)
		g.log.Info("Response received",
			zap.String("method", req.method),
			zap.Int64("elapsed_ms", elapsed.Milliseconds()),
			zap.Stringer("request_id", req.id),
		)
		return nil
	case <-timer.C():
		return newTimeoutError(req.method, req.timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gateway) newRequest(input bin.Encoder) pendingRequest {
	method := MethodName(input)
	return pendingRequest{
		id:      uuid.New(),
		method:  method,
		start:   g.clock.Now(),
		timeout: g.Timeout(method),
	}
}

func (g *Gateway) call(ctx context.Context, input bin.Encoder, done chan<- settlement) {
	var s settlement
	defer func() {
		if r := recover(); r != nil {
			s = settlement{err: errors.Errorf("engine panic: %v", r)}
		}
		done <- s
	}()

	s.err = g.engine.Invoke(context.WithoutCancel(ctx), input, &s.raw)
}

// MethodName returns the TL method name of a request, e.g. "auth.sendCode".
func MethodName(input bin.Encoder) string {
	if n, ok := input.(interface{ TypeName() string }); ok {
		return n.TypeName()
	}
	return fmt.Sprintf("%T", input)
}
