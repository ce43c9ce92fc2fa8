package mtproto

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/gotd/neo"
	"github.com/gotd/td/bin"
	"github.com/gotd/td/mt"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type engineFunc func(ctx context.Context, input bin.Encoder, output bin.Decoder) error

func (f engineFunc) Invoke(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
	return f(ctx, input, output)
}

func respond(output bin.Decoder, result bin.Encoder) error {
	var b bin.Buffer
	if err := result.Encode(&b); err != nil {
		return err
	}
	return output.Decode(&b)
}

func newObserved(engine Engine, opt Options) (*Gateway, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	opt.Logger = zap.New(core)
	return NewGateway(engine, opt), logs
}

func TestGatewayResult(t *testing.T) {
	engine := engineFunc(func(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
		time.Sleep(5 * time.Millisecond)
		return respond(output, &mt.Pong{MsgID: 1, PingID: 42})
	})
	g, logs := newObserved(engine, Options{})

	start := time.Now()
	var pong mt.Pong
	require.NoError(t, g.Invoke(context.Background(), &mt.PingRequest{PingID: 42}, &pong))
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, int64(42), pong.PingID)

	entries := logs.FilterMessage("Response received").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "ping", fields["method"])
	require.GreaterOrEqual(t, fields["elapsed_ms"], int64(0))
	require.NotEmpty(t, fields["request_id"])
}

func TestGatewayTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	engine := engineFunc(func(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
		<-release
		return nil
	})
	g, logs := newObserved(engine, Options{Timeout: 20 * time.Millisecond})

	err := g.Invoke(context.Background(), &mt.PingRequest{}, &mt.Pong{})
	require.ErrorIs(t, err, ErrTimeout)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.Equal(t, 500, timeoutErr.Code)
	require.Equal(t, "Timeout", timeoutErr.Message)
	require.Equal(t, "ping", timeoutErr.Method)
	require.Zero(t, logs.Len())
}

func TestGatewayEngineError(t *testing.T) {
	rpcErr := &tgerr.Error{Code: 400, Message: "PHONE_NUMBER_INVALID", Type: "PHONE_NUMBER_INVALID"}
	engine := engineFunc(func(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
		return rpcErr
	})
	g, logs := newObserved(engine, Options{})

	err := g.Invoke(context.Background(), &mt.PingRequest{}, &mt.Pong{})
	require.Same(t, rpcErr, err)
	require.True(t, tgerr.Is(err, "PHONE_NUMBER_INVALID"))
	require.Zero(t, logs.Len())
}

func TestGatewayEnginePanic(t *testing.T) {
	engine := engineFunc(func(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
		panic("boom")
	})
	g, logs := newObserved(engine, Options{})

	err := g.Invoke(context.Background(), &mt.PingRequest{}, &mt.Pong{})
	require.ErrorContains(t, err, "engine panic: boom")
	require.Zero(t, logs.Len())
}

func TestGatewayLateResult(t *testing.T) {
	release := make(chan struct{})
	finished := make(chan error, 1)

	engine := engineFunc(func(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
		<-release
		err := respond(output, &mt.Pong{PingID: 7})
		finished <- err
		return err
	})
	g, logs := newObserved(engine, Options{Timeout: 10 * time.Millisecond})

	var pong mt.Pong
	err := g.Invoke(context.Background(), &mt.PingRequest{PingID: 7}, &pong)
	require.ErrorIs(t, err, ErrTimeout)

	close(release)
	select {
	case err := <-finished:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not finish")
	}

	require.Zero(t, pong.PingID)
	require.Zero(t, logs.Len())
}

func TestGatewayContextCanceled(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	engineCtx := make(chan context.Context, 1)
	engine := engineFunc(func(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
		engineCtx <- ctx
		<-release
		return nil
	})
	g := NewGateway(engine, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-engineCtx
		cancel()
	}()

	err := g.Invoke(ctx, &mt.PingRequest{}, &mt.Pong{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestGatewayEngineContextNotCanceled(t *testing.T) {
	engineErr := make(chan error, 1)
	engine := engineFunc(func(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
		<-time.After(30 * time.Millisecond)
		engineErr <- ctx.Err()
		return nil
	})
	g := NewGateway(engine, Options{Timeout: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	err := g.Invoke(ctx, &mt.PingRequest{}, &mt.Pong{})
	cancel()
	require.ErrorIs(t, err, ErrTimeout)
	require.NoError(t, <-engineErr)
}

func TestGatewayDecodeError(t *testing.T) {
	engine := engineFunc(func(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
		return nil
	})
	g, logs := newObserved(engine, Options{})

	err := g.Invoke(context.Background(), &mt.PingRequest{}, &mt.Pong{})
	require.ErrorContains(t, err, "decode ping result")
	require.Zero(t, logs.Len())
}

func TestGatewayConcurrent(t *testing.T) {
	engine := engineFunc(func(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
		req, ok := input.(*mt.PingRequest)
		if !ok {
			return errors.Errorf("unexpected %T", input)
		}
		if req.PingID == 2 {
			time.Sleep(20 * time.Millisecond)
		}
		return respond(output, &mt.Pong{PingID: req.PingID})
	})
	g, logs := newObserved(engine, Options{})

	var (
		wg    sync.WaitGroup
		pongs [2]mt.Pong
		errs  [2]error
	)
	for i := range pongs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = g.Invoke(context.Background(), &mt.PingRequest{PingID: int64(i + 1)}, &pongs[i])
		}(i)
	}
	wg.Wait()

	for i := range pongs {
		require.NoError(t, errs[i])
		require.Equal(t, int64(i+1), pongs[i].PingID)
	}
	require.Equal(t, 2, logs.FilterMessage("Response received").Len())
}

func TestGatewayTimeouts(t *testing.T) {
	g := NewGateway(nil, Options{Timeouts: map[string]time.Duration{
		"auth.sendCode": 30 * time.Second,
		"ping":          0,
	}})

	require.Equal(t, 30*time.Second, g.Timeout("auth.sendCode"))
	require.Equal(t, DefaultTimeout, g.Timeout("ping"))
	require.Equal(t, 10*time.Second, g.Timeout("messages.getDialogs"))
}

func TestMethodName(t *testing.T) {
	require.Equal(t, "auth.sendCode", MethodName(&tg.AuthSendCodeRequest{}))
	require.Equal(t, "ping", MethodName(&mt.PingRequest{}))
}

func TestGatewayDefaultDeadline(t *testing.T) {
	clk := neo.NewTime(time.Now())
	started := make(chan struct{})
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	engine := engineFunc(func(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
		close(started)
		<-release
		return nil
	})
	g, logs := newObserved(engine, Options{Clock: clk})

	result := make(chan error, 1)
	go func() {
		result <- g.Invoke(context.Background(), &mt.PingRequest{}, &mt.Pong{})
	}()
	<-started

	clk.Travel(DefaultTimeout - time.Millisecond)
	select {
	case err := <-result:
		t.Fatalf("settled before deadline: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	clk.Travel(time.Millisecond)
	select {
	case err := <-result:
		var timeoutErr *TimeoutError
		require.ErrorAs(t, err, &timeoutErr)
		require.Equal(t, 500, timeoutErr.Code)
		require.Equal(t, "Timeout", timeoutErr.Message)
		require.Equal(t, 10*time.Second, timeoutErr.After)
	case <-time.After(time.Second):
		t.Fatal("deadline did not settle the call")
	}
	require.Zero(t, logs.Len())
}
