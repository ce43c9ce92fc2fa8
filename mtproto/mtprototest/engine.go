// Package mtprototest provides a scripted Engine for tests.
package mtprototest

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/gotd/td/bin"

	"github.com/sudo-xjx-code/xjx-tele-gateway/mtproto"
)

// Engine answers calls by TL method name.
type Engine struct {
	mux      sync.Mutex
	results  map[string]bin.Encoder
	errs     map[string]error
	requests []bin.Encoder
}

var _ mtproto.Engine = (*Engine)(nil)

// NewEngine creates an Engine without any scripted answers.
func NewEngine() *Engine {
	return &Engine{
		results: map[string]bin.Encoder{},
		errs:    map[string]error{},
	}
}

// Result scripts the answer to method.
func (e *Engine) Result(method string, result bin.Encoder) *Engine {
	e.mux.Lock()
	defer e.mux.Unlock()

	e.results[method] = result
	return e
}

// Err scripts a failure of method.
func (e *Engine) Err(method string, err error) *Engine {
	e.mux.Lock()
	defer e.mux.Unlock()

	e.errs[method] = err
	return e
}

// Requests returns received requests in call order.
func (e *Engine) Requests() []bin.Encoder {
	e.mux.Lock()
	defer e.mux.Unlock()

	return append([]bin.Encoder(nil), e.requests...)
}

// Last returns the last received request, nil if none.
func (e *Engine) Last() bin.Encoder {
	e.mux.Lock()
	defer e.mux.Unlock()

	if len(e.requests) == 0 {
		return nil
	}
	return e.requests[len(e.requests)-1]
}

func (e *Engine) Invoke(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
	method := mtproto.MethodName(input)

	e.mux.Lock()
	e.requests = append(e.requests, input)
	result, ok := e.results[method]
	err := e.errs[method]
	e.mux.Unlock()

	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("unexpected call %s", method)
	}

	var b bin.Buffer
	if err := result.Encode(&b); err != nil {
		return errors.Wrap(err, "encode result")
	}
	return output.Decode(&b)
}
