// Package engine compiles the conversation turn pipeline into an eino graph
// and runs one customer message at a time through it.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"

	authx "github.com/agilbank/teller/agent/auth"
	contractx "github.com/agilbank/teller/agent/contract"
	nodex "github.com/agilbank/teller/agent/nodes"
	statex "github.com/agilbank/teller/agent/state"
	logx "github.com/agilbank/teller/pkg/logger"
	metricsx "github.com/agilbank/teller/pkg/metrics"
)

var (
	ErrEmptyMessage   = nodex.ErrEmptyMessage
	ErrEmptySessionID = nodex.ErrEmptySessionID
)

const defaultTurnTimeout = 30 * time.Second

type Engine struct {
	store    statex.Store
	machine  *authx.Machine
	registry contractx.Registry
	interp   contractx.Interpreter

	runner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	turnTimeout time.Duration
	now         func() time.Time
	log         zerolog.Logger
}

type Option func(*Engine)

// WithInterpreter plugs in the language backend. Without it turns stay fully
// deterministic.
func WithInterpreter(interp contractx.Interpreter) Option {
	return func(e *Engine) {
		if interp != nil {
			e.interp = interp
		}
	}
}

func WithTurnTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.turnTimeout = d
		}
	}
}

// WithClock fixes the engine clock. Tests use it to pin timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func New(store statex.Store, machine *authx.Machine, registry contractx.Registry, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if machine == nil {
		return nil, errors.New("auth machine is required")
	}
	if registry == nil {
		return nil, errors.New("handler registry is required")
	}

	e := &Engine{
		store:       store,
		machine:     machine,
		registry:    registry,
		interp:      noopInterpreter{},
		turnTimeout: defaultTurnTimeout,
		now:         time.Now,
		log:         logx.With("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}

	runner, err := e.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	e.runner = runner

	return e, nil
}

// Turn is the outcome of one processed customer message.
type Turn struct {
	Reply  string
	Closed bool
}

func (e *Engine) HandleTurn(ctx context.Context, sessionID string, text string) (Turn, error) {
	ctx, cancel := context.WithTimeout(ctx, e.turnTimeout)
	defer cancel()

	start := time.Now()
	out, err := e.runner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
	if err != nil {
		metricsx.TurnProcessingDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		e.log.Error().Err(err).Str("session_id", sessionID).Msg("turn failed")
		return Turn{}, err
	}

	metricsx.TurnProcessingDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	return Turn{Reply: out.Reply, Closed: out.Closed}, nil
}

// noopInterpreter keeps the graph shape stable when no language backend is
// configured: extraction never refines and narration keeps the draft.
type noopInterpreter struct{}

var _ contractx.Interpreter = noopInterpreter{}

func (noopInterpreter) ExtractIntent(context.Context, contractx.ExtractRequest) (contractx.ExtractedIntent, error) {
	return contractx.ExtractedIntent{}, nil
}

func (noopInterpreter) Narrate(_ context.Context, req contractx.NarrateRequest) (string, error) {
	return req.Draft, nil
}
