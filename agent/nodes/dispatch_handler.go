package enginenode

import (
	"context"
	"fmt"

	contractx "github.com/agilbank/teller/agent/contract"
	handlersx "github.com/agilbank/teller/agent/handlers"
	llmx "github.com/agilbank/teller/agent/llm"
	metricsx "github.com/agilbank/teller/pkg/metrics"
)

// DispatchHandler runs the routed handler, if any. Router replies (menus,
// farewells) pass through untouched with no persona attached.
func DispatchHandler(ctx context.Context, in *GraphState, registry contractx.Registry) (*GraphState, error) {
	if in == nil || in.Sess == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	if in.Handler == "" {
		return in, nil
	}

	handler, err := handlersx.ByKind(registry, in.Handler)
	if err != nil {
		return nil, err
	}

	reply, err := handler.Handle(ctx, contractx.TurnRequest{
		SessionID:  in.SessionID,
		CustomerID: in.Sess.CustomerID,
		Text:       in.Text,
		Intent:     in.Intent,
		Now:        in.Now,
	}, in.Sess)
	if err != nil {
		return nil, err
	}

	metricsx.HandlerTurnsTotal.WithLabelValues(string(in.Handler)).Inc()

	in.Draft = reply.Message
	in.Persona = personaFor(in.Handler)
	if reply.EndConversation {
		in.Sess.Closed = true
	}
	return in, nil
}

func personaFor(kind contractx.HandlerKind) string {
	switch kind {
	case contractx.HandlerKindCredit:
		return llmx.PersonaCredit
	case contractx.HandlerKindInterview:
		return llmx.PersonaInterview
	case contractx.HandlerKindExchange:
		return llmx.PersonaExchange
	default:
		return ""
	}
}
