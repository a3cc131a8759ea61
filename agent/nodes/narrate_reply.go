package enginenode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/agilbank/teller/agent/contract"
	metricsx "github.com/agilbank/teller/pkg/metrics"
)

// NarrateReply rewrites the handler draft in the persona voice. The draft is
// always a valid answer on its own, so narration failures only cost tone.
func NarrateReply(ctx context.Context, in *GraphState, interp contractx.Interpreter) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Persona == "" || strings.TrimSpace(in.Draft) == "" {
		return in, nil
	}

	narrated, err := interp.Narrate(ctx, contractx.NarrateRequest{
		Persona:     in.Persona,
		Draft:       in.Draft,
		UserMessage: in.Text,
	})
	if err != nil {
		metricsx.InterpreterFailuresTotal.WithLabelValues("narrate").Inc()
		return in, nil
	}
	if strings.TrimSpace(narrated) != "" {
		in.Draft = narrated
	}
	return in, nil
}
