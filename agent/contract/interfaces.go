package contract

import (
	"context"

	statex "github.com/agilbank/teller/agent/state"
)

type Handler interface {
	Kind() HandlerKind
	Handle(ctx context.Context, req TurnRequest, sess *statex.Session) (TurnReply, error)
}

type Registry interface {
	Credit() Handler
	Interview() Handler
	Exchange() Handler
}

// Interpreter is the optional language backend. ExtractIntent refines turns
// the keyword classifier could not place; Narrate rewrites deterministic
// drafts in a persona voice. Both are best-effort and must never gate a
// business decision.
type Interpreter interface {
	ExtractIntent(ctx context.Context, req ExtractRequest) (ExtractedIntent, error)
	Narrate(ctx context.Context, req NarrateRequest) (string, error)
}
