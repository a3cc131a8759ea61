package enginenode

import (
	"context"
	"fmt"

	contractx "github.com/agilbank/teller/agent/contract"
	statex "github.com/agilbank/teller/agent/state"
)

// SaveSession records the transcript pair, stamps and validates the session,
// then persists it. Validation failures here mean a node corrupted the
// session and the turn must not be acknowledged.
func SaveSession(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil || in.Sess == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	in.Sess.AppendHistory(statex.RoleCustomer, in.Text)
	in.Sess.AppendHistory(statex.RoleAssistant, in.Draft)
	in.Sess.Touch(in.Now)

	if err := in.Sess.Validate(); err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}
	if err := store.Save(ctx, in.Sess); err != nil {
		return nil, err
	}
	return in, nil
}
