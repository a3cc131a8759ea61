package enginenode

import (
	"context"
	"errors"
	"fmt"

	authx "github.com/agilbank/teller/agent/auth"
	contractx "github.com/agilbank/teller/agent/contract"
)

// AuthStep runs one turn of the authentication machine. A turn against an
// already locked session is not an engine fault: the customer just gets the
// lockout message again.
func AuthStep(ctx context.Context, in *GraphState, machine *authx.Machine) (*GraphState, error) {
	if in == nil || in.Sess == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	reply, err := machine.Step(ctx, in.Sess, in.Text)
	if err != nil {
		if errors.Is(err, contractx.ErrSessionLocked) {
			in.Draft = authx.LockedMessage()
			return in, nil
		}
		return nil, err
	}

	in.Draft = reply
	return in, nil
}
