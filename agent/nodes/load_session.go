package enginenode

import (
	"context"
	"errors"
	"fmt"
	"time"

	contractx "github.com/agilbank/teller/agent/contract"
	statex "github.com/agilbank/teller/agent/state"
)

// LoadSession fetches the conversation session or starts a fresh one. A
// conversation that ended with a farewell starts over under the same id; a
// locked-out one stays locked.
func LoadSession(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	sess, err := loadOrCreateSession(ctx, store, in.SessionID, in.Now)
	if err != nil {
		return nil, err
	}
	in.Sess = sess
	return in, nil
}

func loadOrCreateSession(ctx context.Context, store statex.Store, sessionID string, now time.Time) (*statex.Session, error) {
	sess, err := store.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, statex.ErrStateNotFound) {
			return nil, err
		}
		return statex.NewSession(sessionID, now), nil
	}

	if sess.Closed && !sess.Locked() {
		return statex.NewSession(sessionID, now), nil
	}
	return sess, nil
}
