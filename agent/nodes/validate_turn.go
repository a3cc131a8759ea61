// Package enginenode holds the lambda nodes of the conversation turn graph.
// Each node reads and mutates one GraphState; the engine wires them together
// with eino compose edges.
package enginenode

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/agilbank/teller/agent/contract"
	statex "github.com/agilbank/teller/agent/state"
)

var (
	ErrEmptyMessage   = fmt.Errorf("%w: message is empty", contractx.ErrMalformedInput)
	ErrEmptySessionID = fmt.Errorf("%w: session id is empty", contractx.ErrMalformedInput)
)

type GraphInput struct {
	SessionID string
	Text      string
}

type GraphOutput struct {
	Reply  string
	Closed bool
}

type GraphState struct {
	SessionID string
	Text      string
	Now       time.Time

	Sess   *statex.Session
	Intent contractx.Intent

	Handler contractx.HandlerKind
	Persona string
	Draft   string
}

func ValidateTurn(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	return &GraphState{
		SessionID: sessionID,
		Text:      text,
		Now:       nowFn().UTC(),
	}, nil
}
