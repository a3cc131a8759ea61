package handlers

import (
	"errors"
	"fmt"

	contractx "github.com/agilbank/teller/agent/contract"
)

// Registry bundles the three domain handlers the router can dispatch to.
type Registry struct {
	credit    contractx.Handler
	interview contractx.Handler
	exchange  contractx.Handler
}

var _ contractx.Registry = (*Registry)(nil)

func NewRegistry(credit, interview, exchange contractx.Handler) (*Registry, error) {
	if credit == nil || interview == nil || exchange == nil {
		return nil, errors.New("all handlers are required")
	}
	return &Registry{credit: credit, interview: interview, exchange: exchange}, nil
}

func (r *Registry) Credit() contractx.Handler    { return r.credit }
func (r *Registry) Interview() contractx.Handler { return r.interview }
func (r *Registry) Exchange() contractx.Handler  { return r.exchange }

// ByKind resolves a dispatch target from the router's handler kind.
func ByKind(reg contractx.Registry, kind contractx.HandlerKind) (contractx.Handler, error) {
	switch kind {
	case contractx.HandlerKindCredit:
		return reg.Credit(), nil
	case contractx.HandlerKindInterview:
		return reg.Interview(), nil
	case contractx.HandlerKindExchange:
		return reg.Exchange(), nil
	default:
		return nil, fmt.Errorf("unknown handler kind %q", kind)
	}
}
