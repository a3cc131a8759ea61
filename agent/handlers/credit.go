// Package handlers implements the domain handlers a routed turn can land on:
// credit limits, the score interview, and currency exchange. Handlers produce
// deterministic reply drafts; tone is applied later by the narration layer.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	contractx "github.com/agilbank/teller/agent/contract"
	statex "github.com/agilbank/teller/agent/state"
	"github.com/agilbank/teller/bank"
	logx "github.com/agilbank/teller/pkg/logger"
	metricsx "github.com/agilbank/teller/pkg/metrics"
)

const (
	msgAskAmountFmt = "Of course. Your current limit is %.2f. What limit would you like?"
	msgInquiryFmt   = "Your current credit limit is %.2f. Would you like to request an increase?"
	msgInvalidFmt   = "A credit limit has to be a positive value. What limit would you like?"
	msgNoChangeFmt  = "%.2f is already your current limit, so there is nothing to change. " +
		"Anything else I can do for you?"
	msgApprovedFmt = "Done! Your credit limit changed from %.2f to %.2f."
	msgRejectedFmt = "I am sorry, I cannot approve %.2f: with your current score your limit " +
		"can be at most %.2f. Would you like to take a quick five question interview to " +
		"refresh your score?"
)

// Decision is the audited outcome of one limit increase evaluation. Reason is
// nil on approval and one of ErrInvalidAmount, ErrNoChange, or
// ErrScoreInsufficient otherwise.
type Decision struct {
	Approved      bool
	Reason        error
	PreviousLimit float64
	NewLimit      float64
	MaxAllowed    float64
}

// CreditHandler answers limit inquiries and decides limit increase requests
// against the score limit table.
type CreditHandler struct {
	directory bank.Directory
	table     *bank.ScoreLimitTable
	ledger    bank.Ledger
	locks     *bank.CustomerLocks
	log       zerolog.Logger
}

var _ contractx.Handler = (*CreditHandler)(nil)

func NewCreditHandler(directory bank.Directory, table *bank.ScoreLimitTable, ledger bank.Ledger, locks *bank.CustomerLocks) (*CreditHandler, error) {
	if directory == nil {
		return nil, errors.New("customer directory is required")
	}
	if table == nil {
		return nil, errors.New("score limit table is required")
	}
	if ledger == nil {
		return nil, errors.New("increase ledger is required")
	}
	if locks == nil {
		return nil, errors.New("customer locks are required")
	}

	return &CreditHandler{
		directory: directory,
		table:     table,
		ledger:    ledger,
		locks:     locks,
		log:       logx.With("credit"),
	}, nil
}

func (h *CreditHandler) Kind() contractx.HandlerKind {
	return contractx.HandlerKindCredit
}

func (h *CreditHandler) Handle(ctx context.Context, req contractx.TurnRequest, sess *statex.Session) (contractx.TurnReply, error) {
	if req.Intent.Kind == contractx.IntentLimitInquiry {
		return h.inquiry(ctx, req, sess)
	}

	if req.Intent.Amount == nil {
		return h.askAmount(ctx, req, sess)
	}
	return h.applyDecision(ctx, req, sess, *req.Intent.Amount)
}

func (h *CreditHandler) inquiry(ctx context.Context, req contractx.TurnRequest, sess *statex.Session) (contractx.TurnReply, error) {
	rec, err := h.directory.Get(ctx, req.CustomerID)
	if err != nil {
		return contractx.TurnReply{}, err
	}

	sess.PendingOffer = statex.OfferIncrease
	return contractx.TurnReply{Message: fmt.Sprintf(msgInquiryFmt, rec.Limit)}, nil
}

func (h *CreditHandler) askAmount(ctx context.Context, req contractx.TurnRequest, sess *statex.Session) (contractx.TurnReply, error) {
	rec, err := h.directory.Get(ctx, req.CustomerID)
	if err != nil {
		return contractx.TurnReply{}, err
	}

	sess.AwaitingAmount = true
	return contractx.TurnReply{Message: fmt.Sprintf(msgAskAmountFmt, rec.Limit)}, nil
}

func (h *CreditHandler) applyDecision(ctx context.Context, req contractx.TurnRequest, sess *statex.Session, amount float64) (contractx.TurnReply, error) {
	sess.AwaitingAmount = false

	decision, err := h.Decide(ctx, req.CustomerID, amount, req.Now)
	if err != nil {
		return contractx.TurnReply{}, err
	}

	switch {
	case decision.Approved:
		return contractx.TurnReply{
			Message: fmt.Sprintf(msgApprovedFmt, decision.PreviousLimit, decision.NewLimit),
		}, nil
	case errors.Is(decision.Reason, contractx.ErrInvalidAmount):
		sess.AwaitingAmount = true
		return contractx.TurnReply{Message: msgInvalidFmt}, nil
	case errors.Is(decision.Reason, contractx.ErrNoChange):
		return contractx.TurnReply{Message: fmt.Sprintf(msgNoChangeFmt, amount)}, nil
	default:
		sess.PendingOffer = statex.OfferInterview
		return contractx.TurnReply{
			Message: fmt.Sprintf(msgRejectedFmt, amount, decision.MaxAllowed),
		}, nil
	}
}

// Decide evaluates one limit increase request under the customer's lock.
// Invalid and no-change requests are answered without touching the ledger;
// every real decision is recorded, approved or not. An approved request sets
// the limit to exactly the requested value, lower than the current one too.
func (h *CreditHandler) Decide(ctx context.Context, customerID string, amount float64, at time.Time) (Decision, error) {
	if at.IsZero() {
		at = time.Now()
	}

	release := h.locks.Lock(customerID)
	defer release()

	rec, err := h.directory.Get(ctx, customerID)
	if err != nil {
		return Decision{}, err
	}

	decision := Decision{PreviousLimit: rec.Limit, NewLimit: rec.Limit}

	if amount <= 0 {
		decision.Reason = contractx.ErrInvalidAmount
		metricsx.CreditDecisionsTotal.WithLabelValues("invalid_amount").Inc()
		return decision, nil
	}
	if amount == rec.Limit {
		decision.Reason = contractx.ErrNoChange
		metricsx.CreditDecisionsTotal.WithLabelValues("no_change").Inc()
		return decision, nil
	}

	maxAllowed, err := h.table.MaxLimitFor(rec.Score)
	if err != nil {
		return Decision{}, err
	}
	decision.MaxAllowed = maxAllowed

	entry := bank.IncreaseRequest{
		CustomerID:     customerID,
		RequestedAt:    at,
		CurrentLimit:   rec.Limit,
		RequestedLimit: amount,
	}

	if amount > maxAllowed {
		entry.Status = bank.RequestRejected
		entry.Reason = "score_insufficient"
		if err := h.ledger.Record(ctx, entry); err != nil {
			return Decision{}, fmt.Errorf("record rejection: %w", err)
		}
		decision.Reason = contractx.ErrScoreInsufficient
		metricsx.CreditDecisionsTotal.WithLabelValues("rejected").Inc()
		h.log.Info().Str("customer", bank.MaskIdentifier(customerID)).
			Float64("requested", amount).Float64("max_allowed", maxAllowed).
			Msg("limit increase rejected")
		return decision, nil
	}

	if err := h.directory.UpdateLimit(ctx, customerID, amount); err != nil {
		return Decision{}, fmt.Errorf("apply new limit: %w", err)
	}
	entry.Status = bank.RequestApproved
	if err := h.ledger.Record(ctx, entry); err != nil {
		return Decision{}, fmt.Errorf("record approval: %w", err)
	}

	decision.Approved = true
	decision.NewLimit = amount
	metricsx.CreditDecisionsTotal.WithLabelValues("approved").Inc()
	h.log.Info().Str("customer", bank.MaskIdentifier(customerID)).
		Float64("previous", decision.PreviousLimit).Float64("new", amount).
		Msg("limit increase approved")
	return decision, nil
}
