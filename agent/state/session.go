package state

import (
	"errors"
	"fmt"
	"time"
)

// Session is the persistent source-of-truth for one conversation.
// - Authentication: Phase + AuthAttempts + PendingIdentifier + CustomerID
// - Handoff: ActiveHandler + PendingOffer
// - In-flight collection: AwaitingAmount (credit), PendingBaseCurrency and
//   PendingAmount (exchange), Interview (questionnaire progress)
type Session struct {
	SessionID string `json:"session_id"`

	Phase             Phase  `json:"phase"`
	AuthAttempts      int    `json:"auth_attempts,omitempty"`
	PendingIdentifier string `json:"pending_identifier,omitempty"`
	CustomerID        string `json:"customer_id,omitempty"`

	ActiveHandler string `json:"active_handler,omitempty"` // "credit" | "interview" | "exchange"
	PendingOffer  Offer  `json:"pending_offer,omitempty"`

	AwaitingAmount      bool     `json:"awaiting_amount,omitempty"`
	PendingBaseCurrency string   `json:"pending_base_currency,omitempty"`
	PendingAmount       *float64 `json:"pending_amount,omitempty"`

	Interview *InterviewProgress `json:"interview,omitempty"`

	History []HistoryEntry `json:"history,omitempty"`
	Closed  bool           `json:"closed,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

type Phase string

const (
	PhaseUnauthenticated    Phase = "unauthenticated"
	PhaseAwaitingIdentifier Phase = "awaiting_identifier"
	PhaseAwaitingBirthDate  Phase = "awaiting_birth_date"
	PhaseAuthenticated      Phase = "authenticated"
	PhaseLockedOut          Phase = "locked_out"
)

type Offer string

const (
	OfferNone      Offer = ""
	OfferIncrease  Offer = "increase"
	OfferInterview Offer = "interview"
)

// InterviewProgress tracks the fixed-order questionnaire. Step is the index
// of the pending question; answered fields are set, unanswered stay nil.
type InterviewProgress struct {
	Step          int      `json:"step"`
	Income        *float64 `json:"income,omitempty"`
	Employment    string   `json:"employment,omitempty"`
	FixedExpenses *float64 `json:"fixed_expenses,omitempty"`
	Dependents    *int     `json:"dependents,omitempty"`
	HasDebts      *bool    `json:"has_debts,omitempty"`
}

const InterviewSteps = 5

type HistoryEntry struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

const (
	RoleCustomer  = "customer"
	RoleAssistant = "assistant"
)

// maxHistoryEntries bounds the transcript kept for narration context.
const maxHistoryEntries = 12

var (
	ErrPhaseUnknown      = errors.New("session phase unknown")
	ErrPhaseInconsistent = errors.New("session phase inconsistent")
)

func NewSession(sessionID string, now time.Time) *Session {
	return &Session{
		SessionID: sessionID,
		Phase:     PhaseUnauthenticated,
		UpdatedAt: now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// Authenticated reports whether handlers may run for this session.
func (s *Session) Authenticated() bool {
	return s != nil && s.Phase == PhaseAuthenticated && s.CustomerID != ""
}

func (s *Session) Locked() bool {
	return s != nil && s.Phase == PhaseLockedOut
}

/* --------------------------- Interview helpers --------------------------- */

func (s *Session) BeginInterview() {
	s.Interview = &InterviewProgress{}
}

func (s *Session) ClearInterview() {
	s.Interview = nil
}

func (s *Session) InterviewActive() bool {
	return s != nil && s.Interview != nil
}

/* ---------------------------- Exchange helpers --------------------------- */

func (s *Session) ClearPendingExchange() {
	s.PendingBaseCurrency = ""
	s.PendingAmount = nil
}

// ResetHandlerState drops every in-flight collection so a fresh handler can
// take over without inheriting half-collected input.
func (s *Session) ResetHandlerState() {
	s.ActiveHandler = ""
	s.PendingOffer = OfferNone
	s.AwaitingAmount = false
	s.ClearPendingExchange()
	s.ClearInterview()
}

/* ----------------------------- History helpers --------------------------- */

// AppendHistory records one transcript line, trimming the oldest entries past
// the cap.
func (s *Session) AppendHistory(role, text string) {
	if text == "" {
		return
	}
	s.History = append(s.History, HistoryEntry{Role: role, Text: text})
	if len(s.History) > maxHistoryEntries {
		s.History = s.History[len(s.History)-maxHistoryEntries:]
	}
}

/* -------------------------------- Validate ------------------------------- */

func (s *Session) Validate() error {
	switch s.Phase {
	case PhaseUnauthenticated, PhaseAwaitingIdentifier, PhaseAwaitingBirthDate,
		PhaseAuthenticated, PhaseLockedOut:
	default:
		return fmt.Errorf("%w: %q", ErrPhaseUnknown, s.Phase)
	}

	if s.Phase == PhaseAuthenticated && s.CustomerID == "" {
		return fmt.Errorf("%w: authenticated without customer id", ErrPhaseInconsistent)
	}
	if s.Phase == PhaseAwaitingBirthDate && s.PendingIdentifier == "" {
		return fmt.Errorf("%w: awaiting birth date without pending identifier", ErrPhaseInconsistent)
	}
	if s.Phase != PhaseAuthenticated {
		if s.ActiveHandler != "" || s.Interview != nil {
			return fmt.Errorf("%w: handler state on unauthenticated session", ErrPhaseInconsistent)
		}
	}
	if s.AuthAttempts < 0 {
		return fmt.Errorf("%w: negative auth attempts", ErrPhaseInconsistent)
	}
	if s.Interview != nil && (s.Interview.Step < 0 || s.Interview.Step >= InterviewSteps) {
		return fmt.Errorf("%w: interview step %d out of range", ErrPhaseInconsistent, s.Interview.Step)
	}
	return nil
}
