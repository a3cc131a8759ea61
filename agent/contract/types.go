package contract

import (
	"time"
)

type HandlerKind string

const (
	HandlerKindCredit    HandlerKind = "credit"
	HandlerKindInterview HandlerKind = "interview"
	HandlerKindExchange  HandlerKind = "exchange"
)

type IntentKind string

const (
	IntentUnknown       IntentKind = "unknown"
	IntentGreeting      IntentKind = "greeting"
	IntentExit          IntentKind = "exit"
	IntentCancel        IntentKind = "cancel"
	IntentAffirm        IntentKind = "affirm"
	IntentDeny          IntentKind = "deny"
	IntentLimitInquiry  IntentKind = "limit_inquiry"
	IntentLimitIncrease IntentKind = "limit_increase"
	IntentInterview     IntentKind = "interview"
	IntentExchange      IntentKind = "exchange"
)

// Intent is the deterministic reading of one customer turn. Amount and
// Currencies are best-effort extractions; handlers re-parse when they need
// stricter rules.
type Intent struct {
	Kind       IntentKind `json:"kind"`
	Amount     *float64   `json:"amount,omitempty"`
	Currencies []string   `json:"currencies,omitempty"` // ISO codes in order of appearance
}

// TurnRequest is what a handler receives for one authenticated turn.
type TurnRequest struct {
	SessionID  string    `json:"session_id"`
	CustomerID string    `json:"customer_id"`
	Text       string    `json:"text"`
	Intent     Intent    `json:"intent"`
	Now        time.Time `json:"now"`
}

// TurnReply carries the deterministic reply for one turn. EndConversation is
// set when the conversation reached a terminal state.
type TurnReply struct {
	Message         string `json:"message"`
	EndConversation bool   `json:"end_conversation,omitempty"`
}

// ExtractRequest asks the language backend for a second opinion on a turn the
// keyword classifier could not place.
type ExtractRequest struct {
	UserMessage   string `json:"user_message"`
	ActiveHandler string `json:"active_handler,omitempty"`
}

// ExtractedIntent is the structured output of the language backend. It is a
// hint, never an authority: the router validates it and falls back to the
// deterministic reading when it does not pass.
type ExtractedIntent struct {
	Topic         string  `json:"topic" validate:"required,oneof=limit_inquiry limit_increase interview exchange exit cancel affirm deny smalltalk"`
	Amount        float64 `json:"amount,omitempty" validate:"gte=0"`
	BaseCurrency  string  `json:"base_currency,omitempty" validate:"omitempty,len=3,alpha"`
	QuoteCurrency string  `json:"quote_currency,omitempty" validate:"omitempty,len=3,alpha"`
}

// NarrateRequest asks the language backend to rephrase a deterministic draft
// in the persona's voice. Facts and figures in the draft are binding.
type NarrateRequest struct {
	Persona     string `json:"persona"`
	Draft       string `json:"draft"`
	UserMessage string `json:"user_message"`
}
