// Package router owns the conversation policy: which handler sees a turn,
// when a pending offer is consumed, and when the conversation ends. It only
// mutates the session; producing the reply stays with the handlers.
package router

import (
	contractx "github.com/agilbank/teller/agent/contract"
	statex "github.com/agilbank/teller/agent/state"
)

// CapabilityMenu is shown whenever the customer needs orientation.
const CapabilityMenu = "Here is what I can do for you:\n" +
	"- check your current credit limit\n" +
	"- request a credit limit increase\n" +
	"- run a quick interview to refresh your credit score\n" +
	"- quote exchange rates between major currencies\n" +
	"You can say \"cancel\" at any point, or \"exit\" to finish."

const (
	msgFarewell  = "Thank you for banking with AgilBank. Goodbye!"
	msgCancelled = "Okay, I dropped that. " + CapabilityMenu
	msgDeclined  = "No problem. Is there anything else I can help you with?"
	msgGreeting  = "Hello again! " + CapabilityMenu
	msgFallback  = "I am not sure I understood that. " + CapabilityMenu
)

type Action string

const (
	// ActionDispatch hands the turn to Decision.Handler.
	ActionDispatch Action = "dispatch"
	// ActionReply answers directly with Decision.Reply.
	ActionReply Action = "reply"
	// ActionClose answers with Decision.Reply and ends the conversation.
	ActionClose Action = "close"
)

type Decision struct {
	Action  Action
	Handler contractx.HandlerKind
	Reply   string
}

// Route decides what to do with one authenticated turn.
//
// The rules, in order: exit always wins; a running interview holds the turn
// unless the customer cancels; cancel resets every in-flight flow; a pending
// offer consumes a bare yes or no; explicit topics switch handlers; anything
// else continues the active handler or falls back to the menu.
func Route(sess *statex.Session, in contractx.Intent) Decision {
	if in.Kind == contractx.IntentExit {
		sess.ResetHandlerState()
		sess.Closed = true
		return Decision{Action: ActionClose, Reply: msgFarewell}
	}

	if sess.InterviewActive() {
		if in.Kind == contractx.IntentCancel {
			sess.ResetHandlerState()
			return Decision{Action: ActionReply, Reply: msgCancelled}
		}
		return dispatch(sess, contractx.HandlerKindInterview)
	}

	if in.Kind == contractx.IntentCancel {
		sess.ResetHandlerState()
		return Decision{Action: ActionReply, Reply: msgCancelled}
	}

	if sess.PendingOffer != statex.OfferNone {
		if d, ok := consumeOffer(sess, in.Kind); ok {
			return d
		}
	}

	switch in.Kind {
	case contractx.IntentLimitInquiry, contractx.IntentLimitIncrease:
		sess.ClearPendingExchange()
		sess.PendingOffer = statex.OfferNone
		return dispatch(sess, contractx.HandlerKindCredit)
	case contractx.IntentInterview:
		sess.PendingOffer = statex.OfferNone
		sess.AwaitingAmount = false
		sess.ClearPendingExchange()
		sess.BeginInterview()
		return dispatch(sess, contractx.HandlerKindInterview)
	case contractx.IntentExchange:
		sess.PendingOffer = statex.OfferNone
		sess.AwaitingAmount = false
		return dispatch(sess, contractx.HandlerKindExchange)
	}

	if sess.ActiveHandler != "" {
		return dispatch(sess, contractx.HandlerKind(sess.ActiveHandler))
	}

	if in.Kind == contractx.IntentGreeting {
		return Decision{Action: ActionReply, Reply: msgGreeting}
	}
	return Decision{Action: ActionReply, Reply: msgFallback}
}

// consumeOffer turns a bare yes or no into the offered follow-up. Any other
// intent leaves the offer pending and falls through to the normal rules.
func consumeOffer(sess *statex.Session, kind contractx.IntentKind) (Decision, bool) {
	switch kind {
	case contractx.IntentAffirm:
		offer := sess.PendingOffer
		sess.PendingOffer = statex.OfferNone
		switch offer {
		case statex.OfferIncrease:
			sess.AwaitingAmount = true
			return dispatch(sess, contractx.HandlerKindCredit), true
		case statex.OfferInterview:
			sess.BeginInterview()
			return dispatch(sess, contractx.HandlerKindInterview), true
		}
	case contractx.IntentDeny:
		sess.PendingOffer = statex.OfferNone
		return Decision{Action: ActionReply, Reply: msgDeclined}, true
	}
	return Decision{}, false
}

func dispatch(sess *statex.Session, handler contractx.HandlerKind) Decision {
	sess.ActiveHandler = string(handler)
	return Decision{Action: ActionDispatch, Handler: handler}
}
