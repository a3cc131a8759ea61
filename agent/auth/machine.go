// Package auth implements the identification flow that gates every
// conversation: customer identifier first, then birth date, with a bounded
// number of mismatch attempts before the session locks for good.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	contractx "github.com/agilbank/teller/agent/contract"
	"github.com/agilbank/teller/agent/intent"
	statex "github.com/agilbank/teller/agent/state"
	"github.com/agilbank/teller/bank"
	logx "github.com/agilbank/teller/pkg/logger"
	metricsx "github.com/agilbank/teller/pkg/metrics"
)

const defaultMaxAttempts = 3

type Config struct {
	MaxAttempts int `split_words:"true" default:"3"`
}

const (
	msgAskIdentifier = "Welcome to AgilBank! Before we continue I need to verify your identity. " +
		"Please tell me your 11 digit customer identifier."
	msgBadIdentifier = "That does not look like a valid identifier. Please send the 11 digits; " +
		"separators are fine, e.g. 123.456.789-01."
	msgAskBirthDate = "Thank you. Now please confirm your birth date in the YYYY-MM-DD format."
	msgBadBirthDate = "Please send your birth date as YYYY-MM-DD, e.g. 1990-03-14."
	msgNotFound     = "I could not find an account under that identifier. " +
		"Let's try again: what is your 11 digit customer identifier?"
	msgLockedOut = "Too many failed verification attempts. For your security this conversation " +
		"is now locked; please contact your branch to regain access."
)

const msgMismatchFmt = "That birth date does not match our records. You have %d verification " +
	"attempt(s) left. Let's start over: what is your customer identifier?"

const msgWelcomeFmt = "You are verified. Welcome back, %s! I can check your credit limit, " +
	"request a limit increase, run a quick score interview, or quote exchange rates. " +
	"What would you like to do?"

// Machine advances a session through the identification phases. It only
// mutates the session; persisting it is the caller's concern.
type Machine struct {
	directory   bank.Directory
	maxAttempts int
	log         zerolog.Logger
}

func NewMachine(directory bank.Directory, cfg Config) (*Machine, error) {
	if directory == nil {
		return nil, errors.New("customer directory is required")
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Machine{
		directory:   directory,
		maxAttempts: maxAttempts,
		log:         logx.With("auth"),
	}, nil
}

func MustNewMachine(directory bank.Directory, cfg Config) *Machine {
	m, err := NewMachine(directory, cfg)
	if err != nil {
		panic(err)
	}
	return m
}

// Step consumes one customer turn and returns the reply draft. A locked
// session yields ErrSessionLocked; every other path is conversational.
func (m *Machine) Step(ctx context.Context, sess *statex.Session, text string) (string, error) {
	switch sess.Phase {
	case statex.PhaseLockedOut:
		return "", fmt.Errorf("%w: session %s", contractx.ErrSessionLocked, sess.SessionID)
	case statex.PhaseUnauthenticated:
		sess.Phase = statex.PhaseAwaitingIdentifier
		if _, ok := intent.ParseIdentifier(text); ok {
			// the opening turn already carries the identifier
			return m.identifierStep(sess, text), nil
		}
		return msgAskIdentifier, nil
	case statex.PhaseAwaitingIdentifier:
		return m.identifierStep(sess, text), nil
	case statex.PhaseAwaitingBirthDate:
		return m.birthDateStep(ctx, sess, text)
	default:
		return "", fmt.Errorf("%w: phase %q", statex.ErrPhaseInconsistent, sess.Phase)
	}
}

// identifierStep validates the identifier shape only. Whether the customer
// exists is checked after the birth date arrives, so an attacker cannot
// enumerate identifiers, and a typo costs no verification attempt.
func (m *Machine) identifierStep(sess *statex.Session, text string) string {
	id, ok := intent.ParseIdentifier(text)
	if !ok {
		metricsx.AuthOutcomesTotal.WithLabelValues("malformed").Inc()
		return msgBadIdentifier
	}

	sess.PendingIdentifier = id
	sess.Phase = statex.PhaseAwaitingBirthDate
	return msgAskBirthDate
}

func (m *Machine) birthDateStep(ctx context.Context, sess *statex.Session, text string) (string, error) {
	birth, ok := intent.ParseDate(text)
	if !ok {
		metricsx.AuthOutcomesTotal.WithLabelValues("malformed").Inc()
		return msgBadBirthDate, nil
	}

	rec, err := m.directory.Get(ctx, sess.PendingIdentifier)
	if err != nil {
		if errors.Is(err, bank.ErrCustomerNotFound) {
			// unknown identifier is not a failed proof, no attempt burned
			sess.PendingIdentifier = ""
			sess.Phase = statex.PhaseAwaitingIdentifier
			metricsx.AuthOutcomesTotal.WithLabelValues("not_found").Inc()
			return msgNotFound, nil
		}
		return "", fmt.Errorf("look up customer: %w", err)
	}

	if !bank.SameBirthDate(rec.BirthDate, birth) {
		return m.mismatch(sess), nil
	}

	sess.Phase = statex.PhaseAuthenticated
	sess.CustomerID = rec.Identifier
	sess.PendingIdentifier = ""
	sess.AuthAttempts = 0
	metricsx.AuthOutcomesTotal.WithLabelValues("authenticated").Inc()

	m.log.Info().Str("session_id", sess.SessionID).
		Str("customer", bank.MaskIdentifier(rec.Identifier)).
		Msg("customer verified")
	return fmt.Sprintf(msgWelcomeFmt, firstName(rec.Name)), nil
}

func (m *Machine) mismatch(sess *statex.Session) string {
	sess.AuthAttempts++
	sess.PendingIdentifier = ""

	if sess.AuthAttempts >= m.maxAttempts {
		sess.Phase = statex.PhaseLockedOut
		sess.Closed = true
		metricsx.AuthOutcomesTotal.WithLabelValues("locked_out").Inc()
		m.log.Warn().Str("session_id", sess.SessionID).
			Int("attempts", sess.AuthAttempts).
			Err(contractx.ErrIdentityMismatch).
			Msg("session locked out")
		return msgLockedOut
	}

	sess.Phase = statex.PhaseAwaitingIdentifier
	metricsx.AuthOutcomesTotal.WithLabelValues("mismatch").Inc()
	return fmt.Sprintf(msgMismatchFmt, m.maxAttempts-sess.AuthAttempts)
}

// LockedMessage is the fixed reply for turns arriving on a locked session.
func LockedMessage() string {
	return msgLockedOut
}

func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}
