package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	contractx "github.com/agilbank/teller/agent/contract"
	"github.com/agilbank/teller/agent/intent"
	statex "github.com/agilbank/teller/agent/state"
	"github.com/agilbank/teller/bank"
	logx "github.com/agilbank/teller/pkg/logger"
	metricsx "github.com/agilbank/teller/pkg/metrics"
)

// interviewQuestions is the fixed question order. The step index in the
// session always points at the question that is waiting for an answer.
var interviewQuestions = [statex.InterviewSteps]string{
	"Let's refresh your score with five quick questions. First: what is your monthly income?",
	"What is your employment situation? (employed, self-employed, retired, or unemployed)",
	"What are your fixed monthly expenses?",
	"How many dependents do you have?",
	"Last one: do you currently have any outstanding debts? (yes or no)",
}

const (
	msgNeedNumberFmt  = "I need a number for that one. %s"
	msgNeedStatusFmt  = "Please answer with one of: employed, self-employed, retired, or unemployed."
	msgNeedCountFmt   = "Just the count, please. %s"
	msgNeedYesNoFmt   = "A simple yes or no works best here. %s"
	msgInterviewDone  = "Thank you! Your refreshed credit score is %d. With it your limit can go up to %.2f. Would you like to request an increase now?"
	msgInterviewReset = "Something went wrong with the interview, let's start over. "
)

// InterviewHandler runs the fixed-order score interview, recalculates the
// score from the answers, and writes it back to the customer record.
type InterviewHandler struct {
	directory bank.Directory
	table     *bank.ScoreLimitTable
	weights   bank.ScoreWeights
	locks     *bank.CustomerLocks
	log       zerolog.Logger
}

var _ contractx.Handler = (*InterviewHandler)(nil)

func NewInterviewHandler(directory bank.Directory, table *bank.ScoreLimitTable, weights bank.ScoreWeights, locks *bank.CustomerLocks) (*InterviewHandler, error) {
	if directory == nil {
		return nil, errors.New("customer directory is required")
	}
	if table == nil {
		return nil, errors.New("score limit table is required")
	}
	if locks == nil {
		return nil, errors.New("customer locks are required")
	}

	return &InterviewHandler{
		directory: directory,
		table:     table,
		weights:   weights,
		locks:     locks,
		log:       logx.With("interview"),
	}, nil
}

func (h *InterviewHandler) Kind() contractx.HandlerKind {
	return contractx.HandlerKindInterview
}

func (h *InterviewHandler) Handle(ctx context.Context, req contractx.TurnRequest, sess *statex.Session) (contractx.TurnReply, error) {
	if sess.Interview == nil {
		sess.BeginInterview()
	}
	prog := sess.Interview

	// An opening turn ("interview please", or the yes that accepted the
	// offer) carries no answer yet; ask the pending question instead of
	// trying to consume the turn as one.
	opening := req.Intent.Kind == contractx.IntentInterview ||
		(req.Intent.Kind == contractx.IntentAffirm && prog.Step == 0 && prog.Income == nil)
	if opening {
		return contractx.TurnReply{Message: interviewQuestions[prog.Step]}, nil
	}

	return h.consumeAnswer(ctx, req, sess)
}

// consumeAnswer parses the answer for the pending question. A malformed
// answer re-asks the same question and does not advance the step.
func (h *InterviewHandler) consumeAnswer(ctx context.Context, req contractx.TurnRequest, sess *statex.Session) (contractx.TurnReply, error) {
	prog := sess.Interview

	switch prog.Step {
	case 0:
		income, ok := intent.ParseAmount(req.Text)
		if !ok {
			return h.reprompt(sess, fmt.Sprintf(msgNeedNumberFmt, interviewQuestions[0])), nil
		}
		prog.Income = &income
	case 1:
		employment, ok := intent.ParseEmployment(req.Text)
		if !ok {
			return h.reprompt(sess, msgNeedStatusFmt), nil
		}
		prog.Employment = string(employment)
	case 2:
		expenses, ok := intent.ParseAmount(req.Text)
		if !ok {
			return h.reprompt(sess, fmt.Sprintf(msgNeedNumberFmt, interviewQuestions[2])), nil
		}
		prog.FixedExpenses = &expenses
	case 3:
		dependents, ok := intent.ParseDependents(req.Text)
		if !ok {
			return h.reprompt(sess, fmt.Sprintf(msgNeedCountFmt, interviewQuestions[3])), nil
		}
		prog.Dependents = &dependents
	case 4:
		hasDebts, ok := intent.ParseYesNo(req.Text)
		if !ok {
			return h.reprompt(sess, fmt.Sprintf(msgNeedYesNoFmt, interviewQuestions[4])), nil
		}
		prog.HasDebts = &hasDebts
		return h.finalize(ctx, req, sess)
	}

	prog.Step++
	return contractx.TurnReply{Message: interviewQuestions[prog.Step]}, nil
}

func (h *InterviewHandler) reprompt(sess *statex.Session, message string) contractx.TurnReply {
	h.log.Debug().Str("session_id", sess.SessionID).Int("step", sess.Interview.Step).
		Err(contractx.ErrMalformedAnswer).Msg("answer not understood")
	return contractx.TurnReply{Message: message}
}

// finalize recalculates the score, writes it back under the customer lock,
// and hands control back to the credit flow with a fresh increase offer.
func (h *InterviewHandler) finalize(ctx context.Context, req contractx.TurnRequest, sess *statex.Session) (contractx.TurnReply, error) {
	prog := sess.Interview
	if prog.Income == nil || prog.Employment == "" || prog.FixedExpenses == nil ||
		prog.Dependents == nil || prog.HasDebts == nil {
		sess.BeginInterview()
		return contractx.TurnReply{Message: msgInterviewReset + interviewQuestions[0]}, nil
	}

	score := h.weights.Score(bank.InterviewAnswers{
		MonthlyIncome: *prog.Income,
		Employment:    bank.Employment(prog.Employment),
		FixedExpenses: *prog.FixedExpenses,
		Dependents:    *prog.Dependents,
		HasDebts:      *prog.HasDebts,
	})

	release := h.locks.Lock(req.CustomerID)
	err := h.directory.UpdateScore(ctx, req.CustomerID, score)
	release()
	if err != nil {
		return contractx.TurnReply{}, fmt.Errorf("write back score: %w", err)
	}

	maxAllowed, err := h.table.MaxLimitFor(score)
	if err != nil {
		return contractx.TurnReply{}, err
	}

	sess.ClearInterview()
	sess.ActiveHandler = string(contractx.HandlerKindCredit)
	sess.PendingOffer = statex.OfferIncrease
	metricsx.InterviewsCompletedTotal.Inc()

	h.log.Info().Str("customer", bank.MaskIdentifier(req.CustomerID)).
		Int("score", score).Msg("interview completed")
	return contractx.TurnReply{Message: fmt.Sprintf(msgInterviewDone, score, maxAllowed)}, nil
}
