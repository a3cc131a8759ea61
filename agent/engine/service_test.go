package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	authx "github.com/agilbank/teller/agent/auth"
	contractx "github.com/agilbank/teller/agent/contract"
	handlersx "github.com/agilbank/teller/agent/handlers"
	statex "github.com/agilbank/teller/agent/state"
	"github.com/agilbank/teller/bank"
	"github.com/agilbank/teller/fx"
)

type fakeRateSource struct {
	rate fx.Quote
	err  error
}

func (f *fakeRateSource) Quote(ctx context.Context, base, quote string) (fx.Quote, error) {
	if f.err != nil {
		return fx.Quote{}, f.err
	}
	q := f.rate
	q.Base = base
	q.Quote = quote
	return q, nil
}

func (f *fakeRateSource) SupportedList() []string {
	return []string{"BRL", "EUR", "JPY", "USD"}
}

type scriptedInterpreter struct {
	extract      contractx.ExtractedIntent
	extractErr   error
	extractCalls int

	narration     string
	narrateErr    error
	narrateCalls  int
	lastNarration contractx.NarrateRequest
}

func (s *scriptedInterpreter) ExtractIntent(ctx context.Context, req contractx.ExtractRequest) (contractx.ExtractedIntent, error) {
	s.extractCalls++
	if s.extractErr != nil {
		return contractx.ExtractedIntent{}, s.extractErr
	}
	return s.extract, nil
}

func (s *scriptedInterpreter) Narrate(ctx context.Context, req contractx.NarrateRequest) (string, error) {
	s.narrateCalls++
	s.lastNarration = req
	if s.narrateErr != nil {
		return req.Draft, s.narrateErr
	}
	if s.narration == "" {
		return req.Draft, nil
	}
	return s.narration, nil
}

type engineFixture struct {
	engine    *Engine
	store     *statex.MemoryStore
	directory *bank.MemoryDirectory
	ledger    *bank.MemoryLedger
	rates     *fakeRateSource
}

func newTestEngine(t *testing.T, opts ...Option) engineFixture {
	t.Helper()

	directory := bank.NewMemoryDirectory(bank.CustomerRecord{
		Identifier: "12345678901",
		Name:       "Ana Souza",
		BirthDate:  time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC),
		Score:      600,
		Limit:      5000,
	})
	ledger := bank.NewMemoryLedger()
	locks := bank.NewCustomerLocks()
	table := bank.DefaultScoreLimitTable()
	store := statex.NewMemoryStore()
	rates := &fakeRateSource{rate: fx.Quote{
		Rate:      0.92,
		FetchedAt: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}}

	credit, err := handlersx.NewCreditHandler(directory, table, ledger, locks)
	if err != nil {
		t.Fatalf("NewCreditHandler: %v", err)
	}
	interview, err := handlersx.NewInterviewHandler(directory, table, bank.DefaultScoreWeights(), locks)
	if err != nil {
		t.Fatalf("NewInterviewHandler: %v", err)
	}
	exchange, err := handlersx.NewExchangeHandler(rates)
	if err != nil {
		t.Fatalf("NewExchangeHandler: %v", err)
	}
	registry, err := handlersx.NewRegistry(credit, interview, exchange)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	machine := authx.MustNewMachine(directory, authx.Config{MaxAttempts: 3})

	eng, err := New(store, machine, registry, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return engineFixture{
		engine:    eng,
		store:     store,
		directory: directory,
		ledger:    ledger,
		rates:     rates,
	}
}

// turn sends one message and fails the test on error or missing substring.
func turn(t *testing.T, eng *Engine, sessionID, text, wantSubstring string) Turn {
	t.Helper()
	out, err := eng.HandleTurn(context.Background(), sessionID, text)
	if err != nil {
		t.Fatalf("HandleTurn(%q) error = %v", text, err)
	}
	if wantSubstring != "" && !strings.Contains(out.Reply, wantSubstring) {
		t.Fatalf("HandleTurn(%q) reply = %q, want substring %q", text, out.Reply, wantSubstring)
	}
	return out
}

// authenticate walks the identification flow for the seeded customer.
func authenticate(t *testing.T, eng *Engine, sessionID string) {
	t.Helper()
	turn(t, eng, sessionID, "hello", "11 digit customer identifier")
	turn(t, eng, sessionID, "123.456.789-01", "birth date")
	turn(t, eng, sessionID, "1990-03-14", "Welcome back, Ana")
}

func TestHandleTurnInvalidInput(t *testing.T) {
	t.Parallel()

	f := newTestEngine(t)

	_, err := f.engine.HandleTurn(context.Background(), "   ", "hello")
	if !errors.Is(err, ErrEmptySessionID) {
		t.Fatalf("expected ErrEmptySessionID, got %v", err)
	}
	if !errors.Is(err, contractx.ErrMalformedInput) {
		t.Fatalf("empty session id must classify as malformed input, got %v", err)
	}

	_, err = f.engine.HandleTurn(context.Background(), "s1", "   ")
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestCreditDecisionTriple(t *testing.T) {
	t.Parallel()

	f := newTestEngine(t)
	authenticate(t, f.engine, "session-credit")

	// Same value as the current limit: nothing changes, nothing is recorded.
	turn(t, f.engine, "session-credit", "raise my limit to 5000", "already your current limit")
	entries, err := f.ledger.ListByCustomer(context.Background(), "12345678901")
	if err != nil {
		t.Fatalf("ListByCustomer: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("no-change decision must not reach the ledger, got %d entries", len(entries))
	}

	// Below the current limit is still an approval.
	turn(t, f.engine, "session-credit", "raise my limit to 4000", "from 5000.00 to 4000.00")
	rec, err := f.directory.Get(context.Background(), "12345678901")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Limit != 4000 {
		t.Fatalf("limit = %v, want 4000", rec.Limit)
	}

	// Above the score ceiling: rejected, recorded, interview offered.
	turn(t, f.engine, "session-credit", "raise my limit to 6000", "interview")

	entries, err = f.ledger.ListByCustomer(context.Background(), "12345678901")
	if err != nil {
		t.Fatalf("ListByCustomer: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ledger entries = %d, want 2", len(entries))
	}
	if entries[0].Status != bank.RequestApproved || entries[0].RequestedLimit != 4000 {
		t.Fatalf("first entry = %+v, want approved 4000", entries[0])
	}
	if entries[1].Status != bank.RequestRejected || entries[1].RequestedLimit != 6000 {
		t.Fatalf("second entry = %+v, want rejected 6000", entries[1])
	}
	if entries[1].Reason == "" {
		t.Fatalf("rejected entry must carry a reason")
	}

	// The bare yes consumes the interview offer.
	turn(t, f.engine, "session-credit", "yes", "monthly income")
}

func TestInterviewRecalculatesScore(t *testing.T) {
	t.Parallel()

	f := newTestEngine(t)
	authenticate(t, f.engine, "session-interview")

	turn(t, f.engine, "session-interview", "I want a credit interview", "monthly income")
	turn(t, f.engine, "session-interview", "5000", "employment")
	turn(t, f.engine, "session-interview", "employed", "expenses")
	turn(t, f.engine, "session-interview", "1500", "dependents")
	turn(t, f.engine, "session-interview", "0", "debts")
	turn(t, f.engine, "session-interview", "no", "599")

	rec, err := f.directory.Get(context.Background(), "12345678901")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Score != 599 {
		t.Fatalf("score = %d, want 599", rec.Score)
	}

	// Control returns to credit with an increase offer on the table.
	turn(t, f.engine, "session-interview", "yes", "What limit would you like?")
}

func TestExchangeQuoteFlow(t *testing.T) {
	t.Parallel()

	f := newTestEngine(t)
	authenticate(t, f.engine, "session-fx")

	out := turn(t, f.engine, "session-fx", "how much is 100 USD in EUR", "92.00 EUR")
	if !strings.Contains(out.Reply, "100.00 USD") {
		t.Fatalf("reply %q missing the base amount", out.Reply)
	}
	if out.Closed {
		t.Fatalf("exchange turn must not close the conversation")
	}
}

func TestLockoutIsTerminal(t *testing.T) {
	t.Parallel()

	f := newTestEngine(t)
	session := "session-lock"

	turn(t, f.engine, session, "hi", "identifier")
	for i := 0; i < 2; i++ {
		turn(t, f.engine, session, "12345678901", "birth date")
		turn(t, f.engine, session, "1991-01-01", "does not match")
	}
	turn(t, f.engine, session, "12345678901", "birth date")
	out := turn(t, f.engine, session, "1991-01-01", "locked")
	if !out.Closed {
		t.Fatalf("lockout turn must close the conversation")
	}

	// The lock survives new turns and store round-trips.
	out = turn(t, f.engine, session, "hello, let me try again", "locked")
	if !out.Closed {
		t.Fatalf("turns on a locked session must stay closed")
	}

	sess, err := f.store.Load(context.Background(), session)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sess.Phase != statex.PhaseLockedOut {
		t.Fatalf("phase = %q, want locked out", sess.Phase)
	}
}

func TestExitClosesAndRestartsFresh(t *testing.T) {
	t.Parallel()

	f := newTestEngine(t)
	authenticate(t, f.engine, "session-exit")

	out := turn(t, f.engine, "session-exit", "exit", "Goodbye")
	if !out.Closed {
		t.Fatalf("exit turn must close the conversation")
	}

	// A new message on the same id starts a fresh conversation.
	out = turn(t, f.engine, "session-exit", "hello", "identifier")
	if out.Closed {
		t.Fatalf("fresh conversation must not be closed")
	}
}

func TestInterpreterRefinesUnknownIntent(t *testing.T) {
	t.Parallel()

	interp := &scriptedInterpreter{
		extract: contractx.ExtractedIntent{Topic: "limit_increase"},
	}
	f := newTestEngine(t, WithInterpreter(interp))
	authenticate(t, f.engine, "session-llm")

	turn(t, f.engine, "session-llm", "hmm I could use some more spending room", "What limit would you like?")
	if interp.extractCalls != 1 {
		t.Fatalf("extract calls = %d, want 1", interp.extractCalls)
	}
}

func TestInterpreterFailureFallsBackToMenu(t *testing.T) {
	t.Parallel()

	interp := &scriptedInterpreter{
		extractErr: contractx.ErrModelInvoke,
	}
	f := newTestEngine(t, WithInterpreter(interp))
	authenticate(t, f.engine, "session-llm-down")

	turn(t, f.engine, "session-llm-down", "hmm I could use some more spending room", "Here is what I can do")
}

func TestNarrationRewritesHandlerReply(t *testing.T) {
	t.Parallel()

	interp := &scriptedInterpreter{
		narration: "Sure thing! You are good for 5000.00 right now. Want more?",
	}
	f := newTestEngine(t, WithInterpreter(interp))
	authenticate(t, f.engine, "session-tone")

	out := turn(t, f.engine, "session-tone", "what is my limit", "Want more?")
	if out.Reply != interp.narration {
		t.Fatalf("reply = %q, want the narrated text", out.Reply)
	}
	if interp.lastNarration.Persona != "credit" {
		t.Fatalf("persona = %q, want credit", interp.lastNarration.Persona)
	}
	if !strings.Contains(interp.lastNarration.Draft, "5000.00") {
		t.Fatalf("draft %q must carry the deterministic figure", interp.lastNarration.Draft)
	}
}

func TestAuthRepliesAreNotNarrated(t *testing.T) {
	t.Parallel()

	interp := &scriptedInterpreter{narration: "should never appear"}
	f := newTestEngine(t, WithInterpreter(interp))

	turn(t, f.engine, "session-plain", "hello", "identifier")
	if interp.narrateCalls != 0 {
		t.Fatalf("narrate calls = %d, want 0", interp.narrateCalls)
	}
}

func TestHistoryIsRecorded(t *testing.T) {
	t.Parallel()

	f := newTestEngine(t)
	turn(t, f.engine, "session-history", "hello", "")

	sess, err := f.store.Load(context.Background(), "session-history")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sess.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(sess.History))
	}
	if sess.History[0].Role != statex.RoleCustomer || sess.History[0].Text != "hello" {
		t.Fatalf("first history entry = %+v", sess.History[0])
	}
	if sess.History[1].Role != statex.RoleAssistant {
		t.Fatalf("second history entry = %+v", sess.History[1])
	}
}
