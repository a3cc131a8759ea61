package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	contractx "github.com/agilbank/teller/agent/contract"
	statex "github.com/agilbank/teller/agent/state"
	"github.com/agilbank/teller/fx"
	logx "github.com/agilbank/teller/pkg/logger"
)

const (
	msgAskPair = "I can quote exchange rates for you. Which currencies? " +
		"For example: \"100 USD to EUR\"."
	msgAskQuoteFmt = "Got it, converting from %s. Into which currency?"
	msgRateDown    = "I could not reach the exchange rate service just now. " +
		"Please try again in a moment."
	msgUnsupportedFmt = "I can only quote these currencies: %s. Which pair would you like?"
	msgQuoteFmt       = "%s = %s (rate %.4f)."
	msgStaleFmt       = " Heads up: the rate service is unreachable right now, " +
		"so this is the last rate I have, from %s."
)

// RateSource is the slice of the rate cache the exchange handler needs.
type RateSource interface {
	Quote(ctx context.Context, base, quote string) (fx.Quote, error)
	SupportedList() []string
}

// ExchangeHandler quotes currency conversions. A turn that names only one
// currency parks it in the session and asks for the other; the next turn
// completes the pair.
type ExchangeHandler struct {
	rates RateSource
	log   zerolog.Logger
}

var _ contractx.Handler = (*ExchangeHandler)(nil)

func NewExchangeHandler(rates RateSource) (*ExchangeHandler, error) {
	if rates == nil {
		return nil, errors.New("rate source is required")
	}
	return &ExchangeHandler{rates: rates, log: logx.With("exchange")}, nil
}

func (h *ExchangeHandler) Kind() contractx.HandlerKind {
	return contractx.HandlerKindExchange
}

func (h *ExchangeHandler) Handle(ctx context.Context, req contractx.TurnRequest, sess *statex.Session) (contractx.TurnReply, error) {
	base, quote := h.resolvePair(req.Intent.Currencies, sess)

	amount := req.Intent.Amount
	if amount == nil {
		amount = sess.PendingAmount
	}

	if base == "" {
		sess.PendingAmount = amount
		return contractx.TurnReply{Message: msgAskPair}, nil
	}
	if quote == "" {
		sess.PendingBaseCurrency = base
		sess.PendingAmount = amount
		return contractx.TurnReply{Message: fmt.Sprintf(msgAskQuoteFmt, base)}, nil
	}

	return h.quote(ctx, sess, base, quote, amount)
}

// resolvePair merges the codes of this turn with a base parked by a previous
// one. A turn that restates a full pair wins over the parked base.
func (h *ExchangeHandler) resolvePair(codes []string, sess *statex.Session) (base, quote string) {
	switch {
	case len(codes) >= 2:
		return codes[0], codes[1]
	case sess.PendingBaseCurrency != "":
		if len(codes) == 1 {
			return sess.PendingBaseCurrency, codes[0]
		}
		return sess.PendingBaseCurrency, ""
	case len(codes) == 1:
		return codes[0], ""
	default:
		return "", ""
	}
}

func (h *ExchangeHandler) quote(ctx context.Context, sess *statex.Session, base, quote string, amount *float64) (contractx.TurnReply, error) {
	sess.ClearPendingExchange()

	value := 1.0
	if amount != nil {
		value = *amount
	}

	q, err := h.rates.Quote(ctx, base, quote)
	if err != nil {
		switch {
		case errors.Is(err, fx.ErrUnsupportedCurrency):
			supported := strings.Join(h.rates.SupportedList(), ", ")
			return contractx.TurnReply{Message: fmt.Sprintf(msgUnsupportedFmt, supported)}, nil
		case errors.Is(err, fx.ErrTimeout), errors.Is(err, fx.ErrRateUnavailable):
			h.log.Warn().Err(err).Str("base", base).Str("quote", quote).
				Msg("rate lookup failed")
			return contractx.TurnReply{Message: msgRateDown}, nil
		default:
			return contractx.TurnReply{}, err
		}
	}

	converted := fx.RoundMinor(value*q.Rate, quote)
	message := fmt.Sprintf(msgQuoteFmt, fx.FormatAmount(value, base), fx.FormatAmount(converted, quote), q.Rate)
	if q.Stale {
		message += fmt.Sprintf(msgStaleFmt, q.FetchedAt.Format("Jan 2 15:04 MST"))
	}
	return contractx.TurnReply{Message: message}, nil
}
