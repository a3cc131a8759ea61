package enginenode

import (
	"context"
	"fmt"

	contractx "github.com/agilbank/teller/agent/contract"
	intentx "github.com/agilbank/teller/agent/intent"
	routerx "github.com/agilbank/teller/agent/router"
	metricsx "github.com/agilbank/teller/pkg/metrics"
)

// RouteTurn classifies the turn and applies the routing policy. When the
// keyword classifier comes up empty the interpreter gets a second look; its
// reading is a hint and anything it cannot provide stays deterministic.
func RouteTurn(ctx context.Context, in *GraphState, interp contractx.Interpreter) (*GraphState, error) {
	if in == nil || in.Sess == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	in.Intent = intentx.Classify(in.Text)
	if in.Intent.Kind == contractx.IntentUnknown {
		ext, err := interp.ExtractIntent(ctx, contractx.ExtractRequest{
			UserMessage:   in.Text,
			ActiveHandler: in.Sess.ActiveHandler,
		})
		if err != nil {
			metricsx.InterpreterFailuresTotal.WithLabelValues("extract").Inc()
		} else if kind := topicIntent(ext.Topic); kind != contractx.IntentUnknown {
			in.Intent = refineIntent(in.Intent, ext, kind)
		}
	}

	decision := routerx.Route(in.Sess, in.Intent)
	switch decision.Action {
	case routerx.ActionDispatch:
		in.Handler = decision.Handler
	default:
		in.Draft = decision.Reply
	}
	return in, nil
}

func topicIntent(topic string) contractx.IntentKind {
	switch topic {
	case "limit_inquiry":
		return contractx.IntentLimitInquiry
	case "limit_increase":
		return contractx.IntentLimitIncrease
	case "interview":
		return contractx.IntentInterview
	case "exchange":
		return contractx.IntentExchange
	case "exit":
		return contractx.IntentExit
	case "cancel":
		return contractx.IntentCancel
	case "affirm":
		return contractx.IntentAffirm
	case "deny":
		return contractx.IntentDeny
	case "smalltalk":
		return contractx.IntentGreeting
	default:
		return contractx.IntentUnknown
	}
}

// refineIntent upgrades the deterministic reading with the interpreter's
// kind. Deterministic extractions win when both sides found one.
func refineIntent(base contractx.Intent, ext contractx.ExtractedIntent, kind contractx.IntentKind) contractx.Intent {
	out := base
	out.Kind = kind

	if out.Amount == nil && ext.Amount > 0 {
		amount := ext.Amount
		out.Amount = &amount
	}
	if len(out.Currencies) == 0 {
		for _, code := range []string{ext.BaseCurrency, ext.QuoteCurrency} {
			if code != "" {
				out.Currencies = append(out.Currencies, code)
			}
		}
	}
	return out
}
