package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog"

	contractx "github.com/agilbank/teller/agent/contract"
	promptx "github.com/agilbank/teller/agent/prompt"
	logx "github.com/agilbank/teller/pkg/logger"
)

// Interpreter drives the two language jobs of the teller: a second opinion on
// turns the keyword classifier could not place, and persona rewrites of
// deterministic drafts.
type Interpreter struct {
	client   *openaisdk.Client
	cfg      Config
	prompts  promptx.PromptSet
	validate *validator.Validate
	log      zerolog.Logger
}

var _ contractx.Interpreter = (*Interpreter)(nil)

func NewInterpreter(cfg Config, prompts promptx.PromptSet) (*Interpreter, error) {
	if !cfg.Enabled() {
		return nil, errors.New("llm: interpreter requires an api key")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Interpreter{
		client:   NewClient(cfg),
		cfg:      cfg,
		prompts:  prompts,
		validate: validator.New(),
		log:      logx.With("llm"),
	}, nil
}

func MustNewInterpreter(cfg Config, prompts promptx.PromptSet) *Interpreter {
	it, err := NewInterpreter(cfg, prompts)
	if err != nil {
		panic(err)
	}
	return it
}

// ExtractIntent asks the triage model to read one turn. The output is decoded
// and validated before it is handed back; anything out of shape is an error
// and the caller keeps the deterministic reading.
func (i *Interpreter) ExtractIntent(ctx context.Context, req contractx.ExtractRequest) (contractx.ExtractedIntent, error) {
	var out contractx.ExtractedIntent

	active := strings.TrimSpace(req.ActiveHandler)
	if active == "" {
		active = "none"
	}
	user := fmt.Sprintf("Active flow: %s\nCustomer message: %s", active, req.UserMessage)

	content, err := i.complete(ctx, PersonaTriage, i.prompts.Triage, user)
	if err != nil {
		return out, err
	}
	if err := decodeJSON(content, &out); err != nil {
		return out, fmt.Errorf("%w: triage output: %v", contractx.ErrModelInvoke, err)
	}
	if err := i.validate.Struct(out); err != nil {
		return out, fmt.Errorf("%w: triage output: %v", contractx.ErrValidation, err)
	}
	out.BaseCurrency = strings.ToUpper(strings.TrimSpace(out.BaseCurrency))
	out.QuoteCurrency = strings.ToUpper(strings.TrimSpace(out.QuoteCurrency))

	i.log.Debug().Str("topic", out.Topic).Msg("triage extracted intent")
	return out, nil
}

// Narrate rewrites a deterministic draft in the persona voice. Missing prompt
// or empty model output both fall back to the draft itself, so callers can
// always ship what comes back.
func (i *Interpreter) Narrate(ctx context.Context, req contractx.NarrateRequest) (string, error) {
	system := i.promptFor(req.Persona)
	if system == "" || strings.TrimSpace(req.Draft) == "" {
		return req.Draft, nil
	}

	user := fmt.Sprintf("Customer message: %s\nDraft reply: %s", req.UserMessage, req.Draft)
	content, err := i.complete(ctx, req.Persona, system, user)
	if err != nil {
		return req.Draft, err
	}
	if strings.TrimSpace(content) == "" {
		return req.Draft, nil
	}
	return strings.TrimSpace(content), nil
}

func (i *Interpreter) promptFor(persona string) string {
	switch persona {
	case PersonaCredit:
		return i.prompts.Credit
	case PersonaInterview:
		return i.prompts.Interview
	case PersonaExchange:
		return i.prompts.Exchange
	default:
		return ""
	}
}

func (i *Interpreter) complete(ctx context.Context, persona, system, user string) (string, error) {
	model, temp := i.cfg.ModelFor(persona)

	completion, err := i.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(system),
			openaisdk.UserMessage(user),
		},
		Temperature: openaisdk.Float(temp),
		MaxTokens:   openaisdk.Int(int64(i.cfg.MaxCompletionToken)),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", contractx.ErrModelInvoke, persona, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: %s: empty completion", contractx.ErrModelInvoke, persona)
	}
	return completion.Choices[0].Message.Content, nil
}

// decodeJSON strips the markdown fences models sometimes wrap around JSON and
// decodes the remainder.
func decodeJSON(content string, out any) error {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("empty content")
	}
	return json.Unmarshal([]byte(s), out)
}
