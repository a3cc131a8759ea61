package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	contractx "github.com/agilbank/teller/agent/contract"
	enginex "github.com/agilbank/teller/agent/engine"
	"github.com/agilbank/teller/bank"
	fxx "github.com/agilbank/teller/fx"
)

type stubEngine struct {
	handleFn func(ctx context.Context, sessionID string, text string) (enginex.Turn, error)
}

func (s *stubEngine) HandleTurn(ctx context.Context, sessionID string, text string) (enginex.Turn, error) {
	return s.handleFn(ctx, sessionID, text)
}

func postMessage(t *testing.T, engine ConversationEngine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(engine)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPostMessageSuccess(t *testing.T) {
	stub := &stubEngine{
		handleFn: func(ctx context.Context, sessionID string, text string) (enginex.Turn, error) {
			if sessionID != "conv-1" {
				t.Fatalf("session id = %q, want conv-1", sessionID)
			}
			if text != "hello" {
				t.Fatalf("text = %q, want hello", text)
			}
			return enginex.Turn{Reply: "Welcome to AgilBank!"}, nil
		},
	}

	rec := postMessage(t, stub, "/conversations/conv-1/messages", `{"text":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["session_id"] != "conv-1" {
		t.Fatalf("session_id = %v", resp["session_id"])
	}
	if resp["reply"] != "Welcome to AgilBank!" {
		t.Fatalf("reply = %v", resp["reply"])
	}
	if _, ok := resp["closed"]; ok {
		t.Fatalf("closed must be omitted while the conversation is open")
	}
}

func TestPostMessageClosedConversation(t *testing.T) {
	stub := &stubEngine{
		handleFn: func(ctx context.Context, sessionID string, text string) (enginex.Turn, error) {
			return enginex.Turn{Reply: "Goodbye!", Closed: true}, nil
		},
	}

	rec := postMessage(t, stub, "/conversations/conv-2/messages", `{"text":"exit"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["closed"] != true {
		t.Fatalf("closed = %v, want true", resp["closed"])
	}
}

func TestPostMessageRejectsMissingText(t *testing.T) {
	stub := &stubEngine{
		handleFn: func(ctx context.Context, sessionID string, text string) (enginex.Turn, error) {
			t.Fatal("engine must not be called")
			return enginex.Turn{}, nil
		},
	}

	rec := postMessage(t, stub, "/conversations/conv-3/messages", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "text is required") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestPostMessageRejectsBadJSON(t *testing.T) {
	stub := &stubEngine{
		handleFn: func(ctx context.Context, sessionID string, text string) (enginex.Turn, error) {
			t.Fatal("engine must not be called")
			return enginex.Turn{}, nil
		},
	}

	rec := postMessage(t, stub, "/conversations/conv-4/messages", `not json at all`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPostMessageRejectsBlankConversationID(t *testing.T) {
	stub := &stubEngine{
		handleFn: func(ctx context.Context, sessionID string, text string) (enginex.Turn, error) {
			t.Fatal("engine must not be called")
			return enginex.Turn{}, nil
		},
	}

	rec := postMessage(t, stub, "/conversations/%20/messages", `{"text":"hello"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"malformed input", fmt.Errorf("%w: message is empty", contractx.ErrMalformedInput), http.StatusBadRequest},
		{"customer not found", fmt.Errorf("look up customer: %w", bank.ErrCustomerNotFound), http.StatusNotFound},
		{"validation", fmt.Errorf("%w: empty reply", contractx.ErrValidation), http.StatusUnprocessableEntity},
		{"rate timeout", fxx.ErrTimeout, http.StatusGatewayTimeout},
		{"rate unavailable", fxx.ErrRateUnavailable, http.StatusBadGateway},
		{"model invoke", contractx.ErrModelInvoke, http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubEngine{
				handleFn: func(ctx context.Context, sessionID string, text string) (enginex.Turn, error) {
					return enginex.Turn{}, tc.err
				},
			}

			rec := postMessage(t, stub, "/conversations/conv-err/messages", `{"text":"hello"}`)
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tc.wantCode, rec.Body.String())
			}

			var resp map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp["error"] == "" {
				t.Fatalf("error envelope missing: %s", rec.Body.String())
			}
		})
	}
}

func TestUnexpectedErrorIsNotLeaked(t *testing.T) {
	stub := &stubEngine{
		handleFn: func(ctx context.Context, sessionID string, text string) (enginex.Turn, error) {
			return enginex.Turn{}, errors.New("pg: connection refused at 10.0.0.7")
		},
	}

	rec := postMessage(t, stub, "/conversations/conv-leak/messages", `{"text":"hello"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.7") {
		t.Fatalf("internal details leaked: %s", rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := NewRouter(&stubEngine{
		handleFn: func(ctx context.Context, sessionID string, text string) (enginex.Turn, error) {
			return enginex.Turn{}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := NewRouter(&stubEngine{
		handleFn: func(ctx context.Context, sessionID string, text string) (enginex.Turn, error) {
			return enginex.Turn{}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("metrics body is empty")
	}
}
