package web

// messageRequest is one customer utterance posted to a conversation.
type messageRequest struct {
	Text string `json:"text" validate:"required"`
}

type messageResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Closed    bool   `json:"closed,omitempty"`
}

// errorResponse is the standard error envelope returned on all 4xx/5xx
// responses.
type errorResponse struct {
	Error string `json:"error"`
}
