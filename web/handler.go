// Package web exposes the conversation engine over HTTP: one endpoint that
// takes a customer message and returns the teller's reply.
package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	enginex "github.com/agilbank/teller/agent/engine"
)

// ConversationEngine is the slice of the engine the web layer needs.
type ConversationEngine interface {
	HandleTurn(ctx context.Context, sessionID string, text string) (enginex.Turn, error)
}

type ConversationHandler struct {
	engine ConversationEngine
}

func NewConversationHandler(engine ConversationEngine) *ConversationHandler {
	return &ConversationHandler{engine: engine}
}

// PostMessage handles POST /conversations/:id/messages.
func (h *ConversationHandler) PostMessage(c echo.Context) error {
	sessionID := strings.TrimSpace(c.Param("id"))
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation id is required")
	}

	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	turn, err := h.engine.HandleTurn(c.Request().Context(), sessionID, req.Text)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{
		SessionID: sessionID,
		Reply:     turn.Reply,
		Closed:    turn.Closed,
	})
}
