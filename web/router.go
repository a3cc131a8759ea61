package web

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	logx "github.com/agilbank/teller/pkg/logger"
)

// NewRouter builds the Echo instance with all routes registered.
func NewRouter(engine ConversationEngine) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	e.Validator = NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(logx.With("web"))

	conversations := NewConversationHandler(engine)
	e.POST("/conversations/:id/messages", conversations.PostMessage)

	e.GET("/health", health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

func health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
