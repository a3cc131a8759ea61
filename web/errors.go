package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	contractx "github.com/agilbank/teller/agent/contract"
	"github.com/agilbank/teller/bank"
	fxx "github.com/agilbank/teller/fx"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps known
// sentinels to deterministic HTTP codes, logs everything unexpected, and
// renders the {"error": "<message>"} envelope.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from the router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, contractx.ErrMalformedInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, bank.ErrCustomerNotFound):
		return http.StatusNotFound, "customer not found"
	case errors.Is(err, contractx.ErrValidation):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, fxx.ErrTimeout):
		return http.StatusGatewayTimeout, "rate source timed out"
	case errors.Is(err, fxx.ErrRateUnavailable):
		return http.StatusBadGateway, "rate source unavailable"
	case errors.Is(err, contractx.ErrModelInvoke):
		return http.StatusBadGateway, "language backend unavailable"
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
