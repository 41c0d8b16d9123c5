package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/session"
)

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps an error to the status the UI sees and the text it shows.
func statusFor(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, apperr.Message(err, "Please check the form and try again.")
	case errors.Is(err, apperr.ErrEmptyCart):
		return http.StatusConflict, "Your cart is empty."
	case errors.Is(err, checkout.ErrInProgress):
		return http.StatusConflict, "Your order is already being placed."
	case errors.Is(err, apperr.ErrNoSession):
		return http.StatusUnauthorized, "Please sign in to continue."
	case errors.Is(err, apperr.ErrAuth):
		return http.StatusUnauthorized, apperr.Message(err, fallback)
	case errors.Is(err, session.ErrSuperseded):
		return http.StatusConflict, apperr.Message(err, fallback)
	case apiclient.IsStatus(err, http.StatusNotFound):
		return http.StatusNotFound, "Not found."
	}

	var se *apiclient.StatusError
	if errors.Is(err, apperr.ErrNetwork) || errors.Is(err, apperr.ErrMalformedResponse) || errors.As(err, &se) {
		return http.StatusBadGateway, apperr.Message(err, fallback)
	}
	return http.StatusInternalServerError, apperr.Message(err, fallback)
}

func respondError(c echo.Context, l *slog.Logger, event string, err error, fallback string) error {
	status, msg := statusFor(err, fallback)
	if status >= 500 {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "error", err)
	}
	return c.JSON(status, errorBody{Error: msg})
}
