package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

// Sessions is what the middleware needs from the session manager.
type Sessions interface {
	Session() (models.Session, bool)
	Invalidate(ctx context.Context, token string) bool
}

// RequireSession rejects requests made while signed out. A token whose exp
// has passed ends the session before the request reaches the remote API.
func RequireSession(s Sessions, now func() time.Time) echo.MiddlewareFunc {
	if now == nil {
		now = time.Now
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			sess, ok := s.Session()
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Please sign in to continue.")
			}
			if tokens.Expired(sess.Token, now()) {
				s.Invalidate(ctx, sess.Token)
				logging.FromContext(ctx).Info("session_token_expired", "user_id", sess.User.ID)
				return echo.NewHTTPError(http.StatusUnauthorized, "Your session has expired. Please sign in again.")
			}

			c.Set("user_id", sess.User.ID)
			return next(c)
		}
	}
}
