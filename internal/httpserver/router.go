package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/middleware/csrf"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/pkg/logging"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
)

type Deps struct {
	Logger *slog.Logger

	Session  *session.Manager
	Cart     *cart.Store
	Checkout *checkout.Orchestrator
	Catalog  Catalog
	Events   events.Publisher

	// APIURL is the remote storefront API catalog reads are proxied to.
	APIURL string

	AllowOrigins []string
	// CSRF is nil to disable CSRF checks.
	CSRF *csrf.Config

	Now func() time.Time
}

func Common(l *slog.Logger, allowOrigins []string) []echo.MiddlewareFunc {
	cors := ecM.DefaultCORSConfig
	if len(allowOrigins) > 0 {
		cors.AllowOrigins = allowOrigins
		cors.AllowCredentials = true
	}
	cors.AllowHeaders = []string{echo.HeaderContentType, echo.HeaderXRequestID, "X-CSRF-Token"}
	cors.ExposeHeaders = []string{echo.HeaderXRequestID, "X-CSRF-Token"}

	return []echo.MiddlewareFunc{
		ecM.Recover(),
		ecM.RequestID(),
		loggingmw.RequestLogger(l),
		ecM.CORSWithConfig(cors),
		ecM.Secure(),
	}
}

func Register(e *echo.Echo, d *Deps) error {
	if d.Events == nil {
		d.Events = events.NopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Session.IsInitializing() {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	for _, m := range Common(d.Logger, d.AllowOrigins) {
		e.Use(m)
	}

	catalogProxy, err := newProxy(d.APIURL, "/api")
	if err != nil {
		return err
	}

	sessionHTTP := &SessionHTTP{Session: d.Session, Events: d.Events}
	cartHTTP := &CartHTTP{Cart: d.Cart, Catalog: d.Catalog, Session: d.Session, Events: d.Events}
	checkoutHTTP := &CheckoutHTTP{Checkout: d.Checkout, Events: d.Events}

	api := e.Group("/api")
	if d.CSRF != nil {
		api.Use(csrf.Middleware(*d.CSRF))
	}

	api.GET("/products", catalogProxy)
	api.GET("/products/*", catalogProxy)

	api.GET("/session", sessionHTTP.Get)
	api.POST("/session/login", sessionHTTP.Login)
	api.POST("/session/signup", sessionHTTP.Signup)
	api.POST("/session/logout", sessionHTTP.Logout)

	profile := api.Group("/session/profile", auth.RequireSession(d.Session, d.Now))
	profile.GET("", sessionHTTP.Profile)
	profile.PUT("", sessionHTTP.UpdateProfile)
	api.PUT("/session/profile-picture", sessionHTTP.UpdateProfilePicture, auth.RequireSession(d.Session, d.Now))

	api.GET("/cart", cartHTTP.Get)
	api.DELETE("/cart", cartHTTP.Clear)
	api.POST("/cart/items", cartHTTP.Add)
	api.PATCH("/cart/items/:id", cartHTTP.UpdateQuantity)
	api.DELETE("/cart/items/:id", cartHTTP.Remove)

	api.POST("/checkout", checkoutHTTP.PlaceOrder)

	return nil
}
