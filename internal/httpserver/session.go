package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type SessionHTTP struct {
	Session *session.Manager
	Events  events.Publisher
}

func (h *SessionHTTP) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Session.Snapshot())
}

func (h *SessionHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.login")

	var req models.Credentials
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid body"})
	}

	u, err := h.Session.Login(ctx, req)
	if err != nil {
		return respondError(c, l, "login_error", err, session.MsgLogin)
	}

	events.Emit(ctx, h.Events, events.TopicUser, u.ID, events.New("logged_in", u.ID, nil))
	l.Info("user logged in", "user_id", u.ID)
	return c.JSON(http.StatusOK, h.Session.Snapshot())
}

func (h *SessionHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.signup")

	var req models.SignupDetails
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid body"})
	}

	u, err := h.Session.Signup(ctx, req)
	if err != nil {
		return respondError(c, l, "signup_error", err, session.MsgSignup)
	}

	events.Emit(ctx, h.Events, events.TopicUser, u.ID, events.New("signed_up", u.ID, nil))
	l.Info("user signed up", "user_id", u.ID)
	return c.JSON(http.StatusCreated, h.Session.Snapshot())
}

func (h *SessionHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	var userID string
	if u := h.Session.User(); u != nil {
		userID = u.ID
	}
	h.Session.Logout(ctx)

	if userID != "" {
		events.Emit(ctx, h.Events, events.TopicUser, userID, events.New("logged_out", userID, nil))
	}
	return c.JSON(http.StatusOK, h.Session.Snapshot())
}

func (h *SessionHTTP) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.profile")

	summary, err := h.Session.ProfileSummary(ctx)
	if err != nil {
		return respondError(c, l, "get_profile_error", err, session.MsgProfileLoad)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *SessionHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.update.profile")

	var req models.ProfileUpdate
	if err := c.Bind(&req); err != nil {
		l.Warn("update_profile_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid body"})
	}

	u, err := h.Session.UpdateProfile(ctx, req)
	if err != nil {
		return respondError(c, l, "update_profile_error", err, session.MsgProfile)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

func (h *SessionHTTP) UpdateProfilePicture(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.update.picture")

	var req struct {
		ProfilePicture string `json:"profilePicture"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("update_picture_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid body"})
	}

	u, err := h.Session.UpdateProfilePicture(ctx, req.ProfilePicture)
	if err != nil {
		return respondError(c, l, "update_picture_error", err, session.MsgProfilePicture)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}
