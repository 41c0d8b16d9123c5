package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/storage"
)

func (m *Manager) UpdateProfile(ctx context.Context, fields models.ProfileUpdate) (*models.User, error) {
	return m.mutateProfile(ctx, "update_profile", MsgProfile, func(token string) (*models.User, error) {
		return m.api.UpdateProfile(ctx, token, fields)
	})
}

// UpdateProfilePicture uploads an image encoded as a data URI.
func (m *Manager) UpdateProfilePicture(ctx context.Context, dataURI string) (*models.User, error) {
	if !strings.HasPrefix(dataURI, "data:image/") {
		err := fmt.Errorf("profile picture must be an image data URI: %w", apperr.ErrValidation)
		return nil, apperr.WithMessage(MsgProfilePicture, err)
	}
	return m.mutateProfile(ctx, "update_profile_picture", MsgProfilePicture, func(token string) (*models.User, error) {
		return m.api.UpdateProfilePicture(ctx, token, dataURI)
	})
}

// ProfileSummary fetches the signed-in user together with order statistics
// and refreshes the cached user.
func (m *Manager) ProfileSummary(ctx context.Context) (*models.ProfileSummary, error) {
	token := m.Token()
	if token == "" {
		return nil, apperr.ErrNoSession
	}

	summary, err := m.api.GetCurrentUser(ctx, token)
	if err != nil {
		m.rejected(ctx, token, err)
		m.log.Warn("profile_load_failed", "error", err)
		return nil, apperr.WithMessage(MsgProfileLoad, err)
	}

	if err := m.applyUser(ctx, token, summary.User); err != nil {
		return nil, apperr.WithMessage(MsgProfileLoad, err)
	}
	return summary, nil
}

func (m *Manager) mutateProfile(ctx context.Context, op, msg string, call func(token string) (*models.User, error)) (*models.User, error) {
	token := m.Token()
	if token == "" {
		return nil, apperr.ErrNoSession
	}

	u, err := call(token)
	if err != nil {
		m.rejected(ctx, token, err)
		m.log.Warn(op+"_failed", "error", err)
		return nil, apperr.WithMessage(msg, err)
	}

	if err := m.applyUser(ctx, token, u); err != nil {
		m.log.Info(op+"_superseded")
		return nil, apperr.WithMessage(msg, err)
	}
	m.log.Info(op+"_succeeded", "user_id", u.ID)
	return cloneUser(u), nil
}

// applyUser stores u only if the session that issued the request is still
// the current one.
func (m *Manager) applyUser(ctx context.Context, token string, u *models.User) error {
	if u == nil {
		return apperr.ErrMalformedResponse
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != token {
		return ErrSuperseded
	}
	m.user = cloneUser(u)
	m.store.Write(ctx, storage.SlotUser, m.user)
	return nil
}

// rejected expires the session when the server refused token.
func (m *Manager) rejected(ctx context.Context, token string, err error) {
	if errors.Is(err, apperr.ErrAuth) {
		m.Invalidate(ctx, token)
	}
}
