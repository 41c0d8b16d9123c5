package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/models"
)

func (c *Client) GetProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := c.do(ctx, http.MethodGet, "/products", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if id == "" {
		return nil, fmt.Errorf("product id: %w", apperr.ErrValidation)
	}
	var out models.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), "", nil, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		out.ID = id
	}
	return &out, nil
}

func (c *Client) CreateOrder(ctx context.Context, draft models.OrderDraft) (*models.OrderConfirmation, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/orders", "", draft, &raw); err != nil {
		return nil, err
	}
	return decodeOrder(raw)
}

func (c *Client) RegisterUser(ctx context.Context, details models.SignupDetails) (*models.AuthResult, error) {
	var out models.AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/signup", "", details, &out); err != nil {
		return nil, err
	}
	return checkAuthResult("/auth/signup", &out)
}

func (c *Client) LoginUser(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	var out models.AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", creds, &out); err != nil {
		return nil, err
	}
	return checkAuthResult("/auth/login", &out)
}

// GetCurrentUser validates token against the server. The endpoint answers
// either with a bare user or with {user, orderCount, totalSpent, ...}.
func (c *Client) GetCurrentUser(ctx context.Context, token string) (*models.ProfileSummary, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &raw); err != nil {
		return nil, err
	}
	return decodeProfile(raw)
}

func (c *Client) UpdateProfile(ctx context.Context, token string, fields models.ProfileUpdate) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/auth/profile", token, fields, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, fmt.Errorf("PUT /auth/profile: missing user: %w", apperr.ErrMalformedResponse)
	}
	return out.User, nil
}

func (c *Client) UpdateProfilePicture(ctx context.Context, token, dataURI string) (*models.User, error) {
	body := struct {
		ProfilePicture string `json:"profilePicture"`
	}{ProfilePicture: dataURI}

	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/auth/profile-picture", token, body, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, fmt.Errorf("PUT /auth/profile-picture: missing user: %w", apperr.ErrMalformedResponse)
	}
	return out.User, nil
}

func checkAuthResult(path string, r *models.AuthResult) (*models.AuthResult, error) {
	if r.User == nil || r.Token == "" {
		return nil, fmt.Errorf("POST %s: missing user or token: %w", path, apperr.ErrMalformedResponse)
	}
	return r, nil
}

func decodeProfile(raw json.RawMessage) (*models.ProfileSummary, error) {
	var wrapped models.ProfileSummary
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("GET /auth/me: %w: %w", apperr.ErrMalformedResponse, err)
	}
	if wrapped.User != nil && wrapped.User.ID != "" {
		return &wrapped, nil
	}

	var bare models.User
	if err := json.Unmarshal(raw, &bare); err != nil || bare.ID == "" {
		return nil, fmt.Errorf("GET /auth/me: no user in response: %w", apperr.ErrMalformedResponse)
	}
	return &models.ProfileSummary{User: &bare}, nil
}

func decodeOrder(raw json.RawMessage) (*models.OrderConfirmation, error) {
	var wrapped struct {
		Order *models.OrderConfirmation `json:"order"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Order != nil {
		return wrapped.Order, nil
	}

	var bare models.OrderConfirmation
	if err := json.Unmarshal(raw, &bare); err != nil {
		return nil, fmt.Errorf("POST /orders: %w: %w", apperr.ErrMalformedResponse, err)
	}
	return &bare, nil
}
