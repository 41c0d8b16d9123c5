// Package session owns the authentication state of the single storefront
// shopper: who is signed in, with which token, and whether the persisted
// session has been confirmed with the server yet.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/internal/validation"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

type State int

const (
	Initializing State = iota
	Unauthenticated
	Authenticated
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

const (
	MsgLogin          = "Unable to login. Please try again."
	MsgSignup         = "Unable to create account. Please try again."
	MsgProfile        = "Failed to update profile. Please try again."
	MsgProfilePicture = "Failed to upload profile picture. Please try again."
	MsgProfileLoad    = "Failed to load profile. Please try again."
)

// ErrSuperseded is returned when a request finished after a newer session
// change had already been applied; its result was discarded.
var ErrSuperseded = errors.New("superseded by a newer session change")

// API is the subset of the remote storefront API the session needs.
type API interface {
	GetCurrentUser(ctx context.Context, token string) (*models.ProfileSummary, error)
	LoginUser(ctx context.Context, creds models.Credentials) (*models.AuthResult, error)
	RegisterUser(ctx context.Context, details models.SignupDetails) (*models.AuthResult, error)
	UpdateProfile(ctx context.Context, token string, fields models.ProfileUpdate) (*models.User, error)
	UpdateProfilePicture(ctx context.Context, token, dataURI string) (*models.User, error)
}

// Manager serializes state changes with a mutex. Every operation that may
// replace the session draws a sequence number when it starts; its result is
// applied only if no later-started operation has been applied already.
type Manager struct {
	api      API
	store    *storage.Persistence
	log      *slog.Logger
	validate *validation.Validator
	now      func() time.Time

	mu           sync.Mutex
	user         *models.User
	token        string
	initializing bool
	ready        chan struct{}
	loading      int
	issued       uint64
	applied      uint64
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// New loads whatever session was persisted. The manager starts Initializing
// until Restore confirms or discards it.
func New(ctx context.Context, api API, store *storage.Persistence, opts ...Option) *Manager {
	m := &Manager{
		api:          api,
		store:        store,
		log:          logging.Discard(),
		validate:     validation.New(),
		now:          time.Now,
		initializing: true,
		ready:        make(chan struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	m.log = m.log.With("component", "session")

	if tok, ok := store.ReadString(ctx, storage.SlotToken); ok {
		m.token = tok
	}
	var u models.User
	if store.ReadJSON(ctx, storage.SlotUser, &u) {
		m.user = &u
	}
	return m
}

// Restore confirms the persisted token with the server. Any failure leaves
// the shopper signed out with both slots cleared; the returned error is for
// diagnostics only. The initializing flag is cleared on every path.
func (m *Manager) Restore(ctx context.Context) error {
	seq := m.begin()
	defer m.finishInit()

	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	if token == "" {
		m.clear(ctx, seq)
		return nil
	}

	if tokens.Expired(token, m.now()) {
		m.log.Info("restore_token_expired")
		m.clear(ctx, seq)
		return fmt.Errorf("restore: %w: token expired", apperr.ErrAuth)
	}

	profile, err := m.api.GetCurrentUser(ctx, token)
	if err != nil {
		m.log.Warn("restore_failed", "error", err)
		m.clear(ctx, seq)
		return fmt.Errorf("restore: %w", err)
	}

	if !m.install(ctx, seq, profile.User, token) {
		m.log.Info("restore_superseded")
		return ErrSuperseded
	}
	m.log.Info("session_restored", "user_id", profile.User.ID)
	return nil
}

func (m *Manager) Login(ctx context.Context, creds models.Credentials) (*models.User, error) {
	if err := m.validate.Struct(creds); err != nil {
		return nil, apperr.WithMessage(validation.Describe(err), err)
	}
	return m.authenticate(ctx, "login", MsgLogin, func() (*models.AuthResult, error) {
		return m.api.LoginUser(ctx, creds)
	})
}

func (m *Manager) Signup(ctx context.Context, details models.SignupDetails) (*models.User, error) {
	if err := m.validate.Struct(details); err != nil {
		return nil, apperr.WithMessage(validation.Describe(err), err)
	}
	return m.authenticate(ctx, "signup", MsgSignup, func() (*models.AuthResult, error) {
		return m.api.RegisterUser(ctx, details)
	})
}

func (m *Manager) authenticate(ctx context.Context, op, msg string, call func() (*models.AuthResult, error)) (*models.User, error) {
	seq := m.begin()
	m.setLoading(+1)
	defer m.setLoading(-1)

	res, err := call()
	if err != nil {
		m.log.Warn(op+"_failed", "error", err)
		return nil, apperr.WithMessage(msg, err)
	}

	if !m.install(ctx, seq, res.User, res.Token) {
		m.log.Info(op+"_superseded", "user_id", res.User.ID)
		return nil, apperr.WithMessage(msg, ErrSuperseded)
	}
	m.log.Info(op+"_succeeded", "user_id", res.User.ID)
	return cloneUser(res.User), nil
}

// Logout clears memory and storage unconditionally. Requests still in flight
// will not reinstate the old session.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.issued++
	m.applied = m.issued
	m.clearLocked(ctx)
	m.finishInitLocked()
}

// Invalidate signs the shopper out if token is still the current one. It is
// used when the server rejects a token mid-session.
func (m *Manager) Invalidate(ctx context.Context, token string) bool {
	seq := m.begin()

	m.mu.Lock()
	defer m.mu.Unlock()

	if token == "" || m.token != token {
		return false
	}
	m.applied = seq
	m.clearLocked(ctx)
	m.log.Info("session_expired")
	return true
}

// SetUser replaces the cached user, keeping the token.
func (m *Manager) SetUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return fmt.Errorf("set user: %w", apperr.ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == "" {
		return apperr.ErrNoSession
	}
	m.user = cloneUser(u)
	m.store.Write(ctx, storage.SlotUser, m.user)
	return nil
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Manager) stateLocked() State {
	switch {
	case m.initializing:
		return Initializing
	case m.user != nil && m.token != "":
		return Authenticated
	default:
		return Unauthenticated
	}
}

func (m *Manager) User() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return nil
	}
	return cloneUser(m.user)
}

func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return ""
	}
	return m.token
}

// Session returns the complete session, or ok=false when signed out or when
// only half of it is known.
func (m *Manager) Session() (models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := models.Session{User: cloneUser(m.user), Token: m.token}
	if !s.Complete() {
		return models.Session{}, false
	}
	return s, true
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil && m.token != ""
}

func (m *Manager) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading > 0
}

func (m *Manager) IsInitializing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initializing
}

// Ready is closed once the initializing phase is over.
func (m *Manager) Ready() <-chan struct{} { return m.ready }

type Snapshot struct {
	State           string       `json:"state"`
	User            *models.User `json:"user"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	IsLoading       bool         `json:"isLoading"`
	IsInitializing  bool         `json:"isInitializing"`
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	authed := m.user != nil && m.token != ""
	snap := Snapshot{
		State:           m.stateLocked().String(),
		IsAuthenticated: authed,
		IsLoading:       m.loading > 0,
		IsInitializing:  m.initializing,
	}
	if authed {
		snap.User = cloneUser(m.user)
	}
	return snap
}

func (m *Manager) begin() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued++
	return m.issued
}

func (m *Manager) install(ctx context.Context, seq uint64, u *models.User, token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if seq <= m.applied {
		return false
	}
	m.applied = seq
	m.user = cloneUser(u)
	m.token = token
	m.store.Write(ctx, storage.SlotUser, m.user)
	m.store.Write(ctx, storage.SlotToken, m.token)
	m.finishInitLocked()
	return true
}

func (m *Manager) clear(ctx context.Context, seq uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if seq <= m.applied {
		return false
	}
	m.applied = seq
	m.clearLocked(ctx)
	return true
}

func (m *Manager) clearLocked(ctx context.Context) {
	m.user = nil
	m.token = ""
	m.store.Clear(ctx, storage.SlotUser, storage.SlotToken)
}

func (m *Manager) finishInit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finishInitLocked()
}

func (m *Manager) finishInitLocked() {
	if !m.initializing {
		return
	}
	m.initializing = false
	close(m.ready)
}

func (m *Manager) setLoading(delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading += delta
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Address != nil {
		a := *u.Address
		c.Address = &a
	}
	if u.CreatedAt != nil {
		t := *u.CreatedAt
		c.CreatedAt = &t
	}
	return &c
}
