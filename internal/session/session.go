// Package session owns the authenticated identity of the client: the bearer
// token every collection call carries and the user it belongs to.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskdeck/internal/api"
	"taskdeck/internal/apperr"
	"taskdeck/internal/model"
	"taskdeck/internal/storage"
)

type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Authenticator is the part of the remote API the manager calls.
type Authenticator interface {
	Login(ctx context.Context, req api.LoginRequest) (api.LoginResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) error
}

// Persister stores the token and user across restarts.
type Persister interface {
	Get(key string) (string, bool, error)
	PutAll(values map[string]string) error
	Delete(keys ...string) error
}

type RegisterRequest struct {
	Username        string
	Password        string
	ConfirmPassword string
	Role            model.Role
}

// Manager is safe for concurrent use. It is the only writer of the token.
type Manager struct {
	auth   Authenticator
	state  Persister
	logger *slog.Logger

	mu      sync.RWMutex
	current *model.Session
}

// New returns an anonymous manager. A nil persister disables persistence.
func New(auth Authenticator, state Persister, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		auth:   auth,
		state:  state,
		logger: logger.With("component", "session"),
	}
}

// Login submits credentials and, on success, makes the returned session
// current and persists it. A failure leaves the manager unchanged.
func (m *Manager) Login(ctx context.Context, username, password string) (model.Session, error) {
	if strings.TrimSpace(username) == "" {
		return model.Session{}, apperr.Invalid("username", "username is required")
	}
	if password == "" {
		return model.Session{}, apperr.Invalid("password", "password is required")
	}

	resp, err := m.auth.Login(ctx, api.LoginRequest{Username: username, Password: password})
	if err != nil {
		m.logger.Warn("login failed", "username", username, "err", err)
		return model.Session{}, err
	}

	s := model.Session{
		Token:     resp.Token,
		User:      resp.User,
		ExpiresAt: tokenExpiry(resp.Token),
	}
	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()
	m.persist(s)
	m.logger.Info("login succeeded", "user", s.User.Username, "role", s.User.Role)
	return s, nil
}

// Register validates locally before any network call. It does not log in.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) error {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" || req.ConfirmPassword == "" {
		return apperr.Invalid("", "all fields are required")
	}
	if req.Password != req.ConfirmPassword {
		return apperr.Invalid("confirm_password", "passwords do not match")
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}
	if !req.Role.Valid() {
		return apperr.Invalid("role", "unknown role "+string(req.Role))
	}

	err := m.auth.Register(ctx, api.RegisterRequest{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		m.logger.Warn("registration failed", "username", req.Username, "err", err)
		return err
	}
	m.logger.Info("registered", "username", req.Username, "role", req.Role)
	return nil
}

// Logout clears the session unconditionally. Calling it again is a no-op.
func (m *Manager) Logout() {
	m.mu.Lock()
	had := m.current != nil
	m.current = nil
	m.mu.Unlock()

	if m.state != nil {
		if err := m.state.Delete(storage.KeyToken, storage.KeyUser); err != nil {
			m.logger.Error("clear persisted session", "err", err)
		}
	}
	if had {
		m.logger.Info("logged out")
	}
}

// Invalidate drops a session the server no longer accepts.
func (m *Manager) Invalidate(reason string) {
	if m.State() == Anonymous {
		return
	}
	m.logger.Warn("session invalidated", "reason", reason)
	m.Logout()
}

// Restore rebuilds the session persisted by a previous run. The token is not
// checked against the server, so it may be stale.
func (m *Manager) Restore() *model.Session {
	if m.state == nil {
		return nil
	}
	token, ok, err := m.state.Get(storage.KeyToken)
	if err != nil {
		m.logger.Error("read persisted token", "err", err)
		return nil
	}
	if !ok || token == "" {
		return nil
	}
	rawUser, ok, err := m.state.Get(storage.KeyUser)
	if err != nil {
		m.logger.Error("read persisted user", "err", err)
		return nil
	}
	var user model.User
	if !ok || json.Unmarshal([]byte(rawUser), &user) != nil {
		m.logger.Warn("persisted user record unreadable, discarding session")
		if err := m.state.Delete(storage.KeyToken, storage.KeyUser); err != nil {
			m.logger.Error("clear persisted session", "err", err)
		}
		return nil
	}

	s := model.Session{Token: token, User: user, ExpiresAt: tokenExpiry(token)}
	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()
	if s.Expired(time.Now()) {
		m.logger.Warn("restored session token looks expired", "user", user.Username, "expires_at", s.ExpiresAt)
	} else {
		m.logger.Info("session restored", "user", user.Username)
	}
	out := s
	return &out
}

// Current returns the active session, if any.
func (m *Manager) Current() (model.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return model.Session{}, false
	}
	return *m.current, true
}

// Token returns the bearer token, or "" when anonymous.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return ""
	}
	return m.current.Token
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Anonymous
	}
	return Authenticated
}

func (m *Manager) persist(s model.Session) {
	if m.state == nil {
		return
	}
	user, err := json.Marshal(s.User)
	if err != nil {
		m.logger.Error("encode user for persistence", "err", err)
		return
	}
	err = m.state.PutAll(map[string]string{
		storage.KeyToken: s.Token,
		storage.KeyUser:  string(user),
	})
	if err != nil {
		m.logger.Error("persist session", "err", err)
	}
}

// tokenExpiry reads the exp claim without verifying the signature. Opaque
// tokens yield the zero time.
func tokenExpiry(raw string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
