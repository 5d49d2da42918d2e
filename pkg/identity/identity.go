// Package identity issues and verifies signed session tokens carrying a
// role claim. Roles and revoked sessions live in the document store, so
// every replica agrees on them.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JaimeStill/job-board/pkg/docstore"
	"github.com/JaimeStill/job-board/pkg/query"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// UsersCollection holds one document per uid with its role.
	UsersCollection = "users"
	// RevokedCollection holds one document per signed-out session id.
	RevokedCollection = "revoked_sessions"

	// RoleAdmin may manage every company and job.
	RoleAdmin = "admin"
)

// Claims are the signed contents of a session token. Subject is the uid
// and ID the session id.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Session is a verified token.
type Session struct {
	Token  string
	Claims *Claims
}

func (s *Session) UID() string {
	return s.Claims.Subject
}

func (s *Session) ID() string {
	return s.Claims.ID
}

func (s *Session) Role() string {
	return s.Claims.Role
}

// System is the identity provider.
type System struct {
	cfg    *Config
	docs   *docstore.System
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a System.
type Option func(*System)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(s *System) { s.now = now }
}

func New(cfg *Config, docs *docstore.System, logger *slog.Logger, opts ...Option) *System {
	s := &System{
		cfg:    cfg,
		docs:   docs,
		logger: logger.With("system", "identity"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a new session token for uid with its current role.
func (s *System) Issue(ctx context.Context, uid string) (*Session, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: empty uid", ErrInvalidToken)
	}

	role, err := s.role(ctx, uid)
	if err != nil {
		return nil, err
	}

	now := s.now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   uid,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTLDuration())),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Info("session issued", "uid", uid, "session", claims.ID, "role", role)
	return &Session{Token: token, Claims: claims}, nil
}

// Verify parses token and rejects it when the signature, issuer or expiry
// is invalid, or the session was signed out.
func (s *System) Verify(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return []byte(s.cfg.Secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	revoked, err := s.docs.Query(ctx, query.New(RevokedCollection).
		Where("session", query.Equal, claims.ID).
		Take(1))
	if err != nil {
		return nil, err
	}
	if len(revoked) > 0 {
		return nil, ErrRevoked
	}

	return &Session{Token: token, Claims: claims}, nil
}

// Current resolves the session carried by r: the session cookie first,
// then a bearer Authorization header.
func (s *System) Current(r *http.Request) (*Session, error) {
	return s.Verify(r.Context(), s.TokenFrom(r))
}

// TokenFrom extracts the raw token from r, or "".
func (s *System) TokenFrom(r *http.Request) string {
	if c, err := r.Cookie(s.cfg.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return ""
}

// SetRole records role for uid. Tokens issued afterwards carry it;
// existing tokens keep their role until they expire.
func (s *System) SetRole(ctx context.Context, uid, role string) error {
	if uid == "" || strings.ContainsAny(role, " \t\n") {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	err := s.docs.Update(ctx, UsersCollection, uid, map[string]any{
		"role":      role,
		"updatedAt": docstore.Timestamp(s.now()),
	})
	if errors.Is(err, docstore.ErrNotFound) {
		now := docstore.Timestamp(s.now())
		_, err = s.docs.Create(ctx, UsersCollection, map[string]any{
			"uid":       uid,
			"role":      role,
			"createdAt": now,
			"updatedAt": now,
		}, uid)
	}
	if err != nil {
		return err
	}

	s.logger.Info("role set", "uid", uid, "role", role)
	return nil
}

// SignOut revokes session. Failures are returned unchanged.
func (s *System) SignOut(ctx context.Context, session *Session) error {
	if session == nil {
		return ErrUnauthenticated
	}

	data := map[string]any{
		"session":   session.ID(),
		"uid":       session.UID(),
		"revokedAt": docstore.Timestamp(s.now()),
	}
	if session.Claims.ExpiresAt != nil {
		data["expiresAt"] = session.Claims.ExpiresAt.UTC().Format(time.RFC3339)
	}

	if _, err := s.docs.Create(ctx, RevokedCollection, data, session.ID()); err != nil {
		return err
	}

	s.logger.Info("session signed out", "uid", session.UID(), "session", session.ID())
	return nil
}

// Cookie wraps session in the configured session cookie.
func (s *System) Cookie(session *Session) *http.Cookie {
	c := &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if session.Claims.ExpiresAt != nil {
		c.Expires = session.Claims.ExpiresAt.Time
	}
	return c
}

// ClearCookie returns a cookie that removes the session cookie.
func (s *System) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *System) role(ctx context.Context, uid string) (string, error) {
	doc, err := s.docs.Get(ctx, UsersCollection, uid)
	if err != nil {
		if docstore.KindOf(err) == docstore.KindNotFound {
			return "", nil
		}
		return "", err
	}
	role, _ := doc.Data["role"].(string)
	return role, nil
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying session.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, session)
}

// FromContext returns the session stored by WithSession, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
