package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
	"golang.org/x/crypto/bcrypt"
)

// OperatorActor is the audit actor of every authenticated session.
const OperatorActor = "operator"

const (
	maxFailures = 5
	lockout     = time.Minute
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrInvalidSession     = errors.New("invalid session")
	ErrInvalidHash        = errors.New("invalid password hash")
)

// Session represents an active operator session.
type Session struct {
	Actor     string
	ExpiresAt time.Time
}

// AuthService implements ports.AuthService for the single operator account.
type AuthService struct {
	hash        []byte
	sessions    map[string]Session
	failures    int
	lockedUntil time.Time
	mu          sync.Mutex
	sessionTTL  time.Duration
	now         func() time.Time
}

var _ ports.AuthService = (*AuthService)(nil)

// NewAuthService takes the bcrypt hash of the operator password.
func NewAuthService(passwordHash string) (*AuthService, error) {
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	return &AuthService{
		hash:       []byte(passwordHash),
		sessions:   make(map[string]Session),
		sessionTTL: 24 * time.Hour,
		now:        time.Now,
	}, nil
}

// HashPassword returns the bcrypt hash to put in the configuration.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Login validates the operator password and returns a session token.
// Five consecutive failures lock logins for a minute.
func (s *AuthService) Login(ctx context.Context, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Before(s.lockedUntil) {
		return "", ErrRateLimitExceeded
	}

	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(password)); err != nil {
		s.failures++
		if s.failures >= maxFailures {
			s.failures = 0
			s.lockedUntil = now.Add(lockout)
		}
		return "", ErrInvalidCredentials
	}
	s.failures = 0

	token := uuid.New().String()
	s.sessions[token] = Session{Actor: OperatorActor, ExpiresAt: now.Add(s.sessionTTL)}
	return token, nil
}

// ValidateToken verifies a session token and returns the session actor.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return "", ErrInvalidSession
	}
	if s.now().After(session.ExpiresAt) {
		delete(s.sessions, token)
		return "", ErrTokenExpired
	}
	return session.Actor, nil
}

// Logout invalidates a session token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}
