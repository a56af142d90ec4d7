package ports

import "context"

// AuthService guards the control API with operator sessions.
type AuthService interface {
	Login(ctx context.Context, password string) (string, error)
	// ValidateToken returns the actor bound to token.
	ValidateToken(ctx context.Context, token string) (string, error)
	Logout(ctx context.Context, token string) error
}
