// Package local provides an in-process identity provider for running the API
// without Cognito. Tokens are HS256 JWTs that carry the same internalId claim
// the Cognito pre-token-generation trigger adds.
package local

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"foodiary/application/ports"
	"foodiary/pkg/auth"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type user struct {
	sub          string
	internalID   string
	email        string
	passwordHash []byte
}

// Gateway implements ports.AuthGateway in memory
type Gateway struct {
	mu            sync.Mutex
	users         map[string]*user
	refreshTokens map[string]string
	resetCodes    map[string]string

	tokens *auth.JWTGenerator
	logger *zap.Logger
	// newCode produces password-reset codes
	newCode func() string
}

// NewGateway creates an empty identity provider
func NewGateway(tokens *auth.JWTGenerator, logger *zap.Logger) *Gateway {
	return &Gateway{
		users:         make(map[string]*user),
		refreshTokens: make(map[string]string),
		resetCodes:    make(map[string]string),
		tokens:        tokens,
		logger:        logger,
		newCode: func() string {
			return uuid.NewString()[:6]
		},
	}
}

var _ ports.AuthGateway = (*Gateway)(nil)

// SignUp registers a user under its email
func (g *Gateway) SignUp(ctx context.Context, params ports.SignUpParams) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.MinCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.users[params.Email]; exists {
		return "", fmt.Errorf("%w: %s", ports.ErrUserExists, params.Email)
	}
	u := &user{
		sub:          uuid.NewString(),
		internalID:   params.InternalID,
		email:        params.Email,
		passwordHash: hash,
	}
	g.users[params.Email] = u
	return u.sub, nil
}

// SignIn checks the password and issues tokens
func (g *Gateway) SignIn(ctx context.Context, email, password string) (ports.AuthTokens, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, ok := g.users[email]
	if !ok {
		return ports.AuthTokens{}, ports.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return ports.AuthTokens{}, ports.ErrInvalidCredentials
	}
	return g.issue(u)
}

// RefreshToken exchanges a refresh token for a new access token
func (g *Gateway) RefreshToken(ctx context.Context, refreshToken string) (ports.AuthTokens, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	email, ok := g.refreshTokens[refreshToken]
	if !ok {
		return ports.AuthTokens{}, ports.ErrInvalidRefreshToken
	}
	u, ok := g.users[email]
	if !ok {
		delete(g.refreshTokens, refreshToken)
		return ports.AuthTokens{}, ports.ErrInvalidRefreshToken
	}

	access, err := g.tokens.GenerateToken(u.sub, u.internalID, u.email)
	if err != nil {
		return ports.AuthTokens{}, err
	}
	return ports.AuthTokens{AccessToken: access, RefreshToken: refreshToken}, nil
}

// ForgotPassword creates a reset code and logs it in place of sending mail
func (g *Gateway) ForgotPassword(ctx context.Context, email string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.users[email]; !ok {
		return nil
	}
	code := g.newCode()
	g.resetCodes[email] = code
	g.logger.Info("password reset code issued",
		zap.String("email", email),
		zap.String("code", code))
	return nil
}

// ConfirmForgotPassword sets a new password when the code matches
func (g *Gateway) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	expected, ok := g.resetCodes[email]
	u, exists := g.users[email]
	if !ok || !exists || expected != code {
		return ports.ErrInvalidResetCode
	}
	delete(g.resetCodes, email)
	u.passwordHash = hash
	return nil
}

// DeleteUser removes the user with the given sub and its refresh tokens
func (g *Gateway) DeleteUser(ctx context.Context, externalID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for email, u := range g.users {
		if u.sub != externalID {
			continue
		}
		delete(g.users, email)
		delete(g.resetCodes, email)
		for token, owner := range g.refreshTokens {
			if owner == email {
				delete(g.refreshTokens, token)
			}
		}
		return nil
	}
	return nil
}

// HasUser reports whether a user with the email is registered
func (g *Gateway) HasUser(email string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.users[email]
	return ok
}

func (g *Gateway) issue(u *user) (ports.AuthTokens, error) {
	access, err := g.tokens.GenerateToken(u.sub, u.internalID, u.email)
	if err != nil {
		return ports.AuthTokens{}, err
	}
	refresh := uuid.NewString()
	g.refreshTokens[refresh] = u.email
	return ports.AuthTokens{AccessToken: access, RefreshToken: refresh}, nil
}

// errNotConfigured is returned by NewGatewayFromSecret for an empty secret
var errNotConfigured = errors.New("local identity provider needs a signing secret")

// NewGatewayFromSecret builds a gateway that signs tokens with secret
func NewGatewayFromSecret(secret, issuer string, logger *zap.Logger) (*Gateway, error) {
	if secret == "" {
		return nil, errNotConfigured
	}
	tokens, err := auth.NewJWTGenerator(auth.JWTConfig{SecretKey: secret, Issuer: issuer})
	if err != nil {
		return nil, err
	}
	return NewGateway(tokens, logger), nil
}
