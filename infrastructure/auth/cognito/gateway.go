// Package cognito implements the identity-provider gateway on Amazon Cognito
// user pools
package cognito

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"foodiary/application/ports"
	pkgerrors "foodiary/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// InternalIDAttribute carries the account id on the Cognito user
const InternalIDAttribute = "custom:internalId"

// API is the subset of the Cognito client the gateway uses
type API interface {
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	GetTokensFromRefreshToken(ctx context.Context, params *cip.GetTokensFromRefreshTokenInput, optFns ...func(*cip.Options)) (*cip.GetTokensFromRefreshTokenOutput, error)
	ForgotPassword(ctx context.Context, params *cip.ForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, params *cip.ConfirmForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error)
	AdminDeleteUser(ctx context.Context, params *cip.AdminDeleteUserInput, optFns ...func(*cip.Options)) (*cip.AdminDeleteUserOutput, error)
}

// Config identifies the user pool and its app client
type Config struct {
	UserPoolID   string
	ClientID     string
	ClientSecret string
}

// BreakerConfig tunes the circuit breaker around Cognito calls
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the breaker settings used in production
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Gateway implements ports.AuthGateway
type Gateway struct {
	client     API
	config     Config
	breaker    *gobreaker.CircuitBreaker
	retryAfter time.Duration
	logger     *zap.Logger
}

// NewGateway creates a Cognito gateway
func NewGateway(client API, cfg Config, breakerCfg BreakerConfig, logger *zap.Logger) *Gateway {
	g := &Gateway{
		client:     client,
		config:     cfg,
		retryAfter: breakerCfg.Timeout,
		logger:     logger,
	}
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cognito",
		MaxRequests: breakerCfg.MaxRequests,
		Interval:    breakerCfg.Interval,
		Timeout:     breakerCfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < breakerCfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= breakerCfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// rejected credentials or codes are answers, not outages
		IsSuccessful: func(err error) bool {
			return err == nil || isClientError(err)
		},
	})
	return g
}

var _ ports.AuthGateway = (*Gateway)(nil)

// SignUp registers the user and returns its sub
func (g *Gateway) SignUp(ctx context.Context, params ports.SignUpParams) (string, error) {
	out, err := execute(g, "sign_up", func() (*cip.SignUpOutput, error) {
		return g.client.SignUp(ctx, &cip.SignUpInput{
			ClientId: aws.String(g.config.ClientID),
			Username: aws.String(params.Email),
			Password: aws.String(params.Password),
			UserAttributes: []types.AttributeType{
				{Name: aws.String(InternalIDAttribute), Value: aws.String(params.InternalID)},
				{Name: aws.String("email"), Value: aws.String(params.Email)},
			},
			SecretHash: aws.String(g.secretHash(params.Email)),
		})
	})
	if err != nil {
		var exists *types.UsernameExistsException
		if errors.As(err, &exists) {
			return "", fmt.Errorf("%w: %w", ports.ErrUserExists, err)
		}
		var invalidPassword *types.InvalidPasswordException
		if errors.As(err, &invalidPassword) {
			return "", pkgerrors.NewValidationError(aws.ToString(invalidPassword.Message)).WithCause(err)
		}
		return "", g.external("sign up", err)
	}
	if aws.ToString(out.UserSub) == "" {
		return "", pkgerrors.NewExternalError("cognito", fmt.Errorf("sign up of %s returned no user id", params.Email))
	}
	return aws.ToString(out.UserSub), nil
}

// SignIn runs the USER_PASSWORD_AUTH flow
func (g *Gateway) SignIn(ctx context.Context, email, password string) (ports.AuthTokens, error) {
	out, err := execute(g, "sign_in", func() (*cip.InitiateAuthOutput, error) {
		return g.client.InitiateAuth(ctx, &cip.InitiateAuthInput{
			AuthFlow: types.AuthFlowTypeUserPasswordAuth,
			ClientId: aws.String(g.config.ClientID),
			AuthParameters: map[string]string{
				"USERNAME":    email,
				"PASSWORD":    password,
				"SECRET_HASH": g.secretHash(email),
			},
		})
	})
	if err != nil {
		if isCredentialsError(err) {
			return ports.AuthTokens{}, fmt.Errorf("%w: %w", ports.ErrInvalidCredentials, err)
		}
		return ports.AuthTokens{}, g.external("sign in", err)
	}
	return tokensFrom(out.AuthenticationResult, "")
}

// RefreshToken issues new tokens. Without refresh-token rotation Cognito
// returns no new refresh token and the old one stays valid.
func (g *Gateway) RefreshToken(ctx context.Context, refreshToken string) (ports.AuthTokens, error) {
	out, err := execute(g, "refresh_token", func() (*cip.GetTokensFromRefreshTokenOutput, error) {
		return g.client.GetTokensFromRefreshToken(ctx, &cip.GetTokensFromRefreshTokenInput{
			ClientId:     aws.String(g.config.ClientID),
			ClientSecret: aws.String(g.config.ClientSecret),
			RefreshToken: aws.String(refreshToken),
		})
	})
	if err != nil {
		if isCredentialsError(err) {
			return ports.AuthTokens{}, fmt.Errorf("%w: %w", ports.ErrInvalidRefreshToken, err)
		}
		return ports.AuthTokens{}, g.external("refresh token", err)
	}
	return tokensFrom(out.AuthenticationResult, refreshToken)
}

// ForgotPassword asks Cognito to send a reset code
func (g *Gateway) ForgotPassword(ctx context.Context, email string) error {
	_, err := execute(g, "forgot_password", func() (*cip.ForgotPasswordOutput, error) {
		return g.client.ForgotPassword(ctx, &cip.ForgotPasswordInput{
			ClientId:   aws.String(g.config.ClientID),
			Username:   aws.String(email),
			SecretHash: aws.String(g.secretHash(email)),
		})
	})
	if err != nil {
		return g.external("forgot password", err)
	}
	return nil
}

// ConfirmForgotPassword sets a new password with a reset code
func (g *Gateway) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	_, err := execute(g, "confirm_forgot_password", func() (*cip.ConfirmForgotPasswordOutput, error) {
		return g.client.ConfirmForgotPassword(ctx, &cip.ConfirmForgotPasswordInput{
			ClientId:         aws.String(g.config.ClientID),
			Username:         aws.String(email),
			ConfirmationCode: aws.String(code),
			Password:         aws.String(newPassword),
			SecretHash:       aws.String(g.secretHash(email)),
		})
	})
	if err != nil {
		if isClientError(err) {
			return fmt.Errorf("%w: %w", ports.ErrInvalidResetCode, err)
		}
		return g.external("confirm forgot password", err)
	}
	return nil
}

// DeleteUser removes the user with the given sub
func (g *Gateway) DeleteUser(ctx context.Context, externalID string) error {
	_, err := execute(g, "delete_user", func() (*cip.AdminDeleteUserOutput, error) {
		return g.client.AdminDeleteUser(ctx, &cip.AdminDeleteUserInput{
			UserPoolId: aws.String(g.config.UserPoolID),
			Username:   aws.String(externalID),
		})
	})
	if err != nil {
		var notFound *types.UserNotFoundException
		if errors.As(err, &notFound) {
			g.logger.Info("user already deleted", zap.String("external_id", externalID))
			return nil
		}
		return g.external("delete user", err)
	}
	g.logger.Info("identity user deleted", zap.String("external_id", externalID))
	return nil
}

// secretHash is base64(HMAC-SHA256(clientSecret, username+clientID))
func (g *Gateway) secretHash(username string) string {
	mac := hmac.New(sha256.New, []byte(g.config.ClientSecret))
	mac.Write([]byte(username + g.config.ClientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (g *Gateway) external(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return pkgerrors.NewUnavailableError("identity provider").WithCause(err).WithRetryAfter(g.retryAfter)
	}

	fields := []zap.Field{zap.String("operation", op), zap.Error(err)}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		fields = append(fields, zap.String("error_code", apiErr.ErrorCode()))
	}
	g.logger.Error("cognito call failed", fields...)

	return pkgerrors.NewExternalError("cognito", fmt.Errorf("failed to %s: %w", op, err))
}

// execute runs call through the circuit breaker
func execute[T any](g *Gateway, name string, call func() (*T, error)) (*T, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		return call()
	})
	if err != nil {
		return nil, err
	}
	out, ok := result.(*T)
	if !ok || out == nil {
		return nil, fmt.Errorf("cognito %s returned no output", name)
	}
	return out, nil
}

func tokensFrom(result *types.AuthenticationResultType, fallbackRefresh string) (ports.AuthTokens, error) {
	if result == nil || aws.ToString(result.AccessToken) == "" {
		return ports.AuthTokens{}, pkgerrors.NewExternalError("cognito", errors.New("authentication returned no tokens"))
	}
	refresh := aws.ToString(result.RefreshToken)
	if refresh == "" {
		refresh = fallbackRefresh
	}
	if refresh == "" {
		return ports.AuthTokens{}, pkgerrors.NewExternalError("cognito", errors.New("authentication returned no refresh token"))
	}
	return ports.AuthTokens{
		AccessToken:  aws.ToString(result.AccessToken),
		RefreshToken: refresh,
	}, nil
}

func isCredentialsError(err error) bool {
	var notAuthorized *types.NotAuthorizedException
	var notFound *types.UserNotFoundException
	var notConfirmed *types.UserNotConfirmedException
	return errors.As(err, &notAuthorized) || errors.As(err, &notFound) || errors.As(err, &notConfirmed)
}

// isClientError reports errors caused by the request rather than by Cognito
func isClientError(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorFault() == smithy.FaultClient
}
