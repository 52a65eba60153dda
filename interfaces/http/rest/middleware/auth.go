package middleware

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"foodiary/pkg/auth"
	"foodiary/pkg/common"
	pkgerrors "foodiary/pkg/errors"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"go.uber.org/zap"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// Authenticate validates the bearer token itself. Used when no API Gateway
// authorizer sits in front of the router.
func Authenticate(validator TokenValidator, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError("Missing or malformed authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				message := "Invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					message = "Token has expired"
				}
				logger.Debug("token rejected", zap.Error(err))
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError(message))
				return
			}

			ctx := common.WithAccountID(r.Context(), claims.InternalID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthenticateAPIGateway reads the account id from the claims the API
// Gateway JWT authorizer already verified
func AuthenticateAPIGateway(errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestCtx, ok := core.GetAPIGatewayV2ContextFromContext(r.Context())
			if !ok || requestCtx.Authorizer == nil || requestCtx.Authorizer.JWT == nil {
				logger.Warn("request reached a private route without authorizer context",
					zap.String("path", r.URL.Path))
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError("Request not authorized by API Gateway"))
				return
			}

			accountID := requestCtx.Authorizer.JWT.Claims[auth.InternalIDClaim]
			if accountID == "" {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError("Token carries no account"))
				return
			}

			ctx := common.WithAccountID(r.Context(), accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit rejects clients that exceed the limiter's budget
func RateLimit(limiter *auth.IPRateLimiter, errs *pkgerrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil || !allowed {
				errs.Handle(w, r, pkgerrors.NewRateLimitError(limiter.Limit(), "minute").WithRetryAfter(time.Minute))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// clientIP prefers the address chi's RealIP middleware put in RemoteAddr
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
