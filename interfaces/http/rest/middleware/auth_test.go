package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"foodiary/pkg/auth"
	"foodiary/pkg/common"
	pkgerrors "foodiary/pkg/errors"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func echoAccount() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID, _ := common.GetAccountID(r.Context())
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(accountID))
	})
}

func newValidator(t *testing.T) *auth.JWTValidator {
	t.Helper()
	validator, err := auth.NewJWTValidator(auth.JWTConfig{SecretKey: testSecret, Issuer: "foodiary"})
	require.NoError(t, err)
	return validator
}

func signToken(t *testing.T) string {
	t.Helper()
	generator, err := auth.NewJWTGenerator(auth.JWTConfig{SecretKey: testSecret, Issuer: "foodiary", ExpiryTime: time.Hour})
	require.NoError(t, err)
	token, err := generator.GenerateToken("sub-1", "acc-1", "ada@example.com")
	require.NoError(t, err)
	return token
}

func TestAuthenticate(t *testing.T) {
	errs := pkgerrors.NewErrorHandler(zap.NewNop(), false)
	handler := Authenticate(newValidator(t), errs, zap.NewNop())(echoAccount())

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid token", header: "Bearer " + signToken(t), wantStatus: http.StatusOK, wantBody: "acc-1"},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			// Act
			handler.ServeHTTP(rec, req)

			// Assert
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func gatewayRequest(t *testing.T, claims map[string]string) *http.Request {
	t.Helper()
	event := events.APIGatewayV2HTTPRequest{
		RawPath: "/me",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			DomainName: "api.example.com",
			HTTP:       events.APIGatewayV2HTTPRequestContextHTTPDescription{Method: http.MethodGet, Path: "/me"},
		},
	}
	if claims != nil {
		event.RequestContext.Authorizer = &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
			JWT: &events.APIGatewayV2HTTPRequestContextAuthorizerJWTDescription{Claims: claims},
		}
	}
	accessor := core.RequestAccessorV2{}
	req, err := accessor.EventToRequestWithContext(context.Background(), event)
	require.NoError(t, err)
	return req
}

func TestAuthenticateAPIGateway(t *testing.T) {
	errs := pkgerrors.NewErrorHandler(zap.NewNop(), false)
	handler := AuthenticateAPIGateway(errs, zap.NewNop())(echoAccount())

	t.Run("reads the account from authorizer claims", func(t *testing.T) {
		// Arrange
		req := gatewayRequest(t, map[string]string{auth.InternalIDClaim: "acc-9"})
		rec := httptest.NewRecorder()

		// Act
		handler.ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "acc-9", rec.Body.String())
	})

	t.Run("claims without an account", func(t *testing.T) {
		// Arrange
		req := gatewayRequest(t, map[string]string{"sub": "sub-1"})
		rec := httptest.NewRecorder()

		// Act
		handler.ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("no authorizer context", func(t *testing.T) {
		// Arrange
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		rec := httptest.NewRecorder()

		// Act
		handler.ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	// Arrange
	errs := pkgerrors.NewErrorHandler(zap.NewNop(), false)
	handler := RateLimit(auth.NewIPRateLimiter(2), errs)(echoAccount())
	serve := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// Act
	first := serve("10.0.0.1:5000")
	second := serve("10.0.0.1:5001")
	third := serve("10.0.0.1:5002")
	other := serve("10.0.0.2:5000")

	// Assert
	assert.Equal(t, http.StatusOK, first)
	assert.Equal(t, http.StatusOK, second)
	assert.Equal(t, http.StatusTooManyRequests, third)
	assert.Equal(t, http.StatusOK, other, "limits are per client address")
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer  abc ")

	token, ok := bearerToken(req)

	assert.True(t, ok)
	assert.Equal(t, "abc", token)
}
