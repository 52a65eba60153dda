package ports

import (
	"context"
	"errors"
	"time"
)

// Identity provider outcomes the application reacts to. Gateways wrap them.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInvalidResetCode    = errors.New("invalid or expired reset code")
	ErrUserExists          = errors.New("user already exists")
)

// AuthTokens is what a successful sign-in yields
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SignUpParams creates a user at the identity provider. InternalID is the
// account id and ends up as a custom attribute of the user.
type SignUpParams struct {
	InternalID string
	Email      string
	Password   string
}

// AuthGateway is the identity provider
type AuthGateway interface {
	// SignUp creates the user and returns the provider's id for it
	SignUp(ctx context.Context, params SignUpParams) (string, error)
	SignIn(ctx context.Context, email, password string) (AuthTokens, error)
	RefreshToken(ctx context.Context, refreshToken string) (AuthTokens, error)
	ForgotPassword(ctx context.Context, email string) error
	ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error

	// DeleteUser removes a user; used to undo SignUp
	DeleteUser(ctx context.Context, externalID string) error
}

// UploadRequest describes one file the client is allowed to upload
type UploadRequest struct {
	FileKey     string
	ContentType string
	Size        int64
	MealID      string
}

// UploadSignature is a presigned form post
type UploadSignature struct {
	URL       string            `json:"url"`
	Fields    map[string]string `json:"fields"`
	ExpiresAt time.Time         `json:"-"`
}

// MealsFileStorage issues upload grants for raw meal files
type MealsFileStorage interface {
	PresignUpload(ctx context.Context, req UploadRequest) (*UploadSignature, error)
}

// MetricsRecorder receives business metrics
type MetricsRecorder interface {
	RecordBusinessMetric(ctx context.Context, name string, value float64, dimensions map[string]string)
}
