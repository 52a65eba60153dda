package commands

import "foodiary/pkg/utils"

// SignUpAccount is the credential part of a sign-up
type SignUpAccount struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// SignUpProfile is the demographic part of a sign-up
type SignUpProfile struct {
	Name          string  `json:"name" validate:"required,min=1"`
	BirthDate     string  `json:"birthDate" validate:"required,datetime=2006-01-02"`
	Gender        string  `json:"gender" validate:"required,oneof=MALE FEMALE"`
	Height        float64 `json:"height" validate:"required,gt=0"`
	Weight        float64 `json:"weight" validate:"required,gt=0"`
	ActivityLevel string  `json:"activityLevel" validate:"required,oneof=SEDENTARY LIGHT MODERATE HEAVY ATHLETE"`
	Goal          string  `json:"goal" validate:"required,oneof=LOSE MAINTAIN GAIN"`
}

// SignUpCommand creates an account, its profile and its computed goal
type SignUpCommand struct {
	Account SignUpAccount `json:"account" validate:"required"`
	Profile SignUpProfile `json:"profile" validate:"required"`
}

// SignInCommand exchanges credentials for tokens
type SignInCommand struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RefreshTokenCommand exchanges a refresh token for new tokens
type RefreshTokenCommand struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// ForgotPasswordCommand asks the identity provider to send a reset code
type ForgotPasswordCommand struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordCommand sets a new password using a reset code
type ResetPasswordCommand struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required,min=1"`
	Password string `json:"password" validate:"required,min=8"`
}

func (c SignUpCommand) Validate() error         { return utils.ValidateStruct(c) }
func (c SignInCommand) Validate() error         { return utils.ValidateStruct(c) }
func (c RefreshTokenCommand) Validate() error   { return utils.ValidateStruct(c) }
func (c ForgotPasswordCommand) Validate() error { return utils.ValidateStruct(c) }
func (c ResetPasswordCommand) Validate() error  { return utils.ValidateStruct(c) }
