// Package triggers holds the Lambda handlers invoked by AWS services rather
// than by HTTP clients
package triggers

import (
	"context"

	"foodiary/infrastructure/auth/cognito"
	"foodiary/pkg/auth"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// PreSignUp confirms users and their email as they register, so sign-up can
// sign them in right away
func PreSignUp(logger *zap.Logger) func(ctx context.Context, event events.CognitoEventUserPoolsPreSignup) (events.CognitoEventUserPoolsPreSignup, error) {
	return func(ctx context.Context, event events.CognitoEventUserPoolsPreSignup) (events.CognitoEventUserPoolsPreSignup, error) {
		event.Response.AutoConfirmUser = true
		event.Response.AutoVerifyEmail = true

		logger.Info("user auto-confirmed",
			zap.String("trigger_source", event.TriggerSource),
			zap.String("user_name", event.UserName))
		return event, nil
	}
}

// PreTokenGeneration copies the account id from the user's custom attribute
// into the access token
func PreTokenGeneration(logger *zap.Logger) func(ctx context.Context, event events.CognitoEventUserPoolsPreTokenGenV2_0) (events.CognitoEventUserPoolsPreTokenGenV2_0, error) {
	return func(ctx context.Context, event events.CognitoEventUserPoolsPreTokenGenV2_0) (events.CognitoEventUserPoolsPreTokenGenV2_0, error) {
		internalID := event.Request.UserAttributes[cognito.InternalIDAttribute]
		if internalID == "" {
			// tokens without the claim are rejected by every private route
			logger.Warn("user has no internal id",
				zap.String("user_name", event.UserName))
			return event, nil
		}

		access := &event.Response.ClaimsAndScopeOverrideDetails.AccessTokenGeneration
		if access.ClaimsToAddOrOverride == nil {
			access.ClaimsToAddOrOverride = make(map[string]interface{})
		}
		access.ClaimsToAddOrOverride[auth.InternalIDClaim] = internalID
		return event, nil
	}
}
