package handlers

import (
	"context"
	"errors"

	"foodiary/application/commands"
	"foodiary/application/ports"
	"foodiary/application/sagas"
	"foodiary/domain/core/entities"
	"foodiary/domain/services"
	pkgerrors "foodiary/pkg/errors"
	"foodiary/pkg/observability"
	"foodiary/pkg/utils"

	"go.uber.org/zap"
)

// SignUpHandler handles the SignUpCommand
type SignUpHandler struct {
	accounts   ports.AccountRepository
	uow        ports.SignUpUnitOfWork
	auth       ports.AuthGateway
	calculator *services.GoalCalculator
	recorder   sagas.CompensationRecorder
	metrics    ports.MetricsRecorder
	logger     *zap.Logger
}

// NewSignUpHandler creates a new handler instance
func NewSignUpHandler(
	accounts ports.AccountRepository,
	uow ports.SignUpUnitOfWork,
	auth ports.AuthGateway,
	calculator *services.GoalCalculator,
	recorder sagas.CompensationRecorder,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) *SignUpHandler {
	return &SignUpHandler{
		accounts:   accounts,
		uow:        uow,
		auth:       auth,
		calculator: calculator,
		recorder:   recorder,
		metrics:    metrics,
		logger:     logger,
	}
}

// Handle creates the identity-provider user, then the local records, then
// signs the new user in. If anything after the user creation fails the user
// is deleted again.
func (h *SignUpHandler) Handle(ctx context.Context, cmd commands.SignUpCommand) (*ports.AuthTokens, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	email := entities.NormalizeEmail(cmd.Account.Email)
	existing, err := h.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.NewEmailAlreadyInUseError()
	}

	account, err := entities.NewAccount(email)
	if err != nil {
		return nil, err
	}

	attrs, err := profileAttributes(
		cmd.Profile.Name, cmd.Profile.BirthDate, cmd.Profile.Gender,
		cmd.Profile.Height, cmd.Profile.Weight, cmd.Profile.ActivityLevel, cmd.Profile.Goal,
	)
	if err != nil {
		return nil, err
	}
	profile, err := entities.NewProfile(account.ID(), attrs)
	if err != nil {
		return nil, err
	}

	goal, err := entities.NewGoal(account.ID(), h.calculator.Calculate(profile, utils.NowUTC()))
	if err != nil {
		return nil, err
	}

	externalID, err := h.auth.SignUp(ctx, ports.SignUpParams{
		InternalID: account.ID(),
		Email:      email,
		Password:   cmd.Account.Password,
	})
	if err != nil {
		if errors.Is(err, ports.ErrUserExists) {
			return nil, pkgerrors.NewEmailAlreadyInUseError().WithCause(err)
		}
		return nil, err
	}
	if err := account.AssignExternalID(externalID); err != nil {
		return nil, err
	}

	saga := sagas.NewSaga("sign-up", h.logger, h.recorder)
	saga.AddCompensation("delete-identity-user", func(ctx context.Context) error {
		return h.auth.DeleteUser(ctx, externalID)
	})

	var tokens ports.AuthTokens
	err = saga.Run(ctx, func(ctx context.Context) error {
		if err := h.uow.Run(ctx, account, goal, profile); err != nil {
			return err
		}
		signedIn, err := h.auth.SignIn(ctx, email, cmd.Account.Password)
		if err != nil {
			return err
		}
		tokens = signedIn
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("account signed up", zap.String("account_id", account.ID()))
	if h.metrics != nil {
		h.metrics.RecordBusinessMetric(ctx, observability.MetricSignUps, 1, nil)
	}
	return &tokens, nil
}
