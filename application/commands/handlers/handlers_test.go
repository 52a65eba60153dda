package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"foodiary/application/commands"
	"foodiary/application/ports"
	"foodiary/domain/config"
	"foodiary/domain/core/entities"
	"foodiary/domain/events"
	"foodiary/domain/services"
	"foodiary/infrastructure/persistence/dynamodb"
	"foodiary/infrastructure/persistence/memory"
	pkgerrors "foodiary/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAuthGateway struct {
	mock.Mock
}

func (m *mockAuthGateway) SignUp(ctx context.Context, params ports.SignUpParams) (string, error) {
	args := m.Called(ctx, params)
	return args.String(0), args.Error(1)
}

func (m *mockAuthGateway) SignIn(ctx context.Context, email, password string) (ports.AuthTokens, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(ports.AuthTokens), args.Error(1)
}

func (m *mockAuthGateway) RefreshToken(ctx context.Context, refreshToken string) (ports.AuthTokens, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(ports.AuthTokens), args.Error(1)
}

func (m *mockAuthGateway) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthGateway) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	return m.Called(ctx, email, code, newPassword).Error(0)
}

func (m *mockAuthGateway) DeleteUser(ctx context.Context, externalID string) error {
	return m.Called(ctx, externalID).Error(0)
}

type metricsSpy struct {
	mu           sync.Mutex
	counts       map[string]float64
	compensation []string
}

func newMetricsSpy() *metricsSpy {
	return &metricsSpy{counts: make(map[string]float64)}
}

func (s *metricsSpy) RecordBusinessMetric(_ context.Context, name string, value float64, _ map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[name] += value
}

func (s *metricsSpy) RecordCompensationFailure(_ context.Context, saga, compensation string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compensation = append(s.compensation, saga+"/"+compensation)
}

type signUpFixture struct {
	store    *memory.Store
	accounts *dynamodb.AccountRepository
	auth     *mockAuthGateway
	metrics  *metricsSpy
	handler  *SignUpHandler
}

func newSignUpFixture() *signUpFixture {
	logger := zap.NewNop()
	store := memory.NewStore()
	accounts := dynamodb.NewAccountRepository(store, "GSI1", logger)
	goals := dynamodb.NewGoalRepository(store, logger)
	profiles := dynamodb.NewProfileRepository(store, logger)
	uow := dynamodb.NewSignUpUnitOfWork(store, accounts, goals, profiles, logger)
	auth := new(mockAuthGateway)
	metrics := newMetricsSpy()

	return &signUpFixture{
		store:    store,
		accounts: accounts,
		auth:     auth,
		metrics:  metrics,
		handler: NewSignUpHandler(accounts, uow, auth, services.NewGoalCalculator(nil),
			metrics, metrics, logger),
	}
}

func validSignUp() commands.SignUpCommand {
	return commands.SignUpCommand{
		Account: commands.SignUpAccount{Email: "Ada@Example.com", Password: "correct-horse"},
		Profile: commands.SignUpProfile{
			Name:          "Ada",
			BirthDate:     "1990-04-12",
			Gender:        "FEMALE",
			Height:        168,
			Weight:        61.5,
			ActivityLevel: "MODERATE",
			Goal:          "LOSE",
		},
	}
}

var testTokens = ports.AuthTokens{AccessToken: "access", RefreshToken: "refresh"}

func TestSignUpHandler_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newSignUpFixture()
	var internalID string
	f.auth.On("SignUp", mock.Anything, mock.MatchedBy(func(p ports.SignUpParams) bool {
		internalID = p.InternalID
		return p.Email == "ada@example.com" && p.Password == "correct-horse" && p.InternalID != ""
	})).Return("ext-1", nil)
	f.auth.On("SignIn", mock.Anything, "ada@example.com", "correct-horse").Return(testTokens, nil)

	// Act
	tokens, err := f.handler.Handle(ctx, validSignUp())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, testTokens, *tokens)
	assert.Equal(t, 4, f.store.Len())

	account, err := f.accounts.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, internalID, account.ID())
	assert.Equal(t, "ext-1", account.ExternalID())
	assert.Equal(t, 1.0, f.metrics.counts["SignUps"])
	f.auth.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
}

func TestSignUpHandler_PersistenceFailureDeletesIdentityUser(t *testing.T) {
	// Arrange
	f := newSignUpFixture()
	f.store.FailTransactPutAt(2, errors.New("throttled"))
	f.auth.On("SignUp", mock.Anything, mock.Anything).Return("ext-1", nil)
	f.auth.On("DeleteUser", mock.Anything, "ext-1").Return(nil).Once()

	// Act
	tokens, err := f.handler.Handle(context.Background(), validSignUp())

	// Assert
	require.Error(t, err)
	assert.Nil(t, tokens)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase), "the persistence error is returned as is")
	assert.Equal(t, 0, f.store.Len())
	f.auth.AssertNumberOfCalls(t, "DeleteUser", 1)
	f.auth.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.metrics.compensation)
}

func TestSignUpHandler_SignInFailureDeletesIdentityUser(t *testing.T) {
	// Arrange
	f := newSignUpFixture()
	signInErr := pkgerrors.NewUnavailableError("cognito")
	f.auth.On("SignUp", mock.Anything, mock.Anything).Return("ext-1", nil)
	f.auth.On("SignIn", mock.Anything, mock.Anything, mock.Anything).Return(ports.AuthTokens{}, signInErr)
	f.auth.On("DeleteUser", mock.Anything, "ext-1").Return(nil)

	// Act
	_, err := f.handler.Handle(context.Background(), validSignUp())

	// Assert
	assert.Same(t, signInErr, err)
	f.auth.AssertNumberOfCalls(t, "DeleteUser", 1)
}

func TestSignUpHandler_FailedCompensationKeepsOriginalError(t *testing.T) {
	// Arrange
	f := newSignUpFixture()
	f.store.FailNext(memory.OpTransactWrite, errors.New("throttled"))
	f.auth.On("SignUp", mock.Anything, mock.Anything).Return("ext-1", nil)
	f.auth.On("DeleteUser", mock.Anything, "ext-1").Return(errors.New("provider down"))

	// Act
	_, err := f.handler.Handle(context.Background(), validSignUp())

	// Assert
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
	assert.Equal(t, []string{"sign-up/delete-identity-user"}, f.metrics.compensation)
}

func TestSignUpHandler_EmailInUse(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newSignUpFixture()
	existing, err := entities.NewAccount("ada@example.com")
	require.NoError(t, err)
	require.NoError(t, f.accounts.Create(ctx, existing))

	// Act
	_, err = f.handler.Handle(ctx, validSignUp())

	// Assert
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeEmailAlreadyInUse))
	f.auth.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything)
}

func TestSignUpHandler_ProviderUserExists(t *testing.T) {
	// Arrange
	f := newSignUpFixture()
	f.auth.On("SignUp", mock.Anything, mock.Anything).
		Return("", fmt.Errorf("%w: UsernameExistsException", ports.ErrUserExists))

	// Act
	_, err := f.handler.Handle(context.Background(), validSignUp())

	// Assert
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeEmailAlreadyInUse))
	f.auth.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
}

func TestSignUpHandler_InvalidPayload(t *testing.T) {
	// Arrange
	f := newSignUpFixture()
	cmd := validSignUp()
	cmd.Account.Email = "not-an-email"
	cmd.Profile.Gender = "OTHER"

	// Act
	_, err := f.handler.Handle(context.Background(), cmd)

	// Assert
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
	details := pkgerrors.GetAppError(err).Details
	assert.Contains(t, details, "account.email")
	assert.Contains(t, details, "profile.gender")
}

type storageStub struct {
	mu       sync.Mutex
	requests []ports.UploadRequest
	err      error
	// blocks until the context ends when set
	slow      bool
	cancelled bool
}

func (s *storageStub) PresignUpload(ctx context.Context, req ports.UploadRequest) (*ports.UploadSignature, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.slow {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.cancelled = true
			s.mu.Unlock()
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return nil, errors.New("presign was never cancelled")
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &ports.UploadSignature{
		URL:       "https://uploads.example.com",
		Fields:    map[string]string{"key": req.FileKey, "x-amz-meta-mealid": req.MealID},
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}, nil
}

func TestCreateMealHandler_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := memory.NewStore()
	meals := dynamodb.NewMealRepository(store, zap.NewNop())
	storage := &storageStub{}
	metrics := newMetricsSpy()
	handler := NewCreateMealHandler(meals, storage, nil, metrics, zap.NewNop())

	// Act
	result, err := handler.Handle(ctx, commands.CreateMealCommand{
		AccountID: "acc-1",
		File:      commands.MealFile{Type: commands.ContentTypeAudio, Size: 2048},
	})

	// Assert
	require.NoError(t, err)
	meal, err := meals.FindByID(ctx, "acc-1", result.MealID)
	require.NoError(t, err)
	assert.Equal(t, entities.MealStatusUploading, meal.Status())
	assert.Equal(t, entities.InputTypeAudio, meal.InputType())

	require.Len(t, storage.requests, 1)
	assert.Equal(t, "acc-1/"+result.MealID+".m4a", storage.requests[0].FileKey)
	assert.Equal(t, int64(2048), storage.requests[0].Size)

	raw, err := base64.StdEncoding.DecodeString(result.UploadSignature)
	require.NoError(t, err)
	var decoded ports.UploadSignature
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "https://uploads.example.com", decoded.URL)
	assert.Equal(t, commands.ContentTypeAudio, decoded.Fields["Content-Type"])
	assert.Equal(t, result.MealID, decoded.Fields["x-amz-meta-mealid"])
	assert.Equal(t, 1.0, metrics.counts["MealsCreated"])
}

func TestCreateMealHandler_Rejections(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultDomainConfig()

	t.Run("file too large", func(t *testing.T) {
		// Arrange
		storage := &storageStub{}
		handler := NewCreateMealHandler(dynamodb.NewMealRepository(memory.NewStore(), zap.NewNop()), storage, cfg, nil, zap.NewNop())

		// Act
		_, err := handler.Handle(ctx, commands.CreateMealCommand{
			AccountID: "acc-1",
			File:      commands.MealFile{Type: commands.ContentTypeJPEG, Size: cfg.MaxUploadBytes + 1},
		})

		// Assert
		assert.True(t, pkgerrors.IsValidation(err))
		assert.Empty(t, storage.requests)
	})

	t.Run("unsupported content type", func(t *testing.T) {
		// Arrange
		handler := NewCreateMealHandler(dynamodb.NewMealRepository(memory.NewStore(), zap.NewNop()), &storageStub{}, cfg, nil, zap.NewNop())

		// Act
		_, err := handler.Handle(ctx, commands.CreateMealCommand{
			AccountID: "acc-1",
			File:      commands.MealFile{Type: "video/mp4", Size: 10},
		})

		// Assert
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("presign failure", func(t *testing.T) {
		// Arrange
		presignErr := pkgerrors.NewExternalError("s3", errors.New("denied"))
		handler := NewCreateMealHandler(dynamodb.NewMealRepository(memory.NewStore(), zap.NewNop()),
			&storageStub{err: presignErr}, cfg, nil, zap.NewNop())

		// Act
		result, err := handler.Handle(ctx, commands.CreateMealCommand{
			AccountID: "acc-1",
			File:      commands.MealFile{Type: commands.ContentTypePNG, Size: 10},
		})

		// Assert
		assert.Nil(t, result)
		assert.Same(t, presignErr, err)
	})

	t.Run("failed insert cancels the presign", func(t *testing.T) {
		// Arrange
		throttled := errors.New("throttled")
		store := memory.NewStore()
		store.FailNext(memory.OpPutIfAbsent, throttled)
		storage := &storageStub{slow: true}
		handler := NewCreateMealHandler(dynamodb.NewMealRepository(store, zap.NewNop()), storage, cfg, nil, zap.NewNop())

		// Act
		result, err := handler.Handle(ctx, commands.CreateMealCommand{
			AccountID: "acc-1",
			File:      commands.MealFile{Type: commands.ContentTypeJPEG, Size: 10},
		})

		// Assert
		assert.Nil(t, result)
		assert.ErrorIs(t, err, throttled)
		storage.mu.Lock()
		defer storage.mu.Unlock()
		assert.True(t, storage.cancelled)
	})
}

type publisherSpy struct {
	published []events.DomainEvent
	err       error
}

func (p *publisherSpy) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

func (p *publisherSpy) PublishBatch(_ context.Context, evts []events.DomainEvent) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, evts...)
	return nil
}

func TestMarkMealQueuedHandler(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*dynamodb.MealRepository, *entities.Meal, *publisherSpy, *metricsSpy, *MarkMealQueuedHandler) {
		t.Helper()
		meals := dynamodb.NewMealRepository(memory.NewStore(), zap.NewNop())
		meal, err := entities.NewMeal("acc-1", entities.InputTypePicture)
		require.NoError(t, err)
		require.NoError(t, meals.Create(ctx, meal))
		publisher := &publisherSpy{}
		metrics := newMetricsSpy()
		return meals, meal, publisher, metrics, NewMarkMealQueuedHandler(meals, publisher, metrics, zap.NewNop())
	}

	t.Run("queues an uploading meal", func(t *testing.T) {
		// Arrange
		meals, meal, publisher, metrics, handler := setup(t)

		// Act
		err := handler.Handle(ctx, commands.MarkMealQueuedCommand{FileKey: meal.InputFileKey()})

		// Assert
		require.NoError(t, err)
		stored, err := meals.FindByID(ctx, "acc-1", meal.ID())
		require.NoError(t, err)
		assert.Equal(t, entities.MealStatusQueued, stored.Status())
		require.Len(t, publisher.published, 1)
		assert.Equal(t, events.EventTypeMealQueued, publisher.published[0].GetEventType())
		assert.Equal(t, meal.ID(), publisher.published[0].GetAggregateID())
		assert.Equal(t, 1.0, metrics.counts["MealsQueued"])
	})

	t.Run("redelivery publishes again", func(t *testing.T) {
		// Arrange
		_, meal, publisher, metrics, handler := setup(t)
		require.NoError(t, handler.Handle(ctx, commands.MarkMealQueuedCommand{FileKey: meal.InputFileKey()}))

		// Act
		err := handler.Handle(ctx, commands.MarkMealQueuedCommand{FileKey: meal.InputFileKey()})

		// Assert
		require.NoError(t, err)
		assert.Len(t, publisher.published, 2)
		assert.Equal(t, 1.0, metrics.counts["MealsQueued"])
	})

	t.Run("later states are left alone", func(t *testing.T) {
		// Arrange
		meals, meal, publisher, _, handler := setup(t)
		require.NoError(t, meal.MarkQueued(time.Now()))
		require.NoError(t, meal.StartProcessing(3))
		require.NoError(t, meals.Save(ctx, meal))

		// Act
		err := handler.Handle(ctx, commands.MarkMealQueuedCommand{FileKey: meal.InputFileKey()})

		// Assert
		require.NoError(t, err)
		assert.Empty(t, publisher.published)
	})

	t.Run("malformed key", func(t *testing.T) {
		// Arrange
		_, _, _, _, handler := setup(t)

		// Act
		err := handler.Handle(ctx, commands.MarkMealQueuedCommand{FileKey: "no-slash.jpeg"})

		// Assert
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("unknown meal", func(t *testing.T) {
		// Arrange
		_, _, _, _, handler := setup(t)

		// Act
		err := handler.Handle(ctx, commands.MarkMealQueuedCommand{FileKey: "acc-1/missing.jpeg"})

		// Assert
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("publish failure is returned", func(t *testing.T) {
		// Arrange
		_, meal, publisher, _, handler := setup(t)
		publisher.err = errors.New("bus down")

		// Act
		err := handler.Handle(ctx, commands.MarkMealQueuedCommand{FileKey: meal.InputFileKey()})

		// Assert
		assert.EqualError(t, err, "bus down")
	})
}

func TestAuthHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("sign in maps invalid credentials", func(t *testing.T) {
		// Arrange
		auth := new(mockAuthGateway)
		auth.On("SignIn", mock.Anything, "ada@example.com", "wrong-password").
			Return(ports.AuthTokens{}, ports.ErrInvalidCredentials)
		handler := NewAuthHandler(auth, zap.NewNop())

		// Act
		_, err := handler.SignIn(ctx, commands.SignInCommand{Email: "ADA@example.com", Password: "wrong-password"})

		// Assert
		assert.True(t, pkgerrors.IsUnauthorized(err))
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidCredentials))
	})

	t.Run("refresh maps invalid token", func(t *testing.T) {
		// Arrange
		auth := new(mockAuthGateway)
		auth.On("RefreshToken", mock.Anything, "stale").Return(ports.AuthTokens{}, ports.ErrInvalidRefreshToken)
		handler := NewAuthHandler(auth, zap.NewNop())

		// Act
		_, err := handler.RefreshToken(ctx, commands.RefreshTokenCommand{RefreshToken: "stale"})

		// Assert
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidRefreshToken))
	})

	t.Run("forgot password hides provider errors", func(t *testing.T) {
		// Arrange
		auth := new(mockAuthGateway)
		auth.On("ForgotPassword", mock.Anything, "ada@example.com").Return(errors.New("user not found"))
		handler := NewAuthHandler(auth, zap.NewNop())

		// Act
		err := handler.ForgotPassword(ctx, commands.ForgotPasswordCommand{Email: "ada@example.com"})

		// Assert
		require.NoError(t, err)
		auth.AssertExpectations(t)
	})

	t.Run("reset password failure", func(t *testing.T) {
		// Arrange
		auth := new(mockAuthGateway)
		auth.On("ConfirmForgotPassword", mock.Anything, "ada@example.com", "123456", "new-password").
			Return(ports.ErrInvalidResetCode)
		handler := NewAuthHandler(auth, zap.NewNop())

		// Act
		err := handler.ResetPassword(ctx, commands.ResetPasswordCommand{
			Email: "ada@example.com", Code: "123456", Password: "new-password",
		})

		// Assert
		assert.True(t, pkgerrors.IsValidation(err))
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidResetPassword))
	})
}

func TestUpdateHandlers(t *testing.T) {
	ctx := context.Background()

	t.Run("profile update keeps the goal", func(t *testing.T) {
		// Arrange
		f := newSignUpFixture()
		f.auth.On("SignUp", mock.Anything, mock.Anything).Return("ext-1", nil)
		f.auth.On("SignIn", mock.Anything, mock.Anything, mock.Anything).Return(testTokens, nil)
		_, err := f.handler.Handle(ctx, validSignUp())
		require.NoError(t, err)
		account, err := f.accounts.FindByEmail(ctx, "ada@example.com")
		require.NoError(t, err)

		profiles := dynamodb.NewProfileRepository(f.store, zap.NewNop())
		goals := dynamodb.NewGoalRepository(f.store, zap.NewNop())
		before, err := goals.FindByAccountID(ctx, account.ID())
		require.NoError(t, err)
		handler := NewUpdateProfileHandler(profiles, zap.NewNop())

		// Act
		err = handler.Handle(ctx, commands.UpdateProfileCommand{
			AccountID: account.ID(), Name: "Ada L.", BirthDate: "1990-04-12", Gender: "FEMALE",
			Height: 168, Weight: 58, ActivityLevel: "HEAVY", Goal: "GAIN",
		})

		// Assert
		require.NoError(t, err)
		profile, err := profiles.FindByAccountID(ctx, account.ID())
		require.NoError(t, err)
		assert.Equal(t, "Ada L.", profile.Name())
		assert.Equal(t, entities.ActivityHeavy, profile.ActivityLevel())
		after, err := goals.FindByAccountID(ctx, account.ID())
		require.NoError(t, err)
		assert.Equal(t, before.Macros(), after.Macros())
	})

	t.Run("goal update on missing account", func(t *testing.T) {
		// Arrange
		handler := NewUpdateGoalHandler(dynamodb.NewGoalRepository(memory.NewStore(), zap.NewNop()), zap.NewNop())

		// Act
		err := handler.Handle(ctx, commands.UpdateGoalCommand{
			AccountID: "acc-x", Calories: 2000, Proteins: 100, Carbohydrates: 200, Fats: 50,
		})

		// Assert
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("goal update rejects zero targets", func(t *testing.T) {
		// Arrange
		handler := NewUpdateGoalHandler(dynamodb.NewGoalRepository(memory.NewStore(), zap.NewNop()), zap.NewNop())

		// Act
		err := handler.Handle(ctx, commands.UpdateGoalCommand{AccountID: "acc-1", Calories: 0, Proteins: 1, Carbohydrates: 1, Fats: 1})

		// Assert
		assert.True(t, pkgerrors.IsValidation(err))
	})
}
