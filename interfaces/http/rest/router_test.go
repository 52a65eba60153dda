package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"foodiary/application/commands"
	"foodiary/application/commands/bus"
	"foodiary/application/ports"
	"foodiary/application/queries"
	querybus "foodiary/application/queries/bus"
	"foodiary/interfaces/http/rest/handlers"
	"foodiary/pkg/common"
	pkgerrors "foodiary/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type signUpStub struct {
	got commands.SignUpCommand
	err error
}

func (s *signUpStub) Handle(_ context.Context, cmd commands.SignUpCommand) (*ports.AuthTokens, error) {
	s.got = cmd
	if s.err != nil {
		return nil, s.err
	}
	return &ports.AuthTokens{AccessToken: "access", RefreshToken: "refresh"}, nil
}

type credentialsStub struct {
	forgot []string
}

func (c *credentialsStub) SignIn(context.Context, commands.SignInCommand) (*ports.AuthTokens, error) {
	return nil, pkgerrors.NewUnauthorizedError("invalid credentials").WithCode(pkgerrors.CodeInvalidCredentials)
}

func (c *credentialsStub) RefreshToken(context.Context, commands.RefreshTokenCommand) (*ports.AuthTokens, error) {
	return &ports.AuthTokens{AccessToken: "new", RefreshToken: "old"}, nil
}

func (c *credentialsStub) ForgotPassword(_ context.Context, cmd commands.ForgotPasswordCommand) error {
	c.forgot = append(c.forgot, cmd.Email)
	return nil
}

func (c *credentialsStub) ResetPassword(context.Context, commands.ResetPasswordCommand) error {
	return nil
}

type meStub struct{}

func (meStub) Handle(_ context.Context, q queries.GetMeQuery) (*queries.GetMeResult, error) {
	return &queries.GetMeResult{Profile: queries.ProfileView{Name: q.AccountID}}, nil
}

type profileStub struct{ got commands.UpdateProfileCommand }

func (p *profileStub) Handle(_ context.Context, cmd commands.UpdateProfileCommand) error {
	p.got = cmd
	return nil
}

type goalStub struct{}

func (goalStub) Handle(context.Context, commands.UpdateGoalCommand) error {
	return pkgerrors.NewNotFoundError("goal")
}

type createMealStub struct{}

func (createMealStub) Handle(context.Context, commands.CreateMealCommand) (*commands.CreateMealResult, error) {
	return &commands.CreateMealResult{MealID: "meal-1", UploadSignature: "sig"}, nil
}

type getMealStub struct{}

func (getMealStub) Handle(_ context.Context, q queries.GetMealQuery) (*queries.GetMealResult, error) {
	if q.MealID != "meal-1" {
		return nil, pkgerrors.NewNotFoundError("meal")
	}
	return &queries.GetMealResult{Meal: queries.MealView{ID: q.MealID, Status: "SUCCESS"}}, nil
}

type listMealsStub struct{ got queries.ListMealsByDateQuery }

func (l *listMealsStub) Handle(_ context.Context, q queries.ListMealsByDateQuery) (*queries.ListMealsByDateResult, error) {
	l.got = q
	return &queries.ListMealsByDateResult{Meals: []ports.MealSummary{}}, nil
}

// fakeAuth trusts an X-Account header so routes can be exercised without tokens
func fakeAuth(errs *pkgerrors.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID := r.Header.Get("X-Account")
			if accountID == "" {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
				return
			}
			next.ServeHTTP(w, r.WithContext(common.WithAccountID(r.Context(), accountID)))
		})
	}
}

type fixture struct {
	handler     http.Handler
	signUp      *signUpStub
	credentials *credentialsStub
	profiles    *profileStub
	listMeals   *listMealsStub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	errs := pkgerrors.NewErrorHandler(logger, false)
	f := &fixture{
		signUp:      &signUpStub{},
		credentials: &credentialsStub{},
		profiles:    &profileStub{},
		listMeals:   &listMealsStub{},
	}

	commandBus := bus.NewCommandBus()
	require.NoError(t, commandBus.Register(commands.SignUpCommand{}, bus.Typed(f.signUp.Handle)))
	require.NoError(t, commandBus.Register(commands.SignInCommand{}, bus.Typed(f.credentials.SignIn)))
	require.NoError(t, commandBus.Register(commands.RefreshTokenCommand{}, bus.Typed(f.credentials.RefreshToken)))
	require.NoError(t, commandBus.Register(commands.ForgotPasswordCommand{}, bus.TypedNoResult(f.credentials.ForgotPassword)))
	require.NoError(t, commandBus.Register(commands.ResetPasswordCommand{}, bus.TypedNoResult(f.credentials.ResetPassword)))
	require.NoError(t, commandBus.Register(commands.UpdateProfileCommand{}, bus.TypedNoResult(f.profiles.Handle)))
	require.NoError(t, commandBus.Register(commands.UpdateGoalCommand{}, bus.TypedNoResult(goalStub{}.Handle)))
	require.NoError(t, commandBus.Register(commands.CreateMealCommand{}, bus.Typed(createMealStub{}.Handle)))

	queryBus := querybus.NewQueryBus()
	require.NoError(t, queryBus.Register(queries.GetMeQuery{}, querybus.Typed(meStub{}.Handle)))
	require.NoError(t, queryBus.Register(queries.GetMealQuery{}, querybus.Typed(getMealStub{}.Handle)))
	require.NoError(t, queryBus.Register(queries.ListMealsByDateQuery{}, querybus.Typed(f.listMeals.Handle)))

	router := NewRouter(
		handlers.NewAuthHandler(commandBus, errs, logger),
		handlers.NewAccountHandler(commandBus, queryBus, errs, logger),
		handlers.NewMealHandler(commandBus, queryBus, errs, logger),
		errs,
		fakeAuth(errs),
		nil,
		RouterConfig{},
		logger,
	)
	f.handler = router.Setup()
	return f
}

func (f *fixture) do(method, path, body, account string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if account != "" {
		req.Header.Set("X-Account", account)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

const signUpBody = `{"account":{"email":"ada@example.com","password":"correct-horse"},
	"profile":{"name":"Ada","birthDate":"1990-01-01","gender":"FEMALE","height":170,"weight":60,
	"activityLevel":"LIGHT","goal":"MAINTAIN"}}`

func TestRouter_Health(t *testing.T) {
	rec := newFixture(t).do(http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestRouter_SignUp(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	rec := f.do(http.MethodPost, "/auth/sign-up", signUpBody, "")

	// Assert
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "access", decode(t, rec)["accessToken"])
	assert.Equal(t, "ada@example.com", f.signUp.got.Account.Email)
	assert.Equal(t, 60.0, f.signUp.got.Profile.Weight)
}

func TestRouter_SignUpConflict(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.signUp.err = pkgerrors.NewEmailAlreadyInUseError()

	// Act
	rec := f.do(http.MethodPost, "/auth/sign-up", signUpBody, "")

	// Assert
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, pkgerrors.CodeEmailAlreadyInUse, decode(t, rec)["code"])
}

func TestRouter_InvalidCommandsNeverReachTheirHandler(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	signUp := f.do(http.MethodPost, "/auth/sign-up", `{"account":{"email":"not-an-email","password":"short"},"profile":{}}`, "")
	listed := f.do(http.MethodGet, "/meals?date=09-05-2024", "", "acc-1")

	// Assert
	assert.Equal(t, http.StatusBadRequest, signUp.Code)
	assert.Equal(t, string(pkgerrors.ErrorTypeValidation), decode(t, signUp)["type"])
	assert.Empty(t, f.signUp.got.Account.Email)
	assert.Equal(t, http.StatusBadRequest, listed.Code)
	assert.Empty(t, f.listMeals.got.AccountID)
}

func TestRouter_RejectsMalformedBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty", body: ""},
		{name: "not json", body: "{"},
		{name: "unknown field", body: `{"email":"ada@example.com","admin":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newFixture(t).do(http.MethodPost, "/auth/forgot-password", tt.body, "")

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, string(pkgerrors.ErrorTypeValidation), decode(t, rec)["type"])
		})
	}
}

func TestRouter_AuthRoutes(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	signIn := f.do(http.MethodPost, "/auth/sign-in", `{"email":"ada@example.com","password":"wrong-pass"}`, "")
	refresh := f.do(http.MethodPost, "/auth/refresh-token", `{"refreshToken":"old"}`, "")
	forgot := f.do(http.MethodPost, "/auth/forgot-password", `{"email":"ada@example.com"}`, "")
	reset := f.do(http.MethodPost, "/auth/reset-password", `{"email":"ada@example.com","code":"1","password":"new-password"}`, "")

	// Assert
	assert.Equal(t, http.StatusUnauthorized, signIn.Code)
	assert.Equal(t, pkgerrors.CodeInvalidCredentials, decode(t, signIn)["code"])
	assert.Equal(t, http.StatusOK, refresh.Code)
	assert.Equal(t, http.StatusNoContent, forgot.Code)
	assert.Equal(t, []string{"ada@example.com"}, f.credentials.forgot)
	assert.Equal(t, http.StatusNoContent, reset.Code)
}

func TestRouter_PrivateRoutesRequireAuthentication(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/me", "/meals?date=2024-05-09", "/meals/meal-1"} {
		rec := f.do(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouter_AccountRoutes(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	me := f.do(http.MethodGet, "/me", "", "acc-1")
	profile := f.do(http.MethodPut, "/profiles", `{"name":"Ada","birthDate":"1990-01-01","gender":"FEMALE","height":170,"weight":61,"activityLevel":"LIGHT","goal":"LOSE"}`, "acc-1")
	goal := f.do(http.MethodPut, "/goals", `{"calories":2000,"proteins":120,"carbohydrates":200,"fats":60}`, "acc-1")

	// Assert
	assert.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "acc-1", decode(t, me)["profile"].(map[string]interface{})["name"])
	assert.Equal(t, http.StatusNoContent, profile.Code)
	assert.Equal(t, "acc-1", f.profiles.got.AccountID, "the account comes from the token, never the body")
	assert.Equal(t, http.StatusNotFound, goal.Code)
}

func TestRouter_MealRoutes(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	created := f.do(http.MethodPost, "/meals", `{"file":{"type":"image/jpeg","size":1024}}`, "acc-1")
	found := f.do(http.MethodGet, "/meals/meal-1", "", "acc-1")
	missing := f.do(http.MethodGet, "/meals/meal-2", "", "acc-1")
	listed := f.do(http.MethodGet, "/meals?date=2024-05-09", "", "acc-1")

	// Assert
	assert.Equal(t, http.StatusCreated, created.Code)
	assert.Equal(t, "meal-1", decode(t, created)["mealId"])
	assert.Equal(t, http.StatusOK, found.Code)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, http.StatusOK, listed.Code)
	assert.JSONEq(t, `{"meals":[]}`, listed.Body.String())
	assert.Equal(t, queries.ListMealsByDateQuery{AccountID: "acc-1", Date: "2024-05-09"}, f.listMeals.got)
}

func TestRouter_UnknownRoutes(t *testing.T) {
	f := newFixture(t)

	notFound := f.do(http.MethodGet, "/nope", "", "")
	notAllowed := f.do(http.MethodDelete, "/health", "", "")

	assert.Equal(t, http.StatusNotFound, notFound.Code)
	assert.Equal(t, http.StatusMethodNotAllowed, notAllowed.Code)
}
