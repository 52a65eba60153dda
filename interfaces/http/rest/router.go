package rest

import (
	"net/http"

	"foodiary/interfaces/http/rest/handlers"
	"foodiary/interfaces/http/rest/middleware"
	"foodiary/pkg/auth"
	pkgerrors "foodiary/pkg/errors"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig holds the cross-cutting settings of the router
type RouterConfig struct {
	EnableCORS  bool
	CORSOrigins []string
}

// Router creates and configures the HTTP router
type Router struct {
	auth         *handlers.AuthHandler
	account      *handlers.AccountHandler
	meals        *handlers.MealHandler
	errors       *pkgerrors.ErrorHandler
	authenticate func(http.Handler) http.Handler
	limiter      *auth.IPRateLimiter
	config       RouterConfig
	logger       *zap.Logger
}

// NewRouter creates a new router instance. authenticate guards the private
// routes; limiter throttles the public auth routes.
func NewRouter(
	authHandler *handlers.AuthHandler,
	accountHandler *handlers.AccountHandler,
	mealHandler *handlers.MealHandler,
	errs *pkgerrors.ErrorHandler,
	authenticate func(http.Handler) http.Handler,
	limiter *auth.IPRateLimiter,
	cfg RouterConfig,
	logger *zap.Logger,
) *Router {
	return &Router{
		auth:         authHandler,
		account:      accountHandler,
		meals:        mealHandler,
		errors:       errs,
		authenticate: authenticate,
		limiter:      limiter,
		config:       cfg,
		logger:       logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Logger(rt.logger))

	if rt.config.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.config.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusNotFound, "Route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.Get("/health", rt.healthCheck)

	// Public routes
	router.Route("/auth", func(r chi.Router) {
		if rt.limiter != nil {
			r.Use(middleware.RateLimit(rt.limiter, rt.errors))
		}
		r.Post("/sign-up", rt.auth.SignUp)
		r.Post("/sign-in", rt.auth.SignIn)
		r.Post("/refresh-token", rt.auth.RefreshToken)
		r.Post("/forgot-password", rt.auth.ForgotPassword)
		r.Post("/reset-password", rt.auth.ResetPassword)
	})

	// Private routes
	router.Group(func(r chi.Router) {
		r.Use(rt.authenticate)

		r.Get("/me", rt.account.GetMe)
		r.Put("/profiles", rt.account.UpdateProfile)
		r.Put("/goals", rt.account.UpdateGoal)

		r.Route("/meals", func(r chi.Router) {
			r.Post("/", rt.meals.CreateMeal)
			r.Get("/", rt.meals.ListMeals)
			r.Get("/{mealID}", rt.meals.GetMeal)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
