package api

import (
	"net/http"
	"time"

	"gradersmith/internal/api/handler"
	"gradersmith/internal/app/service"
	"gradersmith/internal/common/security"
	"gradersmith/internal/platform/config"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	cfg *config.Config,
	tokens *security.TokenAuth,
	authService *service.AuthService,
	problemService *service.ProblemService,
	submissionService *service.SubmissionService,
	progressService *service.ProgressService,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Verifies a bearer token when present and parks the claims in the
	// request context; the Authenticator middleware enforces them.
	r.Use(jwtauth.Verifier(tokens.Auth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(apiRouter chi.Router) {
		authHandler := handler.NewAuthHandler(authService)
		apiRouter.Route("/auth", authHandler.RegisterRoutes)

		problemHandler := handler.NewProblemHandler(problemService)
		apiRouter.Route("/problems", problemHandler.RegisterRoutes)

		submissionHandler := handler.NewSubmissionHandler(submissionService, cfg.PollRetryAfterSecs)
		apiRouter.Route("/submissions", submissionHandler.RegisterRoutes)

		progressHandler := handler.NewProgressHandler(progressService)
		apiRouter.Route("/progress", progressHandler.RegisterRoutes)
	})

	return r
}
