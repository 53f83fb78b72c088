// Package httpapi exposes the account, password reset and catalog
// operations as a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/paperhub/internal/common"
	"github.com/dmitrijs2005/paperhub/internal/logging"
	"github.com/dmitrijs2005/paperhub/internal/server/models"
	"github.com/dmitrijs2005/paperhub/internal/server/ratelimit"
	"github.com/dmitrijs2005/paperhub/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
)

// AuthAPI is the account surface the handlers need.
type AuthAPI interface {
	Signup(ctx context.Context, in services.SignupInput) (string, error)
	Login(ctx context.Context, email, secret string) (string, error)
	Authenticate(ctx context.Context, token string) (string, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newSecret string) error
}

// CatalogAPI is the paper surface the handlers need.
type CatalogAPI interface {
	Upload(ctx context.Context, userID string, in services.Upload) (*models.PaperWithUploader, error)
	Search(ctx context.Context, query string) ([]models.PaperWithUploader, error)
	Get(ctx context.Context, paperID string) (*models.PaperWithUploader, error)
	Download(ctx context.Context, userID, paperID string) (*services.Download, error)
}

type Options struct {
	Address            string
	RequestTimeout     time.Duration
	MaxUploadBytes     int64
	CORSAllowedOrigins []string
	// Limiter throttles login and password reset. Nil disables throttling.
	Limiter *ratelimit.Limiter
}

type Server struct {
	address        string
	auth           AuthAPI
	catalog        CatalogAPI
	limiter        *ratelimit.Limiter
	logger         logging.Logger
	validate       *validator.Validate
	requestTimeout time.Duration
	maxUploadBytes int64
	corsOrigins    []string
}

func NewServer(l logging.Logger, a AuthAPI, c CatalogAPI, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &Server{
		address:        opts.Address,
		auth:           a,
		catalog:        c,
		limiter:        opts.Limiter,
		logger:         l.With("module", "http_server"),
		validate:       newValidator(),
		requestTimeout: opts.RequestTimeout,
		maxUploadBytes: opts.MaxUploadBytes,
		corsOrigins:    opts.CORSAllowedOrigins,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.logRequests, middleware.Recoverer, middleware.Timeout(s.requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", common.AccessTokenHeaderName},
		ExposedHeaders: []string{ratelimit.LimitHeader, ratelimit.RemainingHeader, ratelimit.ResetHeader},
		MaxAge:         300,
	}))

	throttle := func(scope string) func(http.Handler) http.Handler {
		if s.limiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return s.limiter.Middleware(scope+":ip", clientIP, s.logger, rateLimited)
	}

	r.Get("/healthz", s.healthz)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", s.signup)
		r.With(throttle("login")).Post("/login", s.login)
		r.With(throttle("forgot")).Post("/forgot-password", s.forgotPassword)
		r.With(throttle("verify")).Post("/verify-otp", s.verifyOtp)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Get("/profile", s.getProfile)
			r.Put("/profile", s.updateProfile)
		})
	})

	r.Route("/papers", func(r chi.Router) {
		r.Get("/search", s.searchPapers)
		r.Get("/{id}", s.getPaper)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Post("/upload", s.uploadPaper)
			r.Post("/{id}/download", s.downloadPaper)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-done
}
