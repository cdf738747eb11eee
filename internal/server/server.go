package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jonathan/resumeai/internal/config"
	"github.com/jonathan/resumeai/internal/logger"
	"github.com/jonathan/resumeai/internal/rendering"
	"github.com/jonathan/resumeai/internal/server/middleware"
	"github.com/jonathan/resumeai/internal/server/ratelimit"
)

const shutdownTimeout = 30 * time.Second

// Deps are the collaborators the server is built from. Store and Generator may be nil:
// the endpoints that need them then answer 503.
type Deps struct {
	Store     Store
	Generator TextGenerator
	// Render is the template, output directory, compiler and timeout used by
	// /create-resume. Its Logger is replaced per request.
	Render    rendering.Options
	Passwords *config.PasswordConfig
	JWT       *config.JWTConfig
	Limiter   *ratelimit.Limiter
	Logger    *logger.Logger
}

// Server represents the HTTP server
type Server struct {
	responder
	httpServer  *http.Server
	store       Store
	generator   TextGenerator
	render      rendering.Options
	rateLimiter *ratelimit.Limiter
	userService *UserService
	authHandler *AuthHandler
	handler     http.Handler
}

// New builds the server and its routes. It does not start listening.
func New(port int, deps Deps) (*Server, error) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	if deps.JWT == nil {
		return nil, errors.New("JWT configuration is required")
	}
	if err := deps.JWT.Validate(); err != nil {
		return nil, fmt.Errorf("invalid JWT configuration: %w", err)
	}
	if deps.Passwords == nil {
		return nil, errors.New("password configuration is required")
	}

	s := &Server{
		responder:   responder{log: log},
		store:       deps.Store,
		generator:   deps.Generator,
		render:      deps.Render,
		rateLimiter: deps.Limiter,
	}
	if s.rateLimiter == nil {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())
	}

	jwtService := NewJWTService(deps.JWT)
	var keys middleware.KeyResolver
	if deps.Store != nil {
		s.userService = NewUserService(deps.Store, deps.Passwords)
		s.authHandler = NewAuthHandler(s.userService, jwtService, log)
		keys = s.userService
	}
	requireAuth := middleware.AuthMiddleware(jwtService.AsTokenValidator(), keys)
	protect := func(h http.HandlerFunc) http.Handler {
		return requireAuth(s.withRateLimit(principalClient, h))
	}
	public := func(h http.HandlerFunc) http.Handler {
		return s.withRateLimit(ipClient, h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Accounts and keys
	mux.Handle("POST /register", public(s.accounts(func(h *AuthHandler) http.HandlerFunc { return h.Register })))
	mux.Handle("POST /login", public(s.accounts(func(h *AuthHandler) http.HandlerFunc { return h.Login })))
	mux.Handle("POST /api-keys", public(s.accounts(func(h *AuthHandler) http.HandlerFunc { return h.CreateAPIKey })))
	mux.Handle("GET /api-keys", protect(s.accounts(func(h *AuthHandler) http.HandlerFunc { return h.ListAPIKeys })))
	mux.Handle("DELETE /api-keys/current", protect(s.accounts(func(h *AuthHandler) http.HandlerFunc { return h.RevokeCurrentAPIKey })))

	// Text generation
	mux.Handle("POST /generate-cover-letter", protect(s.handleCoverLetter()))
	mux.Handle("POST /generate-project-description", protect(s.handleProjectDescription()))
	mux.Handle("POST /generate-summary", protect(s.handleSummary()))

	// Document assembly
	mux.Handle("POST /create-resume", protect(s.handleCreateResume))

	s.handler = middleware.RequestID(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second, // compilation and model calls
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)
	s.rateLimiter.Stop()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// accounts resolves an AuthHandler method, answering 503 when no store is configured.
func (s *Server) accounts(pick func(*AuthHandler) http.HandlerFunc) http.HandlerFunc {
	if s.authHandler == nil {
		return func(w http.ResponseWriter, _ *http.Request) {
			s.errorResponse(w, http.StatusServiceUnavailable, "account storage is not configured")
		}
	}
	return pick(s.authHandler)
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")
		h.Set("Access-Control-Expose-Headers", "X-Request-ID, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, Retry-After")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// withLogging logs one line per request.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetRequestID(r.Context()),
			"remote", clientIP(r),
		)
	})
}

// clientFunc derives the rate-limit identity of a request.
type clientFunc func(r *http.Request) ratelimit.Client

// ipClient limits by remote address. Used on routes that run before authentication so
// that presenting made-up credentials cannot buy a fresh bucket.
func ipClient(r *http.Request) ratelimit.Client {
	ip := clientIP(r)
	return ratelimit.Client{ID: "ip:" + ip, IP: ip}
}

// principalClient limits by authenticated user, so that all of a user's keys and tokens
// share one budget.
func principalClient(r *http.Request) ratelimit.Client {
	ip := clientIP(r)
	if p, err := middleware.GetPrincipal(r); err == nil {
		return ratelimit.Client{ID: "user:" + p.UserID.String(), IP: ip}
	}
	return ratelimit.Client{ID: "ip:" + ip, IP: ip}
}

// clientIP extracts the IP address from RemoteAddr. X-Forwarded-For is not trusted.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(client clientFunc, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(client(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.UTC().Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		secs := int((info.RetryAfter + time.Second - 1) / time.Second)
		response["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}

	s.log.Warn("rate limit exceeded", "path", r.URL.Path, "remote", clientIP(r), "limit", info.Limit)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// pinger is implemented by stores that can report connectivity.
type pinger interface {
	Ping(ctx context.Context) error
}

// availability is implemented by compilers that can report whether their binary exists.
type availability interface {
	Available() bool
}

// handleHealth reports liveness and the state of the service's collaborators.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := map[string]string{}

	if p, ok := s.store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			s.log.Warn("health check: database unreachable", "error", err)
			checks["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}
	if c, ok := s.render.Compiler.(availability); ok {
		if c.Available() {
			checks["compiler"] = "ok"
		} else {
			checks["compiler"] = "unavailable"
		}
	}

	body := map[string]any{"status": "ok", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	s.jsonResponse(w, status, body)
}
