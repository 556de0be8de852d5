package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"ai-reel-studio/internal/infra/metrics"
	"ai-reel-studio/internal/infra/redis"
	"ai-reel-studio/internal/usecase"
)

// Config carries the handler knobs that are not use-cases.
type Config struct {
	OutputDir string
	Width     int
	Height    int

	// Fixed-window rate limit applied to authenticated generation routes.
	RateLimit  int
	RateWindow time.Duration
}

type Server struct {
	accounts usecase.AccountUseCase
	board    usecase.LeaderboardUseCase
	scenes   usecase.SceneUseCase
	reel     usecase.ReelUseCase
	runs     usecase.RunUseCase

	auth    *AuthManager
	limiter *redis.RateLimiter
	cfg     Config
	log     *zerolog.Logger
}

func NewServer(
	accounts usecase.AccountUseCase,
	board usecase.LeaderboardUseCase,
	scenes usecase.SceneUseCase,
	reel usecase.ReelUseCase,
	runs usecase.RunUseCase,
	auth *AuthManager,
	limiter *redis.RateLimiter,
	cfg Config,
	logger *zerolog.Logger,
) *Server {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 30
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}
	return &Server{
		accounts: accounts,
		board:    board,
		scenes:   scenes,
		reel:     reel,
		runs:     runs,
		auth:     auth,
		limiter:  limiter,
		cfg:      cfg,
		log:      logger,
	}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)

	r.Get("/health", s.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/signup", s.signup)
		r.Post("/login", s.login)
		r.Post("/logout", s.logout)

		r.Group(func(r chi.Router) {
			r.Use(s.sessionMiddleware)

			r.Get("/me", s.me)
			r.Post("/me/videos", s.incrementVideos)
			r.Get("/leaderboard", s.leaderboard)
			r.Get("/files", s.listFiles)
			r.Get("/files/*", s.downloadFile)
			r.Get("/runs", s.listRuns)
			r.Get("/runs/{id}", s.getRun)

			r.Group(func(r chi.Router) {
				r.Use(s.rateLimitMiddleware)

				r.Post("/scene-prompts", s.scenePrompts)
				r.Post("/scenes", s.generateAllScenes)
				r.Post("/scenes/{slot}", s.generateScene)
				r.Post("/merge", s.merge)
				r.Post("/voiceover", s.voiceover)
				r.Post("/attach-audio", s.attachAudio)
				r.Post("/captions", s.captions)
				r.Post("/burn-captions", s.burnCaptions)
				r.Post("/runs", s.createRun)
			})
		})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// sessionMiddleware rejects requests without a valid session token and puts
// the parsed claims on the request context.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), claims)))
	})
}

// rateLimitMiddleware throttles the expensive generation routes per user.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		claims, ok := SessionFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		key := redis.UserRouteKey(claims.Subject, r.URL.Path)
		allowed, err := s.limiter.Allow(r.Context(), key, s.cfg.RateLimit, s.cfg.RateWindow)
		if err != nil {
			// Redis being down should not take the API down with it.
			s.log.Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		elapsed := time.Since(start)

		// The route pattern is only known once chi has matched it.
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		metrics.ObserveHTTPRequest(r.Method, route, sw.status, elapsed.Seconds())
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", elapsed).
			Msg("http request")
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panicked")
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
