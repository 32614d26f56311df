package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/marselbeijing/ispeech-helper/internal/domain"
	"github.com/marselbeijing/ispeech-helper/internal/domain/ports/adapter"
	"github.com/marselbeijing/ispeech-helper/internal/infra/logging"
	"github.com/marselbeijing/ispeech-helper/internal/infra/redis"
	"github.com/marselbeijing/ispeech-helper/internal/usecase"
)

// purchaseRateLimit bounds purchase calls per user per window. The in-memory
// attempt guard handles true concurrency; this window only damps abuse
// across instances.
const (
	purchaseRateLimit  = 5
	purchaseRateWindow = time.Minute
)

type Server struct {
	progressUC usecase.ProgressUseCase
	subUC      usecase.SubscriptionUseCase
	purchaseUC usecase.PurchaseUseCase
	identity   adapter.IdentityProvider
	sessions   *SessionManager
	limiter    *redis.RateLimiter // may be nil
	log        *zerolog.Logger
}

func NewServer(
	progressUC usecase.ProgressUseCase,
	subUC usecase.SubscriptionUseCase,
	purchaseUC usecase.PurchaseUseCase,
	identity adapter.IdentityProvider,
	sessions *SessionManager,
	limiter *redis.RateLimiter,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		progressUC: progressUC,
		subUC:      subUC,
		purchaseUC: purchaseUC,
		identity:   identity,
		sessions:   sessions,
		limiter:    limiter,
		log:        &l,
	}
}

// Router assembles the public API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/telegram", s.handleAuth)

		r.Group(func(r chi.Router) {
			r.Use(s.sessionMiddleware)
			r.Get("/me/stats", s.handleGetStats)
			r.Post("/me/exercises", s.handleRecordExercise)
			r.Get("/me/subscription", s.handleGetSubscription)
			r.With(s.purchaseLimiter).Post("/me/subscription/purchase", s.handlePurchase)
		})
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))
		logging.With(ctx, s.log).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type ctxUserKey struct{}

// sessionMiddleware authenticates the bearer session token and stores the
// user id in the request context.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.sessions.ParseFromRequest(r)
		if err != nil {
			writeError(w, domain.ErrUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserKey{}, claims.UserID)
		ctx = logging.WithUserID(ctx, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxUserKey{}).(string)
	return id
}

func (s *Server) purchaseLimiter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil {
			key := redis.UserRouteKey(userIDFrom(r.Context()), "purchase")
			ok, err := s.limiter.Allow(r.Context(), key, purchaseRateLimit, purchaseRateWindow)
			if err != nil {
				// Rate limiting is protective, not load-bearing.
				s.log.Warn().Err(err).Msg("rate limiter unavailable")
			} else if !ok {
				writeError(w, domain.ErrRateLimited)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
