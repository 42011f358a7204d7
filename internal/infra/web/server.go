package web

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"noor-community/internal/config"
	"noor-community/internal/infra/logging"
	"noor-community/internal/infra/redis"
	"noor-community/internal/usecase"
)

const actorHeader = "X-User-ID"

// Server exposes the lifecycle operations over HTTP. Every business
// route goes through the coordinator so the response always carries a
// named outcome.
type Server struct {
	coord   *usecase.Coordinator
	redUC   usecase.RedemptionUseCase
	memUC   usecase.MembershipUseCase
	reactUC usecase.ReactionUseCase
	auth    *AuthManager
	limiter *redis.RateLimiter
	cfg     config.APIConfig
	log     *zerolog.Logger
	server  *http.Server
}

func NewServer(
	coord *usecase.Coordinator,
	redUC usecase.RedemptionUseCase,
	memUC usecase.MembershipUseCase,
	reactUC usecase.ReactionUseCase,
	auth *AuthManager,
	limiter *redis.RateLimiter,
	cfg config.APIConfig,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		coord:   coord,
		redUC:   redUC,
		memUC:   memUC,
		reactUC: reactUC,
		auth:    auth,
		limiter: limiter,
		cfg:     cfg,
		log:     &l,
	}
}

// Router builds the chi mux. Exposed so tests and cmd wiring can mount
// extra handlers next to the API routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.traceMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)

		// Admin surface.
		r.Group(func(r chi.Router) {
			r.Use(s.adminMiddleware)
			r.Post("/codes", s.handleCreateCode)
			r.Get("/codes/{code}", s.handleLookupCode)
			r.Post("/trials", s.handleActivateTrial)
		})

		// Actor surface.
		r.Group(func(r chi.Router) {
			r.Use(s.actorMiddleware)
			r.With(s.rateLimitMiddleware("redeem")).Post("/redemptions", s.handleRedeem)
			r.Post("/groups", s.handleCreateGroup)
			r.Post("/groups/join-by-invite", s.handleJoinByInvite)
			r.Post("/groups/{groupID}/join-requests", s.handleRequestJoin)
			r.Get("/groups/{groupID}/join-requests", s.handlePendingRequests)
			r.Delete("/groups/{groupID}/membership", s.handleLeave)
			r.Post("/join-requests/{requestID}/review", s.handleReview)
			r.Post("/reactions", s.handleReact)
			r.Delete("/reactions", s.handleUnreact)
			r.Get("/reactions/count", s.handleCountReactions)
		})
	})

	return r
}

func (s *Server) Start(extra func(chi.Router)) error {
	r := s.Router()
	if extra != nil {
		extra(r)
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Int("port", s.cfg.Port).Msg("HTTP server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// traceMiddleware stamps each request with a trace id that the loggers
// down the stack pick up from the context.
func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
		}
		ctx := logging.WithTraceID(r.Context(), traceID)
		w.Header().Set("X-Trace-ID", traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// actorMiddleware requires the caller identity header set by the API
// gateway and threads it through the context.
func (s *Server) actorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actorID := r.Header.Get(actorHeader)
		if actorID == "" {
			writeError(w, http.StatusUnauthorized, "missing "+actorHeader)
			return
		}
		ctx := logging.WithActorID(r.Context(), actorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil || claims.Role != "admin" {
			writeError(w, http.StatusUnauthorized, "admin session required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware throttles the named operation per actor. Redis
// being down fails open: losing throttling beats refusing everyone.
func (s *Server) rateLimitMiddleware(operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.limiter == nil {
				next.ServeHTTP(w, r)
				return
			}
			actorID := r.Header.Get(actorHeader)
			key := redis.ActorOperationKey(actorID, operation)
			ok, err := s.limiter.Allow(r.Context(), key, s.cfg.RedeemLimit, s.cfg.RedeemWindow)
			if err != nil {
				s.log.Warn().Err(err).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
