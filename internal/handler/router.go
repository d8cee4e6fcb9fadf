package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/creator-surge/backend/internal/handler/chat"
	"github.com/zhouzirui/creator-surge/backend/internal/handler/project"
	"github.com/zhouzirui/creator-surge/backend/internal/handler/realtime"
	"github.com/zhouzirui/creator-surge/backend/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/creator-surge/backend/internal/middleware"
	chatService "github.com/zhouzirui/creator-surge/backend/internal/service/chat"
	"github.com/zhouzirui/creator-surge/backend/internal/service/devforge"
	"github.com/zhouzirui/creator-surge/backend/pkg/utils"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the services the router exposes.
type Dependencies struct {
	Chat        *chatService.Service
	Projects    *devforge.Service
	Store       Pinger
	AIAvailable bool
	Logger      *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		api.Get("/", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Creator Surge AI Backend Running"})
		})
		api.Get("/health", healthHandler(deps))

		if deps.Chat != nil {
			chat.New(deps.Chat, logger).RegisterRoutes(api)
			stream.New(deps.Chat, logger).RegisterRoutes(api)
			realtime.New(deps.Chat, logger).RegisterRoutes(api)
		}
		if deps.Projects != nil {
			project.New(deps.Projects, logger).RegisterRoutes(api)
		}
	})

	return r
}

func healthHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]any{
			"status":    "ok",
			"store":     "ok",
			"ai":        "configured",
			"timestamp": time.Now().UTC(),
		}
		if !deps.AIAvailable {
			body["ai"] = "unavailable"
		}

		if deps.Store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := deps.Store.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body["store"] = err.Error()
			}
		}
		utils.RespondJSON(w, status, body)
	}
}
