package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"courierhub/internal/auth"
	chatcontroller "courierhub/internal/chat/controller"
	couriercontroller "courierhub/internal/courier/controller"
	"courierhub/internal/infrastructure/logger"
	"courierhub/internal/infrastructure/metrics"
	"courierhub/internal/marker"
	ordercontroller "courierhub/internal/order/controller"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth         *auth.Controller
	Sessions     *auth.Sessions
	Courier      *couriercontroller.CourierController
	Orders       *ordercontroller.OrderController
	Chat         *chatcontroller.ChatController
	Markers      *marker.Controller
	WebSocket    http.Handler
	LoginLimiter *RateLimiter
	// TrustProxy lets forwarding headers replace the socket address, which is
	// what the login limiter keys on.
	TrustProxy bool
	// Ping reports whether the database is reachable.
	Ping func(ctx context.Context) error
}

func NewRouter(h Handlers, zapLogger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if h.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(logger.RequestLogger(zapLogger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)

	r.Get("/healthz", healthHandler(h.Ping))
	r.Handle("/metrics", metrics.Handler())
	r.Handle("/ws", h.WebSocket)

	r.Route("/api", func(r chi.Router) {
		r.With(h.LoginLimiter.Handler).Post("/login", h.Auth.Login)
		r.Post("/logout", h.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(h.Sessions.Require)

			r.Get("/auth/user", h.Auth.CurrentUser)

			r.Get("/courier", h.Courier.GetCourier)
			r.Patch("/courier", h.Courier.UpdateCourier)
			r.Patch("/courier/status", h.Courier.UpdateStatus)
			r.Patch("/courier/location", h.Courier.UpdateLocation)

			r.Get("/orders", h.Orders.List)
			r.Post("/orders", h.Orders.Create)
			r.Get("/orders/active", h.Orders.Active)
			r.Get("/orders/history", h.Orders.History)
			r.Get("/orders/stats", h.Orders.Stats)
			r.Patch("/orders/{id}", h.Orders.Update)
			r.Delete("/orders/{id}", h.Orders.Delete)
			r.Patch("/orders/{id}/status", h.Orders.UpdateStatus)
			r.Patch("/orders/{id}/location", h.Orders.UpdateLocation)
			r.Get("/orders/{id}/messages", h.Chat.List)
			r.Post("/orders/{id}/messages", h.Chat.Post)
			r.Get("/orders/{id}/unread", h.Chat.Unread)

			r.Get("/markers", h.Markers.HandleList)
			r.Post("/markers", h.Markers.HandleCreate)
			r.Patch("/markers/{id}", h.Markers.HandleMove)
			r.Delete("/markers/{id}", h.Markers.HandleDelete)
		})
	})

	return r
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
