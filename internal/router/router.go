package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"coursetaker-backend/internal/handlers"
	"coursetaker-backend/internal/middleware"
	"coursetaker-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	courseHandler *handlers.CourseHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	// Segmenting calls out to YouTube, so it gets its own limit
	segmentLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
		})

		// ──── Course Routes ────
		r.Route("/courses", func(r chi.Router) {
			// Guest preview never persists, so it stays public
			r.With(segmentLimiter.Middleware).Post("/preview", courseHandler.Preview)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.With(segmentLimiter.Middleware).Post("/", courseHandler.Create)
				r.Get("/", courseHandler.List)
				r.Get("/{id}", courseHandler.Get)
				r.Patch("/{id}/segments/{position}", courseHandler.UpdateSegment)
				r.Delete("/{id}", courseHandler.Delete)
			})
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
