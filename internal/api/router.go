package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures the chi router with all routes.
func NewRouter(conversationHandler *ConversationHandler, workflowHandler *WorkflowHandler) *chi.Mux {
	r := chi.NewRouter()

	// --- Global Middleware ---
	r.Use(middleware.RequestID) // Injects a unique request ID into the context.
	r.Use(middleware.RealIP)    // Sets the remote address to the real IP from proxy headers.
	r.Use(middleware.Logger)    // Logs the start and end of each request.
	r.Use(middleware.Recoverer) // Recovers from panics and returns a 500 error.

	// Health check, crucial for container orchestration probes.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// Standard JSON routes carry a request timeout so connections
		// cannot hang indefinitely.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Post("/sessions", conversationHandler.CreateSession)
			r.Get("/sessions/{sessionID}", conversationHandler.GetSession)
		})

		// Streaming routes must NOT have a timeout: they hold the
		// connection open for the whole generation.
		r.Group(func(r chi.Router) {
			r.Post("/conversations/{sessionID}/stream", conversationHandler.StreamTurn)
			r.Post("/sessions/{sessionID}/offer/stream", workflowHandler.StreamOffer)
			r.Post("/sessions/{sessionID}/demo/stream", workflowHandler.StreamDemo)
		})
	})

	return r
}
