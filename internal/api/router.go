package api

import (
	"net/http"
	"time"

	// This blank import is required by swaggo to find the API definitions.
	_ "berean/backend/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter creates and configures a new chi router with all the application's routes.
func NewRouter(relayHandler *RelayHandler, chatHandler *ChatHandler, compareHandler *CompareHandler, personaHandler *PersonaHandler, settingsHandler *SettingsHandler) *chi.Mux {
	r := chi.NewRouter()

	// --- Global Middleware ---
	// These are applied to every request.
	r.Use(middleware.RequestID) // Injects a unique request ID into the context.
	r.Use(middleware.RealIP)    // Sets the remote address to the real IP from proxy headers.
	r.Use(middleware.Logger)    // Logs the start and end of each request with useful info.
	r.Use(middleware.Recoverer) // Recovers from panics and returns a 500 error.

	// A non-POST call to the relay must get a JSON client error, never
	// streaming headers.
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
	})

	// --- Public Routes ---

	// Serves the auto-generated Swagger UI for API documentation.
	r.Get("/api/swagger/*", httpSwagger.WrapHandler)

	// A simple health check endpoint, used by container orchestration for
	// liveness and readiness probes.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// The relay holds a connection open for the lifetime of one upstream
	// completion, so it lives outside any timeout group.
	r.Post("/api/chat", relayHandler.HandleRelay)

	// --- API Version 1 Routes ---
	r.Route("/api/v1", func(r chi.Router) {

		// Group for standard JSON API routes that should have a request timeout
		// to prevent client connections from hanging indefinitely.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			// --- Personas ---
			r.Get("/personas", personaHandler.HandleListPersonas)
			r.Get("/personas/{personaID}", personaHandler.HandleGetPersona)

			// --- Conversations ---
			r.Get("/conversations", chatHandler.GetConversations)
			r.Get("/conversations/{conversationID}", chatHandler.GetConversation)
			r.Get("/conversations/{conversationID}/export", chatHandler.HandleExportConversation)
			r.Delete("/conversations/{conversationID}", chatHandler.HandleDeleteConversation)

			// --- Comparisons ---
			r.Get("/comparisons", compareHandler.GetComparisons)
			r.Get("/comparisons/{comparisonID}", compareHandler.GetComparison)
			r.Get("/comparisons/{comparisonID}/export", compareHandler.HandleExportComparison)
			r.Delete("/comparisons/{comparisonID}", compareHandler.HandleDeleteComparison)

			// --- Settings ---
			r.Get("/settings", settingsHandler.GetSettings)
			r.Post("/settings", settingsHandler.UpdateSettings)
		})

		// Group for long-running, streaming endpoints. These routes must NOT have a timeout,
		// as they are designed to hold a connection open for an extended period.
		r.Group(func(r chi.Router) {
			r.Post("/conversations/messages", chatHandler.HandleStreamMessage)
			r.Post("/compare", compareHandler.HandleCompare)
		})
	})

	// --- Frontend File Server ---
	// Serves the static browser front end. In production this would usually
	// sit behind Nginx, but it keeps local development to one process.
	fileServer := http.FileServer(http.Dir("./frontend/dist"))
	r.Handle("/*", http.StripPrefix("/", fileServer))

	return r
}
