package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mentora-learn/mentora-api/internal/api/middleware"
	"github.com/mentora-learn/mentora-api/internal/api/shared"
)

// routes assembles the HTTP router: public auth endpoints, authenticated
// API endpoints and the health check.
func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(120 * time.Second))
	r.Use(middleware.TraceMiddleware)

	r.Get("/health", app.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", app.authHandler.Register)
		r.Post("/auth/login", app.authHandler.Login)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(app.authMiddleware.Authenticate)

			r.Put("/credentials", app.credentialHandler.Store)

			r.Post("/generations", app.generationHandler.Generate)
			r.Get("/generations/{id}", app.generationHandler.GetResult)

			r.Post("/quizzes/{id}/submissions", app.quizHandler.Submit)
			r.Get("/progress", app.quizHandler.GetProgress)

			r.Get("/credits/balance", app.creditHandler.GetBalance)
			r.Get("/credits/transactions", app.creditHandler.ListTransactions)
		})
	})

	return r
}

// handleHealth reports process liveness and database reachability.
func (app *application) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := app.db.PingContext(r.Context()); err != nil {
		shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
