package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Autism Quiz API", "/openapi.json", "/docs"))
	if deps.Health != nil {
		r.Mount("/healthz", deps.Health)
	}

	store := deps.Store
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", handleRegister(logger, store, deps.Tokens, deps.BcryptCost))
		r.Post("/auth/login", handleLogin(logger, store, deps.Tokens))

		r.Get("/quizzes", handleListQuizzes(logger, store))
		r.Get("/quizzes/{id}", handleGetQuiz(logger, store))
		r.Get("/resources", handleListResources(logger, store))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth(logger, deps.Tokens))

			r.Get("/user/me", handleMe(logger, store))
			r.Get("/user/settings", handleGetSettings(logger, store))
			r.Put("/user/settings", handleUpdateSettings(logger, store))
			r.Put("/user/profile", handleUpdateProfile(logger, store))

			r.Get("/assessments", handleListAssessments(logger, store))
			r.Post("/assessments", handleCreateAssessment(logger, store))
			r.Get("/assessments/{id}", handleGetAssessment(logger, store))
			r.Post("/assessments/{id}/answers", handleSubmitAnswers(logger, store))
		})
	})
}
