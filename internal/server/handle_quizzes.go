package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eversols/autismquiz/internal/autismquiz"
)

// QuizListResponse is the response for GET /api/quizzes.
type QuizListResponse struct {
	Quizzes []autismquiz.QuizSummary `json:"quizzes"`
}

// QuizResponse is the response for GET /api/quizzes/{id}.
type QuizResponse struct {
	Quiz QuizDetail `json:"quiz"`
}

// ResourceListResponse is the response for GET /api/resources.
type ResourceListResponse struct {
	Resources []autismquiz.Resource `json:"resources"`
}

func handleListQuizzes(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizzes, err := store.ListQuizzes(r.Context())
		if err != nil {
			logger.Error("listing quizzes", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, QuizListResponse{Quizzes: quizzes})
	}
}

func handleGetQuiz(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusNotFound, "quiz not found")
			return
		}

		quiz, err := store.Quiz(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "quiz not found")
			return
		}
		if err != nil {
			logger.Error("loading quiz", "quiz_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, QuizResponse{Quiz: quiz})
	}
}

func handleListResources(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resources, err := store.ListResources(r.Context())
		if err != nil {
			logger.Error("listing resources", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, ResourceListResponse{Resources: resources})
	}
}
