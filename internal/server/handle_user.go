package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/eversols/autismquiz/internal/autismquiz"
)

const maxAge = 150

// ProfileResponse is the response for PUT /api/user/profile.
type ProfileResponse struct {
	Message string          `json:"message"`
	User    autismquiz.User `json:"user"`
}

func handleGetSettings(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := store.Settings(r.Context(), userIDFrom(r))
		if err != nil {
			logger.Error("loading settings", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func handleUpdateSettings(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s autismquiz.Settings
		if err := readJSON(w, r, &s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !s.ProfileVisibility.Valid() {
			writeError(w, http.StatusBadRequest, "profileVisibility must be Public, Friends Only or Private")
			return
		}

		if err := store.SaveSettings(r.Context(), userIDFrom(r), s); err != nil {
			logger.Error("saving settings", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func handleUpdateProfile(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p autismquiz.Profile
		if err := readJSON(w, r, &p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		if p.Age != nil && (*p.Age < 0 || *p.Age > maxAge) {
			writeError(w, http.StatusBadRequest, "age must be between 0 and 150")
			return
		}

		user, err := store.UpdateProfile(r.Context(), userIDFrom(r), p)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		if err != nil {
			logger.Error("updating profile", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, ProfileResponse{Message: "Profile updated", User: user})
	}
}

func handleMe(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := store.UserByID(r.Context(), userIDFrom(r))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		if err != nil {
			logger.Error("loading user", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}
