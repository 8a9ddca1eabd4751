package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eversols/autismquiz/internal/autismquiz"
)

// CreateAssessmentRequest is the request body for POST /api/assessments.
type CreateAssessmentRequest struct {
	QuizID autismquiz.ID `json:"quizId"`
}

// CreateAssessmentResponse is the response for POST /api/assessments.
type CreateAssessmentResponse struct {
	AssessmentID string `json:"assessmentId"`
}

// SubmitAnswersRequest is the request body for
// POST /api/assessments/{id}/answers.
type SubmitAnswersRequest struct {
	Answers []autismquiz.SubmittedAnswer `json:"answers"`
}

// SubmitAnswersResponse is returned once answers are recorded.
type SubmitAnswersResponse struct {
	AssessmentID string `json:"assessmentId"`
	TotalScore   int    `json:"totalScore"`
}

// AssessmentListResponse is the response for GET /api/assessments.
type AssessmentListResponse struct {
	Assessments []Assessment `json:"assessments"`
}

func handleCreateAssessment(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAssessmentRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		quizID, err := strconv.ParseInt(req.QuizID.String(), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "quizId is required")
			return
		}

		userID := userIDFrom(r)
		id, err := store.CreateAssessment(r.Context(), userID, quizID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "quiz not found")
			return
		}
		if err != nil {
			logger.Error("creating assessment", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		logger.Info("assessment created", "assessment_id", id, "quiz_id", quizID, "user_id", userID)
		writeJSON(w, http.StatusCreated, CreateAssessmentResponse{AssessmentID: id})
	}
}

func handleSubmitAnswers(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		a, ok := ownAssessment(w, r, logger, store, id)
		if !ok {
			return
		}
		if a.SubmittedAt != nil {
			writeError(w, http.StatusConflict, "assessment already submitted")
			return
		}

		var req SubmitAnswersRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		quiz, err := store.Quiz(r.Context(), a.QuizID)
		if err != nil {
			logger.Error("loading quiz for assessment", "assessment_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		records, total, err := scoreAnswers(quiz, req.Answers)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		err = store.SubmitAnswers(r.Context(), id, records, total)
		if errors.Is(err, ErrAlreadySubmitted) {
			writeError(w, http.StatusConflict, "assessment already submitted")
			return
		}
		if err != nil {
			logger.Error("saving answers", "assessment_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		logger.Info("assessment submitted", "assessment_id", id, "score", total)
		writeJSON(w, http.StatusOK, SubmitAnswersResponse{AssessmentID: id, TotalScore: total})
	}
}

func handleGetAssessment(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := ownAssessment(w, r, logger, store, chi.URLParam(r, "id"))
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func handleListAssessments(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListAssessments(r.Context(), userIDFrom(r))
		if err != nil {
			logger.Error("listing assessments", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, AssessmentListResponse{Assessments: list})
	}
}

// ownAssessment loads the assessment and checks that it belongs to the
// caller. Other users' assessments are reported as missing.
func ownAssessment(w http.ResponseWriter, r *http.Request, logger *slog.Logger, store Store, id string) (Assessment, bool) {
	a, err := store.Assessment(r.Context(), id)
	if errors.Is(err, ErrNotFound) || (err == nil && a.UserID != userIDFrom(r)) {
		writeError(w, http.StatusNotFound, "assessment not found")
		return Assessment{}, false
	}
	if err != nil {
		logger.Error("loading assessment", "assessment_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return Assessment{}, false
	}
	return a, true
}

// scoreAnswers checks a submission against the quiz: every question is
// answered exactly once, each option belongs to its question and carries
// the submitted value. Records come back in question order.
func scoreAnswers(quiz QuizDetail, answers []autismquiz.SubmittedAnswer) ([]AnswerRecord, int, error) {
	type key struct{ question, option int64 }
	values := make(map[key]int)
	position := make(map[int64]int, len(quiz.Questions))
	for i, q := range quiz.Questions {
		position[q.ID] = i
		for _, o := range q.Options {
			values[key{q.ID, o.ID}] = o.OptionValue
		}
	}

	records := make([]AnswerRecord, len(quiz.Questions))
	seen := make(map[int64]bool, len(answers))
	total := 0
	for _, a := range answers {
		qid, err := strconv.ParseInt(a.QuestionID.String(), 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid question id %q", a.QuestionID)
		}
		pos, ok := position[qid]
		if !ok {
			return nil, 0, fmt.Errorf("question %d is not part of this quiz", qid)
		}
		if seen[qid] {
			return nil, 0, fmt.Errorf("question %d answered more than once", qid)
		}
		seen[qid] = true

		oid, err := strconv.ParseInt(a.OptionID.String(), 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid option id %q", a.OptionID)
		}
		value, ok := values[key{qid, oid}]
		if !ok {
			return nil, 0, fmt.Errorf("option %d does not belong to question %d", oid, qid)
		}
		if value != a.AnswerValue {
			return nil, 0, fmt.Errorf("answer value %d does not match option %d", a.AnswerValue, oid)
		}

		records[pos] = AnswerRecord{QuestionID: qid, OptionID: oid, AnswerValue: value}
		total += value
	}

	if len(seen) != len(quiz.Questions) {
		return nil, 0, fmt.Errorf("all %d questions must be answered, got %d", len(quiz.Questions), len(seen))
	}
	return records, total, nil
}
