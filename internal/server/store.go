package server

import (
	"context"
	"errors"

	"github.com/eversols/autismquiz/internal/autismquiz"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrAlreadySubmitted = errors.New("assessment already submitted")
)

// QuizDetail is the full question set as served by GET /api/quizzes/{id}.
// The capitalised collection keys are part of the public API.
type QuizDetail struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Questions   []QuestionDetail `json:"Questions"`
}

type QuestionDetail struct {
	ID           int64          `json:"id"`
	QuestionText string         `json:"questionText"`
	Options      []OptionDetail `json:"QuestionOptions"`
}

type OptionDetail struct {
	ID          int64  `json:"id"`
	OptionText  string `json:"optionText"`
	OptionValue int    `json:"optionValue"`
}

// Assessment is one attempt at a quiz by a user.
type Assessment struct {
	ID          string         `json:"id"`
	UserID      string         `json:"-"`
	QuizID      int64          `json:"quizId"`
	QuizTitle   string         `json:"quizTitle"`
	TotalScore  *int           `json:"totalScore"`
	CreatedAt   string         `json:"createdAt"`
	SubmittedAt *string        `json:"submittedAt"`
	Answers     []AnswerRecord `json:"answers,omitempty"`
}

type AnswerRecord struct {
	QuestionID  int64 `json:"questionId"`
	OptionID    int64 `json:"optionId"`
	AnswerValue int   `json:"answerValue"`
}

type Store interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (autismquiz.User, error)
	UserByEmail(ctx context.Context, email string) (user autismquiz.User, passwordHash string, err error)
	UserByID(ctx context.Context, id string) (autismquiz.User, error)
	UpdateProfile(ctx context.Context, userID string, p autismquiz.Profile) (autismquiz.User, error)

	Settings(ctx context.Context, userID string) (autismquiz.Settings, error)
	SaveSettings(ctx context.Context, userID string, s autismquiz.Settings) error

	CountQuizzes(ctx context.Context) (int, error)
	CreateQuiz(ctx context.Context, q QuizDetail) (int64, error)
	ListQuizzes(ctx context.Context) ([]autismquiz.QuizSummary, error)
	Quiz(ctx context.Context, id int64) (QuizDetail, error)

	CreateAssessment(ctx context.Context, userID string, quizID int64) (string, error)
	Assessment(ctx context.Context, id string) (Assessment, error)
	ListAssessments(ctx context.Context, userID string) ([]Assessment, error)
	SubmitAnswers(ctx context.Context, assessmentID string, answers []AnswerRecord, totalScore int) error

	CountResources(ctx context.Context) (int, error)
	CreateResource(ctx context.Context, r autismquiz.Resource) error
	ListResources(ctx context.Context) ([]autismquiz.Resource, error)
}
