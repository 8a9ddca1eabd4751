package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/eversols/autismquiz/internal/autismquiz"
)

func (c *Client) ListQuizzes(ctx context.Context) ([]autismquiz.QuizSummary, error) {
	var resp struct {
		Quizzes []autismquiz.QuizSummary `json:"quizzes"`
	}
	if err := c.do(ctx, http.MethodGet, "quizzes", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Quizzes, nil
}

// FetchQuestions returns the quiz as served, without validation.
func (c *Client) FetchQuestions(ctx context.Context, quizID autismquiz.ID) (autismquiz.RawQuiz, error) {
	var resp struct {
		Quiz *autismquiz.RawQuiz `json:"quiz"`
	}
	if err := c.do(ctx, http.MethodGet, "quizzes/"+url.PathEscape(quizID.String()), nil, &resp); err != nil {
		return autismquiz.RawQuiz{}, err
	}
	if resp.Quiz == nil {
		return autismquiz.RawQuiz{}, errors.New("response has no quiz")
	}
	return *resp.Quiz, nil
}

type CreateAssessmentRequest struct {
	QuizID autismquiz.ID `json:"quizId"`
}

type CreateAssessmentResponse struct {
	AssessmentID autismquiz.ID `json:"assessmentId"`
}

func (c *Client) CreateAssessment(ctx context.Context, quizID autismquiz.ID) (autismquiz.ID, error) {
	var resp CreateAssessmentResponse
	if err := c.do(ctx, http.MethodPost, "assessments", CreateAssessmentRequest{QuizID: quizID}, &resp); err != nil {
		return "", err
	}
	return resp.AssessmentID, nil
}

type SubmitAnswersRequest struct {
	Answers []autismquiz.SubmittedAnswer `json:"answers"`
}

func (c *Client) SubmitAnswers(ctx context.Context, assessmentID autismquiz.ID, answers []autismquiz.SubmittedAnswer) error {
	path := "assessments/" + url.PathEscape(assessmentID.String()) + "/answers"
	return c.do(ctx, http.MethodPost, path, SubmitAnswersRequest{Answers: answers}, nil)
}

func (c *Client) ListResources(ctx context.Context) ([]autismquiz.Resource, error) {
	var resp struct {
		Resources []autismquiz.Resource `json:"resources"`
	}
	if err := c.do(ctx, http.MethodGet, "resources", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Resources, nil
}

// AssessmentRecord is a past attempt as listed by the server. TotalScore
// and SubmittedAt are nil until answers are submitted.
type AssessmentRecord struct {
	ID          autismquiz.ID `json:"id"`
	QuizID      autismquiz.ID `json:"quizId"`
	QuizTitle   string        `json:"quizTitle"`
	TotalScore  *int          `json:"totalScore"`
	CreatedAt   string        `json:"createdAt"`
	SubmittedAt *string       `json:"submittedAt"`
}

func (c *Client) ListAssessments(ctx context.Context) ([]AssessmentRecord, error) {
	var resp struct {
		Assessments []AssessmentRecord `json:"assessments"`
	}
	if err := c.do(ctx, http.MethodGet, "assessments", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Assessments, nil
}
