package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/eversols/autismquiz/internal/autismquiz"
)

const bearerAuth = "bearerAuth"

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse describes GET /healthz.
type HealthResponse struct {
	Status string                       `json:"status"`
	Checks map[string]map[string]string `json:"checks"`
}

type quizPath struct {
	ID int64 `path:"id"`
}

type assessmentPath struct {
	ID string `path:"id"`
}

type operation struct {
	method, path, summary, description string
	auth                               bool
	req                                []any
	resp                               map[int]any
}

var operations = []operation{
	{
		method: http.MethodGet, path: "/healthz",
		summary:     "Health check",
		description: "Returns the health status of backend dependencies.",
		resp:        map[int]any{http.StatusOK: HealthResponse{}, http.StatusServiceUnavailable: HealthResponse{}},
	},
	{
		method: http.MethodPost, path: "/api/auth/register",
		summary:     "Register",
		description: "Creates an account and returns a bearer token.",
		req:         []any{RegisterRequest{}},
		resp:        map[int]any{http.StatusCreated: AuthResponse{}, http.StatusBadRequest: ErrorResponse{}, http.StatusConflict: ErrorResponse{}},
	},
	{
		method: http.MethodPost, path: "/api/auth/login",
		summary:     "Log in",
		description: "Authenticates with email and password and returns a bearer token.",
		req:         []any{LoginRequest{}},
		resp:        map[int]any{http.StatusOK: AuthResponse{}, http.StatusUnauthorized: ErrorResponse{}},
	},
	{
		method: http.MethodGet, path: "/api/quizzes",
		summary:     "List quizzes",
		description: "Returns the quiz catalogue.",
		resp:        map[int]any{http.StatusOK: QuizListResponse{}},
	},
	{
		method: http.MethodGet, path: "/api/quizzes/{id}",
		summary:     "Get quiz",
		description: "Returns a quiz with its questions and options in display order.",
		req:         []any{quizPath{}},
		resp:        map[int]any{http.StatusOK: QuizResponse{}, http.StatusNotFound: ErrorResponse{}},
	},
	{
		method: http.MethodGet, path: "/api/resources",
		summary:     "List resources",
		description: "Returns articles, support groups, therapy listings and FAQs.",
		resp:        map[int]any{http.StatusOK: ResourceListResponse{}},
	},
	{
		method: http.MethodGet, path: "/api/user/me",
		summary: "Current user", auth: true,
		description: "Returns the authenticated user.",
		resp:        map[int]any{http.StatusOK: autismquiz.User{}, http.StatusUnauthorized: ErrorResponse{}},
	},
	{
		method: http.MethodGet, path: "/api/user/settings",
		summary: "Get settings", auth: true,
		description: "Returns the user's settings, or the defaults if none were saved.",
		resp:        map[int]any{http.StatusOK: autismquiz.Settings{}, http.StatusUnauthorized: ErrorResponse{}},
	},
	{
		method: http.MethodPut, path: "/api/user/settings",
		summary: "Replace settings", auth: true,
		description: "Replaces the full settings record.",
		req:         []any{autismquiz.Settings{}},
		resp:        map[int]any{http.StatusOK: autismquiz.Settings{}, http.StatusBadRequest: ErrorResponse{}, http.StatusUnauthorized: ErrorResponse{}},
	},
	{
		method: http.MethodPut, path: "/api/user/profile",
		summary: "Update profile", auth: true,
		description: "Sets the display name and age. A null age clears it.",
		req:         []any{autismquiz.Profile{}},
		resp:        map[int]any{http.StatusOK: ProfileResponse{}, http.StatusBadRequest: ErrorResponse{}, http.StatusUnauthorized: ErrorResponse{}},
	},
	{
		method: http.MethodGet, path: "/api/assessments",
		summary: "List assessments", auth: true,
		description: "Returns the user's assessments, newest first.",
		resp:        map[int]any{http.StatusOK: AssessmentListResponse{}, http.StatusUnauthorized: ErrorResponse{}},
	},
	{
		method: http.MethodPost, path: "/api/assessments",
		summary: "Start assessment", auth: true,
		description: "Creates an empty assessment for a quiz.",
		req:         []any{CreateAssessmentRequest{}},
		resp:        map[int]any{http.StatusCreated: CreateAssessmentResponse{}, http.StatusNotFound: ErrorResponse{}, http.StatusUnauthorized: ErrorResponse{}},
	},
	{
		method: http.MethodGet, path: "/api/assessments/{id}",
		summary: "Get assessment", auth: true,
		description: "Returns an assessment with its recorded answers.",
		req:         []any{assessmentPath{}},
		resp:        map[int]any{http.StatusOK: Assessment{}, http.StatusNotFound: ErrorResponse{}, http.StatusUnauthorized: ErrorResponse{}},
	},
	{
		method: http.MethodPost, path: "/api/assessments/{id}/answers",
		summary: "Submit answers", auth: true,
		description: "Records one answer per question and scores the assessment. Answers are accepted once.",
		req:         []any{assessmentPath{}, SubmitAnswersRequest{}},
		resp: map[int]any{
			http.StatusOK:                  SubmitAnswersResponse{},
			http.StatusNotFound:            ErrorResponse{},
			http.StatusConflict:            ErrorResponse{},
			http.StatusUnprocessableEntity: ErrorResponse{},
			http.StatusUnauthorized:        ErrorResponse{},
		},
	},
}

func newOpenAPISpec() (*openapi3.Spec, error) {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Autism Quiz API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Quiz catalogue, assessments and account settings for the autism trait quiz.")
	r.SpecEns().SetHTTPBearerTokenSecurity(bearerAuth, "JWT", "Token returned by login or registration.")

	for _, op := range operations {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			return nil, err
		}
		oc.SetSummary(op.summary)
		oc.SetDescription(op.description)
		if op.auth {
			oc.AddSecurity(bearerAuth)
		}
		for _, req := range op.req {
			oc.AddReqStructure(req)
		}
		for status, resp := range op.resp {
			oc.AddRespStructure(resp, openapi.WithHTTPStatus(status))
		}
		if err := r.AddOperation(oc); err != nil {
			return nil, err
		}
	}
	return r.Spec, nil
}

func handleOpenAPI() http.HandlerFunc {
	spec, err := newOpenAPISpec()
	if err != nil {
		panic("building openapi spec: " + err.Error())
	}
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
