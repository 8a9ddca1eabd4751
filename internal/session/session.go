// Package session runs a single attempt at a quiz: it fetches the question
// set, records one answer per question position, and on the final step
// scores the attempt and submits it as an assessment.
//
// Operations are expected to be issued one at a time by a single caller.
// Readers may inspect the session from other goroutines; mutating calls
// made while a fetch or submission is in flight fail with ErrInvalidState.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/eversols/autismquiz/internal/autismquiz"
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateAnswering
	StateCompleted
	StateLoadFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateAnswering:
		return "answering"
	case StateCompleted:
		return "completed"
	case StateLoadFailed:
		return "load_failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// QuestionProvider supplies the question set for a quiz.
type QuestionProvider interface {
	FetchQuestions(ctx context.Context, quizID autismquiz.ID) (autismquiz.RawQuiz, error)
}

// AssessmentSubmitter records a finished attempt. SubmitAnswers is only
// called with an id returned by CreateAssessment.
type AssessmentSubmitter interface {
	CreateAssessment(ctx context.Context, quizID autismquiz.ID) (autismquiz.ID, error)
	SubmitAnswers(ctx context.Context, assessmentID autismquiz.ID, answers []autismquiz.SubmittedAnswer) error
}

// Result is available once the session is completed.
type Result struct {
	AssessmentID autismquiz.ID
	TotalScore   int
	QuizTitle    string
}

type Session struct {
	provider  QuestionProvider
	submitter AssessmentSubmitter
	logger    *slog.Logger

	mu        sync.RWMutex
	state     State
	busy      bool
	quizID    autismquiz.ID
	title     string
	questions []autismquiz.Question
	current   int
	answers   map[int]int
	result    Result
}

type Option func(*Session)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithTitle sets the title used when the question set does not carry one.
func WithTitle(title string) Option {
	return func(s *Session) {
		if title != "" {
			s.title = title
		}
	}
}

func New(provider QuestionProvider, submitter AssessmentSubmitter, opts ...Option) *Session {
	s := &Session{
		provider:  provider,
		submitter: submitter,
		logger:    slog.Default(),
		title:     autismquiz.DefaultQuizTitle,
		answers:   make(map[int]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize fetches the questions for quizID. An empty id selects
// autismquiz.DefaultQuizID. Any failure, including an empty or malformed
// question set, leaves the session in StateLoadFailed for good.
func (s *Session) Initialize(ctx context.Context, quizID autismquiz.ID) error {
	if quizID.IsZero() {
		quizID = autismquiz.DefaultQuizID
	}

	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: initialize called while %s", ErrInvalidState, state)
	}
	s.state = StateLoading
	s.quizID = quizID
	s.mu.Unlock()

	log := s.logger.With("quiz_id", quizID.String())
	log.Debug("loading questions")

	raw, err := s.provider.FetchQuestions(ctx, quizID)
	var questions []autismquiz.Question
	if err == nil {
		questions, err = buildQuestions(raw.Questions)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = StateLoadFailed
		log.Error("loading questions failed", "error", err)
		return fmt.Errorf("%w: %w", ErrLoadFailure, err)
	}

	s.questions = questions
	s.current = 0
	clear(s.answers)
	if raw.Title != "" {
		s.title = raw.Title
	}
	s.state = StateAnswering
	log.Info("quiz loaded", "questions", len(questions))
	return nil
}

// SelectOption records value as the answer for the question at index,
// replacing any earlier answer. index must be the current question.
func (s *Session) SelectOption(index, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkAnswering("select option"); err != nil {
		return err
	}
	if index != s.current {
		return fmt.Errorf("%w: answer for question %d while question %d is shown",
			ErrInvalidState, index+1, s.current+1)
	}
	s.answers[index] = value
	return nil
}

// Advance moves to the next question. On the last question it completes
// the session instead and reports done=true. A failed submission keeps the
// session on the last question so Advance can be retried.
func (s *Session) Advance(ctx context.Context) (done bool, err error) {
	s.mu.Lock()
	if err := s.checkAnswering("advance"); err != nil {
		s.mu.Unlock()
		return false, err
	}
	if _, ok := s.answers[s.current]; !ok {
		s.mu.Unlock()
		return false, ErrSelectionRequired
	}
	if s.current < len(s.questions)-1 {
		s.current++
		s.mu.Unlock()
		return false, nil
	}

	s.busy = true
	quizID := s.quizID
	title := s.title
	questions := s.questions
	answers := maps.Clone(s.answers)
	s.mu.Unlock()

	result, err := s.complete(ctx, quizID, title, questions, answers)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if err != nil {
		return false, err
	}
	s.result = result
	s.state = StateCompleted
	return true, nil
}

func (s *Session) complete(ctx context.Context, quizID autismquiz.ID, title string, questions []autismquiz.Question, answers map[int]int) (Result, error) {
	log := s.logger.With("quiz_id", quizID.String())

	score := totalScore(answers)

	submitted, err := resolveAnswers(questions, answers)
	if err != nil {
		log.Error("answer resolution failed", "error", err)
		return Result{}, err
	}

	assessmentID, err := s.submitter.CreateAssessment(ctx, quizID)
	if err != nil {
		log.Warn("creating assessment failed", "error", err)
		return Result{}, fmt.Errorf("%w: creating assessment: %w", ErrSubmissionFailure, err)
	}
	if assessmentID.IsZero() {
		log.Warn("creating assessment returned no id")
		return Result{}, fmt.Errorf("%w: server returned no assessment id", ErrSubmissionFailure)
	}

	log = log.With("assessment_id", assessmentID.String())
	if err := s.submitter.SubmitAnswers(ctx, assessmentID, submitted); err != nil {
		log.Warn("submitting answers failed", "error", err)
		return Result{}, fmt.Errorf("%w: submitting answers: %w", ErrSubmissionFailure, err)
	}

	log.Info("assessment submitted", "score", score, "answers", len(submitted))
	return Result{
		AssessmentID: assessmentID,
		TotalScore:   score,
		QuizTitle:    title,
	}, nil
}

// Back returns to the previous question. It does nothing on the first one.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkAnswering("go back"); err != nil {
		return err
	}
	if s.current > 0 {
		s.current--
	}
	return nil
}

func (s *Session) checkAnswering(op string) error {
	if s.state != StateAnswering {
		return fmt.Errorf("%w: cannot %s while %s", ErrInvalidState, op, s.state)
	}
	if s.busy {
		return fmt.Errorf("%w: cannot %s while submitting", ErrInvalidState, op)
	}
	return nil
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Submitting reports whether the completion protocol is in flight.
func (s *Session) Submitting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

func (s *Session) QuizID() autismquiz.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quizID
}

func (s *Session) Title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.title
}

func (s *Session) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Len is the number of questions, zero until the session is loaded.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.questions)
}

// CurrentQuestion returns the question on display. ok is false before the
// questions are loaded or when loading failed.
func (s *Session) CurrentQuestion() (q autismquiz.Question, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.questions) == 0 {
		return autismquiz.Question{}, false
	}
	return s.questions[s.current], true
}

// Progress is the 1-based position over the question count, in (0, 1].
func (s *Session) Progress() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.questions) == 0 {
		return 0
	}
	return float64(s.current+1) / float64(len(s.questions))
}

func (s *Session) Answer(index int) (value int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok = s.answers[index]
	return value, ok
}

// Answers returns a copy of the recorded answers keyed by question index.
func (s *Session) Answers() map[int]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.answers)
}

func (s *Session) Result() (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result, s.state == StateCompleted
}
