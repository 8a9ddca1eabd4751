package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/eversols/autismquiz/internal/autismquiz"
)

type fakeProvider struct {
	quiz  autismquiz.RawQuiz
	err   error
	calls []autismquiz.ID
}

func (f *fakeProvider) FetchQuestions(_ context.Context, quizID autismquiz.ID) (autismquiz.RawQuiz, error) {
	f.calls = append(f.calls, quizID)
	return f.quiz, f.err
}

type submitCall struct {
	assessmentID autismquiz.ID
	answers      []autismquiz.SubmittedAnswer
}

type fakeSubmitter struct {
	mu        sync.Mutex
	id        autismquiz.ID
	createErr error
	submitErr error
	events    []string
	creates   []autismquiz.ID
	submits   []submitCall
	// block, when set, is waited on inside CreateAssessment.
	block chan struct{}
}

func (f *fakeSubmitter) CreateAssessment(_ context.Context, quizID autismquiz.ID) (autismquiz.ID, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "create")
	f.creates = append(f.creates, quizID)
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.id, nil
}

func (f *fakeSubmitter) SubmitAnswers(_ context.Context, assessmentID autismquiz.ID, answers []autismquiz.SubmittedAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "submit")
	f.submits = append(f.submits, submitCall{assessmentID: assessmentID, answers: answers})
	return f.submitErr
}

func id(s string) *autismquiz.ID {
	v := autismquiz.ID(s)
	return &v
}

func num(s string) *json.Number {
	n := json.Number(s)
	return &n
}

// rawQuiz builds a quiz with one question per entry of values; every
// question gets options with the given values and ids "<q>-<i>".
func rawQuiz(title string, values ...[]string) autismquiz.RawQuiz {
	q := autismquiz.RawQuiz{Title: title}
	for i, vs := range values {
		qid := string(rune('a' + i))
		rq := autismquiz.RawQuestion{ID: id(qid), QuestionText: "Question " + qid}
		for j, v := range vs {
			rq.Options = append(rq.Options, autismquiz.RawOption{
				ID:          id(qid + "-" + string(rune('0'+j))),
				OptionText:  "Option " + v,
				OptionValue: num(v),
			})
		}
		q.Questions = append(q.Questions, rq)
	}
	return q
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLoaded(t *testing.T, quiz autismquiz.RawQuiz, sub *fakeSubmitter) *Session {
	t.Helper()
	s := New(&fakeProvider{quiz: quiz}, sub, WithLogger(discardLogger()))
	if err := s.Initialize(context.Background(), "7"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return s
}

func TestInitialize(t *testing.T) {
	p := &fakeProvider{quiz: rawQuiz("AQ", []string{"0", "1"}, []string{"0", "1"})}
	s := New(p, &fakeSubmitter{}, WithLogger(discardLogger()))

	if got := s.State(); got != StateIdle {
		t.Fatalf("state before Initialize = %s, want idle", got)
	}
	if err := s.Initialize(context.Background(), "42"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := s.State(); got != StateAnswering {
		t.Errorf("state = %s, want answering", got)
	}
	if got := s.CurrentIndex(); got != 0 {
		t.Errorf("current index = %d, want 0", got)
	}
	if got := s.Len(); got != 2 {
		t.Errorf("len = %d, want 2", got)
	}
	if got := s.Title(); got != "AQ" {
		t.Errorf("title = %q, want AQ", got)
	}
	if len(s.Answers()) != 0 {
		t.Errorf("answers = %v, want empty", s.Answers())
	}
	if len(p.calls) != 1 || p.calls[0] != "42" {
		t.Errorf("fetch calls = %v, want [42]", p.calls)
	}
	q, ok := s.CurrentQuestion()
	if !ok || q.ID != "a" || len(q.Options) != 2 || q.Options[1].Value != 1 {
		t.Errorf("current question = %+v, %v", q, ok)
	}
}

func TestInitializeDefaults(t *testing.T) {
	quiz := rawQuiz("", []string{"1"})
	p := &fakeProvider{quiz: quiz}
	s := New(p, &fakeSubmitter{}, WithLogger(discardLogger()))
	if err := s.Initialize(context.Background(), ""); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if p.calls[0] != autismquiz.DefaultQuizID {
		t.Errorf("fetched %q, want default %q", p.calls[0], autismquiz.DefaultQuizID)
	}
	if s.QuizID() != autismquiz.DefaultQuizID {
		t.Errorf("quiz id = %q", s.QuizID())
	}
	if s.Title() != autismquiz.DefaultQuizTitle {
		t.Errorf("title = %q, want default", s.Title())
	}

	s = New(&fakeProvider{quiz: quiz}, &fakeSubmitter{}, WithLogger(discardLogger()), WithTitle("From catalogue"))
	if err := s.Initialize(context.Background(), "3"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if s.Title() != "From catalogue" {
		t.Errorf("title = %q, want fallback from option", s.Title())
	}
}

func TestInitializeLoadFailure(t *testing.T) {
	missingOptionValue := rawQuiz("", []string{"1"})
	missingOptionValue.Questions[0].Options[0].OptionValue = nil

	missingQuestionID := rawQuiz("", []string{"1"})
	missingQuestionID.Questions[0].ID = nil

	missingOptionID := rawQuiz("", []string{"1"})
	missingOptionID.Questions[0].Options[0].ID = nil

	noOptions := rawQuiz("", []string{"1"})
	noOptions.Questions[0].Options = nil

	fractional := rawQuiz("", []string{"1.5"})

	tests := []struct {
		name string
		p    *fakeProvider
	}{
		{"fetch error", &fakeProvider{err: errors.New("connection refused")}},
		{"no questions", &fakeProvider{quiz: autismquiz.RawQuiz{Title: "empty"}}},
		{"missing question id", &fakeProvider{quiz: missingQuestionID}},
		{"missing option id", &fakeProvider{quiz: missingOptionID}},
		{"missing option value", &fakeProvider{quiz: missingOptionValue}},
		{"question without options", &fakeProvider{quiz: noOptions}},
		{"non-integer value", &fakeProvider{quiz: fractional}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.p, &fakeSubmitter{}, WithLogger(discardLogger()))
			err := s.Initialize(context.Background(), "1")
			if !errors.Is(err, ErrLoadFailure) {
				t.Fatalf("err = %v, want ErrLoadFailure", err)
			}
			if s.State() != StateLoadFailed {
				t.Errorf("state = %s, want load_failed", s.State())
			}
			if _, ok := s.CurrentQuestion(); ok {
				t.Error("current question available after load failure")
			}
			if err := s.SelectOption(0, 1); !errors.Is(err, ErrInvalidState) {
				t.Errorf("SelectOption after load failure = %v, want ErrInvalidState", err)
			}
			// terminal: no path back to loading
			if err := s.Initialize(context.Background(), "1"); !errors.Is(err, ErrInvalidState) {
				t.Errorf("second Initialize = %v, want ErrInvalidState", err)
			}
		})
	}
}

func TestFetchErrorIsWrapped(t *testing.T) {
	cause := errors.New("dns failure")
	s := New(&fakeProvider{err: cause}, &fakeSubmitter{}, WithLogger(discardLogger()))
	err := s.Initialize(context.Background(), "1")
	if !errors.Is(err, cause) {
		t.Errorf("err = %v, want it to wrap the cause", err)
	}
}

func TestOperationsBeforeInitialize(t *testing.T) {
	s := New(&fakeProvider{}, &fakeSubmitter{}, WithLogger(discardLogger()))
	if err := s.SelectOption(0, 1); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SelectOption = %v", err)
	}
	if _, err := s.Advance(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Advance = %v", err)
	}
	if err := s.Back(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Back = %v", err)
	}
	if s.Progress() != 0 {
		t.Errorf("progress = %v, want 0", s.Progress())
	}
}

func TestAdvanceRequiresSelection(t *testing.T) {
	sub := &fakeSubmitter{id: "99"}
	s := newLoaded(t, rawQuiz("", []string{"0", "1"}, []string{"0", "1"}), sub)

	if _, err := s.Advance(context.Background()); !errors.Is(err, ErrSelectionRequired) {
		t.Fatalf("Advance = %v, want ErrSelectionRequired", err)
	}
	if s.CurrentIndex() != 0 || s.State() != StateAnswering {
		t.Errorf("index=%d state=%s, want 0 answering", s.CurrentIndex(), s.State())
	}

	mustSelect(t, s, 0, 1)
	mustAdvance(t, s, false)

	// last question: no remote calls without an answer
	if _, err := s.Advance(context.Background()); !errors.Is(err, ErrSelectionRequired) {
		t.Fatalf("Advance on last = %v, want ErrSelectionRequired", err)
	}
	if len(sub.events) != 0 {
		t.Errorf("remote calls = %v, want none", sub.events)
	}
}

func TestSelectOptionOverwrites(t *testing.T) {
	s := newLoaded(t, rawQuiz("", []string{"0", "1", "2"}), &fakeSubmitter{id: "1"})

	mustSelect(t, s, 0, 2)
	mustSelect(t, s, 0, 0)
	if v, ok := s.Answer(0); !ok || v != 0 {
		t.Errorf("answer(0) = %d, %v; want 0, true", v, ok)
	}
	if len(s.Answers()) != 1 {
		t.Errorf("answers = %v, want one entry", s.Answers())
	}
}

func TestSelectOptionWrongIndex(t *testing.T) {
	s := newLoaded(t, rawQuiz("", []string{"0"}, []string{"0"}), &fakeSubmitter{})

	for _, idx := range []int{-1, 1, 5} {
		if err := s.SelectOption(idx, 0); !errors.Is(err, ErrInvalidState) {
			t.Errorf("SelectOption(%d) = %v, want ErrInvalidState", idx, err)
		}
	}
	if len(s.Answers()) != 0 {
		t.Errorf("answers = %v, want empty", s.Answers())
	}
}

func TestBack(t *testing.T) {
	s := newLoaded(t, rawQuiz("", []string{"0", "1"}, []string{"0", "1"}, []string{"0", "1"}), &fakeSubmitter{})

	// no-op at the first question
	if err := s.Back(); err != nil {
		t.Fatalf("Back at 0: %v", err)
	}
	if s.CurrentIndex() != 0 {
		t.Fatalf("index = %d, want 0", s.CurrentIndex())
	}

	mustSelect(t, s, 0, 1)
	mustAdvance(t, s, false)
	mustSelect(t, s, 1, 0)
	mustAdvance(t, s, false)

	// back from an unanswered question needs no selection
	if err := s.Back(); err != nil {
		t.Fatalf("Back: %v", err)
	}
	if s.CurrentIndex() != 1 {
		t.Errorf("index = %d, want 1", s.CurrentIndex())
	}
	if v, ok := s.Answer(1); !ok || v != 0 {
		t.Errorf("answer(1) = %d, %v; want kept", v, ok)
	}
}

func TestProgress(t *testing.T) {
	s := newLoaded(t, rawQuiz("", []string{"1"}, []string{"1"}, []string{"1"}, []string{"1"}), &fakeSubmitter{})

	want := []float64{0.25, 0.5, 0.75, 1}
	for i, w := range want {
		if got := s.Progress(); got != w {
			t.Errorf("progress at %d = %v, want %v", i, got, w)
		}
		if i < len(want)-1 {
			mustSelect(t, s, i, 1)
			mustAdvance(t, s, false)
		}
	}
}

func TestCompletion(t *testing.T) {
	sub := &fakeSubmitter{id: "555"}
	s := newLoaded(t, rawQuiz("AQ-10", []string{"0", "1"}, []string{"0", "1"}, []string{"0", "1"}), sub)

	mustSelect(t, s, 0, 1)
	mustAdvance(t, s, false)
	mustSelect(t, s, 1, 0)
	mustAdvance(t, s, false)
	mustSelect(t, s, 2, 1)
	mustAdvance(t, s, true)

	if s.State() != StateCompleted {
		t.Fatalf("state = %s, want completed", s.State())
	}
	res, ok := s.Result()
	if !ok {
		t.Fatal("no result after completion")
	}
	want := Result{AssessmentID: "555", TotalScore: 2, QuizTitle: "AQ-10"}
	if res != want {
		t.Errorf("result = %+v, want %+v", res, want)
	}

	if len(sub.events) != 2 || sub.events[0] != "create" || sub.events[1] != "submit" {
		t.Fatalf("events = %v, want [create submit]", sub.events)
	}
	if sub.creates[0] != "7" {
		t.Errorf("created for quiz %q, want 7", sub.creates[0])
	}
	call := sub.submits[0]
	if call.assessmentID != "555" {
		t.Errorf("submitted to %q, want 555", call.assessmentID)
	}
	wantAnswers := []autismquiz.SubmittedAnswer{
		{QuestionID: "a", AnswerValue: 1, OptionID: "a-1"},
		{QuestionID: "b", AnswerValue: 0, OptionID: "b-0"},
		{QuestionID: "c", AnswerValue: 1, OptionID: "c-1"},
	}
	if len(call.answers) != len(wantAnswers) {
		t.Fatalf("answers = %+v", call.answers)
	}
	for i := range wantAnswers {
		if call.answers[i] != wantAnswers[i] {
			t.Errorf("answer %d = %+v, want %+v", i, call.answers[i], wantAnswers[i])
		}
	}

	for name, op := range map[string]func() error{
		"SelectOption": func() error { return s.SelectOption(2, 0) },
		"Advance":      func() error { _, err := s.Advance(context.Background()); return err },
		"Back":         s.Back,
	} {
		if err := op(); !errors.Is(err, ErrInvalidState) {
			t.Errorf("%s after completion = %v, want ErrInvalidState", name, err)
		}
	}
}

func TestCompletionScoresAndResolves(t *testing.T) {
	tests := []struct {
		name      string
		quiz      autismquiz.RawQuiz
		picks     []int
		wantScore int
		want      []autismquiz.SubmittedAnswer
	}{
		{
			name:      "three questions answered 2 3 1",
			quiz:      rawQuiz("", []string{"1", "2", "3"}, []string{"1", "2", "3"}, []string{"1", "2", "3"}),
			picks:     []int{2, 3, 1},
			wantScore: 6,
			want: []autismquiz.SubmittedAnswer{
				{QuestionID: "a", AnswerValue: 2, OptionID: "a-1"},
				{QuestionID: "b", AnswerValue: 3, OptionID: "b-2"},
				{QuestionID: "c", AnswerValue: 1, OptionID: "c-0"},
			},
		},
		{
			name:      "value 1 resolves to its option",
			quiz:      rawQuiz("", []string{"0", "1", "2"}),
			picks:     []int{1},
			wantScore: 1,
			want: []autismquiz.SubmittedAnswer{
				{QuestionID: "a", AnswerValue: 1, OptionID: "a-1"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &fakeSubmitter{id: "9"}
			s := newLoaded(t, tt.quiz, sub)
			for i, v := range tt.picks {
				mustSelect(t, s, i, v)
				mustAdvance(t, s, i == len(tt.picks)-1)
			}

			res, ok := s.Result()
			if !ok || res.TotalScore != tt.wantScore {
				t.Fatalf("result = %+v (completed %v), want score %d", res, ok, tt.wantScore)
			}
			got := sub.submits[0].answers
			if len(got) != len(tt.want) {
				t.Fatalf("answers = %+v, want %+v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("answer %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDuplicateValuesResolveToFirstOption(t *testing.T) {
	sub := &fakeSubmitter{id: "1"}
	s := newLoaded(t, rawQuiz("", []string{"0", "1", "1", "0"}), sub)

	mustSelect(t, s, 0, 1)
	mustAdvance(t, s, true)

	got := sub.submits[0].answers[0]
	if got.OptionID != "a-1" {
		t.Errorf("option id = %q, want first match a-1", got.OptionID)
	}
}

func TestSubmissionFailureIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		createErr error
		submitErr error
		id        autismquiz.ID
		events    []string
	}{
		{"create fails", errors.New("503"), nil, "9", []string{"create"}},
		{"submit fails", nil, errors.New("timeout"), "9", []string{"create", "submit"}},
		{"no assessment id", nil, nil, "", []string{"create"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &fakeSubmitter{id: tt.id, createErr: tt.createErr, submitErr: tt.submitErr}
			s := newLoaded(t, rawQuiz("", []string{"0", "1"}, []string{"0", "1"}), sub)
			mustSelect(t, s, 0, 1)
			mustAdvance(t, s, false)
			mustSelect(t, s, 1, 1)

			done, err := s.Advance(context.Background())
			if !errors.Is(err, ErrSubmissionFailure) {
				t.Fatalf("Advance = %v, want ErrSubmissionFailure", err)
			}
			if cause := tt.createErr; cause != nil && !errors.Is(err, cause) {
				t.Errorf("err = %v, want it to wrap %v", err, cause)
			}
			if done {
				t.Error("done = true on failure")
			}
			if s.State() != StateAnswering || s.CurrentIndex() != 1 {
				t.Errorf("state=%s index=%d, want answering on last question", s.State(), s.CurrentIndex())
			}
			if got := s.Answers(); len(got) != 2 || got[0] != 1 || got[1] != 1 {
				t.Errorf("answers = %v, want preserved", got)
			}
			if len(sub.events) != len(tt.events) {
				t.Errorf("events = %v, want %v", sub.events, tt.events)
			}
			if _, ok := s.Result(); ok {
				t.Error("result available after failure")
			}

			// retry reruns the whole protocol
			sub.createErr, sub.submitErr, sub.id = nil, nil, "10"
			sub.events = nil
			mustAdvance(t, s, true)
			if len(sub.events) != 2 || sub.events[0] != "create" {
				t.Errorf("retry events = %v, want [create submit]", sub.events)
			}
			res, _ := s.Result()
			if res.AssessmentID != "10" || res.TotalScore != 2 {
				t.Errorf("result = %+v", res)
			}
		})
	}
}

func TestAnswerResolutionFailure(t *testing.T) {
	sub := &fakeSubmitter{id: "1"}
	s := newLoaded(t, rawQuiz("", []string{"0", "1"}, []string{"0", "1"}), sub)

	mustSelect(t, s, 0, 1)
	mustAdvance(t, s, false)
	mustSelect(t, s, 1, 3)

	_, err := s.Advance(context.Background())
	var resErr *AnswerResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("err = %v, want *AnswerResolutionError", err)
	}
	if !errors.Is(err, ErrAnswerResolution) {
		t.Error("errors.Is(err, ErrAnswerResolution) = false")
	}
	if errors.Is(err, ErrSubmissionFailure) {
		t.Error("resolution error reported as submission failure")
	}
	if resErr.QuestionID != "b" || resErr.Index != 1 || resErr.Value != 3 {
		t.Errorf("resolution error = %+v", resErr)
	}
	if len(sub.events) != 0 {
		t.Errorf("remote calls = %v, want none before resolution succeeds", sub.events)
	}
	if s.State() != StateAnswering {
		t.Errorf("state = %s, want answering", s.State())
	}

	// fixing the answer lets the attempt complete
	mustSelect(t, s, 1, 0)
	mustAdvance(t, s, true)
}

func TestMutationsDuringSubmissionAreRejected(t *testing.T) {
	sub := &fakeSubmitter{id: "1", block: make(chan struct{})}
	s := newLoaded(t, rawQuiz("", []string{"0", "1"}), sub)
	mustSelect(t, s, 0, 1)

	errc := make(chan error, 1)
	go func() {
		_, err := s.Advance(context.Background())
		errc <- err
	}()

	// wait for the completion protocol to take the session
	for !s.Submitting() {
		select {
		case err := <-errc:
			t.Fatalf("Advance returned early: %v", err)
		default:
		}
	}

	if err := s.SelectOption(0, 0); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SelectOption while submitting = %v", err)
	}
	if err := s.Back(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Back while submitting = %v", err)
	}
	if _, err := s.Advance(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Advance while submitting = %v", err)
	}

	close(sub.block)
	if err := <-errc; err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if v, _ := s.Answer(0); v != 1 {
		t.Errorf("answer changed during submission: %d", v)
	}
	if len(sub.creates) != 1 {
		t.Errorf("creates = %d, want 1", len(sub.creates))
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateIdle, "idle"},
		{StateLoading, "loading"},
		{StateAnswering, "answering"},
		{StateCompleted, "completed"},
		{StateLoadFailed, "load_failed"},
		{State(42), "state(42)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.s), got, tt.want)
		}
	}
}

func mustSelect(t *testing.T, s *Session, index, value int) {
	t.Helper()
	if err := s.SelectOption(index, value); err != nil {
		t.Fatalf("SelectOption(%d, %d): %v", index, value, err)
	}
}

func mustAdvance(t *testing.T, s *Session, wantDone bool) {
	t.Helper()
	done, err := s.Advance(context.Background())
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if done != wantDone {
		t.Fatalf("Advance done = %v, want %v", done, wantDone)
	}
}
