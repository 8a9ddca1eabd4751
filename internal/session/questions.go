package session

import (
	"fmt"
	"sort"

	"github.com/eversols/autismquiz/internal/autismquiz"
)

// buildQuestions validates a raw payload and converts it into questions,
// keeping the server's order for both questions and options.
func buildQuestions(raw []autismquiz.RawQuestion) ([]autismquiz.Question, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("quiz has no questions")
	}

	questions := make([]autismquiz.Question, 0, len(raw))
	for i, rq := range raw {
		if rq.ID == nil || rq.ID.IsZero() {
			return nil, fmt.Errorf("question %d: missing id", i+1)
		}
		if len(rq.Options) == 0 {
			return nil, fmt.Errorf("question %d (id %s): no options", i+1, *rq.ID)
		}

		q := autismquiz.Question{
			ID:      *rq.ID,
			Text:    rq.QuestionText,
			Options: make([]autismquiz.Option, 0, len(rq.Options)),
		}
		for j, ro := range rq.Options {
			if ro.ID == nil || ro.ID.IsZero() {
				return nil, fmt.Errorf("question %d option %d: missing id", i+1, j+1)
			}
			if ro.OptionValue == nil {
				return nil, fmt.Errorf("question %d option %d: missing value", i+1, j+1)
			}
			v, err := ro.OptionValue.Int64()
			if err != nil {
				return nil, fmt.Errorf("question %d option %d: value %q is not an integer", i+1, j+1, ro.OptionValue.String())
			}
			q.Options = append(q.Options, autismquiz.Option{
				ID:    *ro.ID,
				Label: ro.OptionText,
				Value: int(v),
			})
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// resolveAnswers maps every recorded answer back to the first option, in
// display order, carrying the recorded value. Answers are emitted in
// question order.
func resolveAnswers(questions []autismquiz.Question, answers map[int]int) ([]autismquiz.SubmittedAnswer, error) {
	indexes := make([]int, 0, len(answers))
	for i := range answers {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	out := make([]autismquiz.SubmittedAnswer, 0, len(indexes))
	for _, i := range indexes {
		value := answers[i]
		if i < 0 || i >= len(questions) {
			return nil, &AnswerResolutionError{Index: i, Value: value}
		}
		q := questions[i]
		opt, ok := firstOptionWithValue(q.Options, value)
		if !ok {
			return nil, &AnswerResolutionError{Index: i, QuestionID: q.ID, Value: value}
		}
		out = append(out, autismquiz.SubmittedAnswer{
			QuestionID:  q.ID,
			AnswerValue: value,
			OptionID:    opt.ID,
		})
	}
	return out, nil
}

func firstOptionWithValue(options []autismquiz.Option, value int) (autismquiz.Option, bool) {
	for _, o := range options {
		if o.Value == value {
			return o, true
		}
	}
	return autismquiz.Option{}, false
}

func totalScore(answers map[int]int) int {
	total := 0
	for _, v := range answers {
		total += v
	}
	return total
}
