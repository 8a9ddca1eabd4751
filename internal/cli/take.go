package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/eversols/autismquiz/internal/api"
	"github.com/eversols/autismquiz/internal/autismquiz"
	"github.com/eversols/autismquiz/internal/session"
)

func (a *app) take(c *cli.Context, client *api.Client) error {
	quizID := autismquiz.ID(strings.TrimSpace(c.String("quiz")))
	if quizID.IsZero() {
		return ErrQuizIDNotFound
	}

	s := session.New(client, client, session.WithLogger(a.deps.Logger))
	if err := s.Initialize(c.Context, quizID); err != nil {
		return fmt.Errorf("starting quiz %s: %w", quizID, err)
	}
	a.printf("%s\n", s.Title())

	for {
		a.printQuestion(s)
		a.printf("> ")
		line, ok := a.readLine()
		if !ok || strings.EqualFold(line, "q") {
			a.printf("\nQuiz abandoned. Your answers were not submitted.\n")
			return nil
		}

		switch strings.ToLower(line) {
		case "":
		case "b":
			if err := s.Back(); err != nil {
				return err
			}
		case "n":
			done, err := s.Advance(c.Context)
			switch {
			case errors.Is(err, session.ErrSelectionRequired):
				a.printf("Please choose an answer before continuing.\n")
			case errors.Is(err, session.ErrSubmissionFailure):
				a.printf("Could not submit your answers: %v\nEnter n to try again or q to quit.\n", err)
			case err != nil:
				return err
			case done:
				a.printResult(s)
				return nil
			}
		default:
			q, _ := s.CurrentQuestion()
			n, err := strconv.Atoi(line)
			if err != nil || n < 1 || n > len(q.Options) {
				a.printf("Enter an option number from 1 to %d, n for next, b for back or q to quit.\n", len(q.Options))
				continue
			}
			if err := s.SelectOption(s.CurrentIndex(), q.Options[n-1].Value); err != nil {
				return err
			}
		}
	}
}

func (a *app) printQuestion(s *session.Session) {
	q, ok := s.CurrentQuestion()
	if !ok {
		return
	}
	i := s.CurrentIndex()
	a.printf("\nQuestion %d of %d (%.0f%%)\n%s\n", i+1, s.Len(), s.Progress()*100, q.Text)

	// answers hold values, so mark the option they resolve to
	chosen := -1
	if v, ok := s.Answer(i); ok {
		for j, o := range q.Options {
			if o.Value == v {
				chosen = j
				break
			}
		}
	}
	for j, o := range q.Options {
		mark := " "
		if j == chosen {
			mark = "*"
		}
		a.printf(" %s %d) %s\n", mark, j+1, o.Label)
	}
}

func (a *app) printResult(s *session.Session) {
	res, _ := s.Result()
	a.printf("\nYour score for %s: %d\n", res.QuizTitle, res.TotalScore)
	a.printf("Assessment %s saved.\n", res.AssessmentID)
	a.printf("This quiz is a screening aid, not a diagnosis. Talk to a clinician about your results.\n")
}
