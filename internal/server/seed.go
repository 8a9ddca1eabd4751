package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eversols/autismquiz/internal/autismquiz"
)

// aq10Items are the ten items of the AQ-10 adult screen. agree marks the
// items scored on agreement; the rest score on disagreement.
var aq10Items = []struct {
	text  string
	agree bool
}{
	{"I often notice small sounds when others do not.", true},
	{"I usually concentrate more on the whole picture, rather than the small details.", false},
	{"I find it easy to do more than one thing at once.", false},
	{"If there is an interruption, I can switch back to what I was doing very quickly.", false},
	{"I find it easy to 'read between the lines' when someone is talking to me.", false},
	{"I know how to tell if someone listening to me is getting bored.", false},
	{"When I'm reading a story I find it difficult to work out the characters' intentions.", true},
	{"I like to collect information about categories of things.", true},
	{"I find it easy to work out what someone is thinking or feeling just by looking at their face.", false},
	{"I find it difficult to work out people's intentions.", true},
}

var likertLabels = []string{"Definitely Agree", "Slightly Agree", "Slightly Disagree", "Definitely Disagree"}

func aq10Quiz() QuizDetail {
	q := QuizDetail{
		Title:       "Autism Spectrum Quotient (AQ-10)",
		Description: "A ten-question adult screen. A score of 6 or more suggests a specialist assessment may be worthwhile. It is not a diagnosis.",
	}
	for _, item := range aq10Items {
		question := QuestionDetail{QuestionText: item.text}
		for i, label := range likertLabels {
			agrees := i < 2
			value := 0
			if agrees == item.agree {
				value = 1
			}
			question.Options = append(question.Options, OptionDetail{OptionText: label, OptionValue: value})
		}
		q.Questions = append(q.Questions, question)
	}
	return q
}

var seedResources = []autismquiz.Resource{
	{
		Title:       "What is autism?",
		Type:        autismquiz.ResourceArticle,
		Description: "An overview of the autism spectrum, common traits and how they can show up in adults.",
		URL:         "https://www.autism.org.uk/advice-and-guidance/what-is-autism",
		IsFeatured:  true,
	},
	{
		Title:       "Getting an adult diagnosis",
		Type:        autismquiz.ResourceArticle,
		Description: "What to expect from a diagnostic assessment and how to ask for a referral.",
	},
	{
		Title:       "Peer support groups",
		Type:        autismquiz.ResourceSupportGroup,
		Description: "Local and online groups run by and for autistic people and their families.",
		IsFeatured:  true,
	},
	{
		Title:       "Finding a therapist",
		Type:        autismquiz.ResourceTherapy,
		Description: "Questions to ask when looking for a neurodiversity-affirming therapist.",
	},
	{
		Title:       "Is the AQ-10 a diagnosis?",
		Type:        autismquiz.ResourceFAQ,
		Description: "No. It is a screening tool that helps decide whether a full assessment may be useful.",
		IsFeatured:  true,
	},
}

// Seed creates the AQ-10 quiz and the starter resources when the database
// has none. It does nothing on a populated database.
func Seed(ctx context.Context, logger *slog.Logger, store Store) error {
	n, err := store.CountQuizzes(ctx)
	if err != nil {
		return fmt.Errorf("counting quizzes: %w", err)
	}
	if n == 0 {
		id, err := store.CreateQuiz(ctx, aq10Quiz())
		if err != nil {
			return fmt.Errorf("seeding AQ-10: %w", err)
		}
		logger.Info("seeded quiz", "quiz_id", id)
	}

	n, err = store.CountResources(ctx)
	if err != nil {
		return fmt.Errorf("counting resources: %w", err)
	}
	if n == 0 {
		for _, r := range seedResources {
			if err := store.CreateResource(ctx, r); err != nil {
				return fmt.Errorf("seeding resource %q: %w", r.Title, err)
			}
		}
		logger.Info("seeded resources", "count", len(seedResources))
	}
	return nil
}
