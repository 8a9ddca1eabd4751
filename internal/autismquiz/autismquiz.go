// Package autismquiz defines the core domain types shared by the quiz
// session, the API client and the reference backend.
package autismquiz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DefaultQuizID is used when a session is started without a quiz id.
const DefaultQuizID ID = "1"

// DefaultQuizTitle is shown when the backend does not name the quiz.
const DefaultQuizTitle = "Autism Spectrum Quotient (AQ) Test"

// ID is an opaque server-assigned identifier. On the wire it may be either
// a JSON number or a JSON string.
type ID string

func (id ID) String() string { return string(id) }

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool { return id == "" }

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes canonical integers as numbers so that backends with
// numeric keys receive the type they issued. Anything else, "007" or "+5"
// included, stays a string.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

type Option struct {
	ID    ID
	Label string
	Value int
}

type Question struct {
	ID      ID
	Text    string
	Options []Option
}

// RawQuiz is the question set as served by GET quizzes/{id}. Fields are
// pointers where presence has to be validated before use.
type RawQuiz struct {
	ID          ID            `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Questions   []RawQuestion `json:"Questions"`
}

type RawQuestion struct {
	ID           *ID         `json:"id"`
	QuestionText string      `json:"questionText"`
	Options      []RawOption `json:"QuestionOptions"`
}

type RawOption struct {
	ID          *ID          `json:"id"`
	OptionText  string       `json:"optionText"`
	OptionValue *json.Number `json:"optionValue"`
}

// SubmittedAnswer is one resolved answer sent to the assessment endpoint.
type SubmittedAnswer struct {
	QuestionID  ID  `json:"questionId"`
	AnswerValue int `json:"answerValue"`
	OptionID    ID  `json:"optionId"`
}

// QuizSummary is one entry of the quiz catalogue.
type QuizSummary struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url,omitempty"`
}

type User struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   *int   `json:"age,omitempty"`
}

type Profile struct {
	Name string `json:"name"`
	Age  *int   `json:"age"`
}

type Visibility string

const (
	VisibilityPublic  Visibility = "Public"
	VisibilityFriends Visibility = "Friends Only"
	VisibilityPrivate Visibility = "Private"
)

// Valid reports whether v is one of the known visibility levels.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityFriends, VisibilityPrivate:
		return true
	}
	return false
}

type Settings struct {
	NotificationsEnabled bool       `json:"notificationsEnabled"`
	ProfileVisibility    Visibility `json:"profileVisibility"`
	DataUsage            bool       `json:"dataUsage"`
}

// DefaultSettings mirrors what a fresh account starts with.
func DefaultSettings() Settings {
	return Settings{ProfileVisibility: VisibilityPublic}
}

type ResourceType string

const (
	ResourceArticle      ResourceType = "article"
	ResourceSupportGroup ResourceType = "support_group"
	ResourceTherapy      ResourceType = "therapy"
	ResourceFAQ          ResourceType = "faq"
)

// ResourceTypes lists the categories in display order.
var ResourceTypes = []ResourceType{ResourceArticle, ResourceSupportGroup, ResourceTherapy, ResourceFAQ}

// Flag is a boolean that also accepts 0 and 1 on the wire.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1":
		*f = true
	case "false", "0", "null":
		*f = false
	default:
		return fmt.Errorf("invalid flag %s", data)
	}
	return nil
}

// Resource is a support article, group, therapy listing or FAQ entry.
type Resource struct {
	ID          ID           `json:"id"`
	Title       string       `json:"title"`
	Type        ResourceType `json:"type"`
	Description string       `json:"description"`
	Image       string       `json:"image,omitempty"`
	URL         string       `json:"url,omitempty"`
	IsFeatured  Flag         `json:"is_featured"`
}

// FilterResources narrows all by category and a case-insensitive title
// search. With neither set only featured resources are returned.
func FilterResources(all []Resource, category ResourceType, query string) []Resource {
	query = strings.ToLower(strings.TrimSpace(query))
	out := []Resource{}
	for _, r := range all {
		if category == "" && query == "" {
			if r.IsFeatured {
				out = append(out, r)
			}
			continue
		}
		if category != "" && r.Type != category {
			continue
		}
		if !strings.Contains(strings.ToLower(r.Title), query) {
			continue
		}
		out = append(out, r)
	}
	return out
}
