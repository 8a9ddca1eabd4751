package autismquiz

import (
	"encoding/json"
	"testing"
)

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{`12`, "12"},
		{`"12"`, "12"},
		{`"8d3f-aa"`, "8d3f-aa"},
		{`null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var got ID
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIDUnmarshalRejectsObjects(t *testing.T) {
	var got ID
	if err := json.Unmarshal([]byte(`{"id":1}`), &got); err == nil {
		t.Errorf("expected error, got %q", got)
	}
}

func TestIDMarshal(t *testing.T) {
	tests := []struct {
		id   ID
		want string
	}{
		{"42", `42`},
		{"abc", `"abc"`},
		{"", `""`},
		{"1.5", `"1.5"`},
		{"-3", `-3`},
		{"007", `"007"`},
		{"+5", `"+5"`},
		{"-0", `"-0"`},
	}
	for _, tt := range tests {
		got, err := json.Marshal(tt.id)
		if err != nil {
			t.Fatalf("marshal %q: %v", tt.id, err)
		}
		if string(got) != tt.want {
			t.Errorf("marshal %q = %s, want %s", tt.id, got, tt.want)
		}
	}
}

func TestRawQuizDecode(t *testing.T) {
	payload := `{
		"title": "AQ",
		"Questions": [
			{"id": 3, "questionText": "I notice small sounds",
			 "QuestionOptions": [
				{"id": 10, "optionText": "Agree", "optionValue": 1},
				{"id": "11", "optionText": "Disagree", "optionValue": "0"}
			 ]}
		]
	}`
	var q RawQuiz
	if err := json.Unmarshal([]byte(payload), &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(q.Questions) != 1 || len(q.Questions[0].Options) != 2 {
		t.Fatalf("decoded %+v", q)
	}
	rq := q.Questions[0]
	if *rq.ID != "3" || *rq.Options[1].ID != "11" {
		t.Errorf("ids = %q, %q", *rq.ID, *rq.Options[1].ID)
	}
	if v, err := rq.Options[1].OptionValue.Int64(); err != nil || v != 0 {
		t.Errorf("string option value = %d, %v", v, err)
	}
}

func TestVisibilityValid(t *testing.T) {
	for _, v := range []Visibility{VisibilityPublic, VisibilityFriends, VisibilityPrivate} {
		if !v.Valid() {
			t.Errorf("%q should be valid", v)
		}
	}
	for _, v := range []Visibility{"", "public", "Friends"} {
		if v.Valid() {
			t.Errorf("%q should be invalid", v)
		}
	}
}

func TestFlagUnmarshal(t *testing.T) {
	for in, want := range map[string]Flag{`true`: true, `1`: true, `false`: false, `0`: false, `null`: false} {
		var f Flag
		if err := json.Unmarshal([]byte(in), &f); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if f != want {
			t.Errorf("%s = %v, want %v", in, f, want)
		}
	}
	var f Flag
	if err := json.Unmarshal([]byte(`"yes"`), &f); err == nil {
		t.Error("expected error for string flag")
	}
}

func TestFilterResources(t *testing.T) {
	all := []Resource{
		{ID: "1", Title: "Understanding Autism", Type: ResourceArticle, IsFeatured: true},
		{ID: "2", Title: "Parents Circle", Type: ResourceSupportGroup},
		{ID: "3", Title: "Autism and Work", Type: ResourceArticle},
		{ID: "4", Title: "What is the AQ?", Type: ResourceFAQ, IsFeatured: true},
	}

	tests := []struct {
		name     string
		category ResourceType
		query    string
		want     []ID
	}{
		{"featured by default", "", "", []ID{"1", "4"}},
		{"category", ResourceArticle, "", []ID{"1", "3"}},
		{"category and search", ResourceArticle, "WORK", []ID{"3"}},
		{"search only", "", "autism", []ID{"1", "3"}},
		{"no match", ResourceTherapy, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterResources(all, tt.category, tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d resources, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("resource %d = %s, want %s", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestIDRoundTripKeepsLeadingZeros(t *testing.T) {
	for _, in := range []string{`"007"`, `"+5"`, `7`} {
		var id ID
		if err := json.Unmarshal([]byte(in), &id); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		out, err := json.Marshal(struct {
			QuizID ID `json:"quizId"`
		}{id})
		if err != nil {
			t.Fatalf("marshal %q: %v", id, err)
		}
		if want := `{"quizId":` + in + `}`; string(out) != want {
			t.Errorf("round trip of %s = %s, want %s", in, out, want)
		}
	}
}
