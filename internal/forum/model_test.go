package forum

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewQuestionIDValidatesInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "valid", input: "q1", want: "q1"},
		{name: "trims-whitespace", input: "  q2  ", want: "q2"},
		{name: "empty", input: "", wantErr: ErrInvalidQuestionID},
		{name: "whitespace-only", input: "   ", wantErr: ErrInvalidQuestionID},
		{name: "too-long", input: strings.Repeat("a", 191), wantErr: ErrInvalidQuestionID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewQuestionID(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id.String() != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, id.String())
			}
		})
	}
}

func TestNewUsernameRejectsEmpty(t *testing.T) {
	if _, err := NewUsername(" "); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}
	username, err := NewUsername("alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if username.String() != "alice" {
		t.Fatalf("unexpected username %q", username.String())
	}
}

func TestParseOrderClosedSet(t *testing.T) {
	for _, valid := range []string{"newest", "active", "unanswered", "mostViewed"} {
		order, err := ParseOrder(valid)
		if err != nil {
			t.Fatalf("expected %q to parse, got %v", valid, err)
		}
		if string(order) != valid {
			t.Fatalf("expected %q, got %q", valid, order)
		}
	}
	if _, err := ParseOrder("oldest"); !errors.Is(err, ErrUnknownOrder) {
		t.Fatalf("expected ErrUnknownOrder, got %v", err)
	}
}

func TestParseTargetKindClosedSet(t *testing.T) {
	if _, err := ParseTargetKind("thread"); !errors.Is(err, ErrUnknownTargetKind) {
		t.Fatalf("expected ErrUnknownTargetKind, got %v", err)
	}
	kind, err := ParseTargetKind("answer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind != TargetAnswer {
		t.Fatalf("expected answer kind, got %q", kind)
	}
}

func TestQuestionCloneIsDeep(t *testing.T) {
	original := Question{
		ID:      "q1",
		Title:   "title",
		Tags:    []string{"go"},
		UpVotes: []string{"alice"},
		Answers: []Answer{
			{ID: "a1", Comments: []Comment{{Text: "first", CommentBy: "bob", CommentDateTime: time.Unix(1700000000, 0)}}},
		},
	}

	copied := original.Clone()
	copied.Tags[0] = "rust"
	copied.UpVotes[0] = "mallory"
	copied.Answers[0].Comments[0].Text = "mutated"
	copied.Answers = append(copied.Answers, Answer{ID: "a2"})

	if original.Tags[0] != "go" {
		t.Fatalf("tags were shared between clone and original")
	}
	if original.UpVotes[0] != "alice" {
		t.Fatalf("vote sets were shared between clone and original")
	}
	if original.Answers[0].Comments[0].Text != "first" {
		t.Fatalf("answer comments were shared between clone and original")
	}
	if len(original.Answers) != 1 {
		t.Fatalf("answer sequence was shared between clone and original")
	}
}
