package forum

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidQuestionID indicates that a question identifier is empty or exceeds storage bounds.
	ErrInvalidQuestionID = errors.New("forum: invalid question id")
	// ErrInvalidAnswerID indicates that an answer identifier is empty or exceeds storage bounds.
	ErrInvalidAnswerID = errors.New("forum: invalid answer id")
	// ErrInvalidUsername indicates that a username is empty or exceeds storage bounds.
	ErrInvalidUsername = errors.New("forum: invalid username")
	// ErrUnknownOrder indicates that a sort order value is outside the closed set.
	ErrUnknownOrder = errors.New("forum: unknown question order")
	// ErrUnknownTargetKind indicates that a comment target kind is outside {question, answer}.
	ErrUnknownTargetKind = errors.New("forum: unknown comment target kind")
)

// QuestionID represents a validated question identifier.
type QuestionID string

// NewQuestionID validates raw input and returns a QuestionID.
func NewQuestionID(rawInput string) (QuestionID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidQuestionID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidQuestionID, maxIdentifierLength)
	}
	return QuestionID(trimmed), nil
}

// String returns the underlying string identifier.
func (id QuestionID) String() string {
	return string(id)
}

// Username represents a validated forum account name.
type Username string

// NewUsername validates raw input and returns a Username.
func NewUsername(rawInput string) (Username, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidUsername)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidUsername, maxIdentifierLength)
	}
	return Username(trimmed), nil
}

// String returns the underlying string value.
func (u Username) String() string {
	return string(u)
}

// Order enumerates the supported question list orderings.
type Order string

const (
	// OrderNewest sorts questions by ask time, most recent first.
	OrderNewest Order = "newest"
	// OrderActive sorts questions by most recent answer activity.
	OrderActive Order = "active"
	// OrderUnanswered restricts the list to questions without answers.
	OrderUnanswered Order = "unanswered"
	// OrderMostViewed sorts questions by view count.
	OrderMostViewed Order = "mostViewed"
)

// ParseOrder validates a raw order value against the closed set.
func ParseOrder(value string) (Order, error) {
	switch Order(strings.TrimSpace(value)) {
	case OrderNewest:
		return OrderNewest, nil
	case OrderActive:
		return OrderActive, nil
	case OrderUnanswered:
		return OrderUnanswered, nil
	case OrderMostViewed:
		return OrderMostViewed, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOrder, value)
	}
}

// TargetKind identifies the owner of a comment at submission time.
type TargetKind string

const (
	// TargetQuestion attaches a comment to a question.
	TargetQuestion TargetKind = "question"
	// TargetAnswer attaches a comment to an answer.
	TargetAnswer TargetKind = "answer"
)

// ParseTargetKind validates a raw target kind against the closed set.
func ParseTargetKind(value string) (TargetKind, error) {
	switch TargetKind(strings.TrimSpace(value)) {
	case TargetQuestion:
		return TargetQuestion, nil
	case TargetAnswer:
		return TargetAnswer, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTargetKind, value)
	}
}

// Comment is attached to exactly one question or answer. Its identity is its
// position within the owning sequence.
type Comment struct {
	Text            string    `json:"text"`
	CommentBy       string    `json:"commentBy"`
	CommentDateTime time.Time `json:"commentDateTime"`
}

// Answer belongs to exactly one question and carries its own comment sequence.
type Answer struct {
	ID          string    `json:"_id"`
	Text        string    `json:"text"`
	AnsBy       string    `json:"ansBy"`
	AnsDateTime time.Time `json:"ansDateTime"`
	Comments    []Comment `json:"comments"`
}

// Question is the aggregate this client reconciles: the question itself plus
// its answers, comments and vote membership sets. Answers preserve
// server-assigned order and are append-only from the client's perspective.
type Question struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Text        string    `json:"text"`
	Tags        []string  `json:"tags"`
	AskedBy     string    `json:"askedBy"`
	AskDateTime time.Time `json:"askDateTime"`
	Views       int       `json:"views"`
	Comments    []Comment `json:"comments"`
	Answers     []Answer  `json:"answers"`
	UpVotes     []string  `json:"upVotes"`
	DownVotes   []string  `json:"downVotes"`
}

// Clone returns a deep copy of the question so callers can hand out snapshots
// without exposing the reconciler's internal state to mutation.
func (q Question) Clone() Question {
	copied := q
	copied.Tags = append([]string(nil), q.Tags...)
	copied.Comments = append([]Comment(nil), q.Comments...)
	copied.UpVotes = append([]string(nil), q.UpVotes...)
	copied.DownVotes = append([]string(nil), q.DownVotes...)
	if q.Answers != nil {
		copied.Answers = make([]Answer, len(q.Answers))
		for i, answer := range q.Answers {
			copied.Answers[i] = answer
			copied.Answers[i].Comments = append([]Comment(nil), answer.Comments...)
		}
	}
	return copied
}

// AnswerCount reports how many answers the aggregate currently holds.
func (q Question) AnswerCount() int {
	return len(q.Answers)
}

// HasTag reports whether the question carries the given tag name.
func (q Question) HasTag(name string) bool {
	for _, tag := range q.Tags {
		if tag == name {
			return true
		}
	}
	return false
}
