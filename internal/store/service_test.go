package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/PavanKumar06/stackoverflow-client/internal/forum"
)

type sequentialIDs struct {
	next int
}

func (p *sequentialIDs) NewID() (string, error) {
	p.next++
	return fmt.Sprintf("id-%d", p.next), nil
}

type testClock struct {
	now time.Time
}

func (c *testClock) time() time.Time {
	return c.now
}

func (c *testClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*Service, *testClock) {
	t.Helper()
	db, err := OpenSQLite(":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	clock := &testClock{now: time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)}
	service, err := NewService(ServiceConfig{
		Database:   db,
		Clock:      clock.time,
		IDProvider: &sequentialIDs{},
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return service, clock
}

func mustUsername(t *testing.T, value string) forum.Username {
	t.Helper()
	username, err := forum.NewUsername(value)
	if err != nil {
		t.Fatalf("invalid username %q: %v", value, err)
	}
	return username
}

func mustCreateQuestion(t *testing.T, service *Service, askedBy, title string, tags []string) forum.Question {
	t.Helper()
	question, err := service.CreateQuestion(context.Background(), mustUsername(t, askedBy), title, "body of "+title, tags)
	if err != nil {
		t.Fatalf("failed to create question: %v", err)
	}
	return question
}

func TestCreateAndGetQuestionRoundTrip(t *testing.T) {
	service, _ := newTestService(t)

	created := mustCreateQuestion(t, service, "alice", "how do channels work", []string{"go", "concurrency"})
	if created.ID == "" {
		t.Fatalf("expected a server-assigned id")
	}
	if created.Views != 0 || len(created.Answers) != 0 || len(created.Comments) != 0 {
		t.Fatalf("fresh question should start empty: %+v", created)
	}

	fetched, err := service.GetQuestion(context.Background(), forum.QuestionID(created.ID))
	if err != nil {
		t.Fatalf("failed to fetch question: %v", err)
	}
	if fetched.Title != created.Title || fetched.AskedBy != "alice" {
		t.Fatalf("unexpected question %+v", fetched)
	}
	if len(fetched.Tags) != 2 || fetched.Tags[0] != "go" {
		t.Fatalf("tags were not persisted: %v", fetched.Tags)
	}
	if len(fetched.UpVotes) != 0 || len(fetched.DownVotes) != 0 {
		t.Fatalf("vote sets must be present and empty: %+v", fetched)
	}
}

func TestGetQuestionNotFound(t *testing.T) {
	service, _ := newTestService(t)
	if _, err := service.GetQuestion(context.Background(), "missing"); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestIncrementViewsIsMonotonic(t *testing.T) {
	service, _ := newTestService(t)
	created := mustCreateQuestion(t, service, "alice", "views", nil)

	for wanted := 1; wanted <= 3; wanted++ {
		question, err := service.IncrementViews(context.Background(), forum.QuestionID(created.ID))
		if err != nil {
			t.Fatalf("failed to increment views: %v", err)
		}
		if question.Views != wanted {
			t.Fatalf("expected %d views, got %d", wanted, question.Views)
		}
	}

	if _, err := service.IncrementViews(context.Background(), "missing"); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestAddAnswerPreservesArrivalOrder(t *testing.T) {
	service, _ := newTestService(t)
	created := mustCreateQuestion(t, service, "alice", "ordering", nil)

	first, err := service.AddAnswer(context.Background(), forum.QuestionID(created.ID), mustUsername(t, "bob"), "first answer")
	if err != nil {
		t.Fatalf("failed to add answer: %v", err)
	}
	second, err := service.AddAnswer(context.Background(), forum.QuestionID(created.ID), mustUsername(t, "carol"), "second answer")
	if err != nil {
		t.Fatalf("failed to add answer: %v", err)
	}

	question, err := service.GetQuestion(context.Background(), forum.QuestionID(created.ID))
	if err != nil {
		t.Fatalf("failed to fetch question: %v", err)
	}
	if len(question.Answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(question.Answers))
	}
	if question.Answers[0].ID != first.ID || question.Answers[1].ID != second.ID {
		t.Fatalf("answers out of arrival order: %+v", question.Answers)
	}

	if _, err := service.AddAnswer(context.Background(), "missing", mustUsername(t, "bob"), "text"); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestAddCommentRequiresExistingTarget(t *testing.T) {
	service, _ := newTestService(t)
	created := mustCreateQuestion(t, service, "alice", "comments", nil)
	answer, err := service.AddAnswer(context.Background(), forum.QuestionID(created.ID), mustUsername(t, "bob"), "an answer")
	if err != nil {
		t.Fatalf("failed to add answer: %v", err)
	}

	if _, err := service.AddComment(context.Background(), forum.TargetQuestion, "missing", mustUsername(t, "carol"), "hello"); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
	if _, err := service.AddComment(context.Background(), forum.TargetAnswer, "missing", mustUsername(t, "carol"), "hello"); !errors.Is(err, ErrAnswerNotFound) {
		t.Fatalf("expected ErrAnswerNotFound, got %v", err)
	}
	if _, err := service.AddComment(context.Background(), "thread", created.ID, mustUsername(t, "carol"), "hello"); !errors.Is(err, forum.ErrUnknownTargetKind) {
		t.Fatalf("expected ErrUnknownTargetKind, got %v", err)
	}

	if _, err := service.AddComment(context.Background(), forum.TargetQuestion, created.ID, mustUsername(t, "carol"), "on the question"); err != nil {
		t.Fatalf("failed to comment on question: %v", err)
	}
	if _, err := service.AddComment(context.Background(), forum.TargetAnswer, answer.ID, mustUsername(t, "dave"), "on the answer"); err != nil {
		t.Fatalf("failed to comment on answer: %v", err)
	}

	question, err := service.GetQuestion(context.Background(), forum.QuestionID(created.ID))
	if err != nil {
		t.Fatalf("failed to fetch question: %v", err)
	}
	if len(question.Comments) != 1 || question.Comments[0].CommentBy != "carol" {
		t.Fatalf("question comment missing: %+v", question.Comments)
	}
	if len(question.Answers[0].Comments) != 1 || question.Answers[0].Comments[0].CommentBy != "dave" {
		t.Fatalf("answer comment missing: %+v", question.Answers[0].Comments)
	}
}

func TestApplyVoteToggleSemantics(t *testing.T) {
	service, _ := newTestService(t)
	created := mustCreateQuestion(t, service, "alice", "voting", nil)
	questionID := forum.QuestionID(created.ID)
	bob := mustUsername(t, "bob")

	upVotes, downVotes, err := service.ApplyVote(context.Background(), questionID, bob, true)
	if err != nil {
		t.Fatalf("failed to vote: %v", err)
	}
	if len(upVotes) != 1 || upVotes[0] != "bob" || len(downVotes) != 0 {
		t.Fatalf("expected bob in up set, got up=%v down=%v", upVotes, downVotes)
	}

	// Voting the other direction switches the membership.
	upVotes, downVotes, err = service.ApplyVote(context.Background(), questionID, bob, false)
	if err != nil {
		t.Fatalf("failed to vote: %v", err)
	}
	if len(upVotes) != 0 || len(downVotes) != 1 || downVotes[0] != "bob" {
		t.Fatalf("expected bob in down set, got up=%v down=%v", upVotes, downVotes)
	}

	// Repeating the same direction cancels the vote entirely.
	upVotes, downVotes, err = service.ApplyVote(context.Background(), questionID, bob, false)
	if err != nil {
		t.Fatalf("failed to vote: %v", err)
	}
	if len(upVotes) != 0 || len(downVotes) != 0 {
		t.Fatalf("expected empty sets after cancel, got up=%v down=%v", upVotes, downVotes)
	}

	if _, _, err := service.ApplyVote(context.Background(), "missing", bob, true); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestListQuestionsFilteringAndOrders(t *testing.T) {
	service, clock := newTestService(t)

	oldest := mustCreateQuestion(t, service, "alice", "channel deadlock", []string{"go"})
	clock.advance(time.Minute)
	middle := mustCreateQuestion(t, service, "bob", "borrow checker fight", []string{"rust"})
	clock.advance(time.Minute)
	newest := mustCreateQuestion(t, service, "carol", "generic constraints", []string{"go", "generics"})

	clock.advance(time.Minute)
	if _, err := service.AddAnswer(context.Background(), forum.QuestionID(oldest.ID), mustUsername(t, "dave"), "use select"); err != nil {
		t.Fatalf("failed to add answer: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := service.IncrementViews(context.Background(), forum.QuestionID(middle.ID)); err != nil {
			t.Fatalf("failed to increment views: %v", err)
		}
	}

	byNewest, err := service.ListQuestions(context.Background(), "", forum.OrderNewest)
	if err != nil {
		t.Fatalf("failed to list questions: %v", err)
	}
	if len(byNewest) != 3 || byNewest[0].ID != newest.ID || byNewest[2].ID != oldest.ID {
		t.Fatalf("unexpected newest order: %v", questionIDs(byNewest))
	}

	byActive, err := service.ListQuestions(context.Background(), "", forum.OrderActive)
	if err != nil {
		t.Fatalf("failed to list questions: %v", err)
	}
	if byActive[0].ID != oldest.ID {
		t.Fatalf("most recently answered question must lead active order: %v", questionIDs(byActive))
	}

	unanswered, err := service.ListQuestions(context.Background(), "", forum.OrderUnanswered)
	if err != nil {
		t.Fatalf("failed to list questions: %v", err)
	}
	if len(unanswered) != 2 {
		t.Fatalf("expected 2 unanswered questions, got %v", questionIDs(unanswered))
	}
	for _, question := range unanswered {
		if question.ID == oldest.ID {
			t.Fatalf("answered question leaked into unanswered order")
		}
	}

	mostViewed, err := service.ListQuestions(context.Background(), "", forum.OrderMostViewed)
	if err != nil {
		t.Fatalf("failed to list questions: %v", err)
	}
	if mostViewed[0].ID != middle.ID {
		t.Fatalf("expected most viewed question first, got %v", questionIDs(mostViewed))
	}

	tagged, err := service.ListQuestions(context.Background(), "[go]", forum.OrderNewest)
	if err != nil {
		t.Fatalf("failed to list questions: %v", err)
	}
	if len(tagged) != 2 {
		t.Fatalf("expected 2 go questions, got %v", questionIDs(tagged))
	}

	words, err := service.ListQuestions(context.Background(), "deadlock", forum.OrderNewest)
	if err != nil {
		t.Fatalf("failed to list questions: %v", err)
	}
	if len(words) != 1 || words[0].ID != oldest.ID {
		t.Fatalf("expected the deadlock question, got %v", questionIDs(words))
	}
}

func TestListTagsCountsQuestions(t *testing.T) {
	service, _ := newTestService(t)
	mustCreateQuestion(t, service, "alice", "one", []string{"go", "testing"})
	mustCreateQuestion(t, service, "bob", "two", []string{"go"})

	tags, err := service.ListTags(context.Background())
	if err != nil {
		t.Fatalf("failed to list tags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %v", tags)
	}
	if tags[0].Name != "go" || tags[0].Count != 2 {
		t.Fatalf("unexpected first tag %+v", tags[0])
	}
	if tags[1].Name != "testing" || tags[1].Count != 1 {
		t.Fatalf("unexpected second tag %+v", tags[1])
	}
}

func TestGetAnswerReportsOwningQuestion(t *testing.T) {
	service, _ := newTestService(t)
	created := mustCreateQuestion(t, service, "alice", "ownership", nil)
	added, err := service.AddAnswer(context.Background(), forum.QuestionID(created.ID), mustUsername(t, "bob"), "borrow it")
	if err != nil {
		t.Fatalf("failed to add answer: %v", err)
	}

	answer, owner, err := service.GetAnswer(context.Background(), added.ID)
	if err != nil {
		t.Fatalf("failed to fetch answer: %v", err)
	}
	if answer.ID != added.ID || owner.String() != created.ID {
		t.Fatalf("unexpected answer %+v owner %q", answer, owner)
	}

	if _, _, err := service.GetAnswer(context.Background(), "missing"); !errors.Is(err, ErrAnswerNotFound) {
		t.Fatalf("expected ErrAnswerNotFound, got %v", err)
	}
}

func TestNewServiceValidatesConfig(t *testing.T) {
	if _, err := NewService(ServiceConfig{IDProvider: &sequentialIDs{}}); err == nil {
		t.Fatalf("expected error for missing database")
	}
	db, err := OpenSQLite(":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := NewService(ServiceConfig{Database: db}); err == nil {
		t.Fatalf("expected error for missing id provider")
	}
}

func questionIDs(questions []forum.Question) []string {
	ids := make([]string, 0, len(questions))
	for _, question := range questions {
		ids = append(ids, question.ID)
	}
	return ids
}
