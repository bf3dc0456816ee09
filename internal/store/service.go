// Package store persists the forum state served by the reference backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/PavanKumar06/stackoverflow-client/internal/forum"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	// ErrQuestionNotFound indicates no question exists for the given id.
	ErrQuestionNotFound = errors.New("store: question not found")
	// ErrAnswerNotFound indicates no answer exists for the given id.
	ErrAnswerNotFound = errors.New("store: answer not found")

	noOpLogger = zap.NewNop()
)

// ServiceError wraps a failure with a dotted operation code.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the dotted operation code.
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew     = "store.service.new"
	opCreateQuestion = "store.create_question"
	opGetQuestion    = "store.get_question"
	opListQuestions  = "store.list_questions"
	opAddAnswer      = "store.add_answer"
	opGetAnswer      = "store.get_answer"
	opAddComment     = "store.add_comment"
	opApplyVote      = "store.apply_vote"
	opListTags       = "store.list_tags"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// IDProvider issues server-assigned identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the store service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service reads and mutates the persisted forum state.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService validates the configuration and constructs the service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{db: cfg.Database, clock: clock, idProvider: cfg.IDProvider, logger: logger}, nil
}

// CreateQuestion stores a new question and returns the assembled aggregate.
func (s *Service) CreateQuestion(ctx context.Context, askedBy forum.Username, title, text string, tags []string) (forum.Question, error) {
	questionID, err := s.idProvider.NewID()
	if err != nil {
		return forum.Question{}, newServiceError(opCreateQuestion, "id_generation_failed", err)
	}
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return forum.Question{}, newServiceError(opCreateQuestion, "tags_encode_failed", err)
	}
	record := QuestionRecord{
		QuestionID:  questionID,
		Title:       title,
		Text:        text,
		TagsJSON:    string(tagsJSON),
		AskedBy:     askedBy.String(),
		AskedAtUnix: s.clock().UTC().Unix(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.logError(opCreateQuestion, "insert_failed", err)
		return forum.Question{}, newServiceError(opCreateQuestion, "insert_failed", err)
	}
	return s.assembleQuestion(ctx, record)
}

// GetQuestion assembles the full aggregate for one question.
func (s *Service) GetQuestion(ctx context.Context, id forum.QuestionID) (forum.Question, error) {
	var record QuestionRecord
	err := s.db.WithContext(ctx).Where("question_id = ?", id.String()).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return forum.Question{}, ErrQuestionNotFound
	}
	if err != nil {
		s.logError(opGetQuestion, "query_failed", err, zap.String("question_id", id.String()))
		return forum.Question{}, newServiceError(opGetQuestion, "query_failed", err)
	}
	return s.assembleQuestion(ctx, record)
}

// IncrementViews bumps the view counter and returns the updated aggregate.
// The counter is monotonic non-decreasing.
func (s *Service) IncrementViews(ctx context.Context, id forum.QuestionID) (forum.Question, error) {
	result := s.db.WithContext(ctx).
		Model(&QuestionRecord{}).
		Where("question_id = ?", id.String()).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if result.Error != nil {
		s.logError(opGetQuestion, "views_update_failed", result.Error, zap.String("question_id", id.String()))
		return forum.Question{}, newServiceError(opGetQuestion, "views_update_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return forum.Question{}, ErrQuestionNotFound
	}
	return s.GetQuestion(ctx, id)
}

// ListQuestions returns assembled aggregates matching the search filter in
// the requested order.
func (s *Service) ListQuestions(ctx context.Context, search string, order forum.Order) ([]forum.Question, error) {
	var records []QuestionRecord
	if err := s.db.WithContext(ctx).Order("asked_at_s DESC").Find(&records).Error; err != nil {
		s.logError(opListQuestions, "query_failed", err)
		return nil, newServiceError(opListQuestions, "query_failed", err)
	}

	filter := forum.ParseSearch(search)
	questions := make([]forum.Question, 0, len(records))
	for _, record := range records {
		question, err := s.assembleQuestion(ctx, record)
		if err != nil {
			return nil, err
		}
		if filter.Matches(question) {
			questions = append(questions, question)
		}
	}
	return sortQuestions(questions, order), nil
}

// AddAnswer appends an answer to the question and returns it.
func (s *Service) AddAnswer(ctx context.Context, questionID forum.QuestionID, answeredBy forum.Username, text string) (forum.Answer, error) {
	if _, err := s.questionExists(ctx, questionID); err != nil {
		return forum.Answer{}, err
	}
	answerID, err := s.idProvider.NewID()
	if err != nil {
		return forum.Answer{}, newServiceError(opAddAnswer, "id_generation_failed", err)
	}

	var position int64
	if err := s.db.WithContext(ctx).
		Model(&AnswerRecord{}).
		Where("question_id = ?", questionID.String()).
		Count(&position).Error; err != nil {
		s.logError(opAddAnswer, "position_query_failed", err)
		return forum.Answer{}, newServiceError(opAddAnswer, "position_query_failed", err)
	}

	record := AnswerRecord{
		AnswerID:       answerID,
		QuestionID:     questionID.String(),
		Text:           text,
		AnsweredBy:     answeredBy.String(),
		AnsweredAtUnix: s.clock().UTC().Unix(),
		Position:       int(position),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.logError(opAddAnswer, "insert_failed", err, zap.String("question_id", questionID.String()))
		return forum.Answer{}, newServiceError(opAddAnswer, "insert_failed", err)
	}
	return s.assembleAnswer(ctx, record)
}

// GetAnswer assembles one answer with its comments and reports the owning
// question id.
func (s *Service) GetAnswer(ctx context.Context, answerID string) (forum.Answer, forum.QuestionID, error) {
	var record AnswerRecord
	err := s.db.WithContext(ctx).Where("answer_id = ?", answerID).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return forum.Answer{}, "", ErrAnswerNotFound
	}
	if err != nil {
		s.logError(opGetAnswer, "query_failed", err, zap.String("answer_id", answerID))
		return forum.Answer{}, "", newServiceError(opGetAnswer, "query_failed", err)
	}
	answer, err := s.assembleAnswer(ctx, record)
	if err != nil {
		return forum.Answer{}, "", err
	}
	return answer, forum.QuestionID(record.QuestionID), nil
}

// AddComment appends a comment to a question or answer and returns it. The
// target must exist before anything is written.
func (s *Service) AddComment(ctx context.Context, kind forum.TargetKind, targetID string, commentedBy forum.Username, text string) (forum.Comment, error) {
	switch kind {
	case forum.TargetQuestion:
		if _, err := s.questionExists(ctx, forum.QuestionID(targetID)); err != nil {
			return forum.Comment{}, err
		}
	case forum.TargetAnswer:
		if _, _, err := s.GetAnswer(ctx, targetID); err != nil {
			return forum.Comment{}, err
		}
	default:
		return forum.Comment{}, forum.ErrUnknownTargetKind
	}

	commentID, err := s.idProvider.NewID()
	if err != nil {
		return forum.Comment{}, newServiceError(opAddComment, "id_generation_failed", err)
	}

	var position int64
	if err := s.db.WithContext(ctx).
		Model(&CommentRecord{}).
		Where("target_kind = ? AND target_id = ?", string(kind), targetID).
		Count(&position).Error; err != nil {
		s.logError(opAddComment, "position_query_failed", err)
		return forum.Comment{}, newServiceError(opAddComment, "position_query_failed", err)
	}

	record := CommentRecord{
		CommentID:       commentID,
		TargetKind:      string(kind),
		TargetID:        targetID,
		Text:            text,
		CommentedBy:     commentedBy.String(),
		CommentedAtUnix: s.clock().UTC().Unix(),
		Position:        int(position),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.logError(opAddComment, "insert_failed", err, zap.String("target_id", targetID))
		return forum.Comment{}, newServiceError(opAddComment, "insert_failed", err)
	}
	return commentFromRecord(record), nil
}

// ApplyVote registers an up or down vote with toggle semantics: voting the
// same direction again cancels the vote, voting the other direction switches
// it. A username therefore appears in at most one of the two sets. The full
// post-update membership sets are returned.
func (s *Service) ApplyVote(ctx context.Context, questionID forum.QuestionID, username forum.Username, up bool) ([]string, []string, error) {
	if _, err := s.questionExists(ctx, questionID); err != nil {
		return nil, nil, err
	}

	direction := directionDown
	if up {
		direction = directionUp
	}

	var existing VoteRecord
	err := s.db.WithContext(ctx).
		Where("question_id = ? AND username = ?", questionID.String(), username.String()).
		Take(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		record := VoteRecord{QuestionID: questionID.String(), Username: username.String(), Direction: direction}
		if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
			s.logError(opApplyVote, "insert_failed", err)
			return nil, nil, newServiceError(opApplyVote, "insert_failed", err)
		}
	case err != nil:
		s.logError(opApplyVote, "query_failed", err)
		return nil, nil, newServiceError(opApplyVote, "query_failed", err)
	case existing.Direction == direction:
		if err := s.db.WithContext(ctx).Delete(&existing).Error; err != nil {
			s.logError(opApplyVote, "delete_failed", err)
			return nil, nil, newServiceError(opApplyVote, "delete_failed", err)
		}
	default:
		if err := s.db.WithContext(ctx).
			Model(&VoteRecord{}).
			Where("question_id = ? AND username = ?", questionID.String(), username.String()).
			Update("direction", direction).Error; err != nil {
			s.logError(opApplyVote, "update_failed", err)
			return nil, nil, newServiceError(opApplyVote, "update_failed", err)
		}
	}

	return s.voteSets(ctx, questionID.String())
}

// TagCount pairs a tag name with the number of questions carrying it.
type TagCount struct {
	Name  string
	Count int
}

// ListTags returns every tag with its question count, sorted by name.
func (s *Service) ListTags(ctx context.Context) ([]TagCount, error) {
	var records []QuestionRecord
	if err := s.db.WithContext(ctx).Find(&records).Error; err != nil {
		s.logError(opListTags, "query_failed", err)
		return nil, newServiceError(opListTags, "query_failed", err)
	}
	counts := make(map[string]int)
	for _, record := range records {
		var tags []string
		if err := json.Unmarshal([]byte(record.TagsJSON), &tags); err != nil {
			continue
		}
		for _, tag := range tags {
			counts[tag]++
		}
	}
	tags := make([]TagCount, 0, len(counts))
	for name, count := range counts {
		tags = append(tags, TagCount{Name: name, Count: count})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func (s *Service) questionExists(ctx context.Context, id forum.QuestionID) (QuestionRecord, error) {
	var record QuestionRecord
	err := s.db.WithContext(ctx).Where("question_id = ?", id.String()).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return QuestionRecord{}, ErrQuestionNotFound
	}
	if err != nil {
		return QuestionRecord{}, newServiceError(opGetQuestion, "query_failed", err)
	}
	return record, nil
}

func (s *Service) assembleQuestion(ctx context.Context, record QuestionRecord) (forum.Question, error) {
	var tags []string
	if err := json.Unmarshal([]byte(record.TagsJSON), &tags); err != nil {
		tags = []string{}
	}

	comments, err := s.commentsFor(ctx, forum.TargetQuestion, record.QuestionID)
	if err != nil {
		return forum.Question{}, err
	}

	var answerRecords []AnswerRecord
	if err := s.db.WithContext(ctx).
		Where("question_id = ?", record.QuestionID).
		Order("position ASC").
		Find(&answerRecords).Error; err != nil {
		s.logError(opGetQuestion, "answers_query_failed", err)
		return forum.Question{}, newServiceError(opGetQuestion, "answers_query_failed", err)
	}
	answers := make([]forum.Answer, 0, len(answerRecords))
	for _, answerRecord := range answerRecords {
		answer, err := s.assembleAnswer(ctx, answerRecord)
		if err != nil {
			return forum.Question{}, err
		}
		answers = append(answers, answer)
	}

	upVotes, downVotes, err := s.voteSets(ctx, record.QuestionID)
	if err != nil {
		return forum.Question{}, err
	}

	return forum.Question{
		ID:          record.QuestionID,
		Title:       record.Title,
		Text:        record.Text,
		Tags:        tags,
		AskedBy:     record.AskedBy,
		AskDateTime: time.Unix(record.AskedAtUnix, 0).UTC(),
		Views:       record.Views,
		Comments:    comments,
		Answers:     answers,
		UpVotes:     upVotes,
		DownVotes:   downVotes,
	}, nil
}

func (s *Service) assembleAnswer(ctx context.Context, record AnswerRecord) (forum.Answer, error) {
	comments, err := s.commentsFor(ctx, forum.TargetAnswer, record.AnswerID)
	if err != nil {
		return forum.Answer{}, err
	}
	return forum.Answer{
		ID:          record.AnswerID,
		Text:        record.Text,
		AnsBy:       record.AnsweredBy,
		AnsDateTime: time.Unix(record.AnsweredAtUnix, 0).UTC(),
		Comments:    comments,
	}, nil
}

func (s *Service) commentsFor(ctx context.Context, kind forum.TargetKind, targetID string) ([]forum.Comment, error) {
	var records []CommentRecord
	if err := s.db.WithContext(ctx).
		Where("target_kind = ? AND target_id = ?", string(kind), targetID).
		Order("position ASC").
		Find(&records).Error; err != nil {
		s.logError(opGetQuestion, "comments_query_failed", err)
		return nil, newServiceError(opGetQuestion, "comments_query_failed", err)
	}
	comments := make([]forum.Comment, 0, len(records))
	for _, record := range records {
		comments = append(comments, commentFromRecord(record))
	}
	return comments, nil
}

func (s *Service) voteSets(ctx context.Context, questionID string) ([]string, []string, error) {
	var records []VoteRecord
	if err := s.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("username ASC").
		Find(&records).Error; err != nil {
		s.logError(opApplyVote, "votes_query_failed", err)
		return nil, nil, newServiceError(opApplyVote, "votes_query_failed", err)
	}
	upVotes := []string{}
	downVotes := []string{}
	for _, record := range records {
		if record.Direction == directionUp {
			upVotes = append(upVotes, record.Username)
		} else {
			downVotes = append(downVotes, record.Username)
		}
	}
	return upVotes, downVotes, nil
}

func commentFromRecord(record CommentRecord) forum.Comment {
	return forum.Comment{
		Text:            record.Text,
		CommentBy:       record.CommentedBy,
		CommentDateTime: time.Unix(record.CommentedAtUnix, 0).UTC(),
	}
}

func sortQuestions(questions []forum.Question, order forum.Order) []forum.Question {
	switch order {
	case forum.OrderUnanswered:
		unanswered := make([]forum.Question, 0, len(questions))
		for _, question := range questions {
			if len(question.Answers) == 0 {
				unanswered = append(unanswered, question)
			}
		}
		return unanswered
	case forum.OrderMostViewed:
		sort.SliceStable(questions, func(i, j int) bool {
			return questions[i].Views > questions[j].Views
		})
	case forum.OrderActive:
		sort.SliceStable(questions, func(i, j int) bool {
			return lastActivity(questions[i]).After(lastActivity(questions[j]))
		})
	}
	// OrderNewest keeps the asked_at descending order from the query.
	return questions
}

func lastActivity(question forum.Question) time.Time {
	latest := time.Time{}
	for _, answer := range question.Answers {
		if answer.AnsDateTime.After(latest) {
			latest = answer.AnsDateTime
		}
	}
	return latest
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("store service error", attrs...)
}
