// Package compose validates answer and comment submissions before any
// network call is attempted, so a doomed request is rejected synchronously at
// the submission boundary.
package compose

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/PavanKumar06/stackoverflow-client/internal/forum"
	"go.uber.org/zap"
)

var (
	// ErrEmptyText indicates the submission body is empty.
	ErrEmptyText = errors.New("compose: text cannot be empty")
	// ErrInvalidHyperlink indicates a markdown hyperlink with empty text or a
	// non-https target.
	ErrInvalidHyperlink = errors.New("compose: invalid hyperlink format")
	// ErrMissingTarget indicates a comment submission with no resolvable
	// target id.
	ErrMissingTarget = errors.New("compose: no target id provided")

	errMissingSubmitter = errors.New("compose: submitter is required")
)

// Markdown hyperlinks must carry link text and an https target.
var (
	hyperlinkPattern       = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)
	strictHyperlinkPattern = regexp.MustCompile(`^https://\S+$`)
)

// Submitter issues validated submissions to the backend.
type Submitter interface {
	SubmitAnswer(ctx context.Context, questionID forum.QuestionID, text string) (forum.Answer, error)
	SubmitComment(ctx context.Context, targetID string, kind forum.TargetKind, text string) (forum.Comment, error)
}

// ComposerConfig describes a composer's dependencies.
type ComposerConfig struct {
	Submitter Submitter
	Logger    *zap.Logger
}

// Composer checks submission preconditions and delegates valid submissions.
type Composer struct {
	submitter Submitter
	logger    *zap.Logger
}

// NewComposer validates dependencies and constructs a composer.
func NewComposer(cfg ComposerConfig) (*Composer, error) {
	if cfg.Submitter == nil {
		return nil, errMissingSubmitter
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{submitter: cfg.Submitter, logger: logger}, nil
}

// PostAnswer validates and submits an answer to the named question.
func (c *Composer) PostAnswer(ctx context.Context, questionID forum.QuestionID, text string) (forum.Answer, error) {
	if err := ValidateText(text); err != nil {
		return forum.Answer{}, err
	}
	answer, err := c.submitter.SubmitAnswer(ctx, questionID, text)
	if err != nil {
		c.logger.Error("answer submission failed",
			zap.String("question_id", questionID.String()),
			zap.Error(err))
		return forum.Answer{}, err
	}
	return answer, nil
}

// PostComment validates and submits a comment. The target id precondition is
// checked before anything touches the network.
func (c *Composer) PostComment(ctx context.Context, targetID string, kind forum.TargetKind, text string) (forum.Comment, error) {
	if strings.TrimSpace(targetID) == "" {
		return forum.Comment{}, ErrMissingTarget
	}
	if _, err := forum.ParseTargetKind(string(kind)); err != nil {
		return forum.Comment{}, err
	}
	if err := ValidateText(text); err != nil {
		return forum.Comment{}, err
	}
	comment, err := c.submitter.SubmitComment(ctx, targetID, kind, text)
	if err != nil {
		c.logger.Error("comment submission failed",
			zap.String("target_id", targetID),
			zap.String("target_kind", string(kind)),
			zap.Error(err))
		return forum.Comment{}, err
	}
	return comment, nil
}

// ValidateText rejects empty bodies and malformed markdown hyperlinks.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	for _, match := range hyperlinkPattern.FindAllStringSubmatch(text, -1) {
		linkText, target := match[1], match[2]
		if strings.TrimSpace(linkText) == "" {
			return ErrInvalidHyperlink
		}
		if !strictHyperlinkPattern.MatchString(target) {
			return ErrInvalidHyperlink
		}
	}
	return nil
}
