// Package aggregate owns the in-memory copy of one question aggregate and
// reconciles it against the stream of server-pushed change events.
package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/PavanKumar06/stackoverflow-client/internal/forum"
	"github.com/PavanKumar06/stackoverflow-client/internal/realtime"
	"github.com/PavanKumar06/stackoverflow-client/internal/votes"
	"go.uber.org/zap"
)

var (
	errMissingFetcher = errors.New("aggregate: question fetcher is required")
	errMissingBus     = errors.New("aggregate: event bus is required")
	// ErrNotOpen indicates that no aggregate is currently loaded.
	ErrNotOpen = errors.New("aggregate: engine is not open")
)

// Fetcher loads a full question aggregate by id.
type Fetcher interface {
	FetchQuestion(ctx context.Context, id forum.QuestionID) (forum.Question, error)
}

// EngineConfig describes the dependencies of a reconciliation engine.
type EngineConfig struct {
	Fetcher  Fetcher
	Bus      *realtime.Bus
	Username string
	Logger   *zap.Logger
	// OnChange, when set, fires after every accepted merge with a snapshot of
	// the new state. It is never invoked for ignored or malformed events. It
	// runs with the engine's internal lock held and must not call back into
	// the engine.
	OnChange func(forum.Question, votes.Tally)
}

// Engine holds the aggregate for the currently open question detail view and
// applies the fixed set of merge operations as events arrive. It issues no
// writes of its own: every mutation it observes is the broadcast result of a
// submission made elsewhere.
type Engine struct {
	fetcher  Fetcher
	bus      *realtime.Bus
	username string
	logger   *zap.Logger
	onChange func(forum.Question, votes.Tally)

	mu            sync.Mutex
	questionID    string
	question      *forum.Question
	tally         votes.Tally
	generation    int64
	subscriptions []*realtime.Subscription
}

// NewEngine validates dependencies and constructs an engine with no aggregate
// loaded.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Fetcher == nil {
		return nil, errMissingFetcher
	}
	if cfg.Bus == nil {
		return nil, errMissingBus
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		fetcher:  cfg.Fetcher,
		bus:      cfg.Bus,
		username: cfg.Username,
		logger:   logger,
		onChange: cfg.OnChange,
	}, nil
}

// Open subscribes to the question's change events and performs the initial
// fetch. A fetch failure leaves the aggregate absent: it is logged but not
// retried, and Open reports it so the caller can degrade to rendering
// nothing. If the engine is closed (or reopened for a different question)
// before the fetch resolves, the stale result is discarded.
func (e *Engine) Open(ctx context.Context, questionID forum.QuestionID) error {
	e.Close()

	e.mu.Lock()
	e.questionID = questionID.String()
	e.generation++
	generation := e.generation
	e.subscriptions = []*realtime.Subscription{
		e.bus.On(realtime.EventAnswerAdded, e.handleAnswerAdded),
		e.bus.On(realtime.EventCommentAdded, e.handleCommentAdded),
		e.bus.On(realtime.EventViewsUpdated, e.handleViewsUpdated),
		e.bus.On(realtime.EventVoteChanged, e.handleVoteChanged),
	}
	e.mu.Unlock()

	fetched, err := e.fetcher.FetchQuestion(ctx, questionID)
	if err != nil {
		e.logger.Error("initial question fetch failed",
			zap.String("question_id", questionID.String()),
			zap.Error(err))
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generation != generation {
		// The view unmounted, or moved to another question, while the fetch
		// was in flight.
		return nil
	}
	loaded := fetched.Clone()
	e.question = &loaded
	e.tally = votes.Derive(loaded, e.username)
	e.notifyLocked()
	return nil
}

// Close unconditionally releases the engine's subscriptions and discards the
// aggregate. It removes only its own handlers and is safe to call at any
// time, including before an in-flight fetch has resolved.
func (e *Engine) Close() {
	e.mu.Lock()
	subscriptions := e.subscriptions
	e.subscriptions = nil
	e.question = nil
	e.questionID = ""
	e.tally = votes.Tally{}
	e.generation++
	e.mu.Unlock()

	for _, subscription := range subscriptions {
		subscription.Cancel()
	}
}

// Snapshot returns a deep copy of the current aggregate. The second return
// value is false while the aggregate is absent.
func (e *Engine) Snapshot() (forum.Question, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.question == nil {
		return forum.Question{}, false
	}
	return e.question.Clone(), true
}

// Tally returns the derived vote state for the session user.
func (e *Engine) Tally() votes.Tally {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tally
}

func (e *Engine) handleAnswerAdded(data json.RawMessage) {
	var payload realtime.AnswerAddedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		e.logger.Warn("ignoring malformed answer event", zap.Error(err))
		return
	}
	if payload.Answer.ID == "" {
		e.logger.Warn("ignoring answer event without answer id")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.question == nil || payload.QuestionID != e.questionID {
		return
	}
	e.question.Answers = append(e.question.Answers, payload.Answer)
	e.notifyLocked()
}

func (e *Engine) handleCommentAdded(data json.RawMessage) {
	var payload realtime.CommentAddedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		e.logger.Warn("ignoring malformed comment event", zap.Error(err))
		return
	}
	kind, err := forum.ParseTargetKind(payload.TargetKind)
	if err != nil {
		e.logger.Warn("ignoring comment event", zap.Error(err))
		return
	}

	switch kind {
	case forum.TargetQuestion:
		var updated forum.Question
		if err := json.Unmarshal(payload.UpdatedTarget, &updated); err != nil || updated.ID == "" {
			e.logger.Warn("ignoring comment event with malformed question target", zap.Error(err))
			return
		}
		// The delivered object is the canonical post-update aggregate, not a
		// patch: it becomes the source of truth for every field.
		e.replaceAggregate(updated)
	case forum.TargetAnswer:
		var updated forum.Answer
		if err := json.Unmarshal(payload.UpdatedTarget, &updated); err != nil || updated.ID == "" {
			e.logger.Warn("ignoring comment event with malformed answer target", zap.Error(err))
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.question == nil {
			return
		}
		for i := range e.question.Answers {
			if e.question.Answers[i].ID == updated.ID {
				e.question.Answers[i] = updated
				e.notifyLocked()
				return
			}
		}
	}
}

func (e *Engine) handleViewsUpdated(data json.RawMessage) {
	var updated forum.Question
	if err := json.Unmarshal(data, &updated); err != nil || updated.ID == "" {
		e.logger.Warn("ignoring malformed views event", zap.Error(err))
		return
	}
	e.replaceAggregate(updated)
}

func (e *Engine) handleVoteChanged(data json.RawMessage) {
	var payload realtime.VoteChangedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		e.logger.Warn("ignoring malformed vote event", zap.Error(err))
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.question == nil || payload.QuestionID != e.questionID {
		return
	}
	// Derived on demand from the delivered sets; the aggregate's stored sets
	// are left alone.
	e.tally = votes.DeriveFromSets(payload.UpVotes, payload.DownVotes, e.username)
	e.notifyLocked()
}

func (e *Engine) replaceAggregate(updated forum.Question) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.question == nil || updated.ID != e.questionID {
		return
	}
	replacement := updated.Clone()
	e.question = &replacement
	e.tally = votes.Derive(replacement, e.username)
	e.notifyLocked()
}

func (e *Engine) notifyLocked() {
	if e.onChange == nil || e.question == nil {
		return
	}
	e.onChange(e.question.Clone(), e.tally)
}
