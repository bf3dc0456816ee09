package votes

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/PavanKumar06/stackoverflow-client/internal/forum"
	"github.com/PavanKumar06/stackoverflow-client/internal/realtime"
	"go.uber.org/zap"
)

var (
	errMissingQuestionID = errors.New("votes: question id is required")
	errMissingBus        = errors.New("votes: event bus is required")
)

// ReconcilerConfig describes a per-question tally reconciler.
type ReconcilerConfig struct {
	QuestionID forum.QuestionID
	Username   string
	Bus        *realtime.Bus
	Logger     *zap.Logger
	// OnChange, when set, is invoked with the fresh tally after every
	// recomputation triggered by a vote-changed event.
	OnChange func(Tally)
}

// Reconciler keeps the derived tally for one question correct as vote-changed
// events arrive. It holds no state beyond the two derived outputs; switching
// questions requires a new Reconciler, so a stale value can never carry over.
type Reconciler struct {
	questionID string
	username   string
	logger     *zap.Logger
	onChange   func(Tally)

	mu           sync.Mutex
	tally        Tally
	subscription *realtime.Subscription
}

// NewReconciler seeds the tally from the supplied aggregate and subscribes to
// vote-changed events for the matching question id. Call Close to release the
// subscription.
func NewReconciler(cfg ReconcilerConfig, question forum.Question) (*Reconciler, error) {
	if cfg.QuestionID.String() == "" {
		return nil, errMissingQuestionID
	}
	if cfg.Bus == nil {
		return nil, errMissingBus
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	reconciler := &Reconciler{
		questionID: cfg.QuestionID.String(),
		username:   cfg.Username,
		logger:     logger,
		onChange:   cfg.OnChange,
		tally:      Derive(question, cfg.Username),
	}
	reconciler.subscription = cfg.Bus.On(realtime.EventVoteChanged, reconciler.handleVoteChanged)
	return reconciler, nil
}

// Tally returns the current derived tally.
func (r *Reconciler) Tally() Tally {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tally
}

// Reset recomputes the tally from a fresh aggregate reference, as when the
// owning view replaces its copy of the question.
func (r *Reconciler) Reset(question forum.Question) {
	r.mu.Lock()
	r.tally = Derive(question, r.username)
	r.mu.Unlock()
}

// Close releases this reconciler's subscription. It removes only its own
// handler, never another subscriber's.
func (r *Reconciler) Close() {
	r.subscription.Cancel()
}

func (r *Reconciler) handleVoteChanged(data json.RawMessage) {
	var payload realtime.VoteChangedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		r.logger.Warn("ignoring malformed vote event", zap.Error(err))
		return
	}
	if payload.QuestionID != r.questionID {
		return
	}
	fresh := DeriveFromSets(payload.UpVotes, payload.DownVotes, r.username)
	r.mu.Lock()
	r.tally = fresh
	r.mu.Unlock()
	if r.onChange != nil {
		r.onChange(fresh)
	}
}
