package realtime

import (
	"encoding/json"

	"github.com/PavanKumar06/stackoverflow-client/internal/forum"
)

// Event names broadcast by the backend after a confirmed mutation.
const (
	EventAnswerAdded  = "answerAdded"
	EventCommentAdded = "commentAdded"
	EventViewsUpdated = "viewsUpdated"
	EventVoteChanged  = "voteChanged"
)

// AnswerAddedPayload carries a newly created answer for the named question.
type AnswerAddedPayload struct {
	QuestionID string       `json:"questionId"`
	Answer     forum.Answer `json:"answer"`
}

// CommentAddedPayload carries the authoritative post-update copy of the
// commented target. UpdatedTarget decodes as a forum.Question when TargetKind
// is "question" and as a forum.Answer when it is "answer"; it stays raw here
// so the consumer can fail closed on a kind mismatch.
type CommentAddedPayload struct {
	UpdatedTarget json.RawMessage `json:"updatedTarget"`
	TargetKind    string          `json:"targetKind"`
}

// VoteChangedPayload carries the full current vote membership sets for the
// named question. Consumers derive tallies from these sets rather than
// patching counts incrementally.
type VoteChangedPayload struct {
	QuestionID string   `json:"questionId"`
	UpVotes    []string `json:"upVotes"`
	DownVotes  []string `json:"downVotes"`
}

// Frame is the wire envelope carried over the live channel.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
