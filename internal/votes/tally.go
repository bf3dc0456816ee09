// Package votes derives vote tallies from authoritative membership sets.
// Tallies are recomputed from the raw upvoter/downvoter sets on every
// relevant change and never cached independently of them, so the derived
// values cannot drift from the sets they summarize.
package votes

import (
	"github.com/PavanKumar06/stackoverflow-client/internal/forum"
)

// Disposition is the signed-in user's vote direction on a question.
type Disposition int

const (
	// DispositionDownvoted means the user appears in the downvoter set.
	DispositionDownvoted Disposition = -1
	// DispositionNone means the user appears in neither set, or is not signed in.
	DispositionNone Disposition = 0
	// DispositionUpvoted means the user appears in the upvoter set.
	DispositionUpvoted Disposition = 1
)

// Tally is the derived vote state for one question and one identity.
type Tally struct {
	Count       int
	Disposition Disposition
}

// Derive computes the tally for a question aggregate and the given username.
func Derive(question forum.Question, username string) Tally {
	return DeriveFromSets(question.UpVotes, question.DownVotes, username)
}

// DeriveFromSets computes the net count and own disposition from full
// membership sets, as delivered by a vote-changed event. An unauthenticated
// identity (empty username) always yields no disposition, even when a set
// happens to contain an empty string.
func DeriveFromSets(upVotes, downVotes []string, username string) Tally {
	tally := Tally{Count: len(upVotes) - len(downVotes)}
	if username == "" {
		return tally
	}
	if contains(upVotes, username) {
		tally.Disposition = DispositionUpvoted
	} else if contains(downVotes, username) {
		tally.Disposition = DispositionDownvoted
	}
	return tally
}

func contains(set []string, value string) bool {
	for _, member := range set {
		if member == value {
			return true
		}
	}
	return false
}
