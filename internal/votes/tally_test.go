package votes

import (
	"testing"

	"github.com/PavanKumar06/stackoverflow-client/internal/forum"
)

func TestDeriveFromSets(t *testing.T) {
	tests := []struct {
		name            string
		upVotes         []string
		downVotes       []string
		username        string
		wantCount       int
		wantDisposition Disposition
	}{
		{
			name:            "upvoted",
			upVotes:         []string{"alice", "bob"},
			downVotes:       []string{"carol"},
			username:        "alice",
			wantCount:       1,
			wantDisposition: DispositionUpvoted,
		},
		{
			name:            "downvoted",
			upVotes:         []string{"bob"},
			downVotes:       []string{"alice"},
			username:        "alice",
			wantCount:       0,
			wantDisposition: DispositionDownvoted,
		},
		{
			name:            "no-vote",
			upVotes:         []string{"bob"},
			downVotes:       []string{},
			username:        "alice",
			wantCount:       1,
			wantDisposition: DispositionNone,
		},
		{
			name:            "empty-sets",
			username:        "alice",
			wantCount:       0,
			wantDisposition: DispositionNone,
		},
		{
			name:            "negative-count",
			downVotes:       []string{"bob", "carol", "dave"},
			username:        "alice",
			wantCount:       -3,
			wantDisposition: DispositionNone,
		},
		{
			name:            "unauthenticated-ignores-empty-string-member",
			upVotes:         []string{""},
			username:        "",
			wantCount:       1,
			wantDisposition: DispositionNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tally := DeriveFromSets(tt.upVotes, tt.downVotes, tt.username)
			if tally.Count != tt.wantCount {
				t.Fatalf("expected count %d, got %d", tt.wantCount, tally.Count)
			}
			if tally.Disposition != tt.wantDisposition {
				t.Fatalf("expected disposition %d, got %d", tt.wantDisposition, tally.Disposition)
			}
		})
	}
}

func TestDeriveUsesAggregateSets(t *testing.T) {
	question := forum.Question{
		ID:        "q1",
		UpVotes:   []string{"alice", "bob"},
		DownVotes: []string{"carol"},
	}
	tally := Derive(question, "carol")
	if tally.Count != 1 {
		t.Fatalf("expected count 1, got %d", tally.Count)
	}
	if tally.Disposition != DispositionDownvoted {
		t.Fatalf("expected downvoted disposition, got %d", tally.Disposition)
	}
}
