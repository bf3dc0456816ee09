package forum

import "testing"

func TestTagQueryFormat(t *testing.T) {
	if got := TagQuery("rust"); got != "[rust]" {
		t.Fatalf("expected [rust], got %q", got)
	}
}

func TestParseSearchSplitsTagsAndWords(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantTags  []string
		wantWords []string
	}{
		{name: "empty", query: ""},
		{name: "words-only", query: "goroutine leak", wantWords: []string{"goroutine", "leak"}},
		{name: "tag-only", query: "[go]", wantTags: []string{"go"}},
		{name: "mixed", query: "[go] channel deadlock", wantTags: []string{"go"}, wantWords: []string{"channel", "deadlock"}},
		{name: "multiple-tags", query: "[go][testing]", wantTags: []string{"go", "testing"}},
		{name: "unterminated-bracket", query: "[go channel", wantWords: []string{"[go", "channel"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := ParseSearch(tt.query)
			if len(filter.Tags) != len(tt.wantTags) {
				t.Fatalf("expected tags %v, got %v", tt.wantTags, filter.Tags)
			}
			for i, tag := range tt.wantTags {
				if filter.Tags[i] != tag {
					t.Fatalf("expected tags %v, got %v", tt.wantTags, filter.Tags)
				}
			}
			if len(filter.Words) != len(tt.wantWords) {
				t.Fatalf("expected words %v, got %v", tt.wantWords, filter.Words)
			}
			for i, word := range tt.wantWords {
				if filter.Words[i] != word {
					t.Fatalf("expected words %v, got %v", tt.wantWords, filter.Words)
				}
			}
		})
	}
}

func TestSearchFilterMatches(t *testing.T) {
	question := Question{
		ID:    "q1",
		Title: "How do channels work",
		Text:  "buffered versus unbuffered",
		Tags:  []string{"go", "concurrency"},
	}

	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{name: "empty-matches-all", query: "", want: true},
		{name: "tag-match", query: "[go]", want: true},
		{name: "tag-miss", query: "[rust]", want: false},
		{name: "word-in-title", query: "channels", want: true},
		{name: "word-in-body", query: "buffered", want: true},
		{name: "case-insensitive", query: "CHANNELS", want: true},
		{name: "word-miss", query: "generics", want: false},
		{name: "any-tag-admits", query: "[rust][concurrency]", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseSearch(tt.query).Matches(question); got != tt.want {
				t.Fatalf("query %q: expected %v, got %v", tt.query, tt.want, got)
			}
		})
	}
}
