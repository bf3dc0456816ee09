package forum

import "strings"

// TagQuery returns the search filter that scopes the question list to one
// tag, e.g. "[rust]" for tag "rust".
func TagQuery(name string) string {
	return "[" + name + "]"
}

// SearchFilter is a parsed free-text search: bracketed tokens select tags,
// everything else matches words in the title or body.
type SearchFilter struct {
	Tags  []string
	Words []string
}

// ParseSearch splits a raw query into tag tokens and plain words. An empty
// query parses to an empty filter, which matches every question.
func ParseSearch(query string) SearchFilter {
	filter := SearchFilter{}
	remaining := query
	for {
		open := strings.Index(remaining, "[")
		if open < 0 {
			break
		}
		closing := strings.Index(remaining[open:], "]")
		if closing < 0 {
			break
		}
		tag := strings.TrimSpace(remaining[open+1 : open+closing])
		if tag != "" {
			filter.Tags = append(filter.Tags, tag)
		}
		remaining = remaining[:open] + " " + remaining[open+closing+1:]
	}
	for _, word := range strings.Fields(remaining) {
		filter.Words = append(filter.Words, strings.ToLower(word))
	}
	return filter
}

// Empty reports whether the filter matches everything.
func (f SearchFilter) Empty() bool {
	return len(f.Tags) == 0 && len(f.Words) == 0
}

// Matches reports whether a question satisfies the filter: any tag token or
// any word match admits the question, mirroring the backend's search rules.
func (f SearchFilter) Matches(question Question) bool {
	if f.Empty() {
		return true
	}
	for _, tag := range f.Tags {
		if question.HasTag(tag) {
			return true
		}
	}
	haystack := strings.ToLower(question.Title + " " + question.Text)
	for _, word := range f.Words {
		if strings.Contains(haystack, word) {
			return true
		}
	}
	return false
}
