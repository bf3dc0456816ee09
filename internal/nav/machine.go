// Package nav tracks which application view is active and the shared
// navigation parameters, and produces the configuration each view needs.
// The active view is a tagged variant over a closed set of kinds; transitions
// replace it directly, so there is no history stack and "back" does not exist
// at this layer.
package nav

import (
	"sync"

	"github.com/PavanKumar06/stackoverflow-client/internal/forum"
)

// ViewKind enumerates the navigable application states.
type ViewKind string

const (
	// ViewQuestions is the home question list, plain or tag-filtered.
	ViewQuestions ViewKind = "questions"
	// ViewTags lists all tags.
	ViewTags ViewKind = "tags"
	// ViewDetail shows one question with its answers.
	ViewDetail ViewKind = "detail"
	// ViewNewQuestion is the new-question composer.
	ViewNewQuestion ViewKind = "newQuestion"
	// ViewNewAnswer is the new-answer composer for the selected question.
	ViewNewAnswer ViewKind = "newAnswer"
)

const (
	allQuestionsTitle  = "All Questions"
	searchResultsTitle = "Search Results"
)

// Page is the configuration handed to the active view: the view kind, copies
// of the shared parameters, and bound transition functions so the view can
// itself trigger further navigation. Every transition builds a fresh Page, so
// a view never observes a stale closure over an old search string or order.
type Page struct {
	Kind       ViewKind
	Search     string
	Title      string
	Order      forum.Order
	QuestionID string

	ToQuestions   func()
	ToTags        func()
	ToAnswer      func(questionID string)
	ToTag         func(tagName string)
	ToNewQuestion func()
	ToNewAnswer   func()
	Submit        func(query string)
	SetOrder      func(order forum.Order)
}

// Machine owns the active view and the shared parameter bag for the lifetime
// of the session. Exactly one view is active at a time.
type Machine struct {
	mu         sync.Mutex
	kind       ViewKind
	search     string
	title      string
	order      forum.Order
	questionID string
}

// NewMachine starts at the question list with an empty search filter.
func NewMachine() *Machine {
	return &Machine{
		kind:  ViewQuestions,
		title: allQuestionsTitle,
		order: forum.OrderNewest,
	}
}

// Page returns the configuration for the currently active view.
func (m *Machine) Page() Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pageLocked()
}

// ToQuestions resets the search filter to the empty "All Questions"
// configuration and activates the question list.
func (m *Machine) ToQuestions() Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kind = ViewQuestions
	m.search = ""
	m.title = allQuestionsTitle
	return m.pageLocked()
}

// ToTags activates the tag list with the current title unchanged.
func (m *Machine) ToTags() Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kind = ViewTags
	return m.pageLocked()
}

// ToAnswer stores the selection and activates the question detail view.
func (m *Machine) ToAnswer(questionID string) Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kind = ViewDetail
	m.questionID = questionID
	return m.pageLocked()
}

// ToTag re-enters the question list filtered to the named tag. This is a
// filtered entry into the list state, not a distinct state.
func (m *Machine) ToTag(tagName string) Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kind = ViewQuestions
	m.search = forum.TagQuery(tagName)
	m.title = tagName
	return m.pageLocked()
}

// ToNewQuestion activates the new-question composer.
func (m *Machine) ToNewQuestion() Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kind = ViewNewQuestion
	return m.pageLocked()
}

// ToNewAnswer activates the new-answer composer. The composer implicitly
// targets the currently selected question id, which is retained across
// transitions even when navigating away from the detail view.
func (m *Machine) ToNewAnswer() Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kind = ViewNewAnswer
	return m.pageLocked()
}

// Submit applies a free-text search and re-enters the question list.
func (m *Machine) Submit(query string) Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kind = ViewQuestions
	m.search = query
	m.title = searchResultsTitle
	return m.pageLocked()
}

// SetOrder changes the ordering criterion used when the list next requests
// data. It never changes the active view kind.
func (m *Machine) SetOrder(order forum.Order) Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order = order
	return m.pageLocked()
}

func (m *Machine) pageLocked() Page {
	return Page{
		Kind:       m.kind,
		Search:     m.search,
		Title:      m.title,
		Order:      m.order,
		QuestionID: m.questionID,

		ToQuestions:   func() { m.ToQuestions() },
		ToTags:        func() { m.ToTags() },
		ToAnswer:      func(questionID string) { m.ToAnswer(questionID) },
		ToTag:         func(tagName string) { m.ToTag(tagName) },
		ToNewQuestion: func() { m.ToNewQuestion() },
		ToNewAnswer:   func() { m.ToNewAnswer() },
		Submit:        func(query string) { m.Submit(query) },
		SetOrder:      func(order forum.Order) { m.SetOrder(order) },
	}
}
