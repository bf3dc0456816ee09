package realtime

import (
	"encoding/json"
	"testing"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()

	first := 0
	second := 0
	subFirst := bus.On("voteChanged", func(json.RawMessage) { first++ })
	subSecond := bus.On("voteChanged", func(json.RawMessage) { second++ })
	defer subFirst.Cancel()
	defer subSecond.Cancel()

	bus.Publish("voteChanged", json.RawMessage(`{}`))

	if first != 1 || second != 1 {
		t.Fatalf("expected both subscribers to fire once, got %d and %d", first, second)
	}
}

func TestBusCancelRemovesOnlyOwnHandler(t *testing.T) {
	bus := NewBus()

	first := 0
	second := 0
	subFirst := bus.On("answerAdded", func(json.RawMessage) { first++ })
	subSecond := bus.On("answerAdded", func(json.RawMessage) { second++ })

	subFirst.Cancel()
	bus.Publish("answerAdded", nil)

	if first != 0 {
		t.Fatalf("cancelled subscriber should not fire, fired %d times", first)
	}
	if second != 1 {
		t.Fatalf("remaining subscriber should fire once, fired %d times", second)
	}

	// Cancelling twice must be harmless.
	subFirst.Cancel()
	subSecond.Cancel()
	bus.Publish("answerAdded", nil)
	if second != 1 {
		t.Fatalf("subscriber fired after cancel")
	}
}

func TestBusDispatchPreservesDeliveryOrder(t *testing.T) {
	bus := NewBus()

	var seen []string
	sub := bus.On("viewsUpdated", func(data json.RawMessage) {
		seen = append(seen, string(data))
	})
	defer sub.Cancel()

	bus.Publish("viewsUpdated", json.RawMessage(`1`))
	bus.Publish("viewsUpdated", json.RawMessage(`2`))
	bus.Publish("viewsUpdated", json.RawMessage(`3`))

	if len(seen) != 3 || seen[0] != "1" || seen[1] != "2" || seen[2] != "3" {
		t.Fatalf("unexpected delivery order: %v", seen)
	}
}

func TestBusIgnoresUnrelatedEvents(t *testing.T) {
	bus := NewBus()

	fired := false
	sub := bus.On("commentAdded", func(json.RawMessage) { fired = true })
	defer sub.Cancel()

	bus.Publish("answerAdded", nil)

	if fired {
		t.Fatalf("handler fired for an event it never subscribed to")
	}
}

func TestBusRejectsNilHandler(t *testing.T) {
	bus := NewBus()
	sub := bus.On("voteChanged", nil)
	sub.Cancel()
	bus.Publish("voteChanged", nil)
}
