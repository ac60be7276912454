package event

import "testing"

func TestEmitDeliversAfterSwap(t *testing.T) {
	b := NewBus()
	var got []AgentAdded
	Subscribe(b, func(ev AgentAdded) { got = append(got, ev) })

	Emit(b, AgentAdded{ID: 1, Step: 0})
	b.DispatchAll()
	if len(got) != 0 {
		t.Fatalf("event delivered before buffer swap: %v", got)
	}

	b.SwapBuffers()
	b.DispatchAll()
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("after swap got %v, want one AgentAdded{ID:1}", got)
	}
}

func TestDispatchIsTyped(t *testing.T) {
	b := NewBus()
	var added, removed int
	Subscribe(b, func(AgentAdded) { added++ })
	Subscribe(b, func(AgentRemoved) { removed++ })

	Emit(b, AgentAdded{ID: 1})
	Emit(b, AgentAdded{ID: 2})
	Emit(b, AgentRemoved{ID: 1})
	b.SwapBuffers()
	b.DispatchAll()

	if added != 2 || removed != 1 {
		t.Fatalf("handlers saw added=%d removed=%d, want 2 and 1", added, removed)
	}
}

func TestEventsDeliveredExactlyOnce(t *testing.T) {
	b := NewBus()
	var n int
	Subscribe(b, func(StepCompleted) { n++ })

	Emit(b, StepCompleted{Step: 1})
	b.SwapBuffers()
	b.DispatchAll()
	b.SwapBuffers()
	b.DispatchAll()

	if n != 1 {
		t.Fatalf("event delivered %d times, want 1", n)
	}
}

func TestClearDropsBufferedEvents(t *testing.T) {
	b := NewBus()
	var n int
	Subscribe(b, func(StepCompleted) { n++ })

	Emit(b, StepCompleted{Step: 1})
	b.Clear()
	b.SwapBuffers()
	b.DispatchAll()

	if n != 0 {
		t.Fatalf("cleared event still delivered %d times", n)
	}
}
