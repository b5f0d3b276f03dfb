package core

import "testing"

func TestSubscribePublishTyped(t *testing.T) {
	bus := NewEventBus()

	var got []WindowResized
	Subscribe(bus, func(e WindowResized) bool {
		got = append(got, e)
		return false
	})
	keys := 0
	Subscribe(bus, func(e KeyPressed) bool {
		keys++
		return false
	})

	Publish(bus, WindowResized{Width: 640, Height: 480})
	Publish(bus, WindowResized{Width: 0, Height: 0})

	if len(got) != 2 {
		t.Fatalf("expected 2 resize events, got %d", len(got))
	}
	if got[0] != (WindowResized{640, 480}) || got[1] != (WindowResized{0, 0}) {
		t.Errorf("unexpected events: %+v", got)
	}
	if keys != 0 {
		t.Errorf("key handler saw %d events, want 0", keys)
	}
}

func TestPublishStopsWhenHandled(t *testing.T) {
	bus := NewEventBus()
	calls := []int{}
	Subscribe(bus, func(ApplicationQuit) bool { calls = append(calls, 1); return true })
	Subscribe(bus, func(ApplicationQuit) bool { calls = append(calls, 2); return false })

	if !Publish(bus, ApplicationQuit{}) {
		t.Fatal("expected event to be reported as handled")
	}
	if len(calls) != 1 || calls[0] != 1 {
		t.Errorf("calls = %v, want [1]", calls)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	n := 0
	unsubscribe := Subscribe(bus, func(MouseMoved) bool { n++; return false })

	Publish(bus, MouseMoved{X: 1, Y: 2})
	unsubscribe()
	unsubscribe()
	Publish(bus, MouseMoved{X: 3, Y: 4})

	if n != 1 {
		t.Errorf("handler called %d times, want 1", n)
	}
}

func TestInputStatePublishesOnChangeOnly(t *testing.T) {
	bus := NewEventBus()
	in := NewInputState(bus)
	pressed := 0
	Subscribe(bus, func(e KeyPressed) bool {
		if e.Key != KEY_W {
			t.Errorf("unexpected key %v", e.Key)
		}
		pressed++
		return false
	})

	in.ProcessKey(KEY_W, true)
	in.ProcessKey(KEY_W, true)
	if pressed != 1 {
		t.Fatalf("pressed = %d, want 1", pressed)
	}
	if !in.IsKeyDown(KEY_W) || in.WasKeyDown(KEY_W) {
		t.Fatal("unexpected key state before update")
	}
	in.Update()
	if !in.WasKeyDown(KEY_W) {
		t.Error("previous state not rolled over")
	}
}
