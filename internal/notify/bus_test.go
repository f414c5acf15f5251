package notify

import "testing"

func TestPublishFansOut(t *testing.T) {
	bus := NewBus()
	ch1, unsub1 := bus.Subscribe()
	ch2, unsub2 := bus.Subscribe()
	defer unsub1()
	defer unsub2()

	bus.Publish(Event{Recinto: "CCCI", Coleccion: ColeccionRevisiones})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case evt := <-ch:
			if evt.Recinto != "CCCI" {
				t.Errorf("Subscriber %d got %+v", i, evt)
			}
		default:
			t.Errorf("Subscriber %d missed the event", i)
		}
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe()
	unsub()

	// Publishing after unsubscribe must not panic on the closed channel
	bus.Publish(Event{Recinto: "CCCI", Coleccion: ColeccionRevisiones})

	if _, ok := <-ch; ok {
		t.Error("Channel should be closed after unsubscribe")
	}

	// Double unsubscribe is a no-op
	unsub()
}

func TestSlowSubscriberIsSkipped(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe()
	defer unsub()

	// Fill the buffer past capacity; extra events are dropped, not blocking
	for i := 0; i < 50; i++ {
		bus.Publish(Event{Recinto: "CCCI", Coleccion: ColeccionRevisiones})
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
			continue
		default:
		}
		break
	}
	if received == 0 || received > 16 {
		t.Errorf("Expected 1..16 buffered events, got %d", received)
	}
}
