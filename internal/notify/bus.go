package notify

import "sync"

// Collections announced on the bus
const (
	ColeccionRevisiones = "revisiones"
)

// Event announces that a collection changed inside one recinto's store.
// It carries no diff; consumers reload and filter, mirroring the
// whole-collection push model of the record store.
type Event struct {
	Recinto   string `json:"recinto"`
	Coleccion string `json:"coleccion"`
}

// Bus is the single shared change signal injected into every producer and
// consumer. It replaces prop threading and ad-hoc global events: the
// revision engine publishes, the websocket hub (and anything else) listens.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]chan Event
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a listener. The returned function removes it.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	ch := make(chan Event, 16)
	b.subs[id] = ch
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		if ch, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, unsubscribe
}

// Publish fans the event out to every subscriber. A subscriber that has
// fallen behind misses the event; the next one triggers its reload anyway.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}
