package termhost

import (
	"context"
	"sync"

	"github.com/taigrr/orbitview/pkg/viewer"
)

const subscriberBuffer = 64

// hub fans events out to subscribers.
type hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan viewer.Event
}

func newHub() *hub {
	return &hub{subs: make(map[int]chan viewer.Event)}
}

// subscribe registers a subscriber. The returned func removes it and
// closes its channel; calling it again does nothing.
func (h *hub) subscribe() (<-chan viewer.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan viewer.Event, subscriberBuffer)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(ch)
			}
		})
	}
}

// publish delivers ev to every subscriber. Input events are dropped for a
// subscriber whose buffer is full; resize events wait for room unless ctx
// ends first. It returns how many subscribers got the event.
func (h *hub) publish(ctx context.Context, ev viewer.Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, mustDeliver := ev.(viewer.ResizeEvent)
	n := 0
	for _, ch := range h.subs {
		if mustDeliver {
			select {
			case ch <- ev:
				n++
			case <-ctx.Done():
			}
			continue
		}
		select {
		case ch <- ev:
			n++
		default:
		}
	}
	return n
}

// closeAll removes every subscriber.
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
