package store

import "sync"

// hub fans committed snapshots out to subscribers.
//
// Each subscriber owns a channel with capacity 1. On publish, a stale
// undelivered snapshot is drained before the new one is pushed, so a slow
// consumer skips intermediate states but always converges to the latest.
// Deliveries within one subscription follow commit order because publishers
// run under the store's write path.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan Snapshot // collection -> subscriber id -> channel
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[int]chan Snapshot)}
}

// subscribe registers a stream for the collection and primes it with the
// current snapshot. The returned cancel func stops further deliveries and
// closes the channel; it is safe to call more than once.
func (h *hub) subscribe(collection string, current Snapshot) (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	ch <- cloneSnapshot(current)

	h.mu.Lock()
	id := h.next
	h.next++
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[int]chan Snapshot)
	}
	h.subs[collection][id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[collection], id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// publish delivers a snapshot to every subscriber of the collection.
// Each subscriber receives its own copy.
func (h *hub) publish(collection string, snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[collection] {
		// Drop the stale undelivered snapshot, if any. The channel has
		// capacity 1 and publishers are serialized by h.mu, so the send
		// below cannot block.
		select {
		case <-ch:
		default:
		}
		ch <- cloneSnapshot(snap)
	}
}
