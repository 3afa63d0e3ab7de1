package core

import "context"

// Hub fans out events to the live-feed clients of each user.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	publish    chan *Event
	done       chan struct{}

	feeds map[string]*feed
}

// NewHub creates a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan *Event, 64),
		done:       make(chan struct{}),
		feeds:      make(map[string]*feed),
	}
}

// Run processes registrations and events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			f, ok := h.feeds[c.Username]
			if !ok {
				f = newFeed()
				h.feeds[c.Username] = f
			}
			f.add(c)
		case c := <-h.unregister:
			f, ok := h.feeds[c.Username]
			if !ok || !f.remove(c) {
				continue
			}
			close(c.Events)
			if f.empty() {
				delete(h.feeds, c.Username)
			}
		case ev := <-h.publish:
			if f, ok := h.feeds[ev.User]; ok {
				f.broadcast(ev)
			}
		}
	}
}

// RegisterClient subscribes c to events addressed to c.Username.
// It returns false once the hub has stopped.
func (h *Hub) RegisterClient(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// UnregisterClient removes c and closes its event channel.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues ev for delivery. Delivery is best-effort: the event is
// dropped when the hub is stopped or its queue is full.
func (h *Hub) Publish(ev *Event) {
	select {
	case h.publish <- ev:
	case <-h.done:
	default:
	}
}

func (h *Hub) closeAll() {
	for user, f := range h.feeds {
		for c := range f.clients {
			close(c.Events)
		}
		delete(h.feeds, user)
	}
}

// feed groups the clients connected as the same user.
type feed struct {
	clients map[*Client]struct{}
}

func newFeed() *feed {
	return &feed{clients: make(map[*Client]struct{})}
}

func (f *feed) add(c *Client) {
	f.clients[c] = struct{}{}
}

func (f *feed) remove(c *Client) bool {
	if _, exists := f.clients[c]; !exists {
		return false
	}
	delete(f.clients, c)
	return true
}

func (f *feed) broadcast(ev *Event) {
	for c := range f.clients {
		select {
		case c.Events <- ev:
		default:
			// Drop if slow consumer.
		}
	}
}

func (f *feed) empty() bool {
	return len(f.clients) == 0
}
