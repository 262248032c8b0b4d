package rest

import (
	"context"
	"fmt"
	"sync"
)

const subscriberBuffer = 32

// Event is one server-sent event: Name selects the element on the page, Data is its new content.
type Event struct {
	Name string
	Data string
}

// listener is one browser tab's queue of events.
type listener struct {
	ch        chan Event
	closeOnce sync.Once
}

func (that *listener) close() { that.closeOnce.Do(func() { close(that.ch) }) }

// Broadcaster is the render sink for browser tabs. Every rendered cell or status line becomes an
// Event pushed to the tabs subscribed to that session. A tab that falls behind is dropped.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[string]map[*listener]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[string]map[*listener]struct{}),
	}
}

func (that *Broadcaster) RenderCell(sessionID string, cell int, mark string) {
	that.publish(sessionID, Event{Name: cellEventName(cell), Data: mark})
}

func (that *Broadcaster) RenderStatus(sessionID string, status string) {
	that.publish(sessionID, Event{Name: statusEventName, Data: status})
}

// Subscribe registers a listener for sessionID until ctx is done or the returned func is called.
func (that *Broadcaster) Subscribe(ctx context.Context, sessionID string) (<-chan Event, func()) {
	sub := &listener{ch: make(chan Event, subscriberBuffer)}

	that.mu.Lock()
	set := that.subs[sessionID]
	if set == nil {
		set = make(map[*listener]struct{})
		that.subs[sessionID] = set
	}
	set[sub] = struct{}{}
	that.mu.Unlock()

	done := make(chan struct{})
	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			that.remove(sessionID, sub)
			sub.close()
			close(done)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			unsub()
		case <-done:
		}
	}()

	return sub.ch, unsub
}

func (that *Broadcaster) publish(sessionID string, event Event) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for sub := range that.subs[sessionID] {
		select {
		case sub.ch <- event:
		default:
			// drop slow subscriber
			sub.close()
			that.removeLocked(sessionID, sub)
		}
	}
}

func (that *Broadcaster) remove(sessionID string, sub *listener) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.removeLocked(sessionID, sub)
}

func (that *Broadcaster) removeLocked(sessionID string, sub *listener) {
	set, ok := that.subs[sessionID]
	if !ok {
		return
	}

	delete(set, sub)
	if len(set) == 0 {
		delete(that.subs, sessionID)
	}
}

const statusEventName = "status"

func cellEventName(cell int) string {
	return fmt.Sprintf("cell-%d", cell)
}
