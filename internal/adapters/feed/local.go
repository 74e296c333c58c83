// Package feed carries change notifications from committed writes to live
// subscribers, either inside one process or across instances through Redis.
package feed

import (
	"context"
	"sync"

	"eventlottery/internal/domain"
)

// Local is an in-process ChangeFeed. Each subscriber holds at most one pending
// change; further changes coalesce into it until the subscriber drains it.
type Local struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.ChangeEvent]struct{}
}

func NewLocal() *Local {
	return &Local{subs: make(map[string]map[chan domain.ChangeEvent]struct{})}
}

func (l *Local) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.subs[ev.EventID] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (l *Local) Subscribe(ctx context.Context, eventID string) (<-chan domain.ChangeEvent, error) {
	ch := make(chan domain.ChangeEvent, 1)
	l.mu.Lock()
	if l.subs[eventID] == nil {
		l.subs[eventID] = make(map[chan domain.ChangeEvent]struct{})
	}
	l.subs[eventID][ch] = struct{}{}
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		delete(l.subs[eventID], ch)
		if len(l.subs[eventID]) == 0 {
			delete(l.subs, eventID)
		}
		l.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// Subscribers reports the live subscriber count for an event.
func (l *Local) Subscribers(eventID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs[eventID])
}
