package api

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/cory-johannsen/battlesim/internal/game/battle"
)

// ErrBattleNotFound is returned when an ID names no live battle.
var ErrBattleNotFound = errors.New("battle not found")

// subscriberBuffer bounds how many snapshots a slow stream may fall behind
// before intermediate updates to it are dropped. The concluding snapshot is
// never dropped.
const subscriberBuffer = 8

// Entry is one live battle plus its stream subscribers. All access to the
// battle goes through the entry's mutex.
type Entry struct {
	mu     sync.Mutex
	battle *battle.Battle
	subs   map[chan battle.Snapshot]struct{}
	// concluded is set once the concluding snapshot has been delivered and
	// every subscriber closed.
	concluded bool
	closed    bool
}

// ID returns the battle's session ID.
func (e *Entry) ID() uuid.UUID { return e.battle.ID() }

// Snapshot returns the battle's current state.
func (e *Entry) Snapshot() battle.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.battle.Snapshot()
}

// Submit applies one intent under the entry lock and publishes the resulting
// snapshot to every subscriber.
//
// Postcondition: On error the battle is unchanged and nothing is published.
func (e *Entry) Submit(ctx context.Context, in battle.Intent) ([]battle.Event, battle.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, battle.Snapshot{}, fmt.Errorf("%s: %w", e.battle.ID(), ErrBattleNotFound)
	}
	events, err := e.battle.Submit(ctx, in)
	if err != nil {
		return nil, battle.Snapshot{}, err
	}
	snap := e.battle.Snapshot()
	if snap.Phase == battle.PhaseConcluded {
		e.conclude(snap)
		return events, snap, nil
	}
	for ch := range e.subs {
		select {
		case ch <- snap:
		default:
		}
	}
	return events, snap, nil
}

// conclude delivers the final snapshot to every subscriber, evicting the
// oldest buffered snapshot when a buffer is full, then closes the channels.
// Callers hold e.mu, so Submit is the only sender.
func (e *Entry) conclude(snap battle.Snapshot) {
	for ch := range e.subs {
		deliverFinal(ch, snap)
		delete(e.subs, ch)
		close(ch)
	}
	e.concluded = true
}

func deliverFinal(ch chan battle.Snapshot, snap battle.Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Subscribe registers a stream. The channel receives a snapshot after every
// accepted intent. It is closed right after the concluding snapshot, or when
// the battle is removed. Subscribing to a concluded battle yields only the
// final snapshot. The returned function unsubscribes.
func (e *Entry) Subscribe() (<-chan battle.Snapshot, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := make(chan battle.Snapshot, subscriberBuffer)
	if e.closed {
		close(ch)
		return ch, func() {}
	}
	if e.concluded {
		ch <- e.battle.Snapshot()
		close(ch)
		return ch, func() {}
	}
	e.subs[ch] = struct{}{}
	return ch, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, ok := e.subs[ch]; ok {
			delete(e.subs, ch)
			close(ch)
		}
	}
}

func (e *Entry) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	for ch := range e.subs {
		delete(e.subs, ch)
		close(ch)
	}
}

// Registry holds every live battle keyed by session ID.
type Registry struct {
	mu      sync.RWMutex
	battles map[uuid.UUID]*Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{battles: make(map[uuid.UUID]*Entry)}
}

// Add registers b and returns its entry.
//
// Precondition: b must be non-nil and not already registered.
func (r *Registry) Add(b *battle.Battle) *Entry {
	e := &Entry{battle: b, subs: make(map[chan battle.Snapshot]struct{})}
	r.mu.Lock()
	r.battles[b.ID()] = e
	r.mu.Unlock()
	return e
}

// Get returns the entry for id.
func (r *Registry) Get(id uuid.UUID) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.battles[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrBattleNotFound)
	}
	return e, nil
}

// Remove drops the battle and closes its subscriber streams.
func (r *Registry) Remove(id uuid.UUID) error {
	r.mu.Lock()
	e, ok := r.battles[id]
	delete(r.battles, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrBattleNotFound)
	}
	e.close()
	return nil
}

// Len returns the number of live battles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.battles)
}
