package store

import (
	"context"
	"time"

	"github.com/roach88/freight/internal/cargo"
)

// enqueue merges delta into the batch and the volatile cargo. Batched
// stores start the flush timer on the first delta; batchless stores flush
// before returning.
func (s *Store) enqueue(delta cargo.Cargo) {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return
	}

	if s.batchTime > 0 && s.timer == nil {
		s.timerGen++
		gen := s.timerGen
		s.timer = time.AfterFunc(s.batchTime, func() { s.onTimer(gen) })
	}
	s.batch = s.mode.Merge(s.batch, delta)
	s.volatile = s.mode.Merge(s.volatile, s.batch)

	if s.batchTime > 0 {
		s.mu.Unlock()
		return
	}
	s.flushLocked()
	s.mu.Unlock()
	s.drain()
}

// onTimer flushes the batch started under generation gen. A timer that
// was stopped after it already fired finds a newer generation and exits.
func (s *Store) onTimer(gen uint64) {
	s.mu.Lock()
	if !s.connected || s.timer == nil || gen != s.timerGen {
		s.mu.Unlock()
		return
	}
	s.flushLocked()
	s.mu.Unlock()
	s.drain()
}

// Flush commits the pending batch now instead of waiting for the timer.
// Returns false when nothing was pending.
func (s *Store) Flush() bool {
	s.mu.Lock()
	if !s.connected || s.timer == nil {
		s.mu.Unlock()
		return false
	}
	s.flushLocked()
	s.mu.Unlock()
	s.drain()
	return true
}

// Pending reports whether a batch is waiting to be flushed.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil || len(s.batch) > 0
}

// flushLocked commits the volatile cargo and queues the broadcast.
// Must be called with s.mu held.
func (s *Store) flushLocked() {
	s.stopTimerLocked()
	s.cargo = s.volatile
	s.batch = cargo.Cargo{}
	s.pending = append(s.pending, Emission{
		Store: s.name,
		Seq:   s.clock.Next(),
		Cargo: s.cargo,
	})
}

// stopTimerLocked cancels the flush timer. Must be called with s.mu held.
func (s *Store) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
		s.timerGen++
	}
}

// drain delivers queued emissions in order. Only one goroutine drains at a
// time; emissions queued by a listener are delivered by the same loop after
// the current one, so a listener may re-enter the store.
func (s *Store) drain() {
	s.mu.Lock()
	if s.dispatching {
		s.mu.Unlock()
		return
	}
	s.dispatching = true

	for len(s.pending) > 0 {
		em := s.pending[0]
		s.pending = s.pending[1:]
		listeners := make([]Listener, len(s.subs))
		for i, sub := range s.subs {
			listeners[i] = sub.fn
		}
		s.mu.Unlock()

		s.deliver(em, listeners)

		s.mu.Lock()
	}

	s.dispatching = false
	s.mu.Unlock()
}

// deliver records em and hands each listener its own copy of the cargo.
func (s *Store) deliver(em Emission, listeners []Listener) {
	if s.recorder != nil {
		if err := s.recorder.Record(context.Background(), em); err != nil {
			s.logger.Error("failed to record emission",
				"store", em.Store,
				"seq", em.Seq,
				"error", err,
			)
		}
	}
	s.debugLog("new cargo", "seq", em.Seq, "cargo", em.Cargo)

	for _, l := range listeners {
		l(em.Cargo.Clone())
	}
}
