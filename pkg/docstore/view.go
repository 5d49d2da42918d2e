package docstore

import (
	"context"
	"log/slog"
	"sync"
)

// View is a live, continuously updated result. It is created holding the
// first snapshot and follows the store until Close or context cancellation.
type View[T any] struct {
	mu      sync.RWMutex
	value   T
	stale   bool
	err     error
	updates chan T
	cancel  context.CancelFunc
	done    chan struct{}
}

// CollectionView follows the result of a query.
type CollectionView = View[[]Document]

// DocumentView follows one document; Data returns nil while it is absent.
type DocumentView = View[*Document]

func newView[T any](initial T, cancel context.CancelFunc) *View[T] {
	return &View[T]{
		value:   initial,
		updates: make(chan T, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Data returns the most recent value.
func (v *View[T]) Data() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Stale reports whether Data may be out of date: the last delivery failed or
// the view has stopped following the store.
func (v *View[T]) Stale() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.stale
}

// Err returns the last delivery error, cleared by the next good snapshot.
func (v *View[T]) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

// Updates delivers each new value. Only the latest undelivered value is
// kept; the channel closes when the view stops.
func (v *View[T]) Updates() <-chan T {
	return v.updates
}

// Done is closed once the view has stopped.
func (v *View[T]) Done() <-chan struct{} {
	return v.done
}

// Close releases the subscription and waits for the view to stop.
func (v *View[T]) Close() {
	v.cancel()
	<-v.done
}

func (v *View[T]) follow(ch <-chan Snapshot[T], logger *slog.Logger) {
	defer func() {
		v.mu.Lock()
		v.stale = true
		v.mu.Unlock()
		close(v.updates)
		close(v.done)
	}()

	for snap := range ch {
		v.mu.Lock()
		if snap.Err != nil {
			v.stale = true
			v.err = snap.Err
			v.mu.Unlock()
			logger.Warn("live view delivery failed", "error", snap.Err)
			continue
		}
		v.value = snap.Value
		v.stale = false
		v.err = nil
		v.mu.Unlock()

		v.publish(snap.Value)
	}
}

func (v *View[T]) publish(value T) {
	select {
	case v.updates <- value:
		return
	default:
	}
	select {
	case <-v.updates:
	default:
	}
	select {
	case v.updates <- value:
	default:
	}
}

// open blocks until the first snapshot arrives on ch, then returns a view
// that follows the rest of the stream.
func open[T any](ctx context.Context, ch <-chan Snapshot[T], cancel context.CancelFunc, logger *slog.Logger) (*View[T], error) {
	select {
	case snap, ok := <-ch:
		if !ok {
			cancel()
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, ErrTransient
		}
		if snap.Err != nil {
			cancel()
			go drain(ch)
			return nil, snap.Err
		}
		v := newView(snap.Value, cancel)
		go v.follow(ch, logger)
		return v, nil
	case <-ctx.Done():
		cancel()
		go drain(ch)
		return nil, ctx.Err()
	}
}

func drain[T any](ch <-chan Snapshot[T]) {
	for range ch {
	}
}
