package scene

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Store owns the live scene document. Every change replaces the root
// reference with a shallow copy (nested values are shared and may be mutated
// in place) and is published to all listeners.
//
// Listeners run while the document lock is held: they must not call Mutate,
// View, Snapshot or Subscribe on the same Store. Cancelling a subscription
// and Current are safe.
type Store struct {
	docMu sync.Mutex // serializes writers, publishes and consistent reads

	mu      sync.RWMutex // guards current and version
	current *Scene
	version uint64

	subs    subscribers
	factory ItemFactory
	log     *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithItemFactory sets the builder for elements appended by AddListItem.
func WithItemFactory(f ItemFactory) Option {
	return func(s *Store) { s.factory = f }
}

// WithLogger sets the store's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore creates a store seeded with doc, or with Default() when doc is nil.
func NewStore(doc *Scene, opts ...Option) *Store {
	if doc == nil {
		doc = Default()
	}
	s := &Store{
		current: doc,
		factory: builtinFactory{},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.subs.log = s.log
	return s
}

// Current returns the published document. Treat it as read-only; use
// Snapshot for a copy that later writes cannot reach.
func (s *Store) Current() *Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Version returns the number of publishes so far.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() *Scene {
	s.docMu.Lock()
	defer s.docMu.Unlock()
	return s.current.Clone()
}

// View runs fn with the current document while no writer can run.
func (s *Store) View(fn func(doc *Scene)) {
	s.docMu.Lock()
	defer s.docMu.Unlock()
	fn(s.current)
}

// Subscribe registers fn and immediately calls it with the current document.
// The returned cancel func is idempotent.
func (s *Store) Subscribe(fn Listener) (cancel func()) {
	s.docMu.Lock()
	defer s.docMu.Unlock()

	sub := s.subs.add(fn)
	s.subs.notify(sub, s.current, s.version)
	return func() { s.subs.remove(sub) }
}

// Listeners returns the number of active subscriptions.
func (s *Store) Listeners() int {
	return s.subs.len()
}

// Mutate runs fn on a shallow copy of the root and publishes the copy when fn
// reports a change. The read-modify-write is atomic with respect to every
// other writer of this store.
func (s *Store) Mutate(fn func(next *Scene) (changed bool, err error)) error {
	s.docMu.Lock()
	defer s.docMu.Unlock()

	next := s.current.shallowCopy()
	changed, err := fn(next)
	if err != nil || !changed {
		return err
	}
	s.commit(next)
	return nil
}

// Replace swaps the whole document, as done by load and import.
func (s *Store) Replace(doc *Scene) error {
	if doc == nil {
		return errors.New("scene: replace with nil document")
	}

	s.docMu.Lock()
	defer s.docMu.Unlock()

	s.commit(doc)
	s.log.Info("scene replaced",
		zap.Int("objects", len(doc.Objects)),
		zap.Int("materials", len(doc.Materials)),
	)
	return nil
}

// AddListItem appends a default-valued element to a list collection and
// returns its id.
//
// The id is len(collection)+1, not max(id)+1: after an out-of-order removal
// the next add can repeat an existing id.
func (s *Store) AddListItem(c Collection) (int, error) {
	var id int
	err := s.Mutate(func(next *Scene) (bool, error) {
		switch c {
		case Objects:
			obj, err := s.factory.NewObject()
			if err != nil {
				return false, fmt.Errorf("building default object: %w", err)
			}
			obj.ID = len(next.Objects) + 1
			next.Objects = append(next.Objects, obj)
			id = obj.ID
		case Materials:
			mat, err := s.factory.NewMaterial()
			if err != nil {
				return false, fmt.Errorf("building default material: %w", err)
			}
			mat.ID = len(next.Materials) + 1
			next.Materials = append(next.Materials, mat)
			id = mat.ID
		default:
			return false, listError(c)
		}
		return true, nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Debug("list item added", zap.String("collection", string(c)), zap.Int("id", id))
	return id, nil
}

// RemoveListItem removes the first element of c with the given id. It
// reports whether anything was removed; a missing id is not an error.
func (s *Store) RemoveListItem(c Collection, id int) (bool, error) {
	removed := false
	err := s.Mutate(func(next *Scene) (bool, error) {
		switch c {
		case Objects:
			if i := indexByID(next.Objects, id, func(o Object) int { return o.ID }); i >= 0 {
				next.Objects = without(next.Objects, i)
				removed = true
			}
		case Materials:
			if i := indexByID(next.Materials, id, func(m Material) int { return m.ID }); i >= 0 {
				next.Materials = without(next.Materials, i)
				removed = true
			}
		default:
			return false, listError(c)
		}
		return removed, nil
	})
	if err != nil {
		return false, err
	}

	if removed {
		s.log.Debug("list item removed", zap.String("collection", string(c)), zap.Int("id", id))
	} else {
		s.log.Debug("list item not found for removal", zap.String("collection", string(c)), zap.Int("id", id))
	}
	return removed, nil
}

// commit publishes doc. Callers hold docMu.
func (s *Store) commit(doc *Scene) {
	s.mu.Lock()
	s.current = doc
	s.version++
	v := s.version
	s.mu.Unlock()

	s.subs.publish(doc, v)
}

func listError(c Collection) error {
	if _, err := ParseCollection(string(c)); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrNotList, c)
}
