package scene

import (
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Listener receives every published document together with its version.
type Listener func(doc *Scene, version uint64)

type subscription struct {
	id     uint64
	fn     Listener
	active atomic.Bool
}

// subscribers is the ordered listener list. Removal only takes mu, so a
// listener may cancel itself (or others) while being notified.
type subscribers struct {
	mu   sync.Mutex
	next uint64
	list []*subscription
	log  *zap.Logger
}

func (s *subscribers) add(fn Listener) *subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	sub := &subscription{id: s.next, fn: fn}
	sub.active.Store(true)
	s.list = append(s.list, sub)
	return sub
}

func (s *subscribers) remove(sub *subscription) {
	if !sub.active.Swap(false) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = slices.DeleteFunc(s.list, func(x *subscription) bool { return x.id == sub.id })
}

func (s *subscribers) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.list)
}

// publish notifies listeners in subscription order. A panicking listener is
// logged and skipped; the rest are still notified.
func (s *subscribers) publish(doc *Scene, version uint64) {
	s.mu.Lock()
	list := slices.Clone(s.list)
	s.mu.Unlock()

	for _, sub := range list {
		if sub.active.Load() {
			s.notify(sub, doc, version)
		}
	}
}

func (s *subscribers) notify(sub *subscription, doc *Scene, version uint64) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scene listener panicked",
				zap.Uint64("subscription", sub.id),
				zap.Uint64("version", version),
				zap.Any("panic", r),
			)
		}
	}()
	sub.fn(doc, version)
}
