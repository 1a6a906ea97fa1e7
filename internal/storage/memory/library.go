// Package memory is an in-process scene library.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/Faultbox/webray-editor/internal/storage"
)

// Library keeps scenes in a map. Stored data is copied on the way in and out.
type Library struct {
	data map[string][]byte
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{
		data: make(map[string][]byte),
	}
}

func (l *Library) Put(_ context.Context, name string, data []byte) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data[name] = slices.Clone(data)
	return nil
}

func (l *Library) Get(_ context.Context, name string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, ok := l.data[name]
	if !ok {
		l.misses++
		return nil, storage.ErrNotFound
	}
	l.hits++
	return slices.Clone(data), nil
}

func (l *Library) List(_ context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.data))
	for name := range l.data {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Clear removes every scene and resets the stats.
func (l *Library) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data = make(map[string][]byte)
	l.hits = 0
	l.misses = 0
}

// Stats returns lookup statistics.
func (l *Library) Stats() (hits, misses int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.hits, l.misses
}

var _ storage.Library = (*Library)(nil)
