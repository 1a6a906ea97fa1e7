package binding

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/webray-editor/internal/scene"
	"github.com/Faultbox/webray-editor/pkg/pathx"
)

// Value is one reading of a bound field. A field whose element was deleted
// and a field whose property does not exist both read as undefined; Lookup
// tells them apart for diagnostics.
type Value struct {
	// V may alias the live document. JSON() is a copy taken at read time.
	V      any
	Lookup pathx.Lookup
	raw    json.RawMessage
}

// Defined reports whether the field currently has a value.
func (v Value) Defined() bool { return v.Lookup == pathx.Found }

// JSON returns the encoded value, or "null" when undefined.
func (v Value) JSON() json.RawMessage {
	if v.raw == nil {
		return json.RawMessage("null")
	}
	return v.raw
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value   json.RawMessage `json:"value"`
		Defined bool            `json:"defined"`
	}{v.JSON(), v.Defined()})
}

func (v Value) same(other Value) bool {
	return v.Lookup == other.Lookup && bytes.Equal(v.raw, other.raw)
}

// Field is a live two-way handle on one property of the scene document. It
// holds no state besides the store and its resolved path; dropping it is
// enough to release it once its subscriptions are cancelled.
type Field struct {
	store    *scene.Store
	path     BindPath
	property pathx.Path
	log      *zap.Logger
}

// Path returns the binding path the field was resolved from.
func (f *Field) Path() BindPath { return f.path }

// Property returns the property path inside the bound collection or element.
func (f *Field) Property() string { return f.property.String() }

// Get reads the current value.
func (f *Field) Get() Value {
	var v Value
	f.store.View(func(doc *scene.Scene) {
		v = f.eval(doc)
	})
	f.diagnose(v)
	return v
}

// Subscribe calls fn with the current value and again whenever a publish
// changes it. Publishes that leave the value unchanged are not delivered.
func (f *Field) Subscribe(fn func(Value)) (cancel func()) {
	var (
		last      Value
		delivered bool
	)
	return f.store.Subscribe(func(doc *scene.Scene, _ uint64) {
		v := f.eval(doc)
		if delivered && v.same(last) {
			return
		}
		delivered, last = true, v
		f.diagnose(v)
		fn(v)
	})
}

// Watch streams values until ctx ends, then closes the channel. The stream
// keeps only the latest value for a slow reader.
func (f *Field) Watch(ctx context.Context) <-chan Value {
	out := make(chan Value, 1)
	var (
		mu     sync.Mutex
		closed bool
	)

	cancel := f.Subscribe(func(v Value) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case <-out:
		default:
		}
		out <- v
	})

	go func() {
		<-ctx.Done()
		cancel()
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()
	return out
}

// Set writes value. Writing to a deleted element does nothing.
func (f *Field) Set(value any) error {
	return f.write(func(any) any { return value })
}

// Update replaces the value with fn(current) as one atomic read-modify-write.
func (f *Field) Update(fn func(old any) any) error {
	return f.write(fn)
}

func (f *Field) write(fn func(old any) any) error {
	missing := false
	err := f.store.Mutate(func(next *scene.Scene) (bool, error) {
		container := next.Field(f.path.Collection)

		if f.path.HasID {
			old, lk := pathx.GetByID(container, f.path.ID, f.property)
			if lk == pathx.ElementMissing {
				missing = true
				return false, nil
			}
			if _, err := pathx.SetByID(container, f.path.ID, f.property, fn(old)); err != nil {
				return false, err
			}
			return true, nil
		}

		old, _ := pathx.Get(container, f.property)
		if err := pathx.Set(container, f.property, fn(old)); err != nil {
			return false, err
		}
		return true, nil
	})

	if missing {
		f.log.Debug("write to missing element ignored",
			zap.String("path", f.path.String()),
			zap.String("property", f.Property()),
		)
	}
	if err != nil {
		f.log.Warn("binding write failed",
			zap.String("path", f.path.String()),
			zap.String("property", f.Property()),
			zap.Error(err),
		)
	}
	return err
}

func (f *Field) eval(doc *scene.Scene) Value {
	container := doc.Field(f.path.Collection)

	var v Value
	if f.path.HasID {
		v.V, v.Lookup = pathx.GetByID(container, f.path.ID, f.property)
	} else if got, ok := pathx.Get(container, f.property); ok {
		v.V, v.Lookup = got, pathx.Found
	} else {
		v.Lookup = pathx.PropertyMissing
	}

	if v.Defined() {
		raw, err := json.Marshal(v.V)
		if err != nil {
			f.log.Warn("bound value not encodable", zap.String("path", f.path.String()), zap.Error(err))
		} else {
			v.raw = raw
		}
	}
	return v
}

func (f *Field) diagnose(v Value) {
	if v.Defined() {
		return
	}
	f.log.Debug("bound field undefined",
		zap.String("path", f.path.String()),
		zap.String("property", f.Property()),
		zap.Stringer("reason", v.Lookup),
	)
}
