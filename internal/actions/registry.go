// Package actions is the editor's command table: symbolic action ids mapped
// to the callbacks that carry them out.
package actions

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Action ids used by toolbars and windows.
const (
	Render          = "a_render"
	AddListItem     = "a_add_list_item"
	DelListItem     = "a_del_list_item"
	Download        = "a_download"
	SaveFile        = "a_save_file"
	LoadFile        = "a_load_file"
	FullscreenEnter = "a_fullscreen_enter"
	FullscreenExit  = "a_fullscreen_exit"
)

// ErrUnknownAction is returned when invoking an id with no callbacks.
var ErrUnknownAction = errors.New("unknown action")

// Params carries an action's arguments, decoded from a JSON object.
type Params map[string]any

// String returns the string parameter key, or "" when absent or not a string.
func (p Params) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Int returns the integer parameter key. JSON numbers must be whole.
func (p Params) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}

// Bool returns the boolean parameter key, or false.
func (p Params) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

// Callback carries out an action.
type Callback func(ctx context.Context, params Params) error

// CallbackError wraps the failure of one callback.
type CallbackError struct {
	Action string
	Index  int // registration order within the action
	Err    error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("action %s: callback %d: %v", e.Action, e.Index, e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }

// Registry maps action ids to ordered callback lists.
type Registry struct {
	mu        sync.RWMutex
	callbacks map[string][]Callback
	log       *zap.Logger
}

// NewRegistry creates an empty registry. A nil logger disables logging.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		callbacks: make(map[string][]Callback),
		log:       log,
	}
}

// Register appends cb to the callbacks of id.
func (r *Registry) Register(id string, cb Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[id] = append(r.callbacks[id], cb)
}

// Has reports whether id has any callbacks.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.callbacks[id]) > 0
}

// Len returns the number of registered action ids.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.callbacks)
}

// Invoke runs every callback of id in registration order on the calling
// goroutine. A failing or panicking callback is logged and does not stop the
// others; all failures are returned joined.
func (r *Registry) Invoke(ctx context.Context, id string, params Params) error {
	r.mu.RLock()
	cbs := append([]Callback(nil), r.callbacks[id]...)
	r.mu.RUnlock()

	if len(cbs) == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownAction, id)
	}
	if params == nil {
		params = Params{}
	}

	var errs []error
	for i, cb := range cbs {
		if err := r.call(ctx, id, i, cb, params); err != nil {
			r.log.Error("action callback failed",
				zap.String("action", id),
				zap.Int("index", i),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) call(ctx context.Context, id string, i int, cb Callback, params Params) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &CallbackError{Action: id, Index: i, Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	if err := cb(ctx, params); err != nil {
		return &CallbackError{Action: id, Index: i, Err: err}
	}
	return nil
}
