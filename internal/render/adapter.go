package render

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/webray-editor/internal/scene"
)

// Snapshotter supplies point-in-time copies of the scene document.
type Snapshotter interface {
	Snapshot() *scene.Scene
}

// Result is delivered once per Render call.
type Result struct {
	Job    uuid.UUID
	Output Output
	Err    error
}

// StateListener observes kernel state transitions.
type StateListener func(state KernelState, job uuid.UUID)

type stateSub struct {
	id int
	fn StateListener
}

// Adapter drives the engine and owns the kernel state.
type Adapter struct {
	source Snapshotter
	engine Engine
	log    *zap.Logger

	// notifyMu orders transitions and their deliveries.
	notifyMu sync.Mutex

	mu        sync.Mutex
	state     KernelState
	job       uuid.UUID
	output    *Output
	nextID    int
	listeners []stateSub
}

// NewAdapter creates an adapter in the INITIAL state. A nil logger disables
// logging.
func NewAdapter(source Snapshotter, engine Engine, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{
		source: source,
		engine: engine,
		log:    log,
	}
}

// State returns the current kernel state.
func (a *Adapter) State() KernelState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Job returns the id of the most recent render, or uuid.Nil before the first.
func (a *Adapter) Job() uuid.UUID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.job
}

// Output returns the image of the last successful render.
func (a *Adapter) Output() (Output, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.output == nil {
		return Output{}, false
	}
	return *a.output, true
}

// Finished returns the output together with the state check: ok is true
// only while the kernel is DONE.
func (a *Adapter) Finished() (Output, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Done || a.output == nil {
		return Output{}, false
	}
	return *a.output, true
}

// OnStateChange registers fn for every later transition. Listeners are called
// in registration order, one transition at a time, and must not call Render.
func (a *Adapter) OnStateChange(fn StateListener) (cancel func()) {
	a.mu.Lock()
	a.nextID++
	id := a.nextID
	a.listeners = append(a.listeners, stateSub{id: id, fn: fn})
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		a.listeners = slices.DeleteFunc(a.listeners, func(s stateSub) bool { return s.id == id })
		a.mu.Unlock()
	}
}

// Render snapshots the scene, switches the kernel to RENDERING and runs the
// engine in the background. The returned channel receives exactly one Result.
//
// Only the most recent job may move the kernel to DONE. A failed or cancelled
// job leaves the state at RENDERING.
func (a *Adapter) Render(ctx context.Context) <-chan Result {
	snap := a.source.Snapshot()
	job := uuid.New()

	a.transition(job, Rendering, nil)
	a.log.Info("render started", zap.Stringer("job", job))

	out := make(chan Result, 1)
	go func() {
		defer close(out)

		img, err := a.engine.Render(ctx, snap)
		if err != nil {
			a.log.Error("render failed", zap.Stringer("job", job), zap.Error(err))
			out <- Result{Job: job, Err: err}
			return
		}

		if a.transition(job, Done, &img) {
			a.log.Info("render done",
				zap.Stringer("job", job),
				zap.Int("bytes", len(img.Image)),
				zap.Duration("elapsed", img.Elapsed),
			)
		} else {
			a.log.Debug("stale render result dropped", zap.Stringer("job", job))
		}
		out <- Result{Job: job, Output: img}
	}()
	return out
}

func (a *Adapter) transition(job uuid.UUID, state KernelState, img *Output) bool {
	a.notifyMu.Lock()
	defer a.notifyMu.Unlock()

	a.mu.Lock()
	if state == Rendering {
		a.job = job
	} else if a.job != job {
		a.mu.Unlock()
		return false
	}
	a.state = state
	if img != nil {
		a.output = img
	}
	listeners := slices.Clone(a.listeners)
	a.mu.Unlock()

	for _, l := range listeners {
		l.fn(state, job)
	}
	return true
}
