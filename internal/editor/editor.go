// Package editor wires the scene document, bindings, actions and the render
// kernel into one editor session.
package editor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/webray-editor/internal/actions"
	"github.com/Faultbox/webray-editor/internal/binding"
	"github.com/Faultbox/webray-editor/internal/render"
	"github.com/Faultbox/webray-editor/internal/scene"
	"github.com/Faultbox/webray-editor/internal/schema"
	"github.com/Faultbox/webray-editor/internal/storage"
)

// ViewMode is how the output image is presented.
type ViewMode string

const (
	Windowed   ViewMode = "windowed"
	Fullscreen ViewMode = "fullscreen"
)

// Config holds editor session settings.
type Config struct {
	// Doc seeds the session. Nil means the built-in default scene.
	Doc    *scene.Scene
	Engine render.Engine
	// RenderTimeout bounds one engine call. Zero means no limit.
	RenderTimeout time.Duration
	Schema        *schema.Schema
	Library       storage.Library
	// SaveFile and DownloadFile are the default targets of the save and
	// download actions.
	SaveFile     string
	DownloadFile string
	Log          *zap.Logger
}

// Editor is one editing session.
type Editor struct {
	Store    *scene.Store
	Resolver *binding.Resolver
	Actions  *actions.Registry
	Kernel   *render.Adapter
	Schema   *schema.Schema
	Library  storage.Library
	Notifier *Notifier

	cfg Config
	log *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	view ViewMode
}

// New creates an editor session and registers the default actions.
func New(cfg Config) *Editor {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Schema == nil {
		cfg.Schema = schema.Default()
	}
	if cfg.Engine == nil {
		cfg.Engine = &render.ExecEngine{Log: log.Named("engine")}
	}
	if cfg.SaveFile == "" {
		cfg.SaveFile = "scene.json"
	}
	if cfg.DownloadFile == "" {
		cfg.DownloadFile = "render.png"
	}

	store := scene.NewStore(cfg.Doc,
		scene.WithItemFactory(cfg.Schema.ItemFactory()),
		scene.WithLogger(log.Named("scene")),
	)

	ctx, cancel := context.WithCancel(context.Background())
	e := &Editor{
		Store:    store,
		Resolver: binding.NewResolver(store, log.Named("binding")),
		Actions:  actions.NewRegistry(log.Named("actions")),
		Kernel:   render.NewAdapter(store, cfg.Engine, log.Named("render")),
		Schema:   cfg.Schema,
		Library:  cfg.Library,
		Notifier: NewNotifier(0),
		cfg:      cfg,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		view:     Windowed,
	}

	e.Kernel.OnStateChange(func(state render.KernelState, job uuid.UUID) {
		e.log.Debug("kernel state", zap.Stringer("state", state), zap.Stringer("job", job))
	})
	e.registerActions()

	log.Info("editor session started",
		zap.Int("objects", store.Current().Len(scene.Objects)),
		zap.Int("materials", store.Current().Len(scene.Materials)),
		zap.Int("actions", e.Actions.Len()),
	)
	return e
}

// Invoke runs an action.
func (e *Editor) Invoke(ctx context.Context, id string, params actions.Params) error {
	return e.Actions.Invoke(ctx, id, params)
}

// Bind resolves a live field.
func (e *Editor) Bind(path, property string) (*binding.Field, error) {
	return e.Resolver.Resolve(path, property)
}

// View returns the current view mode.
func (e *Editor) View() ViewMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

func (e *Editor) setView(v ViewMode) {
	e.mu.Lock()
	e.view = v
	e.mu.Unlock()
	e.log.Debug("view mode", zap.String("mode", string(v)))
}

// Context is cancelled by Close. Background work of the session uses it.
func (e *Editor) Context() context.Context { return e.ctx }

// Close cancels in-flight renders and other session work.
func (e *Editor) Close() {
	e.cancel()
	e.log.Info("editor session closed")
}
