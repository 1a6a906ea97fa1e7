package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/webray-editor/internal/actions"
	"github.com/Faultbox/webray-editor/internal/binding"
	"github.com/Faultbox/webray-editor/internal/files"
	"github.com/Faultbox/webray-editor/internal/render"
	"github.com/Faultbox/webray-editor/internal/scene"
)

// User-facing messages.
const (
	MsgRenderFirst  = "Render a image before saving"
	MsgInvalidScene = "Select a valid json file to upload"
	MsgRenderFailed = "Render failed"
	MsgSceneSaved   = "Scene saved"
)

var (
	// ErrNotRendered is returned when output is requested before a render
	// finished.
	ErrNotRendered = errors.New("no finished render")
	// ErrNoLibrary is returned by library actions when no library is configured.
	ErrNoLibrary = errors.New("scene library not configured")
)

func (e *Editor) registerActions() {
	e.Actions.Register(actions.Render, e.actRender)
	e.Actions.Register(actions.AddListItem, e.actAddListItem)
	e.Actions.Register(actions.DelListItem, e.actDelListItem)
	e.Actions.Register(actions.Download, e.actDownload)
	e.Actions.Register(actions.SaveFile, e.actSaveFile)
	e.Actions.Register(actions.LoadFile, e.actLoadFile)
	e.Actions.Register(actions.FullscreenEnter, func(context.Context, actions.Params) error {
		e.setView(Fullscreen)
		return nil
	})
	e.Actions.Register(actions.FullscreenExit, func(context.Context, actions.Params) error {
		e.setView(Windowed)
		return nil
	})
}

// actRender starts a render on the session context. With {"wait": true} it
// blocks until the engine returns and reports its error.
func (e *Editor) actRender(ctx context.Context, p actions.Params) error {
	rctx, cancel := e.ctx, context.CancelFunc(func() {})
	if e.cfg.RenderTimeout > 0 {
		rctx, cancel = context.WithTimeout(e.ctx, e.cfg.RenderTimeout)
	}
	results := e.Kernel.Render(rctx)

	finish := func(r render.Result) error {
		defer cancel()
		if r.Err != nil {
			e.Notifier.Notify(LevelError, MsgRenderFailed)
			return r.Err
		}
		return nil
	}

	background := func() {
		go func() { _ = finish(<-results) }()
	}

	if !p.Bool("wait") {
		background()
		return nil
	}
	select {
	case r := <-results:
		return finish(r)
	case <-ctx.Done():
		background()
		return ctx.Err()
	}
}

func (e *Editor) actAddListItem(_ context.Context, p actions.Params) error {
	bp, err := e.listBinding(p)
	if err != nil {
		return err
	}
	_, err = e.Store.AddListItem(bp.Collection)
	return err
}

// actDelListItem removes the element named by the binding selector, or by
// an "id" parameter.
func (e *Editor) actDelListItem(_ context.Context, p actions.Params) error {
	bp, err := e.listBinding(p)
	if err != nil {
		return err
	}
	id := bp.ID
	if !bp.HasID {
		var ok bool
		if id, ok = p.Int("id"); !ok {
			return fmt.Errorf("%s: no element selected", actions.DelListItem)
		}
	}
	_, err = e.Store.RemoveListItem(bp.Collection, id)
	return err
}

func (e *Editor) listBinding(p actions.Params) (binding.BindPath, error) {
	bp, err := binding.ParsePath(p.String("binding"))
	if err != nil {
		return binding.BindPath{}, err
	}
	if !bp.Collection.IsList() {
		return binding.BindPath{}, fmt.Errorf("%w: %s", scene.ErrNotList, bp.Collection)
	}
	return bp, nil
}

// Output returns the last rendered image once the kernel is DONE.
func (e *Editor) Output() (render.Output, error) {
	out, ok := e.Kernel.Finished()
	if !ok {
		return render.Output{}, ErrNotRendered
	}
	return out, nil
}

func (e *Editor) actDownload(_ context.Context, p actions.Params) error {
	out, err := e.Output()
	if err != nil {
		e.Notifier.Notify(LevelWarning, MsgRenderFirst)
		return nil
	}

	path := p.String("file")
	if path == "" {
		path = e.cfg.DownloadFile
	}
	if err := os.WriteFile(path, out.Image, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	e.log.Info("render downloaded", zap.String("file", path), zap.Int("bytes", len(out.Image)))
	return nil
}

// actSaveFile writes the scene to {"library": name} when given, otherwise to
// {"file": path} or the configured save file.
func (e *Editor) actSaveFile(ctx context.Context, p actions.Params) error {
	if name := p.String("library"); name != "" {
		if e.Library == nil {
			return ErrNoLibrary
		}
		var buf bytes.Buffer
		if err := files.Save(&buf, e.Store.Snapshot()); err != nil {
			return err
		}
		if err := e.Library.Put(ctx, name, buf.Bytes()); err != nil {
			return err
		}
	} else {
		path := p.String("file")
		if path == "" {
			path = e.cfg.SaveFile
		}
		if err := files.SaveFile(e.Store, path); err != nil {
			return err
		}
	}
	e.Notifier.Notify(LevelInfo, MsgSceneSaved)
	return nil
}

// actLoadFile replaces the scene from {"library": name} or {"file": path}.
// A failed load leaves the scene as it was.
func (e *Editor) actLoadFile(ctx context.Context, p actions.Params) error {
	err := e.load(ctx, p)
	if err != nil {
		e.Notifier.Notify(LevelError, MsgInvalidScene)
	}
	return err
}

func (e *Editor) load(ctx context.Context, p actions.Params) error {
	if name := p.String("library"); name != "" {
		if e.Library == nil {
			return ErrNoLibrary
		}
		data, err := e.Library.Get(ctx, name)
		if err != nil {
			return err
		}
		return files.Load(e.Store, bytes.NewReader(data))
	}

	path := p.String("file")
	if path == "" {
		return fmt.Errorf("%s: no file selected", actions.LoadFile)
	}
	return files.LoadFile(e.Store, path)
}
