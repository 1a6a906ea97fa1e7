package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/webray-editor/internal/scene"
)

// Output is a finished render.
type Output struct {
	Image       []byte
	ContentType string
	Elapsed     time.Duration
}

// Engine renders a scene snapshot. Implementations must not retain doc.
type Engine interface {
	Render(ctx context.Context, doc *scene.Scene) (Output, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, doc *scene.Scene) (Output, error)

func (f EngineFunc) Render(ctx context.Context, doc *scene.Scene) (Output, error) {
	return f(ctx, doc)
}

// ErrNoEngine is returned by ExecEngine when no binary is configured.
var ErrNoEngine = errors.New("render engine binary not configured")

// ExecEngine runs an engine binary that reads the scene as JSON on stdin and
// writes a PNG image to stdout.
type ExecEngine struct {
	Binary string
	Args   []string
	Log    *zap.Logger
}

func (e *ExecEngine) Render(ctx context.Context, doc *scene.Scene) (Output, error) {
	if e.Binary == "" {
		return Output{}, ErrNoEngine
	}

	input, err := json.Marshal(doc)
	if err != nil {
		return Output{}, fmt.Errorf("encoding scene: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Binary, e.Args...)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Output{}, ctxErr
		}
		return Output{}, fmt.Errorf("running %s: %w: %s", e.Binary, err, bytes.TrimSpace(stderr.Bytes()))
	}
	elapsed := time.Since(start)

	if e.Log != nil && stderr.Len() > 0 {
		e.Log.Debug("engine stderr", zap.ByteString("output", stderr.Bytes()))
	}
	if stdout.Len() == 0 {
		return Output{}, fmt.Errorf("running %s: empty image", e.Binary)
	}

	return Output{
		Image:       stdout.Bytes(),
		ContentType: "image/png",
		Elapsed:     elapsed,
	}, nil
}
