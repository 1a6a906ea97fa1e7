// Package main is the entry point for the webray editor server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/webray-editor/internal/api"
	"github.com/Faultbox/webray-editor/internal/config"
	"github.com/Faultbox/webray-editor/internal/editor"
	"github.com/Faultbox/webray-editor/internal/files"
	"github.com/Faultbox/webray-editor/internal/logger"
	"github.com/Faultbox/webray-editor/internal/render"
	"github.com/Faultbox/webray-editor/internal/scene"
	"github.com/Faultbox/webray-editor/internal/storage"
	"github.com/Faultbox/webray-editor/internal/storage/memory"
	"github.com/Faultbox/webray-editor/internal/storage/valkey"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	logOpts := logger.Options{
		Level:   cfg.Logging.Level,
		Console: true,
		JSON:    cfg.Logging.JSON,
	}
	if cfg.Logging.LogFile != "" {
		logOpts.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	logger.Setup(logOpts)
	defer logger.Sync()

	logger.Log.Info("=== webray editor ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Log.Error("editor stopped", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Log.Info("editor closed normally")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lib, closeLib, err := openLibrary(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeLib()

	seed, err := loadSeed(cfg.Scene.SeedFile)
	if err != nil {
		return err
	}

	ed := editor.New(editor.Config{
		Doc: seed,
		Engine: &render.ExecEngine{
			Binary: cfg.Engine.Binary,
			Args:   cfg.Engine.Args,
			Log:    logger.Named("engine"),
		},
		RenderTimeout: cfg.Engine.Timeout,
		Library:       lib,
		SaveFile:      cfg.Scene.SaveFile,
		Log:           logger.Named("editor"),
	})
	defer ed.Close()

	if cfg.Scene.Watch && cfg.Scene.SeedFile != "" {
		go func() {
			if err := files.Watch(ctx, cfg.Scene.SeedFile, ed.Store, logger.Named("watch")); err != nil {
				logger.Log.Warn("scene watch stopped", zap.Error(err))
			}
		}()
	}

	srv := api.NewServer(ed, api.Options{
		CORSOrigin: cfg.Server.CORSOrigin,
		JWTSecret:  cfg.Server.JWTSecret,
	}, logger.Named("api"))
	go srv.Run(ctx)

	httpSrv := &http.Server{
		Addr:    cfg.Server.Listen,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("listening", zap.String("addr", cfg.Server.Listen))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func openLibrary(ctx context.Context, cfg config.StorageConfig) (storage.Library, func(), error) {
	switch cfg.Backend {
	case config.BackendValkey:
		lib, err := valkey.Dial(cfg.ValkeyAddr, cfg.KeyPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to valkey at %s: %w", cfg.ValkeyAddr, err)
		}
		if err := lib.Ping(ctx); err != nil {
			lib.Close()
			return nil, nil, fmt.Errorf("pinging valkey at %s: %w", cfg.ValkeyAddr, err)
		}
		logger.Log.Info("scene library", zap.String("backend", "valkey"), zap.String("addr", cfg.ValkeyAddr))
		return lib, lib.Close, nil
	default:
		lib := memory.NewLibrary()
		logger.Log.Info("scene library", zap.String("backend", "memory"))
		return lib, func() {
			hits, misses := lib.Stats()
			logger.Log.Debug("scene library closed", zap.Int("hits", hits), zap.Int("misses", misses))
		}, nil
	}
}

func loadSeed(path string) (*scene.Scene, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed scene: %w", err)
	}
	defer f.Close()

	doc, err := files.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("seed scene %s: %w", path, err)
	}
	logger.Log.Info("seed scene loaded",
		zap.String("file", path),
		zap.Int("objects", doc.Len(scene.Objects)),
		zap.Int("materials", doc.Len(scene.Materials)),
	)
	return doc, nil
}
