// Package automation renders job HTML to text. Chromium drives a real
// browser over the DevTools protocol; Fallback strips tags lexically and is
// substituted whenever the browser cannot be launched.
package automation

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/render-worker/internal/config"
	"github.com/cuongbtq/render-worker/internal/worker/domain"
)

// Renderer turns one job into its rendered result
type Renderer interface {
	Render(ctx context.Context, job domain.RenderJob) (domain.RenderedJob, error)
}

// Engine is a Renderer that owns resources released by Close
type Engine interface {
	Renderer
	Close() error
}

// Launcher starts an engine
type Launcher func(ctx context.Context) (Engine, error)

// New returns the engine selected by configuration. The chromium engine falls
// back to tag stripping when the browser cannot be launched.
func New(ctx context.Context, cfg *config.AutomationConfig, logger *slog.Logger) Engine {
	if cfg.Engine == domain.EngineFallback {
		logger.Info("Using fallback text extractor")
		return Fallback{}
	}

	return SelectRenderer(ctx, func(ctx context.Context) (Engine, error) {
		chromium, err := LaunchChromium(ctx, ChromiumOptions{
			ExecPath:  cfg.ChromePath,
			Headless:  cfg.Headless,
			NoSandbox: cfg.NoSandbox,
		}, logger)
		if err != nil {
			return nil, err
		}
		return chromium, nil
	}, logger)
}

// SelectRenderer launches the preferred engine and substitutes the fallback
// if launching fails
func SelectRenderer(ctx context.Context, launch Launcher, logger *slog.Logger) Engine {
	engine, err := launch(ctx)
	if err != nil {
		logger.Warn("Failed to launch rendering engine, using fallback text extractor",
			slog.Any("error", err),
		)
		return Fallback{}
	}

	return engine
}
