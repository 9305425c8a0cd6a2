package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/cuongbtq/render-worker/internal/worker/domain"
)

const (
	readyStateComplete = `document.readyState === "complete"`
	documentText       = `document.documentElement ? document.documentElement.textContent : ""`
)

// ChromiumOptions configures the browser process
type ChromiumOptions struct {
	// ExecPath is the browser binary; empty means auto-detect
	ExecPath  string
	Headless  bool
	NoSandbox bool
}

// Chromium renders jobs in tabs of one shared browser session
type Chromium struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	logger        *slog.Logger
}

// LaunchChromium starts the browser and its event listener. The session
// lives until Close, independent of ctx cancellation.
func LaunchChromium(ctx context.Context, opts ChromiumOptions, logger *slog.Logger) (*Chromium, error) {
	logger = logger.With(slog.String("engine", domain.EngineChromium))

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.Flag("headless", opts.Headless))
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Error("Chromium protocol error", slog.String("error", fmt.Sprintf(format, args...)))
		}),
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug("Chromium", slog.String("message", fmt.Sprintf(format, args...)))
		}),
	)

	// Running no actions starts the browser
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, domain.NewAutomationError("launch chromium", err)
	}

	c := &Chromium{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		logger:        logger,
	}
	c.listen()

	logger.Info("Chromium launched")

	return c, nil
}

// listen logs browser level events for the session lifetime
func (c *Chromium) listen() {
	chromedp.ListenBrowser(c.browserCtx, func(ev any) {
		switch ev := ev.(type) {
		case *target.EventTargetCrashed:
			c.logger.Error("Chromium target crashed",
				slog.String("target_id", string(ev.TargetID)),
				slog.String("status", ev.Status),
				slog.Int64("error_code", ev.ErrorCode),
			)
		case *target.EventDetachedFromTarget:
			c.logger.Debug("Chromium detached from target",
				slog.String("session_id", string(ev.SessionID)),
			)
		}
	})

	go func() {
		<-c.browserCtx.Done()
		c.logger.Debug("Chromium session ended", slog.Any("reason", context.Cause(c.browserCtx)))
	}()
}

// Render loads the job HTML into a fresh tab and reads the document text
func (c *Chromium) Render(ctx context.Context, job domain.RenderJob) (domain.RenderedJob, error) {
	if err := ctx.Err(); err != nil {
		return domain.RenderedJob{}, err
	}

	tabCtx, tabCancel := chromedp.NewContext(c.browserCtx)
	defer tabCancel()

	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	var ready bool
	var text string

	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, job.HTML).Do(ctx)
		}),
		chromedp.Poll(readyStateComplete, &ready),
		chromedp.Evaluate(documentText, &text),
	)

	if closeErr := chromedp.Cancel(tabCtx); closeErr != nil && !errors.Is(closeErr, context.Canceled) {
		c.logger.Warn("Failed to close chromium tab",
			slog.String("job_id", job.ID),
			slog.Any("error", closeErr),
		)
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.RenderedJob{}, ctxErr
		}
		return domain.RenderedJob{}, domain.NewAutomationError("render "+job.ID, err)
	}

	return domain.RenderedJob{ID: job.ID, TextContent: text}, nil
}

// Close shuts the browser down
func (c *Chromium) Close() error {
	defer c.allocCancel()
	defer c.browserCancel()

	if err := chromedp.Cancel(c.browserCtx); err != nil && !errors.Is(err, context.Canceled) {
		return domain.NewAutomationError("close chromium", err)
	}
	return nil
}
