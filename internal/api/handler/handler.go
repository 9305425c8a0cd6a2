package handler

import (
	"log/slog"

	"github.com/cuongbtq/render-worker/internal/worker/queue"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger *slog.Logger
	Queue  queue.Backend
}

// RenderHandler handles render job intake and result listing
type RenderHandler struct {
	logger *slog.Logger
	queue  queue.Backend
}

// NewRenderHandler creates a new RenderHandler instance
func NewRenderHandler(deps *Dependencies) *RenderHandler {
	return &RenderHandler{
		logger: deps.Logger,
		queue:  deps.Queue,
	}
}
