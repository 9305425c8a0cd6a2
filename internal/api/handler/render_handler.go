package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cuongbtq/render-worker/internal/api/dto"
	"github.com/cuongbtq/render-worker/internal/worker/domain"
	"github.com/cuongbtq/render-worker/internal/worker/queue"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	statusQueued = "queued"
)

// CreateRenderJob handles POST /api/v1/render-jobs
// Pushes a job onto the pending queue
func (h *RenderHandler) CreateRenderJob(c *gin.Context) {
	var req dto.CreateRenderJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	job := domain.RenderJob{
		ID:    req.ID,
		Label: req.Label,
		HTML:  req.HTML,
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}

	if err := h.queue.Enqueue(c.Request.Context(), job); err != nil {
		h.logger.Error("Failed to enqueue render job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Failed to enqueue render job",
		})
		return
	}

	h.logger.Info("Render job queued",
		slog.String("job_id", job.ID),
		slog.String("label", job.Label),
		slog.Int("html_size", len(job.HTML)),
	)

	c.JSON(http.StatusAccepted, dto.RenderJobResponse{
		ID:     job.ID,
		Label:  job.Label,
		Status: statusQueued,
	})
}

// ListRenderResults handles GET /api/v1/render-results
// Pages through the result store in acknowledge order
func (h *RenderHandler) ListRenderResults(c *gin.Context) {
	reader, ok := h.queue.(queue.ResultReader)
	if !ok {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Queue backend does not support listing results",
		})
		return
	}

	var req dto.ListResultsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}

	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	offset, err := DecodeResultCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	// One extra row tells whether another page exists
	results, err := reader.ListResults(c.Request.Context(), offset, req.PageSize+1)
	if err != nil {
		h.logger.Error("Failed to list results", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list results",
		})
		return
	}

	hasMore := int64(len(results)) > req.PageSize
	if hasMore {
		results = results[:req.PageSize]
	}

	response := dto.ListResultsResponse{
		Results: make([]dto.RenderResultDTO, len(results)),
	}
	for i, result := range results {
		response.Results[i] = dto.RenderResultDTO{
			ID:          result.ID,
			TextContent: result.TextContent,
		}
	}

	if hasMore {
		response.NextCursor = EncodeResultCursor(offset + req.PageSize)
	}

	c.JSON(http.StatusOK, response)
}

// Health handles GET /health
func (h *RenderHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.queue.Ping(ctx); err != nil {
		h.logger.Warn("Queue backend unhealthy", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "render-api-service",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "render-api-service",
	})
}
