package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/render-worker/internal/api/dto"
	"github.com/cuongbtq/render-worker/internal/api/handler"
	"github.com/cuongbtq/render-worker/internal/worker/domain"
	"github.com/cuongbtq/render-worker/internal/worker/queue"
	"github.com/cuongbtq/render-worker/shared/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// writeOnlyBackend accepts jobs but cannot list results
type writeOnlyBackend struct {
	enqueueErr error
	pingErr    error
}

func (b *writeOnlyBackend) NextJob(ctx context.Context) (domain.RenderJob, error) {
	<-ctx.Done()
	return domain.RenderJob{}, ctx.Err()
}

func (b *writeOnlyBackend) Acknowledge(context.Context, domain.RenderedJob) error { return nil }

func (b *writeOnlyBackend) Enqueue(context.Context, domain.RenderJob) error { return b.enqueueErr }

func (b *writeOnlyBackend) Ping(context.Context) error { return b.pingErr }

func (b *writeOnlyBackend) Close() error { return nil }

func newTestRouter(backend queue.Backend) *gin.Engine {
	return SetupRouter(&handler.Dependencies{
		Logger: logger.NewNop().Logger,
		Queue:  backend,
	})
}

func do(t *testing.T, r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateRenderJob(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantID     string
	}{
		{
			name:       "with id",
			body:       `{"id":"abc","label":"demo","html":"<div>content</div>"}`,
			wantStatus: http.StatusAccepted,
			wantID:     "abc",
		},
		{
			name:       "generated id",
			body:       `{"label":"demo","html":"<p>x</p>"}`,
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "missing html",
			body:       `{"id":"abc","label":"demo"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{"id":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := queue.NewMemoryQueue()
			w := do(t, newTestRouter(q), http.MethodPost, "/api/v1/render-jobs", tt.body)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusAccepted {
				assert.Equal(t, 0, q.Pending())
				return
			}

			var resp dto.RenderJobResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "queued", resp.Status)
			assert.Equal(t, "demo", resp.Label)
			if tt.wantID != "" {
				assert.Equal(t, tt.wantID, resp.ID)
			} else {
				_, err := uuid.Parse(resp.ID)
				assert.NoError(t, err)
			}

			job, err := q.NextJob(context.Background())
			require.NoError(t, err)
			assert.Equal(t, resp.ID, job.ID)
		})
	}
}

func TestCreateRenderJob_EnqueueFails(t *testing.T) {
	backend := &writeOnlyBackend{enqueueErr: domain.NewTransportError("rpush", errors.New("connection refused"))}
	w := do(t, newTestRouter(backend), http.MethodPost, "/api/v1/render-jobs", `{"html":"<p>x</p>"}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListRenderResults_Pagination(t *testing.T) {
	q := queue.NewMemoryQueue()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Acknowledge(ctx, domain.RenderedJob{ID: id, TextContent: "text " + id}))
	}
	r := newTestRouter(q)

	w := do(t, r, http.MethodGet, "/api/v1/render-results?page_size=2", "")
	require.Equal(t, http.StatusOK, w.Code)

	var first dto.ListResultsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Equal(t, []dto.RenderResultDTO{
		{ID: "a", TextContent: "text a"},
		{ID: "b", TextContent: "text b"},
	}, first.Results)
	require.NotEmpty(t, first.NextCursor)

	w = do(t, r, http.MethodGet, "/api/v1/render-results?page_size=2&cursor="+first.NextCursor, "")
	require.Equal(t, http.StatusOK, w.Code)

	var second dto.ListResultsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, []dto.RenderResultDTO{{ID: "c", TextContent: "text c"}}, second.Results)
	assert.Empty(t, second.NextCursor)
}

func TestListRenderResults_Errors(t *testing.T) {
	tests := []struct {
		name       string
		backend    queue.Backend
		target     string
		wantStatus int
	}{
		{
			name:       "backend without listing",
			backend:    &writeOnlyBackend{},
			target:     "/api/v1/render-results",
			wantStatus: http.StatusNotImplemented,
		},
		{
			name:       "invalid cursor",
			backend:    queue.NewMemoryQueue(),
			target:     "/api/v1/render-results?cursor=!!!",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid page size",
			backend:    queue.NewMemoryQueue(),
			target:     "/api/v1/render-results?page_size=ten",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, newTestRouter(tt.backend), http.MethodGet, tt.target, "")
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		w := do(t, newTestRouter(queue.NewMemoryQueue()), http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"healthy"`)
	})

	t.Run("queue unreachable", func(t *testing.T) {
		backend := &writeOnlyBackend{pingErr: domain.NewTransportError("ping", errors.New("connection refused"))}
		w := do(t, newTestRouter(backend), http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestCORSPreflight(t *testing.T) {
	w := do(t, newTestRouter(queue.NewMemoryQueue()), http.MethodOptions, "/api/v1/render-jobs", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
