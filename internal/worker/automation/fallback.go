package automation

import (
	"context"
	"strings"
	"unicode"

	"github.com/cuongbtq/render-worker/internal/worker/domain"
)

// Fallback extracts text without a browser
type Fallback struct{}

// Render strips the tags from the job HTML
func (Fallback) Render(_ context.Context, job domain.RenderJob) (domain.RenderedJob, error) {
	return domain.RenderedJob{
		ID:          job.ID,
		TextContent: ExtractText(job.HTML),
	}, nil
}

// Close is a no-op
func (Fallback) Close() error { return nil }

// ExtractText drops everything between '<' and '>' and collapses whitespace.
// A tag separates words like whitespace does. Entities are left as written.
func ExtractText(html string) string {
	var b strings.Builder
	b.Grow(len(html))

	inTag := false
	gap := false

	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
			gap = true
		case r == '>':
			inTag = false
		case inTag:
		case unicode.IsSpace(r):
			gap = true
		default:
			if gap && b.Len() > 0 {
				b.WriteByte(' ')
			}
			gap = false
			b.WriteRune(r)
		}
	}

	return b.String()
}
