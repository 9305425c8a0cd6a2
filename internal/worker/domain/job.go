package domain

// RenderJob is a unit of work pushed by the producer onto the pending queue
type RenderJob struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	HTML  string `json:"html"`
}

// RenderedJob is the text extracted from a RenderJob, keyed by the job ID
type RenderedJob struct {
	ID          string `json:"id"`
	TextContent string `json:"text_content"`
}
