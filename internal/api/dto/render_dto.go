package dto

type CreateRenderJobRequest struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	HTML  string `json:"html" binding:"required"`
}

type RenderJobResponse struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Status string `json:"status"`
}

type ListResultsRequest struct {
	PageSize int64  `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListResultsResponse struct {
	Results    []RenderResultDTO `json:"results"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type RenderResultDTO struct {
	ID          string `json:"id"`
	TextContent string `json:"text_content"`
}
