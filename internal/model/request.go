package model

// CreateStoryRequest is the JSON body of POST /api/stories and /api/submissions.
// Multipart form posts use the same field names plus a story_file upload.
type CreateStoryRequest struct {
	Prompt      string `json:"prompt" form:"prompt"`
	FileContent string `json:"file_content" form:"-"`
	Genre       string `json:"genre" form:"genre"`
	Length      string `json:"length" form:"length"`
}

type ListStoriesQuery struct {
	Offset int `form:"offset"`
	Limit  int `form:"limit"`
}
