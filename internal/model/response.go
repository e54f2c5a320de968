package model

import "time"

// StorySummary is a library row: everything but the story text.
type StorySummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Genre     Genre     `json:"genre"`
	Length    Length    `json:"length"`
	WordCount int       `json:"word_count"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Story) Summary() StorySummary {
	return StorySummary{
		ID:        s.ID,
		Title:     s.Title,
		Genre:     s.Genre,
		Length:    s.Length,
		WordCount: s.WordCount,
		CreatedAt: s.CreatedAt,
	}
}

type StoryListResponse struct {
	Stories []StorySummary `json:"stories"`
	Total   int            `json:"total"`
	Offset  int            `json:"offset"`
	Limit   int            `json:"limit"`
}

type ErrorResponse struct {
	Error string    `json:"error"`
	Kind  ErrorKind `json:"kind,omitempty"`
}
