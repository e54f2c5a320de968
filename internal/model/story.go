package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Genre is a story genre. GenreAuto defers the choice to prompt analysis.
type Genre string

const (
	GenreAuto         Genre = "auto"
	GenreGeneral      Genre = "general"
	GenreFantasy      Genre = "fantasy"
	GenreSciFi        Genre = "sci-fi"
	GenreMystery      Genre = "mystery"
	GenreHorror       Genre = "horror"
	GenreRomance      Genre = "romance"
	GenreAdventure    Genre = "adventure"
	GenreThriller     Genre = "thriller"
	GenreHistorical   Genre = "historical"
	GenreComedy       Genre = "comedy"
	GenreContemporary Genre = "contemporary"
)

// Genres lists the selectable genres in the order the form offers them.
var Genres = []Genre{
	GenreFantasy, GenreSciFi, GenreMystery, GenreHorror, GenreRomance,
	GenreAdventure, GenreThriller, GenreHistorical, GenreComedy, GenreContemporary,
}

var genreAliases = map[string]Genre{
	"scifi":           GenreSciFi,
	"science fiction": GenreSciFi,
	"science-fiction": GenreSciFi,
}

// ParseGenre accepts a selectable genre, case-insensitively. Empty, "auto" and
// "auto-detect" all mean GenreAuto.
func ParseGenre(s string) (Genre, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "", "auto", "auto-detect":
		return GenreAuto, nil
	}
	if g, ok := genreAliases[v]; ok {
		return g, nil
	}
	for _, g := range Genres {
		if string(g) == v {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown genre %q", s)
}

// Title is the display form used in headings, e.g. "Sci-Fi".
func (g Genre) Title() string {
	parts := strings.Split(string(g), "-")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "-")
}

// Length is a target story length. LengthAuto defers the choice to prompt analysis.
type Length string

const (
	LengthAuto   Length = "auto"
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
	LengthEpic   Length = "epic"
)

var Lengths = []Length{LengthShort, LengthMedium, LengthLong, LengthEpic}

var lengthWords = map[Length]int{
	LengthShort:  500,
	LengthMedium: 1500,
	LengthLong:   3000,
	LengthEpic:   5000,
}

func ParseLength(s string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "", "auto", "auto-detect":
		return LengthAuto, nil
	}
	for _, l := range Lengths {
		if string(l) == v {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown length %q", s)
}

// Words is the approximate word target, or 0 for LengthAuto.
func (l Length) Words() int {
	return lengthWords[l]
}

func (l Length) Description() string {
	switch l {
	case LengthShort:
		return "Short story (~500 words)"
	case LengthMedium:
		return "Medium story (~1500 words)"
	case LengthLong:
		return "Long story (~3000 words)"
	case LengthEpic:
		return "Epic story (~5000 words)"
	}
	return "Auto-detect"
}

// StoryRequest is the canonical, validated form of one submission.
type StoryRequest struct {
	Prompt string `json:"prompt"`
	Genre  Genre  `json:"genre"`
	Length Length `json:"length"`
}

// Generation is what the generation client hands back for one StoryRequest.
type Generation struct {
	Text   string
	Genre  Genre
	Length Length
	Tone   string
	Model  string
}

// Story is the durable record of one successful generation. It is never
// modified once stored.
type Story struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Prompt    string    `json:"prompt"`
	Genre     Genre     `json:"genre"`
	Length    Length    `json:"length"`
	Tone      string    `json:"tone,omitempty"`
	Model     string    `json:"model,omitempty"`
	Content   string    `json:"content"`
	WordCount int       `json:"word_count"`
	CreatedAt time.Time `json:"created_at"`
}

const titleRunes = 50

// NewStory builds an unsaved record; the store assigns ID and CreatedAt.
func NewStory(req StoryRequest, gen *Generation) *Story {
	return &Story{
		Title:     TitleFromPrompt(req.Prompt),
		Prompt:    req.Prompt,
		Genre:     gen.Genre,
		Length:    gen.Length,
		Tone:      gen.Tone,
		Model:     gen.Model,
		Content:   gen.Text,
		WordCount: len(strings.Fields(gen.Text)),
	}
}

// Clone returns a copy that shares nothing mutable with s.
func (s *Story) Clone() *Story {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// TitleFromPrompt keeps the first line of the prompt, cut to 50 runes.
func TitleFromPrompt(prompt string) string {
	line := strings.TrimSpace(strings.SplitN(prompt, "\n", 2)[0])
	if utf8.RuneCountInString(line) <= titleRunes {
		return line
	}
	return string([]rune(line)[:titleRunes]) + "..."
}

// SubmissionState is the lifecycle of an asynchronous submission.
type SubmissionState string

const (
	SubmissionPending   SubmissionState = "pending"
	SubmissionSucceeded SubmissionState = "succeeded"
	SubmissionFailed    SubmissionState = "failed"
)

func (s SubmissionState) Terminal() bool {
	return s == SubmissionSucceeded || s == SubmissionFailed
}

type Submission struct {
	ID        string          `json:"id"`
	State     SubmissionState `json:"state"`
	Request   StoryRequest    `json:"request"`
	StoryID   string          `json:"story_id,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorKind ErrorKind       `json:"error_kind,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
