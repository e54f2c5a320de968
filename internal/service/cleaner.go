package service

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Some free models think out loud before the story starts. These are the
// openings of such planning paragraphs.
var planningPrefixes = compilePrefixes(
	`Check for cultural`,
	`Ensure the story`,
	`Avoid any`,
	`Keep paragraphs`,
	`Let me draft`,
	`Maybe`,
	`Wait,`,
	`Since`,
	`Stick to the request`,
	`Okay, the user wants`,
	`First, I need to`,
	`Let me start by`,
	`I need to build`,
	`The main character should be`,
	`Themes:`,
	`Plot structure:`,
	`Vivid descriptions:`,
	`Dialogue examples:`,
	`Ending:`,
	`Need to ensure`,
	`Make sure the story`,
)

var planningKeywords = []string{
	"check for", "ensure", "avoid", "keep", "let me", "maybe", "wait", "since",
	"stick to", "okay", "first", "i need", "the main", "themes:", "plot",
	"vivid", "dialogue", "ending:", "need to", "make sure", "step by step",
	"making sure", "draft it",
}

// a paragraph ends at a blank line or at a newline followed by a capital
var paragraphEnd = regexp.MustCompile(`\n\n|\n[A-Z]`)

const minCleanedRunes = 100

func compilePrefixes(prefixes ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(prefixes))
	for _, p := range prefixes {
		out = append(out, regexp.MustCompile(`(?m)^`+regexp.QuoteMeta(p)))
	}
	return out
}

// CleanStory strips planning paragraphs and leading planning lines from
// generated text. If that leaves too little, the original text is kept.
func CleanStory(text string) string {
	cleaned := text
	for _, re := range planningPrefixes {
		cleaned = removePlanningParagraphs(cleaned, re)
	}

	lines := strings.Split(cleaned, "\n")
	start := 0
	for start < len(lines) {
		line := strings.TrimSpace(lines[start])
		if line != "" && !hasPlanningKeyword(line) {
			break
		}
		start++
	}
	if start == len(lines) {
		// every line looks like planning; keep the paragraph-cleaned text
		start = 0
	}
	cleaned = strings.TrimSpace(strings.Join(lines[start:], "\n"))

	if utf8.RuneCountInString(cleaned) < minCleanedRunes {
		return strings.TrimSpace(text)
	}
	return cleaned
}

// removePlanningParagraphs drops every paragraph that starts with re. A match
// with no paragraph end after it is left alone.
func removePlanningParagraphs(text string, re *regexp.Regexp) string {
	var b strings.Builder
	cursor := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] < cursor {
			continue
		}
		end := paragraphEnd.FindStringIndex(text[loc[1]:])
		if end == nil {
			continue
		}
		b.WriteString(text[cursor:loc[0]])
		// keep the capital that starts the next paragraph
		cursor = loc[1] + end[0] + 1
		if text[loc[1]+end[0]:loc[1]+end[1]] == "\n\n" {
			cursor = loc[1] + end[1]
		}
	}
	b.WriteString(text[cursor:])
	return b.String()
}

func hasPlanningKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range planningKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
