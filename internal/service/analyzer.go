package service

import (
	"regexp"
	"strings"

	"storycraft/internal/model"
)

// PromptAnalysis is what keyword matching could infer from a prompt.
type PromptAnalysis struct {
	Genre       model.Genre
	Length      model.Length
	Tone        string
	Protagonist string
	Setting     string
}

const ToneNeutral = "neutral"

// Plan summarizes what was understood from a prompt, for example
// "Genre: Fantasy • Length: Short story (~500 words) • Main character: Ember".
// Genre general and tone neutral are left out.
func (a PromptAnalysis) Plan() string {
	var items []string
	if a.Genre != model.GenreGeneral && a.Genre != model.GenreAuto && a.Genre != "" {
		items = append(items, "Genre: "+a.Genre.Title())
	}
	if a.Length != "" && a.Length != model.LengthAuto {
		items = append(items, "Length: "+a.Length.Description())
	}
	if a.Tone != "" && a.Tone != ToneNeutral {
		items = append(items, "Tone: "+strings.ToUpper(a.Tone[:1])+a.Tone[1:])
	}
	if a.Protagonist != "" {
		items = append(items, "Main character: "+a.Protagonist)
	}
	if a.Setting != "" {
		items = append(items, "Setting: "+a.Setting)
	}
	return strings.Join(items, " • ")
}

type keywordSet struct {
	name     string
	keywords []string
}

// Order matters: ties in genre score and first-match length/tone both go to
// the earlier entry.
var genreKeywords = []keywordSet{
	{string(model.GenreFantasy), []string{"magic", "wizard", "dragon", "fairy", "enchanted", "spell", "mythical", "magical", "fantasy"}},
	{string(model.GenreSciFi), []string{"space", "alien", "robot", "future", "technology", "spaceship", "laser", "cyborg", "sci-fi", "science fiction"}},
	{string(model.GenreMystery), []string{"detective", "murder", "clue", "investigation", "suspect", "crime", "mystery", "solve"}},
	{string(model.GenreHorror), []string{"scary", "ghost", "monster", "haunted", "nightmare", "terror", "horror", "frightening"}},
	{string(model.GenreRomance), []string{"love", "romance", "dating", "relationship", "wedding", "romantic", "heart", "couple"}},
	{string(model.GenreAdventure), []string{"journey", "quest", "explore", "adventure", "treasure", "expedition", "travel"}},
	{string(model.GenreThriller), []string{"chase", "escape", "danger", "suspense", "thriller", "action", "pursuit"}},
	{string(model.GenreHistorical), []string{"medieval", "ancient", "historical", "century", "war", "kingdom", "empire"}},
	{string(model.GenreComedy), []string{"funny", "humor", "laugh", "joke", "comedy", "hilarious", "amusing"}},
	{string(model.GenreContemporary), []string{"modern", "today", "current", "realistic", "everyday"}},
}

var lengthKeywords = []keywordSet{
	{string(model.LengthShort), []string{"short", "brief", "quick", "flash", "micro"}},
	{string(model.LengthMedium), []string{"medium", "regular", "standard"}},
	{string(model.LengthLong), []string{"long", "detailed", "extended", "comprehensive"}},
	{string(model.LengthEpic), []string{"epic", "saga", "massive", "huge", "enormous"}},
}

var toneKeywords = []keywordSet{
	{"dark", []string{"dark", "grim", "serious", "somber", "tragic"}},
	{"light", []string{"light", "cheerful", "happy", "optimistic", "bright"}},
	{"humorous", []string{"funny", "humorous", "comedic", "amusing", "witty"}},
	{"dramatic", []string{"dramatic", "intense", "emotional", "powerful"}},
	{"mysterious", []string{"mysterious", "enigmatic", "cryptic", "puzzling"}},
}

var (
	protagonistPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)about (?:a |an )?(.+?) who`),
		regexp.MustCompile(`(?i)protagonist (?:is |named |called )?(.+?)[.,\s]`),
		regexp.MustCompile(`(?i)main character (?:is |named |called )?(.+?)[.,\s]`),
		regexp.MustCompile(`(?i)story of (?:a |an )?(.+?)[.,\s]`),
	}
	settingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)set in (.+?)[.,\s]`),
		regexp.MustCompile(`(?i)takes place in (.+?)[.,\s]`),
		regexp.MustCompile(`(?i)located in (.+?)[.,\s]`),
		regexp.MustCompile(`(?i)world of (.+?)[.,\s]`),
	}
)

// AnalyzePrompt infers genre, length and tone from keywords, plus a
// protagonist and setting when the prompt spells them out. It never fails:
// undetected values fall back to general, medium and neutral.
func AnalyzePrompt(prompt string) PromptAnalysis {
	lower := strings.ToLower(prompt)

	return PromptAnalysis{
		Genre:       detectGenre(lower),
		Length:      detectLength(lower),
		Tone:        detectTone(lower),
		Protagonist: firstCapture(protagonistPatterns, prompt),
		Setting:     firstCapture(settingPatterns, prompt),
	}
}

func detectGenre(lower string) model.Genre {
	best, bestScore := model.GenreGeneral, 0
	for _, set := range genreKeywords {
		score := 0
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = model.Genre(set.name), score
		}
	}
	return best
}

func detectLength(lower string) model.Length {
	if name := firstMatch(lengthKeywords, lower); name != "" {
		return model.Length(name)
	}
	return model.LengthMedium
}

func detectTone(lower string) string {
	if name := firstMatch(toneKeywords, lower); name != "" {
		return name
	}
	return ToneNeutral
}

func firstMatch(sets []keywordSet, lower string) string {
	for _, set := range sets {
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				return set.name
			}
		}
	}
	return ""
}

func firstCapture(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
