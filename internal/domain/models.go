package domain

import (
	"regexp"
	"strings"
)

// Domain contains core models and the article derivation logic.

// moneyPattern matches "$1,234.56"-style amounts or a bare integer followed by "dollars"/"USD".
// Word boundaries and digits use Unicode classes since RE2's \b and \d are ASCII-only: "café50 dollars" is not a match.
var moneyPattern = regexp.MustCompile(
	`\$(\p{Nd}{1,3}(?:,\p{Nd}{3})*(?:\.\p{Nd}{2})?)` +
		`|(?:^|[^\p{L}\p{N}_])(\p{Nd}+)[\s\p{Z}]*(?:dollars|USD)(?:$|[^\p{L}\p{N}_])`,
)

// RawArticle holds the optional text fields scraped from one search result. Nil means absent.
type RawArticle struct {
	Title       *string
	Date        *string
	Description *string
	Thumbnail   *string
}

// Article is a scraped result annotated with the derived fields.
type Article struct {
	Title             *string
	Date              *string
	Description       *string
	Thumbnail         *string
	MentionsMoney     bool
	SearchPhraseCount int
}

// NewArticle derives an Article from raw scraped fields and the active search phrase.
func NewArticle(raw RawArticle, searchPhrase string) Article {
	return Article{
		Title:             raw.Title,
		Date:              raw.Date,
		Description:       raw.Description,
		Thumbnail:         raw.Thumbnail,
		MentionsMoney:     mentionsMoney(raw.Title) || mentionsMoney(raw.Description),
		SearchPhraseCount: countPhrase(raw.Title, searchPhrase) + countPhrase(raw.Description, searchPhrase),
	}
}

// NewArticles derives one Article per raw result, preserving order.
func NewArticles(raws []RawArticle, searchPhrase string) []Article {
	out := make([]Article, len(raws))
	for i, raw := range raws {
		out[i] = NewArticle(raw, searchPhrase)
	}
	return out
}

func mentionsMoney(text *string) bool {
	return text != nil && moneyPattern.MatchString(*text)
}

// countPhrase counts non-overlapping literal occurrences. An empty phrase never matches.
func countPhrase(text *string, phrase string) int {
	if text == nil || phrase == "" {
		return 0
	}
	return strings.Count(*text, phrase)
}

// Text returns a pointer to s, for populating optional fields.
func Text(s string) *string {
	return &s
}

// Value dereferences an optional field, rendering absent as "".
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
