package chunker

import (
	"regexp"
	"strings"
)

var (
	sentenceBoundary  = regexp.MustCompile(`[.!?]+`)
	paragraphBoundary = regexp.MustCompile(`\n\s*\n`)
)

// RegexSegmenter splits on sentence-terminal punctuation and blank lines.
// It is a heuristic, not a language-aware tokenizer: abbreviations and
// decimal numbers are split like any other period.
type RegexSegmenter struct{}

func NewRegexSegmenter() *RegexSegmenter {
	return &RegexSegmenter{}
}

// Sentences splits text on runs of '.', '!' and '?', dropping the
// punctuation and any piece that is empty after trimming.
func (s *RegexSegmenter) Sentences(text string) []string {
	return splitNonEmpty(sentenceBoundary, text)
}

// Paragraphs splits text on blank lines, including lines holding only whitespace.
func (s *RegexSegmenter) Paragraphs(text string) []string {
	return splitNonEmpty(paragraphBoundary, text)
}

func splitNonEmpty(re *regexp.Regexp, text string) []string {
	parts := re.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
