package chunker

import (
	"regexp"
	"strings"
)

var (
	horizontalSpace = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	pageNumberLine  = regexp.MustCompile(`^\d+$`)
)

// CleanExtractedText tidies text pulled out of a binary document such as
// a PDF: runs of horizontal whitespace collapse to one space, lines are
// trimmed, lines holding only a page number are dropped and consecutive
// blank lines collapse to one. Paragraph breaks survive so the chunker
// can still honour them.
func CleanExtractedText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.TrimSpace(horizontalSpace.ReplaceAllString(line, " "))
		if pageNumberLine.MatchString(line) {
			continue
		}
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
