package chunker

import (
	"strings"
	"unicode/utf8"

	"docrag/internal/port"
)

// DefaultMaxUnitSize is the soft upper bound on chunk length, in characters.
const DefaultMaxUnitSize = 1000

// sentenceSeparator joins sentences merged into one chunk.
const sentenceSeparator = ". "

// ParagraphChunker packs sentences greedily into chunks that never span
// a paragraph boundary.
//
// Texts no longer than the unit size are returned one sentence per chunk.
// Longer texts are split into paragraphs and each paragraph's sentences are
// accumulated until the next one would push the chunk past the unit size.
// A sentence longer than the unit size is emitted whole.
type ParagraphChunker struct {
	segmenter port.Segmenter
}

func NewParagraphChunker(segmenter port.Segmenter) *ParagraphChunker {
	if segmenter == nil {
		segmenter = NewRegexSegmenter()
	}
	return &ParagraphChunker{segmenter: segmenter}
}

func (c *ParagraphChunker) Chunk(text string, maxUnitSize int) []string {
	if maxUnitSize <= 0 {
		maxUnitSize = DefaultMaxUnitSize
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if charLen(text) <= maxUnitSize {
		return c.segmenter.Sentences(text)
	}

	var chunks []string
	for _, paragraph := range c.segmenter.Paragraphs(text) {
		var current strings.Builder
		currentLen := 0

		for _, sentence := range c.segmenter.Sentences(paragraph) {
			sentenceLen := charLen(sentence)

			if currentLen > 0 && currentLen+len(sentenceSeparator)+sentenceLen > maxUnitSize {
				chunks = append(chunks, current.String())
				current.Reset()
				currentLen = 0
			}

			if currentLen > 0 {
				current.WriteString(sentenceSeparator)
				currentLen += len(sentenceSeparator)
			}
			current.WriteString(sentence)
			currentLen += sentenceLen
		}

		if currentLen > 0 {
			chunks = append(chunks, current.String())
		}
	}

	return chunks
}

func charLen(s string) int {
	return utf8.RuneCountInString(s)
}
