package port

// Segmenter splits text into sentence-like units.
type Segmenter interface {
	// Sentences returns the trimmed, non-empty sentences of text in order.
	Sentences(text string) []string

	// Paragraphs returns the blocks of text separated by blank lines.
	Paragraphs(text string) []string
}

// Chunker splits text into bounded-size passages.
type Chunker interface {
	Chunk(text string, maxUnitSize int) []string
}
