package chunker

import "testing"

func TestCleanExtractedText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "collapses spaces",
			input:    "Hello    world\t\tagain",
			expected: "Hello world again",
		},
		{
			name:     "drops page numbers",
			input:    "First page text.\n12\nSecond page text.",
			expected: "First page text.\nSecond page text.",
		},
		{
			name:     "keeps one blank line between paragraphs",
			input:    "Para one.\n\n\n\n   \nPara two.",
			expected: "Para one.\n\nPara two.",
		},
		{
			name:     "page number between paragraphs",
			input:    "Para one.\n\n 7 \n\nPara two.",
			expected: "Para one.\n\nPara two.",
		},
		{
			name:     "normalizes line endings",
			input:    "a\r\nb\rc",
			expected: "a\nb\nc",
		},
		{
			name:     "trims surrounding blank lines",
			input:    "\n\n  text  \n\n",
			expected: "text",
		},
		{
			name:     "only numbers",
			input:    "1\n2\n3",
			expected: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CleanExtractedText(tc.input)
			if got != tc.expected {
				t.Errorf("CleanExtractedText(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}
