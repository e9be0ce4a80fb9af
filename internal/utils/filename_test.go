package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "replaces colon with spaced dash",
			input:    "Sapiens: A Brief History of Humankind",
			expected: "Sapiens - A Brief History of Humankind",
		},
		{
			name:     "replaces invalid characters with dash",
			input:    `a/b\c?d*e|f"g<h>i`,
			expected: "a-b-c-d-e-f-g-h-i",
		},
		{
			name:     "replaces newlines and tabs with spaces",
			input:    "file\nname\twith\rspaces",
			expected: "file name with spaces",
		},
		{
			name:     "collapses multiple spaces",
			input:    "file   name  with    spaces",
			expected: "file name with spaces",
		},
		{
			name:     "drops control characters",
			input:    "bell\x07title",
			expected: "belltitle",
		},
		{
			name:     "trims whitespace",
			input:    "  filename  ",
			expected: "filename",
		},
		{
			name:     "returns Untitled for empty",
			input:    "",
			expected: "Untitled",
		},
		{
			name:     "returns Untitled for whitespace only",
			input:    "   ",
			expected: "Untitled",
		},
		{
			name:     "composes decomposed accents",
			input:    "Cafe\u0301",
			expected: "Caf\u00e9",
		},
		{
			name:     "preserves unicode",
			input:    "Война и мир",
			expected: "Война и мир",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestSanitizeFilename_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		":",
		" : ",
		"x :",
		"a::b",
		`Title: "Quoted" <Angle> / Slash \ Back`,
		"  leading and trailing  ",
		"tab\t\tand\nnewline",
		"Cafe\u0301 \u00a0 nbsp",
		"\x01\x02",
		strings.Repeat("long title ", 40),
	}

	for _, input := range inputs {
		once := SanitizeFilename(input)
		twice := SanitizeFilename(once)
		assert.Equal(t, once, twice, "input %q", input)
		assert.NotContains(t, once, ":")
		assert.False(t, strings.ContainsAny(once, `/\?*|"<>`), "input %q produced %q", input, once)
		assert.NotEmpty(t, once)
	}
}

func TestSanitizeFilename_LimitsLength(t *testing.T) {
	result := SanitizeFilename(strings.Repeat("ж", 300))
	assert.Equal(t, 200, len([]rune(result)))
}

func TestGenerateFilename(t *testing.T) {
	assert.Equal(t, "Atomic Habits - James Clear.md", GenerateFilename("Atomic Habits", "James Clear"))
	assert.Equal(t, "Sapiens - A Brief History - Yuval Noah Harari.md", GenerateFilename("Sapiens: A Brief History", "Yuval Noah Harari"))
	assert.Equal(t, "Untitled - Untitled.md", GenerateFilename("  ", ""))
}
