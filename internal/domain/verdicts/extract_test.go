package verdicts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{"decimal", "reasoning...\nVERDICT: 7.5", "7.5", true},
		{"integer", "VERDICT: 8", "8", true},
		{"no space", "VERDICT:3", "3", true},
		{"extra whitespace", "VERDICT: \t 2.25\n", "2.25", true},
		{"trailing dot", "VERDICT: 4.", "4.", true},
		{"in the middle", "before VERDICT: 7.5 after", "7.5", true},
		{"first wins", "VERDICT: 1\nVERDICT: 9", "1", true},
		{"malformed then valid", "VERDICT: ten\nVERDICT: 6", "6", true},
		{"malformed only", "VERDICT: ten points", "", false},
		{"lowercase marker", "verdict: 5", "", false},
		{"no marker", "the answer scores well", "", false},
		{"empty", "", "", false},
		{"negative sign ignored", "VERDICT: -3", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractBinaryInput(t *testing.T) {
	got, ok := Extract("\x00\xff\xfeVERDICT:\x00")
	assert.False(t, ok)
	assert.Empty(t, got)
}
