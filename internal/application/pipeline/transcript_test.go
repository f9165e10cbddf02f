package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/gradebench/internal/domain/chat"
)

func TestEncodeTranscript(t *testing.T) {
	got := string(EncodeTranscript([]chat.Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}))
	want := "********** user ********** \n\n" +
		"\t hi\n\n" +
		"---------------------------------------------------\n\n" +
		"********** assistant ********** \n\n" +
		"\t hello\n\n" +
		"---------------------------------------------------\n\n"
	assert.Equal(t, want, got)
}

func TestWriteTranscriptCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "FullChats", "x.txt")
	require.NoError(t, WriteTranscript(path, nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}
