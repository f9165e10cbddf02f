package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bryanwahyu/gradebench/internal/domain/chat"
)

var turnSeparator = strings.Repeat("-", 51) + "\n\n"

// EncodeTranscript renders conversations in the FullChats format, one block per turn.
func EncodeTranscript(histories ...[]chat.Message) []byte {
	var buf bytes.Buffer
	for _, h := range histories {
		for _, m := range h {
			fmt.Fprintf(&buf, "********** %s ********** \n\n", m.Role)
			fmt.Fprintf(&buf, "\t %s\n\n", m.Content)
			buf.WriteString(turnSeparator)
		}
	}
	return buf.Bytes()
}

// WriteTranscript overwrites path with the rendered conversations.
func WriteTranscript(path string, histories ...[]chat.Message) error {
	return writeFile(path, EncodeTranscript(histories...))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
