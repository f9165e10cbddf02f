package ledger

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	domain "github.com/bryanwahyu/gradebench/internal/domain/verdicts"
)

const (
	batchPrefix = "---"
	separator   = "|"
)

// BatchHeader is the line that opens a batch in the flat log.
func BatchHeader(dirName string) string {
	return fmt.Sprintf("\n--- DATA BATCH FROM DIR: %s ---\n", dirName)
}

// FormatLine renders one record as a padded flat log line. Padding is for
// humans only; readers split on the separator.
func FormatLine(r domain.Record) string {
	return fmt.Sprintf("%-20s | %-60s | %-10s\n", r.Directory, r.Filename, r.Verdict)
}

// ParseLine decodes a flat log line. Batch headers, blank lines and lines
// without a separator report false.
func ParseLine(line string) (domain.Record, bool) {
	if strings.HasPrefix(line, batchPrefix) || !strings.Contains(line, separator) {
		return domain.Record{}, false
	}
	parts := strings.SplitN(line, separator, 3)
	if len(parts) < 3 {
		return domain.Record{}, false
	}
	return domain.Record{
		Directory: strings.TrimSpace(parts[0]),
		Filename:  strings.TrimSpace(parts[1]),
		Verdict:   strings.TrimSpace(parts[2]),
	}, true
}

// EncodeBatch renders a batch header followed by one line per record.
func EncodeBatch(dirName string, records []domain.Record) []byte {
	var buf bytes.Buffer
	buf.WriteString(BatchHeader(dirName))
	for _, r := range records {
		buf.WriteString(FormatLine(r))
	}
	return buf.Bytes()
}

// Append writes a batch to the log at path, creating it if needed. Existing
// content is never rewritten. Callers serialize concurrent appends.
func Append(path, dirName string, records []domain.Record) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log %s: %w", path, err)
	}
	if _, err := f.Write(EncodeBatch(dirName, records)); err != nil {
		f.Close()
		return fmt.Errorf("appending to log %s: %w", path, err)
	}
	return f.Close()
}

// Decode reads every data line from r, skipping headers and malformed lines.
// Lines have no length limit.
func Decode(r io.Reader) ([]domain.Record, error) {
	var out []domain.Record
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if rec, ok := ParseLine(strings.TrimRight(line, "\r\n")); ok {
				out = append(out, rec)
			}
		}
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// Read decodes the log at path. A missing file surfaces as os.ErrNotExist.
func Read(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading log %s: %w", path, err)
	}
	return recs, nil
}
