package ledger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	domain "github.com/bryanwahyu/gradebench/internal/domain/verdicts"
)

var reportRule = strings.Repeat("-", 110)

// WriteReport renders one section per group, in the order given.
func WriteReport(w io.Writer, groups []domain.Group) error {
	bw := bufio.NewWriter(w)
	for _, g := range groups {
		fmt.Fprintf(bw, "\n======= GROUP: %s =======\n", g.Key.Title())
		fmt.Fprintf(bw, "%-30s | %-65s | %s\n", "DIRECTORY", "FILENAME", "VERDICT")
		fmt.Fprintln(bw, reportRule)
		for _, r := range g.Records {
			fmt.Fprintf(bw, "%-30s | %-65s | %s\n", r.Directory, r.Filename, r.Verdict)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

// WriteReportFile overwrites path with the rendered report.
func WriteReportFile(path string, groups []domain.Group) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report %s: %w", path, err)
	}
	if err := WriteReport(f, groups); err != nil {
		f.Close()
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return f.Close()
}
