package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Problem is one exam item. Answer holds the grading rubric.
type Problem struct {
	ID      string `json:"id,omitempty"`
	Subject string `json:"subject"`
	Problem string `json:"problem"`
	Answer  string `json:"answer"`
}

// DecodeProblems reads one JSON object per line. Blank lines are ignored.
func DecodeProblems(r io.Reader) ([]Problem, error) {
	var out []Problem
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for s.Scan() {
		line++
		text := strings.TrimSpace(s.Text())
		if text == "" {
			continue
		}
		var p Problem
		if err := json.Unmarshal([]byte(text), &p); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, p)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func LoadProblems(path string) ([]Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	problems, err := DecodeProblems(f)
	if err != nil {
		return nil, fmt.Errorf("reading problems %s: %w", path, err)
	}
	return problems, nil
}

// SampleBySubject keeps the first n problems of every subject, in input order.
func SampleBySubject(problems []Problem, n int) []Problem {
	counts := make(map[string]int)
	var out []Problem
	for _, p := range problems {
		if counts[p.Subject] < n {
			out = append(out, p)
			counts[p.Subject]++
		}
	}
	return out
}
