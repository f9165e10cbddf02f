package verdicts

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// SubjectMatcher recovers a GroupKey from free-form file names such as
// "openai_gpt-5_biology_4_web_disabled.txt".
type SubjectMatcher struct {
	rx       *regexp.Regexp
	subjects []string
}

// NewSubjectMatcher builds a matcher for the given vocabulary. Matching is
// case-insensitive; keys always carry the lower-cased subject.
func NewSubjectMatcher(subjects []string) (*SubjectMatcher, error) {
	var vocab, alts []string
	seen := make(map[string]bool, len(subjects))
	for _, s := range subjects {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		vocab = append(vocab, s)
		alts = append(alts, regexp.QuoteMeta(s))
	}
	if len(alts) == 0 {
		return nil, errors.New("subject vocabulary is empty")
	}
	rx, err := regexp.Compile(`(?i)(` + strings.Join(alts, "|") + `)_(\d+)`)
	if err != nil {
		return nil, err
	}
	return &SubjectMatcher{rx: rx, subjects: vocab}, nil
}

// Subjects returns the normalized vocabulary.
func (m *SubjectMatcher) Subjects() []string {
	return append([]string(nil), m.subjects...)
}

// Match finds the first <subject>_<digits> occurrence in filename. The id is
// numeric, so leading zeros are dropped ("biology_04" and "biology_4" share a
// key). An id that overflows int has no key and the record is left out of
// grouping.
func (m *SubjectMatcher) Match(filename string) (GroupKey, bool) {
	sm := m.rx.FindStringSubmatch(filename)
	if sm == nil {
		return GroupKey{}, false
	}
	id, err := strconv.Atoi(sm[2])
	if err != nil {
		// id does not fit in an int
		return GroupKey{}, false
	}
	return GroupKey{Subject: strings.ToLower(sm[1]), ID: id}, true
}
