package verdicts

import "regexp"

var verdictRx = regexp.MustCompile(`VERDICT:\s*(\d+\.?\d*)`)

// Extract returns the numeric token of the first well-formed "VERDICT:" marker
// in text. The marker is case-sensitive; a marker not followed by a number is
// ignored and scanning continues.
func Extract(text string) (string, bool) {
	m := verdictRx.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}
