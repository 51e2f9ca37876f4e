package segmenter

import (
	"regexp"
	"strings"
)

// Candidate is a chapter marker lifted from one description line: the start
// offset plus the label that follows the time code. Candidates keep their
// document order, which is treated as chronological; the scanner never
// re-sorts them.
type Candidate struct {
	StartSeconds int
	Title        string
}

var (
	leadingTimecodeRegex = regexp.MustCompile(`^\s*(\d{1,2}:)?\d{1,2}:\d{2}`)
	separatorRunRegex    = regexp.MustCompile(`^[\s\-–—]+`)
)

// ScanDescription walks the description line by line and collects every line
// that begins with a time code. The matched time code is stripped from the
// line along with any run of separators (spaces, hyphens, dashes) to obtain
// the title; a bare time code with no label is not a chapter marker and is
// dropped. An empty result is a valid outcome, not an error.
func ScanDescription(description string) []Candidate {
	var candidates []Candidate
	for _, line := range strings.Split(description, "\n") {
		match := leadingTimecodeRegex.FindString(line)
		if match == "" {
			continue
		}
		timecode := strings.TrimSpace(match)

		title := strings.Replace(line, timecode, "", 1)
		title = separatorRunRegex.ReplaceAllString(title, "")
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}

		candidates = append(candidates, Candidate{
			StartSeconds: ParseTimecode(timecode),
			Title:        title,
		})
	}
	return candidates
}
