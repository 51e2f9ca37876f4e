package segmenter

import (
	"regexp"
	"strconv"
	"strings"
)

// ParseTimecode converts a colon-separated time code ("H:MM:SS" or "M:SS")
// into total seconds. Any other field count decodes to 0 rather than erroring;
// the scanner only feeds it tokens its own regex already matched.
func ParseTimecode(ts string) int {
	parts := strings.Split(ts, ":")
	switch len(parts) {
	case 3:
		return atoi(parts[0])*3600 + atoi(parts[1])*60 + atoi(parts[2])
	case 2:
		return atoi(parts[0])*60 + atoi(parts[1])
	default:
		return 0
	}
}

var isoDurationRegex = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// ParseISODuration decodes an ISO-8601 duration restricted to PT#H#M#S into
// total seconds. Absent components count as zero, so "PT15M" is 900 and
// "PT0S" is 0. A string with no PT prefix at all does not match and returns
// a MalformedDurationError instead of silently decoding to 0.
func ParseISODuration(dur string) (int, error) {
	m := isoDurationRegex.FindStringSubmatch(dur)
	if m == nil {
		return 0, &MalformedDurationError{Duration: dur}
	}
	return atoi(m[1])*3600 + atoi(m[2])*60 + atoi(m[3]), nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
