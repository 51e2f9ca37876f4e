package segmenter

import "regexp"

// Matches watch?v=, embed/, v/, youtu.be/ and channel-path URLs, capturing
// the 11-character video ID up to the next URL-significant delimiter.
var videoIDRegex = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/ ]{11})`)

// ExtractVideoID pulls the video identifier out of any of the usual YouTube
// URL shapes. The second return is false when the input does not contain a
// recognizable video ID; that is expected for bad user input, not a bug.
func ExtractVideoID(rawURL string) (string, bool) {
	m := videoIDRegex.FindStringSubmatch(rawURL)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}
