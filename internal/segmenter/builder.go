package segmenter

import "coursetaker-backend/internal/models"

// BuildSegments derives segment boundaries from an ordered candidate list.
// Each candidate runs until the next candidate's start; the last runs until
// the total video duration. Mutable fields start at their defaults.
//
// Out-of-order or duplicate start times are kept exactly as authored, so a
// derived duration can be zero or negative. The builder does not repair
// user-authored chapter lists.
func BuildSegments(candidates []Candidate, totalDurationSeconds int) []models.Segment {
	segments := make([]models.Segment, len(candidates))
	for i, c := range candidates {
		end := totalDurationSeconds
		if i < len(candidates)-1 {
			end = candidates[i+1].StartSeconds
		}
		segments[i] = models.Segment{
			StartSeconds:    c.StartSeconds,
			EndSeconds:      end,
			DurationSeconds: end - c.StartSeconds,
			Title:           c.Title,
			Completed:       false,
			Notes:           "",
		}
	}
	return segments
}
