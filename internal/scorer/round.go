package scorer

import "math"

// roundUpAt is the fractional part at or above which RoundMatchScore rounds up.
const roundUpAt = 0.6

// RoundMatchScore rounds score with a 0.6 midpoint: 9.5 becomes 9 and 9.6
// becomes 10. The fraction is compared at 1e-9 precision so values such as
// 9.6 stored as 9.5999999 still round up.
func RoundMatchScore(score float64) int {
	whole := math.Floor(score)
	frac := math.Round((score-whole)*1e9) / 1e9
	if frac >= roundUpAt {
		return int(whole) + 1
	}
	return int(whole)
}
