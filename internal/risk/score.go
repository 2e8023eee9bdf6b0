// Package risk turns a classifier analysis into a 0-10 severity score.
package risk

import (
	"github.com/leakwatch/leakwatch/internal/model"
)

// MaxScore is the upper bound of the risk scale.
const MaxScore = 10

// Score computes the deterministic risk score for an analysis.
//
// The weights are evaluated in a fixed order so results are reproducible:
// +5 for personal data, +8 for secrets, +3 for code, +2 when the total match
// count exceeds 5, and a further +3 when it exceeds 10. The sum is clamped
// to [0, MaxScore]. The same analysis always produces the same score.
func Score(a model.Analysis) int {
	score := 0
	if a.HasPersonalData {
		score += 5
	}
	if a.HasSecrets {
		score += 8
	}
	if a.HasCode {
		score += 3
	}
	if a.TotalMatchCount > 5 {
		score += 2
	}
	if a.TotalMatchCount > 10 {
		score += 3
	}
	if score > MaxScore {
		score = MaxScore
	}
	if score < 0 {
		score = 0
	}
	return score
}
