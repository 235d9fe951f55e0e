package club

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned by Score when the inputs fall outside the
// recognized domain: a negative distance, or a price/difficulty value that
// is set but not part of its enumeration. Sparse-but-valid data never
// produces an error.
var ErrInvalidInput = errors.New("invalid scoring input")

// Component weights of the recommendation score. They sum to 1.0, which
// keeps the blended score naturally bounded to [0, 100].
const (
	weightDistance   = 0.25
	weightPrice      = 0.25
	weightDifficulty = 0.20
	weightAmenities  = 0.15
	weightServices   = 0.15
)

// maxScoredDistanceMiles is the distance beyond which the distance
// component contributes nothing.
const maxScoredDistanceMiles = 100.0

// techBonusPerMatch is the additive credit for each technology the club
// offers that the golfer asked for. It sits outside the five weighted
// components; the final score is clamped to 100.
const techBonusPerMatch = 3.0

// Score computes the [0, 100] recommendation score for a club at the given
// distance against a golfer's preferences. It is a pure function: no side
// effects, identical inputs yield identical output.
//
// When the golfer has no price and no difficulty preference the weighted
// blend is skipped and the pure distance score is returned on the full
// 0-100 scale. This is the documented fallback for incomplete profiles.
func Score(c *Club, distanceMiles float64, prefs *GolferPreferences) (float64, error) {
	if distanceMiles < 0 {
		return 0, fmt.Errorf("%w: negative distance %f", ErrInvalidInput, distanceMiles)
	}
	if !c.PriceTier.Valid() {
		return 0, fmt.Errorf("%w: unrecognized price tier %q", ErrInvalidInput, c.PriceTier)
	}
	if !c.Difficulty.Valid() {
		return 0, fmt.Errorf("%w: unrecognized difficulty %q", ErrInvalidInput, c.Difficulty)
	}

	if prefs == nil {
		prefs = &GolferPreferences{}
	}
	if !prefs.PriceTier.Valid() {
		return 0, fmt.Errorf("%w: unrecognized preferred price tier %q", ErrInvalidInput, prefs.PriceTier)
	}
	if !prefs.Difficulty.Valid() {
		return 0, fmt.Errorf("%w: unrecognized preferred difficulty %q", ErrInvalidInput, prefs.Difficulty)
	}

	dist := distanceScore(distanceMiles)

	// Incomplete profile fallback: nothing to blend against, so distance
	// alone decides.
	if prefs.PriceTier == "" && prefs.Difficulty == "" {
		return round2(dist), nil
	}

	score := weightDistance * dist
	score += weightPrice * ordinalScore(c.PriceTier.Level(), prefs.PriceTier.Level())
	score += weightDifficulty * ordinalScore(c.Difficulty.Level(), prefs.Difficulty.Level())
	score += weightAmenities * matchRatio(c.Amenities.flags(), prefs.Amenities.flags())
	score += weightServices * serviceMatchRatio(c.Services.flags(), prefs.Services.flags())

	if len(prefs.Technologies) > 0 && len(c.Technologies) > 0 {
		score += techBonusPerMatch * float64(technologyMatches(c.Technologies, prefs.Technologies))
	}

	if score > 100 {
		score = 100
	}
	return round2(score), nil
}

// distanceScore maps miles to [0, 100] with linear decay; anything at or
// beyond maxScoredDistanceMiles scores 0.
func distanceScore(miles float64) float64 {
	if miles > maxScoredDistanceMiles {
		miles = maxScoredDistanceMiles
	}
	return (1 - miles/maxScoredDistanceMiles) * 100
}

// ordinalScore awards full credit for an exact level match, half credit
// for an adjacent level, and nothing otherwise. A zero level on either
// side (unset or unrecognized) contributes nothing.
func ordinalScore(clubLevel, wantLevel int) float64 {
	if clubLevel == 0 || wantLevel == 0 {
		return 0
	}
	switch diff := clubLevel - wantLevel; {
	case diff == 0:
		return 100
	case diff == 1 || diff == -1:
		return 50
	}
	return 0
}

// matchRatio returns the percentage of wanted amenity flags the club has.
// Only flags true on both sides count; a wanted flag the club lacks earns
// zero for that flag, never a penalty. Wanting nothing contributes 0.
func matchRatio(have, want [6]bool) float64 {
	wanted, matched := 0, 0
	for i := range want {
		if !want[i] {
			continue
		}
		wanted++
		if have[i] {
			matched++
		}
	}
	if wanted == 0 {
		return 0
	}
	return float64(matched) / float64(wanted) * 100
}

// serviceMatchRatio is matchRatio over the five service flags.
func serviceMatchRatio(have, want [5]bool) float64 {
	wanted, matched := 0, 0
	for i := range want {
		if !want[i] {
			continue
		}
		wanted++
		if have[i] {
			matched++
		}
	}
	if wanted == 0 {
		return 0
	}
	return float64(matched) / float64(wanted) * 100
}

// technologyMatches counts technology names present on both sides.
func technologyMatches(have, want []string) int {
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}
	n := 0
	for _, t := range want {
		if _, ok := set[t]; ok {
			n++
		}
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
