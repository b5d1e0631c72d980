package back

import (
	"math"
)

// Rating engine knobs. The deltas a single match can apply are clamped to
// the [RatingDeltaMin, RatingDeltaMax] band per side.
const (
	RatingDeltaMin      = 15
	RatingDeltaMax      = 100
	RatingFallbackDelta = 25 // applied when a team is empty, never derived

	// upsetGapThreshold classifies favorite vs. upset wins, in MMR points
	// between team means.
	upsetGapThreshold = 100
)

// Classification labels, for reporting only.
const (
	ClassificationExpected = "Expected Victory"
	ClassificationUpset    = "UPSET VICTORY!"
	ClassificationBalanced = "Balanced Match"
	ClassificationTie      = "Tie"
	ClassificationFallback = "Fallback"
)

// A RatingChange is the outcome of the rating computation for one settled
// match. Winner and Loser are the signed per-player deltas, the rest is
// reporting material.
type RatingChange struct {
	Winner int
	Loser  int

	Gap                    float64 // winner mean minus loser mean
	ExpectedWinProbability float64
	Classification         string
}

// kFactor is the magnitude coefficient of a single match result: players in
// placement or with few games move fast, high-rated veterans barely move.
func kFactor(p Player) float64 {
	switch {
	case p.InPlacement():
		return 80
	case p.GamesPlayed() < 10:
		return 40
	case p.MMR < 800:
		return 30
	case p.MMR < 1050:
		return 25
	case p.MMR < 1300:
		return 20
	default:
		return 15
	}
}

func teamMeanMMR(team []Player) float64 {
	sum := 0
	for _, p := range team {
		sum += p.MMR
	}

	return float64(sum) / float64(len(team))
}

func teamMeanK(team []Player) float64 {
	sum := 0.0
	for _, p := range team {
		sum += kFactor(p)
	}

	return sum / float64(len(team))
}

// ComputeRatingChange computes the rating deltas for a finished match. It is
// a pure function of the given player snapshots, applying the result to the
// players and the store is the lifecycle's job.
//
// The expectation is the Elo logistic curve on the gap between team means,
// P = 1 / (1 + 10^((loserMean-winnerMean)/400)), scaled by the team mean
// K-factor, then dampened when the favorite wins and amplified on upsets.
func ComputeRatingChange(team1, team2 []Player, outcome MatchOutcome) RatingChange {
	if outcome == MatchOutcomeTie {
		return RatingChange{Classification: ClassificationTie, ExpectedWinProbability: 0.5}
	}

	winners, losers := team1, team2
	if outcome == MatchOutcomeTeam2 {
		winners, losers = team2, team1
	}

	// guard against a malformed match rather than divide by zero
	if len(winners) == 0 || len(losers) == 0 {
		return RatingChange{
			Winner:         RatingFallbackDelta,
			Loser:          -RatingFallbackDelta,
			Classification: ClassificationFallback,
		}
	}

	winnerMean := teamMeanMMR(winners)
	loserMean := teamMeanMMR(losers)
	gap := winnerMean - loserMean

	expected := 1 / (1 + math.Pow(10, (loserMean-winnerMean)/400))

	winnerChange := teamMeanK(winners) * (1 - expected)
	loserChange := -teamMeanK(losers) * (1 - expected)

	classification := ClassificationBalanced
	switch {
	case gap > upsetGapThreshold:
		// the favorite won, nothing surprising happened
		winnerChange *= 0.7
		loserChange *= 0.8
		classification = ClassificationExpected
	case gap < -upsetGapThreshold:
		winnerChange *= 1.5
		loserChange *= 1.3
		classification = ClassificationUpset
	}

	// a low-rated side toppling a moderately stronger one grows faster, a
	// high-rated side losing down pays extra
	if winnerMean < 1000 && gap > 50 {
		winnerChange *= 1.2
	}
	if loserMean > 1400 && gap < -50 {
		loserChange *= 1.2
	}

	return RatingChange{
		Winner:                 clampDelta(winnerChange),
		Loser:                  -clampDelta(-loserChange),
		Gap:                    gap,
		ExpectedWinProbability: expected,
		Classification:         classification,
	}
}

// clampDelta rounds a positive magnitude into the configured band, flooring
// tiny deltas up to the minimum instead of letting them round to zero.
func clampDelta(v float64) int {
	magnitude := int(math.Round(v))
	if magnitude < RatingDeltaMin {
		return RatingDeltaMin
	}
	if magnitude > RatingDeltaMax {
		return RatingDeltaMax
	}

	return magnitude
}
