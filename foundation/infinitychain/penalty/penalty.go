// Package penalty implements the anti-concentration policy: reward
// penalties and forced stake redistribution for validators holding a
// disproportionate share of the total stake.
//
// The tier thresholds and the consecutive-block ramp are design parameters
// chosen to discourage centralization, not quantities derived from any
// security model. They are open to tuning.
package penalty

import (
	"fmt"
	"math"
)

// maxPenalty bounds the total penalty so a validator always keeps some
// fraction of the reward.
const maxPenalty = 0.95

// consecutiveRamp is added to the penalty for every back-to-back block the
// same validator mines.
const consecutiveRamp = 0.15

// Result describes the penalty applied to one mining attempt.
type Result struct {
	Penalty        float64 `json:"penalty"`
	Redistribution uint64  `json:"redistribution"`
	Reason         string  `json:"reason"`
}

// Compute determines the reward penalty and forced redistribution for a
// validator holding the specified stake. The highest applicable
// concentration tier wins; the consecutive-block ramp is added on top and
// the total is clamped to [0, 0.95].
func Compute(validatorStake uint64, totalStake uint64, consecutiveBlocks int) Result {
	var stakePercent float64
	if totalStake > 0 {
		stakePercent = float64(validatorStake) / float64(totalStake) * 100
	}

	var penalty float64
	var redistribution uint64
	var reason string

	switch {
	case stakePercent > 50:
		penalty = 0.75
		redistribution = uint64(math.Floor(float64(validatorStake) * 0.10))
		reason = fmt.Sprintf("stake share %.1f%% above 50%%", stakePercent)
	case stakePercent > 25:
		penalty = 0.50
		redistribution = uint64(math.Floor(float64(validatorStake) * 0.05))
		reason = fmt.Sprintf("stake share %.1f%% above 25%%", stakePercent)
	case stakePercent > 10:
		penalty = 0.25
		redistribution = uint64(math.Floor(float64(validatorStake) * 0.02))
		reason = fmt.Sprintf("stake share %.1f%% above 10%%", stakePercent)
	default:
		reason = fmt.Sprintf("stake share %.1f%% below concentration thresholds", stakePercent)
	}

	if consecutiveBlocks > 0 {
		penalty += consecutiveRamp * float64(consecutiveBlocks)
		reason = fmt.Sprintf("%s, %d consecutive blocks", reason, consecutiveBlocks)
	}

	if penalty > maxPenalty {
		penalty = maxPenalty
	}
	if penalty < 0 {
		penalty = 0
	}

	return Result{
		Penalty:        penalty,
		Redistribution: redistribution,
		Reason:         reason,
	}
}

// =============================================================================

// Staker is the snapshot of an active validator used to weight a
// redistribution round.
type Staker struct {
	Identity string
	Stake    uint64
}

// Allocation is one recipient's share of a redistribution round.
type Allocation struct {
	Identity string `json:"identity"`
	Amount   uint64 `json:"amount"`
}

// Redistribute splits the pool across the stakers, weighting each by
// 1/max(stake,1) so smaller stakes receive proportionally more. Each
// allocation is floored to an integer and zero allocations are skipped.
// The pool is consumed exactly once per call; flooring remainders are not
// paid out.
//
// Fairness concern: a validator with zero or near-zero stake draws an
// outsized weight from this scheme. The behavior is preserved as designed
// rather than silently corrected.
func Redistribute(pool uint64, stakers []Staker) []Allocation {
	if pool == 0 || len(stakers) == 0 {
		return nil
	}

	weights := make([]float64, len(stakers))
	var totalWeight float64
	for i, staker := range stakers {
		stake := staker.Stake
		if stake < 1 {
			stake = 1
		}
		weights[i] = 1 / float64(stake)
		totalWeight += weights[i]
	}

	var allocations []Allocation
	for i, staker := range stakers {
		amount := uint64(math.Floor(float64(pool) * weights[i] / totalWeight))
		if amount == 0 {
			continue
		}

		allocations = append(allocations, Allocation{
			Identity: staker.Identity,
			Amount:   amount,
		})
	}

	return allocations
}
