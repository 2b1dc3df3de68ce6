// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date           time.Time         `json:"date"`
	ChainID        string            `json:"chain_id"`        // Unique id for this running chain instance.
	BaseDifficulty float64           `json:"base_difficulty"` // Starting number of leading 0's needed to solve the work problem.
	MinimumStake   uint64            `json:"minimum_stake"`   // Smallest stake accepted when registering a validator.
	FallbackWindow int               `json:"fallback_window"` // Number of recent ledger entries mined when the mempool is empty.
	NonceCeiling   uint64            `json:"nonce_ceiling"`   // Upper bound on the proof search before the attempt is failed.
	MiningBudget   int               `json:"mining_budget"`   // Wall-clock budget in seconds for a single proof search.
	Balances       map[string]uint64 `json:"balances"`        // Starting wallet balances for known identities.
}

// Budget returns the mining wall-clock budget as a duration.
func (g Genesis) Budget() time.Duration {
	return time.Duration(g.MiningBudget) * time.Second
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	return applyDefaults(genesis), nil
}

// applyDefaults fills the policy knobs a genesis file may leave out.
func applyDefaults(g Genesis) Genesis {
	if g.BaseDifficulty == 0 {
		g.BaseDifficulty = 2
	}
	if g.MinimumStake == 0 {
		g.MinimumStake = 100
	}
	if g.FallbackWindow == 0 {
		g.FallbackWindow = 50
	}
	if g.NonceCeiling == 0 {
		g.NonceCeiling = 10_000
	}
	if g.MiningBudget == 0 {
		g.MiningBudget = 10
	}
	return g
}
