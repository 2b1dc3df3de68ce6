package state

import (
	"fmt"

	"github.com/psinfinity/infinitychain/foundation/infinitychain/database"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/merkle"
)

// VerifyResult reports the outcome of a chain audit. Every discrepancy is
// collected; the walk never stops at the first failure. Discrepancies are
// reported, never auto-repaired.
type VerifyResult struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// VerifyChain replays the stored chain, recomputing every block hash and
// merkle root and confirming the previous-hash linkage. Read-only; safe to
// run concurrently with chain writes.
func (s *State) VerifyChain() (VerifyResult, error) {
	height, err := s.db.Height()
	if err != nil {
		return VerifyResult{}, err
	}

	issues := []string{}
	previousHash := database.GenesisHash

	for h := uint64(0); h < height; h++ {
		block, err := s.db.GetBlock(h)
		if err != nil {
			issues = append(issues, fmt.Sprintf("block %d: unreadable: %s", h, err))
			continue
		}

		if hash := block.ComputeHash(); hash != block.Hash {
			issues = append(issues, fmt.Sprintf("block %d: hash mismatch: stored %s recomputed %s", h, block.Hash, hash))
		}

		if root := merkle.ComputeRoot(block.Transactions); root != block.MerkleRoot {
			issues = append(issues, fmt.Sprintf("block %d: merkle root mismatch: stored %s recomputed %s", h, block.MerkleRoot, root))
		}

		if block.PreviousHash != previousHash {
			issues = append(issues, fmt.Sprintf("block %d: previous hash mismatch: stored %s expected %s", h, block.PreviousHash, previousHash))
		}

		previousHash = block.Hash
	}

	return VerifyResult{
		Valid:  len(issues) == 0,
		Issues: issues,
	}, nil
}
