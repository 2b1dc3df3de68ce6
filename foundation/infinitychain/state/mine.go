package state

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/psinfinity/infinitychain/foundation/infinitychain/database"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/hashing"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/merkle"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/penalty"
)

// Set of mining errors surfaced to callers. None of them are retried
// internally; the caller may issue a new mine request later.
var (
	ErrNotRegistered        = errors.New("validator is not registered")
	ErrNotActive            = errors.New("validator is not active")
	ErrNoTransactions       = errors.New("no transactions available to mine")
	ErrProofSearchExhausted = database.ErrProofExhausted
)

// baseReward is the reward floor for mining any block; every five
// transactions in the block add one credit before the penalty applies.
const baseReward = 10

// MineBlock runs one block-production cycle for the requesting validator:
// penalty computation, transaction selection, merkle root, proof search,
// persistence, redistribution and reward. The whole cycle holds the chain
// lock; the proof search is additionally bounded by the genesis mining
// budget.
func (s *State) MineBlock(ctx context.Context, identity string) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: MineBlock: MINING: validator[%s]: check eligibility", identity)

	v, err := s.db.GetValidator(identity)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return database.Block{}, ErrNotRegistered
		}
		return database.Block{}, err
	}
	if v.Status != database.StatusActive {
		return database.Block{}, ErrNotActive
	}

	totalStake, err := s.db.TotalActiveStake()
	if err != nil {
		return database.Block{}, err
	}

	// A validator mining back-to-back grows its consecutive count; any
	// other identity mining in between resets it to zero.
	lastValidator, err := s.db.LastValidator()
	if err != nil {
		return database.Block{}, err
	}
	consecutive := 0
	if lastValidator == identity {
		consecutive = v.ConsecutiveBlocks + 1
	}

	pen := penalty.Compute(v.Stake, totalStake, consecutive)
	s.evHandler("state: MineBlock: MINING: penalty[%.2f] redistribution[%d]: %s", pen.Penalty, pen.Redistribution, pen.Reason)

	// Select transactions: drain the mempool, falling back to the most
	// recent ledger entries when it is empty. The fallback is policy, not
	// an error.
	drained := s.mempool.DrainAll()
	ids := make([]string, len(drained))
	for i, tx := range drained {
		ids[i] = tx.EventID
	}
	if len(ids) == 0 {
		ids, err = s.db.RecentEntryIDs(s.genesis.FallbackWindow)
		if err != nil {
			return database.Block{}, err
		}
		s.evHandler("state: MineBlock: MINING: mempool empty: fallback entries[%d]", len(ids))
	}
	if len(ids) == 0 {
		return database.Block{}, ErrNoTransactions
	}

	// Anything that fails from here must put the drained transactions
	// back so they are not lost.
	restore := func() {
		s.mempool.Restore(drained)
	}

	root := merkle.ComputeRoot(ids)
	inf := s.hardening.Snapshot()

	// The iterated hash of the root is recorded for observability; the
	// proof target below works on the block hash, not on this digest.
	s.evHandler("state: MineBlock: MINING: root[%s] pssha[%s]", root, hashing.PSShaInfinity(root, inf.InfinityFactor, 0))

	reward := uint64(math.Floor(float64(baseReward+len(ids)/5) * (1 - pen.Penalty)))

	height, err := s.db.Height()
	if err != nil {
		restore()
		return database.Block{}, err
	}
	previousHash, err := s.db.LastBlockHash()
	if err != nil {
		restore()
		return database.Block{}, err
	}

	block := database.Block{
		Height:               height,
		PreviousHash:         previousHash,
		Timestamp:            uint64(time.Now().UTC().Unix()),
		Transactions:         ids,
		MerkleRoot:           root,
		Validator:            identity,
		Difficulty:           s.hardening.Difficulty(),
		Size:                 len(ids),
		Reward:               reward,
		InfinityFactor:       inf.InfinityFactor,
		ConcentrationPenalty: pen.Penalty,
		AttacksAbsorbed:      inf.AttacksDetected,
	}

	s.evHandler("state: MineBlock: MINING: perform proof search: difficulty[%d]", block.Difficulty)

	ctx, cancel := context.WithTimeout(ctx, s.genesis.Budget())
	defer cancel()

	if err := block.PerformProof(ctx, s.genesis.NonceCeiling); err != nil {
		restore()
		return database.Block{}, err
	}

	s.evHandler("state: MineBlock: MINING: SOLVED: height[%d] nonce[%d] hash[%s]", block.Height, block.Nonce, block.Hash)

	// Persist the block before any pointer moves.
	if err := s.db.SaveBlock(block); err != nil {
		restore()
		return database.Block{}, err
	}
	if err := s.db.AdvanceChain(block); err != nil {
		return database.Block{}, err
	}

	// The drained transactions are confirmed now; drop their mempool keys.
	for _, tx := range drained {
		if err := s.db.DeleteTx(tx.ID); err != nil {
			s.evHandler("state: MineBlock: WARNING: delete mempool tx[%s]: %s", tx.ID, err)
		}
	}

	// Concentration debit and immediate redistribution.
	if pen.Redistribution > 0 {
		if err := s.redistribute(identity, pen.Redistribution, pen.Reason); err != nil {
			return database.Block{}, err
		}
	}

	// Reward the validator and update its bookkeeping.
	if err := s.db.CreditWallet(identity, reward); err != nil {
		return database.Block{}, err
	}
	if _, err := s.db.RecordBlockMined(identity, consecutive, lastValidator); err != nil {
		return database.Block{}, err
	}

	if _, err := s.appendEntry(identity, "mined", block.Hash, "blockchain", map[string]any{
		"height":  block.Height,
		"size":    block.Size,
		"reward":  block.Reward,
		"penalty": pen.Penalty,
	}); err != nil {
		return database.Block{}, err
	}

	if err := s.db.SaveInfinityState(s.hardening.Snapshot()); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// redistribute debits the penalized validator, moves the amount through
// the pool and pays it out across the active validators weighted toward
// smaller stakes. The pool is consumed exactly once. Callers must hold
// the state lock.
func (s *State) redistribute(identity string, amount uint64, reason string) error {
	if _, err := s.db.ApplyRedistributionDebit(identity, amount); err != nil {
		return err
	}
	s.hardening.AddToPool(amount)

	pool := s.hardening.DrainPool()

	validators, err := s.db.Validators()
	if err != nil {
		return err
	}

	var stakers []penalty.Staker
	for _, v := range validators {
		if v.Status != database.StatusActive {
			continue
		}
		stakers = append(stakers, penalty.Staker{Identity: v.Identity, Stake: v.Stake})
	}

	allocations := penalty.Redistribute(pool, stakers)
	for _, alloc := range allocations {
		if err := s.db.CreditWallet(alloc.Identity, alloc.Amount); err != nil {
			return err
		}

		if _, err := s.appendEntry("chain", "redistributed", alloc.Identity, "security", map[string]any{
			"amount": alloc.Amount,
			"from":   identity,
			"reason": reason,
		}); err != nil {
			return err
		}

		s.evHandler("state: redistribute: identity[%s] amount[%d]", alloc.Identity, alloc.Amount)
	}

	return nil
}
