package state

import (
	"github.com/psinfinity/infinitychain/foundation/infinitychain/database"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/infinity"
)

// Stats summarizes the chain for callers.
type Stats struct {
	Height            uint64 `json:"height"`
	TotalTransactions uint64 `json:"totalTransactions"`
	TotalValidators   int    `json:"totalValidators"`
	Difficulty        int    `json:"difficulty"`
	MempoolSize       int    `json:"mempoolSize"`
}

// TxStatus describes where a ledger entry stands: confirmed inside a block
// or still pending.
type TxStatus struct {
	Entry       database.Entry `json:"entry"`
	BlockHeight *uint64        `json:"containingBlockHeight,omitempty"`
	Pending     bool           `json:"pending"`
}

// =============================================================================

// QueryLedger scans the ledger in reverse-chronological order applying the
// filter. Read-only and restartable.
func (s *State) QueryLedger(filter database.QueryFilter) ([]database.Entry, error) {
	return s.db.ScanEntries(filter)
}

// Validators returns every registered validator.
func (s *State) Validators() ([]database.Validator, error) {
	return s.db.Validators()
}

// GetBlock returns the block at the specified height.
func (s *State) GetBlock(height uint64) (database.Block, error) {
	return s.db.GetBlock(height)
}

// GetTransaction returns the ledger entry and, when confirmed, the height
// of the block containing it.
func (s *State) GetTransaction(id string) (TxStatus, error) {
	entry, err := s.db.GetEntry(id)
	if err != nil {
		return TxStatus{}, err
	}

	blocks, err := s.db.Blocks()
	if err != nil {
		return TxStatus{}, err
	}

	for _, block := range blocks {
		for _, txID := range block.Transactions {
			if txID == id {
				height := block.Height
				return TxStatus{Entry: entry, BlockHeight: &height}, nil
			}
		}
	}

	return TxStatus{Entry: entry, Pending: true}, nil
}

// ChainStats returns a summary of the chain.
func (s *State) ChainStats() (Stats, error) {
	height, err := s.db.Height()
	if err != nil {
		return Stats{}, err
	}

	sequence, err := s.db.Sequence()
	if err != nil {
		return Stats{}, err
	}

	validators, err := s.db.Validators()
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		Height:            height,
		TotalTransactions: sequence,
		TotalValidators:   len(validators),
		Difficulty:        s.hardening.Difficulty(),
		MempoolSize:       s.mempool.Count(),
	}, nil
}

// InfinityState returns a read-only view of the hardening state.
func (s *State) InfinityState() infinity.State {
	return s.hardening.Snapshot()
}

// MempoolCount returns the number of pending transactions.
func (s *State) MempoolCount() int {
	return s.mempool.Count()
}
