// Package state is the core API for the chain and implements all the
// business rules and processing.
package state

import (
	"errors"
	"sync"

	"github.com/psinfinity/infinitychain/foundation/infinitychain/database"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/genesis"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/infinity"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/mempool"
)

// EventHandler defines a function that is called when events occur in the
// processing of chain operations.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing background mining support.
type Worker interface {
	Shutdown()
	SignalStartMining()
}

// =============================================================================

// Config represents the configuration required to start the chain node.
type Config struct {
	Genesis   genesis.Genesis
	DB        *database.Database
	EvHandler EventHandler
}

// State manages the chain. A single mutex serializes every chain-mutating
// operation (append, mine, redistribute); the underlying store only
// guarantees per-key read/write, so interleaving those sequences would
// corrupt the hash chain. Read-only operations take no lock.
type State struct {
	mu        sync.Mutex
	genesis   genesis.Genesis
	db        *database.Database
	mempool   *mempool.Mempool
	hardening *infinity.Hardening
	evHandler EventHandler

	Worker Worker
}

// New constructs the state for chain management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Give genesis identities their starting wallets. Existing wallets
	// are left alone on restart.
	if err := cfg.DB.SeedWallets(cfg.Genesis.Balances); err != nil {
		return nil, err
	}

	// Restore the hardening state the chain had when it last ran.
	var hardening *infinity.Hardening
	st, err := cfg.DB.InfinityState()
	switch {
	case err == nil:
		hardening = infinity.Load(st)
	case errors.Is(err, database.ErrNotFound):
		hardening = infinity.New(cfg.Genesis.BaseDifficulty)
	default:
		return nil, err
	}

	// Rebuild the in memory pool from the persisted mempool entries.
	mp := mempool.New()
	txs, err := cfg.DB.MempoolTxs()
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		mp.Upsert(tx)
	}

	state := State{
		genesis:   cfg.Genesis,
		db:        cfg.DB,
		mempool:   mp,
		hardening: hardening,
		evHandler: ev,
	}

	// The Worker is not set here. The call to worker.Run will assign
	// itself when background mining is enabled.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return s.db.Close()
}

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// =============================================================================

// AppendLedgerEntry records a new event on the ledger and queues a mempool
// reference so the next block can confirm it. The priority and fee steer
// the mempool drain order.
func (s *State) AppendLedgerEntry(actor string, verb string, target string, namespace string, data map[string]any, priority uint, fee uint) (database.Entry, error) {
	s.mu.Lock()

	entry, err := s.appendEntry(actor, verb, target, namespace, data)
	if err != nil {
		s.mu.Unlock()
		return database.Entry{}, err
	}

	tx := database.Tx{
		ID:          entry.ID,
		EventID:     entry.ID,
		Timestamp:   entry.Timestamp,
		Priority:    priority,
		Fee:         fee,
		SubmittedBy: actor,
	}
	if err := s.db.SaveTx(tx); err != nil {
		s.mu.Unlock()
		return database.Entry{}, err
	}
	s.mempool.Upsert(tx)

	s.mu.Unlock()

	// Let the background miner know there is work, if one is running.
	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return entry, nil
}

// RegisterValidator stakes an identity into the validator set.
func (s *State) RegisterValidator(identity string, stake uint64) (database.Validator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.db.RegisterValidator(identity, stake, s.genesis.MinimumStake)
	if err != nil {
		return database.Validator{}, err
	}

	s.evHandler("state: RegisterValidator: identity[%s] stake[%d]", identity, stake)

	return v, nil
}

// RecordAttack absorbs one attack event into the hardening state and
// persists the result.
func (s *State) RecordAttack(attacker string, attackType string) (infinity.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.hardening.RecordAttack(attacker, attackType)
	if err := s.db.SaveInfinityState(st); err != nil {
		return infinity.State{}, err
	}

	s.evHandler("state: RecordAttack: attacker[%s] type[%s] factor[%.0f] difficulty[%.1f]", attacker, attackType, st.InfinityFactor, st.CurrentDifficulty)

	return st, nil
}

// =============================================================================

// appendEntry builds, hashes and persists the next ledger entry, then
// advances the chain pointers. The entry write happens before the pointer
// writes so a storage failure never leaves the pointers half updated.
// Callers must hold the state lock.
func (s *State) appendEntry(actor string, verb string, target string, namespace string, data map[string]any) (database.Entry, error) {
	previousHash, err := s.db.LastEntryHash()
	if err != nil {
		return database.Entry{}, err
	}

	sequence, err := s.db.Sequence()
	if err != nil {
		return database.Entry{}, err
	}

	entry := database.NewEntry(actor, verb, target, namespace, data, previousHash, sequence+1)

	if err := s.db.SaveEntry(entry); err != nil {
		return database.Entry{}, err
	}

	if err := s.db.AdvanceLedger(entry.Hash, entry.Sequence); err != nil {
		return database.Entry{}, err
	}

	s.evHandler("state: appendEntry: seq[%d] actor[%s] verb[%s] namespace[%s]", entry.Sequence, actor, verb, namespace)

	return entry, nil
}
