// Package mempool maintains the in memory pool of transaction references
// awaiting inclusion in a block.
package mempool

import (
	"sort"
	"sync"

	"github.com/psinfinity/infinitychain/foundation/infinitychain/database"
)

// Mempool represents a cache of pending transactions keyed by id. The pool
// is mirrored to storage by the state layer so a node restart rebuilds it.
type Mempool struct {
	mu   sync.RWMutex
	pool map[string]database.Tx
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{
		pool: make(map[string]database.Tx),
	}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds or replaces a transaction in the pool.
func (mp *Mempool) Upsert(tx database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool[tx.ID] = tx
}

// DrainAll removes and returns every transaction, ordered by
// priority plus fee descending. Ties break on submission time, oldest
// first, so the drain order is deterministic.
func (mp *Mempool) DrainAll() []database.Tx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	txs := make([]database.Tx, 0, len(mp.pool))
	for _, tx := range mp.pool {
		txs = append(txs, tx)
	}
	mp.pool = make(map[string]database.Tx)

	sort.SliceStable(txs, func(i, j int) bool {
		wi := txs[i].Priority + txs[i].Fee
		wj := txs[j].Priority + txs[j].Fee
		if wi != wj {
			return wi > wj
		}
		return txs[i].Timestamp.Before(txs[j].Timestamp)
	})

	return txs
}

// Restore puts transactions back into the pool. Used when a mining attempt
// fails after the pool was drained.
func (mp *Mempool) Restore(txs []database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for _, tx := range txs {
		mp.pool[tx.ID] = tx
	}
}
