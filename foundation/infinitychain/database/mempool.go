package database

import (
	"encoding/json"
	"fmt"
	"time"
)

// Tx represents a reference to an unconfirmed ledger entry awaiting
// inclusion in a block. A Tx is removed, never mutated, once mined.
type Tx struct {
	ID          string    `json:"id"`
	EventID     string    `json:"eventId"`
	Timestamp   time.Time `json:"timestamp"`
	Priority    uint      `json:"priority"`
	Fee         uint      `json:"fee"`
	SubmittedBy string    `json:"submittedBy"`
}

// SaveTx persists the mempool transaction.
func (db *Database) SaveTx(tx Tx) error {
	return db.putJSON(keyMempoolPrefix+tx.ID, tx)
}

// DeleteTx removes the mempool transaction.
func (db *Database) DeleteTx(id string) error {
	return db.kv.Delete(keyMempoolPrefix + id)
}

// MempoolTxs returns every persisted mempool transaction. Used to rebuild
// the in memory pool on startup.
func (db *Database) MempoolTxs() ([]Tx, error) {
	items, err := db.kv.List(keyMempoolPrefix)
	if err != nil {
		return nil, err
	}

	txs := make([]Tx, 0, len(items))
	for _, item := range items {
		var tx Tx
		if err := json.Unmarshal(item.Value, &tx); err != nil {
			return nil, fmt.Errorf("unmarshal %q: %w", item.Key, err)
		}
		txs = append(txs, tx)
	}

	return txs, nil
}
