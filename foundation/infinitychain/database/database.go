// Package database owns the typed repositories for chain data and the
// logical key layout inside the underlying key-value store.
package database

import (
	"encoding/json"
	"fmt"

	"github.com/psinfinity/infinitychain/foundation/infinitychain/storage"
)

// Logical key layout. The store is treated as providing only per-key
// read/write, so every cross-key sequence must be serialized by the caller.
const (
	keyEntryPrefix     = "ledger_"    // ledger_<id> -> Entry
	keyEntryIdxPrefix  = "ledgeridx_" // ledgeridx_<sequence> -> entry id
	keyLastHash        = "lastHash"
	keySequence        = "sequence"
	keyBlockPrefix     = "block_" // block_<height> -> Block
	keyChainHeight     = "chain:height"
	keyChainLastHash   = "chain:lastHash"
	keyChainDifficulty = "chain:difficulty"
	keyLastValidator   = "chain:lastValidator"
	keyInfinity        = "chain:infinity"
	keyValidatorPrefix = "validator_" // validator_<identity> -> Validator
	keyWalletPrefix    = "wallet_"    // wallet_<identity> -> balance
	keyMempoolPrefix   = "mempool_"   // mempool_<id> -> Tx
)

// Database provides typed access to the chain data in the underlying store.
type Database struct {
	kv storage.KV
}

// New constructs a database over the specified key-value store.
func New(kv storage.KV) *Database {
	return &Database{kv: kv}
}

// Close closes the underlying store.
func (db *Database) Close() error {
	return db.kv.Close()
}

// =============================================================================

// getJSON reads the key and unmarshals the value into val.
func (db *Database) getJSON(key string, val any) error {
	data, err := db.kv.Get(key)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, val); err != nil {
		return fmt.Errorf("unmarshal key %q: %w", key, err)
	}

	return nil
}

// putJSON marshals val and writes it under the key.
func (db *Database) putJSON(key string, val any) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshal key %q: %w", key, err)
	}

	if err := db.kv.Put(key, data); err != nil {
		return fmt.Errorf("write key %q: %w", key, err)
	}

	return nil
}
