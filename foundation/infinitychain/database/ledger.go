package database

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/psinfinity/infinitychain/foundation/infinitychain/hashing"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/storage"
)

// GenesisHash is the previous-hash sentinel carried by the first ledger
// entry and the first block.
const GenesisHash = "genesis"

// ErrNotFound is returned when a requested entry, block or validator does
// not exist.
var ErrNotFound = errors.New("not found")

// =============================================================================

// Entry represents one immutable, hash-linked record of an action. Entries
// are never mutated or deleted once written.
type Entry struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	Actor        string         `json:"actor"`
	Verb         string         `json:"verb"`
	Target       string         `json:"target"`
	Namespace    string         `json:"namespace"`
	Data         map[string]any `json:"data"`
	Hash         string         `json:"hash"`
	PreviousHash string         `json:"previousHash"`
	Sequence     uint64         `json:"sequence"`
}

// NewEntry constructs the next entry in the chain. The hash covers every
// field except the hash itself, so it can be recomputed from the stored
// entry during verification.
func NewEntry(actor string, verb string, target string, namespace string, data map[string]any, previousHash string, sequence uint64) Entry {
	entry := Entry{
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Actor:        actor,
		Verb:         verb,
		Target:       target,
		Namespace:    namespace,
		Data:         data,
		PreviousHash: previousHash,
		Sequence:     sequence,
	}
	entry.Hash = entry.ComputeHash()

	return entry
}

// ComputeHash returns the digest of the entry with the hash field excluded
// from its own input.
func (e Entry) ComputeHash() string {
	e.Hash = ""
	return hashing.Digest(e)
}

// =============================================================================

// QueryFilter narrows a ledger scan. Zero values match everything.
type QueryFilter struct {
	Actor     string
	Verb      string
	Namespace string
	Since     time.Time
	Until     time.Time
	Limit     int
}

// match reports whether the entry passes the filter.
func (qf QueryFilter) match(entry Entry) bool {
	if qf.Actor != "" && entry.Actor != qf.Actor {
		return false
	}
	if qf.Verb != "" && entry.Verb != qf.Verb {
		return false
	}
	if qf.Namespace != "" && entry.Namespace != qf.Namespace {
		return false
	}
	if !qf.Since.IsZero() && entry.Timestamp.Before(qf.Since) {
		return false
	}
	if !qf.Until.IsZero() && entry.Timestamp.After(qf.Until) {
		return false
	}
	return true
}

// =============================================================================

// SaveEntry persists the entry and its sequence index. The chain pointers
// are advanced separately by AdvanceLedger once the write has succeeded.
func (db *Database) SaveEntry(entry Entry) error {
	if err := db.putJSON(keyEntryPrefix+entry.ID, entry); err != nil {
		return err
	}

	key := keyEntryIdxPrefix + fmt.Sprintf("%016d", entry.Sequence)
	if err := db.kv.Put(key, []byte(entry.ID)); err != nil {
		return fmt.Errorf("write sequence index: %w", err)
	}

	return nil
}

// GetEntry returns the entry stored under the specified id.
func (db *Database) GetEntry(id string) (Entry, error) {
	var entry Entry
	if err := db.getJSON(keyEntryPrefix+id, &entry); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}

	return entry, nil
}

// LastEntryHash returns the hash of the most recent entry, or the genesis
// sentinel when the ledger is empty.
func (db *Database) LastEntryHash() (string, error) {
	data, err := db.kv.Get(keyLastHash)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return GenesisHash, nil
		}
		return "", err
	}

	return string(data), nil
}

// Sequence returns the sequence number of the most recent entry. Zero means
// the ledger is empty; the first entry is sequence 1.
func (db *Database) Sequence() (uint64, error) {
	data, err := db.kv.Get(keySequence)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}

	return strconv.ParseUint(string(data), 10, 64)
}

// AdvanceLedger moves the last-hash and sequence pointers forward. Callers
// must only invoke this after SaveEntry has succeeded so a failed write
// never leaves the pointers half updated.
func (db *Database) AdvanceLedger(hash string, sequence uint64) error {
	if err := db.kv.Put(keyLastHash, []byte(hash)); err != nil {
		return fmt.Errorf("advance last hash: %w", err)
	}

	if err := db.kv.Put(keySequence, []byte(strconv.FormatUint(sequence, 10))); err != nil {
		return fmt.Errorf("advance sequence: %w", err)
	}

	return nil
}

// ScanEntries walks the ledger in reverse-chronological order applying the
// filter. The scan is read-only and restartable.
func (db *Database) ScanEntries(filter QueryFilter) ([]Entry, error) {
	items, err := db.kv.List(keyEntryIdxPrefix)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for i := len(items) - 1; i >= 0; i-- {
		entry, err := db.GetEntry(string(items[i].Value))
		if err != nil {
			return nil, err
		}

		if !filter.match(entry) {
			continue
		}

		entries = append(entries, entry)
		if filter.Limit > 0 && len(entries) == filter.Limit {
			break
		}
	}

	return entries, nil
}

// RecentEntryIDs returns the ids of the most recent n entries, newest
// first. The block producer uses this as the fallback transaction source
// when the mempool is empty.
func (db *Database) RecentEntryIDs(n int) ([]string, error) {
	items, err := db.kv.List(keyEntryIdxPrefix)
	if err != nil {
		return nil, err
	}

	var ids []string
	for i := len(items) - 1; i >= 0 && len(ids) < n; i-- {
		ids = append(ids, string(items[i].Value))
	}

	return ids, nil
}
