package database

import (
	"errors"

	"github.com/psinfinity/infinitychain/foundation/infinitychain/infinity"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/storage"
)

// InfinityState returns the persisted hardening state. ErrNotFound means
// the chain has never saved one and the caller should start fresh.
func (db *Database) InfinityState() (infinity.State, error) {
	var st infinity.State
	if err := db.getJSON(keyInfinity, &st); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return infinity.State{}, ErrNotFound
		}
		return infinity.State{}, err
	}

	return st, nil
}

// SaveInfinityState persists the hardening state.
func (db *Database) SaveInfinityState(st infinity.State) error {
	return db.putJSON(keyInfinity, st)
}
