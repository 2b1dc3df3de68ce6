// Package leveldb implements the storage.KV interface on top of an embedded
// goleveldb database for nodes that need the chain to survive restarts.
package leveldb

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/psinfinity/infinitychain/foundation/infinitychain/storage"
)

// LevelDB represents the goleveldb implementation of the storage.KV
// interface.
type LevelDB struct {
	db *leveldb.DB
}

// New opens or creates the database at the specified path.
func New(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}

	return &LevelDB{db: db}, nil
}

// Get returns the value stored under the specified key.
func (l *LevelDB) Get(key string) ([]byte, error) {
	value, err := l.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, storage.ErrKeyNotFound
		}
		return nil, err
	}

	return value, nil
}

// Put stores the value under the specified key.
func (l *LevelDB) Put(key string, value []byte) error {
	return l.db.Put([]byte(key), value, nil)
}

// Delete removes the specified key.
func (l *LevelDB) Delete(key string) error {
	return l.db.Delete([]byte(key), nil)
}

// List returns every item whose key starts with the prefix. goleveldb
// iterates in ascending key order, which List's contract requires.
func (l *LevelDB) List(prefix string) ([]storage.Item, error) {
	iter := l.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()

	var items []storage.Item
	for iter.Next() {
		value := make([]byte, len(iter.Value()))
		copy(value, iter.Value())

		items = append(items, storage.Item{
			Key:   string(iter.Key()),
			Value: value,
		})
	}

	if err := iter.Error(); err != nil {
		return nil, err
	}

	return items, nil
}

// Close closes the underlying database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}
