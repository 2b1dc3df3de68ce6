package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/psinfinity/infinitychain/foundation/infinitychain/hashing"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/storage"
)

// ErrProofExhausted is returned when the proof search hits the nonce
// ceiling without finding a hash that satisfies the difficulty.
var ErrProofExhausted = errors.New("proof search exhausted nonce ceiling")

// =============================================================================

// Block represents a batch of ledger entry ids confirmed together. Blocks
// are immutable and append-only, keyed by height.
type Block struct {
	Height               uint64   `json:"height"`
	Hash                 string   `json:"hash"`
	PreviousHash         string   `json:"previousHash"`
	Timestamp            uint64   `json:"timestamp"`
	Transactions         []string `json:"transactions"`
	MerkleRoot           string   `json:"merkleRoot"`
	Validator            string   `json:"validator"`
	Nonce                uint64   `json:"nonce"`
	Difficulty           int      `json:"difficulty"`
	Size                 int      `json:"size"`
	Reward               uint64   `json:"reward"`
	InfinityFactor       float64  `json:"infinityFactor"`
	ConcentrationPenalty float64  `json:"concentrationPenalty"`
	AttacksAbsorbed      uint64   `json:"attacksAbsorbed"`
}

// seal is the subset of block fields the hash commits to. Recomputing the
// digest over these fields must reproduce Block.Hash.
type seal struct {
	Height       uint64 `json:"height"`
	PreviousHash string `json:"previousHash"`
	Timestamp    uint64 `json:"timestamp"`
	MerkleRoot   string `json:"merkleRoot"`
	Validator    string `json:"validator"`
	Nonce        uint64 `json:"nonce"`
	Difficulty   int    `json:"difficulty"`
}

// ComputeHash returns the digest of the block's sealed fields.
func (b Block) ComputeHash() string {
	return hashing.Digest(seal{
		Height:       b.Height,
		PreviousHash: b.PreviousHash,
		Timestamp:    b.Timestamp,
		MerkleRoot:   b.MerkleRoot,
		Validator:    b.Validator,
		Nonce:        b.Nonce,
		Difficulty:   b.Difficulty,
	})
}

// PerformProof searches for a nonce whose block hash carries the required
// number of leading zero hex digits. The search starts at nonce 0 and is
// bounded by both the ceiling and the context deadline; it is never
// retried automatically.
func (b *Block) PerformProof(ctx context.Context, ceiling uint64) error {
	for nonce := uint64(0); nonce <= ceiling; nonce++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		b.Nonce = nonce
		hash := b.ComputeHash()
		if isHashSolved(b.Difficulty, hash) {
			b.Hash = hash
			return nil
		}
	}

	return ErrProofExhausted
}

// isHashSolved checks the hash complies with the proof rule of a difficulty
// number of leading zero hex digits.
func isHashSolved(difficulty int, hash string) bool {
	const match = "00000000000000000"

	hash = strings.TrimPrefix(hash, "0x")
	if len(hash) != 64 || difficulty > len(match) {
		return false
	}

	return hash[:difficulty] == match[:difficulty]
}

// =============================================================================

// SaveBlock persists the block under its height. The height key is zero
// padded so a prefix scan returns blocks in chain order.
func (db *Database) SaveBlock(block Block) error {
	return db.putJSON(blockKey(block.Height), block)
}

// GetBlock returns the block stored at the specified height.
func (db *Database) GetBlock(height uint64) (Block, error) {
	var block Block
	if err := db.getJSON(blockKey(height), &block); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return Block{}, ErrNotFound
		}
		return Block{}, err
	}

	return block, nil
}

// Blocks returns every stored block in height order.
func (db *Database) Blocks() ([]Block, error) {
	items, err := db.kv.List(keyBlockPrefix)
	if err != nil {
		return nil, err
	}

	blocks := make([]Block, 0, len(items))
	for _, item := range items {
		var block Block
		if err := json.Unmarshal(item.Value, &block); err != nil {
			return nil, fmt.Errorf("unmarshal %q: %w", item.Key, err)
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}

// Height returns the number of blocks in the chain. Block heights are zero
// based, so the next block to mine is at this height.
func (db *Database) Height() (uint64, error) {
	data, err := db.kv.Get(keyChainHeight)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}

	return strconv.ParseUint(string(data), 10, 64)
}

// LastBlockHash returns the hash of the latest block, or the genesis
// sentinel when no block exists.
func (db *Database) LastBlockHash() (string, error) {
	data, err := db.kv.Get(keyChainLastHash)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return GenesisHash, nil
		}
		return "", err
	}

	return string(data), nil
}

// LastValidator returns the identity that mined the latest block.
func (db *Database) LastValidator() (string, error) {
	data, err := db.kv.Get(keyLastValidator)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}

	return string(data), nil
}

// AdvanceChain moves the chain pointers past the newly persisted block.
// Callers must only invoke this after SaveBlock has succeeded.
func (db *Database) AdvanceChain(block Block) error {
	if err := db.kv.Put(keyChainHeight, []byte(strconv.FormatUint(block.Height+1, 10))); err != nil {
		return fmt.Errorf("advance height: %w", err)
	}

	if err := db.kv.Put(keyChainLastHash, []byte(block.Hash)); err != nil {
		return fmt.Errorf("advance block hash: %w", err)
	}

	if err := db.kv.Put(keyLastValidator, []byte(block.Validator)); err != nil {
		return fmt.Errorf("record validator: %w", err)
	}

	if err := db.kv.Put(keyChainDifficulty, []byte(strconv.Itoa(block.Difficulty))); err != nil {
		return fmt.Errorf("record difficulty: %w", err)
	}

	return nil
}

// blockKey forms the storage key for the specified height.
func blockKey(height uint64) string {
	return keyBlockPrefix + fmt.Sprintf("%012d", height)
}
