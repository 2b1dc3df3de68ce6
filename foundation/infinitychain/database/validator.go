package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/psinfinity/infinitychain/foundation/infinitychain/storage"
)

// Set of registration errors surfaced directly to callers.
var (
	ErrInsufficientStake   = errors.New("stake below the registration minimum")
	ErrAlreadyRegistered   = errors.New("validator already registered")
	ErrInsufficientBalance = errors.New("wallet balance below the requested stake")
)

// Validator status values. A validator is never deleted; it transitions to
// inactive or slashed instead.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusSlashed  = "slashed"
)

// Validator represents a staking identity eligible to produce blocks.
type Validator struct {
	Identity           string    `json:"identity"`
	Stake              uint64    `json:"stake"`
	BlocksValidated    uint64    `json:"blocksValidated"`
	LastValidated      time.Time `json:"lastValidated,omitzero"`
	Reputation         int       `json:"reputation"`
	Status             string    `json:"status"`
	JoinedAt           time.Time `json:"joinedAt"`
	ConcentrationScore float64   `json:"concentrationScore"`
	ConsecutiveBlocks  int       `json:"consecutiveBlocks"`
	RedistributionOwed uint64    `json:"redistributionOwed"`
}

// =============================================================================

// RegisterValidator creates a new validator, deducting the stake from the
// identity's wallet. The stake must meet the minimum and the wallet must
// cover it.
func (db *Database) RegisterValidator(identity string, stake uint64, minimumStake uint64) (Validator, error) {
	if stake < minimumStake {
		return Validator{}, ErrInsufficientStake
	}

	if _, err := db.GetValidator(identity); err == nil {
		return Validator{}, ErrAlreadyRegistered
	}

	balance, err := db.WalletBalance(identity)
	if err != nil {
		return Validator{}, err
	}
	if balance < stake {
		return Validator{}, ErrInsufficientBalance
	}

	if err := db.setWalletBalance(identity, balance-stake); err != nil {
		return Validator{}, err
	}

	v := Validator{
		Identity:   identity,
		Stake:      stake,
		Reputation: 50,
		Status:     StatusActive,
		JoinedAt:   time.Now().UTC(),
	}

	if err := db.SaveValidator(v); err != nil {
		return Validator{}, err
	}

	return v, nil
}

// SaveValidator persists the validator record.
func (db *Database) SaveValidator(v Validator) error {
	return db.putJSON(keyValidatorPrefix+v.Identity, v)
}

// GetValidator returns the validator registered under the identity.
func (db *Database) GetValidator(identity string) (Validator, error) {
	var v Validator
	if err := db.getJSON(keyValidatorPrefix+identity, &v); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return Validator{}, ErrNotFound
		}
		return Validator{}, err
	}

	return v, nil
}

// Validators returns every registered validator.
func (db *Database) Validators() ([]Validator, error) {
	items, err := db.kv.List(keyValidatorPrefix)
	if err != nil {
		return nil, err
	}

	validators := make([]Validator, 0, len(items))
	for _, item := range items {
		var v Validator
		if err := json.Unmarshal(item.Value, &v); err != nil {
			return nil, fmt.Errorf("unmarshal %q: %w", item.Key, err)
		}
		validators = append(validators, v)
	}

	return validators, nil
}

// TotalActiveStake sums the stake across active validators.
func (db *Database) TotalActiveStake() (uint64, error) {
	validators, err := db.Validators()
	if err != nil {
		return 0, err
	}

	var total uint64
	for _, v := range validators {
		if v.Status == StatusActive {
			total += v.Stake
		}
	}

	return total, nil
}

// RecordBlockMined updates the bookkeeping for a validator that just mined
// a block. The previously mining validator's consecutive count is reset
// when a different identity mines this round.
func (db *Database) RecordBlockMined(identity string, consecutiveBlocks int, previousValidator string) (Validator, error) {
	v, err := db.GetValidator(identity)
	if err != nil {
		return Validator{}, err
	}

	v.BlocksValidated++
	v.LastValidated = time.Now().UTC()
	v.ConsecutiveBlocks = consecutiveBlocks
	if v.Reputation < 100 {
		v.Reputation++
	}

	totalStake, err := db.TotalActiveStake()
	if err != nil {
		return Validator{}, err
	}
	if totalStake > 0 {
		v.ConcentrationScore = float64(v.Stake) / float64(totalStake) * 100
	}

	if err := db.SaveValidator(v); err != nil {
		return Validator{}, err
	}

	if previousValidator != "" && previousValidator != identity {
		prev, err := db.GetValidator(previousValidator)
		if err == nil && prev.ConsecutiveBlocks != 0 {
			prev.ConsecutiveBlocks = 0
			if err := db.SaveValidator(prev); err != nil {
				return Validator{}, err
			}
		}
	}

	return v, nil
}

// ApplyRedistributionDebit removes the concentration debit from the
// validator's stake and tracks the cumulative amount owed.
func (db *Database) ApplyRedistributionDebit(identity string, amount uint64) (Validator, error) {
	v, err := db.GetValidator(identity)
	if err != nil {
		return Validator{}, err
	}

	if amount > v.Stake {
		amount = v.Stake
	}
	v.Stake -= amount
	v.RedistributionOwed += amount

	if err := db.SaveValidator(v); err != nil {
		return Validator{}, err
	}

	return v, nil
}

// =============================================================================

// WalletBalance returns the credits held by the identity outside of any
// stake. Unknown identities hold zero.
func (db *Database) WalletBalance(identity string) (uint64, error) {
	data, err := db.kv.Get(keyWalletPrefix + identity)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}

	return strconv.ParseUint(string(data), 10, 64)
}

// CreditWallet adds the amount to the identity's wallet.
func (db *Database) CreditWallet(identity string, amount uint64) error {
	balance, err := db.WalletBalance(identity)
	if err != nil {
		return err
	}

	return db.setWalletBalance(identity, balance+amount)
}

// SeedWallets writes the genesis balances for identities that have no
// wallet yet. Existing wallets are never overwritten.
func (db *Database) SeedWallets(balances map[string]uint64) error {
	for identity, balance := range balances {
		if _, err := db.kv.Get(keyWalletPrefix + identity); err == nil {
			continue
		} else if !errors.Is(err, storage.ErrKeyNotFound) {
			return err
		}

		if err := db.setWalletBalance(identity, balance); err != nil {
			return err
		}
	}

	return nil
}

// setWalletBalance writes the wallet balance for the identity.
func (db *Database) setWalletBalance(identity string, balance uint64) error {
	return db.kv.Put(keyWalletPrefix+identity, []byte(strconv.FormatUint(balance, 10)))
}
