package state_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/psinfinity/infinitychain/foundation/infinitychain/database"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/genesis"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/merkle"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/state"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/storage/memory"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func newTestState(t *testing.T) (*state.State, *database.Database) {
	t.Helper()

	gen := genesis.Genesis{
		ChainID:        "test-chain",
		BaseDifficulty: 1,
		MinimumStake:   100,
		FallbackWindow: 50,
		NonceCeiling:   10_000,
		MiningBudget:   10,
		Balances: map[string]uint64{
			"kennedy": 1000,
			"pavel":   1000,
		},
	}

	db := database.New(memory.New())

	st, err := state.New(state.Config{
		Genesis: gen,
		DB:      db,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	return st, db
}

// =============================================================================

func Test_LedgerAppend(t *testing.T) {
	st, _ := newTestState(t)

	t.Log("Given the need to validate ledger appends.")
	{
		t.Logf("\tTest 0:\tWhen appending three entries.")
		{
			var entries []database.Entry
			for i := 0; i < 3; i++ {
				entry, err := st.AppendLedgerEntry("alice", "created", "order-1", "orders", map[string]any{"n": i}, 1, 0)
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to append an entry: %v", failed, err)
				}
				entries = append(entries, entry)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to append three entries.", success)

			if entries[0].PreviousHash != database.GenesisHash {
				t.Fatalf("\t%s\tTest 0:\tShould anchor the first entry to the genesis sentinel: %s", failed, entries[0].PreviousHash)
			}
			t.Logf("\t%s\tTest 0:\tShould anchor the first entry to the genesis sentinel.", success)

			for i := 1; i < 3; i++ {
				if entries[i].PreviousHash != entries[i-1].Hash {
					t.Fatalf("\t%s\tTest 0:\tShould link entry %d to its predecessor.", failed, i)
				}
				if entries[i].Sequence != entries[i-1].Sequence+1 {
					t.Fatalf("\t%s\tTest 0:\tShould advance the sequence at entry %d.", failed, i)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould link every entry to its predecessor.", success)

			for i, entry := range entries {
				if entry.Hash != entry.ComputeHash() {
					t.Fatalf("\t%s\tTest 0:\tShould store a recomputable hash for entry %d.", failed, i)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould store recomputable hashes.", success)
		}

		t.Logf("\tTest 1:\tWhen querying the ledger with a filter.")
		{
			if _, err := st.AppendLedgerEntry("bob", "deleted", "order-2", "orders", nil, 1, 0); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to append an entry: %v", failed, err)
			}

			entries, err := st.QueryLedger(database.QueryFilter{Actor: "bob"})
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to query the ledger: %v", failed, err)
			}

			if len(entries) != 1 || entries[0].Actor != "bob" {
				t.Fatalf("\t%s\tTest 1:\tShould return only the matching entries: %d", failed, len(entries))
			}
			t.Logf("\t%s\tTest 1:\tShould return only the matching entries.", success)

			limited, err := st.QueryLedger(database.QueryFilter{Limit: 2})
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to query the ledger: %v", failed, err)
			}

			if len(limited) != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould honor the limit: %d", failed, len(limited))
			}
			t.Logf("\t%s\tTest 1:\tShould honor the limit.", success)

			if limited[0].Sequence < limited[1].Sequence {
				t.Fatalf("\t%s\tTest 1:\tShould return entries newest first.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould return entries newest first.", success)
		}
	}
}

func Test_Mining(t *testing.T) {
	st, db := newTestState(t)
	ctx := context.Background()

	t.Log("Given the need to validate a full mining cycle.")
	{
		t.Logf("\tTest 0:\tWhen mining a block with pending transactions.")
		{
			if _, err := st.RegisterValidator("kennedy", 100); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to register a validator: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to register a validator.", success)

			balance, err := db.WalletBalance("kennedy")
			if err != nil || balance != 900 {
				t.Fatalf("\t%s\tTest 0:\tShould debit the stake from the wallet: %d, %v", failed, balance, err)
			}
			t.Logf("\t%s\tTest 0:\tShould debit the stake from the wallet.", success)

			e1, err := st.AppendLedgerEntry("alice", "created", "order-1", "orders", nil, 5, 0)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to append an entry: %v", failed, err)
			}
			e2, err := st.AppendLedgerEntry("bob", "updated", "order-1", "orders", nil, 1, 0)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to append an entry: %v", failed, err)
			}

			block, err := st.MineBlock(ctx, "kennedy")
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to mine a block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to mine a block.", success)

			if block.Height != 0 || block.PreviousHash != database.GenesisHash {
				t.Fatalf("\t%s\tTest 0:\tShould anchor the first block to the genesis sentinel.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould anchor the first block to the genesis sentinel.", success)

			wantTxs := []string{e1.ID, e2.ID}
			if len(block.Transactions) != 2 || block.Transactions[0] != wantTxs[0] || block.Transactions[1] != wantTxs[1] {
				t.Fatalf("\t%s\tTest 0:\tShould confirm the transactions highest weight first: %v", failed, block.Transactions)
			}
			t.Logf("\t%s\tTest 0:\tShould confirm the transactions highest weight first.", success)

			if block.MerkleRoot != merkle.ComputeRoot(wantTxs) {
				t.Fatalf("\t%s\tTest 0:\tShould carry the merkle root of its transactions.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould carry the merkle root of its transactions.", success)

			if block.Hash != block.ComputeHash() {
				t.Fatalf("\t%s\tTest 0:\tShould seal a recomputable block hash.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould seal a recomputable block hash.", success)

			// Sole validator holds 100% of the stake: 0.75 penalty tier.
			if block.ConcentrationPenalty != 0.75 {
				t.Fatalf("\t%s\tTest 0:\tShould apply the majority concentration penalty: %.2f", failed, block.ConcentrationPenalty)
			}
			t.Logf("\t%s\tTest 0:\tShould apply the majority concentration penalty.", success)

			if block.Reward != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould pay the penalized reward: %d", failed, block.Reward)
			}
			t.Logf("\t%s\tTest 0:\tShould pay the penalized reward.", success)

			if st.MempoolCount() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould leave the mempool empty: %d", failed, st.MempoolCount())
			}
			t.Logf("\t%s\tTest 0:\tShould leave the mempool empty.", success)

			v, err := db.GetValidator("kennedy")
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to read the validator: %v", failed, err)
			}
			if v.Stake != 90 {
				t.Fatalf("\t%s\tTest 0:\tShould debit the redistribution from the stake: %d", failed, v.Stake)
			}
			t.Logf("\t%s\tTest 0:\tShould debit the redistribution from the stake.", success)
			if v.BlocksValidated != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould record the mined block: %d", failed, v.BlocksValidated)
			}
			t.Logf("\t%s\tTest 0:\tShould record the mined block.", success)

			// Stake debit of 10 flows back as the only active staker, plus
			// the reward of 2.
			balance, err = db.WalletBalance("kennedy")
			if err != nil || balance != 912 {
				t.Fatalf("\t%s\tTest 0:\tShould credit redistribution and reward: %d, %v", failed, balance, err)
			}
			t.Logf("\t%s\tTest 0:\tShould credit redistribution and reward.", success)

			stats, err := st.ChainStats()
			if err != nil || stats.Height != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould advance the chain height: %d, %v", failed, stats.Height, err)
			}
			t.Logf("\t%s\tTest 0:\tShould advance the chain height.", success)
		}

		t.Logf("\tTest 1:\tWhen confirming a transaction's status.")
		{
			entries, err := st.QueryLedger(database.QueryFilter{Actor: "alice"})
			if err != nil || len(entries) != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould find the confirmed entry: %v", failed, err)
			}

			status, err := st.GetTransaction(entries[0].ID)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to look up the transaction: %v", failed, err)
			}

			if status.Pending || status.BlockHeight == nil || *status.BlockHeight != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould report the containing block height.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould report the containing block height.", success)
		}

		t.Logf("\tTest 2:\tWhen mining again with an empty mempool.")
		{
			block, err := st.MineBlock(ctx, "kennedy")
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould fall back to recent ledger entries: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould fall back to recent ledger entries.", success)

			if block.Height != 1 || block.Size == 0 {
				t.Fatalf("\t%s\tTest 2:\tShould mine a populated second block: height %d size %d", failed, block.Height, block.Size)
			}
			t.Logf("\t%s\tTest 2:\tShould mine a populated second block.", success)

			// Back-to-back block by the same validator ramps the penalty.
			if block.ConcentrationPenalty != 0.90 {
				t.Fatalf("\t%s\tTest 2:\tShould ramp the penalty for consecutive blocks: %.2f", failed, block.ConcentrationPenalty)
			}
			t.Logf("\t%s\tTest 2:\tShould ramp the penalty for consecutive blocks.", success)
		}
	}
}

func Test_MiningEligibility(t *testing.T) {
	st, _ := newTestState(t)
	ctx := context.Background()

	t.Log("Given the need to validate mining eligibility.")
	{
		t.Logf("\tTest 0:\tWhen an unregistered identity attempts to mine.")
		{
			if _, err := st.MineBlock(ctx, "mallory"); !errors.Is(err, state.ErrNotRegistered) {
				t.Fatalf("\t%s\tTest 0:\tShould reject the attempt: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject the attempt.", success)
		}

		t.Logf("\tTest 1:\tWhen there is nothing to mine.")
		{
			if _, err := st.RegisterValidator("kennedy", 100); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to register a validator: %v", failed, err)
			}

			if _, err := st.MineBlock(ctx, "kennedy"); !errors.Is(err, state.ErrNoTransactions) {
				t.Fatalf("\t%s\tTest 1:\tShould report an empty chain: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould report an empty chain.", success)
		}

		t.Logf("\tTest 2:\tWhen registering below the minimum stake.")
		{
			if _, err := st.RegisterValidator("pavel", 50); !errors.Is(err, database.ErrInsufficientStake) {
				t.Fatalf("\t%s\tTest 2:\tShould reject the registration: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould reject the registration.", success)
		}

		t.Logf("\tTest 3:\tWhen registering the same identity twice.")
		{
			if _, err := st.RegisterValidator("kennedy", 100); !errors.Is(err, database.ErrAlreadyRegistered) {
				t.Fatalf("\t%s\tTest 3:\tShould reject the registration: %v", failed, err)
			}
			t.Logf("\t%s\tTest 3:\tShould reject the registration.", success)
		}
	}
}

func Test_VerifyChain(t *testing.T) {
	st, db := newTestState(t)
	ctx := context.Background()

	t.Log("Given the need to validate chain verification.")
	{
		t.Logf("\tTest 0:\tWhen verifying an untampered chain.")
		{
			if _, err := st.RegisterValidator("kennedy", 100); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to register a validator: %v", failed, err)
			}
			if _, err := st.AppendLedgerEntry("alice", "created", "order-1", "orders", nil, 1, 0); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to append an entry: %v", failed, err)
			}
			if _, err := st.MineBlock(ctx, "kennedy"); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to mine a block: %v", failed, err)
			}
			if _, err := st.MineBlock(ctx, "kennedy"); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to mine a second block: %v", failed, err)
			}

			result, err := st.VerifyChain()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to verify the chain: %v", failed, err)
			}

			if !result.Valid || len(result.Issues) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould report a clean chain: %v", failed, result.Issues)
			}
			t.Logf("\t%s\tTest 0:\tShould report a clean chain.", success)
		}

		t.Logf("\tTest 1:\tWhen a stored block has been tampered with.")
		{
			block, err := db.GetBlock(0)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to read the block: %v", failed, err)
			}

			block.Nonce++
			if err := db.SaveBlock(block); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to overwrite the block: %v", failed, err)
			}

			result, err := st.VerifyChain()
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to verify the chain: %v", failed, err)
			}

			if result.Valid || len(result.Issues) != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould report exactly one issue: %v", failed, result.Issues)
			}
			t.Logf("\t%s\tTest 1:\tShould report exactly one issue.", success)

			if !strings.Contains(result.Issues[0], "block 0") {
				t.Fatalf("\t%s\tTest 1:\tShould pin the issue to the tampered height: %s", failed, result.Issues[0])
			}
			t.Logf("\t%s\tTest 1:\tShould pin the issue to the tampered height.", success)
		}
	}
}

func Test_AttackPersistence(t *testing.T) {
	st, db := newTestState(t)

	t.Log("Given the need to validate hardening persistence.")
	{
		t.Logf("\tTest 0:\tWhen recording attacks and restarting the node.")
		{
			for i := 0; i < 5; i++ {
				if _, err := st.RecordAttack("mallory", "ddos"); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to record an attack: %v", failed, err)
				}
			}

			before := st.InfinityState()
			if before.AttacksDetected != 5 || before.InfinityFactor != 6 {
				t.Fatalf("\t%s\tTest 0:\tShould escalate with every attack: %+v", failed, before)
			}
			t.Logf("\t%s\tTest 0:\tShould escalate with every attack.", success)

			restarted, err := state.New(state.Config{
				Genesis: st.Genesis(),
				DB:      db,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to restart the state: %v", failed, err)
			}

			after := restarted.InfinityState()
			if after.AttacksDetected != before.AttacksDetected || after.CurrentDifficulty != before.CurrentDifficulty {
				t.Fatalf("\t%s\tTest 0:\tShould restore the hardening state: %+v", failed, after)
			}
			t.Logf("\t%s\tTest 0:\tShould restore the hardening state.", success)
		}
	}
}
