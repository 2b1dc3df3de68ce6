package penalty_test

import (
	"testing"

	"github.com/psinfinity/infinitychain/foundation/infinitychain/penalty"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Compute(t *testing.T) {
	type table struct {
		name           string
		stake          uint64
		total          uint64
		consecutive    int
		penalty        float64
		redistribution uint64
	}

	tt := []table{
		{name: "majority holder", stake: 60, total: 100, consecutive: 0, penalty: 0.75, redistribution: 6},
		{name: "quarter holder", stake: 30, total: 100, consecutive: 0, penalty: 0.50, redistribution: 1},
		{name: "tenth holder", stake: 15, total: 100, consecutive: 0, penalty: 0.25, redistribution: 0},
		{name: "small holder ramped", stake: 5, total: 100, consecutive: 2, penalty: 0.30, redistribution: 0},
		{name: "clamped at max", stake: 60, total: 100, consecutive: 5, penalty: 0.95, redistribution: 6},
		{name: "no penalty", stake: 5, total: 100, consecutive: 0, penalty: 0, redistribution: 0},
		{name: "zero total stake", stake: 50, total: 0, consecutive: 0, penalty: 0, redistribution: 0},
	}

	t.Log("Given the need to validate concentration penalties.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling the %s case.", testID, tst.name)
			{
				f := func(t *testing.T) {
					result := penalty.Compute(tst.stake, tst.total, tst.consecutive)

					if result.Penalty != tst.penalty {
						t.Fatalf("\t%s\tTest %d:\tShould apply penalty %.2f: got %.2f", failed, testID, tst.penalty, result.Penalty)
					}
					t.Logf("\t%s\tTest %d:\tShould apply penalty %.2f.", success, testID, tst.penalty)

					if result.Redistribution != tst.redistribution {
						t.Fatalf("\t%s\tTest %d:\tShould demand redistribution of %d: got %d", failed, testID, tst.redistribution, result.Redistribution)
					}
					t.Logf("\t%s\tTest %d:\tShould demand redistribution of %d.", success, testID, tst.redistribution)

					if result.Reason == "" {
						t.Fatalf("\t%s\tTest %d:\tShould explain the decision.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould explain the decision.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_Redistribute(t *testing.T) {
	t.Log("Given the need to validate stake redistribution.")
	{
		t.Logf("\tTest 0:\tWhen splitting a pool between a small and a large staker.")
		{
			stakers := []penalty.Staker{
				{Identity: "small", Stake: 10},
				{Identity: "large", Stake: 100},
			}

			allocations := penalty.Redistribute(100, stakers)

			var total uint64
			amounts := make(map[string]uint64)
			for _, alloc := range allocations {
				amounts[alloc.Identity] = alloc.Amount
				total += alloc.Amount
			}

			if amounts["small"] <= amounts["large"] {
				t.Fatalf("\t%s\tTest 0:\tShould favor the smaller staker: small %d, large %d", failed, amounts["small"], amounts["large"])
			}
			t.Logf("\t%s\tTest 0:\tShould favor the smaller staker.", success)

			if total > 100 {
				t.Fatalf("\t%s\tTest 0:\tShould never pay out more than the pool: %d", failed, total)
			}
			t.Logf("\t%s\tTest 0:\tShould never pay out more than the pool.", success)
		}

		t.Logf("\tTest 1:\tWhen a staker's share floors to zero.")
		{
			stakers := []penalty.Staker{
				{Identity: "tiny", Stake: 0},
				{Identity: "whale", Stake: 1000},
			}

			allocations := penalty.Redistribute(10, stakers)

			for _, alloc := range allocations {
				if alloc.Amount == 0 {
					t.Fatalf("\t%s\tTest 1:\tShould skip zero allocations: %s", failed, alloc.Identity)
				}
			}
			t.Logf("\t%s\tTest 1:\tShould skip zero allocations.", success)
		}

		t.Logf("\tTest 2:\tWhen the pool or staker set is empty.")
		{
			if allocations := penalty.Redistribute(0, []penalty.Staker{{Identity: "a", Stake: 1}}); allocations != nil {
				t.Fatalf("\t%s\tTest 2:\tShould return nothing for an empty pool.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould return nothing for an empty pool.", success)

			if allocations := penalty.Redistribute(100, nil); allocations != nil {
				t.Fatalf("\t%s\tTest 2:\tShould return nothing without stakers.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould return nothing without stakers.", success)
		}
	}
}
