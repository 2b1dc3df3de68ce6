package mempool_test

import (
	"testing"
	"time"

	"github.com/psinfinity/infinitychain/foundation/infinitychain/database"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/mempool"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func Test_DrainOrder(t *testing.T) {
	t.Log("Given the need to validate mempool drain ordering.")
	{
		t.Logf("\tTest 0:\tWhen draining transactions with mixed priority and fee.")
		{
			mp := mempool.New()

			now := time.Now().UTC()
			mp.Upsert(database.Tx{ID: "low", Timestamp: now, Priority: 1, Fee: 1})
			mp.Upsert(database.Tx{ID: "high", Timestamp: now, Priority: 5, Fee: 5})
			mp.Upsert(database.Tx{ID: "mid", Timestamp: now, Priority: 2, Fee: 3})

			txs := mp.DrainAll()

			want := []string{"high", "mid", "low"}
			for i, id := range want {
				if txs[i].ID != id {
					t.Fatalf("\t%s\tTest 0:\tShould drain by priority plus fee: got %s at %d, want %s", failed, txs[i].ID, i, id)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould drain by priority plus fee.", success)

			if mp.Count() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould leave the pool empty after a drain: %d", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould leave the pool empty after a drain.", success)
		}

		t.Logf("\tTest 1:\tWhen draining transactions with equal weight.")
		{
			mp := mempool.New()

			now := time.Now().UTC()
			mp.Upsert(database.Tx{ID: "newer", Timestamp: now.Add(time.Second), Priority: 2, Fee: 2})
			mp.Upsert(database.Tx{ID: "older", Timestamp: now, Priority: 2, Fee: 2})

			txs := mp.DrainAll()

			if txs[0].ID != "older" {
				t.Fatalf("\t%s\tTest 1:\tShould break ties on submission time: got %s first", failed, txs[0].ID)
			}
			t.Logf("\t%s\tTest 1:\tShould break ties on submission time.", success)
		}
	}
}

func Test_Restore(t *testing.T) {
	t.Log("Given the need to recover from a failed mining attempt.")
	{
		t.Logf("\tTest 0:\tWhen restoring drained transactions.")
		{
			mp := mempool.New()
			mp.Upsert(database.Tx{ID: "a", Priority: 1})
			mp.Upsert(database.Tx{ID: "b", Priority: 2})

			txs := mp.DrainAll()
			mp.Restore(txs)

			if mp.Count() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould hold every restored transaction: %d", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould hold every restored transaction.", success)
		}
	}
}
