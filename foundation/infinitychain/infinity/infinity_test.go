package infinity_test

import (
	"testing"

	"github.com/psinfinity/infinitychain/foundation/infinitychain/infinity"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func Test_RecordAttack(t *testing.T) {
	t.Log("Given the need to validate attack-driven hardening.")
	{
		t.Logf("\tTest 0:\tWhen absorbing three attacks on a fresh chain.")
		{
			h := infinity.New(2)

			var st infinity.State
			for i := 0; i < 3; i++ {
				st = h.RecordAttack("mallory", "ddos")
			}

			if st.AttacksDetected != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould count every attack: got %d", failed, st.AttacksDetected)
			}
			t.Logf("\t%s\tTest 0:\tShould count every attack.", success)

			if st.InfinityFactor != 4 {
				t.Fatalf("\t%s\tTest 0:\tShould grow the factor by one per attack: got %.0f", failed, st.InfinityFactor)
			}
			t.Logf("\t%s\tTest 0:\tShould grow the factor by one per attack.", success)

			if st.HashIterations != 7 {
				t.Fatalf("\t%s\tTest 0:\tShould grow the iterations by two per attack: got %d", failed, st.HashIterations)
			}
			t.Logf("\t%s\tTest 0:\tShould grow the iterations by two per attack.", success)

			if st.CurrentDifficulty != 3.5 {
				t.Fatalf("\t%s\tTest 0:\tShould grow the difficulty by half per attack: got %.1f", failed, st.CurrentDifficulty)
			}
			t.Logf("\t%s\tTest 0:\tShould grow the difficulty by half per attack.", success)

			if h.Difficulty() != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould floor the proof target: got %d", failed, h.Difficulty())
			}
			t.Logf("\t%s\tTest 0:\tShould floor the proof target.", success)

			if len(st.SuspiciousPatterns) != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould keep a pattern note per attack: got %d", failed, len(st.SuspiciousPatterns))
			}
			t.Logf("\t%s\tTest 0:\tShould keep a pattern note per attack.", success)
		}

		t.Logf("\tTest 1:\tWhen absorbing a sustained attack storm.")
		{
			h := infinity.New(2)

			var st infinity.State
			for i := 0; i < 250; i++ {
				st = h.RecordAttack("mallory", "spam")
			}

			if st.InfinityFactor != 100 {
				t.Fatalf("\t%s\tTest 1:\tShould cap the factor at 100: got %.0f", failed, st.InfinityFactor)
			}
			t.Logf("\t%s\tTest 1:\tShould cap the factor at 100.", success)

			if st.HashIterations > 50 {
				t.Fatalf("\t%s\tTest 1:\tShould cap the iterations at 50: got %d", failed, st.HashIterations)
			}
			t.Logf("\t%s\tTest 1:\tShould cap the iterations at 50.", success)

			if st.CurrentDifficulty > 8 {
				t.Fatalf("\t%s\tTest 1:\tShould cap the difficulty at 8: got %.1f", failed, st.CurrentDifficulty)
			}
			t.Logf("\t%s\tTest 1:\tShould cap the difficulty at 8.", success)

			if len(st.SuspiciousPatterns) != 100 {
				t.Fatalf("\t%s\tTest 1:\tShould bound the pattern buffer at 100: got %d", failed, len(st.SuspiciousPatterns))
			}
			t.Logf("\t%s\tTest 1:\tShould bound the pattern buffer at 100.", success)
		}

		t.Logf("\tTest 2:\tWhen restoring persisted state.")
		{
			st := infinity.New(2).RecordAttack("mallory", "probe")

			restored := infinity.Load(st).Snapshot()
			if restored.AttacksDetected != st.AttacksDetected || restored.InfinityFactor != st.InfinityFactor {
				t.Fatalf("\t%s\tTest 2:\tShould restore the counters unchanged.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould restore the counters unchanged.", success)
		}
	}
}

func Test_Pool(t *testing.T) {
	t.Log("Given the need to validate the redistribution pool.")
	{
		t.Logf("\tTest 0:\tWhen filling and draining the pool.")
		{
			h := infinity.New(2)

			h.AddToPool(40)
			h.AddToPool(60)

			if pool := h.DrainPool(); pool != 100 {
				t.Fatalf("\t%s\tTest 0:\tShould drain the accumulated amount: got %d", failed, pool)
			}
			t.Logf("\t%s\tTest 0:\tShould drain the accumulated amount.", success)

			if pool := h.DrainPool(); pool != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould consume the pool exactly once: got %d", failed, pool)
			}
			t.Logf("\t%s\tTest 0:\tShould consume the pool exactly once.", success)

			if st := h.Snapshot(); st.ConcentrationAlerts != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould record an alert per drain: got %d", failed, st.ConcentrationAlerts)
			}
			t.Logf("\t%s\tTest 0:\tShould record an alert per drain.", success)
		}
	}
}
