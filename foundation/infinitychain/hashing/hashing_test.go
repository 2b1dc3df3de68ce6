package hashing_test

import (
	"strings"
	"testing"

	"github.com/psinfinity/infinitychain/foundation/infinitychain/hashing"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Digest(t *testing.T) {
	t.Log("Given the need to validate digest production.")
	{
		t.Logf("\tTest 0:\tWhen hashing the same value twice.")
		{
			type payload struct {
				Name  string
				Value int
			}

			h1 := hashing.Digest(payload{Name: "kennedy", Value: 42})
			h2 := hashing.Digest(payload{Name: "kennedy", Value: 42})

			if h1 != h2 {
				t.Fatalf("\t%s\tTest 0:\tShould produce the same digest for the same value: %s != %s", failed, h1, h2)
			}
			t.Logf("\t%s\tTest 0:\tShould produce the same digest for the same value.", success)

			if !strings.HasPrefix(h1, "0x") || len(h1) != 66 {
				t.Fatalf("\t%s\tTest 0:\tShould produce a 0x prefixed 32 byte digest: %s", failed, h1)
			}
			t.Logf("\t%s\tTest 0:\tShould produce a 0x prefixed 32 byte digest.", success)

			h3 := hashing.Digest(payload{Name: "kennedy", Value: 43})
			if h1 == h3 {
				t.Fatalf("\t%s\tTest 0:\tShould produce a different digest for a different value.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould produce a different digest for a different value.", success)
		}
	}
}

func Test_PSShaInfinity(t *testing.T) {
	type table struct {
		name       string
		factor     float64
		severity   float64
		iterations string
	}

	tt := []table{
		{name: "floor", factor: 0, severity: 0, iterations: "∞1_"},
		{name: "factor only", factor: 3, severity: 0, iterations: "∞3_"},
		{name: "severity doubles", factor: 2, severity: 1.5, iterations: "∞5_"},
		{name: "fractional floors", factor: 2.9, severity: 0, iterations: "∞2_"},
	}

	t.Log("Given the need to validate the iterated infinity digest.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling the %s case.", testID, tst.name)
			{
				f := func(t *testing.T) {
					got := hashing.PSShaInfinity("payload", tst.factor, tst.severity)

					if !strings.HasPrefix(got, tst.iterations) {
						t.Fatalf("\t%s\tTest %d:\tShould carry the iteration prefix %q: %s", failed, testID, tst.iterations, got)
					}
					t.Logf("\t%s\tTest %d:\tShould carry the iteration prefix %q.", success, testID, tst.iterations)

					again := hashing.PSShaInfinity("payload", tst.factor, tst.severity)
					if got != again {
						t.Fatalf("\t%s\tTest %d:\tShould be deterministic.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be deterministic.", success, testID)

					other := hashing.PSShaInfinity("other payload", tst.factor, tst.severity)
					if got == other {
						t.Fatalf("\t%s\tTest %d:\tShould change with the input data.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould change with the input data.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}
