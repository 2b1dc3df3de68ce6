package memory_test

import (
	"errors"
	"testing"

	"github.com/psinfinity/infinitychain/foundation/infinitychain/storage"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/storage/memory"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func Test_KV(t *testing.T) {
	t.Log("Given the need to validate the in memory key value store.")
	{
		t.Logf("\tTest 0:\tWhen writing and reading keys.")
		{
			kv := memory.New()

			if err := kv.Put("a", []byte("1")); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to put a key: %v", failed, err)
			}

			data, err := kv.Get("a")
			if err != nil || string(data) != "1" {
				t.Fatalf("\t%s\tTest 0:\tShould read the value back: %q, %v", failed, data, err)
			}
			t.Logf("\t%s\tTest 0:\tShould read the value back.", success)

			if _, err := kv.Get("missing"); !errors.Is(err, storage.ErrKeyNotFound) {
				t.Fatalf("\t%s\tTest 0:\tShould report a missing key: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould report a missing key.", success)

			if err := kv.Delete("a"); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to delete a key: %v", failed, err)
			}
			if _, err := kv.Get("a"); !errors.Is(err, storage.ErrKeyNotFound) {
				t.Fatalf("\t%s\tTest 0:\tShould not find a deleted key: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould not find a deleted key.", success)
		}

		t.Logf("\tTest 1:\tWhen listing keys by prefix.")
		{
			kv := memory.New()

			keys := []string{"block_03", "block_01", "block_02", "other_01"}
			for _, key := range keys {
				if err := kv.Put(key, []byte(key)); err != nil {
					t.Fatalf("\t%s\tTest 1:\tShould be able to put a key: %v", failed, err)
				}
			}

			items, err := kv.List("block_")
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to list by prefix: %v", failed, err)
			}

			if len(items) != 3 {
				t.Fatalf("\t%s\tTest 1:\tShould only match the prefix: %d", failed, len(items))
			}
			t.Logf("\t%s\tTest 1:\tShould only match the prefix.", success)

			for i, want := range []string{"block_01", "block_02", "block_03"} {
				if items[i].Key != want {
					t.Fatalf("\t%s\tTest 1:\tShould list keys in ascending order: got %s at %d", failed, items[i].Key, i)
				}
			}
			t.Logf("\t%s\tTest 1:\tShould list keys in ascending order.", success)
		}

		t.Logf("\tTest 2:\tWhen mutating a value returned by the store.")
		{
			kv := memory.New()

			if err := kv.Put("a", []byte("abc")); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to put a key: %v", failed, err)
			}

			data, _ := kv.Get("a")
			data[0] = 'z'

			fresh, _ := kv.Get("a")
			if string(fresh) != "abc" {
				t.Fatalf("\t%s\tTest 2:\tShould not expose internal buffers: %q", failed, fresh)
			}
			t.Logf("\t%s\tTest 2:\tShould not expose internal buffers.", success)
		}
	}
}
