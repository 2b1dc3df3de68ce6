// Package merkle computes the root digest over the ordered list of
// transaction ids confirmed by a block.
package merkle

import "github.com/psinfinity/infinitychain/foundation/infinitychain/hashing"

// EmptyRoot is the sentinel root for a block with no transactions.
const EmptyRoot = "empty"

// ComputeRoot produces a single digest over an ordered list of transaction
// ids. The result is order sensitive: each id is hashed into a leaf and
// adjacent leaves are paired level by level, duplicating the last digest
// when a level has odd length, until one digest remains.
func ComputeRoot(ids []string) string {
	switch len(ids) {
	case 0:
		return EmptyRoot
	case 1:
		return hashing.DigestString(ids[0])
	}

	level := make([]string, len(ids))
	for i, id := range ids {
		level[i] = hashing.DigestString(id)
	}

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}

		next := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, hashing.DigestString(level[i]+level[i+1]))
		}

		level = next
	}

	return level[0]
}
