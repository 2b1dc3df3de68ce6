// Package hashing provides the digest functions used across the chain.
package hashing

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// Digest returns a unique hex encoded sha256 for the value. The value is
// marshaled to JSON first so any struct or map with deterministic field
// ordering produces a reproducible digest.
func Digest(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// DigestString returns the hex encoded sha256 of the raw string bytes.
func DigestString(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hexutil.Encode(hash[:])
}

// PSShaInfinity produces the iterated "PS-SHA∞" digest of the data. The
// iteration count grows with the infinity factor and the severity of the
// attack being absorbed. The repeated hashing is a deliberate
// computational-cost signal, not a security property: it makes each proof
// more expensive to recompute but offers no cryptographic guarantee beyond
// the underlying sha256.
func PSShaInfinity(data string, infinityFactor float64, attackSeverity float64) string {
	iterations := int(math.Floor(infinityFactor + attackSeverity*2))
	if iterations < 1 {
		iterations = 1
	}

	factor := strconv.FormatFloat(infinityFactor, 'f', -1, 64)
	severity := strconv.FormatFloat(attackSeverity, 'f', -1, 64)

	hash := data
	for i := 0; i < iterations; i++ {
		hash = DigestString(fmt.Sprintf("%s:%d:%s:%s", hash, i, factor, severity))
	}

	return fmt.Sprintf("∞%d_%s", iterations, hash)
}
