// Package infinity tracks attack events against the chain and derives the
// growing hash-iteration count and difficulty target used by the block
// producer. The policy is monotonic: difficulty and iterations never
// decrease automatically.
//
// No decay function is defined, matching the source system's behavior.
// Permanent hardening means a burst of recorded attacks raises the proof
// cost for every legitimate validator from then on, which is a potential
// denial-of-service vector. Flagged for design review rather than fixed
// here.
package infinity

import (
	"fmt"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Policy caps. Growth stops at these bounds; nothing lowers the values.
const (
	maxInfinityFactor = 100
	maxHashIterations = 50
	maxDifficulty     = 8

	factorStep     = 1
	iterationsStep = 2
	difficultyStep = 0.5
)

// maxPatterns bounds the suspicious pattern ring buffer.
const maxPatterns = 100

// State is the process-wide hardening state. It lives for the lifetime of
// the chain and is only ever mutated through Hardening.
type State struct {
	BaseDifficulty      float64   `json:"baseDifficulty"`
	CurrentDifficulty   float64   `json:"currentDifficulty"`
	InfinityFactor      float64   `json:"infinityFactor"`
	AttacksDetected     uint64    `json:"attacksDetected"`
	LastAttackTime      time.Time `json:"lastAttackTime,omitzero"`
	SuspiciousPatterns  []string  `json:"suspiciousPatterns"`
	ConcentrationAlerts uint64    `json:"concentrationAlerts"`
	RedistributionPool  uint64    `json:"redistributionPool"`
	HashIterations      int       `json:"hashIterations"`
}

// Hardening owns the mutable hardening state.
type Hardening struct {
	mu        sync.Mutex
	state     State
	intervals []float64
}

// New constructs the hardening state for a fresh chain with the specified
// base difficulty.
func New(baseDifficulty float64) *Hardening {
	return &Hardening{
		state: State{
			BaseDifficulty:    baseDifficulty,
			CurrentDifficulty: baseDifficulty,
			InfinityFactor:    1,
			HashIterations:    1,
		},
	}
}

// Load restores hardening from a persisted state.
func Load(st State) *Hardening {
	return &Hardening{state: st}
}

// Snapshot returns a read-only copy of the current state.
func (h *Hardening) Snapshot() State {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.snapshot()
}

// RecordAttack absorbs one attack event: the counters grow toward their
// caps and a pattern note is kept in the bounded ring buffer. Returns the
// updated state.
func (h *Hardening) RecordAttack(attacker string, attackType string) State {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now().UTC()

	if !h.state.LastAttackTime.IsZero() {
		h.intervals = append(h.intervals, now.Sub(h.state.LastAttackTime).Seconds())
		if len(h.intervals) > maxPatterns {
			h.intervals = h.intervals[1:]
		}
	}

	h.state.AttacksDetected++
	h.state.LastAttackTime = now

	if h.state.InfinityFactor+factorStep <= maxInfinityFactor {
		h.state.InfinityFactor += factorStep
	} else {
		h.state.InfinityFactor = maxInfinityFactor
	}

	if h.state.HashIterations+iterationsStep <= maxHashIterations {
		h.state.HashIterations += iterationsStep
	} else {
		h.state.HashIterations = maxHashIterations
	}

	if h.state.CurrentDifficulty+difficultyStep <= maxDifficulty {
		h.state.CurrentDifficulty += difficultyStep
	} else {
		h.state.CurrentDifficulty = maxDifficulty
	}

	h.state.SuspiciousPatterns = append(h.state.SuspiciousPatterns, h.patternNote(attacker, attackType, now))
	if len(h.state.SuspiciousPatterns) > maxPatterns {
		h.state.SuspiciousPatterns = h.state.SuspiciousPatterns[1:]
	}

	return h.snapshot()
}

// Difficulty returns the integer proof target: the number of leading zero
// hex digits the next block hash must carry.
func (h *Hardening) Difficulty() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return int(h.state.CurrentDifficulty)
}

// AddToPool moves a redistribution debit into the pending pool.
func (h *Hardening) AddToPool(amount uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state.RedistributionPool += amount
}

// DrainPool consumes the entire pending pool and records the
// concentration alert. The pool is spent exactly once per drain.
func (h *Hardening) DrainPool() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	pool := h.state.RedistributionPool
	h.state.RedistributionPool = 0
	h.state.ConcentrationAlerts++

	return pool
}

// patternNote describes one attack and, once enough events exist, the
// spacing statistics that hint at coordinated bursts.
func (h *Hardening) patternNote(attacker string, attackType string, now time.Time) string {
	note := fmt.Sprintf("%s attack by %s at %s", attackType, attacker, now.Format(time.RFC3339))

	if len(h.intervals) >= 2 {
		mean := stat.Mean(h.intervals, nil)
		sigma := stat.StdDev(h.intervals, nil)
		note = fmt.Sprintf("%s (interval mean %.1fs, stddev %.1fs)", note, mean, sigma)
	}

	return note
}

// snapshot copies the state, including the pattern slice so callers can't
// mutate the ring buffer. Callers must hold the lock.
func (h *Hardening) snapshot() State {
	st := h.state
	st.SuspiciousPatterns = make([]string, len(h.state.SuspiciousPatterns))
	copy(st.SuspiciousPatterns, h.state.SuspiciousPatterns)

	return st
}
