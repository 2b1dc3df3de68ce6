package chaingrp

// newEntry is what clients submit to append an event to the ledger.
type newEntry struct {
	Actor     string         `json:"actor" validate:"required"`
	Verb      string         `json:"verb" validate:"required"`
	Target    string         `json:"target" validate:"required"`
	Namespace string         `json:"namespace" validate:"required"`
	Data      map[string]any `json:"data"`
	Priority  uint           `json:"priority"`
	Fee       uint           `json:"fee"`
}

// newValidator is what clients submit to stake into the validator set.
type newValidator struct {
	Identity string `json:"identity" validate:"required"`
	Stake    uint64 `json:"stake" validate:"required,gt=0"`
}

// mineRequest names the validator attempting to produce the next block.
type mineRequest struct {
	Validator string `json:"validator" validate:"required"`
}

// attackReport is what monitoring clients submit when they observe an
// attack against the chain.
type attackReport struct {
	Attacker   string `json:"attacker" validate:"required"`
	AttackType string `json:"attackType" validate:"required"`
}
