package run

import (
	"fmt"

	"alignbench/domain/core"
)

// ScorerVersion is bumped whenever matching or metric rules change, so old records stop replay-matching
const ScorerVersion = "1"

// RunFingerprint ensures deterministic replay
type RunFingerprint struct {
	InputHash     core.Hash `json:"input_hash"`
	ScorerVersion string    `json:"scorer_version"`
	Fingerprint   core.Hash `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from the scoring inputs hash and scorer version
func NewRunFingerprint(inputHash core.Hash, scorerVersion string) RunFingerprint {
	return RunFingerprint{
		InputHash:     inputHash,
		ScorerVersion: scorerVersion,
		Fingerprint:   computeRunFingerprint(inputHash, scorerVersion),
	}
}

func computeRunFingerprint(inputHash core.Hash, scorerVersion string) core.Hash {
	data := fmt.Sprintf("input:%s|scorer:%s", inputHash, scorerVersion)
	return core.NewHash([]byte(data))
}

// Matches reports whether a replay produced the same fingerprint
func (f RunFingerprint) Matches(other RunFingerprint) bool {
	return f.Fingerprint.Equals(other.Fingerprint)
}
