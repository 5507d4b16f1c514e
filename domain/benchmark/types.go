package benchmark

import (
	"fmt"
	"strings"

	"alignbench/domain/core"
)

// Kind is one of the three exhaustive misalignment categories
type Kind string

const (
	KindMissing    Kind = "missing"
	KindIncorrect  Kind = "incorrect"
	KindExtraneous Kind = "extraneous"
)

// Kinds returns every kind in canonical order
func Kinds() []Kind {
	return []Kind{KindMissing, KindIncorrect, KindExtraneous}
}

// ParseKind accepts canonical names and the legacy typeN aliases
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "missing", "type1", "type1_missing":
		return KindMissing, nil
	case "incorrect", "type2", "type2_incorrect":
		return KindIncorrect, nil
	case "extraneous", "type3", "type3_extraneous":
		return KindExtraneous, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownKind, s)
}

func (k Kind) String() string { return string(k) }

// Valid reports whether k is one of the three kinds
func (k Kind) Valid() bool {
	return k == KindMissing || k == KindIncorrect || k == KindExtraneous
}

// Ordinal is the position of k in canonical order, or len(Kinds()) for an invalid kind
func (k Kind) Ordinal() int {
	for i, kind := range Kinds() {
		if kind == k {
			return i
		}
	}
	return len(Kinds())
}

// LegacyKey is the field name older ground-truth and report documents use for this kind
func (k Kind) LegacyKey() string {
	switch k {
	case KindMissing:
		return "type1_missing"
	case KindIncorrect:
		return "type2_incorrect"
	case KindExtraneous:
		return "type3_extraneous"
	}
	return ""
}

// GroundTruthItem is one planted misalignment.
// Files == nil means the field was absent; an empty non-nil slice means "files": [].
type GroundTruthItem struct {
	Kind  Kind     `json:"-"`
	Key   string   `json:"key"`
	Files []string `json:"files"`
}

// ReportedItem is one finding extracted from a framework's output
type ReportedItem struct {
	Kind  Kind     `json:"-"`
	Key   string   `json:"key"`
	Files []string `json:"files"`
}

// Validate checks the ground-truth item against the field rules of kind
func (it GroundTruthItem) Validate(kind Kind, index int) error {
	return validateItem(kind, it.Kind, core.SideGroundTruth, index, it.Key, it.Files)
}

// Validate checks the reported item against the field rules of kind
func (it ReportedItem) Validate(kind Kind, index int) error {
	return validateItem(kind, it.Kind, core.SideReported, index, it.Key, it.Files)
}

func validateItem(kind, itemKind Kind, side core.Side, index int, key string, files []string) error {
	malformed := func(field, reason string) error {
		return &core.MalformedReportError{Kind: kind.String(), Side: side, Index: index, Field: field, Reason: reason}
	}
	if itemKind != "" && itemKind != kind {
		return malformed("kind", fmt.Sprintf("is %q, expected %q", itemKind, kind))
	}
	if key == "" {
		return malformed("key", "is required")
	}
	switch kind {
	case KindMissing:
		if len(files) > 0 {
			return malformed("files", "is not allowed for missing items")
		}
	case KindIncorrect:
		if files == nil {
			return malformed("files", "is required for incorrect items")
		}
		// an empty list is a plain non-match when reported, but planted items must name a file
		if side == core.SideGroundTruth && len(files) == 0 {
			return malformed("files", "must not be empty for incorrect ground truth")
		}
	case KindExtraneous:
		// Key-only extraneous items come from legacy flat-string documents, which decode to
		// {key} with no files (see "Canonical schema" in DESIGN.md). They still match by key.
	default:
		return fmt.Errorf("%w: %q", core.ErrUnknownKind, kind)
	}
	for i, f := range files {
		if f == "" {
			return malformed(fmt.Sprintf("files[%d]", i), "is empty")
		}
	}
	return nil
}

// GroundTruthSet is the authored answer key for one branch and kind.
// Item order is significant: the scorer processes items in this order.
type GroundTruthSet struct {
	Branch core.Branch       `json:"branch,omitempty"`
	Kind   Kind              `json:"kind"`
	Items  []GroundTruthItem `json:"items"`
}

// GroundTruthBundle holds the ground-truth sets of one branch, keyed by kind
type GroundTruthBundle map[Kind]GroundTruthSet

// Report is one run's findings for one kind
type Report struct {
	Kind  Kind           `json:"kind"`
	Items []ReportedItem `json:"items"`
}

// CombinedReport carries the three per-kind lists of a combined-detection run
type CombinedReport map[Kind]Report

// RunKey identifies one execution: framework, branch, kind and 1-based run number
type RunKey struct {
	Framework core.Framework `json:"framework" db:"framework"`
	Branch    core.Branch    `json:"branch" db:"branch"`
	Kind      Kind           `json:"kind" db:"kind"`
	Run       int            `json:"run" db:"run_number"`
}

func (k RunKey) String() string {
	return fmt.Sprintf("%s/%s/%s/run%d", k.Framework, k.Branch, k.Kind, k.Run)
}

// PairLabel identifies the test condition independent of framework.
// Two runs with the same label are paired observations.
func (k RunKey) PairLabel() string {
	return fmt.Sprintf("%s/%s/%d", k.Branch, k.Kind, k.Run)
}

// Less orders keys by framework, branch, kind (canonical order) and run number
func (k RunKey) Less(o RunKey) bool {
	if k.Framework != o.Framework {
		return k.Framework < o.Framework
	}
	if k.Branch != o.Branch {
		return k.Branch < o.Branch
	}
	if k.Kind != o.Kind {
		return k.Kind.Ordinal() < o.Kind.Ordinal()
	}
	return k.Run < o.Run
}

// Validate checks that every component of the key is set and that framework
// and branch are single path segments
func (k RunKey) Validate() error {
	if err := k.Series().Validate(); err != nil {
		return err
	}
	if k.Run < 1 {
		return core.NewValidationError("run", "must be >= 1")
	}
	return nil
}

// SeriesKey identifies a (framework, branch, kind) run series
type SeriesKey struct {
	Framework core.Framework `json:"framework"`
	Branch    core.Branch    `json:"branch"`
	Kind      Kind           `json:"kind"`
}

// Validate checks framework and branch as path segments and the kind
func (k SeriesKey) Validate() error {
	if err := core.ValidateSegment("framework", string(k.Framework)); err != nil {
		return err
	}
	if err := core.ValidateSegment("branch", string(k.Branch)); err != nil {
		return err
	}
	if !k.Kind.Valid() {
		return fmt.Errorf("%w: %q", core.ErrUnknownKind, k.Kind)
	}
	return nil
}

// Series returns the series this run belongs to
func (k RunKey) Series() SeriesKey {
	return SeriesKey{Framework: k.Framework, Branch: k.Branch, Kind: k.Kind}
}

func (k SeriesKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Framework, k.Branch, k.Kind)
}
