package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific identifier types
type (
	RunID        ID
	HypothesisID ID
	Framework    ID
	Branch       ID
)

func (id RunID) String() string        { return ID(id).String() }
func (id HypothesisID) String() string { return ID(id).String() }
func (id Framework) String() string    { return ID(id).String() }
func (id Branch) String() string       { return ID(id).String() }

// ValidateSegment checks that s names exactly one directory level.
// Frameworks and branches become directory names in the file stores.
func ValidateSegment(field, s string) error {
	switch {
	case strings.TrimSpace(s) == "":
		return fmt.Errorf("%w: %s cannot be empty", ErrInvalidInput, field)
	case s == "." || s == "..":
		return fmt.Errorf("%w: %s cannot be %q", ErrInvalidInput, field, s)
	case strings.ContainsAny(s, `/\`):
		return fmt.Errorf("%w: %s %q contains a path separator", ErrInvalidInput, field, s)
	}
	return nil
}

// ParseFramework parses a string into Framework
func ParseFramework(s string) (Framework, error) {
	if err := ValidateSegment("framework", s); err != nil {
		return "", err
	}
	return Framework(s), nil
}

// ParseBranch parses a string into Branch
func ParseBranch(s string) (Branch, error) {
	if err := ValidateSegment("branch", s); err != nil {
		return "", err
	}
	return Branch(s), nil
}

// ParseHypothesisID parses a string into HypothesisID
func ParseHypothesisID(s string) (HypothesisID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: hypothesis ID cannot be empty", ErrInvalidInput)
	}
	return HypothesisID(s), nil
}
