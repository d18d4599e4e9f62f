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
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
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

// Domain-specific ID types
type (
	RunID          ID
	CoefficientKey string
)

// NewRunID creates a fresh unique run identifier
func NewRunID() RunID {
	return RunID(NewID())
}

func (id RunID) String() string         { return ID(id).String() }
func (id RunID) IsEmpty() bool          { return id == "" }
func (k CoefficientKey) String() string { return string(k) }
func (k CoefficientKey) IsEmpty() bool  { return k == "" }

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// ParseCoefficientKey parses a string into CoefficientKey
func ParseCoefficientKey(s string) (CoefficientKey, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("coefficient key cannot be empty")
	}
	return CoefficientKey(s), nil
}
