package stage

import (
	"fmt"
	"strings"
)

// ID is the closed set of stage identities.
type ID string

const (
	Intake     ID = "INTAKE"
	Understand ID = "UNDERSTAND"
	Prepare    ID = "PREPARE"
	Ask        ID = "ASK"
	Wait       ID = "WAIT"
	Retrieve   ID = "RETRIEVE"
	Decide     ID = "DECIDE"
	Update     ID = "UPDATE"
	Create     ID = "CREATE"
	Do         ID = "DO"
	Complete   ID = "COMPLETE"
)

var allIDs = []ID{Intake, Understand, Prepare, Ask, Wait, Retrieve, Decide, Update, Create, Do, Complete}

// AllIDs returns every known stage identity in pipeline order.
func AllIDs() []ID {
	return append([]ID(nil), allIDs...)
}

// Valid reports whether id is a known identity.
func (id ID) Valid() bool {
	for _, known := range allIDs {
		if id == known {
			return true
		}
	}
	return false
}

// ParseID converts a case-insensitive name into an ID.
func ParseID(name string) (ID, error) {
	id := ID(strings.ToUpper(strings.TrimSpace(name)))
	if !id.Valid() {
		return "", fmt.Errorf("unknown stage %q", name)
	}
	return id, nil
}

func (id ID) String() string { return string(id) }

// Mode distinguishes fixed ability lists from runtime selection.
type Mode string

const (
	Deterministic Mode = "deterministic"
	Dynamic       Mode = "dynamic"
)

// ParseMode converts a case-insensitive mode name. Empty means deterministic.
func ParseMode(name string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(name))) {
	case "", Deterministic:
		return Deterministic, nil
	case Dynamic:
		return Dynamic, nil
	default:
		return "", fmt.Errorf("unknown stage mode %q", name)
	}
}
