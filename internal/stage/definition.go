package stage

import (
	"fmt"
	"strings"

	"supportflow/internal/ability"
	"supportflow/internal/state"
)

// Condition names a routing predicate that catalogs may attach to a dynamic stage.
type Condition string

const (
	// ConditionClarificationNeeded continues when the customer must be asked a question.
	ConditionClarificationNeeded Condition = "clarification_needed"
	// ConditionEscalationRequired continues only when escalation is not required.
	ConditionEscalationRequired Condition = "escalation_required"
)

// Predicate decides a conditional edge from the current state. It must not
// modify the state.
type Predicate func(*state.State) bool

var predicates = map[Condition]Predicate{
	ConditionClarificationNeeded: func(st *state.State) bool { return st.ClarificationNeeded },
	ConditionEscalationRequired:  func(st *state.State) bool { return !st.EscalationRequired },
}

// PredicateFor returns the predicate bound to condition.
func PredicateFor(condition Condition) (Predicate, bool) {
	p, ok := predicates[condition]
	return p, ok
}

// Branch is a conditional edge: Next when the predicate holds, Otherwise when not.
type Branch struct {
	Condition Condition
	Predicate Predicate
	Otherwise ID
}

// NewBranch binds a named condition to its predicate.
func NewBranch(condition Condition, otherwise ID) (*Branch, error) {
	condition = Condition(strings.ToLower(strings.TrimSpace(string(condition))))
	p, ok := PredicateFor(condition)
	if !ok {
		return nil, fmt.Errorf("unknown condition %q", condition)
	}
	return &Branch{Condition: condition, Predicate: p, Otherwise: otherwise}, nil
}

// Definition describes one stage. Definitions are immutable once placed in a catalog.
type Definition struct {
	ID        ID
	Mode      Mode
	Abilities []ability.Name
	Provider  string
	// Next is the successor; empty marks a terminal stage.
	Next   ID
	Branch *Branch
	Prompt string
}

// Terminal reports whether the stage ends the traversal.
func (d Definition) Terminal() bool {
	return d.Next == "" && d.Branch == nil
}

// Successor resolves the outgoing edge for st.
func (d Definition) Successor(st *state.State) ID {
	if d.Branch != nil && d.Branch.Predicate != nil && !d.Branch.Predicate(st) {
		return d.Branch.Otherwise
	}
	return d.Next
}

func (d Definition) clone() Definition {
	d.Abilities = append([]ability.Name(nil), d.Abilities...)
	if d.Branch != nil {
		b := *d.Branch
		d.Branch = &b
	}
	return d
}
