package stage

import (
	"fmt"
	"sort"

	"supportflow/internal/services"
	"supportflow/internal/state"
)

// Catalog is a validated, ordered stage graph.
type Catalog struct {
	entry ID
	order []ID
	defs  map[ID]Definition
}

// NewCatalog validates defs and returns a catalog rooted at entry.
func NewCatalog(entry ID, defs []Definition) (*Catalog, error) {
	c := &Catalog{entry: entry, defs: make(map[ID]Definition, len(defs))}
	for _, d := range defs {
		if !d.ID.Valid() {
			return nil, catalogError("unknown stage %q", d.ID)
		}
		if _, dup := c.defs[d.ID]; dup {
			return nil, catalogError("stage %s defined twice", d.ID)
		}
		c.defs[d.ID] = d.clone()
		c.order = append(c.order, d.ID)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func catalogError(format string, args ...any) error {
	return services.Wrap(services.ErrConfiguration, "", "validate catalog", fmt.Sprintf(format, args...), nil)
}

func (c *Catalog) validate() error {
	if len(c.defs) == 0 {
		return catalogError("catalog has no stages")
	}
	if _, ok := c.defs[c.entry]; !ok {
		return catalogError("entry stage %q not defined", c.entry)
	}
	terminals := 0
	for _, id := range c.order {
		d := c.defs[id]
		switch d.Mode {
		case Deterministic, Dynamic:
		default:
			return catalogError("stage %s has unknown mode %q", id, d.Mode)
		}
		if d.Provider == "" {
			return catalogError("stage %s has no provider", id)
		}
		if d.Mode == Deterministic && len(d.Abilities) == 0 {
			return catalogError("deterministic stage %s has no abilities", id)
		}
		if d.Next != "" {
			if _, ok := c.defs[d.Next]; !ok {
				return catalogError("stage %s: next stage %q not defined", id, d.Next)
			}
		}
		if d.Branch != nil {
			if d.Mode != Dynamic {
				return catalogError("stage %s: conditions are only allowed on dynamic stages", id)
			}
			if d.Next == "" {
				return catalogError("stage %s: conditional stage needs a next stage", id)
			}
			if d.Branch.Predicate == nil {
				return catalogError("stage %s: condition %q has no predicate", id, d.Branch.Condition)
			}
			if _, ok := c.defs[d.Branch.Otherwise]; !ok {
				return catalogError("stage %s: otherwise stage %q not defined", id, d.Branch.Otherwise)
			}
		}
		if d.Terminal() {
			terminals++
		}
	}
	if terminals == 0 {
		return catalogError("catalog has no terminal stage")
	}
	return nil
}

// Entry returns the entry stage.
func (c *Catalog) Entry() ID { return c.entry }

// Lookup returns the definition for id.
func (c *Catalog) Lookup(id ID) (Definition, bool) {
	d, ok := c.defs[id]
	if !ok {
		return Definition{}, false
	}
	return d.clone(), true
}

// Len returns the number of stages.
func (c *Catalog) Len() int { return len(c.order) }

// Definitions returns every stage in catalog order.
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.defs[id].clone())
	}
	return out
}

// Providers lists the distinct providers referenced by the catalog.
func (c *Catalog) Providers() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, id := range c.order {
		p := c.defs[id].Provider
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Successor resolves the edge leaving id for st. Terminal stages resolve to "".
func (c *Catalog) Successor(id ID, st *state.State) (ID, error) {
	d, ok := c.defs[id]
	if !ok {
		return "", fmt.Errorf("stage %q not in catalog", id)
	}
	return d.Successor(st), nil
}

// Path follows unconditional edges and the true side of conditional edges
// from the entry stage to a terminal stage. It fails when the walk revisits a
// stage.
func (c *Catalog) Path() ([]ID, error) {
	var path []ID
	seen := map[ID]bool{}
	for id := c.entry; id != ""; id = c.defs[id].Next {
		if seen[id] {
			return path, fmt.Errorf("stage %s revisited on primary path", id)
		}
		seen[id] = true
		path = append(path, id)
	}
	return path, nil
}
