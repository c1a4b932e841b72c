// Package catalog defines the variable catalog: the static mapping from a
// shard group name to the ordered set of variables physically co-located in
// that group's shards.
//
// The catalog is fixed data. It is constructed once at startup, validated,
// and passed explicitly to every component that resolves groups; changing it
// means a new deployment, not a runtime operation.
package catalog

import (
	"fmt"

	"github.com/xtxerr/stratus/internal/errors"
)

// Group describes one shard group.
type Group struct {
	// Name is the catalog key, e.g. "sfc" or "pcp_surface_tp".
	Name string

	// Variables are the names of the arrays this group's shards carry, in
	// shard order. Non-empty, unique.
	Variables []string

	// Daily marks groups whose shards are month files sampled once per day:
	// a single shard covers every calendar day of its month. Non-daily
	// groups produce one shard per day covering exactly one day.
	Daily bool

	// SamplesPerDay is the number of timestamps stored per day (24 for
	// hourly groups, 2 for forecast groups).
	SamplesPerDay int
}

// Catalog is an immutable set of groups keyed by name.
type Catalog struct {
	groups map[string]Group
	names  []string
}

// New builds a catalog from the given groups. Every group must have a
// unique name, at least one variable, no duplicate variables, and a
// positive sample rate.
func New(groups []Group) (*Catalog, error) {
	c := &Catalog{groups: make(map[string]Group, len(groups))}
	var verrs errors.ValidationErrors
	for _, g := range groups {
		if g.Name == "" {
			verrs.AddField("group", "name is required")
			continue
		}
		if _, dup := c.groups[g.Name]; dup {
			verrs.AddField("group "+g.Name, "duplicate group name")
			continue
		}
		if len(g.Variables) == 0 {
			verrs.AddField("group "+g.Name, "at least one variable is required")
		}
		seen := make(map[string]bool, len(g.Variables))
		for _, v := range g.Variables {
			if seen[v] {
				verrs.AddField("group "+g.Name, "duplicate variable "+v)
			}
			seen[v] = true
		}
		if g.SamplesPerDay <= 0 {
			verrs.AddField("group "+g.Name, "samples per day must be positive")
		}
		c.groups[g.Name] = g
		c.names = append(c.names, g.Name)
	}
	if err := verrs.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// Group returns the group registered under name.
func (c *Catalog) Group(name string) (Group, error) {
	g, ok := c.groups[name]
	if !ok {
		return Group{}, fmt.Errorf("%q: %w", name, errors.ErrUnknownGroup)
	}
	return g, nil
}

// Lookup returns the ordered variable names of the group. An unregistered
// group name is a hard failure, never a silent empty result.
func (c *Catalog) Lookup(name string) ([]string, error) {
	g, err := c.Group(name)
	if err != nil {
		return nil, err
	}
	vars := make([]string, len(g.Variables))
	copy(vars, g.Variables)
	return vars, nil
}

// Has reports whether the group is registered.
func (c *Catalog) Has(name string) bool {
	_, ok := c.groups[name]
	return ok
}

// Names returns the group names in registration order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.names))
	copy(names, c.names)
	return names
}

// Len returns the number of registered groups.
func (c *Catalog) Len() int {
	return len(c.groups)
}
