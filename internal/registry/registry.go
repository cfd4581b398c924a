// Package registry implements the Model Registry: a declarative,
// read-mostly catalogue of candidate models. It is populated once at
// startup and treated as immutable thereafter — hot-reloading the
// catalogue itself is a non-goal (SPEC_FULL.md §3); reads require no
// synchronization.
package registry

import (
	"sort"

	"github.com/normanhq/gatewayrouter/pkg/gwerrors"
	"github.com/normanhq/gatewayrouter/pkg/types"
)

// Registry is the single source of truth for what models exist.
type Registry struct {
	byID   map[string]types.ModelCapability
	sorted []string // identifiers, sorted — deterministic iteration order
}

// New validates and loads a set of capabilities into a Registry. It rejects
// duplicate identifiers and entries that violate the invariants in
// SPEC_FULL.md §3.
func New(entries []types.ModelCapability) (*Registry, error) {
	byID := make(map[string]types.ModelCapability, len(entries))
	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return nil, gwerrors.NewInvalidCapability(entry.ID, err.Error())
		}
		if _, exists := byID[entry.ID]; exists {
			return nil, gwerrors.NewInvalidCapability(entry.ID, "duplicate model identifier")
		}
		byID[entry.ID] = entry
	}

	sorted := make([]string, 0, len(byID))
	for id := range byID {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	return &Registry{byID: byID, sorted: sorted}, nil
}

// Lookup returns the capability record for id, or false if it does not
// exist.
func (r *Registry) Lookup(id string) (types.ModelCapability, bool) {
	cap, ok := r.byID[id]
	return cap, ok
}

// Has is a membership test.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// All returns every entry, in deterministic (sorted-by-identifier) order —
// the order the router iterates in so that scoring ties break
// reproducibly.
func (r *Registry) All() []types.ModelCapability {
	out := make([]types.ModelCapability, 0, len(r.sorted))
	for _, id := range r.sorted {
		out = append(out, r.byID[id])
	}
	return out
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	return len(r.byID)
}

// SupportsTask reports whether at least one registered model supports kind.
func (r *Registry) SupportsTask(kind types.TaskKind) bool {
	for _, id := range r.sorted {
		if r.byID[id].SupportsTask(kind) {
			return true
		}
	}
	return false
}
