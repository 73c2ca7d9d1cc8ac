package constants

import (
	"sync/atomic"

	"golang.org/x/exp/slices"

	"github.com/syntropynet/globaldb/pkg/globaldb"
)

// Registry maps well-known asset identifiers to their current descriptor.
// Descriptors are never modified in place: a reload builds a fresh table and swaps it in.
type Registry struct {
	current atomic.Pointer[map[string]globaldb.AssetData]
}

func NewRegistry(descriptors []globaldb.AssetData) *Registry {
	r := &Registry{}
	r.Publish(descriptors)
	return r
}

// Publish replaces the whole table.
func (r *Registry) Publish(descriptors []globaldb.AssetData) {
	table := make(map[string]globaldb.AssetData, len(descriptors))
	for _, d := range descriptors {
		table[d.Identifier] = d
	}
	r.current.Store(&table)
}

func (r *Registry) Get(identifier string) (globaldb.AssetData, bool) {
	d, ok := (*r.current.Load())[identifier]
	return d, ok
}

// Identifiers returns the registered identifiers sorted.
func (r *Registry) Identifiers() []string {
	table := *r.current.Load()
	ids := make([]string, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// All returns the registered descriptors ordered by identifier.
func (r *Registry) All() []globaldb.AssetData {
	table := *r.current.Load()
	ret := make([]globaldb.AssetData, 0, len(table))
	for _, id := range r.Identifiers() {
		if d, ok := table[id]; ok {
			ret = append(ret, d)
		}
	}
	return ret
}
