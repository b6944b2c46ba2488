// Package index maps identifiers to records for one validation run.
package index

import (
	"github.com/ajitpratap0/adlint/internal/diag"
	"github.com/ajitpratap0/adlint/internal/loader"
)

// Index holds, per entity type, the first record seen for each id. It is
// read-only once built.
type Index struct {
	byType map[string]map[string]*loader.Record
	ids    map[string][]string
}

// Build indexes every collection of the snapshot in file order. A repeated id
// keeps the first record and yields one DUPLICATE_ID per later occurrence.
func Build(snap *loader.Snapshot, order []string) (*Index, []diag.Diagnostic) {
	idx := &Index{
		byType: make(map[string]map[string]*loader.Record, len(order)),
		ids:    make(map[string][]string, len(order)),
	}
	var diags []diag.Diagnostic
	for _, entity := range order {
		seen := make(map[string]*loader.Record)
		for _, rec := range snap.Collection(entity).Records {
			if rec.ID == "" {
				continue
			}
			if first, dup := seen[rec.ID]; dup {
				pos := diag.At(entity, rec.Index, "id")
				pos.EntityID = rec.ID
				diags = append(diags, diag.Errorf(diag.CodeDuplicateID, pos,
					"duplicate %s id %q (first defined at %s[%d])", entity, rec.ID, entity, first.Index))
				continue
			}
			seen[rec.ID] = rec
			idx.ids[entity] = append(idx.ids[entity], rec.ID)
		}
		idx.byType[entity] = seen
	}
	return idx, diags
}

// Lookup returns the record holding id in the entity's collection.
func (x *Index) Lookup(entity, id string) (*loader.Record, bool) {
	rec, ok := x.byType[entity][id]
	return rec, ok
}

// Has reports whether id exists in the entity's collection.
func (x *Index) Has(entity, id string) bool {
	_, ok := x.byType[entity][id]
	return ok
}

// IDs returns the distinct ids of an entity type in file order.
func (x *Index) IDs(entity string) []string {
	out := make([]string, len(x.ids[entity]))
	copy(out, x.ids[entity])
	return out
}

// Len returns the number of distinct ids indexed for an entity type.
func (x *Index) Len(entity string) int {
	return len(x.ids[entity])
}
