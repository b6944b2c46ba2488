package validator

import (
	"github.com/ajitpratap0/adlint/internal/diag"
	"github.com/ajitpratap0/adlint/internal/index"
	"github.com/ajitpratap0/adlint/internal/loader"
	"github.com/ajitpratap0/adlint/internal/schema"
)

// checkReferences resolves every value of every reference field against the
// declared target's index. Id prefixes play no part in resolution.
func checkReferences(snap *loader.Snapshot, idx *index.Index, reg *schema.Registry) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, name := range reg.Order() {
		refs := referenceFields(reg.MustEntity(name))
		if len(refs) == 0 {
			continue
		}
		for _, rec := range snap.Collection(name).Records {
			if !rec.IsMapping() {
				continue
			}
			for _, ref := range refs {
				out = append(out, resolveField(rec, ref, idx)...)
			}
		}
	}
	return out
}

func referenceFields(e *schema.EntityType) []schema.FieldRef {
	var out []schema.FieldRef
	for _, ref := range e.Walk() {
		if ref.Field.Kind.IsReference() {
			out = append(out, ref)
		}
	}
	return out
}

func resolveField(rec *loader.Record, ref schema.FieldRef, idx *index.Index) []diag.Diagnostic {
	var out []diag.Diagnostic
	f := ref.Field
	pos := diag.At(rec.Entity, rec.Index, ref.Path)
	pos.EntityID = rec.ID
	for _, id := range rec.Strings(ref.Path) {
		if f.NoSelfReference && f.Target == rec.Entity && id == rec.ID {
			out = append(out, diag.Errorf(diag.CodeSelfReference, pos,
				"%s %s references itself in %s", rec.Entity, rec.ID, ref.Path))
			continue
		}
		if idx.Has(f.Target, id) {
			continue
		}
		build := diag.Errorf
		if f.Advisory {
			build = diag.Warnf
		}
		out = append(out, build(diag.CodeUnresolvedReference, pos,
			"%s references unknown %s id %q", ref.Path, f.Target, id))
	}
	return out
}
