package gaps

import (
	"strings"

	"github.com/ajitpratap0/adlint/internal/diag"
	"github.com/ajitpratap0/adlint/internal/index"
	"github.com/ajitpratap0/adlint/internal/loader"
)

// Analyze applies every rule to the snapshot. Rules are independent; their
// findings are concatenated in rule order.
func Analyze(snap *loader.Snapshot, idx *index.Index, rules []Rule) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, r := range rules {
		switch r.Kind {
		case KindEmpty:
			out = append(out, analyzeEmpty(snap, r)...)
		case KindUnreferenced:
			out = append(out, analyzeUnreferenced(snap, idx, r)...)
		case KindMatch:
			out = append(out, analyzeMatch(snap, r)...)
		case KindUnserved:
			out = append(out, analyzeUnserved(snap, idx, r)...)
		}
	}
	return out
}

// applies reports whether a record is in scope: When holds and Unless does not.
func (r Rule) applies(rec *loader.Record) bool {
	if !rec.IsMapping() || !r.When.holds(rec) {
		return false
	}
	return r.Unless == nil || !r.Unless.holds(rec)
}

func analyzeEmpty(snap *loader.Snapshot, r Rule) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, rec := range snap.Collection(r.Entity).Records {
		if !r.applies(rec) || !allEmpty(rec, r.Fields) {
			continue
		}
		out = append(out, finding(r, rec))
	}
	return out
}

func analyzeMatch(snap *loader.Snapshot, r Rule) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, rec := range snap.Collection(r.Entity).Records {
		if r.applies(rec) {
			out = append(out, finding(r, rec))
		}
	}
	return out
}

// analyzeUnserved reports records that are referenced, but never by a
// referrer satisfying r.Referrer. Unreferenced records are left to
// unreferenced rules.
func analyzeUnserved(snap *loader.Snapshot, idx *index.Index, r Rule) []diag.Diagnostic {
	referenced := make(map[string]bool)
	served := make(map[string]bool)
	for _, rec := range snap.Collection(r.ReferencedBy.Entity).Records {
		if !rec.IsMapping() {
			continue
		}
		ok := r.Referrer.holds(rec)
		for _, id := range rec.Strings(r.ReferencedBy.Field) {
			referenced[id] = true
			if ok {
				served[id] = true
			}
		}
	}
	var out []diag.Diagnostic
	for _, id := range idx.IDs(r.Entity) {
		if !referenced[id] || served[id] {
			continue
		}
		rec, _ := idx.Lookup(r.Entity, id)
		if r.applies(rec) {
			out = append(out, finding(r, rec))
		}
	}
	return out
}

func analyzeUnreferenced(snap *loader.Snapshot, idx *index.Index, r Rule) []diag.Diagnostic {
	referenced := make(map[string]bool)
	for _, rec := range snap.Collection(r.ReferencedBy.Entity).Records {
		for _, id := range rec.Strings(r.ReferencedBy.Field) {
			referenced[id] = true
		}
	}
	var out []diag.Diagnostic
	for _, id := range idx.IDs(r.Entity) {
		if referenced[id] {
			continue
		}
		rec, _ := idx.Lookup(r.Entity, id)
		out = append(out, finding(r, rec))
	}
	return out
}

func finding(r Rule, rec *loader.Record) diag.Diagnostic {
	pos := diag.At(r.Entity, rec.Index, r.locationField())
	pos.EntityID = rec.ID
	id := rec.ID
	if id == "" {
		id = "(no id)"
	}
	return diag.Warnf(r.Code, pos, "%s", strings.ReplaceAll(r.Message, "{id}", id))
}

func allEmpty(rec *loader.Record, paths []string) bool {
	for _, p := range paths {
		if n, ok := rec.Lookup(p); ok && !loader.IsEmpty(n) {
			return false
		}
	}
	return true
}

// holds reports whether the record matches; a nil condition matches everything.
func (c *Condition) holds(rec *loader.Record) bool {
	if c == nil {
		return true
	}
	if c.Contains != "" && !containsFold(rec.Strings(c.Field), c.Contains) {
		return false
	}
	for _, want := range c.ContainsAll {
		if !containsFold(rec.Strings(c.Field), want) {
			return false
		}
	}
	if len(c.MatchesAny) > 0 && !matchesAny(rec.Strings(c.Field), c.MatchesAny) {
		return false
	}
	if c.Equals != "" {
		values := rec.Strings(c.Field)
		if len(values) != 1 || !strings.EqualFold(values[0], c.Equals) {
			return false
		}
	}
	if len(c.AnyNonEmpty) > 0 {
		matched := false
		for _, p := range c.AnyNonEmpty {
			if n, ok := rec.Lookup(p); ok && !loader.IsEmpty(n) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

func matchesAny(values, substrings []string) bool {
	for _, v := range values {
		v = strings.ToLower(v)
		for _, sub := range substrings {
			if strings.Contains(v, strings.ToLower(sub)) {
				return true
			}
		}
	}
	return false
}
