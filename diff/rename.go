package diff

import "github.com/schemadrift/schemadrift/ir"

// renamedFromExtraKey is the IndexDef.Extra key a dialect parser stashes an
// index's `@renamed`-annotation source name under, since IndexDef has no
// dedicated RenamedFrom field the way Table/Column/View do.
const renamedFromExtraKey = "schemadrift.renamed_from"

// resolveRenameMatch looks a renamed_from key up in current_by_key, refusing
// a candidate that some other desired object already claimed via ordinary
// name matching.
func resolveRenameMatch[K comparable, V any](renamedFrom *K, currentByKey map[K]V, matchedCurrentKeys map[K]struct{}) (K, V, bool) {
	var zeroK K
	var zeroV V
	if renamedFrom == nil {
		return zeroK, zeroV, false
	}
	if _, matched := matchedCurrentKeys[*renamedFrom]; matched {
		return zeroK, zeroV, false
	}
	v, ok := currentByKey[*renamedFrom]
	return *renamedFrom, v, ok
}

func indexRenamedFrom(index ir.IndexDef) *ir.Ident {
	v, ok := index.Extra[renamedFromExtraKey]
	if !ok {
		return nil
	}
	sv, ok := v.(ir.StringValue)
	if !ok {
		return nil
	}
	ident := ir.NewIdent(sv.Value)
	return &ident
}

// indexesEquivalentForRename compares desired and current ignoring the name
// (which is expected to differ — that's the rename) and the
// renamed_from-extra marker itself.
func indexesEquivalentForRename(desired, current ir.IndexDef) bool {
	desiredNormalized := desired
	desiredNormalized.Name = current.Name
	desiredNormalized.Extra = withoutKey(desired.Extra, renamedFromExtraKey)

	currentNormalized := current
	currentNormalized.Extra = withoutKey(current.Extra, renamedFromExtraKey)

	return ir.StructuralEqual(desiredNormalized, currentNormalized)
}

func withoutKey(m map[string]ir.Value, key string) map[string]ir.Value {
	if m == nil {
		return nil
	}
	out := make(map[string]ir.Value, len(m))
	for k, v := range m {
		if k == key {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
