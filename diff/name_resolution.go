package diff

import "github.com/schemadrift/schemadrift/ir"

// identKey and qualifiedNameKey are comparable value types usable directly
// as Go map keys. Go maps don't preserve iteration order, so callers that
// need deterministic emission order iterate the original ordered slice of
// objects and use these maps purely for O(1) lookup.
type identKey struct {
	Value  string
	Quoted bool
}

func identKeyFrom(ident ir.Ident) identKey {
	return identKey{Value: ident.Value, Quoted: ident.Quoted}
}

func identKeyUnquoted(value string) identKey {
	return identKey{Value: value}
}

type qualifiedNameKey struct {
	HasSchema bool
	Schema    identKey
	Name      identKey
}

func qualifiedNameKeyFrom(name ir.QualifiedName) qualifiedNameKey {
	k := qualifiedNameKey{Name: identKeyFrom(name.Name)}
	if name.Schema != nil {
		k.HasSchema = true
		k.Schema = identKeyFrom(*name.Schema)
	}
	return k
}

func qualifiedNameKeyWithSchema(name identKey, schema string) qualifiedNameKey {
	return qualifiedNameKey{HasSchema: true, Schema: identKeyUnquoted(schema), Name: name}
}

func qualifiedNameKeyWithoutSchema(name identKey) qualifiedNameKey {
	return qualifiedNameKey{Name: name}
}

type indexOwnerKind int

const (
	ownerKindTable indexOwnerKind = iota
	ownerKindView
	ownerKindMaterializedView
)

type indexOwnerKey struct {
	Kind indexOwnerKind
	Name qualifiedNameKey
}

func indexOwnerKeyFrom(owner ir.IndexOwner) indexOwnerKey {
	var kind indexOwnerKind
	switch owner.Kind {
	case ir.IndexOwnerTable:
		kind = ownerKindTable
	case ir.IndexOwnerView:
		kind = ownerKindView
	case ir.IndexOwnerMaterializedView:
		kind = ownerKindMaterializedView
	}
	return indexOwnerKey{Kind: kind, Name: qualifiedNameKeyFrom(owner.Name)}
}

func (k indexOwnerKey) rebuildWithName(name qualifiedNameKey) indexOwnerKey {
	return indexOwnerKey{Kind: k.Kind, Name: name}
}

// qualifiedCandidates returns one candidate owner key per schema in the
// search path, each with the unqualified name qualified by that schema —
// used to try matching an unqualified desired index owner against a
// qualified current one.
func (k indexOwnerKey) qualifiedCandidates(schemaSearchPath []string) []indexOwnerKey {
	if k.Name.HasSchema {
		return nil
	}
	candidates := make([]indexOwnerKey, 0, len(schemaSearchPath))
	for _, schema := range schemaSearchPath {
		candidates = append(candidates, k.rebuildWithName(qualifiedNameKeyWithSchema(k.Name.Name, schema)))
	}
	return candidates
}

// unqualifiedCandidate returns the owner key stripped of its schema, if
// that schema is on the search path — used to try matching a qualified
// desired index owner against an unqualified current one.
func (k indexOwnerKey) unqualifiedCandidate(schemaSearchPath []string) (indexOwnerKey, bool) {
	if !k.Name.HasSchema {
		return indexOwnerKey{}, false
	}
	if !schemaInSearchPath(k.Name.Schema, schemaSearchPath) {
		return indexOwnerKey{}, false
	}
	return k.rebuildWithName(qualifiedNameKeyWithoutSchema(k.Name.Name)), true
}

type indexLookupKey struct {
	Owner indexOwnerKey
	Name  identKey
}

// resolveQualifiedNameMatch resolves a desired object's key against the
// current object map across the schema search path: an unqualified desired
// name is tried against every schema on the path in order, and a qualified
// desired name whose schema is on the path is tried unqualified.
func resolveQualifiedNameMatch[V any](
	desiredKey qualifiedNameKey,
	currentByKey map[qualifiedNameKey]V,
	matchedCurrentKeys map[qualifiedNameKey]struct{},
	schemaSearchPath []string,
) (qualifiedNameKey, V, bool) {
	var zero V
	if !desiredKey.HasSchema {
		for _, schema := range schemaSearchPath {
			candidate := qualifiedNameKeyWithSchema(desiredKey.Name, schema)
			if _, matched := matchedCurrentKeys[candidate]; matched {
				continue
			}
			if v, ok := currentByKey[candidate]; ok {
				return candidate, v, true
			}
		}
		return qualifiedNameKey{}, zero, false
	}

	if !schemaInSearchPath(desiredKey.Schema, schemaSearchPath) {
		return qualifiedNameKey{}, zero, false
	}

	candidate := qualifiedNameKeyWithoutSchema(desiredKey.Name)
	if _, matched := matchedCurrentKeys[candidate]; matched {
		return qualifiedNameKey{}, zero, false
	}
	v, ok := currentByKey[candidate]
	return candidate, v, ok
}

// resolveIndexMatch is resolveQualifiedNameMatch's index-owner analogue.
func resolveIndexMatch[V any](
	desiredKey indexLookupKey,
	currentByKey map[indexLookupKey]V,
	matchedCurrentKeys map[indexLookupKey]struct{},
	schemaSearchPath []string,
) (indexLookupKey, V, bool) {
	var zero V
	for _, candidateOwner := range desiredKey.Owner.qualifiedCandidates(schemaSearchPath) {
		candidate := indexLookupKey{Owner: candidateOwner, Name: desiredKey.Name}
		if _, matched := matchedCurrentKeys[candidate]; matched {
			continue
		}
		if v, ok := currentByKey[candidate]; ok {
			return candidate, v, true
		}
	}

	candidateOwner, ok := desiredKey.Owner.unqualifiedCandidate(schemaSearchPath)
	if !ok {
		return indexLookupKey{}, zero, false
	}
	candidate := indexLookupKey{Owner: candidateOwner, Name: desiredKey.Name}
	if _, matched := matchedCurrentKeys[candidate]; matched {
		return indexLookupKey{}, zero, false
	}
	v, ok := currentByKey[candidate]
	return candidate, v, ok
}

func schemaInSearchPath(schema identKey, schemaSearchPath []string) bool {
	for _, candidate := range schemaSearchPath {
		if identKeyUnquoted(candidate) == schema {
			return true
		}
	}
	return false
}
