package diff

import (
	"sort"
	"strings"

	"github.com/schemadrift/schemadrift/ir"
)

// qualifiedNameKeyLess gives qualifiedNameKey a total order so sets of keys
// can be iterated deterministically, since Go maps don't preserve one.
func qualifiedNameKeyLess(a, b qualifiedNameKey) bool {
	if a.HasSchema != b.HasSchema {
		return !a.HasSchema
	}
	if a.HasSchema && a.Schema != b.Schema {
		return identKeyLess(a.Schema, b.Schema)
	}
	return identKeyLess(a.Name, b.Name)
}

func identKeyLess(a, b identKey) bool {
	if a.Value != b.Value {
		return a.Value < b.Value
	}
	return !a.Quoted && b.Quoted
}

func sortedKeys(set map[qualifiedNameKey]struct{}) []qualifiedNameKey {
	keys := make([]qualifiedNameKey, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return qualifiedNameKeyLess(keys[i], keys[j]) })
	return keys
}

type viewRebuildPlan struct {
	RebuildSet  map[qualifiedNameKey]struct{}
	DropOrder   []qualifiedNameKey
	CreateOrder []qualifiedNameKey
}

func buildViewRebuildPlan(desiredByKey, currentByKey map[qualifiedNameKey]ir.View) viewRebuildPlan {
	changedRoots := changedViewRoots(desiredByKey, currentByKey)
	if len(changedRoots) == 0 {
		return viewRebuildPlan{}
	}

	currentGraph := buildViewDependencyGraph(currentByKey)
	rebuildSet := expandRebuildClosure(changedRoots, currentGraph)

	dropOrder := topologicalOrderViews(rebuildSet, currentGraph)
	reverseSlice(dropOrder)

	desiredGraph := buildViewDependencyGraph(desiredByKey)
	createSet := make(map[qualifiedNameKey]struct{})
	for k := range rebuildSet {
		if _, ok := desiredByKey[k]; ok {
			createSet[k] = struct{}{}
		}
	}
	createOrder := topologicalOrderViews(createSet, desiredGraph)

	return viewRebuildPlan{RebuildSet: rebuildSet, DropOrder: dropOrder, CreateOrder: createOrder}
}

func reverseSlice(s []qualifiedNameKey) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func changedViewRoots(desiredByKey, currentByKey map[qualifiedNameKey]ir.View) map[qualifiedNameKey]struct{} {
	changed := make(map[qualifiedNameKey]struct{})
	for key, desiredView := range desiredByKey {
		if currentView, ok := currentByKey[key]; ok && !ir.StructuralEqual(desiredView, currentView) {
			changed[key] = struct{}{}
		}
	}
	return changed
}

func buildViewDependencyGraph(viewsByKey map[qualifiedNameKey]ir.View) map[qualifiedNameKey]map[qualifiedNameKey]struct{} {
	graph := make(map[qualifiedNameKey]map[qualifiedNameKey]struct{}, len(viewsByKey))
	for key, view := range viewsByKey {
		deps := make(map[qualifiedNameKey]struct{})
		for _, ref := range extractRelationReferences(view.Query) {
			if dep, ok := resolveViewReference(view.Name, ref, viewsByKey); ok && dep != key {
				deps[dep] = struct{}{}
			}
		}
		graph[key] = deps
	}
	return graph
}

func expandRebuildClosure(changedRoots map[qualifiedNameKey]struct{}, graph map[qualifiedNameKey]map[qualifiedNameKey]struct{}) map[qualifiedNameKey]struct{} {
	reverse := buildReverseGraph(graph)
	rebuildSet := make(map[qualifiedNameKey]struct{}, len(changedRoots))
	var queue []qualifiedNameKey
	for k := range changedRoots {
		rebuildSet[k] = struct{}{}
		queue = append(queue, k)
	}

	for len(queue) > 0 {
		viewKey := queue[0]
		queue = queue[1:]
		for dependent := range reverse[viewKey] {
			if _, exists := rebuildSet[dependent]; !exists {
				rebuildSet[dependent] = struct{}{}
				queue = append(queue, dependent)
			}
		}
	}

	return rebuildSet
}

func buildReverseGraph(graph map[qualifiedNameKey]map[qualifiedNameKey]struct{}) map[qualifiedNameKey]map[qualifiedNameKey]struct{} {
	reverse := make(map[qualifiedNameKey]map[qualifiedNameKey]struct{})
	for viewKey, deps := range graph {
		if reverse[viewKey] == nil {
			reverse[viewKey] = make(map[qualifiedNameKey]struct{})
		}
		for dep := range deps {
			if reverse[dep] == nil {
				reverse[dep] = make(map[qualifiedNameKey]struct{})
			}
			reverse[dep][viewKey] = struct{}{}
		}
	}
	return reverse
}

// topologicalOrderViews orders nodes so each view is built after everything
// it depends on, falling back to name order (via qualifiedNameKeyLess)
// for ties and for any node left in a dependency cycle.
func topologicalOrderViews(nodes map[qualifiedNameKey]struct{}, graph map[qualifiedNameKey]map[qualifiedNameKey]struct{}) []qualifiedNameKey {
	if len(nodes) == 0 {
		return nil
	}

	dependencyCount := make(map[qualifiedNameKey]int, len(nodes))
	reverseEdges := make(map[qualifiedNameKey]map[qualifiedNameKey]struct{}, len(nodes))
	for node := range nodes {
		dependencyCount[node] = 0
		if reverseEdges[node] == nil {
			reverseEdges[node] = make(map[qualifiedNameKey]struct{})
		}
	}

	for node := range nodes {
		for dep := range graph[node] {
			if _, ok := nodes[dep]; !ok {
				continue
			}
			dependencyCount[node]++
			if reverseEdges[dep] == nil {
				reverseEdges[dep] = make(map[qualifiedNameKey]struct{})
			}
			reverseEdges[dep][node] = struct{}{}
		}
	}

	ready := make(map[qualifiedNameKey]struct{})
	for node, count := range dependencyCount {
		if count == 0 {
			ready[node] = struct{}{}
		}
	}

	var ordered []qualifiedNameKey
	visited := make(map[qualifiedNameKey]struct{}, len(nodes))

	for len(ready) > 0 {
		keys := sortedKeys(ready)
		node := keys[0]
		delete(ready, node)
		if _, seen := visited[node]; seen {
			continue
		}
		visited[node] = struct{}{}
		ordered = append(ordered, node)

		for dependent := range reverseEdges[node] {
			if dependencyCount[dependent] == 0 {
				continue
			}
			dependencyCount[dependent]--
			if dependencyCount[dependent] == 0 {
				ready[dependent] = struct{}{}
			}
		}
	}

	if len(ordered) == len(nodes) {
		return ordered
	}

	allSorted := sortedKeys(nodes)
	for _, node := range allSorted {
		if _, seen := visited[node]; !seen {
			ordered = append(ordered, node)
		}
	}
	return ordered
}

type viewReference struct {
	schema *ir.Ident
	name   ir.Ident
}

// extractRelationReferences does a whitespace-token scan for FROM/JOIN
// clauses — not a real SQL parser, deliberately, since view_rebuild only
// needs relation names for dependency ordering, not full query semantics.
func extractRelationReferences(query string) []viewReference {
	var references []viewReference
	expectRelation := false

	for _, token := range strings.Fields(query) {
		if expectRelation {
			if ref, ok := parseRelationToken(token); ok {
				references = append(references, ref)
				expectRelation = false
				continue
			}
			if isRelationModifier(token) {
				continue
			}
			expectRelation = false
			continue
		}

		if isRelationKeyword(token) {
			expectRelation = true
		}
	}

	return references
}

func isRelationKeyword(token string) bool {
	n := normalizeToken(token)
	return strings.EqualFold(n, "from") || strings.EqualFold(n, "join")
}

func isRelationModifier(token string) bool {
	n := normalizeToken(token)
	return strings.EqualFold(n, "only") || strings.EqualFold(n, "lateral")
}

func parseRelationToken(token string) (viewReference, bool) {
	normalized := normalizeToken(token)
	if normalized == "" || strings.HasPrefix(normalized, "(") {
		return viewReference{}, false
	}

	parts := strings.SplitN(reverseDots(normalized), ".", 2)
	namePart := reverseDots(parts[0])
	var schemaPart string
	hasSchema := len(parts) == 2
	if hasSchema {
		schemaPart = reverseDots(parts[1])
	}

	name, ok := parseRelationIdent(namePart)
	if !ok {
		return viewReference{}, false
	}
	var schema *ir.Ident
	if hasSchema {
		if s, ok := parseRelationIdent(schemaPart); ok {
			schema = &s
		}
	}

	return viewReference{schema: schema, name: name}, true
}

// reverseDots reverses a string's bytes so strings.SplitN (which splits
// from the left) can split from the right instead: reverse, split-left,
// then the caller reverses each part back.
func reverseDots(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

func normalizeToken(token string) string {
	return strings.Trim(token, ",;)(")
}

func parseRelationIdent(part string) (ir.Ident, bool) {
	if part == "" {
		return ir.Ident{}, false
	}
	if strings.HasPrefix(part, `"`) && strings.HasSuffix(part, `"`) && len(part) >= 2 {
		inner := part[1 : len(part)-1]
		return ir.NewQuotedIdent(strings.ReplaceAll(inner, `""`, `"`)), true
	}
	return ir.NewIdent(part), true
}

func resolveViewReference(sourceView ir.QualifiedName, reference viewReference, viewsByKey map[qualifiedNameKey]ir.View) (qualifiedNameKey, bool) {
	if reference.schema != nil {
		qualified := qualifiedNameKeyFrom(ir.QualifiedName{Schema: reference.schema, Name: reference.name})
		if _, ok := viewsByKey[qualified]; ok {
			return qualified, true
		}
	}

	if sourceView.Schema != nil {
		schemaLocal := qualifiedNameKeyFrom(ir.QualifiedName{Schema: sourceView.Schema, Name: reference.name})
		if _, ok := viewsByKey[schemaLocal]; ok {
			return schemaLocal, true
		}
	}

	unqualified := qualifiedNameKeyFrom(ir.QualifiedName{Name: reference.name})
	if _, ok := viewsByKey[unqualified]; ok {
		return unqualified, true
	}

	var matching []qualifiedNameKey
	for candidate := range viewsByKey {
		if candidate.Name == unqualified.Name {
			matching = append(matching, candidate)
		}
	}
	if len(matching) == 1 {
		return matching[0], true
	}

	return qualifiedNameKey{}, false
}
