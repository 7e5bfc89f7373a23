// Package ordering sorts a flat slice of diff.DiffOp into an executable
// sequence: coarse priority bands (drops before creates, tables before
// views before indexes before triggers, and so on), then within a band a
// dependency-aware sort where one is needed (CreateTable by foreign key,
// CreateView by view-to-view reference) or a per-table sub-priority
// (RenameTable before RenameColumn before AlterColumn before AddColumn...).
package ordering

import (
	"sort"
	"strings"

	"github.com/schemadrift/schemadrift/diff"
	"github.com/schemadrift/schemadrift/ir"
)

// Priority is a coarse execution band. Lower runs first. The numbering is
// carried over unchanged so it can be cross-referenced against the ledger
// that assigned it.
type Priority int

const (
	PriorityDropPolicy Priority = iota + 1
	PriorityDropTrigger
	PriorityDropView
	PriorityDropForeignKey
	PriorityDropIndex
	PriorityDropTable
	PriorityDropSequence
	PriorityDropDomain
	PriorityDropType
	PriorityDropFunction
	PriorityDropSchema
	PriorityDropExtension
	PriorityCreateExtension
	PriorityCreateSchema
	PriorityCreateType
	PriorityAlterType
	PriorityCreateDomain
	PriorityAlterDomain
	PriorityCreateSequence
	PriorityAlterSequence
	PriorityCreateTable
	PriorityTableScoped
	PriorityAddForeignKey
	PriorityCreateView
	PriorityCreateMaterializedView
	PriorityAddIndex
	PriorityCreateTriggerOrFunction
	PriorityCreatePolicy
	PriorityComment
	PriorityPrivilege
)

// tableSubPriority orders the operations scoped to a single table, once
// that table's operations have been grouped together.
type tableSubPriority int

const (
	subRenameTable tableSubPriority = iota
	subRenameColumn
	subAlterColumn
	subAddColumn
	subDropColumn
	subPrimaryKey
	subConstraints
	subPartition
	subTableOptions
)

type indexedOp struct {
	originalIndex int
	op            diff.DiffOp
}

type identKey struct {
	value  string
	quoted bool
}

func identKeyFrom(id ir.Ident) identKey {
	return identKey{value: id.Value, quoted: id.Quoted}
}

type qualifiedNameKey struct {
	hasSchema bool
	schema    identKey
	name      identKey
}

func qualifiedNameKeyFrom(name ir.QualifiedName) qualifiedNameKey {
	if name.Schema == nil {
		return qualifiedNameKey{name: identKeyFrom(name.Name)}
	}
	return qualifiedNameKey{hasSchema: true, schema: identKeyFrom(*name.Schema), name: identKeyFrom(name.Name)}
}

// SortDiffOps orders ops into an executable sequence, grouping by priority
// band and then applying the band-specific tiebreak (dependency order for
// creates, table-scoped sub-priority for per-table alterations).
func SortDiffOps(ops []diff.DiffOp) []diff.DiffOp {
	grouped := make(map[Priority][]indexedOp)
	var bands []Priority
	seen := make(map[Priority]bool)
	for i, op := range ops {
		p := priorityGroup(op)
		if !seen[p] {
			seen[p] = true
			bands = append(bands, p)
		}
		grouped[p] = append(grouped[p], indexedOp{originalIndex: i, op: op})
	}
	sort.Slice(bands, func(i, j int) bool { return bands[i] < bands[j] })

	sorted := make([]diff.DiffOp, 0, len(ops))
	for _, band := range bands {
		entries := grouped[band]
		switch band {
		case PriorityCreateTable:
			entries = sortCreateTables(entries)
		case PriorityCreateView:
			entries = sortCreateViews(entries)
		case PriorityTableScoped:
			entries = sortTableScoped(entries)
		}
		for _, entry := range entries {
			sorted = append(sorted, entry.op)
		}
	}
	return sorted
}

func priorityGroup(op diff.DiffOp) Priority {
	switch op.(type) {
	case diff.DropPolicyOp:
		return PriorityDropPolicy
	case diff.DropTriggerOp:
		return PriorityDropTrigger
	case diff.DropViewOp, diff.DropMaterializedViewOp:
		return PriorityDropView
	case diff.DropForeignKeyOp:
		return PriorityDropForeignKey
	case diff.DropIndexOp:
		return PriorityDropIndex
	case diff.DropTableOp:
		return PriorityDropTable
	case diff.DropSequenceOp:
		return PriorityDropSequence
	case diff.DropDomainOp:
		return PriorityDropDomain
	case diff.DropTypeOp:
		return PriorityDropType
	case diff.DropFunctionOp:
		return PriorityDropFunction
	case diff.DropSchemaOp:
		return PriorityDropSchema
	case diff.DropExtensionOp:
		return PriorityDropExtension
	case diff.CreateExtensionOp:
		return PriorityCreateExtension
	case diff.CreateSchemaOp:
		return PriorityCreateSchema
	case diff.CreateTypeOp:
		return PriorityCreateType
	case diff.AlterTypeOp:
		return PriorityAlterType
	case diff.CreateDomainOp:
		return PriorityCreateDomain
	case diff.AlterDomainOp:
		return PriorityAlterDomain
	case diff.CreateSequenceOp:
		return PriorityCreateSequence
	case diff.AlterSequenceOp:
		return PriorityAlterSequence
	case diff.CreateTableOp:
		return PriorityCreateTable
	case diff.RenameTableOp, diff.RenameColumnOp, diff.AlterColumnOp, diff.AddColumnOp,
		diff.DropColumnOp, diff.SetPrimaryKeyOp, diff.DropPrimaryKeyOp, diff.AddCheckOp,
		diff.DropCheckOp, diff.AddExclusionOp, diff.DropExclusionOp, diff.AddPartitionOp,
		diff.DropPartitionOp, diff.AlterTableOptionsOp:
		return PriorityTableScoped
	case diff.AddForeignKeyOp:
		return PriorityAddForeignKey
	case diff.CreateViewOp:
		return PriorityCreateView
	case diff.CreateMaterializedViewOp:
		return PriorityCreateMaterializedView
	case diff.AddIndexOp, diff.RenameIndexOp:
		return PriorityAddIndex
	case diff.CreateTriggerOp, diff.CreateFunctionOp:
		return PriorityCreateTriggerOrFunction
	case diff.CreatePolicyOp:
		return PriorityCreatePolicy
	case diff.SetCommentOp, diff.DropCommentOp:
		return PriorityComment
	case diff.GrantOp, diff.RevokeOp:
		return PriorityPrivilege
	default:
		panic("ordering: unreachable DiffOp variant")
	}
}

func sortTableScoped(entries []indexedOp) []indexedOp {
	tableOrder := make(map[qualifiedNameKey]int)
	var orderedKeys []qualifiedNameKey
	for _, entry := range entries {
		key, ok := tableKeyForTableScopedOp(entry.op)
		if !ok {
			continue
		}
		if _, exists := tableOrder[key]; !exists {
			tableOrder[key] = len(orderedKeys)
			orderedKeys = append(orderedKeys, key)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ri, oki := tableKeyForTableScopedOp(entries[i].op)
		rj, okj := tableKeyForTableScopedOp(entries[j].op)
		rankI, rankJ := len(entries), len(entries)
		if oki {
			rankI = tableOrder[ri]
		}
		if okj {
			rankJ = tableOrder[rj]
		}
		if rankI != rankJ {
			return rankI < rankJ
		}
		subI, subJ := tableSubPriorityOf(entries[i].op), tableSubPriorityOf(entries[j].op)
		if subI != subJ {
			return subI < subJ
		}
		return entries[i].originalIndex < entries[j].originalIndex
	})
	return entries
}

func tableKeyForTableScopedOp(op diff.DiffOp) (qualifiedNameKey, bool) {
	switch o := op.(type) {
	case diff.RenameTableOp:
		return qualifiedNameKeyFrom(o.To), true
	case diff.RenameColumnOp:
		return qualifiedNameKeyFrom(o.Table), true
	case diff.AlterColumnOp:
		return qualifiedNameKeyFrom(o.Table), true
	case diff.AddColumnOp:
		return qualifiedNameKeyFrom(o.Table), true
	case diff.DropColumnOp:
		return qualifiedNameKeyFrom(o.Table), true
	case diff.SetPrimaryKeyOp:
		return qualifiedNameKeyFrom(o.Table), true
	case diff.DropPrimaryKeyOp:
		return qualifiedNameKeyFrom(o.Table), true
	case diff.AddCheckOp:
		return qualifiedNameKeyFrom(o.Table), true
	case diff.DropCheckOp:
		return qualifiedNameKeyFrom(o.Table), true
	case diff.AddExclusionOp:
		return qualifiedNameKeyFrom(o.Table), true
	case diff.DropExclusionOp:
		return qualifiedNameKeyFrom(o.Table), true
	case diff.AddPartitionOp:
		return qualifiedNameKeyFrom(o.Table), true
	case diff.DropPartitionOp:
		return qualifiedNameKeyFrom(o.Table), true
	case diff.AlterTableOptionsOp:
		return qualifiedNameKeyFrom(o.Table), true
	default:
		return qualifiedNameKey{}, false
	}
}

func tableSubPriorityOf(op diff.DiffOp) tableSubPriority {
	switch op.(type) {
	case diff.RenameTableOp:
		return subRenameTable
	case diff.RenameColumnOp:
		return subRenameColumn
	case diff.AlterColumnOp:
		return subAlterColumn
	case diff.AddColumnOp:
		return subAddColumn
	case diff.DropColumnOp:
		return subDropColumn
	case diff.SetPrimaryKeyOp, diff.DropPrimaryKeyOp:
		return subPrimaryKey
	case diff.AddCheckOp, diff.DropCheckOp, diff.AddExclusionOp, diff.DropExclusionOp:
		return subConstraints
	case diff.AddPartitionOp, diff.DropPartitionOp:
		return subPartition
	case diff.AlterTableOptionsOp:
		return subTableOptions
	default:
		return subTableOptions
	}
}

func sortCreateTables(entries []indexedOp) []indexedOp {
	indexByTable := make(map[qualifiedNameKey]int)
	for idx, entry := range entries {
		if op, ok := entry.op.(diff.CreateTableOp); ok {
			indexByTable[qualifiedNameKeyFrom(op.Table.Name)] = idx
		}
	}

	dependencies := make([]map[int]struct{}, len(entries))
	for idx, entry := range entries {
		dependencies[idx] = make(map[int]struct{})
		op, ok := entry.op.(diff.CreateTableOp)
		if !ok {
			continue
		}
		selfKey := qualifiedNameKeyFrom(op.Table.Name)
		for _, fk := range op.Table.ForeignKeys {
			depKey := qualifiedNameKeyFrom(fk.ReferencedTable)
			if depKey == selfKey {
				continue
			}
			if depIdx, ok := indexByTable[depKey]; ok {
				dependencies[idx][depIdx] = struct{}{}
			}
		}
	}

	return topologicalSort(entries, dependencies)
}

func sortCreateViews(entries []indexedOp) []indexedOp {
	indexByView := make(map[qualifiedNameKey]int)
	for idx, entry := range entries {
		if op, ok := entry.op.(diff.CreateViewOp); ok {
			indexByView[qualifiedNameKeyFrom(op.View.Name)] = idx
		}
	}

	dependencies := make([]map[int]struct{}, len(entries))
	for idx, entry := range entries {
		dependencies[idx] = make(map[int]struct{})
		op, ok := entry.op.(diff.CreateViewOp)
		if !ok {
			continue
		}
		selfKey := qualifiedNameKeyFrom(op.View.Name)
		for _, ref := range extractRelationReferences(op.View.Query) {
			depKey, ok := resolveViewReference(op.View.Name, ref, indexByView)
			if !ok || depKey == selfKey {
				continue
			}
			if depIdx, ok := indexByView[depKey]; ok {
				dependencies[idx][depIdx] = struct{}{}
			}
		}
	}

	return topologicalSort(entries, dependencies)
}

func topologicalSort(entries []indexedOp, dependencies []map[int]struct{}) []indexedOp {
	reverseEdges := make([]map[int]struct{}, len(entries))
	for i := range reverseEdges {
		reverseEdges[i] = make(map[int]struct{})
	}
	for idx, deps := range dependencies {
		for dep := range deps {
			reverseEdges[dep][idx] = struct{}{}
		}
	}

	remaining := make([]int, len(entries))
	for idx, deps := range dependencies {
		remaining[idx] = len(deps)
	}

	type readyEntry struct {
		originalIndex int
		idx           int
	}
	var ready []readyEntry
	for idx, count := range remaining {
		if count == 0 {
			ready = append(ready, readyEntry{originalIndex: entries[idx].originalIndex, idx: idx})
		}
	}
	popFirst := func() (readyEntry, bool) {
		if len(ready) == 0 {
			return readyEntry{}, false
		}
		best := 0
		for i := 1; i < len(ready); i++ {
			if ready[i].originalIndex < ready[best].originalIndex ||
				(ready[i].originalIndex == ready[best].originalIndex && ready[i].idx < ready[best].idx) {
				best = i
			}
		}
		entry := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		return entry, true
	}

	var orderedIndexes []int
	visited := make([]bool, len(entries))
	for {
		entry, ok := popFirst()
		if !ok {
			break
		}
		if visited[entry.idx] {
			continue
		}
		visited[entry.idx] = true
		orderedIndexes = append(orderedIndexes, entry.idx)

		for dependent := range reverseEdges[entry.idx] {
			if remaining[dependent] == 0 {
				continue
			}
			remaining[dependent]--
			if remaining[dependent] == 0 {
				ready = append(ready, readyEntry{originalIndex: entries[dependent].originalIndex, idx: dependent})
			}
		}
	}

	if len(orderedIndexes) != len(entries) {
		var unresolved []int
		for idx, v := range visited {
			if !v {
				unresolved = append(unresolved, idx)
			}
		}
		sort.Slice(unresolved, func(i, j int) bool {
			return entries[unresolved[i]].originalIndex < entries[unresolved[j]].originalIndex
		})
		orderedIndexes = append(orderedIndexes, unresolved...)
	}

	result := make([]indexedOp, len(orderedIndexes))
	for i, idx := range orderedIndexes {
		result[i] = entries[idx]
	}
	return result
}

type viewReference struct {
	hasSchema bool
	schema    ir.Ident
	name      ir.Ident
}

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
	normalized := normalizeToken(token)
	return strings.EqualFold(normalized, "from") || strings.EqualFold(normalized, "join")
}

func isRelationModifier(token string) bool {
	normalized := normalizeToken(token)
	return strings.EqualFold(normalized, "only") || strings.EqualFold(normalized, "lateral")
}

func parseRelationToken(token string) (viewReference, bool) {
	normalized := normalizeToken(token)
	if normalized == "" || strings.HasPrefix(normalized, "(") {
		return viewReference{}, false
	}

	namePart, schemaPart, hasSchema := splitLastTwoDotParts(normalized)

	name, ok := parseRelationIdent(namePart)
	if !ok {
		return viewReference{}, false
	}

	if !hasSchema {
		return viewReference{name: name}, true
	}
	schema, ok := parseRelationIdent(schemaPart)
	if !ok {
		return viewReference{name: name}, true
	}
	return viewReference{hasSchema: true, schema: schema, name: name}, true
}

// splitLastTwoDotParts returns the final dot-separated part of s and, if
// present, the one immediately before it, ignoring anything further left
// (a catalog qualifier).
func splitLastTwoDotParts(s string) (namePart, schemaPart string, hasSchema bool) {
	reversed := reverseString(s)
	parts := strings.SplitN(reversed, ".", 3)
	namePart = reverseString(parts[0])
	if len(parts) >= 2 {
		schemaPart = reverseString(parts[1])
		hasSchema = true
	}
	return namePart, schemaPart, hasSchema
}

func reverseString(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
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
		unescaped := strings.ReplaceAll(inner, `""`, `"`)
		return ir.Ident{Value: unescaped, Quoted: true}, true
	}
	return ir.Ident{Value: part, Quoted: false}, true
}

func resolveViewReference(sourceView ir.QualifiedName, reference viewReference, indexByView map[qualifiedNameKey]int) (qualifiedNameKey, bool) {
	if reference.hasSchema {
		qualified := qualifiedNameKey{hasSchema: true, schema: identKeyFrom(reference.schema), name: identKeyFrom(reference.name)}
		if _, ok := indexByView[qualified]; ok {
			return qualified, true
		}
	}

	if sourceView.Schema != nil {
		schemaLocal := qualifiedNameKey{hasSchema: true, schema: identKeyFrom(*sourceView.Schema), name: identKeyFrom(reference.name)}
		if _, ok := indexByView[schemaLocal]; ok {
			return schemaLocal, true
		}
	}

	unqualified := qualifiedNameKey{name: identKeyFrom(reference.name)}
	if _, ok := indexByView[unqualified]; ok {
		return unqualified, true
	}

	var matches []qualifiedNameKey
	for candidate := range indexByView {
		if candidate.name == unqualified.name {
			matches = append(matches, candidate)
		}
	}
	if len(matches) == 1 {
		return matches[0], true
	}
	return qualifiedNameKey{}, false
}
