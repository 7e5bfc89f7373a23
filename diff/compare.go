package diff

import (
	"fmt"

	"github.com/schemadrift/schemadrift/corerr"
	"github.com/schemadrift/schemadrift/diffcfg"
	"github.com/schemadrift/schemadrift/ir"
)

// DiffEngine computes the unordered set of DiffOp values that transform a
// current schema into a desired one; package ordering sequences them. It holds no state; every method is a
// pure function of its arguments.
type DiffEngine struct{}

func NewDiffEngine() DiffEngine { return DiffEngine{} }

func (e DiffEngine) Diff(desired, current []ir.SchemaObject, config diffcfg.DiffConfig) ([]DiffOp, error) {
	ops, err := e.compareObjects(desired, current, config)
	if err != nil {
		return nil, err
	}
	return e.resolveAndOrder(ops, config)
}

// DiffWithDiagnostics runs the diff once under the caller's config, and —
// when enable_drop is off — a second time with it forced on, so the
// suppressed drops can be reported as diagnostics rather than silently
// vanishing.
func (e DiffEngine) DiffWithDiagnostics(desired, current []ir.SchemaObject, config diffcfg.DiffConfig) (DiffOutcome, error) {
	ops, err := e.Diff(desired, current, config)
	if err != nil {
		return DiffOutcome{}, err
	}

	if config.EnableDrop {
		return DiffOutcome{Ops: ops, Diagnostics: DiffDiagnostics{}}, nil
	}

	withDropEnabled := config.Clone()
	withDropEnabled.EnableDrop = true
	fullOps, err := e.Diff(desired, current, withDropEnabled)
	if err != nil {
		return DiffOutcome{}, err
	}

	return DiffOutcome{Ops: ops, Diagnostics: diffDiagnosticsFromEnableDrop(fullOps, ops)}, nil
}

func (e DiffEngine) compareObjects(desired, current []ir.SchemaObject, config diffcfg.DiffConfig) ([]DiffOp, error) {
	if err := validateSequenceInvariant(desired, "desired"); err != nil {
		return nil, err
	}
	if err := validateSequenceInvariant(current, "current"); err != nil {
		return nil, err
	}

	desiredObjects, err := newObjectBuckets(desired)
	if err != nil {
		return nil, err
	}
	currentObjects, err := newObjectBuckets(current)
	if err != nil {
		return nil, err
	}

	if err := validateIndexOwners(desiredObjects, "desired"); err != nil {
		return nil, err
	}
	if err := validateIndexOwners(currentObjects, "current"); err != nil {
		return nil, err
	}

	var ops []DiffOp
	e.compareTables(desired, desiredObjects, currentObjects, config, &ops)
	if err := e.compareIndexes(desiredObjects.indexes, currentObjects.indexes, config, &ops); err != nil {
		return nil, err
	}
	if err := compareRemainingObjects(desired, current, config, &ops); err != nil {
		return nil, err
	}
	return ops, nil
}

// resolveAndOrder is a placeholder for the ordering pass that a later stage
// (package ordering) applies to the raw op list; DiffEngine itself only
// produces the unordered comparison.
func (e DiffEngine) resolveAndOrder(ops []DiffOp, _ diffcfg.DiffConfig) ([]DiffOp, error) {
	return ops, nil
}

func (e DiffEngine) compareTables(desiredObjects []ir.SchemaObject, desired, current objectBuckets, config diffcfg.DiffConfig, ops *[]DiffOp) {
	matchedCurrent := make(map[qualifiedNameKey]struct{})

	for _, key := range desired.tableOrder {
		desiredTable := desired.tables[key]

		if currentTable, ok := current.tables[key]; ok {
			matchedCurrent[key] = struct{}{}
			e.compareTable(desiredTable, currentTable, config, ops)
			continue
		}

		if matchedKey, currentTable, ok := resolveQualifiedNameMatch(key, current.tables, matchedCurrent, config.SchemaSearchPath); ok {
			matchedCurrent[matchedKey] = struct{}{}
			e.compareTable(desiredTable, currentTable, config, ops)
			continue
		}

		renamedFrom := tableRenamedFromKey(desiredTable)
		if fromKey, currentTable, ok := resolveRenameMatch(renamedFrom, current.tables, matchedCurrent); ok {
			matchedCurrent[fromKey] = struct{}{}
			*ops = append(*ops, RenameTableOp{From: currentTable.Name, To: desiredTable.Name})
			e.compareTable(desiredTable, currentTable, config, ops)
		} else {
			*ops = append(*ops, CreateTableOp{Table: desiredTable})
		}
	}

	if config.EnableDrop {
		for _, key := range current.tableOrder {
			if _, matched := matchedCurrent[key]; !matched {
				*ops = append(*ops, DropTableOp{Name: current.tables[key].Name})
			}
		}
	}
}

func (e DiffEngine) compareTable(desired, current ir.Table, config diffcfg.DiffConfig, ops *[]DiffOp) {
	e.compareColumns(desired.Name, desired.Columns, current.Columns, config, ops)
	e.compareChecks(desired.Name, desired.Checks, current.Checks, config, ops)
	diffPartition(desired.Name, desired.Partition, current.Partition, config, ops)
}

func (e DiffEngine) compareColumns(table ir.QualifiedName, desiredColumns, currentColumns []ir.Column, config diffcfg.DiffConfig, ops *[]DiffOp) {
	currentByName, currentOrder := mapColumnsByName(currentColumns)
	desiredByName, desiredOrder := mapColumnsByName(desiredColumns)
	matchedCurrent := make(map[identKey]struct{})

	for _, key := range desiredOrder {
		desiredColumn := desiredByName[key]

		if currentColumn, ok := currentByName[key]; ok {
			matchedCurrent[key] = struct{}{}
			changes := columnChanges(desiredColumn, currentColumn, config)
			if len(changes) > 0 {
				*ops = append(*ops, AlterColumnOp{Table: table, Column: desiredColumn.Name, Changes: changes})
			}
			continue
		}

		renamedFrom := columnRenamedFromKey(desiredColumn)
		if renamedKey, currentColumn, ok := resolveRenameMatch(renamedFrom, currentByName, matchedCurrent); ok {
			matchedCurrent[renamedKey] = struct{}{}
			*ops = append(*ops, RenameColumnOp{Table: table, From: currentColumn.Name, To: desiredColumn.Name})

			changes := columnChanges(desiredColumn, currentColumn, config)
			if len(changes) > 0 {
				*ops = append(*ops, AlterColumnOp{Table: table, Column: desiredColumn.Name, Changes: changes})
			}
		} else {
			*ops = append(*ops, AddColumnOp{Table: table, Column: desiredColumn, Position: nil})
		}
	}

	if config.EnableDrop {
		for _, key := range currentOrder {
			_, inDesired := desiredByName[key]
			_, matched := matchedCurrent[key]
			if !inDesired && !matched {
				*ops = append(*ops, DropColumnOp{Table: table, Column: currentByName[key].Name})
			}
		}
	}
}

func (e DiffEngine) compareChecks(table ir.QualifiedName, desiredChecks, currentChecks []ir.CheckConstraint, config diffcfg.DiffConfig, ops *[]DiffOp) {
	desiredNamed, desiredOrder := mapNamedChecks(desiredChecks)
	currentNamed, _ := mapNamedChecks(currentChecks)

	for _, key := range desiredOrder {
		desiredEntry := desiredNamed[key]

		if currentEntry, ok := currentNamed[key]; ok {
			if !checksEquivalent(desiredEntry.check, currentEntry.check, config) {
				if config.EnableDrop || checkDropAddKeysMatch(table, desiredEntry.name, desiredEntry.check) {
					*ops = append(*ops, DropCheckOp{Table: table, Name: desiredEntry.name})
				}
				*ops = append(*ops, AddCheckOp{Table: table, Check: desiredEntry.check})
			}
			continue
		}

		*ops = append(*ops, AddCheckOp{Table: table, Check: desiredEntry.check})
	}

	if config.EnableDrop {
		for key, currentEntry := range currentNamed {
			if _, ok := desiredNamed[key]; !ok {
				*ops = append(*ops, DropCheckOp{Table: table, Name: currentEntry.name})
			}
		}
	}
}

func (e DiffEngine) compareIndexes(desiredIndexes, currentIndexes []ir.IndexDef, config diffcfg.DiffConfig, ops *[]DiffOp) error {
	desiredByKey, desiredOrder, err := mapIndexesByKey(desiredIndexes)
	if err != nil {
		return err
	}
	currentByKey, _, err := mapIndexesByKey(currentIndexes)
	if err != nil {
		return err
	}
	matchedCurrent := make(map[indexLookupKey]struct{})

	for _, key := range desiredOrder {
		desiredIndex := desiredByKey[key]

		if currentIndex, ok := currentByKey[key]; ok {
			matchedCurrent[key] = struct{}{}
			e.pushIndexUpdateOps(desiredIndex, currentIndex, config, ops)
			continue
		}

		if matchedKey, currentIndex, ok := resolveIndexMatch(key, currentByKey, matchedCurrent, config.SchemaSearchPath); ok {
			matchedCurrent[matchedKey] = struct{}{}
			e.pushIndexUpdateOps(desiredIndex, currentIndex, config, ops)
			continue
		}

		renamedFromKey := indexRenamedFromKey(desiredIndex)
		if fromKey, currentIndex, ok := resolveRenameMatch(renamedFromKey, currentByKey, matchedCurrent); ok && indexesEquivalentForRename(desiredIndex, currentIndex) {
			matchedCurrent[fromKey] = struct{}{}
			to, err := indexName(desiredIndex)
			if err != nil {
				return err
			}
			from, err := indexName(currentIndex)
			if err != nil {
				return err
			}
			*ops = append(*ops, RenameIndexOp{Owner: desiredIndex.Owner, From: from, To: to})
			continue
		}

		*ops = append(*ops, AddIndexOp{Index: desiredIndex})
	}

	if config.EnableDrop {
		for key, currentIndex := range currentByKey {
			_, inDesired := desiredByKey[key]
			_, matched := matchedCurrent[key]
			if !inDesired && !matched && currentIndex.Name != nil {
				*ops = append(*ops, DropIndexOp{Owner: currentIndex.Owner, Name: *currentIndex.Name})
			}
		}
	}

	return nil
}

func (e DiffEngine) pushIndexUpdateOps(desired, current ir.IndexDef, config diffcfg.DiffConfig, ops *[]DiffOp) {
	if ir.StructuralEqual(desired, current) {
		return
	}

	if config.EnableDrop && current.Name != nil {
		*ops = append(*ops, DropIndexOp{Owner: current.Owner, Name: *current.Name})
	}

	*ops = append(*ops, AddIndexOp{Index: desired})
}

type namedCheck struct {
	name  ir.Ident
	check ir.CheckConstraint
}

func mapColumnsByName(columns []ir.Column) (map[identKey]ir.Column, []identKey) {
	byName := make(map[identKey]ir.Column, len(columns))
	order := make([]identKey, 0, len(columns))
	for _, column := range columns {
		key := identKeyFrom(column.Name)
		byName[key] = column
		order = append(order, key)
	}
	return byName, order
}

func mapNamedChecks(checks []ir.CheckConstraint) (map[identKey]namedCheck, []identKey) {
	byName := make(map[identKey]namedCheck, len(checks))
	var order []identKey
	for _, check := range checks {
		if check.Name == nil {
			continue
		}
		key := identKeyFrom(*check.Name)
		byName[key] = namedCheck{name: *check.Name, check: check}
		order = append(order, key)
	}
	return byName, order
}

func mapIndexesByKey(indexes []ir.IndexDef) (map[indexLookupKey]ir.IndexDef, []indexLookupKey, error) {
	byKey := make(map[indexLookupKey]ir.IndexDef, len(indexes))
	order := make([]indexLookupKey, 0, len(indexes))
	for _, index := range indexes {
		key, err := indexLookupKeyFor(index)
		if err != nil {
			return nil, nil, err
		}
		byKey[key] = index
		order = append(order, key)
	}
	return byKey, order, nil
}

func tableRenamedFromKey(table ir.Table) *qualifiedNameKey {
	if table.RenamedFrom == nil {
		return nil
	}
	key := qualifiedNameKey{Name: identKeyFrom(*table.RenamedFrom)}
	if table.Name.Schema != nil {
		key.HasSchema = true
		key.Schema = identKeyFrom(*table.Name.Schema)
	}
	return &key
}

func columnRenamedFromKey(column ir.Column) *identKey {
	if column.RenamedFrom == nil {
		return nil
	}
	key := identKeyFrom(*column.RenamedFrom)
	return &key
}

func indexRenamedFromKey(index ir.IndexDef) *indexLookupKey {
	renamedFrom := indexRenamedFrom(index)
	if renamedFrom == nil {
		return nil
	}
	key := indexLookupKey{Owner: indexOwnerKeyFrom(index.Owner), Name: identKeyFrom(*renamedFrom)}
	return &key
}

func indexName(index ir.IndexDef) (ir.Ident, error) {
	if index.Name == nil {
		return ir.Ident{}, &corerr.DiffError{
			Target:    describeIndexOwner(index.Owner),
			Operation: "index name is required for diff comparison",
		}
	}
	return *index.Name, nil
}

func columnChanges(desired, current ir.Column, config diffcfg.DiffConfig) []ColumnChange {
	var changes []ColumnChange

	if !dataTypesEquivalent(desired.DataType, current.DataType, config) {
		changes = append(changes, SetTypeChange{Type: desired.DataType})
	}

	if desired.NotNull != current.NotNull {
		changes = append(changes, SetNotNullChange{NotNull: desired.NotNull})
	}

	if !diffcfg.ExprsEquivalent(config.EquivalencePolicy, desired.Default, current.Default) {
		changes = append(changes, SetDefaultChange{Default: desired.Default})
	}

	return changes
}

func dataTypesEquivalent(desired, current ir.DataType, config diffcfg.DiffConfig) bool {
	left, leftOk := desired.(ir.CustomType)
	right, rightOk := current.(ir.CustomType)
	if leftOk && rightOk {
		return diffcfg.CustomTypesEquivalent(config.EquivalencePolicy, left.Name, right.Name)
	}
	return ir.DataTypeEqual(desired, current)
}

func checksEquivalent(desired, current ir.CheckConstraint, config diffcfg.DiffConfig) bool {
	return desired.NoInherit == current.NoInherit &&
		diffcfg.ExprsEquivalent(config.EquivalencePolicy, desired.Expr, current.Expr)
}

func validateIndexOwners(objects objectBuckets, side string) error {
	for _, index := range objects.indexes {
		var ownerExists bool
		switch index.Owner.Kind {
		case ir.IndexOwnerTable:
			_, ownerExists = objects.tables[qualifiedNameKeyFrom(index.Owner.Name)]
		case ir.IndexOwnerView:
			_, ownerExists = objects.views[qualifiedNameKeyFrom(index.Owner.Name)]
		case ir.IndexOwnerMaterializedView:
			_, ownerExists = objects.materializedViews[qualifiedNameKeyFrom(index.Owner.Name)]
		}

		if !ownerExists {
			return &corerr.DiffError{
				Target:    describeIndexOwner(index.Owner),
				Operation: fmt.Sprintf("index owner not found in %s schema", side),
			}
		}
	}

	return nil
}

func indexLookupKeyFor(index ir.IndexDef) (indexLookupKey, error) {
	if index.Name == nil {
		return indexLookupKey{}, &corerr.DiffError{
			Target:    describeIndexOwner(index.Owner),
			Operation: "index name is required for diff comparison",
		}
	}
	return indexLookupKey{Owner: indexOwnerKeyFrom(index.Owner), Name: identKeyFrom(*index.Name)}, nil
}

func describeIndexOwner(owner ir.IndexOwner) string {
	switch owner.Kind {
	case ir.IndexOwnerTable:
		return fmt.Sprintf("table %s", displayQualifiedName(owner.Name))
	case ir.IndexOwnerView:
		return fmt.Sprintf("view %s", displayQualifiedName(owner.Name))
	case ir.IndexOwnerMaterializedView:
		return fmt.Sprintf("materialized view %s", displayQualifiedName(owner.Name))
	default:
		panic("diff: unreachable IndexOwnerKind variant")
	}
}

func displayQualifiedName(name ir.QualifiedName) string {
	if name.Schema != nil {
		return fmt.Sprintf("%s.%s", displayIdent(*name.Schema), displayIdent(name.Name))
	}
	return displayIdent(name.Name)
}

func displayIdent(ident ir.Ident) string {
	if ident.Quoted {
		return fmt.Sprintf("%q", ident.Value)
	}
	return ident.Value
}

type objectBuckets struct {
	tables            map[qualifiedNameKey]ir.Table
	tableOrder        []qualifiedNameKey
	views             map[qualifiedNameKey]struct{}
	materializedViews map[qualifiedNameKey]struct{}
	indexes           []ir.IndexDef
}

func newObjectBuckets(objects []ir.SchemaObject) (objectBuckets, error) {
	buckets := objectBuckets{
		tables:            make(map[qualifiedNameKey]ir.Table),
		views:             make(map[qualifiedNameKey]struct{}),
		materializedViews: make(map[qualifiedNameKey]struct{}),
	}

	for _, object := range objects {
		switch o := object.(type) {
		case ir.TableObject:
			key := qualifiedNameKeyFrom(o.Table.Name)
			buckets.tables[key] = o.Table
			buckets.tableOrder = append(buckets.tableOrder, key)
		case ir.ViewObject:
			buckets.views[qualifiedNameKeyFrom(o.View.Name)] = struct{}{}
		case ir.MaterializedViewObject:
			buckets.materializedViews[qualifiedNameKeyFrom(o.MaterializedView.Name)] = struct{}{}
		case ir.IndexObject:
			buckets.indexes = append(buckets.indexes, o.Index)
		}
	}

	return buckets, nil
}
