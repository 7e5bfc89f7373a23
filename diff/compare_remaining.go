package diff

import (
	"fmt"

	"github.com/schemadrift/schemadrift/corerr"
	"github.com/schemadrift/schemadrift/diffcfg"
	"github.com/schemadrift/schemadrift/ir"
)

// compareRemainingObjects handles every schema object kind DiffEngine's
// table/index comparison doesn't: views, materialized views, sequences,
// triggers, functions, types, domains, extensions, schemas, comments,
// privileges and policies.
func compareRemainingObjects(desired, current []ir.SchemaObject, config diffcfg.DiffConfig, ops *[]DiffOp) error {
	compareViews(collectViews(desired), collectViews(current), config, ops)
	compareMaterializedViews(collectMaterializedViews(desired), collectMaterializedViews(current), config, ops)
	compareSequences(collectSequences(desired), collectSequences(current), config, ops)
	compareTriggers(collectTriggers(desired), collectTriggers(current), config, ops)
	compareFunctions(collectFunctions(desired), collectFunctions(current), config, ops)
	compareTypes(collectTypes(desired), collectTypes(current), config, ops)
	compareDomains(collectDomains(desired), collectDomains(current), config, ops)
	compareExtensions(collectExtensions(desired), collectExtensions(current), config, ops)
	compareSchemas(collectSchemas(desired), collectSchemas(current), config, ops)
	compareComments(collectComments(desired), collectComments(current), config, ops)
	comparePrivileges(collectPrivileges(desired), collectPrivileges(current), config, ops)
	comparePolicies(collectPolicies(desired), collectPolicies(current), config, ops)
	return nil
}

// validateSequenceInvariant rejects a schema that declares an explicit
// sequence whose name collides with a column's implicit identity sequence.
func validateSequenceInvariant(objects []ir.SchemaObject, side string) error {
	explicitSequences := make(map[qualifiedNameKey]struct{})
	for _, sequence := range collectSequences(objects) {
		explicitSequences[qualifiedNameKeyFrom(sequence.Name)] = struct{}{}
	}

	for _, table := range collectTables(objects) {
		for _, column := range table.Columns {
			if column.Identity == nil {
				continue
			}

			implicitSequence := implicitIdentitySequenceName(table.Name, column.Name)
			if _, collides := explicitSequences[qualifiedNameKeyFrom(implicitSequence)]; collides {
				return &corerr.DiffError{
					Target: displayQualifiedName(implicitSequence),
					Operation: fmt.Sprintf(
						"sequence duplicate invariant violation in %s schema: explicit sequence overlaps implicit identity sequence for %s.%s",
						side, displayQualifiedName(table.Name), displayIdent(column.Name)),
				}
			}
		}
	}

	return nil
}

func collectTables(objects []ir.SchemaObject) []ir.Table {
	var out []ir.Table
	for _, object := range objects {
		if o, ok := object.(ir.TableObject); ok {
			out = append(out, o.Table)
		}
	}
	return out
}

func collectViews(objects []ir.SchemaObject) []ir.View {
	var out []ir.View
	for _, object := range objects {
		if o, ok := object.(ir.ViewObject); ok {
			out = append(out, o.View)
		}
	}
	return out
}

func mapViewsByName(views []ir.View) (map[qualifiedNameKey]ir.View, []qualifiedNameKey) {
	byName := make(map[qualifiedNameKey]ir.View, len(views))
	order := make([]qualifiedNameKey, 0, len(views))
	for _, view := range views {
		key := qualifiedNameKeyFrom(view.Name)
		byName[key] = view
		order = append(order, key)
	}
	return byName, order
}

func collectMaterializedViews(objects []ir.SchemaObject) []ir.MaterializedView {
	var out []ir.MaterializedView
	for _, object := range objects {
		if o, ok := object.(ir.MaterializedViewObject); ok {
			out = append(out, o.MaterializedView)
		}
	}
	return out
}

func collectSequences(objects []ir.SchemaObject) []ir.Sequence {
	var out []ir.Sequence
	for _, object := range objects {
		if o, ok := object.(ir.SequenceObject); ok {
			out = append(out, o.Sequence)
		}
	}
	return out
}

func collectTriggers(objects []ir.SchemaObject) []ir.Trigger {
	var out []ir.Trigger
	for _, object := range objects {
		if o, ok := object.(ir.TriggerObject); ok {
			out = append(out, o.Trigger)
		}
	}
	return out
}

func collectFunctions(objects []ir.SchemaObject) []ir.Function {
	var out []ir.Function
	for _, object := range objects {
		if o, ok := object.(ir.FunctionObject); ok {
			out = append(out, o.Function)
		}
	}
	return out
}

func collectTypes(objects []ir.SchemaObject) []ir.TypeDef {
	var out []ir.TypeDef
	for _, object := range objects {
		if o, ok := object.(ir.TypeObject); ok {
			out = append(out, o.Type)
		}
	}
	return out
}

func collectDomains(objects []ir.SchemaObject) []ir.Domain {
	var out []ir.Domain
	for _, object := range objects {
		if o, ok := object.(ir.DomainObject); ok {
			out = append(out, o.Domain)
		}
	}
	return out
}

func collectExtensions(objects []ir.SchemaObject) []ir.Extension {
	var out []ir.Extension
	for _, object := range objects {
		if o, ok := object.(ir.ExtensionObject); ok {
			out = append(out, o.Extension)
		}
	}
	return out
}

func collectSchemas(objects []ir.SchemaObject) []ir.SchemaDef {
	var out []ir.SchemaDef
	for _, object := range objects {
		if o, ok := object.(ir.SchemaDefObject); ok {
			out = append(out, o.Schema)
		}
	}
	return out
}

func collectComments(objects []ir.SchemaObject) []ir.Comment {
	var out []ir.Comment
	for _, object := range objects {
		if o, ok := object.(ir.CommentObject); ok {
			out = append(out, o.Comment)
		}
	}
	return out
}

func collectPolicies(objects []ir.SchemaObject) []ir.Policy {
	var out []ir.Policy
	for _, object := range objects {
		if o, ok := object.(ir.PolicyObject); ok {
			out = append(out, o.Policy)
		}
	}
	return out
}

func collectPrivileges(objects []ir.SchemaObject) []ir.Privilege {
	var out []ir.Privilege
	for _, object := range objects {
		if o, ok := object.(ir.PrivilegeObjectWrapper); ok {
			out = append(out, o.Privilege)
		}
	}
	return out
}

func compareViews(desired, current []ir.View, config diffcfg.DiffConfig, ops *[]DiffOp) {
	desiredByKey, _ := mapViewsByName(desired)
	currentByKey, _ := mapViewsByName(current)
	rebuildPlan := buildViewRebuildPlan(desiredByKey, currentByKey)

	if config.EnableDrop {
		for _, dropKey := range rebuildPlan.DropOrder {
			if currentView, ok := currentByKey[dropKey]; ok {
				*ops = append(*ops, DropViewOp{Name: currentView.Name})
			}
		}
	}

	for _, createKey := range rebuildPlan.CreateOrder {
		if desiredView, ok := desiredByKey[createKey]; ok {
			*ops = append(*ops, CreateViewOp{View: desiredView})
		}
	}

	for _, desiredView := range desired {
		viewKey := qualifiedNameKeyFrom(desiredView.Name)
		if _, inRebuild := rebuildPlan.RebuildSet[viewKey]; inRebuild {
			continue
		}
		if _, ok := currentByKey[viewKey]; !ok {
			*ops = append(*ops, CreateViewOp{View: desiredView})
		}
	}

	if config.EnableDrop {
		for _, currentView := range current {
			viewKey := qualifiedNameKeyFrom(currentView.Name)
			if _, inRebuild := rebuildPlan.RebuildSet[viewKey]; inRebuild {
				continue
			}
			if _, ok := desiredByKey[viewKey]; !ok {
				*ops = append(*ops, DropViewOp{Name: currentView.Name})
			}
		}
	}
}

func compareMaterializedViews(desired, current []ir.MaterializedView, config diffcfg.DiffConfig, ops *[]DiffOp) {
	for _, desiredView := range desired {
		currentView, found := findMaterializedView(current, desiredView.Name)
		if !found {
			*ops = append(*ops, CreateMaterializedViewOp{MaterializedView: desiredView})
			continue
		}
		if !ir.StructuralEqual(desiredView, currentView) {
			if config.EnableDrop {
				*ops = append(*ops, DropMaterializedViewOp{Name: currentView.Name})
			}
			*ops = append(*ops, CreateMaterializedViewOp{MaterializedView: desiredView})
		}
	}

	if config.EnableDrop {
		for _, currentView := range current {
			if _, found := findMaterializedView(desired, currentView.Name); !found {
				*ops = append(*ops, DropMaterializedViewOp{Name: currentView.Name})
			}
		}
	}
}

func findMaterializedView(views []ir.MaterializedView, name ir.QualifiedName) (ir.MaterializedView, bool) {
	for _, v := range views {
		if ir.StructuralEqual(v.Name, name) {
			return v, true
		}
	}
	return ir.MaterializedView{}, false
}

func compareSequences(desired, current []ir.Sequence, config diffcfg.DiffConfig, ops *[]DiffOp) {
	for _, desiredSequence := range desired {
		currentSequence, found := findSequence(current, desiredSequence.Name)
		if !found {
			*ops = append(*ops, CreateSequenceOp{Sequence: desiredSequence})
			continue
		}
		if ir.StructuralEqual(desiredSequence, currentSequence) {
			continue
		}

		changes, ok := sequenceChanges(desiredSequence, currentSequence)
		switch {
		case ok && len(changes) > 0:
			*ops = append(*ops, AlterSequenceOp{Name: desiredSequence.Name, Changes: changes})
		case ok:
			// no-op: fields differ only in ways that don't require a change
		default:
			if config.EnableDrop {
				*ops = append(*ops, DropSequenceOp{Name: currentSequence.Name})
			}
			*ops = append(*ops, CreateSequenceOp{Sequence: desiredSequence})
		}
	}

	if config.EnableDrop {
		for _, currentSequence := range current {
			if _, found := findSequence(desired, currentSequence.Name); !found {
				*ops = append(*ops, DropSequenceOp{Name: currentSequence.Name})
			}
		}
	}
}

func findSequence(sequences []ir.Sequence, name ir.QualifiedName) (ir.Sequence, bool) {
	for _, s := range sequences {
		if ir.StructuralEqual(s.Name, name) {
			return s, true
		}
	}
	return ir.Sequence{}, false
}

func compareTriggers(desired, current []ir.Trigger, config diffcfg.DiffConfig, ops *[]DiffOp) {
	for _, desiredTrigger := range desired {
		currentTrigger, found := findTrigger(current, desiredTrigger.Name)
		if !found {
			*ops = append(*ops, CreateTriggerOp{Trigger: desiredTrigger})
			continue
		}
		if !ir.StructuralEqual(desiredTrigger, currentTrigger) {
			if config.EnableDrop {
				table := currentTrigger.Table
				*ops = append(*ops, DropTriggerOp{Name: currentTrigger.Name, Table: &table})
			}
			*ops = append(*ops, CreateTriggerOp{Trigger: desiredTrigger})
		}
	}

	if config.EnableDrop {
		for _, currentTrigger := range current {
			if _, found := findTrigger(desired, currentTrigger.Name); !found {
				table := currentTrigger.Table
				*ops = append(*ops, DropTriggerOp{Name: currentTrigger.Name, Table: &table})
			}
		}
	}
}

func findTrigger(triggers []ir.Trigger, name ir.QualifiedName) (ir.Trigger, bool) {
	for _, t := range triggers {
		if ir.StructuralEqual(t.Name, name) {
			return t, true
		}
	}
	return ir.Trigger{}, false
}

func compareFunctions(desired, current []ir.Function, config diffcfg.DiffConfig, ops *[]DiffOp) {
	for _, desiredFunction := range desired {
		currentFunction, found := findFunction(current, desiredFunction.Name)
		if !found {
			*ops = append(*ops, CreateFunctionOp{Function: desiredFunction})
			continue
		}
		if !ir.StructuralEqual(desiredFunction, currentFunction) {
			if config.EnableDrop {
				*ops = append(*ops, DropFunctionOp{Name: currentFunction.Name})
			}
			*ops = append(*ops, CreateFunctionOp{Function: desiredFunction})
		}
	}

	if config.EnableDrop {
		for _, currentFunction := range current {
			if _, found := findFunction(desired, currentFunction.Name); !found {
				*ops = append(*ops, DropFunctionOp{Name: currentFunction.Name})
			}
		}
	}
}

func findFunction(functions []ir.Function, name ir.QualifiedName) (ir.Function, bool) {
	for _, f := range functions {
		if ir.StructuralEqual(f.Name, name) {
			return f, true
		}
	}
	return ir.Function{}, false
}

func compareTypes(desired, current []ir.TypeDef, config diffcfg.DiffConfig, ops *[]DiffOp) {
	for _, desiredType := range desired {
		currentType, found := findType(current, desiredType.Name)
		if !found {
			*ops = append(*ops, CreateTypeOp{Type: desiredType})
			continue
		}
		if ir.StructuralEqual(desiredType, currentType) {
			continue
		}

		changes, ok := typeChanges(desiredType, currentType)
		switch {
		case ok && len(changes) > 0:
			for _, change := range changes {
				*ops = append(*ops, AlterTypeOp{Name: desiredType.Name, Change: change})
			}
		case ok:
			// changes computed as empty: kinds equal, nothing to emit
		default:
			if config.EnableDrop {
				*ops = append(*ops, DropTypeOp{Name: currentType.Name})
			}
			*ops = append(*ops, CreateTypeOp{Type: desiredType})
		}
	}

	if config.EnableDrop {
		for _, currentType := range current {
			if _, found := findType(desired, currentType.Name); !found {
				*ops = append(*ops, DropTypeOp{Name: currentType.Name})
			}
		}
	}
}

func findType(types []ir.TypeDef, name ir.QualifiedName) (ir.TypeDef, bool) {
	for _, t := range types {
		if ir.StructuralEqual(t.Name, name) {
			return t, true
		}
	}
	return ir.TypeDef{}, false
}

func compareDomains(desired, current []ir.Domain, config diffcfg.DiffConfig, ops *[]DiffOp) {
	for _, desiredDomain := range desired {
		currentDomain, found := findDomain(current, desiredDomain.Name)
		if !found {
			*ops = append(*ops, CreateDomainOp{Domain: desiredDomain})
			continue
		}
		if ir.StructuralEqual(desiredDomain, currentDomain) {
			continue
		}

		changes, ok := domainChanges(desiredDomain, currentDomain, config)
		switch {
		case ok && len(changes) > 0:
			for _, change := range changes {
				*ops = append(*ops, AlterDomainOp{Name: desiredDomain.Name, Change: change})
			}
		case ok:
			// changes computed as empty
		default:
			if config.EnableDrop {
				*ops = append(*ops, DropDomainOp{Name: currentDomain.Name})
			}
			*ops = append(*ops, CreateDomainOp{Domain: desiredDomain})
		}
	}

	if config.EnableDrop {
		for _, currentDomain := range current {
			if _, found := findDomain(desired, currentDomain.Name); !found {
				*ops = append(*ops, DropDomainOp{Name: currentDomain.Name})
			}
		}
	}
}

func findDomain(domains []ir.Domain, name ir.QualifiedName) (ir.Domain, bool) {
	for _, d := range domains {
		if ir.StructuralEqual(d.Name, name) {
			return d, true
		}
	}
	return ir.Domain{}, false
}

func compareExtensions(desired, current []ir.Extension, config diffcfg.DiffConfig, ops *[]DiffOp) {
	for _, desiredExtension := range desired {
		currentExtension, found := findExtension(current, desiredExtension.Name)
		if !found {
			*ops = append(*ops, CreateExtensionOp{Extension: desiredExtension})
			continue
		}
		if !ir.StructuralEqual(desiredExtension, currentExtension) {
			if config.EnableDrop {
				*ops = append(*ops, DropExtensionOp{Name: extensionName(currentExtension)})
			}
			*ops = append(*ops, CreateExtensionOp{Extension: desiredExtension})
		}
	}

	if config.EnableDrop {
		for _, currentExtension := range current {
			if _, found := findExtension(desired, currentExtension.Name); !found {
				*ops = append(*ops, DropExtensionOp{Name: extensionName(currentExtension)})
			}
		}
	}
}

func findExtension(extensions []ir.Extension, name ir.Ident) (ir.Extension, bool) {
	for _, e := range extensions {
		if identEqualStrict(e.Name, name) {
			return e, true
		}
	}
	return ir.Extension{}, false
}

func compareSchemas(desired, current []ir.SchemaDef, config diffcfg.DiffConfig, ops *[]DiffOp) {
	for _, desiredSchema := range desired {
		if !schemaPresent(current, desiredSchema.Name) {
			*ops = append(*ops, CreateSchemaOp{Schema: desiredSchema})
		}
	}

	if config.EnableDrop {
		for _, currentSchema := range current {
			if !schemaPresent(desired, currentSchema.Name) {
				*ops = append(*ops, DropSchemaOp{Name: schemaName(currentSchema)})
			}
		}
	}
}

func schemaPresent(schemas []ir.SchemaDef, name ir.Ident) bool {
	for _, s := range schemas {
		if identEqualStrict(s.Name, name) {
			return true
		}
	}
	return false
}

func compareComments(desired, current []ir.Comment, config diffcfg.DiffConfig, ops *[]DiffOp) {
	for _, desiredComment := range desired {
		currentComment, found := findComment(current, desiredComment.Target)
		if found {
			if !stringPtrEqual(desiredComment.Text, currentComment.Text) {
				if desiredComment.Text != nil {
					*ops = append(*ops, SetCommentOp{Comment: desiredComment})
				} else if config.EnableDrop {
					*ops = append(*ops, DropCommentOp{Target: desiredComment.Target})
				}
			}
			continue
		}
		if desiredComment.Text != nil {
			*ops = append(*ops, SetCommentOp{Comment: desiredComment})
		}
	}

	if config.EnableDrop {
		for _, currentComment := range current {
			if _, found := findComment(desired, currentComment.Target); !found && currentComment.Text != nil {
				*ops = append(*ops, DropCommentOp{Target: currentComment.Target})
			}
		}
	}
}

func findComment(comments []ir.Comment, target ir.CommentTarget) (ir.Comment, bool) {
	for _, c := range comments {
		if ir.StructuralEqual(c.Target, target) {
			return c, true
		}
	}
	return ir.Comment{}, false
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func comparePolicies(desired, current []ir.Policy, config diffcfg.DiffConfig, ops *[]DiffOp) {
	for _, desiredPolicy := range desired {
		currentPolicy, found := findPolicy(current, desiredPolicy.Name, desiredPolicy.Table)
		if !found {
			*ops = append(*ops, CreatePolicyOp{Policy: desiredPolicy})
			continue
		}
		if !ir.StructuralEqual(desiredPolicy, currentPolicy) {
			if config.EnableDrop {
				*ops = append(*ops, DropPolicyOp{Name: currentPolicy.Name, Table: currentPolicy.Table})
			}
			*ops = append(*ops, CreatePolicyOp{Policy: desiredPolicy})
		}
	}

	if config.EnableDrop {
		for _, currentPolicy := range current {
			if _, found := findPolicy(desired, currentPolicy.Name, currentPolicy.Table); !found {
				*ops = append(*ops, DropPolicyOp{Name: currentPolicy.Name, Table: currentPolicy.Table})
			}
		}
	}
}

func findPolicy(policies []ir.Policy, name ir.Ident, table ir.QualifiedName) (ir.Policy, bool) {
	for _, p := range policies {
		if identEqualStrict(p.Name, name) && ir.StructuralEqual(p.Table, table) {
			return p, true
		}
	}
	return ir.Policy{}, false
}

// sequenceChanges returns (changes, true) if desired and current can be
// reconciled with an ALTER SEQUENCE, or (nil, false) if a field changed in
// a way ALTER SEQUENCE can't express (an owned_by change, or the data type,
// increment, start or cache being cleared to nil) and the sequence must be
// dropped and recreated instead. MinValue/MaxValue cleared to nil are
// reported as changes carrying nil.
func sequenceChanges(desired, current ir.Sequence) ([]SequenceChange, bool) {
	var changes []SequenceChange

	if !ir.DataTypeEqual(desired.DataType, current.DataType) {
		if desired.DataType == nil {
			return nil, false
		}
		changes = append(changes, SeqSetTypeChange{Type: desired.DataType})
	}

	if !int64PtrEqual(desired.Increment, current.Increment) {
		if desired.Increment == nil {
			return nil, false
		}
		changes = append(changes, SeqSetIncrementChange{Increment: *desired.Increment})
	}

	if !int64PtrEqual(desired.MinValue, current.MinValue) {
		changes = append(changes, SeqSetMinValueChange{MinValue: desired.MinValue})
	}

	if !int64PtrEqual(desired.MaxValue, current.MaxValue) {
		changes = append(changes, SeqSetMaxValueChange{MaxValue: desired.MaxValue})
	}

	if !int64PtrEqual(desired.Start, current.Start) {
		if desired.Start == nil {
			return nil, false
		}
		changes = append(changes, SeqSetStartChange{Start: *desired.Start})
	}

	if !int64PtrEqual(desired.Cache, current.Cache) {
		if desired.Cache == nil {
			return nil, false
		}
		changes = append(changes, SeqSetCacheChange{Cache: *desired.Cache})
	}

	if desired.Cycle != current.Cycle {
		changes = append(changes, SeqSetCycleChange{Cycle: desired.Cycle})
	}

	if !ir.StructuralEqual(desired.OwnedBy, current.OwnedBy) {
		return nil, false
	}

	return changes, true
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// typeChanges returns (changes, true) when an ENUM's label list is either
// a strict extension of the current one (pure appends) or differs at
// exactly one position (a rename); any other kind or shape change returns
// (nil, false) so the caller drops and recreates the type instead.
func typeChanges(desired, current ir.TypeDef) ([]TypeChange, bool) {
	if ir.StructuralEqual(desired.Kind, current.Kind) {
		return nil, true
	}

	desiredEnum, desiredOk := desired.Kind.(ir.TypeKindEnum)
	currentEnum, currentOk := current.Kind.(ir.TypeKindEnum)
	if !desiredOk || !currentOk {
		return nil, false
	}

	if stringSliceHasPrefix(desiredEnum.Labels, currentEnum.Labels) {
		var changes []TypeChange
		for _, label := range desiredEnum.Labels[len(currentEnum.Labels):] {
			changes = append(changes, TypeAddValueChange{Value: label, Position: nil})
		}
		return changes, true
	}

	if len(desiredEnum.Labels) == len(currentEnum.Labels) {
		var from, to string
		diffCount := 0
		for i := range currentEnum.Labels {
			if currentEnum.Labels[i] != desiredEnum.Labels[i] {
				diffCount++
				from, to = currentEnum.Labels[i], desiredEnum.Labels[i]
			}
		}
		if diffCount == 1 {
			return []TypeChange{TypeRenameValueChange{From: from, To: to}}, true
		}
	}

	return nil, false
}

func stringSliceHasPrefix(full, prefix []string) bool {
	if len(prefix) > len(full) {
		return false
	}
	for i := range prefix {
		if full[i] != prefix[i] {
			return false
		}
	}
	return true
}

// domainChanges returns (changes, true) when desired and current share the
// same base data type — the only shape ALTER DOMAIN can express — or
// (nil, false) if the base type itself changed, forcing drop-and-recreate.
func domainChanges(desired, current ir.Domain, config diffcfg.DiffConfig) ([]DomainChange, bool) {
	if !ir.DataTypeEqual(desired.DataType, current.DataType) {
		return nil, false
	}

	var changes []DomainChange

	if !ir.StructuralEqual(desired.Default, current.Default) {
		changes = append(changes, DomainSetDefaultChange{Default: desired.Default})
	}

	if desired.NotNull != current.NotNull {
		changes = append(changes, DomainSetNotNullChange{NotNull: desired.NotNull})
	}

	hasUnnamedConstraint := anyCheckUnnamed(desired.Checks) || anyCheckUnnamed(current.Checks)
	if hasUnnamedConstraint && !ir.StructuralEqual(desired.Checks, current.Checks) {
		return nil, false
	}

	appendDomainConstraintChanges(desired, current, config, &changes)
	return changes, true
}

func anyCheckUnnamed(checks []ir.CheckConstraint) bool {
	for _, c := range checks {
		if c.Name == nil {
			return true
		}
	}
	return false
}

func appendDomainConstraintChanges(desired, current ir.Domain, config diffcfg.DiffConfig, changes *[]DomainChange) {
	desiredNamed := namedChecksOnly(desired.Checks)
	currentNamed := namedChecksOnly(current.Checks)

	for _, desiredCheck := range desiredNamed {
		desiredName := *desiredCheck.Name

		if currentCheck, ok := findNamedCheck(currentNamed, desiredName); ok {
			if !ir.StructuralEqual(desiredCheck, currentCheck) {
				if config.EnableDrop {
					*changes = append(*changes, DomainDropConstraintChange{Name: desiredName})
				}
				*changes = append(*changes, DomainAddConstraintChange{Name: &desiredName, Check: desiredCheck.Expr})
			}
			continue
		}
		*changes = append(*changes, DomainAddConstraintChange{Name: &desiredName, Check: desiredCheck.Expr})
	}

	if config.EnableDrop {
		for _, currentCheck := range currentNamed {
			currentName := *currentCheck.Name
			if _, ok := findNamedCheck(desiredNamed, currentName); !ok {
				*changes = append(*changes, DomainDropConstraintChange{Name: currentName})
			}
		}
	}
}

func namedChecksOnly(checks []ir.CheckConstraint) []ir.CheckConstraint {
	var out []ir.CheckConstraint
	for _, c := range checks {
		if c.Name != nil {
			out = append(out, c)
		}
	}
	return out
}

func findNamedCheck(checks []ir.CheckConstraint, name ir.Ident) (ir.CheckConstraint, bool) {
	for _, c := range checks {
		if c.Name != nil && identEqualStrict(*c.Name, name) {
			return c, true
		}
	}
	return ir.CheckConstraint{}, false
}

func implicitIdentitySequenceName(table ir.QualifiedName, column ir.Ident) ir.QualifiedName {
	return ir.QualifiedName{
		Schema: table.Schema,
		Name:   ir.NewIdent(fmt.Sprintf("%s_%s_seq", table.Name.Value, column.Value)),
	}
}

func extensionName(extension ir.Extension) ir.QualifiedName {
	return ir.QualifiedName{Schema: extension.Schema, Name: extension.Name}
}

func schemaName(schema ir.SchemaDef) ir.QualifiedName {
	return ir.QualifiedName{Name: schema.Name}
}
