// Package diff computes the unordered set of DiffOp values that transform a
// current schema into a desired one: name resolution across a schema search
// path, rename detection, view-rebuild transitive closure, enable_drop
// suppression with diagnostics, and per-object-kind structural comparison.
package diff

import "github.com/schemadrift/schemadrift/ir"

// DiffOp is the closed family of schema change operations the engine can
// emit. Dialects convert a []DiffOp into dialect-specific Statement values.
type DiffOp interface {
	isDiffOp()
}

type (
	CreateTableOp struct{ Table ir.Table }
	DropTableOp   struct{ Name ir.QualifiedName }
	RenameTableOp struct {
		From ir.QualifiedName
		To   ir.QualifiedName
	}

	AddColumnOp struct {
		Table    ir.QualifiedName
		Column   ir.Column
		Position *ir.ColumnPosition
	}
	DropColumnOp struct {
		Table  ir.QualifiedName
		Column ir.Ident
	}
	AlterColumnOp struct {
		Table   ir.QualifiedName
		Column  ir.Ident
		Changes []ColumnChange
	}
	RenameColumnOp struct {
		Table ir.QualifiedName
		From  ir.Ident
		To    ir.Ident
	}

	AddIndexOp struct{ Index ir.IndexDef }
	DropIndexOp struct {
		Owner ir.IndexOwner
		Name  ir.Ident
	}
	RenameIndexOp struct {
		Owner ir.IndexOwner
		From  ir.Ident
		To    ir.Ident
	}

	AddForeignKeyOp struct {
		Table ir.QualifiedName
		FK    ir.ForeignKey
	}
	DropForeignKeyOp struct {
		Table ir.QualifiedName
		Name  ir.Ident
	}

	AddCheckOp struct {
		Table ir.QualifiedName
		Check ir.CheckConstraint
	}
	DropCheckOp struct {
		Table ir.QualifiedName
		Name  ir.Ident
	}

	AddExclusionOp struct {
		Table     ir.QualifiedName
		Exclusion ir.ExclusionConstraint
	}
	DropExclusionOp struct {
		Table ir.QualifiedName
		Name  ir.Ident
	}

	SetPrimaryKeyOp struct {
		Table ir.QualifiedName
		PK    ir.PrimaryKey
	}
	DropPrimaryKeyOp struct{ Table ir.QualifiedName }

	AddPartitionOp struct {
		Table     ir.QualifiedName
		Partition ir.Partition
	}
	DropPartitionOp struct {
		Table ir.QualifiedName
		Name  ir.Ident
	}

	CreateViewOp struct{ View ir.View }
	DropViewOp   struct{ Name ir.QualifiedName }

	CreateMaterializedViewOp struct{ MaterializedView ir.MaterializedView }
	DropMaterializedViewOp   struct{ Name ir.QualifiedName }

	CreateSequenceOp struct{ Sequence ir.Sequence }
	DropSequenceOp   struct{ Name ir.QualifiedName }
	AlterSequenceOp  struct {
		Name    ir.QualifiedName
		Changes []SequenceChange
	}

	CreateTriggerOp struct{ Trigger ir.Trigger }
	DropTriggerOp   struct {
		Name  ir.QualifiedName
		Table *ir.QualifiedName
	}

	CreateFunctionOp struct{ Function ir.Function }
	DropFunctionOp   struct{ Name ir.QualifiedName }

	CreateTypeOp struct{ Type ir.TypeDef }
	DropTypeOp   struct{ Name ir.QualifiedName }
	AlterTypeOp  struct {
		Name   ir.QualifiedName
		Change TypeChange
	}

	CreateDomainOp struct{ Domain ir.Domain }
	DropDomainOp   struct{ Name ir.QualifiedName }
	AlterDomainOp  struct {
		Name   ir.QualifiedName
		Change DomainChange
	}

	CreateExtensionOp struct{ Extension ir.Extension }
	DropExtensionOp   struct{ Name ir.QualifiedName }

	CreateSchemaOp struct{ Schema ir.SchemaDef }
	DropSchemaOp   struct{ Name ir.QualifiedName }

	SetCommentOp struct{ Comment ir.Comment }
	DropCommentOp struct{ Target ir.CommentTarget }

	GrantOp  struct{ Privilege ir.Privilege }
	RevokeOp struct{ Privilege ir.Privilege }

	CreatePolicyOp struct{ Policy ir.Policy }
	DropPolicyOp   struct {
		Name  ir.Ident
		Table ir.QualifiedName
	}

	AlterTableOptionsOp struct {
		Table   ir.QualifiedName
		Options ir.TableOptions
	}
)

func (CreateTableOp) isDiffOp()             {}
func (DropTableOp) isDiffOp()               {}
func (RenameTableOp) isDiffOp()             {}
func (AddColumnOp) isDiffOp()               {}
func (DropColumnOp) isDiffOp()              {}
func (AlterColumnOp) isDiffOp()             {}
func (RenameColumnOp) isDiffOp()            {}
func (AddIndexOp) isDiffOp()                {}
func (DropIndexOp) isDiffOp()               {}
func (RenameIndexOp) isDiffOp()             {}
func (AddForeignKeyOp) isDiffOp()           {}
func (DropForeignKeyOp) isDiffOp()          {}
func (AddCheckOp) isDiffOp()                {}
func (DropCheckOp) isDiffOp()               {}
func (AddExclusionOp) isDiffOp()            {}
func (DropExclusionOp) isDiffOp()           {}
func (SetPrimaryKeyOp) isDiffOp()           {}
func (DropPrimaryKeyOp) isDiffOp()          {}
func (AddPartitionOp) isDiffOp()            {}
func (DropPartitionOp) isDiffOp()           {}
func (CreateViewOp) isDiffOp()              {}
func (DropViewOp) isDiffOp()                {}
func (CreateMaterializedViewOp) isDiffOp()  {}
func (DropMaterializedViewOp) isDiffOp()    {}
func (CreateSequenceOp) isDiffOp()          {}
func (DropSequenceOp) isDiffOp()            {}
func (AlterSequenceOp) isDiffOp()           {}
func (CreateTriggerOp) isDiffOp()           {}
func (DropTriggerOp) isDiffOp()             {}
func (CreateFunctionOp) isDiffOp()          {}
func (DropFunctionOp) isDiffOp()            {}
func (CreateTypeOp) isDiffOp()              {}
func (DropTypeOp) isDiffOp()                {}
func (AlterTypeOp) isDiffOp()               {}
func (CreateDomainOp) isDiffOp()            {}
func (DropDomainOp) isDiffOp()              {}
func (AlterDomainOp) isDiffOp()             {}
func (CreateExtensionOp) isDiffOp()         {}
func (DropExtensionOp) isDiffOp()           {}
func (CreateSchemaOp) isDiffOp()            {}
func (DropSchemaOp) isDiffOp()              {}
func (SetCommentOp) isDiffOp()              {}
func (DropCommentOp) isDiffOp()             {}
func (GrantOp) isDiffOp()                   {}
func (RevokeOp) isDiffOp()                  {}
func (CreatePolicyOp) isDiffOp()            {}
func (DropPolicyOp) isDiffOp()              {}
func (AlterTableOptionsOp) isDiffOp()       {}

// ColumnChange is one field-level change within an AlterColumnOp.
type ColumnChange interface {
	isColumnChange()
}

type (
	SetTypeChange       struct{ Type ir.DataType }
	SetNotNullChange    struct{ NotNull bool }
	SetDefaultChange    struct{ Default ir.Expr }
	SetIdentityChange   struct{ Identity *ir.Identity }
	SetGeneratedChange  struct{ Generated *ir.GeneratedColumn }
	SetCollationChange  struct{ Collation *string }
)

func (SetTypeChange) isColumnChange()      {}
func (SetNotNullChange) isColumnChange()   {}
func (SetDefaultChange) isColumnChange()   {}
func (SetIdentityChange) isColumnChange()  {}
func (SetGeneratedChange) isColumnChange() {}
func (SetCollationChange) isColumnChange() {}

// IsMySQLChangeColumnFullRedefinition reports whether changes touch every
// column facet MySQL's CHANGE COLUMN needs restated in one clause.
func IsMySQLChangeColumnFullRedefinition(changes []ColumnChange) bool {
	var hasType, hasNotNull, hasDefault, hasIdentity, hasGenerated, hasCollation bool
	for _, c := range changes {
		switch c.(type) {
		case SetTypeChange:
			hasType = true
		case SetNotNullChange:
			hasNotNull = true
		case SetDefaultChange:
			hasDefault = true
		case SetIdentityChange:
			hasIdentity = true
		case SetGeneratedChange:
			hasGenerated = true
		case SetCollationChange:
			hasCollation = true
		}
	}
	return hasType && hasNotNull && hasDefault && hasIdentity && hasGenerated && hasCollation
}

// SequenceChange is one field-level change within an AlterSequenceOp.
type SequenceChange interface {
	isSequenceChange()
}

type (
	SeqSetTypeChange      struct{ Type ir.DataType }
	SeqSetIncrementChange struct{ Increment int64 }
	SeqSetMinValueChange  struct{ MinValue *int64 }
	SeqSetMaxValueChange  struct{ MaxValue *int64 }
	SeqSetStartChange     struct{ Start int64 }
	SeqSetCacheChange     struct{ Cache int64 }
	SeqSetCycleChange     struct{ Cycle bool }
)

func (SeqSetTypeChange) isSequenceChange()      {}
func (SeqSetIncrementChange) isSequenceChange() {}
func (SeqSetMinValueChange) isSequenceChange()  {}
func (SeqSetMaxValueChange) isSequenceChange()  {}
func (SeqSetStartChange) isSequenceChange()     {}
func (SeqSetCacheChange) isSequenceChange()     {}
func (SeqSetCycleChange) isSequenceChange()     {}

// TypeChange is one field-level change within an AlterTypeOp (ENUM types).
type TypeChange interface {
	isTypeChange()
}

type (
	TypeAddValueChange struct {
		Value    string
		Position *ir.EnumValuePosition
	}
	TypeRenameValueChange struct {
		From string
		To   string
	}
)

func (TypeAddValueChange) isTypeChange()    {}
func (TypeRenameValueChange) isTypeChange() {}

// DomainChange is one field-level change within an AlterDomainOp.
type DomainChange interface {
	isDomainChange()
}

type (
	DomainSetDefaultChange    struct{ Default ir.Expr }
	DomainSetNotNullChange    struct{ NotNull bool }
	DomainAddConstraintChange struct {
		Name  *ir.Ident
		Check ir.Expr
	}
	DomainDropConstraintChange struct{ Name ir.Ident }
)

func (DomainSetDefaultChange) isDomainChange()     {}
func (DomainSetNotNullChange) isDomainChange()     {}
func (DomainAddConstraintChange) isDomainChange()  {}
func (DomainDropConstraintChange) isDomainChange() {}
