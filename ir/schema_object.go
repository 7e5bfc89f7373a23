package ir

// SchemaObject is the closed family of top-level schema objects a diff can
// be computed over. Every dialect parser produces a []SchemaObject; every
// dialect renderer consumes one back into SQL.
type SchemaObject interface {
	isSchemaObject()
}

type (
	TableObject             struct{ Table Table }
	ViewObject               struct{ View View }
	MaterializedViewObject    struct{ MaterializedView MaterializedView }
	IndexObject              struct{ Index IndexDef }
	SequenceObject           struct{ Sequence Sequence }
	TriggerObject            struct{ Trigger Trigger }
	FunctionObject           struct{ Function Function }
	TypeObject               struct{ Type TypeDef }
	DomainObject             struct{ Domain Domain }
	ExtensionObject          struct{ Extension Extension }
	SchemaDefObject          struct{ Schema SchemaDef }
	CommentObject            struct{ Comment Comment }
	PrivilegeObjectWrapper   struct{ Privilege Privilege }
	PolicyObject             struct{ Policy Policy }
)

func (TableObject) isSchemaObject()           {}
func (ViewObject) isSchemaObject()            {}
func (MaterializedViewObject) isSchemaObject() {}
func (IndexObject) isSchemaObject()           {}
func (SequenceObject) isSchemaObject()        {}
func (TriggerObject) isSchemaObject()         {}
func (FunctionObject) isSchemaObject()        {}
func (TypeObject) isSchemaObject()            {}
func (DomainObject) isSchemaObject()          {}
func (ExtensionObject) isSchemaObject()       {}
func (SchemaDefObject) isSchemaObject()       {}
func (CommentObject) isSchemaObject()         {}
func (PrivilegeObjectWrapper) isSchemaObject() {}
func (PolicyObject) isSchemaObject()          {}

type Table struct {
	Name         QualifiedName
	Columns      []Column
	PrimaryKey   *PrimaryKey
	ForeignKeys  []ForeignKey
	Checks       []CheckConstraint
	Exclusions   []ExclusionConstraint
	Options      TableOptions
	Partition    *Partition
	RenamedFrom  *Ident
}

func NewTable(name string) Table {
	return Table{Name: QualifiedName{Name: NewIdent(name)}}
}

type Column struct {
	Name        Ident
	DataType    DataType
	NotNull     bool
	Default     Expr
	Identity    *Identity
	Generated   *GeneratedColumn
	Comment     *string
	Collation   *string
	RenamedFrom *Ident
	Extra       map[string]Value
}

type Identity struct {
	Always    bool
	Start     *int64
	Increment *int64
	MinValue  *int64
	MaxValue  *int64
	Cache     *int64
	Cycle     bool
}

type GeneratedColumn struct {
	Expr   Expr
	Stored bool
}

type PrimaryKey struct {
	Name    *Ident
	Columns []Ident
}

type ForeignKey struct {
	Name               *Ident
	Columns            []Ident
	ReferencedTable    QualifiedName
	ReferencedColumns  []Ident
	OnDelete           *ForeignKeyAction
	OnUpdate           *ForeignKeyAction
	Deferrable         *Deferrable
	Extra              map[string]Value
}

type ForeignKeyAction int

const (
	FKActionNoAction ForeignKeyAction = iota
	FKActionRestrict
	FKActionCascade
	FKActionSetNull
	FKActionSetDefault
)

type CheckConstraint struct {
	Name      *Ident
	Expr      Expr
	NoInherit bool
}

type ExclusionConstraint struct {
	Name        *Ident
	IndexMethod string
	Elements    []ExclusionElement
	WhereClause Expr
	Deferrable  *Deferrable
}

type ExclusionElement struct {
	Expr     Expr
	Operator string
	Opclass  *string
	Order    *SortOrder
	Nulls    *NullsOrder
}

// Deferrable represents a deferrable constraint's timing as a tri-state:
// nil means not deferrable at all.
type Deferrable struct {
	InitiallyDeferred bool
}

type SortOrder int

const (
	SortAsc SortOrder = iota
	SortDesc
)

type NullsOrder int

const (
	NullsFirst NullsOrder = iota
	NullsLast
)

type TableOptions struct {
	Extra map[string]Value
}

type View struct {
	Name        QualifiedName
	Columns     []Ident
	Query       string
	CheckOption *CheckOption
	Security    *ViewSecurity
	RenamedFrom *Ident
}

func NewView(name QualifiedName, query string) View {
	return View{Name: name, Query: query}
}

type CheckOption int

const (
	CheckOptionLocal CheckOption = iota
	CheckOptionCascaded
)

type ViewSecurity int

const (
	ViewSecurityDefiner ViewSecurity = iota
	ViewSecurityInvoker
)

type MaterializedView struct {
	Name        QualifiedName
	Columns     []Column
	Query       string
	Options     TableOptions
	RenamedFrom *Ident
}

type IndexDef struct {
	Name         *Ident
	Owner        IndexOwner
	Columns      []IndexColumn
	Unique       bool
	Method       *string
	WhereClause  Expr
	Concurrent   bool
	Extra        map[string]Value
}

type IndexColumn struct {
	Expr Expr
}

type IndexOwnerKind int

const (
	IndexOwnerTable IndexOwnerKind = iota
	IndexOwnerView
	IndexOwnerMaterializedView
)

type IndexOwner struct {
	Kind IndexOwnerKind
	Name QualifiedName
}

type Partition struct {
	Strategy   PartitionStrategy
	Columns    []Ident
	Partitions []PartitionElement
}

type PartitionStrategy int

const (
	PartitionRange PartitionStrategy = iota
	PartitionList
	PartitionHash
	PartitionKey
)

type PartitionElement struct {
	Name  Ident
	Bound PartitionBound
	Extra map[string]Value
}

// PartitionBound is a closed set of partition bound kinds (LessThan/In/
// FromTo/MaxValue) expressed as a sealed interface.
type PartitionBound interface {
	isPartitionBound()
}

type (
	PartitionBoundLessThan struct{ Values []Expr }
	PartitionBoundIn       struct{ Values []Expr }
	PartitionBoundFromTo   struct {
		From []Expr
		To   []Expr
	}
	PartitionBoundMaxValue struct{}
)

func (PartitionBoundLessThan) isPartitionBound() {}
func (PartitionBoundIn) isPartitionBound()       {}
func (PartitionBoundFromTo) isPartitionBound()   {}
func (PartitionBoundMaxValue) isPartitionBound() {}

type Sequence struct {
	Name      QualifiedName
	DataType  DataType
	Increment *int64
	MinValue  *int64
	MaxValue  *int64
	Start     *int64
	Cache     *int64
	Cycle     bool
	OwnedBy   *SequenceOwner
}

type SequenceOwner struct {
	Table  QualifiedName
	Column Ident
}

// ColumnPosition places a column either first or immediately after another
// named column.
type ColumnPosition struct {
	First bool
	After *Ident
}

type Trigger struct {
	Name        QualifiedName
	Table       QualifiedName
	Timing      TriggerTiming
	Events      []TriggerEvent
	ForEach     TriggerForEach
	WhenClause  Expr
	Body        string
}

type TriggerTiming int

const (
	TriggerBefore TriggerTiming = iota
	TriggerAfter
	TriggerInsteadOf
)

type TriggerEvent int

const (
	TriggerEventInsert TriggerEvent = iota
	TriggerEventUpdate
	TriggerEventDelete
	TriggerEventTruncate
)

type TriggerForEach int

const (
	TriggerForEachRow TriggerForEach = iota
	TriggerForEachStatement
)

type Function struct {
	Name       QualifiedName
	Params     []FunctionParam
	ReturnType DataType
	Language   string
	Body       string
	Volatility *Volatility
	Security   *FunctionSecurity
}

type FunctionParam struct {
	Name     *Ident
	DataType DataType
	Mode     *FunctionParamMode
	Default  Expr
}

type FunctionParamMode int

const (
	FunctionParamIn FunctionParamMode = iota
	FunctionParamOut
	FunctionParamInOut
	FunctionParamVariadic
)

type Volatility int

const (
	VolatilityImmutable Volatility = iota
	VolatilityStable
	VolatilityVolatile
)

type FunctionSecurity int

const (
	FunctionSecurityDefiner FunctionSecurity = iota
	FunctionSecurityInvoker
)

type TypeDef struct {
	Name QualifiedName
	Kind TypeKind
}

// TypeKind is a closed set of user-defined type kinds: Enum, Composite,
// Range.
type TypeKind interface {
	isTypeKind()
}

type (
	TypeKindEnum struct{ Labels []string }
	TypeKindComposite struct {
		Fields []CompositeField
	}
	TypeKindRange struct{ Subtype DataType }
)

type CompositeField struct {
	Name Ident
	Type DataType
}

func (TypeKindEnum) isTypeKind()      {}
func (TypeKindComposite) isTypeKind() {}
func (TypeKindRange) isTypeKind()     {}

// EnumValuePosition places an added enum value either before or after an
// existing one.
type EnumValuePosition struct {
	Before *string
	After  *string
}

type Domain struct {
	Name     QualifiedName
	DataType DataType
	Default  Expr
	NotNull  bool
	Checks   []CheckConstraint
}

type Extension struct {
	Name    Ident
	Schema  *Ident
	Version *string
}

type SchemaDef struct {
	Name Ident
}

type Comment struct {
	Target CommentTarget
	Text   *string
}

type CommentTargetKind int

const (
	CommentTargetTable CommentTargetKind = iota
	CommentTargetColumn
	CommentTargetIndex
	CommentTargetView
	CommentTargetMaterializedView
	CommentTargetSequence
	CommentTargetTrigger
	CommentTargetFunction
	CommentTargetType
	CommentTargetDomain
	CommentTargetExtension
	CommentTargetSchema
)

// CommentTarget is a closed set of objects a COMMENT ON statement can name.
// Only
// Column carries both a table name and a column identifier; every other
// kind carries a single QualifiedName (or, for Extension/Schema, a bare
// Ident reused as Name with Schema left nil).
type CommentTarget struct {
	Kind   CommentTargetKind
	Name   QualifiedName
	Column Ident
}

type Privilege struct {
	Operations      []PrivilegeOp
	On              PrivilegeObjectRef
	Grantee         Ident
	WithGrantOption bool
}

func NewPrivilege(on PrivilegeObjectRef, grantee Ident) Privilege {
	return Privilege{On: on, Grantee: grantee}
}

type PrivilegeOp int

const (
	PrivilegeSelect PrivilegeOp = iota
	PrivilegeInsert
	PrivilegeUpdate
	PrivilegeDelete
	PrivilegeTruncate
	PrivilegeReferences
	PrivilegeTrigger
	PrivilegeUsage
	PrivilegeCreate
	PrivilegeConnect
	PrivilegeTemporary
	PrivilegeExecute
	PrivilegeAll
)

type PrivilegeObjectKind int

const (
	PrivilegeObjectTable PrivilegeObjectKind = iota
	PrivilegeObjectView
	PrivilegeObjectMaterializedView
	PrivilegeObjectSequence
	PrivilegeObjectSchema
	PrivilegeObjectDatabase
	PrivilegeObjectDomain
	PrivilegeObjectType
	PrivilegeObjectFunction
)

// PrivilegeObjectRef is a closed set of objects a GRANT/REVOKE can target.
// Schema/Database carry a bare Ident (stored in Name.Name with Schema nil).
type PrivilegeObjectRef struct {
	Kind PrivilegeObjectKind
	Name QualifiedName
}

type Policy struct {
	Name        Ident
	Table       QualifiedName
	Command     *PolicyCommand
	UsingExpr   Expr
	CheckExpr   Expr
	Roles       []Ident
	Permissive  bool
}

type PolicyCommand int

const (
	PolicyCommandAll PolicyCommand = iota
	PolicyCommandSelect
	PolicyCommandInsert
	PolicyCommandUpdate
	PolicyCommandDelete
)
