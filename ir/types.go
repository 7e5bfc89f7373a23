package ir

import "math"

// DataType is the closed family of column/parameter/return types the core
// understands. Dialects translate their native type syntax into this set
// (falling back to Custom for anything dialect-specific) and translate it
// back out when rendering SQL.
type DataType interface {
	isDataType()
}

type (
	BooleanType         struct{}
	SmallIntType        struct{}
	IntegerType         struct{}
	BigIntType          struct{}
	RealType            struct{}
	DoublePrecisionType struct{}
	TextType            struct{}
	BlobType            struct{}
	DateType            struct{}
	JSONType            struct{}
	JSONBType           struct{}
	UUIDType            struct{}
)

type NumericType struct {
	Precision *uint32
	Scale     *uint32
}

type VarcharType struct {
	Length *uint32
}

type CharType struct {
	Length *uint32
}

type TimeType struct {
	WithTimezone bool
}

type TimestampType struct {
	WithTimezone bool
}

type ArrayType struct {
	Elem DataType
}

type CustomType struct {
	Name string
}

func (BooleanType) isDataType()         {}
func (SmallIntType) isDataType()        {}
func (IntegerType) isDataType()         {}
func (BigIntType) isDataType()          {}
func (RealType) isDataType()            {}
func (DoublePrecisionType) isDataType() {}
func (NumericType) isDataType()         {}
func (TextType) isDataType()            {}
func (VarcharType) isDataType()         {}
func (CharType) isDataType()            {}
func (BlobType) isDataType()            {}
func (DateType) isDataType()            {}
func (TimeType) isDataType()            {}
func (TimestampType) isDataType()       {}
func (JSONType) isDataType()            {}
func (JSONBType) isDataType()           {}
func (UUIDType) isDataType()            {}
func (ArrayType) isDataType()           {}
func (CustomType) isDataType()          {}

// DataTypeEqual compares two DataTypes structurally. Go has no derived
// equality for interface-held structs with pointer fields, so this walks
// the closed type switch explicitly rather than relying on reflect.DeepEqual
// at every call site.
func DataTypeEqual(a, b DataType) bool {
	switch av := a.(type) {
	case BooleanType:
		_, ok := b.(BooleanType)
		return ok
	case SmallIntType:
		_, ok := b.(SmallIntType)
		return ok
	case IntegerType:
		_, ok := b.(IntegerType)
		return ok
	case BigIntType:
		_, ok := b.(BigIntType)
		return ok
	case RealType:
		_, ok := b.(RealType)
		return ok
	case DoublePrecisionType:
		_, ok := b.(DoublePrecisionType)
		return ok
	case TextType:
		_, ok := b.(TextType)
		return ok
	case BlobType:
		_, ok := b.(BlobType)
		return ok
	case DateType:
		_, ok := b.(DateType)
		return ok
	case JSONType:
		_, ok := b.(JSONType)
		return ok
	case JSONBType:
		_, ok := b.(JSONBType)
		return ok
	case UUIDType:
		_, ok := b.(UUIDType)
		return ok
	case NumericType:
		bv, ok := b.(NumericType)
		return ok && uint32PtrEqual(av.Precision, bv.Precision) && uint32PtrEqual(av.Scale, bv.Scale)
	case VarcharType:
		bv, ok := b.(VarcharType)
		return ok && uint32PtrEqual(av.Length, bv.Length)
	case CharType:
		bv, ok := b.(CharType)
		return ok && uint32PtrEqual(av.Length, bv.Length)
	case TimeType:
		bv, ok := b.(TimeType)
		return ok && av.WithTimezone == bv.WithTimezone
	case TimestampType:
		bv, ok := b.(TimestampType)
		return ok && av.WithTimezone == bv.WithTimezone
	case ArrayType:
		bv, ok := b.(ArrayType)
		return ok && DataTypeEqual(av.Elem, bv.Elem)
	case CustomType:
		bv, ok := b.(CustomType)
		return ok && av.Name == bv.Name
	default:
		panic("ir: unreachable DataType variant")
	}
}

func uint32PtrEqual(a, b *uint32) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Value is a literal scalar, used for default expressions and extra
// per-object metadata bags that do not warrant their own IR fields.
type Value interface {
	isValue()
}

type (
	StringValue struct{ Value string }
	IntegerValue struct{ Value int64 }
	FloatValue   struct{ Value float64 }
	BoolValue    struct{ Value bool }
	NullValue    struct{}
)

func (StringValue) isValue()  {}
func (IntegerValue) isValue() {}
func (FloatValue) isValue()   {}
func (BoolValue) isValue()    {}
func (NullValue) isValue()    {}

// FloatTotalCmp orders floats by total order (NaN included) rather than
// IEEE comparison, so Value equality is deterministic for diffing, via the
// standard sign-magnitude bit trick.
func FloatTotalCmp(left, right float64) int {
	lb := int64(math.Float64bits(left))
	rb := int64(math.Float64bits(right))
	if lb < 0 {
		lb ^= math.MaxInt64
	}
	if rb < 0 {
		rb ^= math.MaxInt64
	}
	switch {
	case lb < rb:
		return -1
	case lb > rb:
		return 1
	default:
		return 0
	}
}

// ValueTotalEqual is Value equality using FloatTotalCmp for the Float case,
// so NaN compares equal to itself instead of following IEEE semantics.
func ValueTotalEqual(left, right Value) bool {
	lf, lok := left.(FloatValue)
	rf, rok := right.(FloatValue)
	if lok && rok {
		return FloatTotalCmp(lf.Value, rf.Value) == 0
	}
	return valueShallowEqual(left, right)
}

func valueShallowEqual(left, right Value) bool {
	switch lv := left.(type) {
	case StringValue:
		rv, ok := right.(StringValue)
		return ok && lv.Value == rv.Value
	case IntegerValue:
		rv, ok := right.(IntegerValue)
		return ok && lv.Value == rv.Value
	case FloatValue:
		rv, ok := right.(FloatValue)
		return ok && lv.Value == rv.Value
	case BoolValue:
		rv, ok := right.(BoolValue)
		return ok && lv.Value == rv.Value
	case NullValue:
		_, ok := right.(NullValue)
		return ok
	default:
		panic("ir: unreachable Value variant")
	}
}
