package compiler

import (
	"fmt"
	"strings"
)

// TypeKind discriminates the closed set of type variants.
type TypeKind int

const (
	TypeVoidKind TypeKind = iota
	TypeBoolKind
	TypeCharKind
	TypeShortKind
	TypeIntKind
	TypeLongKind
	TypeFloatKind
	TypeDoubleKind
	TypePointerKind
	TypeArrayKind
	TypeStructKind
	TypeEnumKind
	TypeFunctionKind
)

// Type is the interface satisfied by every type variant. Sizes and
// alignments are fixed for a 64-bit target: bool=1, char=1, short=2,
// int=4, long=8, float=4, double=8, pointer=8. Types are shared
// immutable structural values; equality is structural, never identity.
type Type interface {
	Kind() TypeKind
	Size() int
	Alignment() int
	String() string
	IsEqual(other Type) bool
}

// alignUp rounds n up to the next multiple of align.
func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

//
// Basic types
//

// BasicType covers void and the built-in scalar types. Integer kinds
// additionally carry a signedness flag.
type BasicType struct {
	kind     TypeKind
	unsigned bool
}

var (
	TypeVoid   = &BasicType{kind: TypeVoidKind}
	TypeBool   = &BasicType{kind: TypeBoolKind}
	TypeChar   = &BasicType{kind: TypeCharKind}
	TypeShort  = &BasicType{kind: TypeShortKind}
	TypeInt    = &BasicType{kind: TypeIntKind}
	TypeLong   = &BasicType{kind: TypeLongKind}
	TypeFloat  = &BasicType{kind: TypeFloatKind}
	TypeDouble = &BasicType{kind: TypeDoubleKind}

	TypeUChar  = &BasicType{kind: TypeCharKind, unsigned: true}
	TypeUShort = &BasicType{kind: TypeShortKind, unsigned: true}
	TypeUInt   = &BasicType{kind: TypeIntKind, unsigned: true}
	TypeULong  = &BasicType{kind: TypeLongKind, unsigned: true}
)

func (t *BasicType) Kind() TypeKind { return t.kind }

func (t *BasicType) Size() int {
	switch t.kind {
	case TypeVoidKind:
		return 0
	case TypeBoolKind, TypeCharKind:
		return 1
	case TypeShortKind:
		return 2
	case TypeIntKind, TypeFloatKind:
		return 4
	case TypeLongKind, TypeDoubleKind:
		return 8
	}
	return 0
}

func (t *BasicType) Alignment() int { return t.Size() }

func (t *BasicType) String() string {
	var name string
	switch t.kind {
	case TypeVoidKind:
		name = "void"
	case TypeBoolKind:
		name = "bool"
	case TypeCharKind:
		name = "char"
	case TypeShortKind:
		name = "short"
	case TypeIntKind:
		name = "int"
	case TypeLongKind:
		name = "long"
	case TypeFloatKind:
		name = "float"
	case TypeDoubleKind:
		name = "double"
	}
	if t.unsigned {
		return "unsigned " + name
	}
	return name
}

func (t *BasicType) IsEqual(other Type) bool {
	o, ok := other.(*BasicType)
	return ok && o.kind == t.kind && o.unsigned == t.unsigned
}

// Unsigned reports whether this is an unsigned integer type.
func (t *BasicType) Unsigned() bool { return t.unsigned }

//
// Pointer types
//

type PointerType struct {
	Pointee Type
}

func NewPointerType(pointee Type) *PointerType { return &PointerType{Pointee: pointee} }

func (t *PointerType) Kind() TypeKind { return TypePointerKind }
func (t *PointerType) Size() int      { return 8 }
func (t *PointerType) Alignment() int { return 8 }
func (t *PointerType) String() string { return t.Pointee.String() + "*" }

func (t *PointerType) IsEqual(other Type) bool {
	o, ok := other.(*PointerType)
	return ok && t.Pointee.IsEqual(o.Pointee)
}

//
// Array types
//

// ArrayType is a fixed-size or unsized array. Unsized arrays report
// size 0; a sized and an unsized array of the same element type are
// not equal.
type ArrayType struct {
	Elem  Type
	Count int
	Sized bool
}

func NewArrayType(elem Type, count int) *ArrayType {
	return &ArrayType{Elem: elem, Count: count, Sized: true}
}

func NewUnsizedArrayType(elem Type) *ArrayType {
	return &ArrayType{Elem: elem}
}

func (t *ArrayType) Kind() TypeKind { return TypeArrayKind }

func (t *ArrayType) Size() int {
	if !t.Sized {
		return 0
	}
	return t.Elem.Size() * t.Count
}

func (t *ArrayType) Alignment() int { return t.Elem.Alignment() }

func (t *ArrayType) String() string {
	if !t.Sized {
		return t.Elem.String() + "[]"
	}
	return fmt.Sprintf("%s[%d]", t.Elem, t.Count)
}

func (t *ArrayType) IsEqual(other Type) bool {
	o, ok := other.(*ArrayType)
	if !ok || !t.Elem.IsEqual(o.Elem) {
		return false
	}
	if t.Sized != o.Sized {
		return false
	}
	return !t.Sized || t.Count == o.Count
}

//
// Struct types
//

type StructField struct {
	Name string
	Type Type
}

// StructType is incomplete until SetComplete runs; before that,
// size, alignment, and field offsets all report 0.
type StructType struct {
	name     string
	fields   []StructField
	offsets  []int
	size     int
	align    int
	complete bool
}

func NewStructType(name string) *StructType { return &StructType{name: name} }

func (t *StructType) Kind() TypeKind   { return TypeStructKind }
func (t *StructType) Name() string     { return t.name }
func (t *StructType) IsComplete() bool { return t.complete }

func (t *StructType) Fields() []StructField { return t.fields }

// SetComplete installs the field list and freezes the layout. Each
// field's offset is the running offset rounded up to the field's
// alignment; struct alignment is the max field alignment; the final
// size is rounded up to a multiple of the struct alignment.
func (t *StructType) SetComplete(fields []StructField) {
	t.fields = fields
	t.offsets = make([]int, len(fields))
	offset := 0
	maxAlign := 0
	for i, f := range fields {
		a := f.Type.Alignment()
		if a > maxAlign {
			maxAlign = a
		}
		offset = alignUp(offset, a)
		t.offsets[i] = offset
		offset += f.Type.Size()
	}
	t.align = maxAlign
	t.size = alignUp(offset, maxAlign)
	t.complete = true
}

func (t *StructType) Size() int {
	if !t.complete {
		return 0
	}
	return t.size
}

func (t *StructType) Alignment() int {
	if !t.complete {
		return 0
	}
	return t.align
}

// FieldIndex returns the declaration index of the named field, or -1.
func (t *StructType) FieldIndex(name string) int {
	for i, f := range t.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// FieldOffset returns the byte offset of field i, or 0 when the
// struct is still incomplete.
func (t *StructType) FieldOffset(i int) int {
	if !t.complete || i < 0 || i >= len(t.offsets) {
		return 0
	}
	return t.offsets[i]
}

func (t *StructType) String() string { return "struct " + t.name }

func (t *StructType) IsEqual(other Type) bool {
	o, ok := other.(*StructType)
	if !ok || t.name != o.name {
		return false
	}
	// Incomplete structs compare by name only.
	if !t.complete || !o.complete {
		return true
	}
	if len(t.fields) != len(o.fields) {
		return false
	}
	for i := range t.fields {
		if t.fields[i].Name != o.fields[i].Name ||
			!t.fields[i].Type.IsEqual(o.fields[i].Type) {
			return false
		}
	}
	return true
}

//
// Enum types
//

type EnumValue struct {
	Name  string
	Value int64
}

// EnumType carries its base integer type and the ordered member list.
type EnumType struct {
	name   string
	base   Type
	values []EnumValue
}

func NewEnumType(name string, base Type) *EnumType {
	return &EnumType{name: name, base: base}
}

func (t *EnumType) Kind() TypeKind      { return TypeEnumKind }
func (t *EnumType) Name() string        { return t.name }
func (t *EnumType) Base() Type          { return t.base }
func (t *EnumType) Values() []EnumValue { return t.values }

func (t *EnumType) SetValues(values []EnumValue) { t.values = values }

// Lookup returns the value of the named member.
func (t *EnumType) Lookup(name string) (int64, bool) {
	for _, v := range t.values {
		if v.Name == name {
			return v.Value, true
		}
	}
	return 0, false
}

func (t *EnumType) Size() int      { return t.base.Size() }
func (t *EnumType) Alignment() int { return t.base.Alignment() }
func (t *EnumType) String() string { return "enum " + t.name }

func (t *EnumType) IsEqual(other Type) bool {
	o, ok := other.(*EnumType)
	if !ok || t.name != o.name || !t.base.IsEqual(o.base) {
		return false
	}
	if len(t.values) != len(o.values) {
		return false
	}
	for i := range t.values {
		if t.values[i] != o.values[i] {
			return false
		}
	}
	return true
}

//
// Function types
//

type FunctionType struct {
	Return   Type
	Params   []Type
	Variadic bool
}

func NewFunctionType(ret Type, params []Type, variadic bool) *FunctionType {
	return &FunctionType{Return: ret, Params: params, Variadic: variadic}
}

func (t *FunctionType) Kind() TypeKind { return TypeFunctionKind }
func (t *FunctionType) Size() int      { return 0 }
func (t *FunctionType) Alignment() int { return 0 }

func (t *FunctionType) String() string {
	var sb strings.Builder
	sb.WriteString(t.Return.String())
	sb.WriteString("(")
	for i, p := range t.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	if t.Variadic {
		if len(t.Params) > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("...")
	}
	sb.WriteString(")")
	return sb.String()
}

func (t *FunctionType) IsEqual(other Type) bool {
	o, ok := other.(*FunctionType)
	if !ok || !t.Return.IsEqual(o.Return) || t.Variadic != o.Variadic {
		return false
	}
	if len(t.Params) != len(o.Params) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].IsEqual(o.Params[i]) {
			return false
		}
	}
	return true
}

//
// Classification helpers shared by sema and codegen
//

// IsInteger reports whether t is an integer-kind type (bool and enum
// included: both lower to integers and participate in integer
// compatibility).
func IsInteger(t Type) bool {
	switch t.Kind() {
	case TypeBoolKind, TypeCharKind, TypeShortKind, TypeIntKind, TypeLongKind, TypeEnumKind:
		return true
	}
	return false
}

// IsFloat reports whether t is float or double.
func IsFloat(t Type) bool {
	k := t.Kind()
	return k == TypeFloatKind || k == TypeDoubleKind
}

// IsNumeric reports whether t is an integer or floating type.
func IsNumeric(t Type) bool { return IsInteger(t) || IsFloat(t) }

// IsUnsigned reports whether t is an unsigned integer type.
func IsUnsigned(t Type) bool {
	b, ok := t.(*BasicType)
	return ok && b.unsigned
}

// IsPointer reports whether t is a pointer type.
func IsPointer(t Type) bool { return t.Kind() == TypePointerKind }

// IsScalar reports whether t can be boolean-converted: numeric kinds
// (bool and enum included) and pointers.
func IsScalar(t Type) bool { return IsNumeric(t) || IsPointer(t) }

// IsVoidPointer reports whether t is void*.
func IsVoidPointer(t Type) bool {
	p, ok := t.(*PointerType)
	return ok && p.Pointee.Kind() == TypeVoidKind
}

// integerRank orders integer kinds for common-type promotion:
// long > int > short > char.
func integerRank(t Type) int {
	switch t.Kind() {
	case TypeLongKind:
		return 4
	case TypeIntKind, TypeEnumKind:
		return 3
	case TypeShortKind:
		return 2
	case TypeCharKind, TypeBoolKind:
		return 1
	}
	return 0
}
