// Package domain: the Lumen type system and its operator matrix.
package domain

import (
	"fmt"
)

// Type is any Lumen type: a lowering target with a name, an equality
// relation and a size in bytes (the IR builder does not use the size).
type Type interface {
	String() string
	Equals(other Type) bool
	GetSize() int
}

// BasicTypeKind enumerates the primitive (non-aggregate) types.
type BasicTypeKind int

const (
	IntKind BasicTypeKind = iota
	FloatKind
	BoolKind
	ByteKind
	StrKind
	NullKind
)

// BasicType is int, float, bool, byte, str or null.
type BasicType struct {
	Kind BasicTypeKind
}

func (bt *BasicType) String() string {
	switch bt.Kind {
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case BoolKind:
		return "bool"
	case ByteKind:
		return "byte"
	case StrKind:
		return "str"
	case NullKind:
		return "null"
	default:
		return "unknown"
	}
}

func (bt *BasicType) Equals(other Type) bool {
	if o, ok := other.(*BasicType); ok {
		return bt.Kind == o.Kind
	}
	return false
}

func (bt *BasicType) GetSize() int {
	switch bt.Kind {
	case IntKind:
		return 4
	case FloatKind:
		return 8
	case BoolKind:
		return 1
	case ByteKind:
		return 1
	case StrKind:
		return 8 // pointer
	case NullKind:
		return 0
	default:
		return 0
	}
}

// ListType is Lumen's built-in parametric `list<T>`: a pointer to
// contiguous T with the length carried by the aggregate alloca, not the
// type itself.
type ListType struct {
	Element Type
}

func (lt *ListType) String() string { return fmt.Sprintf("list:%s", lt.Element.String()) }

func (lt *ListType) Equals(other Type) bool {
	o, ok := other.(*ListType)
	return ok && lt.Element.Equals(o.Element)
}

func (lt *ListType) GetSize() int { return 8 } // pointer to first element

// StructType is a user-defined aggregate: name plus an ordered field list.
type StructType struct {
	Name   string
	Fields map[string]Type
	Order  []string
}

func (st *StructType) String() string { return st.Name }

func (st *StructType) Equals(other Type) bool {
	o, ok := other.(*StructType)
	return ok && st.Name == o.Name
}

func (st *StructType) GetSize() int {
	size := 0
	for _, name := range st.Order {
		size += st.Fields[name].GetSize()
	}
	return size
}

func (st *StructType) GetField(name string) (Type, int, bool) {
	t, ok := st.Fields[name]
	if !ok {
		return nil, -1, false
	}
	for i, n := range st.Order {
		if n == name {
			return t, i, true
		}
	}
	return nil, -1, false
}

// FunctionType is a declared function's signature: arity, parameter
// types and return type.
type FunctionType struct {
	ParameterTypes []Type
	ReturnType     Type
}

func (ft *FunctionType) String() string {
	s := "fun("
	for i, p := range ft.ParameterTypes {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return s + ") -> " + ft.ReturnType.String()
}

func (ft *FunctionType) Equals(other Type) bool {
	o, ok := other.(*FunctionType)
	if !ok || len(ft.ParameterTypes) != len(o.ParameterTypes) {
		return false
	}
	for i := range ft.ParameterTypes {
		if !ft.ParameterTypes[i].Equals(o.ParameterTypes[i]) {
			return false
		}
	}
	return ft.ReturnType.Equals(o.ReturnType)
}

func (ft *FunctionType) GetSize() int { return 8 }

// TypeRegistry resolves type-annotation names (including nested
// `list:list:int`-style flattened names) and records user struct types.
type TypeRegistry interface {
	GetBuiltin(name string) (Type, bool)
	DeclareStruct(name string, fields []StructField) (*StructType, error)
	GetStruct(name string) (*StructType, bool)
	ResolveTypeName(name string) (Type, bool)
}

type StructField struct {
	Name string
	Type Type
}

type DefaultTypeRegistry struct {
	builtins map[string]Type
	structs  map[string]*StructType
}

func NewDefaultTypeRegistry() *DefaultTypeRegistry {
	r := &DefaultTypeRegistry{
		builtins: map[string]Type{
			"int":   &BasicType{Kind: IntKind},
			"float": &BasicType{Kind: FloatKind},
			"bool":  &BasicType{Kind: BoolKind},
			"byte":  &BasicType{Kind: ByteKind},
			"str":   &BasicType{Kind: StrKind},
			"null":  &BasicType{Kind: NullKind},
		},
		structs: make(map[string]*StructType),
	}
	return r
}

func (r *DefaultTypeRegistry) GetBuiltin(name string) (Type, bool) {
	t, ok := r.builtins[name]
	return t, ok
}

func (r *DefaultTypeRegistry) DeclareStruct(name string, fields []StructField) (*StructType, error) {
	if _, exists := r.structs[name]; exists {
		return nil, fmt.Errorf("struct %q already declared", name)
	}
	st := &StructType{Name: name, Fields: make(map[string]Type), Order: make([]string, 0, len(fields))}
	for _, f := range fields {
		if _, dup := st.Fields[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q in struct %q", f.Name, name)
		}
		st.Fields[f.Name] = f.Type
		st.Order = append(st.Order, f.Name)
	}
	r.structs[name] = st
	return st, nil
}

func (r *DefaultTypeRegistry) GetStruct(name string) (*StructType, bool) {
	st, ok := r.structs[name]
	return st, ok
}

// ResolveTypeName resolves a parser-flattened type name such as `int`,
// `str`, a struct name, or `list:list:int` into a Type, recursing on the
// `list:` prefix per spec.md §4.2.
func (r *DefaultTypeRegistry) ResolveTypeName(name string) (Type, bool) {
	const listPrefix = "list:"
	if len(name) > len(listPrefix) && name[:len(listPrefix)] == listPrefix {
		elem, ok := r.ResolveTypeName(name[len(listPrefix):])
		if !ok {
			return nil, false
		}
		return &ListType{Element: elem}, true
	}
	if t, ok := r.builtins[name]; ok {
		return t, true
	}
	if st, ok := r.structs[name]; ok {
		return st, true
	}
	return nil, false
}

// IsNumeric reports whether t is int, float or byte — the set of types
// spec.md §4.5 allows as a for-loop induction bound (byte and int are
// both compared with signed `<`).
func IsNumeric(t Type) bool {
	b, ok := t.(*BasicType)
	return ok && (b.Kind == IntKind || b.Kind == FloatKind || b.Kind == ByteKind)
}

func isInt(t Type) bool {
	b, ok := t.(*BasicType)
	return ok && b.Kind == IntKind
}

func isFloat(t Type) bool {
	b, ok := t.(*BasicType)
	return ok && b.Kind == FloatKind
}

func isBool(t Type) bool {
	b, ok := t.(*BasicType)
	return ok && b.Kind == BoolKind
}


func IsStr(t Type) bool {
	b, ok := t.(*BasicType)
	return ok && b.Kind == StrKind
}

func AsList(t Type) (*ListType, bool) {
	l, ok := t.(*ListType)
	return l, ok
}

// BinaryOperatorResult applies spec.md §4.4's operator matrix to a
// concrete left/right type pair, returning the result type widening
// mixed int/float operands to float. ok is false when the pair is not in
// the matrix.
func BinaryOperatorResult(op BinaryOperator, left, right Type) (Type, bool) {
	switch op {
	case OpAdd:
		switch {
		case isInt(left) && isInt(right):
			return left, true
		case isFloat(left) && isFloat(right):
			return left, true
		case (isInt(left) && isFloat(right)) || (isFloat(left) && isInt(right)):
			return &BasicType{Kind: FloatKind}, true
		case IsStr(left) && IsStr(right):
			return left, true
		case isListT(left) && isListT(right) && left.Equals(right):
			return left, true
		}
		return nil, false
	case OpSub, OpMul, OpDiv, OpMod, OpPow:
		switch {
		case isInt(left) && isInt(right):
			return left, true
		case isFloat(left) && isFloat(right):
			return left, true
		case (isInt(left) && isFloat(right)) || (isFloat(left) && isInt(right)):
			return &BasicType{Kind: FloatKind}, true
		}
		return nil, false
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		if left.Equals(right) {
			return &BasicType{Kind: BoolKind}, true
		}
		return nil, false
	case OpAnd, OpOr, OpXor:
		if (isBool(left) && isBool(right)) || (isInt(left) && isInt(right)) {
			return left, true
		}
		return nil, false
	case OpGet:
		if list, ok := AsList(left); ok && isInt(right) {
			return list.Element, true
		}
		if IsStr(left) && isInt(right) {
			return &BasicType{Kind: ByteKind}, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func isListT(t Type) bool {
	_, ok := t.(*ListType)
	return ok
}

// UnaryOperatorResult applies spec.md §4.4's unary rows.
func UnaryOperatorResult(op UnaryOperator, operand Type) (Type, bool) {
	switch op {
	case UnaryNot:
		if isBool(operand) || isInt(operand) {
			return operand, true
		}
		return nil, false
	case UnaryPlus, UnaryNeg:
		if IsNumeric(operand) {
			return operand, true
		}
		return nil, false
	default:
		return nil, false
	}
}
