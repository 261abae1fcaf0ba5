// Package infrastructure holds concrete implementations of the
// collaborators spec.md declares out of scope for the core: the IR
// module builder API and the diagnostic sink, plus supporting
// bookkeeping (the entry-block allocator, memory stats).
package infrastructure

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/lumenlang/lumenc/internal/interfaces"
)

// mockType is a textual stand-in for an LLVM type; pointer/array/struct
// composition is tracked so GEP and bitcast lowering can inspect
// pointee shapes without a real backend. fields is set only for named
// struct types, parallel to the field order passed to SetStructBody.
type mockType struct {
	name    string
	pointer bool
	elem    *mockType
	fields  []*mockType
}

func (t *mockType) String() string  { return t.name }
func (t *mockType) IsPointer() bool { return t.pointer }
func (t *mockType) ElementType() interfaces.LLVMType {
	if t.elem == nil {
		return nil
	}
	return t.elem
}

func basic(name string) *mockType { return &mockType{name: name} }

func ptrTo(e *mockType) *mockType {
	return &mockType{name: e.name + "*", pointer: true, elem: e}
}

func arrayOf(e *mockType, n int) *mockType {
	return &mockType{name: fmt.Sprintf("[%d x %s]", n, e.name), elem: e}
}

// mockValue records a value's textual name and type; it stands in for an
// SSA register, constant or global.
type mockValue struct {
	ref string
	typ *mockType
}

func (v *mockValue) String() string           { return v.ref }
func (v *mockValue) Type() interfaces.LLVMType { return v.typ }

// mockBlock is a basic block accumulating an instruction log; terminated
// flips true the moment a terminator (br, cbr, ret, ret void) is
// emitted. This is the mechanism the IR builder uses to decide whether a
// function, loop or branch needs a synthesized terminator, replacing the
// fragile "scan the emitted text for `ret`" heuristic older textual
// generators resort to.
type mockBlock struct {
	name         string
	instructions []string
	terminated   bool
}

func (b *mockBlock) Name() string       { return b.name }
func (b *mockBlock) IsTerminated() bool { return b.terminated }

type mockFunction struct {
	name   string
	params []interfaces.LLVMValue
	blocks []*mockBlock
	retType *mockType
}

func (f *mockFunction) Name() string                   { return f.name }
func (f *mockFunction) Params() []interfaces.LLVMValue { return f.params }
func (f *mockFunction) AppendBasicBlock(name string) interfaces.LLVMBasicBlock {
	b := &mockBlock{name: fmt.Sprintf("%s%d", name, len(f.blocks))}
	f.blocks = append(f.blocks, b)
	return b
}

// MockLLVMModule is the in-process stand-in for the LLVM-style backend
// library's module type. It records every declared global/function and
// renders a deterministic textual IR dump, good enough to exercise the
// `-d ir` CLI flag (spec.md §6) without linking against a real backend.
type MockLLVMModule struct {
	mu        sync.Mutex
	name      string
	functions map[string]*mockFunction
	order     []string
	globals   []string
	structs   map[string]*mockType
}

func NewMockLLVMModule(name string) *MockLLVMModule {
	return &MockLLVMModule{
		name:      name,
		functions: make(map[string]*mockFunction),
		structs:   make(map[string]*mockType),
	}
}

func (m *MockLLVMModule) Name() string { return m.name }

func (m *MockLLVMModule) DeclareFunction(name string, paramTypes []interfaces.LLVMType, retType interfaces.LLVMType, variadic bool) (interfaces.LLVMFunction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.functions[name]; exists {
		return nil, fmt.Errorf("function %q already declared", name)
	}
	var params []interfaces.LLVMValue
	for i, pt := range paramTypes {
		params = append(params, &mockValue{ref: fmt.Sprintf("%%arg%d", i), typ: pt.(*mockType)})
	}
	fn := &mockFunction{name: name, params: params, retType: retType.(*mockType)}
	m.functions[name] = fn
	m.order = append(m.order, name)
	variadicMark := ""
	if variadic {
		variadicMark = ", ..."
	}
	m.globals = append(m.globals, fmt.Sprintf("declare %s @%s(%s%s)", retType.String(), name, joinTypes(paramTypes), variadicMark))
	return fn, nil
}

func joinTypes(ts []interfaces.LLVMType) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func (m *MockLLVMModule) GetFunction(name string) (interfaces.LLVMFunction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn, ok := m.functions[name]
	return fn, ok
}

func (m *MockLLVMModule) DeclareGlobalString(name string, bytes []byte) interfaces.LLVMValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := arrayOf(basic("i8"), len(bytes))
	m.globals = append(m.globals, fmt.Sprintf("@%s = internal constant %s c%q", name, t.String(), string(bytes)))
	return &mockValue{ref: "@" + name, typ: ptrTo(t)}
}

func (m *MockLLVMModule) DeclareGlobalBool(name string, value bool) interfaces.LLVMValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.globals = append(m.globals, fmt.Sprintf("@%s = internal constant i1 %v", name, value))
	return &mockValue{ref: "@" + name, typ: ptrTo(basic("i1"))}
}

func (m *MockLLVMModule) DeclareNamedStruct(name string) interfaces.LLVMType {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &mockType{name: "%" + name}
	m.structs[name] = t
	return t
}

func (m *MockLLVMModule) SetStructBody(t interfaces.LLVMType, fields []interfaces.LLVMType) {
	names := make([]string, len(fields))
	mts := make([]*mockType, len(fields))
	for i, f := range fields {
		names[i] = f.String()
		mts[i] = f.(*mockType)
	}
	mt := t.(*mockType)
	mt.fields = mts
	m.mu.Lock()
	m.globals = append(m.globals, fmt.Sprintf("%s = type { %s }", mt.name, strings.Join(names, ", ")))
	m.mu.Unlock()
}

func (m *MockLLVMModule) GetNamedStruct(name string) (interfaces.LLVMType, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.structs[name]
	return t, ok
}

func (m *MockLLVMModule) IntType() interfaces.LLVMType   { return basic("i32") }
func (m *MockLLVMModule) FloatType() interfaces.LLVMType { return basic("double") }
func (m *MockLLVMModule) BoolType() interfaces.LLVMType  { return basic("i1") }
func (m *MockLLVMModule) ByteType() interfaces.LLVMType  { return basic("i8") }
func (m *MockLLVMModule) VoidType() interfaces.LLVMType  { return basic("void") }

func (m *MockLLVMModule) PointerType(elem interfaces.LLVMType) interfaces.LLVMType {
	return ptrTo(elem.(*mockType))
}

func (m *MockLLVMModule) ArrayType(elem interfaces.LLVMType, count int) interfaces.LLVMType {
	return arrayOf(elem.(*mockType), count)
}

func (m *MockLLVMModule) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "; module %s\n", m.name)
	for _, g := range m.globals {
		b.WriteString(g)
		b.WriteByte('\n')
	}
	for _, name := range m.order {
		fn := m.functions[name]
		for _, blk := range fn.blocks {
			fmt.Fprintf(&b, "%s:\n", blk.name)
			for _, in := range blk.instructions {
				fmt.Fprintf(&b, "  %s\n", in)
			}
		}
	}
	return b.String()
}

// MockLLVMBuilder emits instructions into whichever block it is
// positioned at, recording a textual opcode line into that block's log
// and flipping its terminated flag on control-flow-terminating ops.
type MockLLVMBuilder struct {
	block   *mockBlock
	counter *int
}

func NewMockLLVMBuilder() *MockLLVMBuilder {
	c := 0
	return &MockLLVMBuilder{counter: &c}
}

func (b *MockLLVMBuilder) PositionAtEnd(block interfaces.LLVMBasicBlock) {
	b.block = block.(*mockBlock)
}

func (b *MockLLVMBuilder) PositionAfter(block interfaces.LLVMBasicBlock, _ interfaces.LLVMValue) {
	b.block = block.(*mockBlock)
}

func (b *MockLLVMBuilder) CurrentBlock() interfaces.LLVMBasicBlock { return b.block }

func (b *MockLLVMBuilder) next(prefix string) string {
	*b.counter++
	return fmt.Sprintf("%%%s%d", prefix, *b.counter)
}

func (b *MockLLVMBuilder) emit(line string) {
	b.block.instructions = append(b.block.instructions, line)
}

func (b *MockLLVMBuilder) CreateAlloca(t interfaces.LLVMType, name string) interfaces.LLVMValue {
	ref := b.next(name)
	b.emit(fmt.Sprintf("%s = alloca %s", ref, t.String()))
	return &mockValue{ref: ref, typ: ptrTo(t.(*mockType))}
}

func (b *MockLLVMBuilder) CreateStore(value, ptr interfaces.LLVMValue) {
	b.emit(fmt.Sprintf("store %s %s, %s %s", value.Type().String(), value.String(), ptr.Type().String(), ptr.String()))
}

func (b *MockLLVMBuilder) CreateLoad(ptr interfaces.LLVMValue, name string) interfaces.LLVMValue {
	ref := b.next(name)
	pt := ptr.Type().(*mockType)
	elem := pt.elem
	b.emit(fmt.Sprintf("%s = load %s, %s %s", ref, elem.String(), pt.String(), ptr.String()))
	return &mockValue{ref: ref, typ: elem}
}

func (b *MockLLVMBuilder) binOp(op string, l, r interfaces.LLVMValue, name string) interfaces.LLVMValue {
	ref := b.next(name)
	b.emit(fmt.Sprintf("%s = %s %s %s, %s", ref, op, l.Type().String(), l.String(), r.String()))
	return &mockValue{ref: ref, typ: l.Type().(*mockType)}
}

func (b *MockLLVMBuilder) CreateAdd(l, r interfaces.LLVMValue, name string) interfaces.LLVMValue {
	return b.binOp("add", l, r, name)
}
func (b *MockLLVMBuilder) CreateSub(l, r interfaces.LLVMValue, name string) interfaces.LLVMValue {
	return b.binOp("sub", l, r, name)
}
func (b *MockLLVMBuilder) CreateMul(l, r interfaces.LLVMValue, name string) interfaces.LLVMValue {
	return b.binOp("mul", l, r, name)
}
func (b *MockLLVMBuilder) CreateSDiv(l, r interfaces.LLVMValue, name string) interfaces.LLVMValue {
	return b.binOp("sdiv", l, r, name)
}
func (b *MockLLVMBuilder) CreateSRem(l, r interfaces.LLVMValue, name string) interfaces.LLVMValue {
	return b.binOp("srem", l, r, name)
}

func (b *MockLLVMBuilder) CreateFAdd(l, r interfaces.LLVMValue, name string) interfaces.LLVMValue {
	return b.binOp("fadd", l, r, name)
}
func (b *MockLLVMBuilder) CreateFSub(l, r interfaces.LLVMValue, name string) interfaces.LLVMValue {
	return b.binOp("fsub", l, r, name)
}
func (b *MockLLVMBuilder) CreateFMul(l, r interfaces.LLVMValue, name string) interfaces.LLVMValue {
	return b.binOp("fmul", l, r, name)
}
func (b *MockLLVMBuilder) CreateFDiv(l, r interfaces.LLVMValue, name string) interfaces.LLVMValue {
	return b.binOp("fdiv", l, r, name)
}
func (b *MockLLVMBuilder) CreateFRem(l, r interfaces.LLVMValue, name string) interfaces.LLVMValue {
	return b.binOp("frem", l, r, name)
}

func (b *MockLLVMBuilder) CreateAnd(l, r interfaces.LLVMValue, name string) interfaces.LLVMValue {
	return b.binOp("and", l, r, name)
}
func (b *MockLLVMBuilder) CreateOr(l, r interfaces.LLVMValue, name string) interfaces.LLVMValue {
	return b.binOp("or", l, r, name)
}
func (b *MockLLVMBuilder) CreateXor(l, r interfaces.LLVMValue, name string) interfaces.LLVMValue {
	return b.binOp("xor", l, r, name)
}

func (b *MockLLVMBuilder) CreateNeg(v interfaces.LLVMValue, name string) interfaces.LLVMValue {
	ref := b.next(name)
	b.emit(fmt.Sprintf("%s = sub %s 0, %s", ref, v.Type().String(), v.String()))
	return &mockValue{ref: ref, typ: v.Type().(*mockType)}
}

func (b *MockLLVMBuilder) CreateNot(v interfaces.LLVMValue, name string) interfaces.LLVMValue {
	ref := b.next(name)
	b.emit(fmt.Sprintf("%s = xor %s %s, -1", ref, v.Type().String(), v.String()))
	return &mockValue{ref: ref, typ: v.Type().(*mockType)}
}

func (b *MockLLVMBuilder) CreateICmp(pred interfaces.IntPredicate, l, r interfaces.LLVMValue, name string) interfaces.LLVMValue {
	ref := b.next(name)
	b.emit(fmt.Sprintf("%s = icmp %s %s %s, %s", ref, pred, l.Type().String(), l.String(), r.String()))
	return &mockValue{ref: ref, typ: basic("i1")}
}

func (b *MockLLVMBuilder) CreateFCmp(pred interfaces.FloatPredicate, l, r interfaces.LLVMValue, name string) interfaces.LLVMValue {
	ref := b.next(name)
	b.emit(fmt.Sprintf("%s = fcmp %s %s %s, %s", ref, pred, l.Type().String(), l.String(), r.String()))
	return &mockValue{ref: ref, typ: basic("i1")}
}

func (b *MockLLVMBuilder) CreateSIToFP(v interfaces.LLVMValue, t interfaces.LLVMType, name string) interfaces.LLVMValue {
	ref := b.next(name)
	b.emit(fmt.Sprintf("%s = sitofp %s %s to %s", ref, v.Type().String(), v.String(), t.String()))
	return &mockValue{ref: ref, typ: t.(*mockType)}
}

func (b *MockLLVMBuilder) CreateBitCast(v interfaces.LLVMValue, t interfaces.LLVMType, name string) interfaces.LLVMValue {
	ref := b.next(name)
	b.emit(fmt.Sprintf("%s = bitcast %s %s to %s", ref, v.Type().String(), v.String(), t.String()))
	return &mockValue{ref: ref, typ: t.(*mockType)}
}

func (b *MockLLVMBuilder) CreateZExt(v interfaces.LLVMValue, t interfaces.LLVMType, name string) interfaces.LLVMValue {
	ref := b.next(name)
	b.emit(fmt.Sprintf("%s = zext %s %s to %s", ref, v.Type().String(), v.String(), t.String()))
	return &mockValue{ref: ref, typ: t.(*mockType)}
}

func (b *MockLLVMBuilder) CreateBr(dest interfaces.LLVMBasicBlock) {
	db := dest.(*mockBlock)
	b.emit(fmt.Sprintf("br label %%%s", db.name))
	b.block.terminated = true
}

func (b *MockLLVMBuilder) CreateCondBr(cond interfaces.LLVMValue, then, els interfaces.LLVMBasicBlock) {
	b.emit(fmt.Sprintf("br i1 %s, label %%%s, label %%%s", cond.String(), then.(*mockBlock).name, els.(*mockBlock).name))
	b.block.terminated = true
}

func (b *MockLLVMBuilder) CreateRet(v interfaces.LLVMValue) {
	b.emit(fmt.Sprintf("ret %s %s", v.Type().String(), v.String()))
	b.block.terminated = true
}

func (b *MockLLVMBuilder) CreateRetVoid() {
	b.emit("ret void")
	b.block.terminated = true
}

func (b *MockLLVMBuilder) CreateCall(fn interfaces.LLVMFunction, args []interfaces.LLVMValue, name string) interfaces.LLVMValue {
	ref := b.next(name)
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%s %s", a.Type().String(), a.String())
	}
	b.emit(fmt.Sprintf("%s = call @%s(%s)", ref, fn.Name(), strings.Join(parts, ", ")))
	mf := fn.(*mockFunction)
	return &mockValue{ref: ref, typ: mf.retType}
}

func (b *MockLLVMBuilder) CreateGEP(ptr interfaces.LLVMValue, indices []interfaces.LLVMValue, name string) interfaces.LLVMValue {
	ref := b.next(name)
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = idx.String()
	}
	pt := ptr.Type().(*mockType)
	resultElem := pt.elem
	if resultElem != nil && len(indices) > 1 {
		if resultElem.fields != nil {
			if fieldIdx, err := strconv.Atoi(indices[1].String()); err == nil && fieldIdx >= 0 && fieldIdx < len(resultElem.fields) {
				resultElem = resultElem.fields[fieldIdx]
			}
		} else if resultElem.elem != nil {
			resultElem = resultElem.elem
		}
	}
	b.emit(fmt.Sprintf("%s = getelementptr %s, %s %s, %s", ref, pt.elem.String(), pt.String(), ptr.String(), strings.Join(parts, ", ")))
	return &mockValue{ref: ref, typ: ptrTo(resultElem)}
}

func (b *MockLLVMBuilder) CreateCallIntrinsic(name string, argTypes []interfaces.LLVMType, args []interfaces.LLVMValue, retType interfaces.LLVMType, callName string) interfaces.LLVMValue {
	ref := b.next(callName)
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	b.emit(fmt.Sprintf("%s = call %s @%s(%s)", ref, retType.String(), name, strings.Join(parts, ", ")))
	return &mockValue{ref: ref, typ: retType.(*mockType)}
}

func (b *MockLLVMBuilder) ConstInt(v int64) interfaces.LLVMValue {
	return &mockValue{ref: fmt.Sprintf("%d", v), typ: basic("i32")}
}

func (b *MockLLVMBuilder) ConstFloat(v float64) interfaces.LLVMValue {
	return &mockValue{ref: fmt.Sprintf("%g", v), typ: basic("double")}
}

func (b *MockLLVMBuilder) ConstBool(v bool) interfaces.LLVMValue {
	i := 0
	if v {
		i = 1
	}
	return &mockValue{ref: fmt.Sprintf("%d", i), typ: basic("i1")}
}

func (b *MockLLVMBuilder) ConstByte(v byte) interfaces.LLVMValue {
	return &mockValue{ref: fmt.Sprintf("%d", v), typ: basic("i8")}
}
