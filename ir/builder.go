// Package ir lowers a validated Lumen AST into SSA IR (spec.md §4.5),
// using the entry-block allocator and mock backend in
// internal/infrastructure.
package ir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lumenlang/lumenc/internal/domain"
	"github.com/lumenlang/lumenc/internal/infrastructure"
	"github.com/lumenlang/lumenc/internal/interfaces"
	"github.com/lumenlang/lumenc/lexer"
	"github.com/lumenlang/lumenc/parser"
)

// valueAndType pairs a lowered SSA value with its Lumen type. Len
// tracks a statically-known element count (list literals, string byte
// length) so the `len` builtin can resolve without runtime bookkeeping;
// -1 means unknown.
type valueAndType struct {
	V   interfaces.LLVMValue
	T   domain.Type
	Len int
}

type funcInfo struct {
	fn         interfaces.LLVMFunction
	paramTypes []domain.Type
	returnType domain.Type
}

// Builder is a single-use domain.Visitor that lowers one program into
// one LLVMModule. It owns the current builder insertion point, the
// current Environment, the current Context, break/continue stacks, the
// set of imported files, an entry-block Allocator and struct metadata
// (spec.md §4.5).
type Builder struct {
	types   domain.TypeRegistry
	baseDir string
	extension string
	memMgr  infrastructure.MemoryManager

	reporter domain.ErrorReporter
	ctx      *domain.Context

	module interfaces.LLVMModule
	llb    interfaces.LLVMBuilder
	alloc  *infrastructure.EntryAllocator

	env       *domain.Environment[valueAndType]
	functions map[string]*funcInfo
	imported  map[string]bool
	strCount  int

	breakStack    []interfaces.LLVMBasicBlock
	continueStack []interfaces.LLVMBasicBlock

	currentFunc       interfaces.LLVMFunction
	currentReturnType domain.Type

	printfFn, strlenFn, mallocFn, strcpyFn, strcmpFn interfaces.LLVMFunction

	result valueAndType

	nodesVisited   int
	functionsBuilt int
}

// NewBuilder constructs an IR builder for one entry file. baseDir
// anchors relative `IMPORT ident` lookups; extension is the source
// file suffix (without the dot) appended to an import's identifier.
func NewBuilder(types domain.TypeRegistry, ctx *domain.Context, memMgr infrastructure.MemoryManager, baseDir, extension string) *Builder {
	return &Builder{
		types:     types,
		ctx:       ctx,
		memMgr:    memMgr,
		baseDir:   baseDir,
		extension: extension,
	}
}

func (b *Builder) SetErrorReporter(r domain.ErrorReporter) { b.reporter = r }

func (b *Builder) Stats() interfaces.CompilationStats {
	return interfaces.CompilationStats{NodesVisited: b.nodesVisited, FunctionsBuilt: b.functionsBuilt}
}

func (b *Builder) fail(pos domain.Position, kind domain.ErrorKind, msg string, args ...any) error {
	p := pos
	err := domain.NewError(kind, fmt.Sprintf(msg, args...), &p, b.ctx, domain.StageIRBuilding)
	if b.reporter != nil {
		b.reporter.ReportError(err)
	}
	return err
}

// Build lowers program into a fresh module named moduleName, wrapping
// all top-level statements in an implicit `main` entry function so a
// bare top-level `RETURN` (spec.md §8's for-sum scenario) sets the
// program's exit value.
func (b *Builder) Build(program domain.Node, moduleName string) (interfaces.LLVMModule, error) {
	b.module = infrastructure.NewMockLLVMModule(moduleName)
	b.llb = infrastructure.NewMockLLVMBuilder()
	b.alloc = infrastructure.NewEntryAllocator(b.llb)
	b.env = domain.NewEnvironment[valueAndType](nil, "global")
	b.functions = make(map[string]*funcInfo)
	b.imported = make(map[string]bool)

	b.declareRuntime()
	b.defineBooleanGlobals()

	mainFn, err := b.module.DeclareFunction("main", nil, b.module.IntType(), false)
	if err != nil {
		return nil, b.fail(domain.Position{}, domain.ErrDuplicateName, "%s", err)
	}
	b.functions["main"] = &funcInfo{fn: mainFn, returnType: &domain.BasicType{Kind: domain.IntKind}}
	entry := mainFn.AppendBasicBlock("entry")
	b.llb.PositionAtEnd(entry)
	b.alloc.Push(entry)
	b.currentFunc = mainFn
	b.currentReturnType = &domain.BasicType{Kind: domain.IntKind}
	b.functionsBuilt++

	err = program.Accept(b)
	b.alloc.Pop()
	if err != nil {
		return b.module, err
	}
	if !b.llb.CurrentBlock().IsTerminated() {
		b.llb.CreateRet(b.llb.ConstInt(0))
	}
	return b.module, nil
}

func (b *Builder) declareRuntime() {
	byteType := b.module.ByteType()
	bytePtr := b.module.PointerType(byteType)
	intType := b.module.IntType()

	b.printfFn, _ = b.module.DeclareFunction("printf", []interfaces.LLVMType{bytePtr}, intType, true)
	b.strlenFn, _ = b.module.DeclareFunction("strlen", []interfaces.LLVMType{bytePtr}, intType, false)
	b.mallocFn, _ = b.module.DeclareFunction("malloc", []interfaces.LLVMType{intType}, bytePtr, false)
	b.strcpyFn, _ = b.module.DeclareFunction("strcpy", []interfaces.LLVMType{bytePtr, bytePtr}, bytePtr, false)
	b.strcmpFn, _ = b.module.DeclareFunction("strcmp", []interfaces.LLVMType{bytePtr, bytePtr}, intType, false)
}

// defineBooleanGlobals resolves spec.md §9's fourth open question: the
// `true`/`false` literal path and the declared-global path are unified
// by binding the globals into the root Environment, so VarAccess serves
// both uniformly instead of special-casing a literal.
func (b *Builder) defineBooleanGlobals() {
	trueGlobal := b.module.DeclareGlobalBool("true", true)
	falseGlobal := b.module.DeclareGlobalBool("false", false)
	boolType := &domain.BasicType{Kind: domain.BoolKind}
	b.env.Define("true", valueAndType{V: trueGlobal, T: boolType, Len: -1})
	b.env.Define("false", valueAndType{V: falseGlobal, T: boolType, Len: -1})
}

func (b *Builder) lower(n domain.Node) (valueAndType, error) {
	b.nodesVisited++
	if err := n.Accept(b); err != nil {
		return valueAndType{}, err
	}
	return b.result, nil
}

func (b *Builder) pushScope(name string) {
	b.env = domain.NewEnvironment[valueAndType](b.env, name)
}

func (b *Builder) popScope() {
	if parent := b.env.Parent(); parent != nil {
		b.env = parent
	}
}

// llvmType maps a domain.Type to its backend representation, declaring
// named struct bodies lazily on first use.
func (b *Builder) llvmType(t domain.Type) interfaces.LLVMType {
	switch tt := t.(type) {
	case *domain.BasicType:
		switch tt.Kind {
		case domain.IntKind:
			return b.module.IntType()
		case domain.FloatKind:
			return b.module.FloatType()
		case domain.BoolKind:
			return b.module.BoolType()
		case domain.ByteKind:
			return b.module.ByteType()
		case domain.StrKind:
			return b.module.PointerType(b.module.ByteType())
		default:
			return b.module.VoidType()
		}
	case *domain.ListType:
		return b.module.PointerType(b.llvmType(tt.Element))
	case *domain.StructType:
		if named, ok := b.module.GetNamedStruct(tt.Name); ok {
			return named
		}
		named := b.module.DeclareNamedStruct(tt.Name)
		fieldTypes := make([]interfaces.LLVMType, len(tt.Order))
		for i, fname := range tt.Order {
			fieldTypes[i] = b.llvmType(tt.Fields[fname])
		}
		b.module.SetStructBody(named, fieldTypes)
		return named
	default:
		return b.module.VoidType()
	}
}

// --- domain.Visitor ---

func (b *Builder) VisitNumber(n *domain.NumberNode) error {
	if n.Token.Type == domain.TokenFloat {
		b.result = valueAndType{V: b.llb.ConstFloat(n.Token.Value.(float64)), T: &domain.BasicType{Kind: domain.FloatKind}, Len: -1}
		return nil
	}
	b.result = valueAndType{V: b.llb.ConstInt(n.Token.Value.(int64)), T: &domain.BasicType{Kind: domain.IntKind}, Len: -1}
	return nil
}

// lowerStringBytes implements the `\n` quirk spec.md §9 preserves: the
// lexer has already resolved the escape to a real newline byte; at this
// stage each such byte is re-expanded into newline-then-NUL before the
// final NUL terminator is appended.
func lowerStringBytes(s string) []byte {
	out := make([]byte, 0, len(s)+1)
	for i := 0; i < len(s); i++ {
		c := s[i]
		out = append(out, c)
		if c == '\n' {
			out = append(out, 0)
		}
	}
	return append(out, 0)
}

func (b *Builder) VisitString(n *domain.StringNode) error {
	raw := n.Token.Value.(string)
	bytes := lowerStringBytes(raw)
	name := fmt.Sprintf("__str_%d", b.strCount)
	b.strCount++
	global := b.module.DeclareGlobalString(name, bytes)
	zero := b.llb.ConstInt(0)
	decayed := b.llb.CreateGEP(global, []interfaces.LLVMValue{zero, zero}, "str")
	b.result = valueAndType{V: decayed, T: &domain.BasicType{Kind: domain.StrKind}, Len: len(raw)}
	return nil
}

func (b *Builder) VisitList(n *domain.ListNode) error {
	elemVals := make([]valueAndType, len(n.Elements))
	var elemType domain.Type = &domain.BasicType{Kind: domain.IntKind}
	for i, el := range n.Elements {
		v, err := b.lower(el)
		if err != nil {
			return err
		}
		elemVals[i] = v
		elemType = v.T
	}
	elemLLVM := b.llvmType(elemType)
	arrayType := b.module.ArrayType(elemLLVM, len(n.Elements))
	slot := b.alloc.Alloca(arrayType, "list")

	zero := b.llb.ConstInt(0)
	// First element addresses into the array with a two-index GEP
	// ([0,0]); every later element is a single-index GEP chained off the
	// previous element's pointer, matching the original IR builder's
	// element-by-element list materialization.
	var elemPtr interfaces.LLVMValue
	for i, ev := range elemVals {
		if i == 0 {
			elemPtr = b.llb.CreateGEP(slot, []interfaces.LLVMValue{zero, zero}, "list.elem")
		} else {
			elemPtr = b.llb.CreateGEP(elemPtr, []interfaces.LLVMValue{b.llb.ConstInt(1)}, "list.elem")
		}
		b.llb.CreateStore(ev.V, elemPtr)
	}
	decayed := b.llb.CreateGEP(slot, []interfaces.LLVMValue{zero, zero}, "list.decay")
	b.result = valueAndType{V: decayed, T: &domain.ListType{Element: elemType}, Len: len(n.Elements)}
	return nil
}

func (b *Builder) VisitBinOp(n *domain.BinOpNode) error {
	left, err := b.lower(n.Left)
	if err != nil {
		return err
	}
	right, err := b.lower(n.Right)
	if err != nil {
		return err
	}
	op, ok := domain.TokenToBinaryOperator(n.Operator.Type)
	if !ok {
		return b.fail(n.Operator.Pos, domain.ErrInvalidSyntax, "not a binary operator")
	}
	resultType, ok := domain.BinaryOperatorResult(op, left.T, right.T)
	if !ok {
		return b.fail(n.Operator.Pos, domain.ErrType, "operator %s undefined for %s and %s", op, left.T, right.T)
	}
	v, err := b.lowerBinOp(op, left, right, n.Operator.Pos)
	if err != nil {
		return err
	}
	b.result = valueAndType{V: v, T: resultType, Len: -1}
	return nil
}

func (b *Builder) widenToFloat(v valueAndType) interfaces.LLVMValue {
	if domain.IsNumeric(v.T) {
		if _, isFloat := v.T.(*domain.BasicType); isFloat && v.T.(*domain.BasicType).Kind == domain.FloatKind {
			return v.V
		}
	}
	return b.llb.CreateSIToFP(v.V, b.module.FloatType(), "widen")
}

func isFloatType(t domain.Type) bool {
	bt, ok := t.(*domain.BasicType)
	return ok && bt.Kind == domain.FloatKind
}

func isStrType(t domain.Type) bool {
	bt, ok := t.(*domain.BasicType)
	return ok && bt.Kind == domain.StrKind
}

func (b *Builder) lowerBinOp(op domain.BinaryOperator, left, right valueAndType, pos domain.Position) (interfaces.LLVMValue, error) {
	switch op {
	case domain.OpAdd:
		if isStrType(left.T) && isStrType(right.T) {
			return b.concatStrings(left, right), nil
		}
		if _, isList := domain.AsList(left.T); isList {
			return nil, b.fail(pos, domain.ErrRuntime, "list concatenation is not implemented: list values carry no runtime length to size the result")
		}
		return b.arith(op, left, right), nil
	case domain.OpSub, domain.OpMul, domain.OpDiv, domain.OpMod:
		return b.arith(op, left, right), nil
	case domain.OpPow:
		return b.pow(left, right), nil
	case domain.OpEq, domain.OpNe, domain.OpLt, domain.OpLe, domain.OpGt, domain.OpGe:
		return b.compare(op, left, right), nil
	case domain.OpAnd:
		return b.llb.CreateAnd(left.V, right.V, "and"), nil
	case domain.OpOr:
		return b.llb.CreateOr(left.V, right.V, "or"), nil
	case domain.OpXor:
		return b.llb.CreateXor(left.V, right.V, "xor"), nil
	case domain.OpGet:
		return b.lowerGet(left, right), nil
	default:
		return nil, b.fail(pos, domain.ErrRuntime, "operator %s is not implemented at lowering", op)
	}
}

func (b *Builder) arith(op domain.BinaryOperator, left, right valueAndType) interfaces.LLVMValue {
	if isFloatType(left.T) || isFloatType(right.T) {
		l, r := b.widenToFloat(left), b.widenToFloat(right)
		switch op {
		case domain.OpAdd:
			return b.llb.CreateFAdd(l, r, "fadd")
		case domain.OpSub:
			return b.llb.CreateFSub(l, r, "fsub")
		case domain.OpMul:
			return b.llb.CreateFMul(l, r, "fmul")
		case domain.OpDiv:
			return b.llb.CreateFDiv(l, r, "fdiv")
		case domain.OpMod:
			return b.llb.CreateFRem(l, r, "frem")
		}
	}
	switch op {
	case domain.OpAdd:
		return b.llb.CreateAdd(left.V, right.V, "add")
	case domain.OpSub:
		return b.llb.CreateSub(left.V, right.V, "sub")
	case domain.OpMul:
		return b.llb.CreateMul(left.V, right.V, "mul")
	case domain.OpDiv:
		return b.llb.CreateSDiv(left.V, right.V, "sdiv")
	case domain.OpMod:
		return b.llb.CreateSRem(left.V, right.V, "srem")
	}
	return left.V
}

// pow resolves spec.md §9's third open question: `^` on int×int is
// lowered through a lazily-declared integer exponentiation helper
// rather than rejected, since the operator matrix already accepts it.
func (b *Builder) pow(left, right valueAndType) interfaces.LLVMValue {
	if isFloatType(left.T) || isFloatType(right.T) {
		l, r := b.widenToFloat(left), b.widenToFloat(right)
		return b.llb.CreateCallIntrinsic("llvm.pow.f64", []interfaces.LLVMType{b.module.FloatType(), b.module.FloatType()}, []interfaces.LLVMValue{l, r}, b.module.FloatType(), "pow")
	}
	fn := b.ensureIPowFunction()
	return b.llb.CreateCall(fn, []interfaces.LLVMValue{left.V, right.V}, "ipow")
}

// ensureIPowFunction lazily defines `__ipow(base, exp) -> int`, lowered
// by hand the same way a FunDef is: a counting loop multiplying an
// accumulator, entry-allocated per spec.md §4.5.
func (b *Builder) ensureIPowFunction() interfaces.LLVMFunction {
	if info, ok := b.functions["__ipow"]; ok {
		return info.fn
	}
	intType := b.module.IntType()
	fn, _ := b.module.DeclareFunction("__ipow", []interfaces.LLVMType{intType, intType}, intType, false)
	b.functions["__ipow"] = &funcInfo{fn: fn, paramTypes: []domain.Type{&domain.BasicType{Kind: domain.IntKind}, &domain.BasicType{Kind: domain.IntKind}}, returnType: &domain.BasicType{Kind: domain.IntKind}}

	savedBlock := b.llb.CurrentBlock()
	savedFunc := b.currentFunc

	entry := fn.AppendBasicBlock("entry")
	cond := fn.AppendBasicBlock("cond")
	body := fn.AppendBasicBlock("body")
	exit := fn.AppendBasicBlock("exit")

	b.llb.PositionAtEnd(entry)
	b.alloc.Push(entry)
	b.currentFunc = fn

	base, exp := fn.Params()[0], fn.Params()[1]
	accPtr := b.alloc.Alloca(intType, "acc")
	iPtr := b.alloc.Alloca(intType, "i")
	b.llb.CreateStore(b.llb.ConstInt(1), accPtr)
	b.llb.CreateStore(b.llb.ConstInt(0), iPtr)
	b.llb.CreateBr(cond)

	b.llb.PositionAtEnd(cond)
	i := b.llb.CreateLoad(iPtr, "i")
	test := b.llb.CreateICmp(interfaces.IntSLT, i, exp, "lt")
	b.llb.CreateCondBr(test, body, exit)

	b.llb.PositionAtEnd(body)
	acc := b.llb.CreateLoad(accPtr, "acc")
	acc = b.llb.CreateMul(acc, base, "acc")
	b.llb.CreateStore(acc, accPtr)
	i = b.llb.CreateLoad(iPtr, "i")
	i = b.llb.CreateAdd(i, b.llb.ConstInt(1), "i")
	b.llb.CreateStore(i, iPtr)
	b.llb.CreateBr(cond)

	b.llb.PositionAtEnd(exit)
	result := b.llb.CreateLoad(accPtr, "acc")
	b.llb.CreateRet(result)

	b.alloc.Pop()
	b.currentFunc = savedFunc
	if savedBlock != nil {
		b.llb.PositionAtEnd(savedBlock)
	}
	return fn
}

func (b *Builder) compare(op domain.BinaryOperator, left, right valueAndType) interfaces.LLVMValue {
	if isFloatType(left.T) || isFloatType(right.T) {
		l, r := b.widenToFloat(left), b.widenToFloat(right)
		return b.llb.CreateFCmp(floatPredicate(op), l, r, "fcmp")
	}
	if isStrType(left.T) && (op == domain.OpEq || op == domain.OpNe) {
		cmp := b.llb.CreateCall(b.strcmpFn, []interfaces.LLVMValue{left.V, right.V}, "strcmp")
		pred := interfaces.IntEQ
		if op == domain.OpNe {
			pred = interfaces.IntNE
		}
		return b.llb.CreateICmp(pred, cmp, b.llb.ConstInt(0), "streq")
	}
	return b.llb.CreateICmp(intPredicate(op), left.V, right.V, "icmp")
}

func intPredicate(op domain.BinaryOperator) interfaces.IntPredicate {
	switch op {
	case domain.OpEq:
		return interfaces.IntEQ
	case domain.OpNe:
		return interfaces.IntNE
	case domain.OpLt:
		return interfaces.IntSLT
	case domain.OpLe:
		return interfaces.IntSLE
	case domain.OpGt:
		return interfaces.IntSGT
	case domain.OpGe:
		return interfaces.IntSGE
	default:
		return interfaces.IntEQ
	}
}

func floatPredicate(op domain.BinaryOperator) interfaces.FloatPredicate {
	switch op {
	case domain.OpEq:
		return interfaces.FloatOEQ
	case domain.OpNe:
		return interfaces.FloatONE
	case domain.OpLt:
		return interfaces.FloatOLT
	case domain.OpLe:
		return interfaces.FloatOLE
	case domain.OpGt:
		return interfaces.FloatOGT
	default:
		return interfaces.FloatOGE
	}
}

// concatStrings lowers str+str via the C runtime (strlen/malloc/strcpy
// twice), per spec.md §9: memory is never freed, strings simply outlive
// the program.
func (b *Builder) concatStrings(left, right valueAndType) interfaces.LLVMValue {
	lenL := b.llb.CreateCall(b.strlenFn, []interfaces.LLVMValue{left.V}, "lenl")
	lenR := b.llb.CreateCall(b.strlenFn, []interfaces.LLVMValue{right.V}, "lenr")
	total := b.llb.CreateAdd(lenL, lenR, "total")
	total = b.llb.CreateAdd(total, b.llb.ConstInt(1), "total")
	buf := b.llb.CreateCall(b.mallocFn, []interfaces.LLVMValue{total}, "buf")
	b.llb.CreateCall(b.strcpyFn, []interfaces.LLVMValue{buf, left.V}, "cpy1")
	offset := b.llb.CreateGEP(buf, []interfaces.LLVMValue{lenL}, "offset")
	b.llb.CreateCall(b.strcpyFn, []interfaces.LLVMValue{offset, right.V}, "cpy2")
	return buf
}

func (b *Builder) lowerGet(left, right valueAndType) interfaces.LLVMValue {
	idx := right.V
	if list, ok := domain.AsList(left.T); ok {
		_ = list
		ptr := b.llb.CreateGEP(left.V, []interfaces.LLVMValue{idx}, "get")
		return b.llb.CreateLoad(ptr, "elem")
	}
	ptr := b.llb.CreateGEP(left.V, []interfaces.LLVMValue{idx}, "get")
	return b.llb.CreateLoad(ptr, "byte")
}

func (b *Builder) VisitUnaryOp(n *domain.UnaryOpNode) error {
	operand, err := b.lower(n.Operand)
	if err != nil {
		return err
	}
	var op domain.UnaryOperator
	switch n.Operator.Type {
	case domain.TokenNot:
		op = domain.UnaryNot
	case domain.TokenPlus:
		op = domain.UnaryPlus
	case domain.TokenMinus:
		op = domain.UnaryNeg
	}
	resultType, ok := domain.UnaryOperatorResult(op, operand.T)
	if !ok {
		return b.fail(n.Operator.Pos, domain.ErrType, "operator %s undefined for %s", op, operand.T)
	}
	var v interfaces.LLVMValue
	switch op {
	case domain.UnaryNot:
		v = b.llb.CreateNot(operand.V, "not")
	case domain.UnaryPlus:
		v = operand.V
	case domain.UnaryNeg:
		if isFloatType(operand.T) {
			v = b.llb.CreateFSub(b.llb.ConstFloat(0), operand.V, "fneg")
		} else {
			v = b.llb.CreateNeg(operand.V, "neg")
		}
	}
	b.result = valueAndType{V: v, T: resultType, Len: -1}
	return nil
}

func (b *Builder) VisitVarAccess(n *domain.VarAccessNode) error {
	name := n.Name.Value.(string)
	binding, ok := b.env.Lookup(name)
	if !ok {
		return b.fail(n.Name.Pos, domain.ErrNoSuchVar, "undeclared variable %q", name)
	}
	loaded := b.llb.CreateLoad(binding.V, name)
	b.result = valueAndType{V: loaded, T: binding.T, Len: binding.Len}
	return nil
}

func (b *Builder) VisitVarAssign(n *domain.VarAssignNode) error {
	value, err := b.lower(n.Value)
	if err != nil {
		return err
	}
	name := n.Name.Value.(string)
	if existing, ok := b.env.LookupLocal(name); ok {
		b.llb.CreateStore(value.V, existing.V)
		b.env.Define(name, valueAndType{V: existing.V, T: value.T, Len: value.Len})
		b.result = value
		return nil
	}
	slotType := b.llvmType(value.T)
	if _, isStruct := value.T.(*domain.StructType); isStruct {
		slotType = b.module.PointerType(slotType) // a struct value is the pointer to its own slot
	}
	slot := b.alloc.Alloca(slotType, name)
	b.llb.CreateStore(value.V, slot)
	b.env.Define(name, valueAndType{V: slot, T: value.T, Len: value.Len})
	b.result = value
	return nil
}

func (b *Builder) VisitIf(n *domain.IfNode) error {
	cond, err := b.lower(n.Condition)
	if err != nil {
		return err
	}
	thenBlock := b.currentFunc.AppendBasicBlock("if_then")
	mergeBlock := b.currentFunc.AppendBasicBlock("if_merge")
	var elseBlock interfaces.LLVMBasicBlock = mergeBlock
	if n.Else != nil {
		elseBlock = b.currentFunc.AppendBasicBlock("if_else")
	}
	b.llb.CreateCondBr(cond.V, thenBlock, elseBlock)

	b.llb.PositionAtEnd(thenBlock)
	b.pushScope("if")
	if err := n.Body.Accept(b); err != nil {
		return err
	}
	b.popScope()
	if !b.llb.CurrentBlock().IsTerminated() {
		b.llb.CreateBr(mergeBlock)
	}

	if n.Else != nil {
		b.llb.PositionAtEnd(elseBlock)
		b.pushScope("else")
		if err := n.Else.Accept(b); err != nil {
			return err
		}
		b.popScope()
		if !b.llb.CurrentBlock().IsTerminated() {
			b.llb.CreateBr(mergeBlock)
		}
	}

	b.llb.PositionAtEnd(mergeBlock)
	b.result = valueAndType{T: &domain.BasicType{Kind: domain.NullKind}, Len: -1}
	return nil
}

// VisitWhile lowers `entry`/`otherwise` blocks per spec.md §4.5,
// re-evaluating the condition both before the first iteration and at
// the end of the body.
func (b *Builder) VisitWhile(n *domain.WhileNode) error {
	entryBlock := b.currentFunc.AppendBasicBlock("while_entry")
	otherwiseBlock := b.currentFunc.AppendBasicBlock("while_otherwise")

	cond, err := b.lower(n.Condition)
	if err != nil {
		return err
	}
	b.llb.CreateCondBr(cond.V, entryBlock, otherwiseBlock)

	b.llb.PositionAtEnd(entryBlock)
	b.breakStack = append(b.breakStack, otherwiseBlock)
	b.continueStack = append(b.continueStack, entryBlock)
	b.pushScope("while")
	if err := n.Body.Accept(b); err != nil {
		return err
	}
	b.popScope()
	b.breakStack = b.breakStack[:len(b.breakStack)-1]
	b.continueStack = b.continueStack[:len(b.continueStack)-1]

	if !b.llb.CurrentBlock().IsTerminated() {
		cond2, err := b.lower(n.Condition)
		if err != nil {
			return err
		}
		b.llb.CreateCondBr(cond2.V, entryBlock, otherwiseBlock)
	}

	b.llb.PositionAtEnd(otherwiseBlock)
	b.result = valueAndType{T: &domain.BasicType{Kind: domain.NullKind}, Len: -1}
	return nil
}

func (b *Builder) VisitFor(n *domain.ForNode) error {
	from, err := b.lower(n.From)
	if err != nil {
		return err
	}
	to, err := b.lower(n.To)
	if err != nil {
		return err
	}
	var step valueAndType
	if n.Step != nil {
		step, err = b.lower(n.Step)
		if err != nil {
			return err
		}
	} else if isFloatType(from.T) {
		step = valueAndType{V: b.llb.ConstFloat(1), T: from.T, Len: -1}
	} else {
		step = valueAndType{V: b.llb.ConstInt(1), T: from.T, Len: -1}
	}

	varName := n.Identifier.Value.(string)
	slot := b.alloc.Alloca(b.llvmType(from.T), varName)
	b.llb.CreateStore(from.V, slot)

	condBlock := b.currentFunc.AppendBasicBlock("for_cond")
	bodyBlock := b.currentFunc.AppendBasicBlock("for_body")
	incBlock := b.currentFunc.AppendBasicBlock("for_inc")
	exitBlock := b.currentFunc.AppendBasicBlock("for_exit")

	b.llb.CreateBr(condBlock)

	b.pushScope("for")
	b.env.Define(varName, valueAndType{V: slot, T: from.T, Len: -1})

	b.llb.PositionAtEnd(condBlock)
	loopVar := b.llb.CreateLoad(slot, "loopvar")
	var test interfaces.LLVMValue
	if isFloatType(from.T) {
		test = b.llb.CreateFCmp(interfaces.FloatOLT, loopVar, to.V, "forcond")
	} else {
		test = b.llb.CreateICmp(interfaces.IntSLT, loopVar, to.V, "forcond")
	}
	b.llb.CreateCondBr(test, bodyBlock, exitBlock)

	b.llb.PositionAtEnd(bodyBlock)
	b.breakStack = append(b.breakStack, exitBlock)
	b.continueStack = append(b.continueStack, incBlock)
	if err := n.Body.Accept(b); err != nil {
		return err
	}
	b.breakStack = b.breakStack[:len(b.breakStack)-1]
	b.continueStack = b.continueStack[:len(b.continueStack)-1]
	if !b.llb.CurrentBlock().IsTerminated() {
		b.llb.CreateBr(incBlock)
	}

	b.llb.PositionAtEnd(incBlock)
	old := b.llb.CreateLoad(slot, "oldloopvar")
	var next interfaces.LLVMValue
	if isFloatType(from.T) {
		next = b.llb.CreateFAdd(old, step.V, "newloopvar")
	} else {
		next = b.llb.CreateAdd(old, step.V, "newloopvar")
	}
	b.llb.CreateStore(next, slot)
	b.llb.CreateBr(condBlock)

	b.popScope()
	b.llb.PositionAtEnd(exitBlock)
	b.result = valueAndType{T: &domain.BasicType{Kind: domain.NullKind}, Len: -1}
	return nil
}

func (b *Builder) VisitFunCall(n *domain.FunCallNode) error {
	name := n.Identifier.Value.(string)

	switch name {
	case "print":
		return b.lowerPrint(n)
	case "len":
		return b.lowerLen(n)
	}

	if st, ok := b.types.GetStruct(name); ok {
		return b.lowerStructConstruct(n, st)
	}

	info, ok := b.functions[name]
	if !ok {
		return b.fail(n.Identifier.Pos, domain.ErrNoSuchVar, "call to undeclared function %q", name)
	}
	args := make([]interfaces.LLVMValue, len(n.Args))
	for i, argNode := range n.Args {
		v, err := b.lower(argNode)
		if err != nil {
			return err
		}
		args[i] = b.materializeArg(v)
	}
	call := b.llb.CreateCall(info.fn, args, name+"_call")
	b.result = valueAndType{V: call, T: info.returnType, Len: -1}
	return nil
}

// materializeArg implements spec.md §4.5's calling convention: struct
// values are passed by the pointer they already are; everything else
// passes through unchanged (no value-typed aggregates exist in this
// lowering since structs and lists are always pointer-backed).
func (b *Builder) materializeArg(v valueAndType) interfaces.LLVMValue { return v.V }

// lowerPrint materializes the format argument into a stack slot, loads
// it back and bitcasts to i8* before forwarding it and the remaining
// arguments to printf, matching the original builder's printf helper.
func (b *Builder) lowerPrint(n *domain.FunCallNode) error {
	if len(n.Args) == 0 {
		return b.fail(n.Identifier.Pos, domain.ErrType, "print requires at least a format argument")
	}
	fmtVal, err := b.lower(n.Args[0])
	if err != nil {
		return err
	}
	fmtSlot := b.alloc.Alloca(b.llvmType(fmtVal.T), "fmt")
	b.llb.CreateStore(fmtVal.V, fmtSlot)
	loaded := b.llb.CreateLoad(fmtSlot, "fmt")
	bytePtr := b.module.PointerType(b.module.ByteType())
	casted := b.llb.CreateBitCast(loaded, bytePtr, "fmt.i8ptr")

	args := []interfaces.LLVMValue{casted}
	for _, argNode := range n.Args[1:] {
		v, err := b.lower(argNode)
		if err != nil {
			return err
		}
		args = append(args, v.V)
	}
	call := b.llb.CreateCall(b.printfFn, args, "printf_call")
	b.result = valueAndType{V: call, T: &domain.BasicType{Kind: domain.NullKind}, Len: -1}
	return nil
}

func (b *Builder) lowerLen(n *domain.FunCallNode) error {
	if len(n.Args) != 1 {
		return b.fail(n.Identifier.Pos, domain.ErrType, "len expects 1 argument")
	}
	v, err := b.lower(n.Args[0])
	if err != nil {
		return err
	}
	if v.Len < 0 {
		return b.fail(n.Args[0].GetPosition(), domain.ErrRuntime, "length of this value is not tracked at compile time")
	}
	b.result = valueAndType{V: b.llb.ConstInt(int64(v.Len)), T: &domain.BasicType{Kind: domain.IntKind}, Len: -1}
	return nil
}

func (b *Builder) lowerStructConstruct(n *domain.FunCallNode, st *domain.StructType) error {
	if len(n.Args) != len(st.Order) {
		return b.fail(n.Identifier.Pos, domain.ErrType, "struct %s expects %d fields, got %d", st.Name, len(st.Order), len(n.Args))
	}
	slot := b.alloc.Alloca(b.llvmType(st), st.Name)
	zero := b.llb.ConstInt(0)
	for i, argNode := range n.Args {
		v, err := b.lower(argNode)
		if err != nil {
			return err
		}
		idx := b.llb.ConstInt(int64(i))
		fieldPtr := b.llb.CreateGEP(slot, []interfaces.LLVMValue{zero, idx}, st.Order[i]+"_ptr")
		b.llb.CreateStore(v.V, fieldPtr)
	}
	b.result = valueAndType{V: slot, T: st, Len: -1}
	return nil
}

func (b *Builder) VisitFunDef(n *domain.FunDefNode) error {
	name := n.Identifier.Value.(string)
	if _, exists := b.functions[name]; exists {
		return b.fail(n.Identifier.Pos, domain.ErrDuplicateName, "function %q already declared", name)
	}
	paramTypes := make([]domain.Type, len(n.ArgTypes))
	paramLLVM := make([]interfaces.LLVMType, len(n.ArgTypes))
	for i, at := range n.ArgTypes {
		t, ok := b.types.ResolveTypeName(at.Value.(string))
		if !ok {
			return b.fail(at.Pos, domain.ErrType, "unknown type %q", at.Value)
		}
		paramTypes[i] = t
		paramLLVM[i] = b.llvmType(t)
	}
	returnType, ok := b.types.ResolveTypeName(n.ReturnType.Value.(string))
	if !ok {
		return b.fail(n.ReturnType.Pos, domain.ErrType, "unknown type %q", n.ReturnType.Value)
	}
	fn, err := b.module.DeclareFunction(name, paramLLVM, b.llvmType(returnType), false)
	if err != nil {
		return b.fail(n.Identifier.Pos, domain.ErrDuplicateName, "%s", err)
	}
	b.functions[name] = &funcInfo{fn: fn, paramTypes: paramTypes, returnType: returnType}
	b.functionsBuilt++

	savedBlock := b.llb.CurrentBlock()
	savedFunc := b.currentFunc
	savedReturn := b.currentReturnType
	outerCtx := b.ctx
	b.ctx = domain.NewContext(b.ctx, name, b.ctx.File, b.ctx.FileText)

	entry := fn.AppendBasicBlock("entry")
	b.llb.PositionAtEnd(entry)
	b.alloc.Push(entry)
	b.currentFunc = fn
	b.currentReturnType = returnType
	b.pushScope(name)

	params := fn.Params()
	for i, arg := range n.Args {
		argName := arg.Value.(string)
		slot := b.alloc.Alloca(paramLLVM[i], argName)
		b.llb.CreateStore(params[i], slot)
		b.env.Define(argName, valueAndType{V: slot, T: paramTypes[i], Len: -1})
	}

	err = n.Body.Accept(b)

	b.popScope()
	b.alloc.Pop()
	b.currentReturnType = savedReturn
	b.currentFunc = savedFunc
	b.ctx = outerCtx
	if err != nil {
		return err
	}

	if !b.llb.CurrentBlock().IsTerminated() {
		if _, isNull := returnType.(*domain.BasicType); isNull && returnType.(*domain.BasicType).Kind == domain.NullKind {
			b.llb.CreateRetVoid()
		} else {
			return b.fail(n.GetPosition(), domain.ErrInvalidSyntax, "function %q is missing a return on some path", name)
		}
	}
	if savedBlock != nil {
		b.llb.PositionAtEnd(savedBlock)
	}
	b.result = valueAndType{T: &domain.BasicType{Kind: domain.NullKind}, Len: -1}
	return nil
}

func (b *Builder) VisitStatements(n *domain.StatementsNode) error {
	for _, stmt := range n.Expressions {
		if err := stmt.Accept(b); err != nil {
			return err
		}
	}
	b.result = valueAndType{T: &domain.BasicType{Kind: domain.NullKind}, Len: -1}
	return nil
}

func (b *Builder) VisitListAssign(n *domain.ListAssignNode) error {
	list, err := b.lower(n.List)
	if err != nil {
		return err
	}
	index, err := b.lower(n.Index)
	if err != nil {
		return err
	}
	value, err := b.lower(n.Value)
	if err != nil {
		return err
	}
	ptr := b.llb.CreateGEP(list.V, []interfaces.LLVMValue{index.V}, "setptr")
	b.llb.CreateStore(value.V, ptr)
	b.result = value
	return nil
}

func (b *Builder) VisitStructDef(n *domain.StructDefNode) error {
	fields := make([]domain.StructField, len(n.FieldNames))
	for i, fn := range n.FieldNames {
		t, ok := b.types.ResolveTypeName(n.FieldTypes[i].Value.(string))
		if !ok {
			return b.fail(n.FieldTypes[i].Pos, domain.ErrType, "unknown type %q", n.FieldTypes[i].Value)
		}
		fields[i] = domain.StructField{Name: fn.Value.(string), Type: t}
	}
	name := n.Identifier.Value.(string)
	st, err := b.types.DeclareStruct(name, fields)
	if err != nil {
		// Already declared during semantic analysis of this same file;
		// fetch it instead of raising twice.
		existing, ok := b.types.GetStruct(name)
		if !ok {
			return b.fail(n.Identifier.Pos, domain.ErrDuplicateName, "%s", err)
		}
		st = existing
	}
	b.llvmType(st)
	for _, fn := range n.Functions {
		if err := fn.Accept(b); err != nil {
			return err
		}
	}
	b.result = valueAndType{T: &domain.BasicType{Kind: domain.NullKind}, Len: -1}
	return nil
}

func (b *Builder) VisitStructAssign(n *domain.StructAssignNode) error {
	obj, err := b.lower(n.Object)
	if err != nil {
		return err
	}
	st, ok := obj.T.(*domain.StructType)
	if !ok {
		return b.fail(n.Object.GetPosition(), domain.ErrType, "%s is not a struct", obj.T)
	}
	_, index, ok := st.GetField(n.Key.Value.(string))
	if !ok {
		return b.fail(n.Key.Pos, domain.ErrNoSuchVar, "struct %s has no field %q", st.Name, n.Key.Value)
	}
	value, err := b.lower(n.Value)
	if err != nil {
		return err
	}
	zero := b.llb.ConstInt(0)
	idx := b.llb.ConstInt(int64(index))
	ptr := b.llb.CreateGEP(obj.V, []interfaces.LLVMValue{zero, idx}, n.Key.Value.(string)+"_ptr")
	b.llb.CreateStore(value.V, ptr)
	b.result = value
	return nil
}

func (b *Builder) VisitStructRead(n *domain.StructReadNode) error {
	obj, err := b.lower(n.Object)
	if err != nil {
		return err
	}
	st, ok := obj.T.(*domain.StructType)
	if !ok {
		return b.fail(n.Object.GetPosition(), domain.ErrType, "%s is not a struct", obj.T)
	}
	fieldType, index, ok := st.GetField(n.Key.Value.(string))
	if !ok {
		return b.fail(n.Key.Pos, domain.ErrNoSuchVar, "struct %s has no field %q", st.Name, n.Key.Value)
	}
	zero := b.llb.ConstInt(0)
	idx := b.llb.ConstInt(int64(index))
	ptr := b.llb.CreateGEP(obj.V, []interfaces.LLVMValue{zero, idx}, n.Key.Value.(string)+"_ptr")
	loaded := b.llb.CreateLoad(ptr, n.Key.Value.(string))
	b.result = valueAndType{V: loaded, T: fieldType, Len: -1}
	return nil
}

// VisitImport inlines the imported file's AST into the current module
// at the point of the IMPORT statement, deduped by normalized path
// (spec.md §9: textual-inline semantics, not linker-level linkage).
func (b *Builder) VisitImport(n *domain.ImportNode) error {
	ident := n.FilePath.Value.(string)
	path := filepath.Join(b.baseDir, ident+"."+b.extension)
	normalized, err := filepath.Abs(path)
	if err != nil {
		normalized = path
	}
	if b.imported[normalized] {
		b.result = valueAndType{T: &domain.BasicType{Kind: domain.NullKind}, Len: -1}
		return nil
	}
	b.imported[normalized] = true

	source, readErr := os.ReadFile(path)
	if readErr != nil {
		return b.fail(n.FilePath.Pos, domain.ErrIO, "cannot read import %q: %s", path, readErr)
	}

	outerCtx := b.ctx
	importCtx := domain.NewContext(outerCtx, ident, path, string(source))
	b.ctx = importCtx

	lx := lexer.NewLexer()
	if err := lx.SetInput(path, string(source), importCtx); err != nil {
		b.ctx = outerCtx
		return b.fail(n.FilePath.Pos, domain.ErrIO, "%s", err)
	}
	p := parser.NewParser(lx, importCtx)
	ast, parseErr := p.Parse()
	if parseErr != nil {
		b.ctx = outerCtx
		return parseErr
	}

	err = ast.Accept(b)
	b.ctx = outerCtx
	if err != nil {
		return err
	}
	b.result = valueAndType{T: &domain.BasicType{Kind: domain.NullKind}, Len: -1}
	return nil
}

func (b *Builder) VisitPass(n *domain.PassNode) error {
	b.result = valueAndType{T: &domain.BasicType{Kind: domain.NullKind}, Len: -1}
	return nil
}

func (b *Builder) VisitReturn(n *domain.ReturnNode) error {
	if n.Value == nil {
		b.llb.CreateRetVoid()
		b.result = valueAndType{T: &domain.BasicType{Kind: domain.NullKind}, Len: -1}
		return nil
	}
	value, err := b.lower(n.Value)
	if err != nil {
		return err
	}
	b.llb.CreateRet(value.V)
	b.result = value
	return nil
}

func (b *Builder) VisitBreak(n *domain.BreakNode) error {
	if len(b.breakStack) == 0 {
		return b.fail(n.GetPosition(), domain.ErrInvalidSyntax, "break outside a loop")
	}
	b.llb.CreateBr(b.breakStack[len(b.breakStack)-1])
	b.result = valueAndType{T: &domain.BasicType{Kind: domain.NullKind}, Len: -1}
	return nil
}

func (b *Builder) VisitContinue(n *domain.ContinueNode) error {
	if len(b.continueStack) == 0 {
		return b.fail(n.GetPosition(), domain.ErrInvalidSyntax, "continue outside a loop")
	}
	b.llb.CreateBr(b.continueStack[len(b.continueStack)-1])
	b.result = valueAndType{T: &domain.BasicType{Kind: domain.NullKind}, Len: -1}
	return nil
}
