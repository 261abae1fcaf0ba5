// Package interfaces defines the contracts between the compiler's
// stages, and the out-of-scope collaborators the core consumes: the IR
// module builder API and the diagnostic sink. Concrete implementations
// live in internal/infrastructure.
package interfaces

import (
	"github.com/lumenlang/lumenc/internal/domain"
)

// Lexer turns source text into a stream of domain.Token, with one-token
// lookahead for the parser.
type Lexer interface {
	SetInput(filename, text string, ctx *domain.Context) error
	NextToken() (domain.Token, error)
	Peek() (domain.Token, error)
}

// Parser turns a token stream into a domain.Node (normally a
// *domain.StatementsNode).
type Parser interface {
	Parse() (domain.Node, error)
}

// SemanticAnalyzer validates a parsed AST in place (name resolution,
// type checking) and reports diagnostics through its ErrorReporter.
type SemanticAnalyzer interface {
	SetErrorReporter(r domain.ErrorReporter)
	Analyze(program domain.Node) error
}

// IRBuilder lowers a validated AST into an LLVMModule.
type IRBuilder interface {
	SetErrorReporter(r domain.ErrorReporter)
	Build(program domain.Node, moduleName string) (LLVMModule, error)
}

// IntPredicate / FloatPredicate mirror LLVM's icmp/fcmp condition codes.
type IntPredicate string

const (
	IntEQ  IntPredicate = "eq"
	IntNE  IntPredicate = "ne"
	IntSLT IntPredicate = "slt"
	IntSLE IntPredicate = "sle"
	IntSGT IntPredicate = "sgt"
	IntSGE IntPredicate = "sge"
)

type FloatPredicate string

const (
	FloatOEQ FloatPredicate = "oeq"
	FloatONE FloatPredicate = "one"
	FloatOLT FloatPredicate = "olt"
	FloatOLE FloatPredicate = "ole"
	FloatOGT FloatPredicate = "ogt"
	FloatOGE FloatPredicate = "oge"
)

// LLVMType is an opaque handle to a backend type (int32, double, pointer,
// array, named struct, void, function).
type LLVMType interface {
	String() string
	IsPointer() bool
	ElementType() LLVMType // valid for pointer and array types
}

// LLVMValue is an opaque handle to an SSA value, instruction result or
// constant produced by the backend.
type LLVMValue interface {
	String() string
	Type() LLVMType
}

// LLVMBasicBlock is a straight-line instruction sequence with one entry
// and, once a terminator has been emitted, exactly one exit.
type LLVMBasicBlock interface {
	Name() string
	IsTerminated() bool
}

// LLVMFunction is a defined or declared function in a module.
type LLVMFunction interface {
	Name() string
	Params() []LLVMValue
	AppendBasicBlock(name string) LLVMBasicBlock
}

// LLVMModule owns a function's declarations, global constants and named
// aggregate types for one top-level source file.
type LLVMModule interface {
	Name() string
	DeclareFunction(name string, paramTypes []LLVMType, retType LLVMType, variadic bool) (LLVMFunction, error)
	GetFunction(name string) (LLVMFunction, bool)
	DeclareGlobalString(name string, bytes []byte) LLVMValue
	DeclareGlobalBool(name string, value bool) LLVMValue
	DeclareNamedStruct(name string) LLVMType
	SetStructBody(t LLVMType, fields []LLVMType)
	GetNamedStruct(name string) (LLVMType, bool)
	String() string // textual IR dump, spec.md §6

	IntType() LLVMType
	FloatType() LLVMType
	BoolType() LLVMType
	ByteType() LLVMType
	VoidType() LLVMType
	PointerType(elem LLVMType) LLVMType
	ArrayType(elem LLVMType, count int) LLVMType
}

// LLVMBuilder emits instructions at its current insertion point. The
// entry-block allocator (internal/infrastructure.EntryAllocator) moves
// the builder to a function's entry block for each alloca and back to
// the previous block afterwards, so alloca placement does not disturb
// where everything else is emitted.
type LLVMBuilder interface {
	PositionAtEnd(block LLVMBasicBlock)
	PositionAfter(block LLVMBasicBlock, after LLVMValue)
	CurrentBlock() LLVMBasicBlock

	CreateAlloca(t LLVMType, name string) LLVMValue
	CreateStore(value, ptr LLVMValue)
	CreateLoad(ptr LLVMValue, name string) LLVMValue

	CreateAdd(l, r LLVMValue, name string) LLVMValue
	CreateSub(l, r LLVMValue, name string) LLVMValue
	CreateMul(l, r LLVMValue, name string) LLVMValue
	CreateSDiv(l, r LLVMValue, name string) LLVMValue
	CreateSRem(l, r LLVMValue, name string) LLVMValue

	CreateFAdd(l, r LLVMValue, name string) LLVMValue
	CreateFSub(l, r LLVMValue, name string) LLVMValue
	CreateFMul(l, r LLVMValue, name string) LLVMValue
	CreateFDiv(l, r LLVMValue, name string) LLVMValue
	CreateFRem(l, r LLVMValue, name string) LLVMValue

	CreateAnd(l, r LLVMValue, name string) LLVMValue
	CreateOr(l, r LLVMValue, name string) LLVMValue
	CreateXor(l, r LLVMValue, name string) LLVMValue
	CreateNeg(v LLVMValue, name string) LLVMValue
	CreateNot(v LLVMValue, name string) LLVMValue

	CreateICmp(pred IntPredicate, l, r LLVMValue, name string) LLVMValue
	CreateFCmp(pred FloatPredicate, l, r LLVMValue, name string) LLVMValue

	CreateSIToFP(v LLVMValue, t LLVMType, name string) LLVMValue
	CreateBitCast(v LLVMValue, t LLVMType, name string) LLVMValue
	CreateZExt(v LLVMValue, t LLVMType, name string) LLVMValue

	CreateBr(dest LLVMBasicBlock)
	CreateCondBr(cond LLVMValue, then, els LLVMBasicBlock)
	CreateRet(v LLVMValue)
	CreateRetVoid()

	CreateCall(fn LLVMFunction, args []LLVMValue, name string) LLVMValue
	CreateGEP(ptr LLVMValue, indices []LLVMValue, name string) LLVMValue
	CreateCallIntrinsic(name string, argTypes []LLVMType, args []LLVMValue, retType LLVMType, callName string) LLVMValue

	ConstInt(v int64) LLVMValue
	ConstFloat(v float64) LLVMValue
	ConstBool(v bool) LLVMValue
	ConstByte(v byte) LLVMValue
}

// CompilerPipeline runs lex -> parse -> analyze -> build for one entry
// file, tracking accumulated stats across the run.
type CompilerPipeline interface {
	Compile(filename, source string) (LLVMModule, error)
	GetStats() CompilationStats
	Reset()

	// Tokens and Program expose the most recent successful Parse's
	// intermediate artifacts, for the `-d tokens`/`-d ast` dumps.
	Tokens() []domain.Token
	Program() domain.Node
}

type CompilationStats struct {
	ErrorCount   int
	WarningCount int
	NodesVisited int
	FunctionsBuilt int
}
