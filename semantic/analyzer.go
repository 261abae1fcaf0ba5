// Package semantic implements the name-resolution and type-checking
// pass of spec.md §4.4, walking the AST via domain.Visitor.
package semantic

import (
	"fmt"

	"github.com/lumenlang/lumenc/internal/domain"
)

type funcSig struct {
	paramTypes []domain.Type
	returnType domain.Type
}

// Analyzer is a single-use domain.Visitor: one Analyze call walks one
// program, raising on the first error it finds (spec.md §4.3: the
// analyser uses raise-and-catch-at-driver, not accumulate-and-continue).
type Analyzer struct {
	reporter domain.ErrorReporter
	ctx      *domain.Context
	types    domain.TypeRegistry

	env       *domain.Environment[domain.Type]
	functions map[string]*funcSig

	currentReturn domain.Type
	loopDepth     int

	result domain.Type
}

func NewAnalyzer(ctx *domain.Context, types domain.TypeRegistry) *Analyzer {
	a := &Analyzer{
		ctx:       ctx,
		types:     types,
		env:       domain.NewEnvironment[domain.Type](nil, "global"),
		functions: make(map[string]*funcSig),
	}
	// true/false resolve through the same VarAccess path as any other
	// name (spec.md §9's fourth open question), so the global scope
	// binds them up front rather than special-casing a literal node.
	a.env.Define("true", &domain.BasicType{Kind: domain.BoolKind})
	a.env.Define("false", &domain.BasicType{Kind: domain.BoolKind})
	return a
}

func (a *Analyzer) SetErrorReporter(r domain.ErrorReporter) { a.reporter = r }

func (a *Analyzer) Analyze(program domain.Node) error {
	if program == nil {
		return a.fail(domain.Position{}, domain.ErrInvalidSyntax, "empty program")
	}
	return program.Accept(a)
}

func (a *Analyzer) fail(pos domain.Position, kind domain.ErrorKind, msg string, args ...any) error {
	p := pos
	err := domain.NewError(kind, fmt.Sprintf(msg, args...), &p, a.ctx, domain.StageSemantic)
	if a.reporter != nil {
		a.reporter.ReportError(err)
	}
	return err
}

func (a *Analyzer) resolveType(tok domain.Token) (domain.Type, error) {
	name := tok.Value.(string)
	t, ok := a.types.ResolveTypeName(name)
	if !ok {
		return nil, a.fail(tok.Pos, domain.ErrType, "unknown type %q", name)
	}
	return t, nil
}

func (a *Analyzer) typeOf(n domain.Node) (domain.Type, error) {
	if err := n.Accept(a); err != nil {
		return nil, err
	}
	return a.result, nil
}

// --- domain.Visitor ---

func (a *Analyzer) VisitNumber(n *domain.NumberNode) error {
	if n.Token.Type == domain.TokenFloat {
		a.result = &domain.BasicType{Kind: domain.FloatKind}
	} else {
		a.result = &domain.BasicType{Kind: domain.IntKind}
	}
	return nil
}

func (a *Analyzer) VisitString(n *domain.StringNode) error {
	a.result = &domain.BasicType{Kind: domain.StrKind}
	return nil
}

func (a *Analyzer) VisitList(n *domain.ListNode) error {
	if len(n.Elements) == 0 {
		a.result = &domain.ListType{Element: &domain.BasicType{Kind: domain.IntKind}}
		return nil
	}
	first, err := a.typeOf(n.Elements[0])
	if err != nil {
		return err
	}
	for _, el := range n.Elements[1:] {
		t, err := a.typeOf(el)
		if err != nil {
			return err
		}
		if !t.Equals(first) {
			return a.fail(el.GetPosition(), domain.ErrType, "list element type %s does not match %s", t, first)
		}
	}
	a.result = &domain.ListType{Element: first}
	return nil
}

func (a *Analyzer) VisitBinOp(n *domain.BinOpNode) error {
	left, err := a.typeOf(n.Left)
	if err != nil {
		return err
	}
	right, err := a.typeOf(n.Right)
	if err != nil {
		return err
	}
	op, ok := domain.TokenToBinaryOperator(n.Operator.Type)
	if !ok {
		return a.fail(n.Operator.Pos, domain.ErrInvalidSyntax, "not a binary operator")
	}
	result, ok := domain.BinaryOperatorResult(op, left, right)
	if !ok {
		return a.fail(n.Operator.Pos, domain.ErrType, "operator %s undefined for %s and %s", op, left, right)
	}
	a.result = result
	return nil
}

func (a *Analyzer) VisitUnaryOp(n *domain.UnaryOpNode) error {
	operand, err := a.typeOf(n.Operand)
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
	default:
		return a.fail(n.Operator.Pos, domain.ErrInvalidSyntax, "not a unary operator")
	}
	result, ok := domain.UnaryOperatorResult(op, operand)
	if !ok {
		return a.fail(n.Operator.Pos, domain.ErrType, "operator %s undefined for %s", op, operand)
	}
	a.result = result
	return nil
}

func (a *Analyzer) VisitVarAccess(n *domain.VarAccessNode) error {
	name := n.Name.Value.(string)
	t, ok := a.env.Lookup(name)
	if !ok {
		return a.fail(n.Name.Pos, domain.ErrNoSuchVar, "undeclared variable %q", name)
	}
	a.result = t
	return nil
}

func (a *Analyzer) VisitVarAssign(n *domain.VarAssignNode) error {
	valueType, err := a.typeOf(n.Value)
	if err != nil {
		return err
	}
	name := n.Name.Value.(string)
	if n.TypeAnnotation != nil {
		declared, err := a.resolveType(*n.TypeAnnotation)
		if err != nil {
			return err
		}
		if !declared.Equals(valueType) {
			return a.fail(n.Value.GetPosition(), domain.ErrType, "cannot assign %s to %s-typed %q", valueType, declared, name)
		}
		valueType = declared
	}
	a.env.Define(name, valueType)
	a.result = valueType
	return nil
}

func (a *Analyzer) VisitIf(n *domain.IfNode) error {
	cond, err := a.typeOf(n.Condition)
	if err != nil {
		return err
	}
	if b, ok := cond.(*domain.BasicType); !ok || b.Kind != domain.BoolKind {
		return a.fail(n.Condition.GetPosition(), domain.ErrType, "if condition must be bool, got %s", cond)
	}
	a.pushScope("if")
	err = n.Body.Accept(a)
	a.popScope()
	if err != nil {
		return err
	}
	if n.Else != nil {
		a.pushScope("else")
		err = n.Else.Accept(a)
		a.popScope()
		if err != nil {
			return err
		}
	}
	a.result = &domain.BasicType{Kind: domain.NullKind}
	return nil
}

func (a *Analyzer) VisitWhile(n *domain.WhileNode) error {
	cond, err := a.typeOf(n.Condition)
	if err != nil {
		return err
	}
	if b, ok := cond.(*domain.BasicType); !ok || b.Kind != domain.BoolKind {
		return a.fail(n.Condition.GetPosition(), domain.ErrType, "while condition must be bool, got %s", cond)
	}
	a.pushScope("while")
	a.loopDepth++
	err = n.Body.Accept(a)
	a.loopDepth--
	a.popScope()
	if err != nil {
		return err
	}
	a.result = &domain.BasicType{Kind: domain.NullKind}
	return nil
}

func (a *Analyzer) VisitFor(n *domain.ForNode) error {
	from, err := a.typeOf(n.From)
	if err != nil {
		return err
	}
	to, err := a.typeOf(n.To)
	if err != nil {
		return err
	}
	if !domain.IsNumeric(from) {
		return a.fail(n.From.GetPosition(), domain.ErrType, "for-loop bound must be numeric, got %s", from)
	}
	if !from.Equals(to) {
		return a.fail(n.To.GetPosition(), domain.ErrType, "for-loop bounds must share a type: %s vs %s", from, to)
	}
	if n.Step != nil {
		step, err := a.typeOf(n.Step)
		if err != nil {
			return err
		}
		if !step.Equals(from) {
			return a.fail(n.Step.GetPosition(), domain.ErrType, "for-loop step must match bound type %s, got %s", from, step)
		}
	}
	a.pushScope("for")
	a.env.Define(n.Identifier.Value.(string), from)
	a.loopDepth++
	err = n.Body.Accept(a)
	a.loopDepth--
	a.popScope()
	if err != nil {
		return err
	}
	a.result = &domain.BasicType{Kind: domain.NullKind}
	return nil
}

func (a *Analyzer) VisitFunCall(n *domain.FunCallNode) error {
	name := n.Identifier.Value.(string)
	argTypes := make([]domain.Type, len(n.Args))
	for i, arg := range n.Args {
		t, err := a.typeOf(arg)
		if err != nil {
			return err
		}
		argTypes[i] = t
	}
	switch name {
	case "print":
		a.result = &domain.BasicType{Kind: domain.NullKind}
		return nil
	case "len":
		if len(argTypes) != 1 {
			return a.fail(n.Identifier.Pos, domain.ErrType, "len expects 1 argument, got %d", len(argTypes))
		}
		if _, ok := domain.AsList(argTypes[0]); !ok && !domain.IsStr(argTypes[0]) {
			return a.fail(n.Args[0].GetPosition(), domain.ErrType, "len expects str or list, got %s", argTypes[0])
		}
		a.result = &domain.BasicType{Kind: domain.IntKind}
		return nil
	}
	if st, ok := a.types.GetStruct(name); ok {
		if len(argTypes) != len(st.Order) {
			return a.fail(n.Identifier.Pos, domain.ErrType, "struct %s expects %d fields, got %d", st.Name, len(st.Order), len(argTypes))
		}
		for i, fieldName := range st.Order {
			want := st.Fields[fieldName]
			if !want.Equals(argTypes[i]) {
				return a.fail(n.Args[i].GetPosition(), domain.ErrType, "field %d of %s: expected %s, got %s", i, st.Name, want, argTypes[i])
			}
		}
		a.result = st
		return nil
	}
	sig, ok := a.functions[name]
	if !ok {
		return a.fail(n.Identifier.Pos, domain.ErrNoSuchVar, "call to undeclared function %q", name)
	}
	if len(argTypes) != len(sig.paramTypes) {
		return a.fail(n.Identifier.Pos, domain.ErrType, "%q expects %d arguments, got %d", name, len(sig.paramTypes), len(argTypes))
	}
	for i, want := range sig.paramTypes {
		if !want.Equals(argTypes[i]) {
			return a.fail(n.Args[i].GetPosition(), domain.ErrType, "argument %d of %q: expected %s, got %s", i, name, want, argTypes[i])
		}
	}
	a.result = sig.returnType
	return nil
}

func (a *Analyzer) VisitFunDef(n *domain.FunDefNode) error {
	name := n.Identifier.Value.(string)
	if _, exists := a.functions[name]; exists {
		return a.fail(n.Identifier.Pos, domain.ErrDuplicateName, "function %q already declared", name)
	}
	paramTypes := make([]domain.Type, len(n.ArgTypes))
	for i, at := range n.ArgTypes {
		t, err := a.resolveType(at)
		if err != nil {
			return err
		}
		paramTypes[i] = t
	}
	returnType, err := a.resolveType(n.ReturnType)
	if err != nil {
		return err
	}
	a.functions[name] = &funcSig{paramTypes: paramTypes, returnType: returnType}

	outer := a.ctx
	a.ctx = domain.NewContext(a.ctx, name, a.ctx.File, a.ctx.FileText)
	a.pushScope(name)
	for i, arg := range n.Args {
		a.env.Define(arg.Value.(string), paramTypes[i])
	}
	prevReturn := a.currentReturn
	a.currentReturn = returnType
	err = n.Body.Accept(a)
	a.currentReturn = prevReturn
	a.popScope()
	a.ctx = outer
	if err != nil {
		return err
	}
	a.result = &domain.BasicType{Kind: domain.NullKind}
	return nil
}

func (a *Analyzer) VisitStatements(n *domain.StatementsNode) error {
	for _, stmt := range n.Expressions {
		if err := stmt.Accept(a); err != nil {
			return err
		}
	}
	a.result = &domain.BasicType{Kind: domain.NullKind}
	return nil
}

func (a *Analyzer) VisitListAssign(n *domain.ListAssignNode) error {
	listType, err := a.typeOf(n.List)
	if err != nil {
		return err
	}
	list, ok := domain.AsList(listType)
	if !ok {
		return a.fail(n.List.GetPosition(), domain.ErrType, "cannot index into %s", listType)
	}
	indexType, err := a.typeOf(n.Index)
	if err != nil {
		return err
	}
	if b, ok := indexType.(*domain.BasicType); !ok || b.Kind != domain.IntKind {
		return a.fail(n.Index.GetPosition(), domain.ErrType, "list index must be int, got %s", indexType)
	}
	valueType, err := a.typeOf(n.Value)
	if err != nil {
		return err
	}
	if !valueType.Equals(list.Element) {
		return a.fail(n.Value.GetPosition(), domain.ErrType, "cannot assign %s into list:%s", valueType, list.Element)
	}
	a.result = valueType
	return nil
}

func (a *Analyzer) VisitStructDef(n *domain.StructDefNode) error {
	fields := make([]domain.StructField, len(n.FieldNames))
	for i, fn := range n.FieldNames {
		t, err := a.resolveType(n.FieldTypes[i])
		if err != nil {
			return err
		}
		fields[i] = domain.StructField{Name: fn.Value.(string), Type: t}
	}
	name := n.Identifier.Value.(string)
	if _, err := a.types.DeclareStruct(name, fields); err != nil {
		return a.fail(n.Identifier.Pos, domain.ErrDuplicateName, "%s", err)
	}
	for _, fn := range n.Functions {
		if err := fn.Accept(a); err != nil {
			return err
		}
	}
	a.result = &domain.BasicType{Kind: domain.NullKind}
	return nil
}

func (a *Analyzer) VisitStructAssign(n *domain.StructAssignNode) error {
	objType, err := a.typeOf(n.Object)
	if err != nil {
		return err
	}
	st, ok := objType.(*domain.StructType)
	if !ok {
		return a.fail(n.Object.GetPosition(), domain.ErrType, "%s is not a struct", objType)
	}
	fieldType, _, ok := st.GetField(n.Key.Value.(string))
	if !ok {
		return a.fail(n.Key.Pos, domain.ErrNoSuchVar, "struct %s has no field %q", st.Name, n.Key.Value)
	}
	valueType, err := a.typeOf(n.Value)
	if err != nil {
		return err
	}
	if !valueType.Equals(fieldType) {
		return a.fail(n.Value.GetPosition(), domain.ErrType, "cannot assign %s to %s-typed field %q", valueType, fieldType, n.Key.Value)
	}
	a.result = valueType
	return nil
}

func (a *Analyzer) VisitStructRead(n *domain.StructReadNode) error {
	objType, err := a.typeOf(n.Object)
	if err != nil {
		return err
	}
	st, ok := objType.(*domain.StructType)
	if !ok {
		return a.fail(n.Object.GetPosition(), domain.ErrType, "%s is not a struct", objType)
	}
	fieldType, _, ok := st.GetField(n.Key.Value.(string))
	if !ok {
		return a.fail(n.Key.Pos, domain.ErrNoSuchVar, "struct %s has no field %q", st.Name, n.Key.Value)
	}
	a.result = fieldType
	return nil
}

func (a *Analyzer) VisitImport(n *domain.ImportNode) error {
	// Cross-file name resolution happens at IR-build time, when the
	// imported file's AST is actually lowered into the same module; the
	// analyser only validates the syntax of this statement's own file.
	a.result = &domain.BasicType{Kind: domain.NullKind}
	return nil
}

func (a *Analyzer) VisitPass(n *domain.PassNode) error {
	a.result = &domain.BasicType{Kind: domain.NullKind}
	return nil
}

func (a *Analyzer) VisitReturn(n *domain.ReturnNode) error {
	var valueType domain.Type = &domain.BasicType{Kind: domain.NullKind}
	if n.Value != nil {
		t, err := a.typeOf(n.Value)
		if err != nil {
			return err
		}
		valueType = t
	}
	if a.currentReturn != nil && !a.currentReturn.Equals(valueType) {
		return a.fail(n.GetPosition(), domain.ErrType, "return type %s does not match declared %s", valueType, a.currentReturn)
	}
	a.result = valueType
	return nil
}

func (a *Analyzer) VisitBreak(n *domain.BreakNode) error {
	if a.loopDepth == 0 {
		return a.fail(n.GetPosition(), domain.ErrInvalidSyntax, "break outside a loop")
	}
	a.result = &domain.BasicType{Kind: domain.NullKind}
	return nil
}

func (a *Analyzer) VisitContinue(n *domain.ContinueNode) error {
	if a.loopDepth == 0 {
		return a.fail(n.GetPosition(), domain.ErrInvalidSyntax, "continue outside a loop")
	}
	a.result = &domain.BasicType{Kind: domain.NullKind}
	return nil
}

func (a *Analyzer) pushScope(name string) {
	a.env = domain.NewEnvironment[domain.Type](a.env, name)
}

func (a *Analyzer) popScope() {
	if parent := a.env.Parent(); parent != nil {
		a.env = parent
	}
}
