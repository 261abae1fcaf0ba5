package application

import (
	"encoding/json"

	"github.com/lumenlang/lumenc/internal/domain"
)

// astDumper is a single-use domain.Visitor that renders one AST node
// into the same "type" + operands JSON shape at every level, for the
// `-d ast` dump (spec.md §7). Each Visit method sets result; nested
// nodes are dumped by running a fresh astDumper over them.
type astDumper struct {
	result any
}

// DumpASTJSON walks program and returns its indented JSON tree.
func DumpASTJSON(program domain.Node) ([]byte, error) {
	if program == nil {
		return json.MarshalIndent(map[string]any{"type": "empty"}, "", "  ")
	}
	d := &astDumper{}
	if err := program.Accept(d); err != nil {
		return nil, err
	}
	return json.MarshalIndent(d.result, "", "  ")
}

func (d *astDumper) dump(n domain.Node) (any, error) {
	if n == nil {
		return nil, nil
	}
	sub := &astDumper{}
	if err := n.Accept(sub); err != nil {
		return nil, err
	}
	return sub.result, nil
}

func (d *astDumper) dumpAll(ns []domain.Node) ([]any, error) {
	out := make([]any, len(ns))
	for i, n := range ns {
		v, err := d.dump(n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (d *astDumper) VisitNumber(n *domain.NumberNode) error {
	d.result = map[string]any{"type": "number", "value": n.Token.String()}
	return nil
}

func (d *astDumper) VisitString(n *domain.StringNode) error {
	d.result = map[string]any{"type": "string", "value": n.Token.String()}
	return nil
}

func (d *astDumper) VisitList(n *domain.ListNode) error {
	elements, err := d.dumpAll(n.Elements)
	if err != nil {
		return err
	}
	d.result = map[string]any{"type": "list", "elements": elements}
	return nil
}

func (d *astDumper) VisitBinOp(n *domain.BinOpNode) error {
	left, err := d.dump(n.Left)
	if err != nil {
		return err
	}
	right, err := d.dump(n.Right)
	if err != nil {
		return err
	}
	d.result = map[string]any{"type": "bin_op", "left": left, "operator": n.Operator.String(), "right": right}
	return nil
}

func (d *astDumper) VisitUnaryOp(n *domain.UnaryOpNode) error {
	operand, err := d.dump(n.Operand)
	if err != nil {
		return err
	}
	d.result = map[string]any{"type": "unary_op", "operator": n.Operator.String(), "operand": operand}
	return nil
}

func (d *astDumper) VisitVarAccess(n *domain.VarAccessNode) error {
	d.result = map[string]any{"type": "var_access", "name": n.Name.String()}
	return nil
}

func (d *astDumper) VisitVarAssign(n *domain.VarAssignNode) error {
	value, err := d.dump(n.Value)
	if err != nil {
		return err
	}
	entry := map[string]any{"type": "var_assign", "name": n.Name.String(), "value": value}
	if n.TypeAnnotation != nil {
		entry["type_annotation"] = n.TypeAnnotation.String()
	}
	d.result = entry
	return nil
}

func (d *astDumper) VisitIf(n *domain.IfNode) error {
	condition, err := d.dump(n.Condition)
	if err != nil {
		return err
	}
	body, err := d.dump(n.Body)
	if err != nil {
		return err
	}
	els, err := d.dump(n.Else)
	if err != nil {
		return err
	}
	d.result = map[string]any{"type": "if", "condition": condition, "body": body, "else": els}
	return nil
}

func (d *astDumper) VisitWhile(n *domain.WhileNode) error {
	condition, err := d.dump(n.Condition)
	if err != nil {
		return err
	}
	body, err := d.dump(n.Body)
	if err != nil {
		return err
	}
	d.result = map[string]any{"type": "while", "condition": condition, "body": body}
	return nil
}

func (d *astDumper) VisitFor(n *domain.ForNode) error {
	from, err := d.dump(n.From)
	if err != nil {
		return err
	}
	to, err := d.dump(n.To)
	if err != nil {
		return err
	}
	step, err := d.dump(n.Step)
	if err != nil {
		return err
	}
	body, err := d.dump(n.Body)
	if err != nil {
		return err
	}
	d.result = map[string]any{
		"type": "for", "identifier": n.Identifier.String(),
		"from": from, "to": to, "step": step, "body": body,
	}
	return nil
}

func (d *astDumper) VisitFunCall(n *domain.FunCallNode) error {
	args, err := d.dumpAll(n.Args)
	if err != nil {
		return err
	}
	d.result = map[string]any{"type": "fun_call", "identifier": n.Identifier.String(), "args": args}
	return nil
}

func (d *astDumper) VisitFunDef(n *domain.FunDefNode) error {
	body, err := d.dump(n.Body)
	if err != nil {
		return err
	}
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	argTypes := make([]string, len(n.ArgTypes))
	for i, a := range n.ArgTypes {
		argTypes[i] = a.String()
	}
	d.result = map[string]any{
		"type": "fun_def", "identifier": n.Identifier.String(),
		"args": args, "arg_types": argTypes, "return_type": n.ReturnType.String(), "body": body,
	}
	return nil
}

func (d *astDumper) VisitStatements(n *domain.StatementsNode) error {
	expressions, err := d.dumpAll(n.Expressions)
	if err != nil {
		return err
	}
	d.result = map[string]any{"type": "statements", "expressions": expressions}
	return nil
}

func (d *astDumper) VisitListAssign(n *domain.ListAssignNode) error {
	list, err := d.dump(n.List)
	if err != nil {
		return err
	}
	index, err := d.dump(n.Index)
	if err != nil {
		return err
	}
	value, err := d.dump(n.Value)
	if err != nil {
		return err
	}
	d.result = map[string]any{"type": "list_assign", "list": list, "index": index, "value": value}
	return nil
}

func (d *astDumper) VisitStructDef(n *domain.StructDefNode) error {
	fieldNames := make([]string, len(n.FieldNames))
	for i, f := range n.FieldNames {
		fieldNames[i] = f.String()
	}
	fieldTypes := make([]string, len(n.FieldTypes))
	for i, f := range n.FieldTypes {
		fieldTypes[i] = f.String()
	}
	functions := make([]any, len(n.Functions))
	for i, fn := range n.Functions {
		v, err := d.dump(fn)
		if err != nil {
			return err
		}
		functions[i] = v
	}
	d.result = map[string]any{
		"type": "struct_def", "identifier": n.Identifier.String(),
		"field_names": fieldNames, "field_types": fieldTypes, "functions": functions,
	}
	return nil
}

func (d *astDumper) VisitStructAssign(n *domain.StructAssignNode) error {
	object, err := d.dump(n.Object)
	if err != nil {
		return err
	}
	value, err := d.dump(n.Value)
	if err != nil {
		return err
	}
	d.result = map[string]any{"type": "struct_assign", "object": object, "key": n.Key.String(), "value": value}
	return nil
}

func (d *astDumper) VisitStructRead(n *domain.StructReadNode) error {
	object, err := d.dump(n.Object)
	if err != nil {
		return err
	}
	d.result = map[string]any{"type": "struct_read", "object": object, "key": n.Key.String()}
	return nil
}

func (d *astDumper) VisitImport(n *domain.ImportNode) error {
	d.result = map[string]any{"type": "import", "file_path": n.FilePath.String()}
	return nil
}

func (d *astDumper) VisitPass(n *domain.PassNode) error {
	d.result = map[string]any{"type": "pass"}
	return nil
}

func (d *astDumper) VisitReturn(n *domain.ReturnNode) error {
	value, err := d.dump(n.Value)
	if err != nil {
		return err
	}
	d.result = map[string]any{"type": "return", "value": value}
	return nil
}

func (d *astDumper) VisitBreak(n *domain.BreakNode) error {
	d.result = map[string]any{"type": "break"}
	return nil
}

func (d *astDumper) VisitContinue(n *domain.ContinueNode) error {
	d.result = map[string]any{"type": "continue"}
	return nil
}
