// Package parser implements the hand-written recursive-descent,
// precedence-climbing parser of spec.md §4.2.
package parser

import (
	"github.com/lumenlang/lumenc/internal/domain"
	"github.com/lumenlang/lumenc/internal/interfaces"
)

// Parser consumes a token stream from a Lexer and produces a single
// domain.Node — normally a *domain.StatementsNode.
type Parser struct {
	lex interfaces.Lexer
	ctx *domain.Context
}

// NewParser binds a parser to the token stream it will consume for the
// lifetime of a single Parse call; ctx supplies the diagnostic frame
// for any InvalidSyntax error raised along the way.
func NewParser(lex interfaces.Lexer, ctx *domain.Context) *Parser {
	return &Parser{lex: lex, ctx: ctx}
}

func (p *Parser) Parse() (domain.Node, error) {
	stmts, err := p.statementList(domain.TokenEOF)
	if err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) peek() (domain.Token, error) { return p.lex.Peek() }

func (p *Parser) next() (domain.Token, error) { return p.lex.NextToken() }

func (p *Parser) fail(pos domain.Position, msg string) error {
	return domain.NewError(domain.ErrInvalidSyntax, msg, &pos, p.ctx, domain.StageParsing)
}

func (p *Parser) expect(tt domain.TokenType) (domain.Token, error) {
	tok, err := p.next()
	if err != nil {
		return tok, err
	}
	if tok.Type != tt {
		return tok, p.fail(tok.Pos, "expected "+tt.String()+", got "+tok.Type.String())
	}
	return tok, nil
}

func (p *Parser) expectKeyword(word string) (domain.Token, error) {
	tok, err := p.next()
	if err != nil {
		return tok, err
	}
	if tok.Type != domain.TokenKeyword || tok.Value.(string) != word {
		return tok, p.fail(tok.Pos, "expected '"+word+"'")
	}
	return tok, nil
}

func (p *Parser) isKeyword(tok domain.Token, word string) bool {
	return tok.Type == domain.TokenKeyword && tok.Value.(string) == word
}

// skipNewlines consumes zero or more NEWLINE tokens, used at statement
// boundaries and before an optional ELSE clause.
func (p *Parser) skipNewlines() error {
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		if tok.Type != domain.TokenNewline {
			return nil
		}
		if _, err := p.next(); err != nil {
			return err
		}
	}
}

// statementList parses statements until `end` is peeked (not consumed)
// or EOF is reached.
func (p *Parser) statementList(end domain.TokenType) (*domain.StatementsNode, error) {
	startTok, err := p.peek()
	if err != nil {
		return nil, err
	}
	node := &domain.StatementsNode{BaseNode: domain.BaseNode{Pos: startTok.Pos}}
	for {
		if err := p.skipNewlines(); err != nil {
			return nil, err
		}
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Type == end || tok.Type == domain.TokenEOF {
			break
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		node.Expressions = append(node.Expressions, stmt)
	}
	return node, nil
}

// body parses `{ statements }` or `: expression`.
func (p *Parser) body() (domain.Node, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case domain.TokenLCurly:
		if _, err := p.next(); err != nil {
			return nil, err
		}
		stmts, err := p.statementList(domain.TokenRCurly)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(domain.TokenRCurly); err != nil {
			return nil, err
		}
		return stmts, nil
	case domain.TokenColon:
		if _, err := p.next(); err != nil {
			return nil, err
		}
		return p.expr()
	default:
		return nil, p.fail(tok.Pos, "expected '{' or ':' to start a body")
	}
}

func (p *Parser) statement() (domain.Node, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type == domain.TokenKeyword {
		switch tok.Value.(string) {
		case "IF":
			return p.ifStatement()
		case "WHILE":
			return p.whileStatement()
		case "FOR":
			return p.forStatement()
		case "FUN":
			return p.funDef(nil)
		case "CLASS":
			return p.structDef()
		case "IMPORT":
			return p.importStatement()
		case "PASS":
			tok, _ := p.next()
			return &domain.PassNode{BaseNode: domain.BaseNode{Pos: tok.Pos}}, nil
		case "RETURN":
			return p.returnStatement()
		case "BREAK":
			tok, _ := p.next()
			return &domain.BreakNode{BaseNode: domain.BaseNode{Pos: tok.Pos}}, nil
		case "CONTINUE":
			tok, _ := p.next()
			return &domain.ContinueNode{BaseNode: domain.BaseNode{Pos: tok.Pos}}, nil
		}
	}
	return p.expr()
}

func (p *Parser) ifStatement() (domain.Node, error) {
	start, err := p.expectKeyword("IF")
	if err != nil {
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	thenBody, err := p.body()
	if err != nil {
		return nil, err
	}
	node := &domain.IfNode{BaseNode: domain.BaseNode{Pos: start.Pos}, Condition: cond, Body: thenBody}

	// Allow a NEWLINE between `}` and `ELSE` without consuming an ELSE
	// that belongs to an outer statement list.
	save, err := p.peekSkippingNewlinesIfElse()
	if err != nil {
		return nil, err
	}
	if save {
		if _, err := p.expectKeyword("ELSE"); err != nil {
			return nil, err
		}
		elseBody, err := p.body()
		if err != nil {
			return nil, err
		}
		node.Else = elseBody
	}
	return node, nil
}

// peekSkippingNewlinesIfElse reports whether, after at most one NEWLINE,
// the next keyword is ELSE. That one NEWLINE is consumed either way; the
// ELSE itself is never consumed.
func (p *Parser) peekSkippingNewlinesIfElse() (bool, error) {
	tok, err := p.peek()
	if err != nil {
		return false, err
	}
	if tok.Type != domain.TokenNewline {
		return p.isKeyword(tok, "ELSE"), nil
	}
	// One token of real lookahead is all the lexer offers; consume the
	// newline and decide based on what follows. If it isn't ELSE, a bare
	// NEWLINE was already a valid statement terminator, so nothing is
	// lost by consuming it here too.
	if _, err := p.next(); err != nil {
		return false, err
	}
	tok, err = p.peek()
	if err != nil {
		return false, err
	}
	return p.isKeyword(tok, "ELSE"), nil
}

func (p *Parser) whileStatement() (domain.Node, error) {
	start, err := p.expectKeyword("WHILE")
	if err != nil {
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	b, err := p.body()
	if err != nil {
		return nil, err
	}
	return &domain.WhileNode{BaseNode: domain.BaseNode{Pos: start.Pos}, Condition: cond, Body: b}, nil
}

func (p *Parser) forStatement() (domain.Node, error) {
	start, err := p.expectKeyword("FOR")
	if err != nil {
		return nil, err
	}
	ident, err := p.expect(domain.TokenIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(domain.TokenAssign); err != nil {
		return nil, err
	}
	from, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(domain.TokenTo); err != nil {
		return nil, err
	}
	to, err := p.expr()
	if err != nil {
		return nil, err
	}
	var step domain.Node
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if p.isKeyword(tok, "STEP") {
		if _, err := p.next(); err != nil {
			return nil, err
		}
		step, err = p.expr()
		if err != nil {
			return nil, err
		}
	}
	b, err := p.body()
	if err != nil {
		return nil, err
	}
	return &domain.ForNode{
		BaseNode:   domain.BaseNode{Pos: start.Pos},
		Identifier: ident,
		From:       from,
		To:         to,
		Step:       step,
		Body:       b,
	}, nil
}

// funDef parses `FUN ident ( params ) (-> type)? body`. When implicitSelf
// is non-nil, it is prepended as the first parameter (CLASS methods).
func (p *Parser) funDef(implicitSelf *domain.Token) (*domain.FunDefNode, error) {
	start, err := p.expectKeyword("FUN")
	if err != nil {
		return nil, err
	}
	ident, err := p.expect(domain.TokenIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(domain.TokenLParen); err != nil {
		return nil, err
	}
	node := &domain.FunDefNode{BaseNode: domain.BaseNode{Pos: start.Pos}, Identifier: ident}
	if implicitSelf != nil {
		node.Args = append(node.Args, domain.Token{Type: domain.TokenIdentifier, Value: "self", Pos: start.Pos})
		node.ArgTypes = append(node.ArgTypes, *implicitSelf)
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type != domain.TokenRParen {
		for {
			argName, err := p.expect(domain.TokenIdentifier)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(domain.TokenColon); err != nil {
				return nil, err
			}
			argType, err := p.typeName()
			if err != nil {
				return nil, err
			}
			node.Args = append(node.Args, argName)
			node.ArgTypes = append(node.ArgTypes, argType)
			tok, err := p.peek()
			if err != nil {
				return nil, err
			}
			if tok.Type != domain.TokenComma {
				break
			}
			if _, err := p.next(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(domain.TokenRParen); err != nil {
		return nil, err
	}
	tok, err = p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type == domain.TokenArrow {
		if _, err := p.next(); err != nil {
			return nil, err
		}
		rt, err := p.typeName()
		if err != nil {
			return nil, err
		}
		node.ReturnType = rt
	} else {
		node.ReturnType = domain.Token{Type: domain.TokenTypeWord, Value: "null", Pos: start.Pos}
	}
	outerCtx := p.ctx
	p.ctx = domain.NewContext(p.ctx, ident.Value.(string), p.ctx.File, p.ctx.FileText)
	body, err := p.body()
	p.ctx = outerCtx
	if err != nil {
		return nil, err
	}
	node.Body = body
	return node, nil
}

// typeName parses a type word or a struct name, flattening a `list`
// qualifier into the `list:<element>` encoding spec.md §4.2 describes,
// supporting arbitrary nesting (`list:list:int`).
func (p *Parser) typeName() (domain.Token, error) {
	if peeked, err := p.peek(); err == nil && peeked.Type == domain.TokenIdentifier {
		return p.next() // a struct name, resolved later through the type registry
	}
	tok, err := p.expect(domain.TokenTypeWord)
	if err != nil {
		return tok, err
	}
	word := tok.Value.(string)
	if word == "list" {
		if _, err := p.expect(domain.TokenColon); err != nil {
			return tok, err
		}
		elem, err := p.typeName()
		if err != nil {
			return tok, err
		}
		tok.Value = "list:" + elem.Value.(string)
	}
	return tok, nil
}

func (p *Parser) structDef() (domain.Node, error) {
	start, err := p.expectKeyword("CLASS")
	if err != nil {
		return nil, err
	}
	ident, err := p.expect(domain.TokenIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(domain.TokenLCurly); err != nil {
		return nil, err
	}
	node := &domain.StructDefNode{BaseNode: domain.BaseNode{Pos: start.Pos}, Identifier: ident}
	for {
		if err := p.skipNewlines(); err != nil {
			return nil, err
		}
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Type == domain.TokenRCurly {
			break
		}
		if p.isKeyword(tok, "FUN") {
			fn, err := p.funDef(&ident)
			if err != nil {
				return nil, err
			}
			node.Functions = append(node.Functions, fn)
			continue
		}
		fieldName, err := p.expect(domain.TokenIdentifier)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(domain.TokenColon); err != nil {
			return nil, err
		}
		fieldType, err := p.typeName()
		if err != nil {
			return nil, err
		}
		node.FieldNames = append(node.FieldNames, fieldName)
		node.FieldTypes = append(node.FieldTypes, fieldType)
	}
	if _, err := p.expect(domain.TokenRCurly); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) importStatement() (domain.Node, error) {
	start, err := p.expectKeyword("IMPORT")
	if err != nil {
		return nil, err
	}
	ident, err := p.expect(domain.TokenIdentifier)
	if err != nil {
		return nil, err
	}
	return &domain.ImportNode{BaseNode: domain.BaseNode{Pos: start.Pos}, FilePath: ident}, nil
}

func (p *Parser) returnStatement() (domain.Node, error) {
	start, err := p.expectKeyword("RETURN")
	if err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type == domain.TokenNewline || tok.Type == domain.TokenRCurly || tok.Type == domain.TokenEOF {
		return &domain.ReturnNode{BaseNode: domain.BaseNode{Pos: start.Pos}}, nil
	}
	val, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &domain.ReturnNode{BaseNode: domain.BaseNode{Pos: start.Pos}, Value: val}, nil
}

// expr is the top of the precedence tower: op_expr.
func (p *Parser) expr() (domain.Node, error) { return p.opExpr() }

// opExpr: `&`, `|`, `~`, left-assoc.
func (p *Parser) opExpr() (domain.Node, error) {
	left, err := p.compExpr()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Type != domain.TokenAnd && tok.Type != domain.TokenOr && tok.Type != domain.TokenXor {
			return left, nil
		}
		opTok, _ := p.next()
		right, err := p.compExpr()
		if err != nil {
			return nil, err
		}
		left = p.binOp(left, opTok, right)
	}
}

// compExpr: optional prefix `!`, then `=`,`<>`,`<`,`>`,`<=`,`>=` left-assoc.
func (p *Parser) compExpr() (domain.Node, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type == domain.TokenNot {
		opTok, _ := p.next()
		operand, err := p.compExpr()
		if err != nil {
			return nil, err
		}
		return &domain.UnaryOpNode{BaseNode: domain.BaseNode{Pos: opTok.Pos}, Operator: opTok, Operand: operand}, nil
	}
	left, err := p.arithmExpr()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case domain.TokenEquals, domain.TokenUnequals, domain.TokenLess, domain.TokenGreater,
			domain.TokenLessEqual, domain.TokenGreaterEqual:
			opTok, _ := p.next()
			right, err := p.arithmExpr()
			if err != nil {
				return nil, err
			}
			left = p.binOp(left, opTok, right)
		default:
			return left, nil
		}
	}
}

// arithmExpr: `+`, `-`, left-assoc.
func (p *Parser) arithmExpr() (domain.Node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Type != domain.TokenPlus && tok.Type != domain.TokenMinus {
			return left, nil
		}
		opTok, _ := p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = p.binOp(left, opTok, right)
	}
}

// term: `*`, `/`, `%`, left-assoc.
func (p *Parser) term() (domain.Node, error) {
	left, err := p.factor()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Type != domain.TokenMul && tok.Type != domain.TokenDiv && tok.Type != domain.TokenMod {
			return left, nil
		}
		opTok, _ := p.next()
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		left = p.binOp(left, opTok, right)
	}
}

// factor: prefix `+`, `-`.
func (p *Parser) factor() (domain.Node, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type == domain.TokenPlus || tok.Type == domain.TokenMinus {
		opTok, _ := p.next()
		operand, err := p.factor()
		if err != nil {
			return nil, err
		}
		return &domain.UnaryOpNode{BaseNode: domain.BaseNode{Pos: opTok.Pos}, Operator: opTok, Operand: operand}, nil
	}
	return p.power()
}

// power: atom optionally followed by `[index]` (GET, or ListAssign on
// `<-`), then right-assoc `^`.
func (p *Parser) power() (domain.Node, error) {
	base, err := p.postfixAtom()
	if err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type == domain.TokenPow {
		opTok, _ := p.next()
		right, err := p.factor() // right-assoc: recurse back up, not power itself
		if err != nil {
			return nil, err
		}
		return p.binOp(base, opTok, right), nil
	}
	return base, nil
}

// postfixAtom parses an atom then zero or more `[index]` suffixes.
func (p *Parser) postfixAtom() (domain.Node, error) {
	node, err := p.atom()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Type != domain.TokenLSquare {
			return node, nil
		}
		if _, err := p.next(); err != nil {
			return nil, err
		}
		index, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(domain.TokenRSquare); err != nil {
			return nil, err
		}
		assignTok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if assignTok.Type == domain.TokenAssign {
			if _, err := p.next(); err != nil {
				return nil, err
			}
			value, err := p.expr()
			if err != nil {
				return nil, err
			}
			node = &domain.ListAssignNode{BaseNode: domain.BaseNode{Pos: node.GetPosition()}, List: node, Index: index, Value: value}
			continue
		}
		node = &domain.BinOpNode{
			BaseNode: domain.BaseNode{Pos: node.GetPosition()},
			Left:     node,
			Operator: domain.Token{Type: domain.TokenGet, Pos: node.GetPosition()},
			Right:    index,
		}
	}
}

func (p *Parser) binOp(left domain.Node, opTok domain.Token, right domain.Node) domain.Node {
	return &domain.BinOpNode{BaseNode: domain.BaseNode{Pos: left.GetPosition()}, Left: left, Operator: opTok, Right: right}
}

func (p *Parser) atom() (domain.Node, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case domain.TokenInt, domain.TokenFloat:
		return &domain.NumberNode{BaseNode: domain.BaseNode{Pos: tok.Pos}, Token: tok}, nil
	case domain.TokenString:
		return &domain.StringNode{BaseNode: domain.BaseNode{Pos: tok.Pos}, Token: tok}, nil
	case domain.TokenLParen:
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(domain.TokenRParen); err != nil {
			return nil, err
		}
		return inner, nil
	case domain.TokenLSquare:
		return p.listLiteral(tok)
	case domain.TokenKeyword:
		if tok.Value.(string) == "IF" {
			return p.ifExprFromKeyword(tok)
		}
		return nil, p.fail(tok.Pos, "unexpected keyword '"+tok.Value.(string)+"' in expression")
	case domain.TokenIdentifier:
		return p.identifierAtom(tok)
	default:
		return nil, p.fail(tok.Pos, "unexpected token "+tok.Type.String()+" in expression")
	}
}

// ifExprFromKeyword handles `IF` appearing as an atom (spec.md §4.2's
// atom production includes `if`), sharing ifStatement's structure.
func (p *Parser) ifExprFromKeyword(start domain.Token) (domain.Node, error) {
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	thenBody, err := p.body()
	if err != nil {
		return nil, err
	}
	node := &domain.IfNode{BaseNode: domain.BaseNode{Pos: start.Pos}, Condition: cond, Body: thenBody}
	hasElse, err := p.peekSkippingNewlinesIfElse()
	if err != nil {
		return nil, err
	}
	if hasElse {
		if _, err := p.expectKeyword("ELSE"); err != nil {
			return nil, err
		}
		elseBody, err := p.body()
		if err != nil {
			return nil, err
		}
		node.Else = elseBody
	}
	return node, nil
}

func (p *Parser) listLiteral(start domain.Token) (domain.Node, error) {
	node := &domain.ListNode{BaseNode: domain.BaseNode{Pos: start.Pos}}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type != domain.TokenRSquare {
		for {
			elem, err := p.expr()
			if err != nil {
				return nil, err
			}
			node.Elements = append(node.Elements, elem)
			tok, err := p.peek()
			if err != nil {
				return nil, err
			}
			if tok.Type != domain.TokenComma {
				break
			}
			if _, err := p.next(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(domain.TokenRSquare); err != nil {
		return nil, err
	}
	return node, nil
}

// identifierAtom handles a bare identifier, a call, and the chain of
// `.name`, `.name(...)`, `.name <- v` suffixes.
func (p *Parser) identifierAtom(ident domain.Token) (domain.Node, error) {
	var node domain.Node
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type == domain.TokenLParen {
		node, err = p.call(ident)
		if err != nil {
			return nil, err
		}
	} else if tok.Type == domain.TokenAssign {
		if _, err := p.next(); err != nil {
			return nil, err
		}
		value, err := p.expr()
		if err != nil {
			return nil, err
		}
		var typeAnn *domain.Token
		return &domain.VarAssignNode{BaseNode: domain.BaseNode{Pos: ident.Pos}, Name: ident, TypeAnnotation: typeAnn, Value: value}, nil
	} else if tok.Type == domain.TokenColon {
		if _, err := p.next(); err != nil {
			return nil, err
		}
		typeTok, err := p.typeName()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(domain.TokenAssign); err != nil {
			return nil, err
		}
		value, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &domain.VarAssignNode{BaseNode: domain.BaseNode{Pos: ident.Pos}, Name: ident, TypeAnnotation: &typeTok, Value: value}, nil
	} else {
		node = &domain.VarAccessNode{BaseNode: domain.BaseNode{Pos: ident.Pos}, Name: ident}
	}

	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Type != domain.TokenDot {
			return node, nil
		}
		if _, err := p.next(); err != nil {
			return nil, err
		}
		key, err := p.expect(domain.TokenIdentifier)
		if err != nil {
			return nil, err
		}
		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		switch next.Type {
		case domain.TokenLParen:
			args, err := p.argList()
			if err != nil {
				return nil, err
			}
			call := &domain.FunCallNode{BaseNode: domain.BaseNode{Pos: key.Pos}, Identifier: key, Args: append([]domain.Node{node}, args...)}
			node = call
		case domain.TokenAssign:
			if _, err := p.next(); err != nil {
				return nil, err
			}
			value, err := p.expr()
			if err != nil {
				return nil, err
			}
			node = &domain.StructAssignNode{BaseNode: domain.BaseNode{Pos: node.GetPosition()}, Object: node, Key: key, Value: value}
		default:
			node = &domain.StructReadNode{BaseNode: domain.BaseNode{Pos: node.GetPosition()}, Object: node, Key: key}
		}
	}
}

func (p *Parser) call(ident domain.Token) (domain.Node, error) {
	args, err := p.argList()
	if err != nil {
		return nil, err
	}
	return &domain.FunCallNode{BaseNode: domain.BaseNode{Pos: ident.Pos}, Identifier: ident, Args: args}, nil
}

func (p *Parser) argList() ([]domain.Node, error) {
	if _, err := p.expect(domain.TokenLParen); err != nil {
		return nil, err
	}
	var args []domain.Node
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type != domain.TokenRParen {
		for {
			arg, err := p.expr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			tok, err := p.peek()
			if err != nil {
				return nil, err
			}
			if tok.Type != domain.TokenComma {
				break
			}
			if _, err := p.next(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(domain.TokenRParen); err != nil {
		return nil, err
	}
	return args, nil
}
