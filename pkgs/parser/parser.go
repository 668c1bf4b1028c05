// Package parser turns S-expression source into lang.Expr term trees.
//
// The grammar is deliberately small: an atom is a finite numeric literal or
// a symbol, a compound is `(op arg…)` where op is one of the fixed operator
// heads and the argument count must match the operator's arity. The parser
// trusts the lexer to have handled whitespace and tokenization, focusing
// purely on assembling the term tree.
package parser

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/modelica-tools/eqsat/pkgs/lang"
	"github.com/modelica-tools/eqsat/pkgs/lexer"
)

// Parser implements a recursive descent parser over the token slice.
type Parser struct {
	input  string // raw input, kept for error snippets
	tokens []lexer.Token
	pos    int // current position in the token slice
}

// Parse tokenizes and parses the input string into a single expression.
// Trailing tokens after the expression are an error.
func Parse(input string) (*lang.Expr, error) {
	lex := lexer.New(input)
	p := &Parser{
		input:  input,
		tokens: lex.TokenizeToSlice(),
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.current(); tok.Type != lexer.EOF {
		return nil, p.errorf(ErrorSyntax, tok, "unexpected %s after expression", tok.Type)
	}
	return expr, nil
}

// parseExpr parses one expression: an atom or a parenthesized compound.
// Expr = NUMBER | IDENT | "(" op Expr… ")"
func (p *Parser) parseExpr() (*lang.Expr, error) {
	tok := p.current()
	switch tok.Type {
	case lexer.NUMBER:
		p.advance()
		return p.parseNumber(tok)
	case lexer.IDENT:
		p.advance()
		return p.parseSymbol(tok)
	case lexer.LPAREN:
		p.advance()
		return p.parseCompound(tok)
	case lexer.EOF:
		return nil, p.errorf(ErrorSyntax, tok, "unexpected end of input, expected an expression")
	default:
		return nil, p.errorf(ErrorSyntax, tok, "unexpected %s, expected an expression", tok.Type)
	}
}

// parseCompound parses the body of a parenthesized application. The opening
// parenthesis has already been consumed.
func (p *Parser) parseCompound(open lexer.Token) (*lang.Expr, error) {
	head := p.current()
	if head.Type != lexer.IDENT {
		return nil, p.errorf(ErrorSyntax, head, "expected an operator after '(', got %s", head.Type)
	}
	op, ok := lang.LookupOp(head.Value)
	if !ok {
		return nil, p.errorf(ErrorSyntax, head, "unknown operator %q", head.Value)
	}
	p.advance()

	args := make([]*lang.Expr, 0, op.Arity())
	for p.current().Type != lexer.RPAREN {
		if p.current().Type == lexer.EOF {
			return nil, p.errorf(ErrorSyntax, p.current(), "missing ')' to close '(' at %d:%d", open.Line, open.Column)
		}
		if len(args) == op.Arity() {
			return nil, p.errorf(ErrorArity, p.current(), "operator %q takes %d arguments", op, op.Arity())
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	p.advance() // consume ')'

	if len(args) != op.Arity() {
		return nil, p.errorf(ErrorArity, head, "operator %q takes %d arguments, got %d", op, op.Arity(), len(args))
	}
	return lang.Apply(op, args...), nil
}

func (p *Parser) parseNumber(tok lexer.Token) (*lang.Expr, error) {
	v, err := strconv.ParseFloat(tok.Value, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, p.errorf(ErrorNonFinite, tok, "non-finite literal %q", tok.Value)
		}
		return nil, p.errorf(ErrorSyntax, tok, "invalid numeric literal %q", tok.Value)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, p.errorf(ErrorNonFinite, tok, "non-finite literal %q", tok.Value)
	}
	return lang.Constant(v), nil
}

func (p *Parser) parseSymbol(tok lexer.Token) (*lang.Expr, error) {
	// "NaN" and friends would otherwise slip through as symbols and later
	// masquerade as constants in host systems; reject them here.
	switch strings.ToLower(strings.TrimLeft(tok.Value, "+-")) {
	case "nan", "inf", "infinity":
		return nil, p.errorf(ErrorNonFinite, tok, "non-finite literal %q", tok.Value)
	}
	return lang.SymbolExpr(lang.Intern(tok.Value)), nil
}

// --- Token helpers ---

func (p *Parser) current() lexer.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return p.tokens[len(p.tokens)-1] // EOF
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
}
