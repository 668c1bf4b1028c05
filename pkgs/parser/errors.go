package parser

import (
	"fmt"
	"strings"

	"github.com/modelica-tools/eqsat/pkgs/lexer"
)

// ErrorType represents different categories of parsing errors
type ErrorType int

const (
	ErrorSyntax ErrorType = iota
	ErrorArity
	ErrorNonFinite
)

func (e ErrorType) String() string {
	switch e {
	case ErrorSyntax:
		return "syntax error"
	case ErrorArity:
		return "arity error"
	case ErrorNonFinite:
		return "non-finite constant"
	default:
		return "error"
	}
}

// ParseError represents a parsing error with location and context information
type ParseError struct {
	Type    ErrorType
	Message string
	Token   lexer.Token
	Input   string
}

// Error returns the formatted error message with line/column and code snippet
func (e *ParseError) Error() string {
	snippet := e.createCodeSnippet()
	if snippet == "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s\n%s", e.Type, e.Message, snippet)
}

// createCodeSnippet creates a code snippet showing the error location
func (e *ParseError) createCodeSnippet() string {
	if e.Input == "" || e.Token.Line == 0 {
		return ""
	}

	lines := strings.Split(e.Input, "\n")
	if e.Token.Line > len(lines) {
		return ""
	}
	lineContent := lines[e.Token.Line-1]

	var snippet strings.Builder
	snippet.WriteString(fmt.Sprintf("  --> %d:%d\n", e.Token.Line, e.Token.Column))
	snippet.WriteString("   |\n")
	snippet.WriteString(fmt.Sprintf("%2d | %s\n", e.Token.Line, lineContent))
	snippet.WriteString("   | ")
	if e.Token.Column > 0 && e.Token.Column <= len(lineContent)+1 {
		snippet.WriteString(strings.Repeat(" ", e.Token.Column-1) + "^")
	}
	return snippet.String()
}

func (p *Parser) errorf(kind ErrorType, tok lexer.Token, format string, args ...any) error {
	return &ParseError{
		Type:    kind,
		Message: fmt.Sprintf(format, args...),
		Token:   tok,
		Input:   p.input,
	}
}
