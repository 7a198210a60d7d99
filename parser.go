package sheetcalc

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeKind is the tagged-variant discriminant for Node (§4.2): every
// expression tree produced by the parser, and every tree walked by the
// evaluator and the reference transformer, is one of these kinds.
type NodeKind int

const (
	NodeNumber NodeKind = iota
	NodeString
	NodeBoolean
	NodeError
	NodeReference
	NodeRange
	NodeWrongReference
	NodeOpSum
	NodeOpProduct
	NodeOpPower
	NodeOpConcat
	NodeOpCompare
	NodeOpUnary
	NodeFunctionCall
	NodeInvalidFunction
	NodeDefinedName
	NodeEmpty
	NodeParseError
)

// UnaryOp distinguishes the three unary/postfix operators the parser
// recognises: prefix negation, prefix plus (a no-op, kept so the
// round-trip property in §8 can reproduce a leading "+"), and postfix
// percent.
type UnaryOp int

const (
	UnaryNegate UnaryOp = iota
	UnaryPlus
	UnaryPercent
)

// Node is a single expression-tree node. Only the fields relevant to Kind
// are meaningful, mirroring the flat tagged-variant style used by Token
// and Cell elsewhere in this package (§9 "Sum-typed cell contents &
// value lattice": pattern-match over a tagged variant, no subclassing).
type Node struct {
	Kind NodeKind
	Pos  int

	Number    float64
	Str       string
	Bool      bool
	ErrorCode ErrorCode

	Ref      ReferencePart // NodeReference, and the left side of NodeRange
	RangeEnd ReferencePart // right side of NodeRange

	Lhs     *Node
	Rhs     *Node
	Operand *Node

	SumOp     SumOp
	ProductOp ProductOp
	CompareOp CompareOp
	UnaryOp   UnaryOp

	// FuncName is the resolved function name (upper-cased, _xlfn.-less);
	// it indexes the closed registry in functions.go. InvalidFunction
	// nodes keep the original, unresolved spelling here instead.
	FuncName string
	Args     []*Node

	// Name is the DefinedName identifier.
	Name string

	// Message carries the human-readable detail for WrongReference and
	// ParseError nodes (§4.2 "Errors during parsing are embedded").
	Message string
}

// ParseResult is the parser's top-level output: the tree plus an Ok flag
// (false iff the tree contains at least one ParseError/InvalidFunction
// node anywhere).
type ParseResult struct {
	Root *Node
	Ok   bool
}

// ParserContext supplies the coordinate a relative R1C1 reference is
// authored against, and which dialect/locale/language the embedded
// lexer should use.
type ParserContext struct {
	Dialect  Dialect
	Locale   *Locale
	Language *Language
}

// Parser performs Pratt/precedence-climbing parsing over a Lexer's
// token stream (§4.2). It buffers one token of lookahead plus limited
// rewind via the lexer's SetPosition, used only to disambiguate ranges.
type Parser struct {
	lexer *Lexer
	tok   Token
	valid bool
}

// Parse tokenises and parses formula (without its leading '=') in ctx,
// returning the expression tree and whether it is free of embedded
// parse errors.
func Parse(formula string, ctx ParserContext) ParseResult {
	lexer := NewLexer(formula, LexerConfig{Dialect: ctx.Dialect, Locale: ctx.Locale, Language: ctx.Language})
	p := &Parser{lexer: lexer, valid: true}
	p.advance()
	root := p.parseExpr(precLowest)
	if p.tok.Kind != TokenEOF {
		root = &Node{Kind: NodeParseError, Pos: p.tok.Pos, Message: "unexpected trailing input", Operand: root}
		p.valid = false
	}
	return ParseResult{Root: root, Ok: p.valid}
}

func (p *Parser) advance() {
	p.tok = p.lexer.NextToken()
	if p.tok.Kind == TokenIllegal {
		p.valid = false
	}
}

// precedence levels, lowest to highest (§4.2).
const (
	precLowest = iota
	precCompare
	precConcat
	precAdditive
	precMultiplicative
	precExponent
	precUnary
	precPercent
)

func (p *Parser) parseExpr(minPrec int) *Node {
	left := p.parseUnary()
	for {
		prec, rightAssoc, ok := p.infixPrecedence()
		if !ok || prec < minPrec {
			return left
		}
		nextMin := prec + 1
		if rightAssoc {
			nextMin = prec
		}
		left = p.parseInfix(left, nextMin)
	}
}

func (p *Parser) infixPrecedence() (prec int, rightAssoc bool, ok bool) {
	switch p.tok.Kind {
	case TokenCompare:
		return precCompare, false, true
	case TokenAmpersand:
		return precConcat, false, true
	case TokenSum:
		return precAdditive, false, true
	case TokenProduct:
		return precMultiplicative, false, true
	case TokenPower:
		return precExponent, true, true
	case TokenPercent:
		return precPercent, false, true
	}
	return 0, false, false
}

func (p *Parser) parseInfix(left *Node, nextMin int) *Node {
	switch p.tok.Kind {
	case TokenPercent:
		pos := p.tok.Pos
		p.advance()
		return &Node{Kind: NodeOpUnary, Pos: pos, UnaryOp: UnaryPercent, Operand: left}
	case TokenCompare:
		op := p.tok.CompareOp
		pos := p.tok.Pos
		p.advance()
		right := p.parseExpr(nextMin)
		return &Node{Kind: NodeOpCompare, Pos: pos, CompareOp: op, Lhs: left, Rhs: right}
	case TokenAmpersand:
		pos := p.tok.Pos
		p.advance()
		right := p.parseExpr(nextMin)
		return &Node{Kind: NodeOpConcat, Pos: pos, Lhs: left, Rhs: right}
	case TokenSum:
		op := p.tok.SumOp
		pos := p.tok.Pos
		p.advance()
		right := p.parseExpr(nextMin)
		return &Node{Kind: NodeOpSum, Pos: pos, SumOp: op, Lhs: left, Rhs: right}
	case TokenProduct:
		op := p.tok.ProductOp
		pos := p.tok.Pos
		p.advance()
		right := p.parseExpr(nextMin)
		return &Node{Kind: NodeOpProduct, Pos: pos, ProductOp: op, Lhs: left, Rhs: right}
	case TokenPower:
		pos := p.tok.Pos
		p.advance()
		right := p.parseExpr(nextMin)
		return &Node{Kind: NodeOpPower, Pos: pos, Lhs: left, Rhs: right}
	}
	return left
}

// parseUnary handles prefix '-'/'+' (binding tighter than any binary
// operator except percent) before falling through to a primary.
func (p *Parser) parseUnary() *Node {
	if p.tok.Kind == TokenSum {
		op := p.tok.SumOp
		pos := p.tok.Pos
		p.advance()
		operand := p.parseExpr(precUnary)
		kind := UnaryPlus
		if op == SumMinus {
			kind = UnaryNegate
		}
		return &Node{Kind: NodeOpUnary, Pos: pos, UnaryOp: kind, Operand: operand}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() *Node {
	tok := p.tok
	switch tok.Kind {
	case TokenNumber:
		p.advance()
		return &Node{Kind: NodeNumber, Pos: tok.Pos, Number: tok.Number}
	case TokenString:
		p.advance()
		return &Node{Kind: NodeString, Pos: tok.Pos, Str: tok.Text}
	case TokenBoolean:
		p.advance()
		return &Node{Kind: NodeBoolean, Pos: tok.Pos, Bool: tok.Bool}
	case TokenErrorLiteral:
		p.advance()
		return &Node{Kind: NodeError, Pos: tok.Pos, ErrorCode: tok.ErrorCode}
	case TokenReference:
		p.advance()
		return &Node{Kind: NodeReference, Pos: tok.Pos, Ref: tok.Ref}
	case TokenRange:
		p.advance()
		return p.buildRangeNode(tok)
	case TokenLParen:
		p.advance()
		inner := p.parseExpr(precLowest)
		if p.tok.Kind != TokenRParen {
			p.valid = false
			return &Node{Kind: NodeParseError, Pos: tok.Pos, Message: "expected ')'", Operand: inner}
		}
		p.advance()
		return inner
	case TokenIdent:
		return p.parseIdent(tok)
	case TokenEOF:
		p.valid = false
		return &Node{Kind: NodeEmpty, Pos: tok.Pos}
	default:
		p.valid = false
		msg := tok.Text
		if msg == "" {
			msg = fmt.Sprintf("unexpected token at position %d", tok.Pos)
		}
		p.advance()
		return &Node{Kind: NodeParseError, Pos: tok.Pos, Message: msg}
	}
}

// buildRangeNode turns a lexer-level RANGE token (two ReferenceParts
// already joined by ':') into a Range node, or a WrongReference (#REF!)
// error node if the two sides name different explicit sheets (§4.2
// "Range disambiguation").
func (p *Parser) buildRangeNode(tok Token) *Node {
	left, right := tok.Ref, tok.RangeEnd
	if left.HasSheet && right.HasSheet && !strings.EqualFold(left.Sheet, right.Sheet) {
		p.valid = false
		return &Node{Kind: NodeWrongReference, Pos: tok.Pos, ErrorCode: ErrorCodeRef, Message: "range cannot span two sheets"}
	}
	if right.HasSheet && !left.HasSheet {
		left.HasSheet = true
		left.Sheet = right.Sheet
	}
	return &Node{Kind: NodeRange, Pos: tok.Pos, Ref: left, RangeEnd: right}
}

// parseIdent resolves a bare identifier: a function call if followed by
// '(', a defined-name reference otherwise (§4.2 "Function-name
// resolution", "Defined names").
func (p *Parser) parseIdent(tok Token) *Node {
	name := tok.Text
	p.advance()
	if p.tok.Kind != TokenLParen {
		return &Node{Kind: NodeDefinedName, Pos: tok.Pos, Name: name}
	}
	p.advance() // consume '('
	var args []*Node
	if p.tok.Kind != TokenRParen {
		for {
			args = append(args, p.parseExpr(precLowest))
			if p.tok.Kind == TokenComma {
				p.advance()
				continue
			}
			break
		}
	}
	if p.tok.Kind != TokenRParen {
		p.valid = false
		return &Node{Kind: NodeParseError, Pos: tok.Pos, Message: "expected ')' to close function call " + name, Args: args}
	}
	p.advance()

	upper := strings.ToUpper(name)
	if _, ok := LookupFunction(upper); ok {
		return &Node{Kind: NodeFunctionCall, Pos: tok.Pos, FuncName: upper, Args: args}
	}
	p.valid = false
	return &Node{Kind: NodeInvalidFunction, Pos: tok.Pos, FuncName: name, Args: args}
}

// String renders n back to formula-source form in A1 dialect with no
// cell-context shifting. It is the key used to deduplicate identical
// formulas in the shared-formula pool (§3 "Shared-formula pool"); the
// context-aware, dialect-aware serialisation a cell actually stores
// comes from transform.go's Stringify.
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case NodeNumber:
		return formatNumberLiteral(n.Number)
	case NodeString:
		return "\"" + strings.ReplaceAll(n.Str, "\"", "\"\"") + "\""
	case NodeBoolean:
		if n.Bool {
			return "TRUE"
		}
		return "FALSE"
	case NodeError:
		return ErrorMapper[n.ErrorCode]
	case NodeReference:
		return stringifyReferencePart(n.Ref)
	case NodeRange:
		return stringifyReferencePart(n.Ref) + ":" + stringifyReferencePart(n.RangeEnd)
	case NodeWrongReference:
		return ErrorMapper[ErrorCodeRef]
	case NodeOpSum:
		op := "+"
		if n.SumOp == SumMinus {
			op = "-"
		}
		return n.Lhs.String() + op + n.Rhs.String()
	case NodeOpProduct:
		op := "*"
		if n.ProductOp == ProductDivide {
			op = "/"
		}
		return n.Lhs.String() + op + n.Rhs.String()
	case NodeOpPower:
		return n.Lhs.String() + "^" + n.Rhs.String()
	case NodeOpConcat:
		return n.Lhs.String() + "&" + n.Rhs.String()
	case NodeOpCompare:
		return n.Lhs.String() + compareOpString(n.CompareOp) + n.Rhs.String()
	case NodeOpUnary:
		switch n.UnaryOp {
		case UnaryNegate:
			return "-" + n.Operand.String()
		case UnaryPlus:
			return "+" + n.Operand.String()
		default:
			return n.Operand.String() + "%"
		}
	case NodeFunctionCall, NodeInvalidFunction:
		parts := make([]string, len(n.Args))
		for i, a := range n.Args {
			parts[i] = a.String()
		}
		return stringifyFunctionName(n.FuncName) + "(" + strings.Join(parts, ",") + ")"
	case NodeDefinedName:
		return n.Name
	case NodeEmpty:
		return ""
	case NodeParseError:
		return "#ERROR!"
	}
	return ""
}

func compareOpString(op CompareOp) string {
	switch op {
	case CompareEq:
		return "="
	case CompareNe:
		return "<>"
	case CompareLt:
		return "<"
	case CompareLe:
		return "<="
	case CompareGt:
		return ">"
	case CompareGe:
		return ">="
	}
	return "="
}

func formatNumberLiteral(v float64) string {
	if v == float64(int64(v)) && v > -1e15 && v < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func stringifyReferencePart(ref ReferencePart) string {
	var sb strings.Builder
	if ref.HasSheet {
		sb.WriteString(quoteSheetNameIfNeeded(ref.Sheet))
		sb.WriteByte('!')
	}
	if ref.AbsCol {
		sb.WriteByte('$')
	}
	sb.WriteString(columnIndexToLetters(ref.Column))
	if ref.AbsRow {
		sb.WriteByte('$')
	}
	sb.WriteString(strconv.FormatUint(uint64(ref.Row), 10))
	return sb.String()
}

// quoteSheetNameIfNeeded applies §4.7's quoting rule: quote iff the name
// contains anything other than [A-Za-z0-9_] or starts with a digit,
// doubling any embedded single quote.
func quoteSheetNameIfNeeded(name string) string {
	needsQuote := name == ""
	for i, r := range name {
		if r == '_' || isASCIILetter(r) || isASCIIDigit(r) {
			if i == 0 && isASCIIDigit(r) {
				needsQuote = true
			}
			continue
		}
		needsQuote = true
	}
	if !needsQuote {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
