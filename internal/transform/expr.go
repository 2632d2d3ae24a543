package transform

import (
	"strconv"
	"strings"

	"github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/table"
)

// Query filters rows with a free-form boolean expression over column
// names. The expression never touches a general-purpose evaluator: a
// small parser supports comparison and logical operators over column
// references and literals, and the evaluation context holds nothing but
// the table's columns.
//
//	expr    := and ( "or" and )*
//	and     := not ( "and" not )*
//	not     := "not" not | cmp
//	cmp     := primary ( ("=="|"="|"!="|">="|"<="|">"|"<") primary )?
//	primary := ident | `ident` | number | string | bool | "(" expr ")"
func Query(t *table.Table, raw string) (*table.Table, error) {
	if err := ValidateQuery(raw); err != nil {
		return nil, err
	}
	prepared := PrepareQuery(raw, t)
	if prepared == "" {
		return nil, errors.NewTransformation("query must not be empty")
	}

	node, err := parseExpr(prepared)
	if err != nil {
		return nil, err
	}

	keep := make([]int, 0, t.RowCount())
	for row := 0; row < t.RowCount(); row++ {
		v, err := node.eval(t, row)
		if err != nil {
			return nil, err
		}
		if v.kind == boolVal && v.b {
			keep = append(keep, row)
		} else if v.kind != boolVal && v.kind != missingVal {
			return nil, errors.NewTransformation("query must evaluate to a boolean condition")
		}
	}
	return t.Select(keep), nil
}

// --- values ---

type valueKind int

const (
	missingVal valueKind = iota
	numberVal
	stringVal
	boolVal
)

type value struct {
	kind valueKind
	num  float64
	str  string
	b    bool
}

// --- AST ---

type exprNode interface {
	eval(t *table.Table, row int) (value, error)
}

type literalNode struct{ v value }

func (n literalNode) eval(*table.Table, int) (value, error) { return n.v, nil }

type columnNode struct{ name string }

func (n columnNode) eval(t *table.Table, row int) (value, error) {
	col, err := t.Column(n.name)
	if err != nil {
		return value{}, errors.NewTransformation("unknown name in query: %s", n.name)
	}
	cell := col.Cells[row]
	if cell.Missing {
		return value{kind: missingVal}, nil
	}
	switch col.Type {
	case table.TypeInt, table.TypeFloat:
		if v, ok := col.Float(row); ok {
			return value{kind: numberVal, num: v}, nil
		}
		return value{kind: missingVal}, nil
	case table.TypeBool:
		if v, ok := col.Bool(row); ok {
			return value{kind: boolVal, b: v}, nil
		}
		return value{kind: missingVal}, nil
	default:
		return value{kind: stringVal, str: cell.Raw}, nil
	}
}

type compareNode struct {
	op          string
	left, right exprNode
}

func (n compareNode) eval(t *table.Table, row int) (value, error) {
	l, err := n.left.eval(t, row)
	if err != nil {
		return value{}, err
	}
	r, err := n.right.eval(t, row)
	if err != nil {
		return value{}, err
	}
	b, err := compare(n.op, l, r)
	if err != nil {
		return value{}, err
	}
	return value{kind: boolVal, b: b}, nil
}

type logicNode struct {
	op          string // and, or
	left, right exprNode
}

func (n logicNode) eval(t *table.Table, row int) (value, error) {
	l, err := n.left.eval(t, row)
	if err != nil {
		return value{}, err
	}
	lb, err := asBool(l)
	if err != nil {
		return value{}, err
	}
	if n.op == "and" && !lb {
		return value{kind: boolVal, b: false}, nil
	}
	if n.op == "or" && lb {
		return value{kind: boolVal, b: true}, nil
	}
	r, err := n.right.eval(t, row)
	if err != nil {
		return value{}, err
	}
	rb, err := asBool(r)
	if err != nil {
		return value{}, err
	}
	return value{kind: boolVal, b: rb}, nil
}

type notNode struct{ inner exprNode }

func (n notNode) eval(t *table.Table, row int) (value, error) {
	v, err := n.inner.eval(t, row)
	if err != nil {
		return value{}, err
	}
	b, err := asBool(v)
	if err != nil {
		return value{}, err
	}
	return value{kind: boolVal, b: !b}, nil
}

// asBool coerces a value for logical operators. Missing counts as false.
func asBool(v value) (bool, error) {
	switch v.kind {
	case boolVal:
		return v.b, nil
	case missingVal:
		return false, nil
	default:
		return false, errors.NewTransformation("logical operators require boolean operands")
	}
}

// compare applies a comparison operator. Missing operands behave like
// NaN: unequal to everything, unordered against everything.
func compare(op string, l, r value) (bool, error) {
	if l.kind == missingVal || r.kind == missingVal {
		return op == "!=", nil
	}

	switch {
	case l.kind == numberVal && r.kind == numberVal:
		switch op {
		case "==":
			return l.num == r.num, nil
		case "!=":
			return l.num != r.num, nil
		case ">":
			return l.num > r.num, nil
		case "<":
			return l.num < r.num, nil
		case ">=":
			return l.num >= r.num, nil
		case "<=":
			return l.num <= r.num, nil
		}
	case l.kind == stringVal && r.kind == stringVal:
		switch op {
		case "==":
			return l.str == r.str, nil
		case "!=":
			return l.str != r.str, nil
		case ">":
			return l.str > r.str, nil
		case "<":
			return l.str < r.str, nil
		case ">=":
			return l.str >= r.str, nil
		case "<=":
			return l.str <= r.str, nil
		}
	case l.kind == boolVal && r.kind == boolVal:
		switch op {
		case "==":
			return l.b == r.b, nil
		case "!=":
			return l.b != r.b, nil
		default:
			return false, errors.NewTransformation("booleans only support equality comparison")
		}
	default:
		// Mixed types never match; ordering across types is an error.
		switch op {
		case "==":
			return false, nil
		case "!=":
			return true, nil
		default:
			return false, errors.NewTransformation("cannot order values of different types")
		}
	}
	return false, errors.NewTransformation("unsupported comparison operator: %s", op)
}

// --- lexer ---

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokOp     // comparison operators
	tokLParen
	tokRParen
	tokAnd
	tokOr
	tokNot
	tokBool
)

type token struct {
	kind tokenKind
	text string
}

func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == '"':
			end := strings.IndexByte(input[i+1:], '"')
			if end < 0 {
				return nil, errors.NewTransformation("unterminated string in query")
			}
			toks = append(toks, token{tokString, input[i+1 : i+1+end]})
			i += end + 2
		case c == '`':
			end := strings.IndexByte(input[i+1:], '`')
			if end < 0 {
				return nil, errors.NewTransformation("unterminated backtick name in query")
			}
			toks = append(toks, token{tokIdent, input[i+1 : i+1+end]})
			i += end + 2
		case strings.HasPrefix(input[i:], "==") || strings.HasPrefix(input[i:], "!=") ||
			strings.HasPrefix(input[i:], ">=") || strings.HasPrefix(input[i:], "<="):
			op := input[i : i+2]
			toks = append(toks, token{tokOp, op})
			i += 2
		case strings.HasPrefix(input[i:], "&&"):
			toks = append(toks, token{tokAnd, "and"})
			i += 2
		case strings.HasPrefix(input[i:], "||"):
			toks = append(toks, token{tokOr, "or"})
			i += 2
		case c == '>' || c == '<':
			toks = append(toks, token{tokOp, string(c)})
			i++
		case c == '=':
			toks = append(toks, token{tokOp, "=="})
			i++
		case c == '!':
			toks = append(toks, token{tokNot, "not"})
			i++
		case c == '-' || c == '.' || (c >= '0' && c <= '9'):
			j := i + 1
			for j < len(input) && (input[j] == '.' || input[j] == 'e' || input[j] == 'E' ||
				input[j] == '+' || input[j] == '-' || (input[j] >= '0' && input[j] <= '9')) {
				// stop a trailing +/- that is not part of an exponent
				if (input[j] == '+' || input[j] == '-') && input[j-1] != 'e' && input[j-1] != 'E' {
					break
				}
				j++
			}
			toks = append(toks, token{tokNumber, input[i:j]})
			i = j
		case isIdentStart(c):
			j := i + 1
			for j < len(input) && isIdentPart(input[j]) {
				j++
			}
			word := input[i:j]
			switch word {
			case "and":
				toks = append(toks, token{tokAnd, word})
			case "or":
				toks = append(toks, token{tokOr, word})
			case "not":
				toks = append(toks, token{tokNot, word})
			case "true", "True", "false", "False":
				toks = append(toks, token{tokBool, strings.ToLower(word)})
			default:
				toks = append(toks, token{tokIdent, word})
			}
			i = j
		default:
			return nil, errors.NewTransformation("unexpected character %q in query", string(c))
		}
	}
	toks = append(toks, token{tokEOF, ""})
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// --- parser ---

type parser struct {
	toks []token
	pos  int
}

func parseExpr(input string) (exprNode, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, errors.NewTransformation("unexpected token %q in query", p.peek().text)
	}
	return node, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	p.pos++
	return t
}

func (p *parser) parseOr() (exprNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = logicNode{op: "or", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (exprNode, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = logicNode{op: "and", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (exprNode, error) {
	if p.peek().kind == tokNot {
		p.next()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.parseCompare()
}

func (p *parser) parseCompare() (exprNode, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind == tokOp {
		op := p.next().text
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return compareNode{op: op, left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) parsePrimary() (exprNode, error) {
	tok := p.next()
	switch tok.kind {
	case tokIdent:
		return columnNode{name: tok.text}, nil
	case tokNumber:
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, errors.NewTransformation("invalid number %q in query", tok.text)
		}
		return literalNode{v: value{kind: numberVal, num: v}}, nil
	case tokString:
		return literalNode{v: value{kind: stringVal, str: tok.text}}, nil
	case tokBool:
		return literalNode{v: value{kind: boolVal, b: tok.text == "true"}}, nil
	case tokLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, errors.NewTransformation("missing closing parenthesis in query")
		}
		p.next()
		return inner, nil
	default:
		return nil, errors.NewTransformation("unexpected token %q in query", tok.text)
	}
}
