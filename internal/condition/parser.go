package condition

import (
	"sort"
	"strconv"
	"strings"
)

const (
	maxConditionLength = 4096
	maxNestingDepth    = 64
)

// Program is a compiled condition. It is immutable and safe for concurrent use
type Program struct {
	source string
	root   node
	names  []string
}

// Compile parses a condition
func Compile(source string) (*Program, error) {
	if strings.TrimSpace(source) == "" {
		return nil, errorf("empty condition")
	}
	if len(source) > maxConditionLength {
		return nil, errorf("condition exceeds %d bytes", maxConditionLength)
	}
	toks, err := tokenize(source)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, names: map[string]struct{}{}}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, errorAt(tok.pos, "unexpected %q", tok.text)
	}
	names := make([]string, 0, len(p.names))
	for name := range p.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Program{source: source, root: root, names: names}, nil
}

// MustCompile is like Compile but panics on error
func MustCompile(source string) *Program {
	prog, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return prog
}

// Source returns the condition text
func (p *Program) Source() string { return p.source }

// Names returns the fact names the condition references, sorted
func (p *Program) Names() []string {
	return append([]string(nil), p.names...)
}

type parser struct {
	toks  []token
	i     int
	depth int
	names map[string]struct{}
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	tok := p.toks[p.i]
	if tok.kind != tokEOF {
		p.i++
	}
	return tok
}

func (p *parser) is(kind tokenKind, text string) bool {
	tok := p.peek()
	return tok.kind == kind && tok.text == text
}

func (p *parser) isOp(text string) bool      { return p.is(tokOp, text) }
func (p *parser) isKeyword(text string) bool { return p.is(tokKeyword, text) }

func (p *parser) expect(text string) error {
	if !p.isOp(text) {
		tok := p.peek()
		if tok.kind == tokEOF {
			return errorAt(tok.pos, "expected %q, found end of condition", text)
		}
		return errorAt(tok.pos, "expected %q, found %q", text, tok.text)
	}
	p.next()
	return nil
}

func (p *parser) enter(pos int) error {
	p.depth++
	if p.depth > maxNestingDepth {
		return errorAt(pos, "condition nested too deeply")
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) parseExpr() (node, error) {
	if err := p.enter(p.peek().pos); err != nil {
		return nil, err
	}
	defer p.leave()
	return p.parseOr()
}

func (p *parser) parseOr() (node, error) {
	x, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") || p.isOp("||") {
		at := p.next().pos
		y, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		x = &logicalNode{at: at, op: "or", x: x, y: y}
	}
	return x, nil
}

func (p *parser) parseAnd() (node, error) {
	x, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") || p.isOp("&&") {
		at := p.next().pos
		y, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		x = &logicalNode{at: at, op: "and", x: x, y: y}
	}
	return x, nil
}

func (p *parser) parseNot() (node, error) {
	if p.isKeyword("not") || p.isOp("!") {
		at := p.next().pos
		if err := p.enter(at); err != nil {
			return nil, err
		}
		defer p.leave()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &unaryNode{at: at, op: "not", x: x}, nil
	}
	return p.parseComparison()
}

func (p *parser) compareOp() (string, bool) {
	tok := p.peek()
	switch {
	case tok.kind == tokOp:
		switch tok.text {
		case "==", "!=", "<", "<=", ">", ">=":
			return tok.text, true
		}
	case tok.kind == tokKeyword && tok.text == "in":
		return "in", true
	case tok.kind == tokKeyword && tok.text == "not":
		if after := p.toks[p.i+1]; after.kind == tokKeyword && after.text == "in" {
			return "not in", true
		}
	}
	return "", false
}

func (p *parser) parseComparison() (node, error) {
	first, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	op, ok := p.compareOp()
	if !ok {
		return first, nil
	}
	cmp := &compareNode{at: p.peek().pos, operands: []node{first}}
	for ok {
		p.next()
		if op == "not in" {
			p.next()
		}
		y, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		cmp.ops = append(cmp.ops, op)
		cmp.operands = append(cmp.operands, y)
		op, ok = p.compareOp()
	}
	return cmp, nil
}

func (p *parser) parseAdditive() (node, error) {
	x, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		tok := p.next()
		y, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		x = &arithNode{at: tok.pos, op: tok.text, x: x, y: y}
	}
	return x, nil
}

func (p *parser) parseTerm() (node, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*") || p.isOp("/") || p.isOp("%") {
		tok := p.next()
		y, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		x = &arithNode{at: tok.pos, op: tok.text, x: x, y: y}
	}
	return x, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.isOp("-") || p.isOp("+") {
		tok := p.next()
		if err := p.enter(tok.pos); err != nil {
			return nil, err
		}
		defer p.leave()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if tok.text == "+" {
			return &unaryNode{at: tok.pos, op: "+", x: x}, nil
		}
		return &unaryNode{at: tok.pos, op: "-", x: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		f, err := strconv.ParseFloat(strings.ReplaceAll(tok.text, "_", ""), 64)
		if err != nil {
			return nil, errorAt(tok.pos, "invalid number %q", tok.text)
		}
		return &literalNode{at: tok.pos, val: Number(f)}, nil

	case tokString:
		return &literalNode{at: tok.pos, val: String(tok.text)}, nil

	case tokKeyword:
		switch tok.text {
		case "true":
			return &literalNode{at: tok.pos, val: Bool(true)}, nil
		case "false":
			return &literalNode{at: tok.pos, val: Bool(false)}, nil
		case "null":
			return &literalNode{at: tok.pos, val: Null()}, nil
		}
		return nil, errorAt(tok.pos, "unexpected %q", tok.text)

	case tokIdent:
		if p.isOp("(") {
			return p.parseCall(tok)
		}
		p.names[tok.text] = struct{}{}
		return &identNode{at: tok.pos, name: tok.text}, nil

	case tokOp:
		switch tok.text {
		case "(":
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return x, nil
		case "[":
			items, err := p.parseItems("]")
			if err != nil {
				return nil, err
			}
			return &listNode{at: tok.pos, items: items}, nil
		}
		return nil, errorAt(tok.pos, "unexpected %q", tok.text)

	default:
		return nil, errorAt(tok.pos, "unexpected end of condition")
	}
}

func (p *parser) parseCall(name token) (node, error) {
	fn, ok := builtins[name.text]
	if !ok {
		return nil, errorAt(name.pos, "unknown function %q", name.text)
	}
	p.next() // (
	args, err := p.parseItems(")")
	if err != nil {
		return nil, err
	}
	if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
		return nil, errorAt(name.pos, "%s() takes %s, got %d", name.text, fn.arity(), len(args))
	}
	return &callNode{at: name.pos, fn: name.text, args: args}, nil
}

// parseItems parses a comma separated expression list up to closer.
// A trailing comma is accepted
func (p *parser) parseItems(closer string) ([]node, error) {
	var items []node
	for !p.isOp(closer) {
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, x)
		if !p.isOp(",") {
			break
		}
		p.next()
	}
	if err := p.expect(closer); err != nil {
		return nil, err
	}
	return items, nil
}
