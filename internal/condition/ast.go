package condition

type node interface {
	pos() int
}

type literalNode struct {
	at  int
	val Value
}

type identNode struct {
	at   int
	name string
}

type listNode struct {
	at    int
	items []node
}

type callNode struct {
	at   int
	fn   string
	args []node
}

type unaryNode struct {
	at int
	op string // "-" or "not"
	x  node
}

// logicalNode is "and" / "or"
type logicalNode struct {
	at   int
	op   string
	x, y node
}

type arithNode struct {
	at   int
	op   string
	x, y node
}

// compareNode holds a comparison chain: operands[0] ops[0] operands[1] ops[1] ...
type compareNode struct {
	at       int
	ops      []string
	operands []node
}

func (n *literalNode) pos() int { return n.at }
func (n *identNode) pos() int   { return n.at }
func (n *listNode) pos() int    { return n.at }
func (n *callNode) pos() int    { return n.at }
func (n *unaryNode) pos() int   { return n.at }
func (n *logicalNode) pos() int { return n.at }
func (n *arithNode) pos() int   { return n.at }
func (n *compareNode) pos() int { return n.at }
