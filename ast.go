package selfcore

// This file defines the AST contract the interpreter consumes (spec.md
// §6). The lexer and parser that produce these trees are out of scope
// (spec.md §1); nothing in this package constructs a Script from source
// text except the driver's YAML loader (cmd/self/scriptfile.go), which
// exists only because no textual lexer is in scope, not because this
// package itself parses anything.
//
// The shape follows iolang's Message node (message.go) for the
// receiver/selector/arguments/source-range parts, but splits it into the
// distinct node kinds spec.md §6 names, since this language's AST is not
// homoiconic the way Io's is.

// SourceRange locates a node in its originating script, for error messages
// and stack traces (spec.md §6, §7).
type SourceRange struct {
	File   string
	Line   int
	Column int
	Offset int
}

// Script is the root AST node: an ordered sequence of top-level statements.
type Script struct {
	Statements []Statement
}

// Statement wraps a single top-level or body expression.
type Statement struct {
	Expression Expression
}

// Expression is the variant type for every expression kind spec.md §4.5
// enumerates. Concrete kinds: *ObjectLiteral, *BlockLiteral, *MessageNode,
// *ReturnNode, *IdentifierNode, *StringNode, *NumberNode.
type Expression interface {
	Range() SourceRange
	expressionNode()
}

// exprBase factors the common source-range field into every concrete
// Expression so each node only needs to embed it.
type exprBase struct {
	SrcRange SourceRange
}

func (e exprBase) Range() SourceRange { return e.SrcRange }
func (exprBase) expressionNode()      {}

// SetRange installs r as the node's source range. It exists so that
// external constructors of an AST (the YAML loader in cmd/self, or test
// fixtures) can attach a range after building a node with an ordinary
// composite literal, since exprBase itself is unexported and so cannot be
// named as a field in an external package's literal.
func (e *exprBase) SetRange(r SourceRange) { e.SrcRange = r }

// SlotSpec is one slot in an ObjectLiteral or BlockLiteral: spec.md §6's
// Slot{name, is_mutable, is_parent, is_argument, value}. Argument slots
// (is_argument) carry their Value as nil: a BlockLiteral's argument names
// are exactly its Slots entries with IsArgument set, taken in declaration
// order (spec.md §6 names only `slots` and `statements` on BlockLiteral —
// there is no separate argument-name list), and they are bound at
// activation time rather than evaluated when the literal is built.
type SlotSpec struct {
	Name       string
	IsMutable  bool
	IsParent   bool
	IsArgument bool
	Value      Expression // nil for argument slots
}

// ObjectLiteral constructs a fresh slots object (spec.md §4.5).
type ObjectLiteral struct {
	exprBase
	Slots      []SlotSpec
	Statements []Statement // not evaluated; method bodies come from a BlockLiteral with IsMethod set
}

// BlockLiteral constructs a Method or Block object (spec.md §4.5). Methods
// and blocks share this node; IsMethod distinguishes them in the evaluator:
// evaluating a BlockLiteral yields a method object when IsMethod is set and
// a block object (spec.md §3 "Block object") otherwise, matching how
// spec.md §4.5 describes them as sharing "the same structure."
type BlockLiteral struct {
	exprBase
	IsMethod   bool
	Slots      []SlotSpec
	Statements []Statement
}

// MessageNode sends Selector to Receiver with Arguments, evaluated in
// source order (spec.md §4.5, §5).
type MessageNode struct {
	exprBase
	Receiver  Expression // nil means "send to self"
	Selector  string
	Arguments []Expression
}

// ReturnNode is a non-local return (spec.md §4.5): evaluates Value and
// yields it as a NonLocalReturn completion targeting the enclosing method.
type ReturnNode struct {
	exprBase
	Value Expression
}

// IdentifierNode resolves a name against self (spec.md §4.5).
type IdentifierNode struct {
	exprBase
	Name string
}

// StringNode is a string literal; evaluating it allocates a byte-array
// object (spec.md §4.5).
type StringNode struct {
	exprBase
	Value string
}

// NumberNode is a numeric literal. IsFloat distinguishes "3" from "3.0" at
// the AST level so the evaluator can construct the correct tagged Value
// without re-parsing the text.
type NumberNode struct {
	exprBase
	IntValue   int64
	FloatValue float64
	IsFloat    bool
}
