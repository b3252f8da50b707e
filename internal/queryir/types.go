// Package queryir defines the expression tree that search queries are
// compiled into before rendering to SQL.
//
// Expr is a sealed interface: only types in this package implement it, so
// the renderer in querysql can switch over every node exhaustively.
//
// Values never appear as SQL text in the tree. They are carried as Literal
// nodes and the renderer decides whether to bind them as parameters or
// print them as quoted literals. The single exception is Match, whose
// query string belongs to the full-text engine's own syntax and is always
// printed inline.
package queryir

// Expr is any node of the tree.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Column references a column, optionally qualified by its table.
type Column struct {
	Table string
	Name  string
}

// Col is shorthand for a qualified Column.
func Col(table, name string) Column {
	return Column{Table: table, Name: name}
}

// String returns the column as it appears in SQL.
func (c Column) String() string {
	if c.Table == "" {
		return c.Name
	}
	return c.Table + "." + c.Name
}

// Literal is a value supplied by the caller.
// Supported values: string, int, int64, bool, time.Time, nil.
type Literal struct {
	Value any
}

// Lit wraps v in a Literal.
func Lit(v any) Literal {
	return Literal{Value: v}
}

// Raw is fixed SQL text such as "COUNT(*)". It must never carry user input.
type Raw string

// Keyword is a boolean connective or NOT placed between operands of a Seq.
type Keyword string

// Boolean connectives.
const (
	KwAnd Keyword = "AND"
	KwOr  Keyword = "OR"
	KwNot Keyword = "NOT"
)

// Compare is "<left> <op> <right>". Right is a Literal or a Column.
type Compare struct {
	Left  Column
	Op    string
	Right Expr
}

// Eq builds an equality comparison against a literal value.
func Eq(c Column, v any) Compare {
	return Compare{Left: c, Op: "=", Right: Lit(v)}
}

// EqCol builds an equality comparison between two columns.
func EqCol(a, b Column) Compare {
	return Compare{Left: a, Op: "=", Right: b}
}

// Match is a full-text MATCH against Table.
type Match struct {
	Table string
	Query string
}

// Like is "<left> LIKE <pattern>".
type Like struct {
	Left    Column
	Pattern string
}

// In is "<left> [NOT] IN (<sub>)".
type In struct {
	Left Column
	Not  bool
	Sub  Select
}

// Exists is "[NOT] EXISTS (<sub>)".
type Exists struct {
	Not bool
	Sub Select
}

// Const is an always-true or always-false condition.
type Const bool

// Seq renders its items separated by single spaces, left to right. It is
// how operands and Keywords are chained without imposing precedence.
type Seq struct {
	Items []Expr
}

// Group renders its items like Seq, wrapped in parentheses.
type Group struct {
	Items []Expr
}

// And renders its terms joined by AND.
type And struct {
	Terms []Expr
}

// OrderTerm is one ORDER BY key.
type OrderTerm struct {
	Column Column
	Desc   bool
}

// Select is a SELECT statement or subquery.
type Select struct {
	Columns []Expr
	From    []string
	Where   Expr // nil = no WHERE clause
	OrderBy []OrderTerm
	Limit   int // 0 = no LIMIT/OFFSET clause
	Offset  int
}

func (Column) exprNode()  {}
func (Literal) exprNode() {}
func (Raw) exprNode()     {}
func (Keyword) exprNode() {}
func (Compare) exprNode() {}
func (Match) exprNode()   {}
func (Like) exprNode()    {}
func (In) exprNode()      {}
func (Exists) exprNode()  {}
func (Const) exprNode()   {}
func (Seq) exprNode()     {}
func (Group) exprNode()   {}
func (And) exprNode()     {}
func (Select) exprNode()  {}
