package querysql

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achapweske/silvernote/internal/queryir"
)

// TimestampLayout is the textual form of every timestamp column.
const TimestampLayout = "2006-01-02 15:04:05"

// Mode selects how Literal values are rendered.
type Mode int

const (
	// Bound renders "?" placeholders and returns the values as args.
	Bound Mode = iota

	// Inline renders SQL literals with single quotes doubled. Used for
	// display and for the documented textual form of each fragment.
	Inline
)

// Render converts an expression tree to SQL in a single pass.
// Returns (sql, args, error); args is empty in Inline mode.
func Render(e queryir.Expr, mode Mode) (string, []any, error) {
	r := &renderer{mode: mode}
	if err := r.expr(e); err != nil {
		return "", nil, err
	}
	return r.sb.String(), r.args, nil
}

// MustRender is like Render but panics on error.
// Use only in tests or with trees built by this package.
func MustRender(e queryir.Expr, mode Mode) string {
	sql, _, err := Render(e, mode)
	if err != nil {
		panic(err)
	}
	return sql
}

// Quote returns s as a single-quoted SQL string literal.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// FormatTimestamp renders t the way timestamp columns store it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

type renderer struct {
	mode Mode
	sb   strings.Builder
	args []any
}

func (r *renderer) expr(e queryir.Expr) error {
	switch n := e.(type) {
	case nil:
		return fmt.Errorf("cannot render nil expression")
	case queryir.Column:
		r.sb.WriteString(n.String())
	case queryir.Literal:
		return r.literal(n.Value)
	case queryir.Raw:
		r.sb.WriteString(string(n))
	case queryir.Keyword:
		r.sb.WriteString(string(n))
	case queryir.Compare:
		return r.compare(n)
	case queryir.Match:
		r.sb.WriteString(n.Table)
		r.sb.WriteString(" MATCH ")
		r.sb.WriteString(Quote(n.Query))
	case queryir.Like:
		r.sb.WriteString(n.Left.String())
		r.sb.WriteString(" LIKE ")
		return r.literal(n.Pattern)
	case queryir.In:
		r.sb.WriteString(n.Left.String())
		if n.Not {
			r.sb.WriteString(" NOT")
		}
		r.sb.WriteString(" IN (")
		if err := r.selectStmt(n.Sub); err != nil {
			return err
		}
		r.sb.WriteString(")")
	case queryir.Exists:
		if n.Not {
			r.sb.WriteString("NOT ")
		}
		r.sb.WriteString("EXISTS (")
		if err := r.selectStmt(n.Sub); err != nil {
			return err
		}
		r.sb.WriteString(")")
	case queryir.Const:
		if n {
			r.sb.WriteString("1=1")
		} else {
			r.sb.WriteString("1=0")
		}
	case queryir.Seq:
		return r.join(n.Items, " ")
	case queryir.Group:
		r.sb.WriteString("(")
		if err := r.join(n.Items, " "); err != nil {
			return err
		}
		r.sb.WriteString(")")
	case queryir.And:
		return r.join(n.Terms, " AND ")
	case queryir.Select:
		return r.selectStmt(n)
	default:
		return fmt.Errorf("unsupported expression type: %T", e)
	}
	return nil
}

func (r *renderer) join(items []queryir.Expr, sep string) error {
	for i, item := range items {
		if i > 0 {
			r.sb.WriteString(sep)
		}
		if err := r.expr(item); err != nil {
			return err
		}
	}
	return nil
}

// compare renders equality without spaces ("name='Work'") and every other
// operator with spaces ("Notes.created_at > '...'").
func (r *renderer) compare(c queryir.Compare) error {
	r.sb.WriteString(c.Left.String())
	if c.Op == "=" {
		r.sb.WriteString("=")
	} else {
		r.sb.WriteString(" " + c.Op + " ")
	}
	return r.expr(c.Right)
}

func (r *renderer) selectStmt(s queryir.Select) error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("select without columns")
	}
	if len(s.From) == 0 {
		return fmt.Errorf("select without tables")
	}

	r.sb.WriteString("SELECT ")
	if err := r.join(s.Columns, ", "); err != nil {
		return err
	}
	r.sb.WriteString(" FROM ")
	r.sb.WriteString(strings.Join(s.From, ", "))

	if s.Where != nil {
		r.sb.WriteString(" WHERE ")
		if err := r.expr(s.Where); err != nil {
			return fmt.Errorf("render where: %w", err)
		}
	}

	for i, o := range s.OrderBy {
		if i == 0 {
			r.sb.WriteString(" ORDER BY ")
		} else {
			r.sb.WriteString(", ")
		}
		r.sb.WriteString(o.Column.String())
		if o.Desc {
			r.sb.WriteString(" DESC")
		} else {
			r.sb.WriteString(" ASC")
		}
	}

	if s.Limit > 0 {
		r.sb.WriteString(" LIMIT ")
		if err := r.literal(s.Limit); err != nil {
			return err
		}
		r.sb.WriteString(" OFFSET ")
		if err := r.literal(s.Offset); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) literal(v any) error {
	if t, ok := v.(time.Time); ok {
		v = FormatTimestamp(t)
	}

	if r.mode == Bound {
		switch v.(type) {
		case nil, string, int, int64, bool:
			r.sb.WriteString("?")
			r.args = append(r.args, v)
			return nil
		default:
			return fmt.Errorf("unsupported literal type: %T", v)
		}
	}

	switch val := v.(type) {
	case nil:
		r.sb.WriteString("NULL")
	case string:
		r.sb.WriteString(Quote(val))
	case int:
		r.sb.WriteString(strconv.Itoa(val))
	case int64:
		r.sb.WriteString(strconv.FormatInt(val, 10))
	case bool:
		if val {
			r.sb.WriteString("1")
		} else {
			r.sb.WriteString("0")
		}
	default:
		return fmt.Errorf("unsupported literal type: %T", v)
	}
	return nil
}
