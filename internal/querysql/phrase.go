package querysql

import (
	"strings"
	"unicode"

	"github.com/achapweske/silvernote/internal/queryir"
	"github.com/achapweske/silvernote/internal/querylang"
)

// PhraseSQL compiles the phrase projection of a query into a full-text
// MATCH condition.
//
// The exact pair ["title:", X] becomes an equality on the indexed title.
// Otherwise terms are chained left to right: a space between adjacent
// terms (the engine's implicit AND), AND/OR/NEAR where given, NOT in place
// of any pending connective. title: and content: become column filters.
// The final term gets a trailing '*' for prefix matching unless it is a
// quoted phrase. When the user typed no operator and no qualifier and
// there is more than one term, the whole string is quoted so it matches
// as an exact phrase.
//
// The engine has no unary NOT. A top-level NOT with nothing on its left
// becomes "Notes.id NOT IN (SELECT docid ... MATCH <operand>)", ANDed with
// the rest of the phrase. Inside a group such a NOT is dropped together
// with its operand.
func PhraseSQL(tokens []string) Fragment {
	if len(tokens) == 0 {
		return Fragment{}
	}
	if len(tokens) == 2 && querylang.Canonical(tokens[0]) == querylang.QualTitle {
		return Fragment{
			Where:  queryir.Eq(queryir.Col(TableFullText, "title"), tokens[1]),
			Tables: NewTableSet(TableFullText),
		}
	}

	rest, negated := splitLeadingNots(tokens)
	var terms []queryir.Expr
	tables := NewTableSet()
	if query := phraseQuery(rest, len(negated) > 0); query != "" {
		terms = append(terms, queryir.Match{Table: TableFullText, Query: query})
		tables.Add(TableFullText)
	}
	for _, operand := range negated {
		if query := phraseQuery(operand, true); query != "" {
			terms = append(terms, excludeMatches(query))
		}
	}

	switch len(terms) {
	case 0:
		return Fragment{}
	case 1:
		return Fragment{Where: terms[0], Tables: tables}
	default:
		return Fragment{Where: queryir.And{Terms: terms}, Tables: tables}
	}
}

// excludeMatches is "Notes.id NOT IN (SELECT docid FROM FullTextSearch WHERE FullTextSearch MATCH <query>)".
func excludeMatches(query string) queryir.Expr {
	return queryir.In{
		Left: queryir.Col(TableNotes, "id"),
		Not:  true,
		Sub: queryir.Select{
			Columns: []queryir.Expr{queryir.Col("", "docid")},
			From:    []string{TableFullText},
			Where:   queryir.Match{Table: TableFullText, Query: query},
		},
	}
}

// splitLeadingNots removes every top-level NOT that has no left operand,
// together with that operand, and returns the operands separately.
func splitLeadingNots(tokens []string) (rest []string, negated [][]string) {
	var (
		depth   int
		operand bool
	)
	for i := 0; i < len(tokens); i++ {
		tok := querylang.Canonical(tokens[i])
		if depth == 0 && !operand && tok == querylang.OpNot {
			end := operandEnd(tokens, i+1)
			if end > i+1 {
				negated = append(negated, tokens[i+1:end])
			}
			i = end - 1
			continue
		}
		rest = append(rest, tokens[i])
		switch {
		case tok == querylang.OpenParen:
			depth++
		case tok == querylang.CloseParen:
			depth--
			operand = operand || depth == 0
		case depth == 0 && isTerm(tok):
			operand = true
		}
	}
	return rest, negated
}

// operandEnd returns the index just past the operand that starts at i:
// optional column qualifiers, then one term or one parenthesized group.
func operandEnd(tokens []string, i int) int {
	for i < len(tokens) && isColumnQualifier(querylang.Canonical(tokens[i])) {
		i++
	}
	if i >= len(tokens) {
		return i
	}
	tok := querylang.Canonical(tokens[i])
	if isTerm(tok) {
		return i + 1
	}
	if tok != querylang.OpenParen {
		return i
	}
	depth := 0
	for ; i < len(tokens); i++ {
		switch tokens[i] {
		case querylang.OpenParen:
			depth++
		case querylang.CloseParen:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return i
}

func isColumnQualifier(tok string) bool {
	return tok == querylang.QualTitle || tok == querylang.QualContent
}

func isTerm(tok string) bool {
	switch {
	case tok == querylang.OpenParen, tok == querylang.CloseParen, tok == querylang.OpNot:
		return false
	case isColumnQualifier(tok), querylang.IsBinary(tok), querylang.IsNear(tok):
		return false
	}
	return true
}

// phraseQuery renders tokens as a MATCH string. explicit marks a query in
// which the user typed an operator that is not part of tokens.
func phraseQuery(tokens []string, explicit bool) string {
	var (
		sb         strings.Builder
		operand    bool   // a left operand exists at this nesting level
		pendingOp  string // explicit connective awaiting its right operand
		pendingNot bool
		qualifier  string
		terms      int
		lastTerm   bool // the builder currently ends with an unquoted term
		skipDepth  int  // >0 while dropping a NOT group that has no left side
		open       []groupStart
	)

	separate := func() {
		switch {
		case operand && pendingNot:
			sb.WriteString(" NOT ")
		case operand && pendingOp != "":
			sb.WriteString(" " + pendingOp + " ")
		case operand:
			sb.WriteString(" ")
		}
		pendingOp, pendingNot = "", false
	}

	for _, raw := range tokens {
		tok := querylang.Canonical(raw)

		if skipDepth > 0 {
			switch tok {
			case querylang.OpenParen:
				skipDepth++
			case querylang.CloseParen:
				skipDepth--
			}
			continue
		}

		switch {
		case tok == querylang.OpenParen:
			if pendingNot && !operand {
				pendingNot, skipDepth = false, 1
				continue
			}
			open = append(open, groupStart{mark: sb.Len(), operand: operand, lastTerm: lastTerm})
			separate()
			sb.WriteString("(")
			operand, lastTerm = false, false
		case tok == querylang.CloseParen:
			if len(open) == 0 {
				continue
			}
			start := open[len(open)-1]
			open = open[:len(open)-1]
			pendingOp, pendingNot = "", false
			if !operand {
				// Nothing survived inside the group.
				kept := sb.String()[:start.mark]
				sb.Reset()
				sb.WriteString(kept)
				operand, lastTerm = start.operand, start.lastTerm
				continue
			}
			sb.WriteString(")")
			operand, lastTerm = true, false
		case querylang.IsBinary(tok) || querylang.IsNear(tok):
			pendingOp = tok
			explicit = true
		case tok == querylang.OpNot:
			pendingNot = true
			explicit = true
		case tok == querylang.QualTitle:
			qualifier = "title:"
			explicit = true
		case tok == querylang.QualContent:
			qualifier = "text:"
			explicit = true
		default:
			if pendingNot && !operand {
				pendingNot, qualifier = false, ""
				continue
			}
			term := strings.TrimSuffix(tok, ":")
			quoted := strings.IndexFunc(term, unicode.IsSpace) >= 0
			if quoted {
				term = `"` + term + `"`
			}
			separate()
			sb.WriteString(qualifier + term)
			qualifier = ""
			operand, lastTerm = true, !quoted
			terms++
		}
	}

	query := sb.String()
	if lastTerm && !strings.HasSuffix(query, "*") {
		query += "*"
	}
	if !explicit && terms > 1 {
		query = `"` + strings.ReplaceAll(query, `"`, "") + `"`
	}
	return query
}

// groupStart is the builder state saved at an opening parenthesis.
type groupStart struct {
	mark     int
	operand  bool
	lastTerm bool
}
