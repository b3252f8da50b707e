package querylang

import (
	"strconv"
	"strings"
)

// Operator and grouping tokens.
const (
	OpAnd      = "AND"
	OpOr       = "OR"
	OpNot      = "NOT"
	OpExcept   = "EXCEPT"
	OpNear     = "NEAR"
	OpenParen  = "("
	CloseParen = ")"
)

// Qualifiers recognized by the search language.
const (
	QualTitle      = "title:"
	QualContent    = "content:"
	QualCategory   = "category:"
	QualCategoryID = "categoryid:"
	QualTag        = "tag:"
)

// Canonical returns tok with operator words upper-cased and qualifiers
// lower-cased. Other tokens are returned unchanged.
func Canonical(tok string) string {
	if IsQualifier(tok) {
		return strings.ToLower(tok)
	}
	upper := strings.ToUpper(tok)
	switch upper {
	case OpAnd, OpOr, OpNot, OpExcept, OpNear:
		return upper
	}
	if IsNear(upper) {
		return upper
	}
	return tok
}

// IsQualifier reports whether tok is a qualifier such as "title:".
func IsQualifier(tok string) bool {
	return len(tok) > 1 && strings.HasSuffix(tok, ":")
}

// IsCategoryQualifier reports whether tok selects notes by category.
func IsCategoryQualifier(tok string) bool {
	switch strings.ToLower(tok) {
	case QualCategory, QualCategoryID, QualTag:
		return true
	}
	return false
}

// IsBinary reports whether tok is AND or OR.
func IsBinary(tok string) bool {
	u := strings.ToUpper(tok)
	return u == OpAnd || u == OpOr
}

// IsOperator reports whether tok is AND, OR or NOT.
func IsOperator(tok string) bool {
	return IsBinary(tok) || strings.EqualFold(tok, OpNot)
}

// IsNear reports whether tok is the proximity operator, bare or with a
// distance such as "near/5".
func IsNear(tok string) bool {
	u := strings.ToUpper(tok)
	if u == OpNear {
		return true
	}
	n, ok := strings.CutPrefix(u, OpNear+"/")
	if !ok {
		return false
	}
	_, err := strconv.Atoi(n)
	return err == nil
}

// IsStructural reports whether tok is a parenthesis or a boolean operator.
func IsStructural(tok string) bool {
	return tok == OpenParen || tok == CloseParen || IsOperator(tok)
}

// isArgument reports whether tok can serve as the argument of a qualifier.
func isArgument(tok string) bool {
	return !IsStructural(tok) && !IsQualifier(tok) && !strings.EqualFold(tok, OpExcept)
}
