package querylang

// Normalize repairs a token sequence so that every operator has operands,
// every qualifier has an argument and parentheses balance.
//
// Rules, applied until nothing changes:
//   - an empty "( )" pair is removed
//   - an operator directly before ")" or at the end is removed
//   - AND/OR followed by AND/OR keeps the leftmost
//   - NOT NOT collapses to NOT
//   - AND/OR at the start, after "(" or after NOT is removed
//   - a qualifier not followed by an argument is removed
//
// Missing parentheses are then added, ")" at the end and "(" at the
// start, and the rules run once more. Normalize(Normalize(x)) equals
// Normalize(x) for every x.
func Normalize(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = Canonical(tok)
	}
	out = rewrite(out)
	out = balance(out)
	return rewrite(out)
}

func rewrite(tokens []string) []string {
	for {
		next, changed := rewriteOnce(tokens)
		if !changed {
			return next
		}
		tokens = next
	}
}

func rewriteOnce(tokens []string) ([]string, bool) {
	for i, tok := range tokens {
		prev, next := "", ""
		if i > 0 {
			prev = tokens[i-1]
		}
		if i+1 < len(tokens) {
			next = tokens[i+1]
		}

		switch {
		case tok == OpenParen && next == CloseParen:
			return remove(tokens, i, 2), true
		case IsOperator(tok) && (next == CloseParen || next == ""):
			return remove(tokens, i, 1), true
		case IsBinary(tok) && IsBinary(next):
			return remove(tokens, i+1, 1), true
		case tok == OpNot && next == OpNot:
			return remove(tokens, i+1, 1), true
		case IsBinary(tok) && (prev == "" || prev == OpenParen || prev == OpNot):
			return remove(tokens, i, 1), true
		case IsQualifier(tok) && (next == "" || !isArgument(next)):
			return remove(tokens, i, 1), true
		}
	}
	return tokens, false
}

func remove(tokens []string, at, n int) []string {
	out := make([]string, 0, len(tokens)-n)
	out = append(out, tokens[:at]...)
	return append(out, tokens[at+n:]...)
}

func balance(tokens []string) []string {
	depth, missingOpen := 0, 0
	for _, tok := range tokens {
		switch tok {
		case OpenParen:
			depth++
		case CloseParen:
			if depth == 0 {
				missingOpen++
			} else {
				depth--
			}
		}
	}

	out := make([]string, 0, len(tokens)+missingOpen+depth)
	for i := 0; i < missingOpen; i++ {
		out = append(out, OpenParen)
	}
	out = append(out, tokens...)
	for i := 0; i < depth; i++ {
		out = append(out, CloseParen)
	}
	return out
}
