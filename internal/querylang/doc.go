// Package querylang tokenizes and normalizes the end-user search language.
//
// The language is free text with an implicit AND between terms, quoted
// phrases, +/- prefix operators, explicit AND/OR/NOT, parenthesized
// grouping, the qualifiers title:, content:, category:, categoryid: and
// tag:, the proximity operator near (or near/N), and except as sugar for
// AND NOT.
//
// A raw query is split once into tokens and then projected twice: the
// phrase projection feeds the full-text engine and the category projection
// feeds the relational category filter. Both projections pass through
// Normalize, which repairs whatever the user typed into a well-formed,
// parenthesis-balanced sequence.
package querylang
