package db

import (
	"context"
	"strings"
	"unicode"
)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "is": true,
	"it": true, "and": true, "or": true, "with": true, "from": true,
	"by": true, "this": true, "that": true, "as": true, "be": true,
}

// SearchTerms preprocesses a free-text reference into lowercase search terms.
// Splits on whitespace, trims punctuation, drops stopwords and words < 2 chars.
func SearchTerms(query string) []string {
	var terms []string
	for _, w := range strings.Fields(query) {
		trimmed := strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-'
		})
		if len(trimmed) < 2 {
			continue
		}
		lower := strings.ToLower(trimmed)
		if stopwords[lower] {
			continue
		}
		terms = append(terms, lower)
	}
	return terms
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// SearchNodes returns nodes whose title or code contains every term.
// Returns an empty slice if the preprocessed query is empty.
func (d *DB) SearchNodes(ctx context.Context, query string) ([]Node, error) {
	terms := SearchTerms(query)
	if len(terms) == 0 {
		return []Node{}, nil
	}

	clauses := make([]string, len(terms))
	args := make([]any, 0, 2*len(terms))
	for i, t := range terms {
		clauses[i] = `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(code) LIKE ? ESCAPE '\')`
		pattern := "%" + escapeLike(t) + "%"
		args = append(args, pattern, pattern)
	}
	return d.queryNodes(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE `+strings.Join(clauses, " AND ")+` ORDER BY position, id`,
		args...)
}
