package transform

import (
	"regexp"
	"strings"

	"github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/table"
)

// dangerousPatterns is the denylist applied to every query expression
// before it reaches the evaluator. It targets constructs that were
// exploitable through the upstream expression engines this log format
// has been replayed against: dunder attribute access, exec/eval-style
// calls, lambda, and module access.
//
// This is a denylist, not a sandbox: false negatives are possible by
// construction. Defense in depth comes from the evaluator itself, which
// resolves nothing beyond column names and literals.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)__import__`),
	regexp.MustCompile(`(?i)__builtins__`),
	regexp.MustCompile(`(?i)__class__`),
	regexp.MustCompile(`(?i)__subclasses__`),
	regexp.MustCompile(`(?i)__globals__`),
	regexp.MustCompile(`(?i)\bexec\b`),
	regexp.MustCompile(`(?i)\bos\b\s*\.`),
	regexp.MustCompile(`(?i)\bsys\b\s*\.`),
	regexp.MustCompile(`(?i)\blambda\b`),
	regexp.MustCompile(`(?i)\bopen\b\s*\(`),
	regexp.MustCompile(`(?i)\bcompile\b\s*\(`),
	regexp.MustCompile(`(?i)__\w+__`), // catch-all for dunder identifiers
}

// ValidateQuery rejects query strings matching the injection denylist.
// Runs before any parsing or evaluation.
func ValidateQuery(query string) error {
	for _, p := range dangerousPatterns {
		if p.MatchString(query) {
			return errors.NewTransformation("query contains potentially dangerous expressions")
		}
	}
	return nil
}

// PrepareQuery normalizes a validated query for the evaluator: single
// quotes become double quotes and column names that are not valid bare
// identifiers are wrapped in backticks so the parser can resolve them.
// Wrapping skips string literals: a column name mentioned inside quotes
// is data, not a reference.
func PrepareQuery(query string, t *table.Table) string {
	query = strings.TrimSpace(strings.ReplaceAll(query, "'", `"`))
	for _, name := range t.Names() {
		if !isIdentifier(name) && strings.Contains(query, name) {
			query = wrapOutsideQuotes(query, name)
		}
	}
	return query
}

// wrapOutsideQuotes backtick-wraps every occurrence of name that falls
// outside a double-quoted string literal. Quote normalization has
// already run, so double quotes are the only literal delimiter.
func wrapOutsideQuotes(query, name string) string {
	var b strings.Builder
	inString := false
	for i := 0; i < len(query); {
		c := query[i]
		if c == '"' {
			inString = !inString
			b.WriteByte(c)
			i++
			continue
		}
		if !inString && strings.HasPrefix(query[i:], name) {
			b.WriteString("`" + name + "`")
			i += len(name)
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

// isIdentifier reports whether a column name is a valid bare identifier:
// a letter or underscore followed by letters, digits, or underscores.
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
