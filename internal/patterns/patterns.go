// Package patterns holds the shared library of categorized threat signatures
// used by input validation and threat detection. Rules are compiled once at
// startup; callers treat the library as read-only.
package patterns

import "regexp"

// Category groups signatures by the class of attack they indicate.
type Category string

const (
	CategoryXSS              Category = "xss"
	CategorySQLInjection     Category = "sql_injection"
	CategoryPathTraversal    Category = "path_traversal"
	CategoryCommandInjection Category = "command_injection"
)

// Signature is a single compiled detection rule.
type Signature struct {
	Name        string
	Category    Category
	Description string
	Pattern     *regexp.Regexp
}

// Library is the compiled, categorized rule set.
type Library struct {
	byCategory map[Category][]Signature
}

// NewLibrary compiles the built-in signature set.
func NewLibrary() *Library {
	lib := &Library{byCategory: make(map[Category][]Signature)}
	for _, sig := range builtin() {
		lib.byCategory[sig.Category] = append(lib.byCategory[sig.Category], sig)
	}
	return lib
}

// Match returns every signature matching the input, across all categories.
func (l *Library) Match(input string) []Signature {
	var hits []Signature
	for _, sigs := range l.byCategory {
		for _, sig := range sigs {
			if sig.Pattern.MatchString(input) {
				hits = append(hits, sig)
			}
		}
	}
	return hits
}

// MatchCategory returns signatures of a single category matching the input.
func (l *Library) MatchCategory(cat Category, input string) []Signature {
	var hits []Signature
	for _, sig := range l.byCategory[cat] {
		if sig.Pattern.MatchString(input) {
			hits = append(hits, sig)
		}
	}
	return hits
}

// Categories returns the categories with at least one signature.
func (l *Library) Categories() []Category {
	cats := make([]Category, 0, len(l.byCategory))
	for cat := range l.byCategory {
		cats = append(cats, cat)
	}
	return cats
}

func builtin() []Signature {
	mustSig := func(name string, cat Category, desc, expr string) Signature {
		return Signature{
			Name:        name,
			Category:    cat,
			Description: desc,
			Pattern:     regexp.MustCompile(expr),
		}
	}

	return []Signature{
		// XSS: script blocks, inline event handlers, protocol injection.
		mustSig("xss.script_tag", CategoryXSS,
			"inline script block",
			`(?i)<\s*script[^>]*>`),
		mustSig("xss.event_handler", CategoryXSS,
			"inline event handler attribute",
			`(?i)\bon(?:error|load|click|mouseover|focus|blur)\s*=`),
		mustSig("xss.protocol", CategoryXSS,
			"javascript/vbscript/data protocol injection",
			`(?i)(?:javascript|vbscript|data)\s*:`),
		mustSig("xss.iframe", CategoryXSS,
			"embedded frame injection",
			`(?i)<\s*(?:iframe|object|embed)[^>]*>`),

		// SQL injection: UNION probes and stacked mutation statements.
		mustSig("sql.union_select", CategorySQLInjection,
			"UNION-based extraction probe",
			`(?i)\bunion\s+(?:all\s+)?select\b`),
		mustSig("sql.stacked_drop", CategorySQLInjection,
			"stacked DROP/TRUNCATE statement",
			`(?i);\s*(?:drop|truncate)\s+(?:table|database)\b`),
		mustSig("sql.mutation", CategorySQLInjection,
			"injected INSERT/UPDATE/DELETE form",
			`(?i)\b(?:insert\s+into|update\s+\w+\s+set|delete\s+from)\b`),
		mustSig("sql.comment_tautology", CategorySQLInjection,
			"quote-tautology with trailing comment",
			`(?i)'\s*or\s+'?\d+'?\s*=\s*'?\d+|--\s*$`),

		// Path traversal: parent-directory escapes and null bytes.
		mustSig("path.parent_dir", CategoryPathTraversal,
			"parent directory escape",
			`(?:\.\./|\.\.\\)`),
		mustSig("path.encoded_parent", CategoryPathTraversal,
			"URL-encoded parent directory escape",
			`(?i)(?:%2e%2e[/\\]|%2e%2e%2f|\.\.%2f)`),
		mustSig("path.null_byte", CategoryPathTraversal,
			"null byte filename truncation",
			`%00|\x00`),

		// Command injection: metacharacters, substitution, backticks.
		mustSig("cmd.metachar", CategoryCommandInjection,
			"shell metacharacter chaining",
			`[;&|]\s*(?:rm|cat|curl|wget|nc|sh|bash|powershell)\b`),
		mustSig("cmd.substitution", CategoryCommandInjection,
			"command substitution",
			`\$\([^)]*\)`),
		mustSig("cmd.backtick", CategoryCommandInjection,
			"backtick execution",
			"`[^`]+`"),
	}
}
