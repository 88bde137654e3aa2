package visibility

import (
	"regexp"
	"strings"
)

// RulesVersion identifies the rewrite table below. Bump it whenever a rule
// is added, removed or changes its replacement.
const RulesVersion = 2

// RewriteRule replaces every match of Pattern with Replacement.
type RewriteRule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

func (r RewriteRule) apply(s string) string {
	return r.Pattern.ReplaceAllString(s, r.Replacement)
}

var (
	comparativePattern = regexp.MustCompile(`(?i)\b(?:higher than|lower than|better than|worse than|compared to)\b`)
	neighborPattern    = regexp.MustCompile(`(?i)\bthe next-ranked candidate\b`)
	rankPattern        = regexp.MustCompile(`(?i)\branked\s*#\s*\d+`)
	pointsPattern      = regexp.MustCompile(`(?i)[-+]?\d+(?:\.\d+)?\s*points?\b`)
)

// cleanup runs after the role rules to tidy what they leave behind.
var cleanup = []RewriteRule{
	{Name: "empty-parens", Pattern: regexp.MustCompile(`\(\s*\)`), Replacement: ""},
	{Name: "collapse-space", Pattern: regexp.MustCompile(`\s+`), Replacement: " "},
	{Name: "space-before-punct", Pattern: regexp.MustCompile(`\s+([,.;:!?)])`), Replacement: "$1"},
	{Name: "space-after-paren", Pattern: regexp.MustCompile(`\(\s+`), Replacement: "("},
	{Name: "dangling-punct", Pattern: regexp.MustCompile(`[\s,;:-]+$`), Replacement: ""},
}

var roleRules = map[Role][]RewriteRule{
	RoleRequester: {
		{Name: "comparative", Pattern: comparativePattern, Replacement: ""},
		{Name: "neighbor", Pattern: neighborPattern, Replacement: ""},
		{Name: "rank", Pattern: rankPattern, Replacement: "aligned well"},
		{Name: "points", Pattern: pointsPattern, Replacement: ""},
	},
	RoleCandidate: {
		{Name: "comparative", Pattern: comparativePattern, Replacement: ""},
		{Name: "neighbor", Pattern: neighborPattern, Replacement: ""},
		{Name: "rank", Pattern: rankPattern, Replacement: "aligned well with client preferences"},
		{Name: "points", Pattern: pointsPattern, Replacement: "strong alignment"},
	},
}

// Rules returns the rewrite rules for role, followed by the cleanup rules.
// The operator role has none.
func Rules(role Role) []RewriteRule {
	rules, ok := roleRules[role]
	if !ok {
		return nil
	}
	out := make([]RewriteRule, 0, len(rules)+len(cleanup))
	out = append(out, rules...)
	return append(out, cleanup...)
}

// Rewrite applies the role's rules to statement. The boolean is false when
// nothing meaningful is left.
func Rewrite(role Role, statement string) (string, bool) {
	rules := Rules(role)
	if rules == nil {
		return statement, statement != ""
	}
	for _, rule := range rules {
		statement = rule.apply(statement)
	}
	statement = strings.TrimSpace(statement)
	return statement, statement != ""
}

// RewriteAll rewrites statements in order, dropping those left empty.
func RewriteAll(role Role, statements []string) []string {
	var out []string
	for _, s := range statements {
		if rewritten, ok := Rewrite(role, s); ok {
			out = append(out, rewritten)
		}
	}
	return out
}
