// Package classify maps transaction descriptions to spending categories via
// ordered keyword rules.
package classify

import "strings"

// Other is the fallback category for descriptions no rule matches.
const Other = "Other"

// Investments is the category whose transactions the aggregation engine can
// exclude from regular income/expense figures.
const Investments = "Investments"

type (
	// Rule binds a category name to the keywords that select it.
	Rule struct {
		Category string
		Keywords []string
	}

	// RuleSet is an ordered rule list. Order is the tie-break policy:
	// descriptions matching several categories classify as the first one.
	RuleSet []Rule
)

// Classifier classifies descriptions against an immutable rule set. It holds
// no other state, so a single instance is safe for concurrent use.
type Classifier struct {
	rules       RuleSet
	investments []string
}

// New builds a classifier from an explicit rule set. The rule table is a
// configuration value, not a hidden global, so tests can substitute their
// own. Investment detection uses the keywords of the Investments rule when
// present.
func New(rules RuleSet) *Classifier {
	c := &Classifier{rules: rules}
	for _, r := range rules {
		if r.Category == Investments {
			c.investments = r.Keywords
		}
	}
	return c
}

// NewDefault builds a classifier over the fixed default rule table.
func NewDefault() *Classifier {
	return New(DefaultRules())
}

// Classify returns the first category whose keyword set matches the
// uppercased description, or Other. Total: every description maps to exactly
// one category name.
func (c *Classifier) Classify(description string) string {
	upper := strings.ToUpper(description)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(upper, kw) {
				return rule.Category
			}
		}
	}
	return Other
}

// IsInvestment reports whether the description matches an investment
// keyword, used by the engine's exclusion policy.
func (c *Classifier) IsInvestment(description string) bool {
	upper := strings.ToUpper(description)
	for _, kw := range c.investments {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// Categories returns the category names in priority order, without Other.
func (c *Classifier) Categories() []string {
	out := make([]string, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.Category
	}
	return out
}
