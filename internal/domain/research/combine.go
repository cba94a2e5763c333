package research

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultContextBudget is the default maximum number of characters in a combined context.
	DefaultContextBudget = 7500

	// MinUsefulChars is the remaining allowance a partial fragment needs before it is worth adding.
	MinUsefulChars = 200

	// TruncationMarker is appended after a partially included fragment.
	TruncationMarker = "\n\n[CONTENT TRUNCATED - REMAINING FILES SKIPPED]"

	fragmentJoiner = "\n\n"
)

// ContextHeader precedes the joined fragments in every combined context.
var ContextHeader = "\n\n" + strings.Repeat("=", 80)

// Combiner greedily concatenates fragments in the order they are added until the
// character budget is spent. Characters are counted as Unicode code points.
type Combiner struct {
	budget    int
	used      int
	parts     []string
	truncated bool
	closed    bool
}

// NewCombiner creates a Combiner. A non-positive budget selects DefaultContextBudget.
func NewCombiner(budget int) *Combiner {
	if budget <= 0 {
		budget = DefaultContextBudget
	}
	return &Combiner{budget: budget}
}

// Add offers the next fragment. It reports whether further fragments will be accepted;
// once it returns false the caller should stop reading fragments.
func (c *Combiner) Add(fragment string) bool {
	if c.closed {
		return false
	}
	text := strings.TrimSpace(fragment)
	if text == "" {
		return true
	}

	n := utf8.RuneCountInString(text)
	if c.used+n <= c.budget {
		c.parts = append(c.parts, text)
		c.used += n
		return true
	}

	c.closed = true
	remaining := c.budget - c.used
	if remaining > MinUsefulChars {
		c.parts = append(c.parts, truncateRunes(text, remaining)+TruncationMarker)
		c.used = c.budget
		c.truncated = true
	}
	return false
}

// Included returns how many fragments made it into the context, including a truncated one.
func (c *Combiner) Included() int { return len(c.parts) }

// Truncated reports whether the last included fragment was cut short.
func (c *Combiner) Truncated() bool { return c.truncated }

// Used returns the number of fragment characters consumed from the budget.
func (c *Combiner) Used() int { return c.used }

// Result returns the combined context, or false when no fragment was included.
func (c *Combiner) Result() (string, bool) {
	if len(c.parts) == 0 {
		return "", false
	}
	return ContextHeader + strings.Join(c.parts, fragmentJoiner), true
}

// Combine runs a Combiner over fragments in order.
func Combine(fragments []string, budget int) (string, bool) {
	c := NewCombiner(budget)
	for _, f := range fragments {
		if !c.Add(f) {
			break
		}
	}
	return c.Result()
}

// EstimateTokens approximates a token count with the 1 token ≈ 4 characters heuristic.
func EstimateTokens(s string) int {
	return utf8.RuneCountInString(s) / 4
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
