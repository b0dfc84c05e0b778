// Package dice provides the randomness port and roll-result types used for
// initiative and any other die roll the tracker makes.
package dice

import (
	"fmt"
	"strings"
)

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Result holds the audit trail for a single evaluated expression.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type Result struct {
	Expression string // original expression, e.g. "d20" or "2d20kh1+3"
	Dice       []int  // kept die faces before the modifier
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of all kept dice plus the modifier.
func (r Result) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String renders the result as "2d6+3 → [4 5] +3 = 12".
func (r Result) String() string {
	faces := make([]string, len(r.Dice))
	for i, d := range r.Dice {
		faces[i] = fmt.Sprint(d)
	}
	return fmt.Sprintf("%s → [%s] %+d = %d", r.Expression, strings.Join(faces, " "), r.Modifier, r.Total())
}
