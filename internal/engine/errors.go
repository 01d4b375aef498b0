package engine

import "fmt"

// InvariantError reports a state invariant broken by a component during a
// step. It is an internal defect: the run halts immediately rather than
// clamping the value, so decision-model bugs cannot hide.
type InvariantError struct {
	Period int
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation at period %d: %s", e.Period, e.Detail)
}
