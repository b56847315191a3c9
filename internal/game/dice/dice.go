// Package dice provides the randomness abstraction shared by the battle
// engine, the opponent AI, and the team randomizer.
package dice

import "fmt"

// Source is the randomness provider for every random decision in a battle.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Roll is the outcome of a single Between draw, kept for logging.
type Roll struct {
	Purpose string
	Low     int
	High    int
	Value   int
}

// String renders the roll as "purpose [low..high] = value".
func (r Roll) String() string {
	return fmt.Sprintf("%s [%d..%d] = %d", r.Purpose, r.Low, r.High, r.Value)
}

// Between returns a uniformly distributed int in [low, high].
//
// Precondition: low <= high.
// Postcondition: low <= result <= high.
func Between(src Source, low, high int) int {
	if low > high {
		panic(fmt.Sprintf("dice: Between called with low %d > high %d", low, high))
	}
	return low + src.Intn(high-low+1)
}

// Pick returns a uniformly chosen index into a collection of length n.
//
// Precondition: n > 0.
func Pick(src Source, n int) int {
	return src.Intn(n)
}
