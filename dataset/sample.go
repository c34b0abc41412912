package dataset

import (
	"math/rand"

	"github.com/ezoic/tensorpack/core/tensor"
)

// Sample builds a small synthetic dataset with three coupled variables of
// different dimensionality, useful for examples and tests:
//
//	flop  (month, time, people, state)  8×7×6×5
//	turn  (month, time, state)          8×7×5
//	river (month, suit)                 8×4
//
// Entries are uniform on [0, 1) drawn from rng.
func Sample(rng *rand.Rand) *Dataset {
	d := New()

	// Axis declarations cannot fail here: names are unique and non-empty.
	_ = d.AddAxis("month", []string{
		"January", "February", "March", "April", "May", "June", "July", "August",
	})
	_ = d.AddAxis("time", []string{
		"2014-09-06", "2014-09-07", "2014-09-08", "2014-09-09",
		"2014-09-10", "2014-09-11", "2014-09-12",
	})
	_ = d.AddAxis("people", []string{
		"Liam", "Olivia", "Noah", "Emma", "Benjamin", "Charlotte",
	})
	_ = d.AddAxis("state", []string{
		"Ohio", "Tennessee", "Utah", "Virginia", "Wyoming",
	})
	_ = d.AddAxis("suit", []string{"Spade", "Heart", "Club", "Diamond"})

	flop, _ := tensor.Rand(rng, 8, 7, 6, 5)
	turn, _ := tensor.Rand(rng, 8, 7, 5)
	river, _ := tensor.Rand(rng, 8, 4)

	_ = d.AddVariable("flop", flop, "month", "time", "people", "state")
	_ = d.AddVariable("turn", turn, "month", "time", "state")
	_ = d.AddVariable("river", river, "month", "suit")

	return d
}
