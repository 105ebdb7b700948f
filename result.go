package eleve

import "math"

// Score is an explicit "absent" variant over a float64 query result. NaN
// remains the in-store wire sentinel for undefined entropy/EV/autonomy
// (see package store/trie); Score is the public-API type that keeps a
// legitimate zero from being confused with "undefined", per the design
// notes' re-architecture of the original implicit-NaN interface.
type Score struct {
	Value float64
	Valid bool
}

func scoreFromFloat(f float64) Score {
	if math.IsNaN(f) {
		return Score{}
	}
	return Score{Value: f, Valid: true}
}

// combine averages two Scores, propagating absence: the result is valid
// only if both inputs are. This fixes the asymmetric NaN short-circuit
// noted in spec.md §9 (the original only special-cased both-NaN).
func combine(a, b Score) Score {
	if !a.Valid || !b.Valid {
		return Score{}
	}
	return Score{Value: (a.Value + b.Value) / 2, Valid: true}
}

// NodeStats is the combined (count, entropy) view of an ngram across the
// forward and backward tries.
type NodeStats struct {
	Count   float64
	Entropy Score
}

// Posting is one document's occurrence count for an ngram, from the
// optional forward-only posting list.
type Posting struct {
	DocID uint32
	Freq  uint32
}
