package eleve

import (
	"log"
	"math"
)

// sentinelPenalty substitutes for an undefined (NaN) autonomy score: a
// large enough negative utility that the dynamic program avoids cutting a
// segment from an unseen context whenever any alternative covering the
// same span exists.
const sentinelPenalty = -100.0

// sentenceSizeWarnThreshold is the input length past which Segment warns
// about the quadratic (|T|*Order) memory its dynamic program uses.
const sentenceSizeWarnThreshold = 1000

// Segment finds the maximum-autonomy segmentation of tokens under the
// constraint that no segment exceeds Order tokens (component C4). It
// never errors on undefined autonomy, substituting sentinelPenalty
// instead; Segment(nil) returns an empty slice.
func (ix *Index) Segment(tokens Ngram) ([]Ngram, error) {
	metricSegmentCallsTotal.Inc()
	metricSegmentTokens.Observe(float64(len(tokens)))

	if len(tokens) == 0 {
		return []Ngram{}, nil
	}
	if len(tokens) > sentenceSizeWarnThreshold {
		log.Printf("eleve: segmenting a %d-token sentence; this is quadratic in memory", len(tokens))
	}

	T := bracket(tokens, ix.opts.Terminals)
	n := len(T)
	order := ix.opts.Order

	bestScore := make([]float64, n+1)
	for i := 1; i <= n; i++ {
		bestScore[i] = math.Inf(-1)
	}
	bestSeg := make([][]Ngram, n+1)

	for i := 1; i <= n; i++ {
		maxJ := order
		if i < maxJ {
			maxJ = i
		}
		for j := 1; j <= maxJ; j++ {
			segment := T[i-j : i]
			a := sentinelPenalty
			score, err := ix.QueryAutonomy(segment)
			if err != nil {
				return nil, err
			}
			if score.Valid {
				a = score.Value
			}

			total := bestScore[i-j] + a*float64(j)
			if total > bestScore[i] {
				bestScore[i] = total
				seg := make([]Ngram, len(bestSeg[i-j]), len(bestSeg[i-j])+1)
				copy(seg, bestSeg[i-j])
				seg = append(seg, append(Ngram{}, segment...))
				bestSeg[i] = seg
			}
		}
	}

	result := bestSeg[n]
	if len(result) == 0 {
		return []Ngram{}, nil
	}
	result[0] = result[0][1:]
	result[len(result)-1] = result[len(result)-1][:len(result[len(result)-1])-1]

	out := make([]Ngram, 0, len(result))
	for _, s := range result {
		if len(s) > 0 {
			out = append(out, s)
		}
	}
	return out, nil
}
