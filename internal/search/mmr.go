package search

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultLambda weighs relevance against redundancy in MMR.
const DefaultLambda = 0.6

// Candidate is a dense hit entering MMR selection.
type Candidate struct {
	Result Result
	Vector []float32
}

// MMR selects up to limit candidates by Maximal Marginal Relevance. Vectors
// are unit-normalized; the first pick is the most relevant candidate and
// each later pick maximizes
//
//	lambda*relevance - (1-lambda)*max similarity to the picks so far.
//
// Each returned Result carries its raw relevance as Score. lambda outside
// [0,1] uses DefaultLambda.
func MMR(query []float32, candidates []Candidate, limit int, lambda float64) []Result {
	if lambda < 0 || lambda > 1 {
		lambda = DefaultLambda
	}
	if limit <= 0 || len(candidates) == 0 {
		return []Result{}
	}

	q := unit(query)
	vecs := make([][]float64, len(candidates))
	relevance := make([]float64, len(candidates))
	for i, c := range candidates {
		vecs[i] = unit(c.Vector)
		relevance[i] = dot(q, vecs[i])
	}

	selected := make([]int, 0, min(limit, len(candidates)))
	picked := make([]bool, len(candidates))
	// maxSim[i] is candidate i's highest similarity to any pick so far.
	maxSim := make([]float64, len(candidates))

	for len(selected) < limit && len(selected) < len(candidates) {
		best, bestScore := -1, math.Inf(-1)
		for i := range candidates {
			if picked[i] {
				continue
			}
			score := relevance[i]
			if len(selected) > 0 {
				score = lambda*relevance[i] - (1-lambda)*maxSim[i]
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		picked[best] = true
		selected = append(selected, best)
		for i := range candidates {
			if picked[i] {
				continue
			}
			if s := dot(vecs[i], vecs[best]); len(selected) == 1 || s > maxSim[i] {
				maxSim[i] = s
			}
		}
	}

	out := make([]Result, len(selected))
	for i, idx := range selected {
		r := candidates[idx].Result
		r.Score = relevance[idx]
		out[i] = r
	}
	return out
}

// unit converts v to float64 and scales it to length 1. A zero vector
// stays zero.
func unit(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	if n := floats.Norm(out, 2); n > 0 {
		floats.Scale(1/n, out)
	}
	return out
}

func dot(a, b []float64) float64 {
	if len(a) != len(b) {
		n := min(len(a), len(b))
		a, b = a[:n], b[:n]
	}
	return floats.Dot(a, b)
}
