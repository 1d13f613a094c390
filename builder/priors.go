package builder

import "github.com/kortschak/profmm/background"

// addPrior mixes pseudocounts into an observed (weighted) count row in
// place, following scheme. mix is the pseudocount weight relative to
// one observed sequence's worth of counts (typically derived from the
// relative-entropy target, see mixingWeight).
func addPrior(row []float64, bg *background.Background, scheme PriorScheme, mix float64) {
	switch scheme {
	case PriorNone:
		return
	case PriorAlphabet:
		for i := range row {
			row[i] += mix * bg.Freq(i)
		}
	case PriorLaplace:
		fallthrough
	default:
		q := 1.0 / float64(len(row))
		for i := range row {
			row[i] += mix * q
		}
	}
}

// mixingWeight picks a pseudocount mix for a column with effN
// effective observations, targeting ere bits of mean relative entropy
// per column (Krogh/Eddy-style entropy-weighting heuristic): the
// weight is chosen so that doubling the observed count roughly halves
// the prior's share, with a floor that keeps single-sequence columns
// from collapsing onto the prior alone.
func mixingWeight(effN, ere float64, scheme EffectiveNumber) float64 {
	if scheme == EffNone || ere <= 0 {
		return 1.0
	}
	w := ere / (ere + effN)
	if w < 0.01 {
		w = 0.01
	}
	if w > 1 {
		w = 1
	}
	return w * effN
}
