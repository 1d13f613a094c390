package hmm

import (
	"math"

	"github.com/biogo/biogo/alphabet"

	"github.com/kortschak/profmm/random"
)

// Sample draws a random M-node HMM over alpha, using rng: emission rows
// from a flat Dirichlet prior, transition rows from normalized uniform
// deviates. This is used
// to seed property-based and scenario tests without requiring a real
// training alignment.
func Sample(alpha alphabet.Alphabet, m int, rng *random.Randomness) (*HMM, error) {
	h, err := New(alpha, m)
	if err != nil {
		return nil, err
	}
	n := alpha.Len()
	dirichlet := func(row []float64) {
		var sum float64
		for i := range row {
			// Flat Dirichlet(1,...,1) via normalized exponential
			// deviates (Gamma(1) = Exponential(1)).
			row[i] = -logf(rng.Float64())
			sum += row[i]
		}
		for i := range row {
			row[i] /= sum
		}
	}
	for k := 1; k <= m; k++ {
		dirichlet(h.Match[k])
	}
	for k := 0; k <= m; k++ {
		dirichlet(h.Insert[k])
		t := &h.Trans[k]
		mm, mi, md := rng.Float64(), rng.Float64(), rng.Float64()
		s := mm + mi + md
		t.MM, t.MI, t.MD = mm/s, mi/s, md/s
		im, ii := rng.Float64(), rng.Float64()
		s = im + ii
		t.IM, t.II = im/s, ii/s
		dm, dd := rng.Float64(), rng.Float64()
		s = dm + dd
		t.DM, t.DD = dm/s, dd/s
	}
	h.Name = "sampled"
	return h, nil
}

func logf(x float64) float64 {
	if x <= 0 {
		x = 1e-300
	}
	return math.Log(x)
}
