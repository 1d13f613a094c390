// Package scoredata implements the auxiliary scoring tables bound to a
// (Profile, OptimizedProfile) pair: the model's mean composition used
// by the null2 correction and the bias filter.
package scoredata

import (
	"fmt"

	"github.com/biogo/biogo/alphabet"

	"github.com/kortschak/profmm/optimized"
	"github.com/kortschak/profmm/phmmerr"
	"github.com/kortschak/profmm/profile"
)

// degeneracy is the number of IUPAC ambiguity symbols added on top of
// the canonical alphabet size K to form Kp, per alphabet kind. These
// are fixed biological constants, not tunable parameters.
const (
	aminoDegeneracy = 3  // B, Z, X
	nucDegeneracy   = 11 // the non-canonical IUPAC nucleotide codes
)

// ScoreData holds the derived bias-correction tables for one (Profile,
// OptimizedProfile) pair.
type ScoreData struct {
	Kp int

	// Compo[i] is the model's mean match-emission probability for
	// symbol i, used by the bias filter and by the per-domain null2
	// correction (see pipeline.BiasCorrection).
	Compo []float64
}

// New derives a ScoreData for the (p, op) pair. op is used only to
// assert the pair is consistent in size; the table itself is computed
// from p's model.
func New(p *profile.Profile, op *optimized.OptimizedProfile) (*ScoreData, error) {
	if err := p.RequireConfigured(); err != nil {
		return nil, err
	}
	if op != nil && op.M != p.M {
		return nil, fmt.Errorf("scoredata: profile has %d nodes, optimized profile %d: %w", p.M, op.M, phmmerr.ModelSizeMismatch)
	}
	n := p.Alphabet().Len()
	compo := p.HMM().MeanComposition()

	return &ScoreData{
		Kp:    n + degeneracyFor(p.Alphabet()),
		Compo: compo,
	}, nil
}

func degeneracyFor(a alphabet.Alphabet) int {
	switch a {
	case alphabet.Protein:
		return aminoDegeneracy
	default:
		return nucDegeneracy
	}
}
