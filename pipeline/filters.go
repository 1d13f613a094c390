package pipeline

import (
	"math"

	"github.com/biogo/biogo/alphabet"

	"github.com/kortschak/profmm/optimized"
)

// msvFilterRaw runs the one-hit, ungapped local alignment recursion in
// quantized filter space: the scalar equivalent of the striped SIMD MSV
// kernel. Each row either restarts a diagonal from the model's begin
// bias or extends the previous row's diagonal one residue further,
// saturating at the filter's 8-bit range. seq must already be resolved
// to op's alphabet.
func msvFilterRaw(op *optimized.OptimizedProfile, alpha alphabet.Alphabet, seq alphabet.Letters) uint8 {
	m := op.M
	base := uint8(op.Base())
	prev := make([]uint8, m+1)
	cur := make([]uint8, m+1)
	var xE uint8
	for i := 0; i < len(seq); i++ {
		sym := alpha.IndexOf(seq[i])
		prev[0] = base
		for k := 1; k <= m; k++ {
			sc := 0
			if sym >= 0 {
				sc = int(op.SBV(sym, k))
			}
			sv := int(prev[k-1]) + sc
			if sv < 0 {
				sv = 0
			}
			if sv > 255 {
				sv = 255
			}
			cur[k] = uint8(sv)
			if cur[k] > xE {
				xE = cur[k]
			}
		}
		prev, cur = cur, prev
	}
	return xE
}

// MSVFilterScore runs the MSV filter and rescales its saturating 8-bit
// accumulator back into nats, comparable with the score builder.
// MSVScore computed during calibration. A saturated filter score
// (255) is reported as posInf (1e300), signaling the caller to treat the target
// as an unconditional pass.
func MSVFilterScore(op *optimized.OptimizedProfile, seq alphabet.Letters) float64 {
	xE := msvFilterRaw(op, op.Alphabet(), seq)
	if xE == 255 {
		return posInf
	}
	return (float64(xE) - float64(op.Base())) / op.Scale()
}

const posInf = 1e300

// BiasCorrection estimates the part (in nats) of a raw filter score
// attributable to the target's amino acid composition rather than true
// homology, following the null2 idea: score the target against the
// profile's own mean composition instead of the uniform/standard
// background, and report the excess log-odds. Subtracting this from a
// raw MSV or envelope score corrects for repetitive, low-complexity or
// otherwise compositionally biased targets scoring well against any
// profile of similar composition.
func BiasCorrection(alpha alphabet.Alphabet, seq alphabet.Letters, compo []float64, bgFreq func(int) float64) float64 {
	var score float64
	for _, l := range seq {
		sym := alpha.IndexOf(l)
		if sym < 0 || sym >= len(compo) {
			continue
		}
		c, f := compo[sym], bgFreq(sym)
		if c <= 0 || f <= 0 {
			continue
		}
		score += math.Log(c / f)
	}
	if score < 0 {
		return 0
	}
	return score
}
