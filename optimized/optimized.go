// Package optimized implements the striped, quantized layout of a Profile
// consumed by the filter stages of the search pipeline: an 8-bit SSV/MSV
// matrix, a 16-bit Viterbi matrix (see the rbv field for why it is not
// 8-bit), and the rescaling scalars needed to translate
// filter scores back into nats.
package optimized

import (
	"fmt"
	"math"

	"github.com/biogo/biogo/alphabet"

	"github.com/kortschak/profmm/hmm"
	"github.com/kortschak/profmm/phmmerr"
	"github.com/kortschak/profmm/profile"
)

// LaneWidth is the default number of SIMD lanes a striped row is
// interleaved across. 16 corresponds to the smallest common byte-lane
// vector width (SSE-class); callers targeting wider ISAs may pass a
// different width to NewWidth.
const LaneWidth = 16

// Offsets records the byte positions of a model's three sections within
// a pressed HMM database, so a scan-mode pipeline can rewind directly to
// a model without re-scanning the index.
type Offsets struct {
	Model   int64 // offset into the .h3m file
	Filter  int64 // offset into the .h3f file
	Profile int64 // offset into the .h3p file, or -1 if absent
}

// OptimizedProfile is the SIMD-ready, striped and quantized conversion
// of a Profile. Scores in rbv and sbv are signed integers (int16 and
// int8 respectively) in "filter space"; base, bias, tbm, tec and tjb rescale a filter's raw
// integer accumulation back into nats comparable with the Profile's
// floating-point scores.
type OptimizedProfile struct {
	alpha alphabet.Alphabet

	M     int
	width int // lanes per striped vector
	q     int // vectors per row, Q = ceil(M/width)

	Local    bool
	Multihit bool

	// rbv[sym] is the striped match-score matrix for residue sym, one
	// node per slot, used by the Viterbi filter. Kept as []int16 rather
	// than a byte-quantized row, since an 8-bit-only Viterbi filter
	// saturates far too early to be useful at protein-scale scores; MSV
	// below is the true 8-bit filter.
	rbv [][]int16

	// sbv[sym] is the striped single-hit/SSV matrix for residue sym,
	// one signed byte per node, used by the MSV filter.
	sbv [][]int8

	base  int16   // bias added before the MSV/SSV accumulation
	bias  uint8   // subtracted-back bias correction
	tbm   float64 // begin->match uniform entry score, nats
	tec   float64 // E->C single-exit score, nats
	tjb   float64 // J/B loop score, nats
	scale float64 // nats per quantization unit

	Offsets Offsets
	Evalue  *hmm.EvalueParameters
	Cutoffs hmm.Cutoffs
}

// From converts a configured Profile into its striped, quantized form.
// The conversion is deterministic: the same Profile always yields the
// same OptimizedProfile. width is the SIMD lane count to stripe across;
// pass 0 for LaneWidth.
func From(p *profile.Profile, width int) (*OptimizedProfile, error) {
	if err := p.RequireConfigured(); err != nil {
		return nil, err
	}
	if width <= 0 {
		width = LaneWidth
	}
	m := p.M
	q := (m + width - 1) / width
	if q == 0 {
		q = 1
	}
	op := &OptimizedProfile{
		alpha: p.Alphabet(), M: m, width: width, q: q,
		Local: p.Local, Multihit: p.Multihit,
		Evalue:  p.Evalue(),
		Cutoffs: p.Cutoffs(),
		Offsets: Offsets{Model: -1, Filter: -1, Profile: -1},
	}

	// Determine a quantization scale so that the dynamic range of match
	// scores fits in an int8 for sbv and an int16 for rbv.
	maxAbs := 0.0
	for k := 1; k <= m; k++ {
		for _, s := range p.Match[k] {
			if math.IsInf(s, 0) {
				continue
			}
			if a := math.Abs(s); a > maxAbs {
				maxAbs = a
			}
		}
	}
	if maxAbs == 0 {
		maxAbs = 1
	}
	op.scale = 127.0 / (maxAbs * 1.25)

	n := p.Alphabet().Len()
	op.sbv = make([][]int8, n)
	op.rbv = make([][]int16, n)
	rows := q * width
	for sym := 0; sym < n; sym++ {
		op.sbv[sym] = make([]int8, rows)
		op.rbv[sym] = make([]int16, rows)
		for k := 1; k <= m; k++ {
			slot := striped(k, width, q)
			v := p.Match[k][sym]
			if math.IsInf(v, 0) {
				op.sbv[sym][slot] = math.MinInt8
				op.rbv[sym][slot] = math.MinInt16
				continue
			}
			qv := int(math.Round(v * op.scale))
			op.rbv[sym][slot] = clampI16(qv)
			op.sbv[sym][slot] = clampI8(qv)
		}
	}

	op.base = 127
	op.bias = uint8(clampI8(int(math.Round(-maxAbs * op.scale))))
	op.tbm = -math.Log(float64(m))
	op.tec = p.Special.EMove
	op.tjb = p.Special.JLoop

	return op, nil
}

// striped maps 1-based node k to its position within a q*width striped
// vector, using the classic round-robin "vector q, lane k/q" layout:
// node k lands in vector (k-1)%q at lane (k-1)/q.
func striped(k, width, q int) int {
	k0 := k - 1
	vec := k0 % q
	lane := k0 / q
	return lane*q + vec
}

func clampI8(v int) int8 {
	if v > math.MaxInt8 {
		return math.MaxInt8
	}
	if v < math.MinInt8+1 {
		return math.MinInt8 + 1
	}
	return int8(v)
}

func clampI16(v int) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16+1 {
		return math.MinInt16 + 1
	}
	return int16(v)
}

// Width returns the SIMD lane count rows are striped across.
func (op *OptimizedProfile) Width() int { return op.width }

// Alphabet returns the profile's alphabet.
func (op *OptimizedProfile) Alphabet() alphabet.Alphabet { return op.alpha }

// Scale returns the nats-per-quantization-unit conversion factor.
func (op *OptimizedProfile) Scale() float64 { return op.scale }

// Base returns the MSV/SSV filter's additive bias.
func (op *OptimizedProfile) Base() int16 { return op.base }

// Bias returns the subtracted-back bias correction byte.
func (op *OptimizedProfile) Bias() uint8 { return op.bias }

// TBM, TEC and TJB return the rescaling scalars used to translate
// filter-space accumulations back into nats.
func (op *OptimizedProfile) TBM() float64 { return op.tbm }
func (op *OptimizedProfile) TEC() float64 { return op.tec }
func (op *OptimizedProfile) TJB() float64 { return op.tjb }

// SBV returns the striped SSV/MSV score byte for residue sym at 1-based
// node k.
func (op *OptimizedProfile) SBV(sym int, k int) int8 {
	return op.sbv[sym][striped(k, op.width, op.q)]
}

// RBV returns the striped Viterbi score for residue sym at 1-based node
// k.
func (op *OptimizedProfile) RBV(sym int, k int) int16 {
	return op.rbv[sym][striped(k, op.width, op.q)]
}

// SameSize returns phmmerr.ModelSizeMismatch if op and other have
// different M.
func (op *OptimizedProfile) SameSize(other *OptimizedProfile) error {
	if op.M != other.M {
		return fmt.Errorf("optimized: M=%d != M=%d: %w", op.M, other.M, phmmerr.ModelSizeMismatch)
	}
	return nil
}

// Clone returns an independent copy, safe for per-thread length
// reconfiguration caching.
func (op *OptimizedProfile) Clone() *OptimizedProfile {
	c := *op
	c.sbv = make([][]int8, len(op.sbv))
	c.rbv = make([][]int16, len(op.rbv))
	for i := range op.sbv {
		c.sbv[i] = append([]int8(nil), op.sbv[i]...)
		c.rbv[i] = append([]int16(nil), op.rbv[i]...)
	}
	return &c
}
