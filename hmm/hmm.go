// Copyright ©2024 The profmm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hmm implements the core probabilistic Plan7 profile hidden
// Markov model: per-node match/insert emission distributions, per-node
// transition probabilities and the model's identifying and calibration
// metadata.
package hmm

import (
	"fmt"
	"math"
	"time"

	"github.com/biogo/biogo/alphabet"

	"github.com/kortschak/profmm/phmmerr"
)

// ProbTolerance is the default epsilon used by CheckProbabilities.
const ProbTolerance = 1e-5

// Transitions holds the seven Plan7 transition probabilities out of one
// node: match, insert and delete state transitions. ID and DI are
// disallowed in Plan7 and are not represented.
type Transitions struct {
	MM, MI, MD float64
	IM, II     float64
	DM, DD     float64
}

// Sum returns MM+MI+MD (the match-state row) and IM+II (the insert-state
// row) and DM+DD (the delete-state row), in that order.
func (t Transitions) Sum() (m, i, d float64) {
	return t.MM + t.MI + t.MD, t.IM + t.II, t.DM + t.DD
}

// EvalueParameters holds the six calibration constants used to convert
// MSV, Viterbi and Forward raw scores into P-values.
type EvalueParameters struct {
	MMu, MLambda float64 // Forward (Gumbel-like exponential tail)
	VMu, VLambda float64 // Viterbi (Gumbel)
	FTau, FLambda float64 // MSV (Gumbel)
}

// IsZero reports whether no calibration has been fitted.
func (e EvalueParameters) IsZero() bool {
	return e == EvalueParameters{}
}

// ScorePair is a (score1, score2) bit-score cutoff pair: sequence cutoff
// and domain cutoff.
type ScorePair struct {
	Score1, Score2 float64
}

// Cutoffs holds the three optional model-embedded bit-score cutoff
// pairs: gathering (GA), trusted (TC) and noise (NC).
type Cutoffs struct {
	Gathering *ScorePair
	Trusted   *ScorePair
	Noise     *ScorePair
}

// Selector names which Cutoffs pair a Pipeline should use in place of
// E-value/score thresholds.
type Selector int

const (
	// NoCutoffs disables bit_cutoffs; E/T thresholds apply.
	NoCutoffs Selector = iota
	Gathering
	Trusted
	Noise
)

// Select returns the cutoff pair named by sel, or an error wrapping
// phmmerr.MissingCutoffs if the model lacks it.
func (c Cutoffs) Select(sel Selector) (ScorePair, error) {
	var p *ScorePair
	switch sel {
	case NoCutoffs:
		return ScorePair{}, nil
	case Gathering:
		p = c.Gathering
	case Trusted:
		p = c.Trusted
	case Noise:
		p = c.Noise
	default:
		return ScorePair{}, fmt.Errorf("hmm: unknown cutoff selector %d: %w", sel, phmmerr.InvalidParameter)
	}
	if p == nil {
		return ScorePair{}, fmt.Errorf("hmm: model has no cutoffs for selector %d: %w", sel, phmmerr.MissingCutoffs)
	}
	return *p, nil
}

// HMM is a Plan7 profile hidden Markov model with M match nodes, indexed
// 1..M; index 0 of each per-node slice is the Begin/Start node and is
// not a match state.
type HMM struct {
	M     int
	Alpha alphabet.Alphabet

	// Match[k] and Insert[k] are emission probability vectors over
	// Alpha.Len() symbols, for node k in [0, M]. Match[0] is unused.
	Match  [][]float64
	Insert [][]float64

	// Trans[k] are the transitions leaving node k, for k in [0, M].
	Trans []Transitions

	// Identifying metadata.
	Name   string // required
	Acc    string
	Desc   string
	Comlog string // command-line provenance
	Ctime  time.Time

	// Optional calibration metadata.
	Composition            []float64
	Checksum                uint32
	HasChecksum             bool
	Consensus               string
	ConsensusStructure      string
	ConsensusAccessibility  string
	Nseq                    int
	NseqEffective           float64

	Evalue  *EvalueParameters
	Cutoffs Cutoffs
}

// New allocates an HMM with M match nodes over alpha, with all emission
// and transition rows zeroed (not yet a valid distribution; callers
// should follow with Zero or explicit assignment then Renormalize).
func New(alpha alphabet.Alphabet, m int) (*HMM, error) {
	if m < 1 {
		return nil, fmt.Errorf("hmm: M must be >= 1, got %d: %w", m, phmmerr.InvalidParameter)
	}
	n := alpha.Len()
	h := &HMM{
		M:      m,
		Alpha:  alpha,
		Match:  make([][]float64, m+1),
		Insert: make([][]float64, m+1),
		Trans:  make([]Transitions, m+1),
	}
	for k := 0; k <= m; k++ {
		h.Match[k] = make([]float64, n)
		h.Insert[k] = make([]float64, n)
	}
	return h, nil
}

// Zero resets every emission and transition row to a flat, valid
// distribution: uniform emissions and transitions split evenly between
// the kinds in each row.
func (h *HMM) Zero() {
	n := h.Alpha.Len()
	for k := 0; k <= h.M; k++ {
		for i := 0; i < n; i++ {
			if k > 0 {
				h.Match[k][i] = 1.0 / float64(n)
			}
			h.Insert[k][i] = 1.0 / float64(n)
		}
		h.Trans[k] = Transitions{
			MM: 1.0 / 3, MI: 1.0 / 3, MD: 1.0 / 3,
			IM: 0.5, II: 0.5,
			DM: 0.5, DD: 0.5,
		}
	}
}

// Renormalize rescales every emission and transition row so it sums to
// 1, leaving already-normalized rows unchanged (up to floating error).
// Rows that sum to zero are left as a flat distribution, since a
// degenerate zero row cannot be renormalized.
func (h *HMM) Renormalize() {
	n := h.Alpha.Len()
	flat := func(row []float64) {
		for i := range row {
			row[i] = 1.0 / float64(n)
		}
	}
	norm := func(row []float64) {
		var sum float64
		for _, p := range row {
			sum += p
		}
		if sum <= 0 {
			flat(row)
			return
		}
		for i := range row {
			row[i] /= sum
		}
	}
	for k := 0; k <= h.M; k++ {
		if k > 0 {
			norm(h.Match[k])
		}
		norm(h.Insert[k])

		t := &h.Trans[k]
		if m := t.MM + t.MI + t.MD; m > 0 {
			t.MM, t.MI, t.MD = t.MM/m, t.MI/m, t.MD/m
		} else {
			t.MM, t.MI, t.MD = 1.0/3, 1.0/3, 1.0/3
		}
		if i := t.IM + t.II; i > 0 {
			t.IM, t.II = t.IM/i, t.II/i
		} else {
			t.IM, t.II = 0.5, 0.5
		}
		if d := t.DM + t.DD; d > 0 {
			t.DM, t.DD = t.DM/d, t.DD/d
		} else {
			t.DM, t.DD = 0.5, 0.5
		}
	}
}

// Scale multiplies every emission count-like row by factor before a
// renormalization step.
func (h *HMM) Scale(factor float64) {
	for k := 1; k <= h.M; k++ {
		for i := range h.Match[k] {
			h.Match[k][i] *= factor
		}
	}
	for k := 0; k <= h.M; k++ {
		for i := range h.Insert[k] {
			h.Insert[k][i] *= factor
		}
	}
}

// SetComposition installs an explicit mean composition vector,
// overriding the one derived from the match emissions. comp must have
// one entry per alphabet symbol and sum to 1 within ProbTolerance.
func (h *HMM) SetComposition(comp []float64) error {
	if len(comp) != h.Alpha.Len() {
		return fmt.Errorf("hmm: composition length %d != alphabet size %d: %w", len(comp), h.Alpha.Len(), phmmerr.InvalidParameter)
	}
	var sum float64
	for _, c := range comp {
		sum += c
	}
	if math.Abs(sum-1) > ProbTolerance {
		return fmt.Errorf("hmm: composition sums to %v, want 1: %w", sum, phmmerr.InvalidParameter)
	}
	h.Composition = append([]float64(nil), comp...)
	return nil
}

// MeanComposition computes the mean match emission composition, used as
// the default when Composition is unset.
func (h *HMM) MeanComposition() []float64 {
	n := h.Alpha.Len()
	comp := make([]float64, n)
	if h.M == 0 {
		return comp
	}
	for k := 1; k <= h.M; k++ {
		for i := 0; i < n; i++ {
			comp[i] += h.Match[k][i]
		}
	}
	for i := range comp {
		comp[i] /= float64(h.M)
	}
	return comp
}

// CheckProbabilities verifies that every emission and transition row
// sums to 1 within eps.
func (h *HMM) CheckProbabilities(eps float64) error {
	rowOK := func(row []float64) bool {
		var sum float64
		for _, p := range row {
			sum += p
		}
		return math.Abs(sum-1) <= eps
	}
	for k := 1; k <= h.M; k++ {
		if !rowOK(h.Match[k]) {
			return fmt.Errorf("hmm: match row %d does not sum to 1: %w", k, phmmerr.InvalidFormat)
		}
	}
	for k := 0; k <= h.M; k++ {
		if !rowOK(h.Insert[k]) {
			return fmt.Errorf("hmm: insert row %d does not sum to 1: %w", k, phmmerr.InvalidFormat)
		}
		t := h.Trans[k]
		m, i, d := t.Sum()
		if math.Abs(m-1) > eps || math.Abs(i-1) > eps || math.Abs(d-1) > eps {
			return fmt.Errorf("hmm: transition row %d does not sum to 1: %w", k, phmmerr.InvalidFormat)
		}
	}
	return nil
}

// Slice returns the sub-model over nodes [start, end) (1-based,
// end-exclusive), with the transitions of the final retained node
// forced to an unconditional exit, mirroring the boundary-node
// convention used when restricting an HMM to a region of interest.
func (h *HMM) Slice(start, end int) (*HMM, error) {
	if start < 1 || end > h.M+1 || start >= end {
		return nil, fmt.Errorf("hmm: invalid slice [%d, %d) of model with M=%d: %w", start, end, h.M, phmmerr.InvalidParameter)
	}
	out, err := New(h.Alpha, end-start)
	if err != nil {
		return nil, err
	}
	for k := start; k < end; k++ {
		j := k - start + 1
		copy(out.Match[j], h.Match[k])
		copy(out.Insert[j], h.Insert[k])
		out.Trans[j] = h.Trans[k]
	}
	out.Insert[0] = make([]float64, h.Alpha.Len())
	copy(out.Insert[0], h.Insert[start-1])
	out.Trans[0] = h.Trans[start-1]

	last := out.M
	out.Trans[last] = Transitions{MM: 1, IM: 1, DM: 1}
	out.Name = h.Name
	return out, nil
}
