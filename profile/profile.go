// Package profile implements the log-odds score form of a profile HMM:
// an hmm.HMM configured against a background.Background for a particular
// target length, locality and multi-hit mode.
package profile

import (
	"fmt"
	"math"

	"github.com/biogo/biogo/alphabet"

	"github.com/kortschak/profmm/background"
	"github.com/kortschak/profmm/hmm"
	"github.com/kortschak/profmm/phmmerr"
)

// DefaultLength is the target length L a Profile is configured for when
// the caller has not yet observed a real target (100/100 is used only
// before the very first target; 400 is the Builder/Background default
// thereafter).
const DefaultLength = 400

// Special holds the log-odds (nats) transition scores of the five
// special states {N, C, J, B, E} that govern how a target enters and
// exits the core model, and whether multiple passes are allowed.
type Special struct {
	NLoop, NMove float64
	ELoop, EMove float64
	CLoop, CMove float64
	JLoop, JMove float64
}

// Profile is an HMM scored against a Background for a configured target
// length L, locality and multi-hit mode.
type Profile struct {
	src *hmm.HMM
	bg  *background.Background

	M         int
	L         int
	Local     bool
	Multihit  bool
	configured bool

	// Match[k] and Insert[k] hold log-odds scores in nats for node k.
	Match  [][]float64
	Insert [][]float64

	// Trans[k] holds the log-odds (nats) transition scores leaving
	// node k; since both the query model and the null model pay the
	// same loop cost outside special states, no null-model correction
	// is applied to core transitions.
	Trans []hmm.Transitions

	Special Special
}

// Name, Acc and Desc mirror the originating HMM's identifying metadata.
func (p *Profile) Name() string { return p.src.Name }
func (p *Profile) Acc() string  { return p.src.Acc }
func (p *Profile) Desc() string { return p.src.Desc }

// HMM returns the originating HMM this Profile was configured from.
func (p *Profile) HMM() *hmm.HMM { return p.src }

// Background returns the null model this Profile was configured
// against.
func (p *Profile) Background() *background.Background { return p.bg }

// Alphabet returns the profile's alphabet.
func (p *Profile) Alphabet() alphabet.Alphabet { return p.src.Alpha }

// Evalue returns the originating HMM's calibration parameters, if any.
func (p *Profile) Evalue() *hmm.EvalueParameters { return p.src.Evalue }

// Cutoffs returns the originating HMM's bit-score cutoffs.
func (p *Profile) Cutoffs() hmm.Cutoffs { return p.src.Cutoffs }

// New configures a Profile from h against bg for target length L. local
// selects local (Smith-Waterman-like) vs glocal (global-in-model)
// alignment; multihit allows the J state to re-enter the model for
// multiple passes over one target. A Profile must be configured before
// use.
func New(h *hmm.HMM, bg *background.Background, length int, local, multihit bool) (*Profile, error) {
	if h.Alpha != bg.Alphabet() {
		return nil, fmt.Errorf("profile: HMM alphabet != background alphabet: %w", phmmerr.AlphabetMismatch)
	}
	if length < 1 {
		return nil, fmt.Errorf("profile: length must be >= 1, got %d: %w", length, phmmerr.InvalidParameter)
	}
	p := &Profile{
		src: h, bg: bg,
		M: h.M, L: length, Local: local, Multihit: multihit,
		Match:  make([][]float64, h.M+1),
		Insert: make([][]float64, h.M+1),
		Trans:  make([]hmm.Transitions, h.M+1),
	}
	p.recompute()
	p.configured = true
	return p, nil
}

// Configure re-derives the Profile's scores for a new target length,
// without reallocating its emission/transition matrices.
func (p *Profile) Configure(length int) error {
	if length < 1 {
		return fmt.Errorf("profile: length must be >= 1, got %d: %w", length, phmmerr.InvalidParameter)
	}
	p.L = length
	p.bg.SetLength(length)
	p.recomputeSpecial()
	p.configured = true
	return nil
}

func (p *Profile) recompute() {
	n := p.bg.Alphabet().Len()
	for k := 0; k <= p.M; k++ {
		p.Insert[k] = logOdds(p.src.Insert[k], p.bg, n)
		if k > 0 {
			p.Match[k] = logOdds(p.src.Match[k], p.bg, n)
		}
		p.Trans[k] = logTrans(p.src.Trans[k])
	}
	p.recomputeSpecial()
}

func logOdds(row []float64, bg *background.Background, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		f := bg.Freq(i)
		if row[i] <= 0 || f <= 0 {
			out[i] = math.Inf(-1)
			continue
		}
		out[i] = math.Log(row[i] / f)
	}
	return out
}

func logTrans(t hmm.Transitions) hmm.Transitions {
	l := func(p float64) float64 {
		if p <= 0 {
			return math.Inf(-1)
		}
		return math.Log(p)
	}
	return hmm.Transitions{
		MM: l(t.MM), MI: l(t.MI), MD: l(t.MD),
		IM: l(t.IM), II: l(t.II),
		DM: l(t.DM), DD: l(t.DD),
	}
}

// recomputeSpecial derives the N/C/J/E special-state transition scores
// for the current L and Multihit setting, following the Plan7 geometric
// length distribution: the loop probability is the null model's p1 for
// the configured L, and multihit search additionally allows the E state
// to loop back to J with even odds against an unconditional exit to C.
func (p *Profile) recomputeSpecial() {
	p1 := p.bg.P1()
	loop, move := math.Log(p1), math.Log(1-p1)
	p.Special.NLoop, p.Special.NMove = loop, move
	p.Special.CLoop, p.Special.CMove = loop, move
	if p.Multihit {
		p.Special.JLoop, p.Special.JMove = loop, move
		p.Special.ELoop, p.Special.EMove = math.Log(0.5), math.Log(0.5)
	} else {
		p.Special.JLoop, p.Special.JMove = math.Inf(-1), 0
		p.Special.ELoop, p.Special.EMove = math.Inf(-1), 0
	}
}

// IsConfigured reports whether Configure (or New) has been called.
func (p *Profile) IsConfigured() bool { return p.configured }

// RequireConfigured returns phmmerr.Unconfigured if the Profile has not
// been configured.
func (p *Profile) RequireConfigured() error {
	if !p.configured {
		return fmt.Errorf("profile: use before configure: %w", phmmerr.Unconfigured)
	}
	return nil
}

// Clone returns an independent copy suitable for per-thread mutation of
// L via Configure.
func (p *Profile) Clone() *Profile {
	c := *p
	c.bg = p.bg.Clone()
	c.Match = make([][]float64, len(p.Match))
	c.Insert = make([][]float64, len(p.Insert))
	for k := range p.Match {
		if p.Match[k] != nil {
			c.Match[k] = append([]float64(nil), p.Match[k]...)
		}
		c.Insert[k] = append([]float64(nil), p.Insert[k]...)
	}
	c.Trans = append([]hmm.Transitions(nil), p.Trans...)
	return &c
}
