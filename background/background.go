// Package background implements the Plan7 null model: residue background
// frequencies and the geometric length distribution used to score targets
// against "random sequence" rather than against a profile.
package background

import (
	"fmt"
	"math"

	"github.com/biogo/biogo/alphabet"
)

// DefaultOmega is the null2 composition-bias prior weight used when a
// Background is constructed with NewDefault.
const DefaultOmega = 1.0 / 256.0

// Background is the null model: a residue frequency vector, a single
// transition probability governing the expected target length, and the
// omega tuning factor used by bias-correction filters.
type Background struct {
	alpha alphabet.Alphabet

	// freq holds one frequency per alphabet.Alphabet.Len(), summing to 1.
	freq []float64

	// p1 is the null model's self-transition probability, i.e. the
	// probability of emitting another residue; 1-p1 is the probability
	// of terminating. L is derived from p1 as L = p1/(1-p1).
	p1 float64

	// length is the configured expected target length L.
	length int

	// omega is the null2 bias-correction prior weight.
	omega float64
}

// New constructs a Background over alpha with explicit residue
// frequencies. freq must have one entry per symbol in alpha and sum to 1
// within 1e-5.
func New(alpha alphabet.Alphabet, freq []float64, length int) (*Background, error) {
	if len(freq) != alpha.Len() {
		return nil, fmt.Errorf("background: %d frequencies for alphabet of size %d", len(freq), alpha.Len())
	}
	var sum float64
	for _, f := range freq {
		sum += f
	}
	if math.Abs(sum-1) > 1e-5 {
		return nil, fmt.Errorf("background: frequencies sum to %v, want 1", sum)
	}
	b := &Background{
		alpha:  alpha,
		freq:   append([]float64(nil), freq...),
		omega:  DefaultOmega,
		length: length,
	}
	b.SetLength(length)
	return b, nil
}

// NewDefault constructs a Background with uniform residue frequencies
// and L=400, matching the Pipeline default target length.
func NewDefault(alpha alphabet.Alphabet) *Background {
	n := alpha.Len()
	freq := make([]float64, n)
	for i := range freq {
		freq[i] = 1.0 / float64(n)
	}
	b, _ := New(alpha, freq, 400)
	return b
}

// Alphabet returns the background's alphabet.
func (b *Background) Alphabet() alphabet.Alphabet { return b.alpha }

// Freq returns the background frequency of the i'th alphabet symbol.
func (b *Background) Freq(i int) float64 { return b.freq[i] }

// Omega returns the null2 bias-correction prior weight.
func (b *Background) Omega() float64 { return b.omega }

// SetOmega sets the null2 bias-correction prior weight.
func (b *Background) SetOmega(omega float64) { b.omega = omega }

// Length returns the configured expected target length L.
func (b *Background) Length() int { return b.length }

// SetLength reconfigures the null model's geometric length distribution
// for expected target length L, following Plan7's p1 = L/(L+1).
func (b *Background) SetLength(length int) {
	if length < 1 {
		length = 1
	}
	b.length = length
	b.p1 = float64(length) / float64(length+1)
}

// P1 returns the null model's self-transition (N/C/J loop) probability.
func (b *Background) P1() float64 { return b.p1 }

// Clone returns an independent copy of b, safe for per-thread mutation
// of Length/Omega.
func (b *Background) Clone() *Background {
	c := *b
	c.freq = append([]float64(nil), b.freq...)
	return &c
}

// NullScore returns the log-probability (bits) of emitting a sequence
// with the given per-symbol residue counts from this null model:
// n*log(p1) + log(1-p1) for n residues, plus residue emission log(f_i)
// summed per position, i.e. the standard Plan7 null1 score.
func (b *Background) NullScore(counts []int) float64 {
	var score float64
	n := 0
	for i, c := range counts {
		if c == 0 {
			continue
		}
		score += float64(c) * math.Log(b.freq[i])
		n += c
	}
	// Length term: n emissions each pay log(p1), plus one log(1-p1) to
	// terminate the geometric run.
	score += float64(n)*math.Log(b.p1) + math.Log(1-b.p1)
	return score / math.Ln2 // bits
}
