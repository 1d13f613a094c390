// Package builder constructs a calibrated Plan7 HMM (and its derived
// Profile and OptimizedProfile) either from a single query sequence or
// from a multiple sequence alignment, following the same construction
// pipeline hmmbuild implements: column selection, sequence weighting,
// Dirichlet pseudocount mixing, relative-entropy targeting, and
// simulation-based statistical calibration.
package builder

import (
	"fmt"

	"github.com/kortschak/profmm/phmmerr"
)

// Architecture selects how match/insert columns are chosen from an
// MSA.
type Architecture int

const (
	// ArchitectureFast marks a column as a match state when its
	// residue occupancy is >= Config.Symfrac.
	ArchitectureFast Architecture = iota
	// ArchitectureHand honors the caller-supplied msa.MSA.RF
	// annotation instead of computing occupancy.
	ArchitectureHand
)

// Weighting selects the per-sequence relative weighting scheme applied
// before column statistics are collected.
type Weighting int

const (
	WeightPB      Weighting = iota // position-based (Henikoff & Henikoff)
	WeightGSC                      // phylogenetic tree weights
	WeightBlosum                   // single-linkage identity clustering
	WeightNone                     // every sequence weighted 1
	WeightGiven                    // caller-supplied msa.MSA.Weights
)

// EffectiveNumber selects how the total sequence count is rescaled
// before relative-entropy targeting picks a mixing coefficient.
type EffectiveNumber int

const (
	EffEntropy EffectiveNumber = iota
	EffExp
	EffClust
	EffNone
)

// PriorScheme selects the pseudocount mixture added to observed column
// counts before normalizing to probabilities.
type PriorScheme int

const (
	PriorLaplace  PriorScheme = iota // flat pseudocounts, the mixing weight spread evenly over symbols
	PriorAlphabet                   // background-frequency-proportional pseudocounts
	PriorNone                        // use observed counts as-is
)

// Config holds every tunable of the construction pipeline. Zero value
// is not meaningful; use DefaultConfig.
type Config struct {
	Architecture    Architecture
	Weighting       Weighting
	EffectiveNumber EffectiveNumber
	PriorScheme     PriorScheme

	// Symfrac is the minimum column occupancy for ArchitectureFast to
	// call a column a match state.
	Symfrac float64
	// Fragthresh marks a sequence a fragment (its weight set to zero)
	// when its aligned span covers less than this fraction of
	// the alignment.
	Fragthresh float64

	// EmL, EmN parameterize MSV calibration: EmN random sequences of
	// length EmL.
	EmL, EmN int
	// EvL, EvN parameterize Viterbi calibration.
	EvL, EvN int
	// EfL, EfN, Eft parameterize Forward calibration: EfN random
	// sequences of length EfL, fitting the exponential tail above the
	// Eft upper quantile.
	EfL, EfN int
	Eft      float64

	// ERE is the target mean relative entropy per match column, in
	// bits, used to choose the pseudocount/observed-count mixing
	// weight when EffectiveNumber != EffNone.
	ERE float64

	// Popen, Pextend are gap-open/gap-extend probabilities used only
	// by single-sequence Build (MSA-derived models get their
	// transition probabilities from observed counts instead).
	Popen, Pextend float64
	// ScoreMatrix names a substitution matrix (e.g. "BLOSUM62"). It is
	// recorded in the Config only: Build does not read it, and blends
	// each observed residue with the background at a fixed weight.
	ScoreMatrix string

	// Seed seeds calibration's random sequence generator; 0 requests a
	// nondeterministic stream.
	Seed uint64
}

// Validate reports an error wrapping phmmerr.InvalidParameter when any
// tunable falls outside its permitted range.
func (c Config) Validate() error {
	if c.Symfrac < 0 || c.Symfrac > 1 {
		return fmt.Errorf("builder: symfrac %g outside [0,1]: %w", c.Symfrac, phmmerr.InvalidParameter)
	}
	if c.Fragthresh < 0 || c.Fragthresh > 1 {
		return fmt.Errorf("builder: fragthresh %g outside [0,1]: %w", c.Fragthresh, phmmerr.InvalidParameter)
	}
	if c.Popen < 0 {
		return fmt.Errorf("builder: popen %g < 0: %w", c.Popen, phmmerr.InvalidParameter)
	}
	if c.Pextend < 0 {
		return fmt.Errorf("builder: pextend %g < 0: %w", c.Pextend, phmmerr.InvalidParameter)
	}
	return nil
}

// DefaultConfig returns the standard hmmbuild-equivalent defaults.
func DefaultConfig() Config {
	return Config{
		Architecture:    ArchitectureFast,
		Weighting:       WeightPB,
		EffectiveNumber: EffEntropy,
		PriorScheme:     PriorAlphabet,
		Symfrac:         0.5,
		Fragthresh:      0.5,
		EmL:             200, EmN: 200,
		EvL: 200, EvN: 200,
		EfL: 100, EfN: 200,
		Eft:          0.04,
		ERE:          0.59,
		Popen:        0.02,
		Pextend:      0.4,
		ScoreMatrix: "BLOSUM62",
	}
}
