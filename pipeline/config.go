// Package pipeline implements the accelerated search cascade that
// screens a model against a target (or a target against a library of
// models): an 8-bit MSV filter, an optional composition bias
// correction, a 16-bit Viterbi filter, a full Forward/Backward scoring
// pass, and domain envelope decomposition, each stage only running
// when the previous one fails to rule a target out. The Viterbi stage
// scores with builder.ViterbiScore, the function calibration samples.
// The MSV stage uses the quantized MSVFilterScore, rescaled to nats,
// against parameters fit on builder.MSVScore. The Forward stage uses
// this package's multihit Forward against parameters fit on the
// single-hit builder.ForwardScore, and domain scores use
// builder.ForwardScore itself.
package pipeline

// Config holds every tunable of the filter cascade. Zero value is not
// meaningful; use DefaultConfig.
type Config struct {
	// F1, F2, F3 are the P-value thresholds the MSV, Viterbi and
	// Forward filter stages must clear to let a target continue to the
	// next stage.
	F1, F2, F3 float64

	// BiasFilter enables the composition bias correction applied to the
	// MSV score before it is compared against F1.
	BiasFilter bool
	// Null2 enables the same composition bias correction applied to
	// each domain's envelope score before per-domain significance is
	// computed.
	Null2 bool

	// MHint, LHint seed a Background's configured length before the
	// first real target is seen.
	MHint, LHint int

	// Multihit allows a Forward/Backward pass and its domain
	// decomposition to report more than one domain per target.
	Multihit bool
	// Local selects local (Smith-Waterman-like) vs glocal alignment for
	// the Forward/Backward and domain alignment stages.
	Local bool

	// WindowLength is the sequence window size a LongTargetsPipeline
	// slides over a long target. WindowBeta is stored here but no
	// search code reads it.
	WindowLength int
	WindowBeta   float64
}

// DefaultConfig returns the standard hmmsearch-equivalent defaults:
// F1=0.02, F2=1e-3, F3=1e-5, bias filter and null2 both on, multihit
// local alignment, and a 100-residue M/L hint.
func DefaultConfig() Config {
	return Config{
		F1: 0.02, F2: 1e-3, F3: 1e-5,
		BiasFilter: true, Null2: true,
		MHint: 100, LHint: 100,
		Multihit:     true,
		Local:        true,
		WindowLength: 262144,
		WindowBeta:   1e-7,
	}
}
