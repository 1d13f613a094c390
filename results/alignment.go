// Package results implements the reported-hit hierarchy produced by a
// search: Alignment (one aligned region) owned by a Domain, Domain
// (an envelope with significance values) owned by a Hit, and Hit
// (a per-target scoring summary) owned by a TopHits accumulator.
//
// The owning edge runs TopHits -> Hits -> Domains -> Alignments.
// Back-references (Domain.Hit, Alignment.Domain) are plain pointers
// rather than an arena of indices: Go's garbage collector reclaims
// reference cycles natively, so the non-owning back-edge adds no
// lifecycle burden, only a documented direction of ownership.
package results

// Alignment is one aligned region between a model and a target: model
// coordinates, target coordinates, and the three rendered strings used
// for human-readable display.
type Alignment struct {
	domain *Domain // non-owning back-reference

	HMMFrom, HMMTo       int
	TargetFrom, TargetTo int

	// HMMConsensus, TargetSeq and Identity are equal-length rendered
	// strings: the model consensus, the aligned target residues (with
	// '-' for model-side deletions), and a midline of identity/
	// similarity markers.
	HMMConsensus string
	TargetSeq    string
	Identity     string
}

// Domain returns the Domain that owns this Alignment.
func (a *Alignment) Domain() *Domain { return a.domain }
