package results

import (
	"fmt"
	"sort"

	"github.com/kortschak/profmm/hmm"
	"github.com/kortschak/profmm/phmmerr"
)

// Mode names whether a TopHits was produced by a one-query-many-targets
// search or a one-sequence-many-models scan.
type Mode int

const (
	ModeSearch Mode = iota
	ModeScan
)

func (m Mode) String() string {
	if m == ModeScan {
		return "scan"
	}
	return "search"
}

// Strand names which strand(s) a long-target search covered.
type Strand int

const (
	StrandNone Strand = iota
	StrandWatson
	StrandCrick
	StrandBoth
)

// Thresholds holds the effective reporting/inclusion thresholds a
// TopHits applies. A nil T/DomT (or IncT/IncDomT) means "use the E-value threshold
// instead of a bit-score threshold".
type Thresholds struct {
	E, DomE       float64
	IncE, IncDomE float64
	T, DomT       *float64
	IncT, IncDomT *float64
}

// DefaultThresholds returns the standard HMMER-style defaults: E=10,
// domE=10, incE=0.01, incdomE=0.01, with no bit-score overrides.
func DefaultThresholds() Thresholds {
	return Thresholds{E: 10, DomE: 10, IncE: 0.01, IncDomE: 0.01}
}

// TopHits is an append-only accumulator during a search, post
// processable into a sorted, thresholded result set.
type TopHits struct {
	QueryName, QueryAcc string

	Z, DomZ float64

	// DomSurvivors is the number of (model, target) comparisons that
	// made it past the accelerated filter stages into the full
	// Forward/Backward pass, as distinct from DomZ (the full search
	// space size). It is what each Domain's CEvalue is conditioned on.
	DomSurvivors float64

	Thresholds Thresholds
	BitCutoffs hmm.Selector

	SearchedModels    int64
	SearchedNodes     int64
	SearchedSequences int64
	SearchedResidues  int64

	Mode       Mode
	LongTarget bool
	Strand     Strand
	BlockLength int

	hits   []*Hit
	sorted string // "", "key" or "seqidx"
}

// New constructs an empty TopHits with default thresholds.
func New(mode Mode) *TopHits {
	return &TopHits{Thresholds: DefaultThresholds(), Mode: mode}
}

// Append adds a fully-formed Hit, atomic with respect to a single
// target. Hits are assumed appended in target iteration order; Append
// assigns SeqIdx accordingly unless the caller has already set a
// non-zero SeqIdx.
func (th *TopHits) Append(h *Hit) {
	if h.SeqIdx == 0 {
		h.SeqIdx = len(th.hits)
	}
	h.owner = th
	th.hits = append(th.hits, h)
	th.sorted = ""
}

// Len returns the number of hits accumulated so far.
func (th *TopHits) Len() int { return len(th.hits) }

// At returns the i'th hit in the accumulator's current order.
func (th *TopHits) At(i int) *Hit { return th.hits[i] }

// All returns every accumulated hit, in current order. The returned
// slice must not be mutated by the caller.
func (th *TopHits) All() []*Hit { return th.hits }

// IsSorted reports whether the collection is currently ordered by key
// ("key", E-value ascending with (name, seqidx) tie-break) or by
// original target order ("seqidx").
func (th *TopHits) IsSorted(by string) bool { return th.sorted == by }

// Sort stably orders hits by by, either "key" (E-value ascending, tied
// on name then SeqIdx for reproducibility) or "seqidx" (original target
// iteration order). Two invocations on the same input produce
// byte-identical ordering, since sort.SliceStable is itself stable and
// the comparator is a total order.
func (th *TopHits) Sort(by string) error {
	switch by {
	case "key":
		sort.SliceStable(th.hits, func(i, j int) bool {
			a, b := th.hits[i], th.hits[j]
			if a.Evalue != b.Evalue {
				return a.Evalue < b.Evalue
			}
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.SeqIdx < b.SeqIdx
		})
	case "seqidx":
		sort.SliceStable(th.hits, func(i, j int) bool {
			return th.hits[i].SeqIdx < th.hits[j].SeqIdx
		})
	default:
		return fmt.Errorf("results: unknown sort key %q: %w", by, phmmerr.InvalidParameter)
	}
	th.sorted = by
	return nil
}

// ApplyThresholds sets Included/Reported on every Hit and Domain in
// place. The collection's length is unchanged. If BitCutoffs names a
// selector other than hmm.NoCutoffs,
// every model-embedded cutoff pair overrides the E/T thresholds; the
// cutoffs are supplied by the caller per hit via cutoffsOf, since a
// TopHits can span hits scored against different models (scan mode).
func (th *TopHits) ApplyThresholds(cutoffsOf func(h *Hit) hmm.Cutoffs) error {
	for _, h := range th.hits {
		seqT, domT := th.Thresholds.T, th.Thresholds.DomT
		incT, incDomT := th.Thresholds.IncT, th.Thresholds.IncDomT
		e, incE := th.Thresholds.E, th.Thresholds.IncE
		domE, incDomE := th.Thresholds.DomE, th.Thresholds.IncDomE

		if th.BitCutoffs != hmm.NoCutoffs {
			cuts := hmm.Cutoffs{}
			if cutoffsOf != nil {
				cuts = cutoffsOf(h)
			}
			pair, err := cuts.Select(th.BitCutoffs)
			if err != nil {
				return err
			}
			s1, s2 := pair.Score1, pair.Score2
			seqT, domT, incT, incDomT = &s1, &s2, &s1, &s2
		}

		h.Reported = passes(h.Score, h.Evalue, seqT, e)
		h.Included = passes(h.Score, h.Evalue, incT, incE)
		if !h.Reported {
			h.Included = false
		}

		for _, d := range h.domains {
			d.Reported = h.Reported && passes(d.Score, d.IEvalue, domT, domE)
			d.Included = h.Included && passes(d.Score, d.IEvalue, incDomT, incDomE)
			if !d.Reported {
				d.Included = false
			}
		}
	}
	return nil
}

func passes(score, evalue float64, bitT *float64, eThresh float64) bool {
	if bitT != nil {
		return score >= *bitT
	}
	return evalue <= eThresh
}

// Reported returns the hits flagged Reported, in current order.
func (th *TopHits) Reported() []*Hit { return filterHits(th.hits, func(h *Hit) bool { return h.Reported }) }

// Included returns the hits flagged Included, in current order.
func (th *TopHits) Included() []*Hit { return filterHits(th.hits, func(h *Hit) bool { return h.Included }) }

func filterHits(hits []*Hit, keep func(*Hit) bool) []*Hit {
	out := make([]*Hit, 0, len(hits))
	for _, h := range hits {
		if keep(h) {
			out = append(out, h)
		}
	}
	return out
}

// CompareRanking returns the number of included hits whose Name is not
// present in keyhash; used by IterativeSearch to detect convergence.
func (th *TopHits) CompareRanking(keyhash map[string]bool) int {
	n := 0
	for _, h := range th.hits {
		if h.Included && !keyhash[h.Name] {
			n++
		}
	}
	return n
}

// RankingKey returns the set of names of currently Included hits,
// suitable for a later CompareRanking call.
func (th *TopHits) RankingKey() map[string]bool {
	key := make(map[string]bool, len(th.hits))
	for _, h := range th.hits {
		if h.Included {
			key[h.Name] = true
		}
	}
	return key
}
