package pipeline

import (
	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"
	"github.com/biogo/store/interval"

	"github.com/kortschak/profmm/background"
	"github.com/kortschak/profmm/hmm"
	"github.com/kortschak/profmm/results"
)

// LongTargetsPipeline searches a query model against one very long
// target (a chromosome or contig) by sliding overlapping windows across
// it rather than scoring the whole sequence in one Forward/Backward
// pass, merging hits the window split, and translating envelope
// coordinates back into the full target's numbering.
type LongTargetsPipeline struct {
	Pipeline
}

// NewLongTargets returns a LongTargetsPipeline under cfg.
func NewLongTargets(cfg Config, bg *background.Background) *LongTargetsPipeline {
	return &LongTargetsPipeline{Pipeline: *New(cfg, bg)}
}

// windowInterval adapts one window hit's translated envelope span into
// the interval package's half-open range, so overlapping windows'
// rediscoveries of the same domain can be deduplicated with an
// IntTree rather than an all-pairs comparison.
type windowInterval struct {
	id         uintptr
	start, end int
}

func (w windowInterval) ID() uintptr { return w.id }
func (w windowInterval) Range() interval.IntRange {
	return interval.IntRange{Start: w.start, End: w.end}
}
func (w windowInterval) Overlap(b interval.IntRange) bool {
	return w.end > b.Start && w.start < b.End
}

// Search runs query against target, sliding Config.WindowLength windows
// with half that length overlap (enough slack for any domain shorter
// than the overlap to fall whole inside at least one window), merging
// duplicate windowed hits by envelope overlap.
func (lp *LongTargetsPipeline) Search(query *hmm.HMM, target *linear.Seq, strand results.Strand) (*results.TopHits, error) {
	th := results.New(results.ModeSearch)
	th.QueryName, th.QueryAcc = query.Name, query.Acc
	th.LongTarget = true
	th.Strand = strand

	switch strand {
	case results.StrandWatson, results.StrandNone:
		if err := lp.searchStrand(query, target, th, false); err != nil {
			return nil, err
		}
	case results.StrandCrick:
		rc := reverseComplement(target)
		if err := lp.searchStrand(query, rc, th, true); err != nil {
			return nil, err
		}
	case results.StrandBoth:
		if err := lp.searchStrand(query, target, th, false); err != nil {
			return nil, err
		}
		rc := reverseComplement(target)
		if err := lp.searchStrand(query, rc, th, true); err != nil {
			return nil, err
		}
	}

	// Every hit already recorded in th survived its own window's full
	// filter cascade, so the hit count itself is the filter-survivor
	// population CEvalue is conditioned on for a long-target search.
	finalizeTopHits(th, 1, float64(th.Len()))
	th.MarkDuplicates(defaultDuplicateOverlap)
	if err := th.Sort("key"); err != nil {
		return nil, err
	}
	return th, th.ApplyThresholds(func(*results.Hit) hmm.Cutoffs { return query.Cutoffs })
}

// searchStrand runs query against target (target is already the
// reverse-complemented sequence when crick is true) and translates
// each hit's envelope coordinates back into the original, forward
// target's numbering before recording it in th.
func (lp *LongTargetsPipeline) searchStrand(query *hmm.HMM, target *linear.Seq, th *results.TopHits, crick bool) error {
	win := lp.Config.WindowLength
	length := target.Len()
	if win <= 0 || win > length {
		win = length
	}
	overlap := win / 2
	th.BlockLength = win

	tree := &interval.IntTree{}
	var id uintptr
	stride := win - overlap
	if stride < 1 {
		stride = win
	}
	for start := 0; start < length; start += stride {
		end := start + win
		if end > length {
			end = length
		}
		sub := linear.NewSeq(target.Name(), append(alphabet.Letters(nil), target.Seq[start:end]...), target.Alphabet())
		subHits, err := lp.SearchHMM(query, []*linear.Seq{sub})
		if err != nil {
			return err
		}
		for _, h := range subHits.All() {
			lo, hi := translateHit(h, start, length, crick)
			id++
			wi := windowInterval{id: id, start: lo, end: hi}
			if len(tree.Get(wi)) == 0 {
				tree.Insert(wi, true)
				h.SeqIdx = th.Len()
				th.Append(h)
			}
		}
		if end == length {
			break
		}
	}
	tree.AdjustRanges()
	return nil
}

// translateHit shifts every domain of h from its window-local envelope
// coordinates into the original, full-length target's numbering and
// returns the hit's overall envelope span (always lo <= hi) for
// window-overlap deduplication.
//
// offset is the window's start position (0-based) in the sequence
// that was actually searched: the forward target when crick is false,
// or its reverse complement when crick is true. When crick is true,
// window-local (and therefore rc-local) positions are first shifted by
// offset into full rc coordinates, then mapped back onto the forward
// target via pos -> length-pos+1, so a minus-strand domain's EnvFrom
// ends up greater than its EnvTo, as required for a Crick-strand hit.
func translateHit(h *results.Hit, offset, length int, crick bool) (lo, hi int) {
	lo, hi = -1, -1
	for i := 0; i < h.Domains().Len(); i++ {
		d := h.Domains().At(i)
		if crick {
			rcFrom := d.EnvFrom + offset
			rcTo := d.EnvTo + offset
			d.EnvFrom = length - rcFrom + 1
			d.EnvTo = length - rcTo + 1
		} else {
			d.EnvFrom += offset
			d.EnvTo += offset
		}
		from, to := d.EnvFrom, d.EnvTo
		if from > to {
			from, to = to, from
		}
		if lo < 0 || from < lo {
			lo = from
		}
		if to > hi {
			hi = to
		}
	}
	return lo, hi
}

// reverseComplement returns the Crick-strand reading of target: the
// reverse of its residues, each complemented under the standard IUPAC
// pairing. Ambiguity codes are paired with their own complements
// (e.g. R<->Y); any symbol outside the nucleotide alphabet is left
// unchanged.
func reverseComplement(target *linear.Seq) *linear.Seq {
	src := target.Seq
	out := make(alphabet.Letters, len(src))
	for i, l := range src {
		out[len(src)-1-i] = complementOf(l)
	}
	return linear.NewSeq(target.Name()+" [revcomp]", out, target.Alphabet())
}

func complementOf(l alphabet.Letter) alphabet.Letter {
	switch l {
	case 'A':
		return 'T'
	case 'T', 'U':
		return 'A'
	case 'C':
		return 'G'
	case 'G':
		return 'C'
	case 'R':
		return 'Y'
	case 'Y':
		return 'R'
	case 'K':
		return 'M'
	case 'M':
		return 'K'
	case 'B':
		return 'V'
	case 'V':
		return 'B'
	case 'D':
		return 'H'
	case 'H':
		return 'D'
	case 'a':
		return 't'
	case 't', 'u':
		return 'a'
	case 'c':
		return 'g'
	case 'g':
		return 'c'
	default:
		return l
	}
}
