package builder

import (
	"fmt"
	"time"

	"github.com/biogo/biogo/seq/linear"

	"github.com/kortschak/profmm/background"
	"github.com/kortschak/profmm/hmm"
	"github.com/kortschak/profmm/msa"
	"github.com/kortschak/profmm/optimized"
	"github.com/kortschak/profmm/phmmerr"
	"github.com/kortschak/profmm/profile"
	"github.com/kortschak/profmm/random"
)

// Builder constructs calibrated models under a fixed Config.
type Builder struct {
	Config Config
	rng    *random.Randomness
}

// New returns a Builder under cfg, seeded per cfg.Seed.
func New(cfg Config) *Builder {
	return &Builder{Config: cfg, rng: random.New(cfg.Seed)}
}

// Result bundles the three representations a successful build
// produces: the probabilistic HMM, its Background-configured Profile,
// and the striped OptimizedProfile derived from that Profile.
type Result struct {
	HMM       *hmm.HMM
	Profile   *profile.Profile
	Optimized *optimized.OptimizedProfile
}

// Build constructs a single-sequence model: every residue of seq
// becomes a match column, with the observed residue favored over the
// background distribution by a fixed blend, and gap transitions set
// from Config.Popen/Pextend. This mirrors phmmer's "build one model
// per query" mode, where no alignment is available to estimate
// per-column statistics from.
func (b *Builder) Build(seq *linear.Seq, bg *background.Background) (*Result, error) {
	if err := b.Config.Validate(); err != nil {
		return nil, err
	}
	letters := seq.Seq
	m := len(letters)
	if m == 0 {
		return nil, fmt.Errorf("builder: empty query sequence: %w", phmmerr.EmptyModel)
	}
	if seq.Alphabet() != bg.Alphabet() {
		return nil, fmt.Errorf("builder: sequence alphabet != background alphabet: %w", phmmerr.AlphabetMismatch)
	}

	h, err := hmm.New(bg.Alphabet(), m)
	if err != nil {
		return nil, err
	}
	h.Name = seq.Name()
	h.Ctime = time.Now()
	h.Nseq = 1
	h.NseqEffective = 1

	// obsWeight is the identity fraction a substitution-matrix-style
	// prior would assign the observed residue; the rest is spread
	// across the background distribution. This is a fixed stand-in for
	// a real BLOSUM-derived target distribution, which this package has
	// no pack-grounded table for (see Config.ScoreMatrix).
	const obsWeight = 0.8
	n := bg.Alphabet().Len()
	freq := freqVector(bg)
	for k := 1; k <= m; k++ {
		sym := bg.Alphabet().IndexOf(letters[k-1])
		row := make([]float64, n)
		for i := 0; i < n; i++ {
			row[i] = (1 - obsWeight) * freq[i]
		}
		if sym >= 0 {
			row[sym] += obsWeight
		}
		h.Match[k] = row
		h.Insert[k] = append([]float64(nil), freq...)
	}
	h.Insert[0] = append([]float64(nil), freq...)

	popen, pextend := b.Config.Popen, b.Config.Pextend
	for k := 0; k <= m; k++ {
		h.Trans[k] = hmm.Transitions{
			MM: 1 - 2*popen, MI: popen, MD: popen,
			IM: 1 - pextend, II: pextend,
			DM: 1 - pextend, DD: pextend,
		}
	}
	h.Trans[m] = hmm.Transitions{MM: 1, IM: 1, DM: 1}
	h.Renormalize()

	if err := b.calibrate(h, bg); err != nil {
		return nil, err
	}
	return b.assemble(h, bg)
}

// BuildMSA constructs a model from an already-aligned MSA: columns are
// selected per Config.Architecture, sequences are weighted per
// Config.Weighting, observed counts are mixed with a Config.PriorScheme
// pseudocount informed by Config.ERE, and the result is statistically
// calibrated by simulation.
func (b *Builder) BuildMSA(name string, m *msa.MSA, bg *background.Background) (*Result, error) {
	if err := b.Config.Validate(); err != nil {
		return nil, err
	}
	if m.Alpha != bg.Alphabet() {
		return nil, fmt.Errorf("builder: MSA alphabet != background alphabet: %w", phmmerr.AlphabetMismatch)
	}
	nseq := m.Nseq()
	alen := m.Alen()
	if nseq == 0 || alen == 0 {
		return nil, fmt.Errorf("builder: empty alignment: %w", phmmerr.EmptyModel)
	}

	weights := SequenceWeights(m, b.Config.Weighting)
	downweightFragments(m, weights, b.Config.Fragthresh)

	isMatch := make([]bool, alen)
	if b.Config.Architecture == ArchitectureHand && m.RF != nil {
		copy(isMatch, m.RF)
	} else {
		for col := 0; col < alen; col++ {
			var occ, wsum float64
			for r := 0; r < nseq; r++ {
				wsum += weights[r]
				if !m.IsGap(r, col) {
					occ += weights[r]
				}
			}
			if wsum > 0 && occ/wsum >= b.Config.Symfrac {
				isMatch[col] = true
			}
		}
	}

	M := 0
	matchNodeAt := make([]int, alen)
	insertBucket := make([]int, alen)
	node := 0
	for col := 0; col < alen; col++ {
		if isMatch[col] {
			node++
			M++
			matchNodeAt[col] = node
		}
		insertBucket[col] = node
	}
	if M == 0 {
		return nil, fmt.Errorf("builder: symfrac threshold %.2f left no match columns: %w", b.Config.Symfrac, phmmerr.EmptyModel)
	}

	h, err := hmm.New(bg.Alphabet(), M)
	if err != nil {
		return nil, err
	}
	h.Name = name
	h.Ctime = time.Now()
	h.Nseq = nseq
	var effN float64
	for _, w := range weights {
		effN += w
	}
	h.NseqEffective = effN

	n := bg.Alphabet().Len()
	for col := 0; col < alen; col++ {
		var row []float64
		if isMatch[col] {
			row = h.Match[matchNodeAt[col]]
		} else {
			row = h.Insert[insertBucket[col]]
		}
		for r := 0; r < nseq; r++ {
			if m.IsGap(r, col) {
				continue
			}
			sym := bg.Alphabet().IndexOf(m.Rows[r][col])
			if sym >= 0 && sym < n {
				row[sym] += weights[r]
			}
		}
	}

	mix := mixingWeight(effN, b.Config.ERE, b.Config.EffectiveNumber)
	for k := 1; k <= M; k++ {
		addPrior(h.Match[k], bg, b.Config.PriorScheme, mix)
	}
	for k := 0; k <= M; k++ {
		addPrior(h.Insert[k], bg, b.Config.PriorScheme, mix)
	}

	b.countTransitions(h, m, isMatch, matchNodeAt, insertBucket, weights)
	h.Renormalize()

	if err := b.calibrate(h, bg); err != nil {
		return nil, err
	}
	return b.assemble(h, bg)
}

// countTransitions walks each sequence's path through the selected
// match columns, accumulating weighted MM/MI/MD/IM/II/DM/DD counts.
func (b *Builder) countTransitions(h *hmm.HMM, al *msa.MSA, isMatch []bool, matchNodeAt, insertBucket []int, weights []float64) {
	alen := al.Alen()
	for r := 0; r < al.Nseq(); r++ {
		w := weights[r]
		prevNode := 0
		prevKind := byte('M') // treat the start as a virtual match state at node 0
		for col := 0; col < alen; col++ {
			gap := al.IsGap(r, col)
			if isMatch[col] {
				node := matchNodeAt[col]
				var kind byte
				if gap {
					kind = 'D'
				} else {
					kind = 'M'
				}
				accumulate(&h.Trans[prevNode], prevKind, kind, w)
				prevNode, prevKind = node, kind
			} else if !gap {
				accumulate(&h.Trans[prevNode], prevKind, 'I', w)
				prevKind = 'I'
			}
		}
	}
}

func accumulate(t *hmm.Transitions, from, to byte, w float64) {
	switch from {
	case 'M':
		switch to {
		case 'M':
			t.MM += w
		case 'I':
			t.MI += w
		case 'D':
			t.MD += w
		}
	case 'I':
		switch to {
		case 'M':
			t.IM += w
		case 'I':
			t.II += w
		}
	case 'D':
		switch to {
		case 'M':
			t.DM += w
		case 'D':
			t.DD += w
		}
	}
}

// freqVector materializes bg's per-symbol frequencies as a slice.
func freqVector(bg *background.Background) []float64 {
	n := bg.Alphabet().Len()
	freq := make([]float64, n)
	for i := range freq {
		freq[i] = bg.Freq(i)
	}
	return freq
}

// assemble configures a Profile and OptimizedProfile from h.
func (b *Builder) assemble(h *hmm.HMM, bg *background.Background) (*Result, error) {
	p, err := profile.New(h, bg, profile.DefaultLength, true, true)
	if err != nil {
		return nil, err
	}
	op, err := optimized.From(p, 0)
	if err != nil {
		return nil, err
	}
	return &Result{HMM: h, Profile: p, Optimized: op}, nil
}
