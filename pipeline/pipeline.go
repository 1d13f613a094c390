package pipeline

import (
	"fmt"
	"math"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"

	"github.com/kortschak/profmm/aligner"
	"github.com/kortschak/profmm/background"
	"github.com/kortschak/profmm/builder"
	"github.com/kortschak/profmm/hmm"
	"github.com/kortschak/profmm/msa"
	"github.com/kortschak/profmm/optimized"
	"github.com/kortschak/profmm/phmmerr"
	"github.com/kortschak/profmm/profile"
	"github.com/kortschak/profmm/results"
	"github.com/kortschak/profmm/scoredata"
)

// Pipeline runs the filter cascade for one query against a target
// collection, or one target against a model collection, sharing a
// Background across every (model, target) pair it scores.
type Pipeline struct {
	Config     Config
	Background *background.Background
}

// New returns a Pipeline under cfg, reconfiguring bg's length hint to
// cfg.LHint.
func New(cfg Config, bg *background.Background) *Pipeline {
	bg.SetLength(cfg.LHint)
	return &Pipeline{Config: cfg, Background: bg}
}

// stage bundles the derived scoring tables for one model, built once
// per query and reused across every target it is searched against.
type stage struct {
	hmm *hmm.HMM
	p   *profile.Profile
	op  *optimized.OptimizedProfile
	sd  *scoredata.ScoreData
}

func (pl *Pipeline) prepare(h *hmm.HMM) (*stage, error) {
	p, err := profile.New(h, pl.Background, pl.Config.LHint, pl.Config.Local, pl.Config.Multihit)
	if err != nil {
		return nil, err
	}
	op, err := optimized.From(p, 0)
	if err != nil {
		return nil, err
	}
	sd, err := scoredata.New(p, op)
	if err != nil {
		return nil, err
	}
	return &stage{hmm: h, p: p, op: op, sd: sd}, nil
}

// outcome is one target's result through the cascade, populated only
// when the target survives every filter stage.
type outcome struct {
	calls []DomainCall
	fwd   float64
}

// score runs the full MSV -> bias -> Viterbi -> Forward -> domain
// cascade for one target against st, returning a nil outcome if the
// target was filtered out at any stage. passedFilters reports whether
// the target made it past both accelerated filters (MSV and Viterbi)
// into the full Forward/Backward pass, regardless of whether Forward
// itself, or domain decomposition, went on to reject it; this is the
// count buildHit's CEvalue is conditioned on, as distinct from IEvalue.
func (pl *Pipeline) score(st *stage, seq alphabet.Letters) (out *outcome, passedFilters bool, err error) {
	if st.hmm.Evalue == nil {
		return nil, false, fmt.Errorf("pipeline: model %q has no calibration parameters: %w", st.hmm.Name, phmmerr.InvalidParameter)
	}
	ev := st.hmm.Evalue

	msv := MSVFilterScore(st.op, seq)
	if pl.Config.BiasFilter {
		bias := BiasCorrection(st.op.Alphabet(), seq, st.sd.Compo, pl.Background.Freq)
		msv -= bias
	}
	if ev.MSVPvalue(msv) > pl.Config.F1 {
		return nil, false, nil
	}

	ta := aligner.New(st.hmm)
	vit := builder.ViterbiScore(ta, st.op.Alphabet(), seq)
	if ev.ViterbiPvalue(vit) > pl.Config.F2 {
		return nil, false, nil
	}
	passedFilters = true

	if err := st.p.Configure(len(seq)); err != nil {
		return nil, passedFilters, err
	}
	fwd, core := Forward(st.p, seq)
	if ev.ForwardPvalue(fwd) > pl.Config.F3 {
		return nil, passedFilters, nil
	}

	calls := Decompose(st.p, seq, core)
	if len(calls) == 0 {
		return nil, passedFilters, nil
	}
	return &outcome{calls: calls, fwd: fwd}, passedFilters, nil
}

const natsPerBit = math.Ln2

// buildHit converts an outcome into a results.Hit with one Domain per
// DomainCall, not yet appended to a TopHits. For each domain it derives
// a restricted Viterbi-traceback Alignment over the domain's own
// envelope window, and, when Null2 is enabled, applies the composition
// bias correction to that window's score, recording the correction in
// Domain.Bias and the corrected score in Domain.EnvelopeScore.
func (pl *Pipeline) buildHit(name string, st *stage, seq alphabet.Letters, out *outcome) (*results.Hit, error) {
	ev := st.hmm.Evalue
	h, err := results.NewHit(name)
	if err != nil {
		return nil, err
	}
	h.Score = out.fwd / natsPerBit
	h.Pvalue = ev.ForwardPvalue(out.fwd)

	ta := aligner.New(st.hmm)
	for _, c := range out.calls {
		d := h.AddDomain()
		d.EnvFrom, d.EnvTo = c.EnvFrom, c.EnvTo
		d.Score = c.Score / natsPerBit

		corrected := c.Score
		if pl.Config.Null2 {
			from, to := c.EnvFrom, c.EnvTo
			if from > to {
				from, to = to, from
			}
			bias := BiasCorrection(st.op.Alphabet(), seq[from-1:to], st.sd.Compo, pl.Background.Freq)
			corrected -= bias
			d.Bias = bias / natsPerBit
		}
		d.EnvelopeScore = corrected / natsPerBit
		d.Pvalue = ev.ForwardPvalue(corrected)

		from, to := c.EnvFrom, c.EnvTo
		if from > to {
			from, to = to, from
		}
		if a, err := buildAlignment(ta, st.p, seq, from, to); err == nil {
			d.SetAlignment(a)
		}
	}
	return h, nil
}

// SearchHMM searches an already-built, calibrated query model against
// targets (hmmsearch's core operation), returning one TopHits keyed by
// target name.
func (pl *Pipeline) SearchHMM(query *hmm.HMM, targets []*linear.Seq) (*results.TopHits, error) {
	st, err := pl.prepare(query)
	if err != nil {
		return nil, err
	}
	th := results.New(results.ModeSearch)
	th.QueryName, th.QueryAcc = query.Name, query.Acc
	th.BitCutoffs = hmm.NoCutoffs

	var survivors float64
	for idx, t := range targets {
		if t.Alphabet() != query.Alpha {
			return nil, fmt.Errorf("pipeline: target %q alphabet != model alphabet: %w", t.Name(), phmmerr.AlphabetMismatch)
		}
		th.SearchedSequences++
		th.SearchedResidues += int64(t.Len())

		out, passed, err := pl.score(st, t.Seq)
		if err != nil {
			return nil, err
		}
		if passed {
			survivors++
		}
		if out == nil {
			continue
		}
		h, err := pl.buildHit(t.Name(), st, t.Seq, out)
		if err != nil {
			return nil, err
		}
		h.SeqIdx = idx
		th.Append(h)
	}
	finalizeTopHits(th, float64(len(targets)), survivors)
	th.MarkDuplicates(defaultDuplicateOverlap)
	if err := th.Sort("key"); err != nil {
		return nil, err
	}
	return th, th.ApplyThresholds(func(*results.Hit) hmm.Cutoffs { return query.Cutoffs })
}

// SearchMSA builds a calibrated model from an alignment via b, then
// runs SearchHMM with it (hmmbuild piped directly into hmmsearch).
func (pl *Pipeline) SearchMSA(b *builder.Builder, name string, m *msa.MSA, targets []*linear.Seq) (*results.TopHits, error) {
	res, err := b.BuildMSA(name, m, pl.Background)
	if err != nil {
		return nil, err
	}
	return pl.SearchHMM(res.HMM, targets)
}

// SearchSeq builds a single-sequence model from query via b, then runs
// SearchHMM with it (phmmer's core operation).
func (pl *Pipeline) SearchSeq(b *builder.Builder, query *linear.Seq, targets []*linear.Seq) (*results.TopHits, error) {
	res, err := b.Build(query, pl.Background)
	if err != nil {
		return nil, err
	}
	return pl.SearchHMM(res.HMM, targets)
}

// ScanSeq searches one target sequence against a collection of models
// (hmmscan's core operation), returning one TopHits keyed by model
// name.
func (pl *Pipeline) ScanSeq(target *linear.Seq, models []*hmm.HMM) (*results.TopHits, error) {
	th := results.New(results.ModeScan)
	th.QueryName = target.Name()

	var survivors float64
	for idx, m := range models {
		if m.Alpha != target.Alphabet() {
			return nil, fmt.Errorf("pipeline: model %q alphabet != target alphabet: %w", m.Name, phmmerr.AlphabetMismatch)
		}
		st, err := pl.prepare(m)
		if err != nil {
			return nil, err
		}
		out, passed, err := pl.score(st, target.Seq)
		if err != nil {
			return nil, err
		}
		th.SearchedModels++
		th.SearchedNodes += int64(m.M)
		if passed {
			survivors++
		}
		if out == nil {
			continue
		}
		h, err := pl.buildHit(m.Name, st, target.Seq, out)
		if err != nil {
			return nil, err
		}
		h.SeqIdx = idx
		th.Append(h)
	}
	finalizeTopHits(th, float64(len(models)), survivors)
	th.MarkDuplicates(defaultDuplicateOverlap)
	if err := th.Sort("key"); err != nil {
		return nil, err
	}
	return th, th.ApplyThresholds(nil)
}

// defaultDuplicateOverlap is the envelope-Jaccard threshold above which
// two same-named hits are considered rediscoveries of the same site
// and all but the best-scoring one are flagged results.Hit.Duplicate.
const defaultDuplicateOverlap = 0.5

// finalizeTopHits sets Z, DomZ and DomSurvivors, and recomputes every
// Hit's and Domain's significance measures from their already-computed
// P-values: Evalue and IEvalue follow the standard E = P * (number of
// things searched) convention against the full search space (DomZ is
// taken equal to Z, the common default before any iterative
// reweighting), while CEvalue is conditioned instead on domSurvivors,
// the number of comparisons that actually passed the accelerated
// filters and reached the full Forward pass - the two are equal only
// when every comparison in the search space survived those filters.
func finalizeTopHits(th *results.TopHits, z, domSurvivors float64) {
	th.Z, th.DomZ = z, z
	th.DomSurvivors = domSurvivors
	for _, h := range th.All() {
		h.Evalue = h.Pvalue * th.Z
		for i := 0; i < h.Domains().Len(); i++ {
			d := h.Domains().At(i)
			d.IEvalue = d.Pvalue * th.DomZ
			if domSurvivors > 0 {
				d.CEvalue = d.Pvalue * domSurvivors
			} else {
				d.CEvalue = d.IEvalue
			}
		}
	}
}
