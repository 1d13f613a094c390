package builder

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"

	"github.com/kortschak/profmm/aligner"
	"github.com/kortschak/profmm/background"
	"github.com/kortschak/profmm/hmm"
	"github.com/kortschak/profmm/profile"
)

// eulerMascheroni is used by the Gumbel method-of-moments fit.
const eulerMascheroni = 0.5772156649015329

// calibrate fits h.Evalue by simulating random sequences from bg and
// scoring them under h's own MSV, Viterbi and Forward statistics, in
// the style of hmmbuild's simulation-based calibration.
func (b *Builder) calibrate(h *hmm.HMM, bg *background.Background) error {
	// Calibration runs against a private clone so bg's configured
	// target length is left exactly as the caller set it.
	bgc := bg.Clone()
	bgc.SetLength(b.Config.EmL)
	p, err := profile.New(h, bgc, b.Config.EmL, true, true)
	if err != nil {
		return err
	}

	msv := b.sampleScores(b.Config.EmN, b.Config.EmL, bgc, func(seq alphabet.Letters) float64 {
		return MSVScore(p, seq)
	})
	ta := aligner.New(h)
	vit := b.sampleScores(b.Config.EvN, b.Config.EvL, bgc, func(seq alphabet.Letters) float64 {
		return ViterbiScore(ta, bgc.Alphabet(), seq)
	})
	if err := p.Configure(b.Config.EfL); err != nil {
		return err
	}
	fwd := b.sampleScores(b.Config.EfN, b.Config.EfL, bgc, func(seq alphabet.Letters) float64 {
		return ForwardScore(p, seq)
	})

	fTau, fLambda := fitGumbel(msv)
	vMu, vLambda := fitGumbel(vit)
	mMu, mLambda := fitExponentialTail(fwd, b.Config.Eft)

	h.Evalue = &hmm.EvalueParameters{
		FTau: fTau, FLambda: fLambda,
		VMu: vMu, VLambda: vLambda,
		MMu: mMu, MLambda: mLambda,
	}
	return nil
}

// sampleScores draws n random sequences of length l from bg and
// applies score to each.
func (b *Builder) sampleScores(n, l int, bg *background.Background, score func(alphabet.Letters) float64) []float64 {
	alpha := bg.Alphabet()
	k := alpha.Len()
	weights := make([]float64, k)
	for i := range weights {
		weights[i] = bg.Freq(i)
	}
	out := make([]float64, n)
	for s := 0; s < n; s++ {
		seq := make(alphabet.Letters, l)
		for i := range seq {
			seq[i] = alpha.Letter(b.rng.Choice(weights))
		}
		out[s] = score(seq)
	}
	return out
}

// MSVScore computes the maximal ungapped local alignment score of seq
// against p's match emissions: the single-hit, no-gaps approximation
// the MSV filter itself computes. Exported so the search pipeline can
// screen targets with the exact scoring function this model was
// calibrated against.
func MSVScore(p *profile.Profile, seq alphabet.Letters) float64 {
	n := len(seq)
	m := p.M
	if n == 0 || m == 0 {
		return 0
	}
	alpha := p.Alphabet()
	best := math.Inf(-1)
	for start := 0; start+1 <= n; start++ {
		var sum float64
		for k := 1; k <= m && start+k-1 < n; k++ {
			sym := alpha.IndexOf(seq[start+k-1])
			if sym < 0 {
				continue
			}
			sum += p.Match[k][sym]
			if sum > best {
				best = sum
			}
		}
	}
	if math.IsInf(best, -1) {
		return 0
	}
	return best
}

// ViterbiScore aligns seq against ta's model and returns the trace
// score in nats. Exported for the same reason as MSVScore.
func ViterbiScore(ta *aligner.TraceAligner, alpha alphabet.Alphabet, seq alphabet.Letters) float64 {
	s := linear.NewSeq("calibration", []alphabet.Letter(seq), alpha)
	traces, err := ta.ComputeTraces([]*linear.Seq{s})
	if err != nil || len(traces) == 0 {
		return math.Inf(-1)
	}
	return traces[0].Score
}

// ForwardScore runs the Plan7 Forward algorithm (log-space) for a
// single-hit local alignment of seq against p, returning the total log
// probability of seq summed over all alignments. Exported for the same
// reason as MSVScore; the search pipeline's full multihit Forward
// builds on the same log-sum-exp helpers but adds the N/C/J/B/E
// special states this single-hit version omits.
func ForwardScore(p *profile.Profile, seq alphabet.Letters) float64 {
	n := len(seq)
	m := p.M
	alpha := p.Alphabet()
	negInf := math.Inf(-1)

	mTab := make([][]float64, n+1)
	iTab := make([][]float64, n+1)
	dTab := make([][]float64, n+1)
	for i := range mTab {
		mTab[i] = make([]float64, m+1)
		iTab[i] = make([]float64, m+1)
		dTab[i] = make([]float64, m+1)
		for k := range mTab[i] {
			mTab[i][k], iTab[i][k], dTab[i][k] = negInf, negInf, negInf
		}
	}
	b := make([]float64, n+1)
	b[0] = 0
	for k := 1; k <= m; k++ {
		dTab[0][k] = logSum(dTab[0][k-1], b[0]) + logp(p.Trans[k-1].MD)
	}

	for i := 1; i <= n; i++ {
		sym := alpha.IndexOf(seq[i-1])
		for k := 1; k <= m; k++ {
			es := negInf
			if sym >= 0 {
				es = p.Match[k][sym]
			}
			mTab[i][k] = es + logSum3(
				mTab[i-1][k-1]+logp(p.Trans[k-1].MM),
				iTab[i-1][k-1]+logp(p.Trans[k-1].IM),
				dTab[i-1][k-1]+logp(p.Trans[k-1].DM),
			)

			ei := negInf
			if sym >= 0 {
				ei = p.Insert[k][sym]
			}
			iTab[i][k] = ei + logSum(
				mTab[i-1][k]+logp(p.Trans[k].MI),
				iTab[i-1][k]+logp(p.Trans[k].II),
			)

			dTab[i][k] = logSum(
				mTab[i][k-1]+logp(p.Trans[k-1].MD),
				dTab[i][k-1]+logp(p.Trans[k-1].DD),
			)
		}
	}

	end := negInf
	for k := 1; k <= m; k++ {
		end = logSum(end, mTab[n][k])
	}
	return end
}

func logp(natScore float64) float64 { return natScore }

func logSum(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	}
	if math.IsInf(b, -1) {
		return a
	}
	if a > b {
		return a + math.Log1p(math.Exp(b-a))
	}
	return b + math.Log1p(math.Exp(a-b))
}

func logSum3(a, b, c float64) float64 { return logSum(logSum(a, b), c) }

// fitGumbel fits a Gumbel(mu, beta) to x by the method of moments and
// returns (mu, lambda=1/beta).
func fitGumbel(x []float64) (mu, lambda float64) {
	if len(x) < 2 {
		return 0, 1
	}
	mean, variance := stat.MeanVariance(x, nil)
	if variance <= 0 {
		return mean, 1
	}
	beta := math.Sqrt(6*variance) / math.Pi
	mu = mean - eulerMascheroni*beta
	return mu, 1 / beta
}

// fitExponentialTail fits an exponential rate to the upper eft
// fraction of x, returning the censoring threshold (the (1-eft)
// quantile) and the fitted rate.
func fitExponentialTail(x []float64, eft float64) (threshold, lambda float64) {
	if len(x) == 0 {
		return 0, 1
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	if eft <= 0 || eft >= 1 {
		eft = 0.04
	}
	idx := int(float64(len(sorted)) * (1 - eft))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	threshold = sorted[idx]
	tail := sorted[idx:]
	var mean float64
	for _, v := range tail {
		mean += v - threshold
	}
	mean /= float64(len(tail))
	if mean <= 0 {
		return threshold, 1
	}
	return threshold, 1 / mean
}
