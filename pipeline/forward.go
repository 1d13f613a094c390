package pipeline

import (
	"math"

	"github.com/biogo/biogo/alphabet"

	"github.com/kortschak/profmm/builder"
	"github.com/kortschak/profmm/profile"
)

// DomainCall is one posterior-decoded envelope found by ForwardBackward,
// before it has been promoted to a results.Domain.
type DomainCall struct {
	EnvFrom, EnvTo int     // 1-based, inclusive target residue range
	Score          float64 // domain's own single-hit Forward score, nats
}

// forwardTables holds the per-row special-state scores a Forward or
// Backward pass needs alongside its M/I/D core matrices.
type forwardTables struct {
	m, i, d    [][]float64
	n, b, e, j, c []float64
}

// Forward runs the full multihit Plan7 Forward algorithm over seq
// against p, returning the total log-odds score (nats) and the core
// match/insert posterior occupancy per target residue, used by
// Decompose to call domain envelopes.
func Forward(p *profile.Profile, seq alphabet.Letters) (score float64, core []float64) {
	fwd := runForward(p, seq)
	n := len(seq)
	total := fwd.c[n] + p.Special.CMove

	bwd := runBackward(p, seq)
	core = make([]float64, n+1)
	for i := 1; i <= n; i++ {
		var sum float64
		for k := 1; k <= p.M; k++ {
			sum += math.Exp(fwd.m[i][k] + bwd.m[i][k] - total)
			sum += math.Exp(fwd.i[i][k] + bwd.i[i][k] - total)
		}
		if sum > 1 {
			sum = 1
		}
		core[i] = sum
	}
	return total, core
}

func runForward(p *profile.Profile, seq alphabet.Letters) forwardTables {
	n := len(seq)
	m := p.M
	alpha := p.Alphabet()
	negInf := math.Inf(-1)
	tbm := -math.Log(float64(m))

	t := newTables(n, m)
	t.n[0] = 0
	t.b[0] = t.n[0] + p.Special.NMove
	for k := 0; k <= m; k++ {
		t.m[0][k], t.i[0][k], t.d[0][k] = negInf, negInf, negInf
	}
	t.e[0] = negInf
	t.j[0] = negInf
	t.c[0] = negInf

	for i := 1; i <= n; i++ {
		sym := alpha.IndexOf(seq[i-1])
		for k := 1; k <= m; k++ {
			es := negInf
			if sym >= 0 {
				es = p.Match[k][sym]
			}
			t.m[i][k] = es + logSum4(
				t.m[i-1][k-1]+p.Trans[k-1].MM,
				t.i[i-1][k-1]+p.Trans[k-1].IM,
				t.d[i-1][k-1]+p.Trans[k-1].DM,
				t.b[i-1]+tbm,
			)
			ei := negInf
			if sym >= 0 {
				ei = p.Insert[k][sym]
			}
			t.i[i][k] = ei + logSum(
				t.m[i-1][k]+p.Trans[k].MI,
				t.i[i-1][k]+p.Trans[k].II,
			)
			t.d[i][k] = logSum(
				t.m[i][k-1]+p.Trans[k-1].MD,
				t.d[i][k-1]+p.Trans[k-1].DD,
			)
		}
		t.e[i] = exitScore(p, t.m[i])
		if p.Multihit {
			t.j[i] = logSum(t.j[i-1]+p.Special.JLoop, t.e[i]+p.Special.ELoop)
		} else {
			t.j[i] = negInf
		}
		t.n[i] = t.n[i-1] + p.Special.NLoop
		t.b[i] = logSum(t.n[i]+p.Special.NMove, t.j[i]+p.Special.JMove)
		t.c[i] = logSum(t.c[i-1]+p.Special.CLoop, t.e[i]+p.Special.EMove)
	}
	return t
}

// runBackward computes the Backward matrices over seq against p. The
// exit-to-E transition is approximated as available from every match
// state, and from the final node's delete state, whether or not p.Local
// is set, rather than only from the model's final node in glocal mode;
// this keeps the recursion simple at the cost of slightly overstating
// glocal exit paths. runForward does gate its exit on p.Local, so the
// two passes differ for glocal profiles.
func runBackward(p *profile.Profile, seq alphabet.Letters) forwardTables {
	n := len(seq)
	m := p.M
	alpha := p.Alphabet()
	negInf := math.Inf(-1)
	tbm := -math.Log(float64(m))

	t := newTables(n, m)
	t.c[n] = p.Special.CMove
	t.e[n] = t.c[n] + p.Special.EMove
	t.j[n] = negInf
	t.n[n] = negInf
	t.b[n] = negInf
	for k := 1; k <= m; k++ {
		t.m[n][k] = t.e[n]
		t.d[n][k] = t.e[n]
		t.i[n][k] = negInf
	}

	for i := n - 1; i >= 0; i-- {
		t.c[i] = t.c[i+1] + p.Special.CLoop
		if p.Multihit {
			t.j[i] = logSum(t.j[i+1]+p.Special.JLoop, t.b[i+1]+p.Special.JMove)
		} else {
			t.j[i] = negInf
		}
		t.e[i] = logSum(t.c[i]+p.Special.EMove, boolSel(p.Multihit, t.j[i]+p.Special.ELoop, negInf))
		t.n[i] = logSum(t.n[i+1]+p.Special.NLoop, t.b[i+1]+p.Special.NMove)

		sym := alpha.IndexOf(seq[i])
		es := func(k int) float64 {
			if sym < 0 {
				return negInf
			}
			return p.Match[k][sym]
		}
		ei := func(k int) float64 {
			if sym < 0 {
				return negInf
			}
			return p.Insert[k][sym]
		}

		for k := m; k >= 1; k-- {
			var mEnter, dEnter float64 = negInf, negInf
			if k < m {
				mEnter = t.m[i+1][k+1]
				dEnter = t.d[i][k+1]
			}
			exitHere := t.e[i]

			mm, mi, md := negInf, negInf, negInf
			if k < m {
				mm = p.Trans[k].MM + es(k+1) + mEnter
				md = p.Trans[k].MD + dEnter
			}
			mi = p.Trans[k].MI + ei(k) + t.i[i+1][k]
			t.m[i][k] = logSum4(mm, mi, md, exitHere)

			im := negInf
			if k < m {
				im = p.Trans[k].IM + es(k+1) + mEnter
			}
			t.i[i][k] = logSum(im, p.Trans[k].II+ei(k)+t.i[i+1][k])

			dm, dd := negInf, negInf
			if k < m {
				dm = p.Trans[k].DM + es(k+1) + mEnter
				dd = p.Trans[k].DD + dEnter
			} else {
				dd = exitHere
			}
			t.d[i][k] = logSum(dm, dd)
		}

		bAcc := negInf
		for k := 1; k <= m; k++ {
			bAcc = logSum(bAcc, tbm+es(k)+t.m[i+1][k])
		}
		t.b[i] = bAcc
	}
	return t
}

func boolSel(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

func exitScore(p *profile.Profile, mRow []float64) float64 {
	negInf := math.Inf(-1)
	if !p.Local {
		if len(mRow) == 0 {
			return negInf
		}
		return mRow[len(mRow)-1]
	}
	acc := negInf
	for k := 1; k < len(mRow); k++ {
		acc = logSum(acc, mRow[k])
	}
	return acc
}

func newTables(n, m int) forwardTables {
	t := forwardTables{
		m: make([][]float64, n+1), i: make([][]float64, n+1), d: make([][]float64, n+1),
		n: make([]float64, n+1), b: make([]float64, n+1), e: make([]float64, n+1),
		j: make([]float64, n+1), c: make([]float64, n+1),
	}
	for r := 0; r <= n; r++ {
		t.m[r] = make([]float64, m+1)
		t.i[r] = make([]float64, m+1)
		t.d[r] = make([]float64, m+1)
		for k := range t.m[r] {
			t.m[r][k], t.i[r][k], t.d[r][k] = math.Inf(-1), math.Inf(-1), math.Inf(-1)
		}
	}
	return t
}

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

func logSum4(a, b, c, d float64) float64 {
	return logSum(logSum(a, b), logSum(c, d))
}

// Decompose scans core (as produced by Forward) for contiguous runs
// where posterior core occupancy exceeds 0.5, calling each run one
// domain envelope. Each envelope's own score is recomputed with
// builder.ForwardScore restricted to a single-hit, single-domain
// Forward pass over just that window, so Domain significance reflects
// that window in isolation rather than the whole multidomain target.
//
// This is a simplification of HMMER's domain definition, which instead
// clusters a stochastic ensemble of Forward tracebacks; a single
// posterior-threshold pass is used here instead.
func Decompose(p *profile.Profile, seq alphabet.Letters, core []float64) []DomainCall {
	const thresh = 0.5
	var calls []DomainCall
	start := -1
	for i := 1; i < len(core); i++ {
		above := core[i] > thresh
		if above && start < 0 {
			start = i
		}
		if !above && start >= 0 {
			calls = append(calls, scoreWindow(p, seq, start, i-1))
			start = -1
		}
	}
	if start >= 0 {
		calls = append(calls, scoreWindow(p, seq, start, len(core)-1))
	}
	return calls
}

func scoreWindow(p *profile.Profile, seq alphabet.Letters, from, to int) DomainCall {
	window := seq[from-1 : to]
	sub, err := profile.New(p.HMM(), p.Background(), len(window), true, false)
	score := 0.0
	if err == nil {
		score = builder.ForwardScore(sub, window)
	}
	return DomainCall{EnvFrom: from, EnvTo: to, Score: score}
}
