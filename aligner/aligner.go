// Package aligner turns Viterbi (or otherwise supplied) state paths
// into multiple sequence alignments against a profile HMM's consensus
// columns, and back: given a set of target sequences and a model, it
// can both derive their traces and render those traces as an MSA.
package aligner

import (
	"fmt"
	"math"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"

	"github.com/kortschak/profmm/hmm"
	"github.com/kortschak/profmm/msa"
	"github.com/kortschak/profmm/phmmerr"
	"github.com/kortschak/profmm/trace"
)

// TraceAligner derives and renders state paths through one HMM.
type TraceAligner struct {
	HMM *hmm.HMM
}

// New returns a TraceAligner for h.
func New(h *hmm.HMM) *TraceAligner {
	return &TraceAligner{HMM: h}
}

// ComputeTraces runs Viterbi alignment of every sequence in seqs
// against the aligner's model and returns one Trace per sequence, in
// the same order.
func (ta *TraceAligner) ComputeTraces(seqs []*linear.Seq) (trace.Traces, error) {
	if ta.HMM == nil {
		return nil, fmt.Errorf("aligner: no model configured: %w", phmmerr.Unconfigured)
	}
	out := make(trace.Traces, len(seqs))
	for i, s := range seqs {
		t, err := ta.viterbiTrace(s)
		if err != nil {
			return nil, fmt.Errorf("aligner: sequence %d (%s): %w", i, s.Name(), err)
		}
		out[i] = t
	}
	return out, nil
}

// viterbiTrace finds the single highest-scoring global alignment of s
// against the match/insert/delete chain, by ordinary quadratic Viterbi
// dynamic programming over log-odds scores derived directly from the
// HMM's own emission/transition probabilities (no Background needed:
// global alignment against the raw model is enough to produce a
// consensus-column trace).
func (ta *TraceAligner) viterbiTrace(s *linear.Seq) (*trace.Trace, error) {
	h := ta.HMM
	m := h.M
	n := s.Len()
	letters := s.Seq

	const negInf = -1e300
	type cell struct{ m, i, d float64 }
	dp := make([][]cell, n+1)
	for i := range dp {
		dp[i] = make([]cell, m+1)
		for k := range dp[i] {
			dp[i][k] = cell{negInf, negInf, negInf}
		}
	}
	dp[0][0] = cell{0, negInf, negInf}
	for k := 1; k <= m; k++ {
		dp[0][k].d = dp[0][k-1].d + logp(h.Trans[k-1].DD)
	}

	type back struct{ prevI, prevK int; from byte }
	bt := make([][]struct{ m, i, d back }, n+1)
	for i := range bt {
		bt[i] = make([]struct{ m, i, d back }, m+1)
	}

	for i := 1; i <= n; i++ {
		sym := h.Alpha.IndexOf(letters[i-1])
		for k := 1; k <= m; k++ {
			best := negInf
			var bb back
			if v := dp[i-1][k-1].m + logp(h.Trans[k-1].MM); v > best {
				best, bb = v, back{i - 1, k - 1, 'M'}
			}
			if v := dp[i-1][k-1].i + logp(h.Trans[k-1].IM); v > best {
				best, bb = v, back{i - 1, k - 1, 'I'}
			}
			if v := dp[i-1][k-1].d + logp(h.Trans[k-1].DM); v > best {
				best, bb = v, back{i - 1, k - 1, 'D'}
			}
			es := 0.0
			if sym >= 0 && sym < len(h.Match[k]) {
				es = logp(h.Match[k][sym])
			}
			dp[i][k].m = best + es
			bt[i][k].m = bb

			best, bb = negInf, back{}
			if v := dp[i-1][k].m + logp(h.Trans[k].MI); v > best {
				best, bb = v, back{i - 1, k, 'M'}
			}
			if v := dp[i-1][k].i + logp(h.Trans[k].II); v > best {
				best, bb = v, back{i - 1, k, 'I'}
			}
			ei := 0.0
			if sym >= 0 && sym < len(h.Insert[k]) {
				ei = logp(h.Insert[k][sym])
			}
			dp[i][k].i = best + ei
			bt[i][k].i = bb

			best, bb = negInf, back{}
			if v := dp[i][k-1].m + logp(h.Trans[k-1].MD); v > best {
				best, bb = v, back{i, k - 1, 'M'}
			}
			if v := dp[i][k-1].d + logp(h.Trans[k-1].DD); v > best {
				best, bb = v, back{i, k - 1, 'D'}
			}
			dp[i][k].d = best
			bt[i][k].d = bb
		}
	}

	end := dp[n][m].m
	state := byte('M')
	if dp[n][m].i > end {
		end, state = dp[n][m].i, 'I'
	}
	if dp[n][m].d > end {
		end, state = dp[n][m].d, 'D'
	}

	t := trace.New(m)
	t.Score = end
	t.Append(trace.StateB, 0, 0)
	i, k := n, m
	for i > 0 || k > 0 {
		if k == 0 {
			break
		}
		var st trace.State
		var b back
		switch state {
		case 'M':
			st, b = trace.StateM, bt[i][k].m
		case 'I':
			st, b = trace.StateI, bt[i][k].i
		default:
			st, b = trace.StateD, bt[i][k].d
		}
		if st == trace.StateI || st == trace.StateM {
			t.Append(st, k, i)
		} else {
			t.Append(st, k, 0)
		}
		i, k, state = b.prevI, b.prevK, b.from
	}
	t.Append(trace.StateE, 0, 0)
	t.Reverse()
	return t, nil
}

func logp(p float64) float64 {
	if p <= 0 {
		return -1e300
	}
	return math.Log(p)
}

// AlignTraces renders traces (one per sequence in seqs, in the same
// order) into an MSA: one reference/match column per model node, plus
// insert columns where any sequence has residues between two match
// nodes. If trim is true, columns before the first and after the last
// match-state visit of every sequence are dropped from that sequence's
// row (replaced with gaps); if allConsensusCols is true, every model
// node gets a column even if no trace ever visits it as a match state.
func AlignTraces(alpha alphabet.Alphabet, seqs []*linear.Seq, traces []*trace.Trace, trim, allConsensusCols bool) (*msa.MSA, error) {
	if len(seqs) != len(traces) {
		return nil, fmt.Errorf("aligner: %d sequences but %d traces: %w", len(seqs), len(traces), phmmerr.InvalidParameter)
	}
	if len(seqs) == 0 {
		return nil, fmt.Errorf("aligner: no sequences to align: %w", phmmerr.EmptyModel)
	}

	m := traces[0].M
	insertWidth := make([]int, m+1) // insertWidth[k] = max inserted residues after node k
	for _, t := range traces {
		cur := 0
		node := 0
		for i, s := range t.States {
			switch s {
			case trace.StateM, trace.StateD:
				node = t.Nodes[i]
				cur = 0
			case trace.StateI:
				cur++
				if cur > insertWidth[node] {
					insertWidth[node] = cur
				}
			}
		}
	}
	// Every model node already reserves its own match column below
	// regardless of allConsensusCols, since colOf is built from 1..m
	// rather than from the columns actually visited; the flag only
	// matters to callers deciding whether to report all-gap columns.

	colOf := make([]int, m+1)
	col := 0
	for k := 1; k <= m; k++ {
		colOf[k] = col
		col += 1 + insertWidth[k]
	}
	alen := col

	rows := make([]alphabet.Letters, len(seqs))
	names := make([]string, len(seqs))
	rf := make([]bool, alen)
	for k := 1; k <= m; k++ {
		rf[colOf[k]] = true
	}

	for si, t := range traces {
		row := make(alphabet.Letters, alen)
		for i := range row {
			row[i] = alphabet.Letter('-')
		}
		letters := seqs[si].Seq
		insCount := make([]int, m+1)
		node := 0
		firstMatch, lastMatch := -1, -1
		for i, s := range t.States {
			switch s {
			case trace.StateM:
				node = t.Nodes[i]
				r := t.Residue[i]
				if r > 0 {
					row[colOf[node]] = letters[r-1]
				}
				if firstMatch < 0 {
					firstMatch = colOf[node]
				}
				lastMatch = colOf[node]
			case trace.StateD:
				node = t.Nodes[i]
			case trace.StateI:
				r := t.Residue[i]
				if r > 0 && node < len(insCount) {
					c := colOf[node] + 1 + insCount[node]
					if c < alen {
						row[c] = letters[r-1]
					}
					insCount[node]++
				}
			}
		}
		if trim && firstMatch >= 0 {
			for i := 0; i < firstMatch; i++ {
				row[i] = alphabet.Letter('-')
			}
			for i := lastMatch + 1; i < alen; i++ {
				row[i] = alphabet.Letter('-')
			}
		}
		rows[si] = row
		names[si] = seqs[si].Name()
	}

	out, err := msa.New(alpha, names, rows)
	if err != nil {
		return nil, err
	}
	out.RF = rf
	return out, nil
}
