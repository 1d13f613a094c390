package aligner

import (
	"testing"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"

	"github.com/kortschak/profmm/hmm"
	"github.com/kortschak/profmm/random"
)

func TestComputeTracesRoundTripsThroughAlignTraces(t *testing.T) {
	h, err := hmm.Sample(alphabet.Protein, 15, random.New(5))
	if err != nil {
		t.Fatalf("hmm.Sample: %v", err)
	}
	h.Name = "fixture"

	cons := mostLikelyResidues(h)
	seqs := []*linear.Seq{
		linear.NewSeq("s1", cons, alphabet.Protein),
		linear.NewSeq("s2", cons, alphabet.Protein),
	}

	ta := New(h)
	traces, err := ta.ComputeTraces(seqs)
	if err != nil {
		t.Fatalf("ComputeTraces: %v", err)
	}
	if len(traces) != len(seqs) {
		t.Fatalf("len(traces) = %d, want %d", len(traces), len(seqs))
	}

	m, err := AlignTraces(alphabet.Protein, seqs, traces, true, false)
	if err != nil {
		t.Fatalf("AlignTraces: %v", err)
	}
	if m.Nseq() != len(seqs) {
		t.Fatalf("Nseq = %d, want %d", m.Nseq(), len(seqs))
	}
	for i := 1; i < m.Nseq(); i++ {
		if len(m.Rows[i]) != m.Alen() {
			t.Fatalf("row %d length = %d, want Alen %d", i, len(m.Rows[i]), m.Alen())
		}
	}
}

// mostLikelyResidues builds a synthetic sequence from h's own
// per-column argmax match emission, used as a sequence the model
// should align to cleanly without needing Sample to populate
// h.Consensus (it does not).
func mostLikelyResidues(h *hmm.HMM) alphabet.Letters {
	out := make(alphabet.Letters, h.M)
	for k := 1; k <= h.M; k++ {
		best, bestI := -1.0, 0
		for i, p := range h.Match[k] {
			if p > best {
				best, bestI = p, i
			}
		}
		out[k-1] = h.Alpha.Letter(bestI)
	}
	return out
}

func TestComputeTracesRejectsUnconfiguredAligner(t *testing.T) {
	ta := &TraceAligner{}
	if _, err := ta.ComputeTraces(nil); err == nil {
		t.Fatal("ComputeTraces: want error for a nil HMM, got nil")
	}
}
