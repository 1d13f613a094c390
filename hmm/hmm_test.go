package hmm

import (
	"bytes"
	"testing"

	"github.com/biogo/biogo/alphabet"

	"github.com/kortschak/profmm/random"
)

func TestZeroIsValid(t *testing.T) {
	h, err := New(alphabet.Protein, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.Name = "zeroed"
	h.Zero()
	if err := h.CheckProbabilities(ProbTolerance); err != nil {
		t.Fatalf("CheckProbabilities: %v", err)
	}
}

func TestSampleIsValid(t *testing.T) {
	rng := random.New(42)
	h, err := Sample(alphabet.Protein, 40, rng)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if h.M != 40 {
		t.Fatalf("M = %d, want 40", h.M)
	}
	if err := h.CheckProbabilities(ProbTolerance); err != nil {
		t.Fatalf("CheckProbabilities: %v", err)
	}
}

func TestRenormalizeFixesZeroRow(t *testing.T) {
	h, _ := New(alphabet.Protein, 2)
	h.Name = "broken"
	// Leave every row zeroed (invalid) and check Renormalize repairs it.
	h.Renormalize()
	if err := h.CheckProbabilities(ProbTolerance); err != nil {
		t.Fatalf("CheckProbabilities after Renormalize: %v", err)
	}
}

func TestTextRoundTrip(t *testing.T) {
	rng := random.New(7)
	h, err := Sample(alphabet.Protein, 5, rng)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	h.Name = "roundtrip"
	h.Acc = "RT00001"
	h.Nseq = 12
	h.Evalue = &EvalueParameters{MMu: 1, MLambda: 0.693, VMu: 2, VLambda: 0.693, FTau: 3, FLambda: 0.693}
	h.Cutoffs.Gathering = &ScorePair{Score1: 25, Score2: 25}

	var buf bytes.Buffer
	if err := h.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Name != h.Name || got.Acc != h.Acc || got.M != h.M || got.Nseq != h.Nseq {
		t.Fatalf("round trip metadata mismatch: got %+v", got)
	}
	if got.Evalue == nil || *got.Evalue != *h.Evalue {
		t.Fatalf("round trip evalue mismatch: got %+v want %+v", got.Evalue, h.Evalue)
	}
	for k := 1; k <= h.M; k++ {
		for i := range h.Match[k] {
			if diff := got.Match[k][i] - h.Match[k][i]; diff > 1e-4 || diff < -1e-4 {
				t.Fatalf("match[%d][%d] = %v, want %v", k, i, got.Match[k][i], h.Match[k][i])
			}
		}
	}
}

func TestNewRejectsZeroM(t *testing.T) {
	if _, err := New(alphabet.Protein, 0); err == nil {
		t.Fatal("New(alpha, 0): want error")
	}
}
