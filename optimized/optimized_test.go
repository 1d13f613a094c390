package optimized

import (
	"bytes"
	"testing"

	"github.com/biogo/biogo/alphabet"

	"github.com/kortschak/profmm/background"
	"github.com/kortschak/profmm/hmm"
	"github.com/kortschak/profmm/profile"
	"github.com/kortschak/profmm/random"
)

func sampleOptimized(t *testing.T, m int) (*hmm.HMM, *optimizedFixture) {
	t.Helper()
	h, err := hmm.Sample(alphabet.Protein, m, random.New(11))
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	h.Name = "fixture"
	bg := background.NewDefault(alphabet.Protein)
	p, err := profile.New(h, bg, 400, true, true)
	if err != nil {
		t.Fatalf("profile.New: %v", err)
	}
	op, err := From(p, 0)
	if err != nil {
		t.Fatalf("From: %v", err)
	}
	return h, &optimizedFixture{p: p, op: op}
}

type optimizedFixture struct {
	p  *profile.Profile
	op *OptimizedProfile
}

func TestFromPreservesM(t *testing.T) {
	h, fx := sampleOptimized(t, 37)
	if fx.op.M != h.M {
		t.Fatalf("OptimizedProfile.M = %d, want %d", fx.op.M, h.M)
	}
}

func TestPressedRoundTrip(t *testing.T) {
	_, fx := sampleOptimized(t, 20)
	var model, filter bytes.Buffer
	if err := fx.op.WriteModel(&model); err != nil {
		t.Fatalf("WriteModel: %v", err)
	}
	if err := fx.op.WriteFilter(&filter); err != nil {
		t.Fatalf("WriteFilter: %v", err)
	}
	got, err := ReadPressed(&model, &filter, alphabet.Protein)
	if err != nil {
		t.Fatalf("ReadPressed: %v", err)
	}
	if got.M != fx.op.M || got.width != fx.op.width {
		t.Fatalf("round trip mismatch: got M=%d width=%d, want M=%d width=%d", got.M, got.width, fx.op.M, fx.op.width)
	}
	for sym := 0; sym < alphabet.Protein.Len(); sym++ {
		for k := 1; k <= fx.op.M; k++ {
			if got.RBV(sym, k) != fx.op.RBV(sym, k) {
				t.Fatalf("RBV(%d,%d) = %d, want %d", sym, k, got.RBV(sym, k), fx.op.RBV(sym, k))
			}
		}
	}
}

func TestSameSizeMismatch(t *testing.T) {
	_, a := sampleOptimized(t, 10)
	_, b := sampleOptimized(t, 11)
	if err := a.op.SameSize(b.op); err == nil {
		t.Fatal("SameSize: want error for differing M")
	}
}
