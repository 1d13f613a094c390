package pipeline

import (
	"math"
	"testing"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"

	"github.com/kortschak/profmm/background"
	"github.com/kortschak/profmm/builder"
	"github.com/kortschak/profmm/profile"
)

func buildTestProfile(t *testing.T) (*profile.Profile, alphabet.Letters) {
	t.Helper()
	bg := background.NewDefault(alphabet.Protein)
	seq := linear.NewSeq("query", alphabet.Letters("MVLSPADKTNVKAAWGKVGAHAGEYGAEAL"), alphabet.Protein)
	cfg := builder.DefaultConfig()
	cfg.EmL, cfg.EmN = 30, 10
	cfg.EvL, cfg.EvN = 30, 10
	cfg.EfL, cfg.EfN = 30, 10
	cfg.Seed = 3
	b := builder.New(cfg)
	res, err := b.Build(seq, bg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return res.Profile, seq.Seq
}

func TestForwardScoreIsFinite(t *testing.T) {
	p, seq := buildTestProfile(t)
	score, core := Forward(p, seq)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		t.Fatalf("Forward score = %v, want finite", score)
	}
	if len(core) != len(seq)+1 {
		t.Fatalf("len(core) = %d, want %d", len(core), len(seq)+1)
	}
	for i, v := range core {
		if v < 0 || v > 1 {
			t.Fatalf("core[%d] = %v, want in [0,1]", i, v)
		}
	}
}

func TestDecomposeFindsADomainOverTheSelfHit(t *testing.T) {
	p, seq := buildTestProfile(t)
	_, core := Forward(p, seq)
	calls := Decompose(p, seq, core)
	if len(calls) == 0 {
		t.Fatal("Decompose: query scored against its own model produced no domain calls")
	}
	for _, c := range calls {
		if c.EnvFrom < 1 || c.EnvTo > len(seq) || c.EnvFrom > c.EnvTo {
			t.Fatalf("domain call %+v out of bounds for a %d-residue sequence", c, len(seq))
		}
	}
}
