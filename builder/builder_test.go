package builder

import (
	"errors"
	"testing"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"

	"github.com/kortschak/profmm/background"
	"github.com/kortschak/profmm/msa"
	"github.com/kortschak/profmm/phmmerr"
)

func fastConfig() Config {
	cfg := DefaultConfig()
	// Keep calibration cheap in tests: fewer, shorter simulated
	// sequences than the hmmbuild-equivalent defaults.
	cfg.EmL, cfg.EmN = 50, 20
	cfg.EvL, cfg.EvN = 50, 20
	cfg.EfL, cfg.EfN = 30, 20
	cfg.Seed = 13
	return cfg
}

func TestBuildSingleSequence(t *testing.T) {
	bg := background.NewDefault(alphabet.Protein)
	seq := linear.NewSeq("query", alphabet.Letters("MVLSPADKTNVKAAWGKVGAHAGEYGAEALERMFLSFPT"), alphabet.Protein)

	b := New(fastConfig())
	res, err := b.Build(seq, bg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.HMM.M != seq.Len() {
		t.Fatalf("HMM.M = %d, want %d", res.HMM.M, seq.Len())
	}
	if res.HMM.Evalue == nil {
		t.Fatal("HMM.Evalue not set after Build")
	}
	if res.Optimized.M != res.HMM.M {
		t.Fatalf("Optimized.M = %d, want %d", res.Optimized.M, res.HMM.M)
	}
}

func TestBuildRejectsEmptySequence(t *testing.T) {
	bg := background.NewDefault(alphabet.Protein)
	seq := linear.NewSeq("empty", nil, alphabet.Protein)
	b := New(fastConfig())
	if _, err := b.Build(seq, bg); err == nil {
		t.Fatal("Build: want error for empty sequence, got nil")
	}
}

func TestBuildMSA(t *testing.T) {
	bg := background.NewDefault(alphabet.Protein)
	rows := []alphabet.Letters{
		alphabet.Letters("MVLS-ADKTNVKAAWGKV"),
		alphabet.Letters("MVLSPADKT--KAAWGKV"),
		alphabet.Letters("MVLSPADKTNVKAAW-KV"),
	}
	m, err := msa.New(alphabet.Protein, []string{"s1", "s2", "s3"}, rows)
	if err != nil {
		t.Fatalf("msa.New: %v", err)
	}

	b := New(fastConfig())
	res, err := b.BuildMSA("family", m, bg)
	if err != nil {
		t.Fatalf("BuildMSA: %v", err)
	}
	if res.HMM.M == 0 {
		t.Fatal("BuildMSA produced a zero-length model")
	}
	if res.HMM.Nseq != 3 {
		t.Fatalf("HMM.Nseq = %d, want 3", res.HMM.Nseq)
	}
	if err := res.HMM.CheckProbabilities(1e-6); err != nil {
		t.Fatalf("CheckProbabilities: %v", err)
	}
}

func TestBuildMSARejectsAlphabetMismatch(t *testing.T) {
	bg := background.NewDefault(alphabet.DNA)
	rows := []alphabet.Letters{alphabet.Letters("MVLS"), alphabet.Letters("MVLA")}
	m, err := msa.New(alphabet.Protein, []string{"s1", "s2"}, rows)
	if err != nil {
		t.Fatalf("msa.New: %v", err)
	}
	b := New(fastConfig())
	if _, err := b.BuildMSA("mismatch", m, bg); err == nil {
		t.Fatal("BuildMSA: want alphabet mismatch error, got nil")
	}
}

func TestExportedScoreFunctionsAgreeWithCalibration(t *testing.T) {
	bg := background.NewDefault(alphabet.Protein)
	seq := linear.NewSeq("query", alphabet.Letters("MVLSPADKTNVKAAWGKVGAHAGEYGAEALERMFLSFPT"), alphabet.Protein)

	b := New(fastConfig())
	res, err := b.Build(seq, bg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// A model scored against its own defining sequence should come back
	// as an extremely significant (near-zero P-value) hit under the MSV
	// and Forward stages, since the model was built to describe exactly this
	// sequence.
	msv := MSVScore(res.Profile, seq.Seq)
	if p := res.HMM.Evalue.MSVPvalue(msv); p > 0.5 {
		t.Fatalf("MSVPvalue(self-hit) = %v, want a small P-value", p)
	}
	fwd := ForwardScore(res.Profile, seq.Seq)
	if p := res.HMM.Evalue.ForwardPvalue(fwd); p > 0.5 {
		t.Fatalf("ForwardPvalue(self-hit) = %v, want a small P-value", p)
	}
}

func TestBuildRejectsInvalidSymfrac(t *testing.T) {
	bg := background.NewDefault(alphabet.Protein)
	seq := linear.NewSeq("query", alphabet.Letters("MVLSPADKT"), alphabet.Protein)
	cfg := fastConfig()
	cfg.Symfrac = 1.5
	b := New(cfg)
	_, err := b.Build(seq, bg)
	if !errors.Is(err, phmmerr.InvalidParameter) {
		t.Fatalf("Build: err = %v, want phmmerr.InvalidParameter", err)
	}
}

func TestBuildRejectsNegativePopen(t *testing.T) {
	bg := background.NewDefault(alphabet.Protein)
	seq := linear.NewSeq("query", alphabet.Letters("MVLSPADKT"), alphabet.Protein)
	cfg := fastConfig()
	cfg.Popen = -0.1
	b := New(cfg)
	_, err := b.Build(seq, bg)
	if !errors.Is(err, phmmerr.InvalidParameter) {
		t.Fatalf("Build: err = %v, want phmmerr.InvalidParameter", err)
	}
}

func TestBuildMSARejectsInvalidFragthresh(t *testing.T) {
	bg := background.NewDefault(alphabet.Protein)
	rows := []alphabet.Letters{
		alphabet.Letters("MVLS"),
		alphabet.Letters("MVLA"),
	}
	m, err := msa.New(alphabet.Protein, []string{"s1", "s2"}, rows)
	if err != nil {
		t.Fatalf("msa.New: %v", err)
	}
	cfg := fastConfig()
	cfg.Fragthresh = -0.2
	b := New(cfg)
	if _, err := b.BuildMSA("family", m, bg); !errors.Is(err, phmmerr.InvalidParameter) {
		t.Fatalf("BuildMSA: err = %v, want phmmerr.InvalidParameter", err)
	}
}
