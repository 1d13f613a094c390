package pipeline

import (
	"testing"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"

	"github.com/kortschak/profmm/background"
	"github.com/kortschak/profmm/builder"
	"github.com/kortschak/profmm/hmm"
)

func fastBuilderConfig() builder.Config {
	cfg := builder.DefaultConfig()
	cfg.EmL, cfg.EmN = 50, 20
	cfg.EvL, cfg.EvN = 50, 20
	cfg.EfL, cfg.EfN = 30, 20
	cfg.Seed = 21
	return cfg
}

func TestSearchHMMFindsSelfHit(t *testing.T) {
	bg := background.NewDefault(alphabet.Protein)
	query := linear.NewSeq("query", alphabet.Letters("MVLSPADKTNVKAAWGKVGAHAGEYGAEALERMFLSFPT"), alphabet.Protein)

	b := builder.New(fastBuilderConfig())
	res, err := b.Build(query, bg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	targets := []*linear.Seq{
		linear.NewSeq("self", query.Seq, alphabet.Protein),
		linear.NewSeq("noise", alphabet.Letters("WWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWW"), alphabet.Protein),
	}

	cfg := DefaultConfig()
	pl := New(cfg, bg)
	th, err := pl.SearchHMM(res.HMM, targets)
	if err != nil {
		t.Fatalf("SearchHMM: %v", err)
	}
	if th.Len() == 0 {
		t.Fatal("SearchHMM: no hits recorded at all")
	}
	found := false
	for _, h := range th.All() {
		if h.Name == "self" {
			found = true
		}
	}
	if !found {
		t.Fatal("SearchHMM: the query's own defining sequence was not recorded as a hit")
	}
}

func TestSearchHMMRejectsAlphabetMismatch(t *testing.T) {
	bg := background.NewDefault(alphabet.Protein)
	query := linear.NewSeq("query", alphabet.Letters("MVLSPADKTNVKAAWGKV"), alphabet.Protein)
	b := builder.New(fastBuilderConfig())
	res, err := b.Build(query, bg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	dnaTarget := linear.NewSeq("dna", alphabet.Letters("ACGTACGTACGT"), alphabet.DNA)
	pl := New(DefaultConfig(), bg)
	if _, err := pl.SearchHMM(res.HMM, []*linear.Seq{dnaTarget}); err == nil {
		t.Fatal("SearchHMM: want alphabet mismatch error, got nil")
	}
}

func TestScanSeqFindsMatchingModel(t *testing.T) {
	bg := background.NewDefault(alphabet.Protein)
	query := linear.NewSeq("query", alphabet.Letters("MVLSPADKTNVKAAWGKVGAHAGEYGAEALERMFLSFPT"), alphabet.Protein)

	b := builder.New(fastBuilderConfig())
	res, err := b.Build(query, bg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	res.HMM.Name = "matching"

	other := linear.NewSeq("unrelated", alphabet.Letters("WWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWW"), alphabet.Protein)
	resOther, err := b.Build(other, bg)
	if err != nil {
		t.Fatalf("Build (other): %v", err)
	}
	resOther.HMM.Name = "unrelated"

	target := linear.NewSeq("self", query.Seq, alphabet.Protein)
	pl := New(DefaultConfig(), bg)
	th, err := pl.ScanSeq(target, []*hmm.HMM{res.HMM, resOther.HMM})
	if err != nil {
		t.Fatalf("ScanSeq: %v", err)
	}
	if th.SearchedModels != 2 {
		t.Fatalf("SearchedModels = %d, want 2", th.SearchedModels)
	}
	found := false
	for _, h := range th.All() {
		if h.Name == "matching" {
			found = true
		}
	}
	if !found {
		t.Fatal("ScanSeq: the model that defines the target was not recorded as a hit")
	}
}
