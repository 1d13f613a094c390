package pipeline

import (
	"testing"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"

	"github.com/kortschak/profmm/background"
	"github.com/kortschak/profmm/builder"
	"github.com/kortschak/profmm/results"
)

func TestReverseComplementIsInvolution(t *testing.T) {
	target := linear.NewSeq("contig", alphabet.Letters("ACGTRYKMBVDH"), alphabet.DNA)
	rc := reverseComplement(target)
	rc2 := reverseComplement(rc)
	if string(rc2.Seq) != string(target.Seq) {
		t.Fatalf("reverseComplement twice = %q, want original %q", string(rc2.Seq), string(target.Seq))
	}
}

func TestLongTargetsSearchFindsEmbeddedHit(t *testing.T) {
	bg := background.NewDefault(alphabet.Protein)
	query := linear.NewSeq("query", alphabet.Letters("MVLSPADKTNVKAAWGKVGAHAGEYGAEALERMFLSFPT"), alphabet.Protein)

	cfg := builder.DefaultConfig()
	cfg.EmL, cfg.EmN = 50, 20
	cfg.EvL, cfg.EvN = 50, 20
	cfg.EfL, cfg.EfN = 30, 20
	cfg.Seed = 9
	b := builder.New(cfg)
	res, err := b.Build(query, bg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	filler := make(alphabet.Letters, 200)
	for i := range filler {
		filler[i] = 'W'
	}
	contig := append(append(append(alphabet.Letters{}, filler...), query.Seq...), filler...)
	target := linear.NewSeq("contig", contig, alphabet.Protein)

	lp := NewLongTargets(DefaultConfig(), bg)
	lp.Config.WindowLength = 150
	th, err := lp.Search(res.HMM, target, results.StrandNone)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if th.Len() == 0 {
		t.Fatal("LongTargetsPipeline.Search: embedded query not found in its own long target")
	}
}

// TestTranslateHitCrickProducesForwardCoordinatesWithFromAfterTo checks
// that a Crick-strand domain envelope, discovered in a window's own
// rc-local numbering, comes back mapped onto the original forward
// target with EnvFrom > EnvTo, per the length-pos+1 transform.
func TestTranslateHitCrickProducesForwardCoordinatesWithFromAfterTo(t *testing.T) {
	h, err := results.NewHit("contig")
	if err != nil {
		t.Fatalf("NewHit: %v", err)
	}
	d := h.AddDomain()
	d.EnvFrom, d.EnvTo = 10, 20

	const offset = 5
	const length = 100
	lo, hi := translateHit(h, offset, length, true)

	d = h.Domains().At(0)

	// rc-local span was [10,20] shifted by offset=5 -> rc coords [15,25].
	// Forward coords: length-rcTo+1 .. length-rcFrom+1 = 100-25+1=76 .. 100-15+1=86,
	// stored as EnvFrom=86 (the larger, matching the rc 3' end) and
	// EnvTo=76 (the smaller), so EnvFrom > EnvTo on the forward strand.
	if d.EnvFrom != 86 || d.EnvTo != 76 {
		t.Fatalf("translateHit(crick): EnvFrom,EnvTo = %d,%d, want 86,76", d.EnvFrom, d.EnvTo)
	}
	if d.EnvFrom <= d.EnvTo {
		t.Fatalf("translateHit(crick): EnvFrom (%d) should be greater than EnvTo (%d) for a minus-strand hit", d.EnvFrom, d.EnvTo)
	}
	if lo != 76 || hi != 86 {
		t.Fatalf("translateHit(crick): dedup span = [%d,%d], want [76,86]", lo, hi)
	}
}

func TestLongTargetsSearchCrickStrandFindsEmbeddedHit(t *testing.T) {
	bg := background.NewDefault(alphabet.Protein)
	query := linear.NewSeq("query", alphabet.Letters("MVLSPADKTNVKAAWGKVGAHAGEYGAEALERMFLSFPT"), alphabet.Protein)

	cfg := builder.DefaultConfig()
	cfg.EmL, cfg.EmN = 50, 20
	cfg.EvL, cfg.EvN = 50, 20
	cfg.EfL, cfg.EfN = 30, 20
	cfg.Seed = 9
	b := builder.New(cfg)
	res, err := b.Build(query, bg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	filler := make(alphabet.Letters, 200)
	for i := range filler {
		filler[i] = 'W'
	}
	// Embed the Crick-strand reading of the query so the minus strand,
	// not the plus strand, carries the hit.
	rcQuery := reverseComplement(linear.NewSeq("query", query.Seq, alphabet.Protein))
	contig := append(append(append(alphabet.Letters{}, filler...), rcQuery.Seq...), filler...)
	target := linear.NewSeq("contig", contig, alphabet.Protein)

	lp := NewLongTargets(DefaultConfig(), bg)
	lp.Config.WindowLength = 150

	for _, strand := range []results.Strand{results.StrandCrick, results.StrandBoth} {
		th, err := lp.Search(res.HMM, target, strand)
		if err != nil {
			t.Fatalf("Search(%v): %v", strand, err)
		}
		if th.Len() == 0 {
			t.Fatalf("Search(%v): embedded minus-strand query not found", strand)
		}
		for _, hit := range th.All() {
			for i := 0; i < hit.Domains().Len(); i++ {
				d := hit.Domains().At(i)
				if d.EnvFrom <= d.EnvTo {
					t.Fatalf("Search(%v): domain %+v has EnvFrom <= EnvTo, want a minus-strand call (EnvFrom > EnvTo)", strand, d)
				}
			}
		}
	}
}
