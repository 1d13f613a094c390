package iterative

import (
	"testing"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"

	"github.com/kortschak/profmm/background"
	"github.com/kortschak/profmm/builder"
	"github.com/kortschak/profmm/pipeline"
)

func fastBuilderConfig() builder.Config {
	cfg := builder.DefaultConfig()
	cfg.EmL, cfg.EmN = 50, 20
	cfg.EvL, cfg.EvN = 50, 20
	cfg.EfL, cfg.EfN = 30, 20
	cfg.Seed = 31
	return cfg
}

func TestRunConvergesOnASelfContainedDatabase(t *testing.T) {
	bg := background.NewDefault(alphabet.Protein)
	query := linear.NewSeq("query", alphabet.Letters("MVLSPADKTNVKAAWGKVGAHAGEYGAEALERMFLSFPT"), alphabet.Protein)

	targets := []*linear.Seq{
		linear.NewSeq("query", query.Seq, alphabet.Protein),
		linear.NewSeq("noise", alphabet.Letters("WWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWW"), alphabet.Protein),
	}

	b := builder.New(fastBuilderConfig())
	pl := pipeline.New(pipeline.DefaultConfig(), bg)
	is := New(b, pl, 3)

	rounds, err := is.Run(query, targets, bg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rounds) == 0 {
		t.Fatal("Run: no rounds recorded")
	}

	h, _, err := Final(rounds)
	if err != nil {
		t.Fatalf("Final: %v", err)
	}
	if h == nil {
		t.Fatal("Final: nil HMM")
	}

	last := rounds[len(rounds)-1]
	if !last.Converged {
		t.Fatalf("Run: did not converge within %d round(s)", len(rounds))
	}
	found := false
	for _, hit := range last.Hits.All() {
		if hit.Name == "query" {
			found = true
		}
	}
	if !found {
		t.Fatal("Run: the query's own sequence was never found in its own target database")
	}
}

func TestFinalRejectsEmptyRounds(t *testing.T) {
	if _, _, err := Final(nil); err == nil {
		t.Fatal("Final: want error for no rounds, got nil")
	}
}
