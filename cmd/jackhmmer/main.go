// jackhmmer iteratively searches a single query sequence against a
// sequence database, building a profile from the hits found each round
// and researching with it until the included hit set stops changing.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"

	"github.com/kortschak/profmm/background"
	"github.com/kortschak/profmm/builder"
	"github.com/kortschak/profmm/iterative"
	"github.com/kortschak/profmm/pipeline"
	"github.com/kortschak/profmm/results"
)

var (
	queryFile = flag.String("queryfile", "", "query sequence file, FASTA, first record used")
	seqDB     = flag.String("seqdb", "", "target sequence database, FASTA")
	out       = flag.String("o", "", "output file (default stdout)")
	rounds    = flag.Int("N", 5, "maximum number of search/rebuild iterations")
	f1        = flag.Float64("F1", 0.02, "MSV filter P-value threshold")
	f2        = flag.Float64("F2", 1e-3, "Viterbi filter P-value threshold")
	f3        = flag.Float64("F3", 1e-5, "Forward filter P-value threshold")
)

func main() {
	flag.Parse()
	if *queryFile == "" || *seqDB == "" {
		flag.Usage()
		os.Exit(1)
	}

	query, err := readFirstSeq(*queryFile, alphabet.Protein)
	if err != nil {
		log.Fatalf("jackhmmer: %v", err)
	}

	targets, err := readTargets(*seqDB, query.Alphabet())
	if err != nil {
		log.Fatalf("jackhmmer: %v", err)
	}

	bg := background.NewDefault(query.Alphabet())
	b := builder.New(builder.DefaultConfig())

	cfg := pipeline.DefaultConfig()
	cfg.F1, cfg.F2, cfg.F3 = *f1, *f2, *f3
	pl := pipeline.New(cfg, bg)

	is := iterative.New(b, pl, *rounds)
	iterRounds, err := is.Run(query, targets, bg)
	if err != nil {
		log.Fatalf("jackhmmer: %v", err)
	}
	last := iterRounds[len(iterRounds)-1]

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("jackhmmer: %v", err)
		}
		defer f.Close()
		w = f
	}

	if last.Converged {
		fmt.Fprintf(w, "# converged after %d round(s)\n", last.Iteration)
	} else {
		fmt.Fprintf(w, "# stopped after %d round(s) without converging\n", last.Iteration)
	}
	if err := last.Hits.Write(w, results.FormatTargets, true); err != nil {
		log.Fatalf("jackhmmer: writing report: %v", err)
	}
}

func readFirstSeq(path string, alpha alphabet.Alphabet) (*linear.Seq, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	sc := seqio.NewScanner(fasta.NewReader(f, linear.NewSeq("", nil, alpha)))
	if !sc.Next() {
		if err := sc.Error(); err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		return nil, fmt.Errorf("%q: no sequences", path)
	}
	return sc.Seq().(*linear.Seq), nil
}

func readTargets(path string, alpha alphabet.Alphabet) ([]*linear.Seq, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	sc := seqio.NewScanner(fasta.NewReader(f, linear.NewSeq("", nil, alpha)))
	var seqs []*linear.Seq
	for sc.Next() {
		seqs = append(seqs, sc.Seq().(*linear.Seq))
	}
	if err := sc.Error(); err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	if len(seqs) == 0 {
		return nil, fmt.Errorf("%q: no sequences", path)
	}
	return seqs, nil
}
