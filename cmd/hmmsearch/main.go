// hmmsearch searches a single profile HMM against a sequence database,
// reporting significant hits and their domains.
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
	"github.com/kortschak/profmm/hmm"
	"github.com/kortschak/profmm/pipeline"
	"github.com/kortschak/profmm/results"
)

var (
	hmmFile    = flag.String("hmmfile", "", "query profile HMM file")
	seqDB      = flag.String("seqdb", "", "target sequence database, FASTA")
	out        = flag.String("o", "", "output file (default stdout)")
	domOut     = flag.Bool("domtab", false, "write the per-domain report instead of the per-target summary")
	f1         = flag.Float64("F1", 0.02, "MSV filter P-value threshold")
	f2         = flag.Float64("F2", 1e-3, "Viterbi filter P-value threshold")
	f3         = flag.Float64("F3", 1e-5, "Forward filter P-value threshold")
	noBias     = flag.Bool("nobias", false, "disable the composition bias filter")
	noNull2    = flag.Bool("nonull2", false, "disable null2 domain score correction")
)

func main() {
	flag.Parse()
	if *hmmFile == "" || *seqDB == "" {
		flag.Usage()
		os.Exit(1)
	}

	query, err := readHMM(*hmmFile)
	if err != nil {
		log.Fatalf("hmmsearch: %v", err)
	}

	targets, err := readTargets(*seqDB, query.Alpha)
	if err != nil {
		log.Fatalf("hmmsearch: %v", err)
	}

	cfg := pipeline.DefaultConfig()
	cfg.F1, cfg.F2, cfg.F3 = *f1, *f2, *f3
	cfg.BiasFilter = !*noBias
	cfg.Null2 = !*noNull2

	bg := background.NewDefault(query.Alpha)
	pl := pipeline.New(cfg, bg)

	th, err := pl.SearchHMM(query, targets)
	if err != nil {
		log.Fatalf("hmmsearch: search failed: %v", err)
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("hmmsearch: %v", err)
		}
		defer f.Close()
		w = f
	}

	format := results.FormatTargets
	if *domOut {
		format = results.FormatDomains
	}
	if err := th.Write(w, format, true); err != nil {
		log.Fatalf("hmmsearch: writing report: %v", err)
	}
}

func readHMM(path string) (*hmm.HMM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()
	return hmm.Read(f)
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
		s := sc.Seq().(*linear.Seq)
		seqs = append(seqs, s)
	}
	if err := sc.Error(); err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	if len(seqs) == 0 {
		return nil, fmt.Errorf("%q: no sequences", path)
	}
	return seqs, nil
}
