// hmmscan searches a single sequence against a pressed profile HMM
// database, reporting which models it matches.
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
	hmmDB   = flag.String("hmmdb", "", "pressed profile HMM database base name (reads <hmmdb>.h3p)")
	seqFile = flag.String("seqfile", "", "query sequence file, FASTA, first record used")
	out     = flag.String("o", "", "output file (default stdout)")
	domOut  = flag.Bool("domtab", false, "write the per-domain report instead of the per-target summary")
	f1      = flag.Float64("F1", 0.02, "MSV filter P-value threshold")
	f2      = flag.Float64("F2", 1e-3, "Viterbi filter P-value threshold")
	f3      = flag.Float64("F3", 1e-5, "Forward filter P-value threshold")
)

func main() {
	flag.Parse()
	if *hmmDB == "" || *seqFile == "" {
		flag.Usage()
		os.Exit(1)
	}

	f, err := os.Open(*hmmDB + ".h3p")
	if err != nil {
		log.Fatalf("hmmscan: opening pressed database: %v", err)
	}
	models, err := hmm.ReadDatabase(f)
	f.Close()
	if err != nil {
		log.Fatalf("hmmscan: %v", err)
	}
	if len(models) == 0 {
		log.Fatalf("hmmscan: %q: no models", *hmmDB+".h3p")
	}

	query, err := readFirstSeq(*seqFile, models[0].Alpha)
	if err != nil {
		log.Fatalf("hmmscan: %v", err)
	}

	cfg := pipeline.DefaultConfig()
	cfg.F1, cfg.F2, cfg.F3 = *f1, *f2, *f3

	bg := background.NewDefault(query.Alphabet())
	pl := pipeline.New(cfg, bg)

	th, err := pl.ScanSeq(query, models)
	if err != nil {
		log.Fatalf("hmmscan: scan failed: %v", err)
	}

	w := os.Stdout
	if *out != "" {
		of, err := os.Create(*out)
		if err != nil {
			log.Fatalf("hmmscan: %v", err)
		}
		defer of.Close()
		w = of
	}

	format := results.FormatTargets
	if *domOut {
		format = results.FormatDomains
	}
	if err := th.Write(w, format, true); err != nil {
		log.Fatalf("hmmscan: writing report: %v", err)
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
