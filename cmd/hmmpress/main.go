// hmmpress converts a text profile HMM database into the three-file
// pressed layout hmmscan reads: an .h3m filter/Viterbi score matrix
// file, an .h3f MSV filter score matrix file, and an .h3p file holding
// the authoritative text HMM record for each model (name, emissions,
// transitions and calibration), which hmmscan parses back into
// runnable models. The .h3m/.h3f files mirror the pressed binary
// layout's shape but are not themselves sufficient to rebuild a model;
// .h3p is what hmmscan actually loads.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kortschak/profmm/background"
	"github.com/kortschak/profmm/hmm"
	"github.com/kortschak/profmm/optimized"
	"github.com/kortschak/profmm/profile"
)

var (
	hmmFile = flag.String("hmmfile", "", "HMM database to press (one or more HMMER3/f text records)")
	lHint   = flag.Int("L", 400, "expected target length used to configure each model's profile before striping")
)

func main() {
	flag.Parse()
	if *hmmFile == "" {
		flag.Usage()
		os.Exit(1)
	}

	f, err := os.Open(*hmmFile)
	if err != nil {
		log.Fatalf("hmmpress: %v", err)
	}
	models, err := hmm.ReadDatabase(f)
	f.Close()
	if err != nil {
		log.Fatalf("hmmpress: %v", err)
	}
	if len(models) == 0 {
		log.Fatalf("hmmpress: %q: no models", *hmmFile)
	}

	h3m, err := os.Create(*hmmFile + ".h3m")
	if err != nil {
		log.Fatalf("hmmpress: %v", err)
	}
	defer h3m.Close()
	h3f, err := os.Create(*hmmFile + ".h3f")
	if err != nil {
		log.Fatalf("hmmpress: %v", err)
	}
	defer h3f.Close()
	h3p, err := os.Create(*hmmFile + ".h3p")
	if err != nil {
		log.Fatalf("hmmpress: %v", err)
	}
	defer h3p.Close()

	for _, h := range models {
		bg := background.NewDefault(h.Alpha)
		p, err := profile.New(h, bg, *lHint, true, true)
		if err != nil {
			log.Fatalf("hmmpress: model %q: %v", h.Name, err)
		}
		op, err := optimized.From(p, 0)
		if err != nil {
			log.Fatalf("hmmpress: model %q: %v", h.Name, err)
		}
		if err := op.WriteModel(h3m); err != nil {
			log.Fatalf("hmmpress: model %q: writing .h3m: %v", h.Name, err)
		}
		if err := op.WriteFilter(h3f); err != nil {
			log.Fatalf("hmmpress: model %q: writing .h3f: %v", h.Name, err)
		}
		if err := h.Write(h3p); err != nil {
			log.Fatalf("hmmpress: model %q: writing .h3p: %v", h.Name, err)
		}
	}

	fmt.Printf("pressed %d models from %s\n", len(models), *hmmFile)
}
