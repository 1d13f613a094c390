package results

import (
	"fmt"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"

	"github.com/kortschak/profmm/aligner"
	"github.com/kortschak/profmm/msa"
	"github.com/kortschak/profmm/phmmerr"
	"github.com/kortschak/profmm/trace"
)

// ToMSA builds a multiple sequence alignment from th's included hits.
// byName maps a Hit's Name to the target sequence it was scored
// against; traceByName similarly supplies each hit's previously
// computed Trace (e.g. from a TraceAligner). Hits with no entry in
// either map are skipped.
func (th *TopHits) ToMSA(alpha alphabet.Alphabet, byName map[string]*linear.Seq, traceByName map[string]*trace.Trace, trim, allConsensusCols bool) (*msa.MSA, error) {
	var seqs []*linear.Seq
	var traces []*trace.Trace
	for _, h := range th.Included() {
		s, okS := byName[h.Name]
		t, okT := traceByName[h.Name]
		if !okS || !okT {
			continue
		}
		seqs = append(seqs, s)
		traces = append(traces, t)
	}
	if len(seqs) == 0 {
		return nil, fmt.Errorf("results: no included hits with both a sequence and a trace: %w", phmmerr.EmptyModel)
	}
	return aligner.AlignTraces(alpha, seqs, traces, trim, allConsensusCols)
}
