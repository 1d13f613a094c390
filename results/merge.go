package results

import "fmt"

// Merge combines th and others into one new TopHits (e.g. combining
// per-thread shards from a parallel search), preserving each Hit's
// original SeqIdx tagging, recomputing E-values against the summed Z/
// domZ, and re-applying E-value/bit-score thresholds (skipped when
// BitCutoffs is not hmm.NoCutoffs). The result's sort state is always
// reset to unsorted, since merging can interleave hits from multiple
// already-sorted inputs.
//
// The Z/domZ value shared by every one of the merged TopHits is honored
// only if all of them agree; otherwise Z/domZ are summed across all
// operands, which is always a safe, order-independent default.
func (th *TopHits) Merge(others ...*TopHits) (*TopHits, error) {
	all := append([]*TopHits{th}, others...)
	for _, o := range all[1:] {
		if o.Mode != th.Mode {
			return nil, fmt.Errorf("results: cannot merge a %v TopHits with a %v TopHits", th.Mode, o.Mode)
		}
	}

	out := New(th.Mode)
	out.QueryName, out.QueryAcc = th.QueryName, th.QueryAcc
	out.Thresholds = th.Thresholds
	out.BitCutoffs = th.BitCutoffs
	out.LongTarget = th.LongTarget
	out.Strand = th.Strand
	out.BlockLength = th.BlockLength

	var z, domZ, domSurvivors float64
	agree := true
	for _, o := range all[1:] {
		if o.Z != th.Z || o.DomZ != th.DomZ {
			agree = false
		}
	}
	if agree {
		z, domZ = th.Z, th.DomZ
	}
	for _, o := range all {
		if !agree {
			z += o.Z
			domZ += o.DomZ
		}
		domSurvivors += o.DomSurvivors
		out.SearchedModels += o.SearchedModels
		out.SearchedNodes += o.SearchedNodes
		out.SearchedSequences += o.SearchedSequences
		out.SearchedResidues += o.SearchedResidues
		for _, h := range o.hits {
			idx := h.SeqIdx
			out.Append(h)
			h.SeqIdx = idx
		}
	}
	out.Z, out.DomZ, out.DomSurvivors = z, domZ, domSurvivors

	for _, h := range out.hits {
		if out.Z > 0 {
			h.Evalue = h.Pvalue * out.Z
		}
		for _, d := range h.domains {
			if out.DomZ > 0 {
				d.IEvalue = d.Pvalue * out.DomZ
			}
			if out.DomSurvivors > 0 {
				d.CEvalue = d.Pvalue * out.DomSurvivors
			}
		}
	}

	if out.BitCutoffs == 0 {
		if err := out.ApplyThresholds(nil); err != nil {
			return nil, err
		}
	}
	return out, nil
}
