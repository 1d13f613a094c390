package results

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// MarkDuplicates flags Hit.Duplicate on all but the highest-scoring
// member of every group of hits that target the same sequence Name and
// whose domain envelopes overlap by at least thresh (Jaccard of the
// hit's overall envelope footprint).
//
// The clustering builds an undirected graph of candidate duplicate
// events with edges weighted by interval Jaccard, thresholds the
// graph, and takes connected components
// (gonum.org/v1/gonum/graph/{simple,topo}).
func (th *TopHits) MarkDuplicates(thresh float64) {
	byName := make(map[string][]int)
	for i, h := range th.hits {
		byName[h.Name] = append(byName[h.Name], i)
	}
	for _, idx := range byName {
		if len(idx) < 2 {
			continue
		}
		th.markDuplicateGroup(idx, thresh)
	}
}

func (th *TopHits) markDuplicateGroup(idx []int, thresh float64) {
	g := simple.NewWeightedUndirectedGraph(0, 0)
	for i := range idx {
		g.AddNode(simple.Node(i))
	}
	for i := 0; i < len(idx)-1; i++ {
		for j := i + 1; j < len(idx); j++ {
			w := envelopeJaccard(th.hits[idx[i]], th.hits[idx[j]])
			if w >= thresh {
				g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(i), T: simple.Node(j), W: w})
			}
		}
	}

	for _, comp := range topo.ConnectedComponents(g) {
		if len(comp) < 2 {
			continue
		}
		best := -1
		for _, n := range comp {
			i := idx[nodeID(n)]
			if best < 0 || th.hits[i].Score > th.hits[best].Score {
				best = i
			}
		}
		for _, n := range comp {
			i := idx[nodeID(n)]
			if i != best {
				th.hits[i].Duplicate = true
			}
		}
	}
}

func nodeID(n graph.Node) int { return int(n.ID()) }

// envelopeFootprint returns the union extent of a hit's domain
// envelopes: the smallest interval containing every domain's
// [EnvFrom, EnvTo].
func envelopeFootprint(h *Hit) (lo, hi int, ok bool) {
	for i, d := range h.domains {
		from, to := d.EnvFrom, d.EnvTo
		if from > to {
			from, to = to, from
		}
		if i == 0 {
			lo, hi, ok = from, to, true
			continue
		}
		if from < lo {
			lo = from
		}
		if to > hi {
			hi = to
		}
	}
	return lo, hi, ok
}

func envelopeJaccard(a, b *Hit) float64 {
	aLo, aHi, aOK := envelopeFootprint(a)
	bLo, bHi, bOK := envelopeFootprint(b)
	if !aOK || !bOK {
		return 0
	}
	lo, hi := max(aLo, bLo), min(aHi, bHi)
	inter := hi - lo + 1
	if inter < 0 {
		inter = 0
	}
	union := (aHi - aLo + 1) + (bHi - bLo + 1) - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
