package builder

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/mat"

	"github.com/kortschak/profmm/msa"
)

// SequenceWeights returns one relative weight per row of m, following
// scheme. WeightGiven returns a copy of m.Weights unchanged when it has
// one entry per row, and uniform weights of 1 otherwise; any other
// scheme computes weights from the alignment itself. Weights computed
// by this function sum to Nseq(m) (the same convention hmmbuild's
// weighted counts use, so a fully-weighted column's counts still total
// the sequence count); given weights are not rescaled.
func SequenceWeights(m *msa.MSA, scheme Weighting) []float64 {
	n := m.Nseq()
	switch scheme {
	case WeightGiven:
		if len(m.Weights) == n {
			return append([]float64(nil), m.Weights...)
		}
		fallthrough
	case WeightNone:
		w := make([]float64, n)
		for i := range w {
			w[i] = 1
		}
		return w
	case WeightPB:
		return henikoffWeights(m)
	case WeightGSC:
		return gscWeights(m)
	case WeightBlosum:
		return blosumWeights(m, blosumIdentity)
	default:
		return henikoffWeights(m)
	}
}

// downweightFragments zeroes the weight of any sequence whose raw
// (unweighted) residue coverage falls below fragthresh, in place:
// fragments otherwise distort column occupancy and pseudocount
// mixing as if they were full-length homologs.
func downweightFragments(m *msa.MSA, weights []float64, fragthresh float64) {
	alen := m.Alen()
	if alen == 0 {
		return
	}
	for r := 0; r < m.Nseq(); r++ {
		n := 0
		for col := 0; col < alen; col++ {
			if !m.IsGap(r, col) {
				n++
			}
		}
		if float64(n)/float64(alen) < fragthresh {
			weights[r] = 0
		}
	}
}

// henikoffWeights implements Henikoff & Henikoff 1994 position-based
// sequence weighting: in each column, a residue type shared by s
// sequences among r distinct types contributes 1/(r*s) to each of
// those s sequences; a sequence's weight is the sum of its
// contributions across all columns, renormalized to sum to Nseq.
func henikoffWeights(m *msa.MSA) []float64 {
	n := m.Nseq()
	alen := m.Alen()
	w := make([]float64, n)
	for col := 0; col < alen; col++ {
		counts := make(map[int32]int)
		for r := 0; r < n; r++ {
			if m.IsGap(r, col) {
				continue
			}
			counts[int32(m.Rows[r][col])]++
		}
		rTypes := len(counts)
		if rTypes == 0 {
			continue
		}
		for r := 0; r < n; r++ {
			if m.IsGap(r, col) {
				continue
			}
			s := counts[int32(m.Rows[r][col])]
			w[r] += 1.0 / float64(rTypes*s)
		}
	}
	return normalizeToN(w, n)
}

// pairwiseIdentity returns the fraction of columns where rows i and j
// both carry a (non-gap) residue and those residues agree, among the
// columns where both are aligned at all. Two sequences with no shared
// aligned column are reported as 0% identical.
func pairwiseIdentity(m *msa.MSA, i, j int) float64 {
	var both, same int
	for col := 0; col < m.Alen(); col++ {
		if m.IsGap(i, col) || m.IsGap(j, col) {
			continue
		}
		both++
		if m.Rows[i][col] == m.Rows[j][col] {
			same++
		}
	}
	if both == 0 {
		return 0
	}
	return float64(same) / float64(both)
}

// blosumIdentity is the pairwise-identity threshold blosumWeights
// clusters at, the same 62% used to build the BLOSUM62 substitution
// matrix the scheme is named after.
const blosumIdentity = 0.62

// blosumWeights implements BLOSUM-style clustering weighting: sequences
// are clustered by single-linkage at identity, and every sequence in a
// cluster of size s is weighted 1/s, so a clique of near-identical
// sequences counts as a single effective observation. Clustering is
// connected components over an identity-thresholded graph
// (gonum.org/v1/gonum/graph/{simple,topo}).
func blosumWeights(m *msa.MSA, identity float64) []float64 {
	n := m.Nseq()
	w := make([]float64, n)
	if n == 0 {
		return w
	}
	if n == 1 {
		w[0] = 1
		return w
	}

	g := simple.NewWeightedUndirectedGraph(0, 0)
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if id := pairwiseIdentity(m, i, j); id >= identity {
				g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(i), T: simple.Node(j), W: id})
			}
		}
	}
	for _, comp := range topo.ConnectedComponents(g) {
		size := float64(len(comp))
		for _, node := range comp {
			w[int(node.ID())] = 1 / size
		}
	}
	return normalizeToN(w, n)
}

// gscCluster is one node of the UPGMA dendrogram built by gscWeights:
// members lists the leaf indices it spans.
type gscCluster struct {
	members []int
}

// gscWeights implements a simplified Gerstein/Sonnhammer/Chothia-style
// phylogenetic tree weighting: an UPGMA average-linkage tree is built
// over the all-pairs fractional-distance matrix (1-identity, held in a
// gonum.org/v1/gonum/mat.Dense), and each merge's half-distance (a
// proxy for the branch length separating the two joined clusters) is
// divided evenly among the leaves on each side and accumulated. A
// sequence's final weight is its total accumulated branch-length
// share, renormalized to sum to Nseq; sequences on their own long
// branch (distant from everything else) accumulate more weight than
// sequences buried in a tight, redundant clade.
func gscWeights(m *msa.MSA) []float64 {
	n := m.Nseq()
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	if n < 2 {
		return w
	}

	dist := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := 1 - pairwiseIdentity(m, i, j)
			dist.Set(i, j, d)
			dist.Set(j, i, d)
		}
	}

	clusters := make([]*gscCluster, n)
	for i := range clusters {
		clusters[i] = &gscCluster{members: []int{i}}
	}
	active := make([]int, n)
	for i := range active {
		active[i] = i
	}

	contrib := make([]float64, n)
	for len(active) > 1 {
		bestA, bestB, bestD := 0, 1, -1.0
		for a := 0; a < len(active); a++ {
			for b := a + 1; b < len(active); b++ {
				d := averageLinkage(dist, clusters[active[a]].members, clusters[active[b]].members)
				if bestD < 0 || d < bestD {
					bestD, bestA, bestB = d, a, b
				}
			}
		}
		i, j := active[bestA], active[bestB]
		branch := bestD / 2
		for _, leaf := range clusters[i].members {
			contrib[leaf] += branch / float64(len(clusters[i].members))
		}
		for _, leaf := range clusters[j].members {
			contrib[leaf] += branch / float64(len(clusters[j].members))
		}
		merged := &gscCluster{members: append(append([]int(nil), clusters[i].members...), clusters[j].members...)}
		if bestB > bestA {
			active = append(active[:bestB], active[bestB+1:]...)
			active = append(active[:bestA], active[bestA+1:]...)
		} else {
			active = append(active[:bestA], active[bestA+1:]...)
			active = append(active[:bestB], active[bestB+1:]...)
		}
		clusters = append(clusters, merged)
		active = append(active, len(clusters)-1)
	}

	return normalizeToN(contrib, n)
}

func averageLinkage(dist *mat.Dense, a, b []int) float64 {
	var sum float64
	for _, i := range a {
		for _, j := range b {
			sum += dist.At(i, j)
		}
	}
	return sum / float64(len(a)*len(b))
}

// normalizeToN rescales w so it sums to n, falling back to all-ones if
// its total is non-positive (e.g. a single-column alignment with no
// informative pairwise differences).
func normalizeToN(w []float64, n int) []float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	if total <= 0 {
		for i := range w {
			w[i] = 1
		}
		return w
	}
	for i := range w {
		w[i] = w[i] * float64(n) / total
	}
	return w
}
