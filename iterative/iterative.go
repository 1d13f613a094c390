// Package iterative implements jackhmmer-style iterative profile
// search: build a model, search a sequence database with it, realign
// the hits that were found, rebuild the model from that alignment, and
// repeat until the set of included hits stops changing.
package iterative

import (
	"fmt"

	"github.com/biogo/biogo/seq/linear"

	"github.com/kortschak/profmm/aligner"
	"github.com/kortschak/profmm/background"
	"github.com/kortschak/profmm/builder"
	"github.com/kortschak/profmm/hmm"
	"github.com/kortschak/profmm/msa"
	"github.com/kortschak/profmm/phmmerr"
	"github.com/kortschak/profmm/pipeline"
	"github.com/kortschak/profmm/results"
)

// IterationResult is the state produced by one round of search and
// realignment.
type IterationResult struct {
	Iteration int
	HMM       *hmm.HMM
	Hits      *results.TopHits
	MSA       *msa.MSA
	Converged bool
}

// IterativeSearch drives the build/search/realign loop under a fixed
// Builder and Pipeline.
type IterativeSearch struct {
	Builder  *builder.Builder
	Pipeline *pipeline.Pipeline
	// MaxIterations bounds the loop even if convergence is never
	// reached (jackhmmer defaults to 5).
	MaxIterations int
}

// New returns an IterativeSearch with MaxIterations defaulted to 5 if
// maxIterations <= 0.
func New(b *builder.Builder, pl *pipeline.Pipeline, maxIterations int) *IterativeSearch {
	if maxIterations <= 0 {
		maxIterations = 5
	}
	return &IterativeSearch{Builder: b, Pipeline: pl, MaxIterations: maxIterations}
}

// Run searches targets starting from a single-sequence model built
// from query, realigning and rebuilding the model each round, until two
// consecutive rounds include exactly the same set of target names or
// MaxIterations is reached. It returns every round's result, in order.
func (is *IterativeSearch) Run(query *linear.Seq, targets []*linear.Seq, bg *background.Background) ([]IterationResult, error) {
	byName := make(map[string]*linear.Seq, len(targets))
	for _, t := range targets {
		byName[t.Name()] = t
	}

	res, err := is.Builder.Build(query, bg)
	if err != nil {
		return nil, fmt.Errorf("iterative: initial model: %w", err)
	}
	h := res.HMM

	var rounds []IterationResult
	var prevKey map[string]bool
	for round := 0; round < is.MaxIterations; round++ {
		hits, err := is.Pipeline.SearchHMM(h, targets)
		if err != nil {
			return nil, fmt.Errorf("iterative: round %d search: %w", round, err)
		}

		converged := false
		if prevKey != nil {
			novel := hits.CompareRanking(prevKey)
			if novel == 0 && len(hits.Included()) == len(prevKey) {
				converged = true
			}
		}

		ir := IterationResult{Iteration: round + 1, HMM: h, Hits: hits, Converged: converged}
		if converged || round == is.MaxIterations-1 {
			rounds = append(rounds, ir)
			return rounds, nil
		}

		included := hits.Included()
		if len(included) == 0 {
			rounds = append(rounds, ir)
			return rounds, nil
		}

		seqs := make([]*linear.Seq, 0, len(included))
		for _, hit := range included {
			if s, ok := byName[hit.Name]; ok {
				seqs = append(seqs, s)
			}
		}
		if len(seqs) == 0 {
			rounds = append(rounds, ir)
			return rounds, nil
		}

		ta := aligner.New(h)
		traces, err := ta.ComputeTraces(seqs)
		if err != nil {
			return nil, fmt.Errorf("iterative: round %d realign: %w", round, err)
		}
		m, err := aligner.AlignTraces(h.Alpha, seqs, traces, true, false)
		if err != nil {
			return nil, fmt.Errorf("iterative: round %d alignment: %w", round, err)
		}
		ir.MSA = m
		rounds = append(rounds, ir)

		res, err := is.Builder.BuildMSA(h.Name, m, bg)
		if err != nil {
			return nil, fmt.Errorf("iterative: round %d rebuild: %w", round, err)
		}
		h = res.HMM
		prevKey = hits.RankingKey()
	}
	return rounds, nil
}

// Final returns the last round's HMM and MSA, or an error wrapping
// phmmerr.EmptyModel if rounds is empty.
func Final(rounds []IterationResult) (*hmm.HMM, *msa.MSA, error) {
	if len(rounds) == 0 {
		return nil, nil, fmt.Errorf("iterative: no rounds run: %w", phmmerr.EmptyModel)
	}
	last := rounds[len(rounds)-1]
	return last.HMM, last.MSA, nil
}
