package pipeline

import (
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"

	"github.com/kortschak/profmm/aligner"
	"github.com/kortschak/profmm/profile"
	"github.com/kortschak/profmm/results"
	"github.com/kortschak/profmm/trace"
)

// buildAlignment runs a restricted Viterbi traceback of seq's envelope
// window [from,to] (1-based, inclusive) against p's model and renders
// the resulting trace as a results.Alignment, translating model node
// and target residue coordinates back to p's own node numbering and
// seq's full-length numbering respectively.
//
// The model's consensus column letters are not read from hmm.HMM's own
// Consensus field, since models built by this module leave it empty
// (only hmm.Read fills it, from a CONS record); they are instead taken
// as each node's highest log-odds match emission, the same derivation
// HMMER's own match-state consensus line uses.
func buildAlignment(ta *aligner.TraceAligner, p *profile.Profile, seq alphabet.Letters, from, to int) (*results.Alignment, error) {
	window := linear.NewSeq("domain", append(alphabet.Letters(nil), seq[from-1:to]...), ta.HMM.Alpha)
	traces, err := ta.ComputeTraces([]*linear.Seq{window})
	if err != nil {
		return nil, err
	}
	t := traces[0]

	a := &results.Alignment{}
	var hmmCons, target, identity strings.Builder
	for i, s := range t.States {
		switch s {
		case trace.StateM:
			node := t.Nodes[i]
			if a.HMMFrom == 0 {
				a.HMMFrom = node
			}
			a.HMMTo = node
			cl := consensusLetter(p, node)
			hmmCons.WriteByte(byte(cl))

			r := t.Residue[i]
			var tl alphabet.Letter = '-'
			if r > 0 {
				tl = window.Seq[r-1]
				if a.TargetFrom == 0 {
					a.TargetFrom = from + r - 1
				}
				a.TargetTo = from + r - 1
			}
			target.WriteByte(byte(tl))
			identity.WriteByte(identitySymbol(p, node, cl, tl))
		case trace.StateD:
			node := t.Nodes[i]
			if a.HMMFrom == 0 {
				a.HMMFrom = node
			}
			a.HMMTo = node
			hmmCons.WriteByte(byte(consensusLetter(p, node)))
			target.WriteByte('-')
			identity.WriteByte(' ')
		case trace.StateI:
			hmmCons.WriteByte('.')
			r := t.Residue[i]
			if r > 0 {
				tl := window.Seq[r-1]
				target.WriteByte(byte(tl))
				if a.TargetFrom == 0 {
					a.TargetFrom = from + r - 1
				}
				a.TargetTo = from + r - 1
			}
			identity.WriteByte(' ')
		}
	}
	a.HMMConsensus = hmmCons.String()
	a.TargetSeq = target.String()
	a.Identity = identity.String()
	return a, nil
}

// consensusLetter returns node's highest-scoring match emission letter.
func consensusLetter(p *profile.Profile, node int) alphabet.Letter {
	row := p.Match[node]
	if len(row) == 0 {
		return '-'
	}
	best, bestI := row[0], 0
	for i, v := range row {
		if v > best {
			best, bestI = v, i
		}
	}
	return p.Alphabet().Letter(bestI)
}

// identitySymbol mirrors the classic HMMER alignment midline: the
// consensus letter itself on an exact match, '+' on a positive log-odds
// substitution, ' ' otherwise.
func identitySymbol(p *profile.Profile, node int, cl, tl alphabet.Letter) byte {
	if tl == cl {
		return byte(cl)
	}
	sym := p.Alphabet().IndexOf(tl)
	row := p.Match[node]
	if sym < 0 || sym >= len(row) || row[sym] <= 0 {
		return ' '
	}
	return '+'
}
