// Package trace implements the state path (and optional posterior
// probabilities) of a sequence through a profile HMM, as produced by
// Viterbi alignment or posterior decoding.
package trace

// State names one Plan7 state kind visited along a Trace.
type State int

const (
	StateS State = iota // overall start (bookkeeping only, never emits)
	StateN              // N-terminal unaligned residues
	StateB              // begin
	StateM              // match
	StateD              // delete
	StateI              // insert
	StateE              // end
	StateJ              // inter-domain unaligned residues (multihit)
	StateC              // C-terminal unaligned residues
	StateT              // overall terminus (bookkeeping only, never emits)
)

// Emits reports whether a visit to this state kind consumes a target
// residue.
func (s State) Emits() bool {
	switch s {
	case StateM, StateI, StateN, StateC, StateJ:
		return true
	default:
		return false
	}
}

func (s State) String() string {
	switch s {
	case StateS:
		return "S"
	case StateN:
		return "N"
	case StateB:
		return "B"
	case StateM:
		return "M"
	case StateD:
		return "D"
	case StateI:
		return "I"
	case StateE:
		return "E"
	case StateJ:
		return "J"
	case StateC:
		return "C"
	case StateT:
		return "T"
	default:
		return "?"
	}
}

// Trace is one state path through a model of M match nodes, for a
// sequence of the given residue count.
type Trace struct {
	M       int
	States  []State
	Nodes   []int // 1-based model node for M/D/I states, 0 otherwise
	Residue []int // 1-based target residue position for emitting states, 0 otherwise

	// Posterior[i], if non-nil, is the posterior probability of
	// States[i]'s emission (only meaningful where States[i].Emits()).
	Posterior []float64

	Score float64 // Viterbi (or other alignment) raw score in nats
}

// New returns an empty Trace for a model of m match nodes.
func New(m int) *Trace {
	return &Trace{M: m}
}

// Length returns the number of states visited.
func (t *Trace) Length() int { return len(t.States) }

// Append adds one visited state to the end of the path.
func (t *Trace) Append(s State, node, residue int) {
	t.States = append(t.States, s)
	t.Nodes = append(t.Nodes, node)
	t.Residue = append(t.Residue, residue)
}

// Reverse reverses the path in place; Viterbi traceback naturally
// produces a path from T back to S.
func (t *Trace) Reverse() {
	n := len(t.States)
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		t.States[i], t.States[j] = t.States[j], t.States[i]
		t.Nodes[i], t.Nodes[j] = t.Nodes[j], t.Nodes[i]
		t.Residue[i], t.Residue[j] = t.Residue[j], t.Residue[i]
		if t.Posterior != nil {
			t.Posterior[i], t.Posterior[j] = t.Posterior[j], t.Posterior[i]
		}
	}
}

// ResidueCount returns the number of target residues accounted for by
// the path (the emitting-state count).
func (t *Trace) ResidueCount() int {
	n := 0
	for _, s := range t.States {
		if s.Emits() {
			n++
		}
	}
	return n
}

// ExpectedAccuracy returns the sum of posterior probabilities over
// match/insert emissions divided by the residue count. It returns 0 if
// the trace carries no posteriors or emits nothing.
func (t *Trace) ExpectedAccuracy() float64 {
	if t.Posterior == nil {
		return 0
	}
	var sum float64
	n := 0
	for i, s := range t.States {
		if s.Emits() {
			n++
		}
		if s == StateM || s == StateI {
			sum += t.Posterior[i]
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Domains returns the [start, end) state-index ranges delimited by
// consecutive B...E spans, i.e. one range per pass through the core
// model. Useful to multihit traces where several domains share a path.
func (t *Trace) Domains() [][2]int {
	var spans [][2]int
	start := -1
	for i, s := range t.States {
		switch s {
		case StateB:
			start = i
		case StateE:
			if start >= 0 {
				spans = append(spans, [2]int{start, i + 1})
				start = -1
			}
		}
	}
	return spans
}

// Traces is an ordered collection of Trace, one per aligned sequence.
type Traces []*Trace

// Len returns the number of traces; Traces has no implicit ordering of
// its own, and is kept parallel to whatever
// sequence list it was produced from.
func (ts Traces) Len() int { return len(ts) }
