// Package msa defines the in-memory multiple sequence alignment
// container passed between Builder, TraceAligner and results.TopHits.ToMSA.
// Parsing and serializing MSA files to disk formats is out of scope;
// this container only holds already-aligned rows, each a biogo
// alphabet.Letters slice so every row stays compatible with the rest of
// the biogo-based sequence I/O stack.
package msa

import (
	"fmt"

	"github.com/biogo/biogo/alphabet"

	"github.com/kortschak/profmm/phmmerr"
)

// MSA is a gapped multiple sequence alignment: Rows[i] is the i'th
// sequence's aligned (possibly gapped) residues, all of equal length
// Alen. RF, if non-nil, marks which columns are reference/match
// columns, as produced by hand architecture selection.
type MSA struct {
	Alpha alphabet.Alphabet
	Names []string
	Rows  []alphabet.Letters
	RF    []bool // length Alen; nil if no reference annotation
	// Weights are per-sequence weights supplied by the caller under a
	// "given" weighting scheme; nil means unweighted.
	Weights []float64
}

// New constructs an MSA, validating that every row has equal length.
func New(alpha alphabet.Alphabet, names []string, rows []alphabet.Letters) (*MSA, error) {
	if len(names) != len(rows) {
		return nil, fmt.Errorf("msa: %d names but %d rows: %w", len(names), len(rows), phmmerr.InvalidFormat)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("msa: no sequences: %w", phmmerr.EmptyModel)
	}
	alen := len(rows[0])
	for i, r := range rows {
		if len(r) != alen {
			return nil, fmt.Errorf("msa: row %d has length %d, want %d: %w", i, len(r), alen, phmmerr.InvalidFormat)
		}
	}
	return &MSA{Alpha: alpha, Names: append([]string(nil), names...), Rows: rows}, nil
}

// Nseq returns the number of aligned sequences.
func (m *MSA) Nseq() int { return len(m.Rows) }

// Alen returns the alignment's column count.
func (m *MSA) Alen() int {
	if len(m.Rows) == 0 {
		return 0
	}
	return len(m.Rows[0])
}

// IsGap reports whether alignment column col of row r is a gap.
func (m *MSA) IsGap(r, col int) bool {
	l := m.Rows[r][col]
	return l == alphabet.Letter('-') || l == alphabet.Letter('.')
}

// ColumnOccupancy returns the fraction of rows with a non-gap residue
// at column col, unweighted. BuildMSA's symfrac test uses a
// sequence-weighted occupancy instead.
func (m *MSA) ColumnOccupancy(col int) float64 {
	n := 0
	for r := range m.Rows {
		if !m.IsGap(r, col) {
			n++
		}
	}
	return float64(n) / float64(len(m.Rows))
}
