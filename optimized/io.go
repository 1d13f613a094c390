package optimized

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/biogo/biogo/alphabet"

	"github.com/kortschak/profmm/phmmerr"
)

// magicLE and magicBE distinguish the pressed filter file's byte order:
// a reader choosing the wrong one sees the mirrored constant instead.
const (
	magicLE uint32 = 0xe3a1d0f5
	magicBE uint32 = 0xf5d0a1e3
)

// WriteFilter serializes the SSV/MSV filter matrix (sbv) plus the
// rescaling scalars to w, in the layout of a pressed database's .h3f
// file.
func (op *OptimizedProfile) WriteFilter(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, magicLE); err != nil {
		return fmt.Errorf("optimized: %v: %w", err, phmmerr.IOError)
	}
	hdr := []int32{int32(op.M), int32(op.width), int32(op.q), int32(len(op.sbv))}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("optimized: %v: %w", err, phmmerr.IOError)
	}
	if err := binary.Write(w, binary.LittleEndian, op.base); err != nil {
		return fmt.Errorf("optimized: %v: %w", err, phmmerr.IOError)
	}
	if err := binary.Write(w, binary.LittleEndian, op.bias); err != nil {
		return fmt.Errorf("optimized: %v: %w", err, phmmerr.IOError)
	}
	for _, row := range op.sbv {
		if err := binary.Write(w, binary.LittleEndian, row); err != nil {
			return fmt.Errorf("optimized: %v: %w", err, phmmerr.IOError)
		}
	}
	return nil
}

// WriteModel serializes the Viterbi score matrix (rbv) plus the
// rescaling scalars to w, in the layout of a pressed database's .h3m
// file.
func (op *OptimizedProfile) WriteModel(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, magicLE); err != nil {
		return fmt.Errorf("optimized: %v: %w", err, phmmerr.IOError)
	}
	hdr := []int32{int32(op.M), int32(op.width), int32(op.q), int32(len(op.rbv))}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("optimized: %v: %w", err, phmmerr.IOError)
	}
	scalars := []float64{op.scale, op.tbm, op.tec, op.tjb}
	if err := binary.Write(w, binary.LittleEndian, scalars); err != nil {
		return fmt.Errorf("optimized: %v: %w", err, phmmerr.IOError)
	}
	for _, row := range op.rbv {
		if err := binary.Write(w, binary.LittleEndian, row); err != nil {
			return fmt.Errorf("optimized: %v: %w", err, phmmerr.IOError)
		}
	}
	return nil
}

// ReadPressed reconstructs an OptimizedProfile from a pressed
// database's .h3m and .h3f sections for alphabet alpha.
func ReadPressed(fhModel, fhFilter io.Reader, alpha alphabet.Alphabet) (*OptimizedProfile, error) {
	var magic uint32
	if err := binary.Read(fhModel, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("optimized: %v: %w", err, phmmerr.IOError)
	}
	switch magic {
	case magicLE:
	case magicBE:
		return nil, fmt.Errorf("optimized: model file is big-endian: %w", phmmerr.EndianMismatch)
	default:
		return nil, fmt.Errorf("optimized: bad model magic %#x: %w", magic, phmmerr.CorruptFile)
	}
	var mhdr [4]int32
	if err := binary.Read(fhModel, binary.LittleEndian, &mhdr); err != nil {
		return nil, fmt.Errorf("optimized: %v: %w", err, phmmerr.IOError)
	}
	m, width, q, n := int(mhdr[0]), int(mhdr[1]), int(mhdr[2]), int(mhdr[3])
	if n != alpha.Len() {
		return nil, fmt.Errorf("optimized: model alphabet size %d != %d: %w", n, alpha.Len(), phmmerr.AlphabetMismatch)
	}
	var scalars [4]float64
	if err := binary.Read(fhModel, binary.LittleEndian, &scalars); err != nil {
		return nil, fmt.Errorf("optimized: %v: %w", err, phmmerr.IOError)
	}
	rows := q * width
	rbv := make([][]int16, n)
	for i := range rbv {
		rbv[i] = make([]int16, rows)
		if err := binary.Read(fhModel, binary.LittleEndian, rbv[i]); err != nil {
			return nil, fmt.Errorf("optimized: %v: %w", err, phmmerr.IOError)
		}
	}

	if err := binary.Read(fhFilter, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("optimized: %v: %w", err, phmmerr.IOError)
	}
	if magic != magicLE {
		return nil, fmt.Errorf("optimized: bad filter magic %#x: %w", magic, phmmerr.CorruptFile)
	}
	var fhdr [4]int32
	if err := binary.Read(fhFilter, binary.LittleEndian, &fhdr); err != nil {
		return nil, fmt.Errorf("optimized: %v: %w", err, phmmerr.IOError)
	}
	var base int16
	var bias uint8
	if err := binary.Read(fhFilter, binary.LittleEndian, &base); err != nil {
		return nil, fmt.Errorf("optimized: %v: %w", err, phmmerr.IOError)
	}
	if err := binary.Read(fhFilter, binary.LittleEndian, &bias); err != nil {
		return nil, fmt.Errorf("optimized: %v: %w", err, phmmerr.IOError)
	}
	sbv := make([][]int8, n)
	for i := range sbv {
		sbv[i] = make([]int8, rows)
		if err := binary.Read(fhFilter, binary.LittleEndian, sbv[i]); err != nil {
			return nil, fmt.Errorf("optimized: %v: %w", err, phmmerr.IOError)
		}
	}

	return &OptimizedProfile{
		alpha: alpha, M: m, width: width, q: q,
		rbv: rbv, sbv: sbv,
		base: base, bias: bias,
		scale: scalars[0], tbm: scalars[1], tec: scalars[2], tjb: scalars[3],
		Offsets: Offsets{Model: -1, Filter: -1, Profile: -1},
	}, nil
}
