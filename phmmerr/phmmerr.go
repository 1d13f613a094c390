// Package phmmerr collects the sentinel error values shared across the
// profile-HMM search packages. Validation failures are returned wrapping
// one of these with fmt.Errorf("%w", ...) so callers can use errors.Is
// regardless of which package raised the error.
package phmmerr

import "errors"

var (
	// AlphabetMismatch indicates a sequence, MSA or HMM uses a
	// different alphabet than the collaborator it was passed to.
	AlphabetMismatch = errors.New("phmm: alphabet mismatch")

	// InvalidFormat indicates malformed HMM/MSA/sequence file content
	// or an unrecognized format tag.
	InvalidFormat = errors.New("phmm: invalid format")

	// InvalidParameter indicates a threshold or tuning value outside
	// its permitted range, or an unknown enum tag.
	InvalidParameter = errors.New("phmm: invalid parameter")

	// MissingCutoffs indicates bit_cutoffs was requested but the model
	// lacks the selected score pair.
	MissingCutoffs = errors.New("phmm: missing cutoffs")

	// Unconfigured indicates a Profile was used before configure.
	Unconfigured = errors.New("phmm: profile not configured")

	// ModelSizeMismatch indicates an operation over two entities whose
	// M (match-node count) differ where equality is required.
	ModelSizeMismatch = errors.New("phmm: model size mismatch")

	// EmptyModel indicates a builder input produced zero match
	// columns.
	EmptyModel = errors.New("phmm: empty model")

	// CorruptFile indicates a pressed or binary HMM file failed a
	// structural sanity check.
	CorruptFile = errors.New("phmm: corrupt file")

	// UnsupportedVersion indicates a binary file's magic matched a
	// known family but an unhandled format version.
	UnsupportedVersion = errors.New("phmm: unsupported version")

	// EndianMismatch indicates a binary file's magic number matched
	// the opposite byte order of the host.
	EndianMismatch = errors.New("phmm: endian mismatch")

	// IOError wraps an underlying storage failure.
	IOError = errors.New("phmm: I/O error")
)
