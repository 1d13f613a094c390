package results

// Domain is a posterior-decoded envelope of a target plausibly emitted
// by one pass through the model, with its raw score, bias correction
// and the three significance measures.
type Domain struct {
	hit *Hit // non-owning back-reference

	EnvFrom, EnvTo int
	Score          float64
	Bias           float64
	EnvelopeScore  float64

	CEvalue float64
	IEvalue float64
	Pvalue  float64

	Included bool
	Reported bool

	Alignment *Alignment
}

// Hit returns the Hit that owns this Domain.
func (d *Domain) Hit() *Hit { return d.hit }

// newDomain constructs a Domain owned by hit and wires its Alignment's
// back-reference, if set later via SetAlignment.
func newDomain(hit *Hit) *Domain {
	return &Domain{hit: hit}
}

// SetAlignment installs a and wires its back-reference to d.
func (d *Domain) SetAlignment(a *Alignment) {
	a.domain = d
	d.Alignment = a
}

// Len returns the envelope length in residues.
func (d *Domain) Len() int {
	if d.EnvTo < d.EnvFrom {
		return d.EnvFrom - d.EnvTo + 1
	}
	return d.EnvTo - d.EnvFrom + 1
}
