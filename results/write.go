package results

import (
	"bufio"
	"fmt"
	"io"
)

// Format names a text report layout for TopHits.Write.
type Format int

const (
	// FormatTargets is the one-line-per-reported-hit summary table.
	FormatTargets Format = iota
	// FormatDomains is the one-line-per-reported-domain detail table.
	FormatDomains
	// FormatPfam is a tab-separated machine-readable variant of
	// FormatDomains, one row per reported domain.
	FormatPfam
)

// Write renders th's reported hits/domains as a text report in the
// requested format. If header is true, a column header line (and, for
// FormatTargets/FormatDomains, a query identification line) precedes
// the data rows.
func (th *TopHits) Write(w io.Writer, format Format, header bool) error {
	bw := bufio.NewWriter(w)
	switch format {
	case FormatTargets:
		writeTargets(bw, th, header)
	case FormatDomains:
		writeDomains(bw, th, header)
	case FormatPfam:
		writePfam(bw, th, header)
	default:
		return fmt.Errorf("results: unknown report format %d", format)
	}
	return bw.Flush()
}

func writeTargets(bw *bufio.Writer, th *TopHits, header bool) {
	if header {
		fmt.Fprintf(bw, "# Query: %s  %s\n", th.QueryName, th.QueryAcc)
		fmt.Fprintf(bw, "%-30s %10s %10s %6s %6s %s\n",
			"target", "E-value", "score", "bias", "#dom", "description")
	}
	for _, h := range th.Reported() {
		fmt.Fprintf(bw, "%-30s %10.2g %10.1f %6.1f %6d %s\n",
			h.Name, h.Evalue, h.Score, h.Bias, h.Domains().Len(), h.Desc)
	}
}

func writeDomains(bw *bufio.Writer, th *TopHits, header bool) {
	if header {
		fmt.Fprintf(bw, "# Query: %s  %s\n", th.QueryName, th.QueryAcc)
		fmt.Fprintf(bw, "%-30s %10s %10s %6s %10s %10s\n",
			"target", "i-Evalue", "c-Evalue", "score", "env-from", "env-to")
	}
	for _, h := range th.Reported() {
		ds := h.Domains().Reported()
		for i := 0; i < ds.Len(); i++ {
			d := ds.At(i)
			fmt.Fprintf(bw, "%-30s %10.2g %10.2g %10.1f %10d %10d\n",
				h.Name, d.IEvalue, d.CEvalue, d.Score, d.EnvFrom, d.EnvTo)
		}
	}
}

func writePfam(bw *bufio.Writer, th *TopHits, header bool) {
	if header {
		fmt.Fprintln(bw, "#target\tquery\ti-Evalue\tscore\tbias\tenv-from\tenv-to")
	}
	for _, h := range th.Reported() {
		ds := h.Domains().Reported()
		for i := 0; i < ds.Len(); i++ {
			d := ds.At(i)
			fmt.Fprintf(bw, "%s\t%s\t%.2g\t%.1f\t%.1f\t%d\t%d\n",
				h.Name, th.QueryName, d.IEvalue, d.Score, d.Bias, d.EnvFrom, d.EnvTo)
		}
	}
}
