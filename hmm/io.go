package hmm

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/biogo/biogo/alphabet"

	"github.com/kortschak/profmm/phmmerr"
)

// magic is the versioned, line-oriented text format's identifying
// header, mirroring the real HMMER3/f convention of a magic-prefixed,
// versioned first line.
const magic = "HMMER3/f"

// negLogStar renders a negative-log-probability field, using "*" for
// the sentinel "zero probability" value exactly as HMMER text files do.
func negLogStar(p float64) string {
	if p <= 0 {
		return "*"
	}
	return strconv.FormatFloat(-math.Log(p), 'f', 5, 64)
}

func parseNegLogStar(tok string) (float64, error) {
	if tok == "*" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("hmm: bad probability field %q: %w", tok, phmmerr.InvalidFormat)
	}
	return math.Exp(-v), nil
}

// Write serializes h in a magic-prefixed, line-oriented text format:
// header records, then one row of match emissions, insert emissions
// and transitions per node.
func (h *HMM) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s [profmm]\n", magic)
	fmt.Fprintf(bw, "NAME  %s\n", h.Name)
	if h.Acc != "" {
		fmt.Fprintf(bw, "ACC   %s\n", h.Acc)
	}
	if h.Desc != "" {
		fmt.Fprintf(bw, "DESC  %s\n", h.Desc)
	}
	fmt.Fprintf(bw, "LENG  %d\n", h.M)
	fmt.Fprintf(bw, "ALPH  %s\n", alphaName(h.Alpha))
	if h.Comlog != "" {
		fmt.Fprintf(bw, "COM   %s\n", h.Comlog)
	}
	if !h.Ctime.IsZero() {
		fmt.Fprintf(bw, "DATE  %s\n", h.Ctime.Format(time.RFC3339))
	}
	if h.Nseq > 0 {
		fmt.Fprintf(bw, "NSEQ  %d\n", h.Nseq)
	}
	if h.NseqEffective > 0 {
		fmt.Fprintf(bw, "EFFN  %v\n", h.NseqEffective)
	}
	if h.Consensus != "" {
		fmt.Fprintf(bw, "CONS  %s\n", h.Consensus)
	}
	if h.ConsensusStructure != "" {
		fmt.Fprintf(bw, "STRU  %s\n", h.ConsensusStructure)
	}
	if h.ConsensusAccessibility != "" {
		fmt.Fprintf(bw, "ACCE  %s\n", h.ConsensusAccessibility)
	}
	if h.HasChecksum {
		fmt.Fprintf(bw, "CKSUM %d\n", h.Checksum)
	}
	if h.Evalue != nil {
		fmt.Fprintf(bw, "STATS LOCAL MSV       %v  %v\n", h.Evalue.FTau, h.Evalue.FLambda)
		fmt.Fprintf(bw, "STATS LOCAL VITERBI   %v  %v\n", h.Evalue.VMu, h.Evalue.VLambda)
		fmt.Fprintf(bw, "STATS LOCAL FORWARD   %v  %v\n", h.Evalue.MMu, h.Evalue.MLambda)
	}
	if c := h.Cutoffs.Gathering; c != nil {
		fmt.Fprintf(bw, "GA    %v %v\n", c.Score1, c.Score2)
	}
	if c := h.Cutoffs.Trusted; c != nil {
		fmt.Fprintf(bw, "TC    %v %v\n", c.Score1, c.Score2)
	}
	if c := h.Cutoffs.Noise; c != nil {
		fmt.Fprintf(bw, "NC    %v %v\n", c.Score1, c.Score2)
	}
	fmt.Fprintln(bw, "HMM")
	for k := 0; k <= h.M; k++ {
		if k > 0 {
			fmt.Fprintf(bw, "  %d", k)
			for _, p := range h.Match[k] {
				fmt.Fprintf(bw, " %s", negLogStar(p))
			}
			fmt.Fprintln(bw)
		}
		fmt.Fprintf(bw, "       ")
		for _, p := range h.Insert[k] {
			fmt.Fprintf(bw, " %s", negLogStar(p))
		}
		fmt.Fprintln(bw)
		t := h.Trans[k]
		fmt.Fprintf(bw, "       %s %s %s %s %s %s %s\n",
			negLogStar(t.MM), negLogStar(t.MI), negLogStar(t.MD),
			negLogStar(t.IM), negLogStar(t.II),
			negLogStar(t.DM), negLogStar(t.DD))
	}
	fmt.Fprintln(bw, "//")
	return bw.Flush()
}

// Read parses a text HMM file written by Write, resolving alpha from
// the file's ALPH header record.
func Read(r io.Reader) (*HMM, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	if !sc.Scan() {
		return nil, fmt.Errorf("hmm: empty input: %w", phmmerr.InvalidFormat)
	}
	if !strings.HasPrefix(sc.Text(), "HMMER3/") {
		return nil, fmt.Errorf("hmm: unrecognized magic %q: %w", sc.Text(), phmmerr.InvalidFormat)
	}

	var (
		name, acc, desc, comlog string
		leng                    int
		alphaTag                string
		nseq                    int
		neffSeq                 float64
		cons, stru, acce        string
		checksum                uint32
		hasChecksum             bool
		evalue                  EvalueParameters
		haveEvalue              bool
		cuts                    Cutoffs
		ctime                   time.Time
	)
	for sc.Scan() {
		line := sc.Text()
		if line == "HMM" {
			break
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "NAME":
			name = strings.Join(fields[1:], " ")
		case "ACC":
			acc = strings.Join(fields[1:], " ")
		case "DESC":
			desc = strings.Join(fields[1:], " ")
		case "LENG":
			leng, _ = strconv.Atoi(fields[1])
		case "ALPH":
			alphaTag = fields[1]
		case "COM":
			comlog = strings.Join(fields[1:], " ")
		case "DATE":
			ctime, _ = time.Parse(time.RFC3339, fields[1])
		case "NSEQ":
			nseq, _ = strconv.Atoi(fields[1])
		case "EFFN":
			neffSeq, _ = strconv.ParseFloat(fields[1], 64)
		case "CONS":
			cons = fields[1]
		case "STRU":
			stru = fields[1]
		case "ACCE":
			acce = fields[1]
		case "CKSUM":
			v, _ := strconv.ParseUint(fields[1], 10, 32)
			checksum = uint32(v)
			hasChecksum = true
		case "STATS":
			if len(fields) < 5 {
				continue
			}
			a, _ := strconv.ParseFloat(fields[3], 64)
			b, _ := strconv.ParseFloat(fields[4], 64)
			switch fields[2] {
			case "MSV":
				evalue.FTau, evalue.FLambda = a, b
			case "VITERBI":
				evalue.VMu, evalue.VLambda = a, b
			case "FORWARD":
				evalue.MMu, evalue.MLambda = a, b
			}
			haveEvalue = true
		case "GA":
			cuts.Gathering = parseScorePair(fields)
		case "TC":
			cuts.Trusted = parseScorePair(fields)
		case "NC":
			cuts.Noise = parseScorePair(fields)
		}
	}
	if name == "" {
		return nil, fmt.Errorf("hmm: missing required NAME record: %w", phmmerr.InvalidFormat)
	}
	if leng < 1 {
		return nil, fmt.Errorf("hmm: invalid LENG %d: %w", leng, phmmerr.InvalidFormat)
	}
	alpha, err := alphaByName(alphaTag)
	if err != nil {
		return nil, err
	}

	h, err := New(alpha, leng)
	if err != nil {
		return nil, err
	}
	h.Name, h.Acc, h.Desc, h.Comlog = name, acc, desc, comlog
	h.Ctime = ctime
	h.Nseq, h.NseqEffective = nseq, neffSeq
	h.Consensus, h.ConsensusStructure, h.ConsensusAccessibility = cons, stru, acce
	h.Checksum, h.HasChecksum = checksum, hasChecksum
	h.Cutoffs = cuts
	if haveEvalue {
		h.Evalue = &evalue
	}

	n := alpha.Len()
	for k := 0; k <= leng; k++ {
		if k > 0 {
			if !sc.Scan() {
				return nil, fmt.Errorf("hmm: truncated match row at node %d: %w", k, phmmerr.InvalidFormat)
			}
			fields := strings.Fields(sc.Text())
			if len(fields) < n+1 {
				return nil, fmt.Errorf("hmm: short match row at node %d: %w", k, phmmerr.InvalidFormat)
			}
			for i := 0; i < n; i++ {
				p, err := parseNegLogStar(fields[i+1])
				if err != nil {
					return nil, err
				}
				h.Match[k][i] = p
			}
		}
		if !sc.Scan() {
			return nil, fmt.Errorf("hmm: truncated insert row at node %d: %w", k, phmmerr.InvalidFormat)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < n {
			return nil, fmt.Errorf("hmm: short insert row at node %d: %w", k, phmmerr.InvalidFormat)
		}
		for i := 0; i < n; i++ {
			p, err := parseNegLogStar(fields[i])
			if err != nil {
				return nil, err
			}
			h.Insert[k][i] = p
		}
		if !sc.Scan() {
			return nil, fmt.Errorf("hmm: truncated transition row at node %d: %w", k, phmmerr.InvalidFormat)
		}
		fields = strings.Fields(sc.Text())
		if len(fields) < 7 {
			return nil, fmt.Errorf("hmm: short transition row at node %d: %w", k, phmmerr.InvalidFormat)
		}
		vals := make([]float64, 7)
		for i, f := range fields[:7] {
			p, err := parseNegLogStar(f)
			if err != nil {
				return nil, err
			}
			vals[i] = p
		}
		h.Trans[k] = Transitions{
			MM: vals[0], MI: vals[1], MD: vals[2],
			IM: vals[3], II: vals[4],
			DM: vals[5], DD: vals[6],
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("hmm: %v: %w", err, phmmerr.IOError)
	}
	return h, nil
}

// ReadDatabase parses a file holding one or more HMMER3/f text records
// concatenated back to back, as Write produces and a pressed database's
// .h3p section stores, returning every model in file order.
func ReadDatabase(r io.Reader) ([]*HMM, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var models []*HMM
	var buf strings.Builder
	for sc.Scan() {
		line := sc.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')
		if line == "//" {
			h, err := Read(strings.NewReader(buf.String()))
			if err != nil {
				return nil, err
			}
			models = append(models, h)
			buf.Reset()
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("hmm: %v: %w", err, phmmerr.IOError)
	}
	if buf.Len() != 0 {
		return nil, fmt.Errorf("hmm: trailing unterminated record: %w", phmmerr.InvalidFormat)
	}
	return models, nil
}

func parseScorePair(fields []string) *ScorePair {
	if len(fields) < 3 {
		return nil
	}
	a, err1 := strconv.ParseFloat(fields[1], 64)
	b, err2 := strconv.ParseFloat(fields[2], 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	return &ScorePair{Score1: a, Score2: b}
}

func alphaName(a alphabet.Alphabet) string {
	switch a {
	case alphabet.DNA, alphabet.DNAgapped, alphabet.DNAredundant:
		return "DNA"
	case alphabet.RNA, alphabet.RNAgapped, alphabet.RNAredundant:
		return "RNA"
	default:
		return "amino"
	}
}

func alphaByName(tag string) (alphabet.Alphabet, error) {
	switch strings.ToLower(tag) {
	case "dna":
		return alphabet.DNA, nil
	case "rna":
		return alphabet.RNA, nil
	case "amino", "protein":
		return alphabet.Protein, nil
	default:
		return nil, fmt.Errorf("hmm: unknown alphabet tag %q: %w", tag, phmmerr.InvalidFormat)
	}
}
