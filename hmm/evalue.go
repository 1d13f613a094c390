package hmm

import "gonum.org/v1/gonum/stat/distuv"

// MSVPvalue returns P(MSV score >= score) under the fitted Gumbel
// extreme-value distribution of MSV scores against random sequence.
func (e EvalueParameters) MSVPvalue(score float64) float64 {
	if e.FLambda <= 0 {
		return 1
	}
	return distuv.Gumbel{Mu: e.FTau, Beta: 1 / e.FLambda}.Survival(score)
}

// ViterbiPvalue returns P(Viterbi score >= score) under the fitted
// Gumbel extreme-value distribution of Viterbi scores against random
// sequence.
func (e EvalueParameters) ViterbiPvalue(score float64) float64 {
	if e.VLambda <= 0 {
		return 1
	}
	return distuv.Gumbel{Mu: e.VMu, Beta: 1 / e.VLambda}.Survival(score)
}

// ForwardPvalue returns P(Forward score >= score) under the fitted
// exponential tail of Forward scores above the censoring threshold
// MMu: scores below MMu are treated as certain (P=1), since the tail
// fit says nothing about the bulk of the distribution.
func (e EvalueParameters) ForwardPvalue(score float64) float64 {
	if score < e.MMu || e.MLambda <= 0 {
		return 1
	}
	return distuv.Exponential{Rate: e.MLambda}.Survival(score - e.MMu)
}
