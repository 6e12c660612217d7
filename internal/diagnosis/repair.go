package diagnosis

import (
	"math"
	"slices"
)

// ProbabilityTolerance is how far the two probabilities may drift from 100
// before they are rescaled.
const ProbabilityTolerance = 5

// Repairs records which corrections RepairDiagnosis applied.
type Repairs struct {
	Probabilities bool
	Urgency       bool
}

func (r Repairs) Any() bool { return r.Probabilities || r.Urgency }

// RepairDiagnosis returns a corrected copy of report; the input is not modified.
func RepairDiagnosis(report DiagnosisReport) (DiagnosisReport, Repairs) {
	var repairs Repairs
	out := copyReport(report)

	out.ProbableDiseases, repairs.Probabilities = NormalizeProbabilities(out.ProbableDiseases)
	out.UrgencyLevel, repairs.Urgency = NormalizeUrgency(out.UrgencyLevel)

	return out, repairs
}

// NormalizeProbabilities rescales a pair of candidates whose probabilities sum
// more than ProbabilityTolerance away from 100. Pairs inside the band, and
// slices that are not pairs, come back unchanged.
func NormalizeProbabilities(candidates []DiseaseCandidate) ([]DiseaseCandidate, bool) {
	out := slices.Clone(candidates)
	if len(out) != CandidateCount {
		return out, false
	}

	p1, p2 := out[0].Probability, out[1].Probability
	sum := p1 + p2
	if sum <= 0 || math.Abs(sum-100) <= ProbabilityTolerance {
		return out, false
	}

	scaled := math.Round(p1 / sum * 100)
	out[0].Probability = scaled
	out[1].Probability = 100 - scaled
	return out, true
}

// NormalizeUrgency substitutes moderate for anything outside the enumeration.
func NormalizeUrgency(u Urgency) (Urgency, bool) {
	if u.Valid() {
		return u, false
	}
	return UrgencyModerate, true
}

func copyReport(r DiagnosisReport) DiagnosisReport {
	out := r
	out.ProbableDiseases = slices.Clone(r.ProbableDiseases)
	out.RecommendedSpecialists = slices.Clone(r.RecommendedSpecialists)
	out.MedicalRecommendations = slices.Clone(r.MedicalRecommendations)
	return out
}
