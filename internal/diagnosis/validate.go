package diagnosis

import (
	"bytes"
	"encoding/json"
	"strconv"
)

var diagnosisFields = []string{
	"summary",
	"probableDiseases",
	"recommendedSpecialists",
	"medicalRecommendations",
	"urgencyLevel",
	"details",
}

// decodeObject parses raw generated text as exactly one JSON object.
func decodeObject(raw string, msg string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, malformedError(msg, err)
	}
	if obj == nil {
		// a bare null decodes without error
		return nil, malformedError(msg, nil)
	}
	return obj, nil
}

// ParseQuestionnaire validates stage 1 output. No repair is attempted: any
// deviation from 10 questions of 4 well-formed options is rejected.
func ParseQuestionnaire(raw string) (Questionnaire, error) {
	obj, err := decodeObject(raw, "The AI response could not be processed.")
	if err != nil {
		return Questionnaire{}, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(obj["questions"], &items); err != nil || len(items) != QuestionCount {
		return Questionnaire{}, schemaError("The AI response is not valid.")
	}

	invalid := schemaError("The question structure is invalid.")
	questions := make([]Question, 0, QuestionCount)
	for _, item := range items {
		q, ok := entryFields(item)
		if !ok {
			return Questionnaire{}, invalid
		}
		id, ok1 := nonEmptyString(q["id"])
		text, ok2 := nonEmptyString(q["text"])
		var rawOptions []json.RawMessage
		if err := json.Unmarshal(q["options"], &rawOptions); err != nil {
			return Questionnaire{}, invalid
		}
		if !ok1 || !ok2 || len(rawOptions) != OptionCount {
			return Questionnaire{}, invalid
		}

		options := make([]Option, 0, OptionCount)
		for _, rawOpt := range rawOptions {
			o, ok := entryFields(rawOpt)
			if !ok {
				return Questionnaire{}, invalid
			}
			optID, ok1 := nonEmptyString(o["id"])
			optText, ok2 := nonEmptyString(o["text"])
			if !ok1 || !ok2 {
				return Questionnaire{}, invalid
			}
			options = append(options, Option{ID: optID, Text: optText})
		}
		questions = append(questions, Question{ID: id, Text: text, Options: options})
	}

	return Questionnaire{Questions: questions}, nil
}

// ParseDiagnosis validates stage 2 output and applies the permitted repairs.
func ParseDiagnosis(raw string) (DiagnosisReport, Repairs, error) {
	report, err := decodeDiagnosis(raw)
	if err != nil {
		return DiagnosisReport{}, Repairs{}, err
	}
	if err := checkProbabilityRange(report.ProbableDiseases); err != nil {
		return DiagnosisReport{}, Repairs{}, err
	}
	repaired, repairs := RepairDiagnosis(report)
	return repaired, repairs, nil
}

// decodeDiagnosis performs the structural checks only. The urgency value is
// carried over verbatim (non-strings become empty) for RepairDiagnosis.
func decodeDiagnosis(raw string) (DiagnosisReport, error) {
	obj, err := decodeObject(raw, "The AI response could not be processed. The JSON structure is invalid.")
	if err != nil {
		return DiagnosisReport{}, err
	}

	for _, field := range diagnosisFields {
		if _, ok := obj[field]; !ok {
			return DiagnosisReport{}, schemaError("The AI response structure is invalid. Required fields are missing.")
		}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(obj["probableDiseases"], &items); err != nil || len(items) != CandidateCount {
		return DiagnosisReport{}, schemaError("The probable diseases structure is invalid. Exactly two diseases are required.")
	}

	candidates := make([]DiseaseCandidate, 0, CandidateCount)
	for _, item := range items {
		c, ok := entryFields(item)
		if !ok {
			return DiagnosisReport{}, schemaError("The probable diseases structure is invalid.")
		}
		name, ok1 := optionalString(c["name"])
		rationale, ok2 := optionalString(c["rationale"])
		if !ok1 || !ok2 {
			return DiagnosisReport{}, schemaError("The probable diseases structure is invalid.")
		}
		p, ok := jsonNumber(c["probability"])
		if !ok {
			return DiagnosisReport{}, schemaError("Probability values must be numbers.")
		}
		candidates = append(candidates, DiseaseCandidate{Name: name, Probability: p, Rationale: rationale})
	}

	report := DiagnosisReport{ProbableDiseases: candidates}
	fields := []struct {
		key string
		dst any
	}{
		{"summary", &report.Summary},
		{"recommendedSpecialists", &report.RecommendedSpecialists},
		{"medicalRecommendations", &report.MedicalRecommendations},
		{"details", &report.Details},
	}
	for _, f := range fields {
		if err := json.Unmarshal(obj[f.key], f.dst); err != nil {
			return DiagnosisReport{}, schemaError("The AI response structure is invalid. Field " + f.key + " has the wrong type.")
		}
	}

	var urgency string
	if err := json.Unmarshal(obj["urgencyLevel"], &urgency); err == nil {
		report.UrgencyLevel = Urgency(urgency)
	}

	return report, nil
}

func checkProbabilityRange(candidates []DiseaseCandidate) error {
	for _, c := range candidates {
		if c.Probability < 1 || c.Probability > 100 {
			return schemaError("Probability values must be between 1 and 100.")
		}
	}
	return nil
}

// entryFields decodes one array entry as a JSON object keyed by exact field
// name. encoding/json struct tags match case-insensitively, so "ID" would
// otherwise stand in for "id".
func entryFields(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// optionalString accepts an absent key, null, or a JSON string.
func optionalString(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 {
		return "", true
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// nonEmptyString accepts only a JSON string with at least one character.
func nonEmptyString(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

// jsonNumber accepts only a JSON number literal; quoted numbers and null are
// not numbers.
func jsonNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return 0, false
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
