package diagnosis

const (
	QuestionCount  = 10
	OptionCount    = 4
	CandidateCount = 2
	AnswerCount    = 10

	// MinSymptomsLength is counted in characters of the trimmed text.
	MinSymptomsLength = 10
)

type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// Questionnaire is the stage 1 output. It is never stored: the caller echoes
// the symptoms back together with its answers.
type Questionnaire struct {
	Questions []Question `json:"questions"`
}

type Answer struct {
	QuestionID string `json:"questionId"`
	AnswerID   string `json:"answerId"`
}

type Urgency string

const (
	UrgencyHigh     Urgency = "high"
	UrgencyModerate Urgency = "moderate"
	UrgencyLow      Urgency = "low"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyHigh, UrgencyModerate, UrgencyLow:
		return true
	}
	return false
}

type DiseaseCandidate struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	Rationale   string  `json:"rationale"`
}

// DiagnosisReport is the stage 2 output.
type DiagnosisReport struct {
	Summary                string             `json:"summary"`
	ProbableDiseases       []DiseaseCandidate `json:"probableDiseases"`
	RecommendedSpecialists []string           `json:"recommendedSpecialists"`
	MedicalRecommendations []string           `json:"medicalRecommendations"`
	UrgencyLevel           Urgency            `json:"urgencyLevel"`
	Details                string             `json:"details"`
}
