package diagnosis

import (
	"fmt"
	"strings"

	"diagnosis-agent/internal/agent"
	"diagnosis-agent/internal/medical"
)

// GenerationParams are the decoding settings used for one stage.
type GenerationParams struct {
	Model            string
	Temperature      float64
	MaxTokens        int
	TopP             *float64
	FrequencyPenalty *float64
	PresencePenalty  *float64
}

func DefaultQuestionnaireParams() GenerationParams {
	return GenerationParams{Model: "gpt-4o", Temperature: 0.2, MaxTokens: 2500}
}

func DefaultDiagnosisParams() GenerationParams {
	topP, freq, pres := 0.3, 0.5, 0.5
	return GenerationParams{
		Model:            "gpt-4o",
		Temperature:      0.1,
		MaxTokens:        3500,
		TopP:             &topP,
		FrequencyPenalty: &freq,
		PresencePenalty:  &pres,
	}
}

const questionnaireSystemPrompt = "You only output JSON. Any explanatory text is forbidden."

const diagnosisSystemPrompt = "You only output JSON. Any explanatory text is forbidden. " +
	"The output structure must match the example exactly. " +
	"The probabilities of the two diseases must add up to exactly 100."

const questionnaireInstructions = `You are an intelligent medical assistant. Based on the user's medical information and reported symptoms, create a precise questionnaire of 10 multiple-choice questions with 4 options each.

### Important rules:
1. The questions must be directly related to the user's symptoms and medical conditions
2. Every question must have exactly 4 precise, specialised options
3. Use accurate medical terminology
4. The questions must help narrow down the diagnosis
5. The questions must be specialised and sufficiently detailed
6. The options must cover the full range of possibilities
7. The output must be a single JSON object only
8. There must be exactly 10 questions

### Required output structure:
{
  "questions": [
    {
      "id": "q1",
      "text": "Full text of the first question",
      "options": [
        {"id": "a", "text": "Option a (precise and specialised)"},
        {"id": "b", "text": "Option b (precise and specialised)"},
        {"id": "c", "text": "Option c (precise and specialised)"},
        {"id": "d", "text": "Option d (precise and specialised)"}
      ]
    }
  ]
}
(The example shows one question; the output must contain 10 questions with ids q1 to q10.)`

const diagnosisInstructions = `You are a specialist physician with 20 years of experience. Based on the patient's medical information, the reported symptoms and the answers to the questionnaire, provide a comprehensive and precise medical analysis.

### Analysis rules (mandatory):
1. Name exactly two probable diseases with a probability percentage each (the two probabilities must add up to exactly 100)
2. Justify each disease with scientific reasons related to the patient's information
3. List the medical specialties needed for follow-up
4. Write a professional summary to present to a physician
5. Give precise diagnostic and treatment recommendations
6. State the urgency of the situation as exactly one of: high, moderate, low
7. The output must be a single JSON object only
8. Use the patient's medical information and answers carefully
9. Use precise medical terminology
10. All of these fields are required: summary, probableDiseases, recommendedSpecialists, medicalRecommendations, urgencyLevel, details

### Required output structure (mandatory):
{
  "summary": "Summary of the patient's condition for a physician",
  "probableDiseases": [
    {
      "name": "First disease",
      "probability": 75,
      "rationale": "Scientific reasons this disease is likely given the patient's information"
    },
    {
      "name": "Second disease",
      "probability": 25,
      "rationale": "Scientific reasons this disease is likely given the patient's information"
    }
  ],
  "recommendedSpecialists": ["Cardiologist", "Gastroenterologist"],
  "medicalRecommendations": [
    "CBC blood test",
    "Abdominal ultrasound"
  ],
  "urgencyLevel": "moderate",
  "details": "Detailed specialist explanation of the diagnosis"
}
(probability is an integer between 1 and 100; urgencyLevel is one of high, moderate, low.)`

// ComposeQuestionnaire builds the stage 1 generation request.
func ComposeQuestionnaire(symptoms string, snapshot medical.Snapshot, p GenerationParams) agent.Request {
	var b strings.Builder
	b.WriteString(questionnaireInstructions)
	b.WriteString("\n\n### User medical information:\n")
	b.WriteString(snapshot.Render())
	b.WriteString("\n\n### Symptoms reported by the user:\n")
	b.WriteString(symptoms)

	return newRequest(questionnaireSystemPrompt, b.String(), p)
}

// ComposeDiagnosis builds the stage 2 generation request.
func ComposeDiagnosis(symptoms string, answers []Answer, snapshot medical.Snapshot, p GenerationParams) agent.Request {
	var b strings.Builder
	b.WriteString(diagnosisInstructions)
	b.WriteString("\n\n### Patient information:\n")
	b.WriteString(snapshot.Render())
	b.WriteString("\n\n### Main symptoms reported by the patient:\n")
	b.WriteString(symptoms)
	b.WriteString("\n\n### Patient answers to the questionnaire:\n")
	b.WriteString(renderAnswers(answers))

	return newRequest(diagnosisSystemPrompt, b.String(), p)
}

func renderAnswers(answers []Answer) string {
	lines := make([]string, 0, len(answers))
	for _, a := range answers {
		lines = append(lines, fmt.Sprintf("- question %s: %s", a.QuestionID, a.AnswerID))
	}
	return strings.Join(lines, "\n")
}

func newRequest(system, user string, p GenerationParams) agent.Request {
	return agent.Request{
		Model:            p.Model,
		SystemPrompt:     system,
		UserPrompt:       user,
		JSONObject:       true,
		Temperature:      p.Temperature,
		MaxTokens:        p.MaxTokens,
		TopP:             p.TopP,
		FrequencyPenalty: p.FrequencyPenalty,
		PresencePenalty:  p.PresencePenalty,
	}
}
