package diagnosis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diagnosis-agent/internal/medical"
)

func sampleSnapshot() medical.Snapshot {
	age := 42
	return medical.Snapshot{
		Age:        &age,
		Gender:     medical.GenderMale,
		Conditions: []string{"type 2 diabetes"},
	}
}

func TestComposeQuestionnaire(t *testing.T) {
	req := ComposeQuestionnaire("persistent headache for five days", sampleSnapshot(), DefaultQuestionnaireParams())

	assert.True(t, req.JSONObject)
	assert.Equal(t, "gpt-4o", req.Model)
	assert.Equal(t, 0.2, req.Temperature)
	assert.Equal(t, 2500, req.MaxTokens)
	assert.Nil(t, req.TopP)
	assert.Nil(t, req.FrequencyPenalty)
	assert.Nil(t, req.PresencePenalty)

	assert.Contains(t, req.SystemPrompt, "only output JSON")
	assert.Contains(t, req.UserPrompt, "10 multiple-choice questions with 4 options each")
	assert.Contains(t, req.UserPrompt, `"questions": [`)
	assert.Contains(t, req.UserPrompt, "- Age: 42")
	assert.Contains(t, req.UserPrompt, "- Blood type: unknown")
	assert.Contains(t, req.UserPrompt, "- Medical history: type 2 diabetes")
	assert.True(t, strings.HasSuffix(req.UserPrompt, "persistent headache for five days"))
}

func TestComposeDiagnosis(t *testing.T) {
	answers := []Answer{{QuestionID: "q1", AnswerID: "b"}, {QuestionID: "q2", AnswerID: "d"}}
	req := ComposeDiagnosis("chest pain when climbing stairs", answers, sampleSnapshot(), DefaultDiagnosisParams())

	assert.True(t, req.JSONObject)
	assert.Equal(t, 0.1, req.Temperature)
	assert.Equal(t, 3500, req.MaxTokens)
	require.NotNil(t, req.TopP)
	assert.Equal(t, 0.3, *req.TopP)
	require.NotNil(t, req.FrequencyPenalty)
	assert.Equal(t, 0.5, *req.FrequencyPenalty)
	require.NotNil(t, req.PresencePenalty)
	assert.Equal(t, 0.5, *req.PresencePenalty)

	assert.Contains(t, req.SystemPrompt, "add up to exactly 100")
	for _, field := range diagnosisFields {
		assert.Contains(t, req.UserPrompt, field)
	}
	assert.Contains(t, req.UserPrompt, "high, moderate, low")
	assert.Contains(t, req.UserPrompt, "chest pain when climbing stairs")
	assert.True(t, strings.HasSuffix(req.UserPrompt, "- question q1: b\n- question q2: d"))
}

func TestCompose_IsDeterministic(t *testing.T) {
	answers := []Answer{{QuestionID: "q1", AnswerID: "a"}}
	a := ComposeDiagnosis("short cough at night", answers, sampleSnapshot(), DefaultDiagnosisParams())
	b := ComposeDiagnosis("short cough at night", answers, sampleSnapshot(), DefaultDiagnosisParams())
	assert.Equal(t, a.SystemPrompt, b.SystemPrompt)
	assert.Equal(t, a.UserPrompt, b.UserPrompt)
}
