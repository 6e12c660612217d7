package diagnosis

import (
	"encoding/json"
	"fmt"
)

func questionnaireJSON(questions, options int) string {
	qs := make([]map[string]any, 0, questions)
	for i := 1; i <= questions; i++ {
		opts := make([]map[string]any, 0, options)
		for j := 0; j < options; j++ {
			opts = append(opts, map[string]any{
				"id":   string(rune('a' + j)),
				"text": fmt.Sprintf("option %d%c", i, 'a'+j),
			})
		}
		qs = append(qs, map[string]any{
			"id":      fmt.Sprintf("q%d", i),
			"text":    fmt.Sprintf("question %d", i),
			"options": opts,
		})
	}
	return mustJSON(map[string]any{"questions": qs})
}

func diagnosisObject(p1, p2 any, urgency any) map[string]any {
	return map[string]any{
		"summary": "Likely viral upper respiratory infection.",
		"probableDiseases": []any{
			map[string]any{"name": "Common cold", "probability": p1, "rationale": "Rhinorrhea and sore throat."},
			map[string]any{"name": "Influenza", "probability": p2, "rationale": "Fever and myalgia."},
		},
		"recommendedSpecialists": []string{"General practitioner"},
		"medicalRecommendations": []string{"Rest", "Hydration"},
		"urgencyLevel":           urgency,
		"details":                "Symptoms started three days ago.",
	}
}

func diagnosisJSON(p1, p2 any, urgency any) string {
	return mustJSON(diagnosisObject(p1, p2, urgency))
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func jsonUnmarshal(raw string, v any) error {
	return json.Unmarshal([]byte(raw), v)
}
