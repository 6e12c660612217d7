package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"diagnosis-agent/internal/diagnosis"
)

type sentDocument struct {
	chatID   int64
	data     []byte
	fileName string
}

type fakeTelegram struct {
	messages  []string
	documents []sentDocument
	msgErr    error
}

func (f *fakeTelegram) SendMessage(ctx context.Context, chatID int64, text string) error {
	if f.msgErr != nil {
		return f.msgErr
	}
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeTelegram) SendDocument(ctx context.Context, chatID int64, data []byte, fileName string) error {
	f.documents = append(f.documents, sentDocument{chatID: chatID, data: data, fileName: fileName})
	return nil
}

func urgentCase() diagnosis.Case {
	return diagnosis.Case{
		SubjectID: uuid.MustParse("6f1c2f1e-7c55-4b8e-9d6a-0c8f7f6f2b11"),
		Symptoms:  "crushing chest pain radiating to the left arm",
		CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Report: diagnosis.DiagnosisReport{
			Summary: "Suspected acute coronary syndrome.",
			ProbableDiseases: []diagnosis.DiseaseCandidate{
				{Name: "Myocardial infarction", Probability: 70, Rationale: "Typical radiation pattern."},
				{Name: "Unstable angina", Probability: 30, Rationale: "Exertional onset."},
			},
			RecommendedSpecialists: []string{"Cardiologist", "Emergency physician"},
			MedicalRecommendations: []string{"ECG", "Troponin"},
			UrgencyLevel:           diagnosis.UrgencyHigh,
			Details:                "Immediate evaluation required.",
		},
	}
}

func TestSummary(t *testing.T) {
	s := Summary(urgentCase())
	assert.Contains(t, s, "URGENT")
	assert.Contains(t, s, "6f1c2f1e-7c55-4b8e-9d6a-0c8f7f6f2b11")
	assert.Contains(t, s, "14.03.2026 09:30")
	assert.Contains(t, s, "- Myocardial infarction (70%)")
	assert.Contains(t, s, "- Unstable angina (30%)")
	assert.Contains(t, s, "Specialists: Cardiologist, Emergency physician")
}

func TestNotifyUrgent_WithoutFontSendsTextOnly(t *testing.T) {
	tg := &fakeTelegram{}
	svc := NewService(tg, 99, []string{"/nonexistent/font.ttf"}, zap.NewNop())

	require.NoError(t, svc.NotifyUrgent(context.Background(), urgentCase()))
	require.Len(t, tg.messages, 1)
	assert.Contains(t, tg.messages[0], "Suspected acute coronary syndrome.")
	assert.Empty(t, tg.documents)
}

func TestNotifyUrgent_MessageFailure(t *testing.T) {
	tg := &fakeTelegram{msgErr: errors.New("chat not found")}
	svc := NewService(tg, 99, nil, zap.NewNop())

	err := svc.NotifyUrgent(context.Background(), urgentCase())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
	assert.Empty(t, tg.documents)
}

func TestNotifyUrgent_SendsPDF(t *testing.T) {
	fonts := []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	}
	found := false
	for _, f := range fonts {
		if _, err := os.Stat(f); err == nil {
			found = true
			break
		}
	}
	if !found {
		t.Skip("DejaVuSans.ttf not installed")
	}

	tg := &fakeTelegram{}
	svc := NewService(tg, 99, fonts, zap.NewNop())

	require.NoError(t, svc.NotifyUrgent(context.Background(), urgentCase()))
	require.Len(t, tg.documents, 1)
	doc := tg.documents[0]
	assert.Equal(t, int64(99), doc.chatID)
	assert.Equal(t, "report_6f1c2f1e-7c55-4b8e-9d6a-0c8f7f6f2b11_20260314T093000.pdf", doc.fileName)
	assert.True(t, bytes.HasPrefix(doc.data, []byte("%PDF")))
}
