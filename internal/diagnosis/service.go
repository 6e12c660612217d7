package diagnosis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"diagnosis-agent/internal/agent"
	"diagnosis-agent/internal/medical"
)

// ContextBuilder assembles the medical context for a subject.
type ContextBuilder interface {
	Build(ctx context.Context, subjectID uuid.UUID) (medical.Snapshot, error)
}

// Case is what a Notifier receives for an urgent diagnosis.
type Case struct {
	SubjectID uuid.UUID
	Symptoms  string
	Report    DiagnosisReport
	CreatedAt time.Time
}

// Notifier is told about high-urgency reports after the response is produced.
type Notifier interface {
	NotifyUrgent(ctx context.Context, c Case) error
}

type Service interface {
	GenerateQuestionnaire(ctx context.Context, subjectID uuid.UUID, symptoms string) (Questionnaire, error)
	Diagnose(ctx context.Context, subjectID uuid.UUID, symptoms string, answers []Answer) (DiagnosisReport, error)
	// Drain waits for in-flight notifications, or until ctx is done.
	Drain(ctx context.Context) error
}

type Options struct {
	Questionnaire GenerationParams
	Diagnosis     GenerationParams
	// NotifyTimeout bounds the background notification.
	NotifyTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Questionnaire: DefaultQuestionnaireParams(),
		Diagnosis:     DefaultDiagnosisParams(),
		NotifyTimeout: 30 * time.Second,
	}
}

type service struct {
	builder   ContextBuilder
	generator agent.Generator
	notifier  Notifier
	opts      Options
	logger    *zap.Logger

	pending sync.WaitGroup
}

// NewService wires the pipeline. notifier may be nil.
func NewService(builder ContextBuilder, generator agent.Generator, notifier Notifier, opts Options, logger *zap.Logger) Service {
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 30 * time.Second
	}
	return &service{
		builder:   builder,
		generator: generator,
		notifier:  notifier,
		opts:      opts,
		logger:    logger,
	}
}

// GenerateQuestionnaire runs stage 1.
func (s *service) GenerateQuestionnaire(ctx context.Context, subjectID uuid.UUID, symptoms string) (Questionnaire, error) {
	if !validSymptoms(symptoms) {
		return Questionnaire{}, inputError("Please describe your symptoms accurately and completely (at least 10 characters).")
	}

	snapshot, err := s.builder.Build(ctx, subjectID)
	if err != nil {
		return Questionnaire{}, fmt.Errorf("build medical context: %w", err)
	}

	req := ComposeQuestionnaire(symptoms, snapshot, s.opts.Questionnaire)
	raw, err := s.generator.Generate(ctx, req)
	if err != nil {
		return Questionnaire{}, upstreamError(err)
	}

	q, err := ParseQuestionnaire(raw)
	if err != nil {
		s.logger.Warn("questionnaire rejected",
			zap.String("subject_id", subjectID.String()),
			zap.Error(err),
		)
		return Questionnaire{}, err
	}
	return q, nil
}

// Diagnose runs stage 2. Answers are not checked against any earlier
// questionnaire; only their count is enforced.
func (s *service) Diagnose(ctx context.Context, subjectID uuid.UUID, symptoms string, answers []Answer) (DiagnosisReport, error) {
	if !validSymptoms(symptoms) {
		return DiagnosisReport{}, inputError("The symptom information is invalid. Please start the process again.")
	}
	if len(answers) != AnswerCount {
		return DiagnosisReport{}, inputError("The submitted answers are invalid. Exactly 10 answers are required.")
	}

	snapshot, err := s.builder.Build(ctx, subjectID)
	if err != nil {
		return DiagnosisReport{}, fmt.Errorf("build medical context: %w", err)
	}

	req := ComposeDiagnosis(symptoms, answers, snapshot, s.opts.Diagnosis)
	raw, err := s.generator.Generate(ctx, req)
	if err != nil {
		return DiagnosisReport{}, upstreamError(err)
	}

	report, repairs, err := ParseDiagnosis(raw)
	if err != nil {
		s.logger.Warn("diagnosis rejected",
			zap.String("subject_id", subjectID.String()),
			zap.Error(err),
		)
		return DiagnosisReport{}, err
	}
	if repairs.Any() {
		s.logger.Debug("diagnosis repaired",
			zap.String("subject_id", subjectID.String()),
			zap.Bool("probabilities", repairs.Probabilities),
			zap.Bool("urgency", repairs.Urgency),
		)
	}

	if report.UrgencyLevel == UrgencyHigh && s.notifier != nil {
		c := Case{SubjectID: subjectID, Symptoms: symptoms, Report: report, CreatedAt: time.Now()}
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			s.notify(c)
		}()
	}

	return report, nil
}

// notify runs detached from the request so a slow notifier never delays or
// fails the response.
func (s *service) notify(c Case) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.NotifyTimeout)
	defer cancel()

	if err := s.notifier.NotifyUrgent(ctx, c); err != nil {
		s.logger.Error("failed to notify doctor",
			zap.String("subject_id", c.SubjectID.String()),
			zap.Error(err),
		)
	}
}

func (s *service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func validSymptoms(symptoms string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(symptoms)) >= MinSymptomsLength
}
