package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/signintech/gopdf"
	"go.uber.org/zap"

	"diagnosis-agent/internal/diagnosis"
)

type TelegramClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, data []byte, fileName string) error
}

// Service forwards urgent diagnoses to the doctor on duty.
type Service struct {
	tgClient     TelegramClient
	doctorChatID int64
	fontPaths    []string
	logger       *zap.Logger
}

func NewService(tg TelegramClient, doctorChatID int64, fontPaths []string, logger *zap.Logger) *Service {
	return &Service{
		tgClient:     tg,
		doctorChatID: doctorChatID,
		fontPaths:    fontPaths,
		logger:       logger,
	}
}

// NotifyUrgent sends a text summary and, when a font is available, a PDF copy.
func (s *Service) NotifyUrgent(ctx context.Context, c diagnosis.Case) error {
	if err := s.tgClient.SendMessage(ctx, s.doctorChatID, Summary(c)); err != nil {
		return fmt.Errorf("send summary: %w", err)
	}

	pdf, err := s.RenderPDF(c)
	if err != nil {
		s.logger.Warn("skipping PDF report", zap.String("subject_id", c.SubjectID.String()), zap.Error(err))
		return nil
	}

	fileName := fmt.Sprintf("report_%s_%s.pdf", c.SubjectID, c.CreatedAt.Format("20060102T150405"))
	if err := s.tgClient.SendDocument(ctx, s.doctorChatID, pdf, fileName); err != nil {
		return fmt.Errorf("send PDF report: %w", err)
	}
	s.logger.Info("urgent report sent", zap.String("subject_id", c.SubjectID.String()), zap.Int64("chat_id", s.doctorChatID))
	return nil
}

// Summary renders the plain-text message sent to the doctor.
func Summary(c diagnosis.Case) string {
	r := c.Report
	var b strings.Builder
	fmt.Fprintf(&b, "URGENT: high urgency diagnosis\n")
	fmt.Fprintf(&b, "Patient: %s\n", c.SubjectID)
	fmt.Fprintf(&b, "Date: %s\n\n", c.CreatedAt.Format("02.01.2006 15:04"))
	fmt.Fprintf(&b, "Symptoms: %s\n\n", c.Symptoms)
	fmt.Fprintf(&b, "Summary: %s\n\n", r.Summary)
	b.WriteString("Probable diseases:\n")
	for _, d := range r.ProbableDiseases {
		fmt.Fprintf(&b, "- %s (%g%%)\n", d.Name, d.Probability)
	}
	if len(r.RecommendedSpecialists) > 0 {
		fmt.Fprintf(&b, "\nSpecialists: %s\n", strings.Join(r.RecommendedSpecialists, ", "))
	}
	return b.String()
}

const (
	fontFamily = "DejaVu"
	textWidth  = 500
	pageBottom = 780
)

// RenderPDF builds the PDF report. It fails when none of the configured fonts
// can be loaded.
func (s *Service) RenderPDF(c diagnosis.Case) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	var fontErr error
	fontLoaded := false
	for _, path := range s.fontPaths {
		if err := pdf.AddTTFFont(fontFamily, path); err != nil {
			fontErr = err
			continue
		}
		fontLoaded = true
		break
	}
	if !fontLoaded {
		return nil, fmt.Errorf("failed to load font for PDF, last error: %v", fontErr)
	}

	w := &pdfWriter{pdf: &pdf}
	w.heading(20, "Medical report (urgent)")
	w.pdf.Br(10)

	w.line(12, fmt.Sprintf("Date: %s", c.CreatedAt.Format("02.01.2006 15:04")))
	w.line(12, fmt.Sprintf("Patient ID: %s", c.SubjectID))
	w.line(12, fmt.Sprintf("Urgency: %s", c.Report.UrgencyLevel))
	w.pdf.Br(10)

	w.section("Symptoms", c.Symptoms)
	w.section("Summary", c.Report.Summary)

	w.heading(14, "Probable diseases")
	for _, d := range c.Report.ProbableDiseases {
		w.paragraph(fmt.Sprintf("- %s (%g%%): %s", d.Name, d.Probability, d.Rationale))
	}
	w.pdf.Br(10)

	w.list("Recommended specialists", c.Report.RecommendedSpecialists)
	w.list("Medical recommendations", c.Report.MedicalRecommendations)
	w.section("Details", c.Report.Details)

	if w.err != nil {
		return nil, w.err
	}
	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// pdfWriter keeps the first error so layout code reads top to bottom.
type pdfWriter struct {
	pdf *gopdf.GoPdf
	err error
}

func (w *pdfWriter) setFont(size int) {
	if w.err == nil {
		w.err = w.pdf.SetFont(fontFamily, "", size)
	}
}

func (w *pdfWriter) cell(text string, lineHeight float64) {
	if w.err != nil {
		return
	}
	if w.pdf.GetY() > pageBottom {
		w.pdf.AddPage()
	}
	w.err = w.pdf.Cell(nil, text)
	w.pdf.Br(lineHeight)
}

func (w *pdfWriter) heading(size int, text string) {
	w.setFont(size)
	w.cell(text, float64(size)+4)
}

func (w *pdfWriter) line(size int, text string) {
	w.setFont(size)
	w.cell(text, 15)
}

func (w *pdfWriter) paragraph(text string) {
	w.setFont(11)
	if w.err != nil || strings.TrimSpace(text) == "" {
		return
	}
	lines, err := w.pdf.SplitText(text, textWidth)
	if err != nil {
		lines = []string{text}
	}
	for _, l := range lines {
		w.cell(l, 13)
	}
}

func (w *pdfWriter) section(title, body string) {
	w.heading(14, title)
	w.paragraph(body)
	w.pdf.Br(10)
}

func (w *pdfWriter) list(title string, items []string) {
	w.heading(14, title)
	for _, item := range items {
		w.paragraph("- " + item)
	}
	w.pdf.Br(10)
}
