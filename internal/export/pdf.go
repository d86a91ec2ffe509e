// Package export renders generated proposals as downloadable documents.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/lancecerto/lancecerto/internal/domain"
)

// Generator renders a proposal into a document format.
type Generator interface {
	// Format returns the output format of this generator.
	Format() domain.ExportFormat

	// Generate renders the proposal and writes it to w, returning the number
	// of bytes written.
	Generate(ctx context.Context, job *domain.Job, w io.Writer) (int64, error)
}

// =============================================================================
// PDF Generator
// =============================================================================

// PDFGenerator renders proposals as PDF documents.
type PDFGenerator struct {
	// Page dimensions (A4 in mm)
	pageWidth  float64
	pageHeight float64
	margin     float64

	contentWidth float64
}

// NewPDFGenerator creates a new PDF generator with default settings.
func NewPDFGenerator() *PDFGenerator {
	margin := 20.0
	pageWidth := 210.0 // A4 width in mm
	return &PDFGenerator{
		pageWidth:    pageWidth,
		pageHeight:   297.0, // A4 height in mm
		margin:       margin,
		contentWidth: pageWidth - (2 * margin),
	}
}

// Format returns the output format of this generator.
func (g *PDFGenerator) Format() domain.ExportFormat {
	return domain.ExportFormatPDF
}

// Generate renders the proposal as a PDF and writes it to w.
func (g *PDFGenerator) Generate(ctx context.Context, job *domain.Job, w io.Writer) (int64, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(tr("Proposta Comercial"), true)
	pdf.SetCreator("LanceCerto", true)
	pdf.SetAutoPageBreak(true, 20)

	pdf.SetFooterFunc(func() {
		g.addFooter(pdf, tr, job)
	})

	pdf.AddPage()

	// Title
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(30, 41, 59)
	pdf.Cell(0, 10, tr("Proposta Comercial"))
	pdf.Ln(14)

	// Body: the generated proposal, one MultiCell per paragraph.
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(0, 0, 0)
	for _, paragraph := range splitParagraphs(job.GeneratedProposal) {
		pdf.MultiCell(g.contentWidth, 7, tr(paragraph), "", "L", false)
		pdf.Ln(4)
	}

	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("pdf generation error: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return 0, fmt.Errorf("pdf output error: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

func (g *PDFGenerator) addFooter(pdf *fpdf.Fpdf, tr func(string) string, job *domain.Job) {
	pdf.SetY(-15)
	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(g.margin, pdf.GetY()-3, g.pageWidth-g.margin, pdf.GetY()-3)

	pdf.SetTextColor(130, 130, 130)
	pdf.SetFont("Helvetica", "", 8)
	pdf.Cell(0, 10, tr("Gerado por LanceCerto em "+job.CreatedAt.Format("02/01/2006")))

	pdf.SetX(-g.margin - 30)
	pdf.CellFormat(30, 10, tr(fmt.Sprintf("Página %d", pdf.PageNo())), "", 0, "R", false, 0, "")
}

// splitParagraphs splits the proposal text on blank lines, trimming each
// paragraph and dropping empty ones.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		paragraphs = []string{""}
	}
	return paragraphs
}
