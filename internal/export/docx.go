package export

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/unidoc/unioffice/color"
	"github.com/unidoc/unioffice/document"
	"github.com/unidoc/unioffice/measurement"

	"github.com/lancecerto/lancecerto/internal/domain"
)

// =============================================================================
// DOCX Generator
// =============================================================================

// DOCXGenerator renders proposals as DOCX documents.
type DOCXGenerator struct{}

// NewDOCXGenerator creates a new DOCX generator.
func NewDOCXGenerator() *DOCXGenerator {
	return &DOCXGenerator{}
}

// Format returns the output format of this generator.
func (g *DOCXGenerator) Format() domain.ExportFormat {
	return domain.ExportFormatDOCX
}

// Generate renders the proposal as a DOCX and writes it to w.
func (g *DOCXGenerator) Generate(ctx context.Context, job *domain.Job, w io.Writer) (int64, error) {
	doc := document.New()
	defer doc.Close()

	props := doc.CoreProperties
	props.SetTitle("Proposta Comercial")

	// Title
	title := doc.AddParagraph()
	titleRun := title.AddRun()
	titleRun.Properties().SetBold(true)
	titleRun.Properties().SetSize(18 * measurement.Point)
	titleRun.Properties().SetColor(color.RGB(30, 41, 59))
	titleRun.AddText("Proposta Comercial")
	title.Properties().SetSpacing(0, 14*measurement.Point)

	// Body: one paragraph per blank-line-separated block.
	for _, paragraph := range splitParagraphs(job.GeneratedProposal) {
		para := doc.AddParagraph()
		para.Properties().SetSpacing(0, 8*measurement.Point)
		run := para.AddRun()
		run.Properties().SetSize(12 * measurement.Point)
		run.AddText(paragraph)
	}

	// Footer line
	footer := doc.AddParagraph()
	footer.Properties().SetSpacing(16*measurement.Point, 0)
	footerRun := footer.AddRun()
	footerRun.Properties().SetSize(8 * measurement.Point)
	footerRun.Properties().SetColor(color.Gray)
	footerRun.AddText("Gerado por LanceCerto em " + job.CreatedAt.Format("02/01/2006"))

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return 0, fmt.Errorf("docx save error: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}
