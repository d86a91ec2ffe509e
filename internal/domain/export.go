package domain

// ExportFormat identifies a proposal export document format.
type ExportFormat string

const (
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatDOCX ExportFormat = "docx"
)

// Valid checks if the format is supported.
func (f ExportFormat) Valid() bool {
	return f == ExportFormatPDF || f == ExportFormatDOCX
}

// ContentType returns the MIME type for the format.
func (f ExportFormat) ContentType() string {
	if f == ExportFormatDOCX {
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/pdf"
}

// Filename returns the attachment filename for the format.
func (f ExportFormat) Filename() string {
	return "proposta." + string(f)
}
