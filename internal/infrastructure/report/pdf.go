package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// PDFExporter writes a single A4 page: a title cell, then one
// "key: value" cell per field.
type PDFExporter struct{}

func (PDFExporter) Extension() string { return "pdf" }

func (PDFExporter) Export(w io.Writer, data *Data) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Report", true)
	doc.SetCreator("achievement-hub", true)
	doc.AddPage()

	// Core fonts are cp1252; names like "João" need translating.
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetFont("Arial", "B", 16)
	doc.Cell(40, 10, "Report")
	doc.Ln(12)

	doc.SetFont("Arial", "", 12)
	for _, f := range data.Fields() {
		doc.Cell(0, 8, tr(fmt.Sprintf("%s: %s", f.Key, formatValue(f.Value))))
		doc.Ln(8)
	}

	return doc.Output(w)
}
