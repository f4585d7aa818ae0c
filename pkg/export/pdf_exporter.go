package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth    = 277.0
	pdfLineHeight   = 5.0
	pdfBottomMargin = 12.0
)

// PDFExporter renders datasets as stacked tables on landscape A4 pages.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF with a document title and one table per dataset.
// Multi-line cell values are wrapped inside their cell.
func (e *PDFExporter) Render(title string, datasets ...Dataset) ([]byte, error) {
	if len(datasets) == 0 {
		return nil, fmt.Errorf("pdf requires at least one dataset")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(false, pdfBottomMargin)
	pdf.AddPage()
	translate := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, translate(strings.ToUpper(title)), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	for i, data := range datasets {
		if len(data.Headers) == 0 {
			return nil, fmt.Errorf("pdf dataset %d has no headers", i)
		}
		if data.Title != "" {
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 8, translate(data.Title), "", 1, "L", false, 0, "")
		}
		colWidth := pdfPageWidth / float64(len(data.Headers))

		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, translate(header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 8)
		for _, row := range data.Rows {
			writeWrappedRow(pdf, translate, row, colWidth)
		}
		pdf.Ln(4)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeWrappedRow(pdf *gofpdf.Fpdf, translate func(string) string, row []string, colWidth float64) {
	lines := 1
	split := make([][]string, len(row))
	for i, value := range row {
		split[i] = pdf.SplitText(translate(value), colWidth-2)
		lines = max(lines, len(split[i]))
	}
	height := float64(lines) * pdfLineHeight

	x, y := pdf.GetXY()
	_, pageHeight := pdf.GetPageSize()
	if y+height > pageHeight-pdfBottomMargin {
		pdf.AddPage()
		x, y = pdf.GetXY()
	}
	for i, parts := range split {
		pdf.Rect(x+float64(i)*colWidth, y, colWidth, height, "D")
		for j, part := range parts {
			pdf.SetXY(x+float64(i)*colWidth+1, y+float64(j)*pdfLineHeight)
			pdf.CellFormat(colWidth-2, pdfLineHeight, part, "", 0, "L", false, 0, "")
		}
	}
	pdf.SetXY(x, y+height)
}
