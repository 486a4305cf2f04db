package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/nao1215/pcaplens/internal/model"
)

// Cell background colors for each severity level. Light tints keep the
// table readable while letting severity stand out at a glance.
var severityFillColors = map[model.Severity][3]int{
	model.SeverityHigh:    {255, 224, 224},
	model.SeverityMedium:  {255, 236, 204},
	model.SeverityLow:     {224, 242, 224},
	model.SeverityUnknown: {242, 242, 242},
}

// PDFWriter outputs reports in PDF format.
// This format is designed for sharing with stakeholders who expect a
// polished document rather than terminal output.
//
// Design decision: We use go-pdf/fpdf because it generates PDFs without
// external tooling and its cell-based API maps naturally onto the
// tabular indicator layout this report needs.
type PDFWriter struct {
	baseWriter

	// font is the font family used throughout the document.
	font string
}

// PDFWriterOption configures a PDFWriter.
type PDFWriterOption func(*PDFWriter)

// WithFont sets the font family for the PDF document.
func WithFont(font string) PDFWriterOption {
	return func(w *PDFWriter) {
		w.font = font
	}
}

// NewPDFWriter creates a PDFWriter that outputs to the given writer.
func NewPDFWriter(output io.Writer, opts ...PDFWriterOption) *PDFWriter {
	w := &PDFWriter{
		baseWriter: newBaseWriter(output),
		font:       "Arial",
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

const (
	pdfFontSize   = 11.0
	pdfLineHeight = 7.0
	pdfMargin     = 15.0
)

// Write renders the report as a PDF document and writes it to the output.
func (w *PDFWriter) Write(report *model.Report) (int, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(w.font, "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})
	pdf.AddPage()

	w.writeTitle(pdf)
	w.writeMetadata(pdf, report)
	w.writeAnalysis(pdf, report)
	w.writeIndicators(pdf, report)

	counter := &countingWriter{inner: w.output}
	if err := pdf.Output(counter); err != nil {
		return counter.n, fmt.Errorf("%w: %w", ErrReportRender, err)
	}
	return counter.n, nil
}

// writeTitle writes the centered report title.
func (w *PDFWriter) writeTitle(pdf *fpdf.Fpdf) {
	pdf.SetFont(w.font, "B", 20)
	pdf.CellFormat(0, 10, "Cyber Threat Analysis Report", "", 1, "C", false, 0, "")
	pdf.Ln(10)
}

// writeSectionHeading writes a bold heading with an underline.
func (w *PDFWriter) writeSectionHeading(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont(w.font, "B", 14)
	pdf.CellFormat(0, pdfLineHeight, title, "", 1, "L", false, 0, "")
	pdf.Ln(1)
	x, y := pdf.GetX(), pdf.GetY()
	pdf.Line(x, y, x+180, y)
	pdf.Ln(4)
}

// writeMetadata writes the analysis overview block.
func (w *PDFWriter) writeMetadata(pdf *fpdf.Fpdf, report *model.Report) {
	w.writeSectionHeading(pdf, "Analysis Overview")

	meta := []struct {
		key   string
		value string
	}{
		{"File Analyzed", filepath.Base(report.InputFile)},
		{"File Type", string(report.Kind)},
		{"File Size", strconv.FormatInt(report.SizeBytes, 10) + " bytes"},
		{"Analysis Date", report.DateAnalyzed.Format("2006-01-02 15:04:05")},
	}
	if report.Digest != "" {
		meta = append(meta, struct {
			key   string
			value string
		}{"SHA3-256", report.Digest})
	}

	for _, m := range meta {
		pdf.SetFont(w.font, "B", pdfFontSize)
		pdf.CellFormat(40, pdfLineHeight, m.key+":", "", 0, "L", false, 0, "")
		pdf.SetFont(w.font, "", pdfFontSize)
		pdf.CellFormat(0, pdfLineHeight, sanitizeLatin1(m.value), "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)
}

// writeAnalysis writes the AI analysis sections with simple structure
// detection for headings and bullet points.
func (w *PDFWriter) writeAnalysis(pdf *fpdf.Fpdf, report *model.Report) {
	if report.Analysis == nil {
		return
	}

	w.writeSectionHeading(pdf, "Executive Summary (AI Analysis)")
	pdf.SetFont(w.font, "", pdfFontSize)

	for _, section := range report.Analysis.Sections {
		pdf.Ln(2)
		pdf.SetFont(w.font, "B", pdfFontSize)
		pdf.CellFormat(0, pdfLineHeight, sanitizeLatin1(section.Label), "", 1, "L", false, 0, "")
		pdf.SetFont(w.font, "", pdfFontSize)

		for line := range strings.Lines(section.Body) {
			safe := sanitizeLatin1(strings.TrimRight(line, "\n"))
			trimmed := strings.TrimSpace(safe)

			switch {
			case strings.HasPrefix(trimmed, "* ") || strings.HasPrefix(trimmed, "- "):
				pdf.Ln(2)
				pdf.CellFormat(5, pdfLineHeight, "", "", 0, "L", false, 0, "")
				pdf.MultiCell(0, pdfLineHeight, "- "+trimmed[2:], "", "L", false)
			case strings.HasSuffix(trimmed, ":") && len(trimmed) < 80 && trimmed != "":
				pdf.Ln(4)
				pdf.SetFont(w.font, "B", pdfFontSize)
				pdf.CellFormat(0, pdfLineHeight, trimmed, "", 1, "L", false, 0, "")
				pdf.SetFont(w.font, "", pdfFontSize)
			case trimmed != "":
				pdf.MultiCell(0, pdfLineHeight, safe, "", "L", false)
			}
		}
	}
	pdf.Ln(8)
}

// Column widths for the indicator table, in millimeters.
var pdfColWidths = [4]float64{30, 100, 25, 25}

// writeIndicators writes the severity-grouped, color-coded indicator table.
func (w *PDFWriter) writeIndicators(pdf *fpdf.Fpdf, report *model.Report) {
	w.writeSectionHeading(pdf, "Threat Indicators Found")

	if !report.HasIndicators() {
		pdf.SetFont(w.font, "", pdfFontSize)
		pdf.CellFormat(0, 10, "No threat indicators were extracted from the file.", "", 1, "L", false, 0, "")
		pdf.Ln(10)
		return
	}

	w.drawTableHeader(pdf)
	pdf.SetFont(w.font, "", pdfFontSize-1)

	for _, severity := range severityOrder {
		indicators := report.IndicatorsBySeverity(severity)
		if len(indicators) == 0 {
			continue
		}

		fill := severityFillColors[severity]
		pdf.SetFillColor(fill[0], fill[1], fill[2])

		for _, ind := range indicators {
			_, pageBreakTrigger := pdf.GetPageSize()
			if pdf.GetY()+pdfLineHeight > pageBreakTrigger-pdfMargin {
				pdf.AddPage()
				w.drawTableHeader(pdf)
				pdf.SetFont(w.font, "", pdfFontSize-1)
				pdf.SetFillColor(fill[0], fill[1], fill[2])
			}

			pdf.CellFormat(pdfColWidths[0], pdfLineHeight, sanitizeLatin1(capitalize(string(ind.Type))), "LR", 0, "C", true, 0, "")
			pdf.CellFormat(pdfColWidths[1], pdfLineHeight, sanitizeLatin1(ind.Value), "LR", 0, "L", true, 0, "")
			pdf.CellFormat(pdfColWidths[2], pdfLineHeight, strconv.Itoa(ind.Score), "LR", 0, "C", true, 0, "")
			pdf.CellFormat(pdfColWidths[3], pdfLineHeight, capitalize(strings.ToLower(ind.SeverityText)), "LR", 1, "C", true, 0, "")
		}
	}

	total := pdfColWidths[0] + pdfColWidths[1] + pdfColWidths[2] + pdfColWidths[3]
	pdf.CellFormat(total, 0, "", "T", 1, "L", false, 0, "")
	pdf.Ln(10)
}

// drawTableHeader draws the bold header row of the indicator table.
func (w *PDFWriter) drawTableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont(w.font, "B", pdfFontSize)
	pdf.SetFillColor(230, 230, 230)

	headers := [4]string{"Type", "Indicator", "Score", "Level"}
	for i, h := range headers {
		last := 0
		if i == len(headers)-1 {
			last = 1
		}
		pdf.CellFormat(pdfColWidths[i], pdfLineHeight, h, "1", last, "C", true, 0, "")
	}
}

// sanitizeLatin1 replaces characters outside the Latin-1 range so the
// built-in PDF fonts can render the text.
func sanitizeLatin1(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r > 0xFF {
			sb.WriteByte('?')
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// capitalize uppercases the first letter of a string.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// countingWriter tracks the number of bytes written to the wrapped writer.
type countingWriter struct {
	inner io.Writer
	n     int
}

// Write writes to the wrapped writer and records the byte count.
func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.inner.Write(p)
	c.n += n
	return n, err
}
