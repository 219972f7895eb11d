package invoice

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// Page geometry in millimetres on A4 portrait.
const (
	marginX     = 14.0
	contentW    = 182.0
	projectX    = 140.0
	blockY      = 45.0
	blockStep   = 5.0
	ruleY       = 68.0
	bandY       = 70.0
	bandH       = 18.0
	bandColW    = 60.0
	bandPadding = 2.0
	tableY      = 89.0
	fontSize    = 10.0
	cellPadding = 1.76
	lineHeight  = 4.06
	bottomLimit = 297.0 - 14.0
)

var tableColW = contentW / 3

// Render draws doc as a PDF and returns the file bytes.
func Render(doc *Document) ([]byte, error) {
	return render(doc, true)
}

func render(doc *Document, compress bool) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("invoice document is required")
	}

	pdf := draw(doc, compress)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func draw(doc *Document, compress bool) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetMargins(marginX, marginX, marginX)
	pdf.SetAutoPageBreak(false, marginX)
	pdf.SetCreator("billing-bot", false)
	pdf.SetTitle(fmt.Sprintf("Invoice %d", doc.ProjectID), false)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	drawHeaderBlocks(pdf, doc, tr)
	drawBand(pdf, doc, tr)
	finalY := drawTable(pdf, doc, tr)
	drawSubtotal(pdf, doc, finalY)

	return pdf
}

func drawHeaderBlocks(pdf *fpdf.Fpdf, doc *Document, tr func(string) string) {
	pdf.SetFont("Helvetica", "B", fontSize)
	pdf.SetTextColor(0, 0, 0)

	for i, line := range doc.ClientBlock {
		pdf.Text(marginX, blockY+float64(i)*blockStep, tr(line))
	}
	for i, line := range doc.ProjectBlock {
		pdf.Text(projectX, blockY+float64(i)*blockStep, tr(line))
	}

	pdf.Line(marginX, ruleY, marginX+contentW, ruleY)
}

func drawBand(pdf *fpdf.Fpdf, doc *Document, tr func(string) string) {
	pdf.SetFillColor(112, 112, 112)
	pdf.Rect(marginX, bandY, contentW, bandH, "F")

	headerY := bandY + 7
	pdf.SetTextColor(255, 255, 255)

	pdf.SetFont("Helvetica", "B", fontSize)
	for i, cell := range doc.Band {
		pdf.Text(marginX+bandPadding+float64(i)*bandColW, headerY, tr(cell.Header))
	}

	pdf.SetFont("Helvetica", "", fontSize)
	for i, cell := range doc.Band {
		x := marginX + bandPadding + float64(i)*bandColW
		for j, line := range splitText(pdf, tr(cell.Value), bandColW-2*bandPadding) {
			pdf.Text(x, headerY+5+float64(j)*lineHeight, line)
		}
	}

	bottom := bandY + bandH
	pdf.Line(marginX, bandY, marginX+contentW, bandY)
	pdf.Line(marginX, bandY, marginX, bottom)
	pdf.Line(marginX+contentW, bandY, marginX+contentW, bottom)
	pdf.Line(marginX, bottom, marginX+contentW, bottom)
	pdf.Line(marginX+bandColW, bandY, marginX+bandColW, bottom)
	pdf.Line(marginX+2*bandColW, bandY, marginX+2*bandColW, bottom)

	pdf.SetTextColor(0, 0, 0)
}

// drawTable draws the itemized payments and returns the y of its bottom edge.
// The header row is repeated on every page the table spans.
func drawTable(pdf *fpdf.Fpdf, doc *Document, tr func(string) string) float64 {
	y := drawTableHeader(pdf, tableY)

	pdf.SetFont("Helvetica", "", fontSize)
	for i, row := range doc.Rows {
		cells := [3][]string{
			splitText(pdf, tr(row.PaymentDate), tableColW-2*cellPadding),
			splitText(pdf, tr(row.Description), tableColW-2*cellPadding),
			splitText(pdf, tr(row.Amount), tableColW-2*cellPadding),
		}
		h := rowHeight(cells)

		if y+h > bottomLimit {
			pdf.AddPage()
			y = drawTableHeader(pdf, marginX)
			pdf.SetFont("Helvetica", "", fontSize)
		}

		if i%2 == 1 {
			pdf.SetFillColor(245, 245, 245)
			pdf.Rect(marginX, y, contentW, h, "F")
		}
		pdf.SetTextColor(80, 80, 80)
		for c, lines := range cells {
			x := marginX + float64(c)*tableColW + cellPadding
			for j, line := range lines {
				pdf.Text(x, y+cellPadding+float64(j+1)*lineHeight-1, line)
			}
		}
		y += h
	}

	pdf.SetTextColor(0, 0, 0)
	return y
}

func drawTableHeader(pdf *fpdf.Fpdf, y float64) float64 {
	h := lineHeight + 2*cellPadding

	pdf.SetFillColor(41, 128, 185)
	pdf.Rect(marginX, y, contentW, h, "F")
	pdf.SetFont("Helvetica", "B", fontSize)
	pdf.SetTextColor(255, 255, 255)
	for c, heading := range TableHeader {
		pdf.Text(marginX+float64(c)*tableColW+cellPadding, y+cellPadding+lineHeight-1, heading)
	}
	pdf.SetTextColor(0, 0, 0)

	return y + h
}

func drawSubtotal(pdf *fpdf.Fpdf, doc *Document, finalY float64) {
	amountColumnX := marginX + 2*tableColW
	y := finalY + 10
	if y > bottomLimit {
		pdf.AddPage()
		y = marginX + 10
	}

	pdf.SetFont("Helvetica", "B", fontSize)
	pdf.Text(amountColumnX-16, y, "Subtotal: ")
	pdf.Text(amountColumnX+6.5-5.3, y, doc.SubtotalText())
}

func rowHeight(cells [3][]string) float64 {
	lines := 1
	for _, c := range cells {
		lines = max(lines, len(c))
	}
	return float64(lines)*lineHeight + 2*cellPadding
}

// splitText wraps text that has already been through the cp1252 translator.
// It works on bytes so characters outside ASCII keep their single-byte width entry.
func splitText(pdf *fpdf.Fpdf, text string, width float64) []string {
	if text == "" {
		return []string{""}
	}
	raw := pdf.SplitLines([]byte(text), width)
	if len(raw) == 0 {
		return []string{""}
	}
	lines := make([]string, len(raw))
	for i, line := range raw {
		lines[i] = string(line)
	}
	return lines
}
