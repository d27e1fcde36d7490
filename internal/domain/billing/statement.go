package billing

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// RenderStatement renders payments and their summary as a PDF, 40 rows per page.
func RenderStatement(title string, generatedAt time.Time, payments []Payment, sum Summary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, title)
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Transactions: %d", sum.Transactions))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Total collection: INR %s", sum.TotalCollection.StringFixed(2)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Refunds: INR %s", sum.Refunds.StringFixed(2)))
	pdf.Ln(10)

	widths := []float64{50, 45, 30, 25, 30}
	header := []string{"Student", "Purpose", "Amount", "Status", "Date"}
	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 10)
		for i, h := range header {
			pdf.CellFormat(widths[i], 7, h, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	writeHeader()

	for i, p := range payments {
		if i > 0 && i%40 == 0 {
			pdf.AddPage()
			writeHeader()
		}
		pdf.CellFormat(widths[0], 6, clip(p.Name, 28), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, clip(p.Purpose, 24), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, p.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, clip(p.Status, 12), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[4], 6, p.PaidAt.Format("2006-01-02"), "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
