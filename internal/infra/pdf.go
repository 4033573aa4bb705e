package infra

// pdf.go renders the order receipt attached to the checkout confirmation
// email: letter-size page with the order header, one row per purchased line
// and the points total / remaining balance.

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
)

// ReceiptLine is one purchased item on the receipt.
type ReceiptLine struct {
	Title    string
	Quantity int
	Points   int
}

// OrderReceipt is everything printed on a receipt.
type OrderReceipt struct {
	OrderID     string
	DriverName  string
	SponsorName string
	PurchasedAt time.Time
	Lines       []ReceiptLine
	TotalPoints int
	Balance     int
}

// GenerateOrderReceiptPDF writes receipt_{order}.pdf under storagePath
// (created if needed) and returns the file path.
func GenerateOrderReceiptPDF(r OrderReceipt, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("receipt_%s.pdf", r.OrderID))

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, "Triple T's Rewards", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, "Order receipt", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Order: "+r.OrderID, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Date: "+r.PurchasedAt.Format("01/02/2006 15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Driver: "+r.DriverName, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Sponsor: "+r.SponsorName, "", 1, "L", false, 0, "")
	pdf.Ln(3)

	// ── Lines ────────────────────────────────────────────────────────────────
	col1 := contentW * 0.64
	col2 := contentW * 0.12
	col3 := contentW * 0.24

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 6, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 6, "Points", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, l := range r.Lines {
		title := l.Title
		if len(title) > 70 {
			title = title[:69] + "..."
		}
		pdf.CellFormat(col1, 6, title, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, fmt.Sprintf("x%d", l.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 6, fmt.Sprintf("%d", l.Points*l.Quantity), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(col1+col2, 7, "Total points:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 7, fmt.Sprintf("%d", r.TotalPoints), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(col1+col2, 6, "Remaining balance:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, fmt.Sprintf("%d", r.Balance), "", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
