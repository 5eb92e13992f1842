package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/alairock/kash-money/internal/models"
)

// RenderInvoice produces the invoice PDF. The layout is deterministic for a
// given (invoice, client, company) triple: it is a visual export, not an
// interchange format.
func RenderInvoice(invoice *models.Invoice, client *models.Client, company *models.CompanySettings) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(fmt.Sprintf("Invoice %s", invoice.Number), false)
	doc.AddPage()

	// Company block
	doc.SetFont("Helvetica", "B", 18)
	name := company.CompanyName
	if name == "" {
		name = company.OwnerName
	}
	doc.Cell(0, 10, name)
	doc.Ln(10)

	doc.SetFont("Helvetica", "", 10)
	for _, line := range addressLines(company.Address1, company.Address2, cityLine(company.City, company.State, company.Zip), company.Email, company.Phone) {
		doc.Cell(0, 5, line)
		doc.Ln(5)
	}
	doc.Ln(6)

	// Invoice header
	doc.SetFont("Helvetica", "B", 14)
	doc.Cell(0, 8, fmt.Sprintf("Invoice %s", invoice.Number))
	doc.Ln(8)
	doc.SetFont("Helvetica", "", 10)
	doc.Cell(0, 5, fmt.Sprintf("Issued: %s", invoice.Created.Format("January 2, 2006")))
	doc.Ln(5)
	doc.Cell(0, 5, fmt.Sprintf("Due: %s", invoice.DateDue.Format("January 2, 2006")))
	doc.Ln(10)

	// Client block
	doc.SetFont("Helvetica", "B", 11)
	doc.Cell(0, 6, "Bill To")
	doc.Ln(6)
	doc.SetFont("Helvetica", "", 10)
	if client != nil {
		for _, line := range addressLines(client.Name, client.Address1, client.Address2, cityLine(client.City, client.State, client.Zip), client.Email) {
			doc.Cell(0, 5, line)
			doc.Ln(5)
		}
	}
	doc.Ln(8)

	// Line item table
	const (
		descWidth   = 100.0
		hoursWidth  = 25.0
		rateWidth   = 30.0
		amountWidth = 30.0
	)
	doc.SetFont("Helvetica", "B", 10)
	doc.SetFillColor(235, 235, 235)
	doc.CellFormat(descWidth, 7, "Description", "1", 0, "L", true, 0, "")
	doc.CellFormat(hoursWidth, 7, "Hours", "1", 0, "R", true, 0, "")
	doc.CellFormat(rateWidth, 7, "Rate", "1", 0, "R", true, 0, "")
	doc.CellFormat(amountWidth, 7, "Amount", "1", 1, "R", true, 0, "")

	doc.SetFont("Helvetica", "", 10)
	for _, item := range invoice.LineItems {
		doc.CellFormat(descWidth, 7, item.Description, "1", 0, "L", false, 0, "")
		doc.CellFormat(hoursWidth, 7, fmt.Sprintf("%.2f", item.Hours), "1", 0, "R", false, 0, "")
		doc.CellFormat(rateWidth, 7, fmt.Sprintf("$%.2f", item.Rate), "1", 0, "R", false, 0, "")
		doc.CellFormat(amountWidth, 7, fmt.Sprintf("$%.2f", item.Amount), "1", 1, "R", false, 0, "")
	}

	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(descWidth+hoursWidth+rateWidth, 8, "Total", "1", 0, "R", false, 0, "")
	doc.CellFormat(amountWidth, 8, fmt.Sprintf("$%.2f", invoice.Total), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice %s PDF: %w", invoice.Number, err)
	}
	return buf.Bytes(), nil
}

// addressLines drops empty entries so sparse settings don't leave gaps.
func addressLines(lines ...string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func cityLine(city, state, zip string) string {
	parts := []string{}
	if city != "" {
		parts = append(parts, city)
	}
	if state != "" {
		parts = append(parts, state)
	}
	line := strings.Join(parts, ", ")
	if zip != "" {
		line = strings.TrimSpace(line + " " + zip)
	}
	return line
}
