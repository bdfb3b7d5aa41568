package invoice

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/kmazurov/storefront/internal/models"
)

// Generate renders a PDF invoice for a paid order. The customer may be nil
// for orders detached from a deleted account.
func Generate(order *models.Order, customer *models.User) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "INVOICE", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 6, fmt.Sprintf("Order ID: %d", order.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Order Date: "+time.Unix(order.CreatedAt, 0).UTC().Format("2 Jan 2006 15:04"), "", 1, "L", false, 0, "")

	paymentStatus := "Unpaid"
	if order.IsPaid {
		paymentStatus = "Paid"
	}
	pdf.CellFormat(0, 6, "Payment Status: "+paymentStatus, "", 1, "L", false, 0, "")
	if order.IsPaid && order.PaidAt != nil {
		pdf.CellFormat(0, 6, "Paid At: "+order.PaidAt.UTC().Format("2 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	if customer != nil {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 6, "Customer Details", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 6, "Name: "+customer.Name, "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 6, "Email: "+customer.Email, "", 1, "L", false, 0, "")
		pdf.Ln(4)
	}

	addr := order.Shipping
	if addr.AddressLine1 != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 6, "Shipping Address", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		if addr.FullName != "" {
			pdf.CellFormat(0, 6, addr.FullName, "", 1, "L", false, 0, "")
		}
		if addr.Phone != "" {
			pdf.CellFormat(0, 6, "Phone: "+addr.Phone, "", 1, "L", false, 0, "")
		}
		pdf.CellFormat(0, 6, addr.AddressLine1, "", 1, "L", false, 0, "")
		if addr.AddressLine2 != "" {
			pdf.CellFormat(0, 6, addr.AddressLine2, "", 1, "L", false, 0, "")
		}
		pdf.CellFormat(0, 6, fmt.Sprintf("%s, %s %s", addr.City, addr.State, addr.PostalCode), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 6, addr.Country, "", 1, "L", false, 0, "")
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Items", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	for i, item := range order.Items {
		line := fmt.Sprintf("%d. %s - Rs %.2f x %d = Rs %.2f",
			i+1, item.Name, item.Price, item.Quantity, item.Price*float64(item.Quantity))
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, fmt.Sprintf("Total Amount: Rs %.2f", order.TotalPrice), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("invoice render: %w", err)
	}
	return buf.Bytes(), nil
}
