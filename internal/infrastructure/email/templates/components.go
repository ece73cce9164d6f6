package templates

import (
	"bytes"
	"html/template"
	"log"
	"time"
)

// TicketEmailProps carries the fields for the support ticket notification.
type TicketEmailProps struct {
	TicketID string
	Email    string
	Subject  string
	Body     string
}

var ticketEmailTemplate = template.Must(template.New("ticketEmail").Parse(`
<h2 style="margin: 0 0 16px;">New support ticket</h2>
<p style="margin: 0 0 8px;"><strong>Ticket:</strong> {{.TicketID}}</p>
<p style="margin: 0 0 8px;"><strong>From:</strong> {{.Email}}</p>
<p style="margin: 0 0 16px;"><strong>Subject:</strong> {{.Subject}}</p>
<div style="border-left: 3px solid #eaebed; padding-left: 12px; color: #333;">
  <p style="white-space: pre-wrap; margin: 0;">{{.Body}}</p>
</div>`))

// GetTicketEmailContent renders the support ticket notification body.
func GetTicketEmailContent(props TicketEmailProps) string {
	var buf bytes.Buffer
	if err := ticketEmailTemplate.Execute(&buf, props); err != nil {
		log.Printf("ERROR: Failed to render ticket email: %v", err)
		return ""
	}
	return buf.String()
}

// ReceiptEmailProps carries the fields for the lifetime purchase receipt.
type ReceiptEmailProps struct {
	Name        string
	SaleRef     string
	PurchasedAt time.Time
}

var receiptEmailTemplate = template.Must(template.New("receiptEmail").Parse(`
<h2 style="margin: 0 0 16px;">You have lifetime access</h2>
<p style="margin: 0 0 16px;">Hi {{.Name}}, thanks for your purchase. Your account now has unlimited access to every term in the glossary, with no daily limit.</p>
<p style="margin: 0 0 8px;"><strong>Reference:</strong> {{.SaleRef}}</p>
<p style="margin: 0;"><strong>Date:</strong> {{.PurchasedAt.Format "January 2, 2006"}}</p>`))

// GetReceiptEmailContent renders the purchase receipt body.
func GetReceiptEmailContent(props ReceiptEmailProps) string {
	var buf bytes.Buffer
	if err := receiptEmailTemplate.Execute(&buf, props); err != nil {
		log.Printf("ERROR: Failed to render receipt email: %v", err)
		return ""
	}
	return buf.String()
}
