// Package templates provides email template components
package templates

import (
	"bytes"
	"html/template"
	"log"
)

// PurchaseReceiptProps carries the fields rendered into the receipt email.
type PurchaseReceiptProps struct {
	AgentName      string
	Grade          string
	Property       string
	Price          float64
	UsedQuota      bool
	ProtectedHours float64
}

var purchaseReceiptTemplate = template.Must(template.New("purchaseReceipt").Parse(`
<div style="font-family: Helvetica, sans-serif; font-size: 16px; max-width: 560px; margin: 0 auto;">
  <p style="margin: 0 0 16px;">Hi {{.AgentName}},</p>
  <p style="margin: 0 0 16px;">You just purchased a <strong>{{.Grade}}-grade</strong> lead who was browsing <strong>{{.Property}}</strong>.</p>
  <table role="presentation" border="0" cellpadding="6" cellspacing="0" style="border-collapse: collapse; margin-bottom: 16px;">
    <tr><td style="color: #666;">Cost</td><td>{{.Price}} points{{if .UsedQuota}} + 1 exclusive quota{{end}}</td></tr>
    <tr><td style="color: #666;">Exclusive window</td><td>{{.ProtectedHours}} hours</td></tr>
  </table>
  <p style="margin: 0 0 16px;">A conversation has been opened with the visitor. Reach out while the lead is still warm.</p>
</div>`))

// GetPurchaseReceiptContent renders the receipt body.
func GetPurchaseReceiptContent(props PurchaseReceiptProps) string {
	var buf bytes.Buffer
	if err := purchaseReceiptTemplate.Execute(&buf, props); err != nil {
		log.Printf("ERROR: failed to render purchase receipt template: %v", err)
		return ""
	}
	return buf.String()
}
