package export

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Editorhacker/Invoice/internal/models"
	"github.com/Editorhacker/Invoice/internal/services/billing"
)

// Renderer produces the self-contained HTML view of an invoice. All styling
// is inline and deliberately restricted to plain colors and lengths, so the
// preview and the PDF stay visually in step without depending on the app's
// interactive theme.
type Renderer struct {
	tmpl *template.Template
}

type templateData struct {
	Invoice *models.Invoice
	// Logo is the trusted data-URI the owner uploaded; html/template would
	// otherwise refuse the data: scheme in a src attribute.
	Logo   template.URL
	Symbol string
	Totals billing.Totals
}

func NewRenderer() *Renderer {
	tmpl := template.Must(template.New("invoice").Funcs(template.FuncMap{
		"money": func(v float64) string { return fmt.Sprintf("%.2f", billing.Round2(v)) },
		"lineAmount": func(item models.LineItem) float64 {
			return item.Quantity * item.Rate
		},
	}).Parse(invoiceTemplate))
	return &Renderer{tmpl: tmpl}
}

// RenderHTML renders the invoice into the fixed 800-unit-wide template.
func (r *Renderer) RenderHTML(inv *models.Invoice) (string, error) {
	data := templateData{
		Invoice: inv,
		Logo:    template.URL(inv.Logo),
		Symbol:  models.SymbolFor(inv.Currency),
		Totals:  billing.Calculate(inv.Items, inv.TaxRate),
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render invoice template: %w", err)
	}
	return buf.String(), nil
}

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Invoice {{.Invoice.InvoiceNumber}}</title></head>
<body style="margin:0;background:#ffffff;font-family:Helvetica,Arial,sans-serif;color:#1f2937;">
<div style="width:800px;margin:0 auto;padding:40px;box-sizing:border-box;">
  <table style="width:100%;border-collapse:collapse;">
    <tr>
      <td style="vertical-align:top;">
        <div style="font-size:32px;font-weight:bold;color:{{.Invoice.AccentColor}};">INVOICE</div>
        <div style="font-size:14px;color:#6b7280;margin-top:4px;">#{{.Invoice.InvoiceNumber}}</div>
      </td>
      <td style="vertical-align:top;text-align:right;">
        {{if .Logo}}<img src="{{.Logo}}" alt="logo" style="max-width:160px;max-height:80px;"/>{{end}}
      </td>
    </tr>
  </table>

  <table style="width:100%;border-collapse:collapse;margin-top:32px;">
    <tr>
      <td style="vertical-align:top;width:50%;">
        <div style="font-size:11px;font-weight:bold;color:#6b7280;text-transform:uppercase;">From</div>
        <div style="font-size:14px;font-weight:bold;margin-top:6px;">{{.Invoice.From.Name}}</div>
        <div style="font-size:12px;color:#6b7280;">{{.Invoice.From.Email}}</div>
        <div style="font-size:12px;color:#6b7280;white-space:pre-line;">{{.Invoice.From.Address}}</div>
      </td>
      <td style="vertical-align:top;width:50%;">
        <div style="font-size:11px;font-weight:bold;color:#6b7280;text-transform:uppercase;">Bill To</div>
        <div style="font-size:14px;font-weight:bold;margin-top:6px;">{{.Invoice.To.Name}}</div>
        <div style="font-size:12px;color:#6b7280;">{{.Invoice.To.Email}}</div>
        <div style="font-size:12px;color:#6b7280;white-space:pre-line;">{{.Invoice.To.Address}}</div>
      </td>
    </tr>
  </table>

  <table style="width:100%;border-collapse:collapse;margin-top:24px;">
    <tr>
      <td style="font-size:12px;color:#6b7280;">Issue Date: <span style="color:#1f2937;font-weight:bold;">{{.Invoice.IssueDate}}</span></td>
      <td style="font-size:12px;color:#6b7280;text-align:right;">Due Date: <span style="color:#1f2937;font-weight:bold;">{{.Invoice.DueDate}}</span></td>
    </tr>
  </table>

  <table style="width:100%;border-collapse:collapse;margin-top:24px;">
    <tr style="background:{{.Invoice.AccentColor}};color:#ffffff;">
      <th style="text-align:left;padding:10px;font-size:12px;">Description</th>
      <th style="text-align:right;padding:10px;font-size:12px;width:80px;">Qty</th>
      <th style="text-align:right;padding:10px;font-size:12px;width:110px;">Rate</th>
      <th style="text-align:right;padding:10px;font-size:12px;width:110px;">Amount</th>
    </tr>
    {{range .Invoice.Items}}
    <tr>
      <td style="padding:10px;font-size:12px;border-bottom:1px solid #e5e7eb;">{{.Description}}</td>
      <td style="padding:10px;font-size:12px;border-bottom:1px solid #e5e7eb;text-align:right;">{{.Quantity}}</td>
      <td style="padding:10px;font-size:12px;border-bottom:1px solid #e5e7eb;text-align:right;">{{$.Symbol}}{{money .Rate}}</td>
      <td style="padding:10px;font-size:12px;border-bottom:1px solid #e5e7eb;text-align:right;">{{$.Symbol}}{{money (lineAmount .)}}</td>
    </tr>
    {{end}}
  </table>

  <table style="border-collapse:collapse;margin-top:16px;margin-left:auto;width:280px;">
    <tr>
      <td style="padding:6px;font-size:12px;color:#6b7280;">Subtotal</td>
      <td style="padding:6px;font-size:12px;text-align:right;">{{.Symbol}}{{money .Totals.Subtotal}}</td>
    </tr>
    <tr>
      <td style="padding:6px;font-size:12px;color:#6b7280;">Tax ({{.Invoice.TaxRate}}%)</td>
      <td style="padding:6px;font-size:12px;text-align:right;">{{.Symbol}}{{money .Totals.TaxAmount}}</td>
    </tr>
    <tr>
      <td style="padding:6px;font-size:14px;font-weight:bold;border-top:2px solid {{.Invoice.AccentColor}};">Total</td>
      <td style="padding:6px;font-size:14px;font-weight:bold;text-align:right;border-top:2px solid {{.Invoice.AccentColor}};color:{{.Invoice.AccentColor}};">{{.Symbol}}{{money .Totals.Total}}</td>
    </tr>
  </table>

  {{if .Invoice.Notes}}
  <div style="margin-top:32px;">
    <div style="font-size:11px;font-weight:bold;color:#6b7280;text-transform:uppercase;">Notes</div>
    <div style="font-size:12px;color:#1f2937;margin-top:6px;white-space:pre-line;">{{.Invoice.Notes}}</div>
  </div>
  {{end}}
</div>
</body>
</html>`
