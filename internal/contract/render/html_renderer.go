package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

const contractHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Subscription Agreement {{.Contract.ID}}</title>
  <style>
    * { box-sizing: border-box; }
    body {
      margin: 0;
      padding: 32px;
      font-family: "Helvetica Neue", Arial, sans-serif;
      color: #111827;
      background: #ffffff;
    }
    .contract { max-width: 820px; margin: 0 auto; }
    .header {
      border-bottom: 2px solid #1f2937;
      padding-bottom: 16px;
      margin-bottom: 24px;
    }
    .section { margin-bottom: 24px; }
    table { width: 100%; border-collapse: collapse; font-size: 14px; }
    th, td {
      padding: 10px;
      border-bottom: 1px solid #e5e7eb;
      text-align: left;
    }
    th {
      text-transform: uppercase;
      font-size: 11px;
      letter-spacing: 0.04em;
      color: #6b7280;
    }
    .signature {
      margin-top: 32px;
      border-top: 1px solid #e5e7eb;
      padding-top: 16px;
    }
    .signature img { max-height: 96px; }
    .watermark {
      color: #9ca3af;
      font-size: 12px;
      text-transform: uppercase;
      letter-spacing: 0.08em;
    }
  </style>
</head>
<body>
  <div class="contract">
    <div class="header">
      <h1>Subscription Agreement</h1>
      <div class="watermark">{{if .Signature}}Signed{{else}}{{.Contract.Status}}{{end}}</div>
    </div>
    <div class="section">
      <table>
        <tr><th>Tier</th><td>{{.Contract.Tier}}</td></tr>
        <tr><th>Annual price</th><td>{{formatAmount .Contract.AnnualPrice .Contract.Currency}}</td></tr>
        <tr><th>Billing interval</th><td>{{.Contract.BillingInterval}}</td></tr>
        <tr><th>VAT rate</th><td>{{printf "%.1f" .Contract.VATRatePercent}}%</td></tr>
        {{if .Contract.StartDate}}<tr><th>Start date</th><td>{{.Contract.StartDate.Format "2 January 2006"}}</td></tr>{{end}}
        <tr><th>Duration</th><td>{{.Contract.DurationMonths}} months</td></tr>
      </table>
    </div>
    <div class="section">
      <table>
        <tr><th>Signer</th><td>{{.Signer.Name}}{{if .Signer.Title}}, {{.Signer.Title}}{{end}} &lt;{{.Signer.Email}}&gt;</td></tr>
        {{if .Reviewer}}<tr><th>Reviewer</th><td>{{.Reviewer.Name}}{{if .Reviewer.Title}}, {{.Reviewer.Title}}{{end}} &lt;{{.Reviewer.Email}}&gt;</td></tr>{{end}}
      </table>
    </div>
    {{if .Signature}}
    <div class="signature">
      <img src="{{.Signature.ImageData}}" alt="Signature" />
      <div>{{.Signature.SignerName}}</div>
      <div>{{.Signature.SignedAt.Format "2 January 2006 15:04 MST"}}</div>
    </div>
    {{end}}
  </div>
</body>
</html>`

type htmlRenderer struct {
	tmpl *template.Template
}

func NewRenderer() (Renderer, error) {
	tmpl, err := template.New("contract").Funcs(template.FuncMap{
		"formatAmount": formatAmount,
	}).Parse(contractHTMLTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse contract template: %w", err)
	}
	return &htmlRenderer{tmpl: tmpl}, nil
}

func (r *htmlRenderer) RenderHTML(input RenderInput) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, input); err != nil {
		return "", fmt.Errorf("render contract: %w", err)
	}
	return buf.String(), nil
}

// formatAmount renders a minor-unit amount as a currency string, e.g.
// 129900 EUR -> "EUR 1,299.00".
func formatAmount(minor int64, currency string) string {
	negative := minor < 0
	if negative {
		minor = -minor
	}
	units := minor / 100
	cents := minor % 100

	digits := fmt.Sprintf("%d", units)
	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(d)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%s %s%s.%02d", strings.ToUpper(currency), sign, grouped.String(), cents)
}
