package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

const (
	TemplateOrderConfirmation = "order_confirmation"
	TemplateOrderNotification = "order_notification"
)

// OrderInfo contains all the information needed for order email templates
type OrderInfo struct {
	OrderNumber   string
	OrderDate     string
	FirstName     string
	CustomerName  string
	CustomerEmail string
	Address       string
	PostalCode    string
	City          string
	Remarks       string
	ShopName      string
	ShopURL       string
	Items         []OrderItem
	Total         string
}

// OrderItem represents a single item in an order
type OrderItem struct {
	Name       string
	Options    string
	Quantity   int
	UnitPrice  string
	TotalPrice string
}

type emailTemplate struct {
	subject string
	html    string
	text    string
}

var templates = map[string]emailTemplate{
	TemplateOrderConfirmation: {
		subject: "Order no. {{.OrderNumber}} successfully registered",
		html:    orderConfirmationHTML,
		text:    orderConfirmationText,
	},
	TemplateOrderNotification: {
		subject: "New Order placed: no. {{.OrderNumber}}",
		html:    orderNotificationHTML,
		text:    orderNotificationText,
	},
}

// Renderer renders the built-in order templates. Recipients are left to the caller.
type Renderer struct {
	subjects *texttemplate.Template
	text     *texttemplate.Template
	html     *htmltemplate.Template
}

func NewRenderer() (*Renderer, error) {
	subjects := texttemplate.New("subjects")
	text := texttemplate.New("text")
	html := htmltemplate.New("html")

	for name, t := range templates {
		if _, err := subjects.New(name).Parse(t.subject); err != nil {
			return nil, fmt.Errorf("failed to parse subject template %s: %w", name, err)
		}
		if _, err := text.New(name).Parse(t.text); err != nil {
			return nil, fmt.Errorf("failed to parse text template %s: %w", name, err)
		}
		if _, err := html.New(name).Parse(t.html); err != nil {
			return nil, fmt.Errorf("failed to parse HTML template %s: %w", name, err)
		}
	}

	return &Renderer{subjects: subjects, text: text, html: html}, nil
}

func (r *Renderer) Render(templateName string, data *OrderInfo) (*Email, error) {
	if _, ok := templates[templateName]; !ok {
		return nil, fmt.Errorf("unknown email template: %s", templateName)
	}
	if data == nil {
		return nil, fmt.Errorf("order info is required")
	}

	var subject, text, html bytes.Buffer
	if err := r.subjects.ExecuteTemplate(&subject, templateName, data); err != nil {
		return nil, fmt.Errorf("failed to render subject: %w", err)
	}
	if err := r.text.ExecuteTemplate(&text, templateName, data); err != nil {
		return nil, fmt.Errorf("failed to render text template: %w", err)
	}
	if err := r.html.ExecuteTemplate(&html, templateName, data); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	return &Email{
		Subject: subject.String(),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

const orderConfirmationText = `Hi {{.FirstName}},

Your Order no. {{.OrderNumber}} was successfully registered.

Items:
{{range .Items}}- {{.Name}}{{if .Options}} ({{.Options}}){{end}} x{{.Quantity}} - {{.TotalPrice}}
{{end}}
Total: {{.Total}}

You will soon be contacted by someone from our Sales Department in order to discuss further details about delivery and payment.

Best regards,
{{.ShopName}} Team
{{.ShopURL}}
`

const orderConfirmationHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Order {{.OrderNumber}}</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .items { width: 100%; border-collapse: collapse; margin: 15px 0; }
    .items th { text-align: left; padding: 8px; background: #f3f4f6; }
    .items td { padding: 8px; border-bottom: 1px solid #e5e7eb; }
    .total { font-weight: bold; text-align: right; }
  </style>
</head>
<body>
  <p>Hi {{.FirstName}},</p>
  <p>Your Order no. <strong>{{.OrderNumber}}</strong> was successfully registered.</p>
  <table class="items">
    <thead><tr><th>Item</th><th>Qty</th><th>Price</th></tr></thead>
    <tbody>
      {{range .Items}}
      <tr>
        <td>{{.Name}}{{if .Options}}<br><small>{{.Options}}</small>{{end}}</td>
        <td>{{.Quantity}}</td>
        <td>{{.TotalPrice}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>
  <p class="total">Total: {{.Total}}</p>
  <p>You will soon be contacted by someone from our Sales Department in order to discuss further details about delivery and payment.</p>
  <p>Best regards,<br><a href="{{.ShopURL}}">{{.ShopName}}</a> Team</p>
</body>
</html>
`

const orderNotificationText = `Hi there,

You have a new Order from {{.CustomerName}} ({{.CustomerEmail}}).

Order no. {{.OrderNumber}} of total value: {{.Total}}
Placed: {{.OrderDate}}

Deliver to:
{{.Address}}
{{.PostalCode}} {{.City}}
{{if .Remarks}}
Remarks: {{.Remarks}}
{{end}}
Items:
{{range .Items}}- {{.Name}}{{if .Options}} ({{.Options}}){{end}} x{{.Quantity}} @ {{.UnitPrice}} = {{.TotalPrice}}
{{end}}
Best regards,
Your trustworthy Notification Robot
`

const orderNotificationHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>New order {{.OrderNumber}}</title>
</head>
<body style="font-family: sans-serif; line-height: 1.5; color: #333;">
  <p>You have a new Order from <strong>{{.CustomerName}}</strong> ({{.CustomerEmail}}).</p>
  <p>Order no. <strong>{{.OrderNumber}}</strong> of total value: <strong>{{.Total}}</strong><br>Placed: {{.OrderDate}}</p>
  <p>{{.Address}}<br>{{.PostalCode}} {{.City}}</p>
  {{if .Remarks}}<p><em>{{.Remarks}}</em></p>{{end}}
  <ul>
    {{range .Items}}
    <li>{{.Name}}{{if .Options}} ({{.Options}}){{end}} x{{.Quantity}} @ {{.UnitPrice}} = {{.TotalPrice}}</li>
    {{end}}
  </ul>
</body>
</html>
`
