package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"unicode/utf8"

	"pricewatch/models"
)

const shortTitleLength = 20

// Renderer produces the email for a product and notification kind
type Renderer interface {
	Render(info models.ProductInfo, kind models.NotificationKind) (models.Email, error)
}

type emailTemplate struct {
	subject string
	body    *template.Template
}

// TemplateRenderer renders HTML emails from built-in templates
type TemplateRenderer struct {
	templates map[models.NotificationKind]emailTemplate
	policy    Policy
}

type templateData struct {
	Title      string
	ShortTitle string
	URL        string
	Threshold  string
}

// NewTemplateRenderer parses the built-in templates. The policy supplies
// the discount threshold quoted in THRESHOLD_MET emails.
func NewTemplateRenderer(policy Policy) *TemplateRenderer {
	return &TemplateRenderer{
		policy: policy,
		templates: map[models.NotificationKind]emailTemplate{
			models.NotificationWelcome: {
				subject: "Welcome to Price Tracking for %s",
				body: template.Must(template.New("welcome").Parse(`<div>
  <h2>Welcome to PriceWatch 🚀</h2>
  <p>You are now tracking {{.Title}}.</p>
  <p>Here's an example of how you'll receive updates:</p>
  <div style="border: 1px solid #ccc; padding: 10px; background-color: #f8f8f8;">
    <h3>{{.Title}} is back in stock!</h3>
    <p>We're excited to let you know that {{.Title}} is now back in stock.</p>
    <p>Don't miss out - <a href="{{.URL}}" target="_blank" rel="noopener noreferrer">buy it now</a>!</p>
  </div>
  <p>Stay tuned for more updates on {{.Title}} and other products you're tracking.</p>
</div>`)),
			},
			models.NotificationChangeOfStock: {
				subject: "%s is now back in stock!",
				body: template.Must(template.New("stock").Parse(`<div>
  <h4>Hey, {{.Title}} is now restocked! Grab yours before they run out again!</h4>
  <p>See the product <a href="{{.URL}}" target="_blank" rel="noopener noreferrer">here</a>.</p>
</div>`)),
			},
			models.NotificationLowestPrice: {
				subject: "Lowest Price Alert for %s",
				body: template.Must(template.New("lowest").Parse(`<div>
  <h4>Hey, {{.Title}} has reached its lowest price ever!!</h4>
  <p>Grab the product <a href="{{.URL}}" target="_blank" rel="noopener noreferrer">here</a> now.</p>
</div>`)),
			},
			models.NotificationThresholdMet: {
				subject: "Discount Alert for %s",
				body: template.Must(template.New("threshold").Parse(`<div>
  <h4>Hey, {{.Title}} is now available at a discount of {{.Threshold}}% or more!</h4>
  <p>Grab it right away from <a href="{{.URL}}" target="_blank" rel="noopener noreferrer">here</a>.</p>
</div>`)),
			},
		},
	}
}

// Render fills the template for kind
func (r *TemplateRenderer) Render(info models.ProductInfo, kind models.NotificationKind) (models.Email, error) {
	tmpl, ok := r.templates[kind]
	if !ok {
		return models.Email{}, fmt.Errorf("no email template for notification %s", kind)
	}

	data := templateData{
		Title:      info.Title,
		ShortTitle: shortenTitle(info.Title),
		URL:        info.SourceID,
		Threshold:  r.policy.DiscountThreshold.String(),
	}

	var body bytes.Buffer
	if err := tmpl.body.Execute(&body, data); err != nil {
		return models.Email{}, fmt.Errorf("failed to render %s email: %w", kind, err)
	}

	return models.Email{
		Subject: fmt.Sprintf(tmpl.subject, data.ShortTitle),
		Body:    body.String(),
	}, nil
}

func shortenTitle(title string) string {
	if utf8.RuneCountInString(title) <= shortTitleLength {
		return title
	}
	return string([]rune(title)[:shortTitleLength]) + "..."
}
