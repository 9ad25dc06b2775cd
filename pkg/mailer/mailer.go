package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/lmorales-dev/shopstream-backend/pkg/config"
)

// Sender delivers transactional email. Implementations must be safe for
// concurrent use.
type Sender interface {
	SendPasswordReset(to, resetURL string) error
	SendSellerPurchaseNotice(to string, notice PurchaseNotice) error
}

// PurchaseNotice describes a completed purchase touching a seller's products.
type PurchaseNotice struct {
	SellerName  string
	BuyerName   string
	OrderID     string
	TotalAmount string
	Lines       []PurchaseLine
}

// PurchaseLine is one of the seller's products inside the purchase.
type PurchaseLine struct {
	Name     string
	Quantity int
	Price    string
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends email over SMTP via gomail.
type Mailer struct {
	dialer dialer
	from   string

	resetTmpl    *template.Template
	purchaseTmpl *template.Template
}

var _ Sender = (*Mailer)(nil)

// New builds a Mailer from SMTP config.
func New(cfg config.SMTPConfig) (*Mailer, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, fmt.Errorf("smtp host and port are required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}

	return &Mailer{
		dialer:       gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:         cfg.From,
		resetTmpl:    template.Must(template.New("reset").Parse(resetBody)),
		purchaseTmpl: template.Must(template.New("purchase").Parse(purchaseBody)),
	}, nil
}

// SendPasswordReset emails the single-use reset link.
func (m *Mailer) SendPasswordReset(to, resetURL string) error {
	var body bytes.Buffer
	if err := m.resetTmpl.Execute(&body, map[string]string{"ResetURL": resetURL}); err != nil {
		return fmt.Errorf("rendering reset email: %w", err)
	}
	return m.send(to, "Reset your password", body.String())
}

// SendSellerPurchaseNotice emails a seller that their products were purchased.
func (m *Mailer) SendSellerPurchaseNotice(to string, notice PurchaseNotice) error {
	var body bytes.Buffer
	if err := m.purchaseTmpl.Execute(&body, notice); err != nil {
		return fmt.Errorf("rendering purchase email: %w", err)
	}
	return m.send(to, "Your products were purchased", body.String())
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	if to == "" {
		return fmt.Errorf("recipient address is required")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending email to %s: %w", to, err)
	}
	return nil
}

const resetBody = `<html>
<body>
  <p>We received a request to reset your password.</p>
  <p><a href="{{.ResetURL}}">Click here to choose a new password.</a></p>
  <p>The link expires in 10 minutes. If you did not request this, you can ignore this email.</p>
</body>
</html>`

const purchaseBody = `<html>
<body>
  <p>Hi {{.SellerName}},</p>
  <p>{{.BuyerName}} just purchased your products (order {{.OrderID}}):</p>
  <ul>
    {{- range .Lines}}
    <li>{{.Name}} &times; {{.Quantity}} at {{.Price}}</li>
    {{- end}}
  </ul>
  <p>Your share of this order comes to {{.TotalAmount}}.</p>
</body>
</html>`
