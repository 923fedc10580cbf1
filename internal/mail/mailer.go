package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/readify/storefront/internal/domain"
	"github.com/readify/storefront/pkg/logger"
)

// Sender delivers messages. *gomail.Dialer implements it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Mailer sends order confirmation emails. Without SMTP settings it only
// logs what it would have sent.
type Mailer struct {
	sender Sender
	from   string
	log    *slog.Logger
}

func NewMailer(cfg Config, log *slog.Logger) *Mailer {
	log = logger.OrDefault(log)
	from := cfg.From
	if from == "" {
		from = "noreply@readify.in"
	}

	if cfg.Host == "" || cfg.User == "" || cfg.Password == "" {
		log.Info("SMTP not configured, confirmation emails are logged only")
		return &Mailer{from: from, log: log}
	}

	return &Mailer{
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   from,
		log:    log,
	}
}

// NewMailerWithSender is used by tests and by callers with their own transport.
func NewMailerWithSender(sender Sender, from string, log *slog.Logger) *Mailer {
	return &Mailer{sender: sender, from: from, log: logger.OrDefault(log)}
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`
<h2>Thank you for your order, {{.Customer.FullName}}!</h2>
<p>Order ID: <strong>{{.OrderID}}</strong></p>
<p>Transaction reference: {{.TransactionID}}</p>
<table>
{{range .Items}}  <tr><td>{{.Title}}</td><td>{{.Quantity}} × ₹{{.Price}}</td></tr>
{{end}}</table>
<p>Total: <strong>₹{{.TotalAmount.StringFixed 2}}</strong></p>
<p>Your e-books will be available in your library once the payment is verified.</p>
<p>Readify</p>
`))

// SubmitOrder emails the customer a confirmation of a settled order.
func (m *Mailer) SubmitOrder(ctx context.Context, order domain.SettledOrder) error {
	if m.sender == nil {
		m.log.InfoContext(ctx, "email delivery disabled, confirmation not sent",
			"order_id", order.OrderID, "to", order.Customer.Email)
		return nil
	}

	body, err := renderConfirmation(order)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", order.Customer.Email)
	msg.SetHeader("Subject", fmt.Sprintf("Your Readify order %s", order.OrderID))
	msg.SetBody("text/html", body)

	if err := m.send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send confirmation: %w", err)
	}

	m.log.InfoContext(ctx, "confirmation email sent", "order_id", order.OrderID, "to", order.Customer.Email)
	return nil
}

// send returns when the message is handed over or ctx is done, whichever
// comes first. gomail takes no context, so a stalled SMTP exchange is left
// to finish in its own goroutine and its result is dropped.
func (m *Mailer) send(ctx context.Context, msg *gomail.Message) error {
	done := make(chan error, 1)
	go func() {
		done <- m.sender.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func renderConfirmation(order domain.SettledOrder) (string, error) {
	var body bytes.Buffer
	if err := confirmationTmpl.Execute(&body, order); err != nil {
		return "", fmt.Errorf("failed to render confirmation: %w", err)
	}
	return body.String(), nil
}
