package utils

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/Kariqs/campus-store-api/models"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

//go:embed templates/*.html
var templateFS embed.FS

var orderConfirmationTmpl = template.Must(template.ParseFS(templateFS, "templates/order_confirmation.html"))

var ErrMailDisabled = errors.New("mail delivery is not configured")

type MailConfig struct {
	SMTPAddress string
	SMTPHost    string
	From        string
	Password    string
}

type OrderEmailData struct {
	Name    string
	OrderID string
	Items   []models.OrderItem
	Address models.ShippingAddress
	Total   float64
	Payment string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends transactional mail over SMTP. Delivery goes through a circuit
// breaker so a dead mail server is not retried on every order.
type Mailer struct {
	cfg     MailConfig
	send    sendFunc
	breaker *gobreaker.CircuitBreaker
}

func NewMailer(cfg MailConfig) *Mailer {
	return newMailer(cfg, smtp.SendMail)
}

func newMailer(cfg MailConfig, send sendFunc) *Mailer {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(log.Fields{
				"circuit": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Mail circuit breaker state changed")
		},
	})
	return &Mailer{cfg: cfg, send: send, breaker: breaker}
}

func (m *Mailer) Enabled() bool {
	return m != nil && m.cfg.SMTPAddress != "" && m.cfg.From != ""
}

func (m *Mailer) SendOrderConfirmation(ctx context.Context, to, name string, order *models.Order) error {
	data := OrderEmailData{
		Name:    name,
		OrderID: order.ID,
		Items:   order.OrderItems,
		Address: order.ShippingAddress,
		Total:   order.TotalPrice,
		Payment: order.PaymentMethod,
	}
	return m.SendEmail(ctx, to, "Order confirmation #"+order.ID, orderConfirmationTmpl, data)
}

func (m *Mailer) SendEmail(ctx context.Context, to, subject string, tmpl *template.Template, data any) error {
	if !m.Enabled() {
		return ErrMailDisabled
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	message := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n%s",
		m.cfg.From,
		to,
		subject,
		body.String(),
	)

	var auth smtp.Auth
	if m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.SMTPHost)
	}

	_, err := m.breaker.Execute(func() (interface{}, error) {
		return nil, m.send(m.cfg.SMTPAddress, auth, m.cfg.From, []string{to}, []byte(message))
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
