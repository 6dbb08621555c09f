package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/remindly/remind-api/internal/models"
)

// SMTPConfig holds the settings the email handler needs
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	To       string
}

// Configured reports whether enough settings are present to send mail
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != "" && c.To != ""
}

// EmailHandler sends reminders over SMTP with STARTTLS-capable auth
type EmailHandler struct {
	cfg SMTPConfig
	// send is swappable in tests; defaults to smtp.SendMail
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailHandler creates an email handler for the given SMTP settings
func NewEmailHandler(cfg SMTPConfig) *EmailHandler {
	return &EmailHandler{cfg: cfg, send: smtp.SendMail}
}

// Name identifies the handler in logs
func (h *EmailHandler) Name() string { return "email" }

// Deliver sends the reminder as a plain-text email
func (h *EmailHandler) Deliver(_ context.Context, task *models.Task, message string) error {
	if !h.cfg.Configured() {
		return fmt.Errorf("smtp not configured")
	}

	from := h.cfg.From
	if from == "" {
		from = h.cfg.Username
	}

	subject := "Reminder: " + task.Title
	if task.Priority == models.PriorityHigh || task.Priority == models.PriorityUrgent {
		subject = "[" + strings.ToUpper(string(task.Priority)) + "] " + subject
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", h.cfg.FromName, from)
	fmt.Fprintf(&b, "To: %s\r\n", h.cfg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(message)
	b.WriteString("\r\n")

	addr := fmt.Sprintf("%s:%d", h.cfg.Host, h.cfg.Port)
	auth := smtp.PlainAuth("", h.cfg.Username, h.cfg.Password, h.cfg.Host)

	if err := h.send(addr, auth, from, []string{h.cfg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

var _ Handler = (*EmailHandler)(nil)
