package notifier

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"FinSight/internal/model"
)

// EmailConfig holds the SMTP settings of an EmailNotifier.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
	Recipients   []string
}

// EmailNotifier mails training outcomes to a fixed recipient list.
type EmailNotifier struct {
	cfg    EmailConfig
	logger *logrus.Logger
	send   func(e *email.Email) error
}

// NewEmailNotifier creates a notifier that sends through the configured SMTP server.
func NewEmailNotifier(cfg EmailConfig, logger *logrus.Logger) *EmailNotifier {
	n := &EmailNotifier{cfg: cfg, logger: logger}
	n.send = func(e *email.Email) error {
		addr := fmt.Sprintf("%s:%s", cfg.SMTPHost, cfg.SMTPPort)
		auth := smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
		return e.Send(addr, auth)
	}
	return n
}

func (n *EmailNotifier) NotifyTrainingComplete(_ context.Context, userID string, summary *model.TrainingSummary) error {
	subject := fmt.Sprintf("FinSight models trained for %s", userID)
	return n.deliver(subject, PlainText(FormatTrainingSummary(userID, summary)))
}

func (n *EmailNotifier) NotifyTrainingFailed(_ context.Context, userID string, err error) error {
	subject := fmt.Sprintf("FinSight training failed for %s", userID)
	return n.deliver(subject, PlainText(FormatTrainingFailed(userID, err)))
}

func (n *EmailNotifier) deliver(subject, body string) error {
	if len(n.cfg.Recipients) == 0 {
		return nil
	}
	e := email.NewEmail()
	e.From = n.cfg.SenderEmail
	e.To = n.cfg.Recipients
	e.Subject = subject
	e.Text = []byte(body + "\n\nFinSight")

	if err := n.send(e); err != nil {
		n.logger.Errorf("Failed to send email to %v: %v", n.cfg.Recipients, err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	n.logger.Infof("Email sent to %v: %s", n.cfg.Recipients, subject)
	return nil
}
