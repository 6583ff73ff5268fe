package email

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/MattMattw/Eventhub---your-life-your-event/internal/notifier"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/repository"
	"github.com/MattMattw/Eventhub---your-life-your-event/pkg/applog"
	"github.com/MattMattw/Eventhub---your-life-your-event/pkg/config"
	"github.com/MattMattw/Eventhub---your-life-your-event/pkg/utils"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type smtpSender struct {
	cfg      config.SMTP
	auditLog repository.EmailLogRepository
	cb       *gobreaker.CircuitBreaker
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewSMTPSender builds the immediate-delivery path. auditLog may be nil in
// tests; delivery still works, it just is not recorded.
func NewSMTPSender(cfg config.SMTP, auditLog repository.EmailLogRepository, logger *zap.Logger) notifier.Sender {
	return &smtpSender{
		cfg:      cfg,
		auditLog: auditLog,
		cb:       utils.NewBreaker("smtp", logger),
		logger:   logger,
		tracer:   otel.Tracer("email_sender"),
	}
}

// Send records the attempt to the audit log before touching the transport.
// Missing SMTP credentials downgrade the send to a logged no-op so the
// business operation that triggered it is never blocked.
func (s *smtpSender) Send(ctx context.Context, msg notifier.Message) error {
	ctx, span := s.tracer.Start(ctx, "smtp.Send")
	defer span.End()

	span.SetAttributes(
		attribute.String("to", msg.To),
		attribute.String("subject", msg.Subject),
	)

	var logID int64
	if s.auditLog != nil {
		id, err := s.auditLog.Record(ctx, msg.To, msg.Subject, false)
		if err != nil {
			applog.Warn(
				ctx,
				s.logger,
				"Failed to record email attempt",
				zap.String("to", msg.To),
				zap.Error(err),
			)
		} else {
			logID = id
		}
	}

	if s.cfg.User == "" || s.cfg.Password == "" {
		applog.Warn(
			ctx,
			s.logger,
			"SMTP credentials not set, skipping email",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
		)

		return nil
	}

	from := s.cfg.From
	if from == "" {
		from = s.cfg.User
	}

	body := msg.HTML
	contentType := "text/html"
	if body == "" {
		body = msg.Text
		contentType = "text/plain"
	}

	headers := fmt.Sprintf("Subject: %s\nMIME-version: 1.0;\nContent-Type: %s; charset=\"UTF-8\";\n\n", msg.Subject, contentType)
	payload := []byte(headers + body)
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)

	_, err := utils.ExecuteWithBreaker(s.cb, func() (any, error) {
		return nil, smtp.SendMail(addr, auth, from, []string{msg.To}, payload)
	})
	if err != nil {
		span.RecordError(err)

		applog.Error(
			ctx,
			s.logger,
			"Error sending email",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)

		if s.auditLog != nil && logID != 0 {
			if dbErr := s.auditLog.MarkFailed(ctx, logID, err.Error()); dbErr != nil {
				applog.Warn(ctx, s.logger, "Failed to mark email attempt failed", zap.Error(dbErr))
			}
		}

		return fmt.Errorf("failed to send mail: %v", err)
	}

	if s.auditLog != nil && logID != 0 {
		if dbErr := s.auditLog.MarkSent(ctx, logID); dbErr != nil {
			applog.Warn(ctx, s.logger, "Failed to mark email attempt sent", zap.Error(dbErr))
		}
	}

	applog.Info(
		ctx,
		s.logger,
		"Email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)

	return nil
}
