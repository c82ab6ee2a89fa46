package contact

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iqengi/site/internal/domain"
)

// User-facing messages of the contact endpoint.
const (
	SuccessMessage       = "Mensaje enviado correctamente"
	notConfiguredMessage = "Servicio de email no configurado"
	verificationMessage  = "Falló la verificación de CAPTCHA."
	requiredMessage      = "Todos los campos requeridos deben completarse"
	invalidEmailMessage  = "Email inválido"
	sendFailedMessage    = "Error al enviar el mensaje"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ServiceConfig holds the sender and recipient of relayed messages.
type ServiceConfig struct {
	From      string
	Recipient string
}

// ContactService implements domain.ContactService.
type ContactService struct {
	verifier  Verifier
	mailer    Mailer
	cfg       ServiceConfig
	logger    *slog.Logger
	now       func() time.Time
	newTicket func() string
}

// NewContactService creates a ContactService. A nil mailer means the email
// provider is not configured and every submission fails with Unavailable.
func NewContactService(verifier Verifier, mailer Mailer, cfg ServiceConfig, logger *slog.Logger) *ContactService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactService{
		verifier:  verifier,
		mailer:    mailer,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		newTicket: uuid.NewString,
	}
}

// Configured reports whether an email provider is available.
func (s *ContactService) Configured() bool {
	return s.mailer != nil
}

// Submit verifies the token, validates the submission and relays it by
// email. Checks run in the order the endpoint has always applied them:
// provider, human verification, required fields, email format.
func (s *ContactService) Submit(ctx context.Context, sub domain.ContactSubmission, remoteIP string) (*domain.ContactReceipt, error) {
	if !s.Configured() {
		s.logger.ErrorContext(ctx, "contact: email provider api key is not configured")
		return nil, domain.NewAppError(domain.CodeUnavailable, notConfiguredMessage, nil)
	}

	ok, err := s.verifier.Verify(ctx, sub.VerificationToken, remoteIP)
	if err != nil {
		s.logger.WarnContext(ctx, "contact: verification request failed", slog.String("error", err.Error()))
		return nil, domain.NewAppError(domain.CodeVerification, verificationMessage, err)
	}
	if !ok {
		return nil, domain.NewAppError(domain.CodeVerification, verificationMessage, nil)
	}

	sub = normalize(sub)
	if sub.MissingRequired() {
		return nil, domain.NewAppError(domain.CodeValidation, requiredMessage, nil)
	}
	if !emailPattern.MatchString(sub.Email) {
		return nil, domain.NewAppError(domain.CodeValidation, invalidEmailMessage, nil)
	}

	ticket := s.newTicket()
	html, err := renderEmail(sub, ticket, s.now())
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, sendFailedMessage, err)
	}

	err = s.mailer.Send(ctx, Email{
		From:    s.cfg.From,
		To:      []string{s.cfg.Recipient},
		Subject: emailSubject(sub.Email, ticket),
		HTML:    html,
		ReplyTo: sub.Email,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "contact: send email failed",
			slog.String("ticket", ticket),
			slog.String("error", err.Error()),
		)
		return nil, domain.NewAppError(domain.CodeUnavailable, sendFailedMessage, err)
	}

	s.logger.InfoContext(ctx, "contact: message relayed",
		slog.String("ticket", ticket),
		slog.String("reason", sub.Reason),
		slog.Bool("newsletter", sub.Newsletter),
	)
	return &domain.ContactReceipt{TicketID: ticket}, nil
}

func normalize(sub domain.ContactSubmission) domain.ContactSubmission {
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Company = strings.TrimSpace(sub.Company)
	sub.Reason = strings.TrimSpace(sub.Reason)
	sub.Message = strings.TrimSpace(sub.Message)
	return sub
}

// errorMessage returns the message shown for a failed submission. Contact
// errors carry their own user-facing text, including provider failures.
func errorMessage(err error) string {
	var appErr *domain.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return sendFailedMessage
}

var _ domain.ContactService = (*ContactService)(nil)
