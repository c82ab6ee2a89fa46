package newsletter

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/iqengi/site/internal/domain"
)

// User-facing messages of the subscription flow.
const (
	DefaultSuccessMessage = "¡Te has suscrito correctamente!"
	defaultRejectMessage  = "Ocurrió un error al suscribirse."
	connectionMessage     = "Error de conexión. Inténtalo de nuevo."
	invalidEmailMessage   = "Ingresa un email válido."
)

// NewsletterService subscribes emails through the backend mutation.
type NewsletterService struct {
	subscriber domain.NewsletterSubscriber
	source     domain.NewsletterSource
	logger     *slog.Logger
}

// NewNewsletterService creates a NewsletterService. source is used when a
// request does not name one.
func NewNewsletterService(subscriber domain.NewsletterSubscriber, source domain.NewsletterSource, logger *slog.Logger) *NewsletterService {
	if logger == nil {
		logger = slog.Default()
	}
	if source == "" {
		source = domain.NewsletterWebFooter
	}
	return &NewsletterService{subscriber: subscriber, source: source, logger: logger}
}

// Subscribe runs the mutation. A backend result with success false becomes
// a Rejected error carrying the backend message; transport failures are
// Unavailable. On success the result message defaults to
// DefaultSuccessMessage.
func (s *NewsletterService) Subscribe(ctx context.Context, email string, source domain.NewsletterSource) (*domain.NewsletterResult, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil || strings.ContainsAny(email, "<> ") {
		return nil, domain.NewAppError(domain.CodeValidation, invalidEmailMessage, err)
	}
	if source == "" {
		source = s.source
	}

	res, err := s.subscriber.Subscribe(ctx, email, source)
	if err != nil {
		s.logger.WarnContext(ctx, "newsletter: subscribe failed",
			slog.String("source", string(source)),
			slog.String("error", err.Error()),
		)
		return nil, domain.NewAppError(domain.CodeUnavailable, connectionMessage, err)
	}
	if !res.Success {
		msg := strings.TrimSpace(res.Message)
		if msg == "" {
			msg = defaultRejectMessage
		}
		return nil, domain.NewAppError(domain.CodeRejected, msg, nil)
	}

	out := *res
	if strings.TrimSpace(out.Message) == "" {
		out.Message = DefaultSuccessMessage
	}
	s.logger.InfoContext(ctx, "newsletter: subscribed", slog.String("source", string(source)))
	return &out, nil
}

var _ domain.NewsletterSubscriber = (*NewsletterService)(nil)
