package domain

import "context"

// ContactReasons lists the subjects offered by the contact form.
var ContactReasons = []string{
	"Información sobre certificaciones",
	"Consultas sobre cursos específicos",
	"Cotizaciones para empresas",
	"Soporte técnico",
	"Colaboración y alianzas",
	"Otro",
}

// ContactSubmission is the payload accepted by POST /api/contacto.
type ContactSubmission struct {
	Name              string `json:"nombre" form:"nombre"`
	Email             string `json:"email" form:"email"`
	Company           string `json:"empresa,omitempty" form:"empresa"`
	Reason            string `json:"motivo" form:"motivo"`
	Message           string `json:"mensaje" form:"mensaje"`
	Newsletter        bool   `json:"newsletter" form:"newsletter"`
	VerificationToken string `json:"cf-turnstile-response" form:"cf-turnstile-response"`
}

// MissingRequired reports whether any required field is blank.
func (s ContactSubmission) MissingRequired() bool {
	return isBlank(s.Name) || isBlank(s.Email) || isBlank(s.Reason) || isBlank(s.Message)
}

// ContactReceipt identifies a relayed message.
type ContactReceipt struct {
	TicketID string `json:"ticket_id"`
}

// ContactService verifies and relays contact submissions.
type ContactService interface {
	Submit(ctx context.Context, sub ContactSubmission, remoteIP string) (*ContactReceipt, error)
}
