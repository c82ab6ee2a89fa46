package contact

import "github.com/iqengi/site/internal/domain"

// SubmitResponse is the body of POST /api/contacto.
type SubmitResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	TicketID string `json:"ticket_id,omitempty"`
}

// SubmitForm is the htmx form post of the contact page.
type SubmitForm struct {
	Name              string `form:"nombre" binding:"max=120"`
	Email             string `form:"email" binding:"max=254"`
	Company           string `form:"empresa" binding:"max=120"`
	Reason            string `form:"motivo" binding:"max=120"`
	Message           string `form:"mensaje" binding:"max=5000"`
	Newsletter        bool   `form:"newsletter"`
	VerificationToken string `form:"cf-turnstile-response"`
}

func (f SubmitForm) toDomain() domain.ContactSubmission {
	return domain.ContactSubmission{
		Name:              f.Name,
		Email:             f.Email,
		Company:           f.Company,
		Reason:            f.Reason,
		Message:           f.Message,
		Newsletter:        f.Newsletter,
		VerificationToken: f.VerificationToken,
	}
}
