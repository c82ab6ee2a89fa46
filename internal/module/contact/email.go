package contact

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"github.com/iqengi/site/internal/domain"
)

const emailLayout = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background-color: #2563eb; color: white; padding: 20px; border-radius: 5px 5px 0 0; }
.content { background-color: #f9fafb; padding: 20px; border-radius: 0 0 5px 5px; }
.field { margin-bottom: 15px; }
.label { font-weight: bold; color: #1f2937; }
.value { margin-top: 5px; padding: 10px; background-color: white; border-radius: 3px; }
.footer { margin-top: 20px; padding-top: 20px; border-top: 1px solid #e5e7eb; font-size: 12px; color: #6b7280; }
</style>
</head>
<body>
<div class="container">
  <div class="header"><h2 style="margin: 0;">Nuevo mensaje de usuario - IqEngi</h2></div>
  <div class="content">
    <div class="field"><div class="label">Nombre:</div><div class="value">{{.Name}}</div></div>
    <div class="field"><div class="label">Email:</div><div class="value">{{.Email}}</div></div>
    {{- if .Company}}
    <div class="field"><div class="label">Empresa:</div><div class="value">{{.Company}}</div></div>
    {{- end}}
    <div class="field"><div class="label">Motivo de consulta:</div><div class="value">{{.Reason}}</div></div>
    <div class="field"><div class="label">Mensaje:</div><div class="value">{{range $i, $line := .Lines}}{{if $i}}<br>{{end}}{{$line}}{{end}}</div></div>
    <div class="field"><div class="label">Newsletter:</div><div class="value">{{if .Newsletter}}Sí, acepta recibir información{{else}}No{{end}}</div></div>
    <div class="footer">
      <p>Este mensaje fue enviado desde el formulario de contacto de IqEngi.</p>
      <p>Fecha: {{.Date}}</p>
      <p>Ticket: {{.TicketID}}</p>
    </div>
  </div>
</div>
</body>
</html>
`

var emailTemplate = template.Must(template.New("contact-email").Parse(emailLayout))

type emailData struct {
	domain.ContactSubmission
	Lines    []string
	Date     string
	TicketID string
}

// lima is the time zone of the dates printed in contact emails.
var lima = loadLocation("America/Lima", -5*60*60)

func loadLocation(name string, fallbackOffset int) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, fallbackOffset)
	}
	return loc
}

// renderEmail builds the HTML body. Every submitted value is escaped; line
// breaks in the message become <br> tags.
func renderEmail(sub domain.ContactSubmission, ticketID string, at time.Time) (string, error) {
	message := strings.ReplaceAll(sub.Message, "\r\n", "\n")
	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, emailData{
		ContactSubmission: sub,
		Lines:             strings.Split(message, "\n"),
		Date:              at.In(lima).Format("2/1/2006, 15:04:05"),
		TicketID:          ticketID,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func emailSubject(email, ticketID string) string {
	return "Consulta de: " + email + " - Ticket " + ticketID
}
