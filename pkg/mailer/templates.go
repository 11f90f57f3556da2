package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	ttemplate "text/template"
)

const (
	TemplateJobReceived            = "job_received"
	TemplateAssignmentNotice       = "assignment_notice"
	TemplateAssignmentConfirmation = "assignment_confirmation"
	TemplateAssignmentInvite       = "assignment_invite"
	TemplateNewJobAdmin            = "new_job_admin"
)

type emailTemplate struct {
	subject string
	body    *template.Template
}

const layout = `<!DOCTYPE html><html lang="de"><body style="font-family:Arial,sans-serif;color:#1f2937">{{template "content" .}}<p style="color:#6b7280;font-size:12px">Fahrerexpress</p></body></html>`

func mustTemplate(name, content string) *template.Template {
	t := template.Must(template.New(name).Parse(layout))
	return template.Must(t.New("content").Parse(content))
}

var templates = map[string]emailTemplate{
	TemplateJobReceived: {
		subject: "Ihre Anfrage bei Fahrerexpress",
		body: mustTemplate(TemplateJobReceived, `
<h2>Vielen Dank, {{.CustomerName}}!</h2>
<p>Wir haben Ihre Anfrage für den Einsatz in <strong>{{.Einsatzort}}</strong> erhalten und melden uns schnellstmöglich.</p>`),
	},
	TemplateAssignmentNotice: {
		subject: "Neuer Einsatz: {{.Einsatzort}}",
		body: mustTemplate(TemplateAssignmentNotice, `
<h2>Hallo {{.DriverName}},</h2>
<p>Sie wurden für einen Einsatz in <strong>{{.Einsatzort}}</strong> eingeteilt.</p>
<ul>
<li>Zeitraum: {{.Period}}</li>
<li>Fahrzeug: {{.VehicleType}}</li>
<li>Vergütung: {{.Rate}}</li>
</ul>
{{if .Note}}<p>Hinweis: {{.Note}}</p>{{end}}`),
	},
	TemplateAssignmentConfirmation: {
		subject: "Fahrer für Ihren Einsatz bestätigt",
		body: mustTemplate(TemplateAssignmentConfirmation, `
<h2>Guten Tag {{.CustomerName}},</h2>
<p>Für Ihren Einsatz in <strong>{{.Einsatzort}}</strong> ({{.Period}}) haben wir {{.DriverName}} eingeteilt.</p>`),
	},
	TemplateAssignmentInvite: {
		subject: "Einsatzanfrage: {{.Einsatzort}}",
		body: mustTemplate(TemplateAssignmentInvite, `
<h2>Hallo {{.DriverName}},</h2>
<p>Haben Sie Zeit für einen Einsatz in <strong>{{.Einsatzort}}</strong> ({{.Period}})?</p>
<p>
<a href="{{.AcceptURL}}" style="background:#16a34a;color:#fff;padding:10px 16px;text-decoration:none">Zusagen</a>
&nbsp;
<a href="{{.DeclineURL}}" style="background:#dc2626;color:#fff;padding:10px 16px;text-decoration:none">Absagen</a>
</p>
<p>Der Link ist gültig bis {{.ExpiresAt}}.</p>`),
	},
	TemplateNewJobAdmin: {
		subject: "Neue Anfrage: {{.Einsatzort}}",
		body: mustTemplate(TemplateNewJobAdmin, `
<h2>Neue Einsatzanfrage</h2>
<ul>
<li>Kunde: {{.CustomerName}}{{if .Company}} ({{.Company}}){{end}}</li>
<li>E-Mail: {{.CustomerEmail}}</li>
<li>Einsatzort: {{.Einsatzort}}</li>
<li>Zeitraum: {{.Period}}</li>
</ul>
<p>Job-ID: {{.JobID}}</p>`),
	},
}

// Render builds a message for one of the Template* names. Subjects are
// plain text and are filled from the same vars.
func Render(name, to string, vars map[string]any) (Message, error) {
	tpl, ok := templates[name]
	if !ok {
		return Message{}, fmt.Errorf("unknown email template %q", name)
	}

	var body bytes.Buffer
	if err := tpl.body.ExecuteTemplate(&body, name, vars); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", name, err)
	}

	subject, err := renderSubject(tpl.subject, vars)
	if err != nil {
		return Message{}, fmt.Errorf("render %s subject: %w", name, err)
	}

	return Message{To: to, Subject: subject, HTML: body.String()}, nil
}

func renderSubject(subject string, vars map[string]any) (string, error) {
	if !strings.Contains(subject, "{{") {
		return subject, nil
	}
	t, err := ttemplate.New("subject").Option("missingkey=zero").Parse(subject)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	if err := t.Execute(&out, vars); err != nil {
		return "", err
	}
	return out.String(), nil
}
