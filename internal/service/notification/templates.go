package notification

import (
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
)

// content is one row of the template table. The HTML body is optional.
type content struct {
	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

const generic = "generic"

const milestoneText = `{{if .Event.MilestoneName}}
Milestone completed: {{.Event.MilestoneName}}{{if .Event.NextStep}}
Next step: {{.Event.NextStep}}{{end}}
{{end}}`

const milestoneHTML = `{{if .Event.MilestoneName}}<p>Milestone completed: <strong>{{.Event.MilestoneName}}</strong></p>{{if .Event.NextStep}}<p>Next step: {{.Event.NextStep}}</p>{{end}}{{end}}`

const footerText = `
{{.Company}}{{if .SupportEmail}} - {{.SupportEmail}}{{end}}
`

const footerHTML = `<p>{{.Company}}{{if .SupportEmail}} - <a href="mailto:{{.SupportEmail}}">{{.SupportEmail}}</a>{{end}}</p>`

var table = map[string]content{
	string(model.InstallationStatusScheduled): build(
		`Your solar installation {{.Event.InstallationNumber}} is scheduled`,
		`Hello {{.Name}},

Your solar installation at {{.Event.Address}} is scheduled{{with .Event.ScheduledDate}} for {{.Format "January 2, 2006"}}{{end}}.
`+milestoneText+footerText,
		`<p>Hello {{.Name}},</p><p>Your solar installation at {{.Event.Address}} is scheduled{{with .Event.ScheduledDate}} for {{.Format "January 2, 2006"}}{{end}}.</p>`+milestoneHTML+footerHTML,
	),
	string(model.InstallationStatusInProgress): build(
		`Work has started on your solar installation {{.Event.InstallationNumber}}`,
		`Hello {{.Name}},

Our crew is now working on your solar installation at {{.Event.Address}}.
`+milestoneText+footerText,
		`<p>Hello {{.Name}},</p><p>Our crew is now working on your solar installation at {{.Event.Address}}.</p>`+milestoneHTML+footerHTML,
	),
	string(model.InstallationStatusCompleted): build(
		`Your solar installation {{.Event.InstallationNumber}} is complete`,
		`Hello {{.Name}},

Your solar installation at {{.Event.Address}} is complete. Thank you for choosing {{.Company}}.
`+milestoneText+footerText,
		`<p>Hello {{.Name}},</p><p>Your solar installation at {{.Event.Address}} is complete. Thank you for choosing {{.Company}}.</p>`+milestoneHTML+footerHTML,
	),
	generic: build(
		`Update on your solar installation {{.Event.InstallationNumber}}`,
		`Hello {{.Name}},

There is an update on your solar installation at {{.Event.Address}}. Its current status is {{.Status}}.
`+milestoneText+footerText,
		`<p>Hello {{.Name}},</p><p>There is an update on your solar installation at {{.Event.Address}}. Its current status is {{.Status}}.</p>`+milestoneHTML+footerHTML,
	),
}

func build(subject, text, html string) content {
	return content{
		subject: texttemplate.Must(texttemplate.New("subject").Parse(subject)),
		text:    texttemplate.Must(texttemplate.New("text").Parse(text)),
		html:    htmltemplate.Must(htmltemplate.New("html").Parse(html)),
	}
}

func lookup(status model.InstallationStatus) content {
	if c, ok := table[string(status)]; ok {
		return c
	}
	return table[generic]
}
