package mail

import (
	"bytes"
	"text/template"
)

// Templates maps template ID to body. Each entry has a plain-text and an
// HTML variant; the HTML key is the ID with an ".html" suffix.
var Templates = map[string]string{
	"welcome": `
Hello {{.Name}},

Welcome aboard! You have been added to the {{.Department}} team.

Your department lead is {{.LeadName}} ({{.LeadEmail}}) - reach out to
them for equipment, access or anything else you need to get started.

Best regards,
The TeamDesk Team
`,
	"welcome.html": `
<h2>Welcome aboard, {{.Name}}!</h2>
<p>You have been added to the <strong>{{.Department}}</strong> team.</p>
<p>Your department lead is {{.LeadName}}
(<a href="mailto:{{.LeadEmail}}">{{.LeadEmail}}</a>) - reach out to them
for equipment, access or anything else you need to get started.</p>
`,
	"request_alert": `
Hello {{.LeadName}},

{{.RequesterName}} has requested {{.Quantity}}x {{.ResourceName}}.

{{if .Note}}Note from the requester: {{.Note}}

{{end}}Please review the request in TeamDesk.
`,
	"request_alert.html": `
<p>Hello {{.LeadName}},</p>
<p><strong>{{.RequesterName}}</strong> has requested
<strong>{{.Quantity}}x {{.ResourceName}}</strong>.</p>
{{if .Note}}<p>Note from the requester: {{.Note}}</p>{{end}}
<p>Please review the request in TeamDesk.</p>
`,
	"test": `
This is a test email from TeamDesk.

If you received this, your email configuration is working.
`,
	"test.html": `
<p>This is a test email from <strong>TeamDesk</strong>.</p>
<p>If you received this, your email configuration is working.</p>
`,
}

// RenderTemplate renders a template by ID with the given data.
func RenderTemplate(templateID string, data map[string]string) (string, error) {
	content, ok := Templates[templateID]
	if !ok {
		return "Notification: " + templateID, nil
	}

	tmpl, err := template.New(templateID).Parse(content)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
