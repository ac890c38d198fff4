package report

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/sapliy/teamdesk/internal/directory"
)

// Payload is an assembled report ready for the transport.
type Payload struct {
	Subject string
	Text    string
	HTML    string
}

var reportTemplates = map[string]*template.Template{
	"activity": template.Must(template.New("activity").Parse(`Activity report for {{.Date}}

{{if .Activities}}{{range .Activities}}- {{.Timestamp.Format "15:04"}} {{.Actor}}: {{.Message}}
{{end}}{{else}}No activity recorded in this period.
{{end}}`)),
	"activity.html": template.Must(template.New("activity.html").Parse(`<h2>Activity report for {{.Date}}</h2>
{{if .Activities}}<ul>{{range .Activities}}<li><strong>{{.Timestamp.Format "15:04"}}</strong> {{.Actor}}: {{.Message}}</li>{{end}}</ul>{{else}}<p>No activity recorded in this period.</p>{{end}}`)),
	"resources": template.Must(template.New("resources").Parse(`Resource report for {{.Date}}

Inventory:
{{range .Resources}}- {{.Name}} ({{.Category}}): {{.Available}}/{{.Quantity}} available
{{end}}
Open requests: {{.OpenRequests}}
`)),
	"resources.html": template.Must(template.New("resources.html").Parse(`<h2>Resource report for {{.Date}}</h2>
<ul>{{range .Resources}}<li>{{.Name}} ({{.Category}}): {{.Available}}/{{.Quantity}} available</li>{{end}}</ul>
<p>Open requests: {{.OpenRequests}}</p>`)),
	"organization": template.Must(template.New("organization").Parse(`Organization report for {{.Date}}

{{range .Departments}}- {{.Name}}: {{.Headcount}} member(s), lead: {{.LeadName}}
{{end}}
Total employees: {{.TotalEmployees}}
`)),
	"organization.html": template.Must(template.New("organization.html").Parse(`<h2>Organization report for {{.Date}}</h2>
<ul>{{range .Departments}}<li>{{.Name}}: {{.Headcount}} member(s), lead: {{.LeadName}}</li>{{end}}</ul>
<p>Total employees: {{.TotalEmployees}}</p>`)),
}

type deptSummary struct {
	Name      string
	Headcount int
	LeadName  string
}

// BuildPayload assembles the report body for a report type from the
// current directory state.
func BuildPayload(rt Type, dir *directory.Directory, now time.Time) (Payload, error) {
	date := now.Format("2006-01-02")

	var data any
	switch rt {
	case TypeActivity:
		activities := dir.ListActivities()
		// Newest last reads naturally in an email; keep insertion order.
		data = map[string]any{"Date": date, "Activities": activities}
	case TypeResources:
		open := 0
		for _, r := range dir.ListRequests() {
			if r.Status == directory.RequestPending {
				open++
			}
		}
		data = map[string]any{"Date": date, "Resources": dir.ListResources(), "OpenRequests": open}
	case TypeOrganization:
		employees := dir.ListEmployees()
		var depts []deptSummary
		for _, d := range dir.ListDepartments() {
			s := deptSummary{Name: d.Name}
			for _, e := range employees {
				if e.DepartmentID == d.ID {
					s.Headcount++
				}
				if e.ID == d.LeadID {
					s.LeadName = e.Name
				}
			}
			depts = append(depts, s)
		}
		data = map[string]any{"Date": date, "Departments": depts, "TotalEmployees": len(employees)}
	default:
		return Payload{}, fmt.Errorf("unknown report type %q", rt)
	}

	text, err := render(string(rt), data)
	if err != nil {
		return Payload{}, err
	}
	html, err := render(string(rt)+".html", data)
	if err != nil {
		return Payload{}, err
	}

	return Payload{
		Subject: fmt.Sprintf("TeamDesk %s report - %s", rt, date),
		Text:    text,
		HTML:    html,
	}, nil
}

func render(name string, data any) (string, error) {
	tmpl, ok := reportTemplates[name]
	if !ok {
		return "", fmt.Errorf("no template %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
