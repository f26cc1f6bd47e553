package notify

import (
	"bytes"
	"errors"
	"text/template"
)

// DefaultTemplate is the notification body sent when a seismograph is taken
// out of service by an order closure.
const DefaultTemplate = `[Seismograph Out of Service]
Seismograph ID: {{.SeismographID}}
Station: {{.Station}}
New status: {{.NewStatus}}
Registered at: {{.RegisteredAt}}
Closed by: {{.ClosedBy}}
Reasons:
{{- range .Reasons}}
- {{.Description}}: {{.Comment}}
{{- end}}`

// ReasonLine is one reason rendered in the notification body.
type ReasonLine struct {
	Description string
	Comment     string
}

// TemplateData provides fields for rendering notification content.
type TemplateData struct {
	SeismographID string
	Station       string
	NewStatus     string
	RegisteredAt  string
	ClosedBy      string
	Reasons       []ReasonLine
}

// Template renders notification content.
type Template struct {
	tpl *template.Template
}

// NewTemplate parses a notification template, falling back to
// DefaultTemplate.
func NewTemplate(tpl string) (*Template, error) {
	if tpl == "" {
		tpl = DefaultTemplate
	}
	parsed, err := template.New("repair-notification").Parse(tpl)
	if err != nil {
		return nil, err
	}
	return &Template{tpl: parsed}, nil
}

// Render applies the template to data.
func (t *Template) Render(data TemplateData) (string, error) {
	if t == nil || t.tpl == nil {
		return "", errors.New("repair template: nil")
	}
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
