package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var defaultSubjects = map[string]string{
	"invoice_issued": "Tax invoice {{.invoice_number}}",
}

func render(name string, data map[string]any) (string, string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name+".html", data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	subject := "Notification"
	if subj, ok := data["subject"].(string); ok && subj != "" {
		subject = subj
	} else if pattern, ok := defaultSubjects[name]; ok {
		var out bytes.Buffer
		if err := template.Must(template.New("subject").Parse(pattern)).Execute(&out, data); err == nil {
			subject = out.String()
		}
	}
	return subject, body.String(), nil
}
