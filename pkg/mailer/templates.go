package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

// TemplateWelcome greets a newly registered student.
const TemplateWelcome = "welcome"

var welcomeHTML = template.Must(template.New("welcome_html").Parse(`
<html>
  <body style="font-family: sans-serif; color: #1f2937;">
    <h2>Welcome to the IIITDMJ Student Portal{{if .Name}}, {{.Name}}{{end}}!</h2>
    <p>Your account {{.Email}} is ready.</p>
    {{if .RollNumber}}
    <p>We recognized your student details from your email address:</p>
    <ul>
      <li>Roll number: {{.RollNumber}}</li>
      <li>Batch: 20{{.Batch}}</li>
      <li>Branch: {{.BranchName}}</li>
    </ul>
    {{end}}
    <p>Sign in any time at the portal dashboard.</p>
  </body>
</html>
`))

var welcomeText = texttemplate.Must(texttemplate.New("welcome_text").Parse(
	`Welcome to the IIITDMJ Student Portal{{if .Name}}, {{.Name}}{{end}}!

Your account {{.Email}} is ready.
{{if .RollNumber}}Roll number: {{.RollNumber}} | Batch: 20{{.Batch}} | Branch: {{.BranchName}}
{{end}}`))

// Render produces subject, text and html bodies for a named template.
func Render(name string, data map[string]any) (subject, text, html string, err error) {
	switch name {
	case TemplateWelcome:
		var hb, tb bytes.Buffer
		if err = welcomeHTML.Execute(&hb, data); err != nil {
			return "", "", "", err
		}
		if err = welcomeText.Execute(&tb, data); err != nil {
			return "", "", "", err
		}
		return "Welcome to the IIITDMJ Student Portal", tb.String(), hb.String(), nil
	default:
		return "", "", "", fmt.Errorf("unknown email template: %s", name)
	}
}
