package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

var contactPasswordTmpl = template.Must(template.New("contact-password").Parse(`<html>
    <body>
        <p>Dear {{.Name}},</p>
        <p>Your new password is: <b>{{.Password}}</b></p>
        <h4>Please, keep this password in secret!</h4>
        <p>Callpurity</p>
    </body>
</html>`))

var feedbackTmpl = template.Must(template.New("feedback").Parse(`<html>
    <body>
        <b>Company Name: </b>{{.CompanyName}}<br/>
        <b>Contact Person Name: </b>{{.FirstName}}<br/>
        {{- if .GoLiveDate}}
        <b>Go Live Date: </b>{{.GoLiveDate}}<br/>
        {{- end}}
        <b>Description:</b><br/>
        {{.Description}}
    </body>
</html>`))

// ContactPassword renders the email carrying a new contact person's password.
func ContactPassword(name, password string) (string, error) {
	return render(contactPasswordTmpl, struct{ Name, Password string }{name, password})
}

// FeedbackData is the content of a "Moves, Adds & Changes" email.
type FeedbackData struct {
	CompanyName string
	FirstName   string
	GoLiveDate  string
	Description string
}

// Feedback renders the "Moves, Adds & Changes" email.
func Feedback(d FeedbackData) (string, error) {
	return render(feedbackTmpl, d)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mailer: render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
