package mail

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"
)

var (
	confirmationTmpl = template.Must(template.New("confirmation").Parse(
		`<h1>Thank you for your registration</h1>
<p>To finish registration please follow the link below:
<a href="{{.Link}}">complete registration</a>
</p>`))

	recoveryTmpl = template.Must(template.New("recovery").Parse(
		`<h1>Password recovery</h1>
<p>To finish password recovery please follow the link below:
<a href="{{.Link}}">recovery password</a>
</p>`))
)

const (
	confirmationSubject = "Confirm your registration"
	recoverySubject     = "Password recovery"
)

// Links builds the frontend URLs a code is delivered with.
type Links struct {
	base string
}

func NewLinks(frontendURL string) Links {
	return Links{base: strings.TrimSuffix(frontendURL, "/")}
}

func (l Links) Confirmation(code string) string {
	return l.base + "/confirm-email?code=" + url.QueryEscape(code)
}

func (l Links) Recovery(code string) string {
	return l.base + "/password-recovery?recoveryCode=" + url.QueryEscape(code)
}

func render(tmpl *template.Template, link string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Link string }{Link: link}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
