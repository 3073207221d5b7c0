package service

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/templui/filesmanager/internal/markdown"
)

//go:embed emails/*.md
var emailFS embed.FS

var emailTemplates = template.Must(template.ParseFS(emailFS, "emails/*.md"))

type renderedEmail struct {
	Subject string
	HTML    string
}

type welcomeEmailData struct {
	Name    string
	Email   string
	AppName string
}

func welcomeEmailTemplate(parser *markdown.Parser, email, appName string) (*renderedEmail, error) {
	return renderEmail(parser, "welcome.md", welcomeEmailData{
		Name:    displayName(email),
		Email:   email,
		AppName: appName,
	})
}

// renderEmail fills a Markdown template and renders it to HTML. The subject
// comes from the template's front matter.
func renderEmail(parser *markdown.Parser, name string, data any) (*renderedEmail, error) {
	var src bytes.Buffer
	err := emailTemplates.ExecuteTemplate(&src, name, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s: %w", name, err)
	}

	doc, err := parser.Render(src.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}

	subject := doc.String("subject")
	if subject == "" {
		return nil, fmt.Errorf("%s has no subject", name)
	}

	return &renderedEmail{Subject: subject, HTML: string(doc.HTML)}, nil
}

// displayName turns the local part of an address into a greeting name,
// "jane.doe@example.com" becomes "Jane Doe".
func displayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	words := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(words) == 0 {
		return email
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}
