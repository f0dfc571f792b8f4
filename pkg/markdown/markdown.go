// Package markdown renders the documents produced by the documentation tools.
package markdown

import (
	"strings"
	"text/template"
)

// Section is one heading with its body.
type Section struct {
	Heading string
	Content string
}

var docTmpl = template.Must(template.New("doc").Parse(`# {{.Title}}
{{range .Sections}}
## {{.Heading}}

{{.Content}}
{{end}}`))

var readmeTmpl = template.Must(template.New("readme").Parse(`# {{.ProjectName}}

{{.Description}}
{{- if .Features}}

## Features
{{range .Features}}
- {{.}}
{{- end}}
{{- end}}

## Installation

Clone the repository and install the dependencies the project declares.

## Usage

Describe how to run {{.ProjectName}} here.

## License

See the LICENSE file for details.
`))

// Document renders a titled document with one second-level heading per section.
func Document(title string, sections []Section) (string, error) {
	var b strings.Builder
	err := docTmpl.Execute(&b, struct {
		Title    string
		Sections []Section
	}{Title: title, Sections: sections})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// Readme renders a project README. The Features section is omitted when empty.
func Readme(projectName, description string, features []string) (string, error) {
	var b strings.Builder
	err := readmeTmpl.Execute(&b, struct {
		ProjectName string
		Description string
		Features    []string
	}{ProjectName: projectName, Description: description, Features: features})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
