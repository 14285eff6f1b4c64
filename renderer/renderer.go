// Package renderer turns pipeline results into markdown reports for the CLI.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed templates/*.md
var templates embed.FS

// RenderSummary renders a pipeline run summary to a markdown string.
func RenderSummary(s *SummaryReport) string {
	partials := map[string]string{
		"summary_title":    "summary_title.md",
		"summary_counts":   "summary_counts.md",
		"summary_failures": "summary_failures.md",
	}
	return renderTemplate("summary", "summary.md", partials, s)
}

// RenderValidation renders a consistency report to a markdown string.
func RenderValidation(v *ValidationReport) string {
	partials := map[string]string{
		"validation_title":     "validation_title.md",
		"validation_encodings": "validation_encodings.md",
		"validation_findings":  "validation_findings.md",
	}
	return renderTemplate("validation", "validation.md", partials, v)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			var readErr error
			content, readErr = fs.ReadFile(templates, "templates/"+file)
			if readErr != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, readErr)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
