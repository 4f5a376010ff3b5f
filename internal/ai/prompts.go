package ai

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompts/location.md
var locationPromptRaw string

//go:embed prompts/classify.md
var classifyPromptRaw string

// Parsed once at package init; reused on every call.
var (
	locationTemplate = template.Must(template.New("location").Parse(locationPromptRaw))
	classifyTemplate = template.Must(template.New("classify").Parse(classifyPromptRaw))
)

// LocationPrompt renders the batch country-inference prompt for the given raw
// location strings, one bullet per location.
func LocationPrompt(locations []string) (string, error) {
	var buf bytes.Buffer
	if err := locationTemplate.Execute(&buf, struct{ Locations []string }{locations}); err != nil {
		return "", fmt.Errorf("render location prompt: %w", err)
	}
	return buf.String(), nil
}

// ClassificationPrompt renders the single-title prompt the fine-tuned job
// function classifier was trained on.
func ClassificationPrompt(title string) (string, error) {
	var buf bytes.Buffer
	if err := classifyTemplate.Execute(&buf, struct{ Title string }{title}); err != nil {
		return "", fmt.Errorf("render classification prompt: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
