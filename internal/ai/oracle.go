package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/amishk599/jobmerge/internal/model"
)

// Oracle binds one completion backend to the two prompt modes the pipeline
// uses: single-title job function classification and batched country inference.
type Oracle struct {
	completer       model.Completer
	classifierModel string
	locationModel   string
}

// NewOracle creates an Oracle. classifierModel is the fine-tuned job function
// model; locationModel answers the batched location prompt.
func NewOracle(completer model.Completer, classifierModel, locationModel string) *Oracle {
	return &Oracle{
		completer:       completer,
		classifierModel: classifierModel,
		locationModel:   locationModel,
	}
}

// Classify returns the trimmed label the classifier model produced for title.
// The label is not checked against the allow-list here.
func (o *Oracle) Classify(ctx context.Context, title string) (string, error) {
	prompt, err := ClassificationPrompt(title)
	if err != nil {
		return "", err
	}
	out, err := o.completer.Complete(ctx, o.classifierModel, prompt)
	if err != nil {
		return "", fmt.Errorf("classify %q: %w", title, err)
	}
	return strings.TrimSpace(out), nil
}

// InferCountries asks the location model to map each raw location to a
// country and returns the raw response text, one "location -> country" per line.
func (o *Oracle) InferCountries(ctx context.Context, locations []string) (string, error) {
	prompt, err := LocationPrompt(locations)
	if err != nil {
		return "", err
	}
	out, err := o.completer.Complete(ctx, o.locationModel, prompt)
	if err != nil {
		return "", fmt.Errorf("infer countries for %d locations: %w", len(locations), err)
	}
	return out, nil
}
