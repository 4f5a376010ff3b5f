package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type recordingCompleter struct {
	model  string
	prompt string
	reply  string
	err    error
}

func (r *recordingCompleter) Complete(_ context.Context, model, prompt string) (string, error) {
	r.model = model
	r.prompt = prompt
	return r.reply, r.err
}

func TestOracle_ClassifyTrimsAndUsesClassifierModel(t *testing.T) {
	c := &recordingCompleter{reply: "  Design, Art, and Creative\n"}
	o := NewOracle(c, "ft:classifier", "gpt-4o-mini")

	got, err := o.Classify(context.Background(), "illustrator")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Design, Art, and Creative" {
		t.Errorf("label = %q", got)
	}
	if c.model != "ft:classifier" {
		t.Errorf("model = %q, want ft:classifier", c.model)
	}
	if c.prompt != "Job Title: illustrator \n\nJob Function:" {
		t.Errorf("prompt = %q", c.prompt)
	}
}

func TestOracle_InferCountriesUsesLocationModel(t *testing.T) {
	c := &recordingCompleter{reply: "Berlin -> Germany"}
	o := NewOracle(c, "ft:classifier", "gpt-4o-mini")

	got, err := o.InferCountries(context.Background(), []string{"Berlin", "Paris"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Berlin -> Germany" {
		t.Errorf("response = %q", got)
	}
	if c.model != "gpt-4o-mini" {
		t.Errorf("model = %q, want gpt-4o-mini", c.model)
	}
	if !strings.Contains(c.prompt, "- Berlin\n- Paris\n") {
		t.Errorf("prompt missing location bullets: %q", c.prompt)
	}
}

func TestOracle_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	o := NewOracle(&recordingCompleter{err: boom}, "a", "b")

	if _, err := o.Classify(context.Background(), "x"); !errors.Is(err, boom) {
		t.Errorf("Classify error = %v, want wrapped boom", err)
	}
	if _, err := o.InferCountries(context.Background(), []string{"x"}); !errors.Is(err, boom) {
		t.Errorf("InferCountries error = %v, want wrapped boom", err)
	}
}
