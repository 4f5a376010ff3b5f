package notifier

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/amishk599/jobmerge/internal/model"
)

func TestLogNotifier_Notify_emptyReport(t *testing.T) {
	n := NewLogNotifier(discardLogger())
	if err := n.Notify(context.Background(), model.RunReport{}); err != nil {
		t.Errorf("Notify(empty) = %v, want nil", err)
	}
}

func TestLogNotifier_Notify_writesSummary(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := n.Notify(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Notify = %v, want nil", err)
	}
	out := buf.String()
	for _, want := range []string{"run summary", "output=13", "dropped_duplicates=4", "candidate_pairs=4"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}
