package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobmerge/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier posts run summaries to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts each run report to Slack.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends the report as a single Block Kit message. A 429 is retried once
// after the Retry-After delay.
func (s *SlackNotifier) Notify(ctx context.Context, r model.RunReport) error {
	body, err := json.Marshal(buildPayload(r))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(ctx, body)
	if err != nil {
		return err
	}

	if status == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(retryAfter)
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(secs) * time.Second):
		}

		status, _, err = s.post(ctx, body)
		if err != nil {
			return fmt.Errorf("retry: %w", err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", status)
		}
		s.logger.Info("slack summary sent", "output", r.Output, "retried", true)
		return nil
	}

	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	s.logger.Info("slack summary sent", "output", r.Output)
	return nil
}

func (s *SlackNotifier) post(ctx context.Context, body []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, resp.Header.Get("Retry-After"), nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendTestMessage sends a sample run report to verify the integration works.
func SendTestMessage(ctx context.Context, n model.Notifier) error {
	sample := model.RunReport{
		StartedAt:         time.Now(),
		Duration:          42 * time.Second,
		DryRun:            true,
		Fetched:           map[string]int{model.SourceWeb3Career: 120, model.SourceCryptoJobsCom: 95},
		CandidatePairs:    14,
		DroppedPrimary:    3,
		DroppedSecondary:  11,
		KeywordClassified: 170,
		OracleClassified:  25,
		UnknownLocations:  9,
		Output:            195,
	}
	return n.Notify(ctx, sample)
}

func buildPayload(r model.RunReport) slackPayload {
	title := fmt.Sprintf("🧩 jobmerge: %d jobs published", r.Output)
	if r.DryRun {
		title = fmt.Sprintf("🧪 jobmerge dry run: %d jobs", r.Output)
	}

	sources := make([]string, 0, len(r.Fetched))
	for id := range r.Fetched {
		sources = append(sources, id)
	}
	sort.Strings(sources)
	var fetched strings.Builder
	for _, id := range sources {
		fmt.Fprintf(&fetched, "%s: %d\n", id, r.Fetched[id])
	}
	if fetched.Len() == 0 {
		fetched.WriteString("none\n")
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: title},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Fetched:*\n" + strings.TrimSuffix(fetched.String(), "\n")},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Duplicates dropped:*\n%d of %d pairs", r.DroppedByDedup(), r.CandidatePairs)},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Classified:*\n%d keyword / %d oracle", r.KeywordClassified, r.OracleClassified)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Unclassified:*\n%d", r.DroppedUnclassified)},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Unknown location:*\n%d", r.UnknownLocations)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Malformed:*\n%d", r.Malformed)},
			},
		},
		{
			Type: "context",
			Elements: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("Started %s · took %s",
					r.StartedAt.UTC().Format(time.RFC1123), r.Duration.Round(time.Second))},
			},
		},
		{Type: "divider"},
	}

	return slackPayload{Blocks: blocks}
}
