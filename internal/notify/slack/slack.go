// Package slack pages the resuscitation channel about high-acuity
// triage decisions via an incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/acuity/internal/triage"
)

const httpTimeout = 10 * time.Second

// Notifier sends triage decisions to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
	logger     log.Logger
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a
// no-op.
func New(webhookURL string, logger log.Logger) *Notifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
		logger:     logger,
	}
}

// Send posts a decision to the configured Slack webhook.
func (n *Notifier) Send(ctx context.Context, d *triage.Decision) error {
	if n.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(buildMessage(d))
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(d *triage.Decision) map[string]any {
	var b strings.Builder
	fmt.Fprintf(&b, "*Severity:* %s\n", d.Level)
	fmt.Fprintf(&b, "*Confidence:* %.2f\n", d.Confidence)
	fmt.Fprintf(&b, "*Time to care:* %s\n", d.TimeToCare)
	fmt.Fprintf(&b, "*Location:* %s", d.CareLocation)
	if len(d.Alerts) > 0 {
		fmt.Fprintf(&b, "\n*Alerts:* %s", strings.Join(d.Alerts, "; "))
	}

	return map[string]any{
		"blocks": []map[string]any{
			{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": fmt.Sprintf("%s %s triage decision", levelEmoji(d.Simplified), strings.ToUpper(d.Simplified.String())),
				},
			},
			{"type": "divider"},
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": b.String(),
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{{
					"type": "mrkdwn",
					"text": fmt.Sprintf("decision `%s` · %s", d.ID, d.CreatedAt.Format(time.RFC3339)),
				}},
			},
		},
	}
}

func levelEmoji(s triage.Simplified) string {
	switch s {
	case triage.Red:
		return "🔴"
	case triage.Yellow:
		return "🟡"
	case triage.Green:
		return "🟢"
	default:
		return "⚪"
	}
}
