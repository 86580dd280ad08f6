package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	alerts "github.com/azorean79/gestor-naval-pro-sub005/internal/alerts/domain"
)

// Notifier pushes a sweep summary to an external channel.
type Notifier interface {
	Notify(ctx context.Context, items []alerts.AlertItem) error
}

// WebhookNotifier posts sweep summaries as JSON to a webhook URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

type webhookPayload struct {
	MsgType string      `json:"msgtype"`
	Text    webhookText `json:"text"`
}

type webhookText struct {
	Content string `json:"content"`
}

// NewWebhookNotifier constructs a notifier.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify posts the critical and urgent portion of the feed. Quiet sweeps are
// not sent.
func (n *WebhookNotifier) Notify(ctx context.Context, items []alerts.AlertItem) error {
	if n == nil || n.url == "" {
		return errors.New("webhook notifier: empty url")
	}
	content := formatSweep(items)
	if content == "" {
		return nil
	}
	payload := webhookPayload{
		MsgType: "text",
		Text:    webhookText{Content: content},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.New("webhook notifier: non-2xx")
	}
	return nil
}

func formatSweep(items []alerts.AlertItem) string {
	var b strings.Builder
	count := 0
	for _, item := range items {
		if item.Tier != alerts.TierCritical && item.Tier != alerts.TierUrgent {
			continue
		}
		if count == 0 {
			b.WriteString("[Fleet Safety Alert]\n")
		}
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(string(item.Tier)), item.Message)
		count++
	}
	return strings.TrimSpace(b.String())
}
