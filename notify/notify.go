package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"chefskiss"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client posts messages to a chat webhook. The payload shape follows the
// common incoming-webhook convention (channel + text).
type Client struct {
	webhookURL string
	httpClient doer
}

func NewClient(webhookURL string, httpClient doer) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	payload, err := json.Marshal(map[string]any{
		"channel": channel,
		"text":    message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post message: %s", resp.Status)
	}

	return nil
}

// FormatRecommendations renders the final recommendations as a short chat
// message. Raw JSON is unreadable in a channel.
func FormatRecommendations(recs chefskiss.Recommendations) string {
	var b strings.Builder

	b.WriteString(recs.Summary)
	for _, rec := range recs.Recommendations {
		b.WriteString(fmt.Sprintf("\n- %s (%.1fg protein, %.1fg carbs, %.1fg fat, %.0f kcal): %s",
			rec.Recipe,
			rec.Macros.Protein,
			rec.Macros.Carbs,
			rec.Macros.Fat,
			rec.Macros.Calories,
			rec.Reason,
		))
	}

	return b.String()
}
