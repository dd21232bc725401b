package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const notifyTimeout = 7 * time.Second

// Notifier sends ops notifications (start/stop/crash) to a Telegram chat.
// Fire-and-forget: failures are logged, never returned, and an unconfigured
// notifier is a silent no-op.
type Notifier struct {
	token  string
	chatID string
	client *http.Client
}

func NewNotifier(token, chatID string) *Notifier {
	return &Notifier{
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: notifyTimeout},
	}
}

func (n *Notifier) Notify(ctx context.Context, text string) {
	if n.token == "" || n.chatID == "" {
		return
	}

	body, err := json.Marshal(map[string]any{
		"chat_id":                  n.chatID,
		"text":                     text,
		"disable_web_page_preview": true,
	})
	if err != nil {
		log.Error().Err(err).Msg("telegram notify: failed to encode message")
		return
	}

	url := "https://api.telegram.org/bot" + n.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Msg("telegram notify: failed to build request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("telegram notify failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Msg("telegram notify failed")
	}
}
