package discord

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ayush-sharaf/pollproject-backend/internal/model"

	"github.com/bwmarrin/discordgo"
)

// WebhookNotifier posts ended polls to a Discord webhook URL. It needs no
// bot account.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier returns nil when url is empty.
func NewWebhookNotifier(url string) *WebhookNotifier {
	if url == "" {
		return nil
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// PollEnded posts the summary in the background.
func (n *WebhookNotifier) PollEnded(rec model.PollRecord) {
	if n == nil {
		return
	}
	go func() {
		if err := n.post(rec); err != nil {
			log.Printf("[discord-webhook] poll %s: %v", rec.ID, err)
		}
	}()
}

func (n *WebhookNotifier) post(rec model.PollRecord) error {
	body, err := json.Marshal(discordgo.WebhookParams{
		Username: "Live Poll",
		Embeds:   []*discordgo.MessageEmbed{pollEmbed(rec)},
	})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	resp, err := n.client.Post(n.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}
