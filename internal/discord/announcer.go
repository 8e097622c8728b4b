package discord

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ayush-sharaf/pollproject-backend/internal/model"

	"github.com/bwmarrin/discordgo"
)

type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Announcer posts a summary of every ended poll to a Discord channel.
type Announcer struct {
	sender    embedSender
	channelID string
}

// NewAnnouncer returns nil when no token or channel is configured.
func NewAnnouncer(token, channelID string) (*Announcer, error) {
	if token == "" || channelID == "" {
		log.Println("[discord] No bot token or channel configured, announcements disabled")
		return nil, nil
	}

	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	return &Announcer{sender: s, channelID: channelID}, nil
}

// PollEnded sends the announcement without blocking the caller.
func (a *Announcer) PollEnded(rec model.PollRecord) {
	if a == nil {
		return
	}
	go func() {
		if err := a.announce(rec); err != nil {
			log.Printf("[discord] announce poll %s: %v", rec.ID, err)
		}
	}()
}

func (a *Announcer) announce(rec model.PollRecord) error {
	_, err := a.sender.ChannelMessageSendEmbed(a.channelID, pollEmbed(rec))
	return err
}

func pollEmbed(rec model.PollRecord) *discordgo.MessageEmbed {
	var options []model.PollOption
	if err := json.Unmarshal(rec.Options, &options); err != nil {
		log.Printf("[discord] decode options of poll %s: %v", rec.ID, err)
	}

	var lines []string
	for _, o := range options {
		lines = append(lines, fmt.Sprintf("**%s**: %d", o.Text, o.Votes))
	}
	if len(lines) == 0 {
		lines = append(lines, "_no options_")
	}

	ts := rec.CreatedAt
	if rec.EndedAt != nil {
		ts = *rec.EndedAt
	}

	return &discordgo.MessageEmbed{
		Title:       "📊 " + rec.Question,
		Description: strings.Join(lines, "\n"),
		Color:       0x3498DB, // Blue
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Votes", Value: fmt.Sprintf("%d", rec.TotalVotes), Inline: true},
			{Name: "Students", Value: fmt.Sprintf("%d", rec.TotalStudents), Inline: true},
			{Name: "Time limit", Value: fmt.Sprintf("%ds", rec.TimeLimit), Inline: true},
		},
		Timestamp: ts.UTC().Format(time.RFC3339),
	}
}
