package discord

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ayush-sharaf/pollproject-backend/internal/model"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	channel string
	embeds  []*discordgo.MessageEmbed
	err     error
}

func (f *fakeSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channel = channelID
	f.embeds = append(f.embeds, embed)
	return &discordgo.Message{}, f.err
}

func sampleRecord(t *testing.T) model.PollRecord {
	t.Helper()
	options, err := json.Marshal([]model.PollOption{
		{ID: "a", Text: "Red", Votes: 3},
		{ID: "b", Text: "Blue", Votes: 1},
	})
	require.NoError(t, err)
	ended := time.Date(2026, 3, 1, 10, 0, 30, 0, time.UTC)
	return model.PollRecord{
		ID:            "poll-1",
		Question:      "Favourite colour?",
		Options:       options,
		TimeLimit:     30,
		CreatedAt:     ended.Add(-30 * time.Second),
		EndedAt:       &ended,
		TotalStudents: 5,
		TotalVotes:    4,
	}
}

func TestNewAnnouncerDisabledWithoutConfig(t *testing.T) {
	a, err := NewAnnouncer("", "")
	require.NoError(t, err)
	assert.Nil(t, a)

	// A nil announcer is safe to call.
	a.PollEnded(model.PollRecord{})
}

func TestPollEmbed(t *testing.T) {
	embed := pollEmbed(sampleRecord(t))

	assert.Equal(t, "📊 Favourite colour?", embed.Title)
	assert.Equal(t, "**Red**: 3\n**Blue**: 1", embed.Description)
	assert.Equal(t, "2026-03-01T10:00:30Z", embed.Timestamp)
	require.Len(t, embed.Fields, 3)
	assert.Equal(t, "4", embed.Fields[0].Value)
	assert.Equal(t, "5", embed.Fields[1].Value)
	assert.Equal(t, "30s", embed.Fields[2].Value)
}

func TestAnnounce(t *testing.T) {
	sender := &fakeSender{}
	a := &Announcer{sender: sender, channelID: "chan-1"}

	require.NoError(t, a.announce(sampleRecord(t)))
	assert.Equal(t, "chan-1", sender.channel)
	assert.Len(t, sender.embeds, 1)

	sender.err = errors.New("discord down")
	assert.Error(t, a.announce(sampleRecord(t)))
}
