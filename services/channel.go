package services

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// IsChannelArchived はチャンネルがアーカイブされているかどうかを確認します
func (m *SlackMessenger) IsChannelArchived(ctx context.Context, channelID string) (bool, error) {
	channel, err := m.client.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{ChannelID: channelID})
	if err != nil {
		return false, fmt.Errorf("failed to get conversation info (channel: %s): %w", channelID, err)
	}
	return channel.IsArchived, nil
}
