package services

import (
	"context"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsChannelArchived(t *testing.T) {
	tests := []struct {
		name     string
		archived bool
	}{
		{"アーカイブ済み", true},
		{"アクティブ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()
			mockChannelInfo("C12345", tt.archived)

			archived, err := newTestMessenger().IsChannelArchived(context.Background(), "C12345")
			require.NoError(t, err)
			assert.Equal(t, tt.archived, archived)
			assert.True(t, gock.IsDone(), "すべてのモックが使用されていません")
		})
	}
}

func TestIsChannelArchived_Error(t *testing.T) {
	defer gock.Off()

	gock.New("https://slack.com").
		Post("/api/conversations.info").
		Reply(200).
		JSON(map[string]interface{}{"ok": false, "error": "channel_not_found"})

	_, err := newTestMessenger().IsChannelArchived(context.Background(), "C-missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}
