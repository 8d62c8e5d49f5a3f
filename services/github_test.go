package services

import (
	"context"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoAndPRNumber(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		owner   string
		repo    string
		number  int
		wantErr bool
	}{
		{"通常のPR", "https://github.com/owner/repo/pull/123", "owner", "repo", 123, false},
		{"ファイルタブ付き", "https://github.com/owner/repo/pull/7/files", "owner", "repo", 7, false},
		{"Issue", "https://github.com/owner/repo/issues/1", "", "", 0, true},
		{"GitHub以外", "https://gitlab.com/owner/repo/pull/1", "", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, number, err := ParseRepoAndPRNumber(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.repo, repo)
			assert.Equal(t, tt.number, number)
		})
	}
}

func TestGitHubClient_PRTitle(t *testing.T) {
	defer gock.Off()

	gock.New("https://api.github.com").
		Get("/repos/owner/repo/pulls/42").
		MatchHeader("Authorization", "Bearer gh-test-token").
		Reply(200).
		JSON(map[string]interface{}{"number": 42, "title": "Add retry to webhook delivery"})

	client := NewGitHubClient("gh-test-token", testLogger())
	title, err := client.PRTitle(context.Background(), "https://github.com/owner/repo/pull/42")
	require.NoError(t, err)
	assert.Equal(t, "Add retry to webhook delivery", title)
	assert.True(t, gock.IsDone(), "すべてのモックが使用されていません")
}

func TestGitHubClient_PRTitleNotFound(t *testing.T) {
	defer gock.Off()

	gock.New("https://api.github.com").
		Get("/repos/owner/repo/pulls/404").
		Reply(404).
		JSON(map[string]interface{}{"message": "Not Found"})

	client := NewGitHubClient("", testLogger())
	_, err := client.PRTitle(context.Background(), "https://github.com/owner/repo/pull/404")
	assert.Error(t, err)

	_, err = client.PRTitle(context.Background(), "https://example.com/not-a-pr")
	assert.Error(t, err)
}
