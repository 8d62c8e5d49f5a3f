package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pullRequestEvent(action, htmlURL string) string {
	return `{"action":"` + action + `","number":1,"pull_request":{"number":1,"html_url":"` + htmlURL + `"}}`
}

func githubHeader(secret, body string) http.Header {
	header := http.Header{}
	header.Set("X-GitHub-Event", "pull_request")
	if secret != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(body))
		header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	}
	return header
}

func TestHandleGitHubWebhook_Closed(t *testing.T) {
	defer gock.Off()
	env := setupTestEnv(t)
	env.seed(t, testRequest(prLink, testNow))

	// メッセージの ts がないので告知を新しく投稿する
	gock.New("https://slack.com").
		Post("/api/chat.postMessage").
		BodyString("channel=C1").
		Reply(200).
		JSON(map[string]interface{}{"ok": true, "channel": "C1", "ts": "2.2"})

	body := pullRequestEvent("closed", prLink)
	w := env.post("/webhook", "application/json", body, githubHeader("", body))
	require.Equal(t, http.StatusOK, w.Code)

	_, err := env.requests.Get(context.Background(), prLink)
	assert.Error(t, err)
	assert.True(t, gock.IsDone(), "すべてのモックが使用されていません")
}

func TestHandleGitHubWebhook_IgnoresOtherActions(t *testing.T) {
	env := setupTestEnv(t)
	env.seed(t, testRequest(prLink, testNow))

	body := pullRequestEvent("synchronize", prLink)
	w := env.post("/webhook", "application/json", body, githubHeader("", body))
	require.Equal(t, http.StatusOK, w.Code)

	_, err := env.requests.Get(context.Background(), prLink)
	assert.NoError(t, err)
}

func TestHandleGitHubWebhook_UnknownPullRequest(t *testing.T) {
	env := setupTestEnv(t)

	body := pullRequestEvent("closed", "https://github.com/o/r/pull/999")
	w := env.post("/webhook", "application/json", body, githubHeader("", body))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleGitHubWebhook_Signature(t *testing.T) {
	env := setupTestEnv(t)
	env.deps.WebhookSecret = "webhook-secret"

	body := pullRequestEvent("opened", prLink)

	t.Run("署名が一致しない", func(t *testing.T) {
		w := env.post("/webhook", "application/json", body, githubHeader("wrong-secret", body))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("署名が一致する", func(t *testing.T) {
		w := env.post("/webhook", "application/json", body, githubHeader("webhook-secret", body))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
