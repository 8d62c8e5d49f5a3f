package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v71/github"
)

// HandleGitHubWebhook はPRがクローズされたらレビュー依頼を取り下げる
func HandleGitHubWebhook(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := github.ValidatePayload(c.Request, []byte(deps.WebhookSecret))
		if err != nil {
			deps.Logger.Warn("rejected github webhook", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		event, err := github.ParseWebHook(github.WebHookType(c.Request), payload)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot parse webhook"})
			return
		}

		e, ok := event.(*github.PullRequestEvent)
		if !ok || e.GetAction() != "closed" {
			c.Status(http.StatusOK)
			return
		}

		link := e.GetPullRequest().GetHTMLURL()
		closed, err := deps.Reviews.CloseByLink(c.Request.Context(), link)
		if err != nil {
			deps.Logger.Error("failed to close review request", "link", link, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to close review request"})
			return
		}
		if !closed {
			deps.Logger.Debug("no review request for closed pull request", "link", link)
		}

		c.Status(http.StatusOK)
	}
}
