package handlers

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"slack-pr-sla/services"
)

// Dependencies はハンドラから使うサービスと設定
type Dependencies struct {
	Reviews       *services.ReviewService
	Policies      *services.PolicyResolver
	Sweeper       *services.Sweeper
	Slack         *services.SlackMessenger
	SigningSecret string
	WebhookSecret string
	Logger        *slog.Logger
	Now           func() time.Time
}

func (d *Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// readSlackBody はボディを読み出して署名を検証する
// 検証に失敗した場合はレスポンスを書き込んで false を返す
func readSlackBody(c *gin.Context, deps *Dependencies) ([]byte, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		deps.Logger.Error("failed to read request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return nil, false
	}

	// ボディを復元
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	if err := services.ValidateSlackRequest(c.Request.Header, body, deps.SigningSecret); err != nil {
		deps.Logger.Warn("rejected slack request", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid slack signature"})
		return nil, false
	}
	return body, true
}

// RegisterRoutes はSlackとGitHubから呼ばれるエンドポイントを登録する
func RegisterRoutes(r *gin.Engine, deps *Dependencies) {
	r.GET("/healthz", HandleHealthz())
	r.POST("/slack/commands", HandleSlackCommand(deps))
	r.POST("/slack/actions", HandleSlackAction(deps))
	r.POST("/slack/events", HandleSlackEvents(deps))
	r.POST("/webhook", HandleGitHubWebhook(deps))
}

// HandleHealthz はヘルスチェック用
func HandleHealthz() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
