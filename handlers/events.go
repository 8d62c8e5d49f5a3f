package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack/slackevents"
)

// HandleSlackEvents はSlackのEvents APIを処理するハンドラ
func HandleSlackEvents(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, ok := readSlackBody(c, deps)
		if !ok {
			return
		}

		event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
		if err != nil {
			deps.Logger.Error("failed to parse slack event", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		// URL検証チャレンジへの応答
		if event.Type == slackevents.URLVerification {
			var challenge slackevents.ChallengeResponse
			if err := json.Unmarshal(body, &challenge); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge"})
				return
			}
			c.String(http.StatusOK, challenge.Challenge)
			return
		}

		if event.Type != slackevents.CallbackEvent {
			c.Status(http.StatusOK)
			return
		}

		switch inner := event.InnerEvent.Data.(type) {
		case *slackevents.AppHomeOpenedEvent:
			if inner.Tab != "" && inner.Tab != "home" {
				break
			}
			deps.Logger.Info("app home opened", "user", inner.User)
			if err := publishHome(c.Request.Context(), deps, inner.User); err != nil {
				deps.Logger.Error("failed to publish app home", "user", inner.User, "error", err)
			}
		default:
			deps.Logger.Debug("ignored slack event", "type", event.InnerEvent.Type)
		}

		c.Status(http.StatusOK)
	}
}
