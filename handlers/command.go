package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
)

// スラッシュコマンド
const (
	CommandSubmit   = "/pr-submit"
	CommandActive   = "/pr-active"
	CommandSettings = "/pr-settings"
)

func ephemeral(c *gin.Context, text string) {
	c.JSON(http.StatusOK, slack.Msg{ResponseType: slack.ResponseTypeEphemeral, Text: text})
}

// HandleSlackCommand はSlackのスラッシュコマンドを処理するハンドラ
func HandleSlackCommand(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := readSlackBody(c, deps); !ok {
			return
		}

		cmd, err := slack.SlashCommandParse(c.Request)
		if err != nil {
			deps.Logger.Error("failed to parse slash command", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid command"})
			return
		}

		logger := deps.Logger.With("command", cmd.Command, "channel", cmd.ChannelID, "user", cmd.UserID)
		logger.Info("slack command received")

		ctx := c.Request.Context()
		switch cmd.Command {
		case CommandSubmit:
			if err := deps.Slack.OpenSubmitModal(ctx, cmd.TriggerID, cmd.ChannelID); err != nil {
				logger.Error("failed to open submit modal", "error", err)
				ephemeral(c, "Failed to open the submission form. Please try again.")
				return
			}
			c.Status(http.StatusOK)

		case CommandActive:
			digest, err := deps.Sweeper.ChannelSummary(ctx, cmd.ChannelID, deps.now())
			if err != nil {
				logger.Error("failed to build channel summary", "error", err)
				ephemeral(c, "Failed to load PRs for this channel.")
				return
			}
			ephemeral(c, deps.Slack.SummaryText(ctx, digest))

		case CommandSettings:
			policy := deps.Policies.Resolve(ctx, cmd.ChannelID)
			if err := deps.Slack.OpenSettingsModal(ctx, cmd.TriggerID, policy); err != nil {
				logger.Error("failed to open settings modal", "error", err)
				ephemeral(c, "Failed to open the settings. Please try again.")
				return
			}
			c.Status(http.StatusOK)

		default:
			logger.Warn("unknown slash command")
			ephemeral(c, "Unknown command: "+cmd.Command)
		}
	}
}
