package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"

	"slack-pr-sla/models"
	"slack-pr-sla/services"
)

// HandleSlackAction はボタン操作とモーダルの送信を処理するハンドラ
func HandleSlackAction(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := readSlackBody(c, deps); !ok {
			return
		}

		var callback slack.InteractionCallback
		if err := json.Unmarshal([]byte(strings.TrimSpace(c.PostForm("payload"))), &callback); err != nil {
			deps.Logger.Error("failed to parse interaction payload", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		switch callback.Type {
		case slack.InteractionTypeBlockActions:
			handleBlockActions(c, deps, callback)
		case slack.InteractionTypeViewSubmission:
			handleViewSubmission(c, deps, callback)
		default:
			c.Status(http.StatusOK)
		}
	}
}

func callbackChannel(callback slack.InteractionCallback) string {
	if callback.Channel.ID != "" {
		return callback.Channel.ID
	}
	return callback.Container.ChannelID
}

func handleBlockActions(c *gin.Context, deps *Dependencies, callback slack.InteractionCallback) {
	if len(callback.ActionCallback.BlockActions) == 0 {
		c.Status(http.StatusOK)
		return
	}

	ctx := c.Request.Context()
	action := callback.ActionCallback.BlockActions[0]
	userID := callback.User.ID
	channelID := callbackChannel(callback)
	logger := deps.Logger.With("action", action.ActionID, "user", userID, "channel", channelID)
	logger.Info("slack action received", "value", action.Value)

	var err error
	switch {
	case action.ActionID == services.ActionPlusOne:
		_, err = deps.Reviews.TogglePlusOne(ctx, action.Value, userID)

	case action.ActionID == services.ActionAttention:
		_, err = deps.Reviews.ToggleAttention(ctx, action.Value, userID)

	case action.ActionID == services.ActionRemoveRequest:
		err = deps.Reviews.Remove(ctx, action.Value, userID)
		if err == nil && callback.View.Type == slack.VTHomeTab {
			err = publishHome(ctx, deps, userID)
		}

	case action.ActionID == services.ActionEditRequest:
		err = openEditModal(ctx, deps, callback, action.Value)

	case action.ActionID == services.ActionRemoveReviewer:
		err = refreshEdit(ctx, deps, callback, func(id string) (*models.ReviewRequest, error) {
			return deps.Reviews.MarkReviewerRemoval(ctx, id, userID, action.Value)
		})

	case action.ActionID == services.ActionRemoveAttention:
		err = refreshEdit(ctx, deps, callback, func(id string) (*models.ReviewRequest, error) {
			return deps.Reviews.MarkAttentionRemoval(ctx, id, userID, action.Value)
		})

	case action.ActionID == services.ActionPingAttention:
		err = refreshEdit(ctx, deps, callback, func(id string) (*models.ReviewRequest, error) {
			return deps.Reviews.PingAttention(ctx, id, userID, action.Value)
		})

	case action.ActionID == services.ActionPingPrevious:
		err = refreshEdit(ctx, deps, callback, func(id string) (*models.ReviewRequest, error) {
			return deps.Reviews.PingPreviousReviewers(ctx, id, userID)
		})

	case strings.HasPrefix(action.ActionID, services.ActionToggleHourPrefix):
		err = toggleHour(ctx, deps, callback, strings.TrimPrefix(action.ActionID, services.ActionToggleHourPrefix))

	default:
		logger.Warn("unknown slack action")
	}

	if errors.Is(err, services.ErrRequestNotFound) {
		logger.Warn("review request not found", "value", action.Value)
		notifyUser(ctx, deps, logger, channelID, userID, "This PR is no longer in the review queue.")
		c.Status(http.StatusOK)
		return
	}
	if errors.Is(err, services.ErrNotSubmitter) {
		notifyUser(ctx, deps, logger, channelID, userID, "Only the submitter can edit this PR.")
		c.Status(http.StatusOK)
		return
	}
	if err != nil {
		logger.Error("failed to handle slack action", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to handle action"})
		return
	}

	c.Status(http.StatusOK)
}

// notifyUser はチャンネルが分かる場合だけ本人にメッセージを返す
func notifyUser(ctx context.Context, deps *Dependencies, logger *slog.Logger, channelID, userID, text string) {
	if channelID == "" {
		return
	}
	if err := deps.Slack.PostEphemeral(ctx, channelID, userID, text); err != nil {
		logger.Error("failed to post ephemeral message", "error", err)
	}
}

func openEditModal(ctx context.Context, deps *Dependencies, callback slack.InteractionCallback, id string) error {
	req, err := deps.Reviews.StartEdit(ctx, id, callback.User.ID)
	if err != nil {
		return err
	}
	return deps.Slack.OpenEditModal(ctx, callback.TriggerID, *req)
}

// refreshEdit は編集モーダル上の操作を記録して、モーダルを描き直す
// 依頼のIDはモーダルの private_metadata に入っている
func refreshEdit(ctx context.Context, deps *Dependencies, callback slack.InteractionCallback, mark func(id string) (*models.ReviewRequest, error)) error {
	req, err := mark(callback.View.PrivateMetadata)
	if err != nil {
		return err
	}
	return deps.Slack.RefreshEditModal(ctx, callback.View.ID, *req)
}

func toggleHour(ctx context.Context, deps *Dependencies, callback slack.InteractionCallback, raw string) error {
	hour, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid hour %q: %w", raw, err)
	}

	policy, err := deps.Policies.ToggleEnabledHour(ctx, callback.View.PrivateMetadata, hour)
	if err != nil {
		return err
	}
	return deps.Slack.RefreshSettingsModal(ctx, callback.View.ID, *policy)
}

func publishHome(ctx context.Context, deps *Dependencies, userID string) error {
	requests, err := deps.Reviews.ListSubmitted(ctx, userID)
	if err != nil {
		return err
	}
	return deps.Slack.PublishHome(ctx, userID, requests)
}

// inputValue はモーダルの入力値を取り出す
func inputValue(view slack.View, blockID, actionID string) string {
	if view.State == nil {
		return ""
	}
	return strings.TrimSpace(view.State.Values[blockID][actionID].Value)
}

func viewErrors(c *gin.Context, errs map[string]string) {
	c.JSON(http.StatusOK, slack.NewErrorsViewSubmissionResponse(errs))
}

func handleViewSubmission(c *gin.Context, deps *Dependencies, callback slack.InteractionCallback) {
	view := callback.View
	logger := deps.Logger.With("callback_id", view.CallbackID, "user", callback.User.ID)
	logger.Info("view submission received")

	switch view.CallbackID {
	case services.CallbackSubmitRequest:
		submitRequest(c, deps, logger, callback)
	case services.CallbackEditRequest:
		applyEdit(c, deps, logger, callback)
	case services.CallbackSettings:
		saveSettings(c, deps, logger, callback)
	default:
		logger.Warn("unknown view submission")
		c.Status(http.StatusOK)
	}
}

func submitRequest(c *gin.Context, deps *Dependencies, logger *slog.Logger, callback slack.InteractionCallback) {
	view := callback.View
	reviews, err := services.ParseReviewsNeeded(inputValue(view, services.BlockReviewsNeeded, services.ActionReviewsNeeded))
	if err != nil {
		viewErrors(c, map[string]string{services.BlockReviewsNeeded: "Please enter a valid number of reviews."})
		return
	}

	_, err = deps.Reviews.Submit(c.Request.Context(), services.SubmitInput{
		ChannelID:     view.PrivateMetadata,
		SubmitterID:   callback.User.ID,
		Name:          inputValue(view, services.BlockRequestName, services.ActionRequestName),
		Link:          inputValue(view, services.BlockRequestLink, services.ActionRequestLink),
		Description:   inputValue(view, services.BlockDescription, services.ActionDescription),
		ReviewsNeeded: reviews,
	})
	switch {
	case errors.Is(err, services.ErrInvalidLink):
		viewErrors(c, map[string]string{services.BlockRequestLink: "Please enter a valid URL."})
	case errors.Is(err, services.ErrDuplicateRequest):
		viewErrors(c, map[string]string{services.BlockRequestLink: "This PR has already been submitted."})
	case err != nil:
		logger.Error("failed to submit review request", "error", err)
		viewErrors(c, map[string]string{services.BlockRequestLink: "Failed to post the PR. Please check that the bot is in this channel."})
	default:
		c.Status(http.StatusOK)
	}
}

func applyEdit(c *gin.Context, deps *Dependencies, logger *slog.Logger, callback slack.InteractionCallback) {
	view := callback.View
	reviews, err := services.ParseReviewsNeeded(inputValue(view, services.BlockReviewsNeeded, services.ActionReviewsNeeded))
	if err != nil {
		viewErrors(c, map[string]string{services.BlockReviewsNeeded: "Please enter a valid number of reviews."})
		return
	}

	ctx := c.Request.Context()
	result, err := deps.Reviews.ApplyEdit(ctx, view.PrivateMetadata, callback.User.ID, services.EditInput{
		Name:          inputValue(view, services.BlockRequestName, services.ActionRequestName),
		Description:   inputValue(view, services.BlockDescription, services.ActionDescription),
		ReviewsNeeded: reviews,
	})
	switch {
	case errors.Is(err, services.ErrNotSubmitter):
		viewErrors(c, map[string]string{services.BlockRequestName: "Only the submitter can edit this PR."})
		return
	case errors.Is(err, services.ErrRequestNotFound):
		viewErrors(c, map[string]string{services.BlockRequestName: "This PR is no longer in the review queue."})
		return
	case err != nil:
		logger.Error("failed to apply edit", "id", view.PrivateMetadata, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply edit"})
		return
	}

	if text := pingedText(result); text != "" {
		notifyUser(ctx, deps, logger, result.Request.ChannelID, callback.User.ID, text)
	}
	c.Status(http.StatusOK)
}

// pingedText は編集で通知したユーザーを本人に伝える文面
func pingedText(result services.EditResult) string {
	var lines []string
	if len(result.PingedReviewers) > 0 {
		lines = append(lines, "Pinged previous reviewers: "+mentions(result.PingedReviewers))
	}
	if len(result.PingedAttention) > 0 {
		lines = append(lines, "Notified that their comments were addressed: "+mentions(result.PingedAttention))
	}
	return strings.Join(lines, "\n")
}

func mentions(userIDs []string) string {
	parts := make([]string, len(userIDs))
	for i, id := range userIDs {
		parts[i] = fmt.Sprintf("<@%s>", id)
	}
	return strings.Join(parts, ", ")
}

func saveSettings(c *gin.Context, deps *Dependencies, logger *slog.Logger, callback slack.InteractionCallback) {
	view := callback.View
	hours, err := strconv.Atoi(inputValue(view, services.BlockSLAHours, services.ActionSLAHours))
	if err != nil || hours <= 0 {
		viewErrors(c, map[string]string{services.BlockSLAHours: "Please enter a positive number of hours."})
		return
	}

	if _, err := deps.Policies.SetSLAHours(c.Request.Context(), view.PrivateMetadata, hours); err != nil {
		logger.Error("failed to save sla hours", "channel", view.PrivateMetadata, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}
	c.Status(http.StatusOK)
}
