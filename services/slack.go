package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"

	"slack-pr-sla/models"
)

// SlackMessenger はSlack Web APIでメッセージ・モーダル・App Homeを扱う
type SlackMessenger struct {
	client *slack.Client
	names  *UserNameCache
	logger *slog.Logger
}

var (
	_ Notifier  = (*SlackMessenger)(nil)
	_ Messenger = (*SlackMessenger)(nil)
)

// NewSlackMessenger は client を使うメッセンジャーを作る
// names が nil の場合はキャッシュなしで users.info を呼ぶ
func NewSlackMessenger(client *slack.Client, names *UserNameCache, logger *slog.Logger) *SlackMessenger {
	m := &SlackMessenger{
		client: client,
		logger: logger,
	}
	if names == nil {
		names = NewUserNameCache(nil, 0, m.LookupUserName, logger)
	}
	m.names = names
	return m
}

// LookupUserName は users.info で表示名を取得する
func (m *SlackMessenger) LookupUserName(ctx context.Context, userID string) (string, error) {
	user, err := m.client.GetUserInfoContext(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get user info: %w", err)
	}
	if user.RealName != "" {
		return user.RealName, nil
	}
	return user.Profile.DisplayName, nil
}

// requestNames はレビュー依頼に関わるユーザーの表示名を解決する
func (m *SlackMessenger) requestNames(ctx context.Context, req models.ReviewRequest) map[string]string {
	ids := []string{req.SubmitterID}
	ids = append(ids, req.Reviewers.Sorted()...)
	ids = append(ids, req.AttentionRequests.Sorted()...)
	return m.names.Names(ctx, ids...)
}

func (m *SlackMessenger) digestNames(ctx context.Context, digest ChannelDigest) map[string]string {
	var ids []string
	for _, entries := range [][]DigestEntry{digest.Overdue, digest.NearThreshold, digest.Active, digest.Reviewed} {
		for _, entry := range entries {
			ids = append(ids, entry.Request.SubmitterID)
		}
	}
	return m.names.Names(ctx, ids...)
}

// Notify はチャンネルにSLAリマインダーを投稿する
// アーカイブ済みのチャンネルには投稿しない
func (m *SlackMessenger) Notify(ctx context.Context, channelID string, digest ChannelDigest) error {
	if archived, err := m.IsChannelArchived(ctx, channelID); err != nil {
		m.logger.Warn("channel status check failed", "channel", channelID, "error", err)
	} else if archived {
		m.logger.Info("skip archived channel", "channel", channelID)
		return nil
	}

	text := DigestText(digest, m.digestNames(ctx, digest))
	if _, _, err := m.client.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionDisableLinkUnfurl(),
	); err != nil {
		return fmt.Errorf("failed to post sla reminder: %w", err)
	}
	return nil
}

// SummaryText は /pr-active 用の本文を表示名付きで組み立てる
func (m *SlackMessenger) SummaryText(ctx context.Context, digest ChannelDigest) string {
	return SummaryText(digest, m.digestNames(ctx, digest))
}

// AnnounceExpired は期限切れで削除したことを元のメッセージを書き換えて知らせる
func (m *SlackMessenger) AnnounceExpired(ctx context.Context, req models.ReviewRequest) error {
	return m.ReplaceReviewRequest(ctx, req, ExpiredText(req))
}

// PostReviewRequest はレビュー依頼を投稿し、ts とパーマリンクを返す
// パーマリンクが取れなくても投稿自体は成功として扱う
func (m *SlackMessenger) PostReviewRequest(ctx context.Context, req models.ReviewRequest) (string, string, error) {
	names := m.requestNames(ctx, req)
	_, ts, err := m.client.PostMessageContext(ctx, req.ChannelID,
		slack.MsgOptionText(RequestMessageText(req, names), false),
		slack.MsgOptionBlocks(RequestMessageBlocks(req, names)...),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return "", "", fmt.Errorf("failed to post review request: %w", err)
	}

	permalink, err := m.client.GetPermalinkContext(ctx, &slack.PermalinkParameters{Channel: req.ChannelID, Ts: ts})
	if err != nil {
		m.logger.Warn("failed to get permalink", "channel", req.ChannelID, "ts", ts, "error", err)
		return ts, "", nil
	}
	return ts, permalink, nil
}

// UpdateReviewRequest は投稿済みのレビュー依頼メッセージを最新の状態にする
func (m *SlackMessenger) UpdateReviewRequest(ctx context.Context, req models.ReviewRequest) error {
	if req.MessageTS == "" {
		return nil
	}

	names := m.requestNames(ctx, req)
	if _, _, _, err := m.client.UpdateMessageContext(ctx, req.ChannelID, req.MessageTS,
		slack.MsgOptionText(RequestMessageText(req, names), false),
		slack.MsgOptionBlocks(RequestMessageBlocks(req, names)...),
	); err != nil {
		return fmt.Errorf("failed to update review request message: %w", err)
	}
	return nil
}

// ReplaceReviewRequest はレビュー依頼メッセージをボタンなしの告知文に置き換える
func (m *SlackMessenger) ReplaceReviewRequest(ctx context.Context, req models.ReviewRequest, notice string) error {
	if req.MessageTS == "" {
		if _, _, err := m.client.PostMessageContext(ctx, req.ChannelID,
			slack.MsgOptionText(notice, false),
			slack.MsgOptionDisableLinkUnfurl(),
		); err != nil {
			return fmt.Errorf("failed to post notice: %w", err)
		}
		return nil
	}

	if _, _, _, err := m.client.UpdateMessageContext(ctx, req.ChannelID, req.MessageTS,
		slack.MsgOptionText(notice, false),
		slack.MsgOptionBlocks([]slack.Block{}...),
	); err != nil {
		return fmt.Errorf("failed to replace review request message: %w", err)
	}
	return nil
}

// SendDirectMessage はユーザーにDMを送る
func (m *SlackMessenger) SendDirectMessage(ctx context.Context, userID, text string) error {
	if _, _, err := m.client.PostMessageContext(ctx, userID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionDisableLinkUnfurl(),
	); err != nil {
		return fmt.Errorf("failed to send direct message: %w", err)
	}
	return nil
}

// PostEphemeral は本人にだけ見えるメッセージを送る
func (m *SlackMessenger) PostEphemeral(ctx context.Context, channelID, userID, text string) error {
	if _, err := m.client.PostEphemeralContext(ctx, channelID, userID, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("failed to post ephemeral message: %w", err)
	}
	return nil
}

func (m *SlackMessenger) OpenSubmitModal(ctx context.Context, triggerID, channelID string) error {
	if _, err := m.client.OpenViewContext(ctx, triggerID, SubmitModal(channelID)); err != nil {
		return fmt.Errorf("failed to open submit modal: %w", err)
	}
	return nil
}

func (m *SlackMessenger) OpenEditModal(ctx context.Context, triggerID string, req models.ReviewRequest) error {
	if _, err := m.client.OpenViewContext(ctx, triggerID, EditModal(req, m.requestNames(ctx, req))); err != nil {
		return fmt.Errorf("failed to open edit modal: %w", err)
	}
	return nil
}

// RefreshEditModal は開いている編集モーダルを最新の状態で描き直す
func (m *SlackMessenger) RefreshEditModal(ctx context.Context, viewID string, req models.ReviewRequest) error {
	if _, err := m.client.UpdateViewContext(ctx, EditModal(req, m.requestNames(ctx, req)), "", "", viewID); err != nil {
		return fmt.Errorf("failed to update edit modal: %w", err)
	}
	return nil
}

func (m *SlackMessenger) OpenSettingsModal(ctx context.Context, triggerID string, policy models.ChannelPolicy) error {
	if _, err := m.client.OpenViewContext(ctx, triggerID, SettingsModal(policy)); err != nil {
		return fmt.Errorf("failed to open settings modal: %w", err)
	}
	return nil
}

func (m *SlackMessenger) RefreshSettingsModal(ctx context.Context, viewID string, policy models.ChannelPolicy) error {
	if _, err := m.client.UpdateViewContext(ctx, SettingsModal(policy), "", "", viewID); err != nil {
		return fmt.Errorf("failed to update settings modal: %w", err)
	}
	return nil
}

// PublishHome はユーザーのApp Homeにレビュー依頼の一覧を表示する
func (m *SlackMessenger) PublishHome(ctx context.Context, userID string, requests []models.ReviewRequest) error {
	var ids []string
	for _, req := range requests {
		ids = append(ids, req.Reviewers.Sorted()...)
	}

	view := HomeView(requests, m.names.Names(ctx, ids...))
	if _, err := m.client.PublishViewContext(ctx, slack.PublishViewContextRequest{UserID: userID, View: view}); err != nil {
		return fmt.Errorf("failed to publish app home: %w", err)
	}
	return nil
}
