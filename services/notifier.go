package services

import (
	"context"

	"slack-pr-sla/models"
)

//go:generate mockgen -source=notifier.go -destination=notifier_mock.go -package=services

// Notifier は定期チェックの結果をチャンネルに届ける
// 表示形式は実装側で決める
type Notifier interface {
	Notify(ctx context.Context, channelID string, digest ChannelDigest) error
	AnnounceExpired(ctx context.Context, req models.ReviewRequest) error
}

// Messenger はレビュー依頼メッセージの投稿・更新とDM送信を扱う
type Messenger interface {
	PostReviewRequest(ctx context.Context, req models.ReviewRequest) (ts string, permalink string, err error)
	UpdateReviewRequest(ctx context.Context, req models.ReviewRequest) error
	ReplaceReviewRequest(ctx context.Context, req models.ReviewRequest, notice string) error
	SendDirectMessage(ctx context.Context, userID, text string) error
}
