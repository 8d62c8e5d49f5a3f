package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ApplyResult は SweepOutcome を反映した結果の件数
type ApplyResult struct {
	Deleted        int
	DeleteFailed   int
	Notified       int
	NotifyFailed   int
	AnnounceFailed int
}

// Scheduler は一定間隔でSLAチェックを実行し、結果を反映する
type Scheduler struct {
	sweeper  *Sweeper
	requests RequestStore
	notifier Notifier
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewScheduler(sweeper *Sweeper, requests RequestStore, notifier Notifier, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		sweeper:  sweeper,
		requests: requests,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

// Start は起動直後に1回チェックし、その後は interval ごとにチェックする
// 前回のチェックが終わるまで次のチェックは始まらない。ctx がキャンセルされるまで戻らない
func (s *Scheduler) Start(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sla scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce は1回分のチェックを実行して反映する
func (s *Scheduler) RunOnce(ctx context.Context) (ApplyResult, error) {
	logger := s.logger.With("sweep_id", uuid.NewString())
	now := s.now()

	outcome, err := s.sweeper.RunSweep(ctx, now)
	if err != nil {
		logger.Error("sla sweep failed", "error", err)
		return ApplyResult{}, err
	}

	// 途中で止めると期限切れの削除が中途半端になるので、キャンセルされても最後まで反映する
	result := s.Apply(context.WithoutCancel(ctx), outcome, logger)

	logger.Info("sla sweep finished",
		"expired", len(outcome.ExpiredIDs),
		"deleted", result.Deleted,
		"channels", len(outcome.Notifications),
		"notified", result.Notified,
		"notify_failed", result.NotifyFailed,
	)
	return result, nil
}

// Apply は期限切れの依頼を削除し、チャンネルごとに通知する
// 通知の失敗は他のチャンネルや削除に影響しない
func (s *Scheduler) Apply(ctx context.Context, outcome SweepOutcome, logger *slog.Logger) ApplyResult {
	var result ApplyResult

	for _, req := range outcome.Expired {
		if err := s.requests.Delete(ctx, req.ID); err != nil {
			if errors.Is(err, ErrRequestNotFound) {
				logger.Info("expired review request already removed", "id", req.ID)
				continue
			}
			logger.Error("failed to delete expired review request", "id", req.ID, "error", err)
			result.DeleteFailed++
			continue
		}
		result.Deleted++
		logger.Info("expired review request removed", "id", req.ID, "channel", req.ChannelID)

		if err := s.notifier.AnnounceExpired(ctx, req); err != nil {
			logger.Error("failed to announce expired review request", "id", req.ID, "error", err)
			result.AnnounceFailed++
		}
	}

	channelIDs := make([]string, 0, len(outcome.Notifications))
	for channelID := range outcome.Notifications {
		channelIDs = append(channelIDs, channelID)
	}
	sort.Strings(channelIDs)

	for _, channelID := range channelIDs {
		if err := s.notifier.Notify(ctx, channelID, outcome.Notifications[channelID]); err != nil {
			logger.Error("sla notification failed", "channel", channelID, "error", err)
			result.NotifyFailed++
			continue
		}
		result.Notified++
		logger.Info("sla notification sent", "channel", channelID)
	}

	return result
}
