package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"slack-pr-sla/models"
)

// PolicyResolver はチャンネル設定を取得し、未設定や取得失敗の場合はデフォルト値を返す
type PolicyResolver struct {
	store           PolicyStore
	defaultTimezone string
	logger          *slog.Logger
}

func NewPolicyResolver(store PolicyStore, defaultTimezone string, logger *slog.Logger) *PolicyResolver {
	return &PolicyResolver{
		store:           store,
		defaultTimezone: defaultTimezone,
		logger:          logger,
	}
}

// Resolve はチャンネルのポリシーを返す。エラーは返さない
func (r *PolicyResolver) Resolve(ctx context.Context, channelID string) models.ChannelPolicy {
	policy := models.NewDefaultChannelPolicy(channelID)
	policy.Timezone = r.defaultTimezone

	stored, err := r.store.GetPolicy(ctx, channelID)
	if err != nil {
		if !errors.Is(err, ErrPolicyNotFound) {
			r.logger.Warn("channel policy lookup failed, using defaults", "channel", channelID, "error", err)
		}
		return policy
	}

	if stored.SLAHours > 0 {
		policy.SLAHours = stored.SLAHours
	}
	if stored.EnabledHours != nil {
		policy.EnabledHours = stored.EnabledHours
	}
	if stored.Timezone != "" {
		policy.Timezone = stored.Timezone
	}
	return policy
}

func (r *PolicyResolver) GetSLAHours(ctx context.Context, channelID string) int {
	return r.Resolve(ctx, channelID).SLAHours
}

func (r *PolicyResolver) GetEnabledHours(ctx context.Context, channelID string) models.HourSet {
	return r.Resolve(ctx, channelID).EnabledHours
}

// loadForUpdate は書き込み用に保存済みの設定を読む。未作成ならデフォルト値で作る
func (r *PolicyResolver) loadForUpdate(ctx context.Context, channelID string) (*models.ChannelPolicy, error) {
	stored, err := r.store.GetPolicy(ctx, channelID)
	if errors.Is(err, ErrPolicyNotFound) {
		policy := models.NewDefaultChannelPolicy(channelID)
		return &policy, nil
	}
	if err != nil {
		return nil, err
	}
	if stored.SLAHours <= 0 {
		stored.SLAHours = models.DefaultSLAHours
	}
	if stored.EnabledHours == nil {
		stored.EnabledHours = models.DefaultEnabledHours()
	}
	return stored, nil
}

// SetSLAHours はチャンネルのSLA時間を更新する
func (r *PolicyResolver) SetSLAHours(ctx context.Context, channelID string, hours int) (*models.ChannelPolicy, error) {
	if hours <= 0 {
		return nil, ErrInvalidSLAHours
	}

	policy, err := r.loadForUpdate(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to load channel policy: %w", err)
	}

	policy.SLAHours = hours
	if err := r.store.SavePolicy(ctx, policy); err != nil {
		return nil, err
	}

	r.logger.Info("sla hours updated", "channel", channelID, "sla_hours", hours)
	return policy, nil
}

// ToggleEnabledHour は指定した時刻の通知の有効/無効を切り替える
func (r *PolicyResolver) ToggleEnabledHour(ctx context.Context, channelID string, hour int) (*models.ChannelPolicy, error) {
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("hour out of range: %d", hour)
	}

	policy, err := r.loadForUpdate(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to load channel policy: %w", err)
	}

	policy.EnabledHours = policy.EnabledHours.Toggle(hour)
	if err := r.store.SavePolicy(ctx, policy); err != nil {
		return nil, err
	}

	r.logger.Info("enabled hours updated", "channel", channelID, "enabled_hours", []int(policy.EnabledHours))
	return policy, nil
}
