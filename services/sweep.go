package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"slack-pr-sla/models"
)

// SweepOutcome は1回の定期チェックの結果
// 削除と通知は呼び出し側が行う
type SweepOutcome struct {
	ExpiredIDs    []string                 // ID昇順
	Expired       []models.ReviewRequest   // 期限切れの依頼（削除告知用）
	Notifications map[string]ChannelDigest // 通知を送るチャンネル
}

// Sweeper は保存されているレビュー依頼をすべて判定して通知内容を組み立てる
type Sweeper struct {
	requests RequestStore
	policies *PolicyResolver
	logger   *slog.Logger
}

func NewSweeper(requests RequestStore, policies *PolicyResolver, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		requests: requests,
		policies: policies,
		logger:   logger,
	}
}

// policyCache は1回のチェックの間だけチャンネル設定を保持する
type policyCache struct {
	ctx      context.Context
	resolver *PolicyResolver
	policies map[string]models.ChannelPolicy
}

func (c *policyCache) get(channelID string) models.ChannelPolicy {
	if policy, ok := c.policies[channelID]; ok {
		return policy
	}
	policy := c.resolver.Resolve(c.ctx, channelID)
	c.policies[channelID] = policy
	return policy
}

// classifyAll はレビュー依頼をすべて判定する。不正なレコードはログに出してスキップする
func (s *Sweeper) classifyAll(ctx context.Context, requests []models.ReviewRequest, now time.Time) ([]Classified, *policyCache) {
	cache := &policyCache{ctx: ctx, resolver: s.policies, policies: make(map[string]models.ChannelPolicy)}

	results := make([]Classified, 0, len(requests))
	for _, req := range requests {
		var policy models.ChannelPolicy
		if req.ChannelID != "" {
			policy = cache.get(req.ChannelID)
		}

		classification, err := Classify(&req, policy, now)
		if err != nil {
			s.logger.Warn("skip malformed review request", "id", req.ID, "error", err)
			continue
		}

		results = append(results, Classified{Request: req, Policy: policy, Classification: classification})
	}
	return results, cache
}

// RunSweep は now 時点の判定を行う
// 同じ保存内容と同じ now に対しては常に同じ結果を返す
func (s *Sweeper) RunSweep(ctx context.Context, now time.Time) (SweepOutcome, error) {
	requests, err := s.requests.ListOpen(ctx)
	if err != nil {
		return SweepOutcome{}, fmt.Errorf("failed to load review requests: %w", err)
	}

	results, cache := s.classifyAll(ctx, requests, now)

	outcome := SweepOutcome{
		ExpiredIDs:    []string{},
		Expired:       []models.ReviewRequest{},
		Notifications: make(map[string]ChannelDigest),
	}

	for _, result := range results {
		if result.Classification.Tier == TierExpired {
			outcome.Expired = append(outcome.Expired, result.Request)
		}
	}
	sort.Slice(outcome.Expired, func(i, j int) bool {
		return outcome.Expired[i].ID < outcome.Expired[j].ID
	})
	for _, req := range outcome.Expired {
		outcome.ExpiredIDs = append(outcome.ExpiredIDs, req.ID)
	}

	for channelID, digest := range Aggregate(results) {
		if !digest.HasAlerts() {
			continue
		}

		policy := cache.get(channelID)
		hour := now.In(policy.Location(now.Location())).Hour()
		if !policy.EnabledHours.Contains(hour) {
			s.logger.Info("skip channel outside enabled hours", "channel", channelID, "hour", hour)
			continue
		}

		outcome.Notifications[channelID] = digest
	}

	return outcome, nil
}

// ChannelSummary は1チャンネル分の判定結果を時間帯の制限なしで返す（/pr-active 用）
func (s *Sweeper) ChannelSummary(ctx context.Context, channelID string, now time.Time) (ChannelDigest, error) {
	requests, err := s.requests.ListByChannel(ctx, channelID)
	if err != nil {
		return ChannelDigest{}, fmt.Errorf("failed to load review requests: %w", err)
	}

	results, cache := s.classifyAll(ctx, requests, now)
	if digest, ok := Aggregate(results)[channelID]; ok {
		return digest, nil
	}

	return ChannelDigest{ChannelID: channelID, SLAHours: cache.get(channelID).SLAHours}, nil
}
