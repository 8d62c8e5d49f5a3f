package services

import (
	"fmt"
	"time"

	"slack-pr-sla/models"
)

// Tier はレビュー依頼の緊急度
type Tier int

const (
	TierActive Tier = iota
	TierNearThreshold
	TierOverdue
	TierReviewed
	TierExpired
)

func (t Tier) String() string {
	switch t {
	case TierActive:
		return "active"
	case TierNearThreshold:
		return "near_threshold"
	case TierOverdue:
		return "overdue"
	case TierReviewed:
		return "reviewed"
	case TierExpired:
		return "expired"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// SLAWarningWindow はSLA到達前に警告を出し始める幅
const SLAWarningWindow = time.Hour

// Classification は1件のレビュー依頼の判定結果
// Overdue は TierOverdue のとき、Remaining は TierNearThreshold のときのみ設定される
type Classification struct {
	Tier      Tier
	Elapsed   time.Duration
	Overdue   time.Duration
	Remaining time.Duration
}

// validateRequest は判定に必要な項目がそろっているか確認し、依頼時刻を返す
// タイムゾーンなしの依頼時刻は loc の時刻とみなす
func validateRequest(req *models.ReviewRequest, loc *time.Location) (time.Time, error) {
	if req.ID == "" {
		return time.Time{}, fmt.Errorf("%w: empty id", ErrMalformedRequest)
	}
	if req.ChannelID == "" {
		return time.Time{}, fmt.Errorf("%w: request %s has no channel", ErrMalformedRequest, req.ID)
	}
	if req.ReviewsNeeded < 0 || req.ReviewsReceived < 0 {
		return time.Time{}, fmt.Errorf("%w: request %s has negative review counts", ErrMalformedRequest, req.ID)
	}
	submittedAt, err := req.SubmittedAtIn(loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: request %s timestamp %q: %v", ErrMalformedRequest, req.ID, req.Timestamp, err)
	}
	return submittedAt, nil
}

// Classify はレビュー依頼を期限切れ、レビュー済み、SLA超過、SLA間近、進行中のいずれかに分類する
// 上から順に最初に当てはまったものを採用する
func Classify(req *models.ReviewRequest, policy models.ChannelPolicy, now time.Time) (Classification, error) {
	submittedAt, err := validateRequest(req, policy.Location(time.UTC))
	if err != nil {
		return Classification{}, err
	}

	// チャンネルのタイムゾーンが設定されていればその営業時間で数える
	loc := policy.Location(submittedAt.Location())
	submittedAt = submittedAt.In(loc)
	now = now.In(loc)

	if WorkingDaysBetween(submittedAt, now) >= ExpiryWorkingDays {
		return Classification{Tier: TierExpired}, nil
	}

	if req.ReviewsReceived >= req.ReviewsNeeded {
		return Classification{Tier: TierReviewed}, nil
	}

	elapsed := BusinessDuration(submittedAt, now)
	threshold := time.Duration(policy.SLAHours) * time.Hour

	switch {
	case elapsed > threshold:
		return Classification{Tier: TierOverdue, Elapsed: elapsed, Overdue: elapsed - threshold}, nil
	case elapsed >= threshold-SLAWarningWindow:
		return Classification{Tier: TierNearThreshold, Elapsed: elapsed, Remaining: threshold - elapsed}, nil
	default:
		return Classification{Tier: TierActive, Elapsed: elapsed}, nil
	}
}
