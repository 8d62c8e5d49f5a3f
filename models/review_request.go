package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// UserSet は Slack ユーザーIDの集合
// DB には JSON 配列（ソート済み）として保存する
type UserSet map[string]struct{}

// NewUserSet は指定したユーザーIDを含む集合を作成する
func NewUserSet(ids ...string) UserSet {
	s := make(UserSet, len(ids))
	for _, id := range ids {
		if id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

func (s UserSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add は id を追加し、新しく追加された場合は true を返す
func (s *UserSet) Add(id string) bool {
	if *s == nil {
		*s = make(UserSet)
	}
	if s.Has(id) {
		return false
	}
	(*s)[id] = struct{}{}
	return true
}

// Remove は id を削除し、削除された場合は true を返す
func (s UserSet) Remove(id string) bool {
	if !s.Has(id) {
		return false
	}
	delete(s, id)
	return true
}

func (s UserSet) Len() int {
	return len(s)
}

// Sorted はユーザーIDを昇順で返す
func (s UserSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Value は driver.Valuer の実装
func (s UserSet) Value() (driver.Value, error) {
	data, err := json.Marshal(s.Sorted())
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan は sql.Scanner の実装
func (s *UserSet) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*s = UserSet{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported user set value: %T", value)
	}

	if len(data) == 0 {
		*s = UserSet{}
		return nil
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("failed to decode user set: %w", err)
	}
	*s = NewUserSet(ids...)
	return nil
}

func (UserSet) GormDataType() string {
	return "text"
}

// ReviewRequest はチャンネルに投稿されたレビュー依頼
type ReviewRequest struct {
	ID                       string  `gorm:"primaryKey"` // レビューリンクをそのままIDにする
	ChannelID                string  `gorm:"index"`
	SubmitterID              string  `gorm:"index"`
	Name                     string  // PR名
	Link                     string  // PRのURL
	Description              string  // 説明
	Timestamp                string  // 依頼時刻（RFC3339）
	ReviewsNeeded            int     // 必要なレビュー数
	ReviewsReceived          int     // 現在の +1 数（常に len(Reviewers) と一致させる）
	Reviewers                UserSet // +1 したユーザー
	AttentionRequests        UserSet // 提出者の対応を求めたユーザー
	PendingReviewerRemovals  UserSet // 編集確定時に Reviewers から外すユーザー
	PendingAttentionRemovals UserSet // 編集確定時に AttentionRequests から外すユーザー
	PendingReviewerPings     UserSet // 編集確定時に再レビューを依頼するユーザー
	PendingAttentionPings    UserSet // 編集確定時に対応済みを知らせるユーザー
	MessageTS                string  // チャンネルに投稿したメッセージのts
	Permalink                string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// localTimestampLayout はタイムゾーンなしで保存された依頼時刻の形式（小数秒は省略可）
const localTimestampLayout = "2006-01-02T15:04:05.999999999"

// SubmittedAt は Timestamp を解析して返す。タイムゾーンがなければUTCとみなす
func (r *ReviewRequest) SubmittedAt() (time.Time, error) {
	return r.SubmittedAtIn(time.UTC)
}

// SubmittedAtIn は Timestamp を解析して返す。タイムゾーンがなければ loc の時刻とみなす
func (r *ReviewRequest) SubmittedAtIn(loc *time.Location) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, r.Timestamp)
	if err == nil {
		return t, nil
	}
	if local, localErr := time.ParseInLocation(localTimestampLayout, r.Timestamp, loc); localErr == nil {
		return local, nil
	}
	return time.Time{}, err
}

// ReviewsRemaining は残りの必要レビュー数を返す（0未満にはならない）
func (r *ReviewRequest) ReviewsRemaining() int {
	remaining := r.ReviewsNeeded - r.ReviewsReceived
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (r *ReviewRequest) IsFullyReviewed() bool {
	return r.ReviewsReceived >= r.ReviewsNeeded
}

// AddReviewer は +1 を追加し、ReviewsReceived を再計算する
func (r *ReviewRequest) AddReviewer(userID string) bool {
	added := r.Reviewers.Add(userID)
	r.ReviewsReceived = r.Reviewers.Len()
	return added
}

// RemoveReviewer は +1 を取り消し、ReviewsReceived を再計算する
func (r *ReviewRequest) RemoveReviewer(userID string) bool {
	removed := r.Reviewers.Remove(userID)
	r.ReviewsReceived = r.Reviewers.Len()
	return removed
}

// StatusText はレビュー依頼の状態を短い文字列で返す
func (r *ReviewRequest) StatusText() string {
	if r.AttentionRequests.Len() > 0 {
		return "attention needed"
	}
	if remaining := r.ReviewsRemaining(); remaining > 0 {
		return fmt.Sprintf("needs %d reviews", remaining)
	}
	return "PR reviewed!"
}
