package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

const (
	DefaultSLAHours = 8

	// 設定画面で切り替えられる通知時間帯
	FirstConfigurableHour = 9
	LastConfigurableHour  = 16
)

// HourSet は通知を許可する時刻（0〜23時）の集合
type HourSet []int

// DefaultEnabledHours は 9時〜16時 を返す
func DefaultEnabledHours() HourSet {
	hours := make(HourSet, 0, LastConfigurableHour-FirstConfigurableHour+1)
	for h := FirstConfigurableHour; h <= LastConfigurableHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// NewHourSet は 0〜23 の範囲外と重複を取り除いてソートした集合を返す
func NewHourSet(hours ...int) HourSet {
	seen := make(map[int]bool, len(hours))
	set := make(HourSet, 0, len(hours))
	for _, h := range hours {
		if h < 0 || h > 23 || seen[h] {
			continue
		}
		seen[h] = true
		set = append(set, h)
	}
	sort.Ints(set)
	return set
}

func (h HourSet) Contains(hour int) bool {
	for _, v := range h {
		if v == hour {
			return true
		}
	}
	return false
}

// Toggle は hour の有効/無効を切り替えた新しい集合を返す
func (h HourSet) Toggle(hour int) HourSet {
	if h.Contains(hour) {
		next := make(HourSet, 0, len(h))
		for _, v := range h {
			if v != hour {
				next = append(next, v)
			}
		}
		return next
	}
	return NewHourSet(append(append(HourSet{}, h...), hour)...)
}

// Value は driver.Valuer の実装
func (h HourSet) Value() (driver.Value, error) {
	if h == nil {
		h = HourSet{}
	}
	data, err := json.Marshal([]int(h))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan は sql.Scanner の実装
func (h *HourSet) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*h = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported hour set value: %T", value)
	}

	if len(data) == 0 {
		*h = nil
		return nil
	}

	var hours []int
	if err := json.Unmarshal(data, &hours); err != nil {
		return fmt.Errorf("failed to decode hour set: %w", err)
	}
	*h = NewHourSet(hours...)
	return nil
}

func (HourSet) GormDataType() string {
	return "text"
}

// ChannelPolicy はチャンネルごとのSLA設定
// 最初に設定が書き込まれた時点で作成される
type ChannelPolicy struct {
	ChannelID    string  `gorm:"primaryKey"`
	SLAHours     int     // SLA（営業時間ベースの時間数）
	EnabledHours HourSet // 定期通知を送ってよい時刻
	Timezone     string  // 空の場合はサーバーのデフォルトを使う
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewDefaultChannelPolicy はデフォルト値のポリシーを作成する
func NewDefaultChannelPolicy(channelID string) ChannelPolicy {
	return ChannelPolicy{
		ChannelID:    channelID,
		SLAHours:     DefaultSLAHours,
		EnabledHours: DefaultEnabledHours(),
	}
}

// Location はポリシーのタイムゾーンを返す。未設定または不正な場合は fallback を返す
func (p ChannelPolicy) Location(fallback *time.Location) *time.Location {
	if p.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}
