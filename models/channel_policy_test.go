package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupModelsTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("fail to open test db: %v", err)
	}

	// マイグレーションを実行
	if err := db.AutoMigrate(&ChannelPolicy{}, &ReviewRequest{}); err != nil {
		t.Fatalf("fail to migrate test db: %v", err)
	}

	return db
}

func TestChannelPolicy_SaveAndLoad(t *testing.T) {
	db := setupModelsTestDB(t)

	policy := ChannelPolicy{
		ChannelID:    "C12345",
		SLAHours:     4,
		EnabledHours: NewHourSet(15, 9, 10, 9),
		Timezone:     "Asia/Tokyo",
	}
	assert.NoError(t, db.Create(&policy).Error)

	var saved ChannelPolicy
	assert.NoError(t, db.Where("channel_id = ?", "C12345").First(&saved).Error)

	assert.Equal(t, 4, saved.SLAHours)
	assert.Equal(t, HourSet{9, 10, 15}, saved.EnabledHours)
	assert.Equal(t, "Asia/Tokyo", saved.Timezone)
}

func TestChannelPolicy_EmptyEnabledHoursIsNotDefault(t *testing.T) {
	db := setupModelsTestDB(t)

	// すべての時間帯を無効にしたチャンネル
	policy := ChannelPolicy{ChannelID: "C1", SLAHours: 8, EnabledHours: HourSet{}}
	assert.NoError(t, db.Create(&policy).Error)

	var saved ChannelPolicy
	assert.NoError(t, db.First(&saved, "channel_id = ?", "C1").Error)
	assert.NotNil(t, saved.EnabledHours)
	assert.Empty(t, saved.EnabledHours)
}

func TestDefaultEnabledHours(t *testing.T) {
	assert.Equal(t, HourSet{9, 10, 11, 12, 13, 14, 15, 16}, DefaultEnabledHours())

	policy := NewDefaultChannelPolicy("C1")
	assert.Equal(t, DefaultSLAHours, policy.SLAHours)
	assert.True(t, policy.EnabledHours.Contains(9))
	assert.True(t, policy.EnabledHours.Contains(16))
	assert.False(t, policy.EnabledHours.Contains(17))
}

func TestHourSet_Toggle(t *testing.T) {
	tests := []struct {
		name     string
		hours    HourSet
		toggle   int
		expected HourSet
	}{
		{"有効な時間を無効にする", HourSet{9, 10, 11}, 10, HourSet{9, 11}},
		{"無効な時間を有効にする", HourSet{9, 11}, 10, HourSet{9, 10, 11}},
		{"空の集合に追加", HourSet{}, 16, HourSet{16}},
		{"範囲外は追加されない", HourSet{9}, 24, HourSet{9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.hours.Toggle(tt.toggle))
		})
	}
}

func TestChannelPolicy_Location(t *testing.T) {
	fallback := time.UTC

	assert.Equal(t, fallback, ChannelPolicy{}.Location(fallback))
	assert.Equal(t, fallback, ChannelPolicy{Timezone: "Invalid/Zone"}.Location(fallback))

	loc := ChannelPolicy{Timezone: "America/New_York"}.Location(fallback)
	assert.Equal(t, "America/New_York", loc.String())
}
