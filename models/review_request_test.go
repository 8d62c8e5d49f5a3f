package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewRequest_UserSetsRoundTrip(t *testing.T) {
	db := setupModelsTestDB(t)

	req := ReviewRequest{
		ID:                "https://github.com/owner/repo/pull/1",
		ChannelID:         "C12345",
		SubmitterID:       "U00001",
		Name:              "Add feature",
		Link:              "https://github.com/owner/repo/pull/1",
		Timestamp:         "2024-09-02T10:00:00Z",
		ReviewsNeeded:     2,
		Reviewers:         NewUserSet("U2", "U1"),
		AttentionRequests: NewUserSet(),
	}
	req.ReviewsReceived = req.Reviewers.Len()
	require.NoError(t, db.Create(&req).Error)

	var saved ReviewRequest
	require.NoError(t, db.First(&saved, "id = ?", req.ID).Error)

	assert.Equal(t, []string{"U1", "U2"}, saved.Reviewers.Sorted())
	assert.Equal(t, 2, saved.ReviewsReceived)
	assert.Equal(t, 0, saved.AttentionRequests.Len())
	assert.Equal(t, 0, saved.PendingReviewerRemovals.Len())
}

func TestUserSet_Value(t *testing.T) {
	v, err := NewUserSet("U3", "U1", "U2").Value()
	assert.NoError(t, err)
	assert.Equal(t, `["U1","U2","U3"]`, v)

	var empty UserSet
	v, err = empty.Value()
	assert.NoError(t, err)
	assert.Equal(t, `[]`, v)
}

func TestUserSet_Scan(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		want    []string
		wantErr bool
	}{
		{"JSON配列（文字列）", `["U1","U2"]`, []string{"U1", "U2"}, false},
		{"JSON配列（バイト列）", []byte(`["U2"]`), []string{"U2"}, false},
		{"NULL", nil, []string{}, false},
		{"空文字列", "", []string{}, false},
		{"不正なJSON", "{not json", nil, true},
		{"未対応の型", 42, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s UserSet
			err := s.Scan(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, s.Sorted())
		})
	}
}

func TestReviewRequest_ReviewerInvariant(t *testing.T) {
	req := ReviewRequest{ReviewsNeeded: 2}

	assert.True(t, req.AddReviewer("U1"))
	assert.False(t, req.AddReviewer("U1"))
	assert.Equal(t, 1, req.ReviewsReceived)
	assert.False(t, req.IsFullyReviewed())

	assert.True(t, req.AddReviewer("U2"))
	assert.Equal(t, 2, req.ReviewsReceived)
	assert.True(t, req.IsFullyReviewed())

	assert.True(t, req.RemoveReviewer("U1"))
	assert.False(t, req.RemoveReviewer("U1"))
	assert.Equal(t, 1, req.ReviewsReceived)
	assert.Equal(t, req.Reviewers.Len(), req.ReviewsReceived)
}

func TestReviewRequest_StatusText(t *testing.T) {
	tests := []struct {
		name string
		req  ReviewRequest
		want string
	}{
		{
			name: "attention が最優先",
			req:  ReviewRequest{ReviewsNeeded: 2, AttentionRequests: NewUserSet("U9")},
			want: "attention needed",
		},
		{
			name: "レビュー待ち",
			req:  ReviewRequest{ReviewsNeeded: 2, ReviewsReceived: 1},
			want: "needs 1 reviews",
		},
		{
			name: "レビュー完了",
			req:  ReviewRequest{ReviewsNeeded: 2, ReviewsReceived: 2},
			want: "PR reviewed!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.StatusText())
		})
	}
}

func TestReviewRequest_SubmittedAt(t *testing.T) {
	req := ReviewRequest{Timestamp: "2024-09-06T16:40:00+09:00"}
	ts, err := req.SubmittedAt()
	assert.NoError(t, err)
	assert.Equal(t, 16, ts.Hour())

	req.Timestamp = "yesterday"
	_, err = req.SubmittedAt()
	assert.Error(t, err)
}

func TestReviewRequest_SubmittedAtIn(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	tests := []struct {
		name      string
		timestamp string
		want      time.Time
	}{
		{"タイムゾーンありはそのまま", "2024-09-05T09:00:00Z", time.Date(2024, 9, 5, 9, 0, 0, 0, time.UTC)},
		{"タイムゾーンなしは指定地域の時刻", "2024-09-05T09:00:00", time.Date(2024, 9, 5, 9, 0, 0, 0, tokyo)},
		{"小数秒つきのタイムゾーンなし", "2024-09-05T09:00:00.123456", time.Date(2024, 9, 5, 9, 0, 0, 123456000, tokyo)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ReviewRequest{Timestamp: tt.timestamp}
			got, err := req.SubmittedAtIn(tokyo)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}

	req := ReviewRequest{Timestamp: "2024-09-05"}
	_, err = req.SubmittedAtIn(tokyo)
	assert.Error(t, err)
}
