package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slack-pr-sla/models"
)

func classified(id, channelID string, c Classification) Classified {
	return Classified{
		Request:        newTestRequest(id, channelID, at(2, 9, 0), 2, 0),
		Policy:         models.NewDefaultChannelPolicy(channelID),
		Classification: c,
	}
}

func entryIDs(entries []DigestEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Request.ID)
	}
	return ids
}

func TestAggregate_OverdueOrderedByMostOverdue(t *testing.T) {
	items := []Classified{
		classified("pr-a", "C1", Classification{Tier: TierOverdue, Overdue: 100 * time.Second}),
		classified("pr-b", "C1", Classification{Tier: TierOverdue, Overdue: 500 * time.Second}),
		classified("pr-c", "C1", Classification{Tier: TierOverdue, Overdue: 300 * time.Second}),
	}

	digests := Aggregate(items)
	require.Contains(t, digests, "C1")

	overdue := digests["C1"].Overdue
	require.Len(t, overdue, 3)
	assert.Equal(t, 500*time.Second, overdue[0].Classification.Overdue)
	assert.Equal(t, 300*time.Second, overdue[1].Classification.Overdue)
	assert.Equal(t, 100*time.Second, overdue[2].Classification.Overdue)
}

func TestAggregate_OverdueTiesBrokenByID(t *testing.T) {
	items := []Classified{
		classified("pr-z", "C1", Classification{Tier: TierOverdue, Overdue: time.Minute}),
		classified("pr-m", "C1", Classification{Tier: TierOverdue, Overdue: time.Hour}),
		classified("pr-a", "C1", Classification{Tier: TierOverdue, Overdue: time.Minute}),
	}

	digests := Aggregate(items)
	assert.Equal(t, []string{"pr-m", "pr-a", "pr-z"}, entryIDs(digests["C1"].Overdue))
}

func TestAggregate_GroupsByChannelAndTier(t *testing.T) {
	items := []Classified{
		classified("pr-1", "C1", Classification{Tier: TierNearThreshold, Remaining: 40 * time.Minute}),
		classified("pr-2", "C1", Classification{Tier: TierNearThreshold, Remaining: 10 * time.Minute}),
		classified("pr-3", "C1", Classification{Tier: TierActive}),
		classified("pr-4", "C2", Classification{Tier: TierReviewed}),
		classified("pr-5", "C2", Classification{Tier: TierExpired}),
		classified("pr-6", "C3", Classification{Tier: TierExpired}),
	}

	digests := Aggregate(items)

	assert.Len(t, digests, 2)
	assert.NotContains(t, digests, "C3")

	c1 := digests["C1"]
	assert.Equal(t, "C1", c1.ChannelID)
	assert.Equal(t, models.DefaultSLAHours, c1.SLAHours)
	assert.Equal(t, []string{"pr-2", "pr-1"}, entryIDs(c1.NearThreshold))
	assert.Equal(t, []string{"pr-3"}, entryIDs(c1.Active))
	assert.Empty(t, c1.Overdue)
	assert.True(t, c1.HasAlerts())

	c2 := digests["C2"]
	assert.Equal(t, []string{"pr-4"}, entryIDs(c2.Reviewed))
	assert.False(t, c2.HasAlerts())
	assert.False(t, c2.IsEmpty())
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
	assert.True(t, ChannelDigest{}.IsEmpty())
}
