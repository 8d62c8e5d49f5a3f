package services

import (
	"container/heap"
	"sort"

	"slack-pr-sla/models"
)

// Classified は判定済みのレビュー依頼
// Request は判定時点のスナップショットで、集計中に書き換えない
type Classified struct {
	Request        models.ReviewRequest
	Policy         models.ChannelPolicy
	Classification Classification
}

// DigestEntry はダイジェストに載る1件
type DigestEntry struct {
	Request        models.ReviewRequest
	Classification Classification
}

// ChannelDigest はチャンネルごとに集計したレビュー依頼の一覧
type ChannelDigest struct {
	ChannelID     string
	SLAHours      int
	Overdue       []DigestEntry // 超過時間の長い順
	NearThreshold []DigestEntry // SLAまでの残り時間の短い順
	Active        []DigestEntry
	Reviewed      []DigestEntry
}

// HasAlerts は超過またはSLA間近の依頼があるかを返す
func (d ChannelDigest) HasAlerts() bool {
	return len(d.Overdue) > 0 || len(d.NearThreshold) > 0
}

func (d ChannelDigest) IsEmpty() bool {
	return !d.HasAlerts() && len(d.Active) == 0 && len(d.Reviewed) == 0
}

// overdueKey はヒープに積む (超過時間, ID) の組。積んだ後は変更しない
type overdueKey struct {
	overdue int64
	id      string
}

// overdueHeap は超過時間の長い順、同じならID昇順に取り出すヒープ
type overdueHeap []overdueKey

func (h overdueHeap) Len() int { return len(h) }

func (h overdueHeap) Less(i, j int) bool {
	if h[i].overdue != h[j].overdue {
		return h[i].overdue > h[j].overdue
	}
	return h[i].id < h[j].id
}

func (h overdueHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *overdueHeap) Push(x any) {
	*h = append(*h, x.(overdueKey))
}

func (h *overdueHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

type channelBucket struct {
	digest  ChannelDigest
	heap    overdueHeap
	overdue map[string]DigestEntry
}

// Aggregate は判定結果をチャンネルごとにまとめて並べ替える
// 期限切れの依頼はダイジェストに含めない
func Aggregate(items []Classified) map[string]ChannelDigest {
	buckets := make(map[string]*channelBucket)

	for _, item := range items {
		if item.Classification.Tier == TierExpired {
			continue
		}

		channelID := item.Request.ChannelID
		bucket, ok := buckets[channelID]
		if !ok {
			bucket = &channelBucket{
				digest:  ChannelDigest{ChannelID: channelID, SLAHours: item.Policy.SLAHours},
				overdue: make(map[string]DigestEntry),
			}
			buckets[channelID] = bucket
		}

		entry := DigestEntry{Request: item.Request, Classification: item.Classification}
		switch item.Classification.Tier {
		case TierOverdue:
			heap.Push(&bucket.heap, overdueKey{overdue: int64(item.Classification.Overdue), id: item.Request.ID})
			bucket.overdue[item.Request.ID] = entry
		case TierNearThreshold:
			bucket.digest.NearThreshold = append(bucket.digest.NearThreshold, entry)
		case TierReviewed:
			bucket.digest.Reviewed = append(bucket.digest.Reviewed, entry)
		default:
			bucket.digest.Active = append(bucket.digest.Active, entry)
		}
	}

	digests := make(map[string]ChannelDigest, len(buckets))
	for channelID, bucket := range buckets {
		for bucket.heap.Len() > 0 {
			key := heap.Pop(&bucket.heap).(overdueKey)
			bucket.digest.Overdue = append(bucket.digest.Overdue, bucket.overdue[key.id])
		}

		sort.SliceStable(bucket.digest.NearThreshold, func(i, j int) bool {
			a, b := bucket.digest.NearThreshold[i], bucket.digest.NearThreshold[j]
			if a.Classification.Remaining != b.Classification.Remaining {
				return a.Classification.Remaining < b.Classification.Remaining
			}
			return a.Request.ID < b.Request.ID
		})
		sortEntriesByID(bucket.digest.Active)
		sortEntriesByID(bucket.digest.Reviewed)

		digests[channelID] = bucket.digest
	}

	return digests
}

func sortEntriesByID(entries []DigestEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Request.ID < entries[j].Request.ID
	})
}
