package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"slack-pr-sla/models"
)

//go:generate mockgen -source=store.go -destination=store_mock.go -package=services

// RequestStore はレビュー依頼の永続化を扱う
type RequestStore interface {
	ListOpen(ctx context.Context) ([]models.ReviewRequest, error)
	ListByChannel(ctx context.Context, channelID string) ([]models.ReviewRequest, error)
	ListBySubmitter(ctx context.Context, submitterID string) ([]models.ReviewRequest, error)
	Get(ctx context.Context, id string) (*models.ReviewRequest, error)
	Upsert(ctx context.Context, req *models.ReviewRequest) error
	Delete(ctx context.Context, id string) error
}

// PolicyStore はチャンネル設定の永続化を扱う
type PolicyStore interface {
	GetPolicy(ctx context.Context, channelID string) (*models.ChannelPolicy, error)
	SavePolicy(ctx context.Context, policy *models.ChannelPolicy) error
}

var (
	_ RequestStore = (*GormRequestStore)(nil)
	_ PolicyStore  = (*GormPolicyStore)(nil)
)

// GormRequestStore は gorm を使った RequestStore
// 一覧系は読めない行をログに出して飛ばす
type GormRequestStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewGormRequestStore(db *gorm.DB) *GormRequestStore {
	return &GormRequestStore{db: db, logger: slog.Default()}
}

// findRequests は query の結果を1行ずつ読み込む
func (s *GormRequestStore) findRequests(ctx context.Context, query *gorm.DB) ([]models.ReviewRequest, error) {
	rows, err := query.Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	db := s.db.WithContext(ctx)
	requests := make([]models.ReviewRequest, 0)
	for rows.Next() {
		var req models.ReviewRequest
		if err := db.ScanRows(rows, &req); err != nil {
			s.logger.Warn("skip unreadable review request", "id", req.ID, "error", err)
			continue
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *GormRequestStore) ListOpen(ctx context.Context) ([]models.ReviewRequest, error) {
	query := s.db.WithContext(ctx).Model(&models.ReviewRequest{}).Order("id")
	requests, err := s.findRequests(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list review requests: %w", err)
	}
	return requests, nil
}

func (s *GormRequestStore) ListByChannel(ctx context.Context, channelID string) ([]models.ReviewRequest, error) {
	query := s.db.WithContext(ctx).Model(&models.ReviewRequest{}).Where("channel_id = ?", channelID).Order("id")
	requests, err := s.findRequests(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list review requests (channel: %s): %w", channelID, err)
	}
	return requests, nil
}

func (s *GormRequestStore) ListBySubmitter(ctx context.Context, submitterID string) ([]models.ReviewRequest, error) {
	query := s.db.WithContext(ctx).Model(&models.ReviewRequest{}).Where("submitter_id = ?", submitterID).Order("created_at")
	requests, err := s.findRequests(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list review requests (submitter: %s): %w", submitterID, err)
	}
	return requests, nil
}

func (s *GormRequestStore) Get(ctx context.Context, id string) (*models.ReviewRequest, error) {
	var req models.ReviewRequest
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review request %s: %w", id, err)
	}
	return &req, nil
}

// Upsert はレコード全体を書き込む（部分更新はしない）
func (s *GormRequestStore) Upsert(ctx context.Context, req *models.ReviewRequest) error {
	if err := s.db.WithContext(ctx).Save(req).Error; err != nil {
		return fmt.Errorf("failed to save review request %s: %w", req.ID, err)
	}
	return nil
}

func (s *GormRequestStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ReviewRequest{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete review request %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// GormPolicyStore は gorm を使った PolicyStore
type GormPolicyStore struct {
	db *gorm.DB
}

func NewGormPolicyStore(db *gorm.DB) *GormPolicyStore {
	return &GormPolicyStore{db: db}
}

func (s *GormPolicyStore) GetPolicy(ctx context.Context, channelID string) (*models.ChannelPolicy, error) {
	var policy models.ChannelPolicy
	err := s.db.WithContext(ctx).Where("channel_id = ?", channelID).First(&policy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel policy %s: %w", channelID, err)
	}
	return &policy, nil
}

func (s *GormPolicyStore) SavePolicy(ctx context.Context, policy *models.ChannelPolicy) error {
	if err := s.db.WithContext(ctx).Save(policy).Error; err != nil {
		return fmt.Errorf("failed to save channel policy %s: %w", policy.ChannelID, err)
	}
	return nil
}
