package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"slack-pr-sla/models"
)

// PRTitleFetcher はPRのURLからタイトルを取得する
type PRTitleFetcher interface {
	PRTitle(ctx context.Context, prURL string) (string, error)
}

// SubmitInput は提出モーダルの入力内容
type SubmitInput struct {
	ChannelID     string
	SubmitterID   string
	Name          string
	Link          string
	Description   string
	ReviewsNeeded int
}

// EditInput は編集モーダルの入力内容。リンクはIDなので変更できない
type EditInput struct {
	Name          string
	Description   string
	ReviewsNeeded int
}

// EditResult は編集の確定時に通知したユーザー
type EditResult struct {
	Request         *models.ReviewRequest
	PingedReviewers []string
	PingedAttention []string
}

// ReviewService はレビュー依頼の作成・更新・削除を行う
// ReviewsReceived と Reviewers の整合性はここで保つ
type ReviewService struct {
	requests  RequestStore
	messenger Messenger
	titles    PRTitleFetcher
	now       func() time.Time
	logger    *slog.Logger
}

// NewReviewService は titles が nil の場合PRタイトルの自動取得をしない
func NewReviewService(requests RequestStore, messenger Messenger, titles PRTitleFetcher, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		requests:  requests,
		messenger: messenger,
		titles:    titles,
		now:       time.Now,
		logger:    logger,
	}
}

// NormalizeLink はスキームがなければ https:// を補い、http(s) の絶対URLかを検証する
func NormalizeLink(raw string) (string, error) {
	link := strings.TrimSpace(raw)
	if link == "" {
		return "", ErrInvalidLink
	}
	if !strings.Contains(link, "://") {
		link = "https://" + link
	}

	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || strings.ContainsAny(u.Host, " \t") {
		return "", ErrInvalidLink
	}
	return link, nil
}

// ParseReviewsNeeded は必要レビュー数を解釈する。空欄なら 2
func ParseReviewsNeeded(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultReviewsNeeded, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, ErrInvalidReviews
	}
	return n, nil
}

func requestLabel(req models.ReviewRequest) string {
	name := req.Name
	if name == "" {
		name = req.Link
	}
	return fmt.Sprintf("*<%s|%s>*", req.Link, name)
}

func originalPost(req models.ReviewRequest) string {
	if req.Permalink == "" {
		return ""
	}
	return fmt.Sprintf("\n<%s|View original post>", req.Permalink)
}

// Submit はレビュー依頼をチャンネルに投稿して保存する
func (s *ReviewService) Submit(ctx context.Context, in SubmitInput) (*models.ReviewRequest, error) {
	link, err := NormalizeLink(in.Link)
	if err != nil {
		return nil, err
	}
	if in.ReviewsNeeded < 0 {
		return nil, ErrInvalidReviews
	}

	if _, err := s.requests.Get(ctx, link); err == nil {
		return nil, ErrDuplicateRequest
	} else if !errors.Is(err, ErrRequestNotFound) {
		return nil, fmt.Errorf("failed to check existing review request: %w", err)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = s.lookupTitle(ctx, link)
	}

	req := models.ReviewRequest{
		ID:                link,
		ChannelID:         in.ChannelID,
		SubmitterID:       in.SubmitterID,
		Name:              name,
		Link:              link,
		Description:       strings.TrimSpace(in.Description),
		Timestamp:         s.now().Format(time.RFC3339),
		ReviewsNeeded:     in.ReviewsNeeded,
		Reviewers:         models.NewUserSet(),
		AttentionRequests: models.NewUserSet(),
	}

	ts, permalink, err := s.messenger.PostReviewRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	req.MessageTS = ts
	req.Permalink = permalink

	if err := s.requests.Upsert(ctx, &req); err != nil {
		return nil, fmt.Errorf("failed to save review request: %w", err)
	}

	s.logger.Info("review request submitted", "id", req.ID, "channel", req.ChannelID, "submitter", req.SubmitterID)
	return &req, nil
}

// lookupTitle はGitHubのPRならタイトルを取得する。取れなければリンクを名前にする
func (s *ReviewService) lookupTitle(ctx context.Context, link string) string {
	if s.titles == nil {
		return link
	}
	if _, _, _, err := ParseRepoAndPRNumber(link); err != nil {
		return link
	}

	title, err := s.titles.PRTitle(ctx, link)
	if err != nil || title == "" {
		s.logger.Warn("failed to fetch pull request title", "link", link, "error", err)
		return link
	}
	return title
}

// save は依頼を保存し、チャンネルのメッセージを更新する
// メッセージの更新に失敗しても保存した内容は戻さない
func (s *ReviewService) save(ctx context.Context, req *models.ReviewRequest) error {
	if err := s.requests.Upsert(ctx, req); err != nil {
		return fmt.Errorf("failed to save review request: %w", err)
	}
	if err := s.messenger.UpdateReviewRequest(ctx, *req); err != nil {
		s.logger.Error("failed to update review request message", "id", req.ID, "error", err)
	}
	return nil
}

func (s *ReviewService) sendDM(ctx context.Context, userID, text string) {
	if err := s.messenger.SendDirectMessage(ctx, userID, text); err != nil {
		s.logger.Error("failed to send direct message", "user", userID, "error", err)
	}
}

// TogglePlusOne は +1 を付け外しする
// 必要数に達した時点で提出者にDMを送る
func (s *ReviewService) TogglePlusOne(ctx context.Context, id, userID string) (*models.ReviewRequest, error) {
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	wasReviewed := req.IsFullyReviewed()
	if req.Reviewers.Has(userID) {
		req.RemoveReviewer(userID)
	} else {
		req.AddReviewer(userID)
	}

	if err := s.save(ctx, req); err != nil {
		return nil, err
	}
	s.logger.Info("plus one toggled", "id", id, "user", userID, "reviews_received", req.ReviewsReceived)

	if !wasReviewed && req.IsFullyReviewed() {
		s.sendDM(ctx, req.SubmitterID, fmt.Sprintf(
			":white_check_mark: *Your PR* %s *has been reviewed*.\nPlease remove it from the queue or update the request.%s",
			requestLabel(*req), originalPost(*req)))
	}
	return req, nil
}

// ToggleAttention は提出者への対応依頼を付け外しする。付けたときは提出者にDMを送る
func (s *ReviewService) ToggleAttention(ctx context.Context, id, userID string) (*models.ReviewRequest, error) {
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	added := !req.AttentionRequests.Has(userID)
	if added {
		req.AttentionRequests.Add(userID)
	} else {
		req.AttentionRequests.Remove(userID)
	}

	if err := s.save(ctx, req); err != nil {
		return nil, err
	}
	s.logger.Info("attention request toggled", "id", id, "user", userID, "added", added)

	if added {
		s.sendDM(ctx, req.SubmitterID, fmt.Sprintf(
			"*Attention requested by* <@%s> *for your PR* %s.%s",
			userID, requestLabel(*req), originalPost(*req)))
	}
	return req, nil
}

// Remove はレビュー依頼を削除し、チャンネルのメッセージを告知文に置き換える
func (s *ReviewService) Remove(ctx context.Context, id, userID string) error {
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.requests.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete review request: %w", err)
	}
	s.logger.Info("review request removed", "id", id, "user", userID)

	notice := fmt.Sprintf("%s has been removed from the review queue.", requestLabel(*req))
	if err := s.messenger.ReplaceReviewRequest(ctx, *req, notice); err != nil {
		s.logger.Error("failed to replace removed review request message", "id", id, "error", err)
	}
	return nil
}

// EditableRequest は編集できる依頼を返す。提出者以外は ErrNotSubmitter
func (s *ReviewService) EditableRequest(ctx context.Context, id, userID string) (*models.ReviewRequest, error) {
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.SubmitterID != userID {
		return nil, ErrNotSubmitter
	}
	return req, nil
}

// StartEdit は編集モーダルを開く前に、前回確定しなかった保留中の変更を破棄する
func (s *ReviewService) StartEdit(ctx context.Context, id, userID string) (*models.ReviewRequest, error) {
	req, err := s.EditableRequest(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.PendingReviewerRemovals.Len()+req.PendingAttentionRemovals.Len()+
		req.PendingReviewerPings.Len()+req.PendingAttentionPings.Len() == 0 {
		return req, nil
	}

	req.PendingReviewerRemovals = models.NewUserSet()
	req.PendingAttentionRemovals = models.NewUserSet()
	req.PendingReviewerPings = models.NewUserSet()
	req.PendingAttentionPings = models.NewUserSet()
	if err := s.requests.Upsert(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to save review request: %w", err)
	}
	s.logger.Debug("discarded pending edits", "id", id)
	return req, nil
}

// markPending は編集確定まで保留する変更を記録する
func (s *ReviewService) markPending(ctx context.Context, id, userID string, mark func(req *models.ReviewRequest)) (*models.ReviewRequest, error) {
	req, err := s.EditableRequest(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	mark(req)
	if err := s.requests.Upsert(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to save review request: %w", err)
	}
	return req, nil
}

// MarkReviewerRemoval は編集確定時にレビュワーから外すユーザーを記録する
func (s *ReviewService) MarkReviewerRemoval(ctx context.Context, id, editorID, reviewerID string) (*models.ReviewRequest, error) {
	return s.markPending(ctx, id, editorID, func(req *models.ReviewRequest) {
		req.PendingReviewerRemovals.Add(reviewerID)
	})
}

// MarkAttentionRemoval は編集確定時に対応依頼から外すユーザーを記録する
func (s *ReviewService) MarkAttentionRemoval(ctx context.Context, id, editorID, userID string) (*models.ReviewRequest, error) {
	return s.markPending(ctx, id, editorID, func(req *models.ReviewRequest) {
		req.PendingAttentionRemovals.Add(userID)
	})
}

// PingAttention は対応依頼を外し、編集確定時に対応済みであることを知らせる
func (s *ReviewService) PingAttention(ctx context.Context, id, editorID, userID string) (*models.ReviewRequest, error) {
	return s.markPending(ctx, id, editorID, func(req *models.ReviewRequest) {
		req.PendingAttentionRemovals.Add(userID)
		req.PendingAttentionPings.Add(userID)
	})
}

// PingPreviousReviewers は現在のレビュワー全員の +1 を外し、編集確定時に再レビューを依頼する
func (s *ReviewService) PingPreviousReviewers(ctx context.Context, id, editorID string) (*models.ReviewRequest, error) {
	return s.markPending(ctx, id, editorID, func(req *models.ReviewRequest) {
		for _, reviewerID := range req.Reviewers.Sorted() {
			req.PendingReviewerRemovals.Add(reviewerID)
			req.PendingReviewerPings.Add(reviewerID)
		}
	})
}

// ApplyEdit は編集内容と保留中の変更を確定する
func (s *ReviewService) ApplyEdit(ctx context.Context, id, editorID string, in EditInput) (EditResult, error) {
	if in.ReviewsNeeded < 0 {
		return EditResult{}, ErrInvalidReviews
	}

	req, err := s.EditableRequest(ctx, id, editorID)
	if err != nil {
		return EditResult{}, err
	}

	for _, userID := range req.PendingReviewerRemovals.Sorted() {
		req.RemoveReviewer(userID)
	}
	for _, userID := range req.PendingAttentionRemovals.Sorted() {
		req.AttentionRequests.Remove(userID)
	}

	result := EditResult{
		PingedReviewers: req.PendingReviewerPings.Sorted(),
		PingedAttention: req.PendingAttentionPings.Sorted(),
	}

	req.PendingReviewerRemovals = models.NewUserSet()
	req.PendingAttentionRemovals = models.NewUserSet()
	req.PendingReviewerPings = models.NewUserSet()
	req.PendingAttentionPings = models.NewUserSet()

	if name := strings.TrimSpace(in.Name); name != "" {
		req.Name = name
	}
	req.Description = strings.TrimSpace(in.Description)
	req.ReviewsNeeded = in.ReviewsNeeded

	if err := s.save(ctx, req); err != nil {
		return EditResult{}, err
	}
	s.logger.Info("review request edited", "id", id,
		"pinged_reviewers", len(result.PingedReviewers), "pinged_attention", len(result.PingedAttention))

	for _, userID := range result.PingedAttention {
		s.sendDM(ctx, userID, fmt.Sprintf(
			"*Your review for PR* %s *has been addressed.*\nThe PR has been updated with new changes or responses to your comments. Please review the latest updates.%s",
			requestLabel(*req), originalPost(*req)))
	}
	for _, userID := range result.PingedReviewers {
		s.sendDM(ctx, userID, fmt.Sprintf(
			"*The PR* %s *has been updated since your last review.*\nPlease take a moment to review the changes and update your +1 if you still approve.%s",
			requestLabel(*req), originalPost(*req)))
	}

	result.Request = req
	return result, nil
}

// ListSubmitted はユーザーが提出したレビュー依頼を返す（App Home 用）
func (s *ReviewService) ListSubmitted(ctx context.Context, userID string) ([]models.ReviewRequest, error) {
	return s.requests.ListBySubmitter(ctx, userID)
}

// CloseByLink はPRがクローズされたときに依頼を削除する。見つからなければ何もしない
func (s *ReviewService) CloseByLink(ctx context.Context, link string) (bool, error) {
	req, err := s.requests.Get(ctx, link)
	if errors.Is(err, ErrRequestNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := s.requests.Delete(ctx, req.ID); err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete review request: %w", err)
	}
	s.logger.Info("review request closed on github", "id", req.ID, "channel", req.ChannelID)

	notice := fmt.Sprintf("%s has been closed on GitHub and removed from the review queue.", requestLabel(*req))
	if err := s.messenger.ReplaceReviewRequest(ctx, *req, notice); err != nil {
		s.logger.Error("failed to replace closed review request message", "id", req.ID, "error", err)
	}
	return true, nil
}
