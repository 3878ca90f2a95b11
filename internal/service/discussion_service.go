package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/campuslink/campuslink-api/internal/dto"
	"github.com/campuslink/campuslink-api/internal/models"
	appErrors "github.com/campuslink/campuslink-api/pkg/errors"
)

type discussionRepository interface {
	Create(ctx context.Context, d *models.Discussion) error
	FindByID(ctx context.Context, id string) (*models.Discussion, error)
	Update(ctx context.Context, d *models.Discussion) error
	IncrementViews(ctx context.Context, id string) error
	List(ctx context.Context, filter models.DiscussionFilter) ([]models.Discussion, int, error)
	ListReported(ctx context.Context) ([]models.Discussion, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type discussionCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// DiscussionConfig tunes discussion read caching.
type DiscussionConfig struct {
	CacheTTL time.Duration
}

// DiscussionService provides forum use cases: discussions, their nested
// comment trees, likes, reports, and moderation.
type DiscussionService struct {
	repo      discussionRepository
	cache     discussionCache
	validator *validator.Validate
	logger    *zap.Logger
	config    DiscussionConfig
}

// NewDiscussionService constructs a DiscussionService. The cache is optional.
func NewDiscussionService(repo discussionRepository, cache discussionCache, validate *validator.Validate, logger *zap.Logger, config DiscussionConfig) *DiscussionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = time.Minute
	}
	return &DiscussionService{repo: repo, cache: cache, validator: validate, logger: logger, config: config}
}

// Create opens a new discussion authored by the caller.
func (s *DiscussionService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateDiscussionRequest) (*dto.DiscussionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid discussion payload")
	}

	d := &models.Discussion{
		Title:      req.Title,
		Content:    req.Content,
		AuthorID:   claims.UserID,
		AuthorName: claims.FullName,
		Category:   models.DiscussionCategory(req.Category),
		Tags:       pq.StringArray(req.Tags),
		Likes:      models.LikeList{},
		Comments:   models.CommentList{},
		Reports:    models.ReportList{},
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create discussion")
	}

	s.invalidateLists(ctx)

	view := dto.NewDiscussionView(d, claims.UserID, true)
	return &view, nil
}

type cachedDiscussionList struct {
	Views      []dto.DiscussionView `json:"views"`
	Pagination models.Pagination    `json:"pagination"`
}

// List returns discussions matching the filter, comment trees omitted.
// Anonymous listings are served from cache when possible; per-user like
// annotations keep authenticated listings uncacheable.
func (s *DiscussionService) List(ctx context.Context, userID string, filter models.DiscussionFilter) ([]dto.DiscussionView, *models.Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	cacheKey := ""
	if userID == "" && s.cache != nil {
		cacheKey = fmt.Sprintf("discussions:list:%s:%s:%s:%s:%d:%d",
			filter.Category, filter.Tag, filter.AuthorID, filter.Search, page, pageSize)
		var cached cachedDiscussionList
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			pagination := cached.Pagination
			return cached.Views, &pagination, nil
		}
	}

	discussions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list discussions")
	}

	views := make([]dto.DiscussionView, 0, len(discussions))
	for i := range discussions {
		views = append(views, dto.NewDiscussionView(&discussions[i], userID, false))
	}

	pagination := models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	if cacheKey != "" {
		if err := s.cache.Set(ctx, cacheKey, cachedDiscussionList{Views: views, Pagination: pagination}, s.config.CacheTTL); err != nil {
			s.logger.Warn("failed to cache discussion list", zap.Error(err))
		}
	}
	return views, &pagination, nil
}

// Get returns a discussion with its full comment tree. Every call counts a
// view; repeat visits by the same user are not deduplicated.
func (s *DiscussionService) Get(ctx context.Context, userID, id string) (*dto.DiscussionView, error) {
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("failed to increment discussion views", zap.String("discussion_id", id), zap.Error(err))
	} else {
		d.ViewCount++
	}

	view := dto.NewDiscussionView(d, userID, true)
	return &view, nil
}

// Update applies author or admin edits to a discussion.
func (s *DiscussionService) Update(ctx context.Context, claims *models.JWTClaims, id string, req dto.UpdateDiscussionRequest) (*dto.DiscussionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid discussion update payload")
	}

	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canManage(claims, d.AuthorID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author or an admin can edit this discussion")
	}

	if req.Title != nil {
		d.Title = *req.Title
	}
	if req.Content != nil {
		d.Content = *req.Content
	}
	if req.Category != nil {
		d.Category = models.DiscussionCategory(*req.Category)
	}
	if req.Tags != nil {
		d.Tags = pq.StringArray(req.Tags)
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update discussion")
	}

	s.invalidate(ctx, id)

	view := dto.NewDiscussionView(d, claims.UserID, true)
	return &view, nil
}

// Delete soft-deletes a discussion; author or admin only.
func (s *DiscussionService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	d, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !s.canManage(claims, d.AuthorID) {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author or an admin can delete this discussion")
	}

	d.IsDeleted = true
	if err := s.repo.Update(ctx, d); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete discussion")
	}

	s.invalidate(ctx, id)
	return nil
}

// ToggleLike flips the caller's like on the discussion.
func (s *DiscussionService) ToggleLike(ctx context.Context, userID, id string) (*dto.LikeResult, error) {
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	count, liked := d.ToggleLike(userID, time.Now().UTC())
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist like")
	}

	s.invalidate(ctx, id)
	return &dto.LikeResult{LikeCount: count, IsLiked: liked}, nil
}

// AddComment inserts a comment or reply into the discussion tree. A reply to
// an unknown parent lands at the top level instead of failing. Locked
// discussions reject new comments.
func (s *DiscussionService) AddComment(ctx context.Context, claims *models.JWTClaims, id string, req dto.AddCommentRequest) (*dto.AddCommentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comment content must not be empty")
	}

	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.IsLocked {
		return nil, appErrors.Clone(appErrors.ErrDiscussionLocked, "")
	}

	comment := d.AddComment(content, claims.UserID, claims.FullName, req.ParentComment, time.Now().UTC())
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist comment")
	}

	s.invalidate(ctx, id)
	return &dto.AddCommentResponse{
		Comment:       dto.NewCommentView(comment, claims.UserID),
		TotalComments: d.CommentCount(),
	}, nil
}

// EditComment updates a comment's content; comment author only.
func (s *DiscussionService) EditComment(ctx context.Context, claims *models.JWTClaims, discussionID, commentID string, req dto.EditCommentRequest) (*dto.CommentView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comment content must not be empty")
	}

	d, err := s.load(ctx, discussionID)
	if err != nil {
		return nil, err
	}

	comment := d.FindComment(commentID)
	if comment == nil || comment.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
	}
	if comment.AuthorID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author can edit this comment")
	}

	comment.Content = content
	comment.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist comment edit")
	}

	s.invalidate(ctx, discussionID)
	view := dto.NewCommentView(comment, claims.UserID)
	return &view, nil
}

// DeleteComment soft-deletes a comment, keeping its replies visible; comment
// author or admin only.
func (s *DiscussionService) DeleteComment(ctx context.Context, claims *models.JWTClaims, discussionID, commentID string) error {
	d, err := s.load(ctx, discussionID)
	if err != nil {
		return err
	}

	comment := d.FindComment(commentID)
	if comment == nil || comment.IsDeleted {
		return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
	}
	if !s.canManage(claims, comment.AuthorID) {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author or an admin can delete this comment")
	}

	comment.SoftDelete()
	if err := s.repo.Update(ctx, d); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist comment delete")
	}

	s.invalidate(ctx, discussionID)
	return nil
}

// ToggleCommentLike flips the caller's like on a comment at any depth.
func (s *DiscussionService) ToggleCommentLike(ctx context.Context, userID, discussionID, commentID string) (*dto.LikeResult, error) {
	d, err := s.load(ctx, discussionID)
	if err != nil {
		return nil, err
	}

	comment := d.FindComment(commentID)
	if comment == nil || comment.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
	}

	count, liked := comment.ToggleLike(userID, time.Now().UTC())
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist comment like")
	}

	s.invalidate(ctx, discussionID)
	return &dto.LikeResult{LikeCount: count, IsLiked: liked}, nil
}

// ReportDiscussion records a report against the discussion, one per user.
func (s *DiscussionService) ReportDiscussion(ctx context.Context, userID, id string, req dto.ReportRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	d, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !d.AddReport(userID, req.Reason, time.Now().UTC()) {
		return appErrors.Clone(appErrors.ErrAlreadyReported, "")
	}
	if err := s.repo.Update(ctx, d); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist report")
	}
	return nil
}

// ReportComment records a report against a comment, one per user.
func (s *DiscussionService) ReportComment(ctx context.Context, userID, discussionID, commentID string, req dto.ReportRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	d, err := s.load(ctx, discussionID)
	if err != nil {
		return err
	}

	comment := d.FindComment(commentID)
	if comment == nil || comment.IsDeleted {
		return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
	}
	if !comment.AddReport(userID, req.Reason, time.Now().UTC()) {
		return appErrors.Clone(appErrors.ErrAlreadyReported, "")
	}
	if err := s.repo.Update(ctx, d); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist comment report")
	}
	return nil
}

// ModerateDiscussion applies an admin moderation action. Approve clears
// reports; delete soft-deletes; pin/unpin and lock/unlock toggle flags.
func (s *DiscussionService) ModerateDiscussion(ctx context.Context, claims *models.JWTClaims, id string, req dto.ModerateDiscussionRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid moderation payload")
	}

	d, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	switch req.Action {
	case "approve":
		d.ClearReports()
	case "delete":
		d.IsDeleted = true
	case "pin":
		d.IsPinned = true
	case "unpin":
		d.IsPinned = false
	case "lock":
		d.IsLocked = true
	case "unlock":
		d.IsLocked = false
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist moderation")
	}

	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     models.AuditActionDiscussionModerate,
		Resource:   "discussions",
		ResourceID: &id,
		NewValues:  []byte(`{"action":"` + req.Action + `"}`),
	}); err != nil {
		s.logger.Warn("failed to record moderation audit log", zap.Error(err))
	}

	s.invalidate(ctx, id)
	return nil
}

// ModerateComment applies an admin action to a reported comment: approve
// clears its reports, delete soft-deletes it.
func (s *DiscussionService) ModerateComment(ctx context.Context, claims *models.JWTClaims, discussionID, commentID string, req dto.ModerateCommentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid moderation payload")
	}

	d, err := s.load(ctx, discussionID)
	if err != nil {
		return err
	}

	comment := d.FindComment(commentID)
	if comment == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
	}

	switch req.Action {
	case "approve":
		comment.ClearReports()
	case "delete":
		comment.SoftDelete()
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist comment moderation")
	}

	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     models.AuditActionCommentModerate,
		Resource:   "comments",
		ResourceID: &commentID,
		NewValues:  []byte(`{"action":"` + req.Action + `"}`),
	}); err != nil {
		s.logger.Warn("failed to record comment moderation audit log", zap.Error(err))
	}

	s.invalidate(ctx, discussionID)
	return nil
}

// ListReported returns discussions carrying open reports; admin only.
func (s *DiscussionService) ListReported(ctx context.Context, userID string) ([]dto.DiscussionView, error) {
	discussions, err := s.repo.ListReported(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reported discussions")
	}
	views := make([]dto.DiscussionView, 0, len(discussions))
	for i := range discussions {
		views = append(views, dto.NewDiscussionView(&discussions[i], userID, false))
	}
	return views, nil
}

func (s *DiscussionService) load(ctx context.Context, id string) (*models.Discussion, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "discussion not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load discussion")
	}
	return d, nil
}

func (s *DiscussionService) canManage(claims *models.JWTClaims, authorID string) bool {
	return claims.Role == models.RoleAdmin || claims.UserID == authorID
}

func (s *DiscussionService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "discussions:"+id+"*"); err != nil {
		s.logger.Warn("failed to invalidate discussion cache", zap.Error(err))
	}
	s.invalidateLists(ctx)
}

func (s *DiscussionService) invalidateLists(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "discussions:list*"); err != nil {
		s.logger.Warn("failed to invalidate discussion list cache", zap.Error(err))
	}
}
