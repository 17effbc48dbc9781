package services

import (
	"context"
	"errors"
	"html/template"
	"math"
	"regintel/internal/models"
	"regintel/internal/utils"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// CommentView is a comment as returned to clients, with rendered content and
// its direct replies.
type CommentView struct {
	models.Comment
	ContentHTML template.HTML `json:"contentHtml"`
	Replies     []CommentView `json:"replies"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// CommentPage is one window of top-level comments plus the caller's votes.
type CommentPage struct {
	Comments   []CommentView `json:"comments"`
	UserVotes  map[uint]int  `json:"userVotes"`
	Pagination Pagination    `json:"pagination"`
}

// DeleteOutcome distinguishes a real soft delete from a no-op.
type DeleteOutcome int

const (
	Deleted DeleteOutcome = iota
	NotOwnedOrMissing
)

type CommentService struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewCommentService(db *gorm.DB, timeout time.Duration) *CommentService {
	return &CommentService{db: db, timeout: timeout}
}

// visible 仅公开已审核且未删除的评论
func visible(db *gorm.DB) *gorm.DB {
	return db.Where("is_approved = ? AND is_deleted = ?", true, false)
}

func topLevelOf(companyID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("company_id = ? AND parent_id IS NULL", companyID)
	}
}

// NormalizePage applies the default and the cap to page and limit.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

// pastLastPage reports whether page starts after the last row. Callers check
// it before computing the offset, which would overflow for huge pages.
func pastLastPage(page, limit int, total int64) bool {
	return int64(page-1) >= int64(totalPages(total, limit))
}

// ListComments returns one page of visible top-level comments for a company,
// newest first, each with its visible direct replies oldest first. When
// userID is non-zero the page also carries that user's votes on every
// returned comment.
func (s *CommentService) ListComments(ctx context.Context, companyID uint, page, limit int, userID uint) (*CommentPage, error) {
	page, limit = NormalizePage(page, limit)

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	tx := s.db.WithContext(ctx)

	var total int64
	if err := tx.Model(&models.Comment{}).Scopes(topLevelOf(companyID), visible).Count(&total).Error; err != nil {
		return nil, storageErr("count comments", err)
	}

	var rows []models.Comment
	if !pastLastPage(page, limit, total) {
		err := tx.Scopes(topLevelOf(companyID), visible).
			Preload("Author").
			Preload("Replies", func(db *gorm.DB) *gorm.DB {
				return visible(db).Order("created_at ASC, id ASC")
			}).
			Preload("Replies.Author").
			Order("created_at DESC, id DESC").
			Limit(limit).
			Offset((page - 1) * limit).
			Find(&rows).Error
		if err != nil {
			return nil, storageErr("list comments", err)
		}
	}

	views := make([]CommentView, 0, len(rows))
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		view := newCommentView(row)
		ids = append(ids, row.ID)
		for _, r := range view.Replies {
			ids = append(ids, r.ID)
		}
		views = append(views, view)
	}

	votes, err := userVotes(tx, userID, ids)
	if err != nil {
		return nil, storageErr("list user votes", err)
	}

	return &CommentPage{
		Comments:  views,
		UserVotes: votes,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages(total, limit),
		},
	}, nil
}

func newCommentView(c models.Comment) CommentView {
	replies := make([]CommentView, 0, len(c.Replies))
	for _, r := range c.Replies {
		r.Replies = nil
		replies = append(replies, CommentView{
			Comment:     r,
			ContentHTML: utils.RenderMarkdown(r.Content),
			Replies:     []CommentView{},
		})
	}
	c.Replies = nil
	return CommentView{
		Comment:     c,
		ContentHTML: utils.RenderMarkdown(c.Content),
		Replies:     replies,
	}
}

// CreateComment inserts a new, unapproved comment for the author. The author's
// role is read right before the write; guests are refused.
func (s *CommentService) CreateComment(ctx context.Context, companyID, authorID uint, content string, parentID *uint) (*CommentView, error) {
	if authorID == 0 {
		return nil, ErrUnauthenticated
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	tx := s.db.WithContext(ctx)

	var author models.User
	if err := tx.First(&author, authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, storageErr("load author", err)
	}
	if !author.CanComment() {
		return nil, ErrPermissionDenied
	}

	if parentID != nil {
		var n int64
		if err := tx.Model(&models.Comment{}).
			Where("id = ? AND company_id = ?", *parentID, companyID).
			Count(&n).Error; err != nil {
			return nil, storageErr("load parent comment", err)
		}
		if n == 0 {
			return nil, invalidArg("parent comment %d not found on company %d", *parentID, companyID)
		}
	}

	comment := models.Comment{
		CompanyID: companyID,
		UserID:    author.ID,
		ParentID:  parentID,
		Content:   strings.TrimSpace(content),
	}
	if err := tx.Create(&comment).Error; err != nil {
		return nil, storageErr("create comment", err)
	}
	comment.Author = author

	view := newCommentView(comment)
	return &view, nil
}

// DeleteComment soft-deletes a comment owned by userID. The owner filter is
// part of the update, so a non-owner touches no row.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, userID uint) (DeleteOutcome, error) {
	if userID == 0 {
		return NotOwnedOrMissing, ErrUnauthenticated
	}
	if commentID == 0 {
		return NotOwnedOrMissing, invalidArg("missing comment id")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	res := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND user_id = ?", commentID, userID).
		Update("is_deleted", true)
	if res.Error != nil {
		return NotOwnedOrMissing, storageErr("delete comment", res.Error)
	}
	if res.RowsAffected == 0 {
		return NotOwnedOrMissing, nil
	}
	return Deleted, nil
}

// ApproveComment marks a comment visible. Only admins moderate.
func (s *CommentService) ApproveComment(ctx context.Context, commentID, moderatorID uint) error {
	if moderatorID == 0 {
		return ErrUnauthenticated
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	tx := s.db.WithContext(ctx)

	var moderator models.User
	if err := tx.First(&moderator, moderatorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnauthenticated
		}
		return storageErr("load moderator", err)
	}
	if !moderator.IsAdmin() {
		return ErrPermissionDenied
	}

	res := tx.Model(&models.Comment{}).
		Where("id = ? AND is_deleted = ?", commentID, false).
		Update("is_approved", true)
	if res.Error != nil {
		return storageErr("approve comment", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
