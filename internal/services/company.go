package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regintel/internal/models"
	"regintel/internal/utils"
	"strings"
	"time"

	"gorm.io/gorm"
)

// CompanyPage is one page of the company directory.
type CompanyPage struct {
	Companies  []models.Company `json:"companies"`
	Pagination Pagination       `json:"pagination"`
}

type CompanyService struct {
	db      *gorm.DB
	timeout time.Duration
	pages   *utils.TTLCache[*CompanyPage]
}

func NewCompanyService(db *gorm.DB, timeout time.Duration) *CompanyService {
	pages, err := utils.NewTTLCache[*CompanyPage](500, time.Minute)
	if err != nil {
		log.Fatalf("Failed to create LRU cache: %v", err)
	}
	return &CompanyService{db: db, timeout: timeout, pages: pages}
}

// fillCommentCounts 批量填充企业的已公开评论数量
func fillCommentCounts(tx *gorm.DB, companies []models.Company) error {
	if len(companies) == 0 {
		return nil
	}

	ids := make([]uint, len(companies))
	for i, c := range companies {
		ids[i] = c.ID
	}

	type countResult struct {
		CompanyID uint
		Count     int
	}
	var results []countResult
	if err := tx.Model(&models.Comment{}).
		Select("company_id, COUNT(*) as count").
		Where("company_id IN ?", ids).
		Scopes(visible).
		Group("company_id").
		Scan(&results).Error; err != nil {
		return err
	}

	counts := make(map[uint]int, len(results))
	for _, r := range results {
		counts[r.CompanyID] = r.Count
	}
	for i := range companies {
		companies[i].CommentCount = counts[companies[i].ID]
	}
	return nil
}

// List searches companies by name, ordered alphabetically. Pages are cached
// for a minute; a sync purges the cache.
func (s *CompanyService) List(ctx context.Context, query string, page, limit int) (*CompanyPage, error) {
	page, limit = NormalizePage(page, limit)
	query = strings.TrimSpace(query)

	cacheKey := fmt.Sprintf("companies:%s:%d:%d", strings.ToLower(query), page, limit)
	if cached, ok := s.pages.Get(cacheKey); ok {
		return cached, nil
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	tx := s.db.WithContext(ctx)

	search := func(db *gorm.DB) *gorm.DB {
		if query == "" {
			return db
		}
		return db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(query)+"%")
	}

	var total int64
	if err := tx.Model(&models.Company{}).Scopes(search).Count(&total).Error; err != nil {
		return nil, storageErr("count companies", err)
	}

	companies := make([]models.Company, 0, limit)
	if !pastLastPage(page, limit, total) {
		if err := tx.Scopes(search).
			Order("name ASC, id ASC").
			Limit(limit).
			Offset((page - 1) * limit).
			Find(&companies).Error; err != nil {
			return nil, storageErr("list companies", err)
		}
	}
	if err := fillCommentCounts(tx, companies); err != nil {
		return nil, storageErr("count company comments", err)
	}

	result := &CompanyPage{
		Companies: companies,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages(total, limit),
		},
	}
	s.pages.Set(cacheKey, result)
	return result, nil
}

func (s *CompanyService) Get(ctx context.Context, id uint) (*models.Company, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	tx := s.db.WithContext(ctx)

	var company models.Company
	if err := tx.First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("load company", err)
	}

	companies := []models.Company{company}
	if err := fillCommentCounts(tx, companies); err != nil {
		return nil, storageErr("count company comments", err)
	}
	return &companies[0], nil
}

// Invalidate drops cached directory pages.
func (s *CompanyService) Invalidate() {
	s.pages.Purge()
}
