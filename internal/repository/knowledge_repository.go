package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/welldanyogia/webrana-support-assistant/internal/models"
	"gorm.io/gorm"
)

// maxSearchTerms bounds the number of LIKE clauses generated per lookup
const maxSearchTerms = 32

// KnowledgeRepository defines the interface for knowledge base data access
type KnowledgeRepository interface {
	Create(ctx context.Context, entry *models.KnowledgeEntry) error
	GetByID(ctx context.Context, id uint) (*models.KnowledgeEntry, error)
	List(ctx context.Context, limit, offset int) ([]models.KnowledgeEntry, int64, error)
	Update(ctx context.Context, entry *models.KnowledgeEntry) error
	Delete(ctx context.Context, id uint) error
	SearchByKeywords(ctx context.Context, words []string, limit int) ([]models.KnowledgeEntry, error)
	TouchUsage(ctx context.Context, ids []uint, at time.Time) error
}

// knowledgeRepository implements KnowledgeRepository using GORM
type knowledgeRepository struct {
	db *gorm.DB
}

// NewKnowledgeRepository creates a new KnowledgeRepository instance
func NewKnowledgeRepository(db *gorm.DB) KnowledgeRepository {
	return &knowledgeRepository{db: db}
}

// Create creates a new knowledge entry
func (r *knowledgeRepository) Create(ctx context.Context, entry *models.KnowledgeEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create knowledge entry: %w", err)
	}
	return nil
}

// GetByID retrieves a knowledge entry by its ID
func (r *knowledgeRepository) GetByID(ctx context.Context, id uint) (*models.KnowledgeEntry, error) {
	var entry models.KnowledgeEntry
	result := r.db.WithContext(ctx).First(&entry, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get knowledge entry by ID: %w", result.Error)
	}
	return &entry, nil
}

// List retrieves knowledge entries, most used first
func (r *knowledgeRepository) List(ctx context.Context, limit, offset int) ([]models.KnowledgeEntry, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.KnowledgeEntry{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count knowledge entries: %w", err)
	}

	var entries []models.KnowledgeEntry
	err := r.db.WithContext(ctx).
		Order("usage_count DESC").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list knowledge entries: %w", err)
	}
	return entries, total, nil
}

// Update saves question, answer, category and keywords of an entry
func (r *knowledgeRepository) Update(ctx context.Context, entry *models.KnowledgeEntry) error {
	if entry.ID == 0 {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	entry.KeywordIndex = models.BuildKeywordIndex(entry.KeywordList())
	result := r.db.WithContext(ctx).
		Model(entry).
		Select("question", "answer", "category", "keywords", "keyword_index").
		Updates(entry)
	if result.Error != nil {
		return fmt.Errorf("failed to update knowledge entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a knowledge entry by its ID
func (r *knowledgeRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.KnowledgeEntry{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete knowledge entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchByKeywords returns up to limit entries sharing at least one keyword
// with words, ranked by the number of shared keywords and then by usage.
func (r *knowledgeRepository) SearchByKeywords(ctx context.Context, words []string, limit int) ([]models.KnowledgeEntry, error) {
	terms := normalizeTerms(words)
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}

	clauses := make([]string, 0, len(terms))
	args := make([]interface{}, 0, len(terms))
	for _, term := range terms {
		clauses = append(clauses, "keyword_index LIKE ?")
		args = append(args, "% "+term+" %")
	}

	var candidates []models.KnowledgeEntry
	err := r.db.WithContext(ctx).
		Where(strings.Join(clauses, " OR "), args...).
		Order("usage_count DESC").
		Limit(limit * 10).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search knowledge entries: %w", err)
	}

	termSet := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		termSet[t] = struct{}{}
	}
	overlap := make(map[uint]int, len(candidates))
	for _, c := range candidates {
		for _, kw := range c.KeywordList() {
			if _, ok := termSet[strings.ToLower(strings.TrimSpace(kw))]; ok {
				overlap[c.ID]++
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if overlap[a.ID] != overlap[b.ID] {
			return overlap[a.ID] > overlap[b.ID]
		}
		return a.UsageCount > b.UsageCount
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// TouchUsage increments usage counters of the given entries
func (r *knowledgeRepository) TouchUsage(ctx context.Context, ids []uint, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.KnowledgeEntry{}).
		Where("id IN ?", ids).
		UpdateColumns(map[string]interface{}{
			"usage_count":  gorm.Expr("usage_count + ?", 1),
			"last_used_at": &at,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update knowledge usage: %w", err)
	}
	return nil
}

func normalizeTerms(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	terms := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if len(w) < 3 || strings.ContainsAny(w, "%_") {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		terms = append(terms, w)
		if len(terms) == maxSearchTerms {
			break
		}
	}
	return terms
}
