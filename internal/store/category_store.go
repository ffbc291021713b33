// Package store provides the persistence layer for category records,
// including the tombstone-aware lookups the uniqueness check relies on.
package store

import (
	"errors"

	"gorm.io/gorm"

	"moneta/internal/models"
	"moneta/internal/pagination"
)

// NameLookup narrows a (name, scope) lookup.
type NameLookup struct {
	// IncludeDeleted makes the lookup consider soft-deleted records, which
	// still occupy their (name, scope) uniqueness slot.
	IncludeDeleted bool
	// ExcludeID skips the record with this ID, used when renaming a record
	// so it does not conflict with itself.
	ExcludeID string
}

// ListFilter narrows a visibility listing.
type ListFilter struct {
	// Type restricts results to a single category type when non-nil.
	Type *models.CategoryType
}

// CategoryStore is the persistence contract for category records. Lookups
// exclude soft-deleted rows unless stated otherwise. Multi-row operations
// (cascade, seeding) must run on a transaction handle obtained via WithTx.
type CategoryStore interface {
	// WithTx returns a store bound to the given transaction handle.
	WithTx(tx *gorm.DB) CategoryStore

	Insert(cat *models.Category) error
	GetByID(id string) (*models.Category, error)

	// FindByNameInScope returns the record holding (name, ownerID) or nil
	// when the slot is free. A nil ownerID addresses the shared scope.
	FindByNameInScope(name string, ownerID *string, q NameLookup) (*models.Category, error)

	// ListVisibleTo returns the shared scope plus the given user's own
	// categories ordered by creation time, or every scope when all is set.
	ListVisibleTo(userID string, all bool, filter ListFilter, page pagination.PageRequest) ([]models.Category, int64, error)

	// Update applies the given column updates and refreshes cat in place.
	Update(cat *models.Category, updates map[string]any) error

	// Recover clears the tombstone on a soft-deleted record and applies the
	// given column updates in the same statement, preserving the record's ID.
	Recover(cat *models.Category, updates map[string]any) error

	SoftDelete(cat *models.Category) error

	// SoftDeleteOwnedBy tombstones every active category owned by the user.
	SoftDeleteOwnedBy(ownerID string) error
}

type gormCategoryStore struct {
	db *gorm.DB
}

// NewCategoryStore creates a GORM-backed CategoryStore.
func NewCategoryStore(db *gorm.DB) CategoryStore {
	return &gormCategoryStore{db: db}
}

func (s *gormCategoryStore) WithTx(tx *gorm.DB) CategoryStore {
	return &gormCategoryStore{db: tx}
}

func (s *gormCategoryStore) Insert(cat *models.Category) error {
	return s.db.Create(cat).Error
}

func (s *gormCategoryStore) GetByID(id string) (*models.Category, error) {
	var cat models.Category
	if err := s.db.Where("id = ?", id).First(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (s *gormCategoryStore) FindByNameInScope(name string, ownerID *string, q NameLookup) (*models.Category, error) {
	db := s.db
	if q.IncludeDeleted {
		db = db.Unscoped()
	}

	db = db.Where("name = ?", name)
	if ownerID == nil {
		db = db.Where("owner_id IS NULL")
	} else {
		db = db.Where("owner_id = ?", *ownerID)
	}
	if q.ExcludeID != "" {
		db = db.Where("id <> ?", q.ExcludeID)
	}

	var cat models.Category
	if err := db.Order("created_at DESC").First(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cat, nil
}

func (s *gormCategoryStore) ListVisibleTo(userID string, all bool, filter ListFilter, page pagination.PageRequest) ([]models.Category, int64, error) {
	base := s.db.Model(&models.Category{})
	if !all {
		base = base.Where("owner_id IS NULL OR owner_id = ?", userID)
	}
	if filter.Type != nil {
		base = base.Where("type = ?", *filter.Type)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, 0, err
	}

	var categories []models.Category
	if err := base.Order("created_at ASC").Scopes(pagination.Paginate(page)).Find(&categories).Error; err != nil {
		return nil, 0, err
	}
	return categories, totalItems, nil
}

func (s *gormCategoryStore) Update(cat *models.Category, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	if err := s.db.Model(cat).Updates(updates).Error; err != nil {
		return err
	}
	return s.db.Where("id = ?", cat.ID).First(cat).Error
}

func (s *gormCategoryStore) Recover(cat *models.Category, updates map[string]any) error {
	merged := map[string]any{"deleted_at": nil}
	for k, v := range updates {
		merged[k] = v
	}
	if err := s.db.Unscoped().Model(cat).Updates(merged).Error; err != nil {
		return err
	}
	return s.db.Where("id = ?", cat.ID).First(cat).Error
}

func (s *gormCategoryStore) SoftDelete(cat *models.Category) error {
	return s.db.Delete(cat).Error
}

func (s *gormCategoryStore) SoftDeleteOwnedBy(ownerID string) error {
	return s.db.Where("owner_id = ?", ownerID).Delete(&models.Category{}).Error
}
