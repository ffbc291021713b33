package services

import (
	"errors"
	"regexp"
	"unicode/utf8"

	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/identity"
	"moneta/internal/logger"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/store"
)

var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// defaultCategory describes one entry of the starter set seeded for every
// new user.
type defaultCategory struct {
	Name  string
	Type  models.CategoryType
	Color string
}

var defaultCategories = []defaultCategory{
	{Name: "Food", Type: models.CategoryTypeExpense, Color: "#FF0000"},
	{Name: "Rent", Type: models.CategoryTypeExpense, Color: "#FFA500"},
	{Name: "Utilities", Type: models.CategoryTypeExpense, Color: "#008000"},
	{Name: "Entertainment", Type: models.CategoryTypeExpense, Color: "#0000FF"},
	{Name: "Salary", Type: models.CategoryTypeIncome, Color: "#800080"},
}

// categoryService handles the category lifecycle: creation, lookup, update,
// soft-delete, and default seeding.
type categoryService struct {
	db         *gorm.DB
	categories store.CategoryStore
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db, categories: store.NewCategoryStore(db)}
}

func validateName(name string) error {
	if name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if utf8.RuneCountInString(name) > 255 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "category name must be at most 255 characters")
	}
	return nil
}

func validateType(categoryType models.CategoryType) error {
	if !categoryType.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be income, expense, or transfer")
	}
	return nil
}

func validateColor(color string) error {
	if !hexColorRegex.MatchString(color) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "color must be a hex code like #FF0000")
	}
	return nil
}

// resolveNameConflict decides the fate of a write touching (name, ownerID).
// It returns (nil, nil) when the slot is free, the tombstoned record when a
// soft-deleted one holds the slot, and ErrCategoryNameTaken when an active
// record does. The unique index on (name, owner_id) remains the authoritative
// enforcement; this check is the fast path.
func (s *categoryService) resolveNameConflict(cs store.CategoryStore, name string, ownerID *string, excludeID string) (*models.Category, error) {
	existing, err := cs.FindByNameInScope(name, ownerID, store.NameLookup{
		IncludeDeleted: true,
		ExcludeID:      excludeID,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if existing == nil {
		return nil, nil
	}
	if !existing.DeletedAt.Valid {
		return nil, apperrors.ErrCategoryNameTaken
	}
	return existing, nil
}

// CreateCategory creates a category in the caller's own scope, or in the
// shared scope when shared is set (admin only). A soft-deleted record holding
// the same (name, scope) slot is recovered with the requested field values
// instead of inserting a new row, so its ID stays stable for anything that
// referenced it.
func (s *categoryService) CreateCategory(caller identity.Caller, name string, categoryType models.CategoryType, color string, shared bool) (*models.Category, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateType(categoryType); err != nil {
		return nil, err
	}
	if err := validateColor(color); err != nil {
		return nil, err
	}

	var ownerID *string
	if shared {
		if !caller.IsAdmin {
			return nil, apperrors.WithMessage(apperrors.ErrForbidden, "Only administrators can create shared categories")
		}
	} else {
		id := caller.UserID
		ownerID = &id
	}

	tombstone, err := s.resolveNameConflict(s.categories, name, ownerID, "")
	if err != nil {
		return nil, err
	}
	if tombstone != nil {
		updates := map[string]any{"type": categoryType, "color": color}
		if err := s.categories.Recover(tombstone, updates); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		logger.Get().Infow("recovered soft-deleted category",
			"category_id", tombstone.ID,
			"name", name,
			"caller_id", caller.UserID,
		)
		return tombstone, nil
	}

	if ownerID != nil {
		var count int64
		if err := s.db.Model(&models.User{}).Where("id = ?", *ownerID).Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return nil, apperrors.ErrUserNotFound
		}
	}

	category := &models.Category{
		OwnerID: ownerID,
		Name:    name,
		Type:    categoryType,
		Color:   color,
	}
	if err := s.categories.Insert(category); err != nil {
		// A concurrent writer may have taken the slot between the check and
		// the insert; the unique index reports that as a duplicate key.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrCategoryNameTaken
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// ListCategories returns the categories visible to the caller ordered by
// creation time: the shared scope plus the caller's own. Admin callers see
// every scope.
func (s *categoryService) ListCategories(caller identity.Caller, filter CategoryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	categories, totalItems, err := s.categories.ListVisibleTo(caller.UserID, caller.IsAdmin, store.ListFilter{Type: filter.Type}, page)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryByID retrieves a category. Categories owned by another user are
// hidden from non-admin callers; shared-scope categories are visible to all.
func (s *categoryService) GetCategoryByID(caller identity.Caller, categoryID string) (*models.Category, error) {
	category, err := s.categories.GetByID(categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !caller.CanAccess(category.OwnerID) {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "You do not have permission to access this category")
	}
	return category, nil
}

// UpdateCategory applies a patch to a category. Default categories may only
// be modified by admins. A rename that collides with any record still holding
// the name in the same scope fails with a conflict; a tombstoned holder is
// never resurrected by someone else's rename. Ownership is immutable.
func (s *categoryService) UpdateCategory(caller identity.Caller, categoryID string, patch CategoryPatch) (*models.Category, error) {
	category, err := s.GetCategoryByID(caller, categoryID)
	if err != nil {
		return nil, err
	}
	if category.IsDefault && !caller.IsAdmin {
		return nil, apperrors.ErrDefaultProtected
	}
	if category.Shared() && !caller.IsAdmin {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "Only administrators can modify shared categories")
	}

	updates := make(map[string]any)
	if patch.Name != nil && *patch.Name != category.Name {
		if err := validateName(*patch.Name); err != nil {
			return nil, err
		}
		holder, err := s.resolveNameConflict(s.categories, *patch.Name, category.OwnerID, category.ID)
		if err != nil {
			return nil, err
		}
		if holder != nil {
			// A soft-deleted record still occupies the slot.
			return nil, apperrors.ErrCategoryNameTaken
		}
		updates["name"] = *patch.Name
	}
	if patch.Type != nil {
		if err := validateType(*patch.Type); err != nil {
			return nil, err
		}
		updates["type"] = *patch.Type
	}
	if patch.Color != nil {
		if err := validateColor(*patch.Color); err != nil {
			return nil, err
		}
		updates["color"] = *patch.Color
	}

	if err := s.categories.Update(category, updates); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrCategoryNameTaken
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// DeleteCategory soft-deletes a category so it can later be recovered and so
// historical records keep a resolvable reference. Default categories may only
// be removed by admins.
func (s *categoryService) DeleteCategory(caller identity.Caller, categoryID string) error {
	category, err := s.GetCategoryByID(caller, categoryID)
	if err != nil {
		return err
	}
	if category.IsDefault && !caller.IsAdmin {
		return apperrors.ErrDefaultProtected
	}
	if category.Shared() && !caller.IsAdmin {
		return apperrors.WithMessage(apperrors.ErrForbidden, "Only administrators can remove shared categories")
	}

	if err := s.categories.SoftDelete(category); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// SeedDefaults inserts the starter set for a newly registered user on the
// given transaction handle. The pass is idempotent: an active starter entry
// is left alone and a tombstoned one is recovered instead of re-inserted.
func (s *categoryService) SeedDefaults(tx *gorm.DB, userID string) error {
	cs := s.categories.WithTx(tx)

	for _, d := range defaultCategories {
		existing, err := cs.FindByNameInScope(d.Name, &userID, store.NameLookup{IncludeDeleted: true})
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if existing != nil {
			if !existing.DeletedAt.Valid {
				continue
			}
			if err := cs.Recover(existing, nil); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			continue
		}

		category := &models.Category{
			OwnerID:   &userID,
			Name:      d.Name,
			Type:      d.Type,
			Color:     d.Color,
			IsDefault: true,
		}
		if err := cs.Insert(category); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return nil
}
