package services

import (
	"gorm.io/gorm"

	"moneta/internal/identity"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// CategoryPatch holds the mutable category fields for an update.
// Nil fields are left unchanged. Ownership is never part of a patch.
type CategoryPatch struct {
	Name  *string
	Type  *models.CategoryType
	Color *string
}

// CategoryFilter holds optional filter parameters for listing categories.
type CategoryFilter struct {
	Type *models.CategoryType
}

// CategoryServicer defines the contract for category lifecycle logic.
// Every operation takes the caller identity explicitly; visibility and
// default-category protection are enforced here, not at the HTTP layer.
type CategoryServicer interface {
	CreateCategory(caller identity.Caller, name string, categoryType models.CategoryType, color string, shared bool) (*models.Category, error)
	ListCategories(caller identity.Caller, filter CategoryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(caller identity.Caller, categoryID string) (*models.Category, error)
	UpdateCategory(caller identity.Caller, categoryID string, patch CategoryPatch) (*models.Category, error)
	DeleteCategory(caller identity.Caller, categoryID string) error

	// SeedDefaults inserts the starter category set for a newly registered
	// user. It runs on the given transaction handle so registration and
	// seeding commit or roll back as one unit.
	SeedDefaults(tx *gorm.DB, userID string) error
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID string, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)

	// DeleteUser soft-deletes the user and every category it owns in a
	// single transaction. Only the user themselves or an admin may call it.
	DeleteUser(caller identity.Caller, userID string) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID string, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
