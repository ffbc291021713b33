package models

// CategoryType classifies the financial direction a category represents.
type CategoryType string

const (
	CategoryTypeIncome   CategoryType = "income"
	CategoryTypeExpense  CategoryType = "expense"
	CategoryTypeTransfer CategoryType = "transfer"
)

// Valid reports whether t is a recognized category type.
func (t CategoryType) Valid() bool {
	switch t {
	case CategoryTypeIncome, CategoryTypeExpense, CategoryTypeTransfer:
		return true
	}
	return false
}

// Category represents a transaction category. OwnerID is nil for categories
// in the shared scope, which are visible to every user. A category name is
// unique within its scope across both active and soft-deleted records; the
// migrations back this with a unique index on (name, owner_id).
type Category struct {
	Base
	OwnerID   *string      `gorm:"type:uuid;uniqueIndex:idx_categories_name_owner" json:"owner_id,omitempty"`
	Name      string       `gorm:"size:255;not null;uniqueIndex:idx_categories_name_owner" json:"name"`
	Type      CategoryType `gorm:"not null" json:"type"`
	Color     string       `gorm:"size:7;not null" json:"color"`
	IsDefault bool         `gorm:"not null;default:false" json:"is_default"`

	Owner *User `gorm:"foreignKey:OwnerID" json:"-"`
}

// Shared reports whether the category lives in the shared scope.
func (c *Category) Shared() bool {
	return c.OwnerID == nil
}

// OwnedBy reports whether the category is owned by the given user.
func (c *Category) OwnedBy(userID string) bool {
	return c.OwnerID != nil && *c.OwnerID == userID
}
