package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"moneta/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestAdmin creates a user holding the admin capability.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := CreateTestUser(t, db)
	if err := db.Model(user).Update("is_admin", true).Error; err != nil {
		t.Fatalf("failed to promote test user to admin: %v", err)
	}
	user.IsAdmin = true
	return user
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category of the given type owned by the user.
func CreateTestCategory(t *testing.T, db *gorm.DB, ownerID string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		OwnerID: &ownerID,
		Name:    fmt.Sprintf("Test Category %d", nextID()),
		Type:    categoryType,
		Color:   "#336699",
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestSharedCategory creates a category in the shared scope.
func CreateTestSharedCategory(t *testing.T, db *gorm.DB, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:  fmt.Sprintf("Shared Category %d", nextID()),
		Type:  categoryType,
		Color: "#663399",
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test shared category: %v", err)
	}
	return category
}

// CreateTestDefaultCategory creates a category flagged as part of the starter set.
func CreateTestDefaultCategory(t *testing.T, db *gorm.DB, ownerID string) *models.Category {
	t.Helper()

	category := &models.Category{
		OwnerID:   &ownerID,
		Name:      fmt.Sprintf("Default Category %d", nextID()),
		Type:      models.CategoryTypeExpense,
		Color:     "#FF0000",
		IsDefault: true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test default category: %v", err)
	}
	return category
}
