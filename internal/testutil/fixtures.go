package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"keepsake/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
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

// CreateTestUserWithEmail creates a user with the given email. The password
// is always "password123".
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:           email,
		Password:        string(hash),
		Theme:           models.ThemeLight,
		DefaultCurrency: models.DefaultCurrency,
		IsActive:        true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func baseEntry(userID string, kind models.EntryKind) *models.Entry {
	return &models.Entry{
		UserID:          userID,
		Kind:            kind,
		Title:           fmt.Sprintf("Test Entry %d", nextID()),
		Currency:        models.DefaultCurrency,
		ImportanceScore: 5,
		EmotionalValue:  5,
		PracticalValue:  5,
		FrequencyOfUse:  5,
		DurationOwned:   5,
		Theme:           "default",
		Layout:          "default",
		Tags:            datatypes.JSONSlice[string]{},
	}
}

// CreateTestItem creates an item without price or acquisition date.
func CreateTestItem(t *testing.T, db *gorm.DB, userID string) *models.Entry {
	t.Helper()

	entry := baseEntry(userID, models.EntryKindItem)
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test item: %v", err)
	}
	return entry
}

// CreateTestValuableItem creates an item that can be valued.
func CreateTestValuableItem(t *testing.T, db *gorm.DB, userID, category string, price string, acquired time.Time, condition models.Condition) *models.Entry {
	t.Helper()

	entry := baseEntry(userID, models.EntryKindItem)
	entry.SetPayload(models.ItemAttributes{
		AcquisitionDate: &acquired,
		OriginalPrice:   decimal.NewNullDecimal(decimal.RequireFromString(price)),
		Category:        category,
		Condition:       &condition,
	})
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test valuable item: %v", err)
	}
	return entry
}

// CreateTestPerson creates a person entry.
func CreateTestPerson(t *testing.T, db *gorm.DB, userID string, relationship models.Relationship) *models.Entry {
	t.Helper()

	entry := baseEntry(userID, models.EntryKindPerson)
	entry.SetPayload(models.PersonAttributes{Relationship: &relationship})
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test person: %v", err)
	}
	return entry
}

// CreateTestDepreciationRule persists a rule overriding the built-in table.
func CreateTestDepreciationRule(t *testing.T, db *gorm.DB, category, rate, floor string) *models.DepreciationRule {
	t.Helper()

	rule := &models.DepreciationRule{
		Category:           category,
		AnnualRate:         decimal.RequireFromString(rate),
		MinValuePercentage: decimal.RequireFromString(floor),
	}
	if err := db.Create(rule).Error; err != nil {
		t.Fatalf("failed to create test depreciation rule: %v", err)
	}
	return rule
}
