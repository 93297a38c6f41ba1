package testutil_test

import (
	"testing"
	"time"

	"keepsake/internal/errors"
	"keepsake/internal/models"
	"keepsake/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	var count int64
	for _, table := range []string{"users", "entries", "entry_media", "stories", "story_versions", "valuation_records", "depreciation_rules", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	testutil.CreateTestUser(t, first)

	var count int64
	second.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Errorf("expected an empty second database, found %d users", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}

	item := testutil.CreateTestItem(t, db, user.ID)
	if item.Kind != models.EntryKindItem {
		t.Errorf("expected item, got %s", item.Kind)
	}

	acquired := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	valuable := testutil.CreateTestValuableItem(t, db, user.ID, "books", "40.00", acquired, models.ConditionGood)
	attrs, ok := valuable.Item()
	if !ok || !attrs.Valuable() {
		t.Error("expected a valuable item")
	}

	person := testutil.CreateTestPerson(t, db, user.ID, models.RelationshipMentor)
	if _, ok := person.Person(); !ok {
		t.Error("expected a person")
	}

	rule := testutil.CreateTestDepreciationRule(t, db, "instruments", "0.08", "25")
	if rule.ID == "" {
		t.Error("rule should have an ID")
	}
}

func TestAssertAppError(t *testing.T) {
	testutil.AssertAppError(t, errors.ErrEntryNotFound, "ENTRY_NOT_FOUND")
	testutil.AssertAppError(t, errors.Wrap(errors.ErrInternalServer, nil), "INTERNAL_ERROR")
}
