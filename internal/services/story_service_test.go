package services

import (
	"sync"
	"testing"

	"keepsake/internal/models"
	"keepsake/internal/pagination"
	"keepsake/internal/testutil"
)

func TestGetStory(t *testing.T) {
	t.Run("created_on_first_access", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewStoryService(db)
		user := testutil.CreateTestUser(t, db)
		entry := testutil.CreateTestItem(t, db, user.ID)

		first, err := svc.GetStory(user.ID, entry.ID)
		testutil.AssertNoError(t, err)
		if first.Content != "" || first.EntryID != entry.ID {
			t.Errorf("expected empty story for entry, got %+v", first)
		}

		second, err := svc.GetStory(user.ID, entry.ID)
		testutil.AssertNoError(t, err)
		if second.ID != first.ID {
			t.Error("expected the same story on second access")
		}
	})

	t.Run("other_users_entry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewStoryService(db)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		entry := testutil.CreateTestItem(t, db, owner.ID)

		_, err := svc.GetStory(other.ID, entry.ID)
		testutil.AssertAppError(t, err, "ENTRY_NOT_FOUND")
	})
}

func TestUpdateStory_Versioning(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewStoryService(db)
	user := testutil.CreateTestUser(t, db)
	entry := testutil.CreateTestItem(t, db, user.ID)

	listVersions := func() []models.StoryVersion {
		t.Helper()
		resp, err := svc.ListVersions(user.ID, entry.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		return resp.Data
	}

	st, err := svc.UpdateStory(user.ID, entry.ID, "first")
	testutil.AssertNoError(t, err)
	if st.Content != "first" {
		t.Errorf("expected content first, got %q", st.Content)
	}
	if n := len(listVersions()); n != 0 {
		t.Fatalf("first write to an empty story must archive nothing, got %d versions", n)
	}

	_, err = svc.UpdateStory(user.ID, entry.ID, "second")
	testutil.AssertNoError(t, err)
	versions := listVersions()
	if len(versions) != 1 || versions[0].VersionNumber != 1 || versions[0].Content != "first" {
		t.Fatalf("expected version 1 holding first, got %+v", versions)
	}

	// identical content is still archived
	_, err = svc.UpdateStory(user.ID, entry.ID, "second")
	testutil.AssertNoError(t, err)
	_, err = svc.UpdateStory(user.ID, entry.ID, "")
	testutil.AssertNoError(t, err)
	_, err = svc.UpdateStory(user.ID, entry.ID, "after clearing")
	testutil.AssertNoError(t, err)

	versions = listVersions()
	want := []struct {
		number  int
		content string
	}{{3, "second"}, {2, "second"}, {1, "first"}}
	if len(versions) != len(want) {
		t.Fatalf("expected %d versions, got %d", len(want), len(versions))
	}
	for i, w := range want {
		if versions[i].VersionNumber != w.number || versions[i].Content != w.content {
			t.Errorf("position %d: expected v%d %q, got v%d %q", i, w.number, w.content, versions[i].VersionNumber, versions[i].Content)
		}
	}

	current, err := svc.GetStory(user.ID, entry.ID)
	testutil.AssertNoError(t, err)
	if current.Content != "after clearing" {
		t.Errorf("expected current content after clearing, got %q", current.Content)
	}
}

func TestUpdateStory_Concurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	sqlDB, err := db.DB()
	testutil.AssertNoError(t, err)
	// one connection serializes writers the way a row lock does on postgres
	sqlDB.SetMaxOpenConns(1)

	svc := NewStoryService(db)
	user := testutil.CreateTestUser(t, db)
	entry := testutil.CreateTestItem(t, db, user.ID)
	_, err = svc.UpdateStory(user.ID, entry.ID, "seed")
	testutil.AssertNoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.UpdateStory(user.ID, entry.ID, "concurrent"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent update failed: %v", err)
	}

	var numbers []int
	db.Model(&models.StoryVersion{}).Pluck("version_number", &numbers)
	if len(numbers) != 8 || !contiguous(numbers) {
		t.Errorf("expected versions 1..8 without gaps, got %v", numbers)
	}
}

// contiguous reports whether numbers, in any order, are exactly 1..len.
func contiguous(numbers []int) bool {
	seen := make([]bool, len(numbers)+1)
	for _, n := range numbers {
		if n < 1 || n > len(numbers) || seen[n] {
			return false
		}
		seen[n] = true
	}
	return true
}

func TestFindOrCreateStory_ExistingRow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	user := testutil.CreateTestUser(t, db)
	entry := testutil.CreateTestItem(t, db, user.ID)

	t.Run("insert_after_another_creator_is_a_no_op", func(t *testing.T) {
		existing := &models.Story{EntryID: entry.ID, Content: "written first"}
		testutil.AssertNoError(t, db.Create(existing).Error)

		// a second creator that missed the lookup must not fail on the unique index
		testutil.AssertNoError(t, insertStoryIfAbsent(db, entry.ID))

		var count int64
		db.Model(&models.Story{}).Where("entry_id = ?", entry.ID).Count(&count)
		if count != 1 {
			t.Fatalf("expected one story row, got %d", count)
		}

		st, err := findOrCreateStory(db, entry.ID)
		testutil.AssertNoError(t, err)
		if st.ID != existing.ID || st.Content != "written first" {
			t.Errorf("expected the existing story, got %+v", st)
		}
	})

	t.Run("creates_when_missing", func(t *testing.T) {
		other := testutil.CreateTestItem(t, db, user.ID)
		st, err := findOrCreateStory(db, other.ID)
		testutil.AssertNoError(t, err)
		if st.ID == "" || st.EntryID != other.ID || st.Content != "" {
			t.Errorf("unexpected new story %+v", st)
		}
	})
}

func TestGetVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewStoryService(db)
	user := testutil.CreateTestUser(t, db)
	entry := testutil.CreateTestItem(t, db, user.ID)

	_, err := svc.GetVersion(user.ID, entry.ID, 1)
	testutil.AssertAppError(t, err, "STORY_VERSION_NOT_FOUND")

	_, _ = svc.UpdateStory(user.ID, entry.ID, "draft")
	_, _ = svc.UpdateStory(user.ID, entry.ID, "final")

	v, err := svc.GetVersion(user.ID, entry.ID, 1)
	testutil.AssertNoError(t, err)
	if v.Content != "draft" {
		t.Errorf("expected draft, got %q", v.Content)
	}

	_, err = svc.GetVersion(user.ID, entry.ID, 2)
	testutil.AssertAppError(t, err, "STORY_VERSION_NOT_FOUND")
}

func TestRestoreVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewStoryService(db)
	user := testutil.CreateTestUser(t, db)
	entry := testutil.CreateTestItem(t, db, user.ID)

	_, _ = svc.UpdateStory(user.ID, entry.ID, "draft")
	_, _ = svc.UpdateStory(user.ID, entry.ID, "final")

	st, err := svc.RestoreVersion(user.ID, entry.ID, 1)
	testutil.AssertNoError(t, err)
	if st.Content != "draft" {
		t.Errorf("expected restored draft, got %q", st.Content)
	}

	v, err := svc.GetVersion(user.ID, entry.ID, 2)
	testutil.AssertNoError(t, err)
	if v.Content != "final" {
		t.Errorf("restoring must archive the replaced content, got %q", v.Content)
	}

	_, err = svc.RestoreVersion(user.ID, entry.ID, 9)
	testutil.AssertAppError(t, err, "STORY_VERSION_NOT_FOUND")
}

func TestStoryVersion_AppendOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewStoryService(db)
	user := testutil.CreateTestUser(t, db)
	entry := testutil.CreateTestItem(t, db, user.ID)

	_, _ = svc.UpdateStory(user.ID, entry.ID, "draft")
	_, _ = svc.UpdateStory(user.ID, entry.ID, "final")
	v, err := svc.GetVersion(user.ID, entry.ID, 1)
	testutil.AssertNoError(t, err)

	v.Content = "rewritten"
	if err := db.Save(v).Error; err == nil {
		t.Error("expected archived versions to reject updates")
	}
}
