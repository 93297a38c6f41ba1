package handlers

import (
	"net/http"
	"testing"

	apperrors "keepsake/internal/errors"
	"keepsake/internal/models"
	"keepsake/internal/pagination"
	"keepsake/internal/services"

	"github.com/gin-gonic/gin"
)

// --- mock service ---

type mockStoryService struct {
	getStoryFn       func(userID, entryID string) (*models.Story, error)
	updateStoryFn    func(userID, entryID, content string) (*models.Story, error)
	listVersionsFn   func(userID, entryID string, page pagination.PageRequest) (*pagination.PageResponse[models.StoryVersion], error)
	getVersionFn     func(userID, entryID string, number int) (*models.StoryVersion, error)
	restoreVersionFn func(userID, entryID string, number int) (*models.Story, error)
}

func (m *mockStoryService) GetStory(userID, entryID string) (*models.Story, error) {
	if m.getStoryFn != nil {
		return m.getStoryFn(userID, entryID)
	}
	return &models.Story{EntryID: entryID}, nil
}

func (m *mockStoryService) UpdateStory(userID, entryID, content string) (*models.Story, error) {
	if m.updateStoryFn != nil {
		return m.updateStoryFn(userID, entryID, content)
	}
	return &models.Story{EntryID: entryID, Content: content}, nil
}

func (m *mockStoryService) ListVersions(userID, entryID string, page pagination.PageRequest) (*pagination.PageResponse[models.StoryVersion], error) {
	if m.listVersionsFn != nil {
		return m.listVersionsFn(userID, entryID, page)
	}
	resp := pagination.NewPageResponse([]models.StoryVersion{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockStoryService) GetVersion(userID, entryID string, number int) (*models.StoryVersion, error) {
	if m.getVersionFn != nil {
		return m.getVersionFn(userID, entryID, number)
	}
	return &models.StoryVersion{VersionNumber: number}, nil
}

func (m *mockStoryService) RestoreVersion(userID, entryID string, number int) (*models.Story, error) {
	if m.restoreVersionFn != nil {
		return m.restoreVersionFn(userID, entryID, number)
	}
	return &models.Story{EntryID: entryID}, nil
}

func setupStoryRouter(handler *StoryHandler) *gin.Engine {
	r := gin.New()
	g := r.Group("/entries/:id", injectUserID(testUserID))
	g.GET("/story", handler.GetStory)
	g.PUT("/story", handler.UpdateStory)
	g.GET("/story/versions", handler.ListVersions)
	g.GET("/story/versions/:version", handler.GetVersion)
	g.POST("/story/versions/:version/restore", handler.RestoreVersion)
	return r
}

const storyPathPrefix = "/entries/" + testEntryID + "/story"

// --- tests ---

func TestStoryHandler_GetStory(t *testing.T) {
	svc := &mockStoryService{
		getStoryFn: func(_, entryID string) (*models.Story, error) {
			return &models.Story{EntryID: entryID, Content: "first"}, nil
		},
	}
	r := setupStoryRouter(NewStoryHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "GET", storyPathPrefix, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	story := parseJSON(t, rec)["story"].(map[string]interface{})
	if story["content"] != "first" || story["entry_id"] != testEntryID {
		t.Errorf("unexpected story %v", story)
	}

	rec = doRequest(r, "GET", "/entries/not-a-uuid/story", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed id, got %d", rec.Code)
	}
	assertErrorCode(t, parseJSON(t, rec), "ENTRY_NOT_FOUND")
}

func TestStoryHandler_UpdateStory(t *testing.T) {
	t.Run("accepts empty content", func(t *testing.T) {
		got := "unset"
		svc := &mockStoryService{
			updateStoryFn: func(_, entryID, content string) (*models.Story, error) {
				got = content
				return &models.Story{Base: models.Base{ID: "story-1"}, EntryID: entryID, Content: content}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupStoryRouter(NewStoryHandler(svc, audit))

		rec := doRequest(r, "PUT", storyPathPrefix, `{"content":""}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got != "" {
			t.Errorf("expected empty content, got %q", got)
		}
		if len(audit.calls) != 1 || audit.calls[0].action != services.AuditActionUpdateStory || audit.calls[0].resourceID != "story-1" {
			t.Errorf("unexpected audit calls %+v", audit.calls)
		}
	})

	t.Run("requires content", func(t *testing.T) {
		r := setupStoryRouter(NewStoryHandler(&mockStoryService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", storyPathPrefix, `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("other user's entry", func(t *testing.T) {
		svc := &mockStoryService{
			updateStoryFn: func(string, string, string) (*models.Story, error) {
				return nil, apperrors.ErrEntryNotFound
			},
		}
		audit := &mockAuditService{}
		r := setupStoryRouter(NewStoryHandler(svc, audit))

		rec := doRequest(r, "PUT", storyPathPrefix, `{"content":"x"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ENTRY_NOT_FOUND")
		if len(audit.calls) != 0 {
			t.Errorf("expected no audit entry, got %+v", audit.calls)
		}
	})
}

func TestStoryHandler_ListVersions(t *testing.T) {
	var gotPage pagination.PageRequest
	svc := &mockStoryService{
		listVersionsFn: func(_, _ string, page pagination.PageRequest) (*pagination.PageResponse[models.StoryVersion], error) {
			gotPage = page
			resp := pagination.NewPageResponse([]models.StoryVersion{{VersionNumber: 2}, {VersionNumber: 1}}, page.Page, page.PageSize, 2)
			return &resp, nil
		},
	}
	r := setupStoryRouter(NewStoryHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "GET", storyPathPrefix+"/versions?page=1&page_size=10", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotPage.Page != 1 || gotPage.PageSize != 10 {
		t.Errorf("unexpected page %+v", gotPage)
	}
	data := parseJSON(t, rec)["data"].([]interface{})
	if len(data) != 2 || data[0].(map[string]interface{})["version_number"] != float64(2) {
		t.Errorf("expected newest version first, got %v", data)
	}
}

func TestStoryHandler_GetVersion(t *testing.T) {
	tests := []struct {
		name       string
		version    string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{"found", "3", nil, http.StatusOK, ""},
		{"missing", "9", apperrors.ErrStoryVersionNotFound, http.StatusNotFound, "STORY_VERSION_NOT_FOUND"},
		{"zero", "0", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"not a number", "latest", nil, http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotNumber int
			svc := &mockStoryService{
				getVersionFn: func(_, _ string, number int) (*models.StoryVersion, error) {
					gotNumber = number
					if tt.svcErr != nil {
						return nil, tt.svcErr
					}
					return &models.StoryVersion{VersionNumber: number, Content: "old"}, nil
				},
			}
			r := setupStoryRouter(NewStoryHandler(svc, &mockAuditService{}))

			rec := doRequest(r, "GET", storyPathPrefix+"/versions/"+tt.version, "")

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantCode != "" {
				assertErrorCode(t, parseJSON(t, rec), tt.wantCode)
				return
			}
			version := parseJSON(t, rec)["version"].(map[string]interface{})
			if gotNumber != 3 || version["content"] != "old" {
				t.Errorf("unexpected version %v (number %d)", version, gotNumber)
			}
		})
	}
}

func TestStoryHandler_RestoreVersion(t *testing.T) {
	var gotNumber int
	svc := &mockStoryService{
		restoreVersionFn: func(_, entryID string, number int) (*models.Story, error) {
			gotNumber = number
			return &models.Story{Base: models.Base{ID: "story-1"}, EntryID: entryID, Content: "restored"}, nil
		},
	}
	audit := &mockAuditService{}
	r := setupStoryRouter(NewStoryHandler(svc, audit))

	rec := doRequest(r, "POST", storyPathPrefix+"/versions/2/restore", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotNumber != 2 {
		t.Errorf("expected version 2, got %d", gotNumber)
	}
	if story := parseJSON(t, rec)["story"].(map[string]interface{}); story["content"] != "restored" {
		t.Errorf("unexpected story %v", story)
	}
	if len(audit.calls) != 1 || audit.calls[0].action != services.AuditActionRestoreStory {
		t.Errorf("unexpected audit calls %+v", audit.calls)
	}
}
