package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "keepsake/internal/errors"
	"keepsake/internal/pagination"
	"keepsake/internal/services"
)

// StoryHandler serves the versioned story of an entry.
type StoryHandler struct {
	storyService services.StoryServicer
	auditService services.AuditServicer
}

// NewStoryHandler creates a new StoryHandler.
func NewStoryHandler(storyService services.StoryServicer, auditService services.AuditServicer) *StoryHandler {
	return &StoryHandler{storyService: storyService, auditService: auditService}
}

// UpdateStoryRequest replaces the story content.
type UpdateStoryRequest struct {
	Content *string `json:"content" binding:"required"`
}

func storyPath(c *gin.Context) (userID, entryID string, err error) {
	if userID, err = getUserID(c); err != nil {
		return "", "", err
	}
	if entryID, err = parsePathID(c, "id", apperrors.ErrEntryNotFound); err != nil {
		return "", "", err
	}
	return userID, entryID, nil
}

// GetStory returns the entry's story.
// @Summary     Get story
// @Description Get the current story of an entry. An empty story is created on first access.
// @Tags        stories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Entry ID"
// @Success     200 {object} models.Story "Story"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries/{id}/story [get]
func (h *StoryHandler) GetStory(c *gin.Context) {
	userID, entryID, err := storyPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	story, err := h.storyService.GetStory(userID, entryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"story": story})
}

// UpdateStory replaces the story, archiving the previous text as a version.
// @Summary     Update story
// @Description Replace the story content. Non-empty previous content is archived as the next version.
// @Tags        stories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Entry ID"
// @Param       request body UpdateStoryRequest true "New content"
// @Success     200 {object} models.Story "Updated story"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries/{id}/story [put]
func (h *StoryHandler) UpdateStory(c *gin.Context) {
	userID, entryID, err := storyPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	story, err := h.storyService.UpdateStory(userID, entryID, *req.Content)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionUpdateStory, "story", story.ID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"story": story})
}

// ListVersions lists archived story versions.
// @Summary     List story versions
// @Description Archived versions of the story, newest first
// @Tags        stories
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Entry ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.StoryVersion] "Paginated versions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries/{id}/story/versions [get]
func (h *StoryHandler) ListVersions(c *gin.Context) {
	userID, entryID, err := storyPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.storyService.ListVersions(userID, entryID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetVersion returns one archived version.
// @Summary     Get story version
// @Tags        stories
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string true "Entry ID"
// @Param       version path int    true "Version number"
// @Success     200 {object} models.StoryVersion "Version"
// @Failure     400 {object} ErrorResponse "Invalid version"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entry or version not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries/{id}/story/versions/{version} [get]
func (h *StoryHandler) GetVersion(c *gin.Context) {
	userID, entryID, err := storyPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	number, err := parseVersionNumber(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	version, err := h.storyService.GetVersion(userID, entryID, number)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"version": version})
}

// RestoreVersion makes an archived version the current story again.
// @Summary     Restore story version
// @Description Replace the story with an archived version. The current content is archived first.
// @Tags        stories
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string true "Entry ID"
// @Param       version path int    true "Version number"
// @Success     200 {object} models.Story "Restored story"
// @Failure     400 {object} ErrorResponse "Invalid version"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entry or version not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries/{id}/story/versions/{version}/restore [post]
func (h *StoryHandler) RestoreVersion(c *gin.Context) {
	userID, entryID, err := storyPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	number, err := parseVersionNumber(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	story, err := h.storyService.RestoreVersion(userID, entryID, number)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionRestoreStory, "story", story.ID, c.ClientIP(),
		map[string]interface{}{"version": number})
	c.JSON(http.StatusOK, gin.H{"story": story})
}
