package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "keepsake/internal/errors"
	"keepsake/internal/importance"
	"keepsake/internal/models"
	"keepsake/internal/pagination"
	"keepsake/internal/services"
	"keepsake/internal/validator"
)

// EntryHandler handles entry-related requests.
type EntryHandler struct {
	entryService services.EntryServicer
	auditService services.AuditServicer
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryService services.EntryServicer, auditService services.AuditServicer) *EntryHandler {
	return &EntryHandler{entryService: entryService, auditService: auditService}
}

// EntryFields are the writable entry fields shared by create and update.
// Item and person attributes sit at the top level; sending attributes of the
// other kind is rejected.
type EntryFields struct {
	Title           *string         `json:"title" binding:"omitempty,max=200"`
	Description     *string         `json:"description"`
	StoryContent    *string         `json:"story_content"`
	ImportanceScore *int            `json:"importance_score" binding:"omitempty,min=1,max=10"`
	EmotionalValue  *int            `json:"emotional_value" binding:"omitempty,min=1,max=10"`
	PracticalValue  *int            `json:"practical_value" binding:"omitempty,min=1,max=10"`
	FrequencyOfUse  *int            `json:"frequency_of_use" binding:"omitempty,min=1,max=10"`
	DurationOwned   *int            `json:"duration_owned" binding:"omitempty,min=1,max=10"`
	Theme           *string         `json:"theme" binding:"omitempty,max=50"`
	Layout          *string         `json:"layout" binding:"omitempty,max=50"`
	Decorations     json.RawMessage `json:"decorations" swaggertype:"array,object"`
	Tags            *[]string       `json:"tags" binding:"omitempty,max=50,dive,max=50"`
	IsPrivate       *bool           `json:"is_private"`

	AcquisitionDate   *string                   `json:"acquisition_date" binding:"omitempty,not_future"`
	AcquisitionMethod *models.AcquisitionMethod `json:"acquisition_method" binding:"omitempty,acquisition_method"`
	OriginalPrice     *decimal.Decimal          `json:"original_price" swaggertype:"string"`
	Currency          *string                   `json:"currency" binding:"omitempty,iso4217"`
	Category          *string                   `json:"category" binding:"omitempty,max=100"`
	Condition         *models.Condition         `json:"condition" binding:"omitempty,condition"`

	Relationship *models.Relationship   `json:"relationship" binding:"omitempty,relationship"`
	MeetingDate  *string                `json:"meeting_date" binding:"omitempty,not_future"`
	ContactInfo  map[string]interface{} `json:"contact_info"`
}

// CreateEntryRequest represents the request payload for creating an entry.
type CreateEntryRequest struct {
	Kind  models.EntryKind `json:"kind" binding:"required,entry_kind"`
	Title string           `json:"title" binding:"required,max=200"`
	EntryFields
}

// UpdateStoryContentRequest replaces the entry-level story text.
type UpdateStoryContentRequest struct {
	StoryContent *string `json:"story_content" binding:"required"`
}

func parseDate(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	d, err := time.Parse(validator.DateLayout, *raw)
	if err != nil {
		return nil
	}
	return &d
}

// toInput maps the request onto the service input. Only the attribute group
// the client touched is set, so the service can reject the wrong kind.
func (f EntryFields) toInput() services.EntryInput {
	in := services.EntryInput{
		Title:        f.Title,
		Description:  f.Description,
		StoryContent: f.StoryContent,
		Scores: importance.Patch{
			Overall:   f.ImportanceScore,
			Emotional: f.EmotionalValue,
			Practical: f.PracticalValue,
			Frequency: f.FrequencyOfUse,
			Duration:  f.DurationOwned,
		},
		Theme:       f.Theme,
		Layout:      f.Layout,
		Decorations: f.Decorations,
		Tags:        f.Tags,
		IsPrivate:   f.IsPrivate,
	}
	if f.AcquisitionDate != nil || f.AcquisitionMethod != nil || f.OriginalPrice != nil ||
		f.Currency != nil || f.Category != nil || f.Condition != nil {
		in.Item = &services.ItemPatch{
			AcquisitionDate:   parseDate(f.AcquisitionDate),
			AcquisitionMethod: f.AcquisitionMethod,
			OriginalPrice:     f.OriginalPrice,
			Currency:          f.Currency,
			Category:          f.Category,
			Condition:         f.Condition,
		}
	}
	if f.Relationship != nil || f.MeetingDate != nil || f.ContactInfo != nil {
		in.Person = &services.PersonPatch{
			Relationship: f.Relationship,
			MeetingDate:  parseDate(f.MeetingDate),
			ContactInfo:  f.ContactInfo,
		}
	}
	return in
}

func (h *EntryHandler) entryPath(c *gin.Context) (userID, entryID string, err error) {
	if userID, err = getUserID(c); err != nil {
		return "", "", err
	}
	if entryID, err = parsePathID(c, "id", apperrors.ErrEntryNotFound); err != nil {
		return "", "", err
	}
	return userID, entryID, nil
}

// CreateEntry handles the creation of a new entry.
// @Summary     Create an entry
// @Description Create an item or person entry. Currency defaults to the user's default currency.
// @Tags        entries
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateEntryRequest true "Entry details"
// @Success     201 {object} models.Entry "Entry created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries [post]
func (h *EntryHandler) CreateEntry(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, validationError(err))
		return
	}

	in := req.toInput()
	in.Title = &req.Title
	entry, err := h.entryService.CreateEntry(userID, req.Kind, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionCreateEntry, "entry", entry.ID, c.ClientIP(),
		map[string]interface{}{"kind": entry.Kind, "title": entry.Title})

	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// GetEntry handles retrieving a specific entry.
// @Summary     Get entry by ID
// @Description Get an entry with its media
// @Tags        entries
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Entry ID"
// @Success     200 {object} models.Entry "Entry details"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries/{id} [get]
func (h *EntryHandler) GetEntry(c *gin.Context) {
	userID, entryID, err := h.entryPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.entryService.GetEntryByID(userID, entryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// UpdateEntry handles a partial update of an entry.
// @Summary     Update entry
// @Description Update the given fields of an entry. Changing an importance input stamps importance_last_evaluated.
// @Tags        entries
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string      true "Entry ID"
// @Param       request body EntryFields true "Fields to change"
// @Success     200 {object} models.Entry "Updated entry"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries/{id} [put]
func (h *EntryHandler) UpdateEntry(c *gin.Context) {
	userID, entryID, err := h.entryPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req EntryFields
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, validationError(err))
		return
	}

	entry, err := h.entryService.UpdateEntry(userID, entryID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionUpdateEntry, "entry", entry.ID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// UpdateStoryContent replaces the story text stored on the entry itself.
// @Summary     Update entry story content
// @Description Replace the entry-level story text. The versioned story is not touched.
// @Tags        entries
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                    true "Entry ID"
// @Param       request body UpdateStoryContentRequest true "Story content"
// @Success     200 {object} models.Entry "Updated entry"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries/{id}/story-content [put]
func (h *EntryHandler) UpdateStoryContent(c *gin.Context) {
	userID, entryID, err := h.entryPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateStoryContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, validationError(err))
		return
	}

	entry, err := h.entryService.UpdateStoryContent(userID, entryID, *req.StoryContent)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// DeleteEntry handles deleting an entry.
// @Summary     Delete entry
// @Description Delete an entry with its media, valuations and story history
// @Tags        entries
// @Security    BearerAuth
// @Param       id path string true "Entry ID"
// @Success     204 "Entry deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries/{id} [delete]
func (h *EntryHandler) DeleteEntry(c *gin.Context) {
	userID, entryID, err := h.entryPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.entryService.DeleteEntry(userID, entryID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionDeleteEntry, "entry", entryID, c.ClientIP(), nil)
	c.Status(http.StatusNoContent)
}

// ListEntries handles listing the user's entries.
// @Summary     List entries
// @Description Get a filtered, sorted and paginated list of entries
// @Tags        entries
// @Produce     json
// @Security    BearerAuth
// @Param       kind            query string false "item or person"
// @Param       category        query string false "Item category"
// @Param       condition       query string false "Item condition"
// @Param       relationship    query string false "Person relationship"
// @Param       is_private      query bool   false "Privacy flag"
// @Param       min_importance  query int    false "Minimum importance score"
// @Param       tags            query string false "Comma separated tags; all must match"
// @Param       has_story       query bool   false "Story content present"
// @Param       q               query string false "Search title, description and story"
// @Param       acquired_from   query string false "Acquired on or after (YYYY-MM-DD)"
// @Param       acquired_to     query string false "Acquired on or before (YYYY-MM-DD)"
// @Param       met_from        query string false "Met on or after (YYYY-MM-DD)"
// @Param       met_to          query string false "Met on or before (YYYY-MM-DD)"
// @Param       min_price       query string false "Minimum original price"
// @Param       max_price       query string false "Maximum original price"
// @Param       sort            query string false "Sort column, prefix - for descending (default -updated_at)"
// @Param       page            query int    false "Page number (default 1)"
// @Param       page_size       query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Entry] "Paginated entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries [get]
func (h *EntryHandler) ListEntries(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter, err := parseEntryFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.entryService.GetUserEntries(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func invalidQuery(name, reason string) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, name+" "+reason)
}

// parseEntryFilter reads the list filters from the query string.
func parseEntryFilter(c *gin.Context) (services.EntryFilter, error) {
	var f services.EntryFilter

	if v := c.Query("kind"); v != "" {
		k := models.EntryKind(v)
		if k != models.EntryKindItem && k != models.EntryKindPerson {
			return f, invalidQuery("kind", "must be 'item' or 'person'")
		}
		f.Kind = &k
	}
	if v := c.Query("category"); v != "" {
		f.Category = &v
	}
	if v := c.Query("condition"); v != "" {
		cond := models.Condition(v)
		f.Condition = &cond
	}
	if v := c.Query("relationship"); v != "" {
		rel := models.Relationship(v)
		f.Relationship = &rel
	}

	bools := []struct {
		name string
		dst  **bool
	}{{"is_private", &f.IsPrivate}, {"has_story", &f.HasStory}}
	for _, b := range bools {
		v := c.Query(b.name)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return f, invalidQuery(b.name, "must be 'true' or 'false'")
		}
		*b.dst = &parsed
	}

	if v := c.Query("min_importance"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || !importance.InRange(n) {
			return f, invalidQuery("min_importance", "must be an integer between 1 and 10")
		}
		f.MinImportance = &n
	}

	for _, raw := range c.QueryArray("tags") {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				f.Tags = append(f.Tags, tag)
			}
		}
	}
	f.Search = c.Query("q")

	dates := []struct {
		name string
		dst  **time.Time
	}{
		{"acquired_from", &f.AcquiredFrom},
		{"acquired_to", &f.AcquiredTo},
		{"met_from", &f.MetFrom},
		{"met_to", &f.MetTo},
	}
	for _, d := range dates {
		v := c.Query(d.name)
		if v == "" {
			continue
		}
		parsed, err := time.Parse(validator.DateLayout, v)
		if err != nil {
			return f, invalidQuery(d.name, "must be a YYYY-MM-DD date")
		}
		*d.dst = &parsed
	}

	prices := []struct {
		name string
		dst  **decimal.Decimal
	}{{"min_price", &f.MinPrice}, {"max_price", &f.MaxPrice}}
	for _, p := range prices {
		v := c.Query(p.name)
		if v == "" {
			continue
		}
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			return f, invalidQuery(p.name, "must be a decimal number")
		}
		*p.dst = &parsed
	}

	sort, ok := pagination.ParseSort(c.Query("sort"), services.EntrySortColumns, services.DefaultEntrySort)
	if !ok {
		return f, invalidQuery("sort", "must be one of "+strings.Join(services.EntrySortColumns, ", "))
	}
	f.Sort = sort
	return f, nil
}

// ListByImportance lists entries by calculated importance.
// @Summary     List entries by importance
// @Description Entries ordered by calculated importance, then importance score
// @Tags        entries
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Entry] "Paginated entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries/by-importance [get]
func (h *EntryHandler) ListByImportance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.entryService.GetEntriesByImportance(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListRecent returns the most recently updated entries.
// @Summary     Recent entries
// @Description The 10 most recently updated entries
// @Tags        entries
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.Entry "Recent entries"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries/recent [get]
func (h *EntryHandler) ListRecent(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entries, err := h.entryService.GetRecentEntries(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// GetStatistics summarizes the user's catalog.
// @Summary     Entry statistics
// @Description Totals by kind, story coverage, importance distribution, categories, relationships and top tags
// @Tags        entries
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.EntryStatistics "Statistics"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries/statistics [get]
func (h *EntryHandler) GetStatistics(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.entryService.GetStatistics(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
