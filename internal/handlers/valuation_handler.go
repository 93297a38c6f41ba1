package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "keepsake/internal/errors"
	"keepsake/internal/pagination"
	"keepsake/internal/services"
)

// ValuationHandler serves item valuations and depreciation rules.
type ValuationHandler struct {
	valuationService services.ValuationServicer
	ruleService      services.RuleServicer
	auditService     services.AuditServicer
}

// NewValuationHandler creates a new ValuationHandler.
func NewValuationHandler(valuationService services.ValuationServicer, ruleService services.RuleServicer, auditService services.AuditServicer) *ValuationHandler {
	return &ValuationHandler{valuationService: valuationService, ruleService: ruleService, auditService: auditService}
}

func valuationPath(c *gin.Context) (userID, entryID string, err error) {
	if userID, err = getUserID(c); err != nil {
		return "", "", err
	}
	if entryID, err = parsePathID(c, "id", apperrors.ErrEntryNotFound); err != nil {
		return "", "", err
	}
	return userID, entryID, nil
}

// CalculateValuation appends a fresh valuation.
// @Summary     Calculate valuation
// @Description Value an item as of today and append the record to its history
// @Tags        valuations
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Entry ID"
// @Success     201 {object} models.ValuationRecord "New valuation"
// @Failure     400 {object} ErrorResponse "Entry cannot be valued"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries/{id}/valuations [post]
func (h *ValuationHandler) CalculateValuation(c *gin.Context) {
	userID, entryID, err := valuationPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	record, err := h.valuationService.CalculateValuation(c.Request.Context(), userID, entryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionCalculateValue, "valuation", record.ID, c.ClientIP(),
		map[string]interface{}{"entry_id": entryID, "current_value": record.CurrentValue.StringFixed(2)})
	c.JSON(http.StatusCreated, gin.H{"valuation": record})
}

// GetLatestValuation returns the newest valuation.
// @Summary     Latest valuation
// @Description The newest valuation; one is calculated first when the item has none
// @Tags        valuations
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Entry ID"
// @Success     200 {object} models.ValuationRecord "Latest valuation"
// @Failure     400 {object} ErrorResponse "Entry cannot be valued"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries/{id}/valuations/latest [get]
func (h *ValuationHandler) GetLatestValuation(c *gin.Context) {
	userID, entryID, err := valuationPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	record, err := h.valuationService.GetLatestValuation(c.Request.Context(), userID, entryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"valuation": record})
}

// GetValuationHistory lists an item's valuations.
// @Summary     Valuation history
// @Description Valuations of an item, newest first
// @Tags        valuations
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Entry ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.ValuationRecord] "Paginated valuations"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries/{id}/valuations [get]
func (h *ValuationHandler) GetValuationHistory(c *gin.Context) {
	userID, entryID, err := valuationPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.valuationService.GetValuationHistory(userID, entryID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListRules returns the persisted depreciation rules.
// @Summary     List depreciation rules
// @Tags        valuations
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.DepreciationRule "Rules"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /depreciation-rules [get]
func (h *ValuationHandler) ListRules(c *gin.Context) {
	rules, err := h.ruleService.ListRules()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// ResolveRule shows the rule a category resolves to.
// @Summary     Resolve depreciation rule
// @Description The annual rate and floor used for a category, and which source supplied them
// @Tags        valuations
// @Produce     json
// @Security    BearerAuth
// @Param       category query string true "Item category"
// @Success     200 {object} valuation.Rule "Resolved rule"
// @Failure     400 {object} ErrorResponse "Missing category"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /depreciation-rules/resolve [get]
func (h *ValuationHandler) ResolveRule(c *gin.Context) {
	category := strings.TrimSpace(c.Query("category"))
	if category == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule": h.ruleService.ResolveRule(c.Request.Context(), category)})
}

// RevalueAll appends a valuation to every eligible item of every user.
// @Summary     Revalue all items
// @Description Batch endpoint for schedulers; authenticated with X-API-Key
// @Tags        pipeline
// @Produce     json
// @Param       X-API-Key header string true "Pipeline API key"
// @Success     200 {object} services.RevaluationSummary "Run summary"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Pipeline disabled"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /pipeline/valuations [post]
func (h *ValuationHandler) RevalueAll(c *gin.Context) {
	summary, err := h.valuationService.RevalueAll(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
