package services

import (
	"encoding/json"

	"keepsake/internal/logger"
	"keepsake/internal/models"

	"gorm.io/gorm"
)

// Audit actions.
const (
	AuditActionRegister        = "REGISTER"
	AuditActionLogin           = "LOGIN"
	AuditActionUpdateProfile   = "UPDATE_PROFILE"
	AuditActionCreateEntry     = "CREATE_ENTRY"
	AuditActionUpdateEntry     = "UPDATE_ENTRY"
	AuditActionDeleteEntry     = "DELETE_ENTRY"
	AuditActionUpdateStory     = "UPDATE_STORY"
	AuditActionRestoreStory    = "RESTORE_STORY"
	AuditActionCalculateValue  = "CALCULATE_VALUATION"
	AuditActionUploadMedia     = "UPLOAD_MEDIA"
	AuditActionDeleteMedia     = "DELETE_MEDIA"
	AuditActionSetPrimaryMedia = "SET_PRIMARY_MEDIA"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}
