package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "keepsake/internal/errors"
	"keepsake/internal/services"
)

// MediaHandler handles entry media uploads.
type MediaHandler struct {
	mediaService services.MediaServicer
	auditService services.AuditServicer
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(mediaService services.MediaServicer, auditService services.AuditServicer) *MediaHandler {
	return &MediaHandler{mediaService: mediaService, auditService: auditService}
}

func mediaPath(c *gin.Context, withMedia bool) (userID, entryID, mediaID string, err error) {
	if userID, err = getUserID(c); err != nil {
		return "", "", "", err
	}
	if entryID, err = parsePathID(c, "id", apperrors.ErrEntryNotFound); err != nil {
		return "", "", "", err
	}
	if withMedia {
		if mediaID, err = parsePathID(c, "mediaId", apperrors.ErrMediaNotFound); err != nil {
			return "", "", "", err
		}
	}
	return userID, entryID, mediaID, nil
}

// UploadMedia stores a file for an entry.
// @Summary     Upload media
// @Description Upload an image (jpeg, png, gif, webp) or video (mp4, webm). The type is detected from the content.
// @Tags        media
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       id         path     string true  "Entry ID"
// @Param       file       formData file   true  "Media file"
// @Param       caption    formData string false "Caption"
// @Param       is_primary formData bool   false "Make this the primary media"
// @Success     201 {object} models.EntryMedia "Stored media"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Failure     413 {object} ErrorResponse "File too large"
// @Failure     415 {object} ErrorResponse "Unsupported file type"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries/{id}/media [post]
func (h *MediaHandler) UploadMedia(c *gin.Context) {
	userID, entryID, _, err := mediaPath(c, false)
	if err != nil {
		respondWithError(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is required"))
		return
	}
	primary := false
	if v := c.PostForm("is_primary"); v != "" {
		if primary, err = strconv.ParseBool(v); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "is_primary must be 'true' or 'false'"))
			return
		}
	}

	file, err := header.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	media, err := h.mediaService.UploadMedia(c.Request.Context(), userID, entryID, services.MediaUpload{
		Filename:  header.Filename,
		Size:      header.Size,
		Body:      file,
		Caption:   c.PostForm("caption"),
		IsPrimary: primary,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionUploadMedia, "media", media.ID, c.ClientIP(),
		map[string]interface{}{"entry_id": entryID, "content_type": media.ContentType, "size_bytes": media.SizeBytes})
	c.JSON(http.StatusCreated, gin.H{"media": media})
}

// ListMedia lists an entry's media.
// @Summary     List media
// @Description Media of an entry, primary first
// @Tags        media
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Entry ID"
// @Success     200 {array}  models.EntryMedia "Media"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries/{id}/media [get]
func (h *MediaHandler) ListMedia(c *gin.Context) {
	userID, entryID, _, err := mediaPath(c, false)
	if err != nil {
		respondWithError(c, err)
		return
	}

	media, err := h.mediaService.ListMedia(c.Request.Context(), userID, entryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"media": media})
}

// DeleteMedia removes a media file.
// @Summary     Delete media
// @Tags        media
// @Security    BearerAuth
// @Param       id      path string true "Entry ID"
// @Param       mediaId path string true "Media ID"
// @Success     204 "Media deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entry or media not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries/{id}/media/{mediaId} [delete]
func (h *MediaHandler) DeleteMedia(c *gin.Context) {
	userID, entryID, mediaID, err := mediaPath(c, true)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.mediaService.DeleteMedia(c.Request.Context(), userID, entryID, mediaID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionDeleteMedia, "media", mediaID, c.ClientIP(),
		map[string]interface{}{"entry_id": entryID})
	c.Status(http.StatusNoContent)
}

// SetPrimaryMedia makes a media file the entry's primary one.
// @Summary     Set primary media
// @Tags        media
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string true "Entry ID"
// @Param       mediaId path string true "Media ID"
// @Success     200 {object} models.EntryMedia "Primary media"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entry or media not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entries/{id}/media/{mediaId}/primary [put]
func (h *MediaHandler) SetPrimaryMedia(c *gin.Context) {
	userID, entryID, mediaID, err := mediaPath(c, true)
	if err != nil {
		respondWithError(c, err)
		return
	}

	media, err := h.mediaService.SetPrimaryMedia(c.Request.Context(), userID, entryID, mediaID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionSetPrimaryMedia, "media", media.ID, c.ClientIP(),
		map[string]interface{}{"entry_id": entryID})
	c.JSON(http.StatusOK, gin.H{"media": media})
}
