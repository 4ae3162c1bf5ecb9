package handler

import (
	"context"
	"errors"
	"io"
	"mime"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/vivahsetu/vivahsetu-backend/internal/common"
	"github.com/vivahsetu/vivahsetu-backend/internal/middleware"
	"github.com/vivahsetu/vivahsetu-backend/pkg/storage"
)

const attachmentPrefix = "attachments"

// AttachmentStore persists uploaded blobs
type AttachmentStore interface {
	Upload(ctx context.Context, key, name string, body io.Reader, contentType string, size int64) (*storage.UploadResult, error)
}

// AttachmentHandler uploads chat attachments to blob storage.
// The returned reference is sent back by the client inside send-message.
type AttachmentHandler struct {
	store    AttachmentStore
	maxBytes int64
}

// NewAttachmentHandler creates a new AttachmentHandler; store may be nil when storage is disabled
func NewAttachmentHandler(store AttachmentStore, maxUploadMB int) *AttachmentHandler {
	return &AttachmentHandler{store: store, maxBytes: int64(maxUploadMB) * 1024 * 1024}
}

// Upload handles POST /chat/attachments
// @Summary Upload a chat attachment
// @Tags chat
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Attachment"
// @Success 200 {object} common.APIResponse{data=storage.UploadResult}
// @Router /chat/attachments [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	if h.store == nil {
		common.HandleError(c, common.StoreError("attachments", errors.New("storage disabled")))
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		common.HandleError(c, common.Validation("file is required"))
		return
	}
	if file.Size <= 0 {
		common.HandleError(c, common.Validation("file is empty"))
		return
	}
	if h.maxBytes > 0 && file.Size > h.maxBytes {
		common.HandleError(c, common.Validation("file too large (max %dMB)", h.maxBytes/(1024*1024)))
		return
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(file.Filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	src, err := file.Open()
	if err != nil {
		common.HandleError(c, common.Validation("unreadable file"))
		return
	}
	defer src.Close()

	key := storage.GenerateKey(attachmentPrefix, middleware.GetUserID(c), file.Filename)
	result, err := h.store.Upload(c.Request.Context(), key, file.Filename, src, contentType, file.Size)
	if err != nil {
		common.HandleError(c, common.StoreError("upload attachment", err))
		return
	}

	common.SuccessResponse(c, result, nil)
}
