package routes

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"taskflex/internal/models"
	"taskflex/internal/policy"
	"taskflex/internal/storage"
)

var errStorageDisabled = errors.New("attachment storage is not configured")

type AttachmentRoutes struct {
	handler
}

func NewAttachmentRoutes(server ServerInterface) *AttachmentRoutes {
	return &AttachmentRoutes{handler{server: server}}
}

func (ar *AttachmentRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(ar.server)

	r.GET("/attachments/:attachmentID", middleware.AuthMiddleware(), ar.downloadAttachmentHandler)
}

func storageUnavailable(c *gin.Context) {
	_ = c.Error(errStorageDisabled)
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": errStorageDisabled.Error()})
}

// uploadAttachmentHandler takes a multipart "file" field. The blob is
// encrypted and stored first; if the row cannot be written the blob is
// removed again.
func (tr *TaskRoutes) uploadAttachmentHandler(c *gin.Context) {
	tc, ok := tr.loadTask(c, policy.UploadAttachment)
	if !ok {
		return
	}
	store := tr.server.GetStorage()
	if store == nil {
		storageUnavailable(c)
		return
	}

	maxBytes := tr.server.GetConfig().MaxUploadBytes
	// Leave room for the multipart envelope around the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, storage.ErrTooLarge)
			return
		}
		badRequest(c, fmt.Errorf("file is required: %w", err))
		return
	}
	if header.Size > maxBytes {
		respondError(c, storage.ErrTooLarge)
		return
	}
	file, err := header.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	p := principal(c)
	name := filepath.Base(header.Filename)
	id := uuid.New()
	key := storage.AttachmentKey(tc.Task.ID, id, name)

	res, err := store.UploadAttachment(ctx, key, name, file, maxBytes)
	if err != nil {
		respondError(c, err)
		return
	}

	att := &models.Attachment{
		ID:          id,
		TaskID:      tc.Task.ID,
		UploaderID:  p.UserID,
		FileName:    name,
		ContentType: res.MimeType,
		Size:        res.Size,
		StorageKey:  res.Key,
		Checksum:    res.Checksum,
	}
	if err := tr.db().CreateAttachment(ctx, att); err != nil {
		if derr := store.DeleteFile(ctx, key); derr != nil {
			zerolog.Ctx(ctx).Warn().Err(derr).Str("key", key).Msg("orphaned attachment blob")
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"attachment": att})
}

func (ar *AttachmentRoutes) downloadAttachmentHandler(c *gin.Context) {
	attachmentID, ok := uuidParam(c, "attachmentID")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	ac, err := ar.db().LoadAttachmentWithTask(ctx, attachmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !authorize(c, policy.ViewAttachment, ac.Resource()) {
		return
	}

	store := ar.server.GetStorage()
	if store == nil {
		storageUnavailable(c)
		return
	}
	exists, err := store.CheckFileExists(ctx, ac.Attachment.StorageKey)
	if err != nil {
		respondError(c, err)
		return
	}
	if !exists {
		zerolog.Ctx(ctx).Warn().Str("attachment_id", ac.Attachment.ID.String()).Msg("attachment row has no blob")
		respondError(c, storage.ErrObjectNotFound)
		return
	}
	file, err := store.DownloadFile(ctx, ac.Attachment.StorageKey)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := storage.VerifyChecksum(file.Data, ac.Attachment.Checksum); err != nil {
		respondError(c, fmt.Errorf("attachment %s: %w", ac.Attachment.ID, err))
		return
	}

	contentType := ac.Attachment.ContentType
	if contentType == "" {
		contentType = file.MimeType
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ac.Attachment.FileName))
	c.Data(http.StatusOK, contentType, file.Data)
}

