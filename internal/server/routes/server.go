package routes

import (
	"context"
	"io"

	"taskflex/internal/config"
	"taskflex/internal/database"
	"taskflex/internal/notify"
	"taskflex/internal/policy"
	"taskflex/internal/storage"
)

// ServerInterface is what the route groups need from the server.
type ServerInterface interface {
	GetDB() database.Service
	GetPublisher() Publisher
	GetStorage() AttachmentStore
	GetConfig() *config.Config
}

// Publisher turns a domain event into stored notifications.
type Publisher interface {
	Publish(ctx context.Context, e policy.Event) notify.Report
}

// AttachmentStore is the blob store behind task attachments. GetStorage
// returns nil when no bucket is configured.
type AttachmentStore interface {
	UploadAttachment(ctx context.Context, key, fileName string, r io.Reader, maxBytes int64) (*storage.UploadResult, error)
	DownloadFile(ctx context.Context, key string) (*storage.DownloadResult, error)
	DeleteFile(ctx context.Context, key string) error
	CheckFileExists(ctx context.Context, key string) (bool, error)
}
