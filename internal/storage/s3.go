package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// Config locates the bucket. EndpointURL switches to path-style addressing
// for MinIO and other S3-compatible stores.
type Config struct {
	Bucket           string
	Region           string
	EndpointURL      string
	EncryptionKeyHex string
}

type S3Service struct {
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
	bucket     string
	sealer     *sealer
}

type UploadResult struct {
	Key        string
	Checksum   string // SHA-256 of the plaintext
	Size       int64
	MimeType   string
	UploadedAt time.Time
}

type DownloadResult struct {
	Data     []byte
	Checksum string
	Size     int64
	MimeType string
}

// NewS3Service creates a new S3 service instance with MinIO support
func NewS3Service(ctx context.Context, cfg Config) (*S3Service, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	sl, err := newSealer(cfg.EncryptionKeyHex)
	if err != nil {
		return nil, err
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	return &S3Service{
		client:     client,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
		bucket:     cfg.Bucket,
		sealer:     sl,
	}, nil
}

// AttachmentKey is the object key for an attachment.
func AttachmentKey(taskID, attachmentID uuid.UUID, fileName string) string {
	return path.Join("attachments", taskID.String(), attachmentID.String()+path.Ext(fileName))
}

// UploadAttachment encrypts and stores r under key. At most maxBytes are
// read; anything larger is rejected.
func (s *S3Service) UploadAttachment(ctx context.Context, key, fileName string, r io.Reader, maxBytes int64) (*UploadResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}

	mimeType := http.DetectContentType(data)
	sum := checksum(data)

	encrypted, err := s.sealer.seal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt file: %w", err)
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(encrypted),
		ContentType: aws.String("application/octet-stream"),
		Metadata: map[string]string{
			"original-filename": fileName,
			"original-hash":     sum,
			"original-type":     mimeType,
			"encrypted":         "true",
		},
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		Key:        key,
		Checksum:   sum,
		Size:       int64(len(data)),
		MimeType:   mimeType,
		UploadedAt: time.Now().UTC(),
	}, nil
}

// DownloadFile downloads and decrypts a file from S3
func (s *S3Service) DownloadFile(ctx context.Context, key string) (*DownloadResult, error) {
	buf := manager.NewWriteAtBuffer([]byte{})
	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}

	data, err := s.sealer.open(buf.Bytes())
	if err != nil {
		return nil, err
	}
	return &DownloadResult{
		Data:     data,
		Checksum: checksum(data),
		Size:     int64(len(data)),
		MimeType: http.DetectContentType(data),
	}, nil
}

// DeleteFile deletes a file from S3
func (s *S3Service) DeleteFile(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

// CheckFileExists checks if a file exists in S3
func (s *S3Service) CheckFileExists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return true, nil
}

var (
	ErrTooLarge       = errors.New("file exceeds the upload limit")
	ErrObjectNotFound = errors.New("object not found")
)
