package services

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"productmap/internal/config"
	"productmap/pkg/models"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StorageService archives uploaded import files in S3
type StorageService struct {
	s3Client s3iface.S3API
	bucket   string
}

// NewStorageService creates a new storage service
func NewStorageService(cfg *config.Config) (*StorageService, error) {
	if !cfg.StorageEnabled() {
		return nil, fmt.Errorf("S3 configuration missing")
	}

	// Create AWS session
	sess, err := session.NewSession(&aws.Config{
		Region:   aws.String(cfg.S3Region),
		Endpoint: aws.String(cfg.S3Endpoint),
		Credentials: credentials.NewStaticCredentials(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		),
		DisableSSL:       aws.Bool(strings.HasPrefix(cfg.S3Endpoint, "http://")),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewStorageServiceWithClient(s3.New(sess), cfg.S3Bucket), nil
}

// NewStorageServiceWithClient wraps an existing S3 client
func NewStorageServiceWithClient(client s3iface.S3API, bucket string) *StorageService {
	return &StorageService{s3Client: client, bucket: bucket}
}

// ArchiveImport uploads the original import file and returns its key:
// tenant_id/imports/<type>/<date>/<uuid>_<file name>
func (s *StorageService) ArchiveImport(ctx context.Context, tenantID uuid.UUID, importType models.ImportType, fileName string, content []byte) (string, error) {
	key := archiveKey(tenantID, importType, fileName, time.Now())

	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(content),
		ContentLength: aws.Int64(int64(len(content))),
		ContentType:   aws.String(contentTypeFor(fileName)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Debug().Str("key", key).Int("bytes", len(content)).Msg("Import file archived")
	return key, nil
}

func archiveKey(tenantID uuid.UUID, importType models.ImportType, fileName string, now time.Time) string {
	folder := "suppliers"
	if importType == models.ImportTypeProduct {
		folder = "products"
	}
	base := strings.ReplaceAll(filepath.Base(fileName), " ", "_")
	return fmt.Sprintf("%s/imports/%s/%s/%s_%s", tenantID, folder, now.UTC().Format("2006-01-02"), uuid.New().String(), base)
}

func contentTypeFor(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm", ".xltx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		return "text/csv"
	default:
		return "text/plain"
	}
}
