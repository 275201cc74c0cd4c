package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"productmap/internal/config"
	"productmap/pkg/models"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func TestArchiveImport(t *testing.T) {
	client := &fakeS3{}
	svc := NewStorageServiceWithClient(client, "imports-bucket")
	tenantID := uuid.New()

	key, err := svc.ArchiveImport(context.Background(), tenantID, models.ImportTypeSupplier, "Acme prices.xlsx", []byte("data"))
	require.NoError(t, err)

	require.NotNil(t, client.input)
	assert.Equal(t, "imports-bucket", aws.StringValue(client.input.Bucket))
	assert.Equal(t, key, aws.StringValue(client.input.Key))
	assert.Equal(t, "data", client.body)
	assert.Equal(t, int64(4), aws.Int64Value(client.input.ContentLength))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", aws.StringValue(client.input.ContentType))

	assert.True(t, strings.HasPrefix(key, tenantID.String()+"/imports/suppliers/"))
	assert.True(t, strings.HasSuffix(key, "_Acme_prices.xlsx"))
}

func TestArchiveImport_UploadError(t *testing.T) {
	svc := NewStorageServiceWithClient(&fakeS3{err: errors.New("access denied")}, "b")

	_, err := svc.ArchiveImport(context.Background(), uuid.New(), models.ImportTypeProduct, "a.csv", nil)
	assert.ErrorContains(t, err, "access denied")
}

func TestArchiveKey(t *testing.T) {
	tenantID := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	now := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)

	key := archiveKey(tenantID, models.ImportTypeProduct, "/tmp/amazon export.csv", now)
	assert.True(t, strings.HasPrefix(key, "7c9e6679-7425-40de-944b-e07fc1f90ae7/imports/products/2024-03-09/"))
	assert.True(t, strings.HasSuffix(key, "_amazon_export.csv"))
}

func TestNewStorageService_RequiresConfig(t *testing.T) {
	_, err := NewStorageService(&config.Config{S3Bucket: "b"})
	assert.Error(t, err)
}
