// Package s3 stores tenant reports in an S3-compatible bucket
// (AWS, MinIO, or Supabase storage through its S3 endpoint).
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/foliogen/internal/common"
	"github.com/ternarybob/foliogen/internal/interfaces"
	"github.com/ternarybob/foliogen/internal/models"
)

const (
	extension    = ".md"
	folderMarker = ".gitkeep"
	contentType  = "text/markdown; charset=utf-8"
)

// ObjectAPI is the subset of the S3 client used here.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// ObjectStorage writes reports to {prefix}/{tenant}/{name}.md
type ObjectStorage struct {
	client ObjectAPI
	bucket string
	prefix string
	logger arbor.ILogger
}

var _ interfaces.TenantDocumentStore = (*ObjectStorage)(nil)

// NewObjectStorage builds an S3 client from config. Static keys take precedence over the
// default AWS credential chain; a custom endpoint targets S3-compatible services.
func NewObjectStorage(ctx context.Context, config *common.S3Config, logger arbor.ILogger) (*ObjectStorage, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
	}
	if config.AccessKeyID != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
		o.UsePathStyle = config.UsePathStyle
	})

	logger.Debug().
		Str("bucket", config.Bucket).
		Str("prefix", config.Prefix).
		Str("endpoint", config.Endpoint).
		Msg("Object storage configured")

	return NewObjectStorageWithClient(client, config.Bucket, config.Prefix, logger), nil
}

// NewObjectStorageWithClient wraps an existing client.
func NewObjectStorageWithClient(client ObjectAPI, bucket, prefix string, logger arbor.ILogger) *ObjectStorage {
	return &ObjectStorage{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

func (s *ObjectStorage) Name() string { return "s3" }

func (s *ObjectStorage) tenantPrefix(tenantID string) string {
	return path.Join(s.prefix, tenantID) + "/"
}

func (s *ObjectStorage) objectKey(tenantID, documentName string) string {
	return s.tenantPrefix(tenantID) + documentName + extension
}

// EnsureNamespace writes the empty folder marker object for the tenant.
func (s *ObjectStorage) EnsureNamespace(ctx context.Context, tenantID string) error {
	if err := common.ValidateDocumentName(tenantID); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.tenantPrefix(tenantID) + folderMarker),
		Body:   strings.NewReader(""),
	})
	if err != nil {
		return fmt.Errorf("failed to create folder for %s: %w", tenantID, err)
	}
	return nil
}

func (s *ObjectStorage) Write(ctx context.Context, tenantID, documentName, content string) error {
	if err := common.ValidateDocumentKey(tenantID, documentName); err != nil {
		return err
	}

	key := s.objectKey(tenantID, documentName)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	s.logger.Debug().Str("bucket", s.bucket).Str("key", key).Int("bytes", len(content)).Msg("Report uploaded")
	return nil
}

func (s *ObjectStorage) Read(ctx context.Context, tenantID, documentName string) (string, error) {
	if err := common.ValidateDocumentKey(tenantID, documentName); err != nil {
		return "", err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(tenantID, documentName)),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return "", fmt.Errorf("%w: %s/%s", interfaces.ErrDocumentNotFound, tenantID, documentName)
		}
		return "", fmt.Errorf("failed to download %s: %w", documentName, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", documentName, err)
	}
	return string(data), nil
}

func (s *ObjectStorage) List(ctx context.Context, tenantID string) ([]models.DocumentInfo, error) {
	if err := common.ValidateDocumentName(tenantID); err != nil {
		return nil, err
	}

	prefix := s.tenantPrefix(tenantID)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var docs []models.DocumentInfo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
		}

		for _, obj := range page.Contents {
			leaf := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if strings.Contains(leaf, "/") || !strings.HasSuffix(leaf, extension) {
				continue
			}
			docs = append(docs, models.DocumentInfo{
				TenantID:  tenantID,
				Name:      strings.TrimSuffix(leaf, extension),
				Size:      aws.ToInt64(obj.Size),
				UpdatedAt: aws.ToTime(obj.LastModified),
			})
		}
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

func (s *ObjectStorage) Delete(ctx context.Context, tenantID, documentName string) error {
	if err := common.ValidateDocumentKey(tenantID, documentName); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(tenantID, documentName)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", documentName, err)
	}
	return nil
}

func (s *ObjectStorage) Prune(ctx context.Context, tenantID string, keep int, retain ...string) (int, error) {
	docs, err := s.List(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, doc := range models.OldestBeyond(docs, keep, retain...) {
		if err := s.Delete(ctx, tenantID, doc.Name); err != nil {
			return deleted, err
		}
		deleted++
	}
	if deleted > 0 {
		s.logger.Info().Str("tenant_id", tenantID).Int("deleted", deleted).Msg("Pruned old reports")
	}
	return deleted, nil
}
