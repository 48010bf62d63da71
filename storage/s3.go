package storage

import (
	"bytes"
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BackupStore kapselt den S3-Zugriff für Datenbank-Backups.
type BackupStore struct {
	client *s3.Client
	bucket string
}

// NewBackupStore erstellt einen S3-Client für einen S3-kompatiblen Endpoint
// (z.B. Strato HiDrive oder MinIO) mit statischen Credentials.
func NewBackupStore(ctx context.Context, endpoint, region, accessKey, secretKey, bucket string) (*BackupStore, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               endpoint,
				SigningRegion:     region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return &BackupStore{client: s3.NewFromConfig(awsCfg), bucket: bucket}, nil
}

// Upload lädt ein Backup unter dem angegebenen Key hoch.
func (b *BackupStore) Upload(ctx context.Context, key string, data []byte) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	return err
}

// Rotate behält die jüngsten keep Objekte unter dem Prefix und löscht den
// Rest. Gibt die Keys der gelöschten Objekte zurück.
func (b *BackupStore) Rotate(ctx context.Context, prefix string, keep int) ([]string, error) {
	output, err := b.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, err
	}

	if len(output.Contents) <= keep {
		return nil, nil
	}

	sort.Slice(output.Contents, func(i, j int) bool {
		return output.Contents[i].LastModified.After(*output.Contents[j].LastModified)
	})

	deleted := make([]string, 0, len(output.Contents)-keep)
	for _, obj := range output.Contents[keep:] {
		_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    obj.Key,
		})
		if err != nil {
			return deleted, err
		}
		deleted = append(deleted, *obj.Key)
	}

	return deleted, nil
}
