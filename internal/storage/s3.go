package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/deepgraph/backend/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const (
	uploadsPrefix = "uploads"
	resultsPrefix = "results"
)

// UploadKey is where the source document of a job is stored.
func UploadKey(jobID, name string) string {
	return UploadPrefix(jobID) + path.Base(name)
}

// UploadPrefix is the folder holding the source document of a job.
func UploadPrefix(jobID string) string {
	return uploadsPrefix + "/" + jobID + "/"
}

// ResultPrefix is the folder holding the exported artifacts of a job.
func ResultPrefix(jobID string) string {
	return resultsPrefix + "/" + jobID + "/"
}

// ContentType guesses the MIME type of name from its extension.
func ContentType(name string) string {
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// Store wraps an S3 client bound to one bucket.
type Store struct {
	client         *s3.Client
	bucket         string
	publicEndpoint string
}

// NewStore reads AWS_REGION, AWS_ENDPOINT, AWS_ACCESS_KEY, AWS_SECRET_KEY,
// AWS_BUCKET and AWS_PUBLIC_ENDPOINT.
func NewStore(ctx context.Context) (*Store, error) {
	bucket := util.GetEnv("AWS_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("AWS_BUCKET is not set")
	}

	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(util.GetEnvString("AWS_REGION", "us-east-1")),
		config.WithBaseEndpoint(util.GetEnv("AWS_ENDPOINT")),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			util.GetEnv("AWS_ACCESS_KEY"),
			util.GetEnv("AWS_SECRET_KEY"),
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return &Store{
		client:         client,
		bucket:         bucket,
		publicEndpoint: util.GetEnv("AWS_PUBLIC_ENDPOINT"),
	}, nil
}

func (s *Store) Client() *s3.Client { return s.client }
func (s *Store) Bucket() string     { return s.bucket }

func (s *Store) Put(ctx context.Context, key string, body io.ReadSeeker) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(ContentType(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload file to S3: %w", err)
	}
	return nil
}

// List returns every key under prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	listInput := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}

	for {
		listOutput, err := s.client.ListObjectsV2(ctx, listInput)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects with prefix %s: %w", prefix, err)
		}
		for _, obj := range listOutput.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
		if listOutput.IsTruncated == nil || !*listOutput.IsTruncated {
			break
		}
		listInput.ContinuationToken = listOutput.NextContinuationToken
	}

	return keys, nil
}

// DeleteFolder removes every object under prefix.
func (s *Store) DeleteFolder(ctx context.Context, prefix string) error {
	keys, err := s.List(ctx, prefix)
	if err != nil {
		return err
	}

	// DeleteObjects accepts at most 1000 keys per call.
	for batch := range slices.Chunk(keys, 1000) {
		objects := make([]types.ObjectIdentifier, 0, len(batch))
		for _, key := range batch {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
		}
		_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return fmt.Errorf("failed to delete objects in folder %s: %w", prefix, err)
		}
	}
	return nil
}

// DownloadLink presigns a GET for key, valid for 15 minutes. With
// AWS_PUBLIC_ENDPOINT set the link is signed for that host instead of the
// internal endpoint.
func (s *Store) DownloadLink(ctx context.Context, key string) (string, error) {
	presignClient := s.client
	prefix := ""
	if s.publicEndpoint != "" {
		publicURL, err := url.Parse(s.publicEndpoint)
		if err != nil || publicURL.Scheme == "" || publicURL.Host == "" {
			return "", fmt.Errorf("invalid AWS_PUBLIC_ENDPOINT: %s", s.publicEndpoint)
		}
		prefix = strings.TrimSuffix(publicURL.Path, "/")
		publicBaseEndpoint := fmt.Sprintf("%s://%s", publicURL.Scheme, publicURL.Host)

		opts := s.client.Options()
		presignClient = s3.NewFromConfig(
			aws.Config{
				Region:      opts.Region,
				Credentials: opts.Credentials,
				HTTPClient:  opts.HTTPClient,
			},
			func(o *s3.Options) {
				o.BaseEndpoint = aws.String(publicBaseEndpoint)
				o.UsePathStyle = true
			},
		)
	}

	out, err := s3.NewPresignClient(presignClient).PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(15*time.Minute),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate download link: %w", err)
	}

	if prefix == "" {
		return out.URL, nil
	}
	signedURL, err := url.Parse(out.URL)
	if err != nil {
		return "", fmt.Errorf("failed to parse presigned url: %w", err)
	}
	signedURL.Path = prefix + signedURL.Path
	return signedURL.String(), nil
}
