package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/deepgraph/backend/pkg/loader"
)

// MaxObjectSize bounds how much of one object is read into memory.
const MaxObjectSize = 256 << 20

// ObjectGetter is the subset of *s3.Client the loader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3GraphFileLoader reads objects from a bucket. GraphFile.FilePath is the
// object key.
type S3GraphFileLoader struct {
	bucket string
	client ObjectGetter
	cache  *loader.Cache
}

func NewS3GraphFileLoader(bucket string, client ObjectGetter) *S3GraphFileLoader {
	return &S3GraphFileLoader{
		bucket: bucket,
		client: client,
		cache:  loader.NewCache(),
	}
}

// GetFileText returns the raw object content.
func (l *S3GraphFileLoader) GetFileText(ctx context.Context, file loader.GraphFile) ([]byte, error) {
	return l.cache.Load(loader.CacheKey(file), func() ([]byte, error) {
		out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(l.bucket),
			Key:    aws.String(file.FilePath),
		})
		if err != nil {
			return nil, fmt.Errorf("get s3://%s/%s: %w", l.bucket, file.FilePath, err)
		}
		defer out.Body.Close()

		content, err := io.ReadAll(io.LimitReader(out.Body, MaxObjectSize+1))
		if err != nil {
			return nil, err
		}
		if len(content) > MaxObjectSize {
			return nil, fmt.Errorf("s3://%s/%s larger than %d bytes", l.bucket, file.FilePath, MaxObjectSize)
		}
		return content, nil
	})
}
