package export

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/deepgraph/backend/pkg/graph"
	"github.com/deepgraph/backend/pkg/logger"
)

// ObjectPutter is the part of *s3.Client the exporter needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Exporter puts the graph document and report under Prefix in Bucket.
type S3Exporter struct {
	client ObjectPutter
	bucket string
	prefix string
}

func NewS3Exporter(client ObjectPutter, bucket, prefix string) *S3Exporter {
	return &S3Exporter{client: client, bucket: bucket, prefix: prefix}
}

func (e *S3Exporter) key(name string) string {
	if e.prefix == "" {
		return name
	}
	return path.Join(e.prefix, name)
}

func (e *S3Exporter) put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (e *S3Exporter) Export(ctx context.Context, res *graph.Result) (Location, error) {
	data, err := Marshal(res)
	if err != nil {
		return Location{}, fmt.Errorf("marshal graph: %w", err)
	}

	base := BaseName(res)
	loc := Location{
		Graph:  e.key(base + graphSuffix),
		Report: e.key(base + reportSuffix),
	}
	if err := e.put(ctx, loc.Graph, "application/json", data); err != nil {
		return Location{}, err
	}
	if err := e.put(ctx, loc.Report, "text/markdown; charset=utf-8", []byte(graph.Report(res))); err != nil {
		return Location{}, err
	}

	logger.Info("[Export] Uploaded graph", "bucket", e.bucket, "graph", loc.Graph)
	return loc, nil
}
