package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/deepgraph/backend/pkg/loader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGetter struct {
	objects map[string]string
	calls   int
}

func (f *fakeGetter) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls++
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3GraphFileLoader(t *testing.T) {
	getter := &fakeGetter{objects: map[string]string{"docs/uploads/a/book.txt": "content"}}
	l := NewS3GraphFileLoader("docs", getter)

	file := loader.GraphFile{ID: "a", FilePath: "uploads/a/book.txt", Loader: l}
	for range 2 {
		out, err := file.GetText(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "content", string(out))
	}
	assert.Equal(t, 1, getter.calls)

	missing := loader.GraphFile{ID: "b", FilePath: "uploads/b/none.txt", Loader: l}
	_, err := missing.GetText(context.Background())
	assert.ErrorContains(t, err, "s3://docs/uploads/b/none.txt")
}
