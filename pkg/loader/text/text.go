package text

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/deepgraph/backend/pkg/loader"
)

var (
	reNewlines = regexp.MustCompile(`\n{3,}`)
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
)

// TextGraphLoader decodes plain text and markdown files read by an
// underlying source loader. Invalid UTF-8 sequences are dropped.
type TextGraphLoader struct {
	loader loader.GraphFileLoader
}

func NewTextGraphLoader(loader loader.GraphFileLoader) *TextGraphLoader {
	return &TextGraphLoader{loader: loader}
}

func (l *TextGraphLoader) GetFileText(ctx context.Context, file loader.GraphFile) ([]byte, error) {
	content, err := l.loader.GetFileText(ctx, file)
	if err != nil {
		return nil, err
	}
	return []byte(Normalize(content)), nil
}

// Normalize strips a byte order mark, drops invalid UTF-8, unifies line
// endings and collapses runs of blank lines to one.
func Normalize(content []byte) string {
	content = bytes.TrimPrefix(content, utf8BOM)
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = reNewlines.ReplaceAllString(strings.TrimSpace(text), "\n\n")
	return text
}
