package web

import (
	"io"
	"strings"

	"github.com/deepgraph/backend/pkg/loader/text"

	"golang.org/x/net/html"
)

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "blockquote": true, "pre": true,
	"title": true, "header": true, "footer": true,
}

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "head": true,
}

// rawTextElements switch the tokenizer into raw text mode even when written
// self-closing, so their content runs until the matching end tag.
var rawTextElements = map[string]bool{
	"script": true, "style": true, "noscript": true,
}

// VisibleText returns the text nodes of an HTML document with block
// elements separated by blank lines. Script and style contents are skipped.
func VisibleText(r io.Reader) (string, error) {
	tokenizer := html.NewTokenizer(r)

	var sb strings.Builder
	skip := 0
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != io.EOF {
				return "", err
			}
			return text.Normalize([]byte(sb.String())), nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if (tt == html.StartTagToken && skippedElements[tag]) ||
				(tt == html.SelfClosingTagToken && rawTextElements[tag]) {
				skip++
			}
			if blockElements[tag] {
				sb.WriteString("\n\n")
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if skippedElements[tag] && skip > 0 {
				skip--
			}
			if blockElements[tag] {
				sb.WriteString("\n\n")
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			chunk := strings.Join(strings.Fields(string(tokenizer.Text())), " ")
			if chunk == "" {
				continue
			}
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteByte(' ')
			}
			sb.WriteString(chunk)
		}
	}
}
