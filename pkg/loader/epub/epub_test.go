package epub

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/deepgraph/backend/pkg/loader"
	"github.com/deepgraph/backend/pkg/loader/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const containerDoc = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const packageDoc = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <manifest>
    <item id="c1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="c2" href="text/ch2.xhtml" media-type="application/xhtml+xml"/>
    <item id="css" href="style.css" media-type="text/css"/>
  </manifest>
  <spine>
    <itemref idref="c2"/>
    <itemref idref="c1"/>
  </spine>
</package>`

func chapter(title, body string) string {
	return `<html xmlns="http://www.w3.org/1999/xhtml"><head><title>` + title +
		`</title><style>p { color: red }</style></head><body><h1>` + title +
		`</h1><p>` + body + `</p></body></html>`
}

func buildEpub(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParseEpubSpineOrder(t *testing.T) {
	content := buildEpub(t, map[string]string{
		"META-INF/container.xml": containerDoc,
		"OEBPS/content.opf":      packageDoc,
		"OEBPS/text/ch1.xhtml":   chapter("Chapter One", "The delegates met in Yan'an."),
		"OEBPS/text/ch2.xhtml":   chapter("Preface", "Written in 1945."),
		"OEBPS/style.css":        "p {}",
	})

	out, err := parseEpub(context.Background(), content)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "Written in 1945.")
	assert.Contains(t, text, "The delegates met in Yan'an.")
	assert.Less(t, strings.Index(text, "1945"), strings.Index(text, "delegates"))
	assert.NotContains(t, text, "color: red")
}

func TestParseEpubSkipsMissingChapter(t *testing.T) {
	content := buildEpub(t, map[string]string{
		"META-INF/container.xml": containerDoc,
		"OEBPS/content.opf":      packageDoc,
		"OEBPS/text/ch1.xhtml":   chapter("Chapter One", "Only chapter present."),
	})

	out, err := parseEpub(context.Background(), content)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Only chapter present.")
}

func TestParseEpubErrors(t *testing.T) {
	_, err := parseEpub(context.Background(), []byte("nope"))
	assert.Error(t, err)

	_, err = parseEpub(context.Background(), buildEpub(t, map[string]string{"mimetype": "application/epub+zip"}))
	assert.Error(t, err)
}

func TestEpubGraphLoader(t *testing.T) {
	mem := memory.NewMemoryGraphFileLoader()
	mem.Put("book.epub", buildEpub(t, map[string]string{
		"META-INF/container.xml": containerDoc,
		"OEBPS/content.opf":      packageDoc,
		"OEBPS/text/ch1.xhtml":   chapter("One", "First words."),
		"OEBPS/text/ch2.xhtml":   chapter("Two", "Second words."),
	}))

	text := loader.ReadText(context.Background(), loader.GraphFile{
		ID: "b", FilePath: "book.epub", Loader: NewEpubGraphLoader(mem),
	})
	assert.Contains(t, text, "First words.")
	assert.Contains(t, text, "Second words.")
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "OEBPS/text/a b.xhtml", resolve("OEBPS", "text/a%20b.xhtml#frag"))
	assert.Equal(t, "ch.xhtml", resolve(".", "ch.xhtml"))
}
