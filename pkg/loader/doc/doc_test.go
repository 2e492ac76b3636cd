package doc

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/deepgraph/backend/pkg/loader"
	"github.com/deepgraph/backend/pkg/loader/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParseDocxParagraphs(t *testing.T) {
	content := buildDocx(t,
		`<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>Second </w:t></w:r><w:del><w:r><w:t>removed</w:t></w:r></w:del><w:r><w:t>paragraph.</w:t></w:r></w:p>`)

	out, err := parseDocx(content)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", string(out))
}

func TestParseDocxTable(t *testing.T) {
	cell := func(text string) string {
		return `<w:tc><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:tc>`
	}
	content := buildDocx(t,
		`<w:p><w:r><w:t>Before</w:t></w:r></w:p>`+
			`<w:tbl><w:tr>`+cell("Year")+cell("Event")+`</w:tr>`+
			`<w:tr>`+cell("1978")+cell("Third  Plenum")+`</w:tr></w:tbl>`+
			`<w:p><w:r><w:t>After</w:t><w:br/><w:t>line</w:t></w:r></w:p>`)

	out, err := parseDocx(content)
	require.NoError(t, err)
	assert.Equal(t, "Before\n\nYear\tEvent\n1978\tThird Plenum\n\nAfter\nline", string(out))
}

func TestParseDocxRejectsOtherZip(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = parseDocx(buf.Bytes())
	assert.Error(t, err)

	_, err = parseDocx([]byte("not a zip"))
	assert.Error(t, err)
}

func TestDocGraphLoader(t *testing.T) {
	mem := memory.NewMemoryGraphFileLoader()
	mem.Put("report.docx", buildDocx(t, `<w:p><w:r><w:t>Hello</w:t></w:r></w:p>`))

	l := NewDocGraphLoader(mem)
	file := loader.GraphFile{ID: "1", FilePath: "report.docx", Loader: l}
	out, err := file.GetText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(out))
}
