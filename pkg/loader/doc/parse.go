package doc

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const documentPart = "word/document.xml"

var reBlankRuns = regexp.MustCompile(`\n{3,}`)

func parseDocx(content []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	part, err := zr.Open(documentPart)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", documentPart, err)
	}
	defer part.Close()

	info, err := part.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() > maxPartSize {
		return nil, fmt.Errorf("%s too large: %d bytes", documentPart, info.Size())
	}

	var w bodyWriter
	if err := w.consume(xml.NewDecoder(io.LimitReader(part, maxPartSize))); err != nil {
		return nil, err
	}
	return []byte(w.text()), nil
}

// bodyWriter turns the WordprocessingML body into paragraphs. Deleted
// revisions are dropped. A table becomes one block with a line per row and
// tab separated cells; nested tables are flattened into their cell.
type bodyWriter struct {
	blocks []string
	line   strings.Builder

	inText  bool
	deleted int

	tables int
	rows   []string
	cells  []string
}

func (w *bodyWriter) consume(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parse %s: %w", documentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			w.start(t.Name.Local)
		case xml.EndElement:
			w.end(t.Name.Local)
		case xml.CharData:
			if w.inText && w.deleted == 0 {
				w.line.Write(t)
			}
		}
	}
}

func (w *bodyWriter) start(name string) {
	switch name {
	case "del", "moveFrom":
		w.deleted++
	case "t":
		w.inText = true
	case "tbl":
		w.tables++
	}
	if w.deleted > 0 {
		return
	}
	switch name {
	case "tab":
		w.line.WriteByte('\t')
	case "br", "cr":
		w.line.WriteByte('\n')
	case "noBreakHyphen":
		w.line.WriteByte('-')
	}
}

func (w *bodyWriter) end(name string) {
	switch name {
	case "del", "moveFrom":
		if w.deleted > 0 {
			w.deleted--
		}
	case "t":
		w.inText = false
	case "p":
		if w.tables > 0 {
			w.line.WriteByte(' ')
			return
		}
		if text := strings.TrimSpace(w.line.String()); text != "" {
			w.blocks = append(w.blocks, text)
		}
		w.line.Reset()
	case "tc":
		if w.tables == 1 {
			w.cells = append(w.cells, strings.Join(strings.Fields(w.line.String()), " "))
			w.line.Reset()
		}
	case "tr":
		if w.tables == 1 {
			if row := strings.Join(w.cells, "\t"); strings.TrimSpace(row) != "" {
				w.rows = append(w.rows, row)
			}
			w.cells = nil
		}
	case "tbl":
		w.tables--
		if w.tables == 0 && len(w.rows) > 0 {
			w.blocks = append(w.blocks, strings.Join(w.rows, "\n"))
			w.rows = nil
		}
	}
}

func (w *bodyWriter) text() string {
	return reBlankRuns.ReplaceAllString(strings.Join(w.blocks, "\n\n"), "\n\n")
}
