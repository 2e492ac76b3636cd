package epub

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
)

const maxEntrySize = 16 << 20

type containerXML struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type packageXML struct {
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

type book struct {
	files    map[string]*zip.File
	chapters []string
}

func isDocument(mediaType string) bool {
	return mediaType == "application/xhtml+xml" || mediaType == "text/html"
}

func openBook(content []byte) (*book, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	b := &book{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		b.files[f.Name] = f
	}

	var container containerXML
	if err := b.decode("META-INF/container.xml", &container); err != nil {
		return nil, err
	}
	if len(container.Rootfiles) == 0 || container.Rootfiles[0].FullPath == "" {
		return nil, fmt.Errorf("epub container has no rootfile")
	}
	opfPath := container.Rootfiles[0].FullPath

	var pkg packageXML
	if err := b.decode(opfPath, &pkg); err != nil {
		return nil, err
	}

	base := path.Dir(opfPath)
	hrefs := make(map[string]string, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		if isDocument(item.MediaType) {
			hrefs[item.ID] = resolve(base, item.Href)
		}
	}
	for _, ref := range pkg.Spine {
		if href, ok := hrefs[ref.IDRef]; ok {
			b.chapters = append(b.chapters, href)
		}
	}
	if len(b.chapters) == 0 {
		for _, item := range pkg.Manifest {
			if isDocument(item.MediaType) {
				b.chapters = append(b.chapters, resolve(base, item.Href))
			}
		}
	}

	return b, nil
}

func resolve(base, href string) string {
	if i := strings.IndexAny(href, "#?"); i >= 0 {
		href = href[:i]
	}
	if unescaped, err := url.PathUnescape(href); err == nil {
		href = unescaped
	}
	if base == "." {
		return path.Clean(href)
	}
	return path.Join(base, href)
}

func (b *book) read(name string) ([]byte, error) {
	f, ok := b.files[name]
	if !ok {
		return nil, fmt.Errorf("%s not found in epub", name)
	}
	if f.UncompressedSize64 > maxEntrySize {
		return nil, fmt.Errorf("%s too large: %d bytes", name, f.UncompressedSize64)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxEntrySize))
}

func (b *book) decode(name string, v any) error {
	raw, err := b.read(name)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}
