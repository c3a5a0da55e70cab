// Package loader provides document loading adapters.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-shiori/go-readability"

	"github.com/0xcro3dile/islandguide/internal/domain/entities"
	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

// TextLoader loads plain text documents (.txt, .md).
type TextLoader struct{}

// NewTextLoader creates a new text document loader.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load reads a text document from the given path.
func (l *TextLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	content, info, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return &entities.Document{
		Name:      filepath.Base(path),
		Path:      path,
		Content:   string(content),
		UpdatedAt: info.ModTime(),
	}, nil
}

// SupportedExtensions returns file extensions this loader handles.
func (l *TextLoader) SupportedExtensions() []string {
	return []string{".txt", ".md", ".markdown"}
}

// PDFLoader loads PDF documents page by page through a DocumentParser.
type PDFLoader struct {
	parser ports.DocumentParser
}

// NewPDFLoader creates a PDF loader backed by parser.
func NewPDFLoader(parser ports.DocumentParser) *PDFLoader {
	return &PDFLoader{parser: parser}
}

// Load reads a PDF and extracts each page. Parse failures are returned so
// the caller can skip the file.
func (l *PDFLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	data, info, err := readFile(path)
	if err != nil {
		return nil, err
	}

	pages, err := l.parser.Parse(ctx, data, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if pages == nil {
		pages = []string{}
	}

	return &entities.Document{
		Name:      filepath.Base(path),
		Path:      path,
		Pages:     pages,
		UpdatedAt: info.ModTime(),
	}, nil
}

// SupportedExtensions returns file extensions.
func (l *PDFLoader) SupportedExtensions() []string {
	return []string{".pdf"}
}

// HTMLLoader extracts the readable main text of saved HTML brochures.
type HTMLLoader struct{}

// NewHTMLLoader creates an HTML loader.
func NewHTMLLoader() *HTMLLoader {
	return &HTMLLoader{}
}

// Load runs readability over the file and keeps the article text.
func (l *HTMLLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	data, info, err := readFile(path)
	if err != nil {
		return nil, err
	}

	article, err := readability.FromReader(bytes.NewReader(data), fileURL(path))
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", filepath.Base(path), err)
	}

	text := strings.TrimSpace(article.TextContent)
	if title := strings.TrimSpace(article.Title); title != "" && !strings.HasPrefix(text, title) {
		text = title + "\n" + text
	}

	return &entities.Document{
		Name:      filepath.Base(path),
		Path:      path,
		Content:   text,
		UpdatedAt: info.ModTime(),
	}, nil
}

// SupportedExtensions returns file extensions.
func (l *HTMLLoader) SupportedExtensions() []string {
	return []string{".html", ".htm"}
}

// MultiLoader combines multiple loaders.
type MultiLoader struct {
	loaders map[string]ports.DocumentLoader
}

// NewMultiLoader creates a loader that dispatches on file extension.
// Later loaders win when extensions overlap.
func NewMultiLoader(loaders ...ports.DocumentLoader) *MultiLoader {
	m := &MultiLoader{loaders: make(map[string]ports.DocumentLoader)}
	for _, l := range loaders {
		for _, ext := range l.SupportedExtensions() {
			m.loaders[ext] = l
		}
	}
	return m
}

// Load dispatches to the appropriate loader based on extension.
func (m *MultiLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := m.loaders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrUnsupportedDocument, filepath.Base(path))
	}
	return loader.Load(ctx, path)
}

// SupportedExtensions returns all supported extensions, sorted.
func (m *MultiLoader) SupportedExtensions() []string {
	exts := make([]string, 0, len(m.loaders))
	for ext := range m.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func readFile(path string) ([]byte, os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, info, nil
}

func fileURL(path string) *url.URL {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
}
