// Package extract pulls plain text out of source documents for ingestion.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/ragchat/internal/domain"
)

// PageSeparator joins the pages of one document.
const PageSeparator = "\n\n"

// Extractor returns the text of each page of a document, in page order.
type Extractor interface {
	Pages(path string) ([]string, error)
}

// Registry maps lowercase file extensions to extractors.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry returns a registry with PDF and plain-text extractors.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	r.Register(".pdf", PDF{})
	r.Register(".txt", PlainText{})
	r.Register(".md", PlainText{})
	return r
}

// Register binds ext (with leading dot) to e, replacing any previous binding.
func (r *Registry) Register(ext string, e Extractor) {
	r.byExt[strings.ToLower(ext)] = e
}

// Supports reports whether path has a registered extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Text extracts the document and joins its non-empty pages with PageSeparator.
// A document without any text yields domain.ErrNoText.
func (r *Registry) Text(path string) (string, error) {
	e, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(path))
	}

	pages, err := e.Pages(path)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}

	kept := pages[:0]
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), domain.ErrNoText)
	}
	return strings.Join(kept, PageSeparator), nil
}
