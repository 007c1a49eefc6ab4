package extract

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDF extracts page text with ledongthuc/pdf.
type PDF struct{}

// Pages returns the plain text of every page. Pages that fail to decode come back empty.
func (PDF) Pages(path string) (pages []string, err error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	// the reader panics on malformed object graphs
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("read pdf: %v", rec)
		}
	}()

	fonts := make(map[string]*pdf.Font)
	n := r.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := p.Font(name)
				fonts[name] = &font
			}
		}
		text, perr := p.GetPlainText(fonts)
		if perr != nil {
			text = ""
		}
		pages = append(pages, text)
	}
	return pages, nil
}
