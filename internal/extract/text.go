package extract

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// PlainText reads UTF-8 text files as a single page.
type PlainText struct{}

// Pages returns the file content as one page.
func (PlainText) Pages(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("read text: %s is not valid UTF-8", path)
	}
	return []string{strings.TrimPrefix(string(data), "\ufeff")}, nil
}
