package policydoc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// ExtractPDF returns the text layer of a PDF page by page, stopping once
// maxTextBytes have been collected. Scanned documents without a text
// layer yield ErrEmptyText; there is no OCR.
func ExtractPDF(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("pdf data is empty")
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var pages []string
	size := 0
	for i := 1; i <= r.NumPage() && size < maxTextBytes; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		raw, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if text := collapseSpace(raw); text != "" {
			pages = append(pages, text)
			size += len(text) + 1
		}
	}

	text := strings.Join(pages, " ")
	if text == "" {
		return "", ErrEmptyText
	}
	return truncateUTF8(text, maxTextBytes), nil
}
