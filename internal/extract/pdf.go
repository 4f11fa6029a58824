package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// extractPDF returns the text of each page prefixed with "Page N:", pages
// separated by a blank line. A page that fails to extract is logged and
// skipped; failing to open the document is an error.
func (e *Extractor) extractPDF(content []byte) (string, error) {
	r, err := openPDF(content)
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	var pages []string
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		text, err := pageText(r, i)
		if err != nil {
			e.logger.Warn("skipping unreadable PDF page", zap.Int("page", i), zap.Error(err))
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, fmt.Sprintf("Page %d:\n%s", i, text))
	}
	return strings.Join(pages, "\n\n"), nil
}

func openPDF(content []byte) (r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("malformed PDF: %v", p)
		}
	}()
	return pdf.NewReader(bytes.NewReader(content), int64(len(content)))
}

// pageText extracts one page, turning a panic inside the PDF parser into an
// error so one malformed page does not abort the document.
func pageText(r *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("page %d: %v", n, p)
		}
	}()
	page := r.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
