package attachment

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// maxTextRunes caps how much extracted report text is put into a prompt.
const maxTextRunes = 20000

func pdfText(r io.ReaderAt, size int64) (text string, err error) {
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("reading pdf: %v", rec)
		}
	}()

	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	plain, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}

	out := strings.TrimSpace(string(b))
	if runes := []rune(out); len(runes) > maxTextRunes {
		out = string(runes[:maxTextRunes])
	}
	return out, nil
}
