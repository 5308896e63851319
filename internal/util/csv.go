package util

import (
	"bufio"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

const sniffLen = 512

func IsCSVExtension(filename string) bool {
	return strings.EqualFold(filepath.Ext(strings.TrimSpace(filename)), ".csv")
}

// IsTextMIME accepts the types http.DetectContentType reports for CSV text.
func IsTextMIME(mimeType string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(cleaned, ";"); idx >= 0 {
		cleaned = strings.TrimSpace(cleaned[:idx])
	}

	switch cleaned {
	case "text/plain", "text/csv", "application/csv", "application/vnd.ms-excel":
		return true
	default:
		return false
	}
}

// SniffCSV peeks at the start of r and reports whether it looks like text.
// The returned reader replays the peeked bytes.
func SniffCSV(r io.Reader) (io.Reader, bool, error) {
	buffered := bufio.NewReaderSize(r, sniffLen)

	head, err := buffered.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return buffered, false, err
	}
	if len(head) == 0 {
		return buffered, false, nil
	}

	return buffered, IsTextMIME(http.DetectContentType(head)), nil
}
