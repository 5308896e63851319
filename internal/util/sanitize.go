package util

import (
	"net/http"
	"regexp"
	"strings"
	"unicode"

	"tagwise-console/pkg/apierror"
)

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

var windowsReservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

const maxFilenameRunes = 255

func invalidFilename(message string, details string) error {
	return apierror.New("INVALID_FILENAME", message, details, http.StatusBadRequest)
}

// SanitizeFilename cleans the client-supplied name of an uploaded dataset
// before it is forwarded to the backend.
func SanitizeFilename(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", invalidFilename("filename cannot be empty", "")
	}

	if strings.Contains(trimmed, "\x00") {
		return "", invalidFilename("filename contains null bytes", trimmed)
	}

	// Browsers on Windows may send the full client path.
	if idx := strings.LastIndexAny(trimmed, `/\`); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}

	cleaned := strings.TrimSpace(invalidFilenameChars.ReplaceAllString(stripInvisible(trimmed), "_"))
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return "", invalidFilename("filename is invalid after sanitization", name)
	}

	runes := []rune(cleaned)
	if len(runes) > maxFilenameRunes {
		runes = runes[:maxFilenameRunes]
	}
	cleaned = string(runes)

	if strings.HasPrefix(cleaned, ".") {
		return "", invalidFilename("hidden filenames are not allowed", cleaned)
	}

	stem := cleaned
	if idx := strings.Index(cleaned, "."); idx >= 0 {
		stem = cleaned[:idx]
	}

	if _, exists := windowsReservedNames[strings.ToUpper(stem)]; exists {
		return "", invalidFilename("reserved filename is not allowed", cleaned)
	}

	return cleaned, nil
}

// SanitizeText normalizes a single-line form value: invisible characters are
// dropped, whitespace runs collapse to one space and the result is cut to
// maxRunes.
func SanitizeText(value string, maxRunes int) string {
	fields := strings.Fields(stripInvisible(value))
	cleaned := strings.Join(fields, " ")

	if maxRunes > 0 {
		if runes := []rune(cleaned); len(runes) > maxRunes {
			cleaned = strings.TrimSpace(string(runes[:maxRunes]))
		}
	}

	return cleaned
}

func stripInvisible(value string) string {
	builder := strings.Builder{}
	builder.Grow(len(value))

	for _, char := range value {
		if unicode.IsControl(char) && char != '\t' && char != '\n' {
			continue
		}
		if isInvisibleUnicode(char) {
			continue
		}
		builder.WriteRune(char)
	}

	return builder.String()
}

// isInvisibleUnicode returns true for zero-width, formatting, and other
// invisible Unicode characters.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // Zero-Width Space
		'\u200C', // Zero-Width Non-Joiner
		'\u200D', // Zero-Width Joiner
		'\u200E', // Left-to-Right Mark
		'\u200F', // Right-to-Left Mark
		'\u2060', // Word Joiner
		'\uFEFF', // Zero-Width No-Break Space / BOM
		'\uFFF9', // Interlinear Annotation Anchor
		'\uFFFA', // Interlinear Annotation Separator
		'\uFFFB': // Interlinear Annotation Terminator
		return true
	}

	return unicode.Is(unicode.Cf, r)
}
