package util

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	t.Run("sanitizes invalid characters", func(t *testing.T) {
		actual, err := SanitizeFilename(` pairs<2026>?.csv `)
		require.NoError(t, err)
		require.Equal(t, "pairs_2026__.csv", actual)
	})

	t.Run("keeps only the base name of a client path", func(t *testing.T) {
		actual, err := SanitizeFilename(`C:\Users\ada\Desktop\pairs.csv`)
		require.NoError(t, err)
		require.Equal(t, "pairs.csv", actual)
	})

	t.Run("rejects empty filenames", func(t *testing.T) {
		_, err := SanitizeFilename("   ")
		require.Error(t, err)
	})

	t.Run("rejects hidden filenames", func(t *testing.T) {
		_, err := SanitizeFilename(".pairs.csv")
		require.Error(t, err)
	})

	t.Run("rejects windows reserved names", func(t *testing.T) {
		_, err := SanitizeFilename("CON.csv")
		require.Error(t, err)
	})

	t.Run("truncates long filenames", func(t *testing.T) {
		actual, err := SanitizeFilename(strings.Repeat("a", 300))
		require.NoError(t, err)
		require.Len(t, []rune(actual), 255)
	})

	t.Run("truncates multi-byte names without splitting runes", func(t *testing.T) {
		actual, err := SanitizeFilename(strings.Repeat("é", 300))
		require.NoError(t, err)
		require.True(t, utf8.ValidString(actual))
	})

	t.Run("strips zero-width characters", func(t *testing.T) {
		actual, err := SanitizeFilename("para\u200Bphrase\u200B pairs.csv")
		require.NoError(t, err)
		require.Equal(t, "paraphrase pairs.csv", actual)
	})
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	require.Equal(t, "News headlines", SanitizeText("  News \t\n headlines\u200B ", 0))
	require.Equal(t, "abc", SanitizeText("abcdef", 3))
	require.Equal(t, "", SanitizeText("\u200B\u200C", 10))
}
