package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))

	long := strings.Repeat("a", 40)
	got := TruncateText(long, 30)
	assert.Equal(t, 30, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, TruncateSuffix))

	// shorter than the suffix itself
	assert.Equal(t, "aaaaa", TruncateText(long, 5))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "", TruncateRunes("abc", 0))
	assert.Equal(t, "abc", TruncateRunes("abc", 3))
	assert.Equal(t, "ab", TruncateRunes("abc", 2))
	assert.Equal(t, "日本", TruncateRunes("日本語", 2))

	desc := strings.Repeat("x", 150)
	assert.Len(t, TruncateRunes(desc, MaxLabelDescriptionLength), 100)
}
