package textx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/ai-talent-ranker/pkg/textx"
)

func TestSanitizeText(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "hello world", textx.SanitizeText("  hello world  "))
	assert.Equal(t, "a\tb\nc", textx.SanitizeText("a\tb\nc"))
	assert.Equal(t, "ab", textx.SanitizeText("a\x00\x07b"))
	assert.Equal(t, "", textx.SanitizeText("\x01\x02"))
}

func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "b", textx.FirstNonEmpty("", "   ", "b", "c"))
	assert.Equal(t, "", textx.FirstNonEmpty("", " "))
	assert.Equal(t, "", textx.FirstNonEmpty())
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "short", textx.Truncate("short", 10))
	assert.Equal(t, "ab…", textx.Truncate("abcdef", 2))
	assert.Equal(t, "", textx.Truncate("abc", 0))
	// rune-aware, not byte-aware
	assert.Equal(t, "hél…", textx.Truncate("héllo", 3))
}
