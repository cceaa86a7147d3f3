package bot

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestMessageChunks(t *testing.T) {
	t.Run("short text passes through", func(t *testing.T) {
		assert.Equal(t, []string{"hello"}, messageChunks("hello"))
	})

	t.Run("empty text yields one empty chunk", func(t *testing.T) {
		assert.Equal(t, []string{""}, messageChunks(""))
	})

	t.Run("long text splits on newline boundaries", func(t *testing.T) {
		line := strings.Repeat("a", 100)
		text := strings.Repeat(line+"\n", 90) // ~9090 bytes

		chunks := messageChunks(text)

		assert.Greater(t, len(chunks), 1)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c), maxMessageLen)
		}
		joined := strings.Join(chunks, "\n")
		assert.Equal(t, strings.TrimRight(text, "\n"), strings.TrimRight(joined, "\n"))
	})

	t.Run("unbroken text splits at the hard cap", func(t *testing.T) {
		text := strings.Repeat("b", maxMessageLen+10)

		chunks := messageChunks(text)

		assert.Len(t, chunks, 2)
		assert.Equal(t, maxMessageLen, len(chunks[0]))
		assert.Equal(t, 10, len(chunks[1]))
	})

	t.Run("multi-byte rune straddling the cap stays intact", func(t *testing.T) {
		// "é" is two bytes; placed so the hard cut would land between them.
		text := strings.Repeat("a", maxMessageLen-1) + "é" + strings.Repeat("b", 10)

		chunks := messageChunks(text)

		assert.Len(t, chunks, 2)
		for i, c := range chunks {
			assert.True(t, utf8.ValidString(c), "chunk %d is not valid UTF-8", i)
			assert.LessOrEqual(t, len(c), maxMessageLen)
		}
		assert.Equal(t, text, strings.Join(chunks, ""))
		assert.True(t, strings.HasPrefix(chunks[1], "é"))
	})

	t.Run("multi-byte text splits only on rune boundaries", func(t *testing.T) {
		text := strings.Repeat("日本語のテキスト", 200) // 24 bytes per repeat, ~4800 bytes

		chunks := messageChunks(text)

		assert.Greater(t, len(chunks), 1)
		for i, c := range chunks {
			assert.True(t, utf8.ValidString(c), "chunk %d is not valid UTF-8", i)
			assert.LessOrEqual(t, len(c), maxMessageLen)
		}
		assert.Equal(t, text, strings.Join(chunks, ""))
	})
}
