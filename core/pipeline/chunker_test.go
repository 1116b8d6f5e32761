package pipeline

import (
	"strings"
	"testing"

	"github.com/siherrmann/docqa/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reconstruct joins chunks dropping the overlapping prefix of every chunk but the first
func reconstruct(chunks []model.Chunk, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		runes := []rune(c.Text)
		if i > 0 {
			runes = runes[overlap:]
		}
		b.WriteString(string(runes))
	}
	return b.String()
}

func TestChunk(t *testing.T) {
	t.Run("Valid call Chunk with 2400 characters", func(t *testing.T) {
		text := strings.Repeat("abcdefghij", 240)

		chunks, err := Chunk(text, 1000, 200)

		require.NoError(t, err)
		require.Len(t, chunks, 3)
		assert.Equal(t, [2]int{0, 1000}, [2]int{chunks[0].Start, chunks[0].End})
		assert.Equal(t, [2]int{800, 1800}, [2]int{chunks[1].Start, chunks[1].End})
		assert.Equal(t, [2]int{1600, 2400}, [2]int{chunks[2].Start, chunks[2].End})
		assert.Equal(t, 800, chunks[2].Len(), "Expected last chunk to be shorter")

		for i := 1; i < len(chunks); i++ {
			prev := chunks[i-1].Text
			assert.Equal(t, prev[len(prev)-200:], chunks[i].Text[:200], "Expected 200 characters overlap between chunk %d and %d", i-1, i)
			assert.Equal(t, i, chunks[i].Index)
		}
	})

	t.Run("Text shorter than max size yields one chunk", func(t *testing.T) {
		chunks, err := Chunk("short text", 1000, 200)

		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "short text", chunks[0].Text)
		assert.Equal(t, 0, chunks[0].Start)
		assert.Equal(t, 10, chunks[0].End)
	})

	t.Run("Text of exactly max size yields one chunk", func(t *testing.T) {
		chunks, err := Chunk(strings.Repeat("x", 1000), 1000, 200)

		require.NoError(t, err)
		assert.Len(t, chunks, 1)
	})

	t.Run("Empty text yields no chunks", func(t *testing.T) {
		chunks, err := Chunk("", 1000, 200)

		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("Offsets count characters not bytes", func(t *testing.T) {
		text := strings.Repeat("äöü🌍", 5)

		chunks, err := Chunk(text, 8, 2)

		require.NoError(t, err)
		for _, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c.Text)), 8)
			assert.Equal(t, c.Len(), len([]rune(c.Text)))
		}
		assert.Equal(t, text, reconstruct(chunks, 2))
	})

	t.Run("Reconstruction reproduces the input", func(t *testing.T) {
		sizes := []struct{ max, overlap, length int }{
			{10, 3, 0}, {10, 3, 1}, {10, 3, 10}, {10, 3, 11}, {10, 9, 57}, {1000, 200, 5321}, {2, 1, 9},
		}
		for _, s := range sizes {
			text := strings.Repeat("0123456789", s.length/10+1)[:s.length]

			chunks, err := Chunk(text, s.max, s.overlap)

			require.NoError(t, err)
			assert.Equal(t, text, reconstruct(chunks, s.overlap), "max %d overlap %d length %d", s.max, s.overlap, s.length)
			for _, c := range chunks {
				assert.LessOrEqual(t, c.Len(), s.max)
				assert.Equal(t, c.Text, string([]rune(text)[c.Start:c.End]))
			}
		}
	})

	t.Run("Error with invalid overlap", func(t *testing.T) {
		for _, params := range [][2]int{{1000, 0}, {1000, 1000}, {1000, 1200}, {0, 0}, {100, -1}} {
			_, err := Chunk("some text", params[0], params[1])
			assert.ErrorIs(t, err, model.ErrInvalidChunkConfig, "max %d overlap %d", params[0], params[1])
		}
	})
}

func TestFixedSizeChunker(t *testing.T) {
	t.Run("Sets the document ID", func(t *testing.T) {
		chunker := FixedSizeChunker(10, 2)

		chunks, err := chunker(strings.Repeat("a", 25), "doc.txt")

		require.NoError(t, err)
		require.Len(t, chunks, 3)
		for _, c := range chunks {
			assert.Equal(t, "doc.txt", c.DocumentID)
		}
	})

	t.Run("Default chunker uses 1000 and 200", func(t *testing.T) {
		chunks, err := DefaultChunker()(strings.Repeat("a", 1801), "doc")

		require.NoError(t, err)
		require.Len(t, chunks, 3)
		assert.Equal(t, 1600, chunks[2].Start)
	})
}
