package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordMetadata() Metadata {
	doc := &Document{ID: "handbook.md", Filename: "handbook.md", Format: FormatMarkdown, Metadata: Metadata{"owner": "docs"}}
	chunk := Chunk{DocumentID: "handbook.md", Index: 3, Text: "Vacation requests go to HR.", Start: 2400, End: 3400}
	return NewRecord(doc, chunk, []float32{0.6, 0.8}).Metadata
}

func TestMetadataRoundTrip(t *testing.T) {
	t.Run("Record metadata survives JSONB storage", func(t *testing.T) {
		value, err := recordMetadata().Value()
		require.NoError(t, err)

		var scanned Metadata
		require.NoError(t, scanned.Scan(value))

		assert.Equal(t, "handbook.md", scanned.String(MetadataDocumentID))
		assert.Equal(t, "handbook.md", scanned.String(MetadataFilename))
		assert.Equal(t, "markdown", scanned.String(MetadataFormat))
		assert.Equal(t, "docs", scanned.String("owner"))
		assert.IsType(t, float64(0), scanned[MetadataChunkIndex], "JSON numbers are decoded as float64")

		index, ok := scanned.Int(MetadataChunkIndex)
		require.True(t, ok)
		assert.Equal(t, 3, index)
		start, ok := scanned.Int(MetadataStart)
		require.True(t, ok)
		assert.Equal(t, 2400, start)
		end, ok := scanned.Int(MetadataEnd)
		require.True(t, ok)
		assert.Equal(t, 3400, end)
	})

	t.Run("Record metadata is read the same before storage", func(t *testing.T) {
		m := recordMetadata()

		index, ok := m.Int(MetadataChunkIndex)
		require.True(t, ok)
		assert.Equal(t, 3, index)
		assert.Equal(t, "3", m.String(MetadataChunkIndex))
	})

	t.Run("Qdrant payloads arrive as plain maps", func(t *testing.T) {
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(`{"document_id":"a.pdf","chunk_index":0}`), &payload))

		var m Metadata
		require.NoError(t, m.Unmarshal(payload))
		assert.Equal(t, "a.pdf", m.String(MetadataDocumentID))
		index, ok := m.Int(MetadataChunkIndex)
		assert.True(t, ok)
		assert.Equal(t, 0, index)
	})
}

func TestMetadataEdgeCases(t *testing.T) {
	t.Run("Nil metadata is stored as an empty object", func(t *testing.T) {
		var m Metadata

		value, err := m.Value()
		require.NoError(t, err)
		assert.Equal(t, []byte("{}"), value)
	})

	t.Run("NULL column scans to empty metadata", func(t *testing.T) {
		var m Metadata

		require.NoError(t, m.Scan(nil))
		assert.NotNil(t, m)
		assert.Empty(t, m)
	})

	t.Run("Scan from string", func(t *testing.T) {
		var m Metadata

		require.NoError(t, m.Scan(`{"filename":"a.pdf"}`))
		assert.Equal(t, "a.pdf", m.String(MetadataFilename))
	})

	t.Run("Error when value has unsupported type", func(t *testing.T) {
		var m Metadata

		err := m.Scan(12345)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "type assertion")
	})

	t.Run("Error when JSON is invalid", func(t *testing.T) {
		var m Metadata

		assert.Error(t, m.Scan([]byte(`{invalid json}`)))
	})

	t.Run("Missing and non-numeric keys", func(t *testing.T) {
		m := Metadata{MetadataDocumentID: "doc.txt", "nothing": nil}

		assert.Equal(t, "", m.String("missing"))
		assert.Equal(t, "", m.String("nothing"))
		_, ok := m.Int("missing")
		assert.False(t, ok)
		_, ok = m.Int(MetadataDocumentID)
		assert.False(t, ok, "Expected strings not to be read as numbers")
	})

	t.Run("Int accepts json.Number", func(t *testing.T) {
		m := Metadata{MetadataEnd: json.Number("42")}

		end, ok := m.Int(MetadataEnd)
		assert.True(t, ok)
		assert.Equal(t, 42, end)
	})
}
