package vector

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFilter(t *testing.T) {
	f := buildFilter("u1", map[string]string{MetaDocumentID: "d1", MetaUserID: "spoofed"})
	require.Len(t, f.Must, 2)

	keys := make([]string, 0, len(f.Must))
	values := make([]string, 0, len(f.Must))
	for _, c := range f.Must {
		field := c.GetField()
		require.NotNil(t, field)
		keys = append(keys, field.GetKey())
		values = append(values, field.GetMatch().GetKeyword())
	}
	assert.Equal(t, []string{MetaUserID, MetaDocumentID}, keys)
	assert.Equal(t, []string{"u1", "d1"}, values)
}

func TestPayloadRoundTrip(t *testing.T) {
	payload := qdrant.NewValueMap(buildPayload("hello", map[string]string{MetaDocumentID: "d1", MetaUserID: "u1"}))
	text, meta := payloadToMetadata(payload)
	assert.Equal(t, "hello", text)
	assert.Equal(t, map[string]string{MetaDocumentID: "d1", MetaUserID: "u1"}, meta)
}

func TestPointKey(t *testing.T) {
	a := pointKey("u1", chunkMeta("d1", "0"), 5)
	b := pointKey("u1", chunkMeta("d1", "0"), 9)
	c := pointKey("u2", chunkMeta("d1", "0"), 5)
	assert.Equal(t, a, b, "chunk index from metadata wins over position")
	assert.NotEqual(t, a, c)

	d := pointKey("u1", map[string]string{MetaDocumentID: "d1"}, 3)
	e := pointKey("u1", map[string]string{MetaDocumentID: "d1"}, 4)
	assert.NotEqual(t, d, e)
}
