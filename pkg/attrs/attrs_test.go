package attrs

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestExtractString(t *testing.T) {
	id := uuid.MustParse("0b6c6e8e-6f55-4a53-9f0c-2f4fd9a3c0d1")
	kv := []any{"title", "Hide COD", "customization_id", id, "count", 3, "dangling"}

	assert.Equal(t, "Hide COD", ExtractString(kv, "title"))
	assert.Equal(t, id.String(), ExtractString(kv, "customization_id"))
	assert.Empty(t, ExtractString(kv, "count"))
	assert.Empty(t, ExtractString(kv, "dangling"))
	assert.Empty(t, ExtractString(kv, "missing"))
	assert.Empty(t, ExtractString(nil, "title"))
}
