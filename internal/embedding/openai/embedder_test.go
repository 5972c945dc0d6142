package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelDimension(t *testing.T) {
	cases := []struct {
		model string
		want  int
	}{
		{"text-embedding-ada-002", 1536},
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},
		{"custom-model-x", 1536},
		{"", 1536},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ModelDimension(tc.model), "model %q", tc.model)
	}
}

func TestNewEmbedderDefaults(t *testing.T) {
	e, err := NewEmbedder(Config{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-ada-002", e.model)
	assert.Equal(t, 100, e.batchSize)
	assert.Equal(t, 1536, e.Dimension())
}

func TestNewEmbedderRequiresKey(t *testing.T) {
	_, err := NewEmbedder(Config{})
	assert.Error(t, err)
}
