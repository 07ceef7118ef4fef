package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/config"
)

func TestFromConfig(t *testing.T) {
	c := config.DefaultConfig().Embedding
	c.Provider = "mock"
	c.Dimension = 24

	e, err := FromConfig(c)
	require.NoError(t, err)
	assert.Equal(t, 24, e.Dimension())
	assert.Equal(t, "mock", e.ModelName())

	t.Setenv("DOCRAG_TEST_KEY", "")
	c.Provider = "openai"
	c.APIKeyEnv = "DOCRAG_TEST_KEY"
	_, err = FromConfig(c)
	assert.ErrorContains(t, err, "DOCRAG_TEST_KEY")

	t.Setenv("DOCRAG_TEST_KEY", "sk-test")
	e, err = FromConfig(c)
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-ada-002", e.ModelName())
	assert.Equal(t, 24, e.Dimension())

	c.Provider = "voyage"
	_, err = FromConfig(c)
	assert.Error(t, err)
}
