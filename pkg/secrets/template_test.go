package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCommunity(t *testing.T) {
	store := NewStaticStore(map[string]string{"rack3-rw": "private3"})

	got, err := RenderCommunity("public", nil)
	require.NoError(t, err)
	assert.Equal(t, "public", got)

	got, err = RenderCommunity(`{{ secret "rack3-rw" }}`, store)
	require.NoError(t, err)
	assert.Equal(t, "private3", got)

	_, err = RenderCommunity(`{{ secret "rack9-rw" }}`, store)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = RenderCommunity(`{{ secret "rack3-rw" }}`, nil)
	assert.Error(t, err)

	_, err = RenderCommunity(`{{ secret `, store)
	assert.Error(t, err)
}
