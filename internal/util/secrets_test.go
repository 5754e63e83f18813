package util

import (
	"path/filepath"
	"testing"

	"github.com/OpenCHAMI/pductl/pkg/secrets"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSecretStoreStaticOnly(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	assert.Nil(t, BuildSecretStore())

	viper.Set("secrets.file", filepath.Join(t.TempDir(), "missing.json"))
	viper.Set("secrets.static", map[string]string{"rack3-rw": "private"})

	store := BuildSecretStore()
	require.NotNil(t, store)
	v, err := store.GetSecretByID("rack3-rw")
	require.NoError(t, err)
	assert.Equal(t, "private", v)
}

func TestBuildSecretStoreOverlaysStatic(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	key, err := secrets.GenerateMasterKey()
	require.NoError(t, err)
	t.Setenv("MASTER_KEY", key)

	path := filepath.Join(t.TempDir(), "secrets.json")
	local, err := secrets.NewLocalSecretStore(key, path, true)
	require.NoError(t, err)
	require.NoError(t, local.StoreSecretByID("lab-ro", "public-ish"))
	require.NoError(t, local.StoreSecretByID("lab-rw", "old"))

	viper.Set("secrets.file", path)
	store := BuildSecretStore()
	v, err := store.GetSecretByID("lab-rw")
	require.NoError(t, err)
	assert.Equal(t, "old", v)

	viper.Set("secrets.static", map[string]string{"lab-rw": "new"})
	store = BuildSecretStore()
	v, err = store.GetSecretByID("lab-rw")
	require.NoError(t, err)
	assert.Equal(t, "new", v)
	v, err = store.GetSecretByID("lab-ro")
	require.NoError(t, err)
	assert.Equal(t, "public-ish", v)
}
