package util

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPathForViper(t *testing.T) {
	dir, name, ext := SplitPathForViper("/etc/pductl/config.yaml")
	assert.Equal(t, "/etc/pductl", dir)
	assert.Equal(t, "config", name)
	assert.Equal(t, "yaml", ext)
}

func TestPathExists(t *testing.T) {
	dir := t.TempDir()
	fi, exists := PathExists(dir)
	assert.True(t, exists)
	assert.True(t, fi.IsDir())

	_, exists = PathExists(filepath.Join(dir, "missing"))
	assert.False(t, exists)
}
