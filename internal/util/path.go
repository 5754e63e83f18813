package util

import (
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// PathExists reports whether something exists at path, returning its
// FileInfo when it does.
func PathExists(path string) (fs.FileInfo, bool) {
	fi, err := os.Stat(path)
	return fi, !os.IsNotExist(err)
}

// SplitPathForViper splits a path into directory, base name without
// extension, and extension without the dot, which is what viper's
// AddConfigPath/SetConfigName/SetConfigType expect.
func SplitPathForViper(path string) (string, string, string) {
	filename := filepath.Base(path)
	ext := filepath.Ext(filename)
	return filepath.Dir(path), strings.TrimSuffix(filename, ext), strings.TrimPrefix(ext, ".")
}

// GetCurrentUsername returns the login name of the current user, or
// "unknown" when it cannot be looked up.
func GetCurrentUsername() string {
	u, err := user.Current()
	if err != nil || u.Username == "" {
		return "unknown"
	}
	return u.Username
}

// DefaultCachePath is where discovered outlet directories are cached.
func DefaultCachePath() string {
	return fmt.Sprintf("/tmp/%s/pductl/outlets.db", GetCurrentUsername())
}
