// Package runtimepath resolves where tilewm keeps its sockets.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const appName = "tilewm"

// Dir returns the per-user runtime directory: $XDG_RUNTIME_DIR, else
// /run/user/<uid> when it exists, else a private directory under /tmp
// which is created.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}
	uid := strconv.Itoa(os.Getuid())
	if info, err := os.Stat(filepath.Join("/run/user", uid)); err == nil && info.IsDir() {
		return filepath.Join("/run/user", uid), nil
	}
	dir := filepath.Join(os.TempDir(), appName+"-runtime-"+uid)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create runtime dir: %w", err)
	}
	return dir, nil
}

// CacheDir returns $XDG_CACHE_HOME/tilewm, falling back to ~/.cache/tilewm
// and then to the runtime directory.
func CacheDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("XDG_CACHE_HOME")); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".cache", appName), nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// SocketPath returns the default command socket path.
func SocketPath() (string, error) {
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "socket"), nil
}

// IsUnixPath reports whether a socket address names a filesystem path
// rather than host:port.
func IsUnixPath(addr string) bool {
	return strings.ContainsRune(addr, '/') || !strings.ContainsRune(addr, ':')
}
