// Package credential writes SSH key material to private temporary files and
// destroys them again.
package credential

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	gkerrors "gitkey.dev/gitkey/internal/errors"
)

const (
	// KeyFileMode is the permission of a materialized key file: owner read only
	KeyFileMode os.FileMode = 0o400

	keyFilePrefix = "git-key"
	keyFileExt    = "pem"
	privateDirPat = "gitkey-*"
)

// Handle refers to one materialized key file
type Handle struct {
	// Path is the absolute path of the key file
	Path string
	// Mode is the permission the file was created with
	Mode os.FileMode
	// Retain keeps the file on disk when the handle is destroyed
	Retain bool

	dir string
}

// Dir returns the private directory holding the key file
func (h *Handle) Dir() string {
	return h.dir
}

// Materializer creates and destroys key files
type Materializer struct {
	baseDir  string
	shredder Shredder
}

// NewMaterializer creates a Materializer that places private key directories
// under baseDir (os.TempDir() when empty) and destroys files with shredder.
func NewMaterializer(baseDir string, shredder Shredder) *Materializer {
	if shredder == nil {
		shredder = NewOverwriteShredder(DefaultShredPasses)
	}
	return &Materializer{baseDir: baseDir, shredder: shredder}
}

// NormalizeKey turns literal "\n" sequences into newlines and guarantees a
// trailing newline; some ssh builds reject keys without one.
func NormalizeKey(raw string) string {
	key := strings.ReplaceAll(raw, `\n`, "\n")
	if !strings.HasSuffix(key, "\n") {
		key += "\n"
	}
	return key
}

// Materialize writes rawKey to a new file named git-key-<uuid>.pem inside a
// fresh 0700 directory. The file is created with mode 0400 so it is never
// readable by anyone else, not even briefly.
func (m *Materializer) Materialize(_ context.Context, rawKey string, retain bool) (*Handle, error) {
	if rawKey == "" {
		return nil, gkerrors.NewCredentialError("materialize", gkerrors.ErrKeyMissing)
	}
	key := NormalizeKey(rawKey)

	baseDir := m.base()
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, gkerrors.NewCredentialError("materialize", fmt.Errorf("failed to create key directory: %w", err))
	}
	dir, err := os.MkdirTemp(baseDir, privateDirPat)
	if err != nil {
		return nil, gkerrors.NewCredentialError("materialize", fmt.Errorf("failed to create private directory: %w", err))
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%s.%s", keyFilePrefix, uuid.NewString(), keyFileExt))
	if err := writeKeyFile(path, key); err != nil {
		_ = os.RemoveAll(dir)
		return nil, gkerrors.NewCredentialError("materialize", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	return &Handle{
		Path:   absPath,
		Mode:   KeyFileMode,
		Retain: retain,
		dir:    dir,
	}, nil
}

func writeKeyFile(path, key string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, KeyFileMode)
	if err != nil {
		return fmt.Errorf("failed to create key file: %w", err)
	}
	if _, err := f.WriteString(key); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to write key file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to close key file: %w", err)
	}
	// umask can only remove bits, but be explicit about the final mode.
	if err := os.Chmod(path, KeyFileMode); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to restrict key file: %w", err)
	}
	return nil
}

// Destroy shreds the key file and removes its private directory. It does
// nothing for retained handles. A file that no longer exists is not an error;
// anything that isn't a regular file is left alone.
func (m *Materializer) Destroy(ctx context.Context, h *Handle) error {
	if h == nil || h.Retain {
		return nil
	}

	info, err := os.Lstat(h.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		m.removeDir(h)
		return nil
	case err != nil:
		return fmt.Errorf("failed to stat key file %s: %w", h.Path, err)
	case !info.Mode().IsRegular():
		return nil
	}

	if err := m.shredder.Shred(ctx, h.Path); err != nil {
		return fmt.Errorf("failed to shred key file %s: %w", h.Path, err)
	}
	if err := os.Remove(h.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove key file %s: %w", h.Path, err)
	}
	m.removeDir(h)
	return nil
}

func (m *Materializer) removeDir(h *Handle) {
	if h.dir != "" {
		// Only succeeds when empty, which is the only case we want.
		_ = os.Remove(h.dir)
	}
}

func (m *Materializer) base() string {
	if m.baseDir == "" {
		return os.TempDir()
	}
	return m.baseDir
}

// Leftovers lists key files that are still on disk under the base directory,
// such as retained keys or keys of a process that was killed.
func (m *Materializer) Leftovers() ([]string, error) {
	return filepath.Glob(filepath.Join(m.base(), privateDirPat, keyFilePrefix+"-*."+keyFileExt))
}

// DestroyPath destroys a key file found by Leftovers
func (m *Materializer) DestroyPath(ctx context.Context, path string) error {
	return m.Destroy(ctx, &Handle{Path: path, Mode: KeyFileMode, dir: filepath.Dir(path)})
}
