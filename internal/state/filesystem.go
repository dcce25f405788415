package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gitlab.bluewillows.net/root/dynv6sync/pkg/sshutil"
)

// FileSystem is the storage backend a Store reads and writes through.
// WriteFile must replace the target atomically.
type FileSystem interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
	WriteFile(ctx context.Context, name string, data []byte) error
}

// snapshotPerm is the mode snapshot files are written with.
const snapshotPerm = 0o600

// LocalFS stores the snapshot on local disk.
type LocalFS struct{}

// ReadFile reads a local file.
func (LocalFS) ReadFile(_ context.Context, name string) ([]byte, error) {
	return os.ReadFile(name)
}

// WriteFile writes to a temporary file in the target directory and
// renames it over name.
func (LocalFS) WriteFile(_ context.Context, name string, data []byte) error {
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(name)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, snapshotPerm); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, name); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// SFTPFS stores the snapshot on a remote host over SFTP. The session is
// opened on first use and kept until Close.
type SFTPFS struct {
	fs *sshutil.SFTPFileSystem
}

// NewSFTPFS wraps an SFTP file system.
func NewSFTPFS(fs *sshutil.SFTPFileSystem) *SFTPFS {
	return &SFTPFS{fs: fs}
}

// ReadFile reads a remote file.
func (r *SFTPFS) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := r.fs.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect sftp: %w", err)
	}
	return r.fs.ReadFile(name)
}

// WriteFile atomically replaces a remote file.
func (r *SFTPFS) WriteFile(ctx context.Context, name string, data []byte) error {
	if err := r.fs.Connect(ctx); err != nil {
		return fmt.Errorf("connect sftp: %w", err)
	}
	return r.fs.WriteFileAtomic(name, data, snapshotPerm)
}

// Close ends the remote session.
func (r *SFTPFS) Close() error {
	return r.fs.Close()
}
