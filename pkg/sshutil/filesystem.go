package sshutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"sync"

	"github.com/pkg/sftp"
)

// SFTPFileSystem reads and writes files on the remote host.
type SFTPFileSystem struct {
	client *Client
	logger *slog.Logger

	mu         sync.Mutex
	sftpClient *sftp.Client
}

// SFTPOption is a functional option for configuring the SFTPFileSystem.
type SFTPOption func(*SFTPFileSystem)

// WithSFTPLogger sets a custom logger for SFTP operations.
func WithSFTPLogger(logger *slog.Logger) SFTPOption {
	return func(fs *SFTPFileSystem) {
		if logger != nil {
			fs.logger = logger
		}
	}
}

// WithSFTPClient uses an already established SFTP session, for example one
// running over a custom transport. Connect is then a no-op.
func WithSFTPClient(sc *sftp.Client) SFTPOption {
	return func(fs *SFTPFileSystem) {
		fs.sftpClient = sc
	}
}

// NewSFTPFileSystem creates an SFTP file system on top of client.
func NewSFTPFileSystem(client *Client, opts ...SFTPOption) *SFTPFileSystem {
	fs := &SFTPFileSystem{
		client: client,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(fs)
	}

	return fs
}

// Connect dials SSH if needed and opens the SFTP session.
func (fs *SFTPFileSystem) Connect(ctx context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.sftpClient != nil {
		return nil
	}
	if fs.client == nil {
		return ErrNotConnected
	}

	if err := fs.client.Connect(ctx); err != nil {
		return err
	}

	conn, err := fs.client.Conn()
	if err != nil {
		return err
	}

	sftpClient, err := sftp.NewClient(conn)
	if err != nil {
		return fmt.Errorf("creating SFTP client: %w", err)
	}

	fs.sftpClient = sftpClient
	fs.logger.Debug("SFTP session established")

	return nil
}

// Close ends the SFTP session and the SSH connection beneath it.
func (fs *SFTPFileSystem) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var err error
	if fs.sftpClient != nil {
		err = fs.sftpClient.Close()
		fs.sftpClient = nil
	}
	if fs.client != nil {
		if cerr := fs.client.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (fs *SFTPFileSystem) session() (*sftp.Client, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.sftpClient == nil {
		return nil, ErrNotConnected
	}
	return fs.sftpClient, nil
}

// ReadFile reads a remote file. A missing file yields an error satisfying
// errors.Is(err, os.ErrNotExist).
func (fs *SFTPFileSystem) ReadFile(name string) ([]byte, error) {
	sc, err := fs.session()
	if err != nil {
		return nil, err
	}

	file, err := sc.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	fs.logger.Debug("read remote file",
		slog.String("path", name),
		slog.Int("bytes", len(data)),
	)

	return data, nil
}

// WriteFileAtomic writes data to a temporary file next to name and renames
// it into place, so readers see either the old or the new content.
func (fs *SFTPFileSystem) WriteFileAtomic(name string, data []byte, perm os.FileMode) error {
	sc, err := fs.session()
	if err != nil {
		return err
	}

	dir := path.Dir(name)
	if dir != "." && dir != "/" {
		if err := sc.MkdirAll(dir); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	tmpName := path.Join(dir, "."+path.Base(name)+".tmp")
	file, err := sc.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("opening %s for write: %w", tmpName, err)
	}

	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		_ = sc.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := file.Close(); err != nil {
		_ = sc.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}

	if err := sc.Chmod(tmpName, perm); err != nil {
		fs.logger.Warn("failed to set file permissions",
			slog.String("path", tmpName),
			slog.String("error", err.Error()),
		)
	}

	if err := sc.PosixRename(tmpName, name); err != nil {
		_ = sc.Remove(tmpName)
		return fmt.Errorf("renaming %s to %s: %w", tmpName, name, err)
	}

	fs.logger.Debug("wrote remote file",
		slog.String("path", name),
		slog.Int("bytes", len(data)),
	)

	return nil
}
