package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
)

// DefaultPath is the snapshot location used when none is configured.
const DefaultPath = ".records"

// Store loads and saves the snapshot at a fixed path.
type Store struct {
	fs     FileSystem
	path   string
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFileSystem replaces the local disk backend.
func WithFileSystem(fsys FileSystem) Option {
	return func(s *Store) {
		if fsys != nil {
			s.fs = fsys
		}
	}
}

// NewStore creates a store for path. An empty path uses DefaultPath.
func NewStore(path string, opts ...Option) *Store {
	if path == "" {
		path = DefaultPath
	}
	s := &Store{
		fs:     LocalFS{},
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the snapshot location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored snapshot. A missing, unreachable or malformed
// snapshot yields an empty one.
func (s *Store) Load(ctx context.Context) Snapshot {
	data, err := s.fs.ReadFile(ctx, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("no snapshot found, starting empty", slog.String("path", s.path))
		} else {
			s.logger.Warn("snapshot could not be read, starting empty",
				slog.String("path", s.path),
				slog.String("error", err.Error()),
			)
		}
		return Snapshot{}
	}

	snap, err := Decode(data)
	if err != nil {
		s.logger.Debug("snapshot unreadable, starting empty",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return Snapshot{}
	}

	s.logger.Debug("snapshot loaded",
		slog.String("path", s.path),
		slog.Int64("zone_id", snap.Zone.ID),
		slog.Int("records", len(snap.Records)),
	)
	return snap
}

// Save replaces the stored snapshot.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := s.fs.WriteFile(ctx, s.path, data); err != nil {
		return fmt.Errorf("save snapshot %s: %w", s.path, err)
	}
	s.logger.Debug("snapshot saved",
		slog.String("path", s.path),
		slog.Int("records", len(snap.Records)),
	)
	return nil
}
