package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ignite/phish-metrics/internal/datanorm"
)

// LocalStore keeps the snapshot in a directory.
type LocalStore struct {
	dir string
}

// NewLocalStore creates a store rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// Load reads results.csv and events.csv from the directory.
func (s *LocalStore) Load(ctx context.Context) (*datanorm.Dataset, error) {
	results, err := s.read(ResultsFile)
	if err != nil {
		return nil, err
	}
	events, err := s.read(EventsFile)
	if err != nil {
		return nil, err
	}
	return decode(results, events)
}

// Save writes both files, each through a temp file and rename.
func (s *LocalStore) Save(ctx context.Context, ds *datanorm.Dataset) error {
	results, events, err := encode(ds)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}
	if err := s.write(ResultsFile, results); err != nil {
		return err
	}
	return s.write(EventsFile, events)
}

func (s *LocalStore) read(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s in %s: %w", name, s.dir, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

func (s *LocalStore) write(name string, data []byte) error {
	final := filepath.Join(s.dir, name)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}
