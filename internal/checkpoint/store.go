// Package checkpoint persists policy parameters keyed by episode number.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrNotFound is returned when no checkpoint exists for a request.
var ErrNotFound = errors.New("checkpoint not found")

const (
	filePrefix = "policy_"
	fileSuffix = ".msgpack"
)

// Store persists serialized policies.
type Store interface {
	Save(episode int, write func(io.Writer) error) (string, error)
	Load(episode int, read func(io.Reader) error) error
	Latest() (int, error)
}

// FileStore writes one file per checkpoint into a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("checkpoint dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file path for an episode.
func (s *FileStore) Path(episode int) string {
	return filepath.Join(s.dir, filePrefix+strconv.Itoa(episode)+fileSuffix)
}

// Save writes a checkpoint through a temp file and renames it into place,
// so readers never observe a partial file.
func (s *FileStore) Save(episode int, write func(io.Writer) error) (string, error) {
	tmp, err := os.CreateTemp(s.dir, filePrefix+"*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp checkpoint: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close checkpoint: %w", err)
	}

	path := s.Path(episode)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename checkpoint: %w", err)
	}
	return path, nil
}

// Load opens the checkpoint for an episode and hands it to read.
func (s *FileStore) Load(episode int, read func(io.Reader) error) error {
	f, err := os.Open(s.Path(episode))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: episode %d", ErrNotFound, episode)
		}
		return fmt.Errorf("open checkpoint: %w", err)
	}
	defer f.Close()
	return read(f)
}

// Latest returns the highest episode number with a checkpoint.
func (s *FileStore) Latest() (int, error) {
	episodes, err := s.Episodes()
	if err != nil {
		return 0, err
	}
	if len(episodes) == 0 {
		return 0, ErrNotFound
	}
	return episodes[len(episodes)-1], nil
}

// Episodes lists the stored episode numbers in ascending order.
func (s *FileStore) Episodes() ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	var episodes []int
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
		if err != nil {
			continue
		}
		episodes = append(episodes, n)
	}
	sort.Ints(episodes)
	return episodes, nil
}
