package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/moby/sys/atomicwriter"
	"gopkg.in/yaml.v3"
)

const fileVersion = 1

// Entry is a stored session together with its name.
type Entry struct {
	Name string
	Data Data
}

// FileStore keeps sessions in a single YAML file.
// It serializes access within one process only; concurrent pctl processes may race.
type FileStore struct {
	path string
	mu   sync.Mutex
}

type sessionsFile struct {
	Version  int             `yaml:"version"`
	Sessions map[string]Data `yaml:"sessions"`
}

// NewFileStore returns a store backed by path. The file is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Get implements Store.
func (s *FileStore) Get(name string) (Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return Data{}, err
	}
	data, ok := f.Sessions[name]
	if !ok {
		return Data{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return data, nil
}

// Save implements Store.
func (s *FileStore) Save(name string, data Data) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}
	f.Sessions[name] = data
	return s.write(f)
}

// Remove implements Store.
func (s *FileStore) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := f.Sessions[name]; !ok {
		return nil
	}
	delete(f.Sessions, name)
	return s.write(f)
}

// List returns all stored sessions sorted by name.
func (s *FileStore) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(f.Sessions))
	for name, data := range f.Sessions {
		out = append(out, Entry{Name: name, Data: data})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *FileStore) load() (*sessionsFile, error) {
	f := &sessionsFile{Version: fileVersion, Sessions: map[string]Data{}}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return f, nil
		}
		return nil, fmt.Errorf("read sessions file %q: %w", s.path, err)
	}
	if err := yaml.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("parse sessions file %q: %w", s.path, err)
	}
	if f.Version > fileVersion {
		return nil, fmt.Errorf("sessions file %q has unsupported version %d", s.path, f.Version)
	}
	if f.Sessions == nil {
		f.Sessions = map[string]Data{}
	}
	return f, nil
}

// write replaces the file atomically; it holds tokens so it is created 0600.
func (s *FileStore) write(f *sessionsFile) error {
	f.Version = fileVersion
	raw, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create sessions directory %q: %w", dir, err)
	}

	if err := atomicwriter.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("replace sessions file %q: %w", s.path, err)
	}
	return nil
}
