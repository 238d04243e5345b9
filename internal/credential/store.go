package credential

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store - плоское хранилище userName -> hex(SHA-256(password)).
type Store interface {
	Get(userName string) (hash string, ok bool, err error)
	Put(userName, hash string) error
	// PutIfAbsent сохраняет хеш, только если имени ещё нет; иначе возвращает сохранённый.
	PutIfAbsent(userName, hash string) (stored string, created bool, err error)
	Delete(userName string) error
}

// FileStore хранит учётные данные YAML-картой в одном файле.
// Запись идёт через временный файл и rename, чтобы файл не оставался полузаписанным.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ Store = (*FileStore)(nil)

// OpenFileStore создаёт хранилище по пути path; каталог создаётся при необходимости.
func OpenFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("empty credentials file path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create credentials dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Get возвращает сохранённый хеш.
func (s *FileStore) Get(userName string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return "", false, err
	}
	h, ok := m[userName]
	return h, ok, nil
}

// Put сохраняет хеш для userName.
func (s *FileStore) Put(userName, hash string) error {
	if userName == "" {
		return errors.New("empty user name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return err
	}
	m[userName] = hash
	return s.save(m)
}

// PutIfAbsent проверяет и записывает под одной блокировкой: из двух одновременных
// регистраций одного имени сохраняется только первая.
func (s *FileStore) PutIfAbsent(userName, hash string) (string, bool, error) {
	if userName == "" {
		return "", false, errors.New("empty user name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return "", false, err
	}
	if h, ok := m[userName]; ok {
		return h, false, nil
	}
	m[userName] = hash
	if err := s.save(m); err != nil {
		return "", false, err
	}
	return hash, true, nil
}

// Delete удаляет запись; отсутствие записи ошибкой не считается.
func (s *FileStore) Delete(userName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := m[userName]; !ok {
		return nil
	}
	delete(m, userName)
	return s.save(m)
}

func (s *FileStore) load() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	m := map[string]string{}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return m, nil
}

func (s *FileStore) save(m map[string]string) error {
	b, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace credentials: %w", err)
	}
	return nil
}
