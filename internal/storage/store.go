package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"VPN-Manager-bot/internal/logger"
)

// Store хранит коллекцию записей T в одном JSON-файле (упорядоченный список).
// Доступ к файлу сериализуется: mutex внутри процесса, flock между процессами,
// чтобы циклы read-modify-write не теряли обновления.
type Store[T any] struct {
	path string
	mu   sync.Mutex
	fl   *flock.Flock
}

// New открывает хранилище по указанному пути. Если файла нет, он
// инициализируется пустым списком.
func New[T any](path string) (*Store[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store[T]{
		path: path,
		fl:   flock.New(path + ".lock"),
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
			return nil, fmt.Errorf("init store file: %w", err)
		}
	}
	return s, nil
}

// ReadAll возвращает все записи в порядке файла. Отсутствующий или битый
// файл трактуется как пустой список — доступность важнее строгости.
func (s *Store[T]) ReadAll() ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fl.Lock(); err != nil {
		return nil, fmt.Errorf("lock store file: %w", err)
	}
	defer s.fl.Unlock()
	return s.readLocked()
}

// WriteAll заменяет содержимое файла переданным списком.
func (s *Store[T]) WriteAll(items []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fl.Lock(); err != nil {
		return fmt.Errorf("lock store file: %w", err)
	}
	defer s.fl.Unlock()
	return s.writeLocked(items)
}

// Modify выполняет цикл read-modify-write под одной блокировкой.
// fn получает текущий список и возвращает новый; при changed == false
// запись не выполняется.
func (s *Store[T]) Modify(fn func(items []T) (result []T, changed bool, err error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fl.Lock(); err != nil {
		return fmt.Errorf("lock store file: %w", err)
	}
	defer s.fl.Unlock()

	items, err := s.readLocked()
	if err != nil {
		return err
	}
	result, changed, err := fn(items)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.writeLocked(result)
}

func (s *Store[T]) readLocked() ([]T, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		logger.Warn("store file is corrupt, treating as empty", zap.String("path", s.path), zap.Error(err))
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (s *Store[T]) writeLocked(items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal store data: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	return nil
}
