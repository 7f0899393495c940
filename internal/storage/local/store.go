// Package local хранит коллекцию заказов одним JSON-блобом под одним ключом.
// Каталог играет роль key-value хранилища: один файл на ключ.
package local

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/carwash/internal/domain"
)

// DefaultKey — ключ, под которым лежит коллекция заказов.
const DefaultKey = "carWashOrders"

// Options задаёт параметры Store.
type Options struct {
	Key    string
	Logger *log.Entry
}

// Option настраивает Store.
type Option func(*Options)

// WithKey переопределяет ключ хранилища.
func WithKey(key string) Option {
	return func(opts *Options) {
		opts.Key = key
	}
}

// WithLogger задаёт logger для адаптера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// Store — файловый адаптер локального хранения.
type Store struct {
	mu     sync.Mutex
	dir    string
	key    string
	logger *log.Entry
}

// New создаёт адаптер поверх каталога dir.
func New(dir string, options ...Option) *Store {
	opts := Options{Key: DefaultKey}
	for _, option := range options {
		option(&opts)
	}
	if opts.Key == "" {
		opts.Key = DefaultKey
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "local-store")
	}

	return &Store{
		dir:    dir,
		key:    opts.Key,
		logger: logger.WithField("key", opts.Key),
	}
}

// Path возвращает путь к файлу с коллекцией.
func (s *Store) Path() string {
	return filepath.Join(s.dir, s.key+".json")
}

// Load читает коллекцию. Отсутствующий или битый блоб даёт пустую коллекцию:
// ошибка только логируется.
func (s *Store) Load() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.Path())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.WithError(err).Warn("failed to read stored orders")
		}
		return []domain.Order{}
	}

	var orders []domain.Order
	if err := json.Unmarshal(raw, &orders); err != nil {
		s.logger.WithError(err).Warn("stored orders are corrupted, starting with an empty queue")
		return []domain.Order{}
	}
	if orders == nil {
		return []domain.Order{}
	}

	for i := range orders {
		// Ранние версии клиента не писали статус.
		if orders[i].Status == "" {
			orders[i].Status = domain.OrderStatusPending
		}
	}

	s.logger.WithField("orders", len(orders)).Debug("orders loaded")
	return orders
}

// Save целиком перезаписывает коллекцию (запись во временный файл + rename).
func (s *Store) Save(orders []domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if orders == nil {
		orders = []domain.Order{}
	}
	payload, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("marshal orders: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, s.key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		return fmt.Errorf("replace stored orders: %w", err)
	}

	s.logger.WithField("orders", len(orders)).Debug("orders saved")
	return nil
}

// Clear удаляет блоб целиком.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove stored orders: %w", err)
	}
	return nil
}

// Ping проверяет каталог хранилища и ничего не создаёт. Отсутствующий
// каталог даёт ошибку с fs.ErrNotExist: его создаст первый Save.
func (s *Store) Ping() error {
	info, err := os.Stat(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("store dir %s does not exist yet: %w", s.dir, fs.ErrNotExist)
		}
		return fmt.Errorf("stat store dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("store path %s is not a directory", s.dir)
	}
	return nil
}
