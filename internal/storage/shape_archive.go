package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/annel0/peach-village/internal/world"
)

var (
	// ErrNotFound запись отсутствует
	ErrNotFound = errors.New("storage: not found")
	// ErrClosed хранилище уже закрыто
	ErrClosed = errors.New("storage: closed")
)

const shapePrefix = "shape:"

// ShapeArchive хранит сгенерированные формы в BadgerDB по имени.
// Повторное сохранение формы с тем же именем перезаписывает её.
type ShapeArchive struct {
	db      *badger.DB
	mutex   sync.RWMutex
	isReady bool
}

// ArchivedShape запись архива
type ArchivedShape struct {
	Shape   world.Shape `json:"shape"`
	SavedAt time.Time   `json:"saved_at"`
}

// NewShapeArchive открывает архив в каталоге dataPath/shapes
func NewShapeArchive(dataPath string) (*ShapeArchive, error) {
	opts := badger.DefaultOptions(filepath.Join(dataPath, "shapes"))
	return openArchive(opts)
}

// NewMemoryShapeArchive архив без диска, для тестов и одноразовых запусков
func NewMemoryShapeArchive() (*ShapeArchive, error) {
	return openArchive(badger.DefaultOptions("").WithInMemory(true))
}

func openArchive(opts badger.Options) (*ShapeArchive, error) {
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}
	return &ShapeArchive{db: db, isReady: true}, nil
}

// Save сохраняет форму под её именем
func (a *ShapeArchive) Save(shape world.Shape) error {
	if shape.Name == "" {
		return fmt.Errorf("форма без имени")
	}

	a.mutex.RLock()
	defer a.mutex.RUnlock()
	if !a.isReady {
		return ErrClosed
	}

	data, err := json.Marshal(ArchivedShape{Shape: shape, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("ошибка сериализации формы: %w", err)
	}

	err = a.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(shapePrefix+shape.Name), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// Get возвращает запись архива
func (a *ShapeArchive) Get(name string) (*ArchivedShape, error) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	if !a.isReady {
		return nil, ErrClosed
	}

	var data []byte
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(shapePrefix + name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: shape %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	var rec ArchivedShape
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("ошибка десериализации формы: %w", err)
	}
	return &rec, nil
}

// Load возвращает форму по имени
func (a *ShapeArchive) Load(name string) (world.Shape, error) {
	rec, err := a.Get(name)
	if err != nil {
		return world.Shape{}, err
	}
	return rec.Shape, nil
}

// Names имена всех форм в лексикографическом порядке
func (a *ShapeArchive) Names() ([]string, error) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	if !a.isReady {
		return nil, ErrClosed
	}

	var names []string
	err := a.db.View(func(txn *badger.Txn) error {
		prefix := []byte(shapePrefix)
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().KeyCopy(nil))
			names = append(names, strings.TrimPrefix(key, shapePrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка обхода BadgerDB: %w", err)
	}
	return names, nil
}

// Delete удаляет форму. Отсутствующее имя не считается ошибкой.
func (a *ShapeArchive) Delete(name string) error {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	if !a.isReady {
		return ErrClosed
	}
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(shapePrefix + name))
	})
}

// Close закрывает хранилище
func (a *ShapeArchive) Close() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if !a.isReady {
		return nil
	}
	a.isReady = false
	return a.db.Close()
}
