package storage

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/dgraph-io/badger/v3"
)

const journalPrefix = "edit:"

// Journal: журнал правок игрока в BadgerDB. Каждая правка записывается сразу,
// поэтому после аварийного завершения правки можно восстановить до следующего
// сохранения файла мира.
type Journal struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
}

// OpenJournal открывает или создаёт журнал в каталоге dir
func OpenJournal(dir string) (*Journal, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &Journal{
		db:      db,
		dbPath:  dir,
		isReady: true,
	}, nil
}

// Close закрывает журнал
func (j *Journal) Close() error {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if !j.isReady {
		return nil
	}

	j.isReady = false
	return j.db.Close()
}

func journalKey(c vec.Vec3) []byte {
	return []byte(fmt.Sprintf("%s%d:%d:%d", journalPrefix, c.X, c.Y, c.Z))
}

func parseJournalKey(key []byte) (vec.Vec3, error) {
	parts := strings.Split(strings.TrimPrefix(string(key), journalPrefix), ":")
	if len(parts) != 3 {
		return vec.Vec3{}, fmt.Errorf("некорректный ключ журнала %q", key)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return vec.Vec3{}, fmt.Errorf("некорректный ключ журнала %q: %w", key, err)
		}
		nums[i] = n
	}
	return vec.Vec3{X: nums[0], Y: nums[1], Z: nums[2]}, nil
}

// Record записывает правку игрока
func (j *Journal) Record(c vec.Vec3, v block.Value) error {
	j.mutex.RLock()
	defer j.mutex.RUnlock()

	if !j.isReady {
		return fmt.Errorf("журнал закрыт")
	}

	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))

	err := j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(journalKey(c), buf[:])
	})
	if err != nil {
		return fmt.Errorf("ошибка записи правки (%d,%d,%d): %w", c.X, c.Y, c.Z, err)
	}
	return nil
}

// Replay вызывает fn для каждой записанной правки
func (j *Journal) Replay(fn func(c vec.Vec3, v block.Value)) (int, error) {
	j.mutex.RLock()
	defer j.mutex.RUnlock()

	if !j.isReady {
		return 0, fmt.Errorf("журнал закрыт")
	}

	count := 0
	err := j.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(journalPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			c, err := parseJournalKey(item.Key())
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				if len(val) != 4 {
					return fmt.Errorf("некорректная длина значения для %q: %d", item.Key(), len(val))
				}
				fn(c, block.Value(binary.LittleEndian.Uint32(val)))
				return nil
			})
			if err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("ошибка чтения журнала: %w", err)
	}
	return count, nil
}

// Reset удаляет все правки из журнала (после сохранения файла мира или при новом мире)
func (j *Journal) Reset() error {
	j.mutex.RLock()
	defer j.mutex.RUnlock()

	if !j.isReady {
		return fmt.Errorf("журнал закрыт")
	}
	if err := j.db.DropPrefix([]byte(journalPrefix)); err != nil {
		return fmt.Errorf("ошибка очистки журнала: %w", err)
	}
	return nil
}
