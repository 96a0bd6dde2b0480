package repo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"univers-nexus/internal/domain"
)

// Имена слотов зеркала фиксированы: по ним же данные находят клиенты.
const (
	slotPosts   = "univers_data_posts"
	slotReels   = "univers_data_reels"
	slotStories = "univers_data_stories"
)

// JSONStore хранит три коллекции контента в трёх JSON-файлах каталога данных.
// Форма файлов совпадает с формой коллекций в памяти один к одному.
type JSONStore struct {
	dir string
	mu  sync.Mutex
}

var _ domain.ContentRepo = (*JSONStore)(nil)

// NewJSONStore создаёт зеркало в указанном каталоге.
func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("каталог зеркала: %w", err)
	}
	return &JSONStore{dir: dir}, nil
}

// Load читает все три слота. Отсутствующий или нечитаемый слот даёт пустую
// коллекцию, а не ошибку: запуск процесса не должен падать из-за зеркала.
func (s *JSONStore) Load() (domain.Collections, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Collections{
		Posts:   s.readSlot(slotPosts),
		Reels:   s.readSlot(slotReels),
		Stories: s.readSlot(slotStories),
	}, nil
}

// Persist перезаписывает все три слота текущим состоянием коллекций.
func (s *JSONStore) Persist(cols domain.Collections) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeSlot(slotPosts, cols.Posts); err != nil {
		return err
	}
	if err := s.writeSlot(slotReels, cols.Reels); err != nil {
		return err
	}
	return s.writeSlot(slotStories, cols.Stories)
}

// Wipe удаляет все слоты зеркала.
func (s *JSONStore) Wipe() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, slot := range []string{slotPosts, slotReels, slotStories} {
		if err := os.Remove(s.slotPath(slot)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("удаление слота %s: %w", slot, err)
		}
	}
	return nil
}

func (s *JSONStore) slotPath(slot string) string {
	return filepath.Join(s.dir, slot+".json")
}

func (s *JSONStore) readSlot(slot string) []domain.ContentItem {
	raw, err := os.ReadFile(s.slotPath(slot))
	if err != nil {
		return nil
	}
	var items []domain.ContentItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

func (s *JSONStore) writeSlot(slot string, items []domain.ContentItem) error {
	if items == nil {
		items = []domain.ContentItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("сериализация слота %s: %w", slot, err)
	}
	tmp := s.slotPath(slot) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("запись слота %s: %w", slot, err)
	}
	if err := os.Rename(tmp, s.slotPath(slot)); err != nil {
		return fmt.Errorf("замена слота %s: %w", slot, err)
	}
	return nil
}
