package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"univers-nexus/internal/domain"
)

// PostgresStore хранит три слота зеркала в одной таблице key/value.
// Контракт тот же, что у JSONStore; выбирается конфигом при заданном PG_DSN.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ domain.ContentRepo = (*PostgresStore)(nil)

// NewPostgresStore создаёт зеркало поверх пула и гарантирует наличие таблицы.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	ctx, cancel := connCtx()
	defer cancel()
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS content_mirror (
    slot       TEXT PRIMARY KEY,
    payload    JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`)
	if err != nil {
		return nil, fmt.Errorf("создание таблицы зеркала: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// Load читает все три слота. Отсутствующий или нечитаемый слот даёт пустую
// коллекцию.
func (s *PostgresStore) Load() (domain.Collections, error) {
	return domain.Collections{
		Posts:   s.readSlot(slotPosts),
		Reels:   s.readSlot(slotReels),
		Stories: s.readSlot(slotStories),
	}, nil
}

// Persist перезаписывает все три слота текущим состоянием коллекций.
func (s *PostgresStore) Persist(cols domain.Collections) error {
	if err := s.writeSlot(slotPosts, cols.Posts); err != nil {
		return err
	}
	if err := s.writeSlot(slotReels, cols.Reels); err != nil {
		return err
	}
	return s.writeSlot(slotStories, cols.Stories)
}

// Wipe удаляет все слоты зеркала.
func (s *PostgresStore) Wipe() error {
	ctx, cancel := connCtx()
	defer cancel()
	if _, err := s.pool.Exec(ctx, `DELETE FROM content_mirror`); err != nil {
		return fmt.Errorf("очистка зеркала: %w", err)
	}
	return nil
}

func (s *PostgresStore) readSlot(slot string) []domain.ContentItem {
	ctx, cancel := connCtx()
	defer cancel()
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM content_mirror WHERE slot = $1`, slot).Scan(&raw)
	if err != nil {
		// pgx.ErrNoRows и любые другие ошибки чтения дают пустую коллекцию.
		return nil
	}
	var items []domain.ContentItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

func (s *PostgresStore) writeSlot(slot string, items []domain.ContentItem) error {
	if items == nil {
		items = []domain.ContentItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("сериализация слота %s: %w", slot, err)
	}
	ctx, cancel := connCtx()
	defer cancel()
	_, err = s.pool.Exec(ctx, `
INSERT INTO content_mirror (slot, payload, updated_at) VALUES ($1, $2, now())
ON CONFLICT (slot) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`, slot, raw)
	if err != nil {
		return fmt.Errorf("запись слота %s: %w", slot, err)
	}
	return nil
}
