package notify

import (
	"sync"

	"univers-nexus/internal/domain"
)

// Service ведёт список уведомлений сессии: только добавление, новые в начале.
type Service struct {
	mu    sync.Mutex
	items []domain.Notification
}

var _ domain.Notifier = (*Service)(nil)

// NewService создаёт генератор уведомлений.
func NewService() *Service {
	return &Service{}
}

// Push добавляет уведомление в начало списка.
func (s *Service) Push(text string, kind domain.NoticeKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := domain.Notification{
		ID:   domain.NewTimeID(),
		Text: text,
		Time: "Just now",
		Kind: kind,
	}
	s.items = append([]domain.Notification{n}, s.items...)
}

// List возвращает копию списка уведомлений, новые в начале.
func (s *Service) List() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// HasAny сообщает, есть ли хотя бы одно уведомление. Управляет бейджем.
func (s *Service) HasAny() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) > 0
}

// Reset очищает список. Вызывается при завершении сессии.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}
