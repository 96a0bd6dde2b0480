package domain

import (
	"context"
	"time"
)

// ContentRepo отвечает за зеркало трёх коллекций контента.
// Load обязан вернуть пустые коллекции, если зеркало отсутствует или нечитаемо.
type ContentRepo interface {
	Load() (Collections, error)
	Persist(collections Collections) error
	Wipe() error
}

// Notifier принимает уведомления как побочный эффект мутаций контента.
type Notifier interface {
	Push(text string, kind NoticeKind)
}

// AuthProvider описывает внешний бэкенд аутентификации.
type AuthProvider interface {
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignUp(ctx context.Context, email, password, name, lastName string) (Identity, error)
}

// Generator описывает внешний генеративный бэкенд.
type Generator interface {
	GenerateText(ctx context.Context, prompt, systemInstruction string) (string, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
	Del(key string) error
}
