package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"univers-nexus/internal/domain"
)

var (
	// ErrNotAuthenticated возвращается операциями, требующими сессию.
	ErrNotAuthenticated = errors.New("нет активной сессии")
	// ErrConfirmationMismatch возвращается при неверном email подтверждения.
	ErrConfirmationMismatch = errors.New("подтверждение не совпадает с email профиля")
)

const (
	sessionKey    = "univers_session"
	sessionTTL    = 30 * 24 * time.Hour
	avatarBaseURL = "https://api.dicebear.com/7.x/avataaars/svg?seed="

	defaultName     = "Citizen"
	defaultLastName = "Node"
	defaultEmail    = "citizen@univers.nexus"
)

// ContentWiper очищает все персистентные коллекции контента.
type ContentWiper interface {
	WipeAll() error
}

// NoticeResetter сбрасывает уведомления сессии.
type NoticeResetter interface {
	Reset()
}

// Service связывает внешний бэкенд аутентификации с локальным профилем.
type Service struct {
	auth        domain.AuthProvider
	cache       domain.Cache
	wiper       ContentWiper
	notices     NoticeResetter
	log         zerolog.Logger
	allowDemo   bool
	startTokens int

	mu      sync.Mutex
	session *domain.Session
	profile domain.Profile
}

// NewService создаёт менеджер сессии. cache может быть nil: тогда сессия
// живёт только в памяти процесса.
func NewService(auth domain.AuthProvider, cache domain.Cache, wiper ContentWiper, notices NoticeResetter, allowDemo bool, startTokens int, logger zerolog.Logger) *Service {
	if startTokens <= 0 {
		startTokens = 1000
	}
	s := &Service{
		auth:        auth,
		cache:       cache,
		wiper:       wiper,
		notices:     notices,
		log:         logger,
		allowDemo:   allowDemo,
		startTokens: startTokens,
	}
	s.profile = s.emptyProfile()
	return s
}

// AttachWiper подключает очистку контента после создания сервисов.
// Сервис ленты сам зависит от профиля сессии, поэтому связь устанавливается
// вторым шагом.
func (s *Service) AttachWiper(wiper ContentWiper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wiper = wiper
}

// Restore пытается восстановить сессию из кэша при старте процесса.
// Отсутствующая или нечитаемая запись — не ошибка.
func (s *Service) Restore() bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(sessionKey)
	if err != nil || len(raw) == 0 {
		return false
	}
	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		s.log.Warn().Err(err).Msg("session: запись в кэше нечитаема")
		return false
	}
	s.mu.Lock()
	s.session = &sess
	s.profile = s.deriveProfile(sess.Identity)
	s.mu.Unlock()
	return true
}

// Login выполняет вход через бэкенд аутентификации.
func (s *Service) Login(ctx context.Context, email, password string) (domain.Profile, error) {
	identity, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		identity, err = s.demoFallback(email, err)
		if err != nil {
			return domain.Profile{}, fmt.Errorf("вход: %w", err)
		}
	}
	return s.adopt(identity), nil
}

// Register регистрирует нового пользователя.
func (s *Service) Register(ctx context.Context, email, password, name, lastName string) (domain.Profile, error) {
	identity, err := s.auth.SignUp(ctx, email, password, name, lastName)
	if err != nil {
		identity, err = s.demoFallback(email, err)
		if err != nil {
			return domain.Profile{}, fmt.Errorf("регистрация: %w", err)
		}
		if name != "" {
			identity.Name = name
		}
		if lastName != "" {
			identity.LastName = lastName
		}
	}
	return s.adopt(identity), nil
}

// demoFallback выдаёт локальную демо-личность вместо ошибки аутентификации.
// Режим включается явно конфигом и всегда логируется: недоступность сервиса
// не должна молча превращаться в неаутентифицированный вход.
func (s *Service) demoFallback(email string, cause error) (domain.Identity, error) {
	if !s.allowDemo {
		return domain.Identity{}, cause
	}
	if email == "" {
		email = defaultEmail
	}
	id := "user-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	s.log.Warn().Err(cause).Str("identity", id).Msg("session: аутентификация не удалась, включена демо-личность")
	return domain.Identity{
		ID:       id,
		Email:    email,
		Name:     defaultName,
		LastName: defaultLastName,
		Demo:     true,
	}, nil
}

// adopt принимает личность, выводит из неё профиль и сохраняет сессию.
func (s *Service) adopt(identity domain.Identity) domain.Profile {
	sess := domain.Session{Identity: identity}
	profile := s.deriveProfile(identity)

	s.mu.Lock()
	s.session = &sess
	s.profile = profile
	s.mu.Unlock()

	if s.cache != nil {
		if raw, err := json.Marshal(sess); err == nil {
			if err := s.cache.Set(sessionKey, raw, sessionTTL); err != nil {
				s.log.Warn().Err(err).Msg("session: сессия не сохранена в кэш")
			}
		}
	}
	return profile
}

// deriveProfile строит профиль по умолчанию из метаданных личности.
// Хэндл детерминирован: имя в нижнем регистре с подчёркиваниями плюс
// последние 4 символа идентификатора.
func (s *Service) deriveProfile(identity domain.Identity) domain.Profile {
	name := identity.Name
	if name == "" {
		name = defaultName
	}
	return domain.Profile{
		ID:     identity.ID,
		Name:   name,
		Email:  identity.Email,
		Handle: deriveHandle(name, identity.ID),
		Avatar: avatarBaseURL + identity.ID,
		Tokens: s.startTokens,
		Status: "single",
	}
}

// CurrentProfile возвращает профиль текущей сессии.
func (s *Service) CurrentProfile() domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// CurrentSession возвращает активную сессию, если она есть.
func (s *Service) CurrentSession() (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return domain.Session{}, false
	}
	return *s.session, true
}

// ProfileUpdate перечисляет редактируемые поля профиля.
type ProfileUpdate struct {
	Name    *string `json:"name"`
	Avatar  *string `json:"avatar_url"`
	Status  *string `json:"status"`
	City    *string `json:"city"`
	Studies *string `json:"studies"`
	Bio     *string `json:"bio"`
	Tokens  *int    `json:"tokens"`
}

// UpdateProfile применяет прямое присваивание полей из настроек.
// Баланс токенов не может стать отрицательным.
func (s *Service) UpdateProfile(update ProfileUpdate) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return domain.Profile{}, ErrNotAuthenticated
	}
	if update.Name != nil {
		s.profile.Name = *update.Name
	}
	if update.Avatar != nil {
		s.profile.Avatar = *update.Avatar
	}
	if update.Status != nil {
		s.profile.Status = *update.Status
	}
	if update.City != nil {
		s.profile.City = *update.City
	}
	if update.Studies != nil {
		s.profile.Studies = *update.Studies
	}
	if update.Bio != nil {
		s.profile.Bio = *update.Bio
	}
	if update.Tokens != nil {
		if *update.Tokens < 0 {
			return domain.Profile{}, fmt.Errorf("баланс токенов не может быть отрицательным")
		}
		s.profile.Tokens = *update.Tokens
	}
	return s.profile, nil
}

// Logout завершает сессию и возвращает профиль к пустой форме.
// Коллекции контента не очищаются.
func (s *Service) Logout() {
	s.mu.Lock()
	s.session = nil
	s.profile = s.emptyProfile()
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Del(sessionKey); err != nil {
			s.log.Warn().Err(err).Msg("session: сессия не удалена из кэша")
		}
	}
	if s.notices != nil {
		s.notices.Reset()
	}
}

// DeleteAccount уничтожает аккаунт после текстового совпадения подтверждения
// с email профиля. При совпадении стирается всё локальное состояние, включая
// коллекции контента; при несовпадении ничего не происходит.
func (s *Service) DeleteAccount(confirmationEmail string) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	if confirmationEmail != s.profile.Email {
		s.mu.Unlock()
		return ErrConfirmationMismatch
	}
	wiper := s.wiper
	s.mu.Unlock()

	if wiper != nil {
		if err := wiper.WipeAll(); err != nil {
			return fmt.Errorf("уничтожение аккаунта: %w", err)
		}
	}
	s.Logout()
	return nil
}

func (s *Service) emptyProfile() domain.Profile {
	return domain.Profile{Handle: "user", Tokens: s.startTokens, Status: "single"}
}

func deriveHandle(name, id string) string {
	handle := strings.ReplaceAll(strings.ToLower(name), " ", "_")
	tail := id
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	return handle + "_" + tail
}
