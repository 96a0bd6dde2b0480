package feed

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"univers-nexus/internal/domain"
	"univers-nexus/internal/infra/metrics"
)

var (
	// ErrNoMedia возвращается при публикации без единого медиа.
	ErrNoMedia = errors.New("публикация без медиа запрещена")
	// ErrEmptyComment возвращается на пустой текст комментария.
	ErrEmptyComment = errors.New("пустой комментарий")
	// ErrUnknownItem возвращается при комментировании отсутствующей публикации.
	ErrUnknownItem = errors.New("публикация не найдена")
)

const defaultAuthorName = "Citizen"

// ProfileSource выдаёт профиль текущей сессии для атрибуции контента.
type ProfileSource interface {
	CurrentProfile() domain.Profile
}

// Draft содержит сырые поля новой публикации до маршрутизации.
type Draft struct {
	Content   string
	MediaURLs []string
	MediaType domain.MediaType
	Title     string
	Source    string
	Category  string
	Price     string
	Currency  string
}

// Service владеет тремя коллекциями контента и применяет к ним мутации.
// Все мутации сериализуются мьютексом: модель исполнения — один обработчик
// за раз.
type Service struct {
	repo       domain.ContentRepo
	notifier   domain.Notifier
	profiles   ProfileSource
	log        zerolog.Logger
	previewLen int

	mu   sync.Mutex
	cols domain.Collections
}

// NewService создаёт сервис ленты и восстанавливает коллекции из зеркала.
// Отсутствующее или нечитаемое зеркало не мешает запуску: коллекции просто
// остаются пустыми.
func NewService(repo domain.ContentRepo, notifier domain.Notifier, profiles ProfileSource, previewLen int, logger zerolog.Logger) *Service {
	s := &Service{repo: repo, notifier: notifier, profiles: profiles, previewLen: previewLen, log: logger}
	if s.previewLen <= 0 {
		s.previewLen = 20
	}
	cols, err := repo.Load()
	if err != nil {
		logger.Warn().Err(err).Msg("feed: зеркало не прочитано, старт с пустыми коллекциями")
		cols = domain.Collections{}
	}
	s.cols = cols
	return s
}

// Publish маршрутизирует новую публикацию в нужную коллекцию и возвращает
// заполненный элемент вместе с экраном, на который следует перейти.
func (s *Service) Publish(draft Draft, dest domain.Channel) (domain.ContentItem, domain.View, error) {
	if len(draft.MediaURLs) == 0 {
		return domain.ContentItem{}, "", ErrNoMedia
	}

	profile := s.profiles.CurrentProfile()
	name := profile.Name
	if name == "" {
		name = defaultAuthorName
	}

	item := domain.ContentItem{
		ID: domain.NewTimeID(),
		User: domain.Author{
			Name:     name,
			Handle:   profile.Handle,
			Avatar:   profile.Avatar,
			Verified: true,
		},
		Content:     draft.Content,
		MediaURL:    draft.MediaURLs[0],
		MediaURLs:   draft.MediaURLs,
		MediaType:   draft.MediaType,
		CommentList: []domain.Comment{},
		Timestamp:   time.Now().UnixMilli(),
		Title:       draft.Title,
		Source:      draft.Source,
		Category:    draft.Category,
		Price:       draft.Price,
		Currency:    draft.Currency,
	}

	view := domain.ViewFeed
	s.mu.Lock()
	switch dest {
	case domain.ChannelReel:
		s.cols.Reels = append([]domain.ContentItem{item}, s.cols.Reels...)
		view = domain.ViewPulse
	case domain.ChannelStory:
		item.IsStory = true
		s.cols.Stories = append([]domain.ContentItem{item}, s.cols.Stories...)
	case domain.ChannelNews:
		item.IsNews = true
		s.cols.Posts = append([]domain.ContentItem{item}, s.cols.Posts...)
		view = domain.ViewNews
	case domain.ChannelShop:
		item.IsProduct = true
		if item.Currency == "" {
			item.Currency = "USD"
		}
		s.cols.Posts = append([]domain.ContentItem{item}, s.cols.Posts...)
		view = domain.ViewShop
	default:
		s.cols.Posts = append([]domain.ContentItem{item}, s.cols.Posts...)
	}
	s.persistLocked()
	s.mu.Unlock()

	metrics.PublishTotal.WithLabelValues(string(dest)).Inc()
	return item, view, nil
}

// ToggleLike переключает лайк публикации в той коллекции, где она находится.
// Счётчик и флаг двигаются строго в паре. Отсутствующий id — тихий no-op.
func (s *Service) ToggleLike(itemID string) {
	s.mu.Lock()
	item := s.locate(itemID)
	if item == nil {
		s.mu.Unlock()
		return
	}
	becameLiked := !item.IsLiked
	if becameLiked {
		item.Likes++
	} else {
		item.Likes--
	}
	item.IsLiked = becameLiked
	isStory := item.IsStory
	s.persistLocked()
	s.mu.Unlock()

	direction := "unlike"
	if becameLiked {
		direction = "like"
	}
	metrics.LikeToggleTotal.WithLabelValues(direction).Inc()

	if becameLiked {
		subject := "post"
		if isStory {
			subject = "story"
		}
		s.notifier.Push(fmt.Sprintf("Someone liked your %s.", subject), domain.NoticeLike)
	}
}

// ToggleCommentLike переключает лайк комментария внутри публикации.
// Уведомление уходит только при переходе в состояние «лайкнут» — та же
// политика, что и для публикаций.
func (s *Service) ToggleCommentLike(itemID, commentID string) {
	s.mu.Lock()
	item := s.locate(itemID)
	if item == nil {
		s.mu.Unlock()
		return
	}
	var becameLiked, found bool
	for i := range item.CommentList {
		c := &item.CommentList[i]
		if c.ID != commentID {
			continue
		}
		found = true
		becameLiked = !c.IsLiked
		if becameLiked {
			c.Likes++
		} else {
			c.Likes--
		}
		c.IsLiked = becameLiked
		break
	}
	if found {
		s.persistLocked()
	}
	s.mu.Unlock()

	if found && becameLiked {
		s.notifier.Push("A comment on your post was liked.", domain.NoticeLike)
	}
}

// SubmitComment добавляет ровно один комментарий и увеличивает счётчик на 1.
// Ответ на другой комментарий представлен только текстовым префиксом
// "@handle " — структурной вложенности нет.
func (s *Service) SubmitComment(itemID, text, replyTo, authorHandle, authorAvatar string) (domain.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Comment{}, ErrEmptyComment
	}
	if replyTo != "" {
		text = "@" + replyTo + " " + text
	}
	comment := domain.Comment{
		ID:     domain.NewTimeID(),
		Handle: authorHandle,
		Avatar: authorAvatar,
		Text:   text,
		Time:   "Just now",
	}

	s.mu.Lock()
	item := s.locate(itemID)
	if item == nil {
		s.mu.Unlock()
		return domain.Comment{}, ErrUnknownItem
	}
	item.CommentList = append(item.CommentList, comment)
	item.Comments++
	s.persistLocked()
	s.mu.Unlock()

	metrics.CommentTotal.Inc()
	s.notifier.Push(fmt.Sprintf("New signal on your post: %q...", preview(text, s.previewLen)), domain.NoticeComment)
	return comment, nil
}

// SubmitStoryComment увеличивает счётчик ответов на историю. Сами ответы не
// сохраняются.
func (s *Service) SubmitStoryComment(storyID, authorHandle string) {
	s.mu.Lock()
	var bumped bool
	for i := range s.cols.Stories {
		if s.cols.Stories[i].ID == storyID {
			s.cols.Stories[i].Comments++
			bumped = true
			break
		}
	}
	if bumped {
		s.persistLocked()
	}
	s.mu.Unlock()

	if bumped {
		s.notifier.Push("New story response from @"+authorHandle, domain.NoticeComment)
	}
}

// DeleteItem удаляет публикацию из той коллекции, где она находится.
// Отсутствующий id — тихий no-op, остальные коллекции не трогаются.
func (s *Service) DeleteItem(itemID string) {
	s.mu.Lock()
	removed := false
	s.cols.Posts, removed = removeByID(s.cols.Posts, itemID, removed)
	s.cols.Reels, removed = removeByID(s.cols.Reels, itemID, removed)
	s.cols.Stories, removed = removeByID(s.cols.Stories, itemID, removed)
	if removed {
		s.persistLocked()
	}
	s.mu.Unlock()

	if removed {
		metrics.DeleteTotal.Inc()
	}
}

// Journal возвращает общую ленту: без товаров, новостей и историй.
// Непустой query фильтрует по тексту и хэндлу автора без учёта регистра.
func (s *Service) Journal(query string) []domain.ContentItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.ContentItem, 0, len(s.cols.Posts))
	for _, item := range s.cols.Posts {
		if item.IsProduct || item.IsNews || item.IsStory {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(item.Content), query) &&
			!strings.Contains(strings.ToLower(item.User.Handle), query) {
			continue
		}
		out = append(out, cloneItem(item))
	}
	return out
}

// Reels возвращает коллекцию коротких видео.
func (s *Service) Reels() []domain.ContentItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.cols.Reels)
}

// Stories возвращает коллекцию историй.
func (s *Service) Stories() []domain.ContentItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.cols.Stories)
}

// News возвращает новостные публикации из общей коллекции.
func (s *Service) News() []domain.ContentItem {
	return s.filterPosts(func(item domain.ContentItem) bool { return item.IsNews })
}

// Shop возвращает товарные публикации из общей коллекции.
func (s *Service) Shop() []domain.ContentItem {
	return s.filterPosts(func(item domain.ContentItem) bool { return item.IsProduct })
}

// WipeAll очищает коллекции и зеркало целиком. Используется при уничтожении
// аккаунта.
func (s *Service) WipeAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cols = domain.Collections{}
	if err := s.repo.Wipe(); err != nil {
		return fmt.Errorf("очистка зеркала: %w", err)
	}
	return nil
}

func (s *Service) filterPosts(keep func(domain.ContentItem) bool) []domain.ContentItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ContentItem
	for _, item := range s.cols.Posts {
		if keep(item) {
			out = append(out, cloneItem(item))
		}
	}
	return out
}

// locate ищет публикацию по id во всех трёх коллекциях. Вызывается под
// мьютексом; возвращаемый указатель действителен до следующей мутации.
func (s *Service) locate(itemID string) *domain.ContentItem {
	for _, list := range [][]domain.ContentItem{s.cols.Posts, s.cols.Reels, s.cols.Stories} {
		for i := range list {
			if list[i].ID == itemID {
				return &list[i]
			}
		}
	}
	return nil
}

// persistLocked пишет зеркало после мутации. Ошибка записи не откатывает
// состояние: зеркало — побочный эффект без контракта возврата.
func (s *Service) persistLocked() {
	if err := s.repo.Persist(s.cols); err != nil {
		metrics.PersistErrors.Inc()
		s.log.Error().Err(err).Msg("feed: запись зеркала не удалась")
	}
}

func removeByID(list []domain.ContentItem, itemID string, already bool) ([]domain.ContentItem, bool) {
	for i := range list {
		if list[i].ID == itemID {
			return append(list[:i:i], list[i+1:]...), true
		}
	}
	return list, already
}

// cloneItem копирует публикацию вместе со списком комментариев. Снимки для
// чтения не должны делить память комментариев с живыми коллекциями:
// ToggleCommentLike мутирует комментарии на месте.
func cloneItem(item domain.ContentItem) domain.ContentItem {
	if len(item.CommentList) > 0 {
		comments := make([]domain.Comment, len(item.CommentList))
		copy(comments, item.CommentList)
		item.CommentList = comments
	}
	return item
}

func cloneItems(list []domain.ContentItem) []domain.ContentItem {
	out := make([]domain.ContentItem, len(list))
	for i, item := range list {
		out[i] = cloneItem(item)
	}
	return out
}

func preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
