package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"univers-nexus/internal/domain"
	"univers-nexus/internal/infra/metrics"
)

const (
	// systemInstruction задаёт личность ассистента AETHER-1.
	systemInstruction = "You are 'AETHER-1', a high-tech AI social assistant in a futuristic world. You are helpful, concise, and sound like a machine-human hybrid from the year 2088."

	greeting = "Bienvenue dans le Nexus, Citoyen. Je suis AETHER-1, votre assistant de synchronisation universelle."

	// Запасные значения при отказе генеративного бэкенда. Отказ никогда не
	// доходит до вызывающего как ошибка.
	fallbackResponse = "Data stream interrupted."
	fallbackCaption  = "Scanning the neural network for thoughts..."

	assistantName   = "AETHER-1 AI"
	assistantHandle = "aether_1"
)

// Service общается с генеративным бэкендом и ведёт диалог мессенджера.
type Service struct {
	gen domain.Generator
	log zerolog.Logger

	mu   sync.Mutex
	conv domain.Conversation
}

// NewService создаёт ассистента с приветственным сообщением в диалоге.
func NewService(gen domain.Generator, logger zerolog.Logger) *Service {
	s := &Service{gen: gen, log: logger}
	s.conv = domain.Conversation{
		ID: domain.NewTimeID(),
		User: domain.Author{
			Name:     assistantName,
			Handle:   assistantHandle,
			Avatar:   "https://api.dicebear.com/7.x/bottts/svg?seed=aether",
			Verified: true,
		},
		LastMessage: greeting,
		Time:        "Just now",
		UnreadCount: 1,
		Messages: []domain.ChatMessage{{
			ID:     domain.NewTimeID(),
			Sender: assistantName,
			Text:   greeting,
			Time:   "Just now",
		}},
	}
	return s
}

// Respond возвращает ответ ассистента на запрос пользователя.
func (s *Service) Respond(ctx context.Context, query string) string {
	text, err := s.gen.GenerateText(ctx, query, systemInstruction)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			s.log.Warn().Err(err).Msg("assistant: генерация ответа не удалась")
		}
		metrics.IncAIFallback("respond")
		return fallbackResponse
	}
	return text
}

// Caption генерирует короткую подпись к публикации на заданную тему.
func (s *Service) Caption(ctx context.Context, topic string) string {
	prompt := fmt.Sprintf("Generate a short, viral, futuristic social media caption for a post about: %s. Use 1-2 emojis.", topic)
	text, err := s.gen.GenerateText(ctx, prompt, "")
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			s.log.Warn().Err(err).Msg("assistant: генерация подписи не удалась")
		}
		metrics.IncAIFallback("caption")
		return fallbackCaption
	}
	return text
}

// PortraitImage генерирует портретное изображение и возвращает data-URL.
// Пустая строка означает отказ генерации; ошибки наружу не отдаются.
func (s *Service) PortraitImage(ctx context.Context, prompt string) string {
	wrapped := "A hyper-realistic, high-end commercial photography portrait of a real human being. " +
		"NO ROBOTIC PARTS, NO CYBERNETICS, NO SCI-FI METAL. Pure human skin texture, realistic eyes, " +
		"natural hair, professional studio lighting. The setting can be futuristic but the PERSON must be 100% human. " +
		"Prompt: " + prompt + "."
	dataURL, err := s.gen.GenerateImage(ctx, wrapped)
	if err != nil || dataURL == "" {
		if err != nil {
			s.log.Warn().Err(err).Msg("assistant: генерация изображения не удалась")
		}
		metrics.IncAIFallback("image")
		return ""
	}
	return dataURL
}

// SendMessage добавляет сообщение пользователя в диалог, получает ответ
// ассистента и возвращает обновлённый диалог.
func (s *Service) SendMessage(ctx context.Context, text, sender string) domain.Conversation {
	userMsg := domain.ChatMessage{
		ID:     domain.NewTimeID(),
		Sender: sender,
		Text:   text,
		Time:   "Just now",
		IsMe:   true,
	}
	reply := s.Respond(ctx, text)
	aiMsg := domain.ChatMessage{
		ID:     domain.NewTimeID(),
		Sender: assistantName,
		Text:   reply,
		Time:   "Just now",
	}

	s.mu.Lock()
	s.conv.Messages = append(s.conv.Messages, userMsg, aiMsg)
	s.conv.LastMessage = reply
	s.conv.Time = "Just now"
	s.conv.UnreadCount = 0
	conv := s.snapshotLocked()
	s.mu.Unlock()
	return conv
}

// Conversation возвращает копию текущего диалога.
func (s *Service) Conversation() domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() domain.Conversation {
	conv := s.conv
	conv.Messages = make([]domain.ChatMessage, len(s.conv.Messages))
	copy(conv.Messages, s.conv.Messages)
	return conv
}
