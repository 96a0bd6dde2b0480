package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type stubGenerator struct {
	text     string
	image    string
	err      error
	lastSys  string
	lastText string
}

func (s *stubGenerator) GenerateText(_ context.Context, prompt, system string) (string, error) {
	s.lastText = prompt
	s.lastSys = system
	return s.text, s.err
}

func (s *stubGenerator) GenerateImage(context.Context, string) (string, error) {
	return s.image, s.err
}

func TestRespond(t *testing.T) {
	gen := &stubGenerator{text: "Acknowledged, Citizen."}
	svc := NewService(gen, zerolog.Nop())

	got := svc.Respond(context.Background(), "status report")
	if got != "Acknowledged, Citizen." {
		t.Fatalf("ожидали ответ модели, получили %q", got)
	}
	if gen.lastSys == "" {
		t.Fatal("ответ ассистента должен идти с системной инструкцией")
	}
}

func TestRespondFallback(t *testing.T) {
	gen := &stubGenerator{err: errors.New("quota exceeded")}
	svc := NewService(gen, zerolog.Nop())

	if got := svc.Respond(context.Background(), "hi"); got != "Data stream interrupted." {
		t.Fatalf("ожидали запасной ответ, получили %q", got)
	}
}

func TestRespondFallbackOnEmpty(t *testing.T) {
	gen := &stubGenerator{text: "   "}
	svc := NewService(gen, zerolog.Nop())

	if got := svc.Respond(context.Background(), "hi"); got != "Data stream interrupted." {
		t.Fatalf("пустой ответ модели должен заменяться запасным, получили %q", got)
	}
}

func TestCaptionFallback(t *testing.T) {
	gen := &stubGenerator{err: errors.New("down")}
	svc := NewService(gen, zerolog.Nop())

	if got := svc.Caption(context.Background(), "sunset"); got != "Scanning the neural network for thoughts..." {
		t.Fatalf("ожидали запасную подпись, получили %q", got)
	}
}

func TestCaptionPromptMentionsTopic(t *testing.T) {
	gen := &stubGenerator{text: "caption"}
	svc := NewService(gen, zerolog.Nop())

	svc.Caption(context.Background(), "quantum skates")
	if gen.lastText == "" || gen.lastSys != "" {
		t.Fatal("подпись генерируется без системной инструкции")
	}
}

func TestPortraitImageFallback(t *testing.T) {
	gen := &stubGenerator{err: errors.New("down")}
	svc := NewService(gen, zerolog.Nop())

	if got := svc.PortraitImage(context.Background(), "me"); got != "" {
		t.Fatalf("отказ генерации изображения должен давать пустую строку, получили %q", got)
	}
}

func TestConversationStartsWithGreeting(t *testing.T) {
	svc := NewService(&stubGenerator{}, zerolog.Nop())
	conv := svc.Conversation()
	if len(conv.Messages) != 1 || conv.Messages[0].IsMe {
		t.Fatalf("диалог должен начинаться с приветствия ассистента: %+v", conv.Messages)
	}
	if conv.UnreadCount != 1 {
		t.Fatalf("приветствие должно быть непрочитанным, получили %d", conv.UnreadCount)
	}
}

func TestSendMessage(t *testing.T) {
	gen := &stubGenerator{text: "Reply from 2088."}
	svc := NewService(gen, zerolog.Nop())

	conv := svc.SendMessage(context.Background(), "hello", "citizen_0001")
	if len(conv.Messages) != 3 {
		t.Fatalf("ожидали приветствие + вопрос + ответ, получили %d", len(conv.Messages))
	}
	if !conv.Messages[1].IsMe || conv.Messages[2].IsMe {
		t.Fatal("порядок сообщений нарушен")
	}
	if conv.LastMessage != "Reply from 2088." || conv.UnreadCount != 0 {
		t.Fatalf("сводка диалога не обновилась: %+v", conv)
	}
}
