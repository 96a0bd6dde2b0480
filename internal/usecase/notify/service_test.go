package notify

import (
	"testing"

	"univers-nexus/internal/domain"
)

func TestPushNewestFirst(t *testing.T) {
	svc := NewService()
	svc.Push("first", domain.NoticeLike)
	svc.Push("second", domain.NoticeComment)

	list := svc.List()
	if len(list) != 2 {
		t.Fatalf("ожидали 2 уведомления, получили %d", len(list))
	}
	if list[0].Text != "second" || list[1].Text != "first" {
		t.Fatalf("новые уведомления должны быть в начале: %+v", list)
	}
	if list[0].ID == list[1].ID {
		t.Fatal("идентификаторы уведомлений должны быть уникальны")
	}
	if list[0].Kind != domain.NoticeComment {
		t.Fatalf("категория не сохранилась: %+v", list[0])
	}
}

func TestBadge(t *testing.T) {
	svc := NewService()
	if svc.HasAny() {
		t.Fatal("пустой список не должен включать бейдж")
	}
	svc.Push("x", domain.NoticeInfo)
	if !svc.HasAny() {
		t.Fatal("после уведомления бейдж должен включиться")
	}
}

func TestReset(t *testing.T) {
	svc := NewService()
	svc.Push("x", domain.NoticeInfo)
	svc.Reset()
	if svc.HasAny() || len(svc.List()) != 0 {
		t.Fatal("сброс должен очистить список")
	}
}

func TestListReturnsCopy(t *testing.T) {
	svc := NewService()
	svc.Push("x", domain.NoticeInfo)
	list := svc.List()
	list[0].Text = "mutated"
	if svc.List()[0].Text != "x" {
		t.Fatal("List не должен отдавать внутренний срез")
	}
}
