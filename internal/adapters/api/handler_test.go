package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"univers-nexus/internal/adapters/repo"
	"univers-nexus/internal/domain"
	"univers-nexus/internal/usecase/assistant"
	"univers-nexus/internal/usecase/feed"
	"univers-nexus/internal/usecase/notify"
	"univers-nexus/internal/usecase/session"
)

type stubAuth struct{}

func (stubAuth) SignIn(context.Context, string, string) (domain.Identity, error) {
	return domain.Identity{ID: "abcd-1234", Email: "ada@nexus.io", Name: "Ada Lovelace"}, nil
}

func (stubAuth) SignUp(context.Context, string, string, string, string) (domain.Identity, error) {
	return domain.Identity{ID: "efgh-5678", Email: "new@nexus.io", Name: "Grace"}, nil
}

type stubGenerator struct{}

func (stubGenerator) GenerateText(context.Context, string, string) (string, error) {
	return "Acknowledged.", nil
}

func (stubGenerator) GenerateImage(context.Context, string) (string, error) {
	return "data:image/png;base64,AAA", nil
}

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	store, err := repo.NewJSONStore(t.TempDir())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	notifyUC := notify.NewService()
	sessionUC := session.NewService(stubAuth{}, nil, nil, notifyUC, false, 1000, zerolog.Nop())
	feedUC := feed.NewService(store, notifyUC, sessionUC, 20, zerolog.Nop())
	sessionUC.AttachWiper(feedUC)
	aiUC := assistant.NewService(stubGenerator{}, zerolog.Nop())

	r := chi.NewRouter()
	NewHandler(zerolog.Nop(), feedUC, sessionUC, notifyUC, aiUC).Mount(r)
	return r
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	} else {
		buf.WriteString("{}")
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestLoginAndProfile(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ada@nexus.io", "password": "s"})
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/profile", nil)
	var profile domain.Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatal(err)
	}
	if profile.Handle != "ada_lovelace_1234" {
		t.Fatalf("ожидали производный хэндл, получили %q", profile.Handle)
	}
}

func TestPublishAndFeedFlow(t *testing.T) {
	r := newTestRouter(t)
	doJSON(t, r, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ada@nexus.io", "password": "s"})

	rec := doJSON(t, r, http.MethodPost, "/api/v1/publish", map[string]any{
		"content":   "hello",
		"mediaUrls": []string{"data:image/png;base64,AAA"},
		"mediaType": "image",
		"target":    "REEL",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d: %s", rec.Code, rec.Body)
	}
	var published struct {
		Item domain.ContentItem `json:"item"`
		View domain.View        `json:"view"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &published); err != nil {
		t.Fatal(err)
	}
	if published.View != domain.ViewPulse {
		t.Fatalf("публикация reel должна вести на экран pulse, получили %s", published.View)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/reels", nil)
	var reels struct {
		Items []domain.ContentItem `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &reels); err != nil {
		t.Fatal(err)
	}
	if len(reels.Items) != 1 || reels.Items[0].ID != published.Item.ID {
		t.Fatalf("ожидали публикацию в коллекции reels: %+v", reels.Items)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/feed", nil)
	var journal struct {
		Items []domain.ContentItem `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &journal); err != nil {
		t.Fatal(err)
	}
	if len(journal.Items) != 0 {
		t.Fatal("reel не должен попадать в общую ленту")
	}
}

func TestPublishWithoutMedia(t *testing.T) {
	r := newTestRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/api/v1/publish", map[string]any{"content": "x", "target": "JOURNAL"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("ожидали 422, получили %d", rec.Code)
	}
}

func TestLikeCommentNotificationFlow(t *testing.T) {
	r := newTestRouter(t)
	doJSON(t, r, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ada@nexus.io", "password": "s"})

	rec := doJSON(t, r, http.MethodPost, "/api/v1/publish", map[string]any{
		"content":   "hello",
		"mediaUrls": []string{"m"},
		"target":    "JOURNAL",
	})
	var published struct {
		Item domain.ContentItem `json:"item"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &published); err != nil {
		t.Fatal(err)
	}
	id := published.Item.ID

	if rec := doJSON(t, r, http.MethodPost, "/api/v1/items/"+id+"/like", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("ожидали 204, получили %d", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodPost, "/api/v1/items/"+id+"/comments", map[string]string{"text": "hi"}); rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d: %s", rec.Code, rec.Body)
	}
	if rec := doJSON(t, r, http.MethodPost, "/api/v1/items/missing/comments", map[string]string{"text": "hi"}); rec.Code != http.StatusNotFound {
		t.Fatalf("комментарий к отсутствующей публикации должен давать 404, получили %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/notifications", nil)
	var notifications struct {
		Notifications []domain.Notification `json:"notifications"`
		Badge         bool                  `json:"badge"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &notifications); err != nil {
		t.Fatal(err)
	}
	if len(notifications.Notifications) != 2 || !notifications.Badge {
		t.Fatalf("ожидали уведомления о лайке и комментарии: %+v", notifications)
	}

	if rec := doJSON(t, r, http.MethodDelete, "/api/v1/items/"+id, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("ожидали 204, получили %d", rec.Code)
	}
	rec = doJSON(t, r, http.MethodGet, "/api/v1/feed", nil)
	var journal struct {
		Items []domain.ContentItem `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &journal); err != nil {
		t.Fatal(err)
	}
	if len(journal.Items) != 0 {
		t.Fatal("публикация должна быть удалена")
	}
}

func TestDeleteAccountMismatch(t *testing.T) {
	r := newTestRouter(t)
	doJSON(t, r, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ada@nexus.io", "password": "s"})

	rec := doJSON(t, r, http.MethodDelete, "/api/v1/account", map[string]string{"confirmation_email": "wrong@x.y"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("ожидали 403, получили %d", rec.Code)
	}
	rec = doJSON(t, r, http.MethodGet, "/api/v1/session", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("сессия должна остаться активной, получили %d", rec.Code)
	}
}

func TestMessenger(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/messenger/messages", map[string]string{"text": "hello"})
	var conv domain.Conversation
	if err := json.Unmarshal(rec.Body.Bytes(), &conv); err != nil {
		t.Fatal(err)
	}
	if conv.LastMessage != "Acknowledged." {
		t.Fatalf("ожидали ответ ассистента, получили %q", conv.LastMessage)
	}
}

func TestCaption(t *testing.T) {
	r := newTestRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/api/v1/studio/caption", map[string]string{"topic": "sunset"})
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["caption"] != "Acknowledged." {
		t.Fatalf("ожидали подпись от генератора, получили %q", resp["caption"])
	}
}
