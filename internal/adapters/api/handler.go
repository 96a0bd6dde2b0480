package api

import (
	"encoding/json"
	"errors"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"univers-nexus/internal/domain"
	"univers-nexus/internal/usecase/assistant"
	"univers-nexus/internal/usecase/feed"
	"univers-nexus/internal/usecase/notify"
	"univers-nexus/internal/usecase/session"
)

// Handler связывает HTTP API презентационного слоя с usecase-сервисами.
type Handler struct {
	log       zerolog.Logger
	feedUC    *feed.Service
	sessionUC *session.Service
	notifyUC  *notify.Service
	aiUC      *assistant.Service
}

// NewHandler создаёт обработчик API.
func NewHandler(log zerolog.Logger, feedUC *feed.Service, sessionUC *session.Service, notifyUC *notify.Service, aiUC *assistant.Service) *Handler {
	return &Handler{log: log, feedUC: feedUC, sessionUC: sessionUC, notifyUC: notifyUC, aiUC: aiUC}
}

// Mount регистрирует маршруты API на роутере.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.login)
		r.Post("/auth/register", h.register)
		r.Post("/auth/logout", h.logout)
		r.Get("/session", h.session)
		r.Get("/profile", h.profile)
		r.Put("/profile", h.updateProfile)
		r.Delete("/account", h.deleteAccount)

		r.Get("/feed", h.journal)
		r.Get("/reels", h.reels)
		r.Get("/stories", h.stories)
		r.Get("/news", h.news)
		r.Get("/shop", h.shop)

		r.Post("/publish", h.publish)
		r.Post("/items/{id}/like", h.toggleLike)
		r.Delete("/items/{id}", h.deleteItem)
		r.Post("/items/{id}/comments", h.submitComment)
		r.Post("/items/{id}/comments/{commentID}/like", h.toggleCommentLike)
		r.Post("/stories/{id}/responses", h.storyResponse)

		r.Get("/notifications", h.notifications)

		r.Get("/messenger", h.messenger)
		r.Post("/messenger/messages", h.sendMessage)
		r.Post("/studio/caption", h.caption)
		r.Post("/studio/image", h.image)
	})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	LastName string `json:"post_nom"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	profile, err := h.sessionUC.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.log.Warn().Err(err).Msg("api: вход не удался")
		writeError(w, http.StatusUnauthorized, "authentication failed")
		return
	}
	writeJSON(w, map[string]any{"profile": profile})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	profile, err := h.sessionUC.Register(r.Context(), req.Email, req.Password, req.Name, req.LastName)
	if err != nil {
		h.log.Warn().Err(err).Msg("api: регистрация не удалась")
		writeError(w, http.StatusUnauthorized, "registration failed")
		return
	}
	writeJSON(w, map[string]any{"profile": profile})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.sessionUC.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionUC.CurrentSession()
	if !ok {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}
	writeJSON(w, map[string]any{"session": sess, "profile": h.sessionUC.CurrentProfile()})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.sessionUC.CurrentProfile())
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var update session.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	profile, err := h.sessionUC.UpdateProfile(update)
	if err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			writeError(w, http.StatusUnauthorized, "no active session")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, profile)
}

type deleteAccountRequest struct {
	ConfirmationEmail string `json:"confirmation_email"`
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	var req deleteAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.sessionUC.DeleteAccount(req.ConfirmationEmail); err != nil {
		switch {
		case errors.Is(err, session.ErrConfirmationMismatch):
			writeError(w, http.StatusForbidden, "verification failed")
		case errors.Is(err, session.ErrNotAuthenticated):
			writeError(w, http.StatusUnauthorized, "no active session")
		default:
			h.log.Error().Err(err).Msg("api: уничтожение аккаунта не удалось")
			writeError(w, http.StatusInternalServerError, "account deletion failed")
		}
		return
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

func (h *Handler) journal(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, itemsPayload(h.feedUC.Journal(r.URL.Query().Get("q"))))
}

func (h *Handler) reels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, itemsPayload(h.feedUC.Reels()))
}

func (h *Handler) stories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, itemsPayload(h.feedUC.Stories()))
}

func (h *Handler) news(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, itemsPayload(h.feedUC.News()))
}

func (h *Handler) shop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, itemsPayload(h.feedUC.Shop()))
}

type publishRequest struct {
	Content   string   `json:"content"`
	MediaURLs []string `json:"mediaUrls"`
	MediaType string   `json:"mediaType"`
	Target    string   `json:"target"`
	Title     string   `json:"title"`
	Source    string   `json:"source"`
	Category  string   `json:"category"`
	Price     string   `json:"price"`
	Currency  string   `json:"currency"`
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mediaType := domain.MediaImage
	if req.MediaType == string(domain.MediaVideo) {
		mediaType = domain.MediaVideo
	}
	draft := feed.Draft{
		Content:   req.Content,
		MediaURLs: req.MediaURLs,
		MediaType: mediaType,
		Title:     req.Title,
		Source:    req.Source,
		Category:  req.Category,
		Price:     req.Price,
		Currency:  req.Currency,
	}
	item, view, err := h.feedUC.Publish(draft, parseChannel(req.Target))
	if err != nil {
		if errors.Is(err, feed.ErrNoMedia) {
			writeError(w, http.StatusUnprocessableEntity, "media is required")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]any{"item": item, "view": view})
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request) {
	h.feedUC.ToggleLike(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	h.feedUC.DeleteItem(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

type commentRequest struct {
	Text    string `json:"text"`
	ReplyTo string `json:"reply_to"`
}

func (h *Handler) submitComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	profile := h.sessionUC.CurrentProfile()
	comment, err := h.feedUC.SubmitComment(chi.URLParam(r, "id"), req.Text, req.ReplyTo, profile.Handle, profile.Avatar)
	if err != nil {
		switch {
		case errors.Is(err, feed.ErrEmptyComment):
			writeError(w, http.StatusUnprocessableEntity, "comment text is empty")
		case errors.Is(err, feed.ErrUnknownItem):
			writeError(w, http.StatusNotFound, "item not found")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, comment)
}

func (h *Handler) toggleCommentLike(w http.ResponseWriter, r *http.Request) {
	h.feedUC.ToggleCommentLike(chi.URLParam(r, "id"), chi.URLParam(r, "commentID"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) storyResponse(w http.ResponseWriter, r *http.Request) {
	h.feedUC.SubmitStoryComment(chi.URLParam(r, "id"), h.sessionUC.CurrentProfile().Handle)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) notifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"notifications": h.notifyUC.List(),
		"badge":         h.notifyUC.HasAny(),
	})
}

func (h *Handler) messenger(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"conversations": []domain.Conversation{h.aiUC.Conversation()}})
}

type messageRequest struct {
	Text string `json:"text"`
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	conv := h.aiUC.SendMessage(r.Context(), req.Text, h.sessionUC.CurrentProfile().Handle)
	writeJSON(w, conv)
}

type promptRequest struct {
	Topic  string `json:"topic"`
	Prompt string `json:"prompt"`
}

func (h *Handler) caption(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, map[string]string{"caption": h.aiUC.Caption(r.Context(), req.Topic)})
}

func (h *Handler) image(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	dataURL := h.aiUC.PortraitImage(r.Context(), req.Prompt)
	writeJSON(w, map[string]any{"image": dataURL, "ok": dataURL != ""})
}

func parseChannel(target string) domain.Channel {
	switch target {
	case "REEL", string(domain.ChannelReel):
		return domain.ChannelReel
	case "STORY", string(domain.ChannelStory):
		return domain.ChannelStory
	case "NEWS", string(domain.ChannelNews):
		return domain.ChannelNews
	case "SHOP", string(domain.ChannelShop):
		return domain.ChannelShop
	default:
		return domain.ChannelJournal
	}
}

func itemsPayload(items []domain.ContentItem) map[string]any {
	if items == nil {
		items = []domain.ContentItem{}
	}
	return map[string]any{"items": items}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}
