package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"univers-nexus/internal/domain"
	"univers-nexus/internal/infra/metrics"
)

// Client выполняет запросы к GoTrue REST API бэкенда аутентификации.
type Client struct {
	http    *http.Client
	baseURL string
	anonKey string
}

var _ domain.AuthProvider = (*Client)(nil)

// NewClient создаёт клиента аутентификации.
func NewClient(baseURL, anonKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
	}
}

type credentialsRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data,omitempty"`
}

type authResponse struct {
	AccessToken string   `json:"access_token"`
	User        authUser `json:"user"`
	// Ответ /signup без подтверждения email кладёт пользователя в корень.
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

type authUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

type apiErrorResponse struct {
	Message          string `json:"msg"`
	ErrorDescription string `json:"error_description"`
}

// SignIn выполняет вход по email и паролю.
func (c *Client) SignIn(ctx context.Context, email, password string) (domain.Identity, error) {
	body := credentialsRequest{Email: email, Password: password}
	resp, err := c.post(ctx, "/auth/v1/token?grant_type=password", "sign_in", body)
	if err != nil {
		return domain.Identity{}, err
	}
	return c.identityFrom(resp), nil
}

// SignUp регистрирует пользователя с метаданными имени.
func (c *Client) SignUp(ctx context.Context, email, password, name, lastName string) (domain.Identity, error) {
	body := credentialsRequest{
		Email:    email,
		Password: password,
		Data:     map[string]any{"name": name, "post_nom": lastName},
	}
	resp, err := c.post(ctx, "/auth/v1/signup", "sign_up", body)
	if err != nil {
		return domain.Identity{}, err
	}
	return c.identityFrom(resp), nil
}

func (c *Client) post(ctx context.Context, path, operation string, body credentialsRequest) (authResponse, error) {
	if c.baseURL == "" {
		return authResponse{}, fmt.Errorf("auth: base url is empty")
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return authResponse{}, fmt.Errorf("auth: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return authResponse{}, fmt.Errorf("auth: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.anonKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("auth", operation, start, err)
		return authResponse{}, fmt.Errorf("auth: do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("auth", operation, start, err)
		return authResponse{}, fmt.Errorf("auth: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr apiErrorResponse
		if err := json.Unmarshal(raw, &apiErr); err == nil {
			msg := apiErr.Message
			if msg == "" {
				msg = apiErr.ErrorDescription
			}
			if msg != "" {
				err = fmt.Errorf("auth: %s", msg)
				metrics.ObserveNetworkRequest("auth", operation, start, err)
				return authResponse{}, err
			}
		}
		err = fmt.Errorf("auth: unexpected status %d", resp.StatusCode)
		metrics.ObserveNetworkRequest("auth", operation, start, err)
		return authResponse{}, err
	}
	var parsed authResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		metrics.ObserveNetworkRequest("auth", operation, start, err)
		return authResponse{}, fmt.Errorf("auth: decode response: %w", err)
	}
	metrics.ObserveNetworkRequest("auth", operation, start, nil)
	return parsed, nil
}

func (c *Client) identityFrom(resp authResponse) domain.Identity {
	user := resp.User
	if user.ID == "" {
		user = authUser{ID: resp.ID, Email: resp.Email, UserMetadata: resp.UserMetadata}
	}
	return domain.Identity{
		ID:       user.ID,
		Email:    user.Email,
		Name:     metaString(user.UserMetadata, "name"),
		LastName: metaString(user.UserMetadata, "post_nom"),
	}
}

func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}
