package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSignIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Fatalf("неожиданный запрос: %s %s", r.Method, r.URL)
		}
		if r.Header.Get("apikey") == "" {
			t.Fatal("ожидали заголовок apikey")
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body["email"] != "ada@nexus.io" {
			t.Fatalf("email не передан: %+v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "jwt",
			"user": map[string]any{
				"id":    "abcd-1234",
				"email": "ada@nexus.io",
				"user_metadata": map[string]any{
					"name":     "Ada Lovelace",
					"post_nom": "Byron",
				},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "anon", time.Second)
	identity, err := client.SignIn(context.Background(), "ada@nexus.io", "secret")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if identity.ID != "abcd-1234" || identity.Name != "Ada Lovelace" || identity.LastName != "Byron" {
		t.Fatalf("личность разобрана неверно: %+v", identity)
	}
}

func TestSignUpRootUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/signup" {
			t.Fatalf("неожиданный путь: %s", r.URL.Path)
		}
		// Без подтверждения email GoTrue кладёт пользователя в корень ответа.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "root-5678",
			"email":         "new@nexus.io",
			"user_metadata": map[string]any{"name": "Grace"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "anon", time.Second)
	identity, err := client.SignUp(context.Background(), "new@nexus.io", "secret", "Grace", "Hopper")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if identity.ID != "root-5678" || identity.Name != "Grace" {
		t.Fatalf("личность разобрана неверно: %+v", identity)
	}
}

func TestSignInErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error_description": "Invalid login credentials"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "anon", time.Second)
	_, err := client.SignIn(context.Background(), "a@b.c", "wrong")
	if err == nil || !strings.Contains(err.Error(), "Invalid login credentials") {
		t.Fatalf("ожидали сообщение бэкенда в ошибке, получили %v", err)
	}
}

func TestSignInEmptyBaseURL(t *testing.T) {
	client := NewClient("", "anon", time.Second)
	if _, err := client.SignIn(context.Background(), "a@b.c", "p"); err == nil {
		t.Fatal("пустой base url должен быть ошибкой")
	}
}
