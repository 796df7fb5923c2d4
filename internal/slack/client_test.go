package slack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	opts = append(opts, WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	return NewClient("xoxb-test", opts...)
}

func TestClient_UserIDByEmail(t *testing.T) {
	t.Run("resolves via the directory and caches the result", func(t *testing.T) {
		var calls int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			if r.URL.Path != "/users.lookupByEmail" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer xoxb-test" {
				t.Errorf("unexpected authorization header %q", got)
			}
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			if got := r.PostForm.Get("email"); got != "alice@example.com" {
				t.Errorf("unexpected email %q", got)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok":   true,
				"user": map[string]string{"id": "U123"},
			})
		})

		for i := 0; i < 2; i++ {
			userID, err := client.UserIDByEmail(context.Background(), "Alice@Example.com")
			if err != nil {
				t.Fatalf("UserIDByEmail returned error: %v", err)
			}
			if userID != "U123" {
				t.Fatalf("expected U123, got %q", userID)
			}
		}
		if got := atomic.LoadInt32(&calls); got != 1 {
			t.Fatalf("expected one API call, got %d", got)
		}
	})

	t.Run("overrides bypass the API", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected API call")
		}, WithUserOverrides(map[string]string{"bob@example.com": "U456"}))

		userID, err := client.UserIDByEmail(context.Background(), "bob@example.com")
		if err != nil {
			t.Fatalf("UserIDByEmail returned error: %v", err)
		}
		if userID != "U456" {
			t.Fatalf("expected U456, got %q", userID)
		}
	})

	t.Run("maps users_not_found to ErrUserNotFound", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "users_not_found"})
		})

		_, err := client.UserIDByEmail(context.Background(), "ghost@example.com")
		if !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("other API errors surface with their code", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "ratelimited"})
		})

		_, err := client.UserIDByEmail(context.Background(), "alice@example.com")
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.Code != "ratelimited" {
			t.Fatalf("expected ratelimited, got %q", apiErr.Code)
		}
	})

	t.Run("empty email never hits the API", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected API call")
		})

		if _, err := client.UserIDByEmail(context.Background(), "  "); !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestClient_OpenDirectChannel(t *testing.T) {
	t.Run("opens and caches the channel", func(t *testing.T) {
		var calls int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			if r.URL.Path != "/conversations.open" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode body: %v", err)
			}
			if body["users"] != "U123" {
				t.Errorf("unexpected users %q", body["users"])
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok":      true,
				"channel": map[string]string{"id": "D999"},
			})
		})

		for i := 0; i < 2; i++ {
			channelID, err := client.OpenDirectChannel(context.Background(), "U123")
			if err != nil {
				t.Fatalf("OpenDirectChannel returned error: %v", err)
			}
			if channelID != "D999" {
				t.Fatalf("expected D999, got %q", channelID)
			}
		}
		if got := atomic.LoadInt32(&calls); got != 1 {
			t.Fatalf("expected one API call, got %d", got)
		}
	})

	t.Run("missing channel in a success envelope is an error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
		})

		_, err := client.OpenDirectChannel(context.Background(), "U123")
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Code != "missing_channel" {
			t.Fatalf("expected missing_channel, got %v", err)
		}
	})
}

func TestClient_PostMessage(t *testing.T) {
	t.Run("sends text and blocks", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/chat.postMessage" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode body: %v", err)
			}
			if body["channel"] != "D999" {
				t.Errorf("unexpected channel %v", body["channel"])
			}
			if body["text"] != "fallback" {
				t.Errorf("unexpected text %v", body["text"])
			}
			if _, ok := body["blocks"]; !ok {
				t.Error("expected blocks in payload")
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "ts": "1.23"})
		})

		err := client.PostMessage(context.Background(), "D999", Message{
			Text:   "fallback",
			Blocks: []Block{HeaderBlock("Hello")},
		})
		if err != nil {
			t.Fatalf("PostMessage returned error: %v", err)
		}
	})

	t.Run("omits blocks when none are set", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode body: %v", err)
			}
			if _, ok := body["blocks"]; ok {
				t.Error("expected no blocks in payload")
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
		})

		if err := client.PostMessage(context.Background(), "D999", Message{Text: "plain"}); err != nil {
			t.Fatalf("PostMessage returned error: %v", err)
		}
	})

	t.Run("non-2xx responses become API errors", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		err := client.PostMessage(context.Background(), "D999", Message{Text: "plain"})
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Code != "http_502" {
			t.Fatalf("expected http_502, got %v", err)
		}
	})
}
