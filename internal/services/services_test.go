package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/twx/internal/models"
	"github.com/desertthunder/twx/internal/shared"
)

func testAccount(t models.BackendType, apiURL string) models.Account {
	return models.Account{
		Key:         models.AccountKey{ID: "1", Host: "example.com"},
		Type:        t,
		APIURL:      apiURL,
		AccessToken: "secret-token",
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func TestTwitterClient(t *testing.T) {
	t.Run("CreateFavorite", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if r.URL.Path != "/1.1/favorites/create.json" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
				t.Errorf("unexpected authorization header: %q", got)
			}
			if err := r.ParseForm(); err != nil {
				t.Fatalf("failed to parse form: %v", err)
			}
			if got := r.PostForm.Get("id"); got != "100" {
				t.Errorf("expected form id=100, got %q", got)
			}

			writeJSON(t, w, http.StatusOK, map[string]any{
				"id_str":         "100",
				"favorited":      true,
				"reply_count":    1,
				"retweet_count":  2,
				"favorite_count": 3,
				"entities": map[string]any{
					"user_mentions": []map[string]any{{"id_str": "7", "screen_name": "seven"}, {"id_str": "7"}},
				},
			})
		}))
		defer server.Close()

		client := NewTwitterClient(server.URL, server.Client())
		account := testAccount(models.BackendTwitter, "")

		result, err := client.Backend().Favorite(context.Background(), account, "100")
		if err != nil {
			t.Fatalf("favorite failed: %v", err)
		}

		want := models.FavoriteState{IsFavorite: true, ReplyCount: 1, RepostCount: 2, FavoriteCount: 3}
		if result.StatusID != "100" || result.State() != want {
			t.Errorf("unexpected result: %+v", result)
		}
		if len(result.Mentions) != 1 || result.Mentions[0] != (models.UserKey{ID: "7", Host: "example.com"}) {
			t.Errorf("expected one deduplicated mention on the account host, got %v", result.Mentions)
		}
	})

	t.Run("AccountAPIURLOverridesDefault", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{"id_str": "5", "favorited": true})
		}))
		defer server.Close()

		client := NewTwitterClient("http://127.0.0.1:1", server.Client())
		if _, err := client.CreateFavorite(context.Background(), testAccount(models.BackendTwitter, server.URL+"/"), "5"); err != nil {
			t.Fatalf("expected account api_url to be used, got %v", err)
		}
	})
}

func TestFanfouClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/favorites/create/abc.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"id":                  "abc",
			"favorited":           true,
			"in_reply_to_user_id": "u1",
			"repost_user_id":      "u2",
		})
	}))
	defer server.Close()

	result, err := NewFanfouClient(server.URL, server.Client()).Backend().Favorite(context.Background(), testAccount(models.BackendFanfou, ""), "abc")
	if err != nil {
		t.Fatalf("favorite failed: %v", err)
	}

	if !result.IsFavorite || result.FavoriteCount != 0 || result.ReplyCount != 0 || result.RepostCount != 0 {
		t.Errorf("expected favorite with zero counters, got %+v", result)
	}
	if len(result.Mentions) != 2 {
		t.Errorf("expected reply and repost users as mentions, got %v", result.Mentions)
	}
}

func TestMastodonClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/statuses/42/favourite" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"id":               "42",
			"favourited":       true,
			"replies_count":    4,
			"reblogs_count":    5,
			"favourites_count": 6,
			"mentions":         []map[string]any{{"id": "9", "acct": "nine@example.com"}},
		})
	}))
	defer server.Close()

	result, err := NewMastodonClient(server.URL, server.Client()).Backend().Favorite(context.Background(), testAccount(models.BackendMastodon, ""), "42")
	if err != nil {
		t.Fatalf("favorite failed: %v", err)
	}

	want := models.FavoriteState{IsFavorite: true, ReplyCount: 4, RepostCount: 5, FavoriteCount: 6}
	if result.State() != want {
		t.Errorf("expected %+v, got %+v", want, result.State())
	}
	if len(result.Mentions) != 1 || result.Mentions[0].ID != "9" {
		t.Errorf("unexpected mentions: %v", result.Mentions)
	}
}

func TestRemoteErrors(t *testing.T) {
	tc := []struct {
		name     string
		status   int
		body     string
		code     ErrorCode
		sentinel error
		message  string
	}{
		{"Unauthorized", http.StatusUnauthorized, `{"errors":[{"code":89,"message":"Invalid or expired token."}]}`, CodeAuth, shared.ErrNotAuthenticated, "Invalid or expired token."},
		{"Forbidden", http.StatusForbidden, `{"error":"This action is not allowed"}`, CodeAuth, shared.ErrNotAuthenticated, "This action is not allowed"},
		{"NotFound", http.StatusNotFound, `{"error":"Record not found"}`, CodeNotFound, shared.ErrRemoteNotFound, "Record not found"},
		{"RateLimited", http.StatusTooManyRequests, ``, CodeRateLimited, shared.ErrRateLimited, "twitter API error: too many requests"},
		{"ServerError", http.StatusInternalServerError, `not json`, CodeHTTPStatus, shared.ErrAPIRequest, "twitter API error: internal server error"},
		{"AlreadyFavorited", http.StatusForbidden, `{"errors":[{"code":139,"message":"You have already favorited this status."}]}`, CodeAuth, shared.ErrNotAuthenticated, "You have already favorited this status."},
		{"Undecodable", http.StatusOK, `{"id_str":`, CodeDecode, shared.ErrAPIRequest, "failed to decode twitter response"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewTwitterClient(server.URL, server.Client()).CreateFavorite(context.Background(), testAccount(models.BackendTwitter, ""), "1")

			var remoteErr *RemoteError
			if !errors.As(err, &remoteErr) {
				t.Fatalf("expected *RemoteError, got %T: %v", err, err)
			}
			if remoteErr.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, remoteErr.Code)
			}
			if remoteErr.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, remoteErr.Message)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("expected error to wrap %v, got %v", tt.sentinel, err)
			}
		})
	}

	t.Run("Timeout", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		defer server.Close()
		defer close(release)

		client := &http.Client{Timeout: 50 * time.Millisecond}
		_, err := NewTwitterClient(server.URL, client).CreateFavorite(context.Background(), testAccount(models.BackendTwitter, ""), "1")

		var remoteErr *RemoteError
		if !errors.As(err, &remoteErr) || remoteErr.Code != CodeTimeout {
			t.Fatalf("expected timeout RemoteError, got %v", err)
		}
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected error to wrap ErrTimeout, got %v", err)
		}
	})

	t.Run("Network", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := NewTwitterClient(url, nil).CreateFavorite(context.Background(), testAccount(models.BackendTwitter, ""), "1")

		var remoteErr *RemoteError
		if !errors.As(err, &remoteErr) || remoteErr.Code != CodeNetwork {
			t.Fatalf("expected network RemoteError, got %v", err)
		}
	})

	t.Run("InvalidAccount", func(t *testing.T) {
		account := testAccount(models.BackendTwitter, "")
		account.AccessToken = ""

		_, err := NewTwitterClient("http://127.0.0.1:1", nil).CreateFavorite(context.Background(), account, "1")

		var remoteErr *RemoteError
		if !errors.As(err, &remoteErr) || remoteErr.Code != CodeInvalidAccount {
			t.Fatalf("expected invalid_account RemoteError, got %v", err)
		}
	})
}
