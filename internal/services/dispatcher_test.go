package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/twx/internal/models"
	"github.com/desertthunder/twx/internal/shared"
)

type recordingLastSeen struct {
	mu    sync.Mutex
	calls [][]models.UserKey
	err   error
}

func (r *recordingLastSeen) SetLastSeen(users []models.UserKey, _ time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, users)
	return int64(len(users)), r.err
}

// backendServers starts one test server per backend type and records which one served each call.
func backendServers(t *testing.T) (shared.RemoteConfig, *[]string) {
	t.Helper()

	var mu sync.Mutex
	var hits []string
	hit := func(name string) {
		mu.Lock()
		defer mu.Unlock()
		hits = append(hits, name)
	}

	twitter := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit("twitter")
		writeJSON(t, w, http.StatusOK, map[string]any{
			"id_str":    "100",
			"favorited": true,
			"entities":  map[string]any{"user_mentions": []map[string]any{{"id_str": "7"}}},
		})
	}))
	fanfou := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit("fanfou")
		writeJSON(t, w, http.StatusOK, map[string]any{"id": "100", "favorited": true})
	}))
	mastodon := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit("mastodon")
		writeJSON(t, w, http.StatusOK, map[string]any{"id": "100", "favourited": true, "favourites_count": 1})
	}))

	t.Cleanup(func() {
		twitter.Close()
		fanfou.Close()
		mastodon.Close()
	})

	remote := shared.RemoteConfig{
		TimeoutSeconds:    5,
		RequestsPerSecond: 100,
		Twitter:           shared.BackendConfig{APIURL: twitter.URL},
		Fanfou:            shared.BackendConfig{APIURL: fanfou.URL},
		Mastodon:          shared.BackendConfig{APIURL: mastodon.URL},
	}
	return remote, &hits
}

func TestDispatcher(t *testing.T) {
	quiet := log.New(io.Discard)

	t.Run("RoutesByBackendType", func(t *testing.T) {
		tc := []struct {
			backend models.BackendType
			want    string
		}{
			{models.BackendTwitter, "twitter"},
			{models.BackendFanfou, "fanfou"},
			{models.BackendMastodon, "mastodon"},
			{models.BackendType("statusnet"), "twitter"},
			{models.BackendType(""), "twitter"},
		}

		for _, tt := range tc {
			t.Run(string(tt.backend), func(t *testing.T) {
				remote, hits := backendServers(t)
				d := NewDispatcher(DispatcherOpts{Remote: remote, Logger: quiet})

				_, err := d.Dispatch(context.Background(), testAccount(tt.backend, ""), models.Status{ID: "100"})
				if err != nil {
					t.Fatalf("dispatch failed: %v", err)
				}

				if len(*hits) != 1 || (*hits)[0] != tt.want {
					t.Errorf("expected exactly one %s call, got %v", tt.want, *hits)
				}
			})
		}
	})

	t.Run("RecordsLastSeen", func(t *testing.T) {
		remote, _ := backendServers(t)
		recorder := &recordingLastSeen{}
		d := NewDispatcher(DispatcherOpts{Remote: remote, LastSeen: recorder, Logger: quiet})

		result, err := d.Dispatch(context.Background(), testAccount(models.BackendTwitter, ""), models.Status{ID: "100"})
		if err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}

		if len(recorder.calls) != 1 || len(recorder.calls[0]) != 1 || recorder.calls[0][0] != result.Mentions[0] {
			t.Errorf("expected mentions to be recorded once, got %v", recorder.calls)
		}
	})

	t.Run("LastSeenFailureIgnored", func(t *testing.T) {
		remote, _ := backendServers(t)
		recorder := &recordingLastSeen{err: errors.New("disk full")}
		d := NewDispatcher(DispatcherOpts{Remote: remote, LastSeen: recorder, Logger: quiet})

		if _, err := d.Dispatch(context.Background(), testAccount(models.BackendTwitter, ""), models.Status{ID: "100"}); err != nil {
			t.Fatalf("last seen failure should not fail dispatch: %v", err)
		}
	})

	t.Run("NoMentionsSkipsLastSeen", func(t *testing.T) {
		remote, _ := backendServers(t)
		recorder := &recordingLastSeen{}
		d := NewDispatcher(DispatcherOpts{Remote: remote, LastSeen: recorder, Logger: quiet})

		if _, err := d.Dispatch(context.Background(), testAccount(models.BackendMastodon, ""), models.Status{ID: "100"}); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if len(recorder.calls) != 0 {
			t.Errorf("expected no last seen call, got %v", recorder.calls)
		}
	})

	t.Run("RegisterOverridesBackend", func(t *testing.T) {
		remote, hits := backendServers(t)
		d := NewDispatcher(DispatcherOpts{Remote: remote, Logger: quiet})

		var called string
		d.Register(models.BackendFanfou, backend[string]{
			call: func(_ context.Context, _ models.Account, statusID string) (*string, error) {
				called = statusID
				return &statusID, nil
			},
			normalize: func(_ models.Account, id *string) *models.FavoriteResult {
				return &models.FavoriteResult{IsFavorite: true}
			},
		})

		result, err := d.Dispatch(context.Background(), testAccount(models.BackendFanfou, ""), models.Status{ID: "55"})
		if err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if called != "55" || len(*hits) != 0 {
			t.Errorf("expected registered backend to serve the call, got %q and %v", called, *hits)
		}
		if result.StatusID != "55" {
			t.Errorf("expected missing result id to default to the status id, got %q", result.StatusID)
		}
	})

	t.Run("InvalidAccount", func(t *testing.T) {
		remote, hits := backendServers(t)
		d := NewDispatcher(DispatcherOpts{Remote: remote, Logger: quiet})

		_, err := d.Dispatch(context.Background(), models.Account{Type: models.BackendTwitter}, models.Status{ID: "100"})

		var remoteErr *RemoteError
		if !errors.As(err, &remoteErr) || remoteErr.Code != CodeInvalidAccount {
			t.Fatalf("expected invalid_account error, got %v", err)
		}
		if len(*hits) != 0 {
			t.Errorf("no remote call expected, got %v", *hits)
		}
	})

	t.Run("RemoteFailure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"errors":[{"message":"No status found with that ID."}]}`))
		}))
		defer server.Close()

		recorder := &recordingLastSeen{}
		d := NewDispatcher(DispatcherOpts{
			Remote:   shared.RemoteConfig{TimeoutSeconds: 5, Twitter: shared.BackendConfig{APIURL: server.URL}},
			LastSeen: recorder,
			Logger:   quiet,
		})

		_, err := d.Dispatch(context.Background(), testAccount(models.BackendTwitter, ""), models.Status{ID: "404"})
		if !errors.Is(err, shared.ErrRemoteNotFound) {
			t.Fatalf("expected ErrRemoteNotFound, got %v", err)
		}
		if len(recorder.calls) != 0 {
			t.Error("last seen must not be recorded on failure")
		}
	})
}
