package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/twx/internal/models"
	"github.com/desertthunder/twx/internal/repositories"
	"github.com/desertthunder/twx/internal/services"
	"github.com/desertthunder/twx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func seedStatuses(t *testing.T, repo *repositories.StatusRepository, rows map[string][]models.Status) {
	t.Helper()
	for view, statuses := range rows {
		for _, s := range statuses {
			if err := repo.Upsert(view, s); err != nil {
				t.Fatalf("failed to seed %s: %v", view, err)
			}
		}
	}
}

func TestSynchronizer(t *testing.T) {
	other := models.AccountKey{ID: "2", Host: "twitter.com"}

	t.Run("CacheConsistency", func(t *testing.T) {
		db := setupTestDB(t)
		statuses := repositories.NewStatusRepository(db)
		activities := repositories.NewActivityRepository(db)

		seedStatuses(t, statuses, map[string][]models.Status{
			repositories.ViewStatuses: {
				{AccountKey: testKey, ID: "R"},
				{AccountKey: testKey, ID: "R2", RepostOfID: "R"},
				{AccountKey: testKey, ID: "S"},
				{AccountKey: other, ID: "R"},
			},
			repositories.ViewCachedStatuses: {
				{AccountKey: testKey, ID: "R"},
				{AccountKey: other, ID: "R2", RepostOfID: "R"},
			},
		})

		sync := NewSynchronizer(statuses, activities, repositories.StatusViews, log.New(io.Discard))
		result := &models.FavoriteResult{StatusID: "R", IsFavorite: true, ReplyCount: 5, RepostCount: 2, FavoriteCount: 9}

		if err := sync.Sync(testKey, "R", result); err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		want := result.State()
		for _, c := range []struct {
			view string
			id   string
		}{
			{repositories.ViewStatuses, "R"},
			{repositories.ViewStatuses, "R2"},
			{repositories.ViewCachedStatuses, "R"},
		} {
			got, err := statuses.Get(c.view, testKey, c.id)
			if err != nil {
				t.Fatalf("failed to read %s/%s: %v", c.view, c.id, err)
			}
			state := models.FavoriteState{IsFavorite: got.IsFavorite, ReplyCount: got.ReplyCount, RepostCount: got.RepostCount, FavoriteCount: got.FavoriteCount}
			if state != want {
				t.Errorf("%s/%s: expected %+v, got %+v", c.view, c.id, want, state)
			}
		}

		if s, _ := statuses.Get(repositories.ViewStatuses, testKey, "S"); s.IsFavorite {
			t.Error("unrelated status was touched")
		}
		if s, _ := statuses.Get(repositories.ViewStatuses, other, "R"); s.IsFavorite || s.FavoriteCount != 0 {
			t.Error("another account's row was touched")
		}
		if s, _ := statuses.Get(repositories.ViewCachedStatuses, other, "R2"); s.IsFavorite {
			t.Error("another account's repost row was touched")
		}
	})

	t.Run("ActivityIDMismatchSkipped", func(t *testing.T) {
		db := setupTestDB(t)
		statuses := repositories.NewStatusRepository(db)
		activities := repositories.NewActivityRepository(db)

		for _, a := range []models.Activity{
			{ActivityID: "a1", AccountKey: testKey, ID: "R"},
			{ActivityID: "a2", AccountKey: testKey, ID: "R2", RepostOfID: "R"},
		} {
			if err := activities.Upsert(a); err != nil {
				t.Fatalf("failed to seed activity: %v", err)
			}
		}

		sync := NewSynchronizer(statuses, activities, repositories.StatusViews, log.New(io.Discard))
		if err := sync.Sync(testKey, "R", &models.FavoriteResult{StatusID: "R", IsFavorite: true, FavoriteCount: 3}); err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		got, err := activities.ListByStatus(testKey, "R")
		if err != nil {
			t.Fatalf("failed to list activities: %v", err)
		}
		for _, a := range got {
			switch a.ActivityID {
			case "a1":
				if !a.IsFavorite || a.FavoriteCount != 3 {
					t.Errorf("matching activity not updated: %+v", a)
				}
			case "a2":
				if a.IsFavorite {
					t.Errorf("activity with a different id must be left unchanged: %+v", a)
				}
			}
		}
	})

	t.Run("UnknownViewIsCacheSyncError", func(t *testing.T) {
		db := setupTestDB(t)
		sync := NewSynchronizer(repositories.NewStatusRepository(db), nil, []string{"timeline"}, log.New(io.Discard))

		err := sync.Sync(testKey, "R", &models.FavoriteResult{StatusID: "R", IsFavorite: true})
		if !IsKind(err, ErrorKindCacheSync) {
			t.Fatalf("expected cache sync error, got %v", err)
		}
		if !errors.Is(err, shared.ErrUnknownView) {
			t.Errorf("expected error to wrap ErrUnknownView, got %v", err)
		}
	})
}

// TestFavoriteEndToEnd runs a favorite against a Twitter-style test server with the SQLite stores.
func TestFavoriteEndToEnd(t *testing.T) {
	db := setupTestDB(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1.1/favorites/create.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id_str":         "100",
			"favorited":      true,
			"reply_count":    1,
			"retweet_count":  0,
			"favorite_count": 1,
			"entities":       map[string]any{"user_mentions": []any{}},
		})
	}))
	defer server.Close()

	logger := log.New(io.Discard)
	draftRepo := repositories.NewDraftRepository(db)
	statuses := repositories.NewStatusRepository(db)

	if err := statuses.Upsert(repositories.ViewStatuses, models.Status{AccountKey: testKey, ID: "100"}); err != nil {
		t.Fatalf("failed to seed status: %v", err)
	}

	dispatcher := services.NewDispatcher(services.DispatcherOpts{
		Remote: shared.RemoteConfig{
			TimeoutSeconds:    5,
			RequestsPerSecond: 10,
			Twitter:           shared.BackendConfig{APIURL: server.URL},
		},
		LastSeen: repositories.NewCachedUserRepository(db),
		Logger:   logger,
	})

	bus := NewBus()
	events, unsubscribe := bus.Subscribe(8)
	defer unsubscribe()

	svc := NewFavoriteService(FavoriteServiceOpts{
		Drafts:       repositories.NewDraftStoreAdapter(draftRepo),
		Dispatcher:   dispatcher,
		Synchronizer: NewSynchronizer(statuses, repositories.NewActivityRepository(db), repositories.StatusViews, logger),
		Sink:         bus,
		Logger:       logger,
	})

	result, err := svc.CreateFavorite(context.Background(), testAccount, models.Status{ID: "100", AccountKey: testKey})
	if err != nil {
		t.Fatalf("favorite failed: %v", err)
	}

	var got []Event
	for len(events) > 0 {
		got = append(got, <-events)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	ev := terminal(t, got)
	if !ev.Succeeded || ev.Result == nil || !ev.Result.IsFavorite || ev.Result != result {
		t.Errorf("unexpected terminal event: %+v", ev)
	}

	drafts, err := draftRepo.List(nil)
	if err != nil {
		t.Fatalf("failed to list drafts: %v", err)
	}
	if len(drafts) != 0 {
		t.Errorf("expected draft to be retired, found %d", len(drafts))
	}

	if svc.IsCreatingFavorite(testKey, "100") {
		t.Error("in-flight key should be absent")
	}

	row, err := statuses.Get(repositories.ViewStatuses, testKey, "100")
	if err != nil {
		t.Fatalf("failed to read cached status: %v", err)
	}
	if !row.IsFavorite || row.FavoriteCount != 1 {
		t.Errorf("expected cached row favorited with count 1, got %+v", row)
	}
}

func TestFavoriteEndToEndRemoteFailure(t *testing.T) {
	db := setupTestDB(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errors":[{"code":139,"message":"You have already favorited this status."}]}`))
	}))
	defer server.Close()

	logger := log.New(io.Discard)
	draftRepo := repositories.NewDraftRepository(db)
	statuses := repositories.NewStatusRepository(db)

	svc := NewFavoriteService(FavoriteServiceOpts{
		Drafts: repositories.NewDraftStoreAdapter(draftRepo),
		Dispatcher: services.NewDispatcher(services.DispatcherOpts{
			Remote: shared.RemoteConfig{TimeoutSeconds: 5, Twitter: shared.BackendConfig{APIURL: server.URL}},
			Logger: logger,
		}),
		Synchronizer: NewSynchronizer(statuses, nil, repositories.StatusViews, logger),
		Logger:       logger,
	})

	_, err := svc.CreateFavorite(context.Background(), testAccount, models.Status{ID: "100"})

	var rErr *services.RemoteError
	if !errors.As(err, &rErr) || rErr.Code != services.CodeAuth {
		t.Fatalf("expected auth RemoteError, got %v", err)
	}

	drafts, err := draftRepo.List(map[string]any{"account_key": testKey})
	if err != nil {
		t.Fatalf("failed to list drafts: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("expected the draft to survive, found %d", len(drafts))
	}

	extras, err := drafts[0].StatusExtras()
	if err != nil || extras.Status.ID != "100" {
		t.Errorf("draft should record the status snapshot, got %+v, %v", extras, err)
	}
}

func TestResolveStatus(t *testing.T) {
	db := setupTestDB(t)
	statuses := repositories.NewStatusRepository(db)

	cached := models.Status{ID: "100", AccountKey: testKey, Text: "cached", FavoriteCount: 4, CreatedAt: time.Now()}
	if err := statuses.Upsert(repositories.ViewCachedStatuses, cached); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	t.Run("FoundInLaterView", func(t *testing.T) {
		got, found, err := ResolveStatus(statuses, repositories.StatusViews, testKey, "100")
		if err != nil {
			t.Fatalf("ResolveStatus failed: %v", err)
		}
		if !found || got.Text != "cached" || got.FavoriteCount != 4 {
			t.Errorf("expected cached snapshot, got found=%v %+v", found, got)
		}
	})

	t.Run("MissingFallsBackToBare", func(t *testing.T) {
		got, found, err := ResolveStatus(statuses, repositories.StatusViews, testKey, "999")
		if err != nil {
			t.Fatalf("ResolveStatus failed: %v", err)
		}
		if found || got.ID != "999" || got.AccountKey != testKey {
			t.Errorf("expected bare snapshot, got found=%v %+v", found, got)
		}
	})

	t.Run("UnknownViewErrors", func(t *testing.T) {
		if _, _, err := ResolveStatus(statuses, []string{"bogus"}, testKey, "100"); !errors.Is(err, shared.ErrUnknownView) {
			t.Errorf("expected ErrUnknownView, got %v", err)
		}
	})

	t.Run("NilLookup", func(t *testing.T) {
		_, found, err := ResolveStatus(nil, repositories.StatusViews, testKey, "100")
		if err != nil || found {
			t.Errorf("expected bare snapshot without error, got found=%v err=%v", found, err)
		}
	})
}
