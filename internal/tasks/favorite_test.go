package tasks

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/twx/internal/models"
	"github.com/desertthunder/twx/internal/services"
	"github.com/desertthunder/twx/internal/shared"
	mock "github.com/desertthunder/twx/internal/testing"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

var (
	testKey     = models.AccountKey{ID: "1", Host: "twitter.com"}
	testAccount = models.Account{Key: testKey, Type: models.BackendTwitter, AccessToken: "token"}
	testStatus  = models.Status{ID: "100", AccountKey: testKey}
)

type syncFunc func(account models.AccountKey, statusID string, result *models.FavoriteResult) error

func (f syncFunc) Sync(account models.AccountKey, statusID string, result *models.FavoriteResult) error {
	return f(account, statusID, result)
}

type fixture struct {
	svc        *FavoriteService
	drafts     *mock.MockDraftStore
	dispatcher *mock.MockDispatcher
	events     *mock.Recorder[Event]
	toasts     *mock.Recorder[string]
	sending    *SendingSet
	metrics    *Metrics
}

func newFixture(t *testing.T, cache CacheSynchronizer) *fixture {
	t.Helper()

	if cache == nil {
		cache = syncFunc(func(models.AccountKey, string, *models.FavoriteResult) error { return nil })
	}

	f := &fixture{
		drafts:     &mock.MockDraftStore{},
		dispatcher: &mock.MockDispatcher{},
		events:     &mock.Recorder[Event]{},
		toasts:     &mock.Recorder[string]{},
		sending:    NewSendingSet(),
		metrics:    NewMetrics(prometheus.NewRegistry(), "test"),
	}

	f.svc = NewFavoriteService(FavoriteServiceOpts{
		Drafts:       f.drafts,
		Dispatcher:   f.dispatcher,
		Synchronizer: cache,
		Sending:      f.sending,
		Sink:         SinkFunc(f.events.Record),
		Notifier:     NotifierFunc(f.toasts.Record),
		Metrics:      f.metrics,
		Logger:       log.New(io.Discard),
	})
	return f
}

func metricValue(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("failed to read metric: %v", err)
	}
	switch {
	case out.Counter != nil:
		return out.GetCounter().GetValue()
	case out.Gauge != nil:
		return out.GetGauge().GetValue()
	default:
		return 0
	}
}

func terminal(t *testing.T, events []Event) Event {
	t.Helper()
	var found []Event
	for _, e := range events {
		if e.Kind == EventFavoriteTask {
			found = append(found, e)
		}
	}
	if len(found) != 1 {
		t.Fatalf("expected exactly one terminal event, got %d", len(found))
	}
	return found[0]
}

func TestCreateFavorite(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newFixture(t, nil)

		result, err := f.svc.CreateFavorite(context.Background(), testAccount, testStatus)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if !result.IsFavorite {
			t.Error("expected favorited result")
		}

		if f.drafts.Saved() != 1 || f.drafts.Len() != 0 {
			t.Errorf("expected one draft saved and retired, saved=%d remaining=%d", f.drafts.Saved(), f.drafts.Len())
		}
		if f.svc.IsCreatingFavorite(testKey, "100") {
			t.Error("in-flight key should be cleared")
		}
		if len(f.sending.IDs()) != 0 {
			t.Errorf("sending set should be empty, got %v", f.sending.IDs())
		}
		if len(f.toasts.Values()) != 0 {
			t.Errorf("no toast expected on success, got %v", f.toasts.Values())
		}

		events := f.events.Values()
		if len(events) != 3 {
			t.Fatalf("expected started, terminal and refresh events, got %d", len(events))
		}
		if events[0].Kind != EventStatusListChanged || events[1].Kind != EventFavoriteTask || events[2].Kind != EventStatusListChanged {
			t.Errorf("unexpected event order: %v, %v, %v", events[0].Kind, events[1].Kind, events[2].Kind)
		}
		if events[1].Time.Before(events[0].Time) {
			t.Error("started event must precede the terminal event")
		}

		ev := terminal(t, events)
		if !ev.Finished || !ev.Succeeded || ev.Result != result || ev.Message != "" {
			t.Errorf("unexpected terminal event: %+v", ev)
		}
		if ev.AccountKey != testKey || ev.StatusID != "100" || ev.Action != models.DraftActionFavorite {
			t.Errorf("terminal event identifies the wrong operation: %+v", ev)
		}

		if got := metricValue(t, f.metrics.tasks.WithLabelValues("twitter", "succeeded")); got != 1 {
			t.Errorf("expected one succeeded task metric, got %v", got)
		}
		if got := metricValue(t, f.metrics.inFlight); got != 0 {
			t.Errorf("expected in-flight gauge back at zero, got %v", got)
		}
	})

	t.Run("RemoteFailureKeepsDraft", func(t *testing.T) {
		f := newFixture(t, nil)
		remoteErr := &services.RemoteError{Code: services.CodeAuth, Status: 401, Message: "Invalid or expired token.", Err: shared.ErrNotAuthenticated}
		f.dispatcher.DispatchFunc = func(context.Context, models.Account, models.Status) (*models.FavoriteResult, error) {
			return nil, remoteErr
		}

		result, err := f.svc.CreateFavorite(context.Background(), testAccount, testStatus)
		if result != nil {
			t.Errorf("expected no result, got %+v", result)
		}
		if !IsKind(err, ErrorKindRemote) {
			t.Fatalf("expected remote MutationError, got %v", err)
		}

		var rErr *services.RemoteError
		if !errors.As(err, &rErr) || rErr != remoteErr {
			t.Error("MutationError should unwrap to the RemoteError")
		}
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Error("MutationError should unwrap to the shared sentinel")
		}

		if f.drafts.Len() != 1 {
			t.Errorf("draft must survive a failed dispatch, got %d drafts", f.drafts.Len())
		}
		if f.svc.IsCreatingFavorite(testKey, "100") {
			t.Error("in-flight key should be cleared after failure")
		}

		ev := terminal(t, f.events.Values())
		if ev.Succeeded || ev.Result != nil || ev.Message != "Invalid or expired token." {
			t.Errorf("unexpected terminal event: %+v", ev)
		}

		if toasts := f.toasts.Values(); len(toasts) != 1 || toasts[0] != "Invalid or expired token." {
			t.Errorf("expected one toast with the remote message, got %v", toasts)
		}
	})

	t.Run("NilResultKeepsDraft", func(t *testing.T) {
		var synced bool
		f := newFixture(t, syncFunc(func(models.AccountKey, string, *models.FavoriteResult) error {
			synced = true
			return nil
		}))
		f.dispatcher.DispatchFunc = func(context.Context, models.Account, models.Status) (*models.FavoriteResult, error) {
			return nil, nil
		}

		result, err := f.svc.CreateFavorite(context.Background(), testAccount, testStatus)
		if result != nil {
			t.Errorf("expected no result, got %+v", result)
		}
		if !IsKind(err, ErrorKindRemote) {
			t.Fatalf("expected remote MutationError, got %v", err)
		}

		var rErr *services.RemoteError
		if !errors.As(err, &rErr) || rErr.Code != services.CodeDecode {
			t.Errorf("expected decode RemoteError, got %v", err)
		}
		if f.drafts.Len() != 1 {
			t.Errorf("draft must survive an empty dispatch result, got %d drafts", f.drafts.Len())
		}
		if synced {
			t.Error("cache must not be synced without a result")
		}

		ev := terminal(t, f.events.Values())
		if ev.Succeeded || ev.Message != "backend returned no result" {
			t.Errorf("unexpected terminal event: %+v", ev)
		}
	})

	t.Run("DraftPersistenceFailure", func(t *testing.T) {
		f := newFixture(t, nil)
		f.drafts.SaveErr = errors.New("database is locked")

		_, err := f.svc.CreateFavorite(context.Background(), testAccount, testStatus)
		if !IsKind(err, ErrorKindDraftPersistence) {
			t.Fatalf("expected draft persistence error, got %v", err)
		}
		if len(f.dispatcher.Calls()) != 0 {
			t.Error("remote call must not happen without a draft")
		}

		ev := terminal(t, f.events.Values())
		if ev.Succeeded {
			t.Error("expected failed terminal event")
		}
		if len(f.toasts.Values()) != 1 {
			t.Error("expected a toast for the failure")
		}
	})

	t.Run("CacheSyncFailureStillSucceeds", func(t *testing.T) {
		f := newFixture(t, syncFunc(func(models.AccountKey, string, *models.FavoriteResult) error {
			return &MutationError{Kind: ErrorKindCacheSync, Message: "failed to update local cache", Err: errors.New("disk I/O error")}
		}))

		result, err := f.svc.CreateFavorite(context.Background(), testAccount, testStatus)
		if err != nil {
			t.Fatalf("cache failure must not fail the task: %v", err)
		}
		if result == nil {
			t.Fatal("expected result")
		}

		if f.drafts.Len() != 0 {
			t.Error("draft must be retired after a successful dispatch")
		}
		if ev := terminal(t, f.events.Values()); !ev.Succeeded {
			t.Error("expected succeeded terminal event")
		}
		if got := metricValue(t, f.metrics.syncFailures); got != 1 {
			t.Errorf("expected one sync failure metric, got %v", got)
		}
	})

	t.Run("DraftDeleteFailureStillSucceeds", func(t *testing.T) {
		f := newFixture(t, nil)
		f.drafts.DeleteErr = errors.New("database is locked")

		if _, err := f.svc.CreateFavorite(context.Background(), testAccount, testStatus); err != nil {
			t.Fatalf("draft delete failure must not fail the task: %v", err)
		}
		if ev := terminal(t, f.events.Values()); !ev.Succeeded {
			t.Error("expected succeeded terminal event")
		}
	})

	t.Run("CancelledBeforeStart", func(t *testing.T) {
		f := newFixture(t, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.svc.CreateFavorite(ctx, testAccount, testStatus)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if len(f.events.Values()) != 0 || f.drafts.Saved() != 0 || len(f.dispatcher.Calls()) != 0 {
			t.Error("a cancelled invocation must have no effects")
		}
	})

	t.Run("CancelAfterStartDoesNotAbortDispatch", func(t *testing.T) {
		f := newFixture(t, nil)
		ctx, cancel := context.WithCancel(context.Background())

		f.dispatcher.DispatchFunc = func(dctx context.Context, _ models.Account, status models.Status) (*models.FavoriteResult, error) {
			cancel()
			if dctx.Err() != nil {
				return nil, dctx.Err()
			}
			return &models.FavoriteResult{StatusID: status.ID, IsFavorite: true}, nil
		}

		if _, err := f.svc.CreateFavorite(ctx, testAccount, testStatus); err != nil {
			t.Fatalf("dispatch should not observe caller cancellation: %v", err)
		}
	})

	t.Run("PanicStillRunsAfterExecute", func(t *testing.T) {
		f := newFixture(t, nil)
		f.dispatcher.DispatchFunc = func(context.Context, models.Account, models.Status) (*models.FavoriteResult, error) {
			panic("boom")
		}

		func() {
			defer func() {
				if recover() == nil {
					t.Error("expected panic to propagate")
				}
			}()
			f.svc.CreateFavorite(context.Background(), testAccount, testStatus)
		}()

		if f.svc.IsCreatingFavorite(testKey, "100") {
			t.Error("in-flight key should be cleared after a panic")
		}
		if len(f.sending.IDs()) != 0 {
			t.Error("sending set should be cleared after a panic")
		}
		ev := terminal(t, f.events.Values())
		if ev.Succeeded || ev.Message == "" {
			t.Errorf("expected failed terminal event, got %+v", ev)
		}
	})
}

func TestCreateFavoriteTaskState(t *testing.T) {
	f := newFixture(t, nil)

	var during TaskState
	var task *CreateFavoriteTask
	f.dispatcher.DispatchFunc = func(_ context.Context, _ models.Account, status models.Status) (*models.FavoriteResult, error) {
		during = task.State()
		if !f.svc.IsCreatingFavorite(testKey, status.ID) {
			t.Error("key should be in flight during dispatch")
		}
		if !f.sending.Contains(task.DraftID()) {
			t.Error("draft should be marked as sending during dispatch")
		}
		return &models.FavoriteResult{StatusID: status.ID, IsFavorite: true}, nil
	}

	task = f.svc.NewTask(testAccount, testStatus)
	if task.State() != StateCreated {
		t.Errorf("expected created, got %s", task.State())
	}

	if _, err := task.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if during != StateDraftPersisted {
		t.Errorf("expected draft_persisted during dispatch, got %s", during)
	}
	if task.State() != StateSucceeded {
		t.Errorf("expected succeeded, got %s", task.State())
	}
}

func TestInFlightGuard(t *testing.T) {
	t.Run("ConcurrentBeforeExecute", func(t *testing.T) {
		f := newFixture(t, nil)

		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				f.svc.NewTask(testAccount, testStatus).BeforeExecute()
			}()
		}
		wg.Wait()

		if f.svc.InFlight() != 1 {
			t.Errorf("expected key exactly once, got %d entries", f.svc.InFlight())
		}

		for range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				f.svc.NewTask(testAccount, testStatus).AfterExecute(&models.FavoriteResult{}, nil)
			}()
		}
		wg.Wait()

		if f.svc.IsCreatingFavorite(testKey, "100") {
			t.Error("concurrent AfterExecute calls must not leave the key present")
		}
	})

	t.Run("ConcurrentInvocationsBothProceed", func(t *testing.T) {
		f := newFixture(t, nil)
		release := make(chan struct{})
		entered := make(chan struct{}, 2)

		f.dispatcher.DispatchFunc = func(_ context.Context, _ models.Account, status models.Status) (*models.FavoriteResult, error) {
			entered <- struct{}{}
			<-release
			return &models.FavoriteResult{StatusID: status.ID, IsFavorite: true}, nil
		}

		var wg sync.WaitGroup
		for range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				f.svc.CreateFavorite(context.Background(), testAccount, testStatus)
			}()
		}

		<-entered
		<-entered
		if !f.svc.IsCreatingFavorite(testKey, "100") {
			t.Error("key should be in flight while both dispatches run")
		}
		if f.svc.InFlight() != 1 {
			t.Errorf("expected one registry entry, got %d", f.svc.InFlight())
		}

		close(release)
		wg.Wait()

		if f.svc.IsCreatingFavorite(testKey, "100") {
			t.Error("key should be cleared once both complete")
		}
		if len(f.dispatcher.Calls()) != 2 {
			t.Errorf("expected both invocations to dispatch, got %d", len(f.dispatcher.Calls()))
		}
	})

	t.Run("DistinctKeys", func(t *testing.T) {
		other := models.AccountKey{ID: "2", Host: "twitter.com"}
		if KeyFor(testKey, "100") == KeyFor(other, "100") {
			t.Error("different accounts should produce different keys")
		}
		if KeyFor(testKey, "100") == KeyFor(testKey, "1000") {
			t.Error("different statuses should produce different keys")
		}
		if KeyFor(models.AccountKey{ID: "1"}, "23") == KeyFor(models.AccountKey{ID: "12"}, "3") {
			t.Error("key parts must be separated")
		}
	})
}
