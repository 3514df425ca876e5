package tasks

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/twx/internal/models"
	"github.com/desertthunder/twx/internal/services"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/desertthunder/twx/internal/tasks"

// DraftStore persists drafts for in-progress actions.
type DraftStore interface {
	SaveDraft(action models.DraftAction, accountKeys []models.AccountKey, extras any) (string, error)
	DeleteDraft(id string) error
}

// Dispatcher performs the remote favorite call for an account.
type Dispatcher interface {
	Dispatch(ctx context.Context, account models.Account, status models.Status) (*models.FavoriteResult, error)
}

// CacheSynchronizer writes a favorite result into the local cache.
type CacheSynchronizer interface {
	Sync(account models.AccountKey, statusID string, result *models.FavoriteResult) error
}

// Notifier shows a short failure message to the user.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

// FavoriteServiceOpts holds the collaborators of a [FavoriteService].
//
// Drafts, Dispatcher and Synchronizer are required. The rest default to in-memory or no-op
// implementations.
type FavoriteServiceOpts struct {
	Drafts       DraftStore
	Dispatcher   Dispatcher
	Synchronizer CacheSynchronizer
	Sending      SendingTracker
	Registry     *Registry
	Sink         Sink
	Notifier     Notifier
	Metrics      *Metrics
	Tracer       trace.Tracer
	Logger       *log.Logger
}

// FavoriteService creates favorite tasks and answers in-flight queries.
type FavoriteService struct {
	drafts     DraftStore
	dispatcher Dispatcher
	sync       CacheSynchronizer
	sending    SendingTracker
	registry   *Registry
	sink       Sink
	notifier   Notifier
	metrics    *Metrics
	tracer     trace.Tracer
	logger     *log.Logger
}

// NewFavoriteService creates a [FavoriteService].
func NewFavoriteService(opts FavoriteServiceOpts) *FavoriteService {
	s := &FavoriteService{
		drafts:     opts.Drafts,
		dispatcher: opts.Dispatcher,
		sync:       opts.Synchronizer,
		sending:    opts.Sending,
		registry:   opts.Registry,
		sink:       opts.Sink,
		notifier:   opts.Notifier,
		metrics:    opts.Metrics,
		tracer:     opts.Tracer,
		logger:     opts.Logger,
	}

	if s.sending == nil {
		s.sending = NewSendingSet()
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	if s.sink == nil {
		s.sink = SinkFunc(func(Event) {})
	}
	if s.notifier == nil {
		s.notifier = NotifierFunc(func(string) {})
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}

	return s
}

// CreateFavorite marks status as favorite on behalf of account.
//
// Failures are [*MutationError]. If ctx is already done, ctx.Err() is returned and nothing is
// recorded or published. Once started, the remote call is not cancelled by ctx.
func (s *FavoriteService) CreateFavorite(ctx context.Context, account models.Account, status models.Status) (*models.FavoriteResult, error) {
	return s.NewTask(account, status).Run(ctx)
}

// IsCreatingFavorite reports whether a favorite for (account, statusID) is in flight.
func (s *FavoriteService) IsCreatingFavorite(account models.AccountKey, statusID string) bool {
	return s.registry.Contains(KeyFor(account, statusID))
}

// InFlight returns the number of favorite operations in flight.
func (s *FavoriteService) InFlight() int {
	return s.registry.Len()
}

// NewTask creates a task for one invocation. Tasks are not reusable.
func (s *FavoriteService) NewTask(account models.Account, status models.Status) *CreateFavoriteTask {
	return &CreateFavoriteTask{
		svc:     s,
		account: account,
		status:  status,
		key:     KeyFor(account.Key, status.ID),
	}
}

// TaskState is the progress of a [CreateFavoriteTask].
type TaskState int32

const (
	StateCreated TaskState = iota
	StateDraftPersisted
	StateRemoteDispatched
	StateSucceeded
	StateFailed
)

func (s TaskState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateDraftPersisted:
		return "draft_persisted"
	case StateRemoteDispatched:
		return "remote_dispatched"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return ""
	}
}

// CreateFavoriteTask is one favorite invocation split into before, execute and after phases.
type CreateFavoriteTask struct {
	svc     *FavoriteService
	account models.Account
	status  models.Status
	key     InFlightKey
	state   atomic.Int32
	draftID atomic.Value
}

func (t *CreateFavoriteTask) State() TaskState { return TaskState(t.state.Load()) }
func (t *CreateFavoriteTask) Key() InFlightKey { return t.key }

// DraftID returns the id of the draft written by Execute, or "" before it is persisted.
func (t *CreateFavoriteTask) DraftID() string {
	id, _ := t.draftID.Load().(string)
	return id
}

func (t *CreateFavoriteTask) setState(s TaskState) { t.state.Store(int32(s)) }

// Run executes the three phases. AfterExecute runs even if Execute panics.
func (t *CreateFavoriteTask) Run(ctx context.Context) (result *models.FavoriteResult, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := t.svc
	backend := t.account.Type.String()

	ctx, span := s.tracer.Start(ctx, "favorite.create", trace.WithAttributes(
		attribute.String("account", t.account.Key.String()),
		attribute.String("status", t.status.ID),
		attribute.String("backend", backend),
	))
	defer span.End()

	start := time.Now()
	s.metrics.started()
	t.BeforeExecute()

	defer func() {
		if result == nil && err == nil {
			t.setState(StateFailed)
			err = &MutationError{Kind: ErrorKindInterrupted, Message: "favorite task was interrupted"}
		}

		t.AfterExecute(result, err)

		outcome := "succeeded"
		if err != nil {
			outcome = "failed"
			span.RecordError(err)
			span.SetStatus(codes.Error, userMessage(err))
		}
		s.metrics.finished(backend, outcome, time.Since(start))
	}()

	return t.Execute(ctx)
}

// BeforeExecute marks the operation in flight and asks observers to refresh.
func (t *CreateFavoriteTask) BeforeExecute() {
	t.svc.registry.Add(t.key)
	t.svc.sink.Publish(statusListChanged(t.account.Key, t.status.ID))
}

// Execute persists a draft, performs the remote call and updates the local cache.
//
// The draft is kept when the remote call fails. Cache and draft cleanup failures after a
// successful call are logged only.
func (t *CreateFavoriteTask) Execute(ctx context.Context) (*models.FavoriteResult, error) {
	s := t.svc
	logger := s.logger.With("account", t.account.Key, "status", t.status.ID)

	draftID, err := s.drafts.SaveDraft(
		models.DraftActionFavorite,
		[]models.AccountKey{t.account.Key},
		models.StatusActionExtras{Status: t.status},
	)
	if err != nil {
		t.setState(StateFailed)
		s.metrics.draftFailed()
		return nil, &MutationError{Kind: ErrorKindDraftPersistence, Message: "failed to save draft", Err: err}
	}
	t.draftID.Store(draftID)
	t.setState(StateDraftPersisted)

	s.sending.Add(draftID)
	defer s.sending.Remove(draftID)

	dispatchCtx, span := s.tracer.Start(context.WithoutCancel(ctx), "favorite.dispatch")
	result, err := s.dispatcher.Dispatch(dispatchCtx, t.account, t.status)
	if err == nil && result == nil {
		err = &services.RemoteError{Code: services.CodeDecode, Message: "backend returned no result"}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, userMessage(err))
	}
	span.End()

	if err != nil {
		t.setState(StateFailed)
		logger.Warn("favorite failed", "draft", draftID, "error", err)
		return nil, &MutationError{Kind: ErrorKindRemote, Message: userMessage(err), Err: err}
	}
	t.setState(StateRemoteDispatched)

	if err := s.sync.Sync(t.account.Key, t.status.ID, result); err != nil {
		s.metrics.syncFailed()
		logger.Warn("favorite succeeded but local cache update failed", "error", err)
	}

	if err := s.drafts.DeleteDraft(draftID); err != nil {
		s.metrics.draftFailed()
		logger.Warn("favorite succeeded but draft was not deleted", "draft", draftID, "error", err)
	}

	t.setState(StateSucceeded)
	logger.Info("favorite created", "favorites", result.FavoriteCount)
	return result, nil
}

// AfterExecute clears the in-flight mark, reports the outcome and asks observers to refresh.
func (t *CreateFavoriteTask) AfterExecute(result *models.FavoriteResult, err error) {
	s := t.svc
	s.registry.Remove(t.key)

	event := Event{
		Kind:       EventFavoriteTask,
		Action:     models.DraftActionFavorite,
		AccountKey: t.account.Key,
		StatusID:   t.status.ID,
		Finished:   true,
		Time:       time.Now(),
	}

	if err == nil {
		event.Succeeded = true
		event.Result = result
	} else {
		event.Message = userMessage(err)
		s.notifier.Notify(event.Message)
	}

	s.sink.Publish(event)
	s.sink.Publish(statusListChanged(t.account.Key, t.status.ID))
}
