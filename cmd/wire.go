package main

import (
	"context"
	"os"

	"github.com/desertthunder/twx/internal/repositories"
	"github.com/desertthunder/twx/internal/services"
	"github.com/desertthunder/twx/internal/shared"
	"github.com/desertthunder/twx/internal/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// components is the favorite task stack built from the runner's config.
type components struct {
	accounts  *repositories.AccountRepository
	drafts    *repositories.DraftRepository
	statuses  *repositories.StatusRepository
	users     *repositories.CachedUserRepository
	bus       *tasks.Bus
	sending   *tasks.SendingSet
	registry  *prometheus.Registry
	favorites *tasks.FavoriteService
	recovery  *tasks.Recovery
	tracer    *sdktrace.TracerProvider
}

// open wires repositories, dispatcher, synchronizer and favorite service.
//
// notifier receives failure messages; nil logs them as warnings.
func (r *Runner) open(notifier tasks.Notifier) (*components, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}

	provider, err := shared.NewTracerProvider(r.config.Telemetry, os.Stderr)
	if err != nil {
		return nil, err
	}

	if notifier == nil {
		notifier = tasks.NotifierFunc(func(message string) {
			r.logger.Warn("favorite failed", "message", message)
		})
	}

	c := &components{
		accounts: repositories.NewAccountRepository(db),
		drafts:   repositories.NewDraftRepository(db),
		statuses: repositories.NewStatusRepository(db),
		users:    repositories.NewCachedUserRepository(db),
		bus:      tasks.NewBus(),
		sending:  tasks.NewSendingSet(),
		registry: prometheus.NewRegistry(),
		tracer:   provider,
	}
	c.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	dispatcher := services.NewDispatcher(services.DispatcherOpts{
		Remote:     r.config.Remote,
		HTTPClient: r.httpClient,
		LastSeen:   c.users,
		Logger:     shared.WithLogger(r.logger, "component", "dispatcher"),
	})

	synchronizer := tasks.NewSynchronizer(
		c.statuses,
		repositories.NewActivityRepository(db),
		r.config.Cache.Views,
		shared.WithLogger(r.logger, "component", "synchronizer"),
	)

	c.favorites = tasks.NewFavoriteService(tasks.FavoriteServiceOpts{
		Drafts:       repositories.NewDraftStoreAdapter(c.drafts),
		Dispatcher:   dispatcher,
		Synchronizer: synchronizer,
		Sending:      c.sending,
		Sink:         c.bus,
		Notifier:     notifier,
		Metrics:      tasks.NewMetrics(c.registry, r.config.Telemetry.MetricsNamespace),
		Tracer:       provider.Tracer("github.com/desertthunder/twx/internal/tasks"),
		Logger:       shared.WithLogger(r.logger, "component", "favorites"),
	})

	c.recovery = tasks.NewRecovery(c.drafts, c.accounts, c.favorites, c.sending, shared.WithLogger(r.logger, "component", "recovery"))

	return c, nil
}

// close flushes pending spans.
func (c *components) close(ctx context.Context) error {
	return shared.ShutdownTracer(ctx, c.tracer)
}
