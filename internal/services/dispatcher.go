package services

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/twx/internal/models"
	"github.com/desertthunder/twx/internal/shared"
	"golang.org/x/time/rate"
)

// LastSeenRecorder stamps the users mentioned by a favorited status.
type LastSeenRecorder interface {
	SetLastSeen(users []models.UserKey, t time.Time) (int64, error)
}

// DispatcherOpts configures a [Dispatcher].
type DispatcherOpts struct {
	Remote     shared.RemoteConfig
	HTTPClient *http.Client // defaults to a client with Remote.Timeout()
	LastSeen   LastSeenRecorder
	Logger     *log.Logger
}

// Dispatcher routes a favorite call to the backend of the account's type.
type Dispatcher struct {
	backends map[models.BackendType]Backend
	limiters map[models.BackendType]*rate.Limiter
	limit    rate.Limit
	burst    int
	lastSeen LastSeenRecorder
	logger   *log.Logger
	now      func() time.Time
}

// NewDispatcher builds a dispatcher with the Twitter-style, Fanfou and Mastodon clients.
func NewDispatcher(opts DispatcherOpts) *Dispatcher {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Remote.Timeout()}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	limit := rate.Inf
	burst := 1
	if opts.Remote.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.Remote.RequestsPerSecond)
		burst = max(1, int(opts.Remote.RequestsPerSecond))
	}

	d := &Dispatcher{
		backends: make(map[models.BackendType]Backend),
		limiters: make(map[models.BackendType]*rate.Limiter),
		limit:    limit,
		burst:    burst,
		lastSeen: opts.LastSeen,
		logger:   logger,
		now:      time.Now,
	}

	d.Register(models.BackendTwitter, NewTwitterClient(opts.Remote.Twitter.APIURL, httpClient).Backend())
	d.Register(models.BackendFanfou, NewFanfouClient(opts.Remote.Fanfou.APIURL, httpClient).Backend())
	d.Register(models.BackendMastodon, NewMastodonClient(opts.Remote.Mastodon.APIURL, httpClient).Backend())

	return d
}

// Register installs b for backend type t, replacing any previous entry.
func (d *Dispatcher) Register(t models.BackendType, b Backend) {
	d.backends[t] = b
	d.limiters[t] = rate.NewLimiter(d.limit, d.burst)
}

// resolve returns the entry for t, falling back to the Twitter-style entry.
func (d *Dispatcher) resolve(t models.BackendType) models.BackendType {
	if _, ok := d.backends[t]; ok {
		return t
	}
	return models.BackendTwitter
}

// Dispatch marks status as favorite on behalf of account.
//
// On success the users mentioned by the returned status are stamped as last seen. That write is
// best-effort and never fails the dispatch.
func (d *Dispatcher) Dispatch(ctx context.Context, account models.Account, status models.Status) (*models.FavoriteResult, error) {
	if err := account.Validate(); err != nil {
		return nil, newRemoteError(CodeInvalidAccount, 0, err.Error(), err)
	}
	if err := status.Validate(); err != nil {
		return nil, newRemoteError(CodeInvalidAccount, 0, err.Error(), err)
	}

	backendType := d.resolve(account.Type)
	b, ok := d.backends[backendType]
	if !ok {
		return nil, newRemoteError(CodeInvalidAccount, 0, "no backend for "+account.Type.String(), shared.ErrNotImplemented)
	}

	if err := d.limiters[backendType].Wait(ctx); err != nil {
		return nil, newRemoteError(CodeRateLimited, 0, backendType.String()+" request was rate limited", err)
	}

	start := d.now()
	result, err := b.Favorite(ctx, account, status.ID)
	if err != nil {
		d.logger.Debug("favorite call failed", "backend", backendType, "status", status.ID, "error", err)
		return nil, err
	}

	if result.StatusID == "" {
		result.StatusID = status.ID
	}

	d.logger.Debug("favorite call succeeded",
		"backend", backendType,
		"status", result.StatusID,
		"duration", d.now().Sub(start),
	)

	d.recordLastSeen(result.Mentions)

	return result, nil
}

func (d *Dispatcher) recordLastSeen(mentions []models.UserKey) {
	if d.lastSeen == nil || len(mentions) == 0 {
		return
	}

	if _, err := d.lastSeen.SetLastSeen(mentions, d.now()); err != nil {
		d.logger.Warn("failed to record last seen", "users", len(mentions), "error", err)
	}
}
