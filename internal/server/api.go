package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/twx/internal/formatter"
	"github.com/desertthunder/twx/internal/models"
	"github.com/desertthunder/twx/internal/services"
	"github.com/desertthunder/twx/internal/shared"
	"github.com/desertthunder/twx/internal/tasks"
)

const defaultRetryLimit = 4

// FavoriteCreator runs favorite tasks and answers in-flight queries.
type FavoriteCreator interface {
	CreateFavorite(ctx context.Context, account models.Account, status models.Status) (*models.FavoriteResult, error)
	IsCreatingFavorite(account models.AccountKey, statusID string) bool
	InFlight() int
}

// DraftRecovery lists, retries and discards leftover drafts.
type DraftRecovery interface {
	Pending(account *models.AccountKey) ([]*models.Draft, error)
	Retry(ctx context.Context, id string) (*models.FavoriteResult, error)
	RetryAll(ctx context.Context, ids []string, limit int) []tasks.RetryResult
	Discard(id string) error
}

// APIOpts configures an [API].
type APIOpts struct {
	Favorites FavoriteCreator
	Drafts    DraftRecovery
	Accounts  tasks.AccountResolver
	Statuses  tasks.StatusLookup
	Views     []string
	Logger    *log.Logger
}

// API serves the favorite and draft endpoints.
type API struct {
	favorites FavoriteCreator
	drafts    DraftRecovery
	accounts  tasks.AccountResolver
	statuses  tasks.StatusLookup
	views     []string
	logger    *log.Logger
}

// FavoriteRequest is the body of POST /api/favorites.
type FavoriteRequest struct {
	Account  string `json:"account"`
	StatusID string `json:"status_id"`
}

// FavoriteResponse wraps a successful favorite result.
type FavoriteResponse struct {
	Account string                 `json:"account"`
	Result  *models.FavoriteResult `json:"result"`
}

// RetryRequest is the body of POST /api/drafts/retry.
type RetryRequest struct {
	IDs   []string `json:"ids"`
	Limit int      `json:"limit,omitempty"`
}

// RetryOutcome is one entry of the bulk retry response.
type RetryOutcome struct {
	DraftID string                 `json:"draft_id"`
	Result  *models.FavoriteResult `json:"result,omitempty"`
	Error   *ErrorResponse         `json:"error,omitempty"`
}

// InFlightResponse answers GET /api/favorites/inflight.
type InFlightResponse struct {
	Account  string `json:"account,omitempty"`
	StatusID string `json:"status_id,omitempty"`
	InFlight bool   `json:"in_flight"`
	Total    int    `json:"total"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Code  string `json:"code,omitempty"`
}

// NewAPI creates an [API]. Statuses may be nil, in which case bare snapshots are used.
func NewAPI(opts APIOpts) *API {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &API{
		favorites: opts.Favorites,
		drafts:    opts.Drafts,
		accounts:  opts.Accounts,
		statuses:  opts.Statuses,
		views:     opts.Views,
		logger:    logger,
	}
}

// Register adds the API routes to router.
func (a *API) Register(router Router) {
	router.Handle(http.MethodPost, "/api/favorites", http.HandlerFunc(a.createFavorite))
	router.Handle(http.MethodGet, "/api/favorites/inflight", http.HandlerFunc(a.inFlight))
	router.Handle(http.MethodGet, "/api/drafts", http.HandlerFunc(a.listDrafts))
	router.Handle(http.MethodPost, "/api/drafts/retry", http.HandlerFunc(a.retryDrafts))
	router.Handle(http.MethodPost, "/api/drafts/{id}/retry", http.HandlerFunc(a.retryDraft))
	router.Handle(http.MethodDelete, "/api/drafts/{id}", http.HandlerFunc(a.discardDraft))
	router.Handle(http.MethodGet, "/healthz", http.HandlerFunc(a.health))
}

func (a *API) createFavorite(w http.ResponseWriter, r *http.Request) {
	var req FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Account == "" || req.StatusID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "account and status_id are required"})
		return
	}

	key, err := models.ParseAccountKey(req.Account)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	account, err := a.accounts.Get(key)
	if err != nil {
		a.writeError(w, err)
		return
	}

	status, found, err := tasks.ResolveStatus(a.statuses, a.views, key, req.StatusID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if !found {
		a.logger.Debug("no cached snapshot, using bare status", "account", key, "status", req.StatusID)
	}

	result, err := a.favorites.CreateFavorite(r.Context(), account, status)
	if err != nil {
		a.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FavoriteResponse{Account: key.String(), Result: result})
}

func (a *API) inFlight(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp := InFlightResponse{Total: a.favorites.InFlight()}

	if q.Get("account") != "" || q.Get("status") != "" {
		key, err := models.ParseAccountKey(q.Get("account"))
		if err != nil || q.Get("status") == "" {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "account and status must be given together"})
			return
		}
		resp.Account = key.String()
		resp.StatusID = q.Get("status")
		resp.InFlight = a.favorites.IsCreatingFavorite(key, resp.StatusID)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) listDrafts(w http.ResponseWriter, r *http.Request) {
	var account *models.AccountKey
	if raw := r.URL.Query().Get("account"); raw != "" {
		key, err := models.ParseAccountKey(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		account = &key
	}

	drafts, err := a.drafts.Pending(account)
	if err != nil {
		a.writeError(w, err)
		return
	}

	views := make([]formatter.DraftView, 0, len(drafts))
	for _, d := range drafts {
		views = append(views, formatter.NewDraftView(d, false))
	}
	writeJSON(w, http.StatusOK, views)
}

func (a *API) retryDraft(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	result, err := a.drafts.Retry(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FavoriteResponse{Result: result})
}

func (a *API) retryDrafts(w http.ResponseWriter, r *http.Request) {
	var req RetryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "ids are required"})
		return
	}
	if req.Limit <= 0 {
		req.Limit = defaultRetryLimit
	}

	results := a.drafts.RetryAll(r.Context(), req.IDs, req.Limit)

	outcomes := make([]RetryOutcome, 0, len(results))
	for _, res := range results {
		outcome := RetryOutcome{DraftID: res.DraftID, Result: res.Result}
		if res.Err != nil {
			_, body := errorResponse(res.Err)
			outcome.Error = &body
		}
		outcomes = append(outcomes, outcome)
	}
	writeJSON(w, http.StatusOK, outcomes)
}

func (a *API) discardDraft(w http.ResponseWriter, r *http.Request) {
	if err := a.drafts.Discard(r.PathValue("id")); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "in_flight": a.favorites.InFlight()})
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, body)
}

// errorResponse maps err to an HTTP status and body.
//
// Remote failures become gateway errors; lookups that miss become 404.
func errorResponse(err error) (int, ErrorResponse) {
	body := ErrorResponse{Error: err.Error()}

	var mErr *tasks.MutationError
	if errors.As(err, &mErr) {
		body.Kind = string(mErr.Kind)
		body.Error = mErr.Message
	}

	var rErr *services.RemoteError
	if errors.As(err, &rErr) {
		body.Code = string(rErr.Code)
		switch rErr.Code {
		case services.CodeTimeout:
			return http.StatusGatewayTimeout, body
		case services.CodeRateLimited:
			return http.StatusTooManyRequests, body
		case services.CodeInvalidAccount:
			return http.StatusBadRequest, body
		default:
			return http.StatusBadGateway, body
		}
	}

	switch {
	case mErr != nil:
		return http.StatusInternalServerError, body
	case errors.Is(err, shared.ErrAccountNotFound),
		errors.Is(err, shared.ErrDraftNotFound),
		errors.Is(err, shared.ErrStatusNotFound):
		return http.StatusNotFound, body
	case errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrUnknownView):
		return http.StatusBadRequest, body
	default:
		return http.StatusInternalServerError, body
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
