// package services defines the [Backend] interface for remote favorite calls
//
// Twitter-style, Fanfou, Mastodon
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/twx/internal/models"
	"golang.org/x/oauth2"
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// Backend marks a status as favorite on one kind of remote service.
type Backend interface {
	// Favorite performs the remote call and returns the normalized result.
	// Failures are [*RemoteError].
	Favorite(ctx context.Context, account models.Account, statusID string) (*models.FavoriteResult, error)
}

// backend pairs a client call returning the backend's raw type with its normalizer.
type backend[R any] struct {
	call      func(ctx context.Context, account models.Account, statusID string) (*R, error)
	normalize func(account models.Account, raw *R) *models.FavoriteResult
}

func (b backend[R]) Favorite(ctx context.Context, account models.Account, statusID string) (*models.FavoriteResult, error) {
	raw, err := b.call(ctx, account, statusID)
	if err != nil {
		return nil, err
	}
	return b.normalize(account, raw), nil
}

// apiClient performs bearer-authenticated requests against one backend.
type apiClient struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

func newAPIClient(name, baseURL string, httpClient *http.Client) apiClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return apiClient{name: name, baseURL: baseURL, httpClient: httpClient}
}

// rootURL returns the API root for account: its own api_url, or the client default.
func (c apiClient) rootURL(account models.Account) string {
	root := account.APIURL
	if root == "" {
		root = c.baseURL
	}
	return strings.TrimRight(root, "/")
}

// authorized returns an HTTP client that sends the account token as a bearer token.
func (c apiClient) authorized(ctx context.Context, account models.Account) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: account.AccessToken}))
}

// post sends form (may be nil) to endpoint under the account's API root and decodes the JSON response into result.
func (c apiClient) post(ctx context.Context, account models.Account, endpoint string, form url.Values, result any) error {
	if err := account.Validate(); err != nil {
		return newRemoteError(CodeInvalidAccount, 0, err.Error(), err)
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rootURL(account)+endpoint, body)
	if err != nil {
		return newRemoteError(CodeNetwork, 0, "failed to create request", err)
	}

	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.authorized(ctx, account).Do(req)
	if err != nil {
		return transportError(c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return statusError(c.name, resp.StatusCode, data)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return newRemoteError(CodeDecode, resp.StatusCode, fmt.Sprintf("failed to decode %s response", c.name), err)
		}
	}

	return nil
}

// mentionKeys converts remote user ids into user keys on the account's host.
func mentionKeys(account models.Account, ids ...string) []models.UserKey {
	var keys []models.UserKey
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		keys = append(keys, models.UserKey{ID: id, Host: account.Key.Host})
	}
	return keys
}
