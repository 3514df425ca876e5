// Fanfou API implementation of [Backend]
package services

import (
	"context"
	"net/http"
	"net/url"

	"github.com/desertthunder/twx/internal/models"
)

const defaultFanfouBaseURL = "https://api.fanfou.com"

// FanfouUser is the author embedded in a Fanfou status.
type FanfouUser struct {
	ID         string `json:"id"`
	ScreenName string `json:"screen_name"`
}

// FanfouStatus is the status object returned by favorites/create.
//
// Fanfou reports no reply, repost or favorite counters.
type FanfouStatus struct {
	ID              string     `json:"id"`
	Text            string     `json:"text"`
	Favorited       bool       `json:"favorited"`
	InReplyToUserID string     `json:"in_reply_to_user_id"`
	RepostUserID    string     `json:"repost_user_id"`
	User            FanfouUser `json:"user"`
}

// FanfouClient calls the Fanfou REST API.
type FanfouClient struct {
	apiClient
}

// NewFanfouClient creates a client rooted at baseURL; an empty baseURL uses the public API.
func NewFanfouClient(baseURL string, httpClient *http.Client) *FanfouClient {
	if baseURL == "" {
		baseURL = defaultFanfouBaseURL
	}
	return &FanfouClient{apiClient: newAPIClient("fanfou", baseURL, httpClient)}
}

// CreateFavorite calls POST /favorites/create/<statusID>.json.
func (c *FanfouClient) CreateFavorite(ctx context.Context, account models.Account, statusID string) (*FanfouStatus, error) {
	var status FanfouStatus
	endpoint := "/favorites/create/" + url.PathEscape(statusID) + ".json"
	if err := c.post(ctx, account, endpoint, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Backend returns the client paired with its normalizer.
func (c *FanfouClient) Backend() Backend {
	return backend[FanfouStatus]{call: c.CreateFavorite, normalize: normalizeFanfou}
}

func normalizeFanfou(account models.Account, s *FanfouStatus) *models.FavoriteResult {
	return &models.FavoriteResult{
		StatusID:   s.ID,
		IsFavorite: s.Favorited,
		Mentions:   mentionKeys(account, s.InReplyToUserID, s.RepostUserID),
	}
}
