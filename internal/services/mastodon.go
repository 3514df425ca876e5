// Mastodon API implementation of [Backend]
package services

import (
	"context"
	"net/http"
	"net/url"

	"github.com/desertthunder/twx/internal/models"
)

const defaultMastodonBaseURL = "https://mastodon.social"

// MastodonMention is an entry of a status' mentions.
type MastodonMention struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Acct     string `json:"acct"`
}

// MastodonStatus is the status entity returned by the favourite endpoint.
type MastodonStatus struct {
	ID              string            `json:"id"`
	Content         string            `json:"content"`
	Favourited      bool              `json:"favourited"`
	RepliesCount    int64             `json:"replies_count"`
	ReblogsCount    int64             `json:"reblogs_count"`
	FavouritesCount int64             `json:"favourites_count"`
	Mentions        []MastodonMention `json:"mentions"`
}

// MastodonClient calls the Mastodon REST API.
type MastodonClient struct {
	apiClient
}

// NewMastodonClient creates a client rooted at baseURL; an empty baseURL uses mastodon.social.
func NewMastodonClient(baseURL string, httpClient *http.Client) *MastodonClient {
	if baseURL == "" {
		baseURL = defaultMastodonBaseURL
	}
	return &MastodonClient{apiClient: newAPIClient("mastodon", baseURL, httpClient)}
}

// FavouriteStatus calls POST /api/v1/statuses/<statusID>/favourite.
func (c *MastodonClient) FavouriteStatus(ctx context.Context, account models.Account, statusID string) (*MastodonStatus, error) {
	var status MastodonStatus
	endpoint := "/api/v1/statuses/" + url.PathEscape(statusID) + "/favourite"
	if err := c.post(ctx, account, endpoint, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Backend returns the client paired with its normalizer.
func (c *MastodonClient) Backend() Backend {
	return backend[MastodonStatus]{call: c.FavouriteStatus, normalize: normalizeMastodon}
}

func normalizeMastodon(account models.Account, s *MastodonStatus) *models.FavoriteResult {
	ids := make([]string, len(s.Mentions))
	for i, m := range s.Mentions {
		ids[i] = m.ID
	}

	return &models.FavoriteResult{
		StatusID:      s.ID,
		IsFavorite:    s.Favourited,
		ReplyCount:    s.RepliesCount,
		RepostCount:   s.ReblogsCount,
		FavoriteCount: s.FavouritesCount,
		Mentions:      mentionKeys(account, ids...),
	}
}
